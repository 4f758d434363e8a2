package log

import (
	"time"

	"go.uber.org/zap"
)

// Field is an alias of zap.Field so call sites never import zap directly.
type Field = zap.Field

func String(key string, val string) Field {
	return zap.String(key, val)
}

func Strings(key string, vals []string) Field {
	return zap.Strings(key, vals)
}

func Int(key string, val int) Field {
	return zap.Int(key, val)
}

func Int64(key string, val int64) Field {
	return zap.Int64(key, val)
}

func Float64(key string, val float64) Field {
	return zap.Float64(key, val)
}

func Bool(key string, val bool) Field {
	return zap.Bool(key, val)
}

func Any(key string, val any) Field {
	return zap.Any(key, val)
}

func Time(key string, val time.Time) Field {
	return zap.Time(key, val)
}

func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}

// Cause records the error that caused the logged condition.
func Cause(err error) Field {
	return zap.NamedError("cause", err)
}
