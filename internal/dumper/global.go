package dumper

import (
	"context"
	"os"
)

// global is the process-wide debug dumper. It is armed only by environment
// variable so it works before configuration is loaded.
var global *Dumper

func init() {
	if os.Getenv("COUNSELHUB_DEBUG_DUMPER_ENABLED") != "true" {
		return
	}

	config := DefaultConfig()
	config.Enabled = true

	global = New(config)
}

// Enabled reports whether the env-armed debug dumper is active.
func Enabled() bool {
	return global != nil && global.config.Enabled
}

// DumpObject writes obj through the debug dumper when armed.
func DumpObject(ctx context.Context, obj any, name string) {
	if global != nil {
		global.DumpStruct(ctx, obj, name)
	}
}

// DumpRecords writes records through the debug dumper when armed.
func DumpRecords(ctx context.Context, records []any, name string) {
	if global != nil {
		global.DumpRecords(ctx, records, name)
	}
}

// DumpBytes writes raw bytes through the debug dumper when armed.
func DumpBytes(ctx context.Context, data []byte, name string) {
	if global != nil {
		global.DumpBytes(ctx, data, name)
	}
}
