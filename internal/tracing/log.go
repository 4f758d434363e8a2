package tracing

import (
	"context"

	"github.com/counselhub/counselhub/internal/contexts"
	"github.com/counselhub/counselhub/internal/log"
)

func SetupLogger(logger *log.Logger) {
	logger.AddHook(log.HookFunc(TraceFieldsHooks))
}

// TraceFieldsHooks adds the trace id, operation name and counselor id to log
// entries if they exist in the context.
func TraceFieldsHooks(ctx context.Context, msg string, fields ...log.Field) []log.Field {
	if ctx == nil {
		return fields
	}

	if traceID, ok := GetTraceID(ctx); ok {
		fields = append(fields, log.String("trace_id", traceID))
	}

	if operationName, ok := GetOperationName(ctx); ok {
		fields = append(fields, log.String("operation_name", operationName))
	}

	if counselor, ok := contexts.GetCounselor(ctx); ok {
		fields = append(fields, log.String("counselor_id", counselor.ID))
	}

	return fields
}
