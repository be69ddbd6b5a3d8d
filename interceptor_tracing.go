package fins

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// TracingInterceptor creates an interceptor that extracts and logs trace IDs from context
// The trace ID is extracted from the context using the provided key.
//
// Example:
//
//	type ctxKey string
//	client.SetInterceptor(fins.TracingInterceptor(ctxKey("traceID"), logger))
//
//	// Use with context
//	ctx := context.WithValue(context.Background(), ctxKey("traceID"), "trace-12345")
//	client.ReadWords(ctx, fins.MemoryAreaDMWord, 100, 5)
func TracingInterceptor(traceIDKey interface{}, logger *zap.Logger) Interceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("FINS")

	return func(ctx context.Context, info *InterceptorInfo, invoker Invoker) (interface{}, error) {
		if traceID := ctx.Value(traceIDKey); traceID != nil {
			logger.Info("trace",
				zap.String("trace_id", fmt.Sprintf("%v", traceID)),
				zap.String("operation", string(info.Operation)),
				zap.String("area", fmt.Sprintf("0x%02X", info.MemoryArea)),
				zap.Uint16("address", info.Address),
			)
		}
		return invoker(ctx)
	}
}
