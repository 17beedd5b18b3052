package binding

import (
	"context"
	"fmt"
	"log/slog"
)

// Middleware wraps a Func to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps outermost).
type Middleware func(next Func) Func

// PanicError is returned in place of a panic raised by a native function.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	switch v := e.Value.(type) {
	case error:
		return "panic: " + v.Error()
	case string:
		return "panic: " + v
	default:
		return fmt.Sprintf("panic: %v", v)
	}
}

// PanicRecoveryMiddleware converts panics in native functions into a
// *PanicError so a faulty binding cannot take down the engine's host thread.
func PanicRecoveryMiddleware() Middleware {
	return func(next Func) Func {
		return func(ctx context.Context, args []any) (out []any, err error) {
			defer func() {
				if r := recover(); r != nil {
					out = nil
					err = &PanicError{Value: r}
				}
			}()
			return next(ctx, args)
		}
	}
}

// LoggingMiddleware logs each native call at debug level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Func) Func {
		return func(ctx context.Context, args []any) ([]any, error) {
			info, _ := CallInfoFrom(ctx)
			logger.DebugContext(ctx, "invoking native function",
				"provider", info.Provider, "function", info.Function, "engine", info.Engine, "args", len(args))
			out, err := next(ctx, args)
			if err != nil {
				logger.DebugContext(ctx, "native function failed",
					"provider", info.Provider, "function", info.Function, "error", err)
			}
			return out, err
		}
	}
}
