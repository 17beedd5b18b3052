package binding

import (
	"context"
)

// CallInfo describes the binding being invoked.
type CallInfo struct {
	Provider string
	Function string
	Engine   string
}

type callInfoKey struct{}

// WithCallInfo returns a context carrying info.
func WithCallInfo(ctx context.Context, info CallInfo) context.Context {
	return context.WithValue(ctx, callInfoKey{}, info)
}

// CallInfoFrom extracts the CallInfo attached by the registry for the
// current native call.
func CallInfoFrom(ctx context.Context) (CallInfo, bool) {
	info, ok := ctx.Value(callInfoKey{}).(CallInfo)
	return info, ok
}
