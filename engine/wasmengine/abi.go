package wasmengine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/dayo05/aris-extension-template/binding"
	"github.com/dayo05/aris-extension-template/log"
)

// Response is the JSON document returned to the guest.
type Response struct {
	Error   *ErrorResponse `json:"error,omitempty"`
	Results []any          `json:"results,omitempty"`
}

// ErrorResponse is a structured error the guest can inspect instead of trapping.
type ErrorResponse struct {
	// Error is a machine-readable error type identifier.
	Error string `json:"error"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Code is a numeric error code.
	Code int `json:"code"`
}

func newValidationError(message string) *ErrorResponse {
	return &ErrorResponse{Error: "VALIDATION_ERROR", Message: message, Code: 400}
}

func newNativeError(err error) *ErrorResponse {
	return &ErrorResponse{Error: "NATIVE_ERROR", Message: err.Error(), Code: 500}
}

// handleCall reads the arguments from guest memory, invokes the binding and
// writes the response back.
func (e *Engine) handleCall(ctx context.Context, mod api.Module, stack []uint64, b binding.Binding) {
	ptr, length := unpackPtrLen(stack[0])

	var args []any
	if length > 0 {
		if length > e.cfg.maxRequestSize {
			msg := fmt.Sprintf("request size %d exceeds maximum %d bytes", length, e.cfg.maxRequestSize)
			log.FromContext(ctx).ErrorContext(ctx, "wasmengine: "+msg, "function", b.Name)
			stack[0] = writeResponse(ctx, mod, Response{Error: newValidationError(msg)})
			return
		}
		mem := mod.Memory()
		if mem == nil {
			log.FromContext(ctx).ErrorContext(ctx, "wasmengine: caller has no memory", "function", b.Name)
			stack[0] = 0
			return
		}
		data, ok := mem.Read(ptr, length)
		if !ok {
			msg := "failed to read request from guest memory"
			log.FromContext(ctx).ErrorContext(ctx, "wasmengine: "+msg, "function", b.Name)
			stack[0] = writeResponse(ctx, mod, Response{Error: newValidationError(msg)})
			return
		}
		if err := json.Unmarshal(data, &args); err != nil {
			stack[0] = writeResponse(ctx, mod, Response{Error: newValidationError("arguments must be a JSON array: " + err.Error())})
			return
		}
	}

	results, err := b.Fn(ctx, args)
	if err != nil {
		log.FromContext(ctx).DebugContext(ctx, "wasmengine: native function failed", "function", b.Name, "error", err)
		stack[0] = writeResponse(ctx, mod, Response{Error: newNativeError(err)})
		return
	}
	if len(results) == 0 {
		stack[0] = 0
		return
	}
	stack[0] = writeResponse(ctx, mod, Response{Results: results})
}

// writeResponse allocates memory in the guest and writes the encoded response.
// Returns packed ptr+len or 0 on failure.
func writeResponse(ctx context.Context, mod api.Module, resp Response) uint64 {
	data, err := json.Marshal(resp)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "wasmengine: failed to encode response", "error", err)
		return 0
	}

	allocateFn := mod.ExportedFunction("allocate")
	if allocateFn == nil {
		log.FromContext(ctx).ErrorContext(ctx, "wasmengine: guest module missing 'allocate' export")
		return 0
	}

	results, err := allocateFn.Call(ctx, uint64(len(data)))
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "wasmengine: failed to call guest allocate", "error", err)
		return 0
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit

	if !mod.Memory().Write(ptr, data) {
		log.FromContext(ctx).ErrorContext(ctx, "wasmengine: failed to write response to guest memory")
		return 0
	}

	return packPtrLen(ptr, uint32(len(data))) //nolint:gosec // G115: response size is bounded by guest memory
}

// packPtrLen packs a pointer and length into a single i64.
// Upper 32 bits: pointer, lower 32 bits: length.
func packPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

// unpackPtrLen unpacks a pointer and length from a packed i64.
func unpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32)           //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: Packed format stores 32-bit values
	return ptr, length
}

// ReadResponse decodes the packed result of a guest call from mod's memory.
// A zero packed value is an empty Response.
func ReadResponse(mod api.Module, packed uint64) (Response, error) {
	var resp Response
	if packed == 0 {
		return resp, nil
	}
	ptr, length := unpackPtrLen(packed)
	mem := mod.Memory()
	if mem == nil {
		return resp, fmt.Errorf("module %s has no memory", mod.Name())
	}
	data, ok := mem.Read(ptr, length)
	if !ok {
		return resp, fmt.Errorf("response out of range: ptr=%d len=%d", ptr, length)
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}
