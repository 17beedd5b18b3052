// Package wasmengine exposes native bindings to WebAssembly guests through wazero.
//
// Each provider namespace becomes one host module whose exports are the
// provider's functions. Guests import them as (i64) -> i64 functions using
// the packed pointer/length convention:
//
//   - the argument is ptr<<32 | len of a JSON array of arguments in guest
//     memory, or 0 for no arguments;
//   - the result is ptr<<32 | len of a JSON Response written into memory
//     obtained from the guest's "allocate" export, or 0 when the function
//     returned nothing.
//
// A namespace can be bound only once per engine; wazero refuses to
// instantiate a second module under the same name.
package wasmengine
