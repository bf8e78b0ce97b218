// Package kernels implements the operator runtime library: one pure function
// per operator kind, operating on flat float32 buffers with explicit
// shape/size/attribute parameters and writing into a caller-supplied output.
//
// These are the reference semantics of the library. The C emitter renders the
// same operations (same parameter order, same numeric behavior) as C text;
// tests check the two against each other through closed-form expectations.
//
// Conventions, shared with the emitted C:
//   - one element type throughout (float32); comparisons and predicates
//     produce 0 and 1, not a boolean representation
//   - bitwise/shift operands truncate toward zero to int32 first; shift
//     counts clamp to [0, 31]
//   - integral casts truncate toward zero and saturate at the target range;
//     NaN casts to 0
//   - no kernel allocates its output
package kernels
