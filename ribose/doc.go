// Package ribose implements a recursive byte-oriented transduction engine.
//
// Patterns are compiled offline from finite-state transducers into a
// compact runtime model (see Model and the codec in model_codec.go),
// then executed against streaming byte input by a Transductor. A
// Transductor drives a stack of Transducers, each one consuming bytes
// or injected signals and invoking Effectors that paste bytes into
// named Fields, push and pop transducers and input frames, mark and
// reset the input, and otherwise mutate a host Target.
package ribose
