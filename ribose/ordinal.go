package ribose

// Ordinal is a non-negative index into one of the four disjoint
// ordinal spaces: signal, field, effector, transducer.
type Ordinal int

// S0 is the first signal ordinal. Raw input bytes occupy 0..255, so
// signals begin immediately above the byte range and share the same
// symbol axis as bytes without colliding with them.
const S0 = 256

// Built-in signals, reserved at the lowest signal ordinals.
const (
	SignalNul Ordinal = S0 + iota // domain error: current state rejects this input
	SignalNil                     // advance silently, no effect
	SignalEOL                     // end of line
	SignalEOS                     // end of stream
)

// AnonymousField is the ordinal of the field every transducer writes
// to by default, before any select() effector call.
const AnonymousField Ordinal = 0

// Built-in effector ordinals. Ordinal 0 is NUL (domain error marker
// inside a transition cell), ordinal 1 is NIL (silent advance); both
// are never dispatched as effector calls, only as transition actions.
// Ordinals 2.. name the fixed built-in prefix; host-contributed
// effectors are allocated ordinals above builtinEffectorCount.
const (
	effNul Ordinal = iota
	effNil
	effPaste
	effSelect
	effCopy
	effCut
	effClear
	effIn
	effOut
	effMark
	effReset
	effStart
	effPause
	effStop
	effCount
	effSignal
	effMsum
	effMproduct
	effMscan
	builtinEffectorCount
)

// builtinEffectorNames is indexed by the builtin ordinals above; it is
// the seed of every transducer's effector ordinal map (§3, §6.3).
var builtinEffectorNames = [builtinEffectorCount]string{
	effNul:      "nul",
	effNil:      "nil",
	effPaste:    "paste",
	effSelect:   "select",
	effCopy:     "copy",
	effCut:      "cut",
	effClear:    "clear",
	effIn:       "in",
	effOut:      "out",
	effMark:     "mark",
	effReset:    "reset",
	effStart:    "start",
	effPause:    "pause",
	effStop:     "stop",
	effCount:    "count",
	effSignal:   "signal",
	effMsum:     "msum",
	effMproduct: "mproduct",
	effMscan:    "mscan",
}

// parameterizedBase is the threshold above which an action encodes a
// packed (effectorOrdinal, parameterOrdinal) reference rather than a
// bare scalar effector ordinal (§3). Every parameterized effector has
// ordinal >= effPaste, so effector<<16 always clears this threshold on
// its own; no separate offset bit is needed.
const parameterizedBase = 0x10000

// packParameterized packs an effector/parameter ordinal pair into a
// single action value >= parameterizedBase.
func packParameterized(effector, parameter Ordinal) int32 {
	return int32(effector)<<16 | int32(parameter&0xFFFF)
}

// unpackParameterized decodes an action known to be >= parameterizedBase.
func unpackParameterized(action int32) (effector, parameter Ordinal) {
	return Ordinal(action >> 16), Ordinal(action & 0xFFFF)
}
