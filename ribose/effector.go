package ribose

// Return is the bitmask an effector's Invoke/InvokeParameter returns
// to the run loop (§4.6, §6.3).
type Return uint8

const (
	// ReturnPause requests that Run return to its caller with
	// status Paused.
	ReturnPause Return = 1 << iota
	// ReturnPopTransducer requests that the top transducer frame be
	// popped.
	ReturnPopTransducer
	// ReturnPopInput requests that the top input frame be popped.
	ReturnPopInput
	// ReturnResetInput requests a mark-replay reset.
	ReturnResetInput
)

// Effector is the minimal ABI every effector exposes: a name and an
// invocation (§6.3). Built-in scalar effectors (those with no
// parameter, like mark/reset/pause/stop) and every host-contributed
// effector implement this.
//
// spec.md's ABI writes invoke() as a bare, argument-less call; this
// implementation passes the running Transductor explicitly rather
// than threading it through hidden state, since Go effectors are
// plain values with no implicit receiver context to mutate. This is
// the same shape as nes.Mapper's ReadFromCPU/WriteFromCPU taking the
// bus address explicitly instead of reaching for package state.
type Effector interface {
	Name() string
	Invoke(t *Transductor) (Return, error)
}

// ParameterizedEffector is an Effector that additionally accepts a
// compiled parameter handle (§6.3, §3 "Effector-parameter table").
// CompileParameter resolves a raw token list (as stored in the model)
// into an opaque handle; InvokeParameter is called instead of Invoke
// whenever the dispatched action names a parameter ordinal.
type ParameterizedEffector interface {
	Effector
	CompileParameter(tokens []Token) (any, error)
	InvokeParameter(t *Transductor, param any) (Return, error)
}

// ParameterShower is an optional capability a ParameterizedEffector
// may implement to support Transducer.String()-style introspection
// (§6.3 showParameterTokens); it is not used by the run loop.
type ParameterShower interface {
	ShowParameterTokens(tokens []Token) string
}

// Target is the host object an engine binds a Transductor to. It
// contributes effectors beyond the fixed built-in prefix (§1, §6.3);
// spec.md treats concrete target classes as external collaborators —
// the core only consumes this registry and the parameter-compilation
// callbacks it implies.
type Target interface {
	// TargetClass returns the name a transducer's target-class field
	// is matched against at bind time.
	TargetClass() string
	// Effectors returns every effector this target contributes, in
	// addition to the fixed built-in prefix.
	Effectors() []Effector
}
