package ribose

import (
	"fmt"
	"io"
)

// Status is the value returned by Transductor.Status (§4.6).
type Status int

const (
	StatusStopped Status = iota
	StatusRunnable
	StatusPaused
	StatusWaiting
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusRunnable:
		return "runnable"
	case StatusPaused:
		return "paused"
	case StatusWaiting:
		return "waiting"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Transductor is a running instance bound to one Model and one Target:
// its own input stack, transducer stack, fields, and output sink,
// sharing the Model's read-only transition matrices with any number of
// sibling transductors (§5).
type Transductor struct {
	model  *Model
	target Target

	fields []*Field
	input  *inputStack
	stack  *transducerStack
	sink   io.Writer

	effectors []Effector
	params    [][]any // [effectorOrdinal][parameterOrdinal] compiled handles

	status Status
	trace  *traceLog
}

// New binds a fresh Transductor to model and target (§4.6, §6.3). The
// target's effectors are matched against the model's effector ordinal
// map by name; every parameterised effector's stored token lists are
// resolved against the model's ordinal maps and compiled once, up
// front, via the effector's own CompileParameter.
func New(model *Model, target Target) (*Transductor, error) {
	if target.TargetClass() != model.targetClass {
		return nil, newModelError("bind", "target class %q does not match model target class %q", target.TargetClass(), model.targetClass)
	}

	byName := make(map[string]Effector, len(target.Effectors())+builtinEffectorCount)
	for _, e := range target.Effectors() {
		byName[e.Name()] = e
	}

	t := &Transductor{
		model:  model,
		target: target,
		fields: make([]*Field, len(model.fields)),
		input:  newInputStack(),
		stack:  &transducerStack{},
	}
	b := newBuiltins(t)
	for i, name := range model.fields {
		t.fields[i] = newField(name.String())
	}

	t.effectors = make([]Effector, len(model.effectors))
	for i, nameBytes := range model.effectors {
		ord := Ordinal(i)
		name := nameBytes.String()
		if ord == effNul || ord == effNil {
			continue // transition actions only, never bound or invoked
		}
		if builtin := b.effectorFor(ord); builtin != nil {
			t.effectors[i] = builtin
			continue
		}
		eff, ok := byName[name]
		if !ok {
			return nil, &TargetBindingError{Effector: name, Err: fmt.Errorf("target %q contributes no such effector", target.TargetClass())}
		}
		t.effectors[i] = eff
	}

	t.params = make([][]any, len(model.effectorParameters))
	for i, perEffector := range model.effectorParameters {
		eff := t.effectorAt(Ordinal(i))
		pe, ok := eff.(ParameterizedEffector)
		if !ok {
			continue
		}
		compiled := make([]any, len(perEffector))
		for j, raw := range perEffector {
			tokens, _ := raw.([]Token)
			resolved := make([]Token, len(tokens))
			for k, tok := range tokens {
				resolved[k] = t.resolveToken(tok)
			}
			handle, err := pe.CompileParameter(resolved)
			if err != nil {
				return nil, &TargetBindingError{Effector: eff.Name(), Err: fmt.Errorf("compile parameter %d: %w", j, err)}
			}
			compiled[j] = handle
		}
		t.params[i] = compiled
	}
	return t, nil
}

func (t *Transductor) resolveToken(tok Token) Token {
	if !tok.IsSymbolic() {
		return tok
	}
	switch tok.Kind {
	case TokenSignal:
		tok.Ordinal = t.model.signalOrdinal[tok.Name]
	case TokenField:
		tok.Ordinal = t.model.fieldOrdinal[tok.Name]
	case TokenTransducer:
		tok.Ordinal = t.model.transducerOrdinal[tok.Name]
	}
	return tok
}

func (t *Transductor) effectorAt(o Ordinal) Effector {
	if int(o) >= 0 && int(o) < len(t.effectors) {
		return t.effectors[o]
	}
	return nil
}

func (t *Transductor) paramAt(effOrd, paramOrd Ordinal) any {
	if int(effOrd) >= 0 && int(effOrd) < len(t.params) {
		perEffector := t.params[effOrd]
		if int(paramOrd) >= 0 && int(paramOrd) < len(perEffector) {
			return perEffector[paramOrd]
		}
	}
	return nil
}

// Push adds a new input frame holding data at the top of the input
// stack (§4.6 push(bytes)). data is copied.
func (t *Transductor) Push(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	t.input.push(newByteFrame(cp))
}

// pushInputBytes is the same operation, used internally by the `in`
// effector.
func (t *Transductor) pushInputBytes(data []byte) { t.Push(data) }

// Signal pushes a one-byte synthetic frame carrying sig (§4.6
// signal(sig)).
func (t *Transductor) Signal(sig Ordinal) { t.input.pushSignal(sig) }

// Start loads the named transducer and pushes it onto the transducer
// stack at state 0 (§4.6 start(transducerName)).
func (t *Transductor) Start(name string) error {
	ord, ok := t.model.transducerOrdinalFor(name)
	if !ok {
		return newModelError("start", "unknown transducer %q", name)
	}
	blob, err := t.model.blob(ord)
	if err != nil {
		return err
	}
	t.stack.push(blob)
	t.status = StatusRunnable
	return nil
}

// Output binds the byte sink the `out` effector flushes selected
// fields to (§4.6 output(sink)).
func (t *Transductor) Output(sink io.Writer) { t.sink = sink }

// Stop tears the transductor down: both stacks are cleared (§4.6
// stop()).
func (t *Transductor) Stop() {
	t.input = newInputStack()
	t.stack = &transducerStack{}
	t.status = StatusStopped
}

// Status reports one of {stopped, runnable, paused, waiting} (§4.6).
func (t *Transductor) Status() Status { return t.status }

func (t *Transductor) currentByte() (byte, bool) {
	f := t.input.top()
	if f == nil || f.exhausted() || f.signal {
		return 0, false
	}
	return f.buf.data[f.pos], true
}

func (t *Transductor) selectedField() *Field {
	sel := AnonymousField
	if fr := t.stack.top(); fr != nil {
		sel = fr.selected
	}
	return t.fieldByOrdinal(sel)
}

func (t *Transductor) selectField(o Ordinal) {
	if fr := t.stack.top(); fr != nil {
		fr.selected = o
	}
}

func (t *Transductor) fieldByOrdinal(o Ordinal) *Field {
	if int(o) >= 0 && int(o) < len(t.fields) {
		return t.fields[o]
	}
	return newField("")
}

func (t *Transductor) advance(f *inputFrame) { f.pos++ }

// Run executes the compiled matrix against the current input and
// transducer stacks until one of the pause conditions fires (§4.6 run
// loop): an effector requests pause, every input frame is exhausted
// (exhausted frames are popped and the frame beneath is read next), the
// transducer stack empties, or a fatal error is raised.
func (t *Transductor) Run() (Status, error) {
	if t.stack.empty() {
		t.status = StatusStopped
		return t.status, ErrStopped
	}
	t.status = StatusRunnable
	for {
		if t.stack.empty() {
			t.status = StatusStopped
			return t.status, nil
		}
		top := t.input.top()
		if top == nil {
			t.status = StatusWaiting
			return t.status, nil
		}
		if top.exhausted() {
			t.input.pop()
			t.input.drainReplayIfPending()
			continue
		}

		frame := t.stack.top()
		blob := frame.transducer
		symbol := top.symbol(t.input.signal)
		c := blob.cellAt(frame.state, symbol)
		frame.state = int(c.nextState)

		if t.trace != nil {
			t.trace.record("%s state=%d symbol=%d action=%d", blob.Name(), frame.state, symbol, c.action)
		}

		switch {
		case c.action == 0:
			if top.signal && symbol == int(SignalNul) {
				// Drop the injected nul and step past the symbol that
				// provoked it, leaving the input just after that symbol.
				t.input.pop()
				if under := t.input.top(); under != nil && !under.exhausted() {
					t.advance(under)
				}
				t.status = StatusPaused
				return t.status, &DomainError{State: frame.state, Symbol: symbol}
			}
			t.input.pushSignal(SignalNul)
		case c.action == 1:
			t.advance(top)
		case c.action < 0:
			ret, err := t.invokeVector(-c.action)
			if err != nil {
				return t.fail(err)
			}
			if !t.applyReturn(ret, top) {
				return t.status, nil
			}
		case c.action >= parameterizedBase:
			effOrd, paramOrd := unpackParameterized(c.action)
			ret, err := t.invokeParameterized(effOrd, paramOrd)
			if err != nil {
				return t.fail(err)
			}
			if !t.applyReturn(ret, top) {
				return t.status, nil
			}
		default:
			ret, err := t.invokeScalar(Ordinal(c.action))
			if err != nil {
				return t.fail(err)
			}
			if !t.applyReturn(ret, top) {
				return t.status, nil
			}
		}
	}
}

func (t *Transductor) fail(err error) (Status, error) {
	t.status = StatusPaused
	return t.status, err
}

// applyReturn honours an effector's return bitmask (§4.6): pop the
// input frame or transducer frame it requested, trigger a mark-replay
// reset in place of the ordinary advance, and report whether the run
// loop should keep going.
func (t *Transductor) applyReturn(ret Return, top *inputFrame) bool {
	if ret&ReturnResetInput != 0 {
		t.input.reset()
		t.input.drainReplayIfPending()
	} else {
		t.advance(top)
	}
	if ret&ReturnPopInput != 0 {
		t.input.pop()
		t.input.drainReplayIfPending()
	}
	if ret&ReturnPopTransducer != 0 {
		t.stack.pop()
		if t.stack.empty() {
			t.status = StatusStopped
			return false
		}
	}
	if ret&ReturnPause != 0 {
		t.status = StatusPaused
		return false
	}
	return true
}

func (t *Transductor) invokeScalar(o Ordinal) (Return, error) {
	eff := t.effectorAt(o)
	if eff == nil {
		return 0, newModelError("dispatch", "no effector bound for ordinal %d", o)
	}
	ret, err := eff.Invoke(t)
	if err != nil {
		return 0, &EffectorError{Effector: eff.Name(), Err: err}
	}
	return ret, nil
}

func (t *Transductor) invokeParameterized(effOrd, paramOrd Ordinal) (Return, error) {
	eff := t.effectorAt(effOrd)
	if eff == nil {
		return 0, newModelError("dispatch", "no effector bound for ordinal %d", effOrd)
	}
	pe, ok := eff.(ParameterizedEffector)
	if !ok {
		return 0, newModelError("dispatch", "effector %q is not parameterised", eff.Name())
	}
	param := t.paramAt(effOrd, paramOrd)
	ret, err := pe.InvokeParameter(t, param)
	if err != nil {
		return 0, &EffectorError{Effector: eff.Name(), Err: err}
	}
	return ret, nil
}

// invokeVector runs the NUL-terminated effector sequence starting at
// offset in the active transducer's effector-vector array (§3, §4.4):
// positive entries are scalar calls, a negative entry pairs with the
// following entry to form a parameterised call.
func (t *Transductor) invokeVector(offset int32) (Return, error) {
	vector := t.stack.top().transducer.vector
	var agg Return
	i := int(offset)
	for i < len(vector) && vector[i] != 0 {
		entry := vector[i]
		if entry > 0 {
			ret, err := t.invokeScalar(Ordinal(entry))
			if err != nil {
				return agg, err
			}
			agg |= ret
			i++
			continue
		}
		i++
		if i >= len(vector) {
			return agg, newModelError("dispatch", "effector vector truncated at offset %d", offset)
		}
		paramOrd := Ordinal(vector[i])
		ret, err := t.invokeParameterized(Ordinal(-entry), paramOrd)
		if err != nil {
			return agg, err
		}
		agg |= ret
		i++
	}
	return agg, nil
}
