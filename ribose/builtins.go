package ribose

import "fmt"

// esc marks the payload of a parameter synthesised by the assembler
// for an injected superinstruction (mscan/msum/mproduct), as opposed
// to one compiled from FST-authored tokens.
const esc = 0x1B

// builtins holds the fixed effector prefix bound to every transductor
// (§6.3). Unlike host-contributed effectors, these mutate the
// transductor's own stacks and fields rather than a bound Target, so
// they are implemented directly against *Transductor rather than
// through the Target registry.
type builtins struct {
	t *Transductor
}

func newBuiltins(t *Transductor) *builtins { return &builtins{t: t} }

// effectorFor returns the bound built-in effector value for ordinal o,
// or nil if o does not name a built-in (nul/nil excluded: those are
// never dispatched as calls, see ordinal.go).
func (b *builtins) effectorFor(o Ordinal) Effector {
	switch o {
	case effPaste:
		return pasteEffector{b}
	case effSelect:
		return selectEffector{b}
	case effCopy:
		return copyEffector{b}
	case effCut:
		return cutEffector{b}
	case effClear:
		return clearEffector{b}
	case effIn:
		return inEffector{b}
	case effOut:
		return outEffector{b}
	case effMark:
		return markEffector{b}
	case effReset:
		return resetEffector{b}
	case effStart:
		return startEffector{b}
	case effPause:
		return pauseEffector{b}
	case effStop:
		return stopEffector{b}
	case effCount:
		return countEffector{b}
	case effSignal:
		return signalEffector{b}
	case effMsum:
		return msumEffector{b}
	case effMproduct:
		return mproductEffector{b}
	case effMscan:
		return mscanEffector{b}
	default:
		return nil
	}
}

// --- paste ---

type pasteEffector struct{ b *builtins }

func (pasteEffector) Name() string { return "paste" }

// Invoke, with no parameter, pastes the input byte currently being
// consumed (§4.6 "Fields and paste").
func (e pasteEffector) Invoke(t *Transductor) (Return, error) {
	sym, ok := t.currentByte()
	if ok {
		t.selectedField().paste(sym)
	}
	return 0, nil
}

type pasteParam struct {
	literal []byte
	field   Ordinal
	isField bool
}

func (e pasteEffector) CompileParameter(tokens []Token) (any, error) {
	if len(tokens) != 1 {
		return nil, fmt.Errorf("paste: expected exactly one token, got %d", len(tokens))
	}
	tok := tokens[0]
	if tok.Kind == TokenField {
		return pasteParam{field: tok.Ordinal, isField: true}, nil
	}
	return pasteParam{literal: tok.Literal}, nil
}

func (e pasteEffector) InvokeParameter(t *Transductor, param any) (Return, error) {
	p := param.(pasteParam)
	if p.isField {
		t.selectedField().pasteBytes(t.fieldByOrdinal(p.field).Bytes())
	} else {
		t.selectedField().pasteBytes(p.literal)
	}
	return 0, nil
}

// --- select ---

type selectEffector struct{ b *builtins }

func (selectEffector) Name() string { return "select" }
func (e selectEffector) Invoke(t *Transductor) (Return, error) {
	t.selectField(AnonymousField)
	return 0, nil
}
func (e selectEffector) CompileParameter(tokens []Token) (any, error) {
	field, err := singleFieldToken("select", tokens)
	return field, err
}
func (e selectEffector) InvokeParameter(t *Transductor, param any) (Return, error) {
	t.selectField(param.(Ordinal))
	return 0, nil
}

// --- copy ---

type copyEffector struct{ b *builtins }

func (copyEffector) Name() string { return "copy" }
func (e copyEffector) Invoke(t *Transductor) (Return, error) { return 0, nil }
func (e copyEffector) CompileParameter(tokens []Token) (any, error) {
	return singleFieldToken("copy", tokens)
}
func (e copyEffector) InvokeParameter(t *Transductor, param any) (Return, error) {
	src := t.fieldByOrdinal(param.(Ordinal))
	t.selectedField().pasteBytes(src.Bytes())
	return 0, nil
}

// --- cut ---

type cutEffector struct{ b *builtins }

func (cutEffector) Name() string { return "cut" }
func (e cutEffector) Invoke(t *Transductor) (Return, error) { return 0, nil }
func (e cutEffector) CompileParameter(tokens []Token) (any, error) {
	return singleFieldToken("cut", tokens)
}
func (e cutEffector) InvokeParameter(t *Transductor, param any) (Return, error) {
	src := t.fieldByOrdinal(param.(Ordinal))
	t.selectedField().pasteBytes(src.Bytes())
	src.clear()
	return 0, nil
}

// --- clear ---

type clearEffector struct{ b *builtins }

func (clearEffector) Name() string { return "clear" }
func (e clearEffector) Invoke(t *Transductor) (Return, error) {
	t.selectedField().clear()
	return 0, nil
}
func (e clearEffector) CompileParameter(tokens []Token) (any, error) {
	return singleFieldToken("clear", tokens)
}
func (e clearEffector) InvokeParameter(t *Transductor, param any) (Return, error) {
	t.fieldByOrdinal(param.(Ordinal)).clear()
	return 0, nil
}

// --- in ---

type inEffector struct{ b *builtins }

func (inEffector) Name() string { return "in" }
func (e inEffector) Invoke(t *Transductor) (Return, error) { return 0, nil }
func (e inEffector) CompileParameter(tokens []Token) (any, error) {
	return singleFieldToken("in", tokens)
}
func (e inEffector) InvokeParameter(t *Transductor, param any) (Return, error) {
	field := t.fieldByOrdinal(param.(Ordinal))
	t.pushInputBytes(field.Bytes())
	return 0, nil
}

// --- out ---

type outEffector struct{ b *builtins }

func (outEffector) Name() string { return "out" }
func (e outEffector) Invoke(t *Transductor) (Return, error) {
	field := t.selectedField()
	if t.sink != nil {
		if _, err := t.sink.Write(field.Bytes()); err != nil {
			return 0, err
		}
	}
	field.clear()
	return 0, nil
}

// --- mark / reset ---

type markEffector struct{ b *builtins }

func (markEffector) Name() string { return "mark" }
func (e markEffector) Invoke(t *Transductor) (Return, error) {
	t.input.mark()
	return 0, nil
}

type resetEffector struct{ b *builtins }

func (resetEffector) Name() string { return "reset" }

// Invoke only signals the request; the run loop's applyReturn performs
// the actual input-stack reset so it can skip the ordinary advance in
// the same step (§4.6 "consume ... unless the effector return
// requested no-advance via reset").
func (e resetEffector) Invoke(t *Transductor) (Return, error) {
	return ReturnResetInput, nil
}

// --- start / pause / stop ---

type startEffector struct{ b *builtins }

func (startEffector) Name() string { return "start" }
func (e startEffector) Invoke(t *Transductor) (Return, error) { return 0, nil }
func (e startEffector) CompileParameter(tokens []Token) (any, error) {
	if len(tokens) != 1 || tokens[0].Kind != TokenTransducer {
		return nil, fmt.Errorf("start: expected exactly one transducer token")
	}
	return tokens[0].Ordinal, nil
}
func (e startEffector) InvokeParameter(t *Transductor, param any) (Return, error) {
	return 0, t.Start(t.model.transducerName(param.(Ordinal)))
}

type pauseEffector struct{ b *builtins }

func (pauseEffector) Name() string { return "pause" }
func (e pauseEffector) Invoke(t *Transductor) (Return, error) { return ReturnPause, nil }

type stopEffector struct{ b *builtins }

func (stopEffector) Name() string { return "stop" }
func (e stopEffector) Invoke(t *Transductor) (Return, error) { return ReturnPopTransducer, nil }

// --- count ---

type countEffector struct{ b *builtins }

func (countEffector) Name() string { return "count" }
func (e countEffector) Invoke(t *Transductor) (Return, error) { return 0, nil }
func (e countEffector) CompileParameter(tokens []Token) (any, error) {
	if len(tokens) != 1 || tokens[0].Kind != TokenLiteral {
		return nil, fmt.Errorf("count: expected a single literal token")
	}
	n := 0
	for _, c := range tokens[0].Literal {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("count: non-decimal literal %q", tokens[0].Literal)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
func (e countEffector) InvokeParameter(t *Transductor, param any) (Return, error) {
	if frame := t.stack.top(); frame != nil {
		frame.countdown = param.(int)
	}
	return 0, nil
}

// --- signal ---

type signalEffector struct{ b *builtins }

func (signalEffector) Name() string { return "signal" }
func (e signalEffector) Invoke(t *Transductor) (Return, error) { return 0, nil }
func (e signalEffector) CompileParameter(tokens []Token) (any, error) {
	if len(tokens) != 1 || tokens[0].Kind != TokenSignal {
		return nil, fmt.Errorf("signal: expected exactly one signal token")
	}
	return tokens[0].Ordinal, nil
}
func (e signalEffector) InvokeParameter(t *Transductor, param any) (Return, error) {
	t.Signal(param.(Ordinal))
	return 0, nil
}

// --- mscan / msum / mproduct (superinstructions, §4.3) ---

type mscanEffector struct{ b *builtins }

func (mscanEffector) Name() string { return "mscan" }
func (e mscanEffector) Invoke(t *Transductor) (Return, error) { return 0, nil }
func (e mscanEffector) CompileParameter(tokens []Token) (any, error) {
	b, err := singleEscLiteral("mscan", tokens, 2)
	if err != nil {
		return nil, err
	}
	return b[1], nil
}
// InvokeParameter scans idempotent bytes past the byte that triggered
// this transition. That byte is still unconsumed at f.pos: the run
// loop's mandatory post-invoke advance accounts for it, so scanning
// starts at f.pos+1 and stops one short of the outbound byte, leaving
// the mandatory advance to land exactly on it for its own dispatch.
func (e mscanEffector) InvokeParameter(t *Transductor, param any) (Return, error) {
	stop := param.(byte)
	f := t.input.top()
	if f == nil {
		return 0, nil
	}
	for f.pos+1 < f.limit && f.buf.data[f.pos+1] != stop {
		f.pos++
	}
	return 0, nil
}

type msumEffector struct{ b *builtins }

func (msumEffector) Name() string { return "msum" }
func (e msumEffector) Invoke(t *Transductor) (Return, error) { return 0, nil }
func (e msumEffector) CompileParameter(tokens []Token) (any, error) {
	b, err := singleEscLiteral("msum", tokens, 1+32)
	if err != nil {
		return nil, err
	}
	var bitmap [256]bool
	for i := 0; i < 256; i++ {
		byteIdx, bit := 1+i/8, uint(i%8)
		if b[byteIdx]&(1<<bit) != 0 {
			bitmap[i] = true
		}
	}
	return bitmap, nil
}
// InvokeParameter scans idempotent bytes past the triggering byte, same
// reasoning as mscanEffector.InvokeParameter.
func (e msumEffector) InvokeParameter(t *Transductor, param any) (Return, error) {
	bitmap := param.([256]bool)
	f := t.input.top()
	if f == nil {
		return 0, nil
	}
	for f.pos+1 < f.limit && bitmap[f.buf.data[f.pos+1]] {
		f.pos++
	}
	return 0, nil
}

type mproductEffector struct{ b *builtins }

func (mproductEffector) Name() string { return "mproduct" }
func (e mproductEffector) Invoke(t *Transductor) (Return, error) { return 0, nil }
func (e mproductEffector) CompileParameter(tokens []Token) (any, error) {
	if len(tokens) != 1 || tokens[0].Kind != TokenLiteral || len(tokens[0].Literal) < 2 || tokens[0].Literal[0] != esc {
		return nil, fmt.Errorf("mproduct: malformed synthesised parameter")
	}
	seq := make([]byte, len(tokens[0].Literal)-1)
	copy(seq, tokens[0].Literal[1:])
	return seq, nil
}
// InvokeParameter replays the walked byte chain past the triggering
// byte. As in mscanEffector.InvokeParameter, f.pos still holds the
// unconsumed trigger; each matched byte in seq advances f.pos by one,
// and the run loop's own mandatory advance consumes the trigger itself
// once this returns.
func (e mproductEffector) InvokeParameter(t *Transductor, param any) (Return, error) {
	seq := param.([]byte)
	f := t.input.top()
	state := 0
	if frame := t.stack.top(); frame != nil {
		state = frame.state
	}
	for _, want := range seq {
		if f == nil || f.pos+1 >= f.limit {
			return 0, &DomainError{State: state, Symbol: -1}
		}
		if f.buf.data[f.pos+1] != want {
			return 0, &DomainError{State: state, Symbol: int(f.buf.data[f.pos+1])}
		}
		f.pos++
	}
	return 0, nil
}

func singleFieldToken(name string, tokens []Token) (Ordinal, error) {
	if len(tokens) != 1 || tokens[0].Kind != TokenField {
		return 0, fmt.Errorf("%s: expected exactly one field token", name)
	}
	return tokens[0].Ordinal, nil
}

func singleEscLiteral(name string, tokens []Token, wantLen int) ([]byte, error) {
	if len(tokens) != 1 || tokens[0].Kind != TokenLiteral {
		return nil, fmt.Errorf("%s: expected a single literal token", name)
	}
	b := tokens[0].Literal
	if len(b) != wantLen || b[0] != esc {
		return nil, fmt.Errorf("%s: malformed synthesised parameter (len=%d, want=%d)", name, len(b), wantLen)
	}
	return b, nil
}
