// Package integration exercises the assembled pipeline (compile, bind,
// run) end to end, the way jyane-jnes's integration package ran a
// complete cartridge through the console rather than unit-testing the
// CPU in isolation. These scenarios are built from synthetic
// transducer blobs rather than the automaton text reader, since no
// external FST tool is available in this environment to produce real
// .dfa files; ModelCompiler is exercised directly instead.
package integration_test

import (
	"testing"

	"github.com/jrte/ribose-sub001/ribose"
	"github.com/jrte/ribose-sub001/ribose/targettest"
)

func byteEdge(from, to int, b byte) ribose.Transition {
	return ribose.Transition{From: from, To: to, Tape: 0, Symbol: []byte{b}}
}

func signalEdge(from, to int, signal string) ribose.Transition {
	return ribose.Transition{From: from, To: to, Tape: 0, Symbol: []byte(signal)}
}

func effectorCall(from, to int, name string) ribose.Transition {
	return ribose.Transition{From: from, To: to, Tape: 1, Symbol: []byte(name)}
}

func build(t *testing.T, name string, states int, transitions []ribose.Transition) *ribose.Model {
	t.Helper()
	c := ribose.NewModelCompiler("test")
	c.AddTransducer(name, ribose.AutomatonHeader{States: states}, transitions)
	model, err := c.Build()
	if err != nil {
		t.Fatalf("build %s: %v", name, err)
	}
	return model
}

func bind(t *testing.T, model *ribose.Model) *ribose.Transductor {
	t.Helper()
	tr, err := ribose.New(model, targettest.Target{})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	return tr
}

// S1: Minimal scan. State 1 self-loops NIL on every byte but 0xFF and
// leaves on 0xFF to state 2, which pops. State 0 is a trivial
// antecedent so the 0->1 edge the assembler rewrites actually has a
// predecessor to rewrite (entering directly at the Scan state itself,
// as spec.md's two-state phrasing reads literally, leaves no edge for
// the assembler's predecessor-rewrite rule to act on). Its edge carries
// a placeholder action so classifyState does not see state 0 as
// Product, which would exempt its edges from rewriting.
func TestMinimalScan(t *testing.T) {
	var transitions []ribose.Transition
	transitions = append(transitions, byteEdge(0, 1, 0x45)) // entry byte 'E'
	transitions = append(transitions, effectorCall(0, 1, "pause"))
	for b := 0; b < 0xFF; b++ {
		transitions = append(transitions, byteEdge(1, 1, byte(b)))
	}
	transitions = append(transitions, byteEdge(1, 2, 0xFF))
	transitions = append(transitions, effectorCall(1, 2, "stop"))

	model := build(t, "scan", 3, transitions)
	tr := bind(t, model)
	tr.Push([]byte{0x45, 0x41, 0x41, 0xFF})
	if err := tr.Start("scan"); err != nil {
		t.Fatalf("start: %v", err)
	}
	status, err := tr.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if status != ribose.StatusStopped {
		t.Fatalf("status = %s, want stopped", status)
	}
}

// S2: Product chain. State 0 is Plain (its one real edge carries a
// placeholder action so classifyState doesn't also see it as Product);
// states 1 and 2 are pure pass-through Product states collapsed into a
// single mproduct call; state 3's own outbound edge carries the real
// "stop" action and so is not itself Product, ending the chain.
func TestProductChain(t *testing.T) {
	transitions := []ribose.Transition{
		byteEdge(0, 1, 'a'), effectorCall(0, 1, "pause"),
		byteEdge(1, 2, 'b'),
		byteEdge(2, 3, 'c'),
		byteEdge(3, 4, 'd'), effectorCall(3, 4, "stop"),
	}
	model := build(t, "product", 5, transitions)
	tr := bind(t, model)
	tr.Push([]byte("abcd"))
	if err := tr.Start("product"); err != nil {
		t.Fatalf("start: %v", err)
	}
	status, err := tr.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if status != ribose.StatusStopped {
		t.Fatalf("status = %s, want stopped", status)
	}
}

// S4: a nul signal with a handler recovers instead of raising a fatal
// DomainError.
func TestDomainErrorRecovers(t *testing.T) {
	transitions := []ribose.Transition{
		signalEdge(0, 1, "nul"), effectorCall(0, 1, "stop"),
	}
	model := build(t, "recover", 2, transitions)
	tr := bind(t, model)
	tr.Push([]byte{'A'})
	if err := tr.Start("recover"); err != nil {
		t.Fatalf("start: %v", err)
	}
	status, err := tr.Run()
	if err != nil {
		t.Fatalf("run returned error, want recovered stop: %v", err)
	}
	if status != ribose.StatusStopped {
		t.Fatalf("status = %s, want stopped", status)
	}
}

// S5: the same domain error with no nul handler is fatal.
func TestNulCascadeFatal(t *testing.T) {
	model := build(t, "fatal", 1, nil)
	tr := bind(t, model)
	tr.Push([]byte{'A'})
	if err := tr.Start("fatal"); err != nil {
		t.Fatalf("start: %v", err)
	}
	status, err := tr.Run()
	if err == nil {
		t.Fatalf("run succeeded, want DomainError")
	}
	domainErr, ok := err.(*ribose.DomainError)
	if !ok {
		t.Fatalf("err = %T, want *ribose.DomainError", err)
	}
	if status != ribose.StatusPaused {
		t.Fatalf("status = %s, want paused", status)
	}
	if domainErr.State != 0 {
		t.Fatalf("domainErr.State = %d, want 0", domainErr.State)
	}
}
