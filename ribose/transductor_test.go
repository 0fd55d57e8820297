package ribose

import (
	"bytes"
	"testing"

	"github.com/jrte/ribose-sub001/ribose/targettest"
)

func buildPasteModel(t *testing.T) *Model {
	t.Helper()
	c := NewModelCompiler("test")
	c.AddTransducer("paste", AutomatonHeader{States: 3}, []Transition{
		{From: 0, To: 1, Tape: 0, Symbol: []byte{'A'}}, {From: 0, To: 1, Tape: 1, Symbol: []byte("paste")},
		{From: 1, To: 2, Tape: 0, Symbol: []byte{'B'}}, {From: 1, To: 2, Tape: 1, Symbol: []byte("paste")},
		{From: 2, To: 2, Tape: 0, Symbol: []byte{'.'}}, {From: 2, To: 2, Tape: 1, Symbol: []byte("out")}, {From: 2, To: 2, Tape: 1, Symbol: []byte("stop")},
	})
	model, err := c.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return model
}

func TestNewRejectsTargetClassMismatch(t *testing.T) {
	model := buildPasteModel(t)
	_, err := New(model, mismatchedTarget{})
	if err == nil {
		t.Fatalf("New succeeded with a mismatched target class")
	}
}

type mismatchedTarget struct{}

func (mismatchedTarget) TargetClass() string   { return "other" }
func (mismatchedTarget) Effectors() []Effector { return nil }

func TestRunPastesAndFlushesOutput(t *testing.T) {
	model := buildPasteModel(t)
	tr, err := New(model, targettest.Target{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var out bytes.Buffer
	tr.Output(&out)
	tr.Push([]byte("AB."))
	if err := tr.Start("paste"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status, err := tr.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != StatusStopped {
		t.Fatalf("status = %s, want stopped", status)
	}
	if out.String() != "AB" {
		t.Fatalf("output = %q, want %q", out.String(), "AB")
	}
}

func TestRunWaitingWhenInputExhaustedButTransducerLive(t *testing.T) {
	c := NewModelCompiler("test")
	c.AddTransducer("wait", AutomatonHeader{States: 2}, []Transition{
		{From: 0, To: 1, Tape: 0, Symbol: []byte{'A'}},
	})
	model, err := c.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tr, err := New(model, targettest.Target{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr.Push([]byte{})
	if err := tr.Start("wait"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status, err := tr.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != StatusWaiting {
		t.Fatalf("status = %s, want waiting", status)
	}
}

func TestRunReturnsErrStoppedWhenAlreadyStopped(t *testing.T) {
	model := buildPasteModel(t)
	tr, err := New(model, targettest.Target{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = tr.Run()
	if err != ErrStopped {
		t.Fatalf("Run() err = %v, want ErrStopped", err)
	}
}

func TestStopClearsStacks(t *testing.T) {
	model := buildPasteModel(t)
	tr, err := New(model, targettest.Target{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr.Push([]byte("AB."))
	if err := tr.Start("paste"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Stop()
	if tr.Status() != StatusStopped {
		t.Fatalf("Status() = %s, want stopped", tr.Status())
	}
	if !tr.stack.empty() || !tr.input.empty() {
		t.Fatalf("Stop() did not clear both stacks")
	}
}
