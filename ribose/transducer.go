package ribose

import "fmt"

// cell is one entry of a transition matrix: the next state to enter
// and the action to dispatch on this transition (§3, §9). The data
// model is (nextState uint32, action int32); packing state and action
// into a single 64-bit word is an optimisation some implementations
// make, not part of the contract (§9), so this implementation keeps
// them as two explicit fields and lets the compiler pack the struct.
type cell struct {
	nextState uint32
	action    int32
}

// Transducer is one compiled transducer blob: a name, the target
// class it expects to bind to, an input-equivalence filter, a
// transition matrix over (state, equivalence class), and the
// effector-vector array its negative actions index into (§3).
//
// This implementation stores nextState directly rather than
// pre-multiplying it by the class count at pack time (the open
// question in spec.md §9); the row base state*nEq is recomputed once
// per dispatch in the run loop, which is cheap next to an effector
// call and keeps the in-memory matrix independent of nEq.
type Transducer struct {
	name        string
	targetClass string
	nEq         int
	inputFilter []int16 // symbol -> equivalence class, length S0+len(signals)
	matrix      []cell  // length stateCount*nEq, row-major
	vector      []int32 // flattened, NUL-terminated effector-vector sequences
}

// Name returns the transducer's declared name.
func (t *Transducer) Name() string { return t.name }

// TargetClass returns the target class name this transducer expects.
func (t *Transducer) TargetClass() string { return t.targetClass }

// StateCount returns the number of states in the assembled matrix.
func (t *Transducer) StateCount() int {
	if t.nEq == 0 {
		return 0
	}
	return len(t.matrix) / t.nEq
}

// EquivalenceClassCount returns the number of input-equivalence
// classes in the assembled matrix.
func (t *Transducer) EquivalenceClassCount() int { return t.nEq }

// String is a short diagnostic summary, not a disassembly (decompiler
// pretty-printing is out of scope per spec.md §1).
func (t *Transducer) String() string {
	return fmt.Sprintf("transducer %s: %d states, %d classes", t.name, t.StateCount(), t.nEq)
}

// cellAt fetches the transition cell for (state, symbol).
func (t *Transducer) cellAt(state int, symbol int) cell {
	eq := int(t.inputFilter[symbol])
	return t.matrix[state*t.nEq+eq]
}
