package ribose

import "testing"

func TestReduceEquivalenceGroupsIdenticalColumns(t *testing.T) {
	m := newDenseMatrix(3, 4)
	// symbols 0 and 2 get identical columns; symbol 1 differs; symbol 3
	// stays at the default self-loop/NUL shape distinct from all three.
	for _, sym := range []int{0, 2} {
		m.set(0, sym, cell{nextState: 1, action: 5})
		m.set(1, sym, cell{nextState: 2, action: 6})
	}
	m.set(0, 1, cell{nextState: 1, action: 99})

	eq := reduceEquivalence(m)
	if eq.index[0] != eq.index[2] {
		t.Fatalf("symbols 0 and 2 landed in different classes: %d vs %d", eq.index[0], eq.index[2])
	}
	if eq.index[0] == eq.index[1] {
		t.Fatalf("symbols 0 and 1 collapsed into the same class despite differing columns")
	}
	if eq.index[0] == eq.index[3] {
		t.Fatalf("symbol 3 (default shape) collapsed with symbol 0's class")
	}
	if len(eq.classes[eq.index[0]]) != 2 {
		t.Fatalf("class for symbol 0 has %d members, want 2", len(eq.classes[eq.index[0]]))
	}
}

func TestExpandInvertsReduceEquivalence(t *testing.T) {
	m := newDenseMatrix(2, 3)
	m.set(0, 0, cell{nextState: 1, action: 7})
	m.set(0, 1, cell{nextState: 1, action: 7})
	m.set(0, 2, cell{nextState: 0, action: 1})
	m.set(1, 0, cell{nextState: 0, action: 2})
	m.set(1, 1, cell{nextState: 0, action: 2})
	m.set(1, 2, cell{nextState: 1, action: 0})

	eq := reduceEquivalence(m)
	back := expand(m.states, m.symbols, eq.index, eq.reduced, eq.nClasses)
	for s := 0; s < m.states; s++ {
		for sym := 0; sym < m.symbols; sym++ {
			want := m.at(s, sym)
			got := back.at(s, sym)
			if got != want {
				t.Fatalf("expand mismatch at (%d,%d): got %+v, want %+v", s, sym, got, want)
			}
		}
	}
}
