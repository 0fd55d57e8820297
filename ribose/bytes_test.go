package ribose

import "testing"

func TestBytesEqual(t *testing.T) {
	a := NewBytes([]byte("hello"))
	b := NewBytes([]byte("hello"))
	c := NewBytes([]byte("world"))
	if !a.Equal(b) {
		t.Fatalf("equal byte content compared unequal")
	}
	if a.Equal(c) {
		t.Fatalf("unequal byte content compared equal")
	}
}

func TestBytesCopiesInput(t *testing.T) {
	src := []byte("mutable")
	b := NewBytes(src)
	src[0] = 'X'
	if b.String() != "mutable" {
		t.Fatalf("NewBytes aliased caller slice: got %q", b.String())
	}
}

func TestIntsEqual(t *testing.T) {
	a := NewInts([]int64{1, 2, 3})
	b := NewInts([]int64{1, 2, 3})
	c := NewInts([]int64{1, 2, 4})
	if !a.Equal(b) {
		t.Fatalf("equal int content compared unequal")
	}
	if a.Equal(c) {
		t.Fatalf("unequal int content compared equal")
	}
}

func TestIntStackPushOnceEver(t *testing.T) {
	s := NewIntStack()
	s.Push(1)
	s.Push(2)
	s.Push(1) // already pushed, ignored
	if x, ok := s.Pop(); !ok || x != 2 {
		t.Fatalf("first pop = (%d,%v), want (2,true)", x, ok)
	}
	s.Push(1) // still seen from the first push, so not pushed again
	if x, ok := s.Pop(); !ok || x != 1 {
		t.Fatalf("second pop = (%d,%v), want (1,true)", x, ok)
	}
	if !s.Empty() {
		t.Fatalf("stack not empty after draining pushes")
	}
	if !s.Seen(1) || !s.Seen(2) {
		t.Fatalf("Seen lost history after pop")
	}
	if s.Seen(3) {
		t.Fatalf("Seen reported true for a value never pushed")
	}
}
