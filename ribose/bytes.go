package ribose

// Bytes wraps a byte slice with content equality and a cached hash,
// the way axiomhq-fsst's symbol packs a value and its hash into a
// fixed-width struct. Holding a slice, Bytes is not comparable and so
// cannot itself be a Go map key.
type Bytes struct {
	data []byte
	hash uint64
}

// NewBytes copies b (the caller's slice may be reused after this
// call) and precomputes its hash.
func NewBytes(b []byte) Bytes {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Bytes{data: cp, hash: fnv64a(cp)}
}

func (b Bytes) Data() []byte { return b.data }
func (b Bytes) Len() int     { return len(b.data) }
func (b Bytes) String() string {
	return string(b.data)
}

// Equal reports content equality; the cached hash short-circuits the
// common unequal case before falling back to bytes.Equal semantics.
func (b Bytes) Equal(o Bytes) bool {
	if b.hash != o.hash || len(b.data) != len(o.data) {
		return false
	}
	for i := range b.data {
		if b.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

func fnv64a(b []byte) uint64 {
	const offset = 14695981039346656037
	const prime = 1099511628211
	h := uint64(offset)
	for _, c := range b {
		h ^= uint64(c)
		h *= prime
	}
	return h
}

// Ints wraps an int slice with content equality and a cached hash,
// mirroring Bytes; like Bytes it cannot be a Go map key. The §4.1
// equivalence map is keyed by columnKey strings instead.
type Ints struct {
	data []int64
	hash uint64
}

func NewInts(v []int64) Ints {
	cp := make([]int64, len(v))
	copy(cp, v)
	h := uint64(14695981039346656037)
	for _, x := range cp {
		h ^= uint64(x)
		h *= 1099511628211
	}
	return Ints{data: cp, hash: h}
}

func (v Ints) Data() []int64 { return v.data }

func (v Ints) Equal(o Ints) bool {
	if v.hash != o.hash || len(v.data) != len(o.data) {
		return false
	}
	for i := range v.data {
		if v.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// IntStack is a monotone, non-duplicating stack of small non-negative
// ints, used by the assembler's reachability walk (§4.3, §4.5): a
// depth-first mark pushes unvisited states exactly once.
type IntStack struct {
	items []int
	seen  map[int]bool
}

func NewIntStack() *IntStack {
	return &IntStack{seen: make(map[int]bool)}
}

// Push pushes x unless it has already been pushed at any point in
// this stack's lifetime (not just while currently present).
func (s *IntStack) Push(x int) {
	if s.seen[x] {
		return
	}
	s.seen[x] = true
	s.items = append(s.items, x)
}

func (s *IntStack) Pop() (int, bool) {
	if len(s.items) == 0 {
		return 0, false
	}
	n := len(s.items) - 1
	x := s.items[n]
	s.items = s.items[:n]
	return x, true
}

func (s *IntStack) Empty() bool { return len(s.items) == 0 }

// Seen reports whether x has ever been pushed onto this stack.
func (s *IntStack) Seen(x int) bool { return s.seen[x] }
