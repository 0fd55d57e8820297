package ribose

import (
	"runtime"
	"sync/atomic"
)

// blobState is the three-state lazy-materialisation word guarding a
// per-transducer blob (§5): absent -> loading -> ready.
type blobState int32

const (
	blobAbsent blobState = iota
	blobLoading
	blobReady
)

// transducerEntry is a Model's record for one transducer ordinal: its
// name, its offset in the backing model file (or -1 if the model was
// built in-memory rather than loaded), and its lazily-materialised
// blob.
type transducerEntry struct {
	name   string
	offset int64

	state blobState
	blob  *Transducer
}

// Model is a read-mostly, shared-by-reference compiled model: the
// four ordinal maps, and one entry per transducer. It is built once
// (by ModelCompiler.Build or Load) and frozen; many Transductors may borrow it
// concurrently, each owning its own stacks (§5).
type Model struct {
	version     string
	targetClass string

	signals     []Bytes // index = ordinal - S0
	fields      []Bytes // index = ordinal
	effectors   []Bytes // index = ordinal
	transducers []transducerEntry

	signalOrdinal     map[string]Ordinal
	fieldOrdinal      map[string]Ordinal
	effectorOrdinal   map[string]Ordinal
	transducerOrdinal map[string]Ordinal

	// source, if non-nil, is the backing random-access model file used
	// to lazily materialise transducer blobs not built in-memory.
	source *modelSource

	// effectorParameters[effector] holds the pre-compiled parameter
	// handles for that effector, index = parameter ordinal.
	effectorParameters [][]any
}

// TargetClass returns the target class name this model expects its
// transductors to bind to.
func (m *Model) TargetClass() string { return m.targetClass }

// Version returns the model format version string stamped at compile
// time.
func (m *Model) Version() string { return m.version }

// TransducerNames lists every transducer ordinal's name, in ordinal
// order (supplemented introspection, §SPEC_FULL; not a disassembly).
func (m *Model) TransducerNames() []string {
	names := make([]string, len(m.transducers))
	for i, e := range m.transducers {
		names[i] = e.name
	}
	return names
}

func (m *Model) fieldName(o Ordinal) string {
	if int(o) < len(m.fields) {
		return m.fields[o].String()
	}
	return ""
}

func (m *Model) signalName(o Ordinal) string {
	i := int(o) - S0
	if i >= 0 && i < len(m.signals) {
		return m.signals[i].String()
	}
	return ""
}

// transducerOrdinalFor resolves a transducer name to its ordinal.
func (m *Model) transducerOrdinalFor(name string) (Ordinal, bool) {
	o, ok := m.transducerOrdinal[name]
	return o, ok
}

func (m *Model) transducerName(o Ordinal) string {
	if int(o) < len(m.transducers) {
		return m.transducers[o].name
	}
	return ""
}

// blob returns the materialised Transducer for ordinal o, loading it
// from the backing source on first use. Concurrent callers spin on
// the blob's state word until the first requester finishes decoding
// it (§5); this is deliberately a spin-yield, not a mutex, since the
// decode itself is the only work being guarded and is expected to be
// fast relative to a context switch.
func (m *Model) blob(o Ordinal) (*Transducer, error) {
	entry := &m.transducers[o]
	state := (*int32)(&entry.state)
	for {
		switch blobState(atomic.LoadInt32(state)) {
		case blobReady:
			return entry.blob, nil
		case blobLoading:
			runtime.Gosched()
		default:
			if atomic.CompareAndSwapInt32(state, int32(blobAbsent), int32(blobLoading)) {
				blob, err := m.materialize(entry)
				if err != nil {
					atomic.StoreInt32(state, int32(blobAbsent))
					return nil, err
				}
				entry.blob = blob
				atomic.StoreInt32(state, int32(blobReady))
				return blob, nil
			}
		}
	}
}

func (m *Model) materialize(entry *transducerEntry) (*Transducer, error) {
	if entry.blob != nil {
		return entry.blob, nil
	}
	if m.source == nil {
		return nil, newModelError("blob", "transducer %q has no backing blob", entry.name)
	}
	return m.source.readTransducer(entry.offset, m)
}
