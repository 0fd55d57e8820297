package ribose

import (
	"bytes"
	"io"
	"testing"
)

// memFile is a minimal io.WriteSeeker over an in-memory buffer, enough
// for Model.Save's header-patch-at-offset-0 pattern.
type memFile struct {
	buf []byte
	pos int64
}

func (f *memFile) Write(p []byte) (int, error) {
	end := f.pos + int64(len(p))
	if end > int64(len(f.buf)) {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[f.pos:end], p)
	f.pos = end
	return len(p), nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.pos = offset
	case io.SeekCurrent:
		f.pos += offset
	case io.SeekEnd:
		f.pos = int64(len(f.buf)) + offset
	}
	return f.pos, nil
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// §8 property 6: compile, save, load and the loaded model behaves
// identically to the in-memory one it was saved from.
func TestSaveLoadRoundTrip(t *testing.T) {
	c := NewModelCompiler("test")
	c.AddTransducer("t", AutomatonHeader{States: 2}, []Transition{
		{From: 0, To: 1, Tape: 0, Symbol: []byte{'A'}},
		{From: 0, To: 1, Tape: 1, Symbol: []byte("paste")},
	})
	model, err := c.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	f := &memFile{}
	if err := model.Save(f); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Version() != model.Version() {
		t.Fatalf("Version() = %q, want %q", loaded.Version(), model.Version())
	}
	if loaded.TargetClass() != model.TargetClass() {
		t.Fatalf("TargetClass() = %q, want %q", loaded.TargetClass(), model.TargetClass())
	}
	wantNames := model.TransducerNames()
	gotNames := loaded.TransducerNames()
	if len(wantNames) != len(gotNames) || wantNames[0] != gotNames[0] {
		t.Fatalf("TransducerNames() = %v, want %v", gotNames, wantNames)
	}

	ord, ok := loaded.transducerOrdinalFor("t")
	if !ok {
		t.Fatalf("loaded model missing transducer %q", "t")
	}
	blob, err := loaded.blob(ord)
	if err != nil {
		t.Fatalf("blob: %v", err)
	}
	wantOrd, _ := model.transducerOrdinalFor("t")
	wantBlob, _ := model.blob(wantOrd)
	if blob.StateCount() != wantBlob.StateCount() {
		t.Fatalf("StateCount() = %d, want %d", blob.StateCount(), wantBlob.StateCount())
	}
	if blob.EquivalenceClassCount() != wantBlob.EquivalenceClassCount() {
		t.Fatalf("EquivalenceClassCount() = %d, want %d", blob.EquivalenceClassCount(), wantBlob.EquivalenceClassCount())
	}
	if !bytes.Equal(int32ToBytes(blob.vector), int32ToBytes(wantBlob.vector)) {
		t.Fatalf("round-tripped effector vector differs from the source")
	}
}

func int32ToBytes(v []int32) []byte {
	b := make([]byte, len(v)*4)
	for i, x := range v {
		b[i*4] = byte(x >> 24)
		b[i*4+1] = byte(x >> 16)
		b[i*4+2] = byte(x >> 8)
		b[i*4+3] = byte(x)
	}
	return b
}
