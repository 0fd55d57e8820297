package ribose

// Field is a named, growable byte accumulator owned by a Transductor.
// It is allocated once per declared field at transductor construction
// and persists until the transductor is disposed (§3).
type Field struct {
	name string
	buf  []byte
}

func newField(name string) *Field {
	return &Field{name: name, buf: make([]byte, 0, 64)}
}

func (f *Field) Name() string { return f.name }

// Length returns the number of bytes currently accumulated.
func (f *Field) Length() int { return len(f.buf) }

// Bytes returns the field's current contents. The returned slice
// aliases the field's internal buffer and is only valid until the
// next mutating call.
func (f *Field) Bytes() []byte { return f.buf }

// String decodes the field's current contents as UTF-8 text.
func (f *Field) String() string { return string(f.buf) }

// paste appends a single byte.
func (f *Field) paste(b byte) { f.buf = append(f.buf, b) }

// pasteBytes appends a byte slice.
func (f *Field) pasteBytes(b []byte) { f.buf = append(f.buf, b...) }

// clear truncates the field to zero length without releasing its
// underlying array, so repeated clear/paste cycles do not re-allocate.
func (f *Field) clear() { f.buf = f.buf[:0] }
