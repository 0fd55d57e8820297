package ribose

import (
	"encoding/binary"
	"io"
)

// The model file is a random-access binary container (§6.1). It opens
// with an 8-byte index position, the model version string and target
// class name, then each transducer blob in turn; the trailing index
// section (ordinal maps, per-transducer name/offset, per-effector
// compiled parameter token lists) lives at indexPosition so that a
// loader can read the header and index without walking every blob,
// exactly the random-access contract spec.md §6.1 asks for.
//
// This codec mirrors axiomhq-fsst's Table.WriteTo/ReadFrom: plain
// encoding/binary calls over a big-endian wire format, no custom
// bit-packing beyond what the data model (§9) already calls for.

const modelMagicVersion = "ribose-model/1"

func writeString(w io.Writer, s string) error {
	return writeBytesRaw(w, []byte(s))
}

func writeBytesRaw(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.BigEndian, int32(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	_, err := w.Write(b)
	return err
}

func readString(r io.Reader) (string, error) {
	b, err := readBytesRaw(r)
	return string(b), err
}

func readBytesRaw(r io.Reader) ([]byte, error) {
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func writeInt16Slice(w io.Writer, v []int16) error {
	if err := binary.Write(w, binary.BigEndian, int32(len(v))); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, v)
}

func readInt16Slice(r io.Reader) ([]int16, error) {
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	v := make([]int16, n)
	if n > 0 {
		if err := binary.Read(r, binary.BigEndian, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func writeInt32Slice(w io.Writer, v []int32) error {
	if err := binary.Write(w, binary.BigEndian, int32(len(v))); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, v)
}

func readInt32Slice(r io.Reader) ([]int32, error) {
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	v := make([]int32, n)
	if n > 0 {
		if err := binary.Read(r, binary.BigEndian, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func writeBytesOrdinalMap(w io.Writer, v []Bytes) error {
	if err := binary.Write(w, binary.BigEndian, int32(len(v))); err != nil {
		return err
	}
	for _, b := range v {
		if err := writeBytesRaw(w, b.Data()); err != nil {
			return err
		}
	}
	return nil
}

func readBytesOrdinalMap(r io.Reader) ([]Bytes, error) {
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	v := make([]Bytes, n)
	for i := range v {
		b, err := readBytesRaw(r)
		if err != nil {
			return nil, err
		}
		v[i] = NewBytes(b)
	}
	return v, nil
}

// Save writes every transducer blob of the model (materialising any not
// yet loaded from the prior source) to w in the §6.1 layout. w must
// support Seek so the header
// can be patched with the final index position once every blob and
// the index have been written.
func (m *Model) Save(w io.WriteSeeker) error {
	if _, err := w.Seek(8, io.SeekStart); err != nil {
		return err
	}
	if err := writeString(w, m.version); err != nil {
		return newModelError("save", "write version: %w", err)
	}
	if err := writeString(w, m.targetClass); err != nil {
		return newModelError("save", "write target class: %w", err)
	}
	offsets := make([]int64, len(m.transducers))
	for i := range m.transducers {
		pos, err := w.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		offsets[i] = pos
		blob, err := m.blob(Ordinal(i))
		if err != nil {
			return err
		}
		if err := writeTransducerBlob(w, blob); err != nil {
			return newModelError("save", "write transducer %q: %w", blob.name, err)
		}
	}
	indexPosition, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := writeBytesOrdinalMap(w, m.signals); err != nil {
		return err
	}
	if err := writeBytesOrdinalMap(w, m.fields); err != nil {
		return err
	}
	if err := writeBytesOrdinalMap(w, m.effectors); err != nil {
		return err
	}
	names := make([]Bytes, len(m.transducers))
	for i, e := range m.transducers {
		names[i] = NewBytes([]byte(e.name))
	}
	if err := writeBytesOrdinalMap(w, names); err != nil {
		return err
	}
	for _, off := range offsets {
		if err := binary.Write(w, binary.BigEndian, off); err != nil {
			return err
		}
	}
	if err := writeEffectorParameters(w, m.effectorParameters); err != nil {
		return err
	}
	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, indexPosition)
}

func writeTransducerBlob(w io.Writer, t *Transducer) error {
	if err := writeString(w, t.name); err != nil {
		return err
	}
	if err := writeString(w, t.targetClass); err != nil {
		return err
	}
	filter := make([]int32, len(t.inputFilter))
	for i, v := range t.inputFilter {
		filter[i] = int32(v)
	}
	if err := writeInt32Slice(w, filter); err != nil {
		return err
	}
	if err := writeSparseMatrix(w, t); err != nil {
		return err
	}
	return writeInt32Slice(w, t.vector)
}

// writeSparseMatrix writes the transition matrix as a sparse per-row
// listing (§6.1): rows, columns, then per row a count followed by
// that many (column,toState,effect) triples. A cell that equals the
// row's implicit default, (currentRow, 0), is never written, exactly as
// spec.md §6.1 specifies, so every non-self-loop-NUL cell must be
// listed explicitly.
func writeSparseMatrix(w io.Writer, t *Transducer) error {
	rows := t.StateCount()
	cols := t.nEq
	if err := binary.Write(w, binary.BigEndian, int32(rows)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, int32(cols)); err != nil {
		return err
	}
	for row := 0; row < rows; row++ {
		var entries [][3]int32
		for col := 0; col < cols; col++ {
			c := t.matrix[row*cols+col]
			if int(c.nextState) == row && c.action == 0 {
				continue
			}
			entries = append(entries, [3]int32{int32(col), int32(c.nextState), c.action})
		}
		if err := binary.Write(w, binary.BigEndian, int32(len(entries))); err != nil {
			return err
		}
		for _, e := range entries {
			if err := binary.Write(w, binary.BigEndian, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeEffectorParameters(w io.Writer, params [][]any) error {
	if err := binary.Write(w, binary.BigEndian, int32(len(params))); err != nil {
		return err
	}
	for _, perEffector := range params {
		if err := binary.Write(w, binary.BigEndian, int32(len(perEffector))); err != nil {
			return err
		}
		for _, p := range perEffector {
			tokens, _ := p.([]Token)
			if err := writeTokenList(w, tokens); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTokenList(w io.Writer, tokens []Token) error {
	if err := binary.Write(w, binary.BigEndian, int32(len(tokens))); err != nil {
		return err
	}
	for _, t := range tokens {
		if err := binary.Write(w, binary.BigEndian, int32(t.Kind)); err != nil {
			return err
		}
		switch t.Kind {
		case TokenLiteral:
			if err := writeBytesRaw(w, t.Literal); err != nil {
				return err
			}
		default:
			if err := writeString(w, t.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func readTokenList(r io.Reader) ([]Token, error) {
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	tokens := make([]Token, n)
	for i := range tokens {
		var kind int32
		if err := binary.Read(r, binary.BigEndian, &kind); err != nil {
			return nil, err
		}
		tokens[i].Kind = TokenKind(kind)
		switch tokens[i].Kind {
		case TokenLiteral:
			b, err := readBytesRaw(r)
			if err != nil {
				return nil, err
			}
			tokens[i].Literal = b
		default:
			name, err := readString(r)
			if err != nil {
				return nil, err
			}
			tokens[i].Name = name
		}
	}
	return tokens, nil
}

// modelSource is a loaded model's backing random-access file, used to
// lazily materialise transducer blobs not yet read (§5).
type modelSource struct {
	r io.ReaderAt
}

// sectionReader adapts a byte range of r to io.Reader so the
// sequential read helpers above can be reused for one blob or one
// index section.
type sectionReader struct {
	r   io.ReaderAt
	pos int64
}

func (s *sectionReader) Read(p []byte) (int, error) {
	n, err := s.r.ReadAt(p, s.pos)
	s.pos += int64(n)
	return n, err
}

// Load reads a model's header and index from r but
// does not materialise any transducer blob; blobs are decoded lazily
// on first request via Model.blob.
func Load(r io.ReaderAt) (*Model, error) {
	hdr := &sectionReader{r: r}
	var indexPosition int64
	if err := binary.Read(hdr, binary.BigEndian, &indexPosition); err != nil {
		return nil, newModelError("load", "read index position: %w", err)
	}
	version, err := readString(hdr)
	if err != nil {
		return nil, newModelError("load", "read version: %w", err)
	}
	if version != modelMagicVersion {
		return nil, newModelError("load", "version mismatch: got %q, want %q", version, modelMagicVersion)
	}
	targetClass, err := readString(hdr)
	if err != nil {
		return nil, newModelError("load", "read target class: %w", err)
	}

	idx := &sectionReader{r: r, pos: indexPosition}
	signals, err := readBytesOrdinalMap(idx)
	if err != nil {
		return nil, newModelError("load", "read signal ordinals: %w", err)
	}
	fields, err := readBytesOrdinalMap(idx)
	if err != nil {
		return nil, newModelError("load", "read field ordinals: %w", err)
	}
	effectors, err := readBytesOrdinalMap(idx)
	if err != nil {
		return nil, newModelError("load", "read effector ordinals: %w", err)
	}
	names, err := readBytesOrdinalMap(idx)
	if err != nil {
		return nil, newModelError("load", "read transducer names: %w", err)
	}
	transducers := make([]transducerEntry, len(names))
	for i, n := range names {
		var off int64
		if err := binary.Read(idx, binary.BigEndian, &off); err != nil {
			return nil, newModelError("load", "read transducer offset: %w", err)
		}
		transducers[i] = transducerEntry{name: n.String(), offset: off}
	}
	var paramCount int32
	if err := binary.Read(idx, binary.BigEndian, &paramCount); err != nil {
		return nil, newModelError("load", "read effector parameter count: %w", err)
	}
	params := make([][]any, paramCount)
	for i := range params {
		var n int32
		if err := binary.Read(idx, binary.BigEndian, &n); err != nil {
			return nil, newModelError("load", "read parameter list length: %w", err)
		}
		list := make([]any, n)
		for j := range list {
			tokens, err := readTokenList(idx)
			if err != nil {
				return nil, newModelError("load", "read parameter tokens: %w", err)
			}
			list[j] = tokens
		}
		params[i] = list
	}

	m := &Model{
		version:            version,
		targetClass:        targetClass,
		signals:            signals,
		fields:             fields,
		effectors:          effectors,
		transducers:        transducers,
		effectorParameters: params,
		source:             &modelSource{r: r},
	}
	m.signalOrdinal = indexBytes(signals, S0)
	m.fieldOrdinal = indexBytes(fields, 0)
	m.effectorOrdinal = indexBytes(effectors, 0)
	m.transducerOrdinal = make(map[string]Ordinal, len(transducers))
	for i, e := range transducers {
		m.transducerOrdinal[e.name] = Ordinal(i)
	}
	return m, nil
}

func indexBytes(v []Bytes, base int) map[string]Ordinal {
	m := make(map[string]Ordinal, len(v))
	for i, b := range v {
		m[b.String()] = Ordinal(base + i)
	}
	return m
}

// readTransducer decodes one transducer blob starting at offset.
func (s *modelSource) readTransducer(offset int64, model *Model) (*Transducer, error) {
	r := &sectionReader{r: s.r, pos: offset}
	name, err := readString(r)
	if err != nil {
		return nil, newModelError("blob", "read name: %w", err)
	}
	targetClass, err := readString(r)
	if err != nil {
		return nil, newModelError("blob", "read target class: %w", err)
	}
	filter32, err := readInt32Slice(r)
	if err != nil {
		return nil, newModelError("blob", "read input filter: %w", err)
	}
	filter := make([]int16, len(filter32))
	for i, v := range filter32 {
		filter[i] = int16(v)
	}
	matrix, nEq, err := readSparseMatrix(r)
	if err != nil {
		return nil, newModelError("blob", "read matrix: %w", err)
	}
	vector, err := readInt32Slice(r)
	if err != nil {
		return nil, newModelError("blob", "read effector vector: %w", err)
	}
	return &Transducer{
		name:        name,
		targetClass: targetClass,
		nEq:         nEq,
		inputFilter: filter,
		matrix:      matrix,
		vector:      vector,
	}, nil
}

func readSparseMatrix(r io.Reader) ([]cell, int, error) {
	var rows, cols int32
	if err := binary.Read(r, binary.BigEndian, &rows); err != nil {
		return nil, 0, err
	}
	if err := binary.Read(r, binary.BigEndian, &cols); err != nil {
		return nil, 0, err
	}
	matrix := make([]cell, int(rows)*int(cols))
	for row := int32(0); row < rows; row++ {
		for col := int32(0); col < cols; col++ {
			matrix[int(row)*int(cols)+int(col)] = cell{nextState: uint32(row), action: 0}
		}
		var count int32
		if err := binary.Read(r, binary.BigEndian, &count); err != nil {
			return nil, 0, err
		}
		for i := int32(0); i < count; i++ {
			var e [3]int32
			if err := binary.Read(r, binary.BigEndian, &e); err != nil {
				return nil, 0, err
			}
			col, toState, effect := e[0], e[1], e[2]
			if col < 0 || col >= cols {
				return nil, 0, newModelError("blob", "matrix row %d: column %d out of range [0,%d)", row, col, cols)
			}
			matrix[int(row)*int(cols)+int(col)] = cell{nextState: uint32(toState), action: effect}
		}
	}
	return matrix, int(cols), nil
}
