package ribose

import "github.com/golang/glog"

// sharedBuffer is a refcounted wrapper around a frame's byte slice. A
// live frame and any archived copy of it reference the same
// sharedBuffer (§9 "cyclic references"), and the count records how
// many frames refer to it. No recycle operation is provided: buffers
// are never handed back to the caller.
type sharedBuffer struct {
	data []byte
	refs int
}

func newSharedBuffer(data []byte) *sharedBuffer {
	return &sharedBuffer{data: data, refs: 1}
}

func (b *sharedBuffer) retain() { b.refs++ }
func (b *sharedBuffer) release() int {
	b.refs--
	return b.refs
}

// inputFrame is one (array, position, limit, length, mark) frame
// (§3). mark is -1 except on the anchor frame while marked.
type inputFrame struct {
	buf    *sharedBuffer
	pos    int
	limit  int
	length int
	mark   int
	signal bool // true if this frame carries a single synthetic signal symbol
}

func newByteFrame(data []byte) *inputFrame {
	return &inputFrame{
		buf:    newSharedBuffer(data),
		pos:    0,
		limit:  len(data),
		length: len(data),
		mark:   -1,
	}
}

// newSignalFrame wraps a single signal ordinal as a one-symbol frame.
// It is tagged signal:true so the VM can tell it apart from a byte
// frame carrying the same numeric value in its one byte (§9 "Signal
// packing with bytes": never distinguish by value alone).
func newSignalFrame(sig Ordinal) *inputFrame {
	return &inputFrame{
		buf:    newSharedBuffer([]byte{byte(sig)}),
		pos:    0,
		limit:  1,
		length: 1,
		mark:   -1,
		signal: true,
	}
}

func (f *inputFrame) exhausted() bool { return f.pos >= f.limit }

// symbol returns the next input symbol without consuming it: the raw
// byte for a byte frame, or the full signal ordinal for a signal
// frame (whose one byte only holds the ordinal's low 8 bits).
func (f *inputFrame) symbol(sig Ordinal) int {
	if f.signal {
		return int(sig)
	}
	return int(f.buf.data[f.pos])
}

func (f *inputFrame) archiveCopy() inputFrame {
	cp := *f
	f.buf.retain()
	return cp
}

// markState tracks the process-wide mark lifecycle (§3 invariant 6).
type markState int

const (
	markClear markState = iota
	markMarked
	markResetPending
)

// defaultArchiveCapacity is the mark-archive's starting soft capacity;
// it doubles on overflow rather than failing (§4.6, §9 Open Question:
// this implementation picks warn-and-grow over a hard cap).
const defaultArchiveCapacity = 8

// defaultArchiveMax is the operator hint past which growth is still
// allowed but a warning is logged once per doubling.
const defaultArchiveMax = 256

// inputStack is the transductor's stack of input frames, plus the
// growable buffer of frames archived while marked (§3).
type inputStack struct {
	frames     []*inputFrame
	archive    []inputFrame
	archiveMax int
	state      markState
	signal     Ordinal // current pending signal symbol, see symbol()
}

func newInputStack() *inputStack {
	return &inputStack{archiveMax: defaultArchiveMax}
}

func (s *inputStack) empty() bool { return len(s.frames) == 0 }

func (s *inputStack) top() *inputFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *inputStack) push(f *inputFrame) {
	s.frames = append(s.frames, f)
}

// pushSignal pushes a synthetic one-symbol signal frame and records sig
// as the stack's current pending signal value, so the frame's symbol()
// call (which only carries the ordinal's low byte in its backing
// buffer) can recover the full ordinal. Only one signal frame is ever
// live at a time in practice (a freshly pushed signal is consumed
// before another is injected), so a single scalar is enough; see
// inputFrame.symbol.
func (s *inputStack) pushSignal(sig Ordinal) {
	s.push(newSignalFrame(sig))
	s.signal = sig
}

// pop removes and returns the top frame, archiving it first if a mark
// is currently live (§4.6).
func (s *inputStack) pop() *inputFrame {
	n := len(s.frames)
	if n == 0 {
		return nil
	}
	top := s.frames[n-1]
	s.frames = s.frames[:n-1]
	if s.state == markMarked || s.state == markResetPending {
		s.archiveFrame(top)
	}
	return top
}

func (s *inputStack) archiveFrame(f *inputFrame) {
	if len(s.archive) >= cap(s.archive) {
		newCap := defaultArchiveCapacity
		if cap(s.archive) > 0 {
			newCap = cap(s.archive) * 2
		}
		if newCap > s.archiveMax {
			glog.Warningf("ribose: mark archive exceeds operator hint %d frames, growing to %d anyway", s.archiveMax, newCap)
		}
		grown := make([]inputFrame, len(s.archive), newCap)
		copy(grown, s.archive)
		s.archive = grown
	}
	s.archive = append(s.archive, f.archiveCopy())
}

// mark records the current position of the anchor frame (frames[0])
// as the one-shot checkpoint (§4.6). Marking is only meaningful while
// reading the anchor frame itself; this is a contract on the caller,
// matching spec.md's own framing of mark as living on the bottom
// frame exclusively.
func (s *inputStack) mark() {
	if len(s.frames) == 0 {
		return
	}
	anchor := s.frames[0]
	anchor.mark = anchor.pos
	s.state = markMarked
}

// reset rewinds to the last mark (§4.6). In the common case — the
// anchor frame is still present and is the only frame on the stack —
// this is an in-place position rewind. Otherwise every frame still on
// the stack is archived, the anchor frame with its position wound back
// to its mark point (so whichever branch fires, replay of the anchor
// resumes from the mark) and frames above it at their current
// positions, and the
// stack enters reset-pending until it drains, at which point the
// archived frames are replayed in original order.
func (s *inputStack) reset() {
	if s.state == markClear {
		return
	}
	if len(s.frames) == 1 && s.frames[0].mark >= 0 {
		anchor := s.frames[0]
		anchor.pos = anchor.mark
		anchor.mark = -1
		// Any frames popped since the mark are archived but have
		// nothing left to replay them onto; drop them here instead of
		// leaking their buffer references.
		s.releaseArchive()
		s.state = markClear
		return
	}
	// Archive top-to-bottom, matching the order pop() builds up the
	// archive in one frame at a time, so drainReplayIfPending's single
	// reversal restores bottom-to-top stack order regardless of which
	// path populated the archive.
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if f.mark >= 0 {
			f.pos = f.mark
			f.mark = -1
		}
		s.archiveFrame(f)
	}
	s.frames = nil
	s.state = markResetPending
}

// releaseArchive drops the archive without replaying it, releasing
// each archived frame's shared buffer reference.
func (s *inputStack) releaseArchive() {
	for i := range s.archive {
		s.archive[i].buf.release()
	}
	s.archive = nil
}

// drainReplayIfPending is called by the run loop whenever the frame
// stack goes empty; if a reset is pending it replays the archived
// frames (in original order, freshest on top so LIFO consumption
// restores original order) and returns to the clear state.
func (s *inputStack) drainReplayIfPending() {
	if s.state != markResetPending || len(s.archive) == 0 {
		return
	}
	archived := s.archive
	s.archive = nil
	for i := len(archived) - 1; i >= 0; i-- {
		a := archived[i]
		s.frames = append(s.frames, &a)
	}
	s.state = markClear
}

// unmark drops the live mark and archive without replaying (§4.6).
func (s *inputStack) unmark() {
	for i := range s.archive {
		s.archive[i].buf.release()
	}
	s.archive = nil
	if len(s.frames) > 0 {
		s.frames[0].mark = -1
	}
	s.state = markClear
}
