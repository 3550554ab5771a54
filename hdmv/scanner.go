package hdmv

import (
	"bufio"
	"io"

	"github.com/blu-disc/escore/diag"
)

// Scanner reads successive Segments from an io.Reader, transparently
// handling both raw and MNU framing (detected once, from the first
// segment header, per spec section 4.4.1).
type Scanner struct {
	r      *bufio.Reader
	offset int64
	mnu    bool
	probed bool
}

// NewScanner constructs a Scanner over r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 64*1024)}
}

// ForceRetiming reports whether force-retiming applies: true for a
// raw-framed stream, false for an MNU-framed one (the MNU header supplies
// real timestamps). If Next has not yet detected the framing, it is
// probed here first; it reports false when the framing cannot be detected.
func (s *Scanner) ForceRetiming() bool {
	if !s.probed {
		if probe, err := s.r.Peek(10); len(probe) > 0 && (err == nil || err == io.EOF) {
			if mnu, derr := DetectFraming(probe); derr == nil {
				s.mnu, s.probed = mnu, true
			}
		}
	}
	return s.probed && !s.mnu
}

// Next reads and returns the following segment, or io.EOF when the stream
// is exhausted.
func (s *Scanner) Next() (*Segment, error) {
	headerLen := 3
	if !s.probed {
		probe, err := s.r.Peek(10)
		if err != nil && err != io.EOF {
			return nil, diag.NewParserError(s.offset, "segment_header", err)
		}
		if len(probe) == 0 {
			return nil, io.EOF
		}
		mnu, derr := DetectFraming(probe)
		if derr != nil {
			return nil, diag.NewParserError(s.offset, "segment_type", derr)
		}
		s.mnu = mnu
		s.probed = true
	}
	if s.mnu {
		headerLen = 13
	}

	head := make([]byte, headerLen)
	n, err := io.ReadFull(s.r, head)
	if err == io.EOF && n == 0 {
		return nil, io.EOF
	}
	if err != nil {
		return nil, diag.NewParserError(s.offset, "segment_header", err)
	}

	var length int
	if s.mnu {
		length = int(head[11])<<8 | int(head[12])
	} else {
		length = int(head[1])<<8 | int(head[2])
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(s.r, payload); err != nil {
		return nil, diag.NewParserError(s.offset, "segment_payload", err)
	}

	full := append(head, payload...)
	var seg *Segment
	var consumed int
	if s.mnu {
		seg, consumed, err = ReadMNUSegment(full, s.offset)
	} else {
		seg, consumed, err = ReadRawSegment(full, s.offset)
	}
	if err != nil {
		return nil, err
	}
	s.offset += int64(consumed)
	return seg, nil
}
