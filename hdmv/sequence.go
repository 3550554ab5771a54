package hdmv

import "github.com/blu-disc/escore/diag"

// Sequence is an ordered chain of segments of one type sharing
// first/last markers, carrying a defragmented payload buffer, spec
// section 3.2.
type Sequence struct {
	Type   byte
	buf    []byte
	closed bool
}

// sequenceReassembler tracks the at-most-one open Sequence per
// fragmentable segment type (ODS, ICS), spec section 4.4.2. PDS, PCS, WDS,
// and END segments are always singleton sequences and bypass this.
type sequenceReassembler struct {
	open map[byte]*Sequence
}

func newSequenceReassembler() *sequenceReassembler {
	return &sequenceReassembler{open: make(map[byte]*Sequence)}
}

// Feed appends seg's payload to the sequence of its type. For ODS/ICS
// segments the payload is prefixed by a sequence-descriptor byte which
// Feed strips before appending. It returns the reassembled payload and
// true once the sequence's last_in_sequence segment has been consumed;
// otherwise it returns nil, false pending further fragments.
func (r *sequenceReassembler) Feed(seg *Segment, offset int64) ([]byte, bool, error) {
	switch seg.Type {
	case SegmentODS, SegmentICS:
		return r.feedFragmented(seg, offset)
	default:
		// PDS, PCS, WDS, END: always a singleton sequence.
		return seg.Payload, true, nil
	}
}

func (r *sequenceReassembler) feedFragmented(seg *Segment, offset int64) ([]byte, bool, error) {
	if len(seg.Payload) < 1 {
		return nil, false, diag.NewParserError(offset, "sequence_descriptor", errShortSegmentPayload)
	}
	sd := ReadSequenceDescriptor(seg.Payload[0])
	frag := seg.Payload[1:]

	cur, isOpen := r.open[seg.Type]
	if sd.FirstInSequence {
		if isOpen && !cur.closed {
			return nil, false, diag.NewParserError(offset, "first_in_sequence", errSequenceAlreadyOpen)
		}
		cur = &Sequence{Type: seg.Type}
		r.open[seg.Type] = cur
	} else if !isOpen || cur.closed {
		return nil, false, diag.NewParserError(offset, "first_in_sequence", errNoOpenSequence)
	}

	cur.buf = append(cur.buf, frag...)
	if sd.LastInSequence {
		cur.closed = true
		return cur.buf, true, nil
	}
	return nil, false, nil
}

// reset discards any sequence state; beginDisplaySet calls it after each
// display set is closed.
func (r *sequenceReassembler) reset() {
	r.open = make(map[byte]*Sequence)
}
