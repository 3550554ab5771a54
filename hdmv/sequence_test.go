package hdmv

import "testing"

func TestSequenceReassemblerSingleFragment(t *testing.T) {
	r := newSequenceReassembler()
	seg := &Segment{Type: SegmentODS, Payload: []byte{0xC0, 1, 2, 3}} // first+last
	buf, ready, err := r.Feed(seg, 0)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if !ready {
		t.Fatalf("expected ready after a single first+last fragment")
	}
	if string(buf) != string([]byte{1, 2, 3}) {
		t.Errorf("buf = %v, want [1 2 3]", buf)
	}
}

func TestSequenceReassemblerMultiFragment(t *testing.T) {
	r := newSequenceReassembler()
	first := &Segment{Type: SegmentODS, Payload: []byte{0x80, 1, 2}} // first only
	mid := &Segment{Type: SegmentODS, Payload: []byte{0x00, 3, 4}}   // neither
	last := &Segment{Type: SegmentODS, Payload: []byte{0x40, 5}}     // last only

	if _, ready, err := r.Feed(first, 0); err != nil || ready {
		t.Fatalf("first fragment: ready=%v err=%v", ready, err)
	}
	if _, ready, err := r.Feed(mid, 0); err != nil || ready {
		t.Fatalf("mid fragment: ready=%v err=%v", ready, err)
	}
	buf, ready, err := r.Feed(last, 0)
	if err != nil {
		t.Fatalf("last fragment: %v", err)
	}
	if !ready {
		t.Fatalf("expected ready after last fragment")
	}
	want := []byte{1, 2, 3, 4, 5}
	if string(buf) != string(want) {
		t.Errorf("buf = %v, want %v", buf, want)
	}
}

func TestSequenceReassemblerRejectsOverlappingFirst(t *testing.T) {
	r := newSequenceReassembler()
	first := &Segment{Type: SegmentICS, Payload: []byte{0x80, 1}}
	if _, _, err := r.Feed(first, 0); err != nil {
		t.Fatalf("first fragment: %v", err)
	}
	if _, _, err := r.Feed(first, 0); err == nil {
		t.Fatalf("expected error for a first_in_sequence while one is already open")
	}
}

func TestSequenceReassemblerRejectsOrphanFragment(t *testing.T) {
	r := newSequenceReassembler()
	mid := &Segment{Type: SegmentODS, Payload: []byte{0x00, 1}}
	if _, _, err := r.Feed(mid, 0); err == nil {
		t.Fatalf("expected error for a non-first fragment with no open sequence")
	}
}

func TestSequenceReassemblerSingletonTypesBypassReassembly(t *testing.T) {
	r := newSequenceReassembler()
	seg := &Segment{Type: SegmentPCS, Payload: []byte{1, 2, 3}}
	buf, ready, err := r.Feed(seg, 0)
	if err != nil || !ready {
		t.Fatalf("expected immediate ready for PCS, got ready=%v err=%v", ready, err)
	}
	if string(buf) != string(seg.Payload) {
		t.Errorf("buf = %v, want unmodified payload %v", buf, seg.Payload)
	}
}

func TestSequenceReassemblerResetClearsOpenSequences(t *testing.T) {
	r := newSequenceReassembler()
	first := &Segment{Type: SegmentODS, Payload: []byte{0x80, 1}}
	if _, _, err := r.Feed(first, 0); err != nil {
		t.Fatalf("first fragment: %v", err)
	}
	r.reset()
	// After reset, a non-first fragment should again be rejected as orphaned
	// rather than silently appended to the stale sequence.
	mid := &Segment{Type: SegmentODS, Payload: []byte{0x00, 1}}
	if _, _, err := r.Feed(mid, 0); err == nil {
		t.Fatalf("expected error after reset discarded the open sequence")
	}
}
