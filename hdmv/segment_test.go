package hdmv

import "testing"

func TestDetectFramingRaw(t *testing.T) {
	mnu, err := DetectFraming([]byte{SegmentPCS, 0x00, 0x05})
	if err != nil {
		t.Fatalf("DetectFraming: %v", err)
	}
	if mnu {
		t.Fatalf("expected raw framing, got mnu")
	}
}

func TestDetectFramingMNU(t *testing.T) {
	mnu, err := DetectFraming([]byte{'M', 'N', 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("DetectFraming: %v", err)
	}
	if !mnu {
		t.Fatalf("expected mnu framing")
	}
}

func TestDetectFramingUnknownByte(t *testing.T) {
	if _, err := DetectFraming([]byte{0x99, 0x00}); err == nil {
		t.Fatalf("expected error for unrecognized leading byte")
	}
}

func TestReadRawSegmentRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	buf := []byte{SegmentPDS, 0x00, byte(len(payload))}
	buf = append(buf, payload...)

	seg, n, err := ReadRawSegment(buf, 100)
	if err != nil {
		t.Fatalf("ReadRawSegment: %v", err)
	}
	if n != len(buf) {
		t.Errorf("consumed = %d, want %d", n, len(buf))
	}
	if seg.Type != SegmentPDS || seg.Length != len(payload) || seg.InputFileOffset != 100 {
		t.Errorf("unexpected segment: %+v", seg)
	}
	if string(seg.Payload) != string(payload) {
		t.Errorf("payload = %v, want %v", seg.Payload, payload)
	}
}

func TestReadRawSegmentRejectsUnknownType(t *testing.T) {
	buf := []byte{0x99, 0x00, 0x00}
	if _, _, err := ReadRawSegment(buf, 0); err == nil {
		t.Fatalf("expected error for unknown segment type")
	}
}

func TestReadRawSegmentRejectsShortPayload(t *testing.T) {
	buf := []byte{SegmentEND, 0x00, 0x05, 1, 2} // declares 5 bytes, has 2.
	if _, _, err := ReadRawSegment(buf, 0); err == nil {
		t.Fatalf("expected error for truncated payload")
	}
}

func TestReadMNUSegmentRoundTrip(t *testing.T) {
	payload := []byte{0xAA}
	buf := []byte{'M', 'N', 0, 0, 0x10, 0x00, 0, 0, 0x20, 0x00, SegmentWDS, 0x00, byte(len(payload))}
	buf = append(buf, payload...)

	seg, n, err := ReadMNUSegment(buf, 0)
	if err != nil {
		t.Fatalf("ReadMNUSegment: %v", err)
	}
	if n != len(buf) {
		t.Errorf("consumed = %d, want %d", n, len(buf))
	}
	if !seg.HasTimestamps || seg.PTS != 0x1000 || seg.DTS != 0x2000 {
		t.Errorf("unexpected timestamps: %+v", seg)
	}
	if seg.Type != SegmentWDS {
		t.Errorf("type = %#x, want %#x", seg.Type, SegmentWDS)
	}
}

func TestReadSequenceDescriptorBits(t *testing.T) {
	sd := ReadSequenceDescriptor(0xC0)
	if !sd.FirstInSequence || !sd.LastInSequence {
		t.Errorf("expected both flags set for 0xC0, got %+v", sd)
	}
	sd = ReadSequenceDescriptor(0x00)
	if sd.FirstInSequence || sd.LastInSequence {
		t.Errorf("expected neither flag set for 0x00, got %+v", sd)
	}
}
