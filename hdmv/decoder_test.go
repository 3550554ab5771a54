package hdmv

import (
	"bytes"
	"testing"

	"github.com/blu-disc/escore/diag"
	"github.com/blu-disc/escore/script"
)

// buildPGSStream assembles a minimal raw-framed PGS epoch: PDS, one ODS,
// WDS, an EpochStart PCS referencing them, and END.
func buildPGSStream(t *testing.T) []byte {
	t.Helper()
	var stream []byte

	pds := rawSegmentBytes(SegmentPDS, []byte{0, 1, 0x10, 0x80, 0x80, 0xFF})
	stream = append(stream, pds...)

	odsPayload := append(buildODSPayload(1, 64, 64, []byte{0xAA}), 0xAA)
	// Prefix the sequence-descriptor byte (first+last) for the singleton ODS fragment.
	odsFragment := append([]byte{0xC0}, odsPayload...)
	stream = append(stream, rawSegmentBytes(SegmentODS, odsFragment)...)

	wdsPayload := append([]byte{0x01}, windowBytes(0, 0, 0, 640, 480)...)
	stream = append(stream, rawSegmentBytes(SegmentWDS, wdsPayload)...)

	pcsPayload := buildPCSPayload(CompositionStateEpochStart, 0, []CompositionObject{
		{ObjectIDRef: 1, WindowIDRef: 0, X: 0, Y: 0},
	})
	stream = append(stream, rawSegmentBytes(SegmentPCS, pcsPayload)...)

	stream = append(stream, rawSegmentBytes(SegmentEND, nil)...)
	return stream
}

func TestDecoderRunPGSEpoch(t *testing.T) {
	stream := buildPGSStream(t)
	scanner := NewScanner(bytes.NewReader(stream))
	writer := script.NewWriter()
	collector := diag.NewCollector(nil)

	d := NewDecoder(scanner, GraphicsPGS, scanner.ForceRetiming(), 0, "stream.pgs", writer, collector, false)
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	cmds := writer.Commands()
	var copies, ends, starts int
	for _, c := range cmds {
		switch c.Kind {
		case script.KindCopyPESPayload:
			copies++
		case script.KindEndMarker:
			ends++
		case script.KindStartFrame:
			starts++
		}
	}
	if copies != 5 {
		t.Errorf("copy_pes_payload count = %d, want 5 (one per physical segment)", copies)
	}
	if ends != 1 {
		t.Errorf("end_marker count = %d, want 1", ends)
	}
	if starts != 5 {
		t.Errorf("start_frame count = %d, want 5 (one per logical segment, none fragmented)", starts)
	}
}

// TestDecoderCarriesDefinitionsAcrossDisplaySets builds two display sets in
// one epoch: the first declares a palette, an object, and a window; the
// second references all three without redeclaring them. Invariant 4 (epoch
// carry-over) requires this to resolve cleanly.
func TestDecoderCarriesDefinitionsAcrossDisplaySets(t *testing.T) {
	var stream []byte

	pds := rawSegmentBytes(SegmentPDS, []byte{0, 1, 0x10, 0x80, 0x80, 0xFF})
	stream = append(stream, pds...)
	odsPayload := append(buildODSPayload(1, 64, 64, []byte{0xAA}), 0xAA)
	odsFragment := append([]byte{0xC0}, odsPayload...)
	stream = append(stream, rawSegmentBytes(SegmentODS, odsFragment)...)
	wdsPayload := append([]byte{0x01}, windowBytes(0, 0, 0, 640, 480)...)
	stream = append(stream, rawSegmentBytes(SegmentWDS, wdsPayload)...)
	pcs1 := buildPCSPayload(CompositionStateEpochStart, 0, []CompositionObject{
		{ObjectIDRef: 1, WindowIDRef: 0, X: 0, Y: 0},
	})
	stream = append(stream, rawSegmentBytes(SegmentPCS, pcs1)...)
	stream = append(stream, rawSegmentBytes(SegmentEND, nil)...)

	// Second display set of the same epoch: no PDS/ODS/WDS, just a PCS
	// referencing the first DS's object/window/palette.
	pcs2 := buildPCSPayload(CompositionStateNormal, 0, []CompositionObject{
		{ObjectIDRef: 1, WindowIDRef: 0, X: 10, Y: 10},
	})
	stream = append(stream, rawSegmentBytes(SegmentPCS, pcs2)...)
	stream = append(stream, rawSegmentBytes(SegmentEND, nil)...)

	scanner := NewScanner(bytes.NewReader(stream))
	writer := script.NewWriter()
	d := NewDecoder(scanner, GraphicsPGS, scanner.ForceRetiming(), 0, "stream.pgs", writer, diag.NewCollector(nil), false)
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ends := 0
	for _, c := range writer.Commands() {
		if c.Kind == script.KindEndMarker {
			ends++
		}
	}
	if ends != 2 {
		t.Errorf("end_marker count = %d, want 2 (one per display set)", ends)
	}
}

func TestDecoderRunRejectsUnresolvedReference(t *testing.T) {
	var stream []byte
	pcsPayload := buildPCSPayload(CompositionStateEpochStart, 9, nil) // palette 9 never defined.
	stream = append(stream, rawSegmentBytes(SegmentPCS, pcsPayload)...)
	stream = append(stream, rawSegmentBytes(SegmentEND, nil)...)

	scanner := NewScanner(bytes.NewReader(stream))
	writer := script.NewWriter()
	d := NewDecoder(scanner, GraphicsPGS, true, 0, "stream.pgs", writer, diag.NewCollector(nil), false)
	if err := d.Run(); err == nil {
		t.Fatalf("expected validation error for an unresolved palette_id_ref")
	}
}
