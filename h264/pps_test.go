package h264

import (
	"bytes"
	"testing"

	"github.com/blu-disc/escore/bits"
)

// buildMinimalPPS writes a pic_parameter_set_rbsp with no trailing
// more_rbsp_data(), exercising the short form of ParsePPS.
func buildMinimalPPS(t *testing.T) []byte {
	t.Helper()
	w := bits.NewWriter(true)
	w.WriteUE(0) // pic_parameter_set_id
	w.WriteUE(0) // seq_parameter_set_id
	w.WriteBits(1, 1) // entropy_coding_mode_flag (CABAC)
	w.WriteBits(0, 1) // bottom_field_pic_order_in_frame_present_flag
	w.WriteUE(0)       // num_slice_groups_minus1
	w.WriteUE(0)       // num_ref_idx_l0_default_active_minus1
	w.WriteUE(0)       // num_ref_idx_l1_default_active_minus1
	w.WriteBits(0, 1) // weighted_pred_flag
	w.WriteBits(0, 2) // weighted_bipred_idc
	w.WriteSE(0)       // pic_init_qp_minus26
	w.WriteSE(0)       // pic_init_qs_minus26
	w.WriteSE(0)       // chroma_qp_index_offset
	w.WriteBits(0, 1) // deblocking_filter_control_present_flag
	w.WriteBits(0, 1) // constrained_intra_pred_flag
	w.WriteBits(0, 1) // redundant_pic_cnt_present_flag
	return w.Finalize()
}

func TestParsePPSMinimalForm(t *testing.T) {
	raw := buildMinimalPPS(t)
	br := bits.NewRBSPReader(bytes.NewReader(raw))
	pps, err := ParsePPS(br, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pps.EntropyCodingModeFlag {
		t.Error("expected entropy_coding_mode_flag to be true")
	}
	if pps.SecondChromaQpIndexOffset != pps.ChromaQpIndexOffset {
		t.Errorf("SecondChromaQpIndexOffset = %d, want it to default to ChromaQpIndexOffset (%d)",
			pps.SecondChromaQpIndexOffset, pps.ChromaQpIndexOffset)
	}
}

func TestValidatePPSRejectsNonZeroSeqParameterSetID(t *testing.T) {
	pps := &PpsData{SeqParameterSetID: 1}
	sink := &captureSink{}
	if err := ValidatePPS(pps, nil, sink); err == nil {
		t.Fatal("expected an error for a non-zero seq_parameter_set_id reference")
	}
	if len(sink.reported) != 1 {
		t.Fatalf("expected exactly one reported diagnostic, got %d", len(sink.reported))
	}
}

func TestValidatePPSRejectsFlexibleMacroblockOrdering(t *testing.T) {
	pps := &PpsData{NumSliceGroupsMinus1: 1}
	if err := ValidatePPS(pps, nil, nil); err == nil {
		t.Fatal("expected an error for num_slice_groups_minus1 > 0")
	}
}

func TestValidatePPSAcceptsConformingPPS(t *testing.T) {
	pps := &PpsData{}
	if err := ValidatePPS(pps, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
