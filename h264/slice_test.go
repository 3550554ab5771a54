package h264

import (
	"bytes"
	"testing"

	"github.com/blu-disc/escore/bits"
)

func minimalSliceSPSPPS() (*SpsData, *PpsData) {
	sps := &SpsData{
		FrameMbsOnlyFlag: true,
		PicOrderCntType:  0,
	}
	pps := &PpsData{}
	return sps, pps
}

func TestParseSliceHeaderMinimalIntraSlice(t *testing.T) {
	sps, pps := minimalSliceSPSPPS()

	w := bits.NewWriter(true)
	w.WriteUE(0)          // first_mb_in_slice
	w.WriteUE(SliceTypeI) // slice_type
	w.WriteUE(0)          // pic_parameter_set_id
	w.WriteBits(1, 4)     // frame_num (log2_max_frame_num_minus4==0 -> 4 bits)
	w.WriteBits(2, 4)     // pic_order_cnt_lsb (log2_max_poc_lsb_minus4==0 -> 4 bits)
	w.WriteBits(0, 1)     // adaptive_ref_pic_marking_mode_flag (nal_ref_idc != 0, non-IDR)
	w.WriteSE(0)          // slice_qp_delta
	raw := w.Finalize()

	br := bits.NewRBSPReader(bytes.NewReader(raw))
	h, err := ParseSliceHeader(br, 0, NALTypeNonIDR, 1, sps, pps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.FrameNum != 1 {
		t.Errorf("FrameNum = %d, want 1", h.FrameNum)
	}
	if h.PicOrderCntLsb != 2 {
		t.Errorf("PicOrderCntLsb = %d, want 2", h.PicOrderCntLsb)
	}
	if h.DecRefPicMarking == nil || h.DecRefPicMarking.AdaptiveRefPicMarkingModeFlag {
		t.Errorf("DecRefPicMarking = %+v, want non-nil with AdaptiveRefPicMarkingModeFlag=false", h.DecRefPicMarking)
	}
	if BaseSliceType(h.SliceType) != SliceTypeI {
		t.Errorf("BaseSliceType = %d, want %d", BaseSliceType(h.SliceType), SliceTypeI)
	}
}

func TestParseSliceHeaderIDRReadsIdrPicID(t *testing.T) {
	sps, pps := minimalSliceSPSPPS()

	w := bits.NewWriter(true)
	w.WriteUE(0)          // first_mb_in_slice
	w.WriteUE(SliceTypeI) // slice_type
	w.WriteUE(0)          // pic_parameter_set_id
	w.WriteBits(0, 4)     // frame_num
	w.WriteUE(5)          // idr_pic_id
	w.WriteBits(0, 4)     // pic_order_cnt_lsb
	w.WriteBits(1, 1)     // no_output_of_prior_pics_flag
	w.WriteBits(0, 1)     // long_term_reference_flag
	w.WriteSE(0)          // slice_qp_delta
	raw := w.Finalize()

	br := bits.NewRBSPReader(bytes.NewReader(raw))
	h, err := ParseSliceHeader(br, 0, NALTypeIDR, 1, sps, pps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.IdrPicID != 5 {
		t.Errorf("IdrPicID = %d, want 5", h.IdrPicID)
	}
	if h.DecRefPicMarking == nil || !h.DecRefPicMarking.NoOutputOfPriorPicsFlag {
		t.Errorf("DecRefPicMarking = %+v, want NoOutputOfPriorPicsFlag=true", h.DecRefPicMarking)
	}
}

func TestBaseSliceTypeCollapsesRepeatedRange(t *testing.T) {
	if BaseSliceType(7) != SliceTypeI {
		t.Errorf("BaseSliceType(7) = %d, want %d", BaseSliceType(7), SliceTypeI)
	}
}

func TestMbaffFrameFlagRequiresFramePicture(t *testing.T) {
	sps := &SpsData{MbAdaptiveFrameFieldFlag: true}
	if MbaffFrameFlag(sps, true) {
		t.Error("expected MBAFF to be false for a field picture")
	}
	if !MbaffFrameFlag(sps, false) {
		t.Error("expected MBAFF to be true for a frame picture with mb_adaptive_frame_field_flag set")
	}
}
