package h264

import (
	"github.com/blu-disc/escore/bits"
	"github.com/blu-disc/escore/diag"
)

// PpsData holds a parsed picture parameter set, Rec. ITU-T H.264 section
// 7.3.2.2.
type PpsData struct {
	PicParameterSetID       uint32
	SeqParameterSetID       uint32
	EntropyCodingModeFlag   bool
	BottomFieldPicOrderInFramePresentFlag bool

	// FMO fields. Blu-ray streams carry num_slice_groups_minus1==0, so
	// SliceGroup is left unparsed beyond the flag.
	NumSliceGroupsMinus1 uint32

	NumRefIdxL0DefaultActiveMinus1 uint32
	NumRefIdxL1DefaultActiveMinus1 uint32
	WeightedPredFlag               bool
	WeightedBipredIdc              uint8
	PicInitQpMinus26               int32
	PicInitQsMinus26               int32
	ChromaQpIndexOffset            int32
	DeblockingFilterControlPresentFlag bool
	ConstrainedIntraPredFlag        bool
	RedundantPicCntPresentFlag      bool

	// present only when more_rbsp_data() is true.
	Transform8x8ModeFlag      bool
	PicScalingMatrixPresentFlag bool
	SecondChromaQpIndexOffset int32
}

// ParsePPS parses a pic_parameter_set_rbsp, section 7.3.2.2. sps is the
// referenced sequence parameter set, used to decide whether the optional
// 8x8-transform extension is present.
func ParsePPS(br *bits.Reader, offset int64, sps *SpsData) (*PpsData, error) {
	p := &PpsData{}
	var err error

	if p.PicParameterSetID, err = br.ReadUE(8); err != nil {
		return nil, diag.NewParserError(offset, "pic_parameter_set_id", err)
	}
	if p.SeqParameterSetID, err = br.ReadUE(8); err != nil {
		return nil, diag.NewParserError(offset, "seq_parameter_set_id", err)
	}
	if p.SeqParameterSetID != 0 {
		return nil, diag.NewParserError(offset, "seq_parameter_set_id", errNonZeroPPSSPSID)
	}

	b, err := br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "entropy_coding_mode_flag", err)
	}
	p.EntropyCodingModeFlag = b == 1

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "bottom_field_pic_order_in_frame_present_flag", err)
	}
	p.BottomFieldPicOrderInFramePresentFlag = b == 1

	if p.NumSliceGroupsMinus1, err = br.ReadUE(8); err != nil {
		return nil, diag.NewParserError(offset, "num_slice_groups_minus1", err)
	}
	if p.NumSliceGroupsMinus1 > 0 {
		if err := skipSliceGroupMapInfo(br, offset, p.NumSliceGroupsMinus1); err != nil {
			return nil, err
		}
	}

	if p.NumRefIdxL0DefaultActiveMinus1, err = br.ReadUE(32); err != nil {
		return nil, diag.NewParserError(offset, "num_ref_idx_l0_default_active_minus1", err)
	}
	if p.NumRefIdxL1DefaultActiveMinus1, err = br.ReadUE(32); err != nil {
		return nil, diag.NewParserError(offset, "num_ref_idx_l1_default_active_minus1", err)
	}

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "weighted_pred_flag", err)
	}
	p.WeightedPredFlag = b == 1
	wb, err := br.ReadBits(2)
	if err != nil {
		return nil, diag.NewParserError(offset, "weighted_bipred_idc", err)
	}
	p.WeightedBipredIdc = uint8(wb)

	if p.PicInitQpMinus26, err = br.ReadSE(8); err != nil {
		return nil, diag.NewParserError(offset, "pic_init_qp_minus26", err)
	}
	if p.PicInitQsMinus26, err = br.ReadSE(8); err != nil {
		return nil, diag.NewParserError(offset, "pic_init_qs_minus26", err)
	}
	if p.ChromaQpIndexOffset, err = br.ReadSE(8); err != nil {
		return nil, diag.NewParserError(offset, "chroma_qp_index_offset", err)
	}

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "deblocking_filter_control_present_flag", err)
	}
	p.DeblockingFilterControlPresentFlag = b == 1
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "constrained_intra_pred_flag", err)
	}
	p.ConstrainedIntraPredFlag = b == 1
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "redundant_pic_cnt_present_flag", err)
	}
	p.RedundantPicCntPresentFlag = b == 1

	if br.MoreRBSPData() {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "transform_8x8_mode_flag", err)
		}
		p.Transform8x8ModeFlag = b == 1

		b, err = br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "pic_scaling_matrix_present_flag", err)
		}
		p.PicScalingMatrixPresentFlag = b == 1
		if p.PicScalingMatrixPresentFlag {
			n := 6
			if p.Transform8x8ModeFlag {
				if sps != nil && sps.ChromaFormatIdc == Chroma444 {
					n += 6
				} else {
					n += 2
				}
			}
			if err := skipScalingLists(br, offset, n); err != nil {
				return nil, err
			}
		}
		if p.SecondChromaQpIndexOffset, err = br.ReadSE(8); err != nil {
			return nil, diag.NewParserError(offset, "second_chroma_qp_index_offset", err)
		}
	} else {
		p.SecondChromaQpIndexOffset = p.ChromaQpIndexOffset
	}

	return p, nil
}

// skipSliceGroupMapInfo consumes the slice_group_map_type syntax of section
// 7.3.2.2. Blu-ray streams never set num_slice_groups_minus1 > 0, so this
// exists only to keep the bit position correct should one be encountered.
func skipSliceGroupMapInfo(br *bits.Reader, offset int64, numSliceGroupsMinus1 uint32) error {
	mapType, err := br.ReadUE(3)
	if err != nil {
		return diag.NewParserError(offset, "slice_group_map_type", err)
	}
	switch mapType {
	case 0:
		for i := uint32(0); i <= numSliceGroupsMinus1; i++ {
			if _, err := br.ReadUE(32); err != nil {
				return diag.NewParserError(offset, "run_length_minus1", err)
			}
		}
	case 2:
		for i := uint32(0); i < numSliceGroupsMinus1; i++ {
			if _, err := br.ReadUE(32); err != nil {
				return diag.NewParserError(offset, "top_left", err)
			}
			if _, err := br.ReadUE(32); err != nil {
				return diag.NewParserError(offset, "bottom_right", err)
			}
		}
	case 3, 4, 5:
		if _, err := br.ReadBits(1); err != nil {
			return diag.NewParserError(offset, "slice_group_change_direction_flag", err)
		}
		if _, err := br.ReadUE(32); err != nil {
			return diag.NewParserError(offset, "slice_group_change_rate_minus1", err)
		}
	case 6:
		picSizeInMapUnitsMinus1, err := br.ReadUE(32)
		if err != nil {
			return diag.NewParserError(offset, "pic_size_in_map_units_minus1", err)
		}
		bitsPerID := bitLength(numSliceGroupsMinus1 + 1)
		for i := uint32(0); i <= picSizeInMapUnitsMinus1; i++ {
			if _, err := br.ReadBits(bitsPerID); err != nil {
				return diag.NewParserError(offset, "slice_group_id", err)
			}
		}
	}
	return nil
}

// bitLength returns ceil(log2(n)), the field width used for slice_group_id
// per section 7.3.2.2 when n is num_slice_groups_minus1+1.
func bitLength(n uint32) int {
	bits := 0
	for (uint32(1) << bits) < n {
		bits++
	}
	return bits
}
