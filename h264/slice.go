package h264

import (
	"github.com/blu-disc/escore/bits"
	"github.com/blu-disc/escore/diag"
)

// Slice types, Rec. ITU-T H.264 Table 7-6. Values 5-9 are the same types
// repeated to indicate that every slice in the picture shares that type.
const (
	SliceTypeP  = 0
	SliceTypeB  = 1
	SliceTypeI  = 2
	SliceTypeSP = 3
	SliceTypeSI = 4
)

// BaseSliceType returns t modulo 5, collapsing the repeated-type range.
func BaseSliceType(t uint32) uint32 { return t % 5 }

// RefPicListMod is one entry of ref_pic_list_modification(), section
// 7.3.3.1.
type RefPicListMod struct {
	Idc uint32
	Val uint32
}

// PredWeight is one entry of pred_weight_table()'s per-reference weights.
type PredWeight struct {
	LumaWeightFlag   bool
	LumaWeight       int32
	LumaOffset       int32
	ChromaWeightFlag bool
	ChromaWeight     [2]int32
	ChromaOffset     [2]int32
}

// PredWeightTable is pred_weight_table(), section 7.3.3.2.
type PredWeightTable struct {
	LumaLog2WeightDenom   uint32
	ChromaLog2WeightDenom uint32
	L0                    []PredWeight
	L1                    []PredWeight
}

// DecRefPicMarking is dec_ref_pic_marking(), section 7.3.3.3.
type DecRefPicMarking struct {
	NoOutputOfPriorPicsFlag bool
	LongTermReferenceFlag   bool
	AdaptiveRefPicMarkingModeFlag bool
	Ops                     []MmcoOp
}

// MmcoOp is one memory_management_control_operation and its operands.
type MmcoOp struct {
	Op   uint32
	Arg1 uint32
	Arg2 uint32
}

// SliceHeader is slice_header(), section 7.3.3, restricted to the fields a
// Blu-ray-legal stream can carry (no FMO, no weighted-prediction fields
// beyond what pred_weight_table requires).
type SliceHeader struct {
	FirstMbInSlice uint32
	SliceType      uint32
	PicParameterSetID uint32
	ColourPlaneID     uint8
	FrameNum          uint32
	FieldPicFlag      bool
	BottomFieldFlag   bool
	IdrPicID          uint32
	PicOrderCntLsb    uint32
	DeltaPicOrderCntBottom int32
	DeltaPicOrderCnt       [2]int32
	RedundantPicCnt        uint32
	DirectSpatialMvPredFlag bool

	NumRefIdxActiveOverrideFlag bool
	NumRefIdxL0ActiveMinus1     uint32
	NumRefIdxL1ActiveMinus1     uint32

	RefPicListModificationFlagL0 bool
	RefPicListModL0              []RefPicListMod
	RefPicListModificationFlagL1 bool
	RefPicListModL1               []RefPicListMod

	PredWeight *PredWeightTable
	DecRefPicMarking *DecRefPicMarking

	CabacInitIdc  uint32
	SliceQpDelta  int32
	SpForSwitchFlag bool
	SliceQsDelta  int32
	DisableDeblockingFilterIdc uint32
	SliceAlphaC0OffsetDiv2     int32
	SliceBetaOffsetDiv2        int32
}

// IdrPicFlag reports whether the slice belongs to an IDR access unit.
func (s *SliceHeader) IdrPicFlag(nalType int) bool { return nalType == NALTypeIDR }

// IsRefPic reports whether the slice's access unit is a reference picture.
func IsRefPic(nalRefIdc uint8) bool { return nalRefIdc != 0 }

// MbaffFrameFlag reports whether macroblock-adaptive frame/field coding is
// in effect for this slice, section 7.4.3.
func MbaffFrameFlag(sps *SpsData, fieldPicFlag bool) bool {
	return sps.MbAdaptiveFrameFieldFlag && !fieldPicFlag
}

// PicHeightInMbs returns the slice's picture height in macroblock units,
// section 7.4.3: half FrameHeightInMbs when field coded.
func PicHeightInMbs(sps *SpsData, fieldPicFlag bool) uint32 {
	if fieldPicFlag {
		return sps.FrameHeightInMbs() / 2
	}
	return sps.FrameHeightInMbs()
}

// PicSizeInMbs returns pic_width_in_mbs * pic_height_in_mbs.
func PicSizeInMbs(sps *SpsData, fieldPicFlag bool) uint32 {
	return sps.PicWidthInMbs() * PicHeightInMbs(sps, fieldPicFlag)
}

// ParseSliceHeader parses slice_header() per section 7.3.3 for a Blu-ray
// legal stream (no slice groups, i.e. pps.NumSliceGroupsMinus1 == 0).
func ParseSliceHeader(br *bits.Reader, offset int64, nalType int, nalRefIdc uint8, sps *SpsData, pps *PpsData) (*SliceHeader, error) {
	h := &SliceHeader{}
	var err error

	if h.FirstMbInSlice, err = br.ReadUE(32); err != nil {
		return nil, diag.NewParserError(offset, "first_mb_in_slice", err)
	}
	if h.SliceType, err = br.ReadUE(8); err != nil {
		return nil, diag.NewParserError(offset, "slice_type", err)
	}
	if h.PicParameterSetID, err = br.ReadUE(8); err != nil {
		return nil, diag.NewParserError(offset, "pic_parameter_set_id", err)
	}

	if sps.SeparateColourPlaneFlag {
		v, err := br.ReadBits(2)
		if err != nil {
			return nil, diag.NewParserError(offset, "colour_plane_id", err)
		}
		h.ColourPlaneID = uint8(v)
	}

	fn, err := br.ReadBits(int(sps.Log2MaxFrameNumMinus4) + 4)
	if err != nil {
		return nil, diag.NewParserError(offset, "frame_num", err)
	}
	h.FrameNum = uint32(fn)

	if !sps.FrameMbsOnlyFlag {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "field_pic_flag", err)
		}
		h.FieldPicFlag = b == 1
		if h.FieldPicFlag {
			b, err := br.ReadBits(1)
			if err != nil {
				return nil, diag.NewParserError(offset, "bottom_field_flag", err)
			}
			h.BottomFieldFlag = b == 1
		}
	}

	if nalType == NALTypeIDR {
		if h.IdrPicID, err = br.ReadUE(16); err != nil {
			return nil, diag.NewParserError(offset, "idr_pic_id", err)
		}
	}

	if sps.PicOrderCntType == 0 {
		v, err := br.ReadBits(int(sps.Log2MaxPicOrderCntLsbMinus4) + 4)
		if err != nil {
			return nil, diag.NewParserError(offset, "pic_order_cnt_lsb", err)
		}
		h.PicOrderCntLsb = uint32(v)
		if pps.BottomFieldPicOrderInFramePresentFlag && !h.FieldPicFlag {
			if h.DeltaPicOrderCntBottom, err = br.ReadSE(32); err != nil {
				return nil, diag.NewParserError(offset, "delta_pic_order_cnt_bottom", err)
			}
		}
	} else if sps.PicOrderCntType == 1 && !sps.DeltaPicOrderAlwaysZeroFlag {
		if h.DeltaPicOrderCnt[0], err = br.ReadSE(32); err != nil {
			return nil, diag.NewParserError(offset, "delta_pic_order_cnt[0]", err)
		}
		if pps.BottomFieldPicOrderInFramePresentFlag && !h.FieldPicFlag {
			if h.DeltaPicOrderCnt[1], err = br.ReadSE(32); err != nil {
				return nil, diag.NewParserError(offset, "delta_pic_order_cnt[1]", err)
			}
		}
	}

	if pps.RedundantPicCntPresentFlag {
		if h.RedundantPicCnt, err = br.ReadUE(8); err != nil {
			return nil, diag.NewParserError(offset, "redundant_pic_cnt", err)
		}
	}

	base := BaseSliceType(h.SliceType)
	if base == SliceTypeB {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "direct_spatial_mv_pred_flag", err)
		}
		h.DirectSpatialMvPredFlag = b == 1
	}

	if base == SliceTypeP || base == SliceTypeSP || base == SliceTypeB {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "num_ref_idx_active_override_flag", err)
		}
		h.NumRefIdxActiveOverrideFlag = b == 1
		if h.NumRefIdxActiveOverrideFlag {
			if h.NumRefIdxL0ActiveMinus1, err = br.ReadUE(32); err != nil {
				return nil, diag.NewParserError(offset, "num_ref_idx_l0_active_minus1", err)
			}
			if base == SliceTypeB {
				if h.NumRefIdxL1ActiveMinus1, err = br.ReadUE(32); err != nil {
					return nil, diag.NewParserError(offset, "num_ref_idx_l1_active_minus1", err)
				}
			}
		} else {
			h.NumRefIdxL0ActiveMinus1 = pps.NumRefIdxL0DefaultActiveMinus1
			h.NumRefIdxL1ActiveMinus1 = pps.NumRefIdxL1DefaultActiveMinus1
		}
	}

	if err := parseRefPicListModification(br, offset, h, base); err != nil {
		return nil, err
	}

	if (pps.WeightedPredFlag && (base == SliceTypeP || base == SliceTypeSP)) ||
		(pps.WeightedBipredIdc == 1 && base == SliceTypeB) {
		pw, err := parsePredWeightTable(br, offset, h, sps)
		if err != nil {
			return nil, err
		}
		h.PredWeight = pw
	}

	if nalRefIdc != 0 {
		drpm, err := parseDecRefPicMarking(br, offset, nalType == NALTypeIDR)
		if err != nil {
			return nil, err
		}
		h.DecRefPicMarking = drpm
	}

	if pps.EntropyCodingModeFlag && base != SliceTypeI && base != SliceTypeSI {
		if h.CabacInitIdc, err = br.ReadUE(2); err != nil {
			return nil, diag.NewParserError(offset, "cabac_init_idc", err)
		}
	}

	if h.SliceQpDelta, err = br.ReadSE(8); err != nil {
		return nil, diag.NewParserError(offset, "slice_qp_delta", err)
	}

	if base == SliceTypeSP || base == SliceTypeSI {
		if base == SliceTypeSP {
			b, err := br.ReadBits(1)
			if err != nil {
				return nil, diag.NewParserError(offset, "sp_for_switch_flag", err)
			}
			h.SpForSwitchFlag = b == 1
		}
		if h.SliceQsDelta, err = br.ReadSE(8); err != nil {
			return nil, diag.NewParserError(offset, "slice_qs_delta", err)
		}
	}

	if pps.DeblockingFilterControlPresentFlag {
		if h.DisableDeblockingFilterIdc, err = br.ReadUE(2); err != nil {
			return nil, diag.NewParserError(offset, "disable_deblocking_filter_idc", err)
		}
		if h.DisableDeblockingFilterIdc != 1 {
			if h.SliceAlphaC0OffsetDiv2, err = br.ReadSE(4); err != nil {
				return nil, diag.NewParserError(offset, "slice_alpha_c0_offset_div2", err)
			}
			if h.SliceBetaOffsetDiv2, err = br.ReadSE(4); err != nil {
				return nil, diag.NewParserError(offset, "slice_beta_offset_div2", err)
			}
		}
	}

	return h, nil
}

func parseRefPicListModification(br *bits.Reader, offset int64, h *SliceHeader, base uint32) error {
	if base == SliceTypeI || base == SliceTypeSI {
		return nil
	}
	b, err := br.ReadBits(1)
	if err != nil {
		return diag.NewParserError(offset, "ref_pic_list_modification_flag_l0", err)
	}
	h.RefPicListModificationFlagL0 = b == 1
	if h.RefPicListModificationFlagL0 {
		mods, err := readModList(br, offset)
		if err != nil {
			return err
		}
		h.RefPicListModL0 = mods
	}
	if base == SliceTypeB {
		b, err := br.ReadBits(1)
		if err != nil {
			return diag.NewParserError(offset, "ref_pic_list_modification_flag_l1", err)
		}
		h.RefPicListModificationFlagL1 = b == 1
		if h.RefPicListModificationFlagL1 {
			mods, err := readModList(br, offset)
			if err != nil {
				return err
			}
			h.RefPicListModL1 = mods
		}
	}
	return nil
}

func readModList(br *bits.Reader, offset int64) ([]RefPicListMod, error) {
	var mods []RefPicListMod
	for {
		idc, err := br.ReadUE(8)
		if err != nil {
			return nil, diag.NewParserError(offset, "modification_of_pic_nums_idc", err)
		}
		if idc == 3 {
			break
		}
		val, err := br.ReadUE(32)
		if err != nil {
			return nil, diag.NewParserError(offset, "abs_diff_pic_num_minus1 / long_term_pic_num", err)
		}
		mods = append(mods, RefPicListMod{Idc: idc, Val: val})
		if len(mods) > 64 {
			return nil, diag.NewParserError(offset, "ref_pic_list_modification", errOutOfRange)
		}
	}
	return mods, nil
}

func parsePredWeightTable(br *bits.Reader, offset int64, h *SliceHeader, sps *SpsData) (*PredWeightTable, error) {
	pw := &PredWeightTable{}
	var err error
	if pw.LumaLog2WeightDenom, err = br.ReadUE(8); err != nil {
		return nil, diag.NewParserError(offset, "luma_log2_weight_denom", err)
	}
	if sps.ChromaArrayType() != ChromaMonochrome {
		if pw.ChromaLog2WeightDenom, err = br.ReadUE(8); err != nil {
			return nil, diag.NewParserError(offset, "chroma_log2_weight_denom", err)
		}
	}

	readList := func(count uint32) ([]PredWeight, error) {
		list := make([]PredWeight, 0, count+1)
		for i := uint32(0); i <= count; i++ {
			var w PredWeight
			b, err := br.ReadBits(1)
			if err != nil {
				return nil, diag.NewParserError(offset, "luma_weight_flag", err)
			}
			w.LumaWeightFlag = b == 1
			if w.LumaWeightFlag {
				if w.LumaWeight, err = br.ReadSE(8); err != nil {
					return nil, diag.NewParserError(offset, "luma_weight", err)
				}
				if w.LumaOffset, err = br.ReadSE(8); err != nil {
					return nil, diag.NewParserError(offset, "luma_offset", err)
				}
			}
			if sps.ChromaArrayType() != ChromaMonochrome {
				b, err := br.ReadBits(1)
				if err != nil {
					return nil, diag.NewParserError(offset, "chroma_weight_flag", err)
				}
				w.ChromaWeightFlag = b == 1
				if w.ChromaWeightFlag {
					for j := 0; j < 2; j++ {
						if w.ChromaWeight[j], err = br.ReadSE(8); err != nil {
							return nil, diag.NewParserError(offset, "chroma_weight", err)
						}
						if w.ChromaOffset[j], err = br.ReadSE(8); err != nil {
							return nil, diag.NewParserError(offset, "chroma_offset", err)
						}
					}
				}
			}
			list = append(list, w)
		}
		return list, nil
	}

	base := BaseSliceType(h.SliceType)
	l0, err := readList(h.NumRefIdxL0ActiveMinus1)
	if err != nil {
		return nil, err
	}
	pw.L0 = l0
	if base == SliceTypeB {
		l1, err := readList(h.NumRefIdxL1ActiveMinus1)
		if err != nil {
			return nil, err
		}
		pw.L1 = l1
	}
	return pw, nil
}

func parseDecRefPicMarking(br *bits.Reader, offset int64, idr bool) (*DecRefPicMarking, error) {
	d := &DecRefPicMarking{}
	if idr {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "no_output_of_prior_pics_flag", err)
		}
		d.NoOutputOfPriorPicsFlag = b == 1
		b, err = br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "long_term_reference_flag", err)
		}
		d.LongTermReferenceFlag = b == 1
		return d, nil
	}

	b, err := br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "adaptive_ref_pic_marking_mode_flag", err)
	}
	d.AdaptiveRefPicMarkingModeFlag = b == 1
	if !d.AdaptiveRefPicMarkingModeFlag {
		return d, nil
	}
	for {
		op, err := br.ReadUE(8)
		if err != nil {
			return nil, diag.NewParserError(offset, "memory_management_control_operation", err)
		}
		if op == 0 {
			break
		}
		var m MmcoOp
		m.Op = op
		switch op {
		case 1, 3:
			if m.Arg1, err = br.ReadUE(32); err != nil {
				return nil, diag.NewParserError(offset, "difference_of_pic_nums_minus1", err)
			}
			if op == 3 {
				if m.Arg2, err = br.ReadUE(32); err != nil {
					return nil, diag.NewParserError(offset, "long_term_frame_idx", err)
				}
			}
		case 2:
			if m.Arg1, err = br.ReadUE(32); err != nil {
				return nil, diag.NewParserError(offset, "long_term_pic_num", err)
			}
		case 4:
			if m.Arg1, err = br.ReadUE(32); err != nil {
				return nil, diag.NewParserError(offset, "max_long_term_frame_idx_plus1", err)
			}
		case 6:
			if m.Arg1, err = br.ReadUE(32); err != nil {
				return nil, diag.NewParserError(offset, "long_term_frame_idx", err)
			}
		}
		d.Ops = append(d.Ops, m)
		if len(d.Ops) > 64 {
			return nil, diag.NewParserError(offset, "memory_management_control_operation", errOutOfRange)
		}
	}
	return d, nil
}
