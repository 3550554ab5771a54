package h264

import (
	"github.com/blu-disc/escore/bits"
	"github.com/blu-disc/escore/diag"
)

// SpsData holds a parsed sequence parameter set, Rec. ITU-T H.264 section
// 7.3.2.1.1, plus the quantities derived from it that downstream compliance
// checks and the HRD verifier need.
type SpsData struct {
	ProfileIdc         uint8
	Constraints        ConstraintFlags
	LevelIdc           uint8
	SeqParameterSetID  uint32

	// High-profile-only fields; zero value when !HasHighFields, except
	// ChromaFormatIdc, which is then set to Chroma420.
	HasHighFields               bool
	ChromaFormatIdc              uint32
	SeparateColourPlaneFlag      bool
	BitDepthLumaMinus8           uint32
	BitDepthChromaMinus8         uint32
	QpPrimeYZeroTransformBypassFlag bool
	SeqScalingMatrixPresentFlag  bool

	Log2MaxFrameNumMinus4          uint32
	PicOrderCntType                uint32
	Log2MaxPicOrderCntLsbMinus4    uint32 // only if PicOrderCntType == 0
	DeltaPicOrderAlwaysZeroFlag    bool   // only if PicOrderCntType == 1
	OffsetForNonRefPic             int32
	OffsetForTopToBottomField      int32
	NumRefFramesInPicOrderCntCycle uint32
	OffsetForRefFrame              []int32

	MaxNumRefFrames             uint32
	GapsInFrameNumValueAllowedFlag bool
	PicWidthInMbsMinus1         uint32
	PicHeightInMapUnitsMinus1   uint32
	FrameMbsOnlyFlag            bool
	MbAdaptiveFrameFieldFlag    bool
	Direct8x8InferenceFlag      bool

	FrameCroppingFlag bool
	CropLeft, CropRight, CropTop, CropBottom uint32

	VuiParametersPresentFlag bool
	VUI                      *VuiParameters
}

// BitDepthLuma returns BitDepthLumaMinus8+8, the luma sample bit depth.
func (s *SpsData) BitDepthLuma() int { return int(s.BitDepthLumaMinus8) + 8 }

// BitDepthChroma returns BitDepthChromaMinus8+8.
func (s *SpsData) BitDepthChroma() int { return int(s.BitDepthChromaMinus8) + 8 }

// QpBdOffsetLuma returns 6*BitDepthLumaMinus8, section 7-4.
func (s *SpsData) QpBdOffsetLuma() int { return 6 * int(s.BitDepthLumaMinus8) }

// QpBdOffsetChroma returns 6*BitDepthChromaMinus8.
func (s *SpsData) QpBdOffsetChroma() int { return 6 * int(s.BitDepthChromaMinus8) }

// ChromaArrayType returns 0 when separate_colour_plane_flag is set,
// otherwise chroma_format_idc, per section 7.4.2.1.1.
func (s *SpsData) ChromaArrayType() uint32 {
	if s.SeparateColourPlaneFlag {
		return 0
	}
	return s.ChromaFormatIdc
}

// SubWidthC and SubHeightC implement Table 6-1.
func (s *SpsData) SubWidthC() int {
	switch s.ChromaFormatIdc {
	case Chroma420, Chroma422:
		return 2
	default:
		return 1
	}
}

func (s *SpsData) SubHeightC() int {
	switch s.ChromaFormatIdc {
	case Chroma420:
		return 2
	default:
		return 1
	}
}

// MbWidthC and MbHeightC return the per-macroblock chroma array dimensions,
// 0 for monochrome/4:4:4-separate-plane.
func (s *SpsData) MbWidthC() int {
	if s.ChromaArrayType() == ChromaMonochrome {
		return 0
	}
	return 16 / s.SubWidthC()
}

func (s *SpsData) MbHeightC() int {
	if s.ChromaArrayType() == ChromaMonochrome {
		return 0
	}
	return 16 / s.SubHeightC()
}

// RawMbBits returns the minimum number of bits needed to represent one
// macroblock's uncompressed samples, section 7-3.
func (s *SpsData) RawMbBits() int {
	luma := 256 * s.BitDepthLuma()
	chroma := 2 * s.MbWidthC() * s.MbHeightC() * s.BitDepthChroma()
	return luma + chroma
}

// MaxFrameNum returns 2^(log2_max_frame_num_minus4+4).
func (s *SpsData) MaxFrameNum() uint32 {
	return uint32(1) << (s.Log2MaxFrameNumMinus4 + 4)
}

// MaxPicOrderCntLsb returns 2^(log2_max_pic_order_cnt_lsb_minus4+4).
func (s *SpsData) MaxPicOrderCntLsb() uint32 {
	return uint32(1) << (s.Log2MaxPicOrderCntLsbMinus4 + 4)
}

// PicWidthInMbs returns pic_width_in_mbs_minus1+1.
func (s *SpsData) PicWidthInMbs() uint32 { return s.PicWidthInMbsMinus1 + 1 }

// PicHeightInMapUnits returns pic_height_in_map_units_minus1+1.
func (s *SpsData) PicHeightInMapUnits() uint32 { return s.PicHeightInMapUnitsMinus1 + 1 }

// FrameHeightInMbs returns (2-frame_mbs_only_flag)*PicHeightInMapUnits,
// section 7-18.
func (s *SpsData) FrameHeightInMbs() uint32 {
	f := uint32(1)
	if !s.FrameMbsOnlyFlag {
		f = 2
	}
	return f * s.PicHeightInMapUnits()
}

// CropUnitX and CropUnitY implement the frame-cropping rectangle units of
// section 7.4.2.1.1.
func (s *SpsData) CropUnitX() int {
	if s.ChromaArrayType() == ChromaMonochrome {
		return 1
	}
	return s.SubWidthC()
}

func (s *SpsData) CropUnitY() int {
	f := 1
	if !s.FrameMbsOnlyFlag {
		f = 2
	}
	if s.ChromaArrayType() == ChromaMonochrome {
		return f
	}
	return s.SubHeightC() * f
}

// FrameWidth returns the coded frame width in luma samples, before cropping.
func (s *SpsData) FrameWidth() int { return int(s.PicWidthInMbs()) * 16 }

// FrameHeight returns the coded frame height in luma samples, before
// cropping.
func (s *SpsData) FrameHeight() int { return int(s.FrameHeightInMbs()) * 16 }

// DisplayWidth and DisplayHeight apply the frame-cropping offsets.
func (s *SpsData) DisplayWidth() int {
	if !s.FrameCroppingFlag {
		return s.FrameWidth()
	}
	return s.FrameWidth() - s.CropUnitX()*int(s.CropLeft+s.CropRight)
}

func (s *SpsData) DisplayHeight() int {
	if !s.FrameCroppingFlag {
		return s.FrameHeight()
	}
	return s.FrameHeight() - s.CropUnitY()*int(s.CropTop+s.CropBottom)
}

const maxOffsetForRefFrame = 255

// ParseSPS parses a seq_parameter_set_rbsp, Rec. ITU-T H.264 section
// 7.3.2.1.1.
func ParseSPS(br *bits.Reader, offset int64) (*SpsData, error) {
	s := &SpsData{}

	v, err := br.ReadBits(8)
	if err != nil {
		return nil, diag.NewParserError(offset, "profile_idc", err)
	}
	s.ProfileIdc = uint8(v)

	for _, f := range []*bool{&s.Constraints.Set0, &s.Constraints.Set1, &s.Constraints.Set2,
		&s.Constraints.Set3, &s.Constraints.Set4, &s.Constraints.Set5} {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "constraint_set_flag", err)
		}
		*f = b == 1
	}
	r, err := br.ReadBits(2)
	if err != nil {
		return nil, diag.NewParserError(offset, "reserved_zero_2bits", err)
	}
	s.Constraints.Reserved = uint8(r)

	v, err = br.ReadBits(8)
	if err != nil {
		return nil, diag.NewParserError(offset, "level_idc", err)
	}
	s.LevelIdc = uint8(v)

	id, err := br.ReadUE(8)
	if err != nil {
		return nil, diag.NewParserError(offset, "seq_parameter_set_id", err)
	}
	s.SeqParameterSetID = id
	if s.SeqParameterSetID != 0 {
		return nil, diag.NewParserError(offset, "seq_parameter_set_id", errNonZeroSPSID)
	}

	s.HasHighFields = hasHighProfileFields(s.ProfileIdc)
	s.ChromaFormatIdc = Chroma420
	if s.HasHighFields {
		if s.ChromaFormatIdc, err = br.ReadUE(3); err != nil {
			return nil, diag.NewParserError(offset, "chroma_format_idc", err)
		}
		if s.ChromaFormatIdc == Chroma444 {
			b, err := br.ReadBits(1)
			if err != nil {
				return nil, diag.NewParserError(offset, "separate_colour_plane_flag", err)
			}
			s.SeparateColourPlaneFlag = b == 1
		}
		if s.BitDepthLumaMinus8, err = br.ReadUE(6); err != nil {
			return nil, diag.NewParserError(offset, "bit_depth_luma_minus8", err)
		}
		if s.BitDepthChromaMinus8, err = br.ReadUE(6); err != nil {
			return nil, diag.NewParserError(offset, "bit_depth_chroma_minus8", err)
		}
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "qpprime_y_zero_transform_bypass_flag", err)
		}
		s.QpPrimeYZeroTransformBypassFlag = b == 1

		b, err = br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "seq_scaling_matrix_present_flag", err)
		}
		s.SeqScalingMatrixPresentFlag = b == 1
		if s.SeqScalingMatrixPresentFlag {
			n := 8
			if s.ChromaFormatIdc == Chroma444 {
				n = 12
			}
			if err := skipScalingLists(br, offset, n); err != nil {
				return nil, err
			}
		}
	}

	if s.Log2MaxFrameNumMinus4, err = br.ReadUE(12); err != nil {
		return nil, diag.NewParserError(offset, "log2_max_frame_num_minus4", err)
	}
	if s.PicOrderCntType, err = br.ReadUE(2); err != nil {
		return nil, diag.NewParserError(offset, "pic_order_cnt_type", err)
	}
	switch s.PicOrderCntType {
	case 0:
		if s.Log2MaxPicOrderCntLsbMinus4, err = br.ReadUE(12); err != nil {
			return nil, diag.NewParserError(offset, "log2_max_pic_order_cnt_lsb_minus4", err)
		}
	case 1:
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "delta_pic_order_always_zero_flag", err)
		}
		s.DeltaPicOrderAlwaysZeroFlag = b == 1
		ofn, err := br.ReadSE(32)
		if err != nil {
			return nil, diag.NewParserError(offset, "offset_for_non_ref_pic", err)
		}
		s.OffsetForNonRefPic = ofn
		ottb, err := br.ReadSE(32)
		if err != nil {
			return nil, diag.NewParserError(offset, "offset_for_top_to_bottom_field", err)
		}
		s.OffsetForTopToBottomField = ottb
		n, err := br.ReadUE(8)
		if err != nil {
			return nil, diag.NewParserError(offset, "num_ref_frames_in_pic_order_cnt_cycle", err)
		}
		s.NumRefFramesInPicOrderCntCycle = n
		for i := uint32(0); i < n && i < maxOffsetForRefFrame; i++ {
			o, err := br.ReadSE(32)
			if err != nil {
				return nil, diag.NewParserError(offset, "offset_for_ref_frame", err)
			}
			s.OffsetForRefFrame = append(s.OffsetForRefFrame, o)
		}
	}

	if s.MaxNumRefFrames, err = br.ReadUE(16); err != nil {
		return nil, diag.NewParserError(offset, "max_num_ref_frames", err)
	}
	b, err := br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "gaps_in_frame_num_value_allowed_flag", err)
	}
	s.GapsInFrameNumValueAllowedFlag = b == 1

	if s.PicWidthInMbsMinus1, err = br.ReadUE(16); err != nil {
		return nil, diag.NewParserError(offset, "pic_width_in_mbs_minus1", err)
	}
	if s.PicHeightInMapUnitsMinus1, err = br.ReadUE(16); err != nil {
		return nil, diag.NewParserError(offset, "pic_height_in_map_units_minus1", err)
	}
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "frame_mbs_only_flag", err)
	}
	s.FrameMbsOnlyFlag = b == 1
	if !s.FrameMbsOnlyFlag {
		b, err = br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "mb_adaptive_frame_field_flag", err)
		}
		s.MbAdaptiveFrameFieldFlag = b == 1
	}
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "direct_8x8_inference_flag", err)
	}
	s.Direct8x8InferenceFlag = b == 1

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "frame_cropping_flag", err)
	}
	s.FrameCroppingFlag = b == 1
	if s.FrameCroppingFlag {
		for _, f := range []*uint32{&s.CropLeft, &s.CropRight, &s.CropTop, &s.CropBottom} {
			if *f, err = br.ReadUE(16); err != nil {
				return nil, diag.NewParserError(offset, "frame_crop_offset", err)
			}
		}
	}

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "vui_parameters_present_flag", err)
	}
	s.VuiParametersPresentFlag = b == 1
	if s.VuiParametersPresentFlag {
		if s.VUI, err = ParseVuiParameters(br, offset); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// skipScalingLists consumes n scaling_list() entries, section 7.3.2.1.1.1.
// Their content does not affect Blu-ray compliance or timing, so entries are
// discarded rather than decoded.
func skipScalingLists(br *bits.Reader, offset int64, n int) error {
	for i := 0; i < n; i++ {
		b, err := br.ReadBits(1)
		if err != nil {
			return diag.NewParserError(offset, "seq_scaling_list_present_flag", err)
		}
		if b != 1 {
			continue
		}
		size := 16
		if i >= 6 {
			size = 64
		}
		lastScale, nextScale := int32(8), int32(8)
		for j := 0; j < size; j++ {
			if nextScale != 0 {
				delta, err := br.ReadSE(16)
				if err != nil {
					return diag.NewParserError(offset, "delta_scale", err)
				}
				nextScale = (lastScale + delta + 256) % 256
			}
			if nextScale != 0 {
				lastScale = nextScale
			}
		}
	}
	return nil
}
