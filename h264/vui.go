package h264

import (
	"github.com/blu-disc/escore/bits"
	"github.com/blu-disc/escore/diag"
)

// HrdParameters describes hypothetical reference decoder parameters, Rec.
// ITU-T H.264 section E.1.2. Invariant: BitRateValueMinus1 is strictly
// increasing in SchedSelIdx and CPBSizeValueMinus1 is non-increasing.
type HrdParameters struct {
	CpbCntMinus1     uint32 // <= 31.
	BitRateScale     uint8
	CPBSizeScale     uint8
	BitRateValueMinus1 []uint32
	CPBSizeValueMinus1 []uint32
	CbrFlag            []bool

	// Computed per SchedSelIdx: BitRate[i] = (BitRateValueMinus1[i]+1) <<
	// (6+BitRateScale); CpbSize[i] = (CPBSizeValueMinus1[i]+1) << (4+CPBSizeScale).
	BitRate []uint64
	CpbSize []uint64

	InitialCpbRemovalDelayLengthMinus1 uint8
	CpbRemovalDelayLengthMinus1        uint8
	DpbOutputDelayLengthMinus1         uint8
	TimeOffsetLength                   uint8
}

// ParseHrdParameters parses hrd_parameters() per section E.1.2.
func ParseHrdParameters(br *bits.Reader, offset int64) (*HrdParameters, error) {
	h := &HrdParameters{}
	v, err := br.ReadUE(5)
	if err != nil {
		return nil, diag.NewParserError(offset, "cpb_cnt_minus1", err)
	}
	if v > 31 {
		return nil, diag.NewParserError(offset, "cpb_cnt_minus1", errOutOfRange)
	}
	h.CpbCntMinus1 = v

	b, err := br.ReadBits(4)
	if err != nil {
		return nil, diag.NewParserError(offset, "bit_rate_scale", err)
	}
	h.BitRateScale = uint8(b)

	b, err = br.ReadBits(4)
	if err != nil {
		return nil, diag.NewParserError(offset, "cpb_size_scale", err)
	}
	h.CPBSizeScale = uint8(b)

	for i := uint32(0); i <= h.CpbCntMinus1; i++ {
		brv, err := br.ReadUE(32)
		if err != nil {
			return nil, diag.NewParserError(offset, "bit_rate_value_minus1", err)
		}
		if i > 0 && brv <= h.BitRateValueMinus1[i-1] {
			return nil, diag.NewParserError(offset, "bit_rate_value_minus1", errNotStrictlyIncreasing)
		}
		h.BitRateValueMinus1 = append(h.BitRateValueMinus1, brv)

		csv, err := br.ReadUE(32)
		if err != nil {
			return nil, diag.NewParserError(offset, "cpb_size_value_minus1", err)
		}
		if i > 0 && csv > h.CPBSizeValueMinus1[i-1] {
			return nil, diag.NewParserError(offset, "cpb_size_value_minus1", errNotNonIncreasing)
		}
		h.CPBSizeValueMinus1 = append(h.CPBSizeValueMinus1, csv)

		cbr, err := br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "cbr_flag", err)
		}
		h.CbrFlag = append(h.CbrFlag, cbr == 1)

		h.BitRate = append(h.BitRate, (uint64(brv)+1)<<(6+h.BitRateScale))
		h.CpbSize = append(h.CpbSize, (uint64(csv)+1)<<(4+h.CPBSizeScale))
	}

	fields := []*uint8{
		&h.InitialCpbRemovalDelayLengthMinus1,
		&h.CpbRemovalDelayLengthMinus1,
		&h.DpbOutputDelayLengthMinus1,
		&h.TimeOffsetLength,
	}
	names := []string{
		"initial_cpb_removal_delay_length_minus1",
		"cpb_removal_delay_length_minus1",
		"dpb_output_delay_length_minus1",
		"time_offset_length",
	}
	for i, f := range fields {
		v, err := br.ReadBits(5)
		if err != nil {
			return nil, diag.NewParserError(offset, names[i], err)
		}
		*f = uint8(v)
	}
	return h, nil
}

// VuiParameters describes video usability information, Rec. ITU-T H.264
// section E.1.1.
type VuiParameters struct {
	AspectRatioInfoPresentFlag bool
	AspectRatioIdc             uint8
	SARWidth, SARHeight        uint16

	OverscanInfoPresentFlag bool
	OverscanAppropriateFlag bool

	VideoSignalTypePresentFlag  bool
	VideoFormat                 uint8
	VideoFullRangeFlag          bool
	ColourDescriptionPresentFlag bool
	ColourPrimaries             uint8
	TransferCharacteristics     uint8
	MatrixCoefficients          uint8

	ChromaLocInfoPresentFlag        bool
	ChromaSampleLocTypeTopField     uint32
	ChromaSampleLocTypeBottomField  uint32

	TimingInfoPresentFlag bool
	NumUnitsInTick        uint32
	TimeScale             uint32
	FixedFrameRateFlag    bool

	NALHrdParametersPresentFlag bool
	NALHrdParameters            *HrdParameters
	VCLHrdParametersPresentFlag bool
	VCLHrdParameters            *HrdParameters
	LowDelayHrdFlag             bool

	PicStructPresentFlag bool

	BitstreamRestrictionFlag           bool
	MotionVectorsOverPicBoundariesFlag bool
	MaxBytesPerPicDenom                uint32
	MaxBitsPerMbDenom                  uint32
	Log2MaxMvLengthHorizontal          uint32
	Log2MaxMvLengthVertical            uint32
	MaxNumReorderFrames                uint32
	MaxDecFrameBuffering                uint32
}

const extendedSAR = 255

// FrameRate returns time_scale/(2*num_units_in_tick), or 0 if timing info
// is absent or num_units_in_tick is 0.
func (v *VuiParameters) FrameRate() float64 {
	if !v.TimingInfoPresentFlag || v.NumUnitsInTick == 0 {
		return 0
	}
	return float64(v.TimeScale) / (2 * float64(v.NumUnitsInTick))
}

// MaxFPS returns ceil(time_scale/(2*num_units_in_tick)).
func (v *VuiParameters) MaxFPS() uint32 {
	if !v.TimingInfoPresentFlag || v.NumUnitsInTick == 0 {
		return 0
	}
	num := uint64(v.TimeScale)
	den := uint64(2) * uint64(v.NumUnitsInTick)
	return uint32((num + den - 1) / den)
}

// ParseVuiParameters parses vui_parameters() per section E.1.1.
func ParseVuiParameters(br *bits.Reader, offset int64) (*VuiParameters, error) {
	p := &VuiParameters{}

	bit := func(name string) (bool, error) {
		v, err := br.ReadBits(1)
		if err != nil {
			return false, diag.NewParserError(offset, name, err)
		}
		return v == 1, nil
	}
	var err error

	if p.AspectRatioInfoPresentFlag, err = bit("aspect_ratio_info_present_flag"); err != nil {
		return nil, err
	}
	if p.AspectRatioInfoPresentFlag {
		v, err := br.ReadBits(8)
		if err != nil {
			return nil, diag.NewParserError(offset, "aspect_ratio_idc", err)
		}
		p.AspectRatioIdc = uint8(v)
		if int(p.AspectRatioIdc) == extendedSAR {
			w, err := br.ReadBits(16)
			if err != nil {
				return nil, diag.NewParserError(offset, "sar_width", err)
			}
			h, err := br.ReadBits(16)
			if err != nil {
				return nil, diag.NewParserError(offset, "sar_height", err)
			}
			p.SARWidth, p.SARHeight = uint16(w), uint16(h)
		}
	}

	if p.OverscanInfoPresentFlag, err = bit("overscan_info_present_flag"); err != nil {
		return nil, err
	}
	if p.OverscanInfoPresentFlag {
		if p.OverscanAppropriateFlag, err = bit("overscan_appropriate_flag"); err != nil {
			return nil, err
		}
	}

	if p.VideoSignalTypePresentFlag, err = bit("video_signal_type_present_flag"); err != nil {
		return nil, err
	}
	if p.VideoSignalTypePresentFlag {
		v, err := br.ReadBits(3)
		if err != nil {
			return nil, diag.NewParserError(offset, "video_format", err)
		}
		p.VideoFormat = uint8(v)
		if p.VideoFullRangeFlag, err = bit("video_full_range_flag"); err != nil {
			return nil, err
		}
		if p.ColourDescriptionPresentFlag, err = bit("colour_description_present_flag"); err != nil {
			return nil, err
		}
		if p.ColourDescriptionPresentFlag {
			for _, f := range []*uint8{&p.ColourPrimaries, &p.TransferCharacteristics, &p.MatrixCoefficients} {
				v, err := br.ReadBits(8)
				if err != nil {
					return nil, diag.NewParserError(offset, "colour_description", err)
				}
				*f = uint8(v)
			}
		}
	}

	if p.ChromaLocInfoPresentFlag, err = bit("chroma_loc_info_present_flag"); err != nil {
		return nil, err
	}
	if p.ChromaLocInfoPresentFlag {
		if p.ChromaSampleLocTypeTopField, err = br.ReadUE(32); err != nil {
			return nil, diag.NewParserError(offset, "chroma_sample_loc_type_top_field", err)
		}
		if p.ChromaSampleLocTypeBottomField, err = br.ReadUE(32); err != nil {
			return nil, diag.NewParserError(offset, "chroma_sample_loc_type_bottom_field", err)
		}
	}

	if p.TimingInfoPresentFlag, err = bit("timing_info_present_flag"); err != nil {
		return nil, err
	}
	if p.TimingInfoPresentFlag {
		v, err := br.ReadBits(32)
		if err != nil {
			return nil, diag.NewParserError(offset, "num_units_in_tick", err)
		}
		p.NumUnitsInTick = uint32(v)
		v, err = br.ReadBits(32)
		if err != nil {
			return nil, diag.NewParserError(offset, "time_scale", err)
		}
		p.TimeScale = uint32(v)
		if p.FixedFrameRateFlag, err = bit("fixed_frame_rate_flag"); err != nil {
			return nil, err
		}
	}

	if p.NALHrdParametersPresentFlag, err = bit("nal_hrd_parameters_present_flag"); err != nil {
		return nil, err
	}
	if p.NALHrdParametersPresentFlag {
		if p.NALHrdParameters, err = ParseHrdParameters(br, offset); err != nil {
			return nil, err
		}
	}
	if p.VCLHrdParametersPresentFlag, err = bit("vcl_hrd_parameters_present_flag"); err != nil {
		return nil, err
	}
	if p.VCLHrdParametersPresentFlag {
		if p.VCLHrdParameters, err = ParseHrdParameters(br, offset); err != nil {
			return nil, err
		}
	}
	if p.NALHrdParametersPresentFlag || p.VCLHrdParametersPresentFlag {
		if p.LowDelayHrdFlag, err = bit("low_delay_hrd_flag"); err != nil {
			return nil, err
		}
	}

	if p.PicStructPresentFlag, err = bit("pic_struct_present_flag"); err != nil {
		return nil, err
	}
	if p.BitstreamRestrictionFlag, err = bit("bitstream_restriction_flag"); err != nil {
		return nil, err
	}
	if p.BitstreamRestrictionFlag {
		if p.MotionVectorsOverPicBoundariesFlag, err = bit("motion_vectors_over_pic_boundaries_flag"); err != nil {
			return nil, err
		}
		for _, f := range []*uint32{
			&p.MaxBytesPerPicDenom, &p.MaxBitsPerMbDenom,
			&p.Log2MaxMvLengthHorizontal, &p.Log2MaxMvLengthVertical,
			&p.MaxNumReorderFrames, &p.MaxDecFrameBuffering,
		} {
			v, err := br.ReadUE(32)
			if err != nil {
				return nil, diag.NewParserError(offset, "bitstream_restriction", err)
			}
			*f = v
		}
	}

	return p, nil
}
