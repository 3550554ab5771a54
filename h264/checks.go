package h264

import (
	"fmt"
	"math"

	"github.com/blu-disc/escore/diag"
)

// MaxDpbFrames returns min(floor(MaxDpbMbs / (PicWidthInMbs *
// FrameHeightInMbs)), 16), the Blu-ray DPB frame-count cap.
func MaxDpbFrames(limits LevelLimits, sps *SpsData) int {
	denom := sps.PicWidthInMbs() * sps.FrameHeightInMbs()
	if denom == 0 {
		return 0
	}
	n := int(limits.MaxDpbMbs / denom)
	if n > 16 {
		n = 16
	}
	return n
}

// ValidateSPS runs the Blu-ray SPS compliance predicates of the core's
// compliance-checker layer. It has no side effects beyond firing once on
// warnOnce for any advisory-only finding; every genuine violation is
// reported through sink and, for the first fatal one encountered, returned.
func ValidateSPS(sps *SpsData, sink diag.Sink, warnOnce *diag.WarnOnce) error {
	report := func(rule, msg string) error {
		e := diag.NewComplianceError(0, rule, msg)
		if sink != nil {
			sink.Report(e)
		}
		return e
	}

	if sps.SeqParameterSetID != 0 {
		return report("seq_parameter_set_id", "seq_parameter_set_id must be 0")
	}
	if sps.Log2MaxFrameNumMinus4 > 12 {
		return report("log2_max_frame_num_minus4", "log2_max_frame_num_minus4 exceeds 12")
	}
	if sps.PicOrderCntType > 2 {
		return report("pic_order_cnt_type", "pic_order_cnt_type must be 0, 1, or 2")
	}
	if !IsBDLevel(sps.LevelIdc) {
		name := levelName(sps.LevelIdc)
		return report("level_idc", fmt.Sprintf("level %s not in {3.0..4.1}", name))
	}
	limits, ok := LevelLimitsFor(sps.LevelIdc)
	if !ok {
		return report("level_idc", "level_idc is not one of the 17 known values")
	}

	maxDpb := MaxDpbFrames(limits, sps)
	if int(sps.MaxNumRefFrames) > maxDpb {
		return report("max_num_ref_frames", fmt.Sprintf("max_num_ref_frames %d exceeds MaxDpbFrames %d", sps.MaxNumRefFrames, maxDpb))
	}
	if sps.GapsInFrameNumValueAllowedFlag {
		return report("gaps_in_frame_num_value_allowed_flag", "gaps_in_frame_num_value_allowed_flag must be 0")
	}

	sqrtBound := int(math.Sqrt(float64(limits.MaxFS) * 8))
	if sqrtBound < int(sps.PicWidthInMbs()) || sqrtBound < int(sps.FrameHeightInMbs()) {
		return report("MaxFS", "sqrt(MaxFS*8) below picture dimensions")
	}
	if limits.MaxFS < sps.PicWidthInMbs()*sps.FrameHeightInMbs() {
		return report("MaxFS", "MaxFS below pic_width_in_mbs * FrameHeightInMbs")
	}

	profile := ProfileFromIdc(sps.ProfileIdc, sps.Constraints)
	if !sps.FrameMbsOnlyFlag {
		switch profile {
		case ProfileHigh, ProfileProgressiveHigh, ProfileConstrainedHigh, ProfileConstrainedBaseline:
			return report("frame_mbs_only_flag", "profile forbids interlaced coding")
		}
	}

	switch profile {
	case ProfileMain, ProfileHigh:
	default:
		return report("profile_idc", fmt.Sprintf("profile_idc %d is not Main or High (constraint_set4_flag=0)", sps.ProfileIdc))
	}
	if sps.ChromaFormatIdc != Chroma420 {
		return report("chroma_format_idc", fmt.Sprintf("chroma_format_idc %d is not 4:2:0, required by Main/High", sps.ChromaFormatIdc))
	}
	if sps.BitDepthLumaMinus8 != 0 {
		return report("bit_depth_luma_minus8", "bit_depth_luma_minus8 must be 0 (8-bit) for Main/High")
	}
	if sps.BitDepthChromaMinus8 != 0 {
		return report("bit_depth_chroma_minus8", "bit_depth_chroma_minus8 must be 0 (8-bit) for Main/High")
	}
	if sps.QpPrimeYZeroTransformBypassFlag {
		return report("qpprime_y_zero_transform_bypass_flag", "qpprime_y_zero_transform_bypass_flag must be 0 for Main/High")
	}

	if sps.VuiParametersPresentFlag {
		if err := validateVUI(sps, report, warnOnce); err != nil {
			return err
		}
	} else {
		return report("vui_parameters_present_flag", "VUI parameters are required")
	}

	return nil
}

func validateVUI(sps *SpsData, report func(rule, msg string) error, warnOnce *diag.WarnOnce) error {
	v := sps.VUI
	if !v.AspectRatioInfoPresentFlag {
		return report("aspect_ratio_info_present_flag", "aspect ratio info is required")
	}
	if !v.TimingInfoPresentFlag {
		return report("timing_info_present_flag", "timing info is required")
	}
	if !v.FixedFrameRateFlag {
		return report("fixed_frame_rate_flag", "fixed_frame_rate_flag must be 1")
	}
	if v.LowDelayHrdFlag {
		return report("low_delay_hrd_flag", "low_delay_hrd_flag must be 0")
	}

	allowed := AllowedSAR(sps.DisplayWidth(), sps.DisplayHeight())
	ok := false
	for _, a := range allowed {
		if v.AspectRatioIdc == a {
			ok = true
			break
		}
	}
	if !ok {
		return report("aspect_ratio_idc", fmt.Sprintf("aspect_ratio_idc %d not permitted for %dx%d", v.AspectRatioIdc, sps.DisplayWidth(), sps.DisplayHeight()))
	}

	if v.ChromaLocInfoPresentFlag {
		if v.ChromaSampleLocTypeTopField != 0 && v.ChromaSampleLocTypeTopField != 2 {
			return report("chroma_sample_loc_type_top_field", "chroma sample location must be 0 or 2")
		}
		if v.ChromaSampleLocTypeBottomField != 0 && v.ChromaSampleLocTypeBottomField != 2 {
			return report("chroma_sample_loc_type_bottom_field", "chroma sample location must be 0 or 2")
		}
	}
	return nil
}

// ValidatePPS runs the Blu-ray PPS compliance predicates.
func ValidatePPS(pps *PpsData, sps *SpsData, sink diag.Sink) error {
	report := func(rule, msg string) error {
		e := diag.NewComplianceError(0, rule, msg)
		if sink != nil {
			sink.Report(e)
		}
		return e
	}
	if pps.SeqParameterSetID != 0 {
		return report("seq_parameter_set_id", "pic parameter set must reference seq_parameter_set_id 0")
	}
	if pps.NumSliceGroupsMinus1 != 0 {
		return report("num_slice_groups_minus1", "flexible macroblock ordering is not permitted")
	}
	return nil
}

// ValidateSliceType runs invariant 3: a slice's base slice_type must be
// permitted by the active profile's allowed_slice_types mask, and must be
// consistent with the most recent access unit delimiter's primary_pic_type,
// if one preceded this access unit.
func ValidateSliceType(sliceType uint32, profile int, aud *AccessUnitDelimiter, sink diag.Sink) error {
	report := func(rule, msg string) error {
		e := diag.NewComplianceError(0, rule, msg)
		if sink != nil {
			sink.Report(e)
		}
		return e
	}

	base := BaseSliceType(sliceType)
	if allowed := AllowedSliceTypes(profile); allowed != nil && !allowed[base] {
		return report("slice_type", fmt.Sprintf("slice_type %d is not permitted by the active profile", sliceType))
	}
	if aud != nil && !PrimaryPicTypeAllows(aud.PrimaryPicType, base) {
		return report("slice_type", fmt.Sprintf("slice_type %d is inconsistent with primary_pic_type %d", sliceType, aud.PrimaryPicType))
	}
	return nil
}

func levelName(levelIdc uint8) string {
	return fmt.Sprintf("%d.%d", levelIdc/10, levelIdc%10)
}
