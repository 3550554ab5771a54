package h264

// Published H.264 profile codes (profile_idc), Rec. ITU-T H.264 Annex A.
const (
	ProfileUnknown int = iota
	ProfileBaseline
	ProfileMain
	ProfileExtended
	ProfileHigh
	ProfileHigh10
	ProfileHigh422
	ProfileHigh444Predictive
	ProfileCAVLC444Intra
	ProfileScalableBaseline
	ProfileScalableHigh
	ProfileMultiviewHigh
	ProfileStereoHigh
	ProfileProgressiveHigh
	ProfileConstrainedHigh
	ProfileConstrainedBaseline
)

// ConstraintFlags holds the six constraint_set flags plus two reserved
// bits defined alongside profile_idc in the SPS.
type ConstraintFlags struct {
	Set0, Set1, Set2, Set3, Set4, Set5 bool
	Reserved                           uint8 // 2 reserved bits, always 0.
}

// ProfileFromIdc maps the raw profile_idc byte to a ProfileIdc tag,
// consulting ConstraintFlags to distinguish the High-profile variants
// that share a numeric code (Rec. ITU-T H.264 Annex A Table A-1 notes).
func ProfileFromIdc(profileIDC uint8, c ConstraintFlags) int {
	switch profileIDC {
	case 66:
		if c.Set1 {
			return ProfileConstrainedBaseline
		}
		return ProfileBaseline
	case 77:
		return ProfileMain
	case 88:
		return ProfileExtended
	case 100:
		switch {
		case c.Set4 && c.Set1:
			return ProfileConstrainedHigh
		case c.Set4:
			return ProfileProgressiveHigh
		default:
			return ProfileHigh
		}
	case 110:
		return ProfileHigh10
	case 122:
		return ProfileHigh422
	case 244:
		return ProfileHigh444Predictive
	case 44:
		return ProfileCAVLC444Intra
	case 83:
		return ProfileScalableBaseline
	case 86:
		return ProfileScalableHigh
	case 118:
		return ProfileMultiviewHigh
	case 128:
		return ProfileStereoHigh
	default:
		return ProfileUnknown
	}
}

// hasHighProfileFields reports whether profileIDC is one of the codes that
// carries the extra High-profile SPS fields (chroma_format_idc onward
// through the scaling-list block), per Rec. ITU-T H.264 section 7.3.2.1.1.
func hasHighProfileFields(profileIDC uint8) bool {
	switch profileIDC {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
		return true
	default:
		return false
	}
}

// Chroma sampling formats, Rec. ITU-T H.264 section 6.2 Table 6-1.
const (
	ChromaMonochrome = iota
	Chroma420
	Chroma422
	Chroma444
)
