package h264

// LevelLimits holds the per-level decoder capability limits of Rec. ITU-T
// H.264 Annex A Table A-1.
type LevelLimits struct {
	LevelIdc     uint8
	MaxMBPS      uint32 // macroblocks/s
	MaxFS        uint32 // macroblocks
	MaxDpbMbs    uint32
	MaxBR        uint32 // kbit/s (x1000 for some profiles via cpbBrVclFactor)
	MaxCPB       uint32 // kbit
	MaxVmvR      int32  // quarter luma frame heights
	MinCR        uint8
	MaxMvsPer2Mb uint8 // 0 means no limit
}

// levelTable is the full Annex A Table A-1, levels 1.0 through 5.2. Only
// levels 3.0 through 4.1 are legal on a Blu-ray core stream (bdLevelSet),
// but the table is kept complete so validate_sps can name the actual level
// a non-conforming stream would need.
var levelTable = map[uint8]LevelLimits{
	10: {10, 1485, 99, 396, 64, 175, 64, 2, 0},
	9:  {9, 1485, 99, 396, 128, 350, 64, 2, 0}, // level 1b, encoded as level_idc 9 / level_idc 11 with constraint_set3.
	11: {11, 3000, 396, 900, 192, 500, 128, 2, 0},
	12: {12, 6000, 396, 2376, 384, 1000, 128, 2, 0},
	13: {13, 11880, 396, 2376, 768, 2000, 128, 2, 0},
	20: {20, 11880, 396, 2376, 2000, 2000, 128, 2, 0},
	21: {21, 19800, 792, 4752, 4000, 4000, 256, 2, 0},
	22: {22, 20250, 1620, 8100, 4000, 4000, 256, 2, 0},
	30: {30, 40500, 1620, 8100, 10000, 10000, 256, 2, 32},
	31: {31, 108000, 3600, 18000, 14000, 14000, 512, 4, 16},
	32: {32, 216000, 5120, 20480, 20000, 20000, 512, 4, 16},
	40: {40, 245760, 8192, 32768, 20000, 25000, 512, 4, 16},
	41: {41, 245760, 8192, 32768, 50000, 62500, 512, 2, 16},
	42: {42, 522240, 8704, 34816, 50000, 62500, 512, 2, 16},
	50: {50, 589824, 22080, 110400, 135000, 135000, 512, 2, 16},
	51: {51, 983040, 36864, 184320, 240000, 240000, 512, 2, 16},
	52: {52, 2073600, 36864, 184320, 240000, 240000, 512, 2, 16},
}

// bdLevelSet lists the level_idc values a Blu-ray core H.264 stream may
// declare.
var bdLevelSet = map[uint8]bool{
	30: true, 31: true, 32: true,
	40: true, 41: true,
}

// LevelLimitsFor returns the Annex A limits for levelIdc, and false if
// levelIdc is not one of the 17 known values.
func LevelLimitsFor(levelIdc uint8) (LevelLimits, bool) {
	l, ok := levelTable[levelIdc]
	return l, ok
}

// IsBDLevel reports whether levelIdc is one of the levels a Blu-ray core
// stream is permitted to declare (3.0 through 4.1).
func IsBDLevel(levelIdc uint8) bool { return bdLevelSet[levelIdc] }

// ProfileFactors holds Rec. ITU-T H.264 Annex A Table A-2's CPB bit-rate
// scale factors.
type ProfileFactors struct {
	CpbBrVclFactor uint32
	CpbBrNalFactor uint32
}

// profileFactorTable is Table A-2, keyed by ProfileFromIdc's tag.
var profileFactorTable = map[int]ProfileFactors{
	ProfileBaseline:            {1000, 1200},
	ProfileMain:                {1000, 1200},
	ProfileExtended:            {1000, 1200},
	ProfileHigh:                {1250, 1500},
	ProfileHigh10:              {3000, 3600},
	ProfileHigh422:             {4000, 4800},
	ProfileHigh444Predictive:   {4000, 4800},
	ProfileCAVLC444Intra:       {4000, 4800},
	ProfileProgressiveHigh:     {1250, 1500},
	ProfileConstrainedHigh:     {1250, 1500},
	ProfileConstrainedBaseline: {1000, 1200},
}

// ProfileFactorsFor returns Table A-2's factors for the given profile tag.
func ProfileFactorsFor(profile int) (ProfileFactors, bool) {
	f, ok := profileFactorTable[profile]
	return f, ok
}

// sarEntry is one row of the Blu-ray-profile SAR table, section 6.3.
type sarEntry struct {
	width, height int // 0 means "any"/wildcard for that dimension.
	allowed       []uint8
}

// sarTable implements the §6.3 (width,height) -> allowed aspect_ratio_idc
// lookup. Entries are matched in order; the first match wins.
var sarTable = []sarEntry{
	{1920, 0, []uint8{1}},
	{1280, 0, []uint8{1}},
	{1440, 0, []uint8{14}},
	{720, 576, []uint8{2, 4}},
	{720, 480, []uint8{3, 5}},
}

const sarDefaultWidth, sarDefaultHeight = 0, 0

var sarDefault = []uint8{2, 4}

// AllowedSAR returns the aspect_ratio_idc values permitted for a frame of
// the given width and height, per section 6.3.
func AllowedSAR(width, height int) []uint8 {
	for _, e := range sarTable {
		if e.width != 0 && e.width != width {
			continue
		}
		if e.height != 0 && e.height != height {
			continue
		}
		return e.allowed
	}
	return sarDefault
}

// allowedSliceTypesByProfile lists the base slice_type values (BaseSliceType)
// permitted by each profile, Rec. ITU-T H.264 Annex A Table 7-6 read
// alongside Annex A's per-profile constraints. SP/SI slices belong to the
// Extended profile only; Main and High are restricted to I/P/B.
var allowedSliceTypesByProfile = map[int]map[uint32]bool{
	ProfileMain: {SliceTypeI: true, SliceTypeP: true, SliceTypeB: true},
	ProfileHigh: {SliceTypeI: true, SliceTypeP: true, SliceTypeB: true},
}

// AllowedSliceTypes returns the set of base slice_type values profile
// permits, or nil for a profile with no declared mask.
func AllowedSliceTypes(profile int) map[uint32]bool {
	return allowedSliceTypesByProfile[profile]
}

// primaryPicTypeSliceTypes is Table 7-5: the base slice_type values an
// access_unit_delimiter's primary_pic_type permits for every slice of the
// following access unit.
var primaryPicTypeSliceTypes = [8][]uint32{
	0: {SliceTypeI},
	1: {SliceTypeI, SliceTypeP},
	2: {SliceTypeI, SliceTypeP, SliceTypeB},
	3: {SliceTypeSI},
	4: {SliceTypeSI, SliceTypeSP},
	5: {SliceTypeI, SliceTypeSI},
	6: {SliceTypeI, SliceTypeSI, SliceTypeP, SliceTypeSP},
	7: {SliceTypeI, SliceTypeSI, SliceTypeP, SliceTypeSP, SliceTypeB},
}

// PrimaryPicTypeAllows reports whether primaryPicType (Table 7-5) permits a
// slice of the given base slice_type.
func PrimaryPicTypeAllows(primaryPicType uint8, baseSliceType uint32) bool {
	if int(primaryPicType) >= len(primaryPicTypeSliceTypes) {
		return false
	}
	for _, t := range primaryPicTypeSliceTypes[primaryPicType] {
		if t == baseSliceType {
			return true
		}
	}
	return false
}

// ColourPrimariesDefault implements the "576 line -> BT.470BG, 480 line ->
// SMPTE 170M, otherwise BT.709" rule from the patching section.
func ColourPrimariesDefault(frameHeight int) (primaries, transfer, matrix uint8) {
	switch frameHeight {
	case 576:
		return 5, 5, 5 // BT.470BG (value 5 for primaries/transfer/matrix alike in Rec. ITU-T H.264 Table E-3/E-4/E-5).
	case 480:
		return 6, 6, 6 // SMPTE 170M.
	default:
		return 1, 1, 1 // BT.709.
	}
}
