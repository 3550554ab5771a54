package config

// FPS is a recognized fps_change override, spec section 6.5.
type FPS float64

const (
	FPS23_976 FPS = 23.976
	FPS24     FPS = 24
	FPS25     FPS = 25
	FPS29_970 FPS = 29.970
	FPS50     FPS = 50
	FPS59_940 FPS = 59.940
)

// Config holds every recognized option of spec section 6.5. A zero Config
// runs the core in its strictest, most conservative mode: no fixes
// disabled, no timestamps forced, HRD verification on.
type Config struct {
	// ForceScriptBuilding regenerates the output script even if an
	// up-to-date one already exists.
	ForceScriptBuilding bool

	// DisableFixes skips all in-place SPS/SEI patches that PatchSPS and
	// the SEI rebuilder would otherwise apply.
	DisableFixes bool

	// DisableHRDVerifier skips CPB/DPB buffer-model simulation entirely.
	DisableHRDVerifier bool

	// DiscardSEI drops existing SEI NALs instead of validating them.
	DiscardSEI bool

	// ForceRebuildSEI regenerates buffering-period/picture-timing SEI
	// messages from the HRD simulation rather than trusting the stream's.
	ForceRebuildSEI bool

	// ExtractCore, for codecs with extension substreams (e.g. MVC, scalable
	// profiles), emits only the base/core substream.
	ExtractCore bool

	// FPSChange overrides the SPS VUI timing_info to the given frame rate
	// when nonzero.
	FPSChange FPS

	// ARChange overrides the SPS VUI aspect_ratio_idc when nonzero.
	ARChange uint8

	// LevelChange overrides level_idc when nonzero; must be >= the
	// measured level or a warning is emitted (spec section 6.5).
	LevelChange uint8

	// OrderIGSSegmentsByValue and OrderPGSSegmentsByValue control the PDS/ODS
	// output ordering within a display set's script commands.
	OrderIGSSegmentsByValue bool
	OrderPGSSegmentsByValue bool

	// HDMV groups the HDMV-specific options (hdmv.* keys, spec section 6.5).
	HDMV HDMVConfig
}

// HDMVConfig is the hdmv.* option group, spec section 6.5.
type HDMVConfig struct {
	// InitialTimestamp is the base PTS offset added to every reconstructed
	// timestamp.
	InitialTimestamp uint32

	// ForceRetiming ignores any MNU-supplied PTS/DTS and recomputes every
	// segment's timing from the buffer model (spec section 4.4.6), even
	// when the input is MNU-framed.
	ForceRetiming bool

	// ASSInput marks the HDMV input as a subtitle subtype; this affects
	// only which codec dispatch path selects the hdmv package, not
	// parsing itself.
	ASSInput bool
}
