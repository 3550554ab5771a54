package h264

import (
	"bytes"
	"testing"

	"github.com/blu-disc/escore/bits"
)

// buildSPS encodes an SPS with the given fields using the writer path, then
// hands it back as raw RBSP bytes so ParseSPS can be exercised the same way
// it would be against a real bitstream.
func buildSPS(t *testing.T, s *SpsData) []byte {
	t.Helper()
	return EncodeSPS(s)
}

func baseSPS() *SpsData {
	return &SpsData{
		ProfileIdc:        100,
		LevelIdc:          40,
		HasHighFields:     true,
		ChromaFormatIdc:   Chroma420,
		Log2MaxFrameNumMinus4: 4,
		PicOrderCntType:   0,
		Log2MaxPicOrderCntLsbMinus4: 4,
		MaxNumRefFrames:   4,
		PicWidthInMbsMinus1: 119,
		PicHeightInMapUnitsMinus1: 67,
		FrameMbsOnlyFlag:  true,
		Direct8x8InferenceFlag: true,
		VuiParametersPresentFlag: true,
		VUI: &VuiParameters{
			AspectRatioInfoPresentFlag: true,
			AspectRatioIdc:             1,
			TimingInfoPresentFlag:      true,
			NumUnitsInTick:             1001,
			TimeScale:                  48000,
			FixedFrameRateFlag:         true,
		},
	}
}

func TestSPSDerivedSizes(t *testing.T) {
	s := baseSPS()
	raw := buildSPS(t, s)
	br := bits.NewRBSPReader(bytes.NewReader(raw))
	got, err := ParseSPS(br, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.PicWidthInMbs() != 120 {
		t.Errorf("PicWidthInMbs = %d, want 120", got.PicWidthInMbs())
	}
	if got.FrameHeightInMbs() != 68 {
		t.Errorf("FrameHeightInMbs = %d, want 68", got.FrameHeightInMbs())
	}
	if got.FrameWidth() != 1920 {
		t.Errorf("FrameWidth = %d, want 1920", got.FrameWidth())
	}
	if got.FrameHeight() != 1088 {
		t.Errorf("FrameHeight = %d, want 1088", got.FrameHeight())
	}
	if got.MbWidthC() != 8 || got.MbHeightC() != 8 {
		t.Errorf("MbWidthC/MbHeightC = %d/%d, want 8/8", got.MbWidthC(), got.MbHeightC())
	}
	if got.RawMbBits() != 3072 {
		t.Errorf("RawMbBits = %d, want 3072", got.RawMbBits())
	}
}

func TestValidateSPSRejectsNonBDLevel(t *testing.T) {
	s := baseSPS()
	s.LevelIdc = 50
	sink := &captureSink{}
	err := ValidateSPS(s, sink, nil)
	if err == nil {
		t.Fatal("expected a compliance error for level 5.0")
	}
	if got := err.Error(); !bytes.Contains([]byte(got), []byte("5.0")) {
		t.Errorf("error %q does not mention level 5.0", got)
	}
}

func TestValidateSPSRejectsSARMismatch(t *testing.T) {
	s := baseSPS()
	s.VUI.AspectRatioIdc = 2 // 1920-wide frames only allow idc 1.
	sink := &captureSink{}
	if err := ValidateSPS(s, sink, nil); err == nil {
		t.Fatal("expected a compliance error for SAR mismatch")
	}
}

func TestAllowedSAR(t *testing.T) {
	tests := []struct {
		w, h int
		want []uint8
	}{
		{1920, 1080, []uint8{1}},
		{1280, 720, []uint8{1}},
		{1440, 1080, []uint8{14}},
		{720, 576, []uint8{2, 4}},
		{720, 480, []uint8{3, 5}},
	}
	for _, test := range tests {
		got := AllowedSAR(test.w, test.h)
		if len(got) != len(test.want) {
			t.Fatalf("%dx%d: got %v, want %v", test.w, test.h, got, test.want)
		}
		for i := range got {
			if got[i] != test.want[i] {
				t.Errorf("%dx%d: got %v, want %v", test.w, test.h, got, test.want)
			}
		}
	}
}

func TestValidateSPSRejectsExtendedProfile(t *testing.T) {
	s := baseSPS()
	s.ProfileIdc = 88 // Extended profile, not Main or High.
	sink := &captureSink{}
	if err := ValidateSPS(s, sink, nil); err == nil {
		t.Fatal("expected a compliance error for Extended profile")
	}
}

func TestValidateSPSRejectsProgressiveHighProfile(t *testing.T) {
	s := baseSPS()
	s.ProfileIdc = 100
	s.Constraints.Set4 = true // High profile with constraint_set4_flag=1 -> Progressive High.
	sink := &captureSink{}
	if err := ValidateSPS(s, sink, nil); err == nil {
		t.Fatal("expected a compliance error for Progressive High profile")
	}
}

func TestValidateSPSRejectsNonChroma420(t *testing.T) {
	s := baseSPS()
	s.ChromaFormatIdc = Chroma422
	sink := &captureSink{}
	if err := ValidateSPS(s, sink, nil); err == nil {
		t.Fatal("expected a compliance error for non-4:2:0 chroma")
	}
}

func TestValidateSPSRejectsHighBitDepth(t *testing.T) {
	s := baseSPS()
	s.BitDepthLumaMinus8 = 2
	sink := &captureSink{}
	if err := ValidateSPS(s, sink, nil); err == nil {
		t.Fatal("expected a compliance error for bit_depth_luma_minus8 != 0")
	}

	s2 := baseSPS()
	s2.BitDepthChromaMinus8 = 2
	if err := ValidateSPS(s2, sink, nil); err == nil {
		t.Fatal("expected a compliance error for bit_depth_chroma_minus8 != 0")
	}
}

func TestValidateSPSRejectsQpPrimeYZeroTransformBypass(t *testing.T) {
	s := baseSPS()
	s.QpPrimeYZeroTransformBypassFlag = true
	sink := &captureSink{}
	if err := ValidateSPS(s, sink, nil); err == nil {
		t.Fatal("expected a compliance error for qpprime_y_zero_transform_bypass_flag=1")
	}
}

// captureSink records diagnostics so tests can inspect what was reported
// without a logging.Logger dependency.
type captureSink struct {
	reported []error
}

func (c *captureSink) Report(err error) { c.reported = append(c.reported, err) }
