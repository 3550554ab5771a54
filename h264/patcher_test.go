package h264

import (
	"bytes"
	"testing"

	"github.com/blu-disc/escore/bits"
)

func TestEncodeSPSRoundTrip(t *testing.T) {
	s := baseSPS()
	raw := EncodeSPS(s)

	br := bits.NewRBSPReader(bytes.NewReader(raw))
	got, err := ParseSPS(br, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ProfileIdc != s.ProfileIdc || got.LevelIdc != s.LevelIdc {
		t.Errorf("profile/level = %d/%d, want %d/%d", got.ProfileIdc, got.LevelIdc, s.ProfileIdc, s.LevelIdc)
	}
	if got.PicWidthInMbsMinus1 != s.PicWidthInMbsMinus1 {
		t.Errorf("PicWidthInMbsMinus1 = %d, want %d", got.PicWidthInMbsMinus1, s.PicWidthInMbsMinus1)
	}
	if got.VUI.TimeScale != s.VUI.TimeScale || got.VUI.NumUnitsInTick != s.VUI.NumUnitsInTick {
		t.Errorf("VUI timing = %d/%d, want %d/%d", got.VUI.TimeScale, got.VUI.NumUnitsInTick, s.VUI.TimeScale, s.VUI.NumUnitsInTick)
	}
}

func TestPatchSPSForcesColourPrimariesByResolution(t *testing.T) {
	s := baseSPS() // 1920x1088 -> BT.709 defaults.
	PatchSPS(s, RebuildOptions{})
	if !s.VUI.VideoSignalTypePresentFlag || !s.VUI.ColourDescriptionPresentFlag {
		t.Fatal("expected video_signal_type and colour_description to be forced present")
	}
	if s.VUI.ColourPrimaries != 1 {
		t.Errorf("ColourPrimaries = %d, want 1 (BT.709)", s.VUI.ColourPrimaries)
	}
}

func TestPatchSPSNormalizesHRDFieldWidth(t *testing.T) {
	s := baseSPS()
	s.VUI.NALHrdParametersPresentFlag = true
	s.VUI.NALHrdParameters = &HrdParameters{
		BitRateValueMinus1: []uint32{0},
		CPBSizeValueMinus1: []uint32{0},
		CbrFlag:            []bool{false},
		BitRate:            []uint64{1},
		CpbSize:            []uint64{1},
		InitialCpbRemovalDelayLengthMinus1: 23,
	}
	PatchSPS(s, RebuildOptions{})
	if s.VUI.NALHrdParameters.InitialCpbRemovalDelayLengthMinus1 != targetCpbRemovalDelayLengthBits-1 {
		t.Errorf("InitialCpbRemovalDelayLengthMinus1 = %d, want %d", s.VUI.NALHrdParameters.InitialCpbRemovalDelayLengthMinus1, targetCpbRemovalDelayLengthBits-1)
	}
}

func TestSPSPoolDeduplicatesIdenticalPayloads(t *testing.T) {
	p := NewSPSPool()
	a := []byte{1, 2, 3}
	b := []byte{1, 2, 3}
	c := []byte{4, 5, 6}

	idxA, newA := p.Intern(a)
	if !newA {
		t.Fatal("expected the first Intern to allocate a new slot")
	}
	idxB, newB := p.Intern(b)
	if newB {
		t.Fatal("expected an identical payload to reuse the existing slot")
	}
	if idxA != idxB {
		t.Errorf("idxA=%d idxB=%d, want equal", idxA, idxB)
	}
	idxC, newC := p.Intern(c)
	if !newC || idxC == idxA {
		t.Error("expected a distinct payload to allocate a new slot")
	}
}
