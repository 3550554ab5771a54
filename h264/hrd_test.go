package h264

import (
	"testing"

	"github.com/blu-disc/escore/diag"
)

func testHRD() *HrdParameters {
	return &HrdParameters{
		CpbCntMinus1: 0,
		BitRate:      []uint64{40000000},
		CpbSize:      []uint64{40000000 / 8},
		CbrFlag:      []bool{false},
	}
}

func testSPSForHRD() *SpsData {
	return &SpsData{
		VUI: &VuiParameters{TimingInfoPresentFlag: true, NumUnitsInTick: 1001, TimeScale: 48000},
	}
}

func TestHRDVerifierAcceptsWithinBudget(t *testing.T) {
	sink := &captureSink{}
	v := NewHRDVerifier(testSPSForHRD(), testHRD(), sink, diag.Mode{})
	if err := v.AddAU(0, 1000, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHRDVerifierDetectsOccupancyOverflow(t *testing.T) {
	sink := &captureSink{}
	hrd := testHRD()
	hrd.CpbSize = []uint64{10} // tiny CPB, 10 bits.
	v := NewHRDVerifier(testSPSForHRD(), hrd, sink, diag.Mode{})
	if err := v.AddAU(0, 1_000_000, true); err == nil {
		t.Fatal("expected a CPB occupancy overflow error")
	}
}

func TestHRDVerifierLaxModeDowngradesToWarning(t *testing.T) {
	sink := &captureSink{}
	hrd := testHRD()
	hrd.CpbSize = []uint64{10}
	v := NewHRDVerifier(testSPSForHRD(), hrd, sink, diag.Mode{Lax: true})
	if err := v.AddAU(0, 1_000_000, true); err != nil {
		t.Fatalf("lax mode should not return a fatal error, got %v", err)
	}
	if len(sink.reported) != 1 {
		t.Fatalf("expected exactly one reported diagnostic, got %d", len(sink.reported))
	}
	if _, ok := sink.reported[0].(*diag.Warning); !ok {
		t.Errorf("expected a Warning, got %T", sink.reported[0])
	}
}

func TestHRDVerifierNoHRDIsNoOp(t *testing.T) {
	v := NewHRDVerifier(testSPSForHRD(), nil, nil, diag.Mode{})
	if err := v.AddAU(0, 1_000_000_000, true); err != nil {
		t.Fatalf("expected no error without HRD parameters, got %v", err)
	}
}
