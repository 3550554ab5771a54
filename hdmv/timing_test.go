package hdmv

import "testing"

func TestComputeEpochTimingIGSExample(t *testing.T) {
	ds := newDisplaySet(GraphicsIGS, false)
	ds.addObject(&ObjectDefinition{ObjectID: 1, ObjectWidth: 1280, ObjectHeight: 720})
	ds.addObject(&ObjectDefinition{ObjectID: 2, ObjectWidth: 640, ObjectHeight: 360})

	et := ComputeEpochTiming(ds, VideoDescriptor{VideoWidth: 1920, VideoHeight: 1080})

	if et.odsDecode[0] != 10368 {
		t.Errorf("DECODE_DURATION(ODS_1) = %d, want 10368", et.odsDecode[0])
	}
	if et.odsDecode[1] != 2592 {
		t.Errorf("DECODE_DURATION(ODS_2) = %d, want 2592", et.odsDecode[1])
	}
	if et.odsTransfer[0] != 93312 {
		t.Errorf("TRANSFER_DURATION(ODS_1) = %d, want 93312", et.odsTransfer[0])
	}
	if et.EpochDecodingDuration != 106272 {
		t.Errorf("EPOCH_DECODING_DURATION = %d, want 106272", et.EpochDecodingDuration)
	}
	if et.PlaneClearTime != 11664 {
		t.Errorf("PLANE_CLEAR_TIME = %d, want 11664", et.PlaneClearTime)
	}
	if et.InitializationDuration != 106272 {
		t.Errorf("INITIALIZATION_DURATION = %d, want 106272", et.InitializationDuration)
	}
}

func TestDecodeDurationEmptyObjectIsZero(t *testing.T) {
	if d := decodeDuration(GraphicsPGS, 0, 500); d != 0 {
		t.Errorf("decodeDuration with zero width = %d, want 0", d)
	}
}

func TestDecodeDurationPGSIsHalfOfIGS(t *testing.T) {
	igs := decodeDuration(GraphicsIGS, 160, 160)
	pgs := decodeDuration(GraphicsPGS, 160, 160)
	if pgs != igs/2 {
		t.Errorf("PGS decode duration = %d, want half of IGS's %d", pgs, igs)
	}
}

func TestForceRetimeICSAndEND(t *testing.T) {
	et := &EpochTiming{InitializationDuration: 5000}
	if got := et.ForceRetimeICS(); got.DTS != 0 || got.PTS != 5000 {
		t.Errorf("ForceRetimeICS = %+v, want DTS=0 PTS=5000", got)
	}
	if got := et.ForceRetimeEND(); got.DTS != 5000 || got.PTS != 5000 {
		t.Errorf("ForceRetimeEND = %+v, want DTS=PTS=5000", got)
	}
}

func TestForceRetimeODSChaining(t *testing.T) {
	et := &EpochTiming{
		odsDecode:   []uint32{100, 200},
		odsTransfer: []uint32{900, 1800},
	}
	t0 := et.ForceRetimeODS(0)
	if t0.DTS != 0 || t0.PTS != 100 {
		t.Errorf("ForceRetimeODS(0) = %+v, want DTS=0 PTS=100", t0)
	}
	t1 := et.ForceRetimeODS(1)
	wantDTS := uint32(0 + 100 + 900)
	if t1.DTS != wantDTS || t1.PTS != wantDTS+200 {
		t.Errorf("ForceRetimeODS(1) = %+v, want DTS=%d PTS=%d", t1, wantDTS, wantDTS+200)
	}
}

func TestMNUTimingSubtractsReferenceClock(t *testing.T) {
	seg := &Segment{PTS: 5000, DTS: 4700}
	got := MNUTiming(seg, 4700)
	if got.DTS != 0 || got.PTS != 300 {
		t.Errorf("MNUTiming = %+v, want DTS=0 PTS=300", got)
	}
}

func TestReferenceStartClockPrefersDTS(t *testing.T) {
	if got := ReferenceStartClock(&Segment{PTS: 100, DTS: 50}); got != 50 {
		t.Errorf("ReferenceStartClock = %d, want 50 (DTS)", got)
	}
	if got := ReferenceStartClock(&Segment{PTS: 100, DTS: 0}); got != 100 {
		t.Errorf("ReferenceStartClock = %d, want 100 (PTS fallback)", got)
	}
}
