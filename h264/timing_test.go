package h264

import "testing"

func TestTimingStateFrameDuration(t *testing.T) {
	ts := &TimingState{}
	ts.SetFrameRate(&VuiParameters{TimingInfoPresentFlag: true, NumUnitsInTick: 1001, TimeScale: 48000})
	// frame_rate = 48000/(2*1001) = 23.976...; frameDuration = 27e6/23.976 ~= 1126125.
	want := int64(MainClock27MHz / (48000.0 / (2 * 1001)))
	if ts.FrameDuration != want {
		t.Errorf("FrameDuration = %d, want %d", ts.FrameDuration, want)
	}
	if ts.FieldDuration != ts.FrameDuration/2 {
		t.Errorf("FieldDuration = %d, want half of FrameDuration", ts.FieldDuration)
	}
}

func TestTimingStateNextAUProgression(t *testing.T) {
	ts := &TimingState{FrameDuration: 1000}

	dts0, pts0 := ts.NextAU(0, false, PicStructFrame)
	if dts0 != 0 {
		t.Errorf("first DTS = %d, want 0", dts0)
	}
	if pts0 != 0 {
		t.Errorf("first PTS = %d, want 0", pts0)
	}

	dts1, _ := ts.NextAU(2, false, PicStructFrame)
	if dts1 != 1000 {
		t.Errorf("second DTS = %d, want 1000 (one frameDuration step)", dts1)
	}
}

func TestDtsIncrementVariesWithPicStruct(t *testing.T) {
	ts := &TimingState{FrameDuration: 1000, started: true, LastDts: 0}

	ts.lastPicStruct = PicStructTopBottomTop
	if got := ts.dtsIncrement(); got != 1500 {
		t.Errorf("half-field pic_struct dtsIncrement = %d, want 1500", got)
	}

	ts.lastPicStruct = PicStructFrameDoubling
	if got := ts.dtsIncrement(); got != 2000 {
		t.Errorf("doubled-frame dtsIncrement = %d, want 2000", got)
	}

	ts.lastPicStruct = PicStructFrameTripling
	if got := ts.dtsIncrement(); got != 3000 {
		t.Errorf("tripled-frame dtsIncrement = %d, want 3000", got)
	}

	ts.lastPicStruct = PicStructFrame
	if got := ts.dtsIncrement(); got != 1000 {
		t.Errorf("default dtsIncrement = %d, want 1000", got)
	}
}

func TestTicks90kHzRoundTrip(t *testing.T) {
	const ticks27 = 300 * 12345
	if got := Ticks90kHz(ticks27); got != 12345 {
		t.Errorf("Ticks90kHz = %d, want 12345", got)
	}
	if got := TicksFromPTS90kHz(12345); got != ticks27 {
		t.Errorf("TicksFromPTS90kHz = %d, want %d", got, ticks27)
	}
}
