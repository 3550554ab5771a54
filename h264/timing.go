package h264

// MainClock27MHz is the Blu-ray system clock frequency used for DTS/PTS
// reconstruction.
const MainClock27MHz = 27000000

// Multiples of one frame duration that dtsIncrement uses for the pic_struct
// values calling for a step other than one frame; the pic_struct observed
// on the previous access unit selects which one applies.
const (
	picStructDtsFactorHalf = 1.5
	picStructDtsFactorTwo  = 2.0
	picStructDtsFactorThree = 3.0
)

// TimingState is the running state the core carries across access units to
// reconstruct DTS/PTS, grounded in the progress-state fields described for
// the core: lastDts, dtsIncrement, and the accumulators that feed them.
type TimingState struct {
	FrameDuration int64 // 27MHz ticks.
	FieldDuration int64

	LastDts       int64
	NbPics        int64
	CumulPicOrderCnt int64

	lastPicStruct uint8
	started       bool
}

// SetFrameRate derives FrameDuration/FieldDuration from the VUI timing
// fields, per "frameDuration = MAIN_CLOCK_27MHz / frame_rate".
func (t *TimingState) SetFrameRate(vui *VuiParameters) {
	fr := vui.FrameRate()
	if fr <= 0 {
		return
	}
	t.FrameDuration = int64(MainClock27MHz / fr)
	t.FieldDuration = t.FrameDuration / 2
}

// dtsIncrement returns the DTS step to apply for the access unit that
// follows one whose observed pic_struct was lastPicStruct.
func (t *TimingState) dtsIncrement() int64 {
	switch t.lastPicStruct {
	case PicStructTopBottomTop, PicStructBottomTopBottom:
		return int64(float64(t.FrameDuration) * picStructDtsFactorHalf)
	case PicStructFrameDoubling:
		return int64(float64(t.FrameDuration) * picStructDtsFactorTwo)
	case PicStructFrameTripling:
		return int64(float64(t.FrameDuration) * picStructDtsFactorThree)
	default:
		return t.FrameDuration
	}
}

// NextAU advances the running state for one access unit and returns its
// {DTS, PTS} in 27MHz ticks, per the DTS/PTS reconstruction rule:
// DTS = lastDts + dtsIncrement; PTS = DTS + ((picOrderCntAU/divisor) -
// nbPics + 1) * frameDuration. divisor is 2 when the AU is field coded and
// AU POC is the frame-pair cumulative value, 1 otherwise. picStruct is the
// pic_struct observed on THIS access unit's picture-timing SEI (or
// PicStructFrame if absent), which becomes lastPicStruct for the next call.
func (t *TimingState) NextAU(picOrderCntAU int64, fieldPicFlag bool, picStruct uint8) (dts, pts int64) {
	if !t.started {
		t.LastDts = 0
		t.started = true
	} else {
		t.LastDts += t.dtsIncrement()
	}
	dts = t.LastDts

	divisor := int64(1)
	if fieldPicFlag {
		divisor = 2
	}
	t.NbPics++
	pts = dts + (picOrderCntAU/divisor-t.NbPics+1)*t.FrameDuration

	t.lastPicStruct = picStruct
	return dts, pts
}

// Ticks90kHz converts a duration expressed in 27MHz ticks to 90kHz ticks,
// the clock used by the HRD verifier and by HDMV timestamps.
func Ticks90kHz(ticks27MHz int64) int64 { return ticks27MHz / 300 }

// TicksFromPTS90kHz converts a 90kHz PTS/DTS value to 27MHz ticks.
func TicksFromPTS90kHz(ticks90kHz int64) int64 { return ticks90kHz * 300 }
