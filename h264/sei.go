package h264

import (
	"github.com/blu-disc/escore/bits"
	"github.com/blu-disc/escore/diag"
)

// SEI payload types relevant to Blu-ray timing and compliance, Rec. ITU-T
// H.264 Annex D.
const (
	SEITypeBufferingPeriod       = 0
	SEITypePicTiming             = 1
	SEITypeUserDataUnregistered  = 5
	SEITypeRecoveryPoint         = 6
)

// SEIMessage is one sei_message() entry: payloadType/payloadSize plus the
// decoded payload, when recognized. Unrecognized payload types are kept as
// raw bytes in Raw so patching can reproduce them byte for byte.
type SEIMessage struct {
	PayloadType int
	PayloadSize int
	Raw         []byte

	BufferingPeriod *BufferingPeriod
	PicTiming       *PicTiming
	RecoveryPoint   *RecoveryPoint
}

// BufferingPeriod is the buffering_period() SEI message, section D.1.2.
// Only the first SchedSelIdx (sched_sel_idx 0) is kept, matching Blu-ray's
// requirement of a single CPB schedule.
type BufferingPeriod struct {
	SeqParameterSetID         uint32
	InitialCpbRemovalDelay    uint32
	InitialCpbRemovalDelayOffset uint32
}

// PicTiming is the pic_timing() SEI message, section D.1.3.
type PicTiming struct {
	CpbRemovalDelay uint32
	DpbOutputDelay  uint32
	PicStructPresent bool
	PicStruct        uint8
}

// RecoveryPoint is the recovery_point() SEI message, section D.1.7.
type RecoveryPoint struct {
	RecoveryFrameCnt  uint32
	ExactMatchFlag    bool
	BrokenLinkFlag    bool
	ChangingSliceGroupIdc uint8
}

// pic_struct values, Table D-1.
const (
	PicStructFrame       = 0
	PicStructTopField    = 1
	PicStructBottomField = 2
	PicStructTopBottom   = 3
	PicStructBottomTop   = 4
	PicStructTopBottomTop = 5
	PicStructBottomTopBottom = 6
	PicStructFrameDoubling = 7
	PicStructFrameTripling = 8
)

// NumClockTS returns how many clock timestamps follow pic_struct in the
// pic_timing() syntax, Table D-1.
func NumClockTS(picStruct uint8) int {
	switch picStruct {
	case PicStructFrame, PicStructTopField, PicStructBottomField:
		return 1
	case PicStructTopBottom, PicStructBottomTop:
		return 2
	case PicStructTopBottomTop, PicStructBottomTopBottom:
		return 3
	case PicStructFrameDoubling:
		return 2
	case PicStructFrameTripling:
		return 3
	default:
		return 0
	}
}

// ParseSEIMessages reads sei_rbsp(), a sequence of sei_message() entries
// terminated by the rbsp_trailing_bits, section 7.3.2.3.
func ParseSEIMessages(br *bits.Reader, offset int64, nalHRD, vclHRD *HrdParameters) ([]*SEIMessage, error) {
	var msgs []*SEIMessage
	for br.MoreRBSPData() {
		m, err := parseSEIMessage(br, offset, nalHRD, vclHRD)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func parseSEIMessage(br *bits.Reader, offset int64, nalHRD, vclHRD *HrdParameters) (*SEIMessage, error) {
	payloadType := 0
	for {
		b, err := br.ReadBits(8)
		if err != nil {
			return nil, diag.NewParserError(offset, "payload_type", err)
		}
		payloadType += int(b)
		if b != 0xff {
			break
		}
	}
	payloadSize := 0
	for {
		b, err := br.ReadBits(8)
		if err != nil {
			return nil, diag.NewParserError(offset, "payload_size", err)
		}
		payloadSize += int(b)
		if b != 0xff {
			break
		}
	}

	m := &SEIMessage{PayloadType: payloadType, PayloadSize: payloadSize}
	startBits := br.BytesRead()*8 - br.Off()

	switch payloadType {
	case SEITypeBufferingPeriod:
		bp, err := parseBufferingPeriod(br, offset, nalHRD, vclHRD)
		if err != nil {
			return nil, err
		}
		m.BufferingPeriod = bp
	case SEITypePicTiming:
		pt, err := parsePicTiming(br, offset, nalHRD, vclHRD)
		if err != nil {
			return nil, err
		}
		m.PicTiming = pt
	case SEITypeRecoveryPoint:
		rp, err := parseRecoveryPoint(br, offset)
		if err != nil {
			return nil, err
		}
		m.RecoveryPoint = rp
	default:
		raw := make([]byte, payloadSize)
		for i := range raw {
			v, err := br.ReadBits(8)
			if err != nil {
				return nil, diag.NewParserError(offset, "sei_payload", err)
			}
			raw[i] = byte(v)
		}
		m.Raw = raw
	}
	_ = startBits
	return m, nil
}

func parseBufferingPeriod(br *bits.Reader, offset int64, nalHRD, vclHRD *HrdParameters) (*BufferingPeriod, error) {
	bp := &BufferingPeriod{}
	id, err := br.ReadUE(8)
	if err != nil {
		return nil, diag.NewParserError(offset, "seq_parameter_set_id", err)
	}
	bp.SeqParameterSetID = id

	readSched := func(h *HrdParameters) error {
		if h == nil {
			return nil
		}
		for i := uint32(0); i <= h.CpbCntMinus1; i++ {
			delay, err := br.ReadBits(int(h.InitialCpbRemovalDelayLengthMinus1) + 1)
			if err != nil {
				return diag.NewParserError(offset, "initial_cpb_removal_delay", err)
			}
			off, err := br.ReadBits(int(h.InitialCpbRemovalDelayLengthMinus1) + 1)
			if err != nil {
				return diag.NewParserError(offset, "initial_cpb_removal_delay_offset", err)
			}
			if i == 0 {
				bp.InitialCpbRemovalDelay = uint32(delay)
				bp.InitialCpbRemovalDelayOffset = uint32(off)
			}
		}
		return nil
	}
	if err := readSched(nalHRD); err != nil {
		return nil, err
	}
	if err := readSched(vclHRD); err != nil {
		return nil, err
	}
	return bp, nil
}

func parsePicTiming(br *bits.Reader, offset int64, nalHRD, vclHRD *HrdParameters) (*PicTiming, error) {
	pt := &PicTiming{}
	h := nalHRD
	if h == nil {
		h = vclHRD
	}
	if h != nil {
		d, err := br.ReadBits(int(h.CpbRemovalDelayLengthMinus1) + 1)
		if err != nil {
			return nil, diag.NewParserError(offset, "cpb_removal_delay", err)
		}
		pt.CpbRemovalDelay = uint32(d)
		o, err := br.ReadBits(int(h.DpbOutputDelayLengthMinus1) + 1)
		if err != nil {
			return nil, diag.NewParserError(offset, "dpb_output_delay", err)
		}
		pt.DpbOutputDelay = uint32(o)
	}

	pt.PicStructPresent = true
	v, err := br.ReadBits(4)
	if err != nil {
		return nil, diag.NewParserError(offset, "pic_struct", err)
	}
	pt.PicStruct = uint8(v)

	n := NumClockTS(pt.PicStruct)
	for i := 0; i < n; i++ {
		present, err := br.ReadBits(1)
		if err != nil {
			return nil, diag.NewParserError(offset, "clock_timestamp_flag", err)
		}
		if present != 1 {
			continue
		}
		if err := skipClockTimestamp(br, offset, h); err != nil {
			return nil, err
		}
	}
	return pt, nil
}

func skipClockTimestamp(br *bits.Reader, offset int64, h *HrdParameters) error {
	if _, err := br.ReadBits(2); err != nil { // ct_type
		return diag.NewParserError(offset, "ct_type", err)
	}
	if _, err := br.ReadBits(1); err != nil { // nuit_field_based_flag
		return diag.NewParserError(offset, "nuit_field_based_flag", err)
	}
	if _, err := br.ReadBits(5); err != nil { // counting_type
		return diag.NewParserError(offset, "counting_type", err)
	}
	fullTimestampFlag, err := br.ReadBits(1)
	if err != nil {
		return diag.NewParserError(offset, "full_timestamp_flag", err)
	}
	if _, err := br.ReadBits(1); err != nil { // discontinuity_flag
		return diag.NewParserError(offset, "discontinuity_flag", err)
	}
	if _, err := br.ReadBits(1); err != nil { // cnt_dropped_flag
		return diag.NewParserError(offset, "cnt_dropped_flag", err)
	}
	if _, err := br.ReadBits(8); err != nil { // n_frames
		return diag.NewParserError(offset, "n_frames", err)
	}
	if fullTimestampFlag == 1 {
		if _, err := br.ReadBits(6); err != nil {
			return diag.NewParserError(offset, "seconds_value", err)
		}
		if _, err := br.ReadBits(6); err != nil {
			return diag.NewParserError(offset, "minutes_value", err)
		}
		if _, err := br.ReadBits(5); err != nil {
			return diag.NewParserError(offset, "hours_value", err)
		}
	} else {
		secondsFlag, err := br.ReadBits(1)
		if err != nil {
			return diag.NewParserError(offset, "seconds_flag", err)
		}
		if secondsFlag == 1 {
			if _, err := br.ReadBits(6); err != nil {
				return diag.NewParserError(offset, "seconds_value", err)
			}
			minutesFlag, err := br.ReadBits(1)
			if err != nil {
				return diag.NewParserError(offset, "minutes_flag", err)
			}
			if minutesFlag == 1 {
				if _, err := br.ReadBits(6); err != nil {
					return diag.NewParserError(offset, "minutes_value", err)
				}
				hoursFlag, err := br.ReadBits(1)
				if err != nil {
					return diag.NewParserError(offset, "hours_flag", err)
				}
				if hoursFlag == 1 {
					if _, err := br.ReadBits(5); err != nil {
						return diag.NewParserError(offset, "hours_value", err)
					}
				}
			}
		}
	}
	if h != nil && h.TimeOffsetLength > 0 {
		if _, err := br.ReadBits(int(h.TimeOffsetLength)); err != nil {
			return diag.NewParserError(offset, "time_offset", err)
		}
	}
	return nil
}

func parseRecoveryPoint(br *bits.Reader, offset int64) (*RecoveryPoint, error) {
	rp := &RecoveryPoint{}
	v, err := br.ReadUE(16)
	if err != nil {
		return nil, diag.NewParserError(offset, "recovery_frame_cnt", err)
	}
	rp.RecoveryFrameCnt = v

	b, err := br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "exact_match_flag", err)
	}
	rp.ExactMatchFlag = b == 1

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "broken_link_flag", err)
	}
	rp.BrokenLinkFlag = b == 1

	c, err := br.ReadBits(2)
	if err != nil {
		return nil, diag.NewParserError(offset, "changing_slice_group_idc", err)
	}
	rp.ChangingSliceGroupIdc = uint8(c)
	return rp, nil
}
