package hdmv

// SegmentTiming is one segment's reconstructed DTS/PTS, in 90 kHz ticks,
// as assigned by process_epoch_timing, spec section 4.4.6.
type SegmentTiming struct {
	DTS, PTS uint32
}

// decodeDuration is DECODE_DURATION(ODS_i), spec section 4.4.6: empty
// objects (width or height zero) decode instantaneously.
func decodeDuration(t GraphicsType, w, h uint16) uint32 {
	if w == 0 || h == 0 {
		return 0
	}
	divisor := uint64(800)
	if t == GraphicsPGS {
		divisor = 1600
	}
	num := 9 * uint64(w) * uint64(h)
	return uint32((num + divisor - 1) / divisor)
}

// transferDuration is TRANSFER_DURATION(ODS_i), spec section 4.4.6.
func transferDuration(decode uint32) uint32 { return 9 * decode }

// planeClearTime is PLANE_CLEAR_TIME, spec section 4.4.6.
func planeClearTime(videoWidth, videoHeight uint16) uint32 {
	num := 9 * uint64(videoWidth) * uint64(videoHeight)
	return uint32((num + 1600 - 1) / 1600)
}

// EpochTiming is the result of process_epoch_timing for one display set:
// the aggregate durations plus a per-ODS decode/transfer breakdown needed
// to stamp each ODS's own DTS/PTS.
type EpochTiming struct {
	EpochDecodingDuration uint32
	PlaneClearTime        uint32
	InitializationDuration uint32

	// odsDecode/odsTransfer are parallel to ds.orderedObjects(), spec
	// section 4.4.6's ODS_i numbering.
	odsDecode   []uint32
	odsTransfer []uint32
}

// ComputeEpochTiming implements the duration formulas of process_epoch_timing
// for ds against the epoch's video dimensions.
func ComputeEpochTiming(ds *DisplaySet, video VideoDescriptor) *EpochTiming {
	objs := ds.orderedObjects()
	et := &EpochTiming{
		odsDecode:   make([]uint32, len(objs)),
		odsTransfer: make([]uint32, len(objs)),
	}
	for i, o := range objs {
		et.odsDecode[i] = decodeDuration(ds.Type, o.ObjectWidth, o.ObjectHeight)
		et.odsTransfer[i] = transferDuration(et.odsDecode[i])
	}
	var sumDecode, sumTransfer uint32
	for i := range objs {
		sumDecode += et.odsDecode[i]
		if i < len(objs)-1 {
			sumTransfer += et.odsTransfer[i]
		}
	}
	et.EpochDecodingDuration = sumDecode + sumTransfer
	et.PlaneClearTime = planeClearTime(video.VideoWidth, video.VideoHeight)
	et.InitializationDuration = et.EpochDecodingDuration
	if et.PlaneClearTime > et.InitializationDuration {
		et.InitializationDuration = et.PlaneClearTime
	}
	return et
}

// ForceRetimeODS returns the DTS/PTS for ds.orderedObjects()[i], spec
// section 4.4.6's force-retiming ODS_0/ODS_i rule.
func (et *EpochTiming) ForceRetimeODS(i int) SegmentTiming {
	var dts uint32
	for j := 0; j < i; j++ {
		dts += et.odsDecode[j] + et.odsTransfer[j]
	}
	return SegmentTiming{DTS: dts, PTS: dts + et.odsDecode[i]}
}

// ForceRetimeICS is the ICS timing under force-retiming.
func (et *EpochTiming) ForceRetimeICS() SegmentTiming {
	return SegmentTiming{DTS: 0, PTS: et.InitializationDuration}
}

// ForceRetimeZero covers PDS, PCS and WDS (and an ODS without an object
// index): DTS=PTS=0 under force-retiming.
func (et *EpochTiming) ForceRetimeZero() SegmentTiming { return SegmentTiming{} }

// ForceRetimeEND is the END timing under force-retiming.
func (et *EpochTiming) ForceRetimeEND() SegmentTiming {
	return SegmentTiming{DTS: et.InitializationDuration, PTS: et.InitializationDuration}
}

// MNUTiming derives a segment's retimed DTS/PTS from its MNU-supplied
// values and the epoch's reference start clock, spec section 4.4.6's
// non-force-retiming path: reference_start_clock is established once, from
// the first segment's DTS if nonzero, else its PTS.
func MNUTiming(seg *Segment, referenceStartClock uint32) SegmentTiming {
	return SegmentTiming{
		DTS: seg.DTS - referenceStartClock,
		PTS: seg.PTS - referenceStartClock,
	}
}

// ReferenceStartClock picks reference_start_clock from the epoch's first
// segment: its DTS if nonzero, else its PTS.
func ReferenceStartClock(first *Segment) uint32 {
	if first.DTS != 0 {
		return first.DTS
	}
	return first.PTS
}
