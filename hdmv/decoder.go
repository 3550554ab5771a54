package hdmv

import (
	"io"

	"github.com/blu-disc/escore/diag"
	"github.com/blu-disc/escore/script"
)

// logicalSegment is one reassembled HDMV segment (a single physical
// segment for PDS/PCS/WDS/END, or the concatenation of a fragmented
// sequence for ODS/ICS) together with the physical segments that carried
// it, needed to emit one copy_pes_payload per physical segment while
// stamping start_frame timing only once per logical unit.
type logicalSegment struct {
	segType  byte
	objIndex int // index into ds.orderedObjects(), meaningful for ODS only.
	physical []*Segment
}

// Decoder drives one HDMV elementary stream end to end: segment framing,
// sequence reassembly, payload decoding, per-epoch/per-DS validation,
// buffering checks, timing reconstruction, and script emission, spec
// section 4.4.
type Decoder struct {
	scanner *Scanner
	sink    diag.Sink
	writer  *script.Writer
	srcIdx  int

	gtype            GraphicsType
	forceRetiming    bool
	initialTimestamp uint32

	epoch *EpochState
	log   []logicalSegment
	frag  []*Segment

	dstCursor int64
}

// NewDecoder constructs a Decoder reading segments from scanner and
// writing output commands to writer. forceRetiming overrides the
// scanner's auto-detected framing per the hdmv.force_retiming option
// (spec section 6.5); pass scanner.ForceRetiming() to honor auto-detection.
// initialTimestamp is added to every reconstructed PTS/DTS, the
// hdmv.initial_timestamp option. orderByValue is
// config.OrderIGSSegmentsByValue or config.OrderPGSSegmentsByValue,
// whichever matches gtype: it numbers a display set's objects ODS_0..ODS_n
// strictly ascending by object_id, instead of in stream arrival order, for
// the force-retimed ODS timestamps. The copy_pes_payload output keeps stream
// arrival order, and palettes are not reordered.
func NewDecoder(scanner *Scanner, gtype GraphicsType, forceRetiming bool, initialTimestamp uint32, sourcePath string, writer *script.Writer, sink diag.Sink, orderByValue bool) *Decoder {
	d := &Decoder{
		scanner:          scanner,
		sink:             sink,
		writer:           writer,
		gtype:            gtype,
		forceRetiming:    forceRetiming,
		initialTimestamp: initialTimestamp,
		epoch:            NewEpochState(gtype, forceRetiming, orderByValue),
	}
	d.srcIdx = writer.SetSourceFile(sourcePath)
	return d
}

// Run consumes every segment from the scanner, validating and emitting
// script commands one display set at a time, until the input is
// exhausted. It stops and returns the first fatal diagnostic.
func (d *Decoder) Run() error {
	for {
		seg, err := d.scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := d.consume(seg); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) consume(seg *Segment) error {
	switch seg.Type {
	case SegmentODS, SegmentICS:
		d.frag = append(d.frag, seg)
	default:
		d.frag = nil
	}

	payload, ready, err := d.epoch.seq.Feed(seg, seg.InputFileOffset)
	if err != nil {
		return err
	}
	if !ready {
		return nil
	}

	entry := logicalSegment{segType: seg.Type, objIndex: -1}
	if seg.Type == SegmentODS || seg.Type == SegmentICS {
		entry.physical = d.frag
		d.frag = nil
	} else {
		entry.physical = []*Segment{seg}
	}

	offset := seg.InputFileOffset
	switch seg.Type {
	case SegmentPDS:
		pd, err := ParsePaletteDefinition(payload, offset)
		if err != nil {
			return err
		}
		d.epoch.DS.addPalette(pd)

	case SegmentODS:
		od, err := ParseObjectDefinition(payload, offset)
		if err != nil {
			return err
		}
		d.epoch.DS.addObject(od)
		for i, id := range d.epoch.DS.objectOrder {
			if id == od.ObjectID {
				entry.objIndex = i
			}
		}

	case SegmentWDS:
		wd, err := ParseWindowDefinition(payload, offset)
		if err != nil {
			return err
		}
		d.epoch.DS.addWindows(wd)

	case SegmentPCS:
		pcs, err := ParsePresentationComposition(payload, offset)
		if err != nil {
			return err
		}
		if pcs.Composition.CompositionState == CompositionStateEpochStart {
			d.epoch.Video = pcs.Video
			d.epoch.ReferenceStartClock = 0
		}
		d.epoch.DS.PCS = pcs

	case SegmentICS:
		ic, err := ParseInteractiveComposition(payload, offset)
		if err != nil {
			return err
		}
		d.epoch.DS.ICS = ic

	case SegmentEND:
		d.epoch.DS.endCount++
		d.log = append(d.log, entry)
		return d.closeDisplaySet()

	default:
		return diag.NewParserError(offset, "segment_type", errUnknownSegmentType)
	}

	d.log = append(d.log, entry)
	return nil
}

// closeDisplaySet runs validation, buffering, and timing reconstruction
// over the just-completed display set, emits its script commands, and
// resets the epoch state for the next display set, spec sections
// 4.4.4-4.4.7.
func (d *Decoder) closeDisplaySet() error {
	ds := d.epoch.DS

	if err := ValidateDisplaySet(d.epoch, d.sink); err != nil {
		return err
	}
	if err := DecodedObjectBufferCheck(ds, d.sink); err != nil {
		return err
	}
	if d.sink != nil {
		d.sink.Report(diag.NewWarning(0, "coded_object_buffer", "coded object buffer occupancy (informational)"))
	}

	et := ComputeEpochTiming(ds, d.epoch.Video)

	if !d.forceRetiming && d.epoch.ReferenceStartClock == 0 && len(d.log) > 0 {
		d.epoch.ReferenceStartClock = ReferenceStartClock(d.log[0].physical[0])
	}
	referenceClock := d.epoch.ReferenceStartClock

	objs := ds.orderedObjects()
	for k := range d.log {
		if d.log[k].objIndex < 0 {
			continue
		}
		id := ds.objectOrder[d.log[k].objIndex]
		for i, o := range objs {
			if o.ObjectID == id {
				d.log[k].objIndex = i
			}
		}
	}

	for _, entry := range d.log {
		timing := d.timingFor(entry, et, referenceClock)
		for i, phys := range entry.physical {
			hasDTS := true
			if i == 0 {
				pts := uint64(timing.PTS+d.initialTimestamp) * 300
				dts := uint64(timing.DTS+d.initialTimestamp) * 300
				d.writer.StartFrame(pts, dts, hasDTS)
			}
			length := int64(phys.Length) + 3
			d.writer.CopyPESPayload(d.srcIdx, d.dstCursor, phys.InputFileOffset, length)
			d.dstCursor += length
		}
	}
	d.writer.EndMarker()

	epochStart := ds.PCS != nil && ds.PCS.Composition.CompositionState == CompositionStateEpochStart
	d.epoch.beginDisplaySet(epochStart)
	d.log = nil
	return nil
}

func (d *Decoder) timingFor(entry logicalSegment, et *EpochTiming, referenceClock uint32) SegmentTiming {
	if !d.forceRetiming {
		return MNUTiming(entry.physical[0], referenceClock)
	}
	switch entry.segType {
	case SegmentICS:
		return et.ForceRetimeICS()
	case SegmentEND:
		return et.ForceRetimeEND()
	case SegmentODS:
		if entry.objIndex >= 0 {
			return et.ForceRetimeODS(entry.objIndex)
		}
		return et.ForceRetimeZero()
	default: // PDS, PCS, WDS.
		return et.ForceRetimeZero()
	}
}
