package hdmv

import "sort"

// GraphicsType distinguishes IGS (interactive graphics, menus) from PGS
// (subtitle/presentation graphics), which differ in decoded-object-buffer
// size and in whether an ICS is expected at all.
type GraphicsType int

const (
	GraphicsIGS GraphicsType = iota
	GraphicsPGS
)

// DB_size, spec section 4.4.5.
const (
	dbSizeIGS = 16 * 1024 * 1024
	dbSizePGS = 4 * 1024 * 1024
)

func dbSizeFor(t GraphicsType) int64 {
	if t == GraphicsPGS {
		return dbSizePGS
	}
	return dbSizeIGS
}

// DisplaySet accumulates one display set's segments up to its closing END
// segment: the definitions (palettes, objects, windows), which may include
// ones carried over from an earlier display set (see carryDisplaySet),
// plus the one PCS and, for IGS, the one ICS
// that describe how to present them. It is the per-DS working set that
// check_and_build_display_set (spec section 4.4.4) validates.
type DisplaySet struct {
	Type GraphicsType

	PCS *PresentationComposition
	WDS *WindowDefinition
	ICS *InteractiveComposition

	// objectsByID, palettesByID, and windowsByID mirror the original
	// implementation's hdmv_seq_indexer: an O(1) reference-closure index
	// kept alongside the DS instead of scanning slices on every reference.
	objectsByID  map[uint16]*ObjectDefinition
	palettesByID map[uint8]*PaletteDefinition
	windowsByID  map[uint8]*Window

	// objectOrder preserves ODS arrival order, needed by
	// process_epoch_timing to number ODS_0..ODS_n and to sum
	// EPOCH_DECODING_DURATION in the order objects are actually decoded,
	// unless orderByValue requests ascending object_id order instead
	// (spec section 4.4.4).
	objectOrder []uint16
	orderByValue bool

	endCount int
}

func newDisplaySet(t GraphicsType, orderByValue bool) *DisplaySet {
	return &DisplaySet{
		Type:         t,
		objectsByID:  make(map[uint16]*ObjectDefinition),
		palettesByID: make(map[uint8]*PaletteDefinition),
		windowsByID:  make(map[uint8]*Window),
		orderByValue: orderByValue,
	}
}

// carryDisplaySet starts the next display set of the same epoch as prev,
// inheriting prev's object/palette/window reference closure (invariant 4:
// definitions persist across display sets until the epoch ends). objectOrder
// is NOT inherited: process_epoch_timing numbers ODS_0..ODS_n, and sums
// EPOCH_DECODING_DURATION, over only the objects this display set itself
// decodes.
func carryDisplaySet(prev *DisplaySet) *DisplaySet {
	return &DisplaySet{
		Type:         prev.Type,
		objectsByID:  prev.objectsByID,
		palettesByID: prev.palettesByID,
		windowsByID:  prev.windowsByID,
		orderByValue: prev.orderByValue,
	}
}

// orderedObjects returns the objects referenced by this DS, either in
// arrival order or, when orderByValue is set, sorted strictly ascending by
// object_id (spec section 4.4.4's value-ordering mode).
func (ds *DisplaySet) orderedObjects() []*ObjectDefinition {
	ids := make([]uint16, len(ds.objectOrder))
	copy(ids, ds.objectOrder)
	if ds.orderByValue {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	objs := make([]*ObjectDefinition, 0, len(ids))
	for _, id := range ids {
		if o, ok := ds.objectsByID[id]; ok {
			objs = append(objs, o)
		}
	}
	return objs
}

func (ds *DisplaySet) addObject(o *ObjectDefinition) {
	seenThisDS := false
	for _, id := range ds.objectOrder {
		if id == o.ObjectID {
			seenThisDS = true
			break
		}
	}
	if !seenThisDS {
		ds.objectOrder = append(ds.objectOrder, o.ObjectID)
	}
	ds.objectsByID[o.ObjectID] = o
}
func (ds *DisplaySet) addPalette(p *PaletteDefinition) {
	ds.palettesByID[p.PaletteID] = p
}
func (ds *DisplaySet) addWindows(wd *WindowDefinition) {
	ds.WDS = wd
	for i := range wd.Windows {
		w := wd.Windows[i]
		ds.windowsByID[w.ID] = &w
	}
}

// EpochState is the decoder's per-epoch context, spec section 3.2: the
// video format, the current display set under construction, the sequence
// reassembler, and the timing-reconstruction clock.
type EpochState struct {
	Video              VideoDescriptor
	DS                 *DisplaySet
	ReferenceStartClock uint32
	ForceRetiming       bool

	seq *sequenceReassembler
}

// NewEpochState starts a fresh epoch for graphics type t. orderByValue
// requests the Order{IGS,PGS}SegmentsByValue option (spec section 6.5):
// orderedObjects then returns objects strictly ascending by object_id
// rather than in stream arrival order. Palettes are not reordered.
func NewEpochState(t GraphicsType, forceRetiming bool, orderByValue bool) *EpochState {
	return &EpochState{
		DS:            newDisplaySet(t, orderByValue),
		ForceRetiming: forceRetiming,
		seq:           newSequenceReassembler(),
	}
}

// beginDisplaySet starts the next display set while an EpochState instance
// is reused across epochs within one stream. Object, palette, and window
// definitions carry over into the next display set of the same epoch
// (invariant 4) and are reset only when epochStart reports that the display
// set just closed opened a new epoch (its PCS/ICS carried
// CompositionStateEpochStart).
func (e *EpochState) beginDisplaySet(epochStart bool) {
	if epochStart {
		e.DS = newDisplaySet(e.DS.Type, e.DS.orderByValue)
	} else {
		e.DS = carryDisplaySet(e.DS)
	}
	e.seq.reset()
}
