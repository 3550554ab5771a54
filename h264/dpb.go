package h264

// RefUsage classifies a DPB entry's reference status, section 4.3.
type RefUsage int

const (
	RefNotUsed RefUsage = iota
	RefShortTerm
	RefLongTerm
)

// DPBEntry is one decoded picture buffer slot, section 4.3.
type DPBEntry struct {
	FrameDisplayNum int64
	FrameNum        uint32
	FieldPicFlag    bool
	BottomFieldFlag bool
	OutputTime      int64
	Usage           RefUsage
	MaxLongTermFrameIdx int32 // -1 means "no max set".

	PicNum        int32 // derived per section 8.2.4.1, valid while ShortTerm.
	LongTermPicNum int32 // valid while LongTerm.
}

// DPB simulates the decoded picture buffer, tracking up to MaxDpbFrames
// entries and applying dec_ref_pic_marking() operations, section 4.3.
type DPB struct {
	maxFrames int
	entries   []*DPBEntry

	// presenceOfMemManCtrlOp5 is set on the current picture by op 5; the
	// caller consults it to wrap prevPicOrderCntMsb back to zero.
	presenceOfMemManCtrlOp5 bool
}

// NewDPB constructs a DPB capped at maxFrames entries.
func NewDPB(maxFrames int) *DPB {
	return &DPB{maxFrames: maxFrames}
}

// PresenceOfMemManCtrlOp5 reports whether the most recently applied marking
// included op 5, and clears the flag.
func (d *DPB) PresenceOfMemManCtrlOp5() bool {
	v := d.presenceOfMemManCtrlOp5
	d.presenceOfMemManCtrlOp5 = false
	return v
}

// Insert adds a newly decoded picture to the DPB, evicting the
// lowest-PicNum short-term entry if the buffer is already at capacity.
func (d *DPB) Insert(e *DPBEntry) {
	if len(d.entries) >= d.maxFrames && d.maxFrames > 0 {
		d.evictOldestShortTerm()
	}
	d.entries = append(d.entries, e)
}

func (d *DPB) evictOldestShortTerm() {
	idx := -1
	for i, e := range d.entries {
		if e.Usage != RefShortTerm {
			continue
		}
		if idx == -1 || e.PicNum < d.entries[idx].PicNum {
			idx = i
		}
	}
	if idx == -1 {
		return
	}
	d.entries = append(d.entries[:idx], d.entries[idx+1:]...)
}

// ApplyMarking runs dec_ref_pic_marking()'s ops in order against the DPB,
// section 4.3's marking-operation list.
func (d *DPB) ApplyMarking(m *DecRefPicMarking, currFrameNum uint32) {
	if m == nil {
		return
	}
	if m.LongTermReferenceFlag {
		// IDR picture marked as used for long-term reference at index 0.
		for _, e := range d.entries {
			e.Usage = RefNotUsed
		}
		return
	}
	if !m.AdaptiveRefPicMarkingModeFlag {
		return
	}
	for _, op := range m.Ops {
		switch op.Op {
		case 1:
			picNum := int32(currFrameNum) - int32(op.Arg1) - 1
			d.markUnused(RefShortTerm, picNum)
		case 2:
			d.markUnusedLongTerm(int32(op.Arg1))
		case 3:
			picNum := int32(currFrameNum) - int32(op.Arg1) - 1
			d.promoteToLongTerm(picNum, int32(op.Arg2))
		case 4:
			d.evictLongTermAbove(int32(op.Arg1) - 1)
		case 5:
			for _, e := range d.entries {
				e.Usage = RefNotUsed
			}
			d.presenceOfMemManCtrlOp5 = true
		case 6:
			d.markCurrentLongTerm(int32(op.Arg1))
		}
	}
}

func (d *DPB) markUnused(usage RefUsage, picNum int32) {
	for _, e := range d.entries {
		if e.Usage == usage && e.PicNum == picNum {
			e.Usage = RefNotUsed
		}
	}
}

func (d *DPB) markUnusedLongTerm(longTermPicNum int32) {
	for _, e := range d.entries {
		if e.Usage == RefLongTerm && e.LongTermPicNum == longTermPicNum {
			e.Usage = RefNotUsed
		}
	}
}

func (d *DPB) promoteToLongTerm(picNum, longTermFrameIdx int32) {
	for _, e := range d.entries {
		if e.Usage == RefShortTerm && e.PicNum == picNum {
			e.Usage = RefLongTerm
			e.LongTermPicNum = longTermFrameIdx
		}
	}
}

func (d *DPB) evictLongTermAbove(maxIdx int32) {
	for _, e := range d.entries {
		if e.Usage == RefLongTerm && e.LongTermPicNum > maxIdx {
			e.Usage = RefNotUsed
		}
	}
}

func (d *DPB) markCurrentLongTerm(longTermFrameIdx int32) {
	if len(d.entries) == 0 {
		return
	}
	curr := d.entries[len(d.entries)-1]
	curr.Usage = RefLongTerm
	curr.LongTermPicNum = longTermFrameIdx
}

// Occupancy returns the number of non-empty DPB entries.
func (d *DPB) Occupancy() int { return len(d.entries) }
