package h264

import "testing"

func TestDPBInsertEvictsOldestShortTermWhenFull(t *testing.T) {
	d := NewDPB(2)
	d.Insert(&DPBEntry{PicNum: 0, Usage: RefShortTerm})
	d.Insert(&DPBEntry{PicNum: 1, Usage: RefShortTerm})
	d.Insert(&DPBEntry{PicNum: 2, Usage: RefShortTerm})

	if d.Occupancy() != 2 {
		t.Fatalf("Occupancy = %d, want 2", d.Occupancy())
	}
	for _, e := range d.entries {
		if e.PicNum == 0 {
			t.Fatal("expected the oldest short-term entry (PicNum 0) to be evicted")
		}
	}
}

func TestDPBApplyMarkingOp1MarksUnused(t *testing.T) {
	d := NewDPB(16)
	d.Insert(&DPBEntry{PicNum: 5, Usage: RefShortTerm})

	m := &DecRefPicMarking{
		AdaptiveRefPicMarkingModeFlag: true,
		Ops: []MmcoOp{
			{Op: 1, Arg1: 4}, // difference_of_pic_nums_minus1 = 4, currFrameNum = 10 -> picNum = 10-4-1 = 5.
			{Op: 0},
		},
	}
	d.ApplyMarking(m, 10)
	if d.entries[0].Usage != RefNotUsed {
		t.Errorf("entry usage = %v, want RefNotUsed", d.entries[0].Usage)
	}
}

func TestDPBApplyMarkingOp5ResetsAllAndSetsFlag(t *testing.T) {
	d := NewDPB(16)
	d.Insert(&DPBEntry{PicNum: 1, Usage: RefShortTerm})
	d.Insert(&DPBEntry{PicNum: 2, Usage: RefLongTerm})

	m := &DecRefPicMarking{
		AdaptiveRefPicMarkingModeFlag: true,
		Ops:                           []MmcoOp{{Op: 5}, {Op: 0}},
	}
	d.ApplyMarking(m, 0)

	for _, e := range d.entries {
		if e.Usage != RefNotUsed {
			t.Errorf("entry usage = %v, want RefNotUsed after op 5", e.Usage)
		}
	}
	if !d.PresenceOfMemManCtrlOp5() {
		t.Error("expected PresenceOfMemManCtrlOp5 to be set after op 5")
	}
	if d.PresenceOfMemManCtrlOp5() {
		t.Error("expected PresenceOfMemManCtrlOp5 to clear after being read")
	}
}

func TestDPBApplyMarkingOp3PromotesToLongTerm(t *testing.T) {
	d := NewDPB(16)
	d.Insert(&DPBEntry{PicNum: 3, Usage: RefShortTerm})

	m := &DecRefPicMarking{
		AdaptiveRefPicMarkingModeFlag: true,
		Ops: []MmcoOp{
			{Op: 3, Arg1: 1, Arg2: 7}, // difference_of_pic_nums_minus1=1, currFrameNum=5 -> picNum=3.
			{Op: 0},
		},
	}
	d.ApplyMarking(m, 5)

	e := d.entries[0]
	if e.Usage != RefLongTerm {
		t.Fatalf("usage = %v, want RefLongTerm", e.Usage)
	}
	if e.LongTermPicNum != 7 {
		t.Errorf("LongTermPicNum = %d, want 7", e.LongTermPicNum)
	}
}
