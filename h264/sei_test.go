package h264

import (
	"bytes"
	"testing"

	"github.com/blu-disc/escore/bits"
)

func writeSEIHeader(w *bits.Writer, payloadType, payloadSize int) {
	for payloadType >= 0xff {
		w.WriteBits(0xff, 8)
		payloadType -= 0xff
	}
	w.WriteBits(uint64(payloadType), 8)
	for payloadSize >= 0xff {
		w.WriteBits(0xff, 8)
		payloadSize -= 0xff
	}
	w.WriteBits(uint64(payloadSize), 8)
}

func TestParseSEIMessagesRecoveryPoint(t *testing.T) {
	w := bits.NewWriter(true)
	writeSEIHeader(w, SEITypeRecoveryPoint, 2)
	w.WriteUE(3)      // recovery_frame_cnt
	w.WriteBits(1, 1) // exact_match_flag
	w.WriteBits(0, 1) // broken_link_flag
	w.WriteBits(0, 2) // changing_slice_group_idc
	raw := w.Finalize()

	br := bits.NewRBSPReader(bytes.NewReader(raw))
	msgs, err := ParseSEIMessages(br, 0, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	rp := msgs[0].RecoveryPoint
	if rp == nil {
		t.Fatal("expected a decoded RecoveryPoint")
	}
	if rp.RecoveryFrameCnt != 3 || !rp.ExactMatchFlag || rp.BrokenLinkFlag {
		t.Errorf("got %+v, want RecoveryFrameCnt=3 ExactMatchFlag=true BrokenLinkFlag=false", rp)
	}
}

func TestParseSEIMessagesPicTimingWithoutHRD(t *testing.T) {
	w := bits.NewWriter(true)
	writeSEIHeader(w, SEITypePicTiming, 1)
	w.WriteBits(uint64(PicStructFrame), 4)
	w.WriteBits(0, 1) // single clock_timestamp_flag for PicStructFrame, absent
	raw := w.Finalize()

	br := bits.NewRBSPReader(bytes.NewReader(raw))
	msgs, err := ParseSEIMessages(br, 0, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pt := msgs[0].PicTiming
	if pt == nil {
		t.Fatal("expected a decoded PicTiming")
	}
	if pt.PicStruct != PicStructFrame {
		t.Errorf("PicStruct = %d, want %d", pt.PicStruct, PicStructFrame)
	}
}

func TestParseSEIMessagesUnknownPayloadKeptRaw(t *testing.T) {
	w := bits.NewWriter(true)
	writeSEIHeader(w, 200, 3)
	w.WriteBits(0xaa, 8)
	w.WriteBits(0xbb, 8)
	w.WriteBits(0xcc, 8)
	raw := w.Finalize()

	br := bits.NewRBSPReader(bytes.NewReader(raw))
	msgs, err := ParseSEIMessages(br, 0, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(msgs[0].Raw, []byte{0xaa, 0xbb, 0xcc}) {
		t.Errorf("Raw = %#v, want {0xaa,0xbb,0xcc}", msgs[0].Raw)
	}
}

func TestNumClockTS(t *testing.T) {
	tests := []struct {
		picStruct uint8
		want      int
	}{
		{PicStructFrame, 1},
		{PicStructTopBottom, 2},
		{PicStructTopBottomTop, 3},
		{PicStructFrameTripling, 3},
	}
	for _, tc := range tests {
		if got := NumClockTS(tc.picStruct); got != tc.want {
			t.Errorf("NumClockTS(%d) = %d, want %d", tc.picStruct, got, tc.want)
		}
	}
}
