package h264

// AccessUnit groups the NAL units that belong to one coded picture, per
// Rec. ITU-T H.264 Annex C / section 7.4.1.2.4's access unit boundary
// rules as adapted for a Blu-ray elementary stream (no data partitioning,
// no MVC/SVC).
type AccessUnit struct {
	NALUnits []NALUnitInfo

	Slice *SliceHeader
	NALType int
	NALRefIdc uint8

	FirstInStream bool

	// DTS and PTS are the reconstructed 27MHz-tick timestamps for this
	// access unit, set by TimingState.NextAU and emitted as the access
	// unit's start_frame command.
	DTS, PTS int64
}

// NALUnitInfo carries the minimum a NAL unit keeps once it has been
// consumed into an access unit: its header, byte offset, and raw payload
// for later re-emission.
type NALUnitInfo struct {
	Header NALHeader
	Offset int64
	Payload []byte
}

// NewAccessUnitBoundary reports whether curr begins a new access unit
// relative to prev, applying the subset of section 7.4.1.2.4's rules that
// apply to consecutive primary coded pictures in a Blu-ray stream:
//
//   - frame_num differs
//   - pic_parameter_set_id differs
//   - field_pic_flag differs, or bottom_field_flag differs
//   - nal_ref_idc differs and either is 0
//   - pic_order_cnt_type is 0 for both and either pic_order_cnt_lsb or
//     delta_pic_order_cnt_bottom differs
//   - pic_order_cnt_type is 1 for both and either delta_pic_order_cnt[0]
//     or delta_pic_order_cnt[1] differs
//   - IdrPicFlag differs
//   - both are IDR and idr_pic_id differs
//
// An explicit access_unit_delimiter or a new SPS/PPS NAL preceding curr
// also starts a new access unit; those cases are detected by the caller
// before NewAccessUnitBoundary is consulted.
func NewAccessUnitBoundary(prevNALType int, prev *SliceHeader, currNALType int, currRefIdc uint8, prevRefIdc uint8, curr *SliceHeader, sps *SpsData) bool {
	if prev == nil {
		return true
	}
	if curr.FrameNum != prev.FrameNum {
		return true
	}
	if curr.PicParameterSetID != prev.PicParameterSetID {
		return true
	}
	if curr.FieldPicFlag != prev.FieldPicFlag {
		return true
	}
	if curr.FieldPicFlag && curr.BottomFieldFlag != prev.BottomFieldFlag {
		return true
	}
	if (currRefIdc == 0) != (prevRefIdc == 0) {
		return true
	}
	if sps.PicOrderCntType == 0 {
		if curr.PicOrderCntLsb != prev.PicOrderCntLsb {
			return true
		}
		if curr.DeltaPicOrderCntBottom != prev.DeltaPicOrderCntBottom {
			return true
		}
	}
	if sps.PicOrderCntType == 1 {
		if curr.DeltaPicOrderCnt[0] != prev.DeltaPicOrderCnt[0] {
			return true
		}
		if curr.DeltaPicOrderCnt[1] != prev.DeltaPicOrderCnt[1] {
			return true
		}
	}
	currIdr := currNALType == NALTypeIDR
	prevIdr := prevNALType == NALTypeIDR
	if currIdr != prevIdr {
		return true
	}
	if currIdr && prevIdr && curr.IdrPicID != prev.IdrPicID {
		return true
	}
	return false
}
