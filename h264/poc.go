package h264

// PocState carries the running state needed to compute picture order count
// across an SPS's lifetime, Rec. ITU-T H.264 section 8.2.1.
type PocState struct {
	PrevPicOrderCntMsb int32
	PrevPicOrderCntLsb uint32

	PrevFrameNum         uint32
	PrevFrameNumOffset   uint32

	initialized bool
}

// Reset clears the running state, as required at an IDR access unit
// (section 8.2.1: PrevPicOrderCntMsb and PrevPicOrderCntLsb are both set
// to 0 for an IDR picture).
func (s *PocState) Reset() {
	*s = PocState{}
}

// ComputePOCType0 computes TopFieldOrderCnt/BottomFieldOrderCnt for
// pic_order_cnt_type == 0, section 8.2.1.1. nalRefIdc is the NAL header's
// nal_ref_idc, which determines whether this picture updates the running
// PrevPicOrderCntMsb/Lsb state.
func ComputePOCType0(s *PocState, sps *SpsData, h *SliceHeader, nalType int, nalRefIdc uint8) (top, bottom int32, err error) {
	maxLsb := int64(sps.MaxPicOrderCntLsb())
	isIDR := nalType == NALTypeIDR

	var prevMsb, prevLsb int32
	if !isIDR {
		prevMsb = s.PrevPicOrderCntMsb
		prevLsb = int32(s.PrevPicOrderCntLsb)
	}

	lsb := int64(h.PicOrderCntLsb)
	pLsb := int64(prevLsb)
	pMsb := int64(prevMsb)

	var msb int64
	switch {
	case lsb < pLsb && (pLsb-lsb) >= maxLsb/2:
		msb = pMsb + maxLsb
	case lsb > pLsb && (lsb-pLsb) > maxLsb/2:
		msb = pMsb - maxLsb
	default:
		msb = pMsb
	}

	switch {
	case h.FieldPicFlag && h.BottomFieldFlag:
		bottom = int32(msb + lsb + int64(h.DeltaPicOrderCntBottom))
	case h.FieldPicFlag:
		top = int32(msb + lsb)
	default:
		top = int32(msb + lsb)
		bottom = top + h.DeltaPicOrderCntBottom
	}

	if IsRefPic(nalRefIdc) {
		s.PrevPicOrderCntMsb = int32(msb)
		s.PrevPicOrderCntLsb = uint32(lsb)
	}
	return top, bottom, nil
}

// ComputePOCType1 would compute POC for pic_order_cnt_type == 1, section
// 8.2.1.2. No Blu-ray-legal authoring tool emits type 1, and decoding it
// correctly requires tracking the full expected-delta cycle from the SPS's
// offset_for_ref_frame list, so it is left unimplemented; callers should
// reject such streams with errUnsupportedPOCType1 before reaching here.
func ComputePOCType1(s *PocState, sps *SpsData, h *SliceHeader, nalType int, nalRefIdc uint8) (top, bottom int32, err error) {
	return 0, 0, errUnsupportedPOCType1
}

// ComputePOCType2 computes picture order count for pic_order_cnt_type == 2,
// section 8.2.1.3: every picture's POC tracks frame_num directly, doubled
// for non-reference pictures' odd offset.
func ComputePOCType2(s *PocState, sps *SpsData, h *SliceHeader, nalType int, nalRefIdc uint8) (top, bottom int32, err error) {
	isIDR := nalType == NALTypeIDR

	var frameNumOffset int64
	switch {
	case isIDR:
		frameNumOffset = 0
	case s.PrevFrameNum > h.FrameNum:
		frameNumOffset = int64(s.PrevFrameNumOffset) + int64(sps.MaxFrameNum())
	default:
		frameNumOffset = int64(s.PrevFrameNumOffset)
	}

	var tempPOC int64
	switch {
	case isIDR:
		tempPOC = 0
	case !IsRefPic(nalRefIdc):
		tempPOC = 2*(frameNumOffset+int64(h.FrameNum)) - 1
	default:
		tempPOC = 2 * (frameNumOffset + int64(h.FrameNum))
	}

	top = int32(tempPOC)
	bottom = int32(tempPOC)

	s.PrevFrameNumOffset = uint32(frameNumOffset)
	s.PrevFrameNum = h.FrameNum
	return top, bottom, nil
}

// CumulativePicOrderCnt returns the pic order count used for DPB output
// ordering: the smaller of top/bottom if both fields are present, following
// section 8.2.1's PicOrderCnt definition.
func CumulativePicOrderCnt(fieldPicFlag bool, bottomFieldFlag bool, top, bottom int32) int32 {
	if !fieldPicFlag {
		if top < bottom {
			return top
		}
		return bottom
	}
	if bottomFieldFlag {
		return bottom
	}
	return top
}
