package h264

import (
	"crypto/sha256"

	"github.com/blu-disc/escore/bits"
)

// RebuildOptions controls what PatchSPS rewrites, per spec section 4.2's
// patching rules.
type RebuildOptions struct {
	FPSChange   float64 // 0 means "do not override".
	ARChange    uint8   // 0 means "do not override"; aspect_ratio_idc to force.
	LevelChange uint8   // 0 means "do not override".
}

const targetCpbRemovalDelayLengthBits = 18

// PatchSPS rewrites sps's VUI and HRD parameters per the patching rules:
// force video_signal_type_present_flag=1 with resolution-derived colour
// primaries, optionally override frame rate / SAR / level, and normalize
// both HRD configurations' initial_cpb_removal_delay_length_minus1+1 to 18
// bits. It mutates sps in place and returns the encoded RBSP bytes.
func PatchSPS(sps *SpsData, opt RebuildOptions) []byte {
	if sps.VUI == nil {
		sps.VUI = &VuiParameters{}
		sps.VuiParametersPresentFlag = true
	}
	v := sps.VUI

	v.VideoSignalTypePresentFlag = true
	v.ColourDescriptionPresentFlag = true
	v.ColourPrimaries, v.TransferCharacteristics, v.MatrixCoefficients = ColourPrimariesDefault(sps.DisplayHeight())

	if opt.FPSChange > 0 {
		v.TimingInfoPresentFlag = true
		v.FixedFrameRateFlag = true
		v.TimeScale = uint32(opt.FPSChange * 2000)
		v.NumUnitsInTick = 1000
	}
	if opt.ARChange != 0 {
		v.AspectRatioInfoPresentFlag = true
		v.AspectRatioIdc = opt.ARChange
	}
	if opt.LevelChange != 0 {
		sps.LevelIdc = opt.LevelChange
	}

	normalizeHRD(v.NALHrdParameters)
	normalizeHRD(v.VCLHrdParameters)

	return EncodeSPS(sps)
}

func normalizeHRD(h *HrdParameters) {
	if h == nil {
		return
	}
	h.InitialCpbRemovalDelayLengthMinus1 = targetCpbRemovalDelayLengthBits - 1
}

// SPSPool deduplicates rebuilt SPS payloads by content so that repeated
// identical rewrites can be emitted as an add-data-block reference into a
// shared pool slot instead of a fresh add-data command, per spec section
// 4.2's patching rule.
type SPSPool struct {
	slots map[[32]byte]int
	data  [][]byte
}

// NewSPSPool constructs an empty pool.
func NewSPSPool() *SPSPool {
	return &SPSPool{slots: make(map[[32]byte]int)}
}

// Intern returns the pool slot index holding payload, allocating a new slot
// (and reporting isNew=true) if an identical payload is not already present.
func (p *SPSPool) Intern(payload []byte) (slot int, isNew bool) {
	key := sha256.Sum256(payload)
	if idx, ok := p.slots[key]; ok {
		return idx, false
	}
	idx := len(p.data)
	p.data = append(p.data, payload)
	p.slots[key] = idx
	return idx, true
}

// Slot returns the payload stored at idx.
func (p *SPSPool) Slot(idx int) []byte { return p.data[idx] }

// EncodeSPS serializes sps back into a seq_parameter_set_rbsp, the inverse
// of ParseSPS, for use by PatchSPS and by tests that round-trip a parsed
// SPS.
func EncodeSPS(sps *SpsData) []byte {
	w := bits.NewWriter(true)
	w.WriteBits(uint64(sps.ProfileIdc), 8)
	for _, f := range []bool{
		sps.Constraints.Set0, sps.Constraints.Set1, sps.Constraints.Set2,
		sps.Constraints.Set3, sps.Constraints.Set4, sps.Constraints.Set5,
	} {
		w.WriteBits(boolBit(f), 1)
	}
	w.WriteBits(uint64(sps.Constraints.Reserved), 2)
	w.WriteBits(uint64(sps.LevelIdc), 8)
	w.WriteUE(sps.SeqParameterSetID)

	if sps.HasHighFields {
		w.WriteUE(sps.ChromaFormatIdc)
		if sps.ChromaFormatIdc == Chroma444 {
			w.WriteBits(boolBit(sps.SeparateColourPlaneFlag), 1)
		}
		w.WriteUE(sps.BitDepthLumaMinus8)
		w.WriteUE(sps.BitDepthChromaMinus8)
		w.WriteBits(boolBit(sps.QpPrimeYZeroTransformBypassFlag), 1)
		w.WriteBits(boolBit(sps.SeqScalingMatrixPresentFlag), 1)
	}

	w.WriteUE(sps.Log2MaxFrameNumMinus4)
	w.WriteUE(sps.PicOrderCntType)
	switch sps.PicOrderCntType {
	case 0:
		w.WriteUE(sps.Log2MaxPicOrderCntLsbMinus4)
	case 1:
		w.WriteBits(boolBit(sps.DeltaPicOrderAlwaysZeroFlag), 1)
		w.WriteSE(sps.OffsetForNonRefPic)
		w.WriteSE(sps.OffsetForTopToBottomField)
		w.WriteUE(sps.NumRefFramesInPicOrderCntCycle)
		for _, o := range sps.OffsetForRefFrame {
			w.WriteSE(o)
		}
	}

	w.WriteUE(sps.MaxNumRefFrames)
	w.WriteBits(boolBit(sps.GapsInFrameNumValueAllowedFlag), 1)
	w.WriteUE(sps.PicWidthInMbsMinus1)
	w.WriteUE(sps.PicHeightInMapUnitsMinus1)
	w.WriteBits(boolBit(sps.FrameMbsOnlyFlag), 1)
	if !sps.FrameMbsOnlyFlag {
		w.WriteBits(boolBit(sps.MbAdaptiveFrameFieldFlag), 1)
	}
	w.WriteBits(boolBit(sps.Direct8x8InferenceFlag), 1)

	w.WriteBits(boolBit(sps.FrameCroppingFlag), 1)
	if sps.FrameCroppingFlag {
		w.WriteUE(sps.CropLeft)
		w.WriteUE(sps.CropRight)
		w.WriteUE(sps.CropTop)
		w.WriteUE(sps.CropBottom)
	}

	w.WriteBits(boolBit(sps.VuiParametersPresentFlag), 1)
	if sps.VuiParametersPresentFlag {
		encodeVUI(w, sps.VUI)
	}

	return w.Finalize()
}

func encodeVUI(w *bits.Writer, v *VuiParameters) {
	w.WriteBits(boolBit(v.AspectRatioInfoPresentFlag), 1)
	if v.AspectRatioInfoPresentFlag {
		w.WriteBits(uint64(v.AspectRatioIdc), 8)
		if int(v.AspectRatioIdc) == extendedSAR {
			w.WriteBits(uint64(v.SARWidth), 16)
			w.WriteBits(uint64(v.SARHeight), 16)
		}
	}
	w.WriteBits(boolBit(v.OverscanInfoPresentFlag), 1)
	if v.OverscanInfoPresentFlag {
		w.WriteBits(boolBit(v.OverscanAppropriateFlag), 1)
	}
	w.WriteBits(boolBit(v.VideoSignalTypePresentFlag), 1)
	if v.VideoSignalTypePresentFlag {
		w.WriteBits(uint64(v.VideoFormat), 3)
		w.WriteBits(boolBit(v.VideoFullRangeFlag), 1)
		w.WriteBits(boolBit(v.ColourDescriptionPresentFlag), 1)
		if v.ColourDescriptionPresentFlag {
			w.WriteBits(uint64(v.ColourPrimaries), 8)
			w.WriteBits(uint64(v.TransferCharacteristics), 8)
			w.WriteBits(uint64(v.MatrixCoefficients), 8)
		}
	}
	w.WriteBits(boolBit(v.ChromaLocInfoPresentFlag), 1)
	if v.ChromaLocInfoPresentFlag {
		w.WriteUE(v.ChromaSampleLocTypeTopField)
		w.WriteUE(v.ChromaSampleLocTypeBottomField)
	}
	w.WriteBits(boolBit(v.TimingInfoPresentFlag), 1)
	if v.TimingInfoPresentFlag {
		w.WriteBits(uint64(v.NumUnitsInTick), 32)
		w.WriteBits(uint64(v.TimeScale), 32)
		w.WriteBits(boolBit(v.FixedFrameRateFlag), 1)
	}
	w.WriteBits(boolBit(v.NALHrdParametersPresentFlag), 1)
	if v.NALHrdParametersPresentFlag {
		encodeHRD(w, v.NALHrdParameters)
	}
	w.WriteBits(boolBit(v.VCLHrdParametersPresentFlag), 1)
	if v.VCLHrdParametersPresentFlag {
		encodeHRD(w, v.VCLHrdParameters)
	}
	if v.NALHrdParametersPresentFlag || v.VCLHrdParametersPresentFlag {
		w.WriteBits(boolBit(v.LowDelayHrdFlag), 1)
	}
	w.WriteBits(boolBit(v.PicStructPresentFlag), 1)
	w.WriteBits(boolBit(v.BitstreamRestrictionFlag), 1)
	if v.BitstreamRestrictionFlag {
		w.WriteBits(boolBit(v.MotionVectorsOverPicBoundariesFlag), 1)
		w.WriteUE(v.MaxBytesPerPicDenom)
		w.WriteUE(v.MaxBitsPerMbDenom)
		w.WriteUE(v.Log2MaxMvLengthHorizontal)
		w.WriteUE(v.Log2MaxMvLengthVertical)
		w.WriteUE(v.MaxNumReorderFrames)
		w.WriteUE(v.MaxDecFrameBuffering)
	}
}

func encodeHRD(w *bits.Writer, h *HrdParameters) {
	w.WriteUE(h.CpbCntMinus1)
	w.WriteBits(uint64(h.BitRateScale), 4)
	w.WriteBits(uint64(h.CPBSizeScale), 4)
	for i := uint32(0); i <= h.CpbCntMinus1; i++ {
		w.WriteUE(h.BitRateValueMinus1[i])
		w.WriteUE(h.CPBSizeValueMinus1[i])
		w.WriteBits(boolBit(h.CbrFlag[i]), 1)
	}
	w.WriteBits(uint64(h.InitialCpbRemovalDelayLengthMinus1), 5)
	w.WriteBits(uint64(h.CpbRemovalDelayLengthMinus1), 5)
	w.WriteBits(uint64(h.DpbOutputDelayLengthMinus1), 5)
	w.WriteBits(uint64(h.TimeOffsetLength), 5)
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
