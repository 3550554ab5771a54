package h264

import (
	"github.com/blu-disc/escore/bits"
	"github.com/blu-disc/escore/diag"
)

// NAL unit types, as defined by table 7-1 in Rec. ITU-T H.264.
const (
	NALTypeUnspecified0   = 0
	NALTypeNonIDR         = 1
	NALTypeDataPartitionA = 2
	NALTypeDataPartitionB = 3
	NALTypeDataPartitionC = 4
	NALTypeIDR            = 5
	NALTypeSEI            = 6
	NALTypeSPS            = 7
	NALTypePPS            = 8
	NALTypeAUD            = 9
	NALTypeEndOfSeq       = 10
	NALTypeEndOfStream    = 11
	NALTypeFiller         = 12
	NALTypeSPSExt         = 13
	NALTypePrefix         = 14
	NALTypeSubsetSPS      = 15
	NALTypeSliceLayerExt1 = 20
	NALTypeSliceLayerExt2 = 21
)

// acceptedNALTypes lists the nal_unit_type values accepted for a Blu-ray
// core H.264 stream (spec section 6.1). Data partitioning (2-4) and
// MVC/3D-AVC extension types (14, 20, 21) are rejected.
var acceptedNALTypes = map[int]bool{
	NALTypeNonIDR:      true,
	NALTypeIDR:         true,
	NALTypeSEI:         true,
	NALTypeSPS:         true,
	NALTypePPS:         true,
	NALTypeAUD:         true,
	NALTypeEndOfSeq:    true,
	NALTypeEndOfStream: true,
	NALTypeFiller:      true,
}

var unsupportedNALTypes = map[int]bool{
	NALTypeSliceLayerExt1: true, // MVC
	NALTypeSliceLayerExt2: true, // 3D-AVC
	NALTypePrefix:         true, // MVC/SVC prefix.
}

// NALHeader describes the header of a network abstraction layer unit, as
// defined in section 7.3.1 of Rec. ITU-T H.264.
type NALHeader struct {
	ForbiddenZeroBit uint8
	RefIdc           uint8
	Type             int
}

// ParseNALHeader reads forbidden_zero_bit, nal_ref_idc, and nal_unit_type
// from br. It rejects MVC/3D-AVC extension types as Unsupported and any
// forbidden_zero_bit that is not zero as a ParserError.
func ParseNALHeader(br *bits.Reader, offset int64) (NALHeader, error) {
	var h NALHeader
	fz, err := br.ReadBits(1)
	if err != nil {
		return h, diag.NewParserError(offset, "forbidden_zero_bit", err)
	}
	h.ForbiddenZeroBit = uint8(fz)
	if h.ForbiddenZeroBit != 0 {
		return h, diag.NewParserError(offset, "forbidden_zero_bit", errNonZeroForbiddenBit)
	}

	ri, err := br.ReadBits(2)
	if err != nil {
		return h, diag.NewParserError(offset, "nal_ref_idc", err)
	}
	h.RefIdc = uint8(ri)

	ty, err := br.ReadBits(5)
	if err != nil {
		return h, diag.NewParserError(offset, "nal_unit_type", err)
	}
	h.Type = int(ty)

	if unsupportedNALTypes[h.Type] {
		return h, diag.NewParserError(offset, "nal_unit_type", errUnsupportedNALType)
	}
	return h, nil
}

// IsVCL reports whether t is a coded-slice NAL unit type.
func IsVCL(t int) bool { return t == NALTypeNonIDR || t == NALTypeIDR }

// AccessUnitDelimiter describes an access unit delimiter NAL, as defined by
// section 7.3.2.4.
type AccessUnitDelimiter struct {
	PrimaryPicType uint8
}

// ParseAUD parses an access_unit_delimiter_rbsp. primary_pic_type values
// above 7 are reserved and rejected.
func ParseAUD(br *bits.Reader, offset int64) (*AccessUnitDelimiter, error) {
	v, err := br.ReadBits(3)
	if err != nil {
		return nil, diag.NewParserError(offset, "primary_pic_type", err)
	}
	if v > 7 {
		return nil, diag.NewParserError(offset, "primary_pic_type", errReservedPrimaryPicType)
	}
	return &AccessUnitDelimiter{PrimaryPicType: uint8(v)}, nil
}
