package h264

import "github.com/pkg/errors"

var (
	errNonZeroForbiddenBit    = errors.New("forbidden_zero_bit is not zero")
	errUnsupportedNALType     = errors.New("MVC/3D-AVC nal_unit_type is unsupported")
	errReservedPrimaryPicType = errors.New("primary_pic_type is a reserved value")
	errInvalidStartCode       = errors.New("invalid start code")
	errNonZeroSPSID           = errors.New("seq_parameter_set_id must be 0 for Blu-ray")
	errNonZeroPPSSPSID        = errors.New("pic parameter set must reference seq_parameter_set_id 0")
	errUnsupportedPOCType1    = errors.New("pic_order_cnt_type 1 decoding is not implemented")
	errOutOfRange             = errors.New("value out of allowed range")
	errNotStrictlyIncreasing  = errors.New("value must strictly increase with SchedSelIdx")
	errNotNonIncreasing       = errors.New("value must not increase with SchedSelIdx")
	errNoActiveParameterSets  = errors.New("slice NAL arrived before an active SPS/PPS")
)
