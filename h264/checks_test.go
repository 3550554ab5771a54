package h264

import "testing"

func TestValidateSliceTypeRejectsTypeOutsideProfileMask(t *testing.T) {
	sink := &captureSink{}
	if err := ValidateSliceType(SliceTypeSI, ProfileHigh, nil, sink); err == nil {
		t.Fatal("expected a compliance error for an SI slice under the High profile")
	}
}

func TestValidateSliceTypeAllowsMaskedTypes(t *testing.T) {
	for _, st := range []uint32{SliceTypeI, SliceTypeP, SliceTypeB} {
		if err := ValidateSliceType(st, ProfileHigh, nil, nil); err != nil {
			t.Errorf("slice_type %d: unexpected error %v", st, err)
		}
	}
}

func TestValidateSliceTypeRejectsAUDMismatch(t *testing.T) {
	aud := &AccessUnitDelimiter{PrimaryPicType: 0} // I slices only.
	if err := ValidateSliceType(SliceTypeP, ProfileHigh, aud, nil); err == nil {
		t.Fatal("expected a compliance error for a P slice under primary_pic_type 0")
	}
}

func TestValidateSliceTypeAllowsAUDMatch(t *testing.T) {
	aud := &AccessUnitDelimiter{PrimaryPicType: 1} // I, P.
	if err := ValidateSliceType(SliceTypeP, ProfileHigh, aud, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
