package hdmv

import "testing"

func buildODSPayload(objID uint16, w, h uint16, rld []byte) []byte {
	odl := uint32(len(rld) + 4)
	return []byte{
		byte(objID >> 8), byte(objID),
		0x00, // object_version_number
		byte(odl >> 16), byte(odl >> 8), byte(odl),
		byte(w >> 8), byte(w),
		byte(h >> 8), byte(h),
	}
	// rld appended by caller via append, kept separate for readability.
}

func TestParseObjectDefinition(t *testing.T) {
	rld := []byte{0xAA, 0xBB, 0xCC}
	payload := append(buildODSPayload(7, 1280, 720, rld), rld...)

	od, err := ParseObjectDefinition(payload, 0)
	if err != nil {
		t.Fatalf("ParseObjectDefinition: %v", err)
	}
	if od.ObjectID != 7 || od.ObjectWidth != 1280 || od.ObjectHeight != 720 {
		t.Errorf("unexpected header: %+v", od)
	}
	if string(od.RunLengthData) != string(rld) {
		t.Errorf("RunLengthData = %v, want %v", od.RunLengthData, rld)
	}
}

func TestParseObjectDefinitionRejectsShortDataLength(t *testing.T) {
	payload := []byte{0, 1, 0x00, 0x00, 0x00, 0x02, 0x00, 0x10, 0x00, 0x10}
	if _, err := ParseObjectDefinition(payload, 0); err == nil {
		t.Fatalf("expected error for object_data_length < 4")
	}
}

func TestParseObjectDefinitionRejectsTruncatedRunLengthData(t *testing.T) {
	rld := []byte{0xAA, 0xBB, 0xCC}
	payload := buildODSPayload(1, 10, 10, rld) // rld declared but not appended.
	if _, err := ParseObjectDefinition(payload, 0); err == nil {
		t.Fatalf("expected error for truncated run_length_data")
	}
}
