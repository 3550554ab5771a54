package hdmv

import "testing"

func buildPCSPayload(state uint8, paletteID uint8, objs []CompositionObject) []byte {
	payload := []byte{
		0x07, 0x80, // video_width = 1920
		0x04, 0x38, // video_height = 1080
		0x10,       // frame_rate (low nibble matters)
		0x00, 0x01, // composition_number
		state,
		0x80, // palette_update_flag=1
		paletteID,
		byte(len(objs)),
	}
	for _, o := range objs {
		payload = append(payload,
			byte(o.ObjectIDRef>>8), byte(o.ObjectIDRef),
			o.WindowIDRef,
			0x00, // not cropped
			byte(o.X>>8), byte(o.X),
			byte(o.Y>>8), byte(o.Y),
		)
	}
	return payload
}

func TestParsePresentationComposition(t *testing.T) {
	objs := []CompositionObject{{ObjectIDRef: 3, WindowIDRef: 1, X: 10, Y: 20}}
	payload := buildPCSPayload(CompositionStateEpochStart, 5, objs)

	pcs, err := ParsePresentationComposition(payload, 0)
	if err != nil {
		t.Fatalf("ParsePresentationComposition: %v", err)
	}
	if pcs.Video.VideoWidth != 1920 || pcs.Video.VideoHeight != 1080 {
		t.Errorf("unexpected video descriptor: %+v", pcs.Video)
	}
	if pcs.Composition.CompositionState != CompositionStateEpochStart {
		t.Errorf("composition_state = %#x, want EpochStart", pcs.Composition.CompositionState)
	}
	if !pcs.PaletteUpdateFlag || pcs.PaletteIDRef != 5 {
		t.Errorf("unexpected palette fields: update=%v id=%d", pcs.PaletteUpdateFlag, pcs.PaletteIDRef)
	}
	if len(pcs.CompositionObjects) != 1 || pcs.CompositionObjects[0].X != 10 {
		t.Fatalf("unexpected composition objects: %+v", pcs.CompositionObjects)
	}
}

func TestParsePresentationCompositionWithCrop(t *testing.T) {
	payload := []byte{
		0x07, 0x80, 0x04, 0x38, 0x10,
		0x00, 0x01, CompositionStateNormal,
		0x00, 0x00,
		0x01, // one composition object
		0x00, 0x01, // object_id_ref
		0x02,       // window_id_ref
		0x80,       // cropped
		0x00, 0x05, // x
		0x00, 0x06, // y
		0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, // crop x,y,w,h
	}
	pcs, err := ParsePresentationComposition(payload, 0)
	if err != nil {
		t.Fatalf("ParsePresentationComposition: %v", err)
	}
	co := pcs.CompositionObjects[0]
	if !co.Cropped || co.CropW != 3 || co.CropH != 4 {
		t.Errorf("unexpected crop fields: %+v", co)
	}
}
