package hdmv

import "github.com/blu-disc/escore/diag"

// VideoDescriptor is video_descriptor(), spec section 3.2.
type VideoDescriptor struct {
	VideoWidth, VideoHeight uint16
	FrameRateID             uint8 // low nibble of the frame_rate byte.
}

// Composition states, spec section 3.2.
const (
	CompositionStateNormal          = 0x00
	CompositionStateAcquisitionPoint = 0x40
	CompositionStateEpochStart      = 0x80
	CompositionStateEpochContinue   = 0xC0
)

// CompositionDescriptor is composition_descriptor(), spec section 3.2.
type CompositionDescriptor struct {
	CompositionNumber uint16
	CompositionState  uint8
}

// CompositionObject is one composition_object() entry referenced by a PCS,
// spec section 4.4.4.
type CompositionObject struct {
	ObjectIDRef   uint16
	WindowIDRef   uint8
	Cropped       bool
	ForcedOnFlag  bool
	X, Y          uint16
	CropX, CropY  uint16
	CropW, CropH  uint16
}

// PresentationComposition is the PCS payload, spec section 3.2.
type PresentationComposition struct {
	Video                 VideoDescriptor
	Composition           CompositionDescriptor
	PaletteUpdateFlag     bool
	PaletteIDRef          uint8
	CompositionObjects    []CompositionObject
}

// ParsePresentationComposition decodes a PCS payload.
func ParsePresentationComposition(payload []byte, offset int64) (*PresentationComposition, error) {
	c := newCursor(payload)
	p := &PresentationComposition{}

	vw, err := c.u16()
	if err != nil {
		return nil, diag.NewParserError(offset, "video_width", err)
	}
	p.Video.VideoWidth = vw
	vh, err := c.u16()
	if err != nil {
		return nil, diag.NewParserError(offset, "video_height", err)
	}
	p.Video.VideoHeight = vh
	fr, err := c.u8()
	if err != nil {
		return nil, diag.NewParserError(offset, "frame_rate", err)
	}
	p.Video.FrameRateID = fr & 0x0F

	cn, err := c.u16()
	if err != nil {
		return nil, diag.NewParserError(offset, "composition_number", err)
	}
	p.Composition.CompositionNumber = cn
	cs, err := c.u8()
	if err != nil {
		return nil, diag.NewParserError(offset, "composition_state", err)
	}
	p.Composition.CompositionState = cs

	puf, err := c.u8()
	if err != nil {
		return nil, diag.NewParserError(offset, "palette_update_flag", err)
	}
	p.PaletteUpdateFlag = puf&0x80 != 0

	pid, err := c.u8()
	if err != nil {
		return nil, diag.NewParserError(offset, "palette_id_ref", err)
	}
	p.PaletteIDRef = pid

	n, err := c.u8()
	if err != nil {
		return nil, diag.NewParserError(offset, "number_of_composition_objects", err)
	}
	for i := 0; i < int(n); i++ {
		co, err := parseCompositionObject(c, offset)
		if err != nil {
			return nil, err
		}
		p.CompositionObjects = append(p.CompositionObjects, co)
	}
	return p, nil
}

func parseCompositionObject(c *cursor, offset int64) (CompositionObject, error) {
	var co CompositionObject
	oid, err := c.u16()
	if err != nil {
		return co, diag.NewParserError(offset, "object_id_ref", err)
	}
	co.ObjectIDRef = oid
	wid, err := c.u8()
	if err != nil {
		return co, diag.NewParserError(offset, "window_id_ref", err)
	}
	co.WindowIDRef = wid
	flags, err := c.u8()
	if err != nil {
		return co, diag.NewParserError(offset, "object_cropped_flag", err)
	}
	co.Cropped = flags&0x80 != 0
	co.ForcedOnFlag = flags&0x40 != 0
	if co.X, err = c.u16(); err != nil {
		return co, diag.NewParserError(offset, "composition_object_horizontal_position", err)
	}
	if co.Y, err = c.u16(); err != nil {
		return co, diag.NewParserError(offset, "composition_object_vertical_position", err)
	}
	if co.Cropped {
		if co.CropX, err = c.u16(); err != nil {
			return co, diag.NewParserError(offset, "object_cropping_horizontal_position", err)
		}
		if co.CropY, err = c.u16(); err != nil {
			return co, diag.NewParserError(offset, "object_cropping_vertical_position", err)
		}
		if co.CropW, err = c.u16(); err != nil {
			return co, diag.NewParserError(offset, "object_cropping_width", err)
		}
		if co.CropH, err = c.u16(); err != nil {
			return co, diag.NewParserError(offset, "object_cropping_height", err)
		}
	}
	return co, nil
}
