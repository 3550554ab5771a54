package hdmv

import (
	"bytes"

	"github.com/blu-disc/escore/bits"
	"github.com/blu-disc/escore/diag"
)

// Stream/user-interface models, spec section 3.2.
const (
	StreamModelOutOfMux   = 0
	StreamModelMultiplexed = 1

	UserInterfaceModelPopUp    = 0
	UserInterfaceModelAlwaysOn = 1
)

// NavigationCommand is an opaque navigation command triple, spec section
// 3.2. The core does not interpret opcodes; it only carries them through
// to reassembled output.
type NavigationCommand struct {
	Opcode, Destination, Source uint32
}

// NeighborInfo is a button's neighbor_info, spec section 3.2.
type NeighborInfo struct {
	Up, Down, Left, Right uint16
}

// ButtonStateInfo is one of a button's normal/selected/activated state
// descriptions, spec section 3.2.
type ButtonStateInfo struct {
	StartObjectIDRef, EndObjectIDRef uint16
	RepeatFlag, CompleteFlag         bool
	SoundIDRefPresent                bool
	SoundIDRef                       uint8
}

// Button is one button(), spec section 3.2.
type Button struct {
	ButtonID                 uint16
	ButtonNumericSelectValue uint16
	AutoActionFlag           bool
	X, Y                     uint16
	Neighbor                 NeighborInfo
	Normal, Selected, Activated ButtonStateInfo
	NavigationCommands       []NavigationCommand
}

// BOG is a button_overlap_group(), spec section 3.2.
type BOG struct {
	DefaultValidButtonIDRef uint16
	Buttons                 []Button
}

// Effect is one effect() in an in/out effect sequence: a window reference
// plus the composition objects drawn into it for this effect.
type Effect struct {
	WindowIDRef        uint8
	CompositionObjects []CompositionObject
}

// EffectSequence is in_effects or out_effects, spec section 3.2.
type EffectSequence struct {
	Effects []Effect
}

// Page is one page(), spec section 3.2.
type Page struct {
	PageID                      uint8
	PageVersion                 uint8
	UOMaskTable                 uint64
	InEffects, OutEffects       EffectSequence
	AnimationFrameRateCode      uint8
	DefaultSelectedButtonIDRef  uint16
	DefaultActivatedButtonIDRef uint16
	PaletteIDRef                uint8
	BOGs                        []BOG
}

// InteractiveComposition is the reassembled ICS payload, spec section 3.2.
type InteractiveComposition struct {
	Length                 uint32
	StreamModel            int
	UserInterfaceModel     int
	OutOfMuxTimingPresent  bool
	CompositionTimeOutPTS  uint64
	SelectionTimeOutPTS    uint64
	UserTimeOutDuration    uint32
	Pages                  []Page
}

// ParseInteractiveComposition decodes a reassembled ICS payload.
func ParseInteractiveComposition(payload []byte, offset int64) (*InteractiveComposition, error) {
	br := bits.NewReader(bytes.NewReader(payload))
	ic := &InteractiveComposition{}

	length, err := br.ReadBits(24)
	if err != nil {
		return nil, diag.NewParserError(offset, "interactive_composition_length", err)
	}
	ic.Length = uint32(length)

	sm, err := br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "stream_model", err)
	}
	ic.StreamModel = int(sm)
	uim, err := br.ReadBits(1)
	if err != nil {
		return nil, diag.NewParserError(offset, "user_interface_model", err)
	}
	ic.UserInterfaceModel = int(uim)
	if _, err := br.ReadBits(6); err != nil { // reserved
		return nil, diag.NewParserError(offset, "reserved", err)
	}

	if ic.StreamModel == StreamModelOutOfMux {
		ic.OutOfMuxTimingPresent = true
		v, err := read33(br)
		if err != nil {
			return nil, diag.NewParserError(offset, "composition_time_out_pts", err)
		}
		ic.CompositionTimeOutPTS = v
		v, err = read33(br)
		if err != nil {
			return nil, diag.NewParserError(offset, "selection_time_out_pts", err)
		}
		ic.SelectionTimeOutPTS = v
	}

	utd, err := br.ReadBits(24)
	if err != nil {
		return nil, diag.NewParserError(offset, "user_time_out_duration", err)
	}
	ic.UserTimeOutDuration = uint32(utd)

	numPages, err := br.ReadBits(8)
	if err != nil {
		return nil, diag.NewParserError(offset, "number_of_pages", err)
	}
	for i := uint64(0); i < numPages; i++ {
		p, err := parsePage(br, offset)
		if err != nil {
			return nil, err
		}
		ic.Pages = append(ic.Pages, p)
	}
	return ic, nil
}

// read33 reads a 33-bit value (a PTS field) as two reads, staying within
// Reader.ReadBits' documented 32-bit-per-call limit.
func read33(br *bits.Reader) (uint64, error) {
	hi, err := br.ReadBits(1)
	if err != nil {
		return 0, err
	}
	lo, err := br.ReadBits(32)
	if err != nil {
		return 0, err
	}
	return hi<<32 | lo, nil
}

// skipBytes discards n bytes, used for window_info() entries in an effect
// sequence that the WDS already carries in full.
func skipBytes(br *bits.Reader, n int) error {
	for i := 0; i < n; i++ {
		if _, err := br.ReadBits(8); err != nil {
			return err
		}
	}
	return nil
}

func parseEffectSequence(br *bits.Reader, offset int64) (EffectSequence, error) {
	var es EffectSequence
	numWindows, err := br.ReadBits(8)
	if err != nil {
		return es, diag.NewParserError(offset, "number_of_windows(effect_sequence)", err)
	}
	// window_info() entries (id+x+y+w+h = 9 bytes each) are not separately
	// useful beyond the WDS already carrying them; they are consumed here
	// only to keep bit position correct.
	if err := skipBytes(br, int(numWindows)*9); err != nil {
		return es, diag.NewParserError(offset, "window_info", err)
	}
	numEffects, err := br.ReadBits(8)
	if err != nil {
		return es, diag.NewParserError(offset, "number_of_effects", err)
	}
	for i := uint64(0); i < numEffects; i++ {
		var e Effect
		if _, err := br.ReadBits(24); err != nil { // effect_duration
			return es, diag.NewParserError(offset, "effect_duration", err)
		}
		wid, err := br.ReadBits(8)
		if err != nil {
			return es, diag.NewParserError(offset, "palette_id_ref(effect)", err)
		}
		e.WindowIDRef = uint8(wid)
		numObjs, err := br.ReadBits(8)
		if err != nil {
			return es, diag.NewParserError(offset, "number_of_composition_objects(effect)", err)
		}
		for j := uint64(0); j < numObjs; j++ {
			co, err := parseCompositionObjectBits(br, offset)
			if err != nil {
				return es, err
			}
			e.CompositionObjects = append(e.CompositionObjects, co)
		}
		es.Effects = append(es.Effects, e)
	}
	return es, nil
}

func parseCompositionObjectBits(br *bits.Reader, offset int64) (CompositionObject, error) {
	var co CompositionObject
	oid, err := br.ReadBits(16)
	if err != nil {
		return co, diag.NewParserError(offset, "object_id_ref", err)
	}
	co.ObjectIDRef = uint16(oid)
	wid, err := br.ReadBits(8)
	if err != nil {
		return co, diag.NewParserError(offset, "window_id_ref", err)
	}
	co.WindowIDRef = uint8(wid)
	flags, err := br.ReadBits(8)
	if err != nil {
		return co, diag.NewParserError(offset, "object_cropped_flag", err)
	}
	co.Cropped = flags&0x80 != 0
	co.ForcedOnFlag = flags&0x40 != 0
	x, err := br.ReadBits(16)
	if err != nil {
		return co, diag.NewParserError(offset, "composition_object_horizontal_position", err)
	}
	co.X = uint16(x)
	y, err := br.ReadBits(16)
	if err != nil {
		return co, diag.NewParserError(offset, "composition_object_vertical_position", err)
	}
	co.Y = uint16(y)
	if co.Cropped {
		v, err := br.ReadBits(16)
		if err != nil {
			return co, diag.NewParserError(offset, "object_cropping_horizontal_position", err)
		}
		co.CropX = uint16(v)
		if v, err = br.ReadBits(16); err != nil {
			return co, diag.NewParserError(offset, "object_cropping_vertical_position", err)
		}
		co.CropY = uint16(v)
		if v, err = br.ReadBits(16); err != nil {
			return co, diag.NewParserError(offset, "object_cropping_width", err)
		}
		co.CropW = uint16(v)
		if v, err = br.ReadBits(16); err != nil {
			return co, diag.NewParserError(offset, "object_cropping_height", err)
		}
		co.CropH = uint16(v)
	}
	return co, nil
}

func parsePage(br *bits.Reader, offset int64) (Page, error) {
	var p Page
	id, err := br.ReadBits(8)
	if err != nil {
		return p, diag.NewParserError(offset, "page_id", err)
	}
	p.PageID = uint8(id)
	ver, err := br.ReadBits(8)
	if err != nil {
		return p, diag.NewParserError(offset, "page_version", err)
	}
	p.PageVersion = uint8(ver)
	uoHi, err := br.ReadBits(32)
	if err != nil {
		return p, diag.NewParserError(offset, "UO_mask_table", err)
	}
	uoLo, err := br.ReadBits(32)
	if err != nil {
		return p, diag.NewParserError(offset, "UO_mask_table", err)
	}
	p.UOMaskTable = uoHi<<32 | uoLo

	p.InEffects, err = parseEffectSequence(br, offset)
	if err != nil {
		return p, err
	}
	p.OutEffects, err = parseEffectSequence(br, offset)
	if err != nil {
		return p, err
	}

	afr, err := br.ReadBits(8)
	if err != nil {
		return p, diag.NewParserError(offset, "animation_frame_rate_code", err)
	}
	p.AnimationFrameRateCode = uint8(afr)
	dsb, err := br.ReadBits(16)
	if err != nil {
		return p, diag.NewParserError(offset, "default_selected_button_id_ref", err)
	}
	p.DefaultSelectedButtonIDRef = uint16(dsb)
	dab, err := br.ReadBits(16)
	if err != nil {
		return p, diag.NewParserError(offset, "default_activated_button_id_ref", err)
	}
	p.DefaultActivatedButtonIDRef = uint16(dab)
	pid, err := br.ReadBits(8)
	if err != nil {
		return p, diag.NewParserError(offset, "palette_id_ref", err)
	}
	p.PaletteIDRef = uint8(pid)

	numBOGs, err := br.ReadBits(8)
	if err != nil {
		return p, diag.NewParserError(offset, "number_of_BOGs", err)
	}
	for i := uint64(0); i < numBOGs; i++ {
		b, err := parseBOG(br, offset)
		if err != nil {
			return p, err
		}
		p.BOGs = append(p.BOGs, b)
	}
	return p, nil
}

func parseBOG(br *bits.Reader, offset int64) (BOG, error) {
	var bog BOG
	def, err := br.ReadBits(16)
	if err != nil {
		return bog, diag.NewParserError(offset, "default_valid_button_id_ref", err)
	}
	bog.DefaultValidButtonIDRef = uint16(def)
	numButtons, err := br.ReadBits(8)
	if err != nil {
		return bog, diag.NewParserError(offset, "number_of_buttons", err)
	}
	for i := uint64(0); i < numButtons; i++ {
		b, err := parseButton(br, offset)
		if err != nil {
			return bog, err
		}
		bog.Buttons = append(bog.Buttons, b)
	}
	return bog, nil
}

func parseButton(br *bits.Reader, offset int64) (Button, error) {
	var b Button
	id, err := br.ReadBits(16)
	if err != nil {
		return b, diag.NewParserError(offset, "button_id", err)
	}
	b.ButtonID = uint16(id)
	nsv, err := br.ReadBits(16)
	if err != nil {
		return b, diag.NewParserError(offset, "button_numeric_select_value", err)
	}
	b.ButtonNumericSelectValue = uint16(nsv)
	aaf, err := br.ReadBits(8)
	if err != nil {
		return b, diag.NewParserError(offset, "auto_action_flag", err)
	}
	b.AutoActionFlag = aaf&0x80 != 0
	x, err := br.ReadBits(16)
	if err != nil {
		return b, diag.NewParserError(offset, "button_horizontal_position", err)
	}
	b.X = uint16(x)
	y, err := br.ReadBits(16)
	if err != nil {
		return b, diag.NewParserError(offset, "button_vertical_position", err)
	}
	b.Y = uint16(y)

	readID := func(field string) (uint16, error) {
		v, err := br.ReadBits(16)
		if err != nil {
			return 0, diag.NewParserError(offset, field, err)
		}
		return uint16(v), nil
	}
	var nerr error
	if b.Neighbor.Up, nerr = readID("upper_button_id_ref"); nerr != nil {
		return b, nerr
	}
	if b.Neighbor.Down, nerr = readID("lower_button_id_ref"); nerr != nil {
		return b, nerr
	}
	if b.Neighbor.Left, nerr = readID("left_button_id_ref"); nerr != nil {
		return b, nerr
	}
	if b.Neighbor.Right, nerr = readID("right_button_id_ref"); nerr != nil {
		return b, nerr
	}

	var serr error
	if b.Normal, serr = parseButtonStateInfo(br, offset); serr != nil {
		return b, serr
	}
	if b.Selected, serr = parseButtonStateInfo(br, offset); serr != nil {
		return b, serr
	}
	if b.Activated, serr = parseButtonStateInfoNoSound(br, offset); serr != nil {
		return b, serr
	}

	numCmds, err := br.ReadBits(16)
	if err != nil {
		return b, diag.NewParserError(offset, "number_of_navigation_commands", err)
	}
	for i := uint64(0); i < numCmds; i++ {
		var nc NavigationCommand
		v, err := br.ReadBits(32)
		if err != nil {
			return b, diag.NewParserError(offset, "opcode", err)
		}
		nc.Opcode = uint32(v)
		if v, err = br.ReadBits(32); err != nil {
			return b, diag.NewParserError(offset, "destination", err)
		}
		nc.Destination = uint32(v)
		if v, err = br.ReadBits(32); err != nil {
			return b, diag.NewParserError(offset, "source", err)
		}
		nc.Source = uint32(v)
		b.NavigationCommands = append(b.NavigationCommands, nc)
	}
	return b, nil
}

// parseButtonStateInfo parses a normal/selected state_info, which carries
// an optional sound_id_ref.
func parseButtonStateInfo(br *bits.Reader, offset int64) (ButtonStateInfo, error) {
	var s ButtonStateInfo
	start, err := br.ReadBits(16)
	if err != nil {
		return s, diag.NewParserError(offset, "start_object_id_ref", err)
	}
	s.StartObjectIDRef = uint16(start)
	end, err := br.ReadBits(16)
	if err != nil {
		return s, diag.NewParserError(offset, "end_object_id_ref", err)
	}
	s.EndObjectIDRef = uint16(end)
	flags, err := br.ReadBits(8)
	if err != nil {
		return s, diag.NewParserError(offset, "button_info_flags", err)
	}
	s.RepeatFlag = flags&0x80 != 0
	s.CompleteFlag = flags&0x40 != 0
	sid, err := br.ReadBits(8)
	if err != nil {
		return s, diag.NewParserError(offset, "sound_id_ref", err)
	}
	if sid != 0xFF {
		s.SoundIDRefPresent = true
		s.SoundIDRef = uint8(sid)
	}
	return s, nil
}

// parseButtonStateInfoNoSound parses the activated state_info, which per
// the authoring tools this core targets never carries a sound reference.
func parseButtonStateInfoNoSound(br *bits.Reader, offset int64) (ButtonStateInfo, error) {
	var s ButtonStateInfo
	start, err := br.ReadBits(16)
	if err != nil {
		return s, diag.NewParserError(offset, "start_object_id_ref", err)
	}
	s.StartObjectIDRef = uint16(start)
	end, err := br.ReadBits(16)
	if err != nil {
		return s, diag.NewParserError(offset, "end_object_id_ref", err)
	}
	s.EndObjectIDRef = uint16(end)
	return s, nil
}
