package hdmv

import "github.com/blu-disc/escore/diag"

// Window is one window() entry of a WDS payload, spec section 3.2.
type Window struct {
	ID     uint8
	X, Y   uint16
	W, H   uint16
}

// WindowDefinition is the WDS payload: a list of up to N windows with
// unique ids, spec section 3.2.
type WindowDefinition struct {
	Windows []Window
}

// ParseWindowDefinition decodes a WDS payload.
func ParseWindowDefinition(payload []byte, offset int64) (*WindowDefinition, error) {
	c := newCursor(payload)
	wd := &WindowDefinition{}
	n, err := c.u8()
	if err != nil {
		return nil, diag.NewParserError(offset, "number_of_windows", err)
	}
	seen := make(map[uint8]bool, n)
	for i := 0; i < int(n); i++ {
		var w Window
		if id, err := c.u8(); err != nil {
			return nil, diag.NewParserError(offset, "window_id", err)
		} else {
			w.ID = id
		}
		if seen[w.ID] {
			return nil, diag.NewParserError(offset, "window_id", errDuplicateWindowID)
		}
		seen[w.ID] = true
		if w.X, err = c.u16(); err != nil {
			return nil, diag.NewParserError(offset, "window_horizontal_position", err)
		}
		if w.Y, err = c.u16(); err != nil {
			return nil, diag.NewParserError(offset, "window_vertical_position", err)
		}
		if w.W, err = c.u16(); err != nil {
			return nil, diag.NewParserError(offset, "window_width", err)
		}
		if w.H, err = c.u16(); err != nil {
			return nil, diag.NewParserError(offset, "window_height", err)
		}
		wd.Windows = append(wd.Windows, w)
	}
	return wd, nil
}
