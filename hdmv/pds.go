package hdmv

import "github.com/blu-disc/escore/diag"

// PaletteEntry is one palette_entry(), spec section 3.2.
type PaletteEntry struct {
	ID         uint8
	Y, Cr, Cb  uint8
	T          uint8
}

// PaletteDefinition is the PDS payload, spec section 3.2.
type PaletteDefinition struct {
	PaletteID            uint8
	PaletteVersionNumber uint8
	Entries              []PaletteEntry
}

// ParsePaletteDefinition decodes a PDS payload.
func ParsePaletteDefinition(payload []byte, offset int64) (*PaletteDefinition, error) {
	c := newCursor(payload)
	pd := &PaletteDefinition{}
	id, err := c.u8()
	if err != nil {
		return nil, diag.NewParserError(offset, "palette_id", err)
	}
	pd.PaletteID = id
	ver, err := c.u8()
	if err != nil {
		return nil, diag.NewParserError(offset, "palette_version_number", err)
	}
	pd.PaletteVersionNumber = ver

	for c.remaining() >= 5 {
		var e PaletteEntry
		if e.ID, err = c.u8(); err != nil {
			return nil, diag.NewParserError(offset, "palette_entry_id", err)
		}
		if e.Y, err = c.u8(); err != nil {
			return nil, diag.NewParserError(offset, "Y", err)
		}
		if e.Cr, err = c.u8(); err != nil {
			return nil, diag.NewParserError(offset, "Cr", err)
		}
		if e.Cb, err = c.u8(); err != nil {
			return nil, diag.NewParserError(offset, "Cb", err)
		}
		if e.T, err = c.u8(); err != nil {
			return nil, diag.NewParserError(offset, "T", err)
		}
		pd.Entries = append(pd.Entries, e)
		if len(pd.Entries) > 256 {
			return nil, diag.NewParserError(offset, "palette_entry", errOutOfRangeHDMV)
		}
	}
	return pd, nil
}
