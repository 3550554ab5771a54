package hdmv

import "github.com/blu-disc/escore/diag"

// ObjectDefinition is the reassembled ODS payload, spec section 3.2/4.4.3:
// {object_id, object_version_number, object_data_length (u24),
// object_width, object_height, run_length_data}. The sequence descriptor
// byte that prefixes each fragment has already been stripped by the
// sequence reassembler by the time ParseObjectDefinition runs.
type ObjectDefinition struct {
	ObjectID            uint16
	ObjectVersionNumber  uint8
	ObjectDataLength     uint32
	ObjectWidth          uint16
	ObjectHeight         uint16
	RunLengthData        []byte
}

// ParseObjectDefinition decodes a reassembled ODS payload.
func ParseObjectDefinition(payload []byte, offset int64) (*ObjectDefinition, error) {
	c := newCursor(payload)
	o := &ObjectDefinition{}
	var err error
	v16, err := c.u16()
	if err != nil {
		return nil, diag.NewParserError(offset, "object_id", err)
	}
	o.ObjectID = v16
	v8, err := c.u8()
	if err != nil {
		return nil, diag.NewParserError(offset, "object_version_number", err)
	}
	o.ObjectVersionNumber = v8
	odl, err := c.u24()
	if err != nil {
		return nil, diag.NewParserError(offset, "object_data_length", err)
	}
	o.ObjectDataLength = odl
	if o.ObjectWidth, err = c.u16(); err != nil {
		return nil, diag.NewParserError(offset, "object_width", err)
	}
	if o.ObjectHeight, err = c.u16(); err != nil {
		return nil, diag.NewParserError(offset, "object_height", err)
	}
	// object_data_length covers width+height+run_length_data (4 bytes +
	// the coded bitmap).
	if odl < 4 {
		return nil, diag.NewParserError(offset, "object_data_length", errShortODSPayload)
	}
	rldLen := int(odl) - 4
	rld, err := c.bytes(rldLen)
	if err != nil {
		return nil, diag.NewParserError(offset, "run_length_data", errShortODSPayload)
	}
	o.RunLengthData = rld
	return o, nil
}
