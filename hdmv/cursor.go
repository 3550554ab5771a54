package hdmv

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// cursor is a small sequential byte reader over a reassembled segment
// payload, used by the PCS/WDS/ICS/PDS/ODS payload decoders. It mirrors the
// teacher's buf[i:] slicing style (see protocol/rtcp/parse.go) but tracks
// position so deeply nested HDMV structures don't need manual offset
// arithmetic at every field.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor { return &cursor{buf: buf} }

var errCursorShort = errors.New("payload too short")

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) u8() (byte, error) {
	if c.remaining() < 1 {
		return 0, errCursorShort
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) u16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, errCursorShort
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u24() (uint32, error) {
	if c.remaining() < 3 {
		return 0, errCursorShort
	}
	v := uint32(c.buf[c.pos])<<16 | uint32(c.buf[c.pos+1])<<8 | uint32(c.buf[c.pos+2])
	c.pos += 3
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if c.remaining() < 4 {
		return 0, errCursorShort
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) u64() (uint64, error) {
	if c.remaining() < 8 {
		return 0, errCursorShort
	}
	v := binary.BigEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if c.remaining() < n {
		return nil, errCursorShort
	}
	v := c.buf[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

// skip advances n bytes without returning them.
func (c *cursor) skip(n int) error {
	if c.remaining() < n {
		return errCursorShort
	}
	c.pos += n
	return nil
}
