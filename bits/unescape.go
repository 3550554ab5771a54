package bits

import "io"

// Unescaper wraps an io.Reader over raw H.264 NAL payload bytes and strips
// emulation-prevention bytes (0x03 immediately following two 0x00 bytes) as
// it is read, exposing the logical RBSP. See ITU-T H.264 section 7.3.1.
type Unescaper struct {
	src    io.Reader
	zeros  int
	single [1]byte
}

// NewUnescaper returns a new Unescaper reading from src.
func NewUnescaper(src io.Reader) *Unescaper {
	return &Unescaper{src: src}
}

// Read implements io.Reader, filling p with unescaped RBSP bytes.
func (u *Unescaper) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if _, err := io.ReadFull(u.src, u.single[:]); err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}
		b := u.single[0]
		if u.zeros >= 2 && b == 0x03 {
			u.zeros = 0
			continue
		}
		if b == 0x00 {
			u.zeros++
		} else {
			u.zeros = 0
		}
		p[n] = b
		n++
	}
	return n, nil
}
