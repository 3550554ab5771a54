// bitreader.go provides a bit-level reader that can read or peek from an
// io.Reader data source.

// Package bits provides bit-level reading and writing used by the H.264
// parser and patcher, including RBSP emulation-prevention handling and
// Exp-Golomb coding.
package bits

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// ErrExpGolombOverflow is returned by ReadUE/ReadSE when a coded value does
// not fit within the caller-supplied maximum bit length.
var ErrExpGolombOverflow = errors.New("exp-golomb value exceeds maximum length")

type bytePeeker interface {
	io.ByteReader
	Peek(int) ([]byte, error)
}

// Reader is a bit reader over an io.Reader source. When constructed with
// NewRBSPReader it additionally strips H.264 emulation-prevention bytes
// (0x03 following two 0x00 bytes) from the underlying stream as it reads,
// so all bit-level reads operate on the logical RBSP.
type Reader struct {
	r     bytePeeker
	n     uint64
	bits  int
	nRead int
}

// NewReader returns a new Reader that reads raw bits from r with no RBSP
// unescaping.
func NewReader(r io.Reader) *Reader {
	byter, ok := r.(bytePeeker)
	if !ok {
		byter = bufio.NewReader(r)
	}
	return &Reader{r: byter}
}

// NewRBSPReader returns a new Reader that reads bits from a raw NAL payload
// byte stream, discarding emulation-prevention bytes (0x03 after two 0x00
// bytes) as it goes so that all bit-level reads see the logical RBSP.
func NewRBSPReader(r io.Reader) *Reader {
	return NewReader(NewUnescaper(r))
}

// ReadBits reads n (<=32) bits from the source and returns them in the
// least-significant part of a uint64.
func (br *Reader) ReadBits(n int) (uint64, error) {
	for n > br.bits {
		b, err := br.r.ReadByte()
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		if err != nil {
			return 0, err
		}
		br.nRead++
		br.n <<= 8
		br.n |= uint64(b)
		br.bits += 8
	}
	r := (br.n >> uint(br.bits-n)) & ((1 << uint(n)) - 1)
	br.bits -= n
	return r, nil
}

// PeekBits returns the next n bits in the least-significant part of a
// uint64 without advancing the reader.
func (br *Reader) PeekBits(n int) (uint64, error) {
	need := (n - br.bits + 7) / 8
	if need < 0 {
		need = 0
	}
	byt, err := br.r.Peek(need)
	if err != nil {
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	n2, bits := br.n, br.bits
	for i := 0; bits < n; i++ {
		n2 <<= 8
		n2 |= uint64(byt[i])
		bits += 8
	}
	r := (n2 >> uint(bits-n)) & ((1 << uint(n)) - 1)
	return r, nil
}

// ByteAligned reports whether the reader position is at the start of a byte.
func (br *Reader) ByteAligned() bool { return br.bits == 0 }

// Off returns the number of bits currently buffered but not yet consumed,
// i.e. the number of bits left before the next byte boundary of the source.
func (br *Reader) Off() int { return br.bits }

// BytesRead returns the number of bytes consumed from the underlying source.
func (br *Reader) BytesRead() int { return br.nRead }

// ReadUE reads an unsigned integer Exp-Golomb-coded syntax element (ue(v),
// ITU-T H.264 section 9.1). maxBits bounds the total number of bits the
// coded value (leading zeros, the stop bit, and the suffix) may occupy; a
// value that would require more bits yields ErrExpGolombOverflow.
func (br *Reader) ReadUE(maxBits int) (uint32, error) {
	nZeros := 0
	for {
		b, err := br.ReadBits(1)
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		nZeros++
		if 2*nZeros+1 > maxBits {
			return 0, ErrExpGolombOverflow
		}
	}
	if nZeros == 0 {
		return 0, nil
	}
	if nZeros >= 32 {
		return 0, ErrExpGolombOverflow
	}
	rem, err := br.ReadBits(nZeros)
	if err != nil {
		return 0, err
	}
	v := uint64(1)<<uint(nZeros) - 1 + rem
	if v > 0xFFFFFFFE {
		return 0, ErrExpGolombOverflow
	}
	return uint32(v), nil
}

// ReadSE reads a signed integer Exp-Golomb-coded syntax element (se(v),
// ITU-T H.264 sections 9.1/9.1.1) using the standard mapping
// k = (u+1)/2 with alternating sign.
func (br *Reader) ReadSE(maxBits int) (int32, error) {
	u, err := br.ReadUE(maxBits)
	if err != nil {
		return 0, err
	}
	k := int64(u+1) / 2
	if u%2 == 0 {
		k = -k
	}
	if k > 1<<31-1 || k < -(1<<31)+1 {
		return 0, ErrExpGolombOverflow
	}
	return int32(k), nil
}

// MoreRBSPData reports whether any bit other than a single rbsp_stop_one_bit
// followed by zero bits remains before the next start code (ITU-T H.264
// section 7.2). It returns false once only trailing bits (and an optional
// following start code) remain.
func (br *Reader) MoreRBSPData() bool {
	b, err := br.PeekBits(1)
	if err != nil {
		return false
	}
	if b == 0 {
		return true
	}

	rembits := br.Off()
	if rembits == 0 {
		rembits = 8
	}
	b, err = br.PeekBits(rembits)
	if err != nil {
		return false
	}
	rem := uint64(1) << uint(rembits-1)
	if b != rem {
		return true
	}

	if _, err := br.PeekBits(rembits + 1); err != nil {
		return false
	}

	for _, scLen := range []int{24, 32} {
		b, err = br.PeekBits(rembits + scLen)
		if err != nil {
			return true
		}
		rem = (uint64(1) << uint(rembits-1+scLen)) | 1
		if b == rem {
			return false
		}
	}
	return true
}
