package bsdiff

import (
	"encoding/binary"
	"io"
)

// minInt64 anchors the sign-magnitude transform: negative x encodes as
// minInt64-x, which sets the sign bit and keeps the magnitude in the low
// bits, instead of two's-complement filling the high bytes with 0xFF.
const minInt64 = int64(-1 << 63)

// encodeInt64 biases x into sign-magnitude form, the way offtout does in
// the reference tool: a small-magnitude negative serializes with only the
// sign bit set in its high byte (0x80), a non-negative one with 0x00.
func encodeInt64(x int64) uint64 {
	if x < 0 {
		return uint64(minInt64 - x)
	}
	return uint64(x)
}

// decodeInt64 reverses encodeInt64. The transform is its own inverse.
func decodeInt64(y uint64) int64 {
	if y>>63 == 0 {
		return int64(y)
	}
	return minInt64 - int64(y)
}

// putInt64 writes the fixed 8-byte little-endian encoding of x into buf,
// which must have length at least 8. This is the control-stream integer
// framing from spec §4.1, not a variable-length (varint) encoding.
func putInt64(buf []byte, x int64) {
	binary.LittleEndian.PutUint64(buf, encodeInt64(x))
}

// int64At decodes an 8-byte little-endian buffer into a signed int64.
func int64At(buf []byte) int64 {
	return decodeInt64(binary.LittleEndian.Uint64(buf))
}

// writeInt64 writes one control-stream integer to w.
func writeInt64(w io.Writer, x int64) error {
	var buf [8]byte
	putInt64(buf[:], x)
	_, err := w.Write(buf[:])
	return err
}

// readInt64 reads one control-stream integer from r.
func readInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64At(buf[:]), nil
}
