package bsdiff

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
)

// indexMagic is the fixed 13-byte header (including the trailing NUL)
// that prefixes a persisted suffix array.
var indexMagic = []byte("SUFFIX ARRAY\x00")

// SuffixArray is a permutation of [0, len(old)) that sorts the suffixes
// of old lexicographically. Construction is a plain library sort
// (sort.Slice over the suffix start offsets, ordered by bytes.Compare of
// the suffixes); the search and persistence below only rely on the
// resulting order, not on how it was produced.
type SuffixArray struct {
	offsets []int64
}

// BuildSuffixArray computes the suffix array of old.
func BuildSuffixArray(old []byte) *SuffixArray {
	n := len(old)
	offsets := make([]int64, n)
	for i := range offsets {
		offsets[i] = int64(i)
	}
	sort.Slice(offsets, func(a, b int) bool {
		return bytes.Compare(old[offsets[a]:], old[offsets[b]:]) < 0
	})
	return &SuffixArray{offsets: offsets}
}

// Len reports the number of suffixes, equal to len(old).
func (sa *SuffixArray) Len() int { return len(sa.offsets) }

// At returns the zero-based start offset of the i'th suffix in
// lexicographic order.
func (sa *SuffixArray) At(i int) int64 { return sa.offsets[i] }

// unitSize returns the narrowest of {1, 2, 4, 8} byte widths that can
// hold every offset in [0, oldLen).
func unitSize(oldLen int) byte {
	switch {
	case oldLen <= 1<<8:
		return 1
	case oldLen <= 1<<16:
		return 2
	case oldLen <= 1<<32:
		return 4
	default:
		return 8
	}
}

// WriteTo persists sa in the fixed index-file layout: the 13-byte magic,
// one unit-size byte, then len(old) little-endian values of that width.
func (sa *SuffixArray) WriteTo(w io.Writer) (int64, error) {
	var written int64
	n, err := w.Write(indexMagic)
	written += int64(n)
	if err != nil {
		return written, wrapIO(err, "index: write magic")
	}
	unit := unitSize(sa.Len())
	n, err = w.Write([]byte{unit})
	written += int64(n)
	if err != nil {
		return written, wrapIO(err, "index: write unit size")
	}
	buf := make([]byte, 8*len(sa.offsets))
	for i, off := range sa.offsets {
		switch unit {
		case 1:
			buf[i] = byte(off)
		case 2:
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(off))
		case 4:
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(off))
		case 8:
			binary.LittleEndian.PutUint64(buf[i*8:], uint64(off))
		}
	}
	buf = buf[:int(unit)*len(sa.offsets)]
	n, err = w.Write(buf)
	written += int64(n)
	if err != nil {
		return written, wrapIO(err, "index: write offsets")
	}
	return written, nil
}

// ReadSuffixArray verifies the index header exactly and decodes oldLen
// little-endian elements of the declared width. A header mismatch or an
// out-of-set unit byte is a corrupt-index error.
func ReadSuffixArray(r io.Reader, oldLen int) (*SuffixArray, error) {
	magic := make([]byte, len(indexMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, corruptIndexf("short read on header: %v", err)
	}
	for i := range indexMagic {
		if magic[i] != indexMagic[i] {
			return nil, corruptIndexf("bad header")
		}
	}
	var unitBuf [1]byte
	if _, err := io.ReadFull(r, unitBuf[:]); err != nil {
		return nil, corruptIndexf("short read on unit size: %v", err)
	}
	unit := unitBuf[0]
	switch unit {
	case 1, 2, 4, 8:
	default:
		return nil, corruptIndexf("unit size %d not in {1,2,4,8}", unit)
	}

	raw := make([]byte, int(unit)*oldLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, corruptIndexf("short read on offsets: %v", err)
	}
	offsets := make([]int64, oldLen)
	for i := 0; i < oldLen; i++ {
		switch unit {
		case 1:
			offsets[i] = int64(raw[i])
		case 2:
			offsets[i] = int64(binary.LittleEndian.Uint16(raw[i*2:]))
		case 4:
			offsets[i] = int64(binary.LittleEndian.Uint32(raw[i*4:]))
		case 8:
			offsets[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	}
	return &SuffixArray{offsets: offsets}, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func matchLen(a, b []byte) int {
	n := minInt(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// compareFrom compares a against b and reports the signum of the first
// differing byte (or of the lengths, if one is a prefix of the other)
// along with how many additional bytes beyond the caller's already-known
// common prefix turned out to match.
func compareFrom(a, b []byte) (sign, extra int) {
	extra = matchLen(a, b)
	switch {
	case extra == len(a) && extra == len(b):
		return 0, extra
	case extra == len(a):
		return -1, extra
	case extra == len(b):
		return 1, extra
	case a[extra] < b[extra]:
		return -1, extra
	default:
		return 1, extra
	}
}

// prefixSearch is the zero-based analog of the spec's prefix_search: it
// returns (pos, length) such that old[pos:pos+length] == new[t:t+length]
// and length is maximal among the suffixes reached at binary-search
// termination. The classical bsdiff search recurses without memoizing
// partial comparisons; this keeps two running common-prefix counters
// (loC, hiC) so that the byte range already known to match on either
// side of the search window is never re-scanned.
func prefixSearch(sa *SuffixArray, old, newBuf []byte, t int) (pos, length int) {
	n := sa.Len()
	if n == 0 {
		return 0, 0
	}
	needle := newBuf[t:]

	lo, hi := 0, n-1
	loC := matchLen(needle, old[sa.At(lo):])
	hiC := matchLen(needle, old[sa.At(hi):])
	c := minInt(loC, hiC)

	for hi-lo >= 2 {
		m := (lo + hi) / 2
		s := int(sa.At(m))
		sign, extra := compareFrom(needle[c:], old[minInt(s+c, len(old)):])
		if sign > 0 {
			lo = m
			loC = c + extra
		} else {
			hi = m
			hiC = c + extra
		}
		c = minInt(loC, hiC)
	}

	if hiC >= loC {
		return int(sa.At(hi)), hiC
	}
	return int(sa.At(lo)), loC
}
