package bsdiff

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestSuffixArrayIsASortedPermutation(t *testing.T) {
	old := []byte("the quick brown fox jumps over the lazy dog")
	sa := BuildSuffixArray(old)

	if sa.Len() != len(old) {
		t.Fatalf("Len() = %d, want %d", sa.Len(), len(old))
	}

	seen := make([]bool, len(old))
	for i := 0; i < sa.Len(); i++ {
		off := int(sa.At(i))
		if off < 0 || off >= len(old) {
			t.Fatalf("offset %d out of range", off)
		}
		if seen[off] {
			t.Fatalf("duplicate offset %d", off)
		}
		seen[off] = true
	}

	for i := 1; i < sa.Len(); i++ {
		a := old[sa.At(i-1):]
		b := old[sa.At(i):]
		if bytes.Compare(a, b) > 0 {
			t.Fatalf("suffix at rank %d (%q) sorts after rank %d (%q)", i-1, a, i, b)
		}
	}
}

func TestPrefixSearchCorrectness(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	old := make([]byte, 500)
	rng.Read(old)
	sa := BuildSuffixArray(old)

	newBuf := make([]byte, 300)
	rng.Read(newBuf)
	// Plant an exact match so some call is guaranteed non-trivial.
	copy(newBuf[50:], old[100:180])

	for t_ := 0; t_ < len(newBuf); t_ += 13 {
		pos, length := prefixSearch(sa, old, newBuf, t_)
		if pos < 0 || pos > len(old) {
			t.Fatalf("prefixSearch(%d) returned pos=%d out of range", t_, pos)
		}
		if length < 0 {
			t.Fatalf("prefixSearch(%d) returned negative length", t_)
		}
		if pos+length > len(old) {
			t.Fatalf("prefixSearch(%d): pos+length=%d exceeds len(old)=%d", t_, pos+length, len(old))
		}
		if t_+length > len(newBuf) {
			t.Fatalf("prefixSearch(%d): t+length=%d exceeds len(newBuf)=%d", t_, t_+length, len(newBuf))
		}
		if !bytes.Equal(old[pos:pos+length], newBuf[t_:t_+length]) {
			t.Fatalf("prefixSearch(%d): old[%d:%d]=%q != newBuf[%d:%d]=%q",
				t_, pos, pos+length, old[pos:pos+length], t_, t_+length, newBuf[t_:t_+length])
		}
		// The match must be maximal: the next byte on either side (if any)
		// must differ, or one side must be exhausted.
		if pos+length < len(old) && t_+length < len(newBuf) && old[pos+length] == newBuf[t_+length] {
			t.Fatalf("prefixSearch(%d) returned non-maximal match of length %d", t_, length)
		}
	}
}

func TestIndexPersistenceRoundTrip(t *testing.T) {
	old := []byte("suffix array persistence round trip test data, long enough to matter")
	sa := BuildSuffixArray(old)

	var buf bytes.Buffer
	if _, err := sa.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := ReadSuffixArray(&buf, len(old))
	if err != nil {
		t.Fatalf("ReadSuffixArray: %v", err)
	}
	if got.Len() != sa.Len() {
		t.Fatalf("Len() = %d, want %d", got.Len(), sa.Len())
	}
	for i := 0; i < sa.Len(); i++ {
		if got.At(i) != sa.At(i) {
			t.Fatalf("offset %d = %d, want %d", i, got.At(i), sa.At(i))
		}
	}
}

func TestIndexHeaderMismatchIsCorruptIndex(t *testing.T) {
	bad := bytes.NewBufferString("NOT THE RIGHT HEADER")
	if _, err := ReadSuffixArray(bad, 10); err == nil {
		t.Fatal("expected corrupt-index error")
	} else if _, ok := err.(*CorruptIndexError); !ok {
		t.Fatalf("err = %v (%T), want *CorruptIndexError", err, err)
	}
}

func TestIndexBadUnitSizeIsCorruptIndex(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(indexMagic)
	buf.WriteByte(3) // not in {1,2,4,8}
	if _, err := ReadSuffixArray(&buf, 10); err == nil {
		t.Fatal("expected corrupt-index error")
	} else if _, ok := err.(*CorruptIndexError); !ok {
		t.Fatalf("err = %v (%T), want *CorruptIndexError", err, err)
	}
}

func TestUnitSizeChoice(t *testing.T) {
	cases := []struct {
		oldLen int
		want   byte
	}{
		{0, 1},
		{255, 1},
		{256, 1},
		{257, 2},
		{1 << 16, 2},
		{1<<16 + 1, 4},
	}
	for _, c := range cases {
		if got := unitSize(c.oldLen); got != c.want {
			t.Fatalf("unitSize(%d) = %d, want %d", c.oldLen, got, c.want)
		}
	}
}
