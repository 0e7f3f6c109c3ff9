package bsdiff

import (
	"bytes"
	"math/rand"
	"testing"
)

func roundTrip(t *testing.T, old, newBuf []byte, format Format) []byte {
	t.Helper()
	sa := BuildSuffixArray(old)

	var patchBuf bytes.Buffer
	w, err := NewWriter(&patchBuf, format, int64(len(newBuf)))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	err = generateControls(sa, old, newBuf, func(rec ControlRecord, diffPayload, dataPayload []byte) error {
		if err := w.EmitControl(rec); err != nil {
			return err
		}
		if err := w.EmitDiff(diffPayload); err != nil {
			return err
		}
		return w.EmitData(dataPayload)
	})
	if err != nil {
		t.Fatalf("generateControls: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(patchBuf.Bytes(), format)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	var out bytes.Buffer
	n, err := Apply(old, r, &out)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n != int64(len(newBuf)) {
		t.Fatalf("Apply wrote %d bytes, want %d", n, len(newBuf))
	}
	if !bytes.Equal(out.Bytes(), newBuf) {
		t.Fatalf("round trip mismatch: got %q, want %q", out.Bytes(), newBuf)
	}
	return patchBuf.Bytes()
}

func TestRoundTripIdentity(t *testing.T) {
	for _, format := range []Format{FormatClassic, FormatEndsley} {
		old := []byte("hello world")
		newBuf := []byte("hello world")
		roundTrip(t, old, newBuf, format)
	}
}

func TestRoundTripSingleByteSubstitution(t *testing.T) {
	old := []byte("abcdef")
	newBuf := []byte("abcXef")
	patch := roundTrip(t, old, newBuf, FormatClassic)
	if len(patch) == 0 {
		t.Fatal("expected non-empty patch")
	}

	// The diff payload must contain exactly one non-zero byte, 'X'-'d'
	// wrapped modulo 256.
	r, err := NewReader(patch, FormatClassic)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	rec, err := r.NextControl()
	if err != nil {
		t.Fatalf("NextControl: %v", err)
	}
	diffPayload := make([]byte, rec.DiffSize)
	if err := r.ReadDiff(diffPayload); err != nil {
		t.Fatalf("ReadDiff: %v", err)
	}
	nonZero := 0
	for _, b := range diffPayload {
		if b != 0 {
			nonZero++
			want := byte(256 + 'X' - 'd')
			if b != want {
				t.Fatalf("non-zero diff byte = %d, want %d", b, want)
			}
		}
	}
	if nonZero != 1 {
		t.Fatalf("expected exactly one non-zero diff byte, got %d in %v", nonZero, diffPayload)
	}
}

func TestRoundTripInsertion(t *testing.T) {
	old := []byte("abcdef")
	newBuf := []byte("abcZZZdef")
	roundTrip(t, old, newBuf, FormatClassic)
	roundTrip(t, old, newBuf, FormatEndsley)
}

func TestRoundTripLargeBlockMove(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := make([]byte, 4096)
	b := make([]byte, 4096)
	rng.Read(a)
	rng.Read(b)

	old := append(append([]byte{}, a...), b...)
	newBuf := append(append([]byte{}, b...), a...)

	patch := roundTrip(t, old, newBuf, FormatClassic)
	if len(patch) >= 2*4096 {
		t.Fatalf("patch too large: %d bytes for an exact block swap", len(patch))
	}
}

func TestEmptyNewProducesEmptyOutput(t *testing.T) {
	old := []byte("some old content of nonzero length")
	roundTrip(t, old, []byte{}, FormatClassic)
	roundTrip(t, old, []byte{}, FormatEndsley)
}

func TestEmptyOldYieldsAllLiteralData(t *testing.T) {
	newBuf := []byte("brand new content with nothing in common")
	sa := BuildSuffixArray(nil)

	var diffTotal int64
	var dataTotal []byte
	err := generateControls(sa, nil, newBuf, func(rec ControlRecord, diffPayload, dataPayload []byte) error {
		diffTotal += rec.DiffSize
		dataTotal = append(dataTotal, dataPayload...)
		return nil
	})
	if err != nil {
		t.Fatalf("generateControls: %v", err)
	}
	if diffTotal != 0 {
		t.Fatalf("expected all-zero diff_size fields against empty old, got total %d", diffTotal)
	}
	if !bytes.Equal(dataTotal, newBuf) {
		t.Fatalf("data payload = %q, want %q", dataTotal, newBuf)
	}

	roundTrip(t, nil, newBuf, FormatClassic)
}

func TestRoundTripRandomFuzz(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		oldLen := rng.Intn(2000)
		old := make([]byte, oldLen)
		rng.Read(old)

		newBuf := make([]byte, oldLen)
		copy(newBuf, old)
		// Sprinkle in some mutations so new isn't identical to old.
		mutations := rng.Intn(50)
		for m := 0; m < mutations; m++ {
			if len(newBuf) == 0 {
				break
			}
			idx := rng.Intn(len(newBuf))
			newBuf[idx] = byte(rng.Intn(256))
		}
		format := FormatClassic
		if i%2 == 0 {
			format = FormatEndsley
		}
		roundTrip(t, old, newBuf, format)
	}
}
