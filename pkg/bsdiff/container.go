package bsdiff

import (
	"bytes"
	"io"
)

// Format selects one of the two wire-compatible container variants this
// package can emit and consume. The format is always an explicit
// argument; there is no global default and no runtime subtype dispatch,
// just a small tagged-variant switch in NewWriter/NewReader.
type Format int

const (
	// FormatClassic is the original bsdiff4 container: "BSDIFF40" magic,
	// three length-prefixed fields, then three independently
	// bzip2-compressed substreams (control, diff, data).
	FormatClassic Format = iota
	// FormatEndsley is the single-stream bsdiff43 variant: "ENDSLEY/BSDIFF43"
	// magic, a new_size field, then one bzip2 stream interleaving
	// control/diff/data per record.
	FormatEndsley
)

func (f Format) String() string {
	switch f {
	case FormatClassic:
		return "classic"
	case FormatEndsley:
		return "endsley"
	default:
		return "unknown"
	}
}

// ParseFormat maps the CLI/API format tag to a Format value.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "classic":
		return FormatClassic, nil
	case "endsley":
		return FormatEndsley, nil
	default:
		return 0, invalidArgumentf("unknown patch format %q", s)
	}
}

var (
	magicClassic = []byte("BSDIFF40")
	magicEndsley = []byte("ENDSLEY/BSDIFF43")
)

// ControlRecord is the (diff_size, copy_size, skip_size) triple framing
// one unit of patch work. All three fields are signed 64-bit per the
// integer-width design note, even though skip_size is the only one that
// may legitimately be negative.
type ControlRecord struct {
	DiffSize int64
	CopySize int64
	SkipSize int64
}

// Writer is the emit side of the tagged container contract: write_header
// happens at construction, emit_control/emit_diff/emit_data push one
// record's pieces in lock-step, and Close flushes/finalizes the header.
type Writer interface {
	EmitControl(rec ControlRecord) error
	EmitDiff(p []byte) error
	EmitData(p []byte) error
	Close() error
}

// Reader is the consume side of the same contract.
type Reader interface {
	// NewSize returns the declared size of the reconstructed new file.
	// Both container variants always carry this in their header.
	NewSize() int64
	// NextControl returns io.EOF once the control stream is exhausted.
	NextControl() (ControlRecord, error)
	ReadDiff(p []byte) error
	ReadData(p []byte) error
	Close() error
}

// NewWriter opens a container writer for format, declaring newSize up
// front (both variants carry it in the header).
func NewWriter(dst io.Writer, format Format, newSize int64) (Writer, error) {
	switch format {
	case FormatClassic:
		return newClassicWriter(dst, newSize)
	case FormatEndsley:
		return newEndsleyWriter(dst, newSize)
	default:
		return nil, invalidArgumentf("unknown container format %d", format)
	}
}

// NewReader opens a container reader for format over the full patch
// bytes. Both variants need random access to carve independently
// bzip2-framed or length-prefixed regions out of the stream, so the
// patch is taken as a byte slice rather than a plain io.Reader.
func NewReader(patch []byte, format Format) (Reader, error) {
	switch format {
	case FormatClassic:
		return newClassicReader(patch)
	case FormatEndsley:
		return newEndsleyReader(patch)
	default:
		return nil, invalidArgumentf("unknown container format %d", format)
	}
}

// SniffFormat inspects a patch's leading bytes and reports which
// container variant produced it, so bsdiff.Patch can be called without
// the caller having to remember how a given patch file was produced.
func SniffFormat(patch []byte) (Format, error) {
	if len(patch) >= len(magicEndsley) && bytes.Equal(patch[:len(magicEndsley)], magicEndsley) {
		return FormatEndsley, nil
	}
	if len(patch) >= len(magicClassic) && bytes.Equal(patch[:len(magicClassic)], magicClassic) {
		return FormatClassic, nil
	}
	return 0, corruptPatchf("unrecognized magic in patch header")
}

// seekBuffer is an in-memory io.WriteSeeker used to build the classic
// container: the header's two length fields aren't known until the
// control and diff substreams have been compressed, so everything is
// staged here and only flushed to the real destination on Close.
type seekBuffer struct {
	buf []byte
	pos int
}

func (b *seekBuffer) Write(p []byte) (n int, err error) {
	n = copy(b.buf[b.pos:], p)
	if n < len(p) {
		b.buf = append(b.buf, p[n:]...)
	}
	b.pos += len(p)
	if b.pos > len(b.buf) {
		b.buf = b.buf[:b.pos]
	}
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, corruptPatchf("seekBuffer: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, corruptPatchf("seekBuffer: negative seek position")
	}
	b.pos = int(abs)
	return abs, nil
}

func (b *seekBuffer) Len() int { return len(b.buf) }

func (b *seekBuffer) Bytes() []byte { return b.buf }
