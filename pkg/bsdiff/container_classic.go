package bsdiff

import (
	"bytes"
	"io"

	"github.com/dsnet/compress/bzip2"
)

// classicHeader mirrors the reference tool's on-wire layout exactly:
//
//	0    8  "BSDIFF40"
//	8    8  length of bzip2'd control block
//	16   8  length of bzip2'd diff block
//	24   8  length of new file
//	32   X  bzip2(control block)
//	32+X Y  bzip2(diff block)
//	32+X+Y  bzip2(data block, remainder of the file)
type classicHeader struct {
	ctrlLen int64
	diffLen int64
	newSize int64
}

func (h classicHeader) marshal() []byte {
	buf := make([]byte, 32)
	copy(buf, magicClassic)
	putInt64(buf[8:], h.ctrlLen)
	putInt64(buf[16:], h.diffLen)
	putInt64(buf[24:], h.newSize)
	return buf
}

type classicWriter struct {
	dst     io.Writer
	staging seekBuffer
	ctrl    *bzip2.Writer
	hdr     classicHeader
	dblen   int
	eblen   int
	db      []byte
	eb      []byte
}

func newClassicWriter(dst io.Writer, newSize int64) (*classicWriter, error) {
	w := &classicWriter{
		dst: dst,
		hdr: classicHeader{newSize: newSize},
	}
	// Header placeholder; ctrlLen/diffLen are filled in on Close once the
	// compressed substream sizes are known.
	if _, err := w.staging.Write(w.hdr.marshal()); err != nil {
		return nil, wrapIO(err, "classic: write header placeholder")
	}
	ctrl, err := bzip2.NewWriter(&w.staging, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return nil, wrapIO(err, "classic: open control stream")
	}
	w.ctrl = ctrl
	return w, nil
}

func (w *classicWriter) EmitControl(rec ControlRecord) error {
	var buf [24]byte
	putInt64(buf[0:8], rec.DiffSize)
	putInt64(buf[8:16], rec.CopySize)
	putInt64(buf[16:24], rec.SkipSize)
	if _, err := w.ctrl.Write(buf[:]); err != nil {
		return wrapIO(err, "classic: write control record")
	}
	return nil
}

func (w *classicWriter) EmitDiff(p []byte) error {
	w.db = append(w.db, p...)
	w.dblen += len(p)
	return nil
}

func (w *classicWriter) EmitData(p []byte) error {
	w.eb = append(w.eb, p...)
	w.eblen += len(p)
	return nil
}

func (w *classicWriter) Close() error {
	if err := w.ctrl.Close(); err != nil {
		return wrapIO(err, "classic: close control stream")
	}
	w.hdr.ctrlLen = int64(w.staging.Len()) - 32

	diff, err := bzip2.NewWriter(&w.staging, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return wrapIO(err, "classic: open diff stream")
	}
	if _, err := diff.Write(w.db[:w.dblen]); err != nil {
		diff.Close()
		return wrapIO(err, "classic: write diff block")
	}
	if err := diff.Close(); err != nil {
		return wrapIO(err, "classic: close diff stream")
	}
	w.hdr.diffLen = int64(w.staging.Len()) - 32 - w.hdr.ctrlLen

	data, err := bzip2.NewWriter(&w.staging, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return wrapIO(err, "classic: open data stream")
	}
	if _, err := data.Write(w.eb[:w.eblen]); err != nil {
		data.Close()
		return wrapIO(err, "classic: write data block")
	}
	if err := data.Close(); err != nil {
		return wrapIO(err, "classic: close data stream")
	}

	if _, err := w.staging.Seek(0, io.SeekStart); err != nil {
		return wrapIO(err, "classic: rewind staging buffer")
	}
	if _, err := w.staging.Write(w.hdr.marshal()); err != nil {
		return wrapIO(err, "classic: rewrite header")
	}

	if _, err := w.dst.Write(w.staging.Bytes()); err != nil {
		return wrapIO(err, "classic: flush patch")
	}
	return nil
}

type classicReader struct {
	hdr     classicHeader
	ctrl    *bzip2.Reader
	diff    *bzip2.Reader
	data    *bzip2.Reader
	closers []io.Closer
}

func newClassicReader(patch []byte) (*classicReader, error) {
	if len(patch) < 32 {
		return nil, corruptPatchf("classic: header truncated (%d bytes)", len(patch))
	}
	if !bytes.Equal(patch[:8], magicClassic) {
		return nil, corruptPatchf("classic: bad magic")
	}
	hdr := classicHeader{
		ctrlLen: int64At(patch[8:16]),
		diffLen: int64At(patch[16:24]),
		newSize: int64At(patch[24:32]),
	}
	if hdr.ctrlLen < 0 || hdr.diffLen < 0 || hdr.newSize < 0 {
		return nil, corruptPatchf("classic: negative header field (ctrl=%d diff=%d new=%d)", hdr.ctrlLen, hdr.diffLen, hdr.newSize)
	}
	ctrlStart := int64(32)
	diffStart := ctrlStart + hdr.ctrlLen
	dataStart := diffStart + hdr.diffLen
	if diffStart < ctrlStart || dataStart < diffStart || dataStart > int64(len(patch)) {
		return nil, corruptPatchf("classic: header lengths exceed patch size")
	}

	ctrl, err := bzip2.NewReader(bytes.NewReader(patch[ctrlStart:diffStart]), nil)
	if err != nil {
		return nil, corruptPatchf("classic: open control stream: %v", err)
	}
	diff, err := bzip2.NewReader(bytes.NewReader(patch[diffStart:dataStart]), nil)
	if err != nil {
		ctrl.Close()
		return nil, corruptPatchf("classic: open diff stream: %v", err)
	}
	data, err := bzip2.NewReader(bytes.NewReader(patch[dataStart:]), nil)
	if err != nil {
		ctrl.Close()
		diff.Close()
		return nil, corruptPatchf("classic: open data stream: %v", err)
	}
	return &classicReader{
		hdr:     hdr,
		ctrl:    ctrl,
		diff:    diff,
		data:    data,
		closers: []io.Closer{ctrl, diff, data},
	}, nil
}

func (r *classicReader) NewSize() int64 { return r.hdr.newSize }

func (r *classicReader) NextControl() (ControlRecord, error) {
	var buf [24]byte
	n, err := io.ReadFull(r.ctrl, buf[:])
	if n == 0 && err == io.EOF {
		return ControlRecord{}, io.EOF
	}
	if err != nil {
		return ControlRecord{}, corruptPatchf("classic: truncated control record: %v", err)
	}
	return ControlRecord{
		DiffSize: int64At(buf[0:8]),
		CopySize: int64At(buf[8:16]),
		SkipSize: int64At(buf[16:24]),
	}, nil
}

func (r *classicReader) ReadDiff(p []byte) error {
	if _, err := io.ReadFull(r.diff, p); err != nil {
		return corruptPatchf("classic: truncated diff payload: %v", err)
	}
	return nil
}

func (r *classicReader) ReadData(p []byte) error {
	if _, err := io.ReadFull(r.data, p); err != nil {
		return corruptPatchf("classic: truncated data payload: %v", err)
	}
	return nil
}

func (r *classicReader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
