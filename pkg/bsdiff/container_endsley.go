package bsdiff

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/dsnet/compress/bzip2"
)

// endsleyHeader is the single-stream bsdiff43 layout:
//
//	0   16  "ENDSLEY/BSDIFF43"
//	16   8  new_size, little-endian, unsigned on the wire
//	24  ??  bzip2 stream of repeated (ctrl, diff bytes, data bytes)
type endsleyHeader struct {
	newSize int64
}

func (h endsleyHeader) marshal() []byte {
	buf := make([]byte, 24)
	copy(buf, magicEndsley)
	binary.LittleEndian.PutUint64(buf[16:], uint64(h.newSize))
	return buf
}

type endsleyWriter struct {
	stream *bzip2.Writer
}

func newEndsleyWriter(dst io.Writer, newSize int64) (*endsleyWriter, error) {
	hdr := endsleyHeader{newSize: newSize}
	if _, err := dst.Write(hdr.marshal()); err != nil {
		return nil, wrapIO(err, "endsley: write header")
	}
	stream, err := bzip2.NewWriter(dst, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return nil, wrapIO(err, "endsley: open stream")
	}
	return &endsleyWriter{stream: stream}, nil
}

func (w *endsleyWriter) EmitControl(rec ControlRecord) error {
	var buf [24]byte
	putInt64(buf[0:8], rec.DiffSize)
	putInt64(buf[8:16], rec.CopySize)
	putInt64(buf[16:24], rec.SkipSize)
	if _, err := w.stream.Write(buf[:]); err != nil {
		return wrapIO(err, "endsley: write control record")
	}
	return nil
}

func (w *endsleyWriter) EmitDiff(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if _, err := w.stream.Write(p); err != nil {
		return wrapIO(err, "endsley: write diff payload")
	}
	return nil
}

func (w *endsleyWriter) EmitData(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if _, err := w.stream.Write(p); err != nil {
		return wrapIO(err, "endsley: write data payload")
	}
	return nil
}

func (w *endsleyWriter) Close() error {
	if err := w.stream.Close(); err != nil {
		return wrapIO(err, "endsley: close stream")
	}
	return nil
}

type endsleyReader struct {
	hdr    endsleyHeader
	stream *bzip2.Reader
}

func newEndsleyReader(patch []byte) (*endsleyReader, error) {
	if len(patch) < 24 {
		return nil, corruptPatchf("endsley: header truncated (%d bytes)", len(patch))
	}
	if !bytes.Equal(patch[:16], magicEndsley) {
		return nil, corruptPatchf("endsley: bad magic")
	}
	newSize := binary.LittleEndian.Uint64(patch[16:24])
	if newSize > 1<<62 {
		return nil, corruptPatchf("endsley: new_size out of range")
	}
	stream, err := bzip2.NewReader(bytes.NewReader(patch[24:]), nil)
	if err != nil {
		return nil, corruptPatchf("endsley: open stream: %v", err)
	}
	return &endsleyReader{
		hdr:    endsleyHeader{newSize: int64(newSize)},
		stream: stream,
	}, nil
}

func (r *endsleyReader) NewSize() int64 { return r.hdr.newSize }

func (r *endsleyReader) NextControl() (ControlRecord, error) {
	var buf [24]byte
	n, err := io.ReadFull(r.stream, buf[:])
	if n == 0 && err == io.EOF {
		return ControlRecord{}, io.EOF
	}
	if err != nil {
		return ControlRecord{}, corruptPatchf("endsley: truncated control record: %v", err)
	}
	return ControlRecord{
		DiffSize: int64At(buf[0:8]),
		CopySize: int64At(buf[8:16]),
		SkipSize: int64At(buf[16:24]),
	}, nil
}

func (r *endsleyReader) ReadDiff(p []byte) error {
	if _, err := io.ReadFull(r.stream, p); err != nil {
		return corruptPatchf("endsley: truncated diff payload: %v", err)
	}
	return nil
}

func (r *endsleyReader) ReadData(p []byte) error {
	if _, err := io.ReadFull(r.stream, p); err != nil {
		return corruptPatchf("endsley: truncated data payload: %v", err)
	}
	return nil
}

func (r *endsleyReader) Close() error {
	return r.stream.Close()
}
