package bsdiff

import "io"

// maxDeclaredSize is the ceiling used when a container's declared new
// size is absent; both formats this package emits always carry one, so
// in practice every call supplies a real bound.
const maxDeclaredSize = int64(1<<63 - 1)

// Apply reconstructs new from old by replaying r's control records,
// writing the result to dst. It returns the number of bytes written,
// which equals r.NewSize() on success. Any control-record bounds
// violation, truncated payload, or size mismatch is a *CorruptPatchError;
// the applier never reads past len(old) and never writes past the
// declared new size.
func Apply(old []byte, r Reader, dst io.Writer) (int64, error) {
	declared := r.NewSize()
	if declared < 0 {
		declared = maxDeclaredSize
	}

	var newPos, oldPos int64
	diffBuf := make([]byte, 0, 64*1024)

	for {
		rec, err := r.NextControl()
		if err == io.EOF {
			break
		}
		if err != nil {
			return newPos, err
		}

		if rec.DiffSize < 0 || rec.CopySize < 0 {
			return newPos, corruptPatchf("negative record size (diff=%d copy=%d)", rec.DiffSize, rec.CopySize)
		}
		if newPos+rec.DiffSize+rec.CopySize > declared {
			return newPos, corruptPatchf("record would overrun declared new size (%d > %d)", newPos+rec.DiffSize+rec.CopySize, declared)
		}
		if oldPos < 0 || oldPos+rec.DiffSize > int64(len(old)) {
			return newPos, corruptPatchf("record would overrun old (old_pos=%d diff_size=%d len(old)=%d)", oldPos, rec.DiffSize, len(old))
		}

		if int64(cap(diffBuf)) < rec.DiffSize {
			diffBuf = make([]byte, rec.DiffSize)
		}
		diffBuf = diffBuf[:rec.DiffSize]
		if err := r.ReadDiff(diffBuf); err != nil {
			return newPos, err
		}
		for i, b := range diffBuf {
			diffBuf[i] = b + old[oldPos+int64(i)]
		}
		if _, err := dst.Write(diffBuf); err != nil {
			return newPos, wrapIO(err, "patch: write diff-corrected bytes")
		}
		newPos += rec.DiffSize
		oldPos += rec.DiffSize

		dataBuf := make([]byte, rec.CopySize)
		if err := r.ReadData(dataBuf); err != nil {
			return newPos, err
		}
		if _, err := dst.Write(dataBuf); err != nil {
			return newPos, wrapIO(err, "patch: write literal bytes")
		}
		newPos += rec.CopySize

		oldPos += rec.SkipSize
		if oldPos < 0 {
			return newPos, corruptPatchf("skip_size drove old_pos negative (%d)", oldPos)
		}
	}

	if r.NewSize() >= 0 && newPos != r.NewSize() {
		return newPos, corruptPatchf("reconstructed %d bytes, declared new size was %d", newPos, r.NewSize())
	}
	return newPos, nil
}
