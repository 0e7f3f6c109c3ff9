package bsdiff

import (
	"os"
)

// FormatAuto tells Patch to sniff the container variant from the patch's
// header instead of requiring the caller to remember how it was produced.
// It is not a valid argument to Diff (there is nothing to sniff when
// producing output) or to NewWriter/NewReader directly.
const FormatAuto Format = -1

// Diff computes a patch that turns old into new and writes it to
// patchPath, building a fresh suffix array over old. If patchPath is
// empty, a temporary file is created and its path returned.
func Diff(oldPath, newPath, patchPath string, format Format) (string, error) {
	old, err := os.ReadFile(oldPath)
	if err != nil {
		return "", wrapIO(err, "diff: read old file")
	}
	newBuf, err := os.ReadFile(newPath)
	if err != nil {
		return "", wrapIO(err, "diff: read new file")
	}
	return diffCommon(BuildSuffixArray(old), old, newBuf, patchPath, format)
}

// DiffWithIndex behaves like Diff but reuses a suffix array persisted by
// Index instead of rebuilding it, producing byte-identical patches to
// Diff (§8 "Index reuse equivalence").
func DiffWithIndex(oldPath, indexPath, newPath, patchPath string, format Format) (string, error) {
	old, sa, err := LoadOldAndIndex(oldPath, indexPath)
	if err != nil {
		return "", err
	}
	newBuf, err := os.ReadFile(newPath)
	if err != nil {
		return "", wrapIO(err, "diff: read new file")
	}
	return diffCommon(sa, old, newBuf, patchPath, format)
}

func diffCommon(sa *SuffixArray, old, newBuf []byte, patchPath string, format Format) (string, error) {
	if format == FormatAuto {
		return "", invalidArgumentf("diff: format must be classic or endsley, not auto")
	}
	outPath, err := resolveOutputPath(patchPath, "bsdiff-patch-")
	if err != nil {
		return "", err
	}
	err = withOutputFile(outPath, func(f *os.File) error {
		w, err := NewWriter(f, format, int64(len(newBuf)))
		if err != nil {
			return err
		}
		genErr := generateControls(sa, old, newBuf, func(rec ControlRecord, diffPayload, dataPayload []byte) error {
			if err := w.EmitControl(rec); err != nil {
				return err
			}
			if err := w.EmitDiff(diffPayload); err != nil {
				return err
			}
			return w.EmitData(dataPayload)
		})
		if genErr != nil {
			return genErr
		}
		return w.Close()
	})
	if err != nil {
		return "", err
	}
	return outPath, nil
}

// Patch applies a patch to old and writes the reconstructed new file to
// newPath (or a fresh temporary file, if newPath is empty). Pass
// FormatAuto to detect the container variant from the patch header.
func Patch(oldPath, patchPath, newPath string, format Format) (string, error) {
	old, err := os.ReadFile(oldPath)
	if err != nil {
		return "", wrapIO(err, "patch: read old file")
	}
	patchBytes, err := os.ReadFile(patchPath)
	if err != nil {
		return "", wrapIO(err, "patch: read patch file")
	}

	resolved := format
	if resolved == FormatAuto {
		resolved, err = SniffFormat(patchBytes)
		if err != nil {
			return "", err
		}
	}

	r, err := NewReader(patchBytes, resolved)
	if err != nil {
		return "", err
	}
	defer r.Close()

	outPath, err := resolveOutputPath(newPath, "bsdiff-new-")
	if err != nil {
		return "", err
	}
	err = withOutputFile(outPath, func(f *os.File) error {
		_, err := Apply(old, r, f)
		return err
	})
	if err != nil {
		return "", err
	}
	return outPath, nil
}

// Index computes the suffix array of old and persists it to indexPath
// (or a fresh temporary file), for reuse across multiple diffs of the
// same old file.
func Index(oldPath, indexPath string) (string, error) {
	old, err := os.ReadFile(oldPath)
	if err != nil {
		return "", wrapIO(err, "index: read old file")
	}
	sa := BuildSuffixArray(old)

	outPath, err := resolveOutputPath(indexPath, "bsdiff-index-")
	if err != nil {
		return "", err
	}
	err = withOutputFile(outPath, func(f *os.File) error {
		_, err := sa.WriteTo(f)
		return err
	})
	if err != nil {
		return "", err
	}
	return outPath, nil
}

// LoadOldAndIndex is the data_and_index contract from the index-
// persistence design: read old whole, open the index file, verify its
// header exactly, and decode len(old) offsets of the declared width.
func LoadOldAndIndex(dataPath, indexPath string) ([]byte, *SuffixArray, error) {
	old, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, nil, wrapIO(err, "read old file")
	}
	f, err := os.Open(indexPath)
	if err != nil {
		return nil, nil, wrapIO(err, "open index file")
	}
	defer f.Close()
	sa, err := ReadSuffixArray(f, len(old))
	if err != nil {
		return nil, nil, err
	}
	return old, sa, nil
}

// resolveOutputPath returns path unchanged if non-empty, otherwise
// reserves a fresh temporary file under the default temp directory and
// returns its path.
func resolveOutputPath(path, pattern string) (string, error) {
	if path != "" {
		return path, nil
	}
	f, err := os.CreateTemp("", pattern+"*")
	if err != nil {
		return "", wrapIO(err, "create temporary output file")
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", wrapIO(err, "close temporary output file")
	}
	return name, nil
}

// withOutputFile creates path, runs fn against it, and guarantees the
// hard contract from §5: on any error the file is closed and unlinked so
// no partial artifact remains visible.
func withOutputFile(path string, fn func(f *os.File) error) (err error) {
	f, createErr := os.Create(path)
	if createErr != nil {
		return wrapIO(createErr, "create output file")
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = wrapIO(closeErr, "close output file")
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	err = fn(f)
	return err
}
