package bsdiff

// matchExtensionSlack is the fixed tuning constant from the classical
// algorithm: a candidate match is only preferred over the shifted old
// window once it gains more than this many matching bytes.
const matchExtensionSlack = 8

// generateControls scans new against old (via sa) and calls emit once per
// committed control record, passing the record plus its diff and data
// payload slices (the diff payload is freshly allocated per record; the
// data payload is a view into new, not a copy — callers that need to
// retain it across calls must copy). It does not minimize patch size;
// it is the same greedy, heuristic algorithm the reference bsdiff uses.
func generateControls(sa *SuffixArray, old, newBuf []byte, emit func(rec ControlRecord, diffPayload, dataPayload []byte) error) error {
	var scan, pos, length int
	var lastscan, lastpos, lastoffset int

	for scan < len(newBuf) {
		oldscore := 0
		scsc := scan
		scan += length

		for scan < len(newBuf) {
			pos, length = prefixSearch(sa, old, newBuf, scan)

			for ; scsc < scan+length; scsc++ {
				if scsc+lastoffset < len(old) && old[scsc+lastoffset] == newBuf[scsc] {
					oldscore++
				}
			}

			if (length == oldscore && length != 0) || length > oldscore+matchExtensionSlack {
				break
			}
			if scan+lastoffset < len(old) && old[scan+lastoffset] == newBuf[scan] {
				oldscore--
			}
			scan++
		}

		if length != oldscore || scan == len(newBuf) {
			// Forward extension from the previous commit point: walk out
			// while counting matches, tracking the i that maximizes 2s-i
			// (match density under a per-byte penalty).
			var s, Sf, lenf int
			for i := 0; lastscan+i < scan && lastpos+i < len(old); {
				if old[lastpos+i] == newBuf[lastscan+i] {
					s++
				}
				i++
				if s*2-i > Sf*2-lenf {
					Sf = s
					lenf = i
				}
			}

			// Backward extension from the current match point.
			lenb := 0
			if scan < len(newBuf) {
				var sb, Sb int
				for i := 1; scan >= lastscan+i && pos >= i; i++ {
					if old[pos-i] == newBuf[scan-i] {
						sb++
					}
					if sb*2-i > Sb*2-lenb {
						Sb = sb
						lenb = i
					}
				}
			}

			// If the forward and backward extensions overlap, split the
			// overlap at whichever crossover maximizes net matches.
			if lastscan+lenf > scan-lenb {
				overlap := (lastscan + lenf) - (scan - lenb)
				var s, Ss, lens int
				for i := 0; i < overlap; i++ {
					if newBuf[lastscan+lenf-overlap+i] == old[lastpos+lenf-overlap+i] {
						s++
					}
					if newBuf[scan-lenb+i] == old[pos-lenb+i] {
						s--
					}
					if s > Ss {
						Ss = s
						lens = i + 1
					}
				}
				lenf += lens - overlap
				lenb -= lens
			}

			diffSize := lenf
			copySize := (scan - lenb) - (lastscan + lenf)
			skipSize := (pos - lenb) - (lastpos + lenf)

			// A record with no diff and no copy bytes is dropped only when
			// it also has no skip; otherwise the applier's old cursor would
			// fall out of step with lastpos below.
			if diffSize != 0 || copySize != 0 || skipSize != 0 {
				diffPayload := make([]byte, diffSize)
				for i := 0; i < diffSize; i++ {
					diffPayload[i] = newBuf[lastscan+i] - old[lastpos+i]
				}
				dataPayload := newBuf[lastscan+diffSize : lastscan+diffSize+copySize]

				rec := ControlRecord{
					DiffSize: int64(diffSize),
					CopySize: int64(copySize),
					SkipSize: int64(skipSize),
				}
				if err := emit(rec, diffPayload, dataPayload); err != nil {
					return err
				}
			}

			lastscan = scan - lenb
			lastpos = pos - lenb
			lastoffset = pos - scan
		}
	}
	return nil
}
