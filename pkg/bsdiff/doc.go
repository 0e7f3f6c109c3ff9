// Package bsdiff implements binary diff and patch in the bsdiff
// tradition: old and new are both held in memory, a suffix array over
// old is searched for approximate matches to prefixes of new, and the
// matches are scored and extended under a cost model that tolerates
// mismatches. The result is a compact patch that, applied to old,
// reconstructs new exactly.
//
// Two wire-compatible container formats are supported: FormatClassic
// ("BSDIFF40", three independently bzip2-compressed substreams) and
// FormatEndsley ("ENDSLEY/BSDIFF43", one interleaved bzip2 stream). Both
// are produced and consumed by the same ControlRecord-based contract in
// Writer/Reader; NewWriter and NewReader dispatch on an explicit Format
// tag rather than runtime subtype polymorphism.
//
// The package does not attempt optimal (minimum-size) patches; it is a
// greedy heuristic, and its output is deterministic given (old, new,
// suffix array) but not guaranteed minimal.
package bsdiff
