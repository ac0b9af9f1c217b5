// Package scan implements the two-pass parallel scanner of spec.md §4.E/F:
// a first pass that counts quote characters per chunk so each chunk's
// starting quote-parity is known without a sequential dependency between
// chunks, and a second pass that walks each chunk with the dialect
// automaton, scattering separator offsets into an interleaved ParseIndex
// and reporting problems through an errcollect.Collector.
//
// Two second-pass variants are kept side by side, per spec.md §4.F: ScanChunk
// skips whole blocks that hold none of the bytes the dialect cares about and
// steps the automaton one byte at a time everywhere else, while ScanChunkBranchless folds each quote-free block's delimiter/newline
// positions out of simdprim bitmasks directly and only drops to the same
// per-byte stepping when a block actually contains a quote. Both share
// stepScalar, so they always agree on a given input.
//
// Grounded on internal/fastparser/chunked.go's SWAR 8-byte delimiter scan
// (here widened to simdprim's 64-byte blocks) and
// internal/fastparser/simd/simd.go's two-stage "detect structural
// characters, then extract" architecture, generalized from a single fixed
// dialect/single goroutine to the automaton-driven, fan-out-ready form
// spec.md §4.E/F describes.
package scan

import (
	"github.com/shapestone/vroom/internal/automaton"
	"github.com/shapestone/vroom/internal/errcollect"
	"github.com/shapestone/vroom/internal/parseindex"
	"github.com/shapestone/vroom/internal/simdprim"
)

// ChunkBounds describes one worker's contiguous byte range.
type ChunkBounds struct {
	Start, End int
}

// SplitChunks divides [0, length) into n roughly-equal, contiguous ranges.
// Boundaries fall at plain byte offsets and are not moved to record starts,
// by SplitChunks or by internal/orchestrator; each chunk's starting quote
// state comes from StartsInsideQuotes instead.
func SplitChunks(length, n int) []ChunkBounds {
	if n < 1 {
		n = 1
	}
	bounds := make([]ChunkBounds, 0, n)
	chunkSize := (length + n - 1) / n
	if chunkSize == 0 {
		chunkSize = 1
	}
	for start := 0; start < length; start += chunkSize {
		end := start + chunkSize
		if end > length {
			end = length
		}
		bounds = append(bounds, ChunkBounds{Start: start, End: end})
	}
	if len(bounds) == 0 {
		bounds = append(bounds, ChunkBounds{Start: 0, End: 0})
	}
	return bounds
}

// CountQuotes returns the number of quote bytes within data[start:end].
// This is the first pass's unit of work: independent per chunk, so
// orchestrator can run one goroutine per chunk with no cross-chunk
// synchronization (spec.md §4.E).
func CountQuotes(data []byte, start, end int, quote byte) int {
	count := 0
	i := start
	for i+simdprim.BlockSize <= end {
		blk := simdprim.Load(data[i : i+simdprim.BlockSize])
		count += simdprim.Popcount(simdprim.EqMask(blk, quote))
		i += simdprim.BlockSize
	}
	for ; i < end; i++ {
		if data[i] == quote {
			count++
		}
	}
	return count
}

// StartsInsideQuotes computes, for each chunk in order, whether it begins
// inside a quoted field, from the preceding chunks' quote counts: chunk k
// starts inside quotes iff the total quote count across chunks [0,k) is
// odd. This turns the otherwise-sequential "was the previous chunk still
// inside a quote" dependency into a prefix sum over independent counts
// (spec.md §4.E "speculative parity").
func StartsInsideQuotes(quoteCounts []int) []bool {
	starts := make([]bool, len(quoteCounts))
	odd := false
	for i, c := range quoteCounts {
		starts[i] = odd
		if c%2 != 0 {
			odd = !odd
		}
	}
	return starts
}

// Result summarizes one chunk's second-pass outcome.
type Result struct {
	// EndsInsideQuotes reports whether the chunk's scan ended inside a
	// quoted field; orchestrator compares this against the next chunk's
	// StartsInsideQuotes assumption to detect a torn chunk boundary.
	EndsInsideQuotes bool
	// Separators is the count of separator positions written for this
	// chunk (== idx.NIndexes[threadIdx] after the call).
	Separators int
}

// isSeparatorByte reports whether data[i] is itself a record/field
// terminator under the CRLF collapsing rule of spec.md §4.C, independent of
// automaton state: '\n' and the dialect delimiter always are; a lone '\r'
// is, but a '\r' immediately followed by '\n' is not (the '\n' carries the
// terminator for the pair, not the '\r'). i+1 is read from the full shared
// buffer rather than clamped to any one chunk's bounds, since every chunk's
// goroutine only ever writes within its own slot range — reading one byte
// past a chunk's end to resolve this is always safe.
func isSeparatorByte(data []byte, i int, delimiter byte) bool {
	b := data[i]
	if b == delimiter || b == '\n' {
		return true
	}
	if b == '\r' {
		return i+1 >= len(data) || data[i+1] != '\n'
	}
	return false
}

// stepScalar advances state by the single byte at data[pos], applying m's
// transition table plus the CRLF collapsing override: a '\r' that the table
// marks as a separator is demoted to a non-separator when it is immediately
// followed by '\n', so a "\r\n" pair reports exactly one terminator instead
// of two (spec.md §4.C, §8 scenario 4). The demotion only ever touches the
// separator flag — next state and error code come from the table unchanged,
// since every ClassNewline transition already carries ErrNone regardless of
// which of '\r'/'\n' triggered it.
func stepScalar(data []byte, pos int, state automaton.State, m *automaton.Machine) (next automaton.State, isSeparator bool, errCode automaton.ErrorCode) {
	b := data[pos]
	result := m.Step(state, b)
	next = result.NextState()
	errCode = result.Error()
	isSeparator = result.IsSeparator()
	if isSeparator && b == '\r' && pos+1 < len(data) && data[pos+1] == '\n' {
		isSeparator = false
	}
	return next, isSeparator, errCode
}

func reportError(collector *errcollect.Collector, pos int, err automaton.ErrorCode) bool {
	code := errcollect.CodeQuoteInUnquotedField
	if err == automaton.ErrInvalidAfterQuote {
		code = errcollect.CodeInvalidCharAfterQuote
	}
	return collector.Add(int64(pos), errcollect.Error, code, "")
}

// ScanChunk walks data[bounds.Start:bounds.End] with m, writing each
// separator's byte offset into idx at thread threadIdx, and reporting
// lexical problems to collector. startsInsideQuotes seeds the automaton's
// initial state so a field that opened in a previous chunk is resumed
// correctly.
//
// The hot path favors simdprim block scans while outside a quoted field: a
// 64-byte block holding no delimiter, quote, CR or LF byte is skipped
// without per-byte automaton dispatch; any other block is stepped through
// the automaton byte by byte for exact state tracking and error attribution, matching the teacher's
// detect-then-fall-back-to-scalar split in internal/fastparser/simd/simd.go.
func ScanChunk(data []byte, bounds ChunkBounds, startsInsideQuotes bool, m *automaton.Machine, delimiter, quote byte, threadIdx int, idx *parseindex.ParseIndex, collector *errcollect.Collector) Result {
	state := automaton.RecordStart
	if startsInsideQuotes {
		state = automaton.QuotedField
	}

	stride := idx.Stride()
	nWritten := int(idx.NIndexes[threadIdx])
	write := func(pos int) {
		slot := threadIdx + nWritten*stride
		if slot < len(idx.Positions) {
			idx.Positions[slot] = int32(pos)
		}
		nWritten++
	}

	pos := bounds.Start
	for pos < bounds.End {
		// Fast path: while not inside a quoted field, scan 64-byte blocks
		// looking for delimiter/newline/quote in bulk; if the block has
		// none of the three, skip it outright.
		if state != automaton.QuotedField && state != automaton.QuotedEnd && pos+simdprim.BlockSize <= bounds.End {
			blk := simdprim.Load(data[pos : pos+simdprim.BlockSize])
			interesting := simdprim.EqMask(blk, delimiter) | simdprim.EqMask(blk, quote) |
				simdprim.EqMask(blk, '\n') | simdprim.EqMask(blk, '\r')
			if interesting == 0 {
				pos += simdprim.BlockSize
				continue
			}
		}

		next, isSep, errCode := stepScalar(data, pos, state, m)
		if errCode != automaton.ErrNone {
			if !reportError(collector, pos, errCode) {
				state = next
				pos++
				break
			}
		}
		if isSep {
			write(pos)
		}
		state = next
		pos++
	}

	idx.NIndexes[threadIdx] = int32(nWritten)
	return Result{
		EndsInsideQuotes: state == automaton.QuotedField || state == automaton.QuotedEnd,
		Separators:       nWritten,
	}
}

// ScanChunkBranchless is the bitmask-driven second-pass variant of spec.md
// §4.F. While a block is quote-free it folds the block's quote bitmask
// (trivially empty, but threaded through simdprim.QuoteParity regardless so
// the carry math stays uniform) into an inside-quote mask, derives the
// block's separator positions from delimiter/newline bitmasks with the same
// CRLF exception as stepScalar, and scatters them with simdprim.ScatterBits
// in one shot. The moment a block contains a quote byte, control drops to
// stepScalar for that byte — the same helper ScanChunk uses — so the two
// variants always produce identical position sequences; only their
// quote-free stretches are computed differently.
func ScanChunkBranchless(data []byte, bounds ChunkBounds, startsInsideQuotes bool, m *automaton.Machine, delimiter, quote byte, threadIdx int, idx *parseindex.ParseIndex, collector *errcollect.Collector) Result {
	state := automaton.RecordStart
	if startsInsideQuotes {
		state = automaton.QuotedField
	}

	stride := idx.Stride()
	nWritten := int(idx.NIndexes[threadIdx])

	pos := bounds.Start
	for pos < bounds.End {
		if state != automaton.QuotedEnd && pos+simdprim.BlockSize <= bounds.End {
			blk := simdprim.Load(data[pos : pos+simdprim.BlockSize])
			quoteBits := simdprim.EqMask(blk, quote)
			if quoteBits == 0 {
				carry := state == automaton.QuotedField
				parityMask, carryOut := simdprim.QuoteParity(quoteBits, carry)
				insideExclusive := parityMask << 1
				if carry {
					insideExclusive |= 1
				}

				delimBits := simdprim.EqMask(blk, delimiter) | simdprim.EqMask(blk, '\n')
				for cr := simdprim.EqMask(blk, '\r'); cr != 0; cr = simdprim.ClearLowest(cr) {
					bit := simdprim.TrailingZero(cr)
					if isSeparatorByte(data, pos+bit, delimiter) {
						delimBits |= uint64(1) << uint(bit)
					}
				}
				sepBits := delimBits &^ insideExclusive
				nWritten = simdprim.ScatterBits(idx.Positions, nWritten, stride, threadIdx, int32(pos), sepBits)

				if carryOut {
					state = automaton.QuotedField
				} else {
					switch m.Classify(data[pos+simdprim.BlockSize-1]) {
					case automaton.ClassDelimiter, automaton.ClassNewline:
						state = automaton.RecordStart
					default:
						state = automaton.UnquotedField
					}
				}
				pos += simdprim.BlockSize
				continue
			}
		}

		next, isSep, errCode := stepScalar(data, pos, state, m)
		if errCode != automaton.ErrNone {
			if !reportError(collector, pos, errCode) {
				state = next
				pos++
				break
			}
		}
		if isSep {
			slot := threadIdx + nWritten*stride
			if slot < len(idx.Positions) {
				idx.Positions[slot] = int32(pos)
			}
			nWritten++
		}
		state = next
		pos++
	}

	idx.NIndexes[threadIdx] = int32(nWritten)
	return Result{
		EndsInsideQuotes: state == automaton.QuotedField || state == automaton.QuotedEnd,
		Separators:       nWritten,
	}
}
