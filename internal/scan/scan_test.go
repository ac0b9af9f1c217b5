package scan

import (
	"testing"

	"github.com/shapestone/vroom/internal/automaton"
	"github.com/shapestone/vroom/internal/errcollect"
	"github.com/shapestone/vroom/internal/parseindex"
)

func TestSplitChunks_CoversWholeRange(t *testing.T) {
	bounds := SplitChunks(100, 4)
	if bounds[0].Start != 0 {
		t.Fatalf("first chunk should start at 0")
	}
	if bounds[len(bounds)-1].End != 100 {
		t.Fatalf("last chunk should end at 100")
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i].Start != bounds[i-1].End {
			t.Fatalf("chunks are not contiguous: %v", bounds)
		}
	}
}

func TestSplitChunks_ZeroLength(t *testing.T) {
	bounds := SplitChunks(0, 4)
	if len(bounds) != 1 || bounds[0].Start != 0 || bounds[0].End != 0 {
		t.Fatalf("expected a single empty chunk, got %v", bounds)
	}
}

func TestCountQuotes(t *testing.T) {
	data := []byte(`a,"b",c,"d""e"` + string(make([]byte, 70)))
	n := CountQuotes(data, 0, 14, '"')
	if n != 6 {
		t.Fatalf("CountQuotes = %d, want 6", n)
	}
}

func TestStartsInsideQuotes_Parity(t *testing.T) {
	// chunk0 has 1 quote (odd) -> chunk1 starts inside
	// chunk1 has 1 quote (odd) -> chunk2 starts outside (cumulative even)
	starts := StartsInsideQuotes([]int{1, 1, 2})
	want := []bool{false, true, false}
	for i, w := range want {
		if starts[i] != w {
			t.Fatalf("starts[%d] = %v, want %v", i, starts[i], w)
		}
	}
}

func TestScanChunk_SimpleUnquoted(t *testing.T) {
	data := []byte("a,b,c\n")
	m := automaton.New(',', '"')
	idx, err := parseindex.NewInterleaved(len(data), 1)
	if err != nil {
		t.Fatalf("NewInterleaved: %v", err)
	}
	collector := errcollect.New(errcollect.Strict)

	res := ScanChunk(data, ChunkBounds{0, len(data)}, false, &m, ',', '"', 0, idx, collector)
	if res.EndsInsideQuotes {
		t.Fatalf("EndsInsideQuotes = true, want false")
	}
	if res.Separators != 3 {
		t.Fatalf("Separators = %d, want 3", res.Separators)
	}
	want := []int32{1, 3, 5}
	for i, w := range want {
		if idx.Positions[i] != w {
			t.Fatalf("Positions[%d] = %d, want %d", i, idx.Positions[i], w)
		}
	}
}

func TestScanChunk_QuotedFieldSpanningBlock(t *testing.T) {
	data := []byte(`"hello, world",done` + "\n")
	m := automaton.New(',', '"')
	idx, err := parseindex.NewInterleaved(len(data), 1)
	if err != nil {
		t.Fatalf("NewInterleaved: %v", err)
	}
	collector := errcollect.New(errcollect.Strict)

	res := ScanChunk(data, ChunkBounds{0, len(data)}, false, &m, ',', '"', 0, idx, collector)
	if res.Separators != 2 {
		t.Fatalf("Separators = %d, want 2 (comma after quote, newline)", res.Separators)
	}
	if len(collector.Entries()) != 0 {
		t.Fatalf("unexpected errors: %v", collector.Entries())
	}
}

func TestScanChunk_ReportsQuoteInUnquotedField(t *testing.T) {
	data := []byte(`a"b,c` + "\n")
	m := automaton.New(',', '"')
	idx, err := parseindex.NewInterleaved(len(data), 1)
	if err != nil {
		t.Fatalf("NewInterleaved: %v", err)
	}
	collector := errcollect.New(errcollect.BestEffort)

	ScanChunk(data, ChunkBounds{0, len(data)}, false, &m, ',', '"', 0, idx, collector)
	entries := collector.Entries()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Code != errcollect.CodeQuoteInUnquotedField {
		t.Fatalf("Code = %v, want CodeQuoteInUnquotedField", entries[0].Code)
	}
}

func TestScanChunk_StrictStopsAtFirstError(t *testing.T) {
	data := []byte(`a"b,c"d,e` + "\n")
	m := automaton.New(',', '"')
	idx, err := parseindex.NewInterleaved(len(data), 1)
	if err != nil {
		t.Fatalf("NewInterleaved: %v", err)
	}
	collector := errcollect.New(errcollect.Strict)

	ScanChunk(data, ChunkBounds{0, len(data)}, false, &m, ',', '"', 0, idx, collector)
	if len(collector.Entries()) != 1 {
		t.Fatalf("Strict mode should stop after the first error, got %d entries", len(collector.Entries()))
	}
}

func TestScanChunk_CRLFCollapsesToOneTerminator(t *testing.T) {
	// a\rb\r\nc\n: the '\r' at offset 1 is a lone terminator, but the '\r'
	// at offset 3 is immediately followed by '\n' and must not produce its
	// own separator — only the '\n' at offset 4 does.
	data := []byte("a\rb\r\nc\n")
	m := automaton.New(',', '"')
	idx, err := parseindex.NewInterleaved(len(data), 1)
	if err != nil {
		t.Fatalf("NewInterleaved: %v", err)
	}
	collector := errcollect.New(errcollect.Strict)

	res := ScanChunk(data, ChunkBounds{0, len(data)}, false, &m, ',', '"', 0, idx, collector)
	if res.Separators != 3 {
		t.Fatalf("Separators = %d, want 3", res.Separators)
	}
	want := []int32{1, 4, 6}
	for i, w := range want {
		if idx.Positions[i] != w {
			t.Fatalf("Positions[%d] = %d, want %d", i, idx.Positions[i], w)
		}
	}
}

func TestScanChunkBranchless_MatchesScanChunk(t *testing.T) {
	cases := []string{
		"a,b,c\n",
		`"hello, world",done` + "\n",
		`a,"b",c,"d""e"` + "\n",
		"a\rb\r\nc\n",
		"plain text with no structural bytes at all padded out past one block so the quote-free fast path actually runs through more than sixty-four bytes before it finds the terminator\n",
	}
	m := automaton.New(',', '"')
	for _, s := range cases {
		data := []byte(s)

		idxA, err := parseindex.NewInterleaved(len(data), 1)
		if err != nil {
			t.Fatalf("NewInterleaved: %v", err)
		}
		collA := errcollect.New(errcollect.BestEffort)
		resA := ScanChunk(data, ChunkBounds{0, len(data)}, false, &m, ',', '"', 0, idxA, collA)

		idxB, err := parseindex.NewInterleaved(len(data), 1)
		if err != nil {
			t.Fatalf("NewInterleaved: %v", err)
		}
		collB := errcollect.New(errcollect.BestEffort)
		resB := ScanChunkBranchless(data, ChunkBounds{0, len(data)}, false, &m, ',', '"', 0, idxB, collB)

		if resA.Separators != resB.Separators {
			t.Fatalf("%q: Separators scalar=%d branchless=%d", s, resA.Separators, resB.Separators)
		}
		if resA.EndsInsideQuotes != resB.EndsInsideQuotes {
			t.Fatalf("%q: EndsInsideQuotes scalar=%v branchless=%v", s, resA.EndsInsideQuotes, resB.EndsInsideQuotes)
		}
		for i := 0; i < resA.Separators; i++ {
			if idxA.Positions[i] != idxB.Positions[i] {
				t.Fatalf("%q: Positions[%d] scalar=%d branchless=%d", s, i, idxA.Positions[i], idxB.Positions[i])
			}
		}
	}
}

func TestScanChunkBranchless_UnclosedQuoteRunsToEnd(t *testing.T) {
	data := []byte(`"abc`)
	m := automaton.New(',', '"')
	idx, err := parseindex.NewInterleaved(len(data), 1)
	if err != nil {
		t.Fatalf("NewInterleaved: %v", err)
	}
	collector := errcollect.New(errcollect.Strict)

	res := ScanChunkBranchless(data, ChunkBounds{0, len(data)}, false, &m, ',', '"', 0, idx, collector)
	if !res.EndsInsideQuotes {
		t.Fatalf("EndsInsideQuotes = false, want true")
	}
}
