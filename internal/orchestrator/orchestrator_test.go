package orchestrator

import (
	"testing"

	"github.com/shapestone/vroom/internal/errcollect"
)

func TestParse_SimpleCommaFile(t *testing.T) {
	data := []byte("name,age\nalice,30\nbob,25\n")
	res, err := Parse(data, Options{Algorithm: AlgorithmBranchless, Mode: errcollect.Strict, HasHeader: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Delimiter != ',' {
		t.Fatalf("Delimiter = %q, want ','", res.Delimiter)
	}
	if res.Index.Columns != 2 {
		t.Fatalf("Columns = %d, want 2", res.Index.Columns)
	}
	if got := res.Index.Rows(); got != 3 {
		t.Fatalf("Rows = %d, want 3 (header + 2 data rows)", got)
	}
	if len(res.HeaderRow) != 2 || res.HeaderRow[0] != "name" || res.HeaderRow[1] != "age" {
		t.Fatalf("HeaderRow = %v, want [name age]", res.HeaderRow)
	}
	for _, iss := range res.Issues {
		t.Errorf("unexpected issue: %+v", iss)
	}
}

func TestParse_ExplicitDialectSkipsDetection(t *testing.T) {
	data := []byte("a;b;c\n1;2;3\n")
	res, err := Parse(data, Options{
		Delimiter: ';',
		Quote:     '"',
		Algorithm: AlgorithmBranchless,
		Mode:      errcollect.Strict,
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Index.Columns != 3 {
		t.Fatalf("Columns = %d, want 3", res.Index.Columns)
	}
	if res.Index.Rows() != 2 {
		t.Fatalf("Rows = %d, want 2", res.Index.Rows())
	}
}

func TestParse_TwoPassMatchesBranchless(t *testing.T) {
	var data []byte
	for i := 0; i < 200; i++ {
		data = append(data, []byte("col1,col2,col3\n")...)
	}
	branch, err := Parse(data, Options{Delimiter: ',', Quote: '"', Algorithm: AlgorithmBranchless, Mode: errcollect.Strict})
	if err != nil {
		t.Fatalf("Parse(branchless): %v", err)
	}
	two, err := Parse(data, Options{Delimiter: ',', Quote: '"', Algorithm: AlgorithmTwoPass, Threads: 4, Mode: errcollect.Strict})
	if err != nil {
		t.Fatalf("Parse(twopass): %v", err)
	}
	if branch.Index.Columns != two.Index.Columns {
		t.Fatalf("Columns differ: %d vs %d", branch.Index.Columns, two.Index.Columns)
	}
	if branch.Index.Rows() != two.Index.Rows() {
		t.Fatalf("Rows differ: %d vs %d", branch.Index.Rows(), two.Index.Rows())
	}
	if len(branch.Index.Positions) != len(two.Index.Positions) {
		t.Fatalf("Positions length differs: %d vs %d", len(branch.Index.Positions), len(two.Index.Positions))
	}
	for i := range branch.Index.Positions {
		if branch.Index.Positions[i] != two.Index.Positions[i] {
			t.Fatalf("Positions[%d] differ: %d vs %d", i, branch.Index.Positions[i], two.Index.Positions[i])
		}
	}
}

func TestParse_QuotedFieldsWithEmbeddedDelimiter(t *testing.T) {
	data := []byte(`name,quote` + "\n" + `alice,"hello, world"` + "\n" + `bob,"she said ""hi"""` + "\n")
	res, err := Parse(data, Options{Algorithm: AlgorithmBranchless, Mode: errcollect.Strict, HasHeader: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Index.Rows() != 3 {
		t.Fatalf("Rows = %d, want 3", res.Index.Rows())
	}
}

func TestParse_MismatchedFieldCountReported(t *testing.T) {
	data := []byte("a,b,c\n1,2,3\n4,5\n")
	res, err := Parse(data, Options{Delimiter: ',', Quote: '"', Algorithm: AlgorithmBranchless, Mode: errcollect.BestEffort})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	found := false
	for _, iss := range res.Issues {
		if iss.Message != "" && iss.Severity == errcollect.Error {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a field-count Issue, got %+v", res.Issues)
	}
}

func TestParse_RejectsSameDelimiterAndQuote(t *testing.T) {
	_, err := Parse([]byte("a,b\n"), Options{Delimiter: ',', Quote: ','})
	if err == nil {
		t.Fatalf("expected an error when delimiter == quote")
	}
}

func TestParse_EmptyInput(t *testing.T) {
	res, err := Parse([]byte{}, Options{Delimiter: ',', Quote: '"', Algorithm: AlgorithmBranchless})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Index.Rows() != 0 {
		t.Fatalf("Rows = %d, want 0", res.Index.Rows())
	}
}

func TestParse_SuccessTrueOnCleanInput(t *testing.T) {
	data := []byte("a,b,c\n1,2,3\n")
	res, err := Parse(data, Options{Delimiter: ',', Quote: '"', Algorithm: AlgorithmBranchless, Mode: errcollect.BestEffort})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !res.Success {
		t.Fatalf("Success = false, want true")
	}
}

func TestParse_SuccessFalseOnUnclosedQuote(t *testing.T) {
	data := []byte(`"abc`)
	res, err := Parse(data, Options{Delimiter: ',', Quote: '"', Algorithm: AlgorithmBranchless, Mode: errcollect.BestEffort})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Success {
		t.Fatalf("Success = true, want false for an unclosed quoted field")
	}
	foundFatal := false
	for _, e := range res.Errors {
		if e.Severity == errcollect.Fatal && e.Code == errcollect.CodeUnclosedQuote {
			foundFatal = true
		}
	}
	if !foundFatal {
		t.Fatalf("expected a Fatal CodeUnclosedQuote entry, got %+v", res.Errors)
	}
}

func TestParse_SuccessTrueOnEmptyInput(t *testing.T) {
	res, err := Parse([]byte{}, Options{Delimiter: ',', Quote: '"', Algorithm: AlgorithmBranchless})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !res.Success {
		t.Fatalf("Success = false, want true for empty input")
	}
}

func TestParse_DetectionPopulatedOnlyWhenAutoDetecting(t *testing.T) {
	data := []byte("a,b,c\n1,2,3\n")

	auto, err := Parse(data, Options{Algorithm: AlgorithmBranchless})
	if err != nil {
		t.Fatalf("Parse(auto): %v", err)
	}
	if auto.Detection == nil {
		t.Fatalf("Detection = nil, want populated when dialect was auto-detected")
	}

	explicit, err := Parse(data, Options{Delimiter: ',', Quote: '"', Algorithm: AlgorithmBranchless})
	if err != nil {
		t.Fatalf("Parse(explicit): %v", err)
	}
	if explicit.Detection != nil {
		t.Fatalf("Detection = %+v, want nil when dialect was given explicitly", explicit.Detection)
	}
}

func TestDeriveColumns_SingleRowNoTrailingNewline(t *testing.T) {
	data := []byte("a,b,c")
	res, err := Parse(data, Options{Delimiter: ',', Quote: '"', Algorithm: AlgorithmBranchless, Mode: errcollect.BestEffort})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Index.Columns != 3 {
		t.Fatalf("Columns = %d, want 3 (2 delimiters + implicit final field)", res.Index.Columns)
	}
}
