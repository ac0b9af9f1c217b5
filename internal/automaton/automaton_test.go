package automaton

import "testing"

func TestNew_CharClassTable(t *testing.T) {
	m := New(',', '"')
	cases := map[byte]CharClass{
		',':  ClassDelimiter,
		'"':  ClassQuote,
		'\n': ClassNewline,
		'\r': ClassNewline,
		'a':  ClassOther,
		0:    ClassOther,
	}
	for b, want := range cases {
		if got := m.Classify(b); got != want {
			t.Fatalf("Classify(%q) = %v, want %v", b, got, want)
		}
	}
}

func TestStep_SimpleUnquotedField(t *testing.T) {
	m := New(',', '"')
	state := RecordStart
	for _, b := range []byte("abc") {
		p := m.Step(state, b)
		if p.Error() != ErrNone {
			t.Fatalf("unexpected error at byte %q", b)
		}
		if p.IsSeparator() {
			t.Fatalf("byte %q should not be a separator", b)
		}
		state = p.NextState()
	}
	if state != UnquotedField {
		t.Fatalf("state = %v, want UnquotedField", state)
	}

	p := m.Step(state, ',')
	if !p.IsSeparator() {
		t.Fatalf("comma should be a separator")
	}
	if p.NextState() != FieldStart {
		t.Fatalf("state after comma = %v, want FieldStart", p.NextState())
	}
}

func TestStep_QuoteInUnquotedField(t *testing.T) {
	m := New(',', '"')
	p := m.Step(UnquotedField, '"')
	if p.Error() != ErrQuoteInUnquoted {
		t.Fatalf("error = %v, want ErrQuoteInUnquoted", p.Error())
	}
}

func TestStep_InvalidAfterQuote(t *testing.T) {
	m := New(',', '"')
	p := m.Step(QuotedEnd, 'x')
	if p.Error() != ErrInvalidAfterQuote {
		t.Fatalf("error = %v, want ErrInvalidAfterQuote", p.Error())
	}
	if p.NextState() != UnquotedField {
		t.Fatalf("recovery state = %v, want UnquotedField", p.NextState())
	}
}

func TestStep_EscapedQuote(t *testing.T) {
	m := New(',', '"')
	// "" inside a quoted field: QUOTED_FIELD -quote-> QUOTED_END -quote-> QUOTED_FIELD
	p1 := m.Step(QuotedField, '"')
	if p1.NextState() != QuotedEnd {
		t.Fatalf("state after first quote = %v, want QuotedEnd", p1.NextState())
	}
	p2 := m.Step(p1.NextState(), '"')
	if p2.NextState() != QuotedField {
		t.Fatalf("state after second quote = %v, want QuotedField", p2.NextState())
	}
	if p2.Error() != ErrNone {
		t.Fatalf("escaped quote should not error")
	}
}

func TestStep_DelimiterInsideQuotedFieldIsNotSeparator(t *testing.T) {
	m := New(',', '"')
	p := m.Step(QuotedField, ',')
	if p.IsSeparator() {
		t.Fatalf("comma inside quoted field must not be a separator")
	}
	if p.NextState() != QuotedField {
		t.Fatalf("state = %v, want QuotedField", p.NextState())
	}
}

func TestPack_RoundTrip(t *testing.T) {
	for _, st := range []State{RecordStart, FieldStart, UnquotedField, QuotedField, QuotedEnd} {
		for _, e := range []ErrorCode{ErrNone, ErrQuoteInUnquoted, ErrInvalidAfterQuote} {
			for _, sep := range []bool{true, false} {
				p := pack(st, e, sep)
				if p.NextState() != st || p.Error() != e || p.IsSeparator() != sep {
					t.Fatalf("pack/unpack mismatch: st=%v e=%v sep=%v got (%v,%v,%v)",
						st, e, sep, p.NextState(), p.Error(), p.IsSeparator())
				}
			}
		}
	}
}

func TestCustomDialect_Semicolon(t *testing.T) {
	m := New(';', '\'')
	if m.Classify(';') != ClassDelimiter {
		t.Fatalf("';' should classify as delimiter")
	}
	if m.Classify('\'') != ClassQuote {
		t.Fatalf("'\\'' should classify as quote")
	}
	if m.Classify(',') != ClassOther {
		t.Fatalf("',' should classify as other under semicolon dialect")
	}
}
