package hazard

import (
	"errors"
	"testing"
)

// TestDetect tests detection of each hazard category.
func TestDetect(t *testing.T) {
	t.Parallel()

	t.Run("reports invisible characters with offsets", func(t *testing.T) {
		t.Parallel()

		report, err := Detect("Text\u200Bwith\u200Cinvisible")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.InvisibleBidi.Count != 2 {
			t.Fatalf("expected 2 invisible matches, got %d", report.InvisibleBidi.Count)
		}
		first := report.InvisibleBidi.Matches[0]
		if first.Text != "\u200B" {
			t.Errorf("expected first match U+200B, got %q", first.Text)
		}
		if first.Offset != 4 {
			t.Errorf("expected first offset 4, got %d", first.Offset)
		}
	})

	t.Run("reports bidi overrides and BOM", func(t *testing.T) {
		t.Parallel()

		report, err := Detect("\uFEFFa\u202Eb\u2066c\u2069")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.InvisibleBidi.Count != 4 {
			t.Errorf("expected 4 matches, got %d", report.InvisibleBidi.Count)
		}
	})

	t.Run("reports smart quotes inside allow-listed attributes", func(t *testing.T) {
		t.Parallel()

		markup := `<img alt="It’s here" title="plain" data-note="“x”" class="“ignored”">`
		report, err := Detect(markup)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.SmartQuotesInAttribute.Count != 2 {
			t.Errorf("expected 2 attribute matches, got %d: %+v",
				report.SmartQuotesInAttribute.Count, report.SmartQuotesInAttribute.Matches)
		}
	})

	t.Run("attribute name match is case-insensitive", func(t *testing.T) {
		t.Parallel()

		report, err := Detect(`<div TITLE='don’t'></div>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.SmartQuotesInAttribute.Count != 1 {
			t.Errorf("expected 1 match, got %d", report.SmartQuotesInAttribute.Count)
		}
	})

	t.Run("reports one match per nbsp run", func(t *testing.T) {
		t.Parallel()

		report, err := Detect("a&nbsp;&nbsp;b&nbsp; &NBSP;\n&nbsp;c&nbsp;d")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.ConsecutiveNBSP.Count != 2 {
			t.Fatalf("expected 2 runs, got %d", report.ConsecutiveNBSP.Count)
		}
		if got := report.ConsecutiveNBSP.Matches[0].Text; got != "&nbsp;&nbsp;" {
			t.Errorf("expected first run '&nbsp;&nbsp;', got %q", got)
		}
		if got := report.ConsecutiveNBSP.Matches[0].Offset; got != 1 {
			t.Errorf("expected first run at offset 1, got %d", got)
		}
	})

	t.Run("clean text has no hazards", func(t *testing.T) {
		t.Parallel()

		report, err := Detect("Plain ASCII text with &amp; entities.")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.HasSignificant() {
			t.Errorf("expected no hazards, got %+v", report)
		}
		if report.Total() != 0 {
			t.Errorf("expected total 0, got %d", report.Total())
		}
	})

	t.Run("empty text has empty findings for every category", func(t *testing.T) {
		t.Parallel()

		report, err := Detect("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, c := range Categories {
			if f := report.Get(c); f.Count != 0 || len(f.Matches) != 0 {
				t.Errorf("expected empty finding for %s, got %+v", c, f)
			}
		}
	})

	t.Run("invalid UTF-8 returns ErrInvalidInput", func(t *testing.T) {
		t.Parallel()

		_, err := Detect("bad \xff byte")
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

// TestReportMerge tests report combination.
func TestReportMerge(t *testing.T) {
	t.Parallel()

	a, err := Detect("x\u200By")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Detect("\u200C&nbsp;&nbsp;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("sums counts and concatenates matches", func(t *testing.T) {
		t.Parallel()

		merged := a.Merge(b)
		if merged.InvisibleBidi.Count != 2 {
			t.Errorf("expected 2 invisible, got %d", merged.InvisibleBidi.Count)
		}
		if merged.InvisibleBidi.Matches[0].Text != "\u200B" {
			t.Errorf("expected receiver matches first, got %q", merged.InvisibleBidi.Matches[0].Text)
		}
		if merged.ConsecutiveNBSP.Count != 1 {
			t.Errorf("expected 1 nbsp run, got %d", merged.ConsecutiveNBSP.Count)
		}
		for _, c := range Categories {
			f := merged.Get(c)
			if f.Count != len(f.Matches) {
				t.Errorf("%s: count %d != len(matches) %d", c, f.Count, len(f.Matches))
			}
		}
	})

	t.Run("is commutative at the count level", func(t *testing.T) {
		t.Parallel()

		if a.Merge(b).Counts() != b.Merge(a).Counts() {
			t.Error("expected equal counts regardless of merge order")
		}
	})

	t.Run("does not modify operands", func(t *testing.T) {
		t.Parallel()

		_ = a.Merge(b)
		if a.InvisibleBidi.Count != 1 || len(a.InvisibleBidi.Matches) != 1 {
			t.Errorf("receiver was modified: %+v", a.InvisibleBidi)
		}
	})

	t.Run("Only keeps a single category", func(t *testing.T) {
		t.Parallel()

		only := a.Merge(b).Only(ConsecutiveNBSP)
		if only.InvisibleBidi.Count != 0 {
			t.Errorf("expected invisible dropped, got %d", only.InvisibleBidi.Count)
		}
		if only.ConsecutiveNBSP.Count != 1 {
			t.Errorf("expected nbsp kept, got %d", only.ConsecutiveNBSP.Count)
		}
	})
}

// TestCounts tests per-category totals.
func TestCounts(t *testing.T) {
	t.Parallel()

	c := Counts{InvisibleBidi: 1, SmartQuotesInAttribute: 2, ConsecutiveNBSP: 3}
	sum := c.Add(Counts{InvisibleBidi: 4})

	if sum.InvisibleBidi != 5 {
		t.Errorf("expected 5, got %d", sum.InvisibleBidi)
	}
	if sum.Total() != 10 {
		t.Errorf("expected total 10, got %d", sum.Total())
	}
	if sum.Get(SmartQuotesInAttribute) != 2 {
		t.Errorf("expected 2, got %d", sum.Get(SmartQuotesInAttribute))
	}
	if sum.Get(Category("unknown")) != 0 {
		t.Error("expected 0 for unknown category")
	}
}

// TestPattern tests access to compiled matchers.
func TestPattern(t *testing.T) {
	t.Parallel()

	for _, c := range Categories {
		if Pattern(c) == nil {
			t.Errorf("expected pattern for %s", c)
		}
	}
	if Pattern(Category("unknown")) != nil {
		t.Error("expected nil pattern for unknown category")
	}
}
