package document

import (
	"errors"
	"testing"

	"github.com/nao1215/humantouch/internal/replace"
)

func TestNormalizerNormalize(t *testing.T) {
	t.Parallel()

	t.Run("reports attribute quotes and invisible text", func(t *testing.T) {
		t.Parallel()

		res, err := NewNormalizer().Normalize("<div title=\"Smart “quotes”\">Text\u200Bhere</div>")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Hazards.SmartQuotesInAttribute.Count < 1 {
			t.Errorf("expected at least 1 attribute quote hazard, got %d", res.Hazards.SmartQuotesInAttribute.Count)
		}
		if res.Hazards.InvisibleBidi.Count != 1 {
			t.Errorf("expected 1 invisible hazard, got %d", res.Hazards.InvisibleBidi.Count)
		}
		want := `<div title="Smart &quot;quotes&quot;">Texthere</div>`
		if res.Markup != want {
			t.Errorf("expected %q, got %q", want, res.Markup)
		}
		if res.Changes != 3 {
			t.Errorf("expected 3 changes, got %d", res.Changes)
		}
		if res.Fallback != nil {
			t.Errorf("expected no fallback, got %v", res.Fallback)
		}
	})

	t.Run("never rewrites exclusion zones", func(t *testing.T) {
		t.Parallel()

		in := `<p>“a”</p>` +
			`<pre>“b” — c…</pre>` +
			`<code title="“t”">…</code>` +
			`<script>var s = "“x”";</script>` +
			`<style>p:after { content: "…"; }</style>` +
			`<div contenteditable="false">“c”<span title="’">…</span></div>`
		want := `<p>"a"</p>` +
			`<pre>“b” — c…</pre>` +
			`<code title="“t”">…</code>` +
			`<script>var s = "“x”";</script>` +
			`<style>p:after { content: "…"; }</style>` +
			`<div contenteditable="false">“c”<span title="’">…</span></div>`

		res, err := NewNormalizer().Normalize(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Markup != want {
			t.Errorf("expected %q, got %q", want, res.Markup)
		}
		if res.Changes != 2 {
			t.Errorf("expected 2 changes, got %d", res.Changes)
		}
	})

	t.Run("untouched markup renders byte for byte", func(t *testing.T) {
		t.Parallel()

		in := "<!DOCTYPE html>\n<HTML>\n<Body CLASS='x' data-Y=z>\n  <p>Fish &amp; chips &copy; 2024</p>\n" +
			"<!-- “kept” -->\n<img SRC=\"a.png\" ALT=\"plain\">\n</Body>\n</HTML>\n"
		res, err := NewNormalizer().Normalize(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Markup != in {
			t.Errorf("expected unchanged markup, got %q", res.Markup)
		}
		if res.Changes != 0 {
			t.Errorf("expected 0 changes, got %d", res.Changes)
		}
	})

	t.Run("keeps attribute name case", func(t *testing.T) {
		t.Parallel()

		res, err := NewNormalizer().Normalize(`<IMG ALT="It’s" SRC=x>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := `<IMG ALT="It's" SRC=x>`; res.Markup != want {
			t.Errorf("expected %q, got %q", want, res.Markup)
		}
	})

	t.Run("quotes rewritten unquoted values", func(t *testing.T) {
		t.Parallel()

		res, err := NewNormalizer().Normalize(`<img alt=It’s>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := `<img alt="It's">`; res.Markup != want {
			t.Errorf("expected %q, got %q", want, res.Markup)
		}
	})

	t.Run("escapes markup produced from full-width brackets", func(t *testing.T) {
		t.Parallel()

		res, err := NewNormalizer().Normalize("<p>＜ｂ＞</p>")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "<p>&lt;b></p>"; res.Markup != want {
			t.Errorf("expected %q, got %q", want, res.Markup)
		}
		if res.Changes != 3 {
			t.Errorf("expected 3 changes, got %d", res.Changes)
		}
	})

	t.Run("top-level text is in scope", func(t *testing.T) {
		t.Parallel()

		res, err := NewNormalizer().Normalize("Wait…")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Markup != "Wait..." {
			t.Errorf("expected %q, got %q", "Wait...", res.Markup)
		}
	})

	t.Run("only configured attributes are rewritten", func(t *testing.T) {
		t.Parallel()

		n := NewNormalizer(WithAttributes([]string{"DATA-Label"}))
		res, err := n.Normalize(`<b title="“a”" data-label="“b”">x</b>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := `<b title="“a”" data-label="&quot;b&quot;">x</b>`; res.Markup != want {
			t.Errorf("expected %q, got %q", want, res.Markup)
		}
	})

	t.Run("custom exclusion zones", func(t *testing.T) {
		t.Parallel()

		n := NewNormalizer(WithExclusionZones([]ExclusionZone{{Attribute: "data-raw"}}))
		res, err := n.Normalize(`<div data-raw>…</div><pre>…</pre>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := `<div data-raw>…</div><pre>...</pre>`; res.Markup != want {
			t.Errorf("expected %q, got %q", want, res.Markup)
		}
	})

	t.Run("aggressive tier", func(t *testing.T) {
		t.Parallel()

		res, err := Normalize(`<p title="€5">€5</p>`, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := `<p title="EUR5">EUR5</p>`; res.Markup != want {
			t.Errorf("expected %q, got %q", want, res.Markup)
		}
	})

	t.Run("custom engine", func(t *testing.T) {
		t.Parallel()

		n := NewNormalizer(WithEngine(replace.NewEngine(replace.WithoutRules("ellipsis"))))
		res, err := n.Normalize("<p>…—</p>")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "<p>…-</p>"; res.Markup != want {
			t.Errorf("expected %q, got %q", want, res.Markup)
		}
	})

	t.Run("invalid UTF-8 returns ErrInvalidInput", func(t *testing.T) {
		t.Parallel()

		_, err := NewNormalizer().Normalize("<p>\xff</p>")
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestNormalizerHazardAdditivity(t *testing.T) {
	t.Parallel()

	in := "<p>a\u200Bb</p><p>&nbsp;&nbsp;c\u202E</p><img alt=\"x\u200By\" title=\"don’t\">"
	res, err := NewNormalizer().Normalize(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Hazards.InvisibleBidi.Count != 3 {
		t.Errorf("expected 3 invisible hazards from text and attributes, got %d", res.Hazards.InvisibleBidi.Count)
	}
	if res.Hazards.ConsecutiveNBSP.Count != 1 {
		t.Errorf("expected 1 nbsp run, got %d", res.Hazards.ConsecutiveNBSP.Count)
	}
	if res.Hazards.SmartQuotesInAttribute.Count != 1 {
		t.Errorf("expected 1 attribute quote from the raw markup, got %d", res.Hazards.SmartQuotesInAttribute.Count)
	}
}

func TestNormalizerAttributeQuoteCountedTwice(t *testing.T) {
	t.Parallel()

	res, err := NewNormalizer().Normalize("<img title=\"don’t\">")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Markup != `<img title="don't">` {
		t.Errorf("expected quote to be replaced, got %q", res.Markup)
	}
	if res.Hazards.SmartQuotesInAttribute.Count != 1 {
		t.Errorf("expected 1 attribute quote hazard, got %d", res.Hazards.SmartQuotesInAttribute.Count)
	}
	if res.Changes != 1 {
		t.Errorf("expected the same quote to count as 1 change, got %d", res.Changes)
	}
}

func TestNormalizerSelfClosingZones(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		markup     string
		aggressive bool
		want       string
		changes    int
	}{
		{
			name:       "script body keeps its quotes",
			markup:     "<script src=\"a.js\"/>var s = \"\u201Chi\u201D\";</script><p>x</p>",
			aggressive: true,
			want:       "<script src=\"a.js\"/>var s = \"\u201Chi\u201D\";</script><p>x</p>",
		},
		{
			name:    "pre body keeps its dash",
			markup:  "<pre/>keep \u2014 me</pre><p>a\u2014b</p>",
			want:    "<pre/>keep \u2014 me</pre><p>a-b</p>",
			changes: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := Normalize(tt.markup, tt.aggressive)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Markup != tt.want {
				t.Errorf("expected %q, got %q", tt.want, res.Markup)
			}
			if res.Changes != tt.changes {
				t.Errorf("expected %d changes, got %d", tt.changes, res.Changes)
			}
		})
	}
}

func TestNormalizerRawTextEndTag(t *testing.T) {
	t.Parallel()

	t.Run("folded end tag is not written", func(t *testing.T) {
		t.Parallel()

		in := "<xmp>\uFF1C/xmp\uFF1E\uFF1Cb\uFF1Ebold</xmp>"
		res, err := NewNormalizer().Normalize(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Markup != in {
			t.Errorf("expected raw text to stay unchanged, got %q", res.Markup)
		}
		if res.Changes != 0 {
			t.Errorf("expected 0 changes, got %d", res.Changes)
		}
	})

	t.Run("other raw text is still rewritten", func(t *testing.T) {
		t.Parallel()

		res, err := NewNormalizer().Normalize("<xmp>\uFF41\u2026</xmp>")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Markup != "<xmp>a...</xmp>" {
			t.Errorf("expected %q, got %q", "<xmp>a...</xmp>", res.Markup)
		}
		if res.Changes != 2 {
			t.Errorf("expected 2 changes, got %d", res.Changes)
		}
	})
}

func TestNormalizerFallback(t *testing.T) {
	t.Parallel()

	t.Run("parser error falls back to plain text", func(t *testing.T) {
		t.Parallel()

		parseErr := errors.New("boom")
		n := NewNormalizer(WithParser(failingParser{err: parseErr}))
		in := `<p title="“a”">b…</p>`
		res, err := n.Normalize(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(res.Fallback, parseErr) {
			t.Errorf("expected fallback reason %v, got %v", parseErr, res.Fallback)
		}

		plain, err := replace.Normalize(in, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Markup != plain.Text || res.Changes != plain.Changes {
			t.Errorf("expected plain-text result (%q, %d), got (%q, %d)", plain.Text, plain.Changes, res.Markup, res.Changes)
		}
		if res.Hazards.SmartQuotesInAttribute.Count != 1 {
			t.Errorf("expected plain-text hazards, got %+v", res.Hazards)
		}
	})

	t.Run("parser panic falls back to plain text", func(t *testing.T) {
		t.Parallel()

		n := NewNormalizer(WithParser(panickingParser{}))
		res, err := n.Normalize("x…")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(res.Fallback, ErrMalformedMarkup) {
			t.Errorf("expected ErrMalformedMarkup fallback, got %v", res.Fallback)
		}
		if res.Markup != "x..." {
			t.Errorf("expected %q, got %q", "x...", res.Markup)
		}
	})

	t.Run("truncated markup falls back", func(t *testing.T) {
		t.Parallel()

		res, err := NewNormalizer().Normalize(`<p>a…</p><div title="b…`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(res.Fallback, ErrMalformedMarkup) {
			t.Errorf("expected ErrMalformedMarkup fallback, got %v", res.Fallback)
		}
		if want := `<p>a...</p><div title="b...`; res.Markup != want {
			t.Errorf("expected %q, got %q", want, res.Markup)
		}
	})

	t.Run("nil tree falls back", func(t *testing.T) {
		t.Parallel()

		res, err := NewNormalizer(WithParser(failingParser{})).Normalize("a")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Fallback == nil {
			t.Error("expected fallback for nil tree")
		}
	})
}

func TestNormalizerIdempotent(t *testing.T) {
	t.Parallel()

	docs := []string{
		"<div title=\"Smart “quotes”\">Text\u200Bhere</div>",
		`<p>“a” — b… ＜ｉ＞</p><img alt='it’s' title=“x”>`,
		`<p>Text&nbsp;&nbsp;&nbsp;here &NBSP; ½</p><meta name="d" content="“c”">`,
		`<pre>“kept”</pre><p placeholder=‘p’ aria-label="«g»">€ × ÷</p>`,
		`<p>broken <div title="x…`,
	}

	for _, aggressive := range []bool{false, true} {
		n := NewNormalizer(WithAggressive(aggressive))
		for _, doc := range docs {
			first, err := n.Normalize(doc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			second, err := n.Normalize(first.Markup)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if second.Markup != first.Markup || second.Changes != 0 {
				t.Errorf("aggressive=%v: second pass of %q gave (%q, %d changes)",
					aggressive, first.Markup, second.Markup, second.Changes)
			}
		}
	}
}

type failingParser struct {
	err error
}

func (p failingParser) Parse(string) (Tree, error) {
	return nil, p.err
}

type panickingParser struct{}

func (panickingParser) Parse(string) (Tree, error) {
	panic("unexpected token")
}

// Compile-time checks.
var (
	_ Parser   = (*HTMLParser)(nil)
	_ Tree     = (*htmlTree)(nil)
	_ TextNode = (*htmlText)(nil)
	_ Element  = (*htmlElement)(nil)
)
