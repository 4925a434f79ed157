package portal

import "testing"

// TestXPathLiteral tests quoting of identifiers in XPath expressions.
func TestXPathLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "U63090MH1971PTC015089", want: "'U63090MH1971PTC015089'"},
		{name: "single quote", in: "a'b", want: `"a'b"`},
		{name: "both quotes", in: `a'b"c`, want: `concat('a', "'", 'b"c')`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := XPathLiteral(tt.in); got != tt.want {
				t.Errorf("XPathLiteral(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

// TestSelectors tests defaults, merging and link expressions.
func TestSelectors(t *testing.T) {
	t.Parallel()

	t.Run("link xpath", func(t *testing.T) {
		t.Parallel()
		got := DefaultSelectors().LinkXPathFor("CIN123")
		want := "//u[contains(@class, 'company-id') and normalize-space(text())='CIN123']"
		if got != want {
			t.Errorf("got %s", got)
		}
	})

	t.Run("configured link xpath is taken literally", func(t *testing.T) {
		t.Parallel()
		s := Selectors{LinkXPath: "//a[contains(@style, 'width:100%') and text()=%s]"}
		if got, want := s.LinkXPathFor("CIN1"), "//a[contains(@style, 'width:100%') and text()='CIN1']"; got != want {
			t.Errorf("got %s, want %s", got, want)
		}
		s = Selectors{LinkXPath: "//u[@id='fixed']"}
		if got := s.LinkXPathFor("CIN1"); got != "//u[@id='fixed']" {
			t.Errorf("template without a verb changed: %s", got)
		}
	})

	t.Run("merge keeps overrides", func(t *testing.T) {
		t.Parallel()
		s := Selectors{CaptchaInput: "#captcha", URL: "  "}.Merge(DefaultSelectors())
		if s.CaptchaInput != "#captcha" {
			t.Errorf("override lost: %q", s.CaptchaInput)
		}
		if s.URL != DefaultSelectors().URL {
			t.Errorf("blank field not defaulted: %q", s.URL)
		}
		if s.ExportAllXPath == "" {
			t.Error("missing default")
		}
	})

	t.Run("normalize text", func(t *testing.T) {
		t.Parallel()
		if got := NormalizeText("  CIN\n 123\t"); got != "CIN 123" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("strategy order", func(t *testing.T) {
		t.Parallel()
		s := LinkStrategies()
		if len(s) != 2 || s[0] != LinkByAttribute || s[1] != LinkByTextMatch {
			t.Errorf("unexpected order %v", s)
		}
		if LinkByTextMatch.String() != "text-match" {
			t.Errorf("unexpected name %q", LinkByTextMatch.String())
		}
	})
}
