package captcha

import "testing"

// TestNormalize tests the strip and length policy.
func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "punctuation stripped to six", raw: "a!b@1#2$C3", want: "ab12C3", wantOK: true},
		{name: "too short is rejected", raw: "x1", wantOK: false},
		{name: "clean six unchanged", raw: "AB12CD", want: "AB12CD", wantOK: true},
		{name: "longer truncated", raw: "AB12CDEF", want: "AB12CD", wantOK: true},
		{name: "four kept", raw: " Ab1 2\n", want: "Ab12", wantOK: true},
		{name: "five kept", raw: "Ab12Z", want: "Ab12Z", wantOK: true},
		{name: "three rejected", raw: "a-b-c", wantOK: false},
		{name: "non ascii letters stripped", raw: "Äß1234é", want: "1234", wantOK: true},
		{name: "empty rejected", raw: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Normalize(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestNormalizeIdempotent verifies normalize(normalize(x)) == normalize(x).
func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"a!b@1#2$C3", "x1", "AB12CD", "  q w e r t y u i o p ", "ÄÖÜ", "12345", "1\t2\n3 4 5 6 7",
		"", "!!!!!!", "abcdefghijklmnop",
	}
	for _, in := range inputs {
		first, ok := Normalize(in)
		if !ok {
			continue
		}
		second, ok := Normalize(first)
		if !ok {
			t.Errorf("Normalize(%q) accepted, but its output %q was rejected", in, first)
			continue
		}
		if first != second {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, first, second)
		}
	}
}
