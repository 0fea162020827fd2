package notes

import "testing"

func TestEncode(t *testing.T) {
	tests := []struct {
		category, detail, want string
	}{
		{"Food", "lunch", "Food|lunch"},
		{"  Food ", "  lunch  ", "Food|lunch"},
		{"Food", "", "Food"},
		{"Food", "   ", "Food"},
		{"", "taxi", "Other|taxi"},
		{"   ", "", "Other"},
	}
	for _, tt := range tests {
		if got := Encode(tt.category, tt.detail); got != tt.want {
			t.Errorf("Encode(%q, %q) = %q, want %q", tt.category, tt.detail, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		raw  string
		want Note
	}{
		{"Food|lunch", Note{"Food", "lunch"}},
		{" Food | lunch ", Note{"Food", "lunch"}},
		{"Transport", Note{"Transport", ""}},
		{"", Note{"Other", ""}},
		{"   ", Note{"Other", ""}},
		{"|taxi", Note{"Other", "taxi"}},
		{"Food|", Note{"Food", ""}},
		{"Bills|water|march", Note{"Bills", "water|march"}},
	}
	for _, tt := range tests {
		if got := Decode(tt.raw); got != tt.want {
			t.Errorf("Decode(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	pairs := []struct{ category, detail string }{
		{"Food", "lunch"},
		{"EMI / Loans", "car"},
		{"Health", "pharmacy | vitamins"},
		{"Travel", ""},
	}
	for _, p := range pairs {
		got := Decode(Encode(p.category, p.detail))
		if got.Category != p.category || got.Detail != p.detail {
			t.Errorf("round trip of (%q, %q) = %+v", p.category, p.detail, got)
		}
	}
}
