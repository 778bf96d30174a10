package pattern

import "testing"

func TestFindRepeats(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Match
	}{
		{
			name: "canonical q-notation",
			text: "X q12w",
			want: []Match{{Token: "q12w", Raw: "q12w"}},
		},
		{
			name: "uppercase q-notation is lowered",
			text: "Tumor imaging Q3W after baseline",
			want: []Match{{Token: "q3w", Raw: "Q3W"}},
		},
		{
			name: "every N cycles collapses case and spacing",
			text: "X (Every  2  Cycles)",
			want: []Match{{Token: "every 2 cycles", Raw: "Every  2  Cycles"}},
		},
		{
			name: "every N weeks",
			text: "repeat every 12 weeks thereafter",
			want: []Match{{Token: "every 12 weeks", Raw: "every 12 weeks"}},
		},
		{
			name: "multiple occurrences each yield a match",
			text: "q12w then q3w, every 2 cycles",
			want: []Match{
				{Token: "q12w", Raw: "q12w"},
				{Token: "q3w", Raw: "q3w"},
				{Token: "every 2 cycles", Raw: "every 2 cycles"},
			},
		},
		{
			name: "no pattern",
			text: "X (Optional)",
			want: nil,
		},
		{
			name: "q must be a standalone token",
			text: "seq12watch",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindRepeats(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("FindRepeats(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("match %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"C1D1", true},
		{"EOT", true},
		{"W12", true},
		{"c2d1", true},
		{"-28 to -1d", false},
		{"±7d", false},
		{"30±7d", false},
		{"visit window", false},
		{"123", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsCode(tt.content); got != tt.want {
			t.Errorf("IsCode(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestIsWindow(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"-28 to -1d", true},
		{"±7d", true},
		{"+/-7d", true},
		{"30±7d", true},
		{"-28d", true},
		{"+7d", true},
		{"C1D1", false},
		{"EOT", false},
		{"fasting", false},
	}

	for _, tt := range tests {
		if got := IsWindow(tt.content); got != tt.want {
			t.Errorf("IsWindow(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestParseWindow(t *testing.T) {
	ip := func(n int) *int { return &n }

	tests := []struct {
		name      string
		content   string
		wantLower *int
		wantUpper *int
		wantOK    bool
	}{
		{"range with signs", "-28 to -1d", ip(-28), ip(-1), true},
		{"range with both d suffixes", "-7d to +7d", ip(-7), ip(7), true},
		{"unsigned range", "1 to 3", ip(1), ip(3), true},
		{"symmetric around zero", "±3d", ip(-3), ip(3), true},
		{"ascii plus-minus", "+/-7", ip(-7), ip(7), true},
		{"symmetric around base day", "30±7d", ip(23), ip(37), true},
		{"single negative bound", "-28d", ip(-28), nil, true},
		{"single positive bound", "+7d", nil, ip(7), true},
		{"malformed stays null", "about a week", nil, nil, false},
		{"code is not a window", "C1D1", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lower, upper, ok := ParseWindow(tt.content)
			if ok != tt.wantOK {
				t.Fatalf("ParseWindow(%q) ok = %v, want %v", tt.content, ok, tt.wantOK)
			}
			if !eqIntPtr(lower, tt.wantLower) {
				t.Errorf("lower = %v, want %v", fmtIntPtr(lower), fmtIntPtr(tt.wantLower))
			}
			if !eqIntPtr(upper, tt.wantUpper) {
				t.Errorf("upper = %v, want %v", fmtIntPtr(upper), fmtIntPtr(tt.wantUpper))
			}
		})
	}
}

func eqIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtIntPtr(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
