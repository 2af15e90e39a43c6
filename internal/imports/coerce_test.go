package imports

import "testing"

func TestLeadingNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"1234.50 (по акции)", 1234.50, true},
		{"1234,50", 1234.50, true},
		{"1 200,50", 1200.50, true},
		{"1 200", 1200, true}, // NBSP thousands separator
		{"599.", 599, true},
		{"0", 0, true},
		{"12.3.4", 12.3, true},
		{"  750  ", 750, true},
		{"по акции", 0, false},
		{"", 0, false},
		{".", 0, false},
		{"-100", 0, false},
	}

	for _, tt := range tests {
		got, ok := leadingNumber(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("leadingNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFloatOrZero(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"350.5", 350.5},
		{"350,5", 350.5},
		{"", 0},
		{"nan", 0},
		{"—", 0},
	}

	for _, tt := range tests {
		if got := floatOrZero(tt.in); got != tt.want {
			t.Errorf("floatOrZero(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIntOrZero(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"5", 5},
		{"5.0", 5},
		{"1 200", 1200},
		{"", 0},
		{"нет", 0},
	}

	for _, tt := range tests {
		if got := intOrZero(tt.in); got != tt.want {
			t.Errorf("intOrZero(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{800.004, 800.0},
		{19.995, 20.0},
		{0.125, 0.13},
		{1000, 1000},
	}

	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
