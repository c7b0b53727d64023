package geodata

import "testing"

func TestDefault(t *testing.T) {
	e := Default()

	tests := []struct {
		code string
		want float64
		ok   bool
	}{
		{"PE", 1918, true},
		{"pe", 1918, true},
		{" FR ", 1076, true},
		{"world", 20000, true},
		{"WORLD", 20000, true},
		{"XX", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := e.MaxDistance(tt.code)
		if ok != tt.ok || got != tt.want {
			t.Errorf("MaxDistance(%q) = (%v, %v), want (%v, %v)", tt.code, got, ok, tt.want, tt.ok)
		}
	}

	if _, ok := e.Countries()[World]; ok {
		t.Error("Countries() should not include the world entry")
	}
	codes := e.Codes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("Codes() not sorted: %v", codes)
		}
	}
}

func TestParseRejectsNonPositive(t *testing.T) {
	if _, err := Parse([]byte("AA: 0\n")); err == nil {
		t.Error("expected error for zero distance")
	}
	if _, err := Parse([]byte("AA: [1, 2]\n")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
