package dialog

import "testing"

func TestNormalizeSign(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"leo", "leo", true},
		{"LEO", "leo", true},
		{"  Virgo  ", "virgo", true},
		{"Лев", "leo", true},
		{"льва", "leo", true},
		{"Близнецов", "gemini", true},
		{"рыбы", "pisces", true},
		{"ВОДОЛЕЙ", "aquarius", true},
		{"giraffe", "", false},
		{"", "", false},
		{"лев ", "leo", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeSign(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("NormalizeSign(%q) = (%q, %v), want (%q, %v)",
					tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEveryCanonicalSignResolvesToItself(t *testing.T) {
	for _, sign := range Signs {
		got, ok := NormalizeSign(sign)
		if !ok || got != sign {
			t.Errorf("NormalizeSign(%q) = (%q, %v)", sign, got, ok)
		}
	}
}
