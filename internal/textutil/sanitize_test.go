package textutil

import "testing"

func TestSanitizeJobName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "holiday1972", "holiday1972"},
		{"spaces dropped", "  summer holiday ", "summerholiday"},
		{"punctuation dropped", "reel #3 (1974)!", "reel31974"},
		{"separators kept", "reel-03_a", "reel-03_a"},
		{"accents folded", "Noël à Paris", "NoelaParis"},
		{"path characters", "../../etc/passwd", "etcpasswd"},
		{"leading separators trimmed", "--_reel_--", "reel"},
		{"nothing usable", "¿¡!?", ""},
		{"non latin dropped", "映画", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeJobName(tt.in); got != tt.want {
				t.Errorf("SanitizeJobName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFoldAccents(t *testing.T) {
	if got := FoldAccents("Café crème"); got != "Cafe creme" {
		t.Fatalf("FoldAccents = %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(" a/b:c?d "); got != "a-b-cd" {
		t.Fatalf("SanitizeFileName = %q", got)
	}
}

func TestTernary(t *testing.T) {
	if Ternary(true, "on", "off") != "on" || Ternary(false, 1, 2) != 2 {
		t.Fatal("Ternary returned the wrong branch")
	}
}
