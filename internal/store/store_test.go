// ABOUTME: Tests for deck model validation helpers
// ABOUTME: Covers language, difficulty, and category enumeration checks

package store

import "testing"

func TestValidLanguage(t *testing.T) {
	for _, lang := range Languages {
		if !ValidLanguage(lang) {
			t.Errorf("ValidLanguage(%q) = false, want true", lang)
		}
	}
	for _, lang := range []string{"", "klingon", "Spanish", "SPANISH"} {
		if ValidLanguage(lang) {
			t.Errorf("ValidLanguage(%q) = true, want false", lang)
		}
	}
}

func TestValidDifficulty(t *testing.T) {
	for _, d := range Difficulties {
		if !ValidDifficulty(d) {
			t.Errorf("ValidDifficulty(%q) = false, want true", d)
		}
	}
	for _, d := range []string{"", "expert", "Beginner"} {
		if ValidDifficulty(d) {
			t.Errorf("ValidDifficulty(%q) = true, want false", d)
		}
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		if !ValidCategory(c) {
			t.Errorf("ValidCategory(%q) = false, want true", c)
		}
	}
	for _, c := range []string{"", "astrophysics", "Food"} {
		if ValidCategory(c) {
			t.Errorf("ValidCategory(%q) = true, want false", c)
		}
	}
}
