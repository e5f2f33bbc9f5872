package auth

import "testing"

func TestUsernamePattern(t *testing.T) {
	valid := []string{"bob", "fisher_42", "Deep-Sea", "a1b2c3"}
	for _, name := range valid {
		if !usernameRe.MatchString(name) {
			t.Errorf("%q should be a valid username", name)
		}
	}
	invalid := []string{"", "ab", "has space", "toolongtoolongtoolongtoolongtoolong", "bad!chars"}
	for _, name := range invalid {
		if usernameRe.MatchString(name) {
			t.Errorf("%q should be rejected", name)
		}
	}
}

func TestNewTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := newToken()
		if err != nil {
			t.Fatal(err)
		}
		if len(tok) != 64 {
			t.Fatalf("token length %d, want 64 hex chars", len(tok))
		}
		if seen[tok] {
			t.Fatal("duplicate token generated")
		}
		seen[tok] = true
	}
}
