package utils

import (
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	st, err := NewSessionToken("secret", "sess-123", 30)
	if err != nil {
		t.Fatalf("NewSessionToken() error = %v", err)
	}
	if !st.Exp.After(time.Now().Add(25 * time.Minute)) {
		t.Errorf("Exp = %v, want roughly 30 minutes out", st.Exp)
	}

	sub, err := ParseSessionToken("secret", st.Token)
	if err != nil {
		t.Fatalf("ParseSessionToken() error = %v", err)
	}
	if sub != "sess-123" {
		t.Errorf("subject = %q, want sess-123", sub)
	}
}

func TestSessionTokenWrongSecret(t *testing.T) {
	st, err := NewSessionToken("secret", "sess-123", 30)
	if err != nil {
		t.Fatalf("NewSessionToken() error = %v", err)
	}
	if _, err := ParseSessionToken("other", st.Token); err == nil {
		t.Error("a token signed with a different secret must not verify")
	}
}

func TestSessionTokenExpired(t *testing.T) {
	st, err := NewSessionToken("secret", "sess-123", -1)
	if err != nil {
		t.Fatalf("NewSessionToken() error = %v", err)
	}
	if _, err := ParseSessionToken("secret", st.Token); err == nil {
		t.Error("an expired token must not verify")
	}
}

func TestSessionTokenGarbage(t *testing.T) {
	if _, err := ParseSessionToken("secret", "not.a.jwt"); err == nil {
		t.Error("garbage input must not verify")
	}
}
