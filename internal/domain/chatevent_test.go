package domain

import "testing"

func TestHashContentStable(t *testing.T) {
	h1 := HashContent("Acme Corporation prefers NET30.")
	h2 := HashContent("Acme Corporation prefers NET30.")
	if h1 != h2 {
		t.Fatalf("expected stable hash for identical content")
	}
}

func TestHashContentDiffers(t *testing.T) {
	if HashContent("a") == HashContent("b") {
		t.Fatalf("expected different content to hash differently")
	}
}

func TestNewChatEventRejectsInvalidRole(t *testing.T) {
	_, err := NewChatEvent("sess1", "u1", Role("bogus"), "hello", nil)
	if err == nil {
		t.Fatalf("expected validation error for invalid role")
	}
}

func TestNewChatEventPopulatesHash(t *testing.T) {
	ev, err := NewChatEvent("sess1", "u1", RoleUser, "hello", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ContentHash != HashContent("hello") {
		t.Fatalf("expected content hash to be populated")
	}
}
