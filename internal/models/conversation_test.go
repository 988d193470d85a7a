package models

import (
	"testing"
)

func TestNewSessionSeedsSystemTurn(t *testing.T) {
	s := NewSession("you are a test assistant")

	if s.Len() != 1 {
		t.Fatalf("expected 1 turn, got %d", s.Len())
	}
	last, ok := s.Last()
	if !ok {
		t.Fatal("expected a last turn")
	}
	if last.Role != RoleSystem {
		t.Errorf("first turn role = %s, want %s", last.Role, RoleSystem)
	}
	if last.Content != "you are a test assistant" {
		t.Errorf("unexpected system content: %q", last.Content)
	}
	if s.ID == "" {
		t.Error("session ID should be set")
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	s := NewSession("sys")
	s.Append(RoleUser, "first question")
	s.Append(RoleContext, "some context")
	s.Append(RoleAssistant, "an answer")

	turns := s.Turns()
	wantRoles := []Role{RoleSystem, RoleUser, RoleContext, RoleAssistant}
	if len(turns) != len(wantRoles) {
		t.Fatalf("expected %d turns, got %d", len(wantRoles), len(turns))
	}
	for i, want := range wantRoles {
		if turns[i].Role != want {
			t.Errorf("turn %d role = %s, want %s", i, turns[i].Role, want)
		}
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	s := NewSession("sys")
	s.Append(RoleUser, "hello")

	turns := s.Turns()
	turns[0].Content = "mutated"
	turns[1].Role = RoleAssistant

	fresh := s.Turns()
	if fresh[0].Content != "sys" {
		t.Error("mutating the returned slice must not affect the session")
	}
	if fresh[1].Role != RoleUser {
		t.Error("mutating the returned slice must not affect turn roles")
	}
}

func TestLastOnEmptySession(t *testing.T) {
	var s Session
	if _, ok := s.Last(); ok {
		t.Error("zero-turn session should report no last turn")
	}
}
