package engine

import "testing"

func TestManagerReusesSessionPerUser(t *testing.T) {
	m := NewManager(newFakeStore(), &fakeTransport{})
	defer m.CloseAll()

	first := m.Session("u1", "u1@example.com", "token-1")
	second := m.Session("u1", "u1@example.com", "token-1")
	if first != second {
		t.Fatalf("expected one engine per user")
	}

	other := m.Session("u2", "u2@example.com", "token-2")
	if other == first {
		t.Fatalf("users must not share a session")
	}
}

func TestManagerDropStartsFreshNextTime(t *testing.T) {
	m := NewManager(newFakeStore(), &fakeTransport{})
	defer m.CloseAll()

	first := m.Session("u1", "u1@example.com", "token-1")
	m.Drop("u1")
	m.Drop("u1")

	second := m.Session("u1", "u1@example.com", "token-1")
	if first == second {
		t.Fatalf("dropped session must not be reused")
	}
}
