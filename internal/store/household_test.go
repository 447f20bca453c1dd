package store

import (
	"testing"

	"github.com/hearthkeep/hearthkeep/internal/database"
	"github.com/hearthkeep/hearthkeep/internal/model"
)

func setupHouseholdTestDB(t *testing.T) (*HouseholdStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewHouseholdStore(db), NewUserStore(db)
}

func TestHouseholdCreate(t *testing.T) {
	hs, _ := setupHouseholdTestDB(t)

	h, err := hs.Create("Baggins")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.Name != "Baggins" {
		t.Errorf("name = %q, want %q", h.Name, "Baggins")
	}
	if len(h.JoinCode) != 8 {
		t.Errorf("join code length = %d, want 8", len(h.JoinCode))
	}
}

func TestHouseholdGetByJoinCode(t *testing.T) {
	hs, _ := setupHouseholdTestDB(t)

	created, _ := hs.Create("Baggins")

	h, err := hs.GetByJoinCode(created.JoinCode)
	if err != nil {
		t.Fatalf("get by join code: %v", err)
	}
	if h == nil {
		t.Fatal("expected household, got nil")
	}
	if h.ID != created.ID {
		t.Errorf("id = %d, want %d", h.ID, created.ID)
	}

	missing, err := hs.GetByJoinCode("WRONGCODE")
	if err != nil {
		t.Fatalf("get missing code: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown join code")
	}
}

func TestHouseholdMembers(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)

	h, _ := hs.Create("Baggins")
	alice, _ := us.Create("alice@example.com", "Alice", "hash")
	bob, _ := us.Create("bob@example.com", "Bob", "hash")

	m1, err := hs.AddMember(h.ID, alice.ID, "Alice", model.RoleAdmin)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if m1.Role != model.RoleAdmin {
		t.Errorf("role = %q, want %q", m1.Role, model.RoleAdmin)
	}

	if _, err := hs.AddMember(h.ID, bob.ID, "Bob", model.RoleMember); err != nil {
		t.Fatalf("add second member: %v", err)
	}

	members, err := hs.ListMembers(h.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	got, err := hs.GetMemberByUserID(bob.ID)
	if err != nil {
		t.Fatalf("get member by user id: %v", err)
	}
	if got == nil || got.DisplayName != "Bob" {
		t.Errorf("member = %+v, want Bob", got)
	}
}

func TestHouseholdSingleMembership(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)

	h1, _ := hs.Create("Baggins")
	h2, _ := hs.Create("Took")
	alice, _ := us.Create("alice@example.com", "Alice", "hash")

	if _, err := hs.AddMember(h1.ID, alice.ID, "Alice", model.RoleAdmin); err != nil {
		t.Fatalf("add member: %v", err)
	}
	// The unique constraint on user_id enforces one household per user.
	if _, err := hs.AddMember(h2.ID, alice.ID, "Alice", model.RoleMember); err == nil {
		t.Error("expected error adding user to a second household")
	}
}

func TestHouseholdUpdateMemberRole(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)

	h, _ := hs.Create("Baggins")
	alice, _ := us.Create("alice@example.com", "Alice", "hash")
	hs.AddMember(h.ID, alice.ID, "Alice", model.RoleMember)

	m, err := hs.UpdateMemberRole(h.ID, alice.ID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if m.Role != model.RoleAdmin {
		t.Errorf("role = %q, want %q", m.Role, model.RoleAdmin)
	}
}

func TestHouseholdRemoveMember(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)

	h, _ := hs.Create("Baggins")
	alice, _ := us.Create("alice@example.com", "Alice", "hash")
	hs.AddMember(h.ID, alice.ID, "Alice", model.RoleMember)

	if err := hs.RemoveMember(h.ID, alice.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	got, err := hs.GetMember(h.ID, alice.ID)
	if err != nil {
		t.Fatalf("get removed member: %v", err)
	}
	if got != nil {
		t.Error("expected nil for removed member")
	}
}
