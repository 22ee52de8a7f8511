package sqlite

import (
	"context"
	"errors"
	"testing"
)

func TestCheckAccessTruthTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, s, "owner@example.com", "Owner")
	pending := seedUser(t, s, "pending@example.com", "Pending")
	approved := seedUser(t, s, "approved@example.com", "Approved")
	rejected := seedUser(t, s, "rejected@example.com", "Rejected")
	stranger := seedUser(t, s, "stranger@example.com", "Stranger")

	p := seedProject(t, s, owner.ID, "Board")

	for _, email := range []string{"pending@example.com", "approved@example.com", "rejected@example.com"} {
		if err := s.Invite(ctx, p.ID, owner.ID, email); err != nil {
			t.Fatalf("invite %s: %v", email, err)
		}
	}
	if err := s.RespondInvitation(ctx, p.ID, approved.ID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := s.RespondInvitation(ctx, p.ID, rejected.ID, false); err != nil {
		t.Fatalf("reject: %v", err)
	}

	cases := []struct {
		who  int64
		want bool
	}{
		{owner.ID, true},
		{approved.ID, true},
		{pending.ID, false},
		{rejected.ID, false},
		{stranger.ID, false},
	}
	for _, tc := range cases {
		got, err := s.CheckAccess(ctx, p.ID, tc.who)
		if err != nil {
			t.Fatalf("CheckAccess(%d): %v", tc.who, err)
		}
		if got != tc.want {
			t.Errorf("CheckAccess(%d) = %v, want %v", tc.who, got, tc.want)
		}
	}

	// Access to a missing project is simply denied.
	got, err := s.CheckAccess(ctx, 9999, owner.ID)
	if err != nil || got {
		t.Errorf("CheckAccess(missing) = %v, %v", got, err)
	}
}

func TestInviteFailureKinds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, s, "owner@example.com", "Owner")
	member := seedUser(t, s, "member@example.com", "Member")
	p := seedProject(t, s, owner.ID, "Board")

	if err := s.Invite(ctx, p.ID, member.ID, "owner@example.com"); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-owner invite: got %v, want ErrForbidden", err)
	}
	if err := s.Invite(ctx, p.ID, owner.ID, "ghost@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown email: got %v, want ErrNotFound", err)
	}

	if err := s.Invite(ctx, p.ID, owner.ID, "member@example.com"); err != nil {
		t.Fatalf("first invite: %v", err)
	}
	// Any existing row, pending or approved, blocks a re-invite.
	if err := s.Invite(ctx, p.ID, owner.ID, "member@example.com"); !errors.Is(err, ErrConflict) {
		t.Errorf("re-invite pending: got %v, want ErrConflict", err)
	}
	if err := s.RespondInvitation(ctx, p.ID, member.ID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := s.Invite(ctx, p.ID, owner.ID, "member@example.com"); !errors.Is(err, ErrConflict) {
		t.Errorf("re-invite approved: got %v, want ErrConflict", err)
	}
}

func TestRespondInvitationTransitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, s, "owner@example.com", "Owner")
	member := seedUser(t, s, "member@example.com", "Member")
	p := seedProject(t, s, owner.ID, "Board")

	if err := s.Invite(ctx, p.ID, owner.ID, "member@example.com"); err != nil {
		t.Fatalf("invite: %v", err)
	}

	invites, err := s.PendingInvitations(ctx, member.ID)
	if err != nil {
		t.Fatalf("PendingInvitations: %v", err)
	}
	if len(invites) != 1 || invites[0].ID != p.ID || invites[0].OwnerName != "Owner" {
		t.Fatalf("pending invites = %+v", invites)
	}

	if err := s.RespondInvitation(ctx, p.ID, member.ID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if ok, _ := s.CheckAccess(ctx, p.ID, member.ID); !ok {
		t.Error("approved member has no access")
	}
	invites, err = s.PendingInvitations(ctx, member.ID)
	if err != nil {
		t.Fatalf("PendingInvitations: %v", err)
	}
	if len(invites) != 0 {
		t.Errorf("approved invite still pending: %+v", invites)
	}

	// Reject removes the row; the member disappears entirely.
	if err := s.RespondInvitation(ctx, p.ID, member.ID, false); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if ok, _ := s.CheckAccess(ctx, p.ID, member.ID); ok {
		t.Error("rejected member still has access")
	}
	members, err := s.ProjectMembers(ctx, p.ID)
	if err != nil {
		t.Fatalf("ProjectMembers: %v", err)
	}
	for _, m := range members {
		if m.ID == member.ID {
			t.Errorf("rejected member still listed: %+v", m)
		}
	}

	// Responding with no matching row is a silent no-op.
	if err := s.RespondInvitation(ctx, p.ID, member.ID, true); err != nil {
		t.Errorf("no-op approve: %v", err)
	}
}

func TestProjectMembersIncludesOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, s, "owner@example.com", "Owner")
	member := seedUser(t, s, "member@example.com", "Member")
	p := seedProject(t, s, owner.ID, "Board")

	if err := s.Invite(ctx, p.ID, owner.ID, "member@example.com"); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := s.RespondInvitation(ctx, p.ID, member.ID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}

	members, err := s.ProjectMembers(ctx, p.ID)
	if err != nil {
		t.Fatalf("ProjectMembers: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %+v, want 2 entries", members)
	}

	byID := map[int64]int{}
	for i, m := range members {
		if _, dup := byID[m.ID]; dup {
			t.Fatalf("member %d listed twice", m.ID)
		}
		byID[m.ID] = i
	}
	ownerEntry := members[byID[owner.ID]]
	if !ownerEntry.IsOwner || ownerEntry.Status != "approved" {
		t.Errorf("owner entry = %+v", ownerEntry)
	}
	memberEntry := members[byID[member.ID]]
	if memberEntry.IsOwner {
		t.Errorf("member entry tagged as owner: %+v", memberEntry)
	}
}
