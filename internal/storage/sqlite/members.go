package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskboard/internal/models"
)

// CheckAccess reports whether the user may see and mutate the project:
// true for the owner and for approved members only. Pending rows do not
// grant access. The decision is re-derived on every call.
func (s *Store) CheckAccess(ctx context.Context, projectID, userID int64) (bool, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if p.OwnerID == userID {
		return true, nil
	}

	var status string
	err = s.db.QueryRowContext(ctx,
		`SELECT status FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID).
		Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return status == models.MemberApproved, nil
}

func (s *Store) requireAccess(ctx context.Context, projectID, userID int64) error {
	ok, err := s.CheckAccess(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no access to project %d: %w", projectID, ErrForbidden)
	}
	return nil
}

// Invite records a pending invitation for the user behind the given email.
// Only the project owner may invite; re-inviting a user with any existing
// membership row fails with ErrConflict.
func (s *Store) Invite(ctx context.Context, projectID, inviterID int64, email string) error {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if p.OwnerID != inviterID {
		return fmt.Errorf("only the owner can invite: %w", ErrForbidden)
	}

	invited, err := s.UserByEmail(ctx, email)
	if err != nil {
		return err
	}

	var exists int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, invited.ID).
		Scan(&exists)
	if err == nil {
		return fmt.Errorf("user %s already invited: %w", email, ErrConflict)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check invitation: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO project_members(project_id, user_id, status) VALUES(?, ?, ?)`,
		projectID, invited.ID, models.MemberPending); err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

// PendingInvitations lists the projects the user has been invited to and
// has not yet answered, newest invite first.
func (s *Store) PendingInvitations(ctx context.Context, userID int64) ([]models.Invitation, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT p.id, p.name, p.description, p.owner_id, p.created_at, u.name, pm.invited_at
        FROM project_members pm
        JOIN projects p ON p.id = pm.project_id
        JOIN users u ON u.id = p.owner_id
        WHERE pm.user_id = ? AND pm.status = 'pending'
        ORDER BY pm.invited_at DESC, p.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	invitations := []models.Invitation{}
	for rows.Next() {
		var inv models.Invitation
		if err := rows.Scan(&inv.ID, &inv.Name, &inv.Description, &inv.OwnerID, &inv.CreatedAt,
			&inv.OwnerName, &inv.InvitedAt); err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// RespondInvitation resolves a pending invite: approve flips the row to
// approved, reject deletes it. A missing row is a silent no-op.
func (s *Store) RespondInvitation(ctx context.Context, projectID, userID int64, approve bool) error {
	var err error
	if approve {
		_, err = s.db.ExecContext(ctx,
			`UPDATE project_members SET status = ? WHERE project_id = ? AND user_id = ?`,
			models.MemberApproved, projectID, userID)
	} else {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID)
	}
	if err != nil {
		return fmt.Errorf("respond invitation: %w", err)
	}
	return nil
}

// ProjectMembers assembles the member list: the explicit membership rows
// in invite order, then the owner synthesized as an approved member,
// deduplicated by user id. The owner entry reuses the project creation
// time as its invited_at.
func (s *Store) ProjectMembers(ctx context.Context, projectID int64) ([]models.Member, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT u.id, u.name, u.email, pm.status, pm.invited_at
        FROM project_members pm
        JOIN users u ON u.id = pm.user_id
        WHERE pm.project_id = ?
        ORDER BY pm.invited_at, u.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	seen := map[int64]int{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Status, &m.InvitedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		seen[m.ID] = len(members)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	owner, err := s.UserByID(ctx, p.OwnerID)
	if err != nil {
		return nil, err
	}
	if i, ok := seen[owner.ID]; ok {
		members[i].IsOwner = true
	} else {
		members = append(members, models.Member{
			ID:        owner.ID,
			Name:      owner.Name,
			Email:     owner.Email,
			Status:    models.MemberApproved,
			InvitedAt: p.CreatedAt,
			IsOwner:   true,
		})
	}
	return members, nil
}
