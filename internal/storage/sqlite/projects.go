package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskboard/internal/models"
)

// defaultStatuses are the board columns seeded into every new project.
var defaultStatuses = []string{"To Do", "In Progress", "Done"}

// ProjectsFor lists every project the user owns or is an approved member
// of, newest first, annotated with the owner name and the caller's role.
func (s *Store) ProjectsFor(ctx context.Context, userID int64) ([]models.ProjectSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT DISTINCT p.id, p.name, p.description, p.owner_id, p.created_at, u.name,
               CASE WHEN p.owner_id = ? THEN 'owner' ELSE 'member' END
        FROM projects p
        JOIN users u ON u.id = p.owner_id
        LEFT JOIN project_members pm ON pm.project_id = p.id
        WHERE p.owner_id = ? OR (pm.user_id = ? AND pm.status = 'approved')
        ORDER BY p.created_at DESC, p.id DESC`, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.ProjectSummary{}
	for rows.Next() {
		var p models.ProjectSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.OwnerName, &p.Role); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject persists a new project owned by ownerID and seeds the
// default board columns in the same transaction.
func (s *Store) CreateProject(ctx context.Context, ownerID int64, name, description string) (models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return models.Project{}, fmt.Errorf("project name must not be empty")
	}

	var id int64
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO projects(name, description, owner_id) VALUES(?, ?, ?)`,
			strings.TrimSpace(name), description, ownerID)
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("project id: %w", err)
		}
		for i, status := range defaultStatuses {
			if _, err := tx.ExecContext(ctx, `INSERT INTO statuses(project_id, name, position) VALUES(?, ?, ?)`,
				id, status, i+1); err != nil {
				return fmt.Errorf("seed status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Project{}, err
	}
	return s.GetProject(ctx, id)
}

// GetProject fetches a single project by id.
func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	var p models.Project
	err := s.db.QueryRowContext(ctx, `SELECT id, name, description, owner_id, created_at FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// DeleteProject removes a project and everything under it. Only the owner
// may delete.
func (s *Store) DeleteProject(ctx context.Context, id, requesterID int64) error {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if p.OwnerID != requesterID {
		return fmt.Errorf("only the owner can delete a project: %w", ErrForbidden)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// ProjectStatuses returns the board columns ordered by position.
func (s *Store) ProjectStatuses(ctx context.Context, projectID int64) ([]models.Status, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, position FROM statuses WHERE project_id = ? ORDER BY position, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	statuses := []models.Status{}
	for rows.Next() {
		var st models.Status
		if err := rows.Scan(&st.ID, &st.ProjectID, &st.Name, &st.Position); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}
