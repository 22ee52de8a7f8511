package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taskboard/internal/models"
)

// NewTask carries the fields of a task creation request.
type NewTask struct {
	ProjectID    int64
	StatusID     int64
	Title        string
	Description  string
	StartDate    *string
	EndDate      *string
	AssigneeIDs  []int64
	Dependencies []models.TaskDependency
}

// TaskChanges is a presence-aware partial update. Only fields whose Set
// flag is true are touched; Assignees and Dependencies, when present,
// replace the existing rows wholesale.
type TaskChanges struct {
	StatusID     models.Field[int64]
	Title        models.Field[string]
	Description  models.Field[string]
	StartDate    models.Field[*string]
	EndDate      models.Field[*string]
	Assignees    models.Field[[]int64]
	Dependencies models.Field[[]models.TaskDependency]
}

// ProjectDetail assembles the full board for a project: the project row,
// ordered columns, enriched tasks and the member list. Fails with
// ErrForbidden unless the requester passes CheckAccess.
func (s *Store) ProjectDetail(ctx context.Context, projectID, requesterID int64) (models.ProjectDetail, error) {
	if err := s.requireAccess(ctx, projectID, requesterID); err != nil {
		return models.ProjectDetail{}, err
	}

	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return models.ProjectDetail{}, err
	}
	statuses, err := s.ProjectStatuses(ctx, projectID)
	if err != nil {
		return models.ProjectDetail{}, err
	}
	tasks, err := s.ProjectTasks(ctx, projectID)
	if err != nil {
		return models.ProjectDetail{}, err
	}
	members, err := s.ProjectMembers(ctx, projectID)
	if err != nil {
		return models.ProjectDetail{}, err
	}

	return models.ProjectDetail{
		Project:  p,
		Statuses: statuses,
		Tasks:    tasks,
		Members:  members,
	}, nil
}

// ProjectTasks returns the project's tasks newest first, each enriched
// with assignees, dependency edges and attachment count.
func (s *Store) ProjectTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	return s.queryTasks(ctx, `project_id = ?`, projectID)
}

// TaskByID returns a single enriched task.
func (s *Store) TaskByID(ctx context.Context, id int64) (models.Task, error) {
	tasks, err := s.queryTasks(ctx, `id = ?`, id)
	if err != nil {
		return models.Task{}, err
	}
	if len(tasks) == 0 {
		return models.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return tasks[0], nil
}

// queryTasks fetches the base rows matching the filter, then enriches them
// with three grouped lookups keyed by task id. Multi-valued fields come
// back as typed rows, never packed into delimited strings.
func (s *Store) queryTasks(ctx context.Context, where string, args ...any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, project_id, status_id, title, description, start_date, end_date, created_at, updated_at
        FROM tasks WHERE `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	ids := []int64{}
	for rows.Next() {
		var t models.Task
		var start, end sql.NullString
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.StatusID, &t.Title, &t.Description,
			&start, &end, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if start.Valid {
			t.StartDate = &start.String
		}
		if end.Valid {
			t.EndDate = &end.String
		}
		t.Assignees = []models.Assignee{}
		t.Dependencies = []models.TaskDependency{}
		tasks = append(tasks, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return tasks, nil
	}

	assignees, err := s.taskAssignees(ctx, ids)
	if err != nil {
		return nil, err
	}
	deps, err := s.taskDependencies(ctx, ids)
	if err != nil {
		return nil, err
	}
	counts, err := s.attachmentCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		if a, ok := assignees[tasks[i].ID]; ok {
			tasks[i].Assignees = a
		}
		if d, ok := deps[tasks[i].ID]; ok {
			tasks[i].Dependencies = d
		}
		tasks[i].AttachmentsCount = counts[tasks[i].ID]
	}
	return tasks, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func (s *Store) taskAssignees(ctx context.Context, ids []int64) (map[int64][]models.Assignee, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT ta.task_id, u.id, u.name, u.email
        FROM task_assignees ta
        JOIN users u ON u.id = ta.user_id
        WHERE ta.task_id IN (`+placeholders(len(ids))+`)
        ORDER BY ta.task_id, u.id`, idArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	out := map[int64][]models.Assignee{}
	for rows.Next() {
		var taskID int64
		var a models.Assignee
		if err := rows.Scan(&taskID, &a.ID, &a.Name, &a.Email); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		out[taskID] = append(out[taskID], a)
	}
	return out, rows.Err()
}

func (s *Store) taskDependencies(ctx context.Context, ids []int64) (map[int64][]models.TaskDependency, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT task_id, depends_on_task_id, dependency_type
        FROM task_dependencies
        WHERE task_id IN (`+placeholders(len(ids))+`)
        ORDER BY task_id, depends_on_task_id`, idArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	defer rows.Close()

	out := map[int64][]models.TaskDependency{}
	for rows.Next() {
		var taskID int64
		var d models.TaskDependency
		if err := rows.Scan(&taskID, &d.DependsOnTaskID, &d.Type); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		out[taskID] = append(out[taskID], d)
	}
	return out, rows.Err()
}

func (s *Store) attachmentCounts(ctx context.Context, ids []int64) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT task_id, COUNT(*)
        FROM task_attachments
        WHERE task_id IN (`+placeholders(len(ids))+`)
        GROUP BY task_id`, idArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("count attachments: %w", err)
	}
	defer rows.Close()

	out := map[int64]int{}
	for rows.Next() {
		var taskID int64
		var n int
		if err := rows.Scan(&taskID, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[taskID] = n
	}
	return out, rows.Err()
}

// validDependencies discards edges without a target and fills in the
// default type. No cycle detection is attempted.
func validDependencies(deps []models.TaskDependency) []models.TaskDependency {
	out := []models.TaskDependency{}
	for _, d := range deps {
		if d.DependsOnTaskID == 0 {
			continue
		}
		if _, ok := models.ValidDependencyTypes[d.Type]; !ok {
			d.Type = models.DefaultDependencyType
		}
		out = append(out, d)
	}
	return out
}

// normalizeDate maps empty strings to NULL so the column never stores "".
func normalizeDate(d *string) any {
	if d == nil || *d == "" {
		return nil
	}
	return *d
}

// CreateTask inserts a task together with its assignee and dependency rows
// in one transaction, then returns the re-aggregated task. The requester
// must have access to the project.
func (s *Store) CreateTask(ctx context.Context, requesterID int64, nt NewTask) (models.Task, error) {
	if err := s.requireAccess(ctx, nt.ProjectID, requesterID); err != nil {
		return models.Task{}, err
	}
	if strings.TrimSpace(nt.Title) == "" {
		return models.Task{}, fmt.Errorf("task title must not be empty")
	}

	var id int64
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            INSERT INTO tasks(project_id, status_id, title, description, start_date, end_date)
            VALUES(?, ?, ?, ?, ?, ?)`,
			nt.ProjectID, nt.StatusID, strings.TrimSpace(nt.Title), nt.Description,
			normalizeDate(nt.StartDate), normalizeDate(nt.EndDate))
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("task id: %w", err)
		}
		if err := insertAssignees(ctx, tx, id, nt.AssigneeIDs); err != nil {
			return err
		}
		return insertDependencies(ctx, tx, id, validDependencies(nt.Dependencies))
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.TaskByID(ctx, id)
}

// UpdateTask applies a partial update. Fields absent from changes stay
// untouched; present fields overwrite, including explicit nulls. The row
// update and any list replacement run in one transaction; concurrent
// updates remain last-write-wins.
func (s *Store) UpdateTask(ctx context.Context, id int64, changes TaskChanges) (models.Task, error) {
	if _, err := s.TaskByID(ctx, id); err != nil {
		return models.Task{}, err
	}

	sets := []string{}
	args := []any{}
	if changes.StatusID.Set {
		sets = append(sets, "status_id = ?")
		args = append(args, changes.StatusID.Value)
	}
	if changes.Title.Set {
		sets = append(sets, "title = ?")
		args = append(args, changes.Title.Value)
	}
	if changes.Description.Set {
		sets = append(sets, "description = ?")
		args = append(args, changes.Description.Value)
	}
	if changes.StartDate.Set {
		sets = append(sets, "start_date = ?")
		args = append(args, normalizeDate(changes.StartDate.Value))
	}
	if changes.EndDate.Set {
		sets = append(sets, "end_date = ?")
		args = append(args, normalizeDate(changes.EndDate.Value))
	}

	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		if len(sets) > 0 {
			args = append(args, id)
			if _, err := tx.ExecContext(ctx,
				`UPDATE tasks SET `+strings.Join(sets, ", ")+`, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				args...); err != nil {
				return fmt.Errorf("update task: %w", err)
			}
		}
		if changes.Assignees.Set {
			if _, err := tx.ExecContext(ctx, `DELETE FROM task_assignees WHERE task_id = ?`, id); err != nil {
				return fmt.Errorf("clear assignees: %w", err)
			}
			if err := insertAssignees(ctx, tx, id, changes.Assignees.Value); err != nil {
				return err
			}
		}
		if changes.Dependencies.Set {
			if _, err := tx.ExecContext(ctx, `DELETE FROM task_dependencies WHERE task_id = ?`, id); err != nil {
				return fmt.Errorf("clear dependencies: %w", err)
			}
			if err := insertDependencies(ctx, tx, id, validDependencies(changes.Dependencies.Value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.TaskByID(ctx, id)
}

// DeleteTask removes the task row; assignee, dependency and attachment
// rows cascade with it. Deleting an absent task is not an error. Physical
// attachment files are the caller's concern (see the attachment handlers).
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func insertAssignees(ctx context.Context, tx *sql.Tx, taskID int64, userIDs []int64) error {
	for _, uid := range userIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO task_assignees(task_id, user_id) VALUES(?, ?)`, taskID, uid); err != nil {
			return fmt.Errorf("insert assignee: %w", err)
		}
	}
	return nil
}

func insertDependencies(ctx context.Context, tx *sql.Tx, taskID int64, deps []models.TaskDependency) error {
	for _, d := range deps {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO task_dependencies(task_id, depends_on_task_id, dependency_type) VALUES(?, ?, ?)`,
			taskID, d.DependsOnTaskID, d.Type); err != nil {
			return fmt.Errorf("insert dependency: %w", err)
		}
	}
	return nil
}
