package models

import "time"

// User is an account holder. The password hash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Project groups board columns and tasks under a single owner.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectSummary is a project as seen in the caller's project list,
// annotated with the owner's name and the caller's role.
type ProjectSummary struct {
	Project
	OwnerName string `json:"owner_name"`
	Role      string `json:"role"`
}

// ProjectDetail is the full board payload: the project itself plus its
// columns, enriched tasks and member list.
type ProjectDetail struct {
	Project
	Statuses []Status `json:"statuses"`
	Tasks    []Task   `json:"tasks"`
	Members  []Member `json:"members"`
}

// Status is a kanban column.
type Status struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
	Position  int64  `json:"position"`
}

// Task is a card on the board, enriched with its assignees, dependency
// edges and attachment count.
type Task struct {
	ID               int64            `json:"id"`
	ProjectID        int64            `json:"project_id"`
	StatusID         int64            `json:"status_id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	StartDate        *string          `json:"start_date"`
	EndDate          *string          `json:"end_date"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Assignees        []Assignee       `json:"assignees"`
	Dependencies     []TaskDependency `json:"dependencies"`
	AttachmentsCount int              `json:"attachments_count"`
}

// Assignee is the resolved user behind a task_assignees row.
type Assignee struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TaskDependency is a directed scheduling edge to another task.
type TaskDependency struct {
	DependsOnTaskID int64  `json:"depends_on_task_id"`
	Type            string `json:"dependency_type"`
}

// DefaultDependencyType is assumed when an edge arrives without a type.
const DefaultDependencyType = "finish_to_start"

// ValidDependencyTypes enumerates the supported scheduling constraints.
var ValidDependencyTypes = map[string]struct{}{
	"finish_to_start":  {},
	"start_to_start":   {},
	"finish_to_finish": {},
	"start_to_finish":  {},
}

// Membership statuses. The owner is never stored as a row; reject deletes
// the row instead of recording a state.
const (
	MemberPending  = "pending"
	MemberApproved = "approved"
)

// Member is one entry of a project's member list.
type Member struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	InvitedAt time.Time `json:"invited_at"`
	IsOwner   bool      `json:"is_owner"`
}

// Invitation is a pending invite as listed for the invited user.
type Invitation struct {
	Project
	OwnerName string    `json:"owner_name"`
	InvitedAt time.Time `json:"invited_at"`
}

// Attachment is the metadata row of an uploaded file. Filename is the
// generated on-disk name; OriginalName is what the uploader called it.
type Attachment struct {
	ID           int64     `json:"id"`
	TaskID       int64     `json:"task_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	FileSize     int64     `json:"file_size"`
	UploadedBy   int64     `json:"uploaded_by"`
	UploaderName string    `json:"uploader_name,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
