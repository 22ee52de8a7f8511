package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/models"
	"taskboard/internal/storage/sqlite"
)

type taskCreateRequest struct {
	ProjectID    int64                   `json:"projectId"`
	StatusID     int64                   `json:"statusId"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	StartDate    *string                 `json:"startDate"`
	EndDate      *string                 `json:"endDate"`
	AssigneeIDs  []int64                 `json:"assigneeIds"`
	Dependencies []models.TaskDependency `json:"dependencies"`
}

// taskUpdateRequest is presence-aware: only keys present in the payload
// end up with Set=true, so omitted fields stay untouched while explicit
// nulls overwrite.
type taskUpdateRequest struct {
	StatusID     models.Field[int64]                   `json:"statusId"`
	Title        models.Field[string]                  `json:"title"`
	Description  models.Field[string]                  `json:"description"`
	StartDate    models.Field[*string]                 `json:"startDate"`
	EndDate      models.Field[*string]                 `json:"endDate"`
	AssigneeIDs  models.Field[[]int64]                 `json:"assigneeIds"`
	Dependencies models.Field[[]models.TaskDependency] `json:"dependencies"`
}

// handleCreateTask inserts a task with its assignees and dependency edges
// and returns the re-aggregated result.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errValidation, err))
		return
	}
	if req.Title == "" {
		s.respondError(c, fmt.Errorf("%w: title is required", errValidation))
		return
	}

	task, err := s.store.CreateTask(c.Request.Context(), currentUser(c), sqlite.NewTask{
		ProjectID:    req.ProjectID,
		StatusID:     req.StatusID,
		Title:        req.Title,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		AssigneeIDs:  req.AssigneeIDs,
		Dependencies: req.Dependencies,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// handleUpdateTask applies a partial update and returns the re-aggregated
// task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req taskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errValidation, err))
		return
	}

	task, err := s.store.UpdateTask(c.Request.Context(), id, sqlite.TaskChanges{
		StatusID:     req.StatusID,
		Title:        req.Title,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Assignees:    req.AssigneeIDs,
		Dependencies: req.Dependencies,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// handleDeleteTask removes the task's files from disk best-effort, then
// deletes the row; join and metadata rows cascade with it.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	names, err := s.store.TaskAttachmentFilenames(ctx, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	for _, name := range names {
		if err := s.files.Remove(name); err != nil {
			s.logger.Warn("attachment file not removed", "filename", name, "error", err)
		}
	}

	if err := s.store.DeleteTask(ctx, id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}
