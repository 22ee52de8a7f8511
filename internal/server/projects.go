package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

// handleListProjects returns the projects the caller owns or belongs to.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ProjectsFor(c.Request.Context(), currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// handleCreateProject creates a project owned by the caller.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errValidation, err))
		return
	}

	project, err := s.store.CreateProject(c.Request.Context(), currentUser(c), req.Name, req.Description)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// handleProjectDetail returns the full board: columns, enriched tasks and
// the member list. Access is re-checked inside the store.
func (s *Server) handleProjectDetail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := s.store.ProjectDetail(c.Request.Context(), id, currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// handleDeleteProject removes a project; only the owner may.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteProject(c.Request.Context(), id, currentUser(c)); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "project deleted"})
}

// handleInvite invites a user by email; only the owner may.
func (s *Server) handleInvite(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errValidation, err))
		return
	}

	if err := s.store.Invite(c.Request.Context(), id, currentUser(c), req.Email); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invitation sent"})
}

// handlePendingInvitations lists the caller's unanswered invitations.
func (s *Server) handlePendingInvitations(c *gin.Context) {
	invitations, err := s.store.PendingInvitations(c.Request.Context(), currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitations)
}

// handleRespondInvitation approves or rejects the caller's invitation.
func (s *Server) handleRespondInvitation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	action := c.Param("action")
	if action != "approve" && action != "reject" {
		s.respondError(c, fmt.Errorf("%w: unknown action %q", errValidation, action))
		return
	}

	if err := s.store.RespondInvitation(c.Request.Context(), id, currentUser(c), action == "approve"); err != nil {
		s.respondError(c, err)
		return
	}
	if action == "approve" {
		c.JSON(http.StatusOK, gin.H{"message": "invitation approved"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invitation rejected"})
}
