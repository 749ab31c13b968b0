package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ndlovu-dev/inkwell/internal/middleware"
	"github.com/ndlovu-dev/inkwell/internal/models"
	"github.com/ndlovu-dev/inkwell/internal/realtime"
	"github.com/ndlovu-dev/inkwell/internal/services"
	"github.com/ndlovu-dev/inkwell/pkg/errors"
	"github.com/ndlovu-dev/inkwell/pkg/response"
)

// NoteHandler exposes the note CRUD and sharing endpoints. Mutations persist
// through the service only; realtime notifications are the client's
// responsibility over its websocket, so a failed save never produces a
// phantom broadcast.
type NoteHandler struct {
	svc *services.NoteService
	hub *realtime.Hub
}

// NewNoteHandler constructs a note handler.
func NewNoteHandler(svc *services.NoteService, hub *realtime.Hub) *NoteHandler {
	return &NoteHandler{svc: svc, hub: hub}
}

type createNotePayload struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content"`
}

type editNotePayload struct {
	Content *string `json:"content" validate:"required"`
}

type shareNotePayload struct {
	UserHandle string `json:"user_handle" validate:"required"`
	Level      string `json:"level" validate:"required,oneof=read edit owner"`
}

// Create registers a new note owned by the caller.
func (h *NoteHandler) Create(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthenticated)
		return
	}

	var payload createNotePayload
	if !bindAndValidate(c, &payload) {
		return
	}

	created, err := h.svc.Create(requestContext(c), userID, payload.Title, payload.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, created)
}

// List returns every note the caller holds a permission on.
func (h *NoteHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthenticated)
		return
	}

	list, err := h.svc.ListForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, list)
}

// Edit updates note content for callers holding edit or better.
func (h *NoteHandler) Edit(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthenticated)
		return
	}

	var payload editNotePayload
	if !bindAndValidate(c, &payload) {
		return
	}

	note, err := h.svc.Edit(requestContext(c), userID, c.Param("id"), *payload.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, note)
}

// Delete removes a note and its permission rows. Owner only.
func (h *NoteHandler) Delete(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthenticated)
		return
	}

	if err := h.svc.Delete(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Share grants or adjusts another user's permission on a note. Owner only.
func (h *NoteHandler) Share(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthenticated)
		return
	}

	var payload shareNotePayload
	if !bindAndValidate(c, &payload) {
		return
	}

	level, err := models.ParseLevel(payload.Level)
	if err != nil {
		response.Error(c, errors.NewBadRequest("level must be one of: read edit owner"))
		return
	}

	perm, err := h.svc.Share(requestContext(c), userID, c.Param("id"), payload.UserHandle, level)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, perm)
}

// Presence reports who is currently in the note's realtime room. Requires
// read access so membership of private rooms does not leak.
func (h *NoteHandler) Presence(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthenticated)
		return
	}

	noteID := c.Param("id")
	if err := h.svc.RequireLevelAtLeast(requestContext(c), userID, noteID, models.LevelRead); err != nil {
		response.Error(c, err)
		return
	}

	members := h.hub.Presence(noteID)
	if members == nil {
		members = []string{}
	}
	response.Success(c, http.StatusOK, gin.H{
		"note_id": noteID,
		"members": members,
	})
}
