package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ndlovu-dev/inkwell/internal/models"
	apperrors "github.com/ndlovu-dev/inkwell/pkg/errors"
	"github.com/ndlovu-dev/inkwell/pkg/metrics"
)

// NoteService is the single write path for notes and permissions. Every
// content mutation and every grant runs its authorization check to completion
// before touching the store; nothing else writes to these tables.
type NoteService struct {
	db      *gorm.DB
	timeNow func() time.Time
}

// NewNoteService constructs a NoteService.
func NewNoteService(db *gorm.DB) (*NoteService, error) {
	if db == nil {
		return nil, errors.New("note service: db is required")
	}
	return &NoteService{db: db, timeNow: time.Now}, nil
}

// NoteWithPermission pairs a note with one user's permission row on it.
type NoteWithPermission struct {
	Note       models.Note       `json:"note"`
	Permission models.Permission `json:"permission"`
}

// NoteList carries parallel note/permission slices: Permissions[i] is the
// caller's row for Notes[i].
type NoteList struct {
	Notes       []models.Note       `json:"notes"`
	Permissions []models.Permission `json:"permissions"`
}

// RequireLevelAtLeast authorizes userID against noteID for the given floor.
// A missing note is NotFound; a missing or insufficient permission row is
// Unauthorized.
func (s *NoteService) RequireLevelAtLeast(ctx context.Context, userID, noteID string, min models.Level) error {
	return s.requireLevelAtLeast(ensureContext(ctx), s.db, userID, noteID, min)
}

func (s *NoteService) requireLevelAtLeast(ctx context.Context, tx *gorm.DB, userID, noteID string, min models.Level) error {
	if !min.Valid() {
		return apperrors.ErrInternalServer.WithInternal(fmt.Errorf("invalid level floor %q", min))
	}

	var note models.Note
	err := tx.WithContext(ctx).Select("id").Where("id = ?", noteID).First(&note).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		metrics.PermissionChecks.WithLabelValues(string(min), "error").Inc()
		return apperrors.ErrNotFound.WithInternal(fmt.Errorf("note %s does not exist", noteID))
	case err != nil:
		metrics.PermissionChecks.WithLabelValues(string(min), "error").Inc()
		return apperrors.ErrStorage.WithInternal(err)
	}

	var perm models.Permission
	err = tx.WithContext(ctx).
		Where("user_id = ? AND note_id = ?", userID, noteID).
		First(&perm).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		metrics.PermissionChecks.WithLabelValues(string(min), "deny").Inc()
		return apperrors.ErrUnauthorized.WithInternal(fmt.Errorf("no permission row for user %s on note %s", userID, noteID))
	case err != nil:
		metrics.PermissionChecks.WithLabelValues(string(min), "error").Inc()
		return apperrors.ErrStorage.WithInternal(err)
	}

	if !perm.Level.AtLeast(min) {
		metrics.PermissionChecks.WithLabelValues(string(min), "deny").Inc()
		return apperrors.ErrUnauthorized.WithInternal(fmt.Errorf("level %s is below %s", perm.Level, min))
	}

	metrics.PermissionChecks.WithLabelValues(string(min), "allow").Inc()
	return nil
}

// Create persists a note and its creator's owner permission row atomically.
// A note is never observable without an owner row.
func (s *NoteService) Create(ctx context.Context, userID, title, content string) (*NoteWithPermission, error) {
	ctx = ensureContext(ctx)

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewBadRequest("note title is required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	note := models.Note{
		Title:      title,
		Content:    content,
		LastEdited: s.timeNow().UTC(),
	}
	perm := models.Permission{Level: models.LevelOwner}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&note).Error; err != nil {
			return err
		}
		perm.UserID = userID
		perm.NoteID = note.ID
		return tx.Create(&perm).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("note already exists").WithInternal(err)
		}
		return nil, apperrors.ErrStorage.WithInternal(err)
	}

	return &NoteWithPermission{Note: note, Permission: perm}, nil
}

// Edit replaces note content for callers holding edit or better. The caller is
// responsible for signaling the note's room afterwards; persistence and
// broadcast are deliberately separate steps.
func (s *NoteService) Edit(ctx context.Context, userID, noteID, content string) (*models.Note, error) {
	ctx = ensureContext(ctx)

	if err := s.requireLevelAtLeast(ctx, s.db, userID, noteID, models.LevelEdit); err != nil {
		return nil, err
	}

	now := s.timeNow().UTC()
	if err := s.db.WithContext(ctx).
		Model(&models.Note{}).
		Where("id = ?", noteID).
		Updates(map[string]any{"content": content, "last_edited": now}).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(err)
	}

	var note models.Note
	if err := s.db.WithContext(ctx).Where("id = ?", noteID).First(&note).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(err)
	}

	return &note, nil
}

// Delete removes a note and all of its permission rows. Owner only. The two
// deletes share a transaction so a failure can never strand permission rows
// without a note or a note without an owner.
func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	ctx = ensureContext(ctx)

	if err := s.RequireLevelAtLeast(ctx, userID, noteID, models.LevelOwner); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("note_id = ?", noteID).Delete(&models.Permission{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", noteID).Delete(&models.Note{}).Error
	})
	if err != nil {
		return apperrors.ErrStorage.WithInternal(err)
	}

	return nil
}

// Share grants granteeHandle the given level on the note. Owner only. The
// grantee's existing row is upserted, except that an owner row is never
// rewritten: demoting the owner could leave the note ownerless.
func (s *NoteService) Share(ctx context.Context, granterID, noteID, granteeHandle string, level models.Level) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	if !level.Valid() {
		return nil, apperrors.NewBadRequest("permission level must be read, edit, or owner")
	}

	if err := s.RequireLevelAtLeast(ctx, granterID, noteID, models.LevelOwner); err != nil {
		return nil, err
	}

	granteeHandle = strings.TrimSpace(granteeHandle)
	var grantee models.User
	err := s.db.WithContext(ctx).Where("username = ?", granteeHandle).First(&grantee).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.ErrNotFound.WithInternal(fmt.Errorf("no user with handle %q", granteeHandle))
	case err != nil:
		return nil, apperrors.ErrStorage.WithInternal(err)
	}

	var existing models.Permission
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND note_id = ?", grantee.ID, noteID).
		First(&existing).Error
	if err == nil && existing.Level == models.LevelOwner {
		return nil, apperrors.NewConflict("cannot change the owner's permission")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrStorage.WithInternal(err)
	}

	perm := models.Permission{UserID: grantee.ID, NoteID: noteID, Level: level}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "note_id"}},
			DoUpdates: clause.Assignments(map[string]any{"level": level}),
		}).
		Create(&perm).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("permission row already exists").WithInternal(err)
		}
		return nil, apperrors.ErrStorage.WithInternal(err)
	}

	return &perm, nil
}

// ListForUser returns every note the user holds any permission on, paired with
// that permission row.
func (s *NoteService) ListForUser(ctx context.Context, userID string) (*NoteList, error) {
	ctx = ensureContext(ctx)

	var perms []models.Permission
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&perms).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(err)
	}

	list := &NoteList{
		Notes:       make([]models.Note, 0, len(perms)),
		Permissions: make([]models.Permission, 0, len(perms)),
	}
	if len(perms) == 0 {
		return list, nil
	}

	noteIDs := make([]string, 0, len(perms))
	for _, perm := range perms {
		noteIDs = append(noteIDs, perm.NoteID)
	}

	var notes []models.Note
	if err := s.db.WithContext(ctx).Where("id IN ?", noteIDs).Find(&notes).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(err)
	}

	byID := make(map[string]models.Note, len(notes))
	for _, note := range notes {
		byID[note.ID] = note
	}

	for _, perm := range perms {
		note, ok := byID[perm.NoteID]
		if !ok {
			// Orphaned permission row; the maintenance sweep will collect it.
			continue
		}
		list.Notes = append(list.Notes, note)
		list.Permissions = append(list.Permissions, perm)
	}

	return list, nil
}

// NoteExists reports whether the note is present. Used by the realtime hub to
// reject joins against deleted notes without consulting permissions.
func (s *NoteService) NoteExists(ctx context.Context, noteID string) (bool, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Note{}).
		Where("id = ?", noteID).
		Count(&count).Error; err != nil {
		return false, apperrors.ErrStorage.WithInternal(err)
	}
	return count > 0, nil
}
