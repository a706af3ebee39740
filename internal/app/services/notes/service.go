// Package notes implements note management and sharing.
package notes

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	svcerr "github.com/Integral-ind/integral-backend/internal/errors"

	notedom "github.com/Integral-ind/integral-backend/internal/app/domain/note"
	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
	"github.com/Integral-ind/integral-backend/pkg/logger"
)

// Notifier receives domain events for fan-out.
type Notifier interface {
	Notify(ctx context.Context, ev notification.Event) (notification.Receipt, error)
}

// Service manages notes.
type Service struct {
	store    storage.NoteStore
	notifier Notifier
	log      *logger.Logger
}

// New creates a note Service.
func New(store storage.NoteStore, notifier Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("notes")
	}
	return &Service{store: store, notifier: notifier, log: log}
}

// Create stores a new note.
func (s *Service) Create(ctx context.Context, n notedom.Note) (notedom.Note, error) {
	if strings.TrimSpace(n.Title) == "" {
		return notedom.Note{}, svcerr.BadRequest("title is required")
	}
	if n.OwnerID == "" {
		return notedom.Note{}, svcerr.BadRequest("owner is required")
	}
	return s.store.CreateNote(ctx, n)
}

// Update applies changes. Only the owner may edit.
func (s *Service) Update(ctx context.Context, actorID string, n notedom.Note) (notedom.Note, error) {
	prev, err := s.store.GetNote(ctx, n.ID)
	if err != nil {
		return notedom.Note{}, err
	}
	if prev.OwnerID != actorID {
		return notedom.Note{}, svcerr.Forbidden("only the owner can edit a note")
	}
	n.OwnerID = prev.OwnerID
	n.SharedWith = prev.SharedWith
	return s.store.UpdateNote(ctx, n)
}

// Get returns a note if the user owns it or it was shared with them.
func (s *Service) Get(ctx context.Context, userID, id string) (notedom.Note, error) {
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return notedom.Note{}, err
	}
	if n.OwnerID != userID && !sharedWith(n, userID) {
		return notedom.Note{}, svcerr.Forbidden("no access to this note")
	}
	return n, nil
}

// List returns the user's own notes.
func (s *Service) List(ctx context.Context, userID string) ([]notedom.Note, error) {
	return s.store.ListNotes(ctx, userID)
}

// Delete removes a note. Only the owner may delete.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if n.OwnerID != actorID {
		return svcerr.Forbidden("only the owner can delete a note")
	}
	return s.store.DeleteNote(ctx, id)
}

// Share grants users access to a note and notifies the new readers.
func (s *Service) Share(ctx context.Context, actorID, id string, userIDs []string) (notedom.Note, error) {
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return notedom.Note{}, err
	}
	if n.OwnerID != actorID {
		return notedom.Note{}, svcerr.Forbidden("only the owner can share a note")
	}

	var added []string
	for _, uid := range userIDs {
		uid = strings.TrimSpace(uid)
		if uid == "" || uid == n.OwnerID || sharedWith(n, uid) {
			continue
		}
		n.SharedWith = append(n.SharedWith, uid)
		added = append(added, uid)
	}
	if len(added) == 0 {
		return n, nil
	}

	n, err = s.store.UpdateNote(ctx, n)
	if err != nil {
		return notedom.Note{}, err
	}

	s.emit(ctx, notification.TypeNoteShared, actorID, added, map[string]any{
		"note_id":    n.ID,
		"note_title": n.Title,
	})
	return n, nil
}

func sharedWith(n notedom.Note, userID string) bool {
	for _, uid := range n.SharedWith {
		if uid == userID {
			return true
		}
	}
	return false
}

func (s *Service) emit(ctx context.Context, typ notification.Type, actorID string, recipients []string, data map[string]any) {
	if s.notifier == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		s.log.WithError(err).Error("marshal event data")
		return
	}
	_, err = s.notifier.Notify(ctx, notification.Event{
		Type:       typ,
		ActorID:    actorID,
		Recipients: recipients,
		Data:       raw,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.WithError(err).WithField("type", string(typ)).Warn("notify failed")
	}
}
