// Package service holds the task lifecycle and team administration logic.
// Every mutation loads its facts, asks policy for a decision and writes inside
// one transaction; notifications go out only after commit.
package service

import (
	"context"
	"errors"

	"taskflow/internal/apperror"
	"taskflow/internal/notify"
	"taskflow/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Notifier accepts notifications for asynchronous delivery. Publish must not
// block.
type Notifier interface {
	Publish(n notify.Notification)
}

// NopNotifier discards everything.
type NopNotifier struct{}

func (NopNotifier) Publish(notify.Notification) {}

// storeError wraps an unexpected store failure, keeping apperror values as is.
func storeError(msg string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.Internal("Request timed out", err)
	}
	return apperror.Internal(msg, err)
}

func publishAll(n Notifier, log *logrus.Logger, notes []notify.Notification) {
	for _, note := range notes {
		if len(note.Recipients) == 0 {
			continue
		}
		n.Publish(note)
		log.WithFields(logrus.Fields{
			"type":       note.Event.Type,
			"task_id":    note.Event.TaskID,
			"recipients": len(note.Recipients),
		}).Debug("notification queued")
	}
}

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicate) || repository.IsUniqueViolation(err)
}

func parseOptionalUUID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.BadRequest("Invalid " + field)
	}
	return &id, nil
}
