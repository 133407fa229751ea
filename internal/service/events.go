package service

import (
	"context"

	"chronicle/internal/models"

	"github.com/google/uuid"
)

// Write operations reported through EventSink.PostWritten.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpView   = "view"
)

// PostEvent describes the outcome of a write.
type PostEvent struct {
	Operation  string
	PostID     uuid.UUID
	Slug       string
	Changes    []string
	Transition models.Transition
	// State is set on successful creates and updates.
	State     models.PublishState
	ViewCount int64
	// Err is set when the write failed.
	Err error
}

// EventSink receives what the service did so callers can log and count it.
// The service itself never logs.
type EventSink interface {
	// ReadDegraded reports a read path that answered empty because storage failed.
	ReadDegraded(ctx context.Context, operation string, err error)
	PostWritten(ctx context.Context, event PostEvent)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) ReadDegraded(context.Context, string, error) {}
func (NopSink) PostWritten(context.Context, PostEvent)      {}
