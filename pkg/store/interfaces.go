package store

import (
	"context"

	"lexiface/pkg/model"
)

// UtteranceStore handles speech dispatch history.
type UtteranceStore interface {
	SaveUtterance(ctx context.Context, u *model.Utterance) error
	GetRecentUtterances(ctx context.Context, limit int) ([]*model.Utterance, error)
}

// EventStore handles face event history.
type EventStore interface {
	SaveFaceEvent(ctx context.Context, e *model.FaceEvent) error
	GetRecentFaceEvents(ctx context.Context, limit int) ([]*model.FaceEvent, error)
}
