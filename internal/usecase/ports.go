package usecase

import (
	"context"
	"time"

	"github.com/concrnt/chunkline"

	"github.com/totegamma/concrnt-inscriber"
	"github.com/totegamma/concrnt-inscriber/internal/domain"
)

// RecordingSearcher queries the external metadata catalog.
type RecordingSearcher interface {
	SearchRecordings(ctx context.Context, query string) ([]domain.RecordingCandidate, error)
}

// MetadataResolver resolves a listen to canonical metadata. A nil result means
// no match; implementations never fail.
type MetadataResolver interface {
	Resolve(ctx context.Context, trackName, artistName, releaseName string) *domain.ResolvedRecording
}

// IdentityProvider restores the write capability of an owner.
type IdentityProvider interface {
	Restore(ctx context.Context, owner string) (RecordSink, error)
}

// RecordSink writes records into one owner's repository.
type RecordSink interface {
	Owner() string
	CreateRecord(ctx context.Context, collection, key string, record any) (string, error)
}

// PlayRepository is the local index of written plays.
type PlayRepository interface {
	Save(ctx context.Context, record domain.PlayRecord) error
	Recent(ctx context.Context, owner string, until time.Time, limit int) ([]domain.PlayRecord, error)
	FirstPlayedAt(ctx context.Context, owner string) (time.Time, error)
	LatestPlayedAt(ctx context.Context, owner string, until time.Time) (time.Time, error)
	Between(ctx context.Context, owner string, since, until time.Time) ([]domain.PlayRecord, error)
}

// APIKeyRepository stores hashed API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, key domain.APIKey) error
	GetByHash(ctx context.Context, hash string) (domain.APIKey, error)
	ListByOwner(ctx context.Context, owner string) ([]domain.APIKey, error)
	Delete(ctx context.Context, owner, id string) error
}

// SessionRepository stores the write sessions of owners.
type SessionRepository interface {
	Put(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, owner string) (domain.Session, error)
}

// SignalPublisher fans out events to realtime subscribers.
type SignalPublisher interface {
	Publish(ctx context.Context, channel string, event concrnt.Event) error
}

// TimelineGateway reads remote play timelines.
type TimelineGateway interface {
	QueryDescending(ctx context.Context, timelines []string, until time.Time, limit int) ([]chunkline.BodyItem, error)
}
