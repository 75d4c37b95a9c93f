package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/concrnt/chunkline"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
)

const (
	chunkSize        = 600
	defaultBodySize  = 32
	defaultPlayLimit = 20
	maxPlayLimit     = 100

	playContentType = "application/concrnt.document+json"
)

// PlayUsecase serves the local play index.
type PlayUsecase struct {
	repo PlayRepository
}

func NewPlayUsecase(repo PlayRepository) *PlayUsecase {
	return &PlayUsecase{repo: repo}
}

// ChunkOf returns the chunk a timestamp belongs to.
func ChunkOf(t time.Time) int64 {
	return t.Unix() / chunkSize
}

func (uc *PlayUsecase) Recent(ctx context.Context, owner string, until time.Time, limit int) ([]domain.PlayRecord, error) {
	if limit <= 0 {
		limit = defaultPlayLimit
	}
	if limit > maxPlayLimit {
		limit = maxPlayLimit
	}
	if until.IsZero() {
		until = time.Now()
	}
	return uc.repo.Recent(ctx, owner, until, limit)
}

func (uc *PlayUsecase) Manifest(ctx context.Context, owner string) (*chunkline.Manifest, error) {
	firstChunk := int64(0)
	first, err := uc.repo.FirstPlayedAt(ctx, owner)
	if err == nil {
		firstChunk = ChunkOf(first)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	base := "/chunkline/" + owner + "/plays"
	return &chunkline.Manifest{
		Version:    "1.0",
		ChunkSize:  chunkSize,
		FirstChunk: firstChunk,
		Descending: &chunkline.Endpoint{
			Iterator: base + "/{chunk}/itr",
			Body:     base + "/{chunk}/body",
		},
	}, nil
}

// LookupItr returns the newest chunk at or before chunkID that holds a play.
func (uc *PlayUsecase) LookupItr(ctx context.Context, owner string, chunkID int64) (int64, error) {
	cutoff := time.Unix((chunkID+1)*chunkSize, 0)
	latest, err := uc.repo.LatestPlayedAt(ctx, owner, cutoff)
	if err != nil {
		return 0, err
	}
	return ChunkOf(latest), nil
}

// LoadBody lists the plays of a chunk, newest first. At least the last
// defaultBodySize plays up to the chunk end are returned so sparse timelines
// still page.
func (uc *PlayUsecase) LoadBody(ctx context.Context, owner string, chunkID int64) ([]chunkline.BodyItem, error) {
	chunkEnd := time.Unix((chunkID+1)*chunkSize, 0)
	prevChunk := time.Unix((chunkID-1)*chunkSize, 0)

	records, err := uc.repo.Recent(ctx, owner, chunkEnd, defaultBodySize)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk %d: %w", chunkID, err)
	}

	if len(records) == 0 || records[len(records)-1].PlayedAt.After(prevChunk) {
		records, err = uc.repo.Between(ctx, owner, prevChunk, chunkEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to load chunk %d: %w", chunkID, err)
		}
	}

	items := make([]chunkline.BodyItem, 0, len(records))
	for _, record := range records {
		items = append(items, chunkline.BodyItem{
			Href:        record.URI,
			Timestamp:   record.PlayedAt,
			ContentType: playContentType,
		})
	}
	return items, nil
}
