package usecase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/concrnt/chunkline"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
)

const maxFeedTimelines = 32

// FeedUsecase merges the play timelines of several owners, wherever their
// inscriber node is.
type FeedUsecase struct {
	gateway TimelineGateway
}

func NewFeedUsecase(gateway TimelineGateway) *FeedUsecase {
	return &FeedUsecase{gateway: gateway}
}

func (uc *FeedUsecase) Recent(ctx context.Context, timelines []string, until time.Time, limit int) ([]chunkline.BodyItem, error) {

	if uc.gateway == nil {
		return nil, fmt.Errorf("timeline gateway not configured")
	}
	if len(timelines) == 0 {
		return []chunkline.BodyItem{}, nil
	}
	if len(timelines) > maxFeedTimelines {
		return nil, fmt.Errorf("%w: too many timelines: %d > %d", domain.ErrInvalidArgument, len(timelines), maxFeedTimelines)
	}
	for _, tl := range timelines {
		u, err := url.Parse(tl)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: invalid timeline %q", domain.ErrInvalidArgument, tl)
		}
	}

	if limit <= 0 {
		limit = defaultPlayLimit
	}
	if limit > maxPlayLimit {
		limit = maxPlayLimit
	}
	if until.IsZero() {
		until = time.Now()
	}

	items, err := uc.gateway.QueryDescending(ctx, timelines, until, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query descending: %w", err)
	}

	return items, nil
}
