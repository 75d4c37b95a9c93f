package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/concrnt/chunkline"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
)

type mockTimelineGateway struct {
	queries [][]string
	limits  []int
}

func (m *mockTimelineGateway) QueryDescending(ctx context.Context, timelines []string, until time.Time, limit int) ([]chunkline.BodyItem, error) {
	m.queries = append(m.queries, timelines)
	m.limits = append(m.limits, limit)
	return []chunkline.BodyItem{{Href: timelines[0]}}, nil
}

func TestFeedRecent(t *testing.T) {
	gw := &mockTimelineGateway{}
	uc := NewFeedUsecase(gw)

	timelines := []string{"https://inscriber.example.com/chunkline/" + testOwner + "/plays"}
	items, err := uc.Recent(context.Background(), timelines, time.Now(), 500)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(items) != 1 || items[0].Href != timelines[0] {
		t.Fatalf("unexpected items %+v", items)
	}
	if len(gw.queries) != 1 || gw.limits[0] != maxPlayLimit {
		t.Fatalf("gateway not invoked as expected: %v %v", gw.queries, gw.limits)
	}
}

func TestFeedRejectsInvalidTimelines(t *testing.T) {
	gw := &mockTimelineGateway{}
	uc := NewFeedUsecase(gw)

	for _, tl := range []string{"cc://owner/plays", "not a url", "/relative"} {
		if _, err := uc.Recent(context.Background(), []string{tl}, time.Time{}, 10); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected invalid argument for %q, got %v", tl, err)
		}
	}

	many := make([]string, maxFeedTimelines+1)
	for i := range many {
		many[i] = "https://inscriber.example.com/chunkline/" + testOwner + "/plays"
	}
	if _, err := uc.Recent(context.Background(), many, time.Time{}, 10); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for too many timelines, got %v", err)
	}
	if len(gw.queries) != 0 {
		t.Fatalf("gateway should not be queried")
	}
}
