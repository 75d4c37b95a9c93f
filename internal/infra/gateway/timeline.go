package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/concrnt/chunkline"
	"github.com/patrickmn/go-cache"

	"github.com/totegamma/concrnt-inscriber/client"
	"github.com/totegamma/concrnt-inscriber/internal/usecase"
)

const chunklineContentType = "application/chunkline+json"

// TimelineGateway merges play timelines published by inscriber nodes. A
// timeline is addressed by the URL of its chunkline manifest.
type TimelineGateway struct {
	resolver *chunkline.Client
}

func NewTimelineGateway(cl *client.Client) *TimelineGateway {
	r := &timelineResolver{
		client: cl,
		cache:  cache.New(10*time.Minute, 15*time.Minute),
	}
	return &TimelineGateway{
		resolver: chunkline.NewClient(r),
	}
}

func (g *TimelineGateway) QueryDescending(ctx context.Context, timelines []string, until time.Time, limit int) ([]chunkline.BodyItem, error) {
	ctx, span := tracer.Start(ctx, "Timeline.Gateway.QueryDescending")
	defer span.End()

	items, err := g.resolver.QueryDescending(ctx, timelines, until, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return items, nil
}

// timelineResolver implements chunkline resolver callbacks.
type timelineResolver struct {
	client *client.Client
	cache  *cache.Cache
}

func (r *timelineResolver) ResolveTimelines(ctx context.Context, timelines []string) (map[string]chunkline.Manifest, error) {

	result := make(map[string]chunkline.Manifest)

	for _, tl := range timelines {
		if cached, found := r.cache.Get(tl); found {
			result[tl] = cached.(chunkline.Manifest)
			continue
		}

		var manifest chunkline.Manifest
		err := r.client.GetJSON(ctx, tl, chunklineContentType, &manifest)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve timeline %s: %w", tl, err)
		}
		if manifest.Descending == nil || manifest.Descending.Iterator == "" || manifest.Descending.Body == "" {
			return nil, fmt.Errorf("timeline %s does not support descending iteration", tl)
		}

		result[tl] = manifest
		r.cache.Set(tl, manifest, cache.DefaultExpiration)
	}
	return result, nil
}

// plays are never retracted from a timeline
func (r *timelineResolver) GetRemovedItems(ctx context.Context, timelines []string) (map[string][]string, error) {
	result := make(map[string][]string)
	for _, tl := range timelines {
		result[tl] = []string{}
	}
	return result, nil
}

func (r *timelineResolver) LookupChunkItrs(ctx context.Context, timelines []string, until time.Time) (map[string]string, error) {

	manifests, err := r.ResolveTimelines(ctx, timelines)
	if err != nil {
		return nil, err
	}

	results := make(map[string]string)
	for _, tl := range timelines {
		manifest := manifests[tl]

		endpoint, err := chunkURL(tl, manifest.Descending.Iterator, strconv.FormatInt(manifest.Time2Chunk(until), 10))
		if err != nil {
			return nil, err
		}

		result, err := r.client.GetText(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		results[tl] = strings.TrimSpace(result)
	}
	return results, nil
}

func (r *timelineResolver) LoadChunkBodies(ctx context.Context, query map[string]string) (map[string]chunkline.BodyChunk, error) {

	timelines := make([]string, 0, len(query))
	for tl := range query {
		timelines = append(timelines, tl)
	}

	manifests, err := r.ResolveTimelines(ctx, timelines)
	if err != nil {
		return nil, err
	}

	result := make(map[string]chunkline.BodyChunk)
	for tl, itr := range query {
		manifest := manifests[tl]

		chunkID, err := strconv.ParseInt(itr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chunk ID %s: %w", itr, err)
		}

		endpoint, err := chunkURL(tl, manifest.Descending.Body, itr)
		if err != nil {
			return nil, err
		}

		var items []chunkline.BodyItem
		err = r.client.GetJSON(ctx, endpoint, "application/json", &items)
		if err != nil {
			return nil, err
		}

		result[tl] = chunkline.BodyChunk{
			URI:     tl,
			ChunkID: chunkID,
			Items:   items,
		}
	}
	return result, nil
}

// chunkURL expands an endpoint template of the manifest at timeline.
func chunkURL(timeline, template, chunk string) (string, error) {
	base, err := url.Parse(timeline)
	if err != nil {
		return "", fmt.Errorf("invalid timeline %s: %w", timeline, err)
	}
	ref, err := url.Parse(strings.ReplaceAll(template, "{chunk}", chunk))
	if err != nil {
		return "", fmt.Errorf("invalid endpoint template %s: %w", template, err)
	}
	return base.ResolveReference(ref).String(), nil
}

var _ usecase.TimelineGateway = (*TimelineGateway)(nil)
