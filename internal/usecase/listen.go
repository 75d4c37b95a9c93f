package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/concrnt-inscriber"
	"github.com/totegamma/concrnt-inscriber/internal/domain"
	"github.com/totegamma/concrnt-inscriber/schemas"
)

// ListenUsecase enriches submitted listens and writes them as play records.
type ListenUsecase struct {
	resolver      MetadataResolver
	identity      IdentityProvider
	plays         PlayRepository
	signal        SignalPublisher
	collection    string
	lookupTimeout time.Duration
}

// NewListenUsecase wires the pipeline. plays and signal may be nil.
func NewListenUsecase(
	resolver MetadataResolver,
	identity IdentityProvider,
	plays PlayRepository,
	signal SignalPublisher,
	collection string,
	lookupTimeout time.Duration,
) *ListenUsecase {
	if collection == "" {
		collection = schemas.PlayCollection
	}
	return &ListenUsecase{
		resolver:      resolver,
		identity:      identity,
		plays:         plays,
		signal:        signal,
		collection:    collection,
		lookupTimeout: lookupTimeout,
	}
}

// SignalChannel is the pub/sub channel carrying an owner's new plays.
func SignalChannel(owner string) string {
	return "plays:" + owner
}

// PlayKey derives the record key of a listen. The same listen submitted twice
// lands on the same key.
func PlayKey(owner string, listen domain.RawListen) string {
	h := xxh3.HashString(owner + "\x00" +
		strconv.FormatInt(listen.ListenedAt, 10) + "\x00" +
		listen.TrackName + "\x00" +
		listen.ArtistName)
	return fmt.Sprintf("%016x", h)
}

// Submit runs the whole batch for owner. Every listen yields exactly one play,
// in input order; lookup and write failures are absorbed and reported per item.
func (uc *ListenUsecase) Submit(ctx context.Context, owner string, listens []domain.RawListen) (*domain.BatchResult, error) {
	ctx, span := tracer.Start(ctx, "Listen.Usecase.Submit", trace.WithAttributes(
		attribute.String("owner", owner),
		attribute.Int("listens", len(listens)),
	))
	defer span.End()

	if owner == "" {
		return nil, domain.ErrUnauthorized
	}

	sink, err := uc.identity.Restore(ctx, owner)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ListenUsecase.Submit: identity.Restore failed"))
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: no usable session for %s", domain.ErrUnauthorized, owner)
		}
		return nil, err
	}

	plays := make([]domain.Play, 0, len(listens))
	for _, listen := range listens {
		resolved := uc.resolve(ctx, listen)
		plays = append(plays, Normalize(listen, resolved))
	}

	slog.InfoContext(
		ctx, "listens processed",
		slog.String("owner", owner),
		slog.Int("count", len(plays)),
		slog.String("module", "listen"),
	)

	// accepted plays are written even if the submitter goes away meanwhile
	writeCtx := context.WithoutCancel(ctx)

	result := &domain.BatchResult{
		Success:          true,
		ProcessedCount:   len(plays),
		ProcessedListens: plays,
		Writes:           make([]domain.WriteOutcome, 0, len(plays)),
	}

	for i, play := range plays {
		key := PlayKey(owner, listens[i])
		outcome := domain.WriteOutcome{Index: i, Key: key}

		uri, err := uc.write(writeCtx, sink, key, play)
		if err != nil {
			span.RecordError(errors.Wrap(err, "ListenUsecase.Submit: sink.CreateRecord failed"))
			slog.ErrorContext(
				ctx, "failed to write play",
				slog.String("owner", owner),
				slog.String("key", key),
				slog.String("error", err.Error()),
				slog.String("module", "listen"),
			)
			outcome.Error = err.Error()
			result.FailedCount++
			result.Writes = append(result.Writes, outcome)
			continue
		}

		outcome.Success = true
		outcome.URI = uri
		result.WrittenCount++
		result.Writes = append(result.Writes, outcome)

		uc.afterWrite(writeCtx, domain.PlayRecord{
			URI:       uri,
			Owner:     owner,
			Key:       key,
			Play:      play,
			PlayedAt:  time.Unix(listens[i].ListenedAt, 0).UTC(),
			IndexedAt: time.Now().UTC(),
		})
	}

	span.SetAttributes(
		attribute.Int("written", result.WrittenCount),
		attribute.Int("failed", result.FailedCount),
	)

	return result, nil
}

// resolve looks up one listen. A panicking or hanging resolver degrades to no match.
func (uc *ListenUsecase) resolve(ctx context.Context, listen domain.RawListen) (resolved *domain.ResolvedRecording) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(
				ctx, "recording lookup panicked",
				slog.String("track", listen.TrackName),
				slog.String("error", fmt.Sprint(r)),
				slog.String("module", "listen"),
			)
			resolved = nil
		}
	}()

	if uc.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.lookupTimeout)
		defer cancel()
	}

	return uc.resolver.Resolve(ctx, listen.TrackName, listen.ArtistName, listen.ReleaseName)
}

func (uc *ListenUsecase) write(ctx context.Context, sink RecordSink, key string, play domain.Play) (uri string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("record sink panicked: %v", r)
		}
	}()
	return sink.CreateRecord(ctx, uc.collection, key, play)
}

// afterWrite indexes and announces a written play. Both steps are best-effort.
func (uc *ListenUsecase) afterWrite(ctx context.Context, record domain.PlayRecord) {
	if uc.plays != nil {
		if err := uc.plays.Save(ctx, record); err != nil {
			slog.WarnContext(
				ctx, "failed to index play",
				slog.String("uri", record.URI),
				slog.String("error", err.Error()),
				slog.String("module", "listen"),
			)
		}
	}

	if uc.signal != nil {
		event := concrnt.Event{
			Type:      schemas.PlayEventType,
			URI:       record.URI,
			Owner:     record.Owner,
			Value:     record.Play,
			Timestamp: record.IndexedAt,
		}
		if err := uc.signal.Publish(ctx, SignalChannel(record.Owner), event); err != nil {
			slog.WarnContext(
				ctx, "failed to publish play",
				slog.String("uri", record.URI),
				slog.String("error", err.Error()),
				slog.String("module", "listen"),
			)
		}
	}
}
