package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/concrnt-inscriber"
	"github.com/totegamma/concrnt-inscriber/internal/usecase"
)

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event concrnt.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime relays play events of the owners last sent on request to response
// until ctx is done. response is never closed here.
func (s *SignalService) Realtime(ctx context.Context, request <-chan []string, response chan<- concrnt.Event) {

	pubsub := s.rdb.Subscribe(ctx)
	defer pubsub.Close()

	messages := pubsub.Channel()
	subscribed := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return

		case owners, ok := <-request:
			if !ok {
				return
			}

			next := map[string]bool{}
			for _, owner := range owners {
				next[usecase.SignalChannel(owner)] = true
			}

			var added, removed []string
			for channel := range next {
				if !subscribed[channel] {
					added = append(added, channel)
				}
			}
			for channel := range subscribed {
				if !next[channel] {
					removed = append(removed, channel)
				}
			}

			if len(removed) > 0 {
				if err := pubsub.Unsubscribe(ctx, removed...); err != nil {
					slog.ErrorContext(ctx, "failed to unsubscribe", slog.String("error", err.Error()), slog.String("module", "signal"))
				}
			}
			if len(added) > 0 {
				if err := pubsub.Subscribe(ctx, added...); err != nil {
					slog.ErrorContext(ctx, "failed to subscribe", slog.String("error", err.Error()), slog.String("module", "signal"))
				}
			}
			subscribed = next

		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event concrnt.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.WarnContext(ctx, "dropping malformed event", slog.String("channel", msg.Channel), slog.String("module", "signal"))
				continue
			}

			select {
			case response <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

var _ usecase.SignalPublisher = (*SignalService)(nil)
