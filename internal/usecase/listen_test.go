package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/totegamma/concrnt-inscriber"
	"github.com/totegamma/concrnt-inscriber/internal/domain"
	"github.com/totegamma/concrnt-inscriber/schemas"
)

type mockSink struct {
	owner   string
	keys    []string
	records []any
	failOn  map[int]error
}

func (m *mockSink) Owner() string { return m.owner }
func (m *mockSink) CreateRecord(ctx context.Context, collection, key string, record any) (string, error) {
	i := len(m.keys)
	m.keys = append(m.keys, key)
	m.records = append(m.records, record)
	if err, ok := m.failOn[i]; ok {
		return "", err
	}
	return concrnt.ComposeCCURI(m.owner, collection+"/"+key), nil
}

type mockIdentity struct {
	sink     *mockSink
	err      error
	restored []string
}

func (m *mockIdentity) Restore(ctx context.Context, owner string) (RecordSink, error) {
	m.restored = append(m.restored, owner)
	if m.err != nil {
		return nil, m.err
	}
	m.sink.owner = owner
	return m.sink, nil
}

type mockPlayRepo struct {
	saved []domain.PlayRecord
}

func (m *mockPlayRepo) Save(ctx context.Context, record domain.PlayRecord) error {
	m.saved = append(m.saved, record)
	return nil
}
func (m *mockPlayRepo) Recent(ctx context.Context, owner string, until time.Time, limit int) ([]domain.PlayRecord, error) {
	return m.saved, nil
}
func (m *mockPlayRepo) FirstPlayedAt(ctx context.Context, owner string) (time.Time, error) {
	return time.Time{}, domain.ErrNotFound
}
func (m *mockPlayRepo) LatestPlayedAt(ctx context.Context, owner string, until time.Time) (time.Time, error) {
	return time.Time{}, domain.ErrNotFound
}
func (m *mockPlayRepo) Between(ctx context.Context, owner string, since, until time.Time) ([]domain.PlayRecord, error) {
	return nil, nil
}

type mockSignal struct {
	channels []string
	events   []concrnt.Event
}

func (m *mockSignal) Publish(ctx context.Context, channel string, event concrnt.Event) error {
	m.channels = append(m.channels, channel)
	m.events = append(m.events, event)
	return nil
}

// resolverFunc adapts a function to MetadataResolver.
type resolverFunc func(ctx context.Context, track, artist, release string) *domain.ResolvedRecording

func (f resolverFunc) Resolve(ctx context.Context, track, artist, release string) *domain.ResolvedRecording {
	return f(ctx, track, artist, release)
}

const testOwner = "con1mu9xruulec4y6hd0d369sdf325l94z4770m33d"

func fooBarBaz() domain.RawListen {
	return domain.RawListen{ListenedAt: 1700000000, TrackName: "Foo", ArtistName: "Bar", ReleaseName: "Baz"}
}

func TestSubmitWithoutMatch(t *testing.T) {
	search := &mockSearcher{}
	sink := &mockSink{}
	uc := NewListenUsecase(NewResolver(search), &mockIdentity{sink: sink}, nil, nil, "", time.Second)

	result, err := uc.Submit(context.Background(), testOwner, []domain.RawListen{fooBarBaz()})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !result.Success || result.ProcessedCount != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	play := result.ProcessedListens[0]
	if play.TrackName != "Foo" || play.ReleaseName != "Baz" {
		t.Fatalf("unexpected play %+v", play)
	}
	if len(play.ArtistNames) != 1 || play.ArtistNames[0] != "Bar" {
		t.Fatalf("unexpected artists %v", play.ArtistNames)
	}
	if play.PlayedTime != "2023-11-14T22:13:20.000Z" {
		t.Fatalf("unexpected played time %q", play.PlayedTime)
	}
	if play.Duration != nil {
		t.Fatalf("duration should be absent")
	}
	if len(sink.keys) != 1 || result.WrittenCount != 1 {
		t.Fatalf("expected one write, got %d", len(sink.keys))
	}
}

func TestSubmitWithMatch(t *testing.T) {
	search := &mockSearcher{candidates: []domain.RecordingCandidate{{
		ID:            "mbid1",
		LengthMs:      ptrInt64(245000),
		ArtistCredits: []domain.ArtistCredit{{Name: "Bar", ArtistID: "artistid1"}},
		Releases:      []domain.ReleaseRef{{ID: "relid1", Title: "Baz"}},
	}}}
	sink := &mockSink{}
	uc := NewListenUsecase(NewResolver(search), &mockIdentity{sink: sink}, nil, nil, "", time.Second)

	result, err := uc.Submit(context.Background(), testOwner, []domain.RawListen{fooBarBaz()})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	play := result.ProcessedListens[0]
	if play.Duration == nil || *play.Duration != 245 {
		t.Fatalf("unexpected duration %v", play.Duration)
	}
	if play.TrackMbID != "mbid1" {
		t.Fatalf("unexpected track id %q", play.TrackMbID)
	}
	if len(play.ArtistMbIDs) != 1 || play.ArtistMbIDs[0] != "artistid1" {
		t.Fatalf("unexpected artist ids %v", play.ArtistMbIDs)
	}
	if play.ReleaseMbID != "relid1" {
		t.Fatalf("unexpected release id %q", play.ReleaseMbID)
	}

	written, ok := sink.records[0].(domain.Play)
	if !ok || written.TrackMbID != "mbid1" {
		t.Fatalf("sink received %#v", sink.records[0])
	}
}

func TestSubmitPreservesOrderAndCount(t *testing.T) {
	calls := 0
	resolver := resolverFunc(func(ctx context.Context, track, artist, release string) *domain.ResolvedRecording {
		calls++
		switch track {
		case "panic":
			panic("catalog exploded")
		case "match":
			return &domain.ResolvedRecording{RecordingID: "mbid-" + artist, ArtistNames: []string{artist}}
		default:
			return nil
		}
	})

	listens := []domain.RawListen{
		{ListenedAt: 1, TrackName: "match", ArtistName: "a"},
		{ListenedAt: 2, TrackName: "panic", ArtistName: "b"},
		{ListenedAt: 3, TrackName: "miss", ArtistName: "c"},
		{ListenedAt: 4, TrackName: "match", ArtistName: "d"},
	}

	sink := &mockSink{failOn: map[int]error{2: errors.New("repository unavailable")}}
	plays := &mockPlayRepo{}
	signal := &mockSignal{}
	uc := NewListenUsecase(resolver, &mockIdentity{sink: sink}, plays, signal, schemas.PlayCollection, time.Second)

	result, err := uc.Submit(context.Background(), testOwner, listens)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if calls != len(listens) {
		t.Fatalf("expected %d lookups, got %d", len(listens), calls)
	}
	if result.ProcessedCount != len(listens) || len(result.ProcessedListens) != len(listens) {
		t.Fatalf("expected %d plays, got %d", len(listens), result.ProcessedCount)
	}
	for i, play := range result.ProcessedListens {
		if play.ArtistNames[0] != listens[i].ArtistName {
			t.Fatalf("play %d out of order: %v", i, play.ArtistNames)
		}
	}
	if result.ProcessedListens[1].TrackMbID != "" {
		t.Fatalf("panicking lookup should fall back")
	}
	if result.ProcessedListens[3].TrackMbID != "mbid-d" {
		t.Fatalf("unexpected match %q", result.ProcessedListens[3].TrackMbID)
	}

	if len(sink.keys) != len(listens) {
		t.Fatalf("a failed write must not stop later writes, got %d writes", len(sink.keys))
	}
	if result.WrittenCount != 3 || result.FailedCount != 1 {
		t.Fatalf("unexpected counts %d/%d", result.WrittenCount, result.FailedCount)
	}
	failed := result.Writes[2]
	if failed.Success || failed.Error == "" || failed.Index != 2 {
		t.Fatalf("unexpected outcome %+v", failed)
	}
	if !result.Success {
		t.Fatalf("batch should still be accepted")
	}

	if len(plays.saved) != 3 || len(signal.events) != 3 {
		t.Fatalf("expected 3 indexed and published plays, got %d/%d", len(plays.saved), len(signal.events))
	}
	if signal.channels[0] != SignalChannel(testOwner) || signal.events[0].Type != schemas.PlayEventType {
		t.Fatalf("unexpected signal %s %+v", signal.channels[0], signal.events[0])
	}
	if plays.saved[0].URI != result.Writes[0].URI {
		t.Fatalf("index uri mismatch %q %q", plays.saved[0].URI, result.Writes[0].URI)
	}
}

func TestSubmitBoundsLookup(t *testing.T) {
	resolver := resolverFunc(func(ctx context.Context, track, artist, release string) *domain.ResolvedRecording {
		<-ctx.Done()
		return nil
	})
	uc := NewListenUsecase(resolver, &mockIdentity{sink: &mockSink{}}, nil, nil, "", 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := uc.Submit(context.Background(), testOwner, []domain.RawListen{fooBarBaz()}); err != nil {
			t.Errorf("submit failed: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("hung lookup was not bounded")
	}
}

func TestSubmitUnauthorized(t *testing.T) {
	calls := 0
	resolver := resolverFunc(func(ctx context.Context, track, artist, release string) *domain.ResolvedRecording {
		calls++
		return nil
	})
	sink := &mockSink{}
	identity := &mockIdentity{sink: sink, err: domain.NotFoundError{Resource: "session"}}
	uc := NewListenUsecase(resolver, identity, nil, nil, "", time.Second)

	_, err := uc.Submit(context.Background(), testOwner, []domain.RawListen{fooBarBaz()})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, err = uc.Submit(context.Background(), "", []domain.RawListen{fooBarBaz()})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for empty owner, got %v", err)
	}

	if calls != 0 || len(sink.keys) != 0 {
		t.Fatalf("no lookups or writes expected, got %d/%d", calls, len(sink.keys))
	}
}

func TestPlayKeyIsDeterministic(t *testing.T) {
	a := PlayKey(testOwner, fooBarBaz())
	b := PlayKey(testOwner, fooBarBaz())
	if a != b || len(a) != 16 {
		t.Fatalf("unexpected keys %q %q", a, b)
	}

	other := fooBarBaz()
	other.ListenedAt++
	if PlayKey(testOwner, other) == a {
		t.Fatalf("different listens should not share a key")
	}
}
