package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
)

type mockSearcher struct {
	queries    []string
	candidates []domain.RecordingCandidate
	err        error
}

func (m *mockSearcher) SearchRecordings(ctx context.Context, query string) ([]domain.RecordingCandidate, error) {
	m.queries = append(m.queries, query)
	return m.candidates, m.err
}

func TestBuildQuery(t *testing.T) {
	cases := []struct {
		track, artist, release string
		want                   string
	}{
		{"Foo", "Bar", "Baz", `title:"Foo" AND artist:"Bar" AND release:"Baz"`},
		{"Foo", "Bar", "", `title:"Foo" AND artist:"Bar"`},
		{"Foo", "", "Baz", `title:"Foo" AND release:"Baz"`},
		{"", "", "", ""},
	}
	for _, c := range cases {
		if got := BuildQuery(c.track, c.artist, c.release); got != c.want {
			t.Fatalf("BuildQuery(%q, %q, %q) = %q, want %q", c.track, c.artist, c.release, got, c.want)
		}
	}
}

func TestResolveFirstCandidate(t *testing.T) {
	search := &mockSearcher{candidates: []domain.RecordingCandidate{
		{
			ID:       "mbid1",
			LengthMs: ptrInt64(245999),
			ArtistCredits: []domain.ArtistCredit{
				{Name: "Bar", ArtistID: "artistid1"},
				{Name: "Guest"},
			},
			Releases: []domain.ReleaseRef{{ID: "relid1", Title: "Baz"}, {ID: "relid2", Title: "Other"}},
			ISRCs:    []string{"ISRC1", "ISRC2"},
		},
		{ID: "mbid2"},
	}}

	resolved := NewResolver(search).Resolve(context.Background(), "Foo", "Bar", "Baz")
	if resolved == nil {
		t.Fatalf("expected a match")
	}
	if len(search.queries) != 1 || search.queries[0] != `title:"Foo" AND artist:"Bar" AND release:"Baz"` {
		t.Fatalf("unexpected queries %v", search.queries)
	}
	if resolved.RecordingID != "mbid1" {
		t.Fatalf("unexpected recording %q", resolved.RecordingID)
	}
	if resolved.DurationSeconds == nil || *resolved.DurationSeconds != 245 {
		t.Fatalf("duration should be floored, got %v", resolved.DurationSeconds)
	}
	if len(resolved.ArtistNames) != 2 || resolved.ArtistNames[1] != "Guest" {
		t.Fatalf("unexpected artists %v", resolved.ArtistNames)
	}
	if len(resolved.ArtistIDs) != 1 || resolved.ArtistIDs[0] != "artistid1" {
		t.Fatalf("absent artist ids should be filtered, got %v", resolved.ArtistIDs)
	}
	if resolved.ReleaseName != "Baz" || resolved.ReleaseID != "relid1" {
		t.Fatalf("unexpected release %q %q", resolved.ReleaseName, resolved.ReleaseID)
	}
	if resolved.ISRC != "ISRC1" {
		t.Fatalf("unexpected isrc %q", resolved.ISRC)
	}
}

func TestResolveNoMatch(t *testing.T) {
	if got := NewResolver(&mockSearcher{}).Resolve(context.Background(), "Foo", "Bar", ""); got != nil {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestResolveFailsSoft(t *testing.T) {
	search := &mockSearcher{err: errors.New("status 503")}
	if got := NewResolver(search).Resolve(context.Background(), "Foo", "Bar", ""); got != nil {
		t.Fatalf("expected no match on error, got %+v", got)
	}
}

func TestMapCandidateWithoutOptionalFields(t *testing.T) {
	resolved := MapCandidate(domain.RecordingCandidate{ID: "mbid1"}, "Bar", "Baz")

	if resolved.DurationSeconds != nil {
		t.Fatalf("duration should be absent")
	}
	if len(resolved.ArtistNames) != 1 || resolved.ArtistNames[0] != "Bar" {
		t.Fatalf("expected input artist, got %v", resolved.ArtistNames)
	}
	if resolved.ArtistIDs != nil {
		t.Fatalf("artist ids should be absent, got %v", resolved.ArtistIDs)
	}
	if resolved.ReleaseName != "Baz" || resolved.ReleaseID != "" {
		t.Fatalf("unexpected release %q %q", resolved.ReleaseName, resolved.ReleaseID)
	}
}

func TestMapCandidateEmptyCreditList(t *testing.T) {
	resolved := MapCandidate(domain.RecordingCandidate{ID: "mbid1", ArtistCredits: []domain.ArtistCredit{}}, "Bar", "")
	if len(resolved.ArtistNames) != 1 || resolved.ArtistNames[0] != "Bar" {
		t.Fatalf("empty credit list should fall back to input artist, got %v", resolved.ArtistNames)
	}
}

func TestBuildQueryEscapesPhrases(t *testing.T) {
	got := BuildQuery(`12" Mix`, `AC\DC`, "")
	want := `title:"12\" Mix" AND artist:"AC\\DC"`
	if got != want {
		t.Fatalf("BuildQuery = %q, want %q", got, want)
	}
}

func TestResolveFirstCandidateWithoutID(t *testing.T) {
	search := &mockSearcher{candidates: []domain.RecordingCandidate{
		{
			LengthMs:      ptrInt64(1000),
			ArtistCredits: []domain.ArtistCredit{{Name: "First", ArtistID: "a1"}},
			Releases:      []domain.ReleaseRef{{Title: "FirstRel"}},
		},
		{
			ID:            "mbid2",
			LengthMs:      ptrInt64(2000),
			ArtistCredits: []domain.ArtistCredit{{Name: "Second", ArtistID: "a2"}},
		},
	}}

	resolved := NewResolver(search).Resolve(context.Background(), "Foo", "Bar", "")
	if resolved == nil {
		t.Fatalf("expected a match")
	}
	if resolved.RecordingID != "" {
		t.Fatalf("recording id should be absent, got %q", resolved.RecordingID)
	}
	if len(resolved.ArtistNames) != 1 || resolved.ArtistNames[0] != "First" {
		t.Fatalf("unexpected artists %v", resolved.ArtistNames)
	}
	if resolved.DurationSeconds == nil || *resolved.DurationSeconds != 1 {
		t.Fatalf("unexpected duration %v", resolved.DurationSeconds)
	}
	if resolved.ReleaseName != "FirstRel" {
		t.Fatalf("unexpected release %q", resolved.ReleaseName)
	}

	play := Normalize(domain.RawListen{ListenedAt: 1700000000, TrackName: "Foo", ArtistName: "Bar"}, resolved)
	if play.TrackMbID != "" || play.RecordingMbID != "" {
		t.Fatalf("play should carry no recording id, got %q %q", play.TrackMbID, play.RecordingMbID)
	}
}

func TestMapCandidateKeepsIDsOfNamelessCredits(t *testing.T) {
	resolved := MapCandidate(domain.RecordingCandidate{
		ID: "mbid1",
		ArtistCredits: []domain.ArtistCredit{
			{Name: "", ArtistID: "a1"},
			{Name: "B", ArtistID: "a2"},
		},
	}, "Bar", "")

	if len(resolved.ArtistNames) != 1 || resolved.ArtistNames[0] != "B" {
		t.Fatalf("unexpected artists %v", resolved.ArtistNames)
	}
	if len(resolved.ArtistIDs) != 2 || resolved.ArtistIDs[0] != "a1" || resolved.ArtistIDs[1] != "a2" {
		t.Fatalf("unexpected artist ids %v", resolved.ArtistIDs)
	}

	resolved = MapCandidate(domain.RecordingCandidate{
		ArtistCredits: []domain.ArtistCredit{{ArtistID: "a1"}},
	}, "Bar", "")
	if len(resolved.ArtistNames) != 1 || resolved.ArtistNames[0] != "Bar" {
		t.Fatalf("nameless credits should fall back to input artist, got %v", resolved.ArtistNames)
	}
	if len(resolved.ArtistIDs) != 1 || resolved.ArtistIDs[0] != "a1" {
		t.Fatalf("unexpected artist ids %v", resolved.ArtistIDs)
	}
}

func TestMapCandidateZeroLengthIsAbsent(t *testing.T) {
	resolved := MapCandidate(domain.RecordingCandidate{ID: "mbid1", LengthMs: ptrInt64(0)}, "Bar", "")
	if resolved.DurationSeconds != nil {
		t.Fatalf("zero length should leave duration absent, got %d", *resolved.DurationSeconds)
	}
}
