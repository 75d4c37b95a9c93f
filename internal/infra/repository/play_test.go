package repository

import (
	"testing"
	"time"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
	"github.com/totegamma/concrnt-inscriber/internal/infra/database/models"
)

func TestPlayModelRoundTrip(t *testing.T) {
	duration := int64(245)
	record := domain.PlayRecord{
		URI:   "cc://con1abc/fm.teal.alpha.feed.play/abc",
		Owner: "con1abc",
		Key:   "abc",
		Play: domain.Play{
			TrackName:     "Foo",
			TrackMbID:     "mbid1",
			RecordingMbID: "mbid1",
			Duration:      &duration,
			ArtistNames:   []string{"Bar"},
			ArtistMbIDs:   []string{"artistid1"},
			ReleaseName:   "Baz",
			PlayedTime:    "2023-11-14T22:13:20.000Z",
		},
		PlayedAt:  time.Unix(1700000000, 0).UTC(),
		IndexedAt: time.Unix(1700000100, 0).UTC(),
	}

	got := playsFromModels([]models.Play{playToModel(record)})[0]

	if got.URI != record.URI || got.Key != record.Key || got.Owner != record.Owner {
		t.Fatalf("identity fields lost: %+v", got)
	}
	if got.Play.Duration == nil || *got.Play.Duration != 245 {
		t.Fatalf("duration lost: %v", got.Play.Duration)
	}
	if len(got.Play.ArtistMbIDs) != 1 || got.Play.ArtistNames[0] != "Bar" {
		t.Fatalf("artists lost: %+v", got.Play)
	}
	if !got.PlayedAt.Equal(record.PlayedAt) {
		t.Fatalf("played at lost: %v", got.PlayedAt)
	}
}
