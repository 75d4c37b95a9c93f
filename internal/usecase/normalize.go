package usecase

import (
	"time"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
)

// Normalize builds the canonical play for a listen. resolved may be nil when
// the lookup failed or found nothing; the raw fields are used as-is then.
func Normalize(raw domain.RawListen, resolved *domain.ResolvedRecording) domain.Play {
	play := domain.Play{
		TrackName:              raw.TrackName,
		ArtistNames:            []string{raw.ArtistName},
		ReleaseName:            raw.ReleaseName,
		OriginURL:              raw.OriginURL,
		MusicServiceBaseDomain: domain.MusicServiceBaseDomainLocal,
		SubmissionClientAgent:  domain.SubmissionClientAgent,
		PlayedTime:             PlayedTime(raw.ListenedAt),
	}

	if resolved == nil {
		return play
	}

	play.TrackMbID = resolved.RecordingID
	play.RecordingMbID = resolved.RecordingID
	play.Duration = resolved.DurationSeconds
	if len(resolved.ArtistNames) > 0 {
		play.ArtistNames = append([]string(nil), resolved.ArtistNames...)
	}
	if resolved.ArtistIDs != nil {
		play.ArtistMbIDs = append([]string{}, resolved.ArtistIDs...)
	}
	if resolved.ReleaseName != "" {
		play.ReleaseName = resolved.ReleaseName
	}
	play.ReleaseMbID = resolved.ReleaseID
	play.ISRC = resolved.ISRC

	return play
}

// PlayedTime renders a unix timestamp the way the play lexicon expects.
func PlayedTime(listenedAt int64) string {
	return time.UnixMilli(listenedAt * 1000).UTC().Format(domain.PlayedTimeLayout)
}
