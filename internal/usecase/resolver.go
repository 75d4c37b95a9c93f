package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
)

var tracer = otel.Tracer("usecase")

// Resolver picks canonical metadata for a listen from the recording search.
type Resolver struct {
	search RecordingSearcher
}

func NewResolver(search RecordingSearcher) *Resolver {
	return &Resolver{search: search}
}

var phraseEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// BuildQuery renders the Lucene query for a listen. Empty fields are left out.
func BuildQuery(trackName, artistName, releaseName string) string {
	parts := make([]string, 0, 3)
	if trackName != "" {
		parts = append(parts, fmt.Sprintf(`title:"%s"`, phraseEscaper.Replace(trackName)))
	}
	if artistName != "" {
		parts = append(parts, fmt.Sprintf(`artist:"%s"`, phraseEscaper.Replace(artistName)))
	}
	if releaseName != "" {
		parts = append(parts, fmt.Sprintf(`release:"%s"`, phraseEscaper.Replace(releaseName)))
	}
	return strings.Join(parts, " AND ")
}

func (r *Resolver) Resolve(ctx context.Context, trackName, artistName, releaseName string) *domain.ResolvedRecording {
	ctx, span := tracer.Start(ctx, "Resolver.Resolve")
	defer span.End()

	query := BuildQuery(trackName, artistName, releaseName)
	span.SetAttributes(attribute.String("query", query))

	candidates, err := r.search.SearchRecordings(ctx, query)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(
			ctx, "recording lookup failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
			slog.String("module", "resolver"),
		)
		return nil
	}

	if len(candidates) == 0 {
		slog.DebugContext(
			ctx, "no recording matched",
			slog.String("query", query),
			slog.String("module", "resolver"),
		)
		return nil
	}

	resolved := MapCandidate(candidates[0], artistName, releaseName)
	return &resolved
}

// MapCandidate folds the first search hit into a ResolvedRecording. The input
// artist and release names fill in whatever the candidate lacks.
func MapCandidate(candidate domain.RecordingCandidate, artistName, releaseName string) domain.ResolvedRecording {
	resolved := domain.ResolvedRecording{
		RecordingID: candidate.ID,
		ArtistNames: []string{artistName},
		ReleaseName: releaseName,
	}

	// zero length means unknown
	if candidate.LengthMs != nil && *candidate.LengthMs > 0 {
		seconds := *candidate.LengthMs / 1000
		resolved.DurationSeconds = &seconds
	}

	if len(candidate.ArtistCredits) > 0 {
		names := make([]string, 0, len(candidate.ArtistCredits))
		ids := make([]string, 0, len(candidate.ArtistCredits))
		for _, credit := range candidate.ArtistCredits {
			if credit.Name != "" {
				names = append(names, credit.Name)
			}
			if credit.ArtistID != "" {
				ids = append(ids, credit.ArtistID)
			}
		}
		if len(names) > 0 {
			resolved.ArtistNames = names
		}
		resolved.ArtistIDs = ids
	}

	if len(candidate.Releases) > 0 {
		first := candidate.Releases[0]
		if first.Title != "" {
			resolved.ReleaseName = first.Title
		}
		resolved.ReleaseID = first.ID
	}

	if len(candidate.ISRCs) > 0 {
		resolved.ISRC = candidate.ISRCs[0]
	}

	return resolved
}
