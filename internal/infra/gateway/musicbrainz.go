package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
	"github.com/totegamma/concrnt-inscriber/internal/usecase"
)

var tracer = otel.Tracer("gateway")

const (
	defaultHTTPTimeout = 10 * time.Second
	searchLimit        = "5"
)

// MusicBrainzConfig holds the client settings. A zero RateLimit disables limiting.
type MusicBrainzConfig struct {
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

// MusicBrainzClient searches recordings on a MusicBrainz compatible web service.
type MusicBrainzClient struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	limiter    *rate.Limiter
}

func NewMusicBrainzClient(conf MusicBrainzConfig) *MusicBrainzClient {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if conf.RateLimit > 0 {
		burst := conf.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(conf.RateLimit), burst)
	}

	return &MusicBrainzClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   conf.Endpoint,
		userAgent:  conf.UserAgent,
		limiter:    limiter,
	}
}

// recordingSearchResponse mirrors the recording search payload. Every field
// the catalog may leave out is a pointer or a nil-able slice.
type recordingSearchResponse struct {
	Recordings []recordingResult `json:"recordings"`
}

type recordingResult struct {
	ID           string          `json:"id"`
	Length       *int64          `json:"length"`
	ArtistCredit *[]artistCredit `json:"artist-credit"`
	Releases     []releaseResult `json:"releases"`
	ISRCs        []string        `json:"isrcs"`
}

type artistCredit struct {
	Name   string `json:"name"`
	Artist *struct {
		ID string `json:"id"`
	} `json:"artist"`
}

type releaseResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SearchRecordings runs one recording search. Any failure is returned to the
// caller; there is no retry.
func (c *MusicBrainzClient) SearchRecordings(ctx context.Context, query string) ([]domain.RecordingCandidate, error) {
	ctx, span := tracer.Start(ctx, "MusicBrainz.SearchRecordings")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	params.Set("limit", searchLimit)

	reqURL := fmt.Sprintf("%s/recording?%s", c.endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("status", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
	}

	var result recordingSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return convertRecordings(result.Recordings), nil
}

func convertRecordings(results []recordingResult) []domain.RecordingCandidate {
	candidates := make([]domain.RecordingCandidate, 0, len(results))
	for _, r := range results {
		candidate := domain.RecordingCandidate{
			ID:       r.ID,
			LengthMs: r.Length,
			ISRCs:    r.ISRCs,
		}

		if r.Length != nil && *r.Length < 0 {
			candidate.LengthMs = nil
		}

		if r.ArtistCredit != nil {
			credits := make([]domain.ArtistCredit, 0, len(*r.ArtistCredit))
			for _, ac := range *r.ArtistCredit {
				credit := domain.ArtistCredit{Name: ac.Name}
				if ac.Artist != nil {
					credit.ArtistID = ac.Artist.ID
				}
				credits = append(credits, credit)
			}
			candidate.ArtistCredits = credits
		}

		for _, rel := range r.Releases {
			candidate.Releases = append(candidate.Releases, domain.ReleaseRef{ID: rel.ID, Title: rel.Title})
		}

		candidates = append(candidates, candidate)
	}
	return candidates
}

var _ usecase.RecordingSearcher = (*MusicBrainzClient)(nil)
