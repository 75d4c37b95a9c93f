package domain

import "time"

const (
	// MusicServiceBaseDomainLocal marks plays submitted directly to this node.
	MusicServiceBaseDomainLocal = "local"
	SubmissionClientAgent       = "teal-inscriber/0.0.1 (web)"

	// PlayedTimeLayout renders UTC timestamps with millisecond precision.
	PlayedTimeLayout = "2006-01-02T15:04:05.000Z"
)

// Play is the canonical record body written to the owner's repository.
type Play struct {
	TrackName              string   `json:"trackName"`
	TrackMbID              string   `json:"trackMbId,omitempty"`
	RecordingMbID          string   `json:"recordingMbId,omitempty"`
	Duration               *int64   `json:"duration,omitempty"`
	ArtistNames            []string `json:"artistNames"`
	ArtistMbIDs            []string `json:"artistMbIds,omitempty"`
	ReleaseName            string   `json:"releaseName,omitempty"`
	ReleaseMbID            string   `json:"releaseMbId,omitempty"`
	ISRC                   string   `json:"isrc,omitempty"`
	OriginURL              string   `json:"originUrl,omitempty"`
	MusicServiceBaseDomain string   `json:"musicServiceBaseDomain"`
	SubmissionClientAgent  string   `json:"submissionClientAgent"`
	PlayedTime             string   `json:"playedTime"`
}

// PlayRecord is a written play as kept in the local index.
type PlayRecord struct {
	URI       string    `json:"uri"`
	Owner     string    `json:"owner"`
	Key       string    `json:"key"`
	Play      Play      `json:"value"`
	PlayedAt  time.Time `json:"playedAt"`
	IndexedAt time.Time `json:"indexedAt"`
}

// WriteOutcome reports what happened to one play when it was handed to the sink.
type WriteOutcome struct {
	Index   int    `json:"index"`
	Key     string `json:"key"`
	URI     string `json:"uri,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchResult is the summary returned for one submission.
type BatchResult struct {
	Success          bool           `json:"success"`
	ProcessedCount   int            `json:"processedCount"`
	ProcessedListens []Play         `json:"processedListens"`
	WrittenCount     int            `json:"writtenCount"`
	FailedCount      int            `json:"failedCount"`
	Writes           []WriteOutcome `json:"writes"`
}
