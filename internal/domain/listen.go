package domain

// RawListen is one submitted scrobble, as received from the client.
type RawListen struct {
	ListenedAt  int64
	TrackName   string
	ArtistName  string
	ReleaseName string
	OriginURL   string
}

// ArtistCredit is one entry of a recording's artist credit list.
// ArtistID is empty when the catalog did not return an artist id.
type ArtistCredit struct {
	Name     string
	ArtistID string
}

type ReleaseRef struct {
	ID    string
	Title string
}

// RecordingCandidate is a recording search hit with its optional fields made
// explicit. ArtistCredits is nil when the catalog omitted the credit list.
type RecordingCandidate struct {
	ID            string
	LengthMs      *int64
	ArtistCredits []ArtistCredit
	Releases      []ReleaseRef
	ISRCs         []string
}

// ResolvedRecording is the canonical metadata picked for one listen.
type ResolvedRecording struct {
	RecordingID     string
	DurationSeconds *int64
	ArtistNames     []string
	ArtistIDs       []string
	ReleaseName     string
	ReleaseID       string
	ISRC            string
}
