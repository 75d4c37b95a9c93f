package models

import (
	"time"
)

type APIKey struct {
	ID    string    `json:"id" gorm:"primaryKey;type:text"`
	Owner string    `json:"owner" gorm:"type:text;index;not null"`
	Hash  string    `json:"-" gorm:"type:text;uniqueIndex;not null"`
	CDate time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Session struct {
	Owner      string    `json:"owner" gorm:"primaryKey;type:text"`
	PrivateKey string    `json:"-" gorm:"type:text;not null"`
	Repository string    `json:"repository" gorm:"type:text;not null"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate      time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

type Play struct {
	URI                    string    `json:"uri" gorm:"primaryKey;type:text"`
	Owner                  string    `json:"owner" gorm:"type:text;not null;index:idx_play_owner_played_at,priority:1"`
	Key                    string    `json:"key" gorm:"type:text;not null"`
	TrackName              string    `json:"trackName" gorm:"type:text;not null"`
	TrackMbID              string    `json:"trackMbId" gorm:"type:text"`
	RecordingMbID          string    `json:"recordingMbId" gorm:"type:text"`
	Duration               *int64    `json:"duration"`
	ArtistNames            []string  `json:"artistNames" gorm:"type:jsonb;serializer:json"`
	ArtistMbIDs            []string  `json:"artistMbIds" gorm:"type:jsonb;serializer:json"`
	ReleaseName            string    `json:"releaseName" gorm:"type:text"`
	ReleaseMbID            string    `json:"releaseMbId" gorm:"type:text"`
	ISRC                   string    `json:"isrc" gorm:"type:text"`
	OriginURL              string    `json:"originUrl" gorm:"type:text"`
	MusicServiceBaseDomain string    `json:"musicServiceBaseDomain" gorm:"type:text"`
	SubmissionClientAgent  string    `json:"submissionClientAgent" gorm:"type:text"`
	PlayedTime             string    `json:"playedTime" gorm:"type:text"`
	PlayedAt               time.Time `json:"playedAt" gorm:"type:timestamp with time zone;not null;index:idx_play_owner_played_at,priority:2,sort:desc"`
	IndexedAt              time.Time `json:"indexedAt" gorm:"type:timestamp with time zone;not null"`
}
