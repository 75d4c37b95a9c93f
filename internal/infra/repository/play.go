package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
	"github.com/totegamma/concrnt-inscriber/internal/infra/database/models"
	"github.com/totegamma/concrnt-inscriber/internal/usecase"
)

type PlayRepository struct {
	db *gorm.DB
}

func NewPlayRepository(db *gorm.DB) *PlayRepository {
	return &PlayRepository{db: db}
}

// Save upserts by uri; resubmitted listens replace their earlier row.
func (r *PlayRepository) Save(ctx context.Context, record domain.PlayRecord) error {
	model := playToModel(record)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uri"}},
		UpdateAll: true,
	}).Create(&model).Error
}

func (r *PlayRepository) Recent(ctx context.Context, owner string, until time.Time, limit int) ([]domain.PlayRecord, error) {
	var rows []models.Play
	err := r.db.WithContext(ctx).
		Where("owner = ? AND played_at <= ?", owner, until).
		Order("played_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return playsFromModels(rows), nil
}

func (r *PlayRepository) Between(ctx context.Context, owner string, since, until time.Time) ([]domain.PlayRecord, error) {
	var rows []models.Play
	err := r.db.WithContext(ctx).
		Where("owner = ? AND played_at > ? AND played_at <= ?", owner, since, until).
		Order("played_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return playsFromModels(rows), nil
}

func (r *PlayRepository) FirstPlayedAt(ctx context.Context, owner string) (time.Time, error) {
	var first models.Play
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("played_at ASC").
		Take(&first).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, domain.NotFoundError{Resource: "play"}
		}
		return time.Time{}, err
	}
	return first.PlayedAt, nil
}

func (r *PlayRepository) LatestPlayedAt(ctx context.Context, owner string, until time.Time) (time.Time, error) {
	var latest models.Play
	err := r.db.WithContext(ctx).
		Where("owner = ? AND played_at <= ?", owner, until).
		Order("played_at DESC").
		Take(&latest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, domain.NotFoundError{Resource: "play"}
		}
		return time.Time{}, err
	}
	return latest.PlayedAt, nil
}

func playToModel(record domain.PlayRecord) models.Play {
	p := record.Play
	return models.Play{
		URI:                    record.URI,
		Owner:                  record.Owner,
		Key:                    record.Key,
		TrackName:              p.TrackName,
		TrackMbID:              p.TrackMbID,
		RecordingMbID:          p.RecordingMbID,
		Duration:               p.Duration,
		ArtistNames:            p.ArtistNames,
		ArtistMbIDs:            p.ArtistMbIDs,
		ReleaseName:            p.ReleaseName,
		ReleaseMbID:            p.ReleaseMbID,
		ISRC:                   p.ISRC,
		OriginURL:              p.OriginURL,
		MusicServiceBaseDomain: p.MusicServiceBaseDomain,
		SubmissionClientAgent:  p.SubmissionClientAgent,
		PlayedTime:             p.PlayedTime,
		PlayedAt:               record.PlayedAt,
		IndexedAt:              record.IndexedAt,
	}
}

func playsFromModels(rows []models.Play) []domain.PlayRecord {
	records := make([]domain.PlayRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.PlayRecord{
			URI:   row.URI,
			Owner: row.Owner,
			Key:   row.Key,
			Play: domain.Play{
				TrackName:              row.TrackName,
				TrackMbID:              row.TrackMbID,
				RecordingMbID:          row.RecordingMbID,
				Duration:               row.Duration,
				ArtistNames:            row.ArtistNames,
				ArtistMbIDs:            row.ArtistMbIDs,
				ReleaseName:            row.ReleaseName,
				ReleaseMbID:            row.ReleaseMbID,
				ISRC:                   row.ISRC,
				OriginURL:              row.OriginURL,
				MusicServiceBaseDomain: row.MusicServiceBaseDomain,
				SubmissionClientAgent:  row.SubmissionClientAgent,
				PlayedTime:             row.PlayedTime,
			},
			PlayedAt:  row.PlayedAt,
			IndexedAt: row.IndexedAt,
		})
	}
	return records
}

var _ usecase.PlayRepository = (*PlayRepository)(nil)
