package repository

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
	"github.com/totegamma/concrnt-inscriber/internal/infra/database/models"
	"github.com/totegamma/concrnt-inscriber/internal/usecase"
)

// SessionRepository keeps sessions in postgres with an in-process read cache.
type SessionRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{
		db:    db,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (r *SessionRepository) Put(ctx context.Context, session domain.Session) error {
	model := models.Session{
		Owner:      session.Owner,
		PrivateKey: session.PrivateKey,
		Repository: session.Repository,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}},
		DoUpdates: clause.AssignmentColumns([]string{"private_key", "repository", "m_date"}),
	}).Create(&model).Error
	if err != nil {
		return err
	}

	r.cache.Delete(session.Owner)
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, owner string) (domain.Session, error) {
	if cached, found := r.cache.Get(owner); found {
		return cached.(domain.Session), nil
	}

	var model models.Session
	err := r.db.WithContext(ctx).Where("owner = ?", owner).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.NotFoundError{Resource: "session"}
		}
		return domain.Session{}, err
	}

	session := domain.Session{
		Owner:      model.Owner,
		PrivateKey: model.PrivateKey,
		Repository: model.Repository,
		CreatedAt:  model.CDate,
		UpdatedAt:  model.MDate,
	}
	r.cache.Set(owner, session, cache.DefaultExpiration)

	return session, nil
}

var _ usecase.SessionRepository = (*SessionRepository)(nil)
