package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
	"github.com/totegamma/concrnt-inscriber/internal/infra/database/models"
	"github.com/totegamma/concrnt-inscriber/internal/usecase"
)

type APIKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Create(ctx context.Context, key domain.APIKey) error {
	model := models.APIKey{
		ID:    key.ID,
		Owner: key.Owner,
		Hash:  key.Hash,
		CDate: key.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *APIKeyRepository) GetByHash(ctx context.Context, hash string) (domain.APIKey, error) {
	var model models.APIKey
	err := r.db.WithContext(ctx).Where("hash = ?", hash).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.APIKey{}, domain.NotFoundError{Resource: "api key"}
		}
		return domain.APIKey{}, err
	}
	return apiKeyFromModel(model), nil
}

func (r *APIKeyRepository) ListByOwner(ctx context.Context, owner string) ([]domain.APIKey, error) {
	var rows []models.APIKey
	err := r.db.WithContext(ctx).Where("owner = ?", owner).Order("c_date DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	keys := make([]domain.APIKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, apiKeyFromModel(row))
	}
	return keys, nil
}

func (r *APIKeyRepository) Delete(ctx context.Context, owner, id string) error {
	result := r.db.WithContext(ctx).Where("owner = ? AND id = ?", owner, id).Delete(&models.APIKey{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "api key"}
	}
	return nil
}

func apiKeyFromModel(model models.APIKey) domain.APIKey {
	return domain.APIKey{
		ID:        model.ID,
		Owner:     model.Owner,
		Hash:      model.Hash,
		CreatedAt: model.CDate,
	}
}

var _ usecase.APIKeyRepository = (*APIKeyRepository)(nil)
