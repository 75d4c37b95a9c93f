package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/totegamma/concrnt-inscriber"
	"github.com/totegamma/concrnt-inscriber/internal/domain"
)

const apiKeyBytes = 32

type APIKeyUsecase struct {
	repo APIKeyRepository
}

func NewAPIKeyUsecase(repo APIKeyRepository) *APIKeyUsecase {
	return &APIKeyUsecase{repo: repo}
}

// HashAPIKey is the stored form of a plaintext key.
func HashAPIKey(plaintext string) string {
	sum := blake2b.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Issue creates a new key for owner. The plaintext is only ever returned here.
func (uc *APIKeyUsecase) Issue(ctx context.Context, owner string) (string, domain.APIKey, error) {
	ctx, span := tracer.Start(ctx, "APIKey.Usecase.Issue")
	defer span.End()

	if !concrnt.IsCCID(owner) {
		return "", domain.APIKey{}, fmt.Errorf("%w: invalid owner %q", domain.ErrInvalidArgument, owner)
	}

	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		span.RecordError(err)
		return "", domain.APIKey{}, fmt.Errorf("failed to generate api key: %w", err)
	}
	plaintext := hex.EncodeToString(buf)

	key := domain.APIKey{
		ID:        uuid.NewString(),
		Owner:     owner,
		Hash:      HashAPIKey(plaintext),
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.repo.Create(ctx, key); err != nil {
		span.RecordError(err)
		return "", domain.APIKey{}, err
	}

	return plaintext, key, nil
}

// Lookup maps a presented key to its record. Unknown keys are ErrUnauthorized.
func (uc *APIKeyUsecase) Lookup(ctx context.Context, plaintext string) (domain.APIKey, error) {
	ctx, span := tracer.Start(ctx, "APIKey.Usecase.Lookup")
	defer span.End()

	if plaintext == "" {
		return domain.APIKey{}, domain.ErrUnauthorized
	}

	key, err := uc.repo.GetByHash(ctx, HashAPIKey(plaintext))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.APIKey{}, domain.ErrUnauthorized
		}
		span.RecordError(err)
		return domain.APIKey{}, err
	}

	return key, nil
}

func (uc *APIKeyUsecase) List(ctx context.Context, owner string) ([]domain.APIKey, error) {
	return uc.repo.ListByOwner(ctx, owner)
}

func (uc *APIKeyUsecase) Revoke(ctx context.Context, owner, id string) error {
	return uc.repo.Delete(ctx, owner, id)
}
