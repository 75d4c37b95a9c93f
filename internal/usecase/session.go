package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/totegamma/concrnt-inscriber"
	"github.com/totegamma/concrnt-inscriber/internal/domain"
)

type SessionUsecase struct {
	repo SessionRepository
}

func NewSessionUsecase(repo SessionRepository) *SessionUsecase {
	return &SessionUsecase{repo: repo}
}

// Register stores the write capability of owner. The key must belong to owner.
func (uc *SessionUsecase) Register(ctx context.Context, owner, privateKey, repository string) (domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Session.Usecase.Register")
	defer span.End()

	if !concrnt.IsCCID(owner) {
		return domain.Session{}, fmt.Errorf("%w: invalid owner %q", domain.ErrInvalidArgument, owner)
	}
	if repository == "" {
		return domain.Session{}, fmt.Errorf("%w: repository is required", domain.ErrInvalidArgument)
	}

	addr, err := concrnt.PrivKeyToAddr(privateKey, "con")
	if err != nil {
		return domain.Session{}, err
	}
	if addr != owner {
		return domain.Session{}, fmt.Errorf("%w: private key belongs to %s, not %s", domain.ErrInvalidArgument, addr, owner)
	}

	now := time.Now().UTC()
	session := domain.Session{
		Owner:      owner,
		PrivateKey: privateKey,
		Repository: repository,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.repo.Put(ctx, session); err != nil {
		span.RecordError(err)
		return domain.Session{}, err
	}

	return session, nil
}

func (uc *SessionUsecase) Get(ctx context.Context, owner string) (domain.Session, error) {
	return uc.repo.Get(ctx, owner)
}
