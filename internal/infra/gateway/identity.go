package gateway

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/concrnt-inscriber"
	"github.com/totegamma/concrnt-inscriber/internal/domain"
	"github.com/totegamma/concrnt-inscriber/internal/usecase"
	"github.com/totegamma/concrnt-inscriber/jwt"
)

const commitTokenTTL = 5 * time.Minute

// Committer delivers signed documents to a repository node.
type Committer interface {
	Commit(ctx context.Context, host string, sd concrnt.SignedDocument, token string) error
}

// IdentityGateway restores repository sinks from stored sessions.
type IdentityGateway struct {
	sessions  usecase.SessionRepository
	committer Committer
}

func NewIdentityGateway(sessions usecase.SessionRepository, committer Committer) *IdentityGateway {
	return &IdentityGateway{
		sessions:  sessions,
		committer: committer,
	}
}

func (g *IdentityGateway) Restore(ctx context.Context, owner string) (usecase.RecordSink, error) {
	ctx, span := tracer.Start(ctx, "Identity.Gateway.Restore")
	defer span.End()

	session, err := g.sessions.Get(ctx, owner)
	if err != nil {
		span.RecordError(errors.Wrap(err, "sessions.Get failed"))
		return nil, err
	}
	if session.PrivateKey == "" || session.Repository == "" {
		return nil, fmt.Errorf("%w: incomplete session for %s", domain.ErrUnauthorized, owner)
	}

	return &repositorySink{
		session:   session,
		committer: g.committer,
	}, nil
}

type repositorySink struct {
	session   domain.Session
	committer Committer
}

func (s *repositorySink) Owner() string {
	return s.session.Owner
}

// CreateRecord signs record as a document under collection/key and commits it
// to the owner's repository.
func (s *repositorySink) CreateRecord(ctx context.Context, collection, key string, record any) (string, error) {
	ctx, span := tracer.Start(ctx, "Identity.Gateway.CreateRecord")
	defer span.End()

	documentKey := collection + "/" + key
	span.SetAttributes(attribute.String("key", documentKey))

	document := concrnt.Document[any]{
		Key:      &documentKey,
		Value:    record,
		Author:   s.session.Owner,
		Schema:   &collection,
		CreateAt: time.Now().UTC(),
	}

	sd, err := SignDocument(document, s.session.PrivateKey)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	token, err := jwt.Create(
		jwt.NewClaims(s.session.Owner, concrnt.NodeHost(s.session.Repository), uuid.NewString(), commitTokenTTL),
		s.session.PrivateKey,
	)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to create commit token: %w", err)
	}

	err = s.committer.Commit(ctx, s.session.Repository, sd, token)
	if err != nil {
		span.RecordError(errors.Wrap(err, "committer.Commit failed"))
		return "", err
	}

	return concrnt.ComposeCCURI(s.session.Owner, documentKey), nil
}

// SignDocument serializes document and attaches an ecrecover proof made with privatekey.
func SignDocument[T any](document concrnt.Document[T], privatekey string) (concrnt.SignedDocument, error) {
	body, err := json.Marshal(document)
	if err != nil {
		return concrnt.SignedDocument{}, fmt.Errorf("failed to encode document: %w", err)
	}

	signature, err := concrnt.SignBytes(body, privatekey)
	if err != nil {
		return concrnt.SignedDocument{}, err
	}

	return concrnt.SignedDocument{
		Document: string(body),
		Proof: concrnt.Proof{
			Type:      concrnt.ProofTypeEcrecover,
			Signature: hex.EncodeToString(signature),
		},
	}, nil
}

var _ usecase.IdentityProvider = (*IdentityGateway)(nil)
