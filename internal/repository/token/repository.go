package token

import (
	"context"
	"time"
)

// Kinds of issued tokens.
const (
	KindAccess = "access"
	KindReset  = "reset"
)

type Token struct {
	Token     string
	AccountID string
	Kind      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	DeleteByAccount(ctx context.Context, accountID, kind string) error
}
