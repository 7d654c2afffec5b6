package auth

import (
	"time"

	"github.com/polkiloo/grocerymart/internal/domain/model"
)

// Claims is the identity carried by an auth token.
type Claims struct {
	UserID int64
	Role   model.Role
}

type Strategy interface {
	IssueToken(userID int64, role model.Role) (string, error)
	ParseToken(token string) (*Claims, error)
	Name() string
}

type Options struct {
	TTL    time.Duration
	Issuer string
}
