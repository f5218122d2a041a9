package userservice

import (
	"context"
	"database/sql"

	"github.com/sushihentaime/inkwell/internal/common"
)

func NewUserService(db *sql.DB, c *common.Cache) *UserService {
	return &UserService{
		m: newUserModel(db),
		c: c,
	}
}

// GetUserByAccessToken resolves a bearer token to its user. Lookups are cached briefly per token hash.
func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	hash := HashToken(token)
	key := common.CacheKeyUserByAccessToken(hash)

	if s.c != nil {
		if cached, ok := s.c.Get(key); ok {
			return cached.(*User), nil
		}
	}

	user, err := s.m.getByAccessToken(ctx, hash)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(key, user, userCacheTTL)
	}

	return user, nil
}
