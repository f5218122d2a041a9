package userservice

import (
	"database/sql"
	"time"

	"github.com/sushihentaime/inkwell/internal/common"
)

type Permission string
type Permissions []Permission

const (
	PermissionWriteBlog Permission = "blog:write"

	// userCacheTTL bounds how long a revoked access token keeps resolving.
	userCacheTTL time.Duration = time.Minute
)

var (
	AnonymousUser = User{}
)

type UserService struct {
	m *UserModel
	c *common.Cache
}

type UserModel struct {
	db *sql.DB
}

// User is the subject behind an access token. Token issuance lives outside this service.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"-"`
	Activated bool      `json:"activated"`
	CreatedAt time.Time `json:"created_at"`

	Permissions Permissions `json:"permissions"`
}
