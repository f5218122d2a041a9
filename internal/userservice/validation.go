package userservice

import (
	"github.com/sushihentaime/inkwell/internal/common"
)

func ValidateToken(v *common.Validator, token string) {
	v.Check(token != "", "token", "must be provided")
	v.Check(len(token) == 26, "token", "invalid token")
}
