package userservice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sushihentaime/inkwell/internal/common"
)

func TestValidateToken(t *testing.T) {
	testCases := []struct {
		name    string
		token   string
		wantErr string
	}{
		{name: "valid", token: strings.Repeat("A", 26)},
		{name: "empty", token: "", wantErr: "must be provided"},
		{name: "too short", token: "ABC", wantErr: "invalid token"},
		{name: "too long", token: strings.Repeat("A", 27), wantErr: "invalid token"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			ValidateToken(v, tc.token)

			if tc.wantErr == "" {
				assert.True(t, v.Valid())
				return
			}
			assert.Equal(t, tc.wantErr, v.Errors["token"])
		})
	}
}
