package notificationservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sushihentaime/inkwell/internal/common"
)

func NewRecipientModel(db *sql.DB) *RecipientModel {
	return &RecipientModel{db: db}
}

func (m *RecipientModel) findRecipient(ctx context.Context, userID int) (*Recipient, error) {
	var r Recipient
	err := m.db.QueryRowContext(ctx, `SELECT name, email FROM users WHERE id = $1`, userID).Scan(&r.Name, &r.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrRecordNotFound
		}
		return nil, err
	}

	return &r, nil
}
