package store

import (
	"context"
	"fmt"

	"paygateway/internal/common/database"
	"paygateway/internal/payment/domain"
)

// PostgresStore persists payments in the payments table
type PostgresStore struct {
	db database.Querier
}

// NewPostgresStore creates a Postgres-backed store
func NewPostgresStore(db database.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// Put implements Store
func (s *PostgresStore) Put(ctx context.Context, p *domain.StoredPayment) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO payments (
			id, status, authorization_code, card_number_last_four,
			expiry_month, expiry_year, currency, amount_minor, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, string(p.Status), nullableString(p.AuthorizationCode), p.CardNumberLastFour,
		p.ExpiryMonth, p.ExpiryYear, p.Currency, p.AmountMinor, p.CreatedAt,
	)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("payment %s: %w", p.ID, database.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// Get implements Store
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.StoredPayment, error) {
	var (
		p      domain.StoredPayment
		status string
		code   *string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, status, authorization_code, card_number_last_four,
			expiry_month, expiry_year, currency, amount_minor, created_at
		FROM payments WHERE id = $1`, id,
	).Scan(&p.ID, &status, &code, &p.CardNumberLastFour,
		&p.ExpiryMonth, &p.ExpiryYear, &p.Currency, &p.AmountMinor, &p.CreatedAt)
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("payment %s: %w", id, database.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select payment: %w", err)
	}

	p.Status = domain.Status(status)
	if code != nil {
		p.AuthorizationCode = *code
	}
	return &p, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
