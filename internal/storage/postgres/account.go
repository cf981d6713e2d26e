package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"scalency/internal/domain"
)

type AccountStore struct {
	db *sqlx.DB
}

func NewAccountStore(db *sqlx.DB) *AccountStore {
	return &AccountStore{db: db}
}

type accountRow struct {
	ID                   string `db:"id"`
	Username             string `db:"username"`
	Region               string `db:"region"`
	Status               string `db:"status"`
	MinDelayBetweenPosts int    `db:"min_delay_between_posts"`
}

func (r accountRow) toDomain() *domain.Account {
	return &domain.Account{
		ID:       r.ID,
		Username: r.Username,
		Region:   domain.Region(r.Region),
		Status:   domain.AccountStatus(r.Status),
		Settings: domain.AccountSettings{MinDelayBetweenPosts: r.MinDelayBetweenPosts},
	}
}

func (s *AccountStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	var row accountRow
	query := `
		SELECT id, username, region, status, min_delay_between_posts
		FROM accounts
		WHERE id = $1`

	err := s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *AccountStore) List(ctx context.Context) ([]domain.Account, error) {
	var rows []accountRow
	query := `
		SELECT id, username, region, status, min_delay_between_posts
		FROM accounts
		ORDER BY username`

	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, *row.toDomain())
	}
	return accounts, nil
}

// Upsert creates or refreshes an account record, used when importing
// accounts into the cockpit.
func (s *AccountStore) Upsert(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, username, region, status, min_delay_between_posts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			region = EXCLUDED.region,
			status = EXCLUDED.status,
			min_delay_between_posts = EXCLUDED.min_delay_between_posts`

	_, err := s.db.ExecContext(ctx, query,
		account.ID,
		account.Username,
		string(account.Region),
		string(account.Status),
		account.Settings.MinDelayBetweenPosts,
	)
	return err
}
