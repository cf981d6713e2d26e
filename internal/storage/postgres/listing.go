package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"scalency/internal/domain"
)

type ListingStore struct {
	db *sqlx.DB
}

func NewListingStore(db *sqlx.DB) *ListingStore {
	return &ListingStore{db: db}
}

func (s *ListingStore) Insert(ctx context.Context, listing *domain.Listing) (int64, error) {
	query := `
		INSERT INTO listings (
			account_id, title, description, price, category, brand,
			size, color, condition, material, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		listing.AccountID,
		listing.Title,
		listing.Description,
		listing.Price,
		listing.Category,
		listing.Brand,
		listing.Size,
		listing.Color,
		listing.Condition,
		listing.Material,
		string(listing.Status),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert listing: %w", err)
	}
	return id, nil
}

func (s *ListingStore) Get(ctx context.Context, id int64) (*domain.Listing, error) {
	var listing domain.Listing
	query := `
		SELECT id, account_id, title, description, price, category, brand,
		       size, color, condition, material, status, repost_count,
		       last_reposted, created_at
		FROM listings
		WHERE id = $1`

	err := s.db.GetContext(ctx, &listing, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("listing %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (s *ListingStore) ListByAccount(ctx context.Context, accountID string) ([]domain.Listing, error) {
	var listings []domain.Listing
	query := `
		SELECT id, account_id, title, description, price, category, brand,
		       size, color, condition, material, status, repost_count,
		       last_reposted, created_at
		FROM listings
		WHERE account_id = $1
		ORDER BY created_at DESC`

	if err := s.db.SelectContext(ctx, &listings, query, accountID); err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *ListingStore) MarkReposted(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE listings
		SET repost_count = repost_count + 1, last_reposted = $2
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("listing %d not found", id)
	}
	return nil
}
