//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"scalency/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_accounts.up.sql"),
			filepath.Join(migrationsPath, "002_create_listings.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM listings")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM accounts")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) seedAccount(id, username string) {
	store := NewAccountStore(s.db)
	err := store.Upsert(s.ctx, &domain.Account{
		ID:       id,
		Username: username,
		Region:   domain.RegionUK,
		Status:   domain.AccountConnected,
		Settings: domain.AccountSettings{MinDelayBetweenPosts: 15},
	})
	s.Require().NoError(err)
}

func (s *PostgresIntegrationSuite) TestAccountStore_UpsertAndGet() {
	store := NewAccountStore(s.db)

	account := &domain.Account{
		ID:       "acc-1",
		Username: "vintage_finds",
		Region:   domain.RegionFR,
		Status:   domain.AccountConnected,
		Settings: domain.AccountSettings{MinDelayBetweenPosts: 30},
	}
	err := store.Upsert(s.ctx, account)
	s.NoError(err)

	retrieved, err := store.Get(s.ctx, "acc-1")
	s.NoError(err)
	s.Equal("vintage_finds", retrieved.Username)
	s.Equal(domain.RegionFR, retrieved.Region)
	s.Equal(30, retrieved.Settings.MinDelayBetweenPosts)
}

func (s *PostgresIntegrationSuite) TestAccountStore_Upsert_UpdatesExisting() {
	store := NewAccountStore(s.db)

	account := &domain.Account{
		ID:       "acc-1",
		Username: "vintage_finds",
		Region:   domain.RegionUK,
		Status:   domain.AccountPending,
		Settings: domain.AccountSettings{MinDelayBetweenPosts: 15},
	}
	s.NoError(store.Upsert(s.ctx, account))

	account.Status = domain.AccountConnected
	account.Settings.MinDelayBetweenPosts = 45
	s.NoError(store.Upsert(s.ctx, account))

	retrieved, err := store.Get(s.ctx, "acc-1")
	s.NoError(err)
	s.Equal(domain.AccountConnected, retrieved.Status)
	s.Equal(45, retrieved.Settings.MinDelayBetweenPosts)
}

func (s *PostgresIntegrationSuite) TestAccountStore_Get_NotFound() {
	store := NewAccountStore(s.db)

	_, err := store.Get(s.ctx, "missing")
	s.Error(err)
	s.Contains(err.Error(), "not found")
}

func (s *PostgresIntegrationSuite) TestAccountStore_List_OrderedByUsername() {
	s.seedAccount("acc-2", "zeta_closet")
	s.seedAccount("acc-1", "alpha_closet")

	store := NewAccountStore(s.db)
	accounts, err := store.List(s.ctx)
	s.NoError(err)
	s.Len(accounts, 2)
	s.Equal("alpha_closet", accounts[0].Username)
	s.Equal("zeta_closet", accounts[1].Username)
}

func (s *PostgresIntegrationSuite) TestListingStore_InsertAndGet() {
	s.seedAccount("acc-1", "vintage_finds")
	store := NewListingStore(s.db)

	id, err := store.Insert(s.ctx, &domain.Listing{
		AccountID:   "acc-1",
		Title:       "Nike Air Max",
		Description: "Barely worn",
		Price:       40,
		Category:    "Shoes / Trainers",
		Brand:       "Nike",
		Size:        "42",
		Color:       "White",
		Condition:   "Very good condition",
		Material:    "Leather",
		Status:      domain.ListingActive,
	})
	s.NoError(err)
	s.Greater(id, int64(0))

	listing, err := store.Get(s.ctx, id)
	s.NoError(err)
	s.Equal("Nike Air Max", listing.Title)
	s.Equal(float64(40), listing.Price)
	s.Equal(domain.ListingActive, listing.Status)
	s.Equal(0, listing.RepostCount)
	s.Nil(listing.LastReposted)
	s.False(listing.CreatedAt.IsZero())
}

func (s *PostgresIntegrationSuite) TestListingStore_Get_NotFound() {
	store := NewListingStore(s.db)

	_, err := store.Get(s.ctx, 404)
	s.Error(err)
	s.Contains(err.Error(), "not found")
}

func (s *PostgresIntegrationSuite) TestListingStore_MarkReposted() {
	s.seedAccount("acc-1", "vintage_finds")
	store := NewListingStore(s.db)

	id, err := store.Insert(s.ctx, &domain.Listing{
		AccountID: "acc-1",
		Title:     "Levi's 501",
		Status:    domain.ListingActive,
	})
	s.NoError(err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	s.NoError(store.MarkReposted(s.ctx, id, now))
	s.NoError(store.MarkReposted(s.ctx, id, now.Add(time.Hour)))

	listing, err := store.Get(s.ctx, id)
	s.NoError(err)
	s.Equal(2, listing.RepostCount)
	s.NotNil(listing.LastReposted)
	s.WithinDuration(now.Add(time.Hour), *listing.LastReposted, time.Second)
}

func (s *PostgresIntegrationSuite) TestListingStore_MarkReposted_NotFound() {
	store := NewListingStore(s.db)

	err := store.MarkReposted(s.ctx, 404, time.Now())
	s.Error(err)
	s.Contains(err.Error(), "not found")
}

func (s *PostgresIntegrationSuite) TestListingStore_ListByAccount() {
	s.seedAccount("acc-1", "vintage_finds")
	s.seedAccount("acc-2", "other_closet")
	store := NewListingStore(s.db)

	for _, title := range []string{"First", "Second"} {
		_, err := store.Insert(s.ctx, &domain.Listing{
			AccountID: "acc-1",
			Title:     title,
			Status:    domain.ListingActive,
		})
		s.NoError(err)
	}
	_, err := store.Insert(s.ctx, &domain.Listing{
		AccountID: "acc-2",
		Title:     "Elsewhere",
		Status:    domain.ListingActive,
	})
	s.NoError(err)

	listings, err := store.ListByAccount(s.ctx, "acc-1")
	s.NoError(err)
	s.Len(listings, 2)
	for _, l := range listings {
		s.Equal("acc-1", l.AccountID)
	}
}
