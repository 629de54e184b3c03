package storage

import (
	"context"
	"errors"
	"strings"

	"bread-calculator/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page selects a window of rows ordered by id.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Store persists users and their calculations. Calculation lookups are always
// scoped to the owner; a row owned by someone else reports ErrNotFound.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserExists(ctx context.Context, username, email string) (bool, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	CreateCalculation(ctx context.Context, c *models.Calculation) error
	ListCalculations(ctx context.Context, userID int64, page Page) ([]models.Calculation, error)
	GetCalculation(ctx context.Context, userID, id int64) (*models.Calculation, error)
	UpdateCalculation(ctx context.Context, c *models.Calculation) error
	DeleteCalculation(ctx context.Context, userID, id int64) error

	Ping(ctx context.Context) error
	Close() error
}

// Open picks the backend from the DSN: postgres URLs go to pgx, anything else
// is treated as a SQLite path.
func Open(ctx context.Context, dsn string) (Store, error) {
	if IsPostgresDSN(dsn) {
		return NewPostgres(ctx, dsn)
	}
	return NewSQLite(dsn)
}

func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
