package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bread-calculator/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
create table if not exists users (
	id bigserial primary key,
	username varchar(50) not null unique,
	email varchar(255) not null unique,
	password_hash text not null,
	created_at timestamptz not null default now(),
	updated_at timestamptz not null default now()
);

create table if not exists calculations (
	id bigserial primary key,
	user_id bigint not null references users(id) on delete cascade,
	a double precision not null,
	b double precision not null,
	type varchar(16) not null,
	result double precision not null,
	created_at timestamptz not null default now(),
	updated_at timestamptz not null default now()
);

create index if not exists calculations_user_id_idx on calculations (user_id);
`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	ctxConnect, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctxConnect, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctxConnect); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctxConnect, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	err := s.pool.QueryRow(ctx, `
		insert into users (username, email, password_hash)
		values ($1, $2, $3)
		returning id, created_at, updated_at
	`, u.Username, u.Email, u.PasswordHash).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *PostgresStore) UserExists(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		select exists(select 1 from users where username = $1 or email = $2)
	`, username, email).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `where username = $1`, username)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, `where id = $1`, id)
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		select id, username, email, password_hash, created_at, updated_at
		from users `+where, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateCalculation(ctx context.Context, c *models.Calculation) error {
	return s.pool.QueryRow(ctx, `
		insert into calculations (user_id, a, b, type, result)
		values ($1, $2, $3, $4, $5)
		returning id, created_at, updated_at
	`, c.UserID, c.A, c.B, string(c.Type), c.Result).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (s *PostgresStore) ListCalculations(ctx context.Context, userID int64, page Page) ([]models.Calculation, error) {
	page = page.normalize()
	rows, err := s.pool.Query(ctx, `
		select id, user_id, a, b, type, result, created_at, updated_at
		from calculations
		where user_id = $1
		order by id asc
		offset $2 limit $3
	`, userID, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	calcs := make([]models.Calculation, 0)
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		calcs = append(calcs, *c)
	}
	return calcs, rows.Err()
}

func (s *PostgresStore) GetCalculation(ctx context.Context, userID, id int64) (*models.Calculation, error) {
	row := s.pool.QueryRow(ctx, `
		select id, user_id, a, b, type, result, created_at, updated_at
		from calculations
		where id = $1 and user_id = $2
	`, id, userID)
	c, err := scanCalculation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) UpdateCalculation(ctx context.Context, c *models.Calculation) error {
	err := s.pool.QueryRow(ctx, `
		update calculations
		set a = $3, b = $4, type = $5, result = $6, updated_at = now()
		where id = $1 and user_id = $2
		returning updated_at
	`, c.ID, c.UserID, c.A, c.B, string(c.Type), c.Result).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) DeleteCalculation(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx, `delete from calculations where id = $1 and user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanCalculation(row pgx.Row) (*models.Calculation, error) {
	var (
		c   models.Calculation
		typ string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.A, &c.B, &typ, &c.Result, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Type = models.CalculationType(typ)
	return &c, nil
}
