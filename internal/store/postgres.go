package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps accounts in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Store) EnsureUser(ctx context.Context, address string, initial int64) (User, error) {
	u := newUser(address, initial)
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO users (address, name, balance, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO NOTHING`,
		u.Address, u.Name, u.Balance, u.AvatarURL, u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return s.GetUser(ctx, address)
}

func (s *Store) GetUser(ctx context.Context, address string) (User, error) {
	var u User
	err := s.Pool.QueryRow(ctx, `
		SELECT address, name, balance, avatar_url, created_at
		FROM users WHERE address = $1`, address).
		Scan(&u.Address, &u.Name, &u.Balance, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		return User{}, mapNotFound(err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u User) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE users SET name = $2, avatar_url = $3, updated_at = now()
		WHERE address = $1`, u.Address, u.Name, u.AvatarURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Debit(ctx context.Context, address string, amount int64, entryType, refID string) (int64, error) {
	return s.move(ctx, address, -amount, entryType, refID)
}

func (s *Store) Credit(ctx context.Context, address string, amount int64, entryType, refID string) (int64, error) {
	return s.move(ctx, address, amount, entryType, refID)
}

// move applies delta to the balance under a row lock and records it.
func (s *Store) move(ctx context.Context, address string, delta int64, entryType, refID string) (int64, error) {
	if delta == 0 {
		return 0, ErrInvalidAmount
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var bal int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE address = $1 FOR UPDATE`, address).Scan(&bal); err != nil {
		return 0, mapNotFound(err)
	}
	if bal+delta < 0 {
		return 0, ErrInsufficientBalance
	}
	newBal := bal + delta
	if _, err := tx.Exec(ctx, `UPDATE users SET balance = $2, updated_at = now() WHERE address = $1`, address, newBal); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (id, address, type, amount, ref_id)
		VALUES ($1, $2, $3, $4, $5)`, NewID(), address, entryType, delta, refID); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBal, nil
}
