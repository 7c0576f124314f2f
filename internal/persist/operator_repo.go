package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type OperatorRow struct {
	Name         string
	PasswordHash string
	AccessLevel  int16
	IP           string
	Banned       bool
	Online       bool
	CreatedAt    time.Time
	LastSeen     *time.Time
}

type OperatorRepo struct {
	db *DB
}

func NewOperatorRepo(db *DB) *OperatorRepo {
	return &OperatorRepo{db: db}
}

// Load returns the operator row for a name, or nil when no such operator
// exists.
func (r *OperatorRepo) Load(ctx context.Context, name string) (*OperatorRow, error) {
	row := &OperatorRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name, password_hash, access_level, COALESCE(ip,''), banned, online, created_at, last_seen
		 FROM operators WHERE name = $1`, name,
	).Scan(
		&row.Name, &row.PasswordHash, &row.AccessLevel,
		&row.IP, &row.Banned, &row.Online, &row.CreatedAt, &row.LastSeen,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *OperatorRepo) Create(ctx context.Context, name, rawPassword, ip string) (*OperatorRow, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	row := &OperatorRow{
		Name:         name,
		PasswordHash: string(hash),
		IP:           ip,
		CreatedAt:    now,
		LastSeen:     &now,
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO operators (name, password_hash, ip, last_seen)
		 VALUES ($1, $2, $3, $4)`,
		row.Name, row.PasswordHash, row.IP, row.LastSeen,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *OperatorRepo) ValidatePassword(hash string, rawPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawPassword)) == nil
}

func (r *OperatorRepo) UpdateLastSeen(ctx context.Context, name, ip string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE operators SET last_seen = NOW(), ip = $2 WHERE name = $1`,
		name, ip,
	)
	return err
}

func (r *OperatorRepo) SetOnline(ctx context.Context, name string, online bool) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE operators SET online = $2 WHERE name = $1`,
		name, online,
	)
	return err
}

// ResetOnline clears the online flag for every operator. Run at boot so a
// crashed server does not leave operators stuck online.
func (r *OperatorRepo) ResetOnline(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE operators SET online = FALSE WHERE online`)
	return err
}
