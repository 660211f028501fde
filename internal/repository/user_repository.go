package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/account-service/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the storage-level email constraint rejects a write.
	ErrEmailTaken = errors.New("email already taken")
)

const (
	pgUniqueViolation     = "23505"
	emailUniqueConstraint = "users_email_key"
)

// Projection selects which user columns a read returns.
type Projection int

const (
	// ProjectionPublic returns id, email and timestamps only.
	ProjectionPublic Projection = iota
	// ProjectionCredentials adds the password hash.
	ProjectionCredentials
	// ProjectionFull returns every column including reset state.
	ProjectionFull
)

// UserChanges lists the fields UpdateFields should write. Nil fields are left untouched.
type UserChanges struct {
	Email              *string
	PasswordHash       *string
	PasswordReset      *PasswordReset
	ClearPasswordReset bool
}

// PasswordReset is the token and deadline written by a forgot-password request.
type PasswordReset struct {
	Token     string
	ExpiresAt time.Time
}

// IsEmpty reports whether the changes would write nothing.
func (c UserChanges) IsEmpty() bool {
	return c.Email == nil && c.PasswordHash == nil && c.PasswordReset == nil && !c.ClearPasswordReset
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string, projection Projection) (*domain.User, error)
	GetByEmail(ctx context.Context, email string, projection Projection) (*domain.User, error)
	GetByEmailExcluding(ctx context.Context, email, excludeID string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error)
	UpdateFields(ctx context.Context, id string, changes UserChanges) error
	Delete(ctx context.Context, id string) error
}

// DBTX is the subset of pgx used by the repository. Both *pgxpool.Pool and
// pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, password_hash)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string, projection Projection) (*domain.User, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM users WHERE id=$1`, columns(projection))

	return r.scanOne(r.db.QueryRow(ctx, query, id), projection)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string, projection Projection) (*domain.User, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM users WHERE email=$1`, columns(projection))

	return r.scanOne(r.db.QueryRow(ctx, query, email), projection)
}

func (r *userRepository) GetByEmailExcluding(ctx context.Context, email, excludeID string) (*domain.User, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM users WHERE email=$1 AND id<>$2`, columns(ProjectionPublic))

	return r.scanOne(r.db.QueryRow(ctx, query, email, excludeID), ProjectionPublic)
}

func (r *userRepository) GetByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM users WHERE password_reset_token=$1 AND password_reset_expires > $2`, columns(ProjectionFull))

	return r.scanOne(r.db.QueryRow(ctx, query, token, now), ProjectionFull)
}

func (r *userRepository) UpdateFields(ctx context.Context, id string, changes UserChanges) error {
	args := []any{}
	sets := []string{}

	if changes.Email != nil {
		args = append(args, *changes.Email)
		sets = append(sets, fmt.Sprintf("email=$%d", len(args)))
	}
	if changes.PasswordHash != nil {
		args = append(args, *changes.PasswordHash)
		sets = append(sets, fmt.Sprintf("password_hash=$%d", len(args)))
	}
	switch {
	case changes.PasswordReset != nil:
		args = append(args, changes.PasswordReset.Token)
		sets = append(sets, fmt.Sprintf("password_reset_token=$%d", len(args)))
		args = append(args, changes.PasswordReset.ExpiresAt)
		sets = append(sets, fmt.Sprintf("password_reset_expires=$%d", len(args)))
	case changes.ClearPasswordReset:
		sets = append(sets, "password_reset_token=NULL", "password_reset_expires=NULL")
	}
	sets = append(sets, "updated_at=NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`
        UPDATE users SET %s
        WHERE id=$%d`, strings.Join(sets, ", "), len(args))

	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	const query = `
        DELETE FROM users WHERE id=$1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func columns(projection Projection) string {
	switch projection {
	case ProjectionCredentials:
		return "id, email, created_at, updated_at, password_hash"
	case ProjectionFull:
		return "id, email, created_at, updated_at, password_hash, password_reset_token, password_reset_expires"
	default:
		return "id, email, created_at, updated_at"
	}
}

func (r *userRepository) scanOne(row pgx.Row, projection Projection) (*domain.User, error) {
	var user domain.User
	dest := []any{&user.ID, &user.Email, &user.CreatedAt, &user.UpdatedAt}
	switch projection {
	case ProjectionCredentials:
		dest = append(dest, &user.PasswordHash)
	case ProjectionFull:
		dest = append(dest, &user.PasswordHash, &user.PasswordResetToken, &user.PasswordResetExpires)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == emailUniqueConstraint {
		return ErrEmailTaken
	}
	return fmt.Errorf("db error: %w", err)
}
