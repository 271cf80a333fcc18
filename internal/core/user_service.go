package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = `id, name, email, password_hash, role, level, level_synced_at, parent_id, is_active, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Level,
		&u.LevelSyncedAt, &u.ParentID, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RegisterInput creates a root account (no parent).
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *RegisterInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" {
		return validationErr("name", "is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return validationErr("email", "a valid email is required")
	}
	if len(in.Password) < 6 {
		return validationErr("password", "must be at least 6 characters")
	}
	return nil
}

// TeamMemberSummary is one downline member with ledger-derived totals.
type TeamMemberSummary struct {
	User
	TotalPoints decimal.Decimal `json:"total_points"`
	TotalSales  int             `json:"total_sales"`
}

// UserService manages accounts and the sponsorship tree. Authentication
// checks live here; session issuance is the web adapter's job.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	AddTeamMember(ctx context.Context, parentID string, in RegisterInput) (*User, error)
	Team(ctx context.Context, parentID string) ([]TeamMemberSummary, error)
	Deactivate(ctx context.Context, userID string) error
}

// ErrInvalidCredentials covers both unknown email and wrong password so the
// login response does not leak which one failed.
var ErrInvalidCredentials = errors.New("invalid email or password")

type userService struct {
	pool *pgxpool.Pool
}

func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*User, error) {
	return s.create(ctx, in, nil)
}

func (s *userService) AddTeamMember(ctx context.Context, parentID string, in RegisterInput) (*User, error) {
	return s.create(ctx, in, &parentID)
}

func (s *userService) create(ctx context.Context, in RegisterInput, parentID *string) (*User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		in.Name, in.Email, string(hash), parentID))
	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return nil, validationErr("email", "is already registered")
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", id, err)
	}
	return user, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", email, err)
	}
	return user, nil
}

func (s *userService) Team(ctx context.Context, parentID string) ([]TeamMemberSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.name, u.email, u.password_hash, u.role, u.level, u.level_synced_at,
		       u.parent_id, u.is_active, u.created_at,
		       COALESCE((SELECT MAX(p.accumulated_points) FROM points p WHERE p.user_id = u.id), 0),
		       (SELECT COUNT(*)::int FROM sales s WHERE s.user_id = u.id)
		FROM users u
		WHERE u.parent_id = $1
		ORDER BY u.created_at
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team: %w", err)
	}
	defer rows.Close()

	var out []TeamMemberSummary
	for rows.Next() {
		var m TeamMemberSummary
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Role, &m.Level,
			&m.LevelSyncedAt, &m.ParentID, &m.IsActive, &m.CreatedAt,
			&m.TotalPoints, &m.TotalSales); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *userService) Deactivate(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE users SET is_active = false WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}
