package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BenefitInput struct {
	LevelID     string  `json:"level_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Period      *string `json:"period,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	Terms       *string `json:"terms,omitempty"`
}

func (in *BenefitInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.LevelID == "" {
		return validationErr("level_id", "is required")
	}
	if in.Title == "" {
		return validationErr("title", "is required")
	}
	return nil
}

// BenefitService manages the perks attached to each level. ListForUser
// resolves the caller's level from the points ledger so the unlocked set
// always tracks accumulated points, not the cached role.
type BenefitService interface {
	Create(ctx context.Context, in BenefitInput) (*Benefit, error)
	ListAll(ctx context.Context) ([]Benefit, error)
	ListForUser(ctx context.Context, userID string) ([]Benefit, error)
	Update(ctx context.Context, benefitID string, in BenefitInput) (*Benefit, error)
	Delete(ctx context.Context, benefitID string) error
}

type benefitService struct {
	pool    *pgxpool.Pool
	ledger  PointsLedger
	catalog LevelCatalog
}

func NewBenefitService(pool *pgxpool.Pool, ledger PointsLedger, catalog LevelCatalog) BenefitService {
	return &benefitService{pool: pool, ledger: ledger, catalog: catalog}
}

func (s *benefitService) Create(ctx context.Context, in BenefitInput) (*Benefit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var b Benefit
	err := s.pool.QueryRow(ctx, `
		INSERT INTO benefits (level_id, title, description, category, period, image_url, terms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, level_id, title, description, category, period, image_url, terms, is_active, created_at
	`, in.LevelID, in.Title, in.Description, in.Category, in.Period, in.ImageURL, in.Terms).Scan(
		&b.ID, &b.LevelID, &b.Title, &b.Description, &b.Category, &b.Period,
		&b.ImageURL, &b.Terms, &b.IsActive, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert benefit: %w", err)
	}
	return &b, nil
}

func (s *benefitService) ListAll(ctx context.Context) ([]Benefit, error) {
	return s.list(ctx, `
		SELECT b.id, b.level_id, b.title, b.description, b.category, b.period,
		       b.image_url, b.terms, b.is_active, b.created_at, l.name, l.phase_number
		FROM benefits b
		JOIN levels l ON l.id = b.level_id
		WHERE b.is_active = true
		ORDER BY l.phase_number, b.title
	`)
}

func (s *benefitService) ListForUser(ctx context.Context, userID string) ([]Benefit, error) {
	total, err := s.ledger.TotalPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	level, err := s.catalog.LevelForPoints(ctx, s.pool, total)
	if err != nil {
		return nil, err
	}
	// Benefits unlock cumulatively: everything at or below the current phase.
	return s.list(ctx, `
		SELECT b.id, b.level_id, b.title, b.description, b.category, b.period,
		       b.image_url, b.terms, b.is_active, b.created_at, l.name, l.phase_number
		FROM benefits b
		JOIN levels l ON l.id = b.level_id
		WHERE b.is_active = true AND l.phase_number <= $1
		ORDER BY l.phase_number, b.title
	`, level.PhaseNumber)
}

func (s *benefitService) list(ctx context.Context, query string, args ...any) ([]Benefit, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query benefits: %w", err)
	}
	defer rows.Close()

	var out []Benefit
	for rows.Next() {
		var b Benefit
		if err := rows.Scan(&b.ID, &b.LevelID, &b.Title, &b.Description, &b.Category,
			&b.Period, &b.ImageURL, &b.Terms, &b.IsActive, &b.CreatedAt,
			&b.LevelName, &b.PhaseNumber); err != nil {
			return nil, fmt.Errorf("failed to scan benefit: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *benefitService) Update(ctx context.Context, benefitID string, in BenefitInput) (*Benefit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var b Benefit
	err := s.pool.QueryRow(ctx, `
		UPDATE benefits SET level_id = $2, title = $3, description = $4, category = $5,
			period = $6, image_url = $7, terms = $8
		WHERE id = $1
		RETURNING id, level_id, title, description, category, period, image_url, terms, is_active, created_at
	`, benefitID, in.LevelID, in.Title, in.Description, in.Category, in.Period,
		in.ImageURL, in.Terms).Scan(
		&b.ID, &b.LevelID, &b.Title, &b.Description, &b.Category, &b.Period,
		&b.ImageURL, &b.Terms, &b.IsActive, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("benefit %s: %w", benefitID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update benefit %s: %w", benefitID, err)
	}
	return &b, nil
}

func (s *benefitService) Delete(ctx context.Context, benefitID string) error {
	// Soft delete keeps historical perk records around.
	tag, err := s.pool.Exec(ctx,
		"UPDATE benefits SET is_active = false WHERE id = $1", benefitID)
	if err != nil {
		return fmt.Errorf("failed to delete benefit %s: %w", benefitID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("benefit %s: %w", benefitID, ErrNotFound)
	}
	return nil
}
