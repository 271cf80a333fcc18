package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// query helpers inside and outside transactions.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RoleForPhase maps a level's phase number to the legacy role string stored
// on the user record. The cached role is refreshed transactionally whenever
// points change; it is never the source of truth for commission rates.
func RoleForPhase(phase int) string {
	switch phase {
	case 1:
		return "consultant"
	case 2:
		return "master_consultant"
	case 3:
		return "director"
	case 4:
		return "regional_director"
	case 5:
		return "admin"
	default:
		return "consultant"
	}
}

const levelColumns = `id, phase_number, name, subtitle, points_required, max_lines,
	personal_commission, insurance_commission, network_commission,
	fixed_allowance, monthly_sales_goal, bonus_goal, bonus_allowance,
	advancement_bonus, advancement_reward, created_at`

func scanLevel(row pgx.Row) (*Level, error) {
	var l Level
	err := row.Scan(&l.ID, &l.PhaseNumber, &l.Name, &l.Subtitle, &l.PointsRequired, &l.MaxLines,
		&l.PersonalCommission, &l.InsuranceCommission, &l.NetworkCommission,
		&l.FixedAllowance, &l.MonthlySalesGoal, &l.BonusGoal, &l.BonusAllowance,
		&l.AdvancementBonus, &l.AdvancementReward, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// LevelInput is the admin payload for creating a level.
type LevelInput struct {
	PhaseNumber         int              `json:"phase_number"`
	Name                string           `json:"name"`
	Subtitle            *string          `json:"subtitle,omitempty"`
	PointsRequired      decimal.Decimal  `json:"points_required"`
	MaxLines            int              `json:"max_lines"`
	PersonalCommission  decimal.Decimal  `json:"personal_commission"`
	InsuranceCommission decimal.Decimal  `json:"insurance_commission"`
	NetworkCommission   *decimal.Decimal `json:"network_commission,omitempty"`
	FixedAllowance      decimal.Decimal  `json:"fixed_allowance"`
	MonthlySalesGoal    *decimal.Decimal `json:"monthly_sales_goal,omitempty"`
	BonusGoal           *decimal.Decimal `json:"bonus_goal,omitempty"`
	BonusAllowance      *decimal.Decimal `json:"bonus_allowance,omitempty"`
	AdvancementBonus    decimal.Decimal  `json:"advancement_bonus"`
	AdvancementReward   *string          `json:"advancement_reward,omitempty"`
}

func (in *LevelInput) Validate() error {
	if in.PhaseNumber < 1 {
		return validationErr("phase_number", "must be >= 1")
	}
	if in.Name == "" {
		return validationErr("name", "is required")
	}
	if in.PointsRequired.IsNegative() {
		return validationErr("points_required", "cannot be negative")
	}
	if in.PersonalCommission.IsNegative() || in.InsuranceCommission.IsNegative() {
		return validationErr("commission", "percentages cannot be negative")
	}
	return nil
}

// LevelPatch is the whitelisted update payload: each editable column has a
// named slot. Unknown fields can never reach the UPDATE statement.
type LevelPatch struct {
	Name                *string          `json:"name,omitempty"`
	Subtitle            *string          `json:"subtitle,omitempty"`
	PointsRequired      *decimal.Decimal `json:"points_required,omitempty"`
	MaxLines            *int             `json:"max_lines,omitempty"`
	PersonalCommission  *decimal.Decimal `json:"personal_commission,omitempty"`
	InsuranceCommission *decimal.Decimal `json:"insurance_commission,omitempty"`
	NetworkCommission   *decimal.Decimal `json:"network_commission,omitempty"`
	FixedAllowance      *decimal.Decimal `json:"fixed_allowance,omitempty"`
	MonthlySalesGoal    *decimal.Decimal `json:"monthly_sales_goal,omitempty"`
	BonusGoal           *decimal.Decimal `json:"bonus_goal,omitempty"`
	BonusAllowance      *decimal.Decimal `json:"bonus_allowance,omitempty"`
	AdvancementBonus    *decimal.Decimal `json:"advancement_bonus,omitempty"`
	AdvancementReward   *string          `json:"advancement_reward,omitempty"`
}

// PathwayLevel is a level annotated with one user's progress against it.
type PathwayLevel struct {
	Level
	Achieved  bool `json:"achieved"`
	IsCurrent bool `json:"is_current"`
}

// UserGoals describes a user's position on the ladder and what the next
// level requires.
type UserGoals struct {
	CurrentLevel       *Level          `json:"current_level"`
	NextLevel          *Level          `json:"next_level,omitempty"`
	CurrentPoints      decimal.Decimal `json:"current_points"`
	PointsToNextLevel  decimal.Decimal `json:"points_to_next_level"`
	ProgressPercentage int             `json:"progress_percentage"`
	MinContracts       int             `json:"min_contracts"`
	MinSalesValue      decimal.Decimal `json:"min_sales_value"`
	BonusGoal          decimal.Decimal `json:"bonus_goal"`
}

// LevelCatalog reads and administers the career ladder. Every other component
// only reads it; levels are created and edited by admins.
type LevelCatalog interface {
	ListLevels(ctx context.Context) ([]Level, error)
	GetByID(ctx context.Context, id string) (*Level, error)
	// LevelForPoints returns the level with the greatest points_required <= points,
	// falling back to the lowest-ordinal level when none qualifies. q may be a
	// pool or an open transaction.
	LevelForPoints(ctx context.Context, q pgxQuerier, points decimal.Decimal) (*Level, error)
	// NextLevel returns the level at phase currentPhase+1, or nil at the top.
	NextLevel(ctx context.Context, currentPhase int) (*Level, error)
	Create(ctx context.Context, in LevelInput) (*Level, error)
	Update(ctx context.Context, id string, patch LevelPatch) (*Level, error)
	Delete(ctx context.Context, id string) error
	Pathway(ctx context.Context, userID string) ([]PathwayLevel, error)
	UserGoals(ctx context.Context, userID string) (*UserGoals, error)
}

type levelCatalog struct {
	pool *pgxpool.Pool
}

func NewLevelCatalog(pool *pgxpool.Pool) LevelCatalog {
	return &levelCatalog{pool: pool}
}

func (c *levelCatalog) ListLevels(ctx context.Context) ([]Level, error) {
	rows, err := c.pool.Query(ctx, "SELECT "+levelColumns+" FROM levels ORDER BY phase_number ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query levels: %w", err)
	}
	defer rows.Close()

	var levels []Level
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		levels = append(levels, *l)
	}
	return levels, rows.Err()
}

func (c *levelCatalog) GetByID(ctx context.Context, id string) (*Level, error) {
	l, err := scanLevel(c.pool.QueryRow(ctx, "SELECT "+levelColumns+" FROM levels WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("level %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch level %s: %w", id, err)
	}
	return l, nil
}

func (c *levelCatalog) LevelForPoints(ctx context.Context, q pgxQuerier, points decimal.Decimal) (*Level, error) {
	if q == nil {
		q = c.pool
	}
	l, err := scanLevel(q.QueryRow(ctx, `
		SELECT `+levelColumns+` FROM levels
		WHERE points_required <= $1
		ORDER BY points_required DESC
		LIMIT 1
	`, points))
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to resolve level for %s points: %w", points, err)
	}

	// No threshold matched; fall back to the entry-level tier.
	l, err = scanLevel(q.QueryRow(ctx, "SELECT "+levelColumns+" FROM levels ORDER BY phase_number ASC LIMIT 1"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("level catalog is empty: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch entry level: %w", err)
	}
	return l, nil
}

func (c *levelCatalog) NextLevel(ctx context.Context, currentPhase int) (*Level, error) {
	l, err := scanLevel(c.pool.QueryRow(ctx,
		"SELECT "+levelColumns+" FROM levels WHERE phase_number = $1", currentPhase+1))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch next level after phase %d: %w", currentPhase, err)
	}
	return l, nil
}

func (c *levelCatalog) Create(ctx context.Context, in LevelInput) (*Level, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	l, err := scanLevel(c.pool.QueryRow(ctx, `
		INSERT INTO levels (
			phase_number, name, subtitle, points_required, max_lines,
			personal_commission, insurance_commission, network_commission,
			fixed_allowance, monthly_sales_goal, bonus_goal, bonus_allowance,
			advancement_bonus, advancement_reward
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+levelColumns,
		in.PhaseNumber, in.Name, in.Subtitle, in.PointsRequired, in.MaxLines,
		in.PersonalCommission, in.InsuranceCommission, in.NetworkCommission,
		in.FixedAllowance, in.MonthlySalesGoal, in.BonusGoal, in.BonusAllowance,
		in.AdvancementBonus, in.AdvancementReward))
	if err != nil {
		return nil, fmt.Errorf("failed to create level: %w", err)
	}
	return l, nil
}

func (c *levelCatalog) Update(ctx context.Context, id string, patch LevelPatch) (*Level, error) {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Subtitle != nil {
		add("subtitle", *patch.Subtitle)
	}
	if patch.PointsRequired != nil {
		add("points_required", *patch.PointsRequired)
	}
	if patch.MaxLines != nil {
		add("max_lines", *patch.MaxLines)
	}
	if patch.PersonalCommission != nil {
		add("personal_commission", *patch.PersonalCommission)
	}
	if patch.InsuranceCommission != nil {
		add("insurance_commission", *patch.InsuranceCommission)
	}
	if patch.NetworkCommission != nil {
		add("network_commission", *patch.NetworkCommission)
	}
	if patch.FixedAllowance != nil {
		add("fixed_allowance", *patch.FixedAllowance)
	}
	if patch.MonthlySalesGoal != nil {
		add("monthly_sales_goal", *patch.MonthlySalesGoal)
	}
	if patch.BonusGoal != nil {
		add("bonus_goal", *patch.BonusGoal)
	}
	if patch.BonusAllowance != nil {
		add("bonus_allowance", *patch.BonusAllowance)
	}
	if patch.AdvancementBonus != nil {
		add("advancement_bonus", *patch.AdvancementBonus)
	}
	if patch.AdvancementReward != nil {
		add("advancement_reward", *patch.AdvancementReward)
	}

	if len(sets) == 0 {
		return nil, validationErr("", "no fields to update")
	}

	args = append(args, id)
	query := "UPDATE levels SET "
	for i, s := range sets {
		if i > 0 {
			query += ", "
		}
		query += s
	}
	query += fmt.Sprintf(" WHERE id = $%d RETURNING %s", len(args), levelColumns)

	l, err := scanLevel(c.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("level %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update level %s: %w", id, err)
	}
	return l, nil
}

func (c *levelCatalog) Delete(ctx context.Context, id string) error {
	tag, err := c.pool.Exec(ctx, "DELETE FROM levels WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete level %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("level %s: %w", id, ErrNotFound)
	}
	return nil
}

func (c *levelCatalog) Pathway(ctx context.Context, userID string) ([]PathwayLevel, error) {
	var currentLevelName string
	var totalPoints decimal.Decimal
	err := c.pool.QueryRow(ctx, `
		SELECT u.level, COALESCE((SELECT MAX(accumulated_points) FROM points WHERE user_id = u.id), 0)
		FROM users u WHERE u.id = $1
	`, userID).Scan(&currentLevelName, &totalPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}

	levels, err := c.ListLevels(ctx)
	if err != nil {
		return nil, err
	}

	pathway := make([]PathwayLevel, 0, len(levels))
	for _, l := range levels {
		pathway = append(pathway, PathwayLevel{
			Level:     l,
			Achieved:  totalPoints.GreaterThanOrEqual(l.PointsRequired),
			IsCurrent: l.Name == currentLevelName,
		})
	}
	return pathway, nil
}

func (c *levelCatalog) UserGoals(ctx context.Context, userID string) (*UserGoals, error) {
	var totalPoints decimal.Decimal
	err := c.pool.QueryRow(ctx,
		"SELECT COALESCE(MAX(accumulated_points), 0) FROM points WHERE user_id = $1",
		userID).Scan(&totalPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch points for user %s: %w", userID, err)
	}

	current, err := c.LevelForPoints(ctx, c.pool, totalPoints)
	if err != nil {
		return nil, err
	}
	next, err := c.NextLevel(ctx, current.PhaseNumber)
	if err != nil {
		return nil, err
	}

	goals := &UserGoals{
		CurrentLevel:       current,
		NextLevel:          next,
		CurrentPoints:      totalPoints,
		PointsToNextLevel:  decimal.Zero,
		ProgressPercentage: 100,
		MinContracts:       current.MaxLines,
	}
	if current.MonthlySalesGoal != nil {
		goals.MinSalesValue = *current.MonthlySalesGoal
	}
	if current.BonusGoal != nil {
		goals.BonusGoal = *current.BonusGoal
	}

	if next != nil {
		span := next.PointsRequired.Sub(current.PointsRequired)
		into := totalPoints.Sub(current.PointsRequired)
		goals.PointsToNextLevel = decimal.Max(decimal.Zero, next.PointsRequired.Sub(totalPoints))
		if span.IsPositive() {
			pct := into.Div(span).Mul(oneHundred)
			p := int(pct.Round(0).IntPart())
			if p < 0 {
				p = 0
			}
			if p > 100 {
				p = 100
			}
			goals.ProgressPercentage = p
		}
	}
	return goals, nil
}
