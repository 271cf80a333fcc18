package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleType string

const (
	SaleTypeDirect     SaleType = "direct"
	SaleTypeConsortium SaleType = "consortium"
	SaleTypeCash       SaleType = "cash"
	SaleTypeCard       SaleType = "card"
)

type SaleStatus string

const (
	SaleStatusNegotiation     SaleStatus = "negotiation"
	SaleStatusPending         SaleStatus = "pending"
	SaleStatusApproved        SaleStatus = "approved"
	SaleStatusFinancingDenied SaleStatus = "financing_denied"
	SaleStatusCancelled       SaleStatus = "cancelled"
	SaleStatusDelivered       SaleStatus = "delivered"
)

// ValidSaleStatuses lists every status the update path accepts.
var ValidSaleStatuses = []SaleStatus{
	SaleStatusNegotiation, SaleStatusPending, SaleStatusApproved,
	SaleStatusFinancingDenied, SaleStatusCancelled, SaleStatusDelivered,
}

type RewardType string

const (
	RewardCestaBasica RewardType = "cesta_basica"
	RewardLevelUp     RewardType = "level_up"
)

// Level is one tier of the career ladder. PhaseNumber defines the ordering;
// PointsRequired is the entry threshold. Commission percentages are whole
// percents (PersonalCommission=5 means 5%).
type Level struct {
	ID                  string           `json:"id"`
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
	CreatedAt           time.Time        `json:"created_at"`
}

// Sale is one commercial transaction by one user. ClientName is a denormalized
// copy kept for audit even if the client record changes later.
type Sale struct {
	ID                       string           `json:"id"`
	UserID                   string           `json:"user_id"`
	ClientID                 *string          `json:"client_id,omitempty"`
	ClientName               string           `json:"client_name"`
	Value                    decimal.Decimal  `json:"value"`
	Kilowatts                decimal.Decimal  `json:"kilowatts"`
	InsuranceValue           *decimal.Decimal `json:"insurance_value,omitempty"`
	SaleType                 SaleType         `json:"sale_type"`
	ConsortiumValue          *decimal.Decimal `json:"consortium_value,omitempty"`
	ConsortiumTerm           *int             `json:"consortium_term,omitempty"`
	ConsortiumMonthlyPayment *decimal.Decimal `json:"consortium_monthly_payment,omitempty"`
	ConsortiumAdminFee       *decimal.Decimal `json:"consortium_admin_fee,omitempty"`
	TemplateType             *string          `json:"template_type,omitempty"`
	Notes                    *string          `json:"notes,omitempty"`
	Status                   SaleStatus       `json:"status"`
	ProductDelivered         bool             `json:"product_delivered"`
	DeliveryDate             *time.Time       `json:"delivery_date,omitempty"`
	InstallationProofURL     *string          `json:"installation_proof_url,omitempty"`
	ClosedAt                 *time.Time       `json:"closed_at,omitempty"`
	CreatedAt                time.Time        `json:"created_at"`
	UpdatedAt                time.Time        `json:"updated_at"`
}

// PointEntry is one immutable ledger row. AccumulatedPoints is the user's
// running total as of this entry — MAX(accumulated_points) per user must
// always equal the lifetime sum of points for that user.
type PointEntry struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	SaleID            string          `json:"sale_id"`
	Points            decimal.Decimal `json:"points"`
	AccumulatedPoints decimal.Decimal `json:"accumulated_points"`
	Description       string          `json:"description"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Commission is the financial record owed for one sale. Immutable except for
// the paid/paid_at mutation by an admin action.
type Commission struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"user_id"`
	SaleID              string          `json:"sale_id"`
	SaleCommission      decimal.Decimal `json:"sale_commission"`
	InsuranceCommission decimal.Decimal `json:"insurance_commission"`
	TotalCommission     decimal.Decimal `json:"total_commission"`
	Paid                bool            `json:"paid"`
	PaidAt              *time.Time      `json:"paid_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Reward is an earned, pending-to-be-fulfilled prize. AwardMonth pins the
// reward to a calendar month; (user_id, reward_type, award_month) is unique.
type Reward struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	RewardType       RewardType      `json:"reward_type"`
	Description      string          `json:"description"`
	PointsEarned     decimal.Decimal `json:"points_earned"`
	ThresholdReached decimal.Decimal `json:"threshold_reached"`
	Status           string          `json:"status"`
	AwardMonth       time.Time       `json:"award_month"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata"`
	IsRead    bool           `json:"is_read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// User carries a cached level name synced from the points ledger whenever
// points change. LevelSyncedAt marks the last transactional refresh; read
// paths never mutate the cache.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	Level         string     `json:"level"`
	LevelSyncedAt *time.Time `json:"level_synced_at,omitempty"`
	ParentID      *string    `json:"parent_id,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Client struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	CPF          *string   `json:"cpf,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Email        *string   `json:"email,omitempty"`
	CEP          *string   `json:"cep,omitempty"`
	Street       *string   `json:"street,omitempty"`
	Number       *string   `json:"number,omitempty"`
	Complement   *string   `json:"complement,omitempty"`
	Neighborhood *string   `json:"neighborhood,omitempty"`
	City         *string   `json:"city,omitempty"`
	State        *string   `json:"state,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Benefit struct {
	ID          string    `json:"id"`
	LevelID     string    `json:"level_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Period      *string   `json:"period,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Terms       *string   `json:"terms,omitempty"`
	IsActive    bool      `json:"is_active"`
	LevelName   string    `json:"level_name,omitempty"`
	PhaseNumber int       `json:"phase_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
