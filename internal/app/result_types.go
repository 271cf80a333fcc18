package app

import (
	"github.com/shopspring/decimal"

	"github.com/saamuelsam/sales-gamification/internal/core"
)

type SaleListResult struct {
	Sales []core.SaleDetail `json:"sales"`
	Count int               `json:"count"`
}

type PointsResult struct {
	TotalPoints decimal.Decimal `json:"total_points"`
}

type PointsHistoryResult struct {
	Entries []core.PointHistoryEntry `json:"entries"`
	Total   decimal.Decimal          `json:"total"`
}

type RankingResult struct {
	Ranking []core.RankingEntry `json:"ranking"`
}

type LevelListResult struct {
	Levels []core.Level `json:"levels"`
}

type CommissionListResult struct {
	Commissions []core.CommissionWithSale `json:"commissions"`
}

type RewardListResult struct {
	Rewards []core.Reward `json:"rewards"`
}

type NotificationListResult struct {
	Notifications []core.Notification `json:"notifications"`
	UnreadCount   int                 `json:"unread_count"`
}

type ClientListResult struct {
	Clients []core.Client `json:"clients"`
	Count   int           `json:"count"`
}

type BenefitListResult struct {
	Benefits []core.Benefit `json:"benefits"`
}
