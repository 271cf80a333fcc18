package app

import (
	"github.com/shopspring/decimal"

	"github.com/saamuelsam/sales-gamification/internal/core"
)

// RegisterRequest carries signup data for both root accounts and team members.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateSaleRequest is the web-facing sale payload. Optional fields stay nil
// when absent so validation can distinguish missing from zero.
type CreateSaleRequest struct {
	ClientID                 *string          `json:"client_id,omitempty"`
	ClientName               string           `json:"client_name"`
	Value                    decimal.Decimal  `json:"value"`
	Kilowatts                decimal.Decimal  `json:"kilowatts"`
	InsuranceValue           *decimal.Decimal `json:"insurance_value,omitempty"`
	SaleType                 string           `json:"sale_type"`
	ConsortiumValue          *decimal.Decimal `json:"consortium_value,omitempty"`
	ConsortiumTerm           *int             `json:"consortium_term,omitempty"`
	ConsortiumMonthlyPayment *decimal.Decimal `json:"consortium_monthly_payment,omitempty"`
	ConsortiumAdminFee       *decimal.Decimal `json:"consortium_admin_fee,omitempty"`
	TemplateType             *string          `json:"template_type,omitempty"`
	Notes                    *string          `json:"notes,omitempty"`
}

func (r CreateSaleRequest) toInput() core.CreateSaleInput {
	return core.CreateSaleInput{
		ClientID:                 r.ClientID,
		ClientName:               r.ClientName,
		Value:                    r.Value,
		Kilowatts:                r.Kilowatts,
		InsuranceValue:           r.InsuranceValue,
		SaleType:                 core.SaleType(r.SaleType),
		ConsortiumValue:          r.ConsortiumValue,
		ConsortiumTerm:           r.ConsortiumTerm,
		ConsortiumMonthlyPayment: r.ConsortiumMonthlyPayment,
		ConsortiumAdminFee:       r.ConsortiumAdminFee,
		TemplateType:             r.TemplateType,
		Notes:                    r.Notes,
	}
}
