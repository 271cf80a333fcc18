package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CreateSaleInput is the caller-supplied payload for sale creation.
// Monetary fields are decimal (JSON numbers and strings both accepted)
// so commission arithmetic never touches binary floating point.
type CreateSaleInput struct {
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
}

// Normalize cleans up common formatting issues before validation.
func (in *CreateSaleInput) Normalize() {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.SaleType = SaleType(strings.ToLower(strings.TrimSpace(string(in.SaleType))))
	if in.SaleType == "" {
		in.SaleType = SaleTypeDirect
	}
}

// Validate enforces the input shape. Runs before any transaction is opened:
// a failure here must leave no side effects.
func (in *CreateSaleInput) Validate() error {
	if in.ClientName == "" {
		return validationErr("client_name", "is required")
	}
	if !in.Value.IsPositive() {
		return validationErr("value", "must be > 0, got %s", in.Value)
	}
	if !in.Kilowatts.IsPositive() {
		return validationErr("kilowatts", "must be > 0, got %s", in.Kilowatts)
	}
	if in.InsuranceValue != nil && in.InsuranceValue.IsNegative() {
		return validationErr("insurance_value", "cannot be negative")
	}

	switch in.SaleType {
	case SaleTypeDirect, SaleTypeConsortium, SaleTypeCash, SaleTypeCard:
	default:
		return validationErr("sale_type", "must be one of direct, consortium, cash, card; got %q", in.SaleType)
	}

	if in.SaleType == SaleTypeConsortium {
		if in.ConsortiumValue == nil || !in.ConsortiumValue.IsPositive() {
			return validationErr("consortium_value", "is required for consortium sales and must be > 0")
		}
		if in.ConsortiumTerm == nil {
			return validationErr("consortium_term", "is required for consortium sales")
		}
		if *in.ConsortiumTerm < 1 || *in.ConsortiumTerm > 120 {
			return validationErr("consortium_term", "must be between 1 and 120 months, got %d", *in.ConsortiumTerm)
		}
		if in.ConsortiumMonthlyPayment != nil && in.ConsortiumMonthlyPayment.IsNegative() {
			return validationErr("consortium_monthly_payment", "cannot be negative")
		}
		if in.ConsortiumAdminFee != nil && in.ConsortiumAdminFee.IsNegative() {
			return validationErr("consortium_admin_fee", "cannot be negative")
		}
		return nil
	}

	// Consortium fields must be absent for every other sale type.
	if in.ConsortiumValue != nil || in.ConsortiumTerm != nil ||
		in.ConsortiumMonthlyPayment != nil || in.ConsortiumAdminFee != nil {
		return validationErr("sale_type", "consortium fields are only allowed when sale_type is consortium")
	}
	return nil
}
