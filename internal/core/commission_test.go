package core_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/saamuelsam/sales-gamification/internal/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func eliteLevel() *core.Level {
	return &core.Level{
		Name:                "Elite",
		PhaseNumber:         1,
		PointsRequired:      decimal.Zero,
		PersonalCommission:  dec("5"),
		InsuranceCommission: dec("5"),
	}
}

func TestComputeCommission_DirectWithInsurance(t *testing.T) {
	in := &core.CreateSaleInput{
		ClientName:     "Maria Silva",
		Value:          dec("30000"),
		Kilowatts:      dec("350"),
		InsuranceValue: decPtr("2000"),
		SaleType:       core.SaleTypeDirect,
	}

	b := core.ComputeCommission(in, eliteLevel())

	// 30000 × 5% = 1500, 2000 × 5% = 100
	if !b.SaleCommission.Equal(dec("1500")) {
		t.Errorf("sale commission = %s, want 1500", b.SaleCommission)
	}
	if !b.InsuranceCommission.Equal(dec("100")) {
		t.Errorf("insurance commission = %s, want 100", b.InsuranceCommission)
	}
	if !b.TotalCommission.Equal(dec("1600")) {
		t.Errorf("total commission = %s, want 1600", b.TotalCommission)
	}
}

func TestComputeCommission_DirectWithoutInsurance(t *testing.T) {
	in := &core.CreateSaleInput{
		ClientName: "João Santos",
		Value:      dec("10000"),
		Kilowatts:  dec("100"),
		SaleType:   core.SaleTypeDirect,
	}

	b := core.ComputeCommission(in, eliteLevel())

	if !b.SaleCommission.Equal(dec("500")) {
		t.Errorf("sale commission = %s, want 500", b.SaleCommission)
	}
	if !b.InsuranceCommission.IsZero() {
		t.Errorf("insurance commission = %s, want 0", b.InsuranceCommission)
	}
	if !b.TotalCommission.Equal(dec("500")) {
		t.Errorf("total commission = %s, want 500", b.TotalCommission)
	}
}

func TestComputeCommission_ConsortiumFlatRate(t *testing.T) {
	// A consortium sale pays 5% of the consortium value, ignores the level's
	// percentages entirely, and never pays an insurance commission.
	term := 60
	in := &core.CreateSaleInput{
		ClientName:      "Carlos Oliveira",
		Value:           dec("50000"),
		Kilowatts:       dec("420"),
		InsuranceValue:  decPtr("3000"),
		SaleType:        core.SaleTypeConsortium,
		ConsortiumValue: decPtr("50000"),
		ConsortiumTerm:  &term,
	}

	highLevel := &core.Level{
		Name:                "Executivo",
		PhaseNumber:         5,
		PersonalCommission:  dec("15"),
		InsuranceCommission: dec("5"),
	}

	b := core.ComputeCommission(in, highLevel)

	if !b.SaleCommission.Equal(dec("2500")) {
		t.Errorf("sale commission = %s, want 2500 (flat 5%% of consortium value)", b.SaleCommission)
	}
	if !b.InsuranceCommission.IsZero() {
		t.Errorf("insurance commission = %s, want 0 for consortium", b.InsuranceCommission)
	}
	if !b.TotalCommission.Equal(dec("2500")) {
		t.Errorf("total commission = %s, want 2500", b.TotalCommission)
	}
}

func TestComputeCommission_FractionalPercentage(t *testing.T) {
	in := &core.CreateSaleInput{
		ClientName:     "Ana Costa",
		Value:          dec("12345.67"),
		Kilowatts:      dec("150"),
		InsuranceValue: decPtr("999.99"),
		SaleType:       core.SaleTypeCash,
	}

	level := &core.Level{
		Name:                "Consultor Sênior",
		PhaseNumber:         3,
		PersonalCommission:  dec("10"),
		InsuranceCommission: dec("5"),
	}

	b := core.ComputeCommission(in, level)

	if !b.SaleCommission.Equal(dec("1234.567")) {
		t.Errorf("sale commission = %s, want 1234.567", b.SaleCommission)
	}
	if !b.InsuranceCommission.Equal(dec("49.9995")) {
		t.Errorf("insurance commission = %s, want 49.9995", b.InsuranceCommission)
	}
	if !b.TotalCommission.Equal(dec("1284.5665")) {
		t.Errorf("total commission = %s, want 1284.5665", b.TotalCommission)
	}
}
