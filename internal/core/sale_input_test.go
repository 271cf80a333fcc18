package core_test

import (
	"errors"
	"testing"

	"github.com/saamuelsam/sales-gamification/internal/core"
)

func TestCreateSaleInput_NormalizationAndValidation(t *testing.T) {
	term := 60
	badTerm := 200

	tests := []struct {
		name      string
		input     core.CreateSaleInput
		expectErr bool
		field     string
	}{
		{
			name: "Happy path (direct)",
			input: core.CreateSaleInput{
				ClientName: "Maria Silva",
				Value:      dec("30000"),
				Kilowatts:  dec("350"),
				SaleType:   core.SaleTypeDirect,
			},
			expectErr: false,
		},
		{
			name: "Happy path (consortium)",
			input: core.CreateSaleInput{
				ClientName:      "Carlos Oliveira",
				Value:           dec("50000"),
				Kilowatts:       dec("420"),
				SaleType:        core.SaleTypeConsortium,
				ConsortiumValue: decPtr("50000"),
				ConsortiumTerm:  &term,
			},
			expectErr: false,
		},
		{
			name: "Empty sale type defaults to direct",
			input: core.CreateSaleInput{
				ClientName: "João Santos",
				Value:      dec("10000"),
				Kilowatts:  dec("100"),
			},
			expectErr: false,
		},
		{
			name: "Mixed-case sale type is normalized",
			input: core.CreateSaleInput{
				ClientName: "João Santos",
				Value:      dec("10000"),
				Kilowatts:  dec("100"),
				SaleType:   core.SaleType("  Cash "),
			},
			expectErr: false,
		},
		{
			name: "Blank client name",
			input: core.CreateSaleInput{
				ClientName: "   ",
				Value:      dec("10000"),
				Kilowatts:  dec("100"),
			},
			expectErr: true,
			field:     "client_name",
		},
		{
			name: "Zero value",
			input: core.CreateSaleInput{
				ClientName: "Maria Silva",
				Value:      dec("0"),
				Kilowatts:  dec("100"),
			},
			expectErr: true,
			field:     "value",
		},
		{
			name: "Negative kilowatts",
			input: core.CreateSaleInput{
				ClientName: "Maria Silva",
				Value:      dec("10000"),
				Kilowatts:  dec("-5"),
			},
			expectErr: true,
			field:     "kilowatts",
		},
		{
			name: "Unknown sale type",
			input: core.CreateSaleInput{
				ClientName: "Maria Silva",
				Value:      dec("10000"),
				Kilowatts:  dec("100"),
				SaleType:   core.SaleType("barter"),
			},
			expectErr: true,
			field:     "sale_type",
		},
		{
			name: "Consortium without consortium value",
			input: core.CreateSaleInput{
				ClientName:     "Carlos Oliveira",
				Value:          dec("50000"),
				Kilowatts:      dec("420"),
				SaleType:       core.SaleTypeConsortium,
				ConsortiumTerm: &term,
			},
			expectErr: true,
			field:     "consortium_value",
		},
		{
			name: "Consortium without term",
			input: core.CreateSaleInput{
				ClientName:      "Carlos Oliveira",
				Value:           dec("50000"),
				Kilowatts:       dec("420"),
				SaleType:        core.SaleTypeConsortium,
				ConsortiumValue: decPtr("50000"),
			},
			expectErr: true,
			field:     "consortium_term",
		},
		{
			name: "Consortium term out of range",
			input: core.CreateSaleInput{
				ClientName:      "Carlos Oliveira",
				Value:           dec("50000"),
				Kilowatts:       dec("420"),
				SaleType:        core.SaleTypeConsortium,
				ConsortiumValue: decPtr("50000"),
				ConsortiumTerm:  &badTerm,
			},
			expectErr: true,
			field:     "consortium_term",
		},
		{
			name: "Consortium fields on a direct sale",
			input: core.CreateSaleInput{
				ClientName:      "Maria Silva",
				Value:           dec("30000"),
				Kilowatts:       dec("350"),
				SaleType:        core.SaleTypeDirect,
				ConsortiumValue: decPtr("30000"),
			},
			expectErr: true,
			field:     "sale_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.Normalize()
			err := tt.input.Validate()
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected validation error, got nil")
				}
				var ve *core.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected *ValidationError, got %T: %v", err, err)
				}
				if ve.Field != tt.field {
					t.Errorf("error field = %q, want %q", ve.Field, tt.field)
				}
			} else if err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestCreateSaleInput_NormalizeDefaultsSaleType(t *testing.T) {
	in := core.CreateSaleInput{
		ClientName: "  Maria Silva  ",
		Value:      dec("10000"),
		Kilowatts:  dec("100"),
	}
	in.Normalize()

	if in.ClientName != "Maria Silva" {
		t.Errorf("client name = %q, want trimmed", in.ClientName)
	}
	if in.SaleType != core.SaleTypeDirect {
		t.Errorf("sale type = %q, want direct", in.SaleType)
	}
}
