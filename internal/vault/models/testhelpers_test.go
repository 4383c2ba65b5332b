package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "covault/pkg/domain"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func floatPtr(f float64) *float64 { return &f }

func newTestVault(founder id.ParticipantID, mutate func(*Settings)) *Vault {
	form := CreateVaultForm{Name: "Trip fund"}
	form.Normalize()
	if mutate != nil {
		mutate(form.Settings)
	}
	return NewVault(founder, form, "ABC123", testNow)
}
