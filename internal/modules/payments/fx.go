package payments

import (
	"fmt"
	"math"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/money"
)

// ChargeAmount is what the gateway is asked to collect. When a conversion
// happened, the rate and its source label ride along for the audit mirror;
// on the identity path they stay nil and the ledger amount passes through.
type ChargeAmount struct {
	Currency    string
	AmountMinor int64
	FxRate      *float64
	FxSource    *string
}

// FxConfig is the statically configured conversion. Exactly one pair is
// supported (JOD ledger -> USD charge); anything else mismatched is a
// configuration error, never a silent default.
type FxConfig struct {
	ChargeCurrency string
	RateJodToUsd   float64
	Source         string
}

// Convert turns a ledger-currency minor amount into the platform charge
// amount. The ledger amount is never mutated; only the charge-side mirror
// is produced.
func (f FxConfig) Convert(ledgerCurrency string, ledgerMinor int64) (ChargeAmount, error) {
	ledger := money.NormalizeCurrency(ledgerCurrency)
	charge := money.NormalizeCurrency(f.ChargeCurrency)
	if ledger == "" || charge == "" {
		return ChargeAmount{}, fmt.Errorf("%w: ledger=%q charge=%q", ErrUnsupportedFxPair, ledgerCurrency, f.ChargeCurrency)
	}

	if ledger == charge {
		return ChargeAmount{Currency: ledger, AmountMinor: ledgerMinor}, nil
	}

	if ledger != "JOD" || charge != "USD" {
		return ChargeAmount{}, fmt.Errorf("%w: %s->%s", ErrUnsupportedFxPair, ledger, charge)
	}
	if f.RateJodToUsd <= 0 {
		return ChargeAmount{}, ErrFxRateNotConfigured
	}

	// round(ledger_major × rate × charge_multiplier)
	ledgerExp := money.MinorUnitExponent(ledger)
	chargeExp := money.MinorUnitExponent(charge)
	major := float64(ledgerMinor) / math.Pow10(ledgerExp)
	chargeMinor := int64(math.Round(major * f.RateJodToUsd * math.Pow10(chargeExp)))

	rate := f.RateJodToUsd
	source := f.Source
	return ChargeAmount{
		Currency:    charge,
		AmountMinor: chargeMinor,
		FxRate:      &rate,
		FxSource:    &source,
	}, nil
}
