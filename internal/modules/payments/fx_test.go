package payments

import (
	"errors"
	"testing"
)

func TestFxConvert_Identity(t *testing.T) {
	fx := FxConfig{ChargeCurrency: "USD", RateJodToUsd: 1.41, Source: "env"}

	got, err := fx.Convert("USD", 2370)
	if err != nil {
		t.Fatal(err)
	}
	if got.Currency != "USD" || got.AmountMinor != 2370 {
		t.Errorf("identity conversion changed the amount: %+v", got)
	}
	if got.FxRate != nil || got.FxSource != nil {
		t.Error("identity conversion must not populate fx mirror fields")
	}
}

func TestFxConvert_JodToUsd(t *testing.T) {
	fx := FxConfig{ChargeCurrency: "USD", RateJodToUsd: 1.41, Source: "env:FX_RATE_JOD_TO_USD"}

	// 95.500 JOD (95500 fils) × 1.41 = 134.655 USD → 13466 cents
	got, err := fx.Convert("JOD", 95500)
	if err != nil {
		t.Fatal(err)
	}
	if got.Currency != "USD" {
		t.Errorf("currency = %q, want USD", got.Currency)
	}
	if got.AmountMinor != 13466 {
		t.Errorf("amount = %d, want 13466", got.AmountMinor)
	}
	if got.FxRate == nil || *got.FxRate != 1.41 {
		t.Errorf("fx rate mirror = %v, want 1.41", got.FxRate)
	}
	if got.FxSource == nil || *got.FxSource != "env:FX_RATE_JOD_TO_USD" {
		t.Errorf("fx source mirror = %v", got.FxSource)
	}
}

func TestFxConvert_MissingRate(t *testing.T) {
	fx := FxConfig{ChargeCurrency: "USD"}
	if _, err := fx.Convert("JOD", 1000); !errors.Is(err, ErrFxRateNotConfigured) {
		t.Errorf("err = %v, want ErrFxRateNotConfigured", err)
	}
}

func TestFxConvert_UnsupportedPair(t *testing.T) {
	fx := FxConfig{ChargeCurrency: "USD", RateJodToUsd: 1.41}
	if _, err := fx.Convert("EUR", 1000); !errors.Is(err, ErrUnsupportedFxPair) {
		t.Errorf("err = %v, want ErrUnsupportedFxPair", err)
	}

	fx = FxConfig{ChargeCurrency: "EUR", RateJodToUsd: 1.41}
	if _, err := fx.Convert("JOD", 1000); !errors.Is(err, ErrUnsupportedFxPair) {
		t.Errorf("err = %v, want ErrUnsupportedFxPair", err)
	}
}
