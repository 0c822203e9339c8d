// Package model holds the persisted game records: rooms, players and their finances.
// All money uses shopspring/decimal, never float64.
package model

import "github.com/shopspring/decimal"

// CurrencyPlaces is the number of minor-unit digits money is rounded to.
const CurrencyPlaces = 2

// FinancialState is a player's balance sheet.
type FinancialState struct {
	Cash          decimal.Decimal `json:"cash"`
	ToxicDebt     decimal.Decimal `json:"toxic_debt"`
	PassiveIncome decimal.Decimal `json:"passive_income"`
	NetWorth      decimal.Decimal `json:"net_worth"`
}

// AssetsValue is derived from passive income; it is never stored.
func (f *FinancialState) AssetsValue(multiplier decimal.Decimal) decimal.Decimal {
	return f.PassiveIncome.Mul(multiplier)
}

// Recalculate sets NetWorth = Cash + AssetsValue - ToxicDebt.
func (f *FinancialState) Recalculate(multiplier decimal.Decimal) decimal.Decimal {
	f.NetWorth = f.Cash.Add(f.AssetsValue(multiplier)).Sub(f.ToxicDebt)
	return f.NetWorth
}

// PayCost charges cost against cash. Any shortfall becomes toxic debt and cash
// drops to zero. It returns the shortfall moved into debt.
func (f *FinancialState) PayCost(cost decimal.Decimal) decimal.Decimal {
	if f.Cash.GreaterThanOrEqual(cost) {
		f.Cash = f.Cash.Sub(cost)
		return decimal.Zero
	}
	shortfall := cost.Sub(f.Cash)
	f.Cash = decimal.Zero
	f.ToxicDebt = f.ToxicDebt.Add(shortfall)
	return shortfall
}

// ApplyPayday credits salary plus passive income and accrues interest on the
// debt balance held before the payment. Interest is rounded half-up to cents.
func (f *FinancialState) ApplyPayday(salary, rate decimal.Decimal) (gained, interest decimal.Decimal) {
	gained = salary.Add(f.PassiveIncome)
	f.Cash = f.Cash.Add(gained)

	interest = decimal.Zero
	if f.ToxicDebt.IsPositive() {
		interest = RoundMoney(f.ToxicDebt.Mul(rate))
		f.ToxicDebt = f.ToxicDebt.Add(interest)
	}
	return gained, interest
}

// RoundMoney rounds to the currency minor unit, half away from zero. Money in
// this game is never negative so that is round-half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// FormatMoney renders a decimal with exactly two fraction digits for the wire.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(CurrencyPlaces)
}

// ParseMoney parses a wire money string back into a decimal.
func ParseMoney(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
