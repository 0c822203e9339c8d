package turn

import (
	"github.com/shopspring/decimal"

	"github.com/palemoky/wolfpath/internal/model"
)

// Rules are the per-room parameters a turn is evaluated against.
type Rules struct {
	BoardSize       int
	Salary          decimal.Decimal
	WinningScore    decimal.Decimal
	InterestRate    decimal.Decimal
	AssetMultiplier decimal.Decimal
}

// DefaultRules mirrors the values a room gets when created without overrides.
func DefaultRules() Rules {
	return Rules{
		BoardSize:       30,
		Salary:          decimal.RequireFromString("2500.00"),
		WinningScore:    decimal.RequireFromString("1000000.00"),
		InterestRate:    decimal.RequireFromString("0.05"),
		AssetMultiplier: decimal.NewFromInt(10),
	}
}

// ForRoom overlays the room's configured values on top of defaults.
func ForRoom(room *model.Room, defaults Rules) Rules {
	r := defaults
	if room == nil {
		return r
	}
	if room.BoardSize > 0 {
		r.BoardSize = room.BoardSize
	}
	if room.Salary.IsPositive() {
		r.Salary = room.Salary
	}
	if room.WinningScore.IsPositive() {
		r.WinningScore = room.WinningScore
	}
	return r
}
