package journal

import "github.com/shopspring/decimal"

// SizeUnit is the unit a position size was entered in. Storage is always
// lots; anything else is converted on the way in.
type SizeUnit string

const (
	UnitLots    SizeUnit = "lots"
	UnitTroyOz  SizeUnit = "troy_oz"
)

var troyOzPerLot = decimal.NewFromInt(100)

// NormalizeSize converts an entered position size to lots. Unknown units
// are treated as lots.
func NormalizeSize(size decimal.Decimal, unit SizeUnit) decimal.Decimal {
	if unit == UnitTroyOz {
		return size.Div(troyOzPerLot)
	}
	return size
}
