package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TinybarsPerHbar is the mirror node's smallest-unit conversion constant.
const TinybarsPerHbar = 100_000_000

var (
	decTinybars = decimal.NewFromInt(TinybarsPerHbar)
	decHundred  = decimal.NewFromInt(100)
	decThousand = decimal.NewFromInt(1_000)
	decMillion  = decimal.NewFromInt(1_000_000)
	decBillion  = decimal.NewFromInt(1_000_000_000)
)

// ParseTimestamp converts a mirror node timestamp into UTC time.
// Both "seconds.nanoseconds" and plain integer nanoseconds are accepted.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if secPart, nanoPart, found := strings.Cut(raw, "."); found {
		sec, err := strconv.ParseInt(secPart, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		if len(nanoPart) > 9 {
			nanoPart = nanoPart[:9]
		}
		nanoPart += strings.Repeat("0", 9-len(nanoPart))
		nanos, err := strconv.ParseInt(nanoPart, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(sec, nanos).UTC(), true
	}

	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, nanos).UTC(), true
}

// TinybarsToHbar converts smallest-unit amounts to display units.
func TinybarsToHbar(tinybars decimal.Decimal) decimal.Decimal {
	return tinybars.Div(decTinybars)
}

// FormatNumber abbreviates a USD amount to K/M/B.
func FormatNumber(value decimal.Decimal, places int32) string {
	abs := value.Abs()
	switch {
	case abs.GreaterThanOrEqual(decBillion):
		return "$" + value.Div(decBillion).StringFixed(places) + "B"
	case abs.GreaterThanOrEqual(decMillion):
		return "$" + value.Div(decMillion).StringFixed(places) + "M"
	case abs.GreaterThanOrEqual(decThousand):
		return "$" + value.Div(decThousand).StringFixed(places) + "K"
	default:
		return "$" + value.StringFixed(places)
	}
}

// FormatHbar renders tinybars as HBAR with thousands separators.
func FormatHbar(tinybars int64) string {
	hbar := TinybarsToHbar(decimal.NewFromInt(tinybars)).StringFixed(8)
	sign := ""
	if strings.HasPrefix(hbar, "-") {
		sign = "-"
		hbar = hbar[1:]
	}
	whole, frac, _ := strings.Cut(hbar, ".")
	return fmt.Sprintf("%s%s.%s ℏ", sign, groupThousands(whole), frac)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// PercentageChange returns (new-old)/old*100, or zero when old is zero.
func PercentageChange(oldValue, newValue decimal.Decimal) decimal.Decimal {
	if oldValue.IsZero() {
		return decimal.Zero
	}
	return newValue.Sub(oldValue).Div(oldValue).Mul(decHundred)
}

// ParseCurrency parses display strings such as "$1,234.56".
// Empty or unparseable input yields zero.
func ParseCurrency(raw string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ', '\t', '\u00a0':
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// ParseDecimal parses a plain numeric string, defaulting to zero.
func ParseDecimal(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// SafeDivide returns fallback when den is zero.
func SafeDivide(num, den, fallback decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return fallback
	}
	return num.Div(den)
}

// SharePercent is part/total*100, zero when total is not positive.
func SharePercent(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Div(total).Mul(decHundred)
}

// ImpermanentLoss returns the loss in percent for a 50/50 constant product
// pool after the price ratio moved by priceRatio.
func ImpermanentLoss(priceRatio float64) float64 {
	if priceRatio <= 0 {
		return 0
	}
	il := 2*math.Sqrt(priceRatio)/(1+priceRatio) - 1
	return math.Abs(il) * 100
}

// APRToAPY converts a fractional APR into an APY percentage.
func APRToAPY(apr float64, compoundsPerYear int) float64 {
	if apr <= 0 || compoundsPerYear <= 0 {
		return 0
	}
	n := float64(compoundsPerYear)
	return (math.Pow(1+apr/n, n) - 1) * 100
}
