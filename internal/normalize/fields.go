// Package normalize maps raw upstream JSON onto the model types. Every
// function accepts the executor's empty sentinel and returns a fully
// defaulted value. When a field has both a snake_case and a camelCase name
// the snake_case key wins.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"hedera-defi/internal/units"
)

func parse(raw json.RawMessage) gjson.Result {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return gjson.Result{}
	}
	return gjson.ParseBytes(raw)
}

func object(raw json.RawMessage) (gjson.Result, bool) {
	r := parse(raw)
	return r, r.IsObject()
}

// list returns the elements of a top-level array, or of the array held under
// one of keys when the payload is an object.
func list(r gjson.Result, keys ...string) []gjson.Result {
	if r.IsArray() {
		return r.Array()
	}
	if !r.IsObject() {
		return nil
	}
	if v := pick(r, keys...); v.IsArray() {
		return v.Array()
	}
	return nil
}

// pick returns the first of keys present on r.
func pick(r gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if v := r.Get(gjson.Escape(key)); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func str(r gjson.Result, keys ...string) string {
	v := pick(r, keys...)
	switch v.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return v.String()
	}
	return ""
}

func dec(r gjson.Result, keys ...string) decimal.Decimal {
	v := pick(r, keys...)
	switch v.Type {
	case gjson.Number:
		d, err := decimal.NewFromString(v.Raw)
		if err != nil {
			return decimal.NewFromFloat(v.Float())
		}
		return d
	case gjson.String:
		return units.ParseDecimal(v.Str)
	}
	return decimal.Zero
}

func i64(r gjson.Result, keys ...string) int64 {
	v := pick(r, keys...)
	switch v.Type {
	case gjson.Number:
		return v.Int()
	case gjson.String:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return dec(r, keys...).IntPart()
		}
		return n
	}
	return 0
}

func i32(r gjson.Result, keys ...string) int32 {
	return int32(i64(r, keys...))
}

func boolean(r gjson.Result, keys ...string) bool {
	return pick(r, keys...).Bool()
}

// scaled divides a smallest-unit integer by 10^decimals.
func scaled(amount decimal.Decimal, decimals int32) decimal.Decimal {
	if decimals <= 0 {
		return amount
	}
	return amount.Shift(-decimals)
}
