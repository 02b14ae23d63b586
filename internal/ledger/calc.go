package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Inputs feeds the formula graph of one row.
type Inputs struct {
	GrossPremium     float64
	Cancellation     float64
	CommissionPct    float64
	Zinara           float64
	PpaGross         float64
	PpaPct           float64
	ApprovedExpenses float64
}

// Derived holds the six computed monetary outputs of a row.
type Derived struct {
	ActualGross         float64 `json:"actualGross"`
	Commission          float64 `json:"commission"`
	NetPremium          float64 `json:"netPremium"`
	PpaCommission       float64 `json:"ppaCommission"`
	NetPpa              float64 `json:"netPpa"`
	ExpectedRemittances float64 `json:"expectedRemittances"`
}

// Recompute evaluates the fixed formula graph. It has no side effects.
func Recompute(in Inputs) Derived {
	var d Derived
	d.ActualGross = in.GrossPremium - in.Cancellation
	d.Commission = d.ActualGross * (in.CommissionPct / 100)
	d.NetPremium = d.ActualGross - d.Commission
	d.PpaCommission = in.PpaGross * (in.PpaPct / 100)
	d.NetPpa = in.PpaGross - d.PpaCommission
	d.ExpectedRemittances = d.NetPremium + in.Zinara + d.NetPpa - in.ApprovedExpenses
	return d
}

// Value returns the derived output stored under a canonical header.
func (d Derived) Value(header string) (float64, bool) {
	switch header {
	case FieldActualGross:
		return d.ActualGross, true
	case FieldCommission:
		return d.Commission, true
	case FieldNetPremium:
		return d.NetPremium, true
	case FieldPpaCommission:
		return d.PpaCommission, true
	case FieldNetPpa:
		return d.NetPpa, true
	case FieldExpectedRemittances:
		return d.ExpectedRemittances, true
	}
	return 0, false
}

// Coerce turns a loosely typed cell value into a number. Anything that is
// not a finite number becomes 0; coercion never fails.
func Coerce(v any) float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		f = parseAmount(string(t))
	case string:
		f = parseAmount(t)
	case []byte:
		f = parseAmount(string(t))
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseAmount strips thousands separators and the supported currency
// prefixes before parsing.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	for _, p := range currencyPrefixes {
		s = strings.TrimPrefix(s, strings.TrimSpace(p))
	}
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Stringify renders a cell value the way it is carried into table_data.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return formatNumber(t)
	case float32:
		return formatNumber(float64(t))
	case bool:
		return strconv.FormatBool(t)
	case []byte:
		return string(t)
	}
	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
