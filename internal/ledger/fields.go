// Package ledger turns spreadsheet rows into the reconciled cashbook table.
package ledger

// Canonical headers of the cashbook table, in display order.
const (
	FieldDate                = "Date"
	FieldName                = "Name"
	FieldGrossPremium        = "Gross Premium"
	FieldCancellation        = "Cancellation"
	FieldActualGross         = "Actual Gross"
	FieldCommissionPct       = "Commission %"
	FieldCommission          = "Commission"
	FieldNetPremium          = "Net Premium"
	FieldZinara              = "ZINARA"
	FieldPpaGross            = "PPA GROSS"
	FieldPpaPct              = "PPA %"
	FieldPpaCommission       = "PPA Commission"
	FieldNetPpa              = "Net PPA"
	FieldApprovedExpenses    = "Approved expenses"
	FieldExpectedRemittances = "Expected remittances"

	// FieldBank is not canonical; it is stamped on every row at ingestion.
	FieldBank = "Bank"
)

// CanonicalFields lists the 15 financial columns in the order they are serialized.
var CanonicalFields = []string{
	FieldDate, FieldName, FieldGrossPremium, FieldCancellation, FieldActualGross,
	FieldCommissionPct, FieldCommission, FieldNetPremium, FieldZinara, FieldPpaGross,
	FieldPpaPct, FieldPpaCommission, FieldNetPpa, FieldApprovedExpenses,
	FieldExpectedRemittances,
}

type FieldKind int

const (
	KindUnknown FieldKind = iota
	KindRaw
	KindEditable
	KindDerived
	KindTag
)

func (k FieldKind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindEditable:
		return "editable"
	case KindDerived:
		return "derived"
	case KindTag:
		return "tag"
	}
	return "unknown"
}

// Input identifies one of the five user-adjustable overrides.
type Input int

const (
	InputCommissionPct Input = iota
	InputZinara
	InputPpaGross
	InputPpaPct
	InputApprovedExpenses
	numInputs
)

// inputKeys are the short keys clients use for the overrides.
var inputKeys = [numInputs]string{"commissionPct", "ZINARA", "ppaGross", "ppaPct", "approvedExpenses"}

var inputHeaders = [numInputs]string{FieldCommissionPct, FieldZinara, FieldPpaGross, FieldPpaPct, FieldApprovedExpenses}

func (in Input) Key() string    { return inputKeys[in] }
func (in Input) Header() string { return inputHeaders[in] }

// AllInputs lists the overrides in column order.
func AllInputs() []Input {
	out := make([]Input, numInputs)
	for i := range out {
		out[i] = Input(i)
	}
	return out
}

var fieldKinds = map[string]FieldKind{
	FieldDate:                KindRaw,
	FieldName:                KindRaw,
	FieldGrossPremium:        KindRaw,
	FieldCancellation:        KindRaw,
	FieldActualGross:         KindDerived,
	FieldCommissionPct:       KindEditable,
	FieldCommission:          KindDerived,
	FieldNetPremium:          KindDerived,
	FieldZinara:              KindEditable,
	FieldPpaGross:            KindEditable,
	FieldPpaPct:              KindEditable,
	FieldPpaCommission:       KindDerived,
	FieldNetPpa:              KindDerived,
	FieldApprovedExpenses:    KindEditable,
	FieldExpectedRemittances: KindDerived,
	FieldBank:                KindTag,
}

// derivedKeys maps the short keys of derived outputs to their headers.
var derivedKeys = map[string]string{
	"actualGross":         FieldActualGross,
	"commission":          FieldCommission,
	"netPremium":          FieldNetPremium,
	"ppaCommission":       FieldPpaCommission,
	"netPpa":              FieldNetPpa,
	"expectedRemittances": FieldExpectedRemittances,
}

var normalizedFields map[string]string

func init() {
	normalizedFields = make(map[string]string, len(fieldKinds)+len(inputKeys)+len(derivedKeys))
	for h := range fieldKinds {
		normalizedFields[Normalize(h)] = h
	}
	for i, k := range inputKeys {
		normalizedFields[Normalize(k)] = inputHeaders[i]
	}
	for k, h := range derivedKeys {
		normalizedFields[Normalize(k)] = h
	}
}

// CanonicalHeader maps any spelling of a known field (header or short key)
// to its canonical header.
func CanonicalHeader(name string) (string, bool) {
	h, ok := normalizedFields[Normalize(name)]
	return h, ok
}

// KindOf reports the kind of a canonical field name in any spelling.
func KindOf(name string) FieldKind {
	h, ok := CanonicalHeader(name)
	if !ok {
		return KindUnknown
	}
	return fieldKinds[h]
}

// InputFor returns the editable input addressed by name, if any.
func InputFor(name string) (Input, bool) {
	h, ok := CanonicalHeader(name)
	if !ok {
		return 0, false
	}
	for i, ih := range inputHeaders {
		if ih == h {
			return Input(i), true
		}
	}
	return 0, false
}
