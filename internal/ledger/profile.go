package ledger

import "strings"

// Report source tags.
const (
	SourceSales    = "sales"
	SourcePayments = "payments"
)

type SearchMode int

const (
	// SearchName matches the trimmed Name column exactly, ignoring case.
	SearchName SearchMode = iota
	// SearchAnyValue matches a case-insensitive substring of any cell.
	SearchAnyValue
)

// Profile configures one ingestion flow. The cashbook (sales) flow derives
// the canonical table; the payments flow passes source columns through.
type Profile struct {
	Source string
	Derive bool
	Search SearchMode
}

var (
	Sales    = Profile{Source: SourceSales, Derive: true, Search: SearchName}
	Payments = Profile{Source: SourcePayments, Derive: false, Search: SearchAnyValue}
)

// ProfileFor looks up the profile of a source tag. "cashbook" is accepted
// as an alias of sales.
func ProfileFor(source string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case SourceSales, "cashbook":
		return Sales, nil
	case SourcePayments:
		return Payments, nil
	}
	return Profile{}, invalid("source", "unknown source %q", source)
}

// ValidSource reports whether tag is one of the stored source tags.
func ValidSource(tag string) bool {
	return tag == SourceSales || tag == SourcePayments
}
