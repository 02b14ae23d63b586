package ledger

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(cells ...any) RawRow {
	r := RawRow{}
	for i := 0; i+1 < len(cells); i += 2 {
		r = append(r, Cell{Label: cells[i].(string), Value: cells[i+1]})
	}
	return r
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Gross Premium", "grosspremium"},
		{"  gross_premium ", "grosspremium"},
		{"GROSS/PREMIUM", "grosspremium"},
		{"Gross\tPremium", "grosspremium"},
		{"PPA %", "ppa%"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestResolveSpellingVariants(t *testing.T) {
	for _, field := range CanonicalFields {
		variants := []string{
			field,
			"  " + field + " ",
			strings.ToUpper(field),
			strings.ReplaceAll(field, " ", "_"),
			strings.ReplaceAll(field, " ", "/"),
			strings.ReplaceAll(field, " ", ""),
		}
		for _, label := range variants {
			v, ok := Resolve(row("Other", 1, label, "value"), field)
			require.True(t, ok, "%q should resolve %q", label, field)
			assert.Equal(t, "value", v)
		}
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	r := row("Gross_Premium", 10, "gross premium", 20)
	v, ok := Resolve(r, FieldGrossPremium)
	require.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestResolveMissing(t *testing.T) {
	v, ok := Resolve(row("Name", "A"), FieldCancellation)
	assert.False(t, ok)
	assert.Nil(t, v)
	_, ok = Resolve(nil, FieldName)
	assert.False(t, ok)
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{nil, 0},
		{12.5, 12.5},
		{7, 7},
		{int64(-3), -3},
		{"1,234.50", 1234.5},
		{" 42 ", 42},
		{"$10", 10},
		{"ZWG 15.25", 15.25},
		{"abc", 0},
		{"", 0},
		{json.Number("3.5"), 3.5},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{true, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Coerce(tt.in), "%#v", tt.in)
	}
}

func TestRecompute(t *testing.T) {
	d := Recompute(Inputs{GrossPremium: 100, Cancellation: 10, CommissionPct: 20})
	assert.Equal(t, 90.0, d.ActualGross)
	assert.Equal(t, 18.0, d.Commission)
	assert.Equal(t, 72.0, d.NetPremium)

	d = Recompute(Inputs{
		GrossPremium: 100, Cancellation: 10, CommissionPct: 20,
		PpaGross: 50, PpaPct: 10, Zinara: 5, ApprovedExpenses: 2,
	})
	assert.Equal(t, 5.0, d.PpaCommission)
	assert.Equal(t, 45.0, d.NetPpa)
	assert.Equal(t, 120.0, d.ExpectedRemittances)
}

func TestRecomputeIsPure(t *testing.T) {
	in := Inputs{GrossPremium: 333.33, Cancellation: -12.5, CommissionPct: 17.5, PpaGross: 9, PpaPct: 3}
	assert.Equal(t, Recompute(in), Recompute(in))

	pairs := [][2]float64{{100, 10}, {0, 0}, {5, -5}, {-20, 30}, {1e9, 0.01}}
	for _, p := range pairs {
		assert.Equal(t, p[0]-p[1], Recompute(Inputs{GrossPremium: p[0], Cancellation: p[1]}).ActualGross)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$1234.50", FormatAmount(1234.5, "USD"))
	assert.Equal(t, "ZWG 1234.50", FormatAmount(1234.5, "ZWG"))
	assert.Equal(t, "$0.00", FormatAmount("not a number", "USD"))
	assert.Equal(t, "$0.00", FormatAmount(math.NaN(), "USD"))
	assert.Equal(t, "12.00", FormatAmount(12, "EUR"))
	assert.Equal(t, "$-3.25", FormatAmount(-3.25, "usd"))
	assert.True(t, SupportedCurrency("zwg"))
	assert.False(t, SupportedCurrency("GBP"))
}

func salesRows() []RawRow {
	return []RawRow{
		row("Date", "2024-05-01", "Name", "Alice", "GrossPremium", 100, "Cancellation", 10),
		row("date", "2024-05-02", "NAME", " bob ", "gross_premium", "200", "cancellation", "abc"),
		row("Date", "2024-05-03", "Name", "alice", "Gross Premium", 50),
	}
}

func TestLoadRequiresBank(t *testing.T) {
	_, err := Load(Sales, salesRows(), "  ")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestLoadSeedsInputsAndDerives(t *testing.T) {
	tbl, err := Load(Sales, salesRows(), "BankX")
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())

	r, err := tbl.Row(0)
	require.NoError(t, err)
	assert.Equal(t, "BankX", r.Bank)
	for in := Input(0); in < numInputs; in++ {
		assert.Zero(t, r.Input(in))
	}
	assert.Equal(t, 90.0, r.Derived().ActualGross)
	assert.Equal(t, 90.0, r.Derived().ExpectedRemittances)

	r, _ = tbl.Row(1)
	assert.Equal(t, 200.0, r.Derived().ActualGross, "non-numeric cancellation coerces to zero")
}

func TestEditCellScenario(t *testing.T) {
	tbl, err := Load(Sales, salesRows(), "BankX")
	require.NoError(t, err)

	r, err := EditCell(tbl, 0, "commissionPct", 20)
	require.NoError(t, err)
	assert.Equal(t, 18.0, r.Derived().Commission)
	assert.Equal(t, 72.0, r.Derived().NetPremium)

	for field, v := range map[string]any{"PPA GROSS": 50, "ppaPct": "10", "ZINARA": 5, "approved_expenses": 2} {
		_, err := EditCell(tbl, 0, field, v)
		require.NoError(t, err, field)
	}
	d := r.Derived()
	assert.Equal(t, 5.0, d.PpaCommission)
	assert.Equal(t, 45.0, d.NetPpa)
	assert.Equal(t, 120.0, d.ExpectedRemittances)
}

func TestEditCellIsRowScoped(t *testing.T) {
	tbl, err := Load(Sales, salesRows(), "BankX")
	require.NoError(t, err)
	before := make([]Derived, tbl.Len())
	for i := range before {
		r, _ := tbl.Row(i)
		before[i] = r.Derived()
	}

	_, err = EditCell(tbl, 1, FieldCommissionPct, 50)
	require.NoError(t, err)
	for i := range before {
		if i == 1 {
			continue
		}
		r, _ := tbl.Row(i)
		assert.Equal(t, before[i], r.Derived(), "row %d", i)
	}
}

func TestEditCellRawField(t *testing.T) {
	tbl, err := Load(Sales, salesRows(), "BankX")
	require.NoError(t, err)

	r, err := EditCell(tbl, 0, "cancellation", "30")
	require.NoError(t, err)
	assert.Equal(t, 70.0, r.Derived().ActualGross)
	v, _ := Resolve(r.Raw, FieldCancellation)
	assert.Equal(t, 10, v, "source row is untouched")
}

func TestEditCellRejects(t *testing.T) {
	tbl, err := Load(Sales, salesRows(), "BankX")
	require.NoError(t, err)

	for _, field := range []string{"Net Premium", "expectedRemittances", "Bank", "Mystery"} {
		_, err := EditCell(tbl, 0, field, 1)
		assert.True(t, IsValidation(err), field)
	}
	_, err = EditCell(tbl, 9, "commissionPct", 1)
	assert.True(t, IsValidation(err))
}

func TestSearch(t *testing.T) {
	tbl, err := Load(Sales, salesRows(), "BankX")
	require.NoError(t, err)

	v, err := Search(tbl, "  ALICE ")
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())
	j, _ := v.Index(1)
	assert.Equal(t, 2, j)

	v, err = Search(tbl, "Bob")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Len())

	v, err = Search(tbl, "ali")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Len(), "name search is exact, not substring")

	_, err = Search(tbl, "   ")
	assert.True(t, IsValidation(err))
}

func TestViewWritesThrough(t *testing.T) {
	tbl, err := Load(Sales, salesRows(), "BankX")
	require.NoError(t, err)
	v, err := Search(tbl, "alice")
	require.NoError(t, err)

	_, err = EditCell(v, 1, "commissionPct", 10)
	require.NoError(t, err)

	r, _ := tbl.Row(2)
	assert.Equal(t, 10.0, r.Input(InputCommissionPct))
	assert.Equal(t, 45.0, r.Derived().NetPremium)
}

func TestClear(t *testing.T) {
	tbl, err := Load(Sales, salesRows(), "BankX")
	require.NoError(t, err)
	v, err := Search(tbl, "alice")
	require.NoError(t, err)

	tbl.Clear()
	tbl.Clear()
	assert.Equal(t, 0, tbl.Len())
	_, err = v.Row(0)
	assert.Error(t, err)
	assert.Empty(t, Serialize(tbl, "USD"))
}

func TestSerializeCashbook(t *testing.T) {
	rows := append(salesRows(), row("Unrelated", "x"))
	tbl, err := Load(Sales, rows, "BankX")
	require.NoError(t, err)
	_, err = EditCell(tbl, 0, "commissionPct", 20)
	require.NoError(t, err)
	_, err = EditCell(tbl, 0, "ppaPct", 12.5)
	require.NoError(t, err)

	out := Serialize(tbl, "USD")
	require.Len(t, out, len(rows))
	for _, rec := range out {
		for _, h := range CanonicalFields {
			assert.True(t, rec.Has(h), h)
		}
		assert.Equal(t, "BankX", rec.Get(FieldBank))
		assert.Len(t, rec, len(CanonicalFields)+1)
	}

	first := out[0]
	assert.Equal(t, "2024-05-01", first.Get(FieldDate))
	assert.Equal(t, "Alice", first.Get(FieldName))
	assert.Equal(t, "100", first.Get(FieldGrossPremium))
	assert.Equal(t, "$90.00", first.Get(FieldActualGross))
	assert.Equal(t, "20", first.Get(FieldCommissionPct))
	assert.Equal(t, "12.5", first.Get(FieldPpaPct))
	assert.Equal(t, "$18.00", first.Get(FieldCommission))
	assert.Equal(t, "$72.00", first.Get(FieldNetPremium))
	assert.Equal(t, "0", first.Get(FieldZinara))

	empty := out[3]
	assert.Equal(t, "", empty.Get(FieldName))
	assert.Equal(t, "0", empty.Get(FieldGrossPremium))
	assert.Equal(t, "0", empty.Get(FieldCancellation))
	assert.Equal(t, "$0.00", empty.Get(FieldExpectedRemittances))
}

func TestSerializeView(t *testing.T) {
	tbl, err := Load(Sales, salesRows(), "BankX")
	require.NoError(t, err)
	v, err := Search(tbl, "bob")
	require.NoError(t, err)

	out := Serialize(v, "ZWG")
	require.Len(t, out, 1)
	assert.Equal(t, "ZWG 200.00", out[0].Get(FieldActualGross))
}

func TestPaymentsProfile(t *testing.T) {
	rows := []RawRow{
		row("Ref", "P-1", "Payer", "Alice Moyo", "Amount", 120.5),
		row("Ref", "P-2", "Payer", "Tendai", "Amount", 80),
	}
	tbl, err := Load(Payments, rows, "Steward Bank")
	require.NoError(t, err)

	v, err := Search(tbl, "moyo")
	require.NoError(t, err)
	require.Equal(t, 1, v.Len())

	_, err = EditCell(v, 0, "amount", "99")
	require.NoError(t, err)
	_, err = EditCell(v, 0, "Missing", "1")
	assert.True(t, IsValidation(err))

	out := Serialize(tbl, "USD")
	require.Len(t, out, 2)
	assert.Equal(t, Record{
		{"Ref", "P-1"}, {"Payer", "Alice Moyo"}, {"Amount", "99"}, {"Bank", "Steward Bank"},
	}, out[0])
	assert.Equal(t, "80", out[1].Get("Amount"))
}

func TestPaymentsKeepsLookalikeColumns(t *testing.T) {
	tbl, err := Load(Payments, []RawRow{row("Ref", "A1", "Amount", "10", "amount ", "99")}, "CABS")
	require.NoError(t, err)

	assert.Equal(t, Record{
		{"Ref", "A1"}, {"Amount", "10"}, {"amount ", "99"}, {"Bank", "CABS"},
	}, Serialize(tbl, "USD")[0])

	v, err := Search(tbl, "99")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Len())

	_, err = EditCell(tbl, 0, "Amount", "11")
	require.NoError(t, err)
	_, err = EditCell(tbl, 0, "amount ", "98")
	require.NoError(t, err)
	out := Serialize(tbl, "USD")[0]
	assert.Equal(t, "11", out.Get("Amount"))
	assert.Equal(t, "98", out.Get("amount "))
}

func TestProfileFor(t *testing.T) {
	p, err := ProfileFor("Cashbook")
	require.NoError(t, err)
	assert.Equal(t, SourceSales, p.Source)
	_, err = ProfileFor("bogus")
	assert.True(t, IsValidation(err))
}

func TestRawRowJSONKeepsOrder(t *testing.T) {
	var r RawRow
	require.NoError(t, json.Unmarshal([]byte(`{"Name":"A","gross premium":12.50,"Gross_Premium":3}`), &r))
	assert.Equal(t, []string{"Name", "gross premium", "Gross_Premium"}, r.Labels())
	v, _ := Resolve(r, FieldGrossPremium)
	assert.Equal(t, json.Number("12.50"), v)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Name":"A","gross premium":12.50,"Gross_Premium":3}`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
}

func TestRecordJSON(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"Date":"2024-01-01","Commission %":20,"Bank":"X"}`), &rec))
	assert.Equal(t, Record{{"Date", "2024-01-01"}, {"Commission %", "20"}, {"Bank", "X"}}, rec)

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"Date":"2024-01-01","Commission %":"20","Bank":"X"}`, string(b))
}

func TestSnapshotRoundTrip(t *testing.T) {
	tbl, err := Load(Sales, salesRows(), "BankX")
	require.NoError(t, err)
	_, err = EditCell(tbl, 0, "commissionPct", 20)
	require.NoError(t, err)
	_, err = EditCell(tbl, 2, "Name", "Carol")
	require.NoError(t, err)

	b, err := json.Marshal(tbl.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(b, &snap))

	restored, err := Restore(snap)
	require.NoError(t, err)
	assert.Equal(t, Serialize(tbl, "USD"), Serialize(restored, "USD"))

	snap.Rows[0].Inputs = map[string]float64{"bogus": 1}
	_, err = Restore(snap)
	assert.True(t, IsValidation(err))
}

func TestCanonicalHeader(t *testing.T) {
	h, ok := CanonicalHeader("approved_expenses")
	require.True(t, ok)
	assert.Equal(t, FieldApprovedExpenses, h)
	assert.Equal(t, KindDerived, KindOf("netPpa"))
	assert.Equal(t, KindEditable, KindOf("PPA %"))
	assert.Equal(t, KindUnknown, KindOf("nope"))
}
