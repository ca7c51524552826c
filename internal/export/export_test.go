package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"saldo/internal/core"
)

func tx(id int64, y, m, d int, desc string, cents int64, cat core.Category) core.Transaction {
	return core.Transaction{ID: id, Date: core.NewDate(y, m, d), Description: desc, Amount: core.Cents(cents), Category: cat}
}

func sample() []core.Transaction {
	return []core.Transaction{
		tx(3, 2024, 3, 2, "rent", -90000, core.Outflow),
		tx(1, 2023, 12, 31, "gift", 5000, core.VariableIncome),
		tx(2, 2024, 3, 1, "salary", 250000, core.FixedIncome),
		tx(4, 2024, 4, 1, "salary", 250000, core.FixedIncome),
	}
}

func TestGroupByMonth(t *testing.T) {
	groups := GroupByMonth(sample())
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	names := []string{"December_2023", "March_2024", "April_2024"}
	for i, g := range groups {
		if g.SheetName() != names[i] {
			t.Fatalf("group %d: %s, want %s", i, g.SheetName(), names[i])
		}
	}
	if len(groups[1].Transactions) != 2 || groups[1].Transactions[0].ID != 3 {
		t.Fatalf("input order must be kept inside a month: %+v", groups[1].Transactions)
	}
	if GroupByMonth(nil) != nil {
		t.Fatal("no transactions, no groups")
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sample()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open written workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != "December_2023" || sheets[2] != "April_2024" {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows("March_2024")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][4] != "Category" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][1] != "2024-03-02" || rows[1][2] != "rent" || rows[1][4] != "Outflow" {
		t.Fatalf("unexpected row %v", rows[1])
	}
	raw, err := f.GetCellValue("March_2024", "D2", excelize.Options{RawCellValue: true})
	if err != nil || raw != "-900" {
		t.Fatalf("amount cell = %q (%v)", raw, err)
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("Sheet1")
	if len(rows) != 1 || len(rows[0]) != len(Header) {
		t.Fatalf("expected header only, got %v", rows)
	}
}
