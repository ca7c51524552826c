// Package export writes the ledger as a workbook with one sheet per month.
package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"saldo/internal/core"
)

// Filename is the default download name.
const Filename = "controle_financeiro.xlsx"

// Header is the column layout shared by every sheet.
var Header = []string{"ID", "Date", "Description", "Amount", "Category"}

// MonthGroup holds the transactions of one calendar month.
type MonthGroup struct {
	Year         int
	Month        int
	Transactions []core.Transaction
}

// SheetName returns e.g. "March_2024".
func (g MonthGroup) SheetName() string {
	return fmt.Sprintf("%s_%d", time.Month(g.Month).String(), g.Year)
}

// Rows renders the group as header plus one row per transaction.
func (g MonthGroup) Rows() [][]interface{} {
	rows := make([][]interface{}, 0, len(g.Transactions)+1)
	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	rows = append(rows, header)
	for _, t := range g.Transactions {
		rows = append(rows, []interface{}{t.ID, t.Date.String(), t.Description, t.Amount.Float(), t.Category.Label()})
	}
	return rows
}

// GroupByMonth buckets transactions by (year, month), oldest month first.
// Inside a group the input order is kept.
func GroupByMonth(txs []core.Transaction) []MonthGroup {
	idx := map[int]int{}
	var groups []MonthGroup
	for _, t := range txs {
		key := t.Date.Year()*100 + t.Date.Month()
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, MonthGroup{Year: t.Date.Year(), Month: t.Date.Month()})
		}
		groups[i].Transactions = append(groups[i].Transactions, t)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].Year != groups[b].Year {
			return groups[a].Year < groups[b].Year
		}
		return groups[a].Month < groups[b].Month
	})
	return groups
}

// Workbook builds the xlsx document. An empty ledger yields a single empty
// sheet carrying only the header.
func Workbook(txs []core.Transaction) (*excelize.File, error) {
	f := excelize.NewFile()
	groups := GroupByMonth(txs)
	if len(groups) == 0 {
		if err := writeSheet(f, "Sheet1", MonthGroup{}); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	}

	for i, g := range groups {
		name := g.SheetName()
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, g); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, g MonthGroup) error {
	for r, row := range g.Rows() {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, r+1, err)
		}
	}
	if err := f.SetColWidth(sheet, "C", "C", 40); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}
	if len(g.Transactions) > 0 {
		last := fmt.Sprintf("D%d", len(g.Transactions)+1)
		if err := f.SetCellStyle(sheet, "D2", last, style); err != nil {
			return err
		}
	}
	return nil
}

// WriteXLSX streams the workbook to w.
func WriteXLSX(w io.Writer, txs []core.Transaction) error {
	f, err := Workbook(txs)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
