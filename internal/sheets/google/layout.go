package google

import (
	"fmt"
	"strings"

	gsheet "google.golang.org/api/sheets/v4"

	"saldo/internal/export"
)

// missingTabs lists the sheet names of groups without a tab yet, in group order.
func missingTabs(existing []string, groups []export.MonthGroup) []string {
	have := make(map[string]bool, len(existing))
	for _, e := range existing {
		have[strings.ToLower(e)] = true
	}
	var out []string
	for _, g := range groups {
		name := g.SheetName()
		if !have[strings.ToLower(name)] {
			out = append(out, name)
			have[strings.ToLower(name)] = true
		}
	}
	return out
}

func addSheetRequests(titles []string) []*gsheet.Request {
	reqs := make([]*gsheet.Request, 0, len(titles))
	for _, t := range titles {
		reqs = append(reqs, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: t}},
		})
	}
	return reqs
}

// tabRange addresses the data columns of a tab, e.g. 'March_2024'!A:E.
func tabRange(name string) string {
	return fmt.Sprintf("'%s'!A:%c", name, 'A'+len(export.Header)-1)
}

func tabRanges(groups []export.MonthGroup) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, tabRange(g.SheetName()))
	}
	return out
}

func valueRanges(groups []export.MonthGroup) []*gsheet.ValueRange {
	out := make([]*gsheet.ValueRange, 0, len(groups))
	for _, g := range groups {
		out = append(out, &gsheet.ValueRange{
			Range:  fmt.Sprintf("'%s'!A1", g.SheetName()),
			Values: g.Rows(),
		})
	}
	return out
}
