package batch

import (
	"github.com/ironsheep/omr-sheet-mcp/internal/omr"
	"github.com/ironsheep/omr-sheet-mcp/internal/source"
)

// ReportItem is the outcome for one sheet in a batch report.
type ReportItem struct {
	Name      string           `json:"name"`
	Result    *omr.SheetResult `json:"result,omitempty"`
	Rejection *omr.Rejection   `json:"rejection,omitempty"`
}

// Report summarizes a batch for presentation.
type Report struct {
	Total    int          `json:"total"`
	Read     int          `json:"read"`
	Rejected int          `json:"rejected"`
	Items    []ReportItem `json:"items"`
}

// NewReport builds a report from results, keeping their order.
func NewReport(results []Result) *Report {
	rep := &Report{Total: len(results), Items: make([]ReportItem, len(results))}
	for i, r := range results {
		item := ReportItem{Name: r.Name, Rejection: r.Rejection}
		if r.Reading != nil {
			item.Result = r.Reading.Result
			rep.Read++
		} else {
			rep.Rejected++
		}
		rep.Items[i] = item
	}
	return rep
}

// FromPages turns opened source pages into batch items.
func FromPages(pages []source.Page) []Item {
	items := make([]Item, len(pages))
	for i, p := range pages {
		items[i] = Item{Name: p.Name, Load: p.Load}
	}
	return items
}
