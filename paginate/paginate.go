// Package paginate computes page windows and builds the abstract
// "summary + items + controls" view model rendered onto a surface.
// Construction is pure and deterministic: first draw and every
// subsequent update share the same code path.
package paginate

import "fmt"

// Window describes one page of a collection. Start and End are slice
// indices (End exclusive). Page is clamped to [1, TotalPages]; an empty
// collection yields the zero Window with TotalPages 0.
type Window struct {
	Start      int
	End        int
	Page       int
	TotalPages int
}

// ComputePage clamps requestedPage into range and returns the item
// window for that page. pageSize must be positive.
func ComputePage(totalItems, pageSize, requestedPage int) Window {
	if totalItems <= 0 || pageSize <= 0 {
		return Window{}
	}
	totalPages := (totalItems + pageSize - 1) / pageSize

	page := requestedPage
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > totalItems {
		end = totalItems
	}
	return Window{Start: start, End: end, Page: page, TotalPages: totalPages}
}

// Summary formats the standard "items 1-5 of 12, page 1/3" header line
// for a page window.
func Summary(noun string, w Window, totalItems int) string {
	if totalItems == 0 {
		return fmt.Sprintf("no %s found", noun)
	}
	return fmt.Sprintf("%s %d-%d of %d, page %d/%d",
		noun, w.Start+1, w.End, totalItems, w.Page, w.TotalPages)
}
