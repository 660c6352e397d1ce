package aggregate

// Pagination computes the condensed page-number layout used by the
// original web UI's table view, ported from
// original_source/pyheap-ui/src/pyheap_ui/pagination.py. spec.md §1 keeps
// the UI itself out of scope but explicitly keeps its data contracts in
// scope, so this remains a pure function of (totalPages, page).
type Pagination struct {
	totalPages int
	page       int
}

const (
	paginationWindow             = 3
	paginationMinPagesToCollapse = 15
)

// NewPagination returns a Pagination for totalPages pages with page as
// the current page (1-indexed).
func NewPagination(totalPages, page int) Pagination {
	return Pagination{totalPages: totalPages, page: page}
}

// TotalPages returns the total page count.
func (p Pagination) TotalPages() int { return p.totalPages }

// Page returns the current page.
func (p Pagination) Page() int { return p.page }

// Layout returns the condensed page layout: a nil entry marks a collapsed
// run of pages. Below paginationMinPagesToCollapse pages, every page
// number is listed.
func (p Pagination) Layout() []*int {
	result := make([]*int, p.totalPages+1)
	for i := 1; i <= p.totalPages; i++ {
		v := i
		result[i] = &v
	}

	if p.totalPages < paginationMinPagesToCollapse {
		return result[1:]
	}

	rightDistance := p.totalPages - p.page
	if rightDistance > paginationWindow*2 {
		result = spliceNil(result, p.page+paginationWindow, p.totalPages-paginationWindow+1)
	}

	leftDistance := p.page - 1
	if leftDistance > paginationWindow*2 {
		result = spliceNil(result, 1+paginationWindow, p.page-paginationWindow+1)
	}

	return result[1:]
}

// spliceNil deletes result[from:to] and inserts a single nil marker at
// index from, matching Python's `del result[from:to]; result.insert(from,
// None)`.
func spliceNil(result []*int, from, to int) []*int {
	if from < 0 {
		from = 0
	}
	if to > len(result) {
		to = len(result)
	}
	if from > to {
		from = to
	}
	out := make([]*int, 0, len(result)-(to-from)+1)
	out = append(out, result[:from]...)
	out = append(out, nil)
	out = append(out, result[to:]...)
	return out
}

// PrevEnabled reports whether a "previous page" control should be active.
func (p Pagination) PrevEnabled() bool { return p.page > 1 }

// NextEnabled reports whether a "next page" control should be active.
func (p Pagination) NextEnabled() bool { return p.page < p.totalPages }
