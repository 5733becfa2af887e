package paging

// PerPage is the fixed page size of list endpoints.
const PerPage = 10

// Page is one page of a listing.
type Page[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

// Normalize clamps page numbers below 1 to 1.
func Normalize(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Offset returns the row offset of a normalized page.
func Offset(page int) int {
	return (Normalize(page) - 1) * PerPage
}

// New assembles a page. Data is never nil so it encodes as [].
func New[T any](data []T, page, total int) Page[T] {
	if data == nil {
		data = []T{}
	}
	last := (total + PerPage - 1) / PerPage
	if last < 1 {
		last = 1
	}
	return Page[T]{
		Data:        data,
		CurrentPage: Normalize(page),
		PerPage:     PerPage,
		Total:       total,
		LastPage:    last,
	}
}

// Window returns the slice bounds of page within a list of total items.
func Window(page, total int) (start, end int) {
	start = Offset(page)
	if start > total {
		start = total
	}
	end = start + PerPage
	if end > total {
		end = total
	}
	return start, end
}
