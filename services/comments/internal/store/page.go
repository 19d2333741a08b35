package store

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (Page-1)*Limit inside an int32 for every allowed Limit.
	MaxPage = math.MaxInt32 / MaxLimit
)

// PageRequest is a 1-indexed offset pagination request.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize applies defaults to non-positive values and clamps Page and Limit.
func (r PageRequest) Normalize() PageRequest {
	if r.Page <= 0 {
		r.Page = DefaultPage
	}
	if r.Page > MaxPage {
		r.Page = MaxPage
	}
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	return r
}

func (r PageRequest) Offset() int { return (r.Page - 1) * r.Limit }

// Page is one slice of a parent's comments plus navigation metadata.
type Page struct {
	Items         []Comment `json:"items"`
	TotalItems    int64     `json:"totalItems"`
	TotalPages    int       `json:"totalPages"`
	CurrentPage   int       `json:"currentPage"`
	Limit         int       `json:"limit"`
	HasNextPage   bool      `json:"hasNextPage"`
	HasPrevPage   bool      `json:"hasPrevPage"`
	NextPage      *int      `json:"nextPage"`
	PrevPage      *int      `json:"prevPage"`
	PagingCounter int       `json:"pagingCounter"`
}

// NewPage assembles a Page from a normalized request, the fetched items and
// the total count. TotalPages is at least 1 so an empty listing still
// reports a single (empty) page.
func NewPage(req PageRequest, items []Comment, total int64) Page {
	if items == nil {
		items = []Comment{}
	}
	pages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	if pages < 1 {
		pages = 1
	}
	p := Page{
		Items:         items,
		TotalItems:    total,
		TotalPages:    pages,
		CurrentPage:   req.Page,
		Limit:         req.Limit,
		HasNextPage:   req.Page < pages,
		HasPrevPage:   req.Page > 1,
		PagingCounter: req.Offset() + 1,
	}
	if p.HasNextPage {
		n := req.Page + 1
		p.NextPage = &n
	}
	if p.HasPrevPage {
		n := req.Page - 1
		p.PrevPage = &n
	}
	return p
}
