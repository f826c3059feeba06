package model

// Paginate page cursor returned alongside list data
type Paginate struct {
	Page      int `json:"page"`
	TotalPage int `json:"totalPage"`
}

// HasNext reports whether a page after p exists.
func (p Paginate) HasNext() bool {
	return p.Page < p.TotalPage
}

// Page one page of list data
type Page[T any] struct {
	Data     []T      `json:"data"`
	Paginate Paginate `json:"paginate"`
}
