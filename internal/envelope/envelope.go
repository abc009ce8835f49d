// Package envelope builds the response body shared by every API endpoint.
//
// A success envelope carries data and never an error; a failure envelope
// carries an error and never data. Paginated envelopes add page metadata.
package envelope

import "math"

type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data"`
	Message *string    `json:"message"`
	Error   *ErrorBody `json:"error"`
}

type PaginationMeta struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

type PaginatedEnvelope[T any] struct {
	Success    bool           `json:"success"`
	Data       []T            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
	Message    *string        `json:"message"`
}

func Success(data any, message string) Envelope {
	return Envelope{
		Success: true,
		Data:    data,
		Message: optional(message),
	}
}

func Failure(code, message string, details map[string]any) Envelope {
	if len(details) == 0 {
		details = nil
	}
	return Envelope{
		Success: false,
		Error: &ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// Paginated does not clamp page against the page count: a page past the end
// is a valid, empty result.
func Paginated[T any](items []T, page, perPage, total int, message string) PaginatedEnvelope[T] {
	if items == nil {
		items = []T{}
	}
	return PaginatedEnvelope[T]{
		Success: true,
		Data:    items,
		Pagination: PaginationMeta{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   PageCount(total, perPage),
		},
		Message: optional(message),
	}
}

// PageCount is ceil(total/perPage), or 0 when perPage is not positive.
func PageCount(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// Offset converts a 1-based page into a row offset. It saturates at
// math.MaxInt so a huge page lands past the end instead of wrapping negative.
func Offset(page, perPage int) int {
	if page < 1 || perPage < 1 {
		return 0
	}
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
