package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/geocoder89/supplylens/internal/envelope"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type pageQuery struct {
	Page    int
	PerPage int
}

func (p pageQuery) Limit() int  { return p.PerPage }
func (p pageQuery) Offset() int { return envelope.Offset(p.Page, p.PerPage) }

// parsePage reads page and per_page. Out-of-range or non-numeric values are
// a 422; the response has already been written when ok is false.
func parsePage(ctx *gin.Context) (pageQuery, bool) {
	q := pageQuery{Page: 1, PerPage: defaultPerPage}
	var fields []FieldError

	if raw, present := ctx.GetQuery("page"); present {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields = append(fields, FieldError{Field: "page", Rule: "gte", Param: "1", Message: "must be an integer >= 1"})
		} else {
			q.Page = n
		}
	}

	if raw, present := ctx.GetQuery("per_page"); present {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPerPage {
			fields = append(fields, FieldError{Field: "per_page", Rule: "range", Param: "1-100", Message: "must be an integer between 1 and 100"})
		} else {
			q.PerPage = n
		}
	}

	if len(fields) > 0 {
		RespondValidation(ctx, "Invalid query parameters", map[string]any{"fields": fields})
		return pageQuery{}, false
	}

	return q, true
}

// pathUUID returns the named path parameter when it is a UUID; otherwise it
// writes a 422.
func pathUUID(ctx *gin.Context, name string) (string, bool) {
	raw := ctx.Param(name)

	id, err := uuid.Parse(raw)
	if err != nil {
		RespondValidation(ctx, "Invalid path parameter", map[string]any{
			"fields": []FieldError{{Field: name, Rule: "uuid", Message: validationMessage("uuid", "")}},
		})
		return "", false
	}

	return id.String(), true
}
