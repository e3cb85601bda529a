package dto

import (
	"net/http"
	"strconv"
	"strings"

	"teleconsult/shared/constant"
)

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"
)

type QueryParams struct {
	Page    int    `json:"page"     validate:"omitempty"`
	Skip    int    `json:"skip"     validate:"omitempty,min=0"`
	Limit   int    `json:"limit"    validate:"omitempty"`
	SortBy  string `json:"sort_by"  validate:"omitempty"`
	SortDir string `json:"sort_dir" validate:"omitempty,oneof=ASC DESC"`
}

// FromRequest populates QueryParams from the request query string.
// With defaultRequest set, a missing page or limit falls back to the package defaults.
// An explicit skip takes precedence over page when computing the offset.
func (q *QueryParams) FromRequest(r *http.Request, defaultRequest bool) {
	queryParams := r.URL.Query()

	if page := queryParams.Get(constant.RequestParamPage); page != "" {
		if pageInt, err := strconv.Atoi(page); err == nil && pageInt > 0 {
			q.Page = pageInt
		}
	}

	if skip := queryParams.Get(constant.RequestParamSkip); skip != "" {
		if skipInt, err := strconv.Atoi(skip); err == nil && skipInt > 0 {
			q.Skip = skipInt
		}
	}

	if limit := queryParams.Get(constant.RequestParamLimit); limit != "" {
		if limitInt, err := strconv.Atoi(limit); err == nil && limitInt > 0 {
			q.Limit = limitInt
		}
	}

	if sortBy := queryParams.Get(constant.RequestParamSortBy); sortBy != "" {
		q.SortBy = sortBy
	}

	if sortDir := strings.ToUpper(queryParams.Get(constant.RequestParamSortDir)); sortDir == SortDirAsc || sortDir == SortDirDesc {
		q.SortDir = sortDir
	}

	if defaultRequest {
		if q.Page == 0 {
			q.Page = constant.DefaultValuePage
		}

		if q.Limit == 0 {
			q.Limit = constant.DefaultValueLimit
		}
	}
}

// Offset is the number of rows to skip.
func (q QueryParams) Offset() int {
	if q.Skip > 0 {
		return q.Skip
	}

	if q.Page > 1 && q.Limit > 0 {
		return (q.Page - 1) * q.Limit
	}

	return 0
}
