// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package describe

import (
	"github.com/taibuivan/noriva/pkg/pagination"
	"github.com/taibuivan/noriva/pkg/query"
)

// SortOrder values accepted by list operations.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListParams carries everything a paged list operation needs beyond the
// filter expression: paging, sorting, and section selection.
type ListParams struct {
	Paging    pagination.Params
	SortBy    string
	SortOrder string
	Include   Include
}

/*
ListParamsFromQuery parses the standard list query parameters.

Description: Recognized keys are page, itemsPerPage, sortBy, sortOrder,
includeOptions, includeLinks, includeMeta, includeRelated (repeatable or
comma-separated), and includeExtra (same). includePrivate is deliberately
never honored from the network — privileged describes are an internal-caller
decision only.

Parameters:
  - values: Parsed query parameters.

Returns:
  - ListParams: Clamped paging, whitelisted sort order, section selection.
*/
func ListParamsFromQuery(values map[string][]string) ListParams {
	params := ListParams{
		Paging:    pagination.FromQuery(values),
		SortBy:    firstValue(values, "sortBy"),
		SortOrder: SortAsc,
	}

	if firstValue(values, "sortOrder") == SortDesc {
		params.SortOrder = SortDesc
	}

	params.Include = Include{
		Options: boolParam(values, "includeOptions"),
		Links:   boolParam(values, "includeLinks"),
		Meta:    boolParam(values, "includeMeta"),
		Related: multiParam(values, "includeRelated"),
		Extra:   multiParam(values, "includeExtra"),
	}

	return params
}

func firstValue(values map[string][]string, key string) string {
	if vs, ok := values[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func boolParam(values map[string][]string, key string) bool {
	return firstValue(values, key) == "true"
}

// multiParam merges repeated keys and comma-separated values into one list.
func multiParam(values map[string][]string, key string) []string {
	var out []string
	for _, raw := range values[key] {
		out = append(out, query.StringSlice(raw)...)
	}
	return out
}
