// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for paged list output.
//
// # Overview
//
// It standardizes how page-based navigation is requested via query parameters
// and how the resulting paging block is delivered in a list describe.
package pagination

import (
	"strconv"
)

const (
	// DefaultItemsPerPage is the number of items per page if not specified.
	DefaultItemsPerPage = 20
	// MaxItemsPerPage is the upper bound for items per page to prevent abuse.
	MaxItemsPerPage = 100
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
)

// Params holds the parsed page and itemsPerPage from a request's query string.
type Params struct {
	Page         int
	ItemsPerPage int
}

// Offset returns the SQL OFFSET value derived from Page and ItemsPerPage.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.ItemsPerPage
}

// Paging is the navigation block included in list describes.
//
// NextPageNumber and PreviousPageNumber are always clamped to valid bounds:
// there is never a "page 0" or a pointer past the last page.
type Paging struct {
	PageNumber         int `json:"pageNumber"`
	NextPageNumber     int `json:"nextPageNumber"`
	PreviousPageNumber int `json:"previousPageNumber"`
	ItemsPerPage       int `json:"itemsPerPage"`
	TotalItems         int `json:"totalItems"`
	TotalPages         int `json:"totalPages"`
}

// NewPaging constructs a clamped paging block for a response.
func NewPaging(page, itemsPerPage, totalItems int) Paging {
	totalPages := 0
	if itemsPerPage > 0 {
		totalPages = (totalItems + itemsPerPage - 1) / itemsPerPage
	}

	lastPage := totalPages
	if lastPage < 1 {
		lastPage = 1
	}

	next := page + 1
	if next > lastPage {
		next = lastPage
	}

	previous := page - 1
	if previous > lastPage {
		previous = lastPage
	}
	if previous < 1 {
		previous = 1
	}

	return Paging{
		PageNumber:         page,
		NextPageNumber:     next,
		PreviousPageNumber: previous,
		ItemsPerPage:       itemsPerPage,
		TotalItems:         totalItems,
		TotalPages:         totalPages,
	}
}

// FromQuery parses "page" and "itemsPerPage" query parameters.
//
// # Clamping
//
// Invalid, negative, or excessive values are automatically clamped to
// [DefaultPage], [DefaultItemsPerPage], or [MaxItemsPerPage].
func FromQuery(values map[string][]string) Params {
	page := parseIntParam(values, "page", DefaultPage)
	items := parseIntParam(values, "itemsPerPage", DefaultItemsPerPage)

	if page < 1 {
		page = DefaultPage
	}

	if items < 1 || items > MaxItemsPerPage {
		items = DefaultItemsPerPage
	}

	return Params{Page: page, ItemsPerPage: items}
}

// parseIntParam parses a single integer query parameter with a fallback default.
func parseIntParam(values map[string][]string, key string, defaultVal int) int {
	vs, ok := values[key]
	if !ok || len(vs) == 0 || vs[0] == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(vs[0])
	if err != nil {
		return defaultVal
	}

	return n
}
