// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rest exposes every registered kind over a uniform HTTP surface.

One handler serves all kinds: the schema registry, not a hand-written route
table, decides which resources exist. Field-level read/write permission is
enforced by the record engine itself, so the handlers here only resolve the
kind, the record, and the acting principal.
*/
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/noriva/internal/describe"
	"github.com/taibuivan/noriva/internal/filter"
	"github.com/taibuivan/noriva/internal/platform/apperr"
	requestutil "github.com/taibuivan/noriva/internal/platform/request"
	"github.com/taibuivan/noriva/internal/platform/respond"
	"github.com/taibuivan/noriva/internal/record"
	"github.com/taibuivan/noriva/internal/role"
	"github.com/taibuivan/noriva/internal/schema"
)

type Handler struct {
	kinds *record.Kinds
}

func NewHandler(kinds *record.Kinds) *Handler {
	return &Handler{kinds: kinds}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Public (per-field visibility is decided by the serializer)
	router.Get("/{kind}", handler.listRecords)
	router.Get("/{kind}/{id}", handler.getRecord)
	router.Post("/{kind}", handler.createRecord)

	// Mutations on existing records require a principal
	router.Patch("/{kind}/{id}", handler.updateRecord)
	router.Delete("/{kind}/{id}", handler.deleteRecord)
}

// kind resolves the {kind} URL parameter against the registry.
func (handler *Handler) kind(request *http.Request) (*record.Kind, error) {
	name := requestutil.Param(request, "kind")
	kind, ok := handler.kinds.Kind(name)
	if !ok {
		return nil, apperr.NotFound(name)
	}
	return kind, nil
}

func (handler *Handler) listRecords(writer http.ResponseWriter, request *http.Request) {
	kind, err := handler.kind(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	values := request.URL.Query()
	params := describe.ListParamsFromQuery(values)

	expr, err := filter.Build(values, kind.Entity())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	list, err := kind.DescribeList(request.Context(), requestutil.Principal(request), params, expr)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, list)
}

func (handler *Handler) getRecord(writer http.ResponseWriter, request *http.Request) {
	kind, err := handler.kind(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	rec, err := kind.FindOrDie(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := describe.Params{
		Principal: requestutil.Principal(request),
		Include:   describe.ListParamsFromQuery(request.URL.Query()).Include,
	}
	respond.OK(writer, describe.Record(rec, params))
}

func (handler *Handler) createRecord(writer http.ResponseWriter, request *http.Request) {
	kind, err := handler.kind(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var posted map[string]any
	if err := requestutil.DecodeJSON(request, &posted); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal := requestutil.Principal(request)

	// Mint with defaults only; posted values go through the permission-aware
	// assignment below so creation and update share one write path
	rec, err := kind.Mint(nil)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := rec.SetPostedProps(request.Context(), posted, principal); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Records owned through a parent link are stamped with their creator
	if err := stampParent(rec, principal); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := rec.TestCreationProps(rec.Props()); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := rec.Insert(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := describe.Params{
		Principal: principal,
		Include:   describe.ListParamsFromQuery(request.URL.Query()).Include,
	}
	respond.Created(writer, describe.Record(rec, params))
}

func (handler *Handler) updateRecord(writer http.ResponseWriter, request *http.Request) {
	kind, err := handler.kind(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var posted map[string]any
	if err := requestutil.DecodeJSON(request, &posted); err != nil {
		respond.Error(writer, request, err)
		return
	}

	rec, err := kind.FindOrDie(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := rec.SetPostedProps(request.Context(), posted, principal); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := rec.Update(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := describe.Params{
		Principal: principal,
		Include:   describe.ListParamsFromQuery(request.URL.Query()).Include,
	}
	respond.OK(writer, describe.Record(rec, params))
}

func (handler *Handler) deleteRecord(writer http.ResponseWriter, request *http.Request) {
	kind, err := handler.kind(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	rec, err := kind.FindOrDie(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Deletion is an ownership operation, never a field-level one
	if !role.IsOwner(rec, principal) {
		respond.Error(writer, request, apperr.Forbidden(schema.RoleOwner))
		return
	}

	if err := rec.Delete(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// stampParent fills an empty parent-relation field with the creating
// principal's id so dependents are born owned.
func stampParent(rec *record.Record, principal role.Principal) error {
	entity := rec.Entity()
	for i := range entity.Fields {
		field := &entity.Fields[i]
		if field.Relation == nil || field.Relation.Kind != schema.RelationParent {
			continue
		}
		if rec.Get(field.Name) != nil {
			continue
		}
		if principal == nil {
			return apperr.Unauthorized("Authentication required")
		}
		return rec.Set(field.Name, principal.PrincipalID())
	}
	return nil
}
