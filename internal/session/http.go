// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/noriva/internal/describe"
	"github.com/taibuivan/noriva/internal/filter"
	"github.com/taibuivan/noriva/internal/platform/apperr"
	"github.com/taibuivan/noriva/internal/platform/middleware"
	requestutil "github.com/taibuivan/noriva/internal/platform/request"
	"github.com/taibuivan/noriva/internal/platform/respond"
	"github.com/taibuivan/noriva/internal/platform/validate"
)

// loginField is the unique field a login request identifies the user by.
const loginField = "username"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Login is the only anonymous session operation
	router.Post("/", handler.login)

	// Reading or ending a session requires holding it
	router.Group(func(authenticated chi.Router) {
		authenticated.Use(middleware.RequireAuth)
		authenticated.Get("/", handler.current)
		authenticated.Delete("/", handler.logout)
	})
}

// loginInput is the credentials payload for session creation.
type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	if err := v.
		Required(loginField, input.Username).
		Required("password", input.Password).
		Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entity := handler.service.users.Entity()
	field, ok := entity.Field(loginField)
	if !ok {
		respond.Error(writer, request, apperr.Internal(nil))
		return
	}

	// An unknown username reports the same fault as a wrong password so the
	// login endpoint cannot be used to probe for accounts
	user, err := handler.service.users.FindOne(request.Context(), filter.All(filter.Equals(field, input.Username)))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if user == nil || !user.CheckPassword(input.Password) {
		respond.Error(writer, request, apperr.PasswordIncorrect())
		return
	}

	if user.GetBool("suspended") {
		respond.Error(writer, request, apperr.Forbidden(""))
		return
	}

	session, err := handler.service.Start(request.Context(), user)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	out, err := session.Describe(request.Context(), describeParams(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, out)
}

func (handler *Handler) current(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.requestSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// The authenticate middleware already extended the session; serving the
	// describe is all that is left
	out, err := session.Describe(request.Context(), describeParams(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, out)
}

func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.requestSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := session.End(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// requestSession returns the request's principal as a live session.
func (handler *Handler) requestSession(request *http.Request) (*Session, error) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		return nil, err
	}
	session, ok := principal.(*Session)
	if !ok {
		return nil, apperr.SessionExpired()
	}
	return session, nil
}

// describeParams parses the include selection for session describes.
func describeParams(request *http.Request) describe.Params {
	return describe.Params{
		Include: describe.ListParamsFromQuery(request.URL.Query()).Include,
	}
}
