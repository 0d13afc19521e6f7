// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/dublinbikes/internal/platform/apperr"
	"github.com/taibuivan/dublinbikes/internal/platform/middleware"
	requestutil "github.com/taibuivan/dublinbikes/internal/platform/request"
	"github.com/taibuivan/dublinbikes/internal/platform/respond"
	"github.com/taibuivan/dublinbikes/internal/platform/sec"
	"github.com/taibuivan/dublinbikes/internal/platform/validate"
	"github.com/taibuivan/dublinbikes/pkg/pointer"
)

// # Response Messages

const (
	MsgUserRegistered   = "user registered"
	MsgCodeSent         = "verification code sent"
	MsgAccountActivated = "account activated"
	MsgLoggedOut        = "logged out"
)

// # Definitions & Constructors

// Handler implements the /api/users HTTP endpoints.
//
// # Scope
//
// Registration, verification, login, token refresh and logout. The handler
// only shapes requests and responses; every rule lives in [Service].
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with the account lifecycle routes.
//
// # Endpoints
//   - POST /register                : Creates an unverified account.
//   - POST /send-verification-code  : Issues a fresh code.
//   - POST /activate                : Activates with identifier + code.
//   - POST /activate-by-token       : Activates with the link token in the body.
//   - GET  /activate/{token}        : Activates with the link token in the path.
//   - POST /login                   : Returns a token pair.
//   - POST /refresh                 : Exchanges a refresh token for a new pair.
//   - POST /logout                  : Revokes every outstanding token (Bearer).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/send-verification-code", handler.sendVerificationCode)
	router.Post("/activate", handler.activate)
	router.Post("/activate-by-token", handler.activateByToken)
	router.Get("/activate/{token}", handler.activateByLink)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(handler.authService))
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
	})

	return router
}

// Verifier exposes the service as the access-token verifier of other protected routes.
func (handler *Handler) Verifier() middleware.TokenVerifier {
	return handler.authService
}

// # Request Payloads

type registerRequest struct {
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	AvatarURL *string `json:"avatar_url"`
}

type identifierRequest struct {
	Identifier string `json:"identifier"`
}

type activateRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

/*
Register handles the creation of a new rider account.

POST /api/users/register

Request:
  - Body: registerRequest (username, email, password, avatar_url)

Response:
  - 201: Profile: the unverified account
  - 400: validation failure
  - 409: UsernameExists, EmailExists or Conflict
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	validator := &validate.Validator{}
	validator.Required(FieldUsername, username).
		MinLen(FieldUsername, username, UsernameMinLength).
		MaxLen(FieldUsername, username, UsernameMaxLength).
		Username(FieldUsername, username).
		Required(FieldEmail, email).
		MaxLen(FieldEmail, email, EmailMaxLength).
		Email(FieldEmail, email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, PasswordMinLength).
		MaxLen(FieldPassword, input.Password, PasswordMaxLength)

	avatarURL := pointer.NonEmpty(input.AvatarURL)
	if avatarURL != nil {
		validator.MaxLen(FieldAvatarURL, *avatarURL, AvatarURLMaxLength)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.authService.Register(request.Context(), RegisterInput{
		Username:  username,
		Email:     email,
		Password:  input.Password,
		AvatarURL: avatarURL,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusCreated, respond.Envelope{
		Code: apperr.CodeOK,
		Msg:  MsgUserRegistered,
		Data: account.ToProfile(),
	})
}

/*
SendVerificationCode issues a new verification code.

POST /api/users/send-verification-code

Response:
  - 200: CodeDispatch
  - 404: AccountNotFound
  - 400: AlreadyActive
  - 429: RateLimited with Retry-After
*/
func (handler *Handler) sendVerificationCode(writer http.ResponseWriter, request *http.Request) {
	var input identifierRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := validateIdentifier(input.Identifier).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	dispatch, err := handler.authService.RequestCode(request.Context(), input.Identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, MsgCodeSent, dispatch)
}

/*
Activate verifies the emailed code.

POST /api/users/activate
*/
func (handler *Handler) activate(writer http.ResponseWriter, request *http.Request) {
	var input activateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	code := strings.TrimSpace(input.Code)
	validator := validateIdentifier(input.Identifier)
	validator.Required(FieldCode, code).Digits(FieldCode, code, sec.CodeLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.authService.ActivateByCode(request.Context(), input.Identifier, code)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, MsgAccountActivated, account.ToProfile())
}

/*
ActivateByToken redeems an activation token posted by the frontend.

POST /api/users/activate-by-token
*/
func (handler *Handler) activateByToken(writer http.ResponseWriter, request *http.Request) {
	var input tokenRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if strings.TrimSpace(input.Token) == "" {
		respond.Error(writer, request, validate.RequiredError(FieldToken, "This field is required"))
		return
	}

	handler.redeemToken(writer, request, input.Token)
}

/*
ActivateByLink redeems the token carried in the activation link path.

GET /api/users/activate/{token}
*/
func (handler *Handler) activateByLink(writer http.ResponseWriter, request *http.Request) {
	handler.redeemToken(writer, request, requestutil.Param(request, FieldToken))
}

func (handler *Handler) redeemToken(writer http.ResponseWriter, request *http.Request, token string) {
	account, err := handler.authService.ActivateByToken(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, MsgAccountActivated, account.ToProfile())
}

/*
Login authenticates a rider by username or email.

POST /api/users/login

Response:
  - 200: TokenPair
  - 401: InvalidCredentials
  - 403: AccountDisabled
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := validateIdentifier(input.Identifier)
	validator.Required(FieldPassword, input.Password).
		MaxLen(FieldPassword, input.Password, PasswordMaxLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Login(request.Context(), input.Identifier, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

/*
Refresh issues a new token pair.

POST /api/users/refresh
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if strings.TrimSpace(input.RefreshToken) == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "This field is required"))
		return
	}

	pair, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

/*
Logout revokes every token of the caller.

POST /api/users/logout

Response:
  - 200: null data, msg "logged out"
  - 401: token failures
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	token, ok := requestutil.BearerToken(request)
	if !ok {
		respond.Error(writer, request, ErrTokenMalformed)
		return
	}

	if err := handler.authService.Logout(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, MsgLoggedOut, nil)
}

// # Helpers

func validateIdentifier(identifier string) *validate.Validator {
	identifier = strings.TrimSpace(identifier)
	validator := &validate.Validator{}
	validator.Required(FieldIdentifier, identifier).
		MaxLen(FieldIdentifier, identifier, IdentifierMaxLength)
	return validator
}
