package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/user"
)

type authApi struct {
	auth     *JWTAuth
	svc      *user.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, auth *JWTAuth, svc *user.Service, validate *validator.Validate) {
	api := authApi{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	// un-authed endpoints
	g.POST("/login", api.login)

	// authed endpoints
	ag := g.Group("", auth.Middleware())
	ag.POST("/verify", api.verify)
	ag.POST("/refresh", api.refreshToken)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return errInvalidCredentials
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.GenerateToken(api.auth.GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr.Public()})
}

func (api *authApi) verify(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errInvalidToken
	}
	return ctx.JSON(http.StatusOK, claims)
}

// refreshToken re-issues a token for the user of the current one, as long as that user still exists.
func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errInvalidToken
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), claims.ID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errAccessDenied
		}
		return errors.Wrap(err, "finding user by ID")
	}
	token, err := api.auth.GenerateToken(api.auth.GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr.Public()})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string          `json:"token"`
		User  user.PublicUser `json:"user"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
