package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core"
	"github.com/YounesFetouaki/edu-path/core/user"
)

const contextClaimsKey = "userToken"

var nowFunc = time.Now // mockable

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	ID    int    `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// JWTAuth issues and verifies the HS256 tokens shared by the auth & LMS services.
type JWTAuth struct {
	config     middleware.JWTConfig
	issuer     string
	expiration time.Duration
}

func NewJWTAuth(conf *core.Config) *JWTAuth {
	return &JWTAuth{
		config: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextClaimsKey,
			Claims:        new(Claims),
			ErrorHandler: func(err error) error {
				if err == middleware.ErrJWTMissing {
					return errAccessDenied
				}
				return errInvalidToken
			},
		},
		issuer:     conf.AppName,
		expiration: conf.Auth.JWTExpirationDelta,
	}
}

// Middleware rejects requests without a valid bearer token; the claims are then available to handlers.
func (a *JWTAuth) Middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.config)
}

func (a *JWTAuth) GetUserClaims(usr user.User) *Claims {
	now := nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			ExpiresAt: now.Add(a.expiration).Unix(),
			IssuedAt:  now.Unix(),
		},
		ID:    usr.ID,
		Role:  usr.Role,
		Email: usr.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (a *JWTAuth) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.config.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.config.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextClaimsKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errClaimsNotFoundInCtx
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		for _, role := range roles {
			if claims.Role == role {
				return true
			}
		}
	}
	return false
}
