package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const (
	msgMissingCredentials = "требуется аутентификация"
	msgInvalidCredentials = "некорректные учетные данные"
)

var (
	errMissingCredentials = errors.New("missing credentials")
	errInvalidToken       = errors.New("invalid token")
)

type actorKey struct{}

// Claims утверждения JWT: sub - ID пользователя, role - роль
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// WithActor кладет пользователя в контекст
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor возвращает пользователя, установленный Auth
func GetActor(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}

// Authenticator проверяет Bearer JWT (HS256), если задан секрет,
// иначе доверяет заголовкам X-User-ID / X-User-Role от шлюза
type Authenticator struct {
	secret []byte
	issuer string
	logger Logger
}

// NewAuthenticator создает middleware аутентификации
func NewAuthenticator(secret, issuer string, logger Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, logger: logger}
}

// Middleware возвращает http middleware
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			actor domain.Actor
			err   error
		)
		if len(a.secret) > 0 {
			actor, err = a.fromToken(r)
		} else {
			actor, err = fromHeaders(r)
		}
		if err != nil {
			a.logger.Warn("%s %s - Unauthorized: %v", r.Method, r.URL.Path, err)
			if errors.Is(err, errMissingCredentials) {
				handlers.RespondUnauthorized(w, msgMissingCredentials)
				return
			}
			handlers.RespondUnauthorized(w, msgInvalidCredentials)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func (a *Authenticator) fromToken(r *http.Request) (domain.Actor, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return domain.Actor{}, errMissingCredentials
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return domain.Actor{}, fmt.Errorf("%w: malformed authorization header", errInvalidToken)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return domain.Actor{}, fmt.Errorf("%w: %v", errInvalidToken, err)
	}

	return parseActor(claims.Subject, claims.Role)
}

func fromHeaders(r *http.Request) (domain.Actor, error) {
	userID := r.Header.Get(HeaderUserID)
	if userID == "" {
		return domain.Actor{}, errMissingCredentials
	}
	role := r.Header.Get(HeaderUserRole)
	if role == "" {
		role = string(domain.RoleCustomer)
	}
	return parseActor(userID, role)
}

func parseActor(userID, role string) (domain.Actor, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil || id <= 0 {
		return domain.Actor{}, fmt.Errorf("%w: user id %q", errInvalidToken, userID)
	}
	r := domain.Role(strings.ToUpper(role))
	if !r.Valid() {
		return domain.Actor{}, fmt.Errorf("%w: role %q", errInvalidToken, role)
	}
	return domain.Actor{UserID: id, Role: r}, nil
}
