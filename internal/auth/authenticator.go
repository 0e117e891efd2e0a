package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/db"
	apperr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/repository"
)

// Authenticator resolves a bearer token to a stored user.
type Authenticator struct {
	tokens *TokenIssuer
	users  *repository.UserRepository
}

func NewAuthenticator(tokens *TokenIssuer, users *repository.UserRepository) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate validates raw and loads the user it names.
//
// Behavior:
//   - Empty token → authentication error "access token required".
//   - Bad signature or expired → authentication error.
//   - Token for a user that no longer exists → authentication error.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*db.User, error) {
	if raw == "" {
		return nil, apperr.Unauthenticated("access token required")
	}

	userID, err := a.tokens.Parse(raw)
	switch {
	case errors.Is(err, ErrTokenExpired):
		return nil, apperr.Unauthenticated("token expired")
	case err != nil:
		return nil, apperr.Unauthenticated("invalid token")
	}

	u, err := a.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated("invalid token")
	}
	if err != nil {
		return nil, apperr.Map(err)
	}
	return u, nil
}

// TokenFrom extracts a bearer token from an Authorization header
// ("Bearer <t>" or the bare token) or, failing that, the "token" query
// parameter used by browser socket clients.
func TokenFrom(header http.Header, query url.Values) string {
	if h := strings.TrimSpace(header.Get("Authorization")); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return h
	}
	return strings.TrimSpace(query.Get("token"))
}

// TokenFromRequest is TokenFrom over an incoming request.
func TokenFromRequest(r *http.Request) string {
	return TokenFrom(r.Header, r.URL.Query())
}
