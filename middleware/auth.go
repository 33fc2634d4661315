package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/billbatista/acasinha-ledger/ledger"
	"github.com/billbatista/acasinha-ledger/session"
)

type contextKey string

const PartyKey contextKey = "party"

// SessionFinder is the part of session.Repository the middleware needs.
type SessionFinder interface {
	GetByToken(ctx context.Context, token string) (*session.Session, error)
}

// AuthMiddleware checks if the request carries a valid session
func AuthMiddleware(sessions SessionFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessions.GetByToken(r.Context(), cookie.Value)
			if err != nil {
				slog.Info("invalid/expired session", "error", err)
				ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), PartyKey, sess.Party)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a logged in party
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAuthenticated(r.Context()) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetParty extracts the logged in party from context
func GetParty(ctx context.Context) (ledger.Party, bool) {
	party, ok := ctx.Value(PartyKey).(ledger.Party)
	return party, ok
}

// IsAuthenticated checks if a party is logged in
func IsAuthenticated(ctx context.Context) bool {
	_, ok := GetParty(ctx)
	return ok
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   session.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
