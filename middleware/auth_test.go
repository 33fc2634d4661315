package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/billbatista/acasinha-ledger/ledger"
	"github.com/billbatista/acasinha-ledger/session"
	"github.com/stretchr/testify/assert"
)

type stubSessions map[string]ledger.Party

func (s stubSessions) GetByToken(_ context.Context, token string) (*session.Session, error) {
	party, ok := s[token]
	if !ok {
		return nil, session.ErrInvalidSession
	}
	return &session.Session{Token: token, Party: party}, nil
}

func protected() http.Handler {
	return AuthMiddleware(stubSessions{"good": ledger.PartyB})(
		RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			party, _ := GetParty(r.Context())
			w.Write([]byte(party.String()))
		})),
	)
}

func TestAuthMiddlewareValidSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/balance", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "good"})
	rec := httptest.NewRecorder()

	protected().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "B", rec.Body.String())
}

func TestAuthMiddlewareInvalidSessionClearsCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/balance", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "stale"})
	rec := httptest.NewRecorder()

	protected().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	cookies := rec.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, session.CookieName, cookies[0].Name)
		assert.Equal(t, -1, cookies[0].MaxAge)
	}
}

func TestRequireAuthWithoutCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	protected().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/balance", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
