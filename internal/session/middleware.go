package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const CookieName = "cacao_session"

type ctxKey struct{}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Middleware resolves the cart session from the signed cookie, starting a
// new session when the cookie is missing, tampered with or expired.
func Middleware(tm *TokenMaker, secure bool, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid, reissue := "", true

			if ck, err := r.Cookie(CookieName); err == nil {
				if claims, err := tm.Parse(ck.Value); err == nil {
					sid, reissue = claims.SessionID, tm.Stale(claims)
				}
			}
			if sid == "" {
				sid = uuid.NewString()
			}

			if reissue {
				tok, err := tm.New(sid)
				if err != nil {
					log.Error("issue session token", zap.Error(err))
				} else {
					http.SetCookie(w, &http.Cookie{
						Name:     CookieName,
						Value:    tok,
						Path:     "/",
						MaxAge:   int(tm.TTL().Seconds()),
						HttpOnly: true,
						Secure:   secure,
						SameSite: http.SameSiteLaxMode,
					})
				}
			}

			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), sid)))
		})
	}
}
