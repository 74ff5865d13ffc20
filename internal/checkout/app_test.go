package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"CacaoStore/internal/session"
	"CacaoStore/pkg/kit"
)

func serve(t *testing.T, h http.Handler, sid, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(session.WithID(req.Context(), sid))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const detailsJSON = `{"email":"ana@example.com","first_name":"Ana","last_name":"Quispe",` +
	`"address":"Av. Amazonas 123","city":"Quito","postal_code":"170150"}`

func TestHTTP_Checkout(t *testing.T) {
	sim, carts, _ := newSimulator(t, 0)
	h := (&Server{Simulator: sim, Log: zap.NewNop()}).Routes()

	rec := serve(t, h, "s1", http.MethodPost, "/checkout", detailsJSON)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	_, _ = carts.Add(context.Background(), "s1", 5)

	rec = serve(t, h, "s1", http.MethodPost, "/checkout", `{"email":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var er kit.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	require.Equal(t, "invalid details", er.Error)

	rec = serve(t, h, "s1", http.MethodPost, "/checkout", detailsJSON)
	require.Equal(t, http.StatusCreated, rec.Code)

	var rc struct {
		ID     string `json:"id"`
		Total  string `json:"total"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rc))
	require.Equal(t, "25", rc.Total)
	require.Equal(t, string(StatusSuccess), rc.Status)

	rec = serve(t, h, "s1", http.MethodGet, "/orders/"+rc.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	foreign := serve(t, h, "someone-else", http.MethodGet, "/orders/"+rc.ID, "")
	require.Equal(t, http.StatusNotFound, foreign.Code)

	missing := serve(t, h, "someone-else", http.MethodGet, "/orders/o_missing", "")
	require.Equal(t, http.StatusNotFound, missing.Code)

	var fe, me kit.ErrorResponse
	require.NoError(t, json.Unmarshal(foreign.Body.Bytes(), &fe))
	require.NoError(t, json.Unmarshal(missing.Body.Bytes(), &me))
	require.Equal(t, me.Error, fe.Error)

	rec = serve(t, h, "s1", http.MethodGet, "/checkout/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"details"}`, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusConflict, StatusFor(ErrInProgress))
	require.Equal(t, http.StatusUnprocessableEntity, StatusFor(ErrEmptyCart))
	require.Equal(t, http.StatusBadRequest, StatusFor(&ValidationError{Fields: []string{"email"}}))
	require.Equal(t, http.StatusGatewayTimeout, StatusFor(context.DeadlineExceeded))
	require.Equal(t, StatusClientClosedRequest, StatusFor(context.Canceled))
	require.Equal(t, StatusClientClosedRequest, StatusFor(fmt.Errorf("wait: %w", context.Canceled)))
}

func TestHTTP_CheckoutCancelledByClient(t *testing.T) {
	sim, carts, _ := newSimulator(t, time.Hour)
	h := (&Server{Simulator: sim, Log: zap.NewNop()}).Routes()

	_, err := carts.Add(context.Background(), "s1", 5)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(session.WithID(context.Background(), "s1"))
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(detailsJSON)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, StatusClientClosedRequest, rec.Code)
	require.Empty(t, rec.Body.String())

	c, err := carts.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, 1, c.Count())
}
