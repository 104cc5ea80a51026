package quote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/promo-engine/internal/common"
	"github.com/noah-isme/promo-engine/internal/promotion"
	"github.com/noah-isme/promo-engine/internal/quote"
	"github.com/noah-isme/promo-engine/internal/rulebook"
	"github.com/noah-isme/promo-engine/internal/security"
)

const serverRules = `{"rules": [
  {"type": "threshold_reduction", "threshold": 100, "reduction": 20, "priority": 1},
  {"type": "vip_reduction", "reduction": 5, "priority": 2}
]}`

type recordingObserver struct{ calls int }

func (o *recordingObserver) ObserveCalculation(promotion.Summary) { o.calls++ }

func newServer(t *testing.T, mode promotion.Mode, obs promotion.Observer) http.Handler {
	t.Helper()
	book, err := rulebook.Parse(strings.NewReader(serverRules))
	require.NoError(t, err)

	svc := quote.NewService(quote.ServiceConfig{Rules: book, DefaultMode: mode, Observer: obs})
	r := chi.NewRouter()
	r.Route("/api/v1", quote.NewHandler(svc).Mount)
	return security.BodyLimit{Max: 4096}.Middleware(r)
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeQuote(t *testing.T, rr *httptest.ResponseRecorder) quote.Quote {
	t.Helper()
	var body struct {
		Data quote.Quote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Data
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) common.ErrorBody {
	t.Helper()
	var body struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestCreateQuoteWithInlineRules(t *testing.T) {
	obs := &recordingObserver{}
	srv := newServer(t, promotion.ModeIndependent, obs)

	rr := post(t, srv, "/api/v1/quotes", `{
		"items": [{"name": "promo item", "price": 250, "qty": 1, "tags": ["promo"]}],
		"rules": [{"type": "threshold_discount", "threshold": 200, "rate": 0.9, "tags": ["promo"]}]
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	q := decodeQuote(t, rr)
	require.NotEmpty(t, q.ID)
	require.Equal(t, q.ID, rr.Header().Get("X-Quote-ID"))
	require.Equal(t, promotion.ModeIndependent, q.Mode)
	require.Equal(t, 25.0, q.Discount)
	require.Equal(t, 225.0, q.Final)
	require.Equal(t, 1, obs.calls)
}

func TestCreateQuoteUsesServerRulebookAndDefaultMode(t *testing.T) {
	srv := newServer(t, promotion.ModeLock, nil)

	rr := post(t, srv, "/api/v1/quotes", `{
		"user": {"vip": true},
		"items": [{"name": "a", "price": 100, "qty": 1}, {"name": "b", "price": 200, "qty": 1}]
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	q := decodeQuote(t, rr)
	require.Equal(t, promotion.ModeLock, q.Mode)
	require.Equal(t, 20.0, q.Discount)
	require.Equal(t, 280.0, q.Final)
	require.Len(t, q.Items, 2)
	require.Equal(t, promotion.OutcomeSkipped, q.Outcomes[1].Outcome)
}

func TestCreateQuoteExplicitMode(t *testing.T) {
	srv := newServer(t, promotion.ModeLock, nil)

	rr := post(t, srv, "/api/v1/quotes", `{
		"mode": "independent",
		"user": {"vip": true},
		"items": [{"name": "a", "price": 300, "qty": 1}]
	}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 25.0, decodeQuote(t, rr).Discount)
}

func TestCreateQuoteErrors(t *testing.T) {
	srv := newServer(t, promotion.ModeIndependent, nil)
	item := `"items": [{"name": "a", "price": 10, "qty": 1}]`

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"unknown mode", `{"mode": "stacked", ` + item + `}`, http.StatusBadRequest, common.CodeInvalidMode},
		{"padded mode", `{"mode": " lock ", ` + item + `}`, http.StatusBadRequest, common.CodeInvalidMode},
		{"invalid rule", `{` + item + `, "rules": [{"type": "tiered_discount"}]}`, http.StatusUnprocessableEntity, common.CodeInvalidRule},
		{"no items", `{"items": []}`, http.StatusUnprocessableEntity, common.CodeValidation},
		{"negative price", `{"items": [{"name": "a", "price": -1, "qty": 1}]}`, http.StatusUnprocessableEntity, common.CodeValidation},
		{"missing name", `{"items": [{"price": 1, "qty": 1}]}`, http.StatusUnprocessableEntity, common.CodeValidation},
		{"zero qty", `{"items": [{"name": "a", "price": 40, "qty": 0}]}`, http.StatusUnprocessableEntity, common.CodeValidation},
		{"missing qty", `{"items": [{"name": "a", "price": 40}]}`, http.StatusUnprocessableEntity, common.CodeValidation},
		{"negative qty", `{"items": [{"name": "a", "price": 40, "qty": -2}]}`, http.StatusUnprocessableEntity, common.CodeValidation},
		{"malformed json", `{"items": [`, http.StatusBadRequest, common.CodeBadRequest},
		{"unknown field", `{"coupon": "X", ` + item + `}`, http.StatusBadRequest, common.CodeBadRequest},
		{"empty body", ``, http.StatusBadRequest, common.CodeBadRequest},
		{"too large", `{"items": [{"name": "` + strings.Repeat("x", 5000) + `"}]}`, http.StatusRequestEntityTooLarge, common.CodeTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := post(t, srv, "/api/v1/quotes", tc.body)
			require.Equal(t, tc.status, rr.Code, rr.Body.String())
			require.Equal(t, tc.code, decodeError(t, rr).Code)
		})
	}
}

func TestCompareReturnsEveryMode(t *testing.T) {
	srv := newServer(t, promotion.ModeIndependent, nil)

	rr := post(t, srv, "/api/v1/quotes/compare", `{
		"user": {"vip": true},
		"items": [{"name": "a", "price": 100, "qty": 1}, {"name": "b", "price": 200, "qty": 1}]
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NotEmpty(t, rr.Header().Get("X-Quote-ID"))

	var body struct {
		Data []promotion.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 3)
	require.Equal(t, promotion.ModeIndependent, body.Data[0].Mode)
	require.Equal(t, 25.0, body.Data[0].Discount)
	require.Equal(t, promotion.ModeSequential, body.Data[1].Mode)
	require.Equal(t, 25.0, body.Data[1].Discount)
	require.Equal(t, promotion.ModeLock, body.Data[2].Mode)
	require.Equal(t, 20.0, body.Data[2].Discount)
}

func TestListRules(t *testing.T) {
	srv := newServer(t, promotion.ModeIndependent, nil)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, "threshold_reduction", body.Data[0]["type"])
}

func TestServiceWithoutRulebook(t *testing.T) {
	svc := quote.NewService(quote.ServiceConfig{})
	require.Empty(t, svc.Definitions())

	q, err := svc.Quote(context.Background(), quote.Request{Items: []quote.ItemInput{{Name: "a", Price: 10, Qty: 2}}})
	require.NoError(t, err)
	require.Equal(t, 20.0, q.Final)
	require.Empty(t, q.Details)

	book, err := rulebook.Parse(strings.NewReader(serverRules))
	require.NoError(t, err)
	svc.SetRules(book)
	require.Len(t, svc.Definitions(), 2)
}
