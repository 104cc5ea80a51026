package quote_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/noah-isme/promo-engine/internal/common"
	"github.com/noah-isme/promo-engine/internal/promotion"
	"github.com/noah-isme/promo-engine/internal/quote"
	"github.com/noah-isme/promo-engine/internal/rulebook"
)

func oneItem(price float64) quote.Request {
	return quote.Request{Items: []quote.ItemInput{{Name: "tv", Price: price, Qty: 1}}}
}

func TestSetRulesSwapsServerRulebook(t *testing.T) {
	svc := quote.NewService(quote.ServiceConfig{})
	q, err := svc.Quote(context.Background(), oneItem(150))
	require.NoError(t, err)
	require.Zero(t, q.Discount)
	require.Equal(t, promotion.ModeIndependent, q.Mode)

	book, err := rulebook.Parse(strings.NewReader(serverRules))
	require.NoError(t, err)
	svc.SetRules(book)
	require.Len(t, svc.Definitions(), 2)

	q, err = svc.Quote(context.Background(), oneItem(150))
	require.NoError(t, err)
	require.Equal(t, 20.0, q.Discount)
	require.Equal(t, 130.0, q.Final)
	require.NotEmpty(t, q.ID)

	svc.SetRules(nil)
	require.Empty(t, svc.Definitions())
}

func TestValidationDetailsNameFields(t *testing.T) {
	svc := quote.NewService(quote.ServiceConfig{})
	_, err := svc.Quote(context.Background(), quote.Request{Items: []quote.ItemInput{{Name: "", Price: -1, Qty: 1}}})
	require.Error(t, err)

	require.True(t, common.IsAppError(err))
	appErr := common.AsAppError(err)
	require.Equal(t, common.CodeValidation, appErr.Code)
	fields, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	require.Equal(t, "required", fields["Request.Items[0].Name"])
	require.Equal(t, "gte", fields["Request.Items[0].Price"])

	_, err = svc.Quote(context.Background(), quote.Request{Items: []quote.ItemInput{{Name: "a", Price: 40, Qty: 0}}})
	require.Error(t, err)
	require.Equal(t, "min", common.AsAppError(err).Details.(map[string]string)["Request.Items[0].Qty"])
}

func TestQuoteRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	svc := quote.NewService(quote.ServiceConfig{Tracer: provider.Tracer("quote")})

	_, err := svc.Quote(context.Background(), oneItem(10))
	require.NoError(t, err)
	_, err = svc.Quote(context.Background(), quote.Request{Mode: "greedy", Items: oneItem(10).Items})
	require.Error(t, err)
	_, err = svc.Compare(context.Background(), oneItem(10))
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	require.Equal(t, "quote.calculate", spans[0].Name())
	require.Equal(t, "quote.calculate", spans[1].Name())
	require.NotEmpty(t, spans[1].Events(), "error recorded")
	require.Equal(t, "quote.compare", spans[2].Name())
}
