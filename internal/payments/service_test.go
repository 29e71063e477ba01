package payments

import (
	"context"
	"io"
	"testing"

	"github.com/stripe/stripe-go/v84"

	"github.com/recophone/recophone-backend/pkg/config"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

type fakeStripe struct {
	createParams *stripe.CheckoutSessionParams
	session      *stripe.CheckoutSession
	lineItems    []*stripe.LineItem
	subscription *stripe.Subscription
	prices       []*stripe.Price
	priceCalls   int
}

func (f *fakeStripe) CreateSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.createParams = params
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1"}, nil
}

func (f *fakeStripe) GetSession(_ context.Context, id string, _ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if f.session == nil || f.session.ID != id {
		return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing}
	}
	return f.session, nil
}

func (f *fakeStripe) ListLineItems(_ context.Context, _ *stripe.CheckoutSessionListLineItemsParams) ([]*stripe.LineItem, error) {
	return f.lineItems, nil
}

func (f *fakeStripe) GetSubscription(_ context.Context, _ string, _ *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	return f.subscription, nil
}

func (f *fakeStripe) ListPrices(_ context.Context, _ *stripe.PriceListParams) ([]*stripe.Price, error) {
	f.priceCalls++
	return f.prices, nil
}

func newTestPaymentService(t *testing.T, client *fakeStripe) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		StripeConfig: config.StripeConfig{
			SuccessURL:    "https://recophone.be/merci",
			CancelURL:     "https://recophone.be/panier",
			PlanEssentiel: "prod_essentiel",
			PlanZen:       "price_zen_monthly",
		},
		Stripe: client,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateCartSessionBuildsLineItems(t *testing.T) {
	client := &fakeStripe{}
	svc := newTestPaymentService(t, client)

	link, err := svc.CreateCartSession(context.Background(), CartCheckoutRequest{
		Items: []CartItem{
			{Name: "iPhone 12 128 Go - Grade A", AmountEUR: 329.99},
			{Name: "Coque renforcée", AmountEUR: 19.99, Quantity: 99},
		},
		CustomerEmail: "jean@dupont.be",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if link.SessionID != "cs_test_1" || link.URL == "" {
		t.Fatalf("link = %+v", link)
	}

	params := client.createParams
	if got := stripe.StringValue(params.Mode); got != string(stripe.CheckoutSessionModePayment) {
		t.Fatalf("mode = %q", got)
	}
	if len(params.LineItems) != 2 {
		t.Fatalf("line items = %d", len(params.LineItems))
	}
	if got := stripe.Int64Value(params.LineItems[0].PriceData.UnitAmount); got != 32999 {
		t.Fatalf("unit amount = %d", got)
	}
	if got := stripe.Int64Value(params.LineItems[0].Quantity); got != 1 {
		t.Fatalf("default quantity = %d", got)
	}
	if got := stripe.Int64Value(params.LineItems[1].Quantity); got != 10 {
		t.Fatalf("clamped quantity = %d", got)
	}
	if got := stripe.StringValue(params.SuccessURL); got != "https://recophone.be/merci?session_id={CHECKOUT_SESSION_ID}" {
		t.Fatalf("success url = %q", got)
	}
	if params.Metadata["source"] != "re-smartphones" || params.Metadata["items"] == "" {
		t.Fatalf("metadata = %v", params.Metadata)
	}
}

func TestCreateCartSessionRejectsBadPayloads(t *testing.T) {
	svc := newTestPaymentService(t, &fakeStripe{})
	ctx := context.Background()

	cases := []struct {
		name string
		req  CartCheckoutRequest
	}{
		{"empty cart", CartCheckoutRequest{}},
		{"blank name", CartCheckoutRequest{Items: []CartItem{{Name: "  ", AmountEUR: 50}}}},
		{"too cheap", CartCheckoutRequest{Items: []CartItem{{Name: "Sticker", AmountEUR: 2.5}}}},
		{"too expensive", CartCheckoutRequest{Items: []CartItem{{Name: "Lingot", AmountEUR: 9000}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateCartSession(ctx, tc.req)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreatePlanSessionResolvesProductReference(t *testing.T) {
	client := &fakeStripe{prices: []*stripe.Price{
		{ID: "price_b", UnitAmount: 1499, Recurring: &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth}},
		{ID: "price_a", UnitAmount: 999, Recurring: &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth}},
		{ID: "price_y", UnitAmount: 9900, Recurring: &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalYear}},
	}}
	svc := newTestPaymentService(t, client)

	if _, err := svc.CreatePlanSession(context.Background(), PlanCheckoutRequest{Plan: "essentiel"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	params := client.createParams
	if got := stripe.StringValue(params.Mode); got != string(stripe.CheckoutSessionModeSubscription) {
		t.Fatalf("mode = %q", got)
	}
	if got := stripe.StringValue(params.LineItems[0].Price); got != "price_a" {
		t.Fatalf("resolved price = %q, want cheapest monthly", got)
	}
	if params.Metadata["plan"] != "essentiel" {
		t.Fatalf("metadata = %v", params.Metadata)
	}
}

func TestCreatePlanSessionPriceReferencePassesThrough(t *testing.T) {
	client := &fakeStripe{}
	svc := newTestPaymentService(t, client)

	if _, err := svc.CreatePlanSession(context.Background(), PlanCheckoutRequest{Plan: "zen"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if client.priceCalls != 0 {
		t.Fatalf("price list called %d times", client.priceCalls)
	}
	if got := stripe.StringValue(client.createParams.LineItems[0].Price); got != "price_zen_monthly" {
		t.Fatalf("price = %q", got)
	}
}

func TestCreatePlanSessionUnknownPlan(t *testing.T) {
	svc := newTestPaymentService(t, &fakeStripe{})

	_, err := svc.CreatePlanSession(context.Background(), PlanCheckoutRequest{Plan: "premium"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyPaymentSession(t *testing.T) {
	client := &fakeStripe{
		session: &stripe.CheckoutSession{
			ID:            "cs_test_1",
			Mode:          stripe.CheckoutSessionModePayment,
			Status:        stripe.CheckoutSessionStatusComplete,
			PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			Currency:      stripe.CurrencyEUR,
			AmountTotal:   34998,
			CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
				Email: "jean@dupont.be",
			},
			Metadata: map[string]string{"source": "re-smartphones"},
		},
		lineItems: []*stripe.LineItem{
			{
				ID:          "li_1",
				Description: "fallback",
				Quantity:    2,
				AmountTotal: 34998,
				Currency:    stripe.CurrencyEUR,
				Price: &stripe.Price{
					UnitAmount: 17499,
					Product:    &stripe.Product{Name: "iPhone 12 128 Go"},
				},
			},
		},
	}
	svc := newTestPaymentService(t, client)

	details, err := svc.VerifySession(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if details.PaymentStatus != "paid" || details.CustomerEmail != "jean@dupont.be" {
		t.Fatalf("details = %+v", details)
	}
	if len(details.LineItems) != 1 {
		t.Fatalf("line items = %d", len(details.LineItems))
	}
	item := details.LineItems[0]
	if item.Name != "iPhone 12 128 Go" || item.UnitAmount != 17499 || item.Quantity != 2 {
		t.Fatalf("item = %+v", item)
	}
	if details.Subscription != nil {
		t.Fatal("unexpected subscription block")
	}
}

func TestVerifySubscriptionSession(t *testing.T) {
	client := &fakeStripe{
		session: &stripe.CheckoutSession{
			ID:           "cs_test_1",
			Mode:         stripe.CheckoutSessionModeSubscription,
			Status:       stripe.CheckoutSessionStatusComplete,
			Subscription: &stripe.Subscription{ID: "sub_1"},
		},
		subscription: &stripe.Subscription{
			ID:     "sub_1",
			Status: stripe.SubscriptionStatusActive,
			Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{
				{
					CurrentPeriodStart: 1_755_000_000,
					CurrentPeriodEnd:   1_757_600_000,
					Price: &stripe.Price{
						ID:         "price_zen_monthly",
						UnitAmount: 1999,
						Currency:   stripe.CurrencyEUR,
						Recurring:  &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth},
						Product:    &stripe.Product{Name: "Formule Zen"},
					},
				},
			}},
		},
	}
	svc := newTestPaymentService(t, client)

	details, err := svc.VerifySession(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	sub := details.Subscription
	if sub == nil || sub.Status != "active" {
		t.Fatalf("subscription = %+v", sub)
	}
	if sub.CurrentPeriodEnd != 1_757_600_000 {
		t.Fatalf("period end = %d", sub.CurrentPeriodEnd)
	}
	if sub.Plan.ProductName != "Formule Zen" || sub.Plan.Interval != "month" {
		t.Fatalf("plan = %+v", sub.Plan)
	}
}

func TestVerifySessionUnknownID(t *testing.T) {
	svc := newTestPaymentService(t, &fakeStripe{})

	_, err := svc.VerifySession(context.Background(), "cs_missing")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
