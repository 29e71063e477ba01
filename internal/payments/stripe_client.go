package payments

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/price"
	"github.com/stripe/stripe-go/v84/subscription"

	"github.com/recophone/recophone-backend/pkg/stripepay"
)

// StripeCheckoutClient exposes the subset of Stripe operations required by the payment service.
type StripeCheckoutClient interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetSession(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	ListLineItems(ctx context.Context, params *stripe.CheckoutSessionListLineItemsParams) ([]*stripe.LineItem, error)
	GetSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	ListPrices(ctx context.Context, params *stripe.PriceListParams) ([]*stripe.Price, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the payment service can be tested.
func NewStripeClient(api *stripepay.Client) StripeCheckoutClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return checkoutsession.New(params)
}

func (w *stripeClientWrapper) GetSession(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return checkoutsession.Get(id, params)
}

func (w *stripeClientWrapper) ListLineItems(ctx context.Context, params *stripe.CheckoutSessionListLineItemsParams) ([]*stripe.LineItem, error) {
	if params != nil {
		params.Context = ctx
	}
	var out []*stripe.LineItem
	iter := checkoutsession.ListLineItems(params)
	for iter.Next() {
		out = append(out, iter.LineItem())
	}
	return out, iter.Err()
}

func (w *stripeClientWrapper) GetSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	if params != nil {
		params.Context = ctx
	}
	return subscription.Get(id, params)
}

func (w *stripeClientWrapper) ListPrices(ctx context.Context, params *stripe.PriceListParams) ([]*stripe.Price, error) {
	if params != nil {
		params.Context = ctx
	}
	var out []*stripe.Price
	iter := price.List(params)
	for iter.Next() {
		out = append(out, iter.Price())
	}
	return out, iter.Err()
}
