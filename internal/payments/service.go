package payments

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/recophone/recophone-backend/pkg/config"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
)

const (
	maxItemQuantity    = 10
	maxItemNameLength  = 250
	maxMetadataSummary = 450

	// Per-item bounds in cents. Keeps a tampered client payload from
	// charging pocket change or absurd amounts.
	minItemCents int64 = 1_000
	maxItemCents int64 = 500_000
)

// CartItem is one storefront cart line submitted for checkout.
type CartItem struct {
	Name      string  `json:"name" validate:"required"`
	AmountEUR float64 `json:"amount" validate:"required"`
	Quantity  int     `json:"quantity"`
}

// CartCheckoutRequest opens a one-time payment session for the cart.
type CartCheckoutRequest struct {
	Items         []CartItem `json:"items" validate:"required"`
	CustomerEmail string     `json:"customerEmail"`
}

// PlanCheckoutRequest opens a subscription session for a named plan.
type PlanCheckoutRequest struct {
	Plan          string `json:"plan" validate:"required"`
	CustomerEmail string `json:"customerEmail"`
}

// CheckoutLink is the hosted checkout redirect handed back to the storefront.
type CheckoutLink struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// SessionLineItem is one purchased line in a verified payment session.
type SessionLineItem struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Quantity       int64  `json:"quantity"`
	UnitAmount     int64  `json:"unit_amount"`
	AmountSubtotal int64  `json:"amount_subtotal"`
	AmountTotal    int64  `json:"amount_total"`
	Currency       string `json:"currency"`
}

// PlanDetails describes the price backing a verified subscription.
type PlanDetails struct {
	ID          string `json:"id"`
	Nickname    string `json:"nickname,omitempty"`
	UnitAmount  int64  `json:"unit_amount"`
	Currency    string `json:"currency"`
	Interval    string `json:"interval,omitempty"`
	ProductName string `json:"product_name,omitempty"`
}

// SubscriptionDetails summarizes the subscription behind a verified session.
type SubscriptionDetails struct {
	ID                 string      `json:"id"`
	Status             string      `json:"status"`
	CurrentPeriodStart int64       `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   int64       `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool        `json:"cancel_at_period_end"`
	Plan               PlanDetails `json:"plan"`
}

// SessionDetails is the verified state of a checkout session.
type SessionDetails struct {
	ID            string               `json:"id"`
	Created       int64                `json:"created"`
	Mode          string               `json:"mode"`
	Status        string               `json:"status"`
	PaymentStatus string               `json:"payment_status"`
	Currency      string               `json:"currency"`
	AmountTotal   int64                `json:"amount_total"`
	CustomerEmail string               `json:"customer_email,omitempty"`
	Source        string               `json:"source,omitempty"`
	LineItems     []SessionLineItem    `json:"line_items,omitempty"`
	Subscription  *SubscriptionDetails `json:"subscription,omitempty"`
}

// Service defines the behavior needed by the checkout controller.
type Service interface {
	CreateCartSession(ctx context.Context, req CartCheckoutRequest) (*CheckoutLink, error)
	CreatePlanSession(ctx context.Context, req PlanCheckoutRequest) (*CheckoutLink, error)
	VerifySession(ctx context.Context, sessionID string) (*SessionDetails, error)
}

type service struct {
	stripeCfg config.StripeConfig
	stripe    StripeCheckoutClient
	logg      *logger.Logger
}

// ServiceParams bundles the dependencies required to build the payment service.
type ServiceParams struct {
	StripeConfig config.StripeConfig
	Stripe       StripeCheckoutClient
	Logger       *logger.Logger
}

// NewService constructs the payment service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		stripeCfg: params.StripeConfig,
		stripe:    params.Stripe,
		logg:      params.Logger,
	}, nil
}

// CreateCartSession opens a one-time payment session for the accessory
// cart. Quantities and per-item amounts are clamped server-side so the
// client payload cannot set arbitrary charges.
func (s *service) CreateCartSession(ctx context.Context, req CartCheckoutRequest) (*CheckoutLink, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for i, item := range req.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" || math.IsNaN(item.AmountEUR) || math.IsInf(item.AmountEUR, 0) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid cart item at index %d", i))
		}
		if len(name) > maxItemNameLength {
			name = name[:maxItemNameLength]
		}

		cents := eurToCents(item.AmountEUR)
		if cents < minItemCents || cents > maxItemCents {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("amount out of bounds for %q", name))
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(clampQuantity(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyEUR)),
				UnitAmount: stripe.Int64(cents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:                lineItems,
		SuccessURL:               stripe.String(successURL(s.stripeCfg.SuccessURL)),
		CancelURL:                stripe.String(s.stripeCfg.CancelURL),
		AutomaticTax:             &stripe.CheckoutSessionAutomaticTaxParams{Enabled: stripe.Bool(true)},
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		PhoneNumberCollection:    &stripe.CheckoutSessionPhoneNumberCollectionParams{Enabled: stripe.Bool(true)},
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"BE"}),
		},
	}
	if email := strings.TrimSpace(req.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.AddMetadata("source", "re-smartphones")
	params.AddMetadata("items", cartSummary(req.Items))

	session, err := s.stripe.CreateSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment session")
	}

	s.logg.Info(s.logg.WithField(ctx, "session_id", session.ID), "cart checkout session created")
	return &CheckoutLink{SessionID: session.ID, URL: session.URL}, nil
}

// CreatePlanSession opens a subscription session for one of the named
// maintenance plans. The configured reference may be a price id used as
// is, or a product id resolved to its cheapest active monthly price.
func (s *service) CreatePlanSession(ctx context.Context, req PlanCheckoutRequest) (*CheckoutLink, error) {
	ref := s.stripeCfg.PlanRef(req.Plan)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown subscription plan")
	}

	priceID, err := s.resolvePriceID(ctx, ref)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:               stripe.String(successURL(s.stripeCfg.SuccessURL)),
		CancelURL:                stripe.String(s.stripeCfg.CancelURL),
		AllowPromotionCodes:      stripe.Bool(true),
		AutomaticTax:             &stripe.CheckoutSessionAutomaticTaxParams{Enabled: stripe.Bool(true)},
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
	}
	if email := strings.TrimSpace(req.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.AddMetadata("plan", strings.ToLower(strings.TrimSpace(req.Plan)))

	session, err := s.stripe.CreateSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription session")
	}

	s.logg.Info(s.logg.WithField(ctx, "session_id", session.ID), "plan checkout session created")
	return &CheckoutLink{SessionID: session.ID, URL: session.URL}, nil
}

// VerifySession loads a session by id and flattens the parts the
// storefront confirmation pages need.
func (s *service) VerifySession(ctx context.Context, sessionID string) (*SessionDetails, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	session, err := s.stripe.GetSession(ctx, sessionID, &stripe.CheckoutSessionParams{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "session not found")
	}

	details := &SessionDetails{
		ID:            session.ID,
		Created:       session.Created,
		Mode:          string(session.Mode),
		Status:        string(session.Status),
		PaymentStatus: string(session.PaymentStatus),
		Currency:      string(session.Currency),
		AmountTotal:   session.AmountTotal,
		CustomerEmail: sessionEmail(session),
		Source:        session.Metadata["source"],
	}

	switch session.Mode {
	case stripe.CheckoutSessionModePayment:
		items, err := s.listLineItems(ctx, session)
		if err != nil {
			return nil, err
		}
		details.LineItems = items
	case stripe.CheckoutSessionModeSubscription:
		if session.Subscription != nil && session.Subscription.ID != "" {
			sub, err := s.subscriptionDetails(ctx, session.Subscription.ID)
			if err != nil {
				return nil, err
			}
			details.Subscription = sub
		}
	}
	return details, nil
}

func (s *service) listLineItems(ctx context.Context, session *stripe.CheckoutSession) ([]SessionLineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{Session: stripe.String(session.ID)}
	params.AddExpand("data.price.product")

	raw, err := s.stripe.ListLineItems(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list session line items")
	}

	items := make([]SessionLineItem, 0, len(raw))
	for _, li := range raw {
		item := SessionLineItem{
			ID:             li.ID,
			Name:           li.Description,
			Quantity:       li.Quantity,
			AmountSubtotal: li.AmountSubtotal,
			AmountTotal:    li.AmountTotal,
			Currency:       string(li.Currency),
		}
		if item.Quantity == 0 {
			item.Quantity = 1
		}
		if li.Price != nil {
			item.UnitAmount = li.Price.UnitAmount
			if name := productName(li.Price.Product); name != "" {
				item.Name = name
			}
		}
		if item.Name == "" {
			item.Name = "Article"
		}
		if item.Currency == "" {
			item.Currency = string(session.Currency)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *service) subscriptionDetails(ctx context.Context, subscriptionID string) (*SubscriptionDetails, error) {
	params := &stripe.SubscriptionParams{}
	params.AddExpand("items.data.price.product")

	sub, err := s.stripe.GetSubscription(ctx, subscriptionID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch subscription")
	}

	details := &SubscriptionDetails{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		details.CurrentPeriodStart = item.CurrentPeriodStart
		details.CurrentPeriodEnd = item.CurrentPeriodEnd
		if item.Price != nil {
			details.Plan = PlanDetails{
				ID:          item.Price.ID,
				Nickname:    item.Price.Nickname,
				UnitAmount:  item.Price.UnitAmount,
				Currency:    string(item.Price.Currency),
				ProductName: productName(item.Price.Product),
			}
			if item.Price.Recurring != nil {
				details.Plan.Interval = string(item.Price.Recurring.Interval)
			}
		}
	}
	return details, nil
}

// resolvePriceID accepts price_ references as is and resolves prod_
// references to the cheapest active monthly price of the product.
func (s *service) resolvePriceID(ctx context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "price_") {
		return ref, nil
	}
	if !strings.HasPrefix(ref, "prod_") {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "plan reference must be a price_ or prod_ id")
	}

	params := &stripe.PriceListParams{
		Product: stripe.String(ref),
		Active:  stripe.Bool(true),
		Type:    stripe.String(string(stripe.PriceTypeRecurring)),
	}
	params.Limit = stripe.Int64(50)
	params.AddExpand("data.tiers")

	prices, err := s.stripe.ListPrices(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plan prices")
	}

	monthly := make([]*stripe.Price, 0, len(prices))
	for _, p := range prices {
		if p != nil && p.Recurring != nil && p.Recurring.Interval == stripe.PriceRecurringIntervalMonth {
			monthly = append(monthly, p)
		}
	}
	if len(monthly) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "no active monthly price for plan product")
	}

	// Tiered prices report no unit amount and sort last.
	sort.SliceStable(monthly, func(i, j int) bool {
		return priceAmount(monthly[i]) < priceAmount(monthly[j])
	})
	return monthly[0].ID, nil
}

func priceAmount(p *stripe.Price) int64 {
	if p.UnitAmount == 0 && p.Tiers != nil {
		return math.MaxInt64
	}
	return p.UnitAmount
}

func productName(p *stripe.Product) string {
	if p == nil || p.Deleted {
		return ""
	}
	return p.Name
}

func sessionEmail(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return session.CustomerDetails.Email
	}
	return session.CustomerEmail
}

func clampQuantity(qty int) int64 {
	if qty < 1 {
		return 1
	}
	if qty > maxItemQuantity {
		return maxItemQuantity
	}
	return int64(qty)
}

func eurToCents(eur float64) int64 {
	return int64(math.Round(eur * 100))
}

// cartSummary keeps a short textual trace of the cart in the session
// metadata, capped to Stripe's value size.
func cartSummary(items []CartItem) string {
	parts := make([]string, 0, 5)
	for _, item := range items {
		if len(parts) == 5 {
			break
		}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		parts = append(parts, fmt.Sprintf("%dx %s @ %.2f€", qty, strings.TrimSpace(item.Name), item.AmountEUR))
	}
	summary := strings.Join(parts, " | ")
	if len(summary) > maxMetadataSummary {
		summary = summary[:maxMetadataSummary]
	}
	return summary
}

func successURL(base string) string {
	if strings.Contains(base, "?") {
		return base + "&session_id={CHECKOUT_SESSION_ID}"
	}
	return base + "?session_id={CHECKOUT_SESSION_ID}"
}
