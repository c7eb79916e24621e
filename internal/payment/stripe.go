package payment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

// StripeClient implements Provider against the Stripe REST API. The
// secret key never leaves this process; clients only ever see the
// intent's client secret and the publishable key.
type StripeClient struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*Intent]
}

// NewStripeClient builds the adapter. Every request carries the given
// timeout; the circuit breaker sheds load once the provider starts
// failing consecutively.
func NewStripeClient(baseURL, secretKey string, timeout time.Duration) *StripeClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetBasicAuth(secretKey, "")

	breaker := gobreaker.NewCircuitBreaker[*Intent](gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &StripeClient{http: client, breaker: breaker}
}

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type stripeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *StripeClient) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (*Intent, error) {
	return s.breaker.Execute(func() (*Intent, error) {
		form := map[string]string{
			"amount":                             strconv.FormatInt(amountMinorUnits, 10),
			"currency":                           currency,
			"automatic_payment_methods[enabled]": "true",
		}
		for k, v := range metadata {
			form["metadata["+k+"]"] = v
		}

		var intent stripeIntent
		var apiErr stripeErrorBody
		resp, err := s.http.R().
			SetContext(ctx).
			SetFormData(form).
			SetResult(&intent).
			SetError(&apiErr).
			Post("/v1/payment_intents")
		if err != nil {
			return nil, fmt.Errorf("stripe request failed: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("stripe rejected intent creation: %s", apiErr.Error.Message)
		}

		return &Intent{ID: intent.ID, ClientSecret: intent.ClientSecret, Status: intent.Status}, nil
	})
}

func (s *StripeClient) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	return s.breaker.Execute(func() (*Intent, error) {
		var intent stripeIntent
		var apiErr stripeErrorBody
		resp, err := s.http.R().
			SetContext(ctx).
			SetResult(&intent).
			SetError(&apiErr).
			Get("/v1/payment_intents/" + intentID)
		if err != nil {
			return nil, fmt.Errorf("stripe request failed: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("stripe rejected intent retrieval: %s", apiErr.Error.Message)
		}

		return &Intent{ID: intent.ID, ClientSecret: intent.ClientSecret, Status: intent.Status}, nil
	})
}
