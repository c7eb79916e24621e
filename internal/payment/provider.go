package payment

import "context"

// IntentStatusSucceeded is the only provider status treated as a
// captured payment; every other status reconciles as a failure.
const IntentStatusSucceeded = "succeeded"

// Intent is a provider-side handle for an in-progress payment attempt.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Succeeded reports whether the provider captured the funds.
func (i *Intent) Succeeded() bool {
	return i.Status == IntentStatusSucceeded
}

// Provider is the payment gateway port. Implementations must bound each
// call with the context deadline; callers never hold a database
// transaction open across these round trips.
type Provider interface {
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
}
