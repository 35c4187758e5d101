package fulfillment

import (
	"sync"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

// Dispatcher picks the policy for a product. Policies are consulted in registration order.
type Dispatcher struct {
	mu       sync.RWMutex
	policies []Policy
}

func NewDispatcher(policies ...Policy) *Dispatcher {
	d := &Dispatcher{}
	for _, p := range policies {
		d.Register(p)
	}
	return d
}

// NewDefaultDispatcher registers the standard, seasonal and perishable policies.
func NewDefaultDispatcher(clock Clock, notifier Notifier) *Dispatcher {
	return NewDispatcher(
		NewStandardPolicy(notifier),
		NewSeasonalPolicy(clock, notifier),
		NewPerishablePolicy(clock, notifier),
	)
}

// Register appends a policy after the ones already registered.
func (d *Dispatcher) Register(p Policy) {
	if p == nil {
		return
	}
	d.mu.Lock()
	d.policies = append(d.policies, p)
	d.mu.Unlock()
}

// Select returns the first policy able to handle p, or false when none matches.
func (d *Dispatcher) Select(p *product.Product) (Policy, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, policy := range d.policies {
		if policy.CanHandle(p) {
			return policy, true
		}
	}
	return nil, false
}
