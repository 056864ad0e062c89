package healing

import "time"

// Default timeouts and retry count for resolution probing.
const (
	DefaultElementTimeout    = 5 * time.Second
	DefaultResolveTimeout    = 30 * time.Second
	DefaultValidationRetries = 3
)

// Policy is a pure decision object encoding execution mode and timeouts.
// It holds no mutable state; construct one per resolver.
type Policy struct {
	// Enabled gates whether AI-assisted regeneration is attempted at all.
	Enabled bool
	// CredentialSet reports whether an inference credential is configured.
	// Without one, Enabled has no effect.
	CredentialSet bool
	// TransparentApply selects healing mode: a validated fresh candidate is
	// substituted silently. Off means discovery mode: the same scenario is
	// surfaced as a review-required failure.
	TransparentApply bool

	ElementTimeout    time.Duration
	ResolveTimeout    time.Duration
	ValidationRetries int
}

// DefaultPolicy returns a discovery-mode policy with standard timeouts.
func DefaultPolicy() Policy {
	return Policy{
		ElementTimeout:    DefaultElementTimeout,
		ResolveTimeout:    DefaultResolveTimeout,
		ValidationRetries: DefaultValidationRetries,
	}
}

// HealingEnabled reports whether fallback generation may run: the flag must
// be on AND a credential must be configured.
func (p Policy) HealingEnabled() bool {
	return p.Enabled && p.CredentialSet
}

// ApplyTransparently reports whether a successful regeneration is applied
// silently (healing mode) rather than surfaced for manual review.
func (p Policy) ApplyTransparently() bool {
	return p.HealingEnabled() && p.TransparentApply
}

// normalized fills zero timeouts/retries with the defaults.
func (p Policy) normalized() Policy {
	if p.ElementTimeout <= 0 {
		p.ElementTimeout = DefaultElementTimeout
	}
	if p.ResolveTimeout <= 0 {
		p.ResolveTimeout = DefaultResolveTimeout
	}
	if p.ValidationRetries <= 0 {
		p.ValidationRetries = DefaultValidationRetries
	}
	return p
}
