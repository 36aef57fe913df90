package auth

import "context"

// Privilege is the level granted to an authenticated caller
type Privilege string

const (
	// Ordinary callers reach the data routes
	Ordinary Privilege = "ordinary"

	// Administrative callers also reach key management. They are accepted
	// wherever an ordinary caller is.
	Administrative Privilege = "administrative"
)

// String returns the string representation of the privilege
func (p Privilege) String() string {
	return string(p)
}

// Satisfies checks whether p meets the required privilege
func (p Privilege) Satisfies(required Privilege) bool {
	switch p {
	case Administrative:
		return true
	case Ordinary:
		return required == Ordinary
	default:
		return false
	}
}

// Principal is the authenticated caller
type Principal struct {
	Privilege Privilege
	Owner     string // empty for the administrative key
	KeyID     string // empty for the administrative key
}

// IsAdmin reports whether the principal holds the administrative key
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Privilege == Administrative
}

type principalKey struct{}

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
