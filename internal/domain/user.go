package domain

import "strings"

// Role enumerates the account types recognised by the storefront and the
// internal repair-tracking backend.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDealer     Role = "dealer"
	RoleTechnician Role = "technician"
	RoleCustomer   Role = "customer"
)

// ParseRole normalises a raw role claim into a known Role. Unknown or empty
// values map to RoleCustomer.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleDealer:
		return RoleDealer
	case RoleTechnician:
		return RoleTechnician
	default:
		return RoleCustomer
	}
}

// Buyer is the pricing-relevant slice of an account. A nil *Buyer means an
// anonymous visitor.
type Buyer struct {
	ID       string
	Role     Role
	Approved bool
}

// DealerEligible reports whether the buyer qualifies for per-product dealer
// discounts. The business rule is a flat boolean gate: only an approved
// account with the dealer role qualifies, all other combinations (anonymous,
// unapproved dealer, any other role) price at list.
func (b *Buyer) DealerEligible() bool {
	return b != nil && b.Role == RoleDealer && b.Approved
}
