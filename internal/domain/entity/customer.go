package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer cliente de la tienda con membresía y puntos de lealtad.
type Customer struct {
	ID             string
	Name           string
	Email          string // único
	Phone          string
	Address        string
	TierID         string
	Points         int
	LastPurchaseAt *time.Time
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MembershipTier nivel de membresía: descuento porcentual y puntos por compra.
type MembershipTier struct {
	ID                string
	Name              string
	DiscountPct       decimal.Decimal // DECIMAL(5,2), 0..100
	PointsPerPurchase int
}

// MembershipHistory registro inmutable de un cambio de nivel.
type MembershipHistory struct {
	ID         string
	CustomerID string
	TierBefore string
	TierAfter  string
	Reason     string
	ChangedBy  string
	CreatedAt  time.Time
}

// CustomerFilter filtros de listado de clientes.
type CustomerFilter struct {
	Search string // nombre o email
	TierID string
	Limit  int
	Offset int
}
