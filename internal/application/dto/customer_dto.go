package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	TierID  string `json:"tier_id,omitempty"`
}

// UpdateCustomerRequest datos de contacto editables. El nivel se cambia con UpdateTierRequest.
type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Active  *bool   `json:"active,omitempty"`
}

// UpdateTierRequest body para PUT /api/customers/:id/tier.
type UpdateTierRequest struct {
	TierID string `json:"tier_id"`
	Reason string `json:"reason"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	Address        string     `json:"address,omitempty"`
	TierID         string     `json:"tier_id"`
	Points         int        `json:"points"`
	LastPurchaseAt *time.Time `json:"last_purchase_at,omitempty"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TierResponse nivel de membresía.
type TierResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	DiscountPct       decimal.Decimal `json:"discount_pct"`
	PointsPerPurchase int             `json:"points_per_purchase"`
}

// TierHistoryResponse cambio de nivel registrado.
type TierHistoryResponse struct {
	ID         string    `json:"id"`
	TierBefore string    `json:"tier_before"`
	TierAfter  string    `json:"tier_after"`
	Reason     string    `json:"reason"`
	ChangedBy  string    `json:"changed_by"`
	CreatedAt  time.Time `json:"created_at"`
}
