package types

import (
	"database/sql/driver"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TriggerConfig holds the trigger_type specific inputs of a cart offer.
type TriggerConfig struct {
	ProductIDs  []uuid.UUID      `json:"product_ids,omitempty"`
	CategoryIDs []uuid.UUID      `json:"category_ids,omitempty"`
	MinTotal    *decimal.Decimal `json:"min_total,omitempty"`
	MaxTotal    *decimal.Decimal `json:"max_total,omitempty"`
}

// Validate checks bounds consistency.
func (c TriggerConfig) Validate() error {
	if c.MinTotal != nil && c.MaxTotal != nil && c.MinTotal.GreaterThan(*c.MaxTotal) {
		return errors.New("trigger config: min_total exceeds max_total")
	}
	return nil
}

func (c TriggerConfig) Value() (driver.Value, error) { return jsonValue(c) }

func (c *TriggerConfig) Scan(value interface{}) error {
	*c = TriggerConfig{}
	return scanJSON(value, c)
}

// OfferConditions are the extra guards evaluated after the trigger matched.
type OfferConditions struct {
	MinCartTotal      *decimal.Decimal `json:"min_cart_total,omitempty"`
	MaxCartTotal      *decimal.Decimal `json:"max_cart_total,omitempty"`
	ExcludeDiscounted bool             `json:"exclude_discounted,omitempty"`
	HideIfInCart      bool             `json:"hide_if_in_cart,omitempty"`
}

func (c OfferConditions) Validate() error {
	if c.MinCartTotal != nil && c.MaxCartTotal != nil && c.MinCartTotal.GreaterThan(*c.MaxCartTotal) {
		return errors.New("offer conditions: min_cart_total exceeds max_cart_total")
	}
	return nil
}

func (c OfferConditions) Value() (driver.Value, error) { return jsonValue(c) }

func (c *OfferConditions) Scan(value interface{}) error {
	*c = OfferConditions{}
	return scanJSON(value, c)
}

// OfferDisplay is presentation config passed through to the client untouched.
type OfferDisplay struct {
	Title            string `json:"title,omitempty"`
	Description      string `json:"description,omitempty"`
	BadgeText        string `json:"badge_text,omitempty"`
	ButtonText       string `json:"button_text,omitempty"`
	CountdownSeconds int    `json:"countdown_seconds,omitempty"`
}

func (d OfferDisplay) Value() (driver.Value, error) { return jsonValue(d) }

func (d *OfferDisplay) Scan(value interface{}) error {
	*d = OfferDisplay{}
	return scanJSON(value, d)
}
