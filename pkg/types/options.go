package types

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// OptionKind tags a selected option.
type OptionKind string

const (
	// OptionVariant is a variant attribute such as size or color.
	OptionVariant OptionKind = "variant"
	// OptionCustom is free input captured on the product page (engraving, length).
	OptionCustom OptionKind = "custom"
)

// SelectedOption is one label shown on the cart line and copied onto the
// order item. Options never change the price; that comes from the catalog.
type SelectedOption struct {
	Kind  OptionKind `json:"kind"`
	Name  string     `json:"name"`
	Value string     `json:"value"`
}

// SelectedOptions is persisted as a JSON array.
type SelectedOptions []SelectedOption

// Validate checks every entry at the API boundary.
func (o SelectedOptions) Validate() error {
	seen := make(map[string]struct{}, len(o))
	for i, opt := range o {
		switch opt.Kind {
		case OptionVariant, OptionCustom:
		default:
			return fmt.Errorf("options[%d]: unknown kind %q", i, opt.Kind)
		}
		name := strings.TrimSpace(opt.Name)
		if name == "" || strings.TrimSpace(opt.Value) == "" {
			return fmt.Errorf("options[%d]: name and value are required", i)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("options[%d]: duplicate option %q", i, name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Labels renders "Name: Value" pairs for display snapshots.
func (o SelectedOptions) Labels() []string {
	labels := make([]string, 0, len(o))
	for _, opt := range o {
		labels = append(labels, fmt.Sprintf("%s: %s", opt.Name, opt.Value))
	}
	return labels
}

// Equal reports whether two selections describe the same configuration, ignoring order.
func (o SelectedOptions) Equal(other SelectedOptions) bool {
	if len(o) != len(other) {
		return false
	}
	index := make(map[string]string, len(o))
	for _, opt := range o {
		index[strings.ToLower(opt.Name)] = opt.Value
	}
	for _, opt := range other {
		if v, ok := index[strings.ToLower(opt.Name)]; !ok || v != opt.Value {
			return false
		}
	}
	return true
}

// Value serializes the options to JSON.
func (o SelectedOptions) Value() (driver.Value, error) {
	if o == nil {
		return jsonValue(SelectedOptions{})
	}
	return jsonValue(o)
}

// Scan decodes a JSON array into the options slice.
func (o *SelectedOptions) Scan(value interface{}) error {
	*o = SelectedOptions{}
	return scanJSON(value, o)
}
