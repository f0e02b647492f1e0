package helpers

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/storefront-backend/internal/tax"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/maps"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Address is a billing or shipping address as submitted at checkout.
type Address struct {
	FirstName    string  `json:"first_name" validate:"required,max=100"`
	LastName     string  `json:"last_name" validate:"required,max=100"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Company      *string `json:"company,omitempty" validate:"omitempty,max=255"`
	TaxNumber    *string `json:"tax_number,omitempty" validate:"omitempty,max=50"`
	TaxOffice    *string `json:"tax_office,omitempty" validate:"omitempty,max=100"`
	AddressLine1 string  `json:"address_line_1" validate:"required,max=255"`
	AddressLine2 *string `json:"address_line_2,omitempty" validate:"omitempty,max=255"`
	City         string  `json:"city" validate:"required,max=100"`
	State        *string `json:"state,omitempty" validate:"omitempty,max=100"`
	Country      *string `json:"country,omitempty" validate:"omitempty,len=2"`
	PostalCode   *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
}

// Normalize trims every field, drops blank optional values and upper-cases
// the country code.
func (a Address) Normalize() Address {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.AddressLine1 = strings.TrimSpace(a.AddressLine1)
	a.City = strings.TrimSpace(a.City)
	a.Phone = trimmed(a.Phone)
	a.Email = trimmed(a.Email)
	a.Company = trimmed(a.Company)
	a.TaxNumber = trimmed(a.TaxNumber)
	a.TaxOffice = trimmed(a.TaxOffice)
	a.AddressLine2 = trimmed(a.AddressLine2)
	a.State = trimmed(a.State)
	a.PostalCode = trimmed(a.PostalCode)
	if c := trimmed(a.Country); c != nil {
		upper := strings.ToUpper(*c)
		a.Country = &upper
	} else {
		a.Country = nil
	}
	return a
}

// ValidateAddress returns field errors keyed "<prefix>.<field>". requireEmail
// is set for the billing address of a guest checkout.
func ValidateAddress(prefix string, a Address, requireEmail bool) map[string]string {
	fields := map[string]string{}
	if err := validate.Struct(a); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				fields[prefix+"."+fe.Field()] = message(fe)
			}
		} else {
			fields[prefix] = "is invalid"
		}
	}
	if requireEmail && (a.Email == nil || *a.Email == "") {
		fields[prefix+".email"] = "is required"
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}

// FullName joins first and last name.
func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// OrderAddress copies the address onto an order row of the given kind.
func (a Address) OrderAddress(kind enums.AddressType) models.OrderAddress {
	return models.OrderAddress{
		Type:         kind,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Phone:        a.Phone,
		Email:        a.Email,
		Company:      a.Company,
		TaxNumber:    a.TaxNumber,
		TaxOffice:    a.TaxOffice,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		Country:      a.Country,
		PostalCode:   a.PostalCode,
	}
}

// Jurisdiction is the tax location of the address.
func (a Address) Jurisdiction() tax.Jurisdiction {
	return tax.Jurisdiction{Country: deref(a.Country), State: deref(a.State)}
}

// PostalQuery is the lookup sent to the postal code resolver.
func (a Address) PostalQuery() maps.AddressQuery {
	return maps.AddressQuery{
		Line1:   a.AddressLine1,
		City:    a.City,
		State:   deref(a.State),
		Country: deref(a.Country),
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
