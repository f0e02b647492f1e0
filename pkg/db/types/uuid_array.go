package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// UUIDArray is a coupon's product or category scope. It is stored as a
// Postgres uuid[]; the {a,b} literal is plain text, so SQLite tests round-trip
// it unchanged.
type UUIDArray []uuid.UUID

func (a UUIDArray) Value() (driver.Value, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(id.String())
	}
	b.WriteByte('}')
	return b.String(), nil
}

func (a *UUIDArray) Scan(src any) error {
	var literal string
	switch v := src.(type) {
	case nil:
		*a = UUIDArray{}
		return nil
	case string:
		literal = v
	case []byte:
		literal = string(v)
	default:
		return fmt.Errorf("UUIDArray: cannot scan %T", src)
	}

	body := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(literal), "{"), "}")
	elems := strings.FieldsFunc(body, func(r rune) bool { return r == ',' })
	out := make(UUIDArray, 0, len(elems))
	for _, elem := range elems {
		elem = strings.Trim(strings.TrimSpace(elem), `"`)
		if elem == "" {
			continue
		}
		id, err := uuid.Parse(elem)
		if err != nil {
			return fmt.Errorf("UUIDArray: element %q: %w", elem, err)
		}
		out = append(out, id)
	}
	*a = out
	return nil
}

func (a UUIDArray) Contains(id uuid.UUID) bool {
	return slices.Contains(a, id)
}

// ContainsAny reports whether a and ids share at least one element.
func (a UUIDArray) ContainsAny(ids []uuid.UUID) bool {
	return slices.ContainsFunc(ids, a.Contains)
}

// GormDBDataType picks uuid[] on Postgres and text on anything else.
func (UUIDArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "uuid[]"
	}
	return "text"
}
