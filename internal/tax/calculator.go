// Package tax resolves percentage rates for product tax classes.
package tax

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Jurisdiction is where the order ships to.
type Jurisdiction struct {
	Country string
	State   string
}

func (j Jurisdiction) normalized() Jurisdiction {
	return Jurisdiction{
		Country: strings.ToUpper(strings.TrimSpace(j.Country)),
		State:   strings.ToUpper(strings.TrimSpace(j.State)),
	}
}

// Calculator returns the percentage rate of every requested tax class.
// Classes without a matching rate are absent from the result and tax at 0.
type Calculator interface {
	WithTx(tx *gorm.DB) Calculator
	Rates(ctx context.Context, classIDs []uuid.UUID, where Jurisdiction) (map[uuid.UUID]decimal.Decimal, error)
}

// RateTable reads tax_rates. A state-specific row beats a country-wide one;
// among equally specific rows the highest priority wins.
type RateTable struct {
	repo.Base
	tx *gorm.DB
}

func NewRateTable(db *gorm.DB) *RateTable {
	return &RateTable{Base: repo.NewBase(db)}
}

func (t *RateTable) WithTx(tx *gorm.DB) Calculator {
	if tx == nil {
		return t
	}
	return &RateTable{Base: t.Base, tx: tx}
}

func (t *RateTable) Rates(ctx context.Context, classIDs []uuid.UUID, where Jurisdiction) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(classIDs))
	where = where.normalized()
	if len(classIDs) == 0 || where.Country == "" {
		return out, nil
	}

	var rows []models.TaxRate
	err := t.Conn(ctx, t.tx).
		Where("tax_class_id IN ? AND UPPER(country) = ?", classIDs, where.Country).
		Order("priority DESC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tax rates")
	}

	specific := make(map[uuid.UUID]bool, len(classIDs))
	for _, row := range rows {
		state := ""
		if row.State != nil {
			state = strings.ToUpper(strings.TrimSpace(*row.State))
		}
		switch {
		case state != "" && state == where.State:
			if !specific[row.TaxClassID] {
				out[row.TaxClassID] = row.Rate
				specific[row.TaxClassID] = true
			}
		case state == "":
			if _, seen := out[row.TaxClassID]; !seen {
				out[row.TaxClassID] = row.Rate
			}
		}
	}
	return out, nil
}
