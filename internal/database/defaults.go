package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/jaskledger/internal/database/repository"
	"github.com/jask/jaskledger/internal/domain"
)

// DefaultCategories is the first-run category set, keyed canonically.
var DefaultCategories = []domain.Category{
	{Name: domain.KeyGroceries, Icon: "cart", Color: "#94E2D5"},
	{Name: domain.KeyRestaurants, Icon: "fork.knife", Color: "#FAB387"},
	{Name: domain.KeyTransport, Icon: "car", Color: "#89B4FA"},
	{Name: domain.KeyShopping, Icon: "bag", Color: "#F2CDCD"},
	{Name: domain.KeyEntertainment, Icon: "film", Color: "#F5C2E7"},
	{Name: domain.KeyHealth, Icon: "cross.case", Color: "#74C7EC"},
	{Name: domain.KeyUtilities, Icon: "bolt", Color: "#CBA6F7"},
	{Name: domain.KeyHousing, Icon: "house", Color: "#B4BEFE"},
	{Name: domain.KeyEducation, Icon: "book", Color: "#F9E2AF"},
	{Name: domain.KeyTravel, Icon: "airplane", Color: "#89DCEB"},
	{Name: domain.KeyGifts, Icon: "gift", Color: "#EBA0AC"},
	{Name: domain.KeySalary, Icon: "banknote", Color: "#A6E3A1"},
	{Name: domain.KeyFreelance, Icon: "laptop", Color: "#94E2D5"},
	{Name: domain.KeyInvestments, Icon: "chart.line", Color: "#F38BA8"},
	{Name: domain.KeyOther, Icon: "ellipsis", Color: "#7F849C"},
}

// DefaultAccountTag is the tag of the account seeded on first run.
const DefaultAccountTag = "#cash"

// SeedID derives a stable id for seeded rows.
func SeedID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+":"+name))
}

// SeedDefaults ensures baseline categories and one default account exist
// for new databases. It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB, currency string) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		catRepo := repository.NewCategoryRepo(tx)
		existing, err := catRepo.List(ctx)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			for idx, c := range DefaultCategories {
				c.ID = SeedID("cat", c.Name)
				c.SortOrder = idx
				if err := catRepo.Insert(ctx, c); err != nil {
					return err
				}
			}
		}

		acctRepo := repository.NewAccountRepo(tx)
		n, err := acctRepo.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		now := Now()
		return acctRepo.Insert(ctx, domain.Account{
			ID:        SeedID("acct", DefaultAccountTag),
			Name:      "Cash",
			Tag:       DefaultAccountTag,
			Balance:   decimal.Zero,
			IsDefault: true,
			Type:      domain.AccountCash,
			Currency:  currency,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
}
