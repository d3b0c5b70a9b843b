package domain

import (
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/repoerr"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Category tags transactions. Name doubles as the lookup key used by the
// categorization engine.
type Category struct {
	ID        uuid.UUID
	Name      string
	Icon      string
	Color     string
	SortOrder int
}

// NameKey is the case-insensitive identity of a category name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return repoerr.Invalid("category", "name is required")
	}
	if strings.TrimSpace(c.Icon) == "" {
		return repoerr.Invalid("category", "icon is required")
	}
	if !colorPattern.MatchString(c.Color) {
		return repoerr.Invalid("category", "color %q is not a #RRGGBB hex string", c.Color)
	}
	return nil
}

// Canonical category keys seeded on first run.
const (
	KeyGroceries     = "groceries"
	KeyRestaurants   = "restaurants"
	KeyTransport     = "transport"
	KeyShopping      = "shopping"
	KeyEntertainment = "entertainment"
	KeyHealth        = "health"
	KeyUtilities     = "utilities"
	KeyHousing       = "housing"
	KeyEducation     = "education"
	KeyTravel        = "travel"
	KeyGifts         = "gifts"
	KeySalary        = "salary"
	KeyFreelance     = "freelance"
	KeyInvestments   = "investments"
	KeyOther         = "other"
)

// legacyKeys maps the localized names older databases were seeded with to
// the canonical keys. It is only consulted as a lookup fallback and by the
// one-time key migration.
var legacyKeys = map[string]string{
	"Продукти":           KeyGroceries,
	"Ресторани":          KeyRestaurants,
	"Транспорт":          KeyTransport,
	"Покупки":            KeyShopping,
	"Розваги":            KeyEntertainment,
	"Здоров'я":           KeyHealth,
	"Комунальні послуги": KeyUtilities,
	"Житло":              KeyHousing,
	"Освіта":             KeyEducation,
	"Подорожі":           KeyTravel,
	"Подарунки":          KeyGifts,
	"Зарплата":           KeySalary,
	"Фріланс":            KeyFreelance,
	"Інвестиції":         KeyInvestments,
	"Інше":               KeyOther,
}

var (
	forwardAlias = map[string]string{} // normalized legacy -> canonical
	reverseAlias = map[string]string{} // canonical -> legacy as stored
)

func init() {
	for legacy, canonical := range legacyKeys {
		forwardAlias[NameKey(legacy)] = canonical
		reverseAlias[canonical] = legacy
	}
}

// CanonicalKey returns the canonical key for a legacy name.
func CanonicalKey(name string) (string, bool) {
	k, ok := forwardAlias[NameKey(name)]
	return k, ok
}

// LegacyName returns the legacy localized name for a canonical key.
func LegacyName(key string) (string, bool) {
	n, ok := reverseAlias[NameKey(key)]
	return n, ok
}

// LegacyNames lists every legacy name in a stable order.
func LegacyNames() []string {
	out := make([]string, 0, len(legacyKeys))
	for n := range legacyKeys {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ResolveCategory finds the live category for key: exact name first, then
// the legacy name's canonical key, then the canonical key's legacy name.
func ResolveCategory(key string, cats []Category) (Category, bool) {
	if c, ok := findByName(key, cats); ok {
		return c, true
	}
	if canonical, ok := CanonicalKey(key); ok {
		if c, ok := findByName(canonical, cats); ok {
			return c, true
		}
	}
	if legacy, ok := LegacyName(key); ok {
		if c, ok := findByName(legacy, cats); ok {
			return c, true
		}
	}
	return Category{}, false
}

func findByName(name string, cats []Category) (Category, bool) {
	k := NameKey(name)
	if k == "" {
		return Category{}, false
	}
	for _, c := range cats {
		if NameKey(c.Name) == k {
			return c, true
		}
	}
	return Category{}, false
}
