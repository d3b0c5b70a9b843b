package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jask/jaskledger/internal/domain"
)

// Confidence scale shared with every caller.
const (
	ConfidenceLearned  = 1.0
	ConfidenceRule     = 0.85
	ConfidenceFallback = 0.3

	// AutoAcceptThreshold is the lowest confidence callers may apply without
	// asking the user.
	AutoAcceptThreshold = 0.70
)

// SuggestionSource tells where a suggestion came from.
type SuggestionSource string

const (
	SourceLearned  SuggestionSource = "learned"
	SourceRule     SuggestionSource = "rule"
	SourceFallback SuggestionSource = "fallback"
	SourceNone     SuggestionSource = "none"
)

// Suggestion is the engine's answer. Category is nil when no category could
// be resolved.
type Suggestion struct {
	Category   *domain.Category
	Confidence float64
	Source     SuggestionSource
}

func (s Suggestion) AutoAccept() bool { return s.Confidence >= AutoAcceptThreshold }

// CategoryID is a convenience for building records from a suggestion.
func (s Suggestion) CategoryID() *uuid.UUID {
	if s.Category == nil {
		return nil
	}
	id := s.Category.ID
	return &id
}

// Rule maps a lowercase substring to a category key.
type Rule struct {
	Pattern    string
	Category   string
	Confidence float64
}

// DefaultRules are evaluated in order; the first match wins. More specific
// patterns come before the generic ones they contain.
var DefaultRules = []Rule{
	{"bolt food", domain.KeyRestaurants, ConfidenceRule},
	{"glovo", domain.KeyRestaurants, ConfidenceRule},

	{"сільпо", domain.KeyGroceries, ConfidenceRule},
	{"silpo", domain.KeyGroceries, ConfidenceRule},
	{"атб", domain.KeyGroceries, ConfidenceRule},
	{"atb", domain.KeyGroceries, ConfidenceRule},
	{"novus", domain.KeyGroceries, ConfidenceRule},
	{"новус", domain.KeyGroceries, ConfidenceRule},
	{"ашан", domain.KeyGroceries, ConfidenceRule},
	{"auchan", domain.KeyGroceries, ConfidenceRule},
	{"varus", domain.KeyGroceries, ConfidenceRule},
	{"варус", domain.KeyGroceries, ConfidenceRule},
	{"фора", domain.KeyGroceries, ConfidenceRule},
	{"metro cash", domain.KeyGroceries, ConfidenceRule},
	{"еко маркет", domain.KeyGroceries, ConfidenceRule},

	{"mcdonald", domain.KeyRestaurants, ConfidenceRule},
	{"макдональдз", domain.KeyRestaurants, ConfidenceRule},
	{"kfc", domain.KeyRestaurants, ConfidenceRule},
	{"пузата хата", domain.KeyRestaurants, ConfidenceRule},
	{"puzata", domain.KeyRestaurants, ConfidenceRule},
	{"starbucks", domain.KeyRestaurants, ConfidenceRule},
	{"aroma kava", domain.KeyRestaurants, ConfidenceRule},
	{"ресторан", domain.KeyRestaurants, ConfidenceRule},
	{"restaurant", domain.KeyRestaurants, ConfidenceRule},
	{"кафе", domain.KeyRestaurants, ConfidenceRule},
	{"cafe", domain.KeyRestaurants, ConfidenceRule},
	{"pizza", domain.KeyRestaurants, ConfidenceRule},

	{"uber", domain.KeyTransport, ConfidenceRule},
	{"bolt", domain.KeyTransport, ConfidenceRule},
	{"uklon", domain.KeyTransport, ConfidenceRule},
	{"укрзалізниця", domain.KeyTransport, ConfidenceRule},
	{"uz.gov", domain.KeyTransport, ConfidenceRule},
	{"wog", domain.KeyTransport, ConfidenceRule},
	{"okko", domain.KeyTransport, ConfidenceRule},
	{"окко", domain.KeyTransport, ConfidenceRule},
	{"socar", domain.KeyTransport, ConfidenceRule},
	{"таксі", domain.KeyTransport, ConfidenceRule},
	{"taxi", domain.KeyTransport, ConfidenceRule},
	{"parking", domain.KeyTransport, ConfidenceRule},

	{"rozetka", domain.KeyShopping, ConfidenceRule},
	{"розетка", domain.KeyShopping, ConfidenceRule},
	{"prom.ua", domain.KeyShopping, ConfidenceRule},
	{"epicentr", domain.KeyShopping, ConfidenceRule},
	{"епіцентр", domain.KeyShopping, ConfidenceRule},
	{"comfy", domain.KeyShopping, ConfidenceRule},
	{"foxtrot", domain.KeyShopping, ConfidenceRule},
	{"фокстрот", domain.KeyShopping, ConfidenceRule},
	{"aliexpress", domain.KeyShopping, ConfidenceRule},
	{"amazon", domain.KeyShopping, ConfidenceRule},

	{"netflix", domain.KeyEntertainment, ConfidenceRule},
	{"spotify", domain.KeyEntertainment, ConfidenceRule},
	{"youtube", domain.KeyEntertainment, ConfidenceRule},
	{"steam", domain.KeyEntertainment, ConfidenceRule},
	{"playstation", domain.KeyEntertainment, ConfidenceRule},
	{"multiplex", domain.KeyEntertainment, ConfidenceRule},
	{"планета кіно", domain.KeyEntertainment, ConfidenceRule},
	{"planeta kino", domain.KeyEntertainment, ConfidenceRule},

	{"аптека", domain.KeyHealth, ConfidenceRule},
	{"apteka", domain.KeyHealth, ConfidenceRule},
	{"pharmacy", domain.KeyHealth, ConfidenceRule},
	{"добробут", domain.KeyHealth, ConfidenceRule},
	{"dobrobut", domain.KeyHealth, ConfidenceRule},
	{"клініка", domain.KeyHealth, ConfidenceRule},
	{"clinic", domain.KeyHealth, ConfidenceRule},

	{"kyivstar", domain.KeyUtilities, ConfidenceRule},
	{"київстар", domain.KeyUtilities, ConfidenceRule},
	{"vodafone", domain.KeyUtilities, ConfidenceRule},
	{"lifecell", domain.KeyUtilities, ConfidenceRule},
	{"укртелеком", domain.KeyUtilities, ConfidenceRule},
	{"ukrtelecom", domain.KeyUtilities, ConfidenceRule},
	{"yasno", domain.KeyUtilities, ConfidenceRule},
	{"нафтогаз", domain.KeyUtilities, ConfidenceRule},
	{"naftogaz", domain.KeyUtilities, ConfidenceRule},
	{"водоканал", domain.KeyUtilities, ConfidenceRule},
	{"комунал", domain.KeyUtilities, ConfidenceRule},

	{"оренда", domain.KeyHousing, ConfidenceRule},
	{"квартплата", domain.KeyHousing, ConfidenceRule},
	{"осбб", domain.KeyHousing, ConfidenceRule},

	{"coursera", domain.KeyEducation, ConfidenceRule},
	{"udemy", domain.KeyEducation, ConfidenceRule},
	{"prometheus", domain.KeyEducation, ConfidenceRule},
	{"університет", domain.KeyEducation, ConfidenceRule},
	{"university", domain.KeyEducation, ConfidenceRule},

	{"airbnb", domain.KeyTravel, ConfidenceRule},
	{"booking.com", domain.KeyTravel, ConfidenceRule},
	{"ryanair", domain.KeyTravel, ConfidenceRule},
	{"wizz", domain.KeyTravel, ConfidenceRule},
	{"hotel", domain.KeyTravel, ConfidenceRule},
	{"готель", domain.KeyTravel, ConfidenceRule},

	{"подарун", domain.KeyGifts, ConfidenceRule},
	{"gift", domain.KeyGifts, ConfidenceRule},
	{"квіти", domain.KeyGifts, ConfidenceRule},

	{"зарплата", domain.KeySalary, ConfidenceRule},
	{"заробітна плата", domain.KeySalary, ConfidenceRule},
	{"salary", domain.KeySalary, ConfidenceRule},
	{"payroll", domain.KeySalary, ConfidenceRule},

	{"upwork", domain.KeyFreelance, ConfidenceRule},
	{"fiverr", domain.KeyFreelance, ConfidenceRule},
	{"фріланс", domain.KeyFreelance, ConfidenceRule},
	{"freelance", domain.KeyFreelance, ConfidenceRule},

	{"interactive brokers", domain.KeyInvestments, ConfidenceRule},
	{"freedom finance", domain.KeyInvestments, ConfidenceRule},
	{"овдп", domain.KeyInvestments, ConfidenceRule},
	{"дивіденд", domain.KeyInvestments, ConfidenceRule},
	{"dividend", domain.KeyInvestments, ConfidenceRule},
}

// CategorySource is what the engine reads and, when learning, writes.
type CategorySource interface {
	GetAllCategories(ctx context.Context) ([]domain.Category, error)
	LearnedCorrections(ctx context.Context) ([]domain.LearnedCorrection, error)
	SaveLearnedCorrection(ctx context.Context, c domain.LearnedCorrection) error
}

// Engine suggests categories from learned corrections first, then the rule
// list, then the fallback category.
type Engine struct {
	source CategorySource
	rules  []Rule
	log    zerolog.Logger

	// matches memoizes rule evaluation per input text. Rules never change
	// after construction so entries never go stale.
	matches *cache.Cache
}

func NewEngine(source CategorySource, rules []Rule, log zerolog.Logger) *Engine {
	if rules == nil {
		rules = DefaultRules
	}
	return &Engine{
		source:  source,
		rules:   rules,
		log:     log.With().Str("component", "categorizer").Logger(),
		matches: cache.New(30*time.Minute, time.Hour),
	}
}

// Suggest picks a category for a description and optional merchant.
func (e *Engine) Suggest(ctx context.Context, description string, merchant *string) (Suggestion, error) {
	cats, err := e.source.GetAllCategories(ctx)
	if err != nil {
		return Suggestion{}, err
	}
	if len(cats) == 0 {
		return Suggestion{Source: SourceNone}, nil
	}

	learned, err := e.source.LearnedCorrections(ctx)
	if err != nil {
		return Suggestion{}, err
	}
	if name, ok := matchLearned(learned, merchantKey(merchant), DescriptionKey(description)); ok {
		if c, ok := domain.ResolveCategory(name, cats); ok {
			return Suggestion{Category: &c, Confidence: ConfidenceLearned, Source: SourceLearned}, nil
		}
		e.log.Debug().Str("category", name).Msg("learned category no longer exists")
	}

	for _, text := range []string{merchantText(merchant), description} {
		rule, ok := e.match(text)
		if !ok {
			continue
		}
		if c, ok := domain.ResolveCategory(rule.Category, cats); ok {
			return Suggestion{Category: &c, Confidence: rule.Confidence, Source: SourceRule}, nil
		}
	}

	if c, ok := domain.ResolveCategory(domain.KeyOther, cats); ok {
		return Suggestion{Category: &c, Confidence: ConfidenceFallback, Source: SourceFallback}, nil
	}
	return Suggestion{Confidence: ConfidenceFallback, Source: SourceFallback}, nil
}

// Learn records that this merchant, or failing that this description,
// belongs in category. Learning the same pair again only rewrites it.
func (e *Engine) Learn(ctx context.Context, description string, merchant *string, category domain.Category) error {
	c := domain.LearnedCorrection{CategoryName: category.Name}
	if key := merchantKey(merchant); key != "" {
		c.Key, c.Source = key, domain.FromMerchant
	} else {
		c.Key, c.Source = DescriptionKey(description), domain.FromDescription
	}
	if err := e.source.SaveLearnedCorrection(ctx, c); err != nil {
		return err
	}
	e.log.Info().Str("key", c.Key).Str("source", string(c.Source)).Str("category", c.CategoryName).Msg("correction learned")
	return nil
}

func (e *Engine) match(text string) (Rule, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return Rule{}, false
	}
	if v, ok := e.matches.Get(text); ok {
		idx := v.(int)
		if idx < 0 {
			return Rule{}, false
		}
		return e.rules[idx], true
	}
	idx := -1
	for i, r := range e.rules {
		if strings.Contains(text, r.Pattern) {
			idx = i
			break
		}
	}
	e.matches.Set(text, idx, cache.DefaultExpiration)
	if idx < 0 {
		return Rule{}, false
	}
	return e.rules[idx], true
}

// matchLearned prefers an exact merchant key, then the longest learned key
// contained in the description key.
func matchLearned(learned []domain.LearnedCorrection, merchant, description string) (string, bool) {
	if merchant != "" {
		for _, c := range learned {
			if c.Key == merchant {
				return c.CategoryName, true
			}
		}
	}
	if description == "" {
		return "", false
	}
	var best *domain.LearnedCorrection
	for i := range learned {
		c := &learned[i]
		if c.Key == "" || !strings.Contains(description, c.Key) {
			continue
		}
		if best == nil || len(c.Key) > len(best.Key) {
			best = c
		}
	}
	if best == nil {
		return "", false
	}
	return best.CategoryName, true
}

func merchantText(merchant *string) string {
	if merchant == nil {
		return ""
	}
	return *merchant
}

func merchantKey(merchant *string) string {
	return normalizeText(merchantText(merchant))
}

// DescriptionKey lowercases a description, drops digits and punctuation and
// collapses whitespace, so "SILPO #123 KYIV" and "silpo kyiv" share a key.
func DescriptionKey(description string) string {
	return normalizeText(description)
}

func normalizeText(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || r == '\'' || r == '.':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}
