package optimization

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
)

// ConflictRule declares two food kinds that should not be combined. Each
// side matches on category, tag, or both; the rule is symmetric.
type ConflictRule struct {
	CategoryA nutrition.Category `mapstructure:"category_a" json:"category_a,omitempty"`
	TagA      string             `mapstructure:"tag_a" json:"tag_a,omitempty"`
	CategoryB nutrition.Category `mapstructure:"category_b" json:"category_b,omitempty"`
	TagB      string             `mapstructure:"tag_b" json:"tag_b,omitempty"`
	Reason    string             `mapstructure:"reason" json:"reason"`
}

// DefaultConflictRules is the rule set used when none is configured
func DefaultConflictRules() []ConflictRule {
	return []ConflictRule{
		{CategoryA: nutrition.CategoryDairy, TagB: "citrico", Reason: "lácteo combinado con cítrico"},
		{TagA: "alto_sodio", TagB: "alto_sodio", Reason: "dos alimentos altos en sodio"},
	}
}

func sideMatches(f nutrition.FoodProfile, category nutrition.Category, tag string) bool {
	if category == "" && tag == "" {
		return false
	}
	return (category == "" || f.Category == category) && (tag == "" || f.HasTag(tag))
}

// Matches reports whether the rule applies to the pair in either order
func (r ConflictRule) Matches(a, b nutrition.FoodProfile) bool {
	return (sideMatches(a, r.CategoryA, r.TagA) && sideMatches(b, r.CategoryB, r.TagB)) ||
		(sideMatches(b, r.CategoryA, r.TagA) && sideMatches(a, r.CategoryB, r.TagB))
}

// FoodRef identifies a food in reports
type FoodRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func refOf(f nutrition.FoodProfile) FoodRef {
	return FoodRef{ID: f.ID, Name: f.Name}
}

// Conflict is one incompatible pair
type Conflict struct {
	FoodA  FoodRef `json:"food_a"`
	FoodB  FoodRef `json:"food_b"`
	Reason string  `json:"reason"`
}

// CompatibilityReport is the result of a pairwise check
type CompatibilityReport struct {
	Compatible bool       `json:"compatible"`
	Conflicts  []Conflict `json:"conflicts"`
	Excluded   []FoodRef  `json:"excluded,omitempty"`
	TotalPairs int        `json:"total_pairs"`
	Score      float64    `json:"score"`
}

// CompatibilityChecker evaluates restriction tags and conflict rules
type CompatibilityChecker struct {
	rules []ConflictRule
}

// NewCompatibilityChecker creates a checker with the given rules
func NewCompatibilityChecker(rules []ConflictRule) *CompatibilityChecker {
	return &CompatibilityChecker{rules: append([]ConflictRule(nil), rules...)}
}

// Rules returns the configured rules
func (c *CompatibilityChecker) Rules() []ConflictRule {
	return append([]ConflictRule(nil), c.rules...)
}

// PairConflict returns the reason two foods conflict, if any
func (c *CompatibilityChecker) PairConflict(a, b nutrition.FoodProfile, excludedTags []string) (string, bool) {
	if tag, ok := a.HasAnyTag(excludedTags); ok {
		return fmt.Sprintf("etiqueta excluida %q en %s", tag, a.Name), true
	}
	if tag, ok := b.HasAnyTag(excludedTags); ok {
		return fmt.Sprintf("etiqueta excluida %q en %s", tag, b.Name), true
	}
	for _, r := range c.rules {
		if r.Matches(a, b) {
			return r.Reason, true
		}
	}
	return "", false
}

// Check compares every pair of foods. Score is 1 - conflicting/total pairs
// and is 1 when there are fewer than two foods.
func (c *CompatibilityChecker) Check(foods []nutrition.FoodProfile, excludedTags []string) CompatibilityReport {
	report := CompatibilityReport{Conflicts: []Conflict{}}
	for _, f := range foods {
		if _, ok := f.HasAnyTag(excludedTags); ok {
			report.Excluded = append(report.Excluded, refOf(f))
		}
	}

	for i := 0; i < len(foods); i++ {
		for j := i + 1; j < len(foods); j++ {
			report.TotalPairs++
			if reason, ok := c.PairConflict(foods[i], foods[j], excludedTags); ok {
				report.Conflicts = append(report.Conflicts, Conflict{
					FoodA:  refOf(foods[i]),
					FoodB:  refOf(foods[j]),
					Reason: reason,
				})
			}
		}
	}

	report.Score = 1
	if report.TotalPairs > 0 {
		report.Score = 1 - float64(len(report.Conflicts))/float64(report.TotalPairs)
	}
	report.Compatible = len(report.Conflicts) == 0 && len(report.Excluded) == 0
	return report
}
