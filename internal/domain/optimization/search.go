package optimization

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"

	"github.com/nutriplan/engine/internal/domain/nutrition"
)

// MacroBounds is an optional floor and ceiling in grams; zero means unset
type MacroBounds struct {
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`
}

// deviation is the relative distance of actual outside [Min, Max]
func (b MacroBounds) deviation(actual float64) float64 {
	if b.Min > 0 && actual < b.Min {
		return (b.Min - actual) / b.Min
	}
	if b.Max > 0 && actual > b.Max {
		return (actual - b.Max) / b.Max
	}
	return 0
}

// SearchCriteria describes the combination being looked for
type SearchCriteria struct {
	TargetCalories    float64
	Protein           MacroBounds
	Carbohydrate      MacroBounds
	Fat               MacroBounds
	ExcludedTags      []string
	AllowedCategories []nutrition.Category
	MinItems          int
	MaxItems          int
	MaxResults        int
}

func (c SearchCriteria) withDefaults() SearchCriteria {
	if c.MinItems == 0 {
		c.MinItems = 2
	}
	if c.MaxItems == 0 {
		c.MaxItems = 8
	}
	if c.MaxResults == 0 {
		c.MaxResults = 5
	}
	return c
}

// Validate checks the criteria after defaults are applied
func (c SearchCriteria) Validate() error {
	c = c.withDefaults()
	switch {
	case !(c.TargetCalories > 0):
		return fmt.Errorf("%w: target calories must be positive", ErrInvalidCriteria)
	case c.MinItems < 1 || c.MaxItems < c.MinItems:
		return fmt.Errorf("%w: need 1 <= min_items <= max_items", ErrInvalidCriteria)
	case c.MaxResults < 1:
		return fmt.Errorf("%w: max_results must be positive", ErrInvalidCriteria)
	}
	for name, b := range map[string]MacroBounds{"protein": c.Protein, "carbohydrate": c.Carbohydrate, "fat": c.Fat} {
		if b.Min < 0 || b.Max < 0 || (b.Max > 0 && b.Min > b.Max) {
			return fmt.Errorf("%w: %s bounds are inconsistent", ErrInvalidCriteria, name)
		}
	}
	return nil
}

// Candidate is one food set proposed by the search
type Candidate struct {
	Foods           []nutrition.FoodProfile
	Quantities      []float64
	Totals          nutrition.NutrientTotals
	Score           float64
	Compatibility   float64
	Deviation       float64
	Iterations      int
	Converged       bool
	WithinTolerance bool
}

func (c Candidate) nameKey() string {
	names := make([]string, len(c.Foods))
	for i, f := range c.Foods {
		names[i] = f.Name
	}
	return strings.Join(names, "\x00")
}

// SearchResult holds the ranked candidates. Warning is
// ErrUnresolvableTarget when no candidate is within tolerance.
type SearchResult struct {
	Candidates []Candidate
	PoolSize   int
	Evaluated  int
	Warning    error
}

// CombinationSearch looks for food subsets that approximate a caloric and
// macro target using restarted local search.
type CombinationSearch struct {
	cfg     SearchConfig
	checker *CompatibilityChecker
}

// NewCombinationSearch creates a search with the given tuning
func NewCombinationSearch(cfg SearchConfig, checker *CompatibilityChecker) *CombinationSearch {
	return &CombinationSearch{cfg: cfg, checker: checker}
}

// Config returns the search tuning
func (s *CombinationSearch) Config() SearchConfig {
	return s.cfg
}

// Search runs greedy seeding plus add/remove/swap hill climbing from
// several starting foods and returns up to MaxResults distinct sets.
func (s *CombinationSearch) Search(catalog []nutrition.FoodProfile, criteria SearchCriteria, rng *rand.Rand) (SearchResult, error) {
	if err := criteria.Validate(); err != nil {
		return SearchResult{}, err
	}
	criteria = criteria.withDefaults()

	pool := FilterCatalog(catalog, CatalogFilter{
		ExcludedTags:      criteria.ExcludedTags,
		AllowedCategories: criteria.AllowedCategories,
	})
	run := s.newRun(pool, criteria)
	result := SearchResult{PoolSize: len(pool), Candidates: []Candidate{}}
	if len(pool) < criteria.MinItems {
		result.Warning = ErrUnresolvableTarget
		return result, nil
	}

	attempts := criteria.MaxResults * max(s.cfg.RestartFactor, 1)
	starts := rng.Perm(len(pool))
	found := make(map[string]Candidate)
	for attempt := 0; attempt < attempts; attempt++ {
		start := -1
		if attempt > 0 {
			start = starts[(attempt-1)%len(starts)]
		}
		set, iterations, converged := run.climb(run.seed(start))

		key := run.fingerprint(set)
		if _, dup := found[key]; dup {
			continue
		}
		found[key] = run.candidate(set, iterations, converged)
	}

	for _, c := range found {
		result.Candidates = append(result.Candidates, c)
	}
	slices.SortFunc(result.Candidates, compareCandidates)
	if len(result.Candidates) > criteria.MaxResults {
		result.Candidates = result.Candidates[:criteria.MaxResults]
	}
	result.Evaluated = run.evaluated

	if !slices.ContainsFunc(result.Candidates, func(c Candidate) bool { return c.WithinTolerance }) {
		result.Warning = ErrUnresolvableTarget
	}
	return result, nil
}

func compareCandidates(a, b Candidate) int {
	if math.Abs(a.Score-b.Score) > 1e-12 {
		if a.Score < b.Score {
			return -1
		}
		return 1
	}
	if len(a.Foods) != len(b.Foods) {
		return len(a.Foods) - len(b.Foods)
	}
	return strings.Compare(a.nameKey(), b.nameKey())
}

type searchRun struct {
	cfg       SearchConfig
	criteria  SearchCriteria
	pool      []nutrition.FoodProfile
	portion   []nutrition.NutrientTotals
	conflicts [][]bool
	maxItems  int
	evaluated int
}

func (s *CombinationSearch) newRun(pool []nutrition.FoodProfile, criteria SearchCriteria) *searchRun {
	run := &searchRun{
		cfg:      s.cfg,
		criteria: criteria,
		pool:     pool,
		portion:  make([]nutrition.NutrientTotals, len(pool)),
		maxItems: min(criteria.MaxItems, len(pool)),
	}
	for i, f := range pool {
		run.portion[i] = f.Per100g.Scale(s.cfg.PortionGrams / 100)
	}

	run.conflicts = make([][]bool, len(pool))
	for i := range pool {
		run.conflicts[i] = make([]bool, len(pool))
	}
	for i := range pool {
		for j := i + 1; j < len(pool); j++ {
			_, bad := s.checker.PairConflict(pool[i], pool[j], criteria.ExcludedTags)
			run.conflicts[i][j], run.conflicts[j][i] = bad, bad
		}
	}
	return run
}

func (r *searchRun) totals(set []int) nutrition.NutrientTotals {
	var t nutrition.NutrientTotals
	for _, i := range set {
		t = t.Add(r.portion[i])
	}
	return t
}

func (r *searchRun) compatibility(set []int) float64 {
	pairs, bad := 0, 0
	for a := 0; a < len(set); a++ {
		for b := a + 1; b < len(set); b++ {
			pairs++
			if r.conflicts[set[a]][set[b]] {
				bad++
			}
		}
	}
	if pairs == 0 {
		return 1
	}
	return 1 - float64(bad)/float64(pairs)
}

func (r *searchRun) score(set []int) float64 {
	r.evaluated++
	t := r.totals(set)
	w := r.cfg.Weights
	calDev := relativeDeviation(t.Calories, r.criteria.TargetCalories)
	p := r.criteria.Protein.deviation(t.Protein)
	c := r.criteria.Carbohydrate.deviation(t.Carbohydrate)
	f := r.criteria.Fat.deviation(t.Fat)

	return w.Calories*calDev*calDev + w.Protein*p*p + w.Carbohydrate*c*c + w.Fat*f*f +
		r.cfg.CompatibilityPenalty*(1-r.compatibility(set))
}

// seed greedily adds the food that best closes the calorie gap until the
// minimum item count is reached. start < 0 begins from an empty set.
func (r *searchRun) seed(start int) []int {
	var set []int
	calories := 0.0
	if start >= 0 {
		set = append(set, start)
		calories = r.portion[start].Calories
	}

	for len(set) < r.criteria.MinItems {
		best, bestDev := -1, math.Inf(1)
		for i := range r.pool {
			if slices.Contains(set, i) {
				continue
			}
			d := calories + r.portion[i].Calories - r.criteria.TargetCalories
			if d*d < bestDev {
				best, bestDev = i, d*d
			}
		}
		set = append(set, best)
		calories += r.portion[best].Calories
	}
	slices.Sort(set)
	return set
}

// climb applies the best strictly improving add, remove or swap move
// until none exists or the iteration cap is hit.
func (r *searchRun) climb(set []int) ([]int, int, bool) {
	current, currentScore := set, r.score(set)
	for iter := 0; iter < r.cfg.MaxIterations; iter++ {
		var best []int
		bestScore := currentScore
		consider := func(next []int) {
			if sc := r.score(next); sc < bestScore-1e-12 {
				best, bestScore = next, sc
			}
		}

		inSet := make(map[int]bool, len(current))
		for _, i := range current {
			inSet[i] = true
		}

		if len(current) < r.maxItems {
			for j := range r.pool {
				if !inSet[j] {
					consider(withAdded(current, j))
				}
			}
		}
		if len(current) > r.criteria.MinItems {
			for p := range current {
				consider(withRemoved(current, p))
			}
		}
		for p := range current {
			for j := range r.pool {
				if !inSet[j] {
					consider(withAdded(withRemoved(current, p), j))
				}
			}
		}

		if best == nil {
			return current, iter, true
		}
		current, currentScore = best, bestScore
	}
	return current, r.cfg.MaxIterations, false
}

func withAdded(set []int, j int) []int {
	out := append(slices.Clone(set), j)
	slices.Sort(out)
	return out
}

func withRemoved(set []int, p int) []int {
	return slices.Delete(slices.Clone(set), p, p+1)
}

func (r *searchRun) fingerprint(set []int) string {
	ids := make([]string, len(set))
	for i, idx := range set {
		ids[i] = r.pool[idx].ID.String()
	}
	slices.Sort(ids)
	return strings.Join(ids, ",")
}

func (r *searchRun) candidate(set []int, iterations int, converged bool) Candidate {
	c := Candidate{
		Foods:         make([]nutrition.FoodProfile, len(set)),
		Quantities:    make([]float64, len(set)),
		Totals:        r.totals(set),
		Score:         r.score(set),
		Compatibility: r.compatibility(set),
		Iterations:    iterations,
		Converged:     converged,
	}
	for i, idx := range set {
		c.Foods[i] = r.pool[idx]
		c.Quantities[i] = r.cfg.PortionGrams
	}
	c.Deviation = relativeDeviation(c.Totals.Calories, r.criteria.TargetCalories)

	tol := r.cfg.Tolerance
	c.WithinTolerance = math.Abs(c.Deviation) <= tol &&
		r.criteria.Protein.deviation(c.Totals.Protein) <= tol &&
		r.criteria.Carbohydrate.deviation(c.Totals.Carbohydrate) <= tol &&
		r.criteria.Fat.deviation(c.Totals.Fat) <= tol
	return c
}
