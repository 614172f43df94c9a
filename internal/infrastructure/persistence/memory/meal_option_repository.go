package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/ports/outbound"
)

// WithinTx serializes fn against other transactions and rolls the option
// rows back when fn fails.
func (r MealOptionRepository) WithinTx(ctx context.Context, fn func(repo outbound.MealOptionRepository) error) error {
	s := r.s
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	backup := make(map[uuid.UUID]*mealplan.MealOption, len(s.options))
	for id, o := range s.options {
		backup[id] = cloneOption(o)
	}
	s.mu.RUnlock()

	if err := fn(txRepository{r}); err != nil {
		s.mu.Lock()
		s.options = backup
		s.mu.Unlock()
		return err
	}
	return nil
}

// txRepository is the repository handed to a transaction callback
type txRepository struct {
	MealOptionRepository
}

// WithinTx joins the running transaction
func (t txRepository) WithinTx(ctx context.Context, fn func(repo outbound.MealOptionRepository) error) error {
	return fn(t)
}

// ListSlot returns the options of a slot in position order
func (r MealOptionRepository) ListSlot(ctx context.Context, dayID uuid.UUID, mealType mealplan.MealType) ([]*mealplan.MealOption, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*mealplan.MealOption
	for _, o := range s.options {
		if o.DayID == dayID && o.MealType == mealType {
			out = append(out, cloneOption(o))
		}
	}
	sortOptions(out)
	return out, nil
}

// FindByID returns one option row
func (r MealOptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*mealplan.MealOption, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.options[id]
	if !ok {
		return nil, fmt.Errorf("meal option %s: %w", id, outbound.ErrNotFound)
	}
	return cloneOption(o), nil
}

// Insert adds an option, rejecting a taken position with ErrDuplicate
func (r MealOptionRepository) Insert(ctx context.Context, option *mealplan.MealOption) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(option)
}

func (s *Store) insertLocked(option *mealplan.MealOption) error {
	if _, ok := s.options[option.ID]; ok {
		return fmt.Errorf("meal option %s: %w", option.ID, outbound.ErrDuplicate)
	}
	if s.positionTakenLocked(option, option.Number) {
		return fmt.Errorf("slot %s/%s position %d: %w", option.DayID, option.MealType, option.Number, outbound.ErrDuplicate)
	}
	s.options[option.ID] = cloneOption(option)
	return nil
}

// Delete removes an option row
func (r MealOptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.options[id]; !ok {
		return fmt.Errorf("meal option %s: %w", id, outbound.ErrNotFound)
	}
	delete(s.options, id)
	return nil
}

// UpdateNumbers applies new positions as one batch, so swapping two
// options does not trip the uniqueness check midway.
func (r MealOptionRepository) UpdateNumbers(ctx context.Context, options []*mealplan.MealOption) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make(map[uuid.UUID]*mealplan.MealOption, len(options))
	for _, o := range options {
		current, ok := s.options[o.ID]
		if !ok {
			return fmt.Errorf("meal option %s: %w", o.ID, outbound.ErrNotFound)
		}
		c := cloneOption(current)
		c.Number = o.Number
		c.IsAlternative = o.IsAlternative
		c.Label = o.Label
		c.LabelAuto = o.LabelAuto
		c.UpdatedAt = o.UpdatedAt
		updated[o.ID] = c
	}

	seen := make(map[string]bool)
	for id, o := range s.options {
		if u, ok := updated[id]; ok {
			o = u
		}
		key := fmt.Sprintf("%s|%s|%d", o.DayID, o.MealType, o.Number)
		if seen[key] {
			return fmt.Errorf("slot %s/%s position %d: %w", o.DayID, o.MealType, o.Number, outbound.ErrDuplicate)
		}
		seen[key] = true
	}

	for id, o := range updated {
		s.options[id] = o
	}
	return nil
}

func (s *Store) positionTakenLocked(option *mealplan.MealOption, number int) bool {
	for id, o := range s.options {
		if id != option.ID && o.DayID == option.DayID && o.MealType == option.MealType && o.Number == number {
			return true
		}
	}
	return false
}
