package mealplan

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/shared"
)

// MaxOptionsPerSlot bounds the options of a (day, meal type) pair
const MaxOptionsPerSlot = 2

// SlotState is the state machine position of a slot
type SlotState string

const (
	SlotEmpty  SlotState = "EMPTY"
	SlotSingle SlotState = "SINGLE"
	SlotDual   SlotState = "DUAL"
)

// Slot is the aggregate guarding the options of one (day, meal type).
// Options are always numbered 1..k contiguously with k <= 2.
type Slot struct {
	shared.EventLog

	dayID    uuid.UUID
	mealType MealType
	options  []*MealOption
}

// LoadSlot rebuilds a slot from persisted options
func LoadSlot(dayID uuid.UUID, mealType MealType, options []*MealOption) (*Slot, error) {
	if len(options) > MaxOptionsPerSlot {
		return nil, ErrInconsistentSlot
	}
	sorted := append([]*MealOption(nil), options...)
	slices.SortFunc(sorted, func(a, b *MealOption) int { return a.Number - b.Number })
	for i, o := range sorted {
		if o.Number != i+1 || o.DayID != dayID || o.MealType != mealType {
			return nil, ErrInconsistentSlot
		}
	}
	return &Slot{dayID: dayID, mealType: mealType, options: sorted}, nil
}

// DayID returns the slot's day
func (s *Slot) DayID() uuid.UUID {
	return s.dayID
}

// MealType returns the slot's meal type
func (s *Slot) MealType() MealType {
	return s.mealType
}

// Options returns the options ordered by number
func (s *Slot) Options() []*MealOption {
	return append([]*MealOption(nil), s.options...)
}

// State returns the current state machine position
func (s *Slot) State() SlotState {
	switch len(s.options) {
	case 0:
		return SlotEmpty
	case 1:
		return SlotSingle
	default:
		return SlotDual
	}
}

// Add appends an option at the next position. A blank label on a
// non-first option is replaced by the auto label.
func (s *Slot) Add(payload OptionPayload, label string, now time.Time) (*MealOption, error) {
	if len(s.options) >= MaxOptionsPerSlot {
		return nil, ErrLimitExceeded
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	label = strings.TrimSpace(label)
	if utf8.RuneCountInString(label) > 100 {
		return nil, ErrLabelTooLong
	}

	option := &MealOption{
		ID:        uuid.New(),
		DayID:     s.dayID,
		MealType:  s.mealType,
		Label:     label,
		LabelAuto: label == "",
		Items:     payload.Items,
		RecipeID:  payload.RecipeID,
		CreatedAt: now,
	}
	option.place(len(s.options)+1, now)
	s.options = append(s.options, option)

	s.Record(OptionAddedEvent{
		OptionID: option.ID,
		DayID:    s.dayID,
		MealType: s.mealType,
		Number:   option.Number,
		AddedAt:  now,
	})
	return option, nil
}

// Remove deletes an option and renumbers the survivors. It returns the
// removed option and the options whose position changed.
func (s *Slot) Remove(optionID uuid.UUID, now time.Time) (*MealOption, []*MealOption, error) {
	idx := slices.IndexFunc(s.options, func(o *MealOption) bool { return o.ID == optionID })
	if idx < 0 {
		return nil, nil, ErrOptionNotFound
	}
	removed := s.options[idx]
	s.options = slices.Delete(slices.Clone(s.options), idx, idx+1)

	changed := s.renumber(now)
	s.Record(OptionRemovedEvent{
		OptionID:   removed.ID,
		DayID:      s.dayID,
		MealType:   s.mealType,
		Number:     removed.Number,
		Renumbered: len(changed),
		RemovedAt:  now,
	})
	return removed, changed, nil
}

// Reorder assigns positions by the order of ids, which must be a
// permutation of the slot's option ids. It returns the changed options.
func (s *Slot) Reorder(orderedIDs []uuid.UUID, now time.Time) ([]*MealOption, error) {
	if len(orderedIDs) != len(s.options) {
		return nil, ErrNotAPermutation
	}
	byID := make(map[uuid.UUID]*MealOption, len(s.options))
	for _, o := range s.options {
		byID[o.ID] = o
	}

	reordered := make([]*MealOption, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		o, ok := byID[id]
		if !ok {
			return nil, ErrNotAPermutation
		}
		delete(byID, id)
		reordered = append(reordered, o)
	}

	s.options = reordered
	changed := s.renumber(now)
	s.Record(OptionsReorderedEvent{
		DayID:       s.dayID,
		MealType:    s.mealType,
		OrderedIDs:  append([]uuid.UUID(nil), orderedIDs...),
		ReorderedAt: now,
	})
	return changed, nil
}

func (s *Slot) renumber(now time.Time) []*MealOption {
	var changed []*MealOption
	for i, o := range s.options {
		if o.place(i+1, now) {
			changed = append(changed, o)
		}
	}
	return changed
}
