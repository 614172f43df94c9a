package mealplan

import (
	"time"

	"github.com/google/uuid"
)

// OptionAddedEvent is raised when an option fills a slot position
type OptionAddedEvent struct {
	OptionID uuid.UUID
	DayID    uuid.UUID
	MealType MealType
	Number   int
	AddedAt  time.Time
}

func (e OptionAddedEvent) EventName() string {
	return "meal_option.added"
}

func (e OptionAddedEvent) OccurredAt() time.Time {
	return e.AddedAt
}

// OptionRemovedEvent is raised when an option leaves a slot
type OptionRemovedEvent struct {
	OptionID   uuid.UUID
	DayID      uuid.UUID
	MealType   MealType
	Number     int
	Renumbered int
	RemovedAt  time.Time
}

func (e OptionRemovedEvent) EventName() string {
	return "meal_option.removed"
}

func (e OptionRemovedEvent) OccurredAt() time.Time {
	return e.RemovedAt
}

// OptionsReorderedEvent is raised when a slot's options change positions
type OptionsReorderedEvent struct {
	DayID       uuid.UUID
	MealType    MealType
	OrderedIDs  []uuid.UUID
	ReorderedAt time.Time
}

func (e OptionsReorderedEvent) EventName() string {
	return "meal_option.reordered"
}

func (e OptionsReorderedEvent) OccurredAt() time.Time {
	return e.ReorderedAt
}
