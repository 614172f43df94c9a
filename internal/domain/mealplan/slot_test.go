package mealplan

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/stretchr/testify/suite"
)

type SlotTestSuite struct {
	suite.Suite
	dayID   uuid.UUID
	now     time.Time
	payload OptionPayload
}

func (s *SlotTestSuite) SetupTest() {
	s.dayID = uuid.New()
	s.now = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	avena := nutrition.FoodProfile{ID: uuid.New(), Name: "Avena", Category: nutrition.CategoryCereals,
		Per100g: nutrition.NutrientTotals{Calories: 389}, Available: true}
	s.payload = OptionPayload{Items: []nutrition.QuantityBinding{{Food: avena, Grams: 50}}}
}

func TestSlotTestSuite(t *testing.T) {
	suite.Run(t, new(SlotTestSuite))
}

func (s *SlotTestSuite) emptySlot() *Slot {
	slot, err := LoadSlot(s.dayID, MealBreakfast, nil)
	s.Require().NoError(err)
	return slot
}

func (s *SlotTestSuite) TestAdd() {
	s.Run("ThreeAdds_ShouldFillThenReject", func() {
		// Arrange
		slot := s.emptySlot()
		s.Equal(SlotEmpty, slot.State())

		// Act
		first, err := slot.Add(s.payload, "", s.now)
		s.Require().NoError(err)
		second, err := slot.Add(s.payload, "", s.now)
		s.Require().NoError(err)
		third, err := slot.Add(s.payload, "", s.now)

		// Assert
		s.Equal(1, first.Number)
		s.False(first.IsAlternative)
		s.Empty(first.Label)
		s.Equal(2, second.Number)
		s.True(second.IsAlternative)
		s.Equal("Opción 2", second.Label)
		s.ErrorIs(err, ErrLimitExceeded)
		s.Nil(third)
		s.Equal(SlotDual, slot.State())
		s.Len(slot.Options(), 2)
		s.Len(slot.Events(), 2)
	})

	s.Run("ExplicitLabel_ShouldBeKept", func() {
		slot := s.emptySlot()
		_, err := slot.Add(s.payload, "", s.now)
		s.Require().NoError(err)

		second, err := slot.Add(s.payload, "Sin lactosa", s.now)

		s.Require().NoError(err)
		s.Equal("Sin lactosa", second.Label)
		s.False(second.LabelAuto)
	})

	s.Run("InvalidPayload_ShouldFail", func() {
		slot := s.emptySlot()
		recipeID := uuid.New()

		_, err := slot.Add(OptionPayload{}, "", s.now)
		s.ErrorIs(err, ErrInvalidPayload)

		_, err = slot.Add(OptionPayload{Items: s.payload.Items, RecipeID: &recipeID}, "", s.now)
		s.ErrorIs(err, ErrInvalidPayload)

		bad := OptionPayload{Items: []nutrition.QuantityBinding{{Food: s.payload.Items[0].Food, Grams: -5}}}
		_, err = slot.Add(bad, "", s.now)
		s.ErrorIs(err, nutrition.ErrInvalidGrams)
		s.Equal(SlotEmpty, slot.State())
	})
}

func (s *SlotTestSuite) TestRemove() {
	s.Run("RemoveFirst_ShouldPromoteSecond", func() {
		slot := s.emptySlot()
		first, _ := slot.Add(s.payload, "", s.now)
		second, _ := slot.Add(s.payload, "", s.now)

		removed, changed, err := slot.Remove(first.ID, s.now)

		s.Require().NoError(err)
		s.Equal(first.ID, removed.ID)
		s.Require().Len(changed, 1)
		s.Equal(second.ID, changed[0].ID)
		s.Equal(1, second.Number)
		s.False(second.IsAlternative)
		s.Empty(second.Label)
		s.Equal(SlotSingle, slot.State())
	})

	s.Run("RemoveFirst_ShouldPreserveExplicitLabel", func() {
		slot := s.emptySlot()
		first, _ := slot.Add(s.payload, "", s.now)
		second, _ := slot.Add(s.payload, "Vegana", s.now)

		_, _, err := slot.Remove(first.ID, s.now)

		s.Require().NoError(err)
		s.Equal("Vegana", second.Label)
		s.Equal(1, second.Number)
	})

	s.Run("RemoveSecond_ShouldLeaveFirstUntouched", func() {
		slot := s.emptySlot()
		first, _ := slot.Add(s.payload, "Clásica", s.now)
		second, _ := slot.Add(s.payload, "", s.now)

		_, changed, err := slot.Remove(second.ID, s.now)

		s.Require().NoError(err)
		s.Empty(changed)
		s.Equal(1, first.Number)
		s.Equal("Clásica", first.Label)
	})

	s.Run("UnknownOption_ShouldFail", func() {
		slot := s.emptySlot()
		_, _, err := slot.Remove(uuid.New(), s.now)
		s.ErrorIs(err, ErrOptionNotFound)
	})
}

func (s *SlotTestSuite) TestReorder() {
	s.Run("Swap_ShouldBeBijection", func() {
		slot := s.emptySlot()
		first, _ := slot.Add(s.payload, "", s.now)
		second, _ := slot.Add(s.payload, "", s.now)

		changed, err := slot.Reorder([]uuid.UUID{second.ID, first.ID}, s.now)

		s.Require().NoError(err)
		s.Len(changed, 2)
		opts := slot.Options()
		s.Equal([]uuid.UUID{second.ID, first.ID}, []uuid.UUID{opts[0].ID, opts[1].ID})
		for i, o := range opts {
			s.Equal(i+1, o.Number)
			s.Equal(i > 0, o.IsAlternative)
		}
		s.Empty(second.Label)
		s.Equal("Opción 2", first.Label)
	})

	s.Run("NotAPermutation_ShouldFail", func() {
		slot := s.emptySlot()
		first, _ := slot.Add(s.payload, "", s.now)
		_, _ = slot.Add(s.payload, "", s.now)

		_, err := slot.Reorder([]uuid.UUID{first.ID}, s.now)
		s.ErrorIs(err, ErrNotAPermutation)

		_, err = slot.Reorder([]uuid.UUID{first.ID, first.ID}, s.now)
		s.ErrorIs(err, ErrNotAPermutation)

		_, err = slot.Reorder([]uuid.UUID{first.ID, uuid.New()}, s.now)
		s.ErrorIs(err, ErrNotAPermutation)
	})
}

func (s *SlotTestSuite) TestRandomSequences_ShouldKeepInvariant() {
	rng := rand.New(rand.NewSource(7))
	slot := s.emptySlot()

	for step := 0; step < 500; step++ {
		opts := slot.Options()
		switch rng.Intn(3) {
		case 0:
			_, err := slot.Add(s.payload, "", s.now)
			if len(opts) == MaxOptionsPerSlot {
				s.ErrorIs(err, ErrLimitExceeded)
			} else {
				s.NoError(err)
			}
		case 1:
			if len(opts) > 0 {
				_, _, err := slot.Remove(opts[rng.Intn(len(opts))].ID, s.now)
				s.NoError(err)
			}
		case 2:
			ids := make([]uuid.UUID, len(opts))
			for i, o := range opts {
				ids[i] = o.ID
			}
			rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
			_, err := slot.Reorder(ids, s.now)
			s.NoError(err)
		}

		after := slot.Options()
		s.LessOrEqual(len(after), MaxOptionsPerSlot)
		for i, o := range after {
			s.Equal(i+1, o.Number)
			s.Equal(i > 0, o.IsAlternative)
		}
	}
}

func (s *SlotTestSuite) TestLoadSlot_ShouldRejectBrokenNumbering() {
	broken := []*MealOption{{ID: uuid.New(), DayID: s.dayID, MealType: MealBreakfast, Number: 2}}

	_, err := LoadSlot(s.dayID, MealBreakfast, broken)

	s.ErrorIs(err, ErrInconsistentSlot)
}
