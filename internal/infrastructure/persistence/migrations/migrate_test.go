package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableListsEmbeddedUpMigrations(t *testing.T) {
	all, err := Available()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	assert.Equal(t, uint(1), all[0].Version)
	assert.Equal(t, "init_schema", all[0].Name)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Version, all[i-1].Version)
	}
}

func TestInitialMigrationDeclaresSlotIndex(t *testing.T) {
	raw, err := sqlFiles.ReadFile("sql/000001_init_schema.up.sql")
	require.NoError(t, err)

	assert.Contains(t, string(raw),
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_meal_slot ON meal_options (day_id, meal_type, option_number)")
}
