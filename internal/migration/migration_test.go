package migration

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAutoMigrateCreatesEveryTable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{
		"regions",
		"apartments",
		"apartment_details",
		"sale_transactions",
		"rent_transactions",
		"price_indices",
		"trading_volumes",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestRunMigrationsRejectsNilHandle(t *testing.T) {
	assert.Error(t, RunMigrations(nil))
}
