package repository

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	aptdomain "github.com/aptrend/aptrend/internal/apartment/domain"
	"github.com/aptrend/aptrend/pkg/db"
)

func newTestRepo(t *testing.T) (aptdomain.Repository, *gorm.DB, *snowflake.Node) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&aptdomain.Apartment{}, &aptdomain.Detail{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return Provide(gdb), gdb, node
}

func codedApartment(node *snowflake.Node, regionID snowflake.ID, name, code string) *aptdomain.Apartment {
	return &aptdomain.Apartment{
		ID:           node.Generate(),
		RegionID:     regionID,
		Name:         name,
		ExternalCode: &code,
		Available:    true,
	}
}

func TestUpsertByExternalCodeInsertsThenSkips(t *testing.T) {
	repo, gdb, node := newTestRepo(t)
	ctx := context.Background()
	region := node.Generate()

	created, err := repo.UpsertByExternalCode(ctx, codedApartment(node, region, "래미안 강남", "A10027875"))
	require.NoError(t, err)
	assert.True(t, created)

	// Same (region, code) under another spelling keeps the canonical row.
	created, err = repo.UpsertByExternalCode(ctx, codedApartment(node, region, "래미안강남아파트", "A10027875"))
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, gdb.Model(&aptdomain.Apartment{}).
		Where("region_id = ? AND external_code = ?", region, "A10027875").
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpsertByExternalCodeReusesCodeOfDeletedRow(t *testing.T) {
	repo, gdb, node := newTestRepo(t)
	ctx := context.Background()
	region := node.Generate()

	first := codedApartment(node, region, "힐스테이트 서초", "A13305001")
	created, err := repo.UpsertByExternalCode(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	// The unique index only covers live rows, so a deleted apartment
	// frees its code for a fresh insert.
	require.NoError(t, repo.UpdateFlags(ctx, first.ID, false, true))

	created, err = repo.UpsertByExternalCode(ctx, codedApartment(node, region, "힐스테이트 서초", "A13305001"))
	require.NoError(t, err)
	assert.True(t, created)

	var count int64
	require.NoError(t, gdb.Model(&aptdomain.Apartment{}).
		Where("region_id = ? AND external_code = ?", region, "A13305001").
		Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestUpsertByExternalCodeWithoutCodeAlwaysCreates(t *testing.T) {
	repo, _, node := newTestRepo(t)
	ctx := context.Background()
	region := node.Generate()

	for _, name := range []string{"이름만 있는 단지", "이름만 있는 단지"} {
		created, err := repo.UpsertByExternalCode(ctx, &aptdomain.Apartment{
			ID:        node.Generate(),
			RegionID:  region,
			Name:      name,
			Available: true,
		})
		require.NoError(t, err)
		assert.True(t, created)
	}
}

func TestCreateDuplicateCodeIsClassified(t *testing.T) {
	repo, _, node := newTestRepo(t)
	ctx := context.Background()
	region := node.Generate()

	require.NoError(t, repo.Create(ctx, codedApartment(node, region, "자이 송파", "A41135990")))

	err := repo.Create(ctx, codedApartment(node, region, "자이 송파", "A41135990"))
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err))
}
