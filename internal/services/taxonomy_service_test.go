package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotehunt/remotehunt/internal/models"
	"github.com/remotehunt/remotehunt/internal/services"
)

func TestGetOrCreate_CreatesThenReuses(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewTaxonomyService(db)
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, "engineering")
	require.NoError(t, err)
	assert.Equal(t, "Engineering", first.Name)

	second, err := svc.GetOrCreate(ctx, "engineering")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.Category{}).Count(&count)
	assert.EqualValues(t, 1, count, "workers must converge to one row")
}

func TestGetOrCreate_UnmappedSlugKeepsSlugAsName(t *testing.T) {
	db := openTestDB(t)
	svc := services.NewTaxonomyService(db)

	category, err := svc.GetOrCreate(context.Background(), "quantum-research")
	require.NoError(t, err)
	assert.Equal(t, "quantum-research", category.Name)
}

func TestCategorySlugs_Stable(t *testing.T) {
	slugs := services.CategorySlugs()
	assert.Contains(t, slugs, "engineering")
	assert.Contains(t, slugs, "other")
	assert.Equal(t, slugs, services.CategorySlugs(), "order must be deterministic for prompts")
	assert.True(t, services.IsKnownCategory("design"))
	assert.False(t, services.IsKnownCategory("made-up"))
}
