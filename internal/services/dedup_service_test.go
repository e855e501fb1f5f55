package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/remotehunt/remotehunt/internal/models"
	"github.com/remotehunt/remotehunt/internal/services"
)

func TestJaccardSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Senior Backend Engineer", "Senior Backend Engineer", 1.0},
		{"disjoint", "Backend Engineer", "Product Designer", 0.0},
		{"empty side", "", "Backend Engineer", 0.0},
		{"both empty", "", "", 0.0},
		{"short tokens ignored", "Go at io", "Go on we", 0.0},
		// 3 shared tokens, union of 5 -> exactly 0.6.
		{"exactly at threshold", "alpha beta gamma delta", "alpha beta gamma epsilon", 0.6},
		{"case and punctuation insensitive", "Senior, Backend Engineer!", "senior backend engineer", 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, services.JaccardSimilarity(tc.a, tc.b), 1e-9)
		})
	}
}

func seedJob(t *testing.T, db *gorm.DB, job models.Job) models.Job {
	t.Helper()
	require.NoError(t, db.Create(&job).Error)
	return job
}

func TestIsKnownProvenance(t *testing.T) {
	db := openTestDB(t)
	dedup := services.NewDedupService(db)
	ctx := context.Background()

	postID := "post-1"
	sourceURL := "https://x/1"
	seedJob(t, db, models.Job{
		Slug: "existing-job", Title: "Backend Engineer",
		SourcePostID: &postID, SourceURL: &sourceURL,
	})

	byID, err := dedup.IsKnownProvenance(ctx, "post-1", "")
	require.NoError(t, err)
	assert.True(t, byID)

	byURL, err := dedup.IsKnownProvenance(ctx, "", "https://x/1")
	require.NoError(t, err)
	assert.True(t, byURL)

	miss, err := dedup.IsKnownProvenance(ctx, "post-2", "https://x/2")
	require.NoError(t, err)
	assert.False(t, miss)

	none, err := dedup.IsKnownProvenance(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, none)
}

func TestHasRecentCompanyTitle_WindowBoundary(t *testing.T) {
	db := openTestDB(t)
	dedup := services.NewDedupService(db)
	ctx := context.Background()

	company := models.Company{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(&company).Error)

	// Created 9 days ago: inside the 10-day window.
	seedJob(t, db, models.Job{
		Slug: "inside-window", Title: "Senior Backend Engineer",
		CompanyID: company.ID,
		CreatedAt: time.Now().Add(-9 * 24 * time.Hour),
	})

	dup, err := dedup.HasRecentCompanyTitle(ctx, company.ID, "senior backend engineer")
	require.NoError(t, err)
	assert.True(t, dup, "9-day-old identical title must be a duplicate")

	// Push it out to 11 days: the role may legitimately be reposted.
	require.NoError(t, db.Model(&models.Job{}).
		Where("slug = ?", "inside-window").
		Update("created_at", time.Now().Add(-11*24*time.Hour)).Error)

	dup, err = dedup.HasRecentCompanyTitle(ctx, company.ID, "Senior Backend Engineer")
	require.NoError(t, err)
	assert.False(t, dup, "11-day-old title must not be a duplicate")
}

func TestHasRecentCompanyTitle_DifferentTitle(t *testing.T) {
	db := openTestDB(t)
	dedup := services.NewDedupService(db)

	company := models.Company{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(&company).Error)
	seedJob(t, db, models.Job{Slug: "j1", Title: "Backend Engineer", CompanyID: company.ID})

	dup, err := dedup.HasRecentCompanyTitle(context.Background(), company.ID, "Frontend Engineer")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestHasSimilarFromEmailDomain(t *testing.T) {
	db := openTestDB(t)
	dedup := services.NewDedupService(db)
	ctx := context.Background()

	seedJob(t, db, models.Job{
		Slug: "j1", Title: "Senior Backend Engineer (Go)",
		ApplyEmail: "jobs@acme.io",
	})

	similar, err := dedup.HasSimilarFromEmailDomain(ctx, "acme.io", "Senior Backend Engineer")
	require.NoError(t, err)
	assert.True(t, similar, "near-identical title from same domain must match")

	other, err := dedup.HasSimilarFromEmailDomain(ctx, "other.io", "Senior Backend Engineer")
	require.NoError(t, err)
	assert.False(t, other, "different domain must not match")

	unrelated, err := dedup.HasSimilarFromEmailDomain(ctx, "acme.io", "Head of Marketing")
	require.NoError(t, err)
	assert.False(t, unrelated, "dissimilar title must not match")
}

func TestHasSimilarFromEmailDomain_ThresholdBoundary(t *testing.T) {
	db := openTestDB(t)
	dedup := services.NewDedupService(db)
	ctx := context.Background()

	seedJob(t, db, models.Job{
		Slug: "seed", Title: "alpha beta gamma delta",
		ApplyEmail: "jobs@acme.io",
	})

	// 3 shared tokens over a union of 5: exactly 0.6, which counts.
	atThreshold, err := dedup.HasSimilarFromEmailDomain(ctx, "acme.io", "alpha beta gamma epsilon")
	require.NoError(t, err)
	assert.True(t, atThreshold, "similarity of exactly 0.6 is a duplicate")

	// 3 shared tokens over a union of 6: 0.5, which does not.
	below, err := dedup.HasSimilarFromEmailDomain(ctx, "acme.io", "alpha beta gamma epsilon zeta")
	require.NoError(t, err)
	assert.False(t, below, "similarity of 0.5 is not a duplicate")
}

func TestHasSimilarFromEmailDomain_OutsideWindow(t *testing.T) {
	db := openTestDB(t)
	dedup := services.NewDedupService(db)

	seedJob(t, db, models.Job{
		Slug: "old-post", Title: "Senior Backend Engineer",
		ApplyEmail: "jobs@acme.io",
		CreatedAt:  time.Now().Add(-31 * 24 * time.Hour),
	})

	similar, err := dedup.HasSimilarFromEmailDomain(context.Background(), "acme.io", "Senior Backend Engineer")
	require.NoError(t, err)
	assert.False(t, similar, "posts older than 30 days must not count")
}
