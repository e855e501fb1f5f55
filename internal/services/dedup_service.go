package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/remotehunt/remotehunt/internal/models"
)

const (
	// similarityThreshold is inclusive: exactly 0.6 counts as duplicate.
	similarityThreshold = 0.6

	companyTitleWindow = 10 * 24 * time.Hour
	emailDomainWindow  = 30 * 24 * time.Hour
)

// TitleTokens normalizes a title to its significant word set: lower-cased,
// punctuation stripped, tokens longer than two characters.
func TitleTokens(title string) map[string]struct{} {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	tokens := make(map[string]struct{})
	for _, w := range strings.Fields(b.String()) {
		if len(w) > 2 {
			tokens[w] = struct{}{}
		}
	}
	return tokens
}

// JaccardSimilarity is |intersection| / |union| over the normalized word
// sets, 0 when either set is empty.
func JaccardSimilarity(a, b string) float64 {
	ta, tb := TitleTokens(a), TitleTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	intersection := 0
	for w := range ta {
		if _, ok := tb[w]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

// DedupService runs the optimistic duplicate pre-checks. These only reduce
// wasted work; the Job table's unique constraints are the real safety net.
type DedupService struct {
	DB *gorm.DB
}

func NewDedupService(db *gorm.DB) *DedupService {
	return &DedupService{DB: db}
}

// IsKnownProvenance reports whether a job already exists with the same
// source post id or source URL. Cheapest check, run before extraction.
func (s *DedupService) IsKnownProvenance(ctx context.Context, postID, sourceURL string) (bool, error) {
	query := s.DB.WithContext(ctx).Model(&models.Job{})
	switch {
	case postID != "" && sourceURL != "":
		query = query.Where("source_post_id = ? OR source_url = ?", postID, sourceURL)
	case postID != "":
		query = query.Where("source_post_id = ?", postID)
	case sourceURL != "":
		query = query.Where("source_url = ?", sourceURL)
	default:
		return false, nil
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasSimilarFromEmailDomain reports whether the same apply-email domain
// posted a near-identical title in the last 30 days. Recruiters re-post the
// same role under slightly different phrasing; the word-set similarity
// catches that.
func (s *DedupService) HasSimilarFromEmailDomain(ctx context.Context, emailDomain, title string) (bool, error) {
	if emailDomain == "" || title == "" {
		return false, nil
	}

	cutoff := time.Now().Add(-emailDomainWindow)
	var titles []string
	err := s.DB.WithContext(ctx).Model(&models.Job{}).
		Where("apply_email LIKE ? AND created_at > ?", "%@"+emailDomain, cutoff).
		Pluck("title", &titles).Error
	if err != nil {
		return false, err
	}

	for _, existing := range titles {
		if JaccardSimilarity(existing, title) >= similarityThreshold {
			return true, nil
		}
	}
	return false, nil
}

// HasRecentCompanyTitle reports whether the company already has a job with
// the exact title (case-insensitive) created within the last 10 days. After
// 10 days a repost counts as a legitimately new vacancy.
func (s *DedupService) HasRecentCompanyTitle(ctx context.Context, companyID uint, title string) (bool, error) {
	cutoff := time.Now().Add(-companyTitleWindow)
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Job{}).
		Where("company_id = ? AND LOWER(title) = ? AND created_at > ?",
			companyID, strings.ToLower(title), cutoff).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
