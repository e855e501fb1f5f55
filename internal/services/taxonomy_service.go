package services

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/remotehunt/remotehunt/internal/models"
)

// categoryNames maps taxonomy slugs to display names. An unmapped slug keeps
// the slug as its name.
var categoryNames = map[string]string{
	"engineering":      "Engineering",
	"design":           "Design",
	"product":          "Product",
	"marketing":        "Marketing",
	"sales":            "Sales",
	"customer-support": "Customer Support",
	"data":             "Data",
	"devops-sre":       "DevOps / SRE",
	"finance-legal":    "Finance & Legal",
	"hr-people":        "HR & People",
	"other":            "Other",
}

// CategorySlugs returns the taxonomy slugs in stable order, for prompts.
func CategorySlugs() []string {
	slugs := make([]string, 0, len(categoryNames))
	for s := range categoryNames {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}

// IsKnownCategory reports whether slug is part of the fixed taxonomy.
func IsKnownCategory(slug string) bool {
	_, ok := categoryNames[slug]
	return ok
}

// TaxonomyService owns lazy creation of Category rows.
type TaxonomyService struct {
	DB *gorm.DB
}

func NewTaxonomyService(db *gorm.DB) *TaxonomyService {
	return &TaxonomyService{DB: db}
}

// GetOrCreate returns the category for slug, inserting it if missing. The
// insert is protected by the unique index on slug: when a concurrent worker
// wins the race we re-read their row instead of coordinating in memory.
func (s *TaxonomyService) GetOrCreate(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := s.DB.WithContext(ctx).Where("slug = ?", slug).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	name, ok := categoryNames[slug]
	if !ok {
		name = slug
	}
	category = models.Category{Slug: slug, Name: name}
	err = s.DB.WithContext(ctx).Create(&category).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race; the winner's row is the one we want.
		err = s.DB.WithContext(ctx).Where("slug = ?", slug).First(&category).Error
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}
