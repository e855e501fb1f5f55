package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/remotehunt/remotehunt/internal/emailutil"
	"github.com/remotehunt/remotehunt/internal/models"
)

// recruiterWords flag extracted names that describe an agency rather than the
// company actually hiring.
var recruiterWords = []string{
	"staffing", "recruitment", "recruiting", "recruiter",
	"agency", "hiring", "talent", "headhunt",
}

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9]+`)
	suffixStrip  = regexp.MustCompile(`(?i)\s*-\s*(engineering|technology|tech|careers|jobs)\s*$`)
	trailingTrim = regexp.MustCompile(`[\s.,;:!|·•-]+$`)
)

// NormalizeCompanyName strips trailing punctuation, collapses whitespace and
// drops "- Engineering" style suffixes recruiters bolt onto brand names.
func NormalizeCompanyName(name string) string {
	name = strings.TrimSpace(name)
	name = suffixStrip.ReplaceAllString(name, "")
	name = trailingTrim.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

// Slugify lowercases and reduces a name to a hyphenated slug.
func Slugify(name string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// IsRecruiterName reports whether a name looks like a staffing agency.
func IsRecruiterName(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range recruiterWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// CompanyFromHeadline pulls the employer out of an author headline, e.g.
// "Engineering Manager at Acme | hiring" or "CTO | Acme".
func CompanyFromHeadline(headline string) string {
	headline = strings.TrimSpace(headline)
	if headline == "" {
		return ""
	}

	if i := strings.LastIndex(strings.ToLower(headline), " at "); i >= 0 {
		rest := headline[i+4:]
		if j := strings.IndexAny(rest, "|·•"); j >= 0 {
			rest = rest[:j]
		}
		if name := NormalizeCompanyName(rest); name != "" {
			return name
		}
	}

	parts := strings.Split(headline, "|")
	if len(parts) > 1 {
		if name := NormalizeCompanyName(parts[len(parts)-1]); name != "" {
			return name
		}
	}
	return ""
}

// ResolveInput carries every naming signal one post gives us about the
// hiring company.
type ResolveInput struct {
	ExtractedName  string
	ContactEmail   string
	AuthorHeadline string
	AuthorName     string
	LinkedinURL    string
}

// CompanyService finds or creates the company a candidate belongs to.
type CompanyService struct {
	DB *gorm.DB
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{DB: db}
}

// pickName applies the identity priority: the paying domain first, then the
// extracted name unless it smells like an agency, then the author headline,
// then the author display name.
func pickName(in ResolveInput) string {
	if emailutil.IsCorporate(in.ContactEmail) {
		if name := emailutil.CompanyFromDomain(emailutil.Domain(in.ContactEmail)); name != "" {
			return name
		}
	}
	if name := NormalizeCompanyName(in.ExtractedName); name != "" && !IsRecruiterName(name) {
		return name
	}
	if name := CompanyFromHeadline(in.AuthorHeadline); name != "" {
		return name
	}
	return NormalizeCompanyName(in.AuthorName)
}

// Resolve finds an existing company matching any known signal or creates a
// new one. The second return value reports whether a row was created, which
// decides whether a failed identity validation may delete it.
func (s *CompanyService) Resolve(ctx context.Context, in ResolveInput) (*models.Company, bool, error) {
	name := pickName(in)
	if name == "" {
		return nil, false, fmt.Errorf("no usable company name in post")
	}

	normalized := NormalizeCompanyName(name)
	if existing, err := s.find(ctx, name, normalized, in.LinkedinURL); err != nil {
		return nil, false, err
	} else if existing != nil {
		s.backfillWebsite(ctx, existing, in.ContactEmail)
		return existing, false, nil
	}

	company, err := s.create(ctx, name, normalized, in)
	if err != nil {
		return nil, false, err
	}
	return company, true, nil
}

// find runs the lookup chain; first match wins.
func (s *CompanyService) find(ctx context.Context, name, normalized, linkedinURL string) (*models.Company, error) {
	db := s.DB.WithContext(ctx)
	queries := []func(*models.Company) error{
		func(c *models.Company) error {
			return db.Where("slug = ?", Slugify(normalized)).First(c).Error
		},
		func(c *models.Company) error {
			return db.Where("slug = ?", Slugify(name)).First(c).Error
		},
		func(c *models.Company) error {
			return db.Where("LOWER(name) = ?", strings.ToLower(name)).First(c).Error
		},
		func(c *models.Company) error {
			return db.Where("LOWER(normalized_name) = ?", strings.ToLower(normalized)).First(c).Error
		},
	}
	if linkedinURL != "" {
		queries = append(queries, func(c *models.Company) error {
			return db.Where("linkedin_url = ?", linkedinURL).First(c).Error
		})
	}

	for _, q := range queries {
		var company models.Company
		err := q(&company)
		if err == nil {
			return &company, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// create inserts a new company, suffixing the slug until it is unique. A
// duplicate-key error means a concurrent run created it first, so re-read.
func (s *CompanyService) create(ctx context.Context, name, normalized string, in ResolveInput) (*models.Company, error) {
	base := Slugify(normalized)
	if base == "" {
		base = "company"
	}

	company := models.Company{
		Name:           name,
		NormalizedName: normalized,
		LinkedinURL:    in.LinkedinURL,
	}
	if emailutil.IsCorporate(in.ContactEmail) {
		company.Website = "https://" + emailutil.Domain(in.ContactEmail)
	}

	slug := base
	for attempt := 2; attempt <= 10; attempt++ {
		company.Slug = slug
		err := s.DB.WithContext(ctx).Create(&company).Error
		if err == nil {
			return &company, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		// Slug taken. If the holder is the same company we raced, use it.
		var existing models.Company
		if ferr := s.DB.WithContext(ctx).Where("slug = ?", slug).First(&existing).Error; ferr == nil {
			if strings.EqualFold(existing.NormalizedName, normalized) {
				return &existing, nil
			}
		}
		slug = fmt.Sprintf("%s-%d", base, attempt)
		company.ID = 0
	}
	return nil, fmt.Errorf("could not find a free slug for %q", name)
}

// backfillWebsite fills an existing company's missing website from a
// corporate contact email.
func (s *CompanyService) backfillWebsite(ctx context.Context, company *models.Company, contactEmail string) {
	if company.Website != "" || !emailutil.IsCorporate(contactEmail) {
		return
	}
	company.Website = "https://" + emailutil.Domain(contactEmail)
	s.DB.WithContext(ctx).Model(company).Update("website", company.Website)
}

// Delete removes a company that failed identity validation. Best-effort: a
// company that already owns jobs was matched, not created, and stays.
func (s *CompanyService) Delete(ctx context.Context, company *models.Company) {
	var jobs int64
	s.DB.WithContext(ctx).Model(&models.Job{}).Where("company_id = ?", company.ID).Count(&jobs)
	if jobs > 0 {
		return
	}
	s.DB.WithContext(ctx).Delete(company)
}
