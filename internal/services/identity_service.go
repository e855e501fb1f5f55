package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/remotehunt/remotehunt/internal/emailutil"
	"github.com/remotehunt/remotehunt/internal/models"
)

// ErrUnknownDomain means the identity service has never heard of the domain.
// This is the one lookup failure that rejects the company instead of failing
// open.
var ErrUnknownDomain = errors.New("identity service does not know this domain")

// IdentityProfile is the organisation metadata returned for a known domain.
type IdentityProfile struct {
	Name         string `json:"name"`
	Domain       string `json:"domain"`
	LogoURL      string `json:"logo_url"`
	Description  string `json:"description"`
	Industry     string `json:"industry"`
	Headquarters string `json:"headquarters"`
	SizeClass    string `json:"size"`
	LinkedinURL  string `json:"linkedin_url"`
}

// IdentityClient resolves an email domain to organisation metadata.
type IdentityClient interface {
	Lookup(ctx context.Context, domain string) (*IdentityProfile, error)
}

// LogoProber confirms a domain has a discoverable brand logo.
type LogoProber interface {
	HasLogo(ctx context.Context, domain string) (bool, error)
	LogoURL(domain string) string
}

// Describer produces a fallback company description.
type Describer interface {
	Describe(ctx context.Context, name, domain string) (string, error)
}

// HTTPIdentityClient talks to the company-identity API.
type HTTPIdentityClient struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPIdentityClient(baseURL string, timeout time.Duration) *HTTPIdentityClient {
	return &HTTPIdentityClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Lookup queries the identity API by domain. A 404 or an empty body maps to
// ErrUnknownDomain; anything else that goes wrong is a transport error.
func (c *HTTPIdentityClient) Lookup(ctx context.Context, domain string) (*IdentityProfile, error) {
	endpoint := fmt.Sprintf("%s/v1/companies?domain=%s", c.BaseURL, url.QueryEscape(domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUnknownDomain
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("identity lookup: unexpected status %d", resp.StatusCode)
	}

	var profile IdentityProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if profile.Name == "" && profile.Domain == "" {
		return nil, ErrUnknownDomain
	}
	return &profile, nil
}

// HTTPLogoProber checks a logo-lookup service for a domain's brand image.
type HTTPLogoProber struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPLogoProber(baseURL string, timeout time.Duration) *HTTPLogoProber {
	return &HTTPLogoProber{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// LogoURL is the canonical image URL the probe serves for a domain.
func (p *HTTPLogoProber) LogoURL(domain string) string {
	return fmt.Sprintf("%s/%s", p.BaseURL, url.PathEscape(domain))
}

// HasLogo reports whether the probe serves an image for the domain.
func (p *HTTPLogoProber) HasLogo(ctx context.Context, domain string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.LogoURL(domain), nil)
	if err != nil {
		return false, fmt.Errorf("build logo request: %w", err)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("logo probe: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// IdentityService confirms a freshly resolved company is a real organisation
// and enriches it with firmographic data.
type IdentityService struct {
	DB       *gorm.DB
	Identity IdentityClient
	Logo     LogoProber
	Describe Describer
	Log      *zap.SugaredLogger
}

func NewIdentityService(db *gorm.DB, identity IdentityClient, logo LogoProber, describe Describer, log *zap.SugaredLogger) *IdentityService {
	return &IdentityService{DB: db, Identity: identity, Logo: logo, Describe: describe, Log: log}
}

// Validate returns true when the company should be kept. False means the
// caller must roll back the just-created company. Transport errors from the
// identity service fail open: a flaky third party must not stall ingestion.
func (s *IdentityService) Validate(ctx context.Context, company *models.Company, contactEmail string) (bool, error) {
	// Upstream already filters free providers; keep the invariant anyway.
	if emailutil.IsFreeProvider(contactEmail) {
		return false, nil
	}
	domain := emailutil.Domain(contactEmail)
	if domain == "" {
		return false, nil
	}

	profile, err := s.Identity.Lookup(ctx, domain)
	if errors.Is(err, ErrUnknownDomain) {
		// Mark the check so the domain is not retried on every repost.
		now := time.Now()
		company.IdentityCheckedAt = &now
		if saveErr := s.DB.WithContext(ctx).Save(company).Error; saveErr != nil {
			return false, saveErr
		}
		return false, nil
	}
	if err != nil {
		s.Log.Warnw("identity lookup failed, failing open", "domain", domain, "error", err)
		return true, nil
	}

	s.mergeProfile(company, profile)
	now := time.Now()
	company.IdentityCheckedAt = &now

	if company.LogoURL == "" {
		s.probeLogo(ctx, company, profile, domain)
	}

	if company.Description == "" && s.Describe != nil {
		if text, dErr := s.Describe.Describe(ctx, company.Name, domain); dErr == nil && text != "" {
			company.Description = text
		} else if dErr != nil {
			s.Log.Debugw("description fallback failed", "company", company.Name, "error", dErr)
		}
	}

	if err := s.DB.WithContext(ctx).Save(company).Error; err != nil {
		return false, err
	}

	if company.LogoURL == "" {
		// A company nobody can put a face to does not make the board.
		return false, nil
	}
	return true, nil
}

// probeLogo tries the canonical website domain first, then the raw email
// domain as a last resort. Probe errors fall open: the logo requirement is
// only enforced on a definitive miss.
func (s *IdentityService) probeLogo(ctx context.Context, company *models.Company, profile *IdentityProfile, emailDomain string) {
	candidates := []string{}
	if profile.Domain != "" {
		candidates = append(candidates, profile.Domain)
	}
	if emailDomain != "" && emailDomain != profile.Domain {
		candidates = append(candidates, emailDomain)
	}

	for _, d := range candidates {
		ok, err := s.Logo.HasLogo(ctx, d)
		if err != nil {
			s.Log.Warnw("logo probe failed", "domain", d, "error", err)
			// Can't prove absence; take the probe URL and move on.
			company.LogoURL = s.Logo.LogoURL(d)
			return
		}
		if ok {
			company.LogoURL = s.Logo.LogoURL(d)
			return
		}
	}
}

// mergeProfile copies identity data into the company row. Identity values
// win over whatever the extraction guessed, but never blank out a field.
func (s *IdentityService) mergeProfile(company *models.Company, profile *IdentityProfile) {
	if profile.Name != "" {
		company.Name = profile.Name
		company.NormalizedName = NormalizeCompanyName(profile.Name)
	}
	if profile.Domain != "" && company.Website == "" {
		company.Website = "https://" + profile.Domain
	}
	if profile.LogoURL != "" {
		company.LogoURL = profile.LogoURL
	}
	if profile.Description != "" {
		company.Description = profile.Description
	}
	if profile.Industry != "" {
		company.Industry = profile.Industry
	}
	if profile.Headquarters != "" {
		company.Headquarters = profile.Headquarters
	}
	if profile.SizeClass != "" {
		company.SizeClass = profile.SizeClass
	}
	if profile.LinkedinURL != "" {
		company.LinkedinURL = profile.LinkedinURL
	}
}
