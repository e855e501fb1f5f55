package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/remotehunt/remotehunt/internal/dtos"
)

// maxRawLen caps how much post text we send to the model per call.
const maxRawLen = 20000

const extractionPrompt = `You are a job data extraction agent. Analyze the raw social-media post below and extract a structured job posting.

### INSTRUCTIONS:
1. Ignore hashtags, emoji, engagement bait and unrelated chatter.
2. Extract the fields strictly; if the post is not a job posting, set role_title to null.
3. Output valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "role_title": "Job title (e.g. Senior Backend Engineer) or null",
    "company_name": "Hiring company name or null",
    "company_linkedin": "LinkedIn company page URL if linked in the post, else null",
    "location": "Location text or null",
    "is_remote": true,
    "is_hybrid": false,
    "level": "junior | mid | senior | staff | lead or null",
    "employment_type": "full-time | part-time | contract | internship or null",
    "salary_min": 0,
    "salary_max": 0,
    "salary_currency": "ISO currency code if mentioned, else null",
    "salary_period": "year | month | week | day | hour or null",
    "skills": ["technologies", "mentioned"],
    "benefits": ["perks", "mentioned"],
    "contact_email": "Application email if present, else null",
    "apply_url": "Application link if present, else null"
}

### CONSTRAINT:
Do not hallucinate or guess missing values. Use null.

### RAW POST:
%s
`

const classifyPrompt = `Classify the job below into exactly one of these category slugs:
%s

Respond with the slug only, nothing else.

Title: %s
Skills: %s
`

const describePrompt = `Write a neutral two-sentence description of the company %q (website domain: %s) suitable for a job board company page. Respond with the description only.`

// LLMService wraps the Gemini client. One client is shared across all calls.
type LLMService struct {
	Client  llms.Model
	Timeout time.Duration
}

// NewLLMService initializes the Gemini client.
func NewLLMService(ctx context.Context, apiKey, model string, timeout time.Duration) (*LLMService, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &LLMService{Client: llm, Timeout: timeout}, nil
}

// ExtractJob runs the extraction model over raw post text and normalizes the
// result. A nil candidate with a nil error means the model found no usable
// title; the caller treats that as a terminal skip, not an error.
func (s *LLMService) ExtractJob(ctx context.Context, rawText string) (*dtos.JobCandidate, error) {
	if len(rawText) > maxRawLen {
		rawText = rawText[:maxRawLen]
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(extractionPrompt, rawText))
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	var candidate dtos.JobCandidate
	if err := json.Unmarshal([]byte(stripFences(resp)), &candidate); err != nil {
		return nil, fmt.Errorf("parse extraction output: %w", err)
	}

	candidate.Title = strings.TrimSpace(candidate.Title)
	if candidate.Title == "" || strings.EqualFold(candidate.Title, "null") {
		return nil, nil
	}

	normalizeCandidate(&candidate)
	candidate.RawText = rawText
	return &candidate, nil
}

// ClassifyRole maps a title and skill list to one of the fixed taxonomy
// slugs. Output the model invents falls back to "other".
func (s *LLMService) ClassifyRole(ctx context.Context, title string, skills []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	prompt := fmt.Sprintf(classifyPrompt,
		strings.Join(CategorySlugs(), ", "),
		title,
		strings.Join(skills, ", "),
	)
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt)
	if err != nil {
		return "", fmt.Errorf("classify call: %w", err)
	}

	slug := strings.ToLower(strings.TrimSpace(stripFences(resp)))
	if !IsKnownCategory(slug) {
		slug = "other"
	}
	return slug, nil
}

// Describe produces a best-effort company blurb when the identity service
// returned none. Callers treat failure as non-fatal.
func (s *LLMService) Describe(ctx context.Context, name, domain string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(describePrompt, name, domain))
	if err != nil {
		return "", fmt.Errorf("describe call: %w", err)
	}
	return strings.TrimSpace(resp), nil
}

// stripFences removes a surrounding markdown code fence. Gemini adds one
// often enough despite the prompt telling it not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var validPeriods = map[string]string{
	"year": "year", "yearly": "year", "annual": "year", "annum": "year",
	"month": "month", "monthly": "month",
	"week": "week", "weekly": "week",
	"day": "day", "daily": "day",
	"hour": "hour", "hourly": "hour",
}

// normalizeCandidate enforces the canonical candidate shape: arrays never
// nil, salary enums defaulted to USD/year, strings trimmed.
func normalizeCandidate(c *dtos.JobCandidate) {
	if c.Skills == nil {
		c.Skills = []string{}
	}
	if c.Benefits == nil {
		c.Benefits = []string{}
	}

	c.CompanyName = cleanNullString(c.CompanyName)
	c.CompanyLinkedin = cleanNullString(c.CompanyLinkedin)
	c.Location = cleanNullString(c.Location)
	c.Level = strings.ToLower(cleanNullString(c.Level))
	c.Employment = strings.ToLower(cleanNullString(c.Employment))
	c.ContactMail = strings.ToLower(cleanNullString(c.ContactMail))
	c.ApplyURL = cleanNullString(c.ApplyURL)

	c.Currency = strings.ToUpper(cleanNullString(c.Currency))
	if c.Currency == "" {
		c.Currency = "USD"
	}

	period, ok := validPeriods[strings.ToLower(cleanNullString(c.Period))]
	if !ok {
		period = "year"
	}
	c.Period = period

	if c.SalaryMin < 0 {
		c.SalaryMin = 0
	}
	if c.SalaryMax < 0 {
		c.SalaryMax = 0
	}
}

func cleanNullString(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") {
		return ""
	}
	return s
}
