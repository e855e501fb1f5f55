package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/remotehunt/remotehunt/internal/dtos"
	"github.com/remotehunt/remotehunt/internal/emailutil"
	"github.com/remotehunt/remotehunt/internal/models"
)

// State names the pipeline position a post reached. Terminal skips and
// failures can exit from any state.
type State string

const (
	StateReceived         State = "RECEIVED"
	StateExtracted        State = "EXTRACTED"
	StateEmailValidated   State = "EMAIL_VALIDATED"
	StateDedupChecked     State = "DEDUP_CHECKED"
	StateCompanyResolved  State = "COMPANY_RESOLVED"
	StateCompanyValidated State = "COMPANY_VALIDATED"
	StateClassified       State = "CLASSIFIED"
	StateCommitted        State = "COMMITTED"
)

// Skip reasons. Skips are expected outcomes, not errors: the response is
// still a success and nothing is retried.
const (
	SkipEmptyData           = "empty_data"
	SkipDuplicate           = "duplicate"
	SkipNoTitle             = "no_title"
	SkipNoCorporateEmail    = "no_corporate_email"
	SkipSimilarJobExists    = "similar_job_exists"
	SkipCompanyValidation   = "company_validation_failed"
	SkipDuplicateTitle      = "duplicate_title"
	SkipOnsiteJob           = "onsite_job"
	SkipDuplicateConstraint = "duplicate_constraint"
)

// Result statuses.
const (
	StatusCreated = "created"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Result is the outcome of one pipeline run over one post.
type Result struct {
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	State   State  `json:"state"`
	JobID   uint   `json:"job_id,omitempty"`
	JobSlug string `json:"job_slug,omitempty"`
}

func skipped(state State, reason string) Result {
	return Result{Status: StatusSkipped, Reason: reason, State: state}
}

func failed(state State, err error) Result {
	return Result{Status: StatusFailed, Reason: err.Error(), State: state}
}

// Extractor is the structured-extraction model.
type Extractor interface {
	ExtractJob(ctx context.Context, rawText string) (*dtos.JobCandidate, error)
}

// Classifier maps a role to a taxonomy slug.
type Classifier interface {
	ClassifyRole(ctx context.Context, title string, skills []string) (string, error)
}

// CompanyValidator confirms a resolved company is a real organisation.
type CompanyValidator interface {
	Validate(ctx context.Context, company *models.Company, contactEmail string) (bool, error)
}

// Dispatcher receives committed jobs for post-commit fan-out.
type Dispatcher interface {
	Dispatch(job *models.Job)
}

// IngestService is the pipeline controller: it sequences extraction, dedup,
// company resolution, validation and classification, owns the commit, and
// hands committed jobs to fan-out.
type IngestService struct {
	DB        *gorm.DB
	Extractor Extractor
	Classify  Classifier
	Companies *CompanyService
	Validator CompanyValidator
	Dedup     *DedupService
	Taxonomy  *TaxonomyService
	Fanout    Dispatcher
	Log       *zap.SugaredLogger

	// PostDelay paces batch processing to respect third-party rate limits.
	PostDelay time.Duration
}

func NewIngestService(
	db *gorm.DB,
	extractor Extractor,
	classify Classifier,
	companies *CompanyService,
	validator CompanyValidator,
	dedup *DedupService,
	taxonomy *TaxonomyService,
	fanout Dispatcher,
	log *zap.SugaredLogger,
) *IngestService {
	return &IngestService{
		DB:        db,
		Extractor: extractor,
		Classify:  classify,
		Companies: companies,
		Validator: validator,
		Dedup:     dedup,
		Taxonomy:  taxonomy,
		Fanout:    fanout,
		Log:       log,
		PostDelay: 300 * time.Millisecond,
	}
}

// ProcessPost runs one post through the whole state machine.
func (s *IngestService) ProcessPost(ctx context.Context, post dtos.IncomingPost) Result {
	state := StateReceived

	if post.Content == "" || post.PostURL == "" {
		return skipped(state, SkipEmptyData)
	}

	// Provenance is checked before extraction so a re-delivered post never
	// costs a model call.
	dup, err := s.Dedup.IsKnownProvenance(ctx, post.ExternalID, post.PostURL)
	if err != nil {
		return failed(state, err)
	}
	if dup {
		return skipped(state, SkipDuplicate)
	}

	candidate, err := s.Extractor.ExtractJob(ctx, post.Content)
	if err != nil {
		// Extraction fails closed: the post is skipped as a failure and the
		// batch moves on.
		s.Log.Warnw("extraction failed", "post_url", post.PostURL, "error", err)
		return failed(state, err)
	}
	if candidate == nil {
		return skipped(state, SkipNoTitle)
	}
	state = StateExtracted

	if candidate.ContactMail == "" || !emailutil.IsCorporate(candidate.ContactMail) {
		return skipped(state, SkipNoCorporateEmail)
	}
	state = StateEmailValidated

	similar, err := s.Dedup.HasSimilarFromEmailDomain(ctx, emailutil.Domain(candidate.ContactMail), candidate.Title)
	if err != nil {
		return failed(state, err)
	}
	if similar {
		return skipped(state, SkipSimilarJobExists)
	}
	state = StateDedupChecked

	company, created, err := s.Companies.Resolve(ctx, ResolveInput{
		ExtractedName:  candidate.CompanyName,
		ContactEmail:   candidate.ContactMail,
		AuthorHeadline: post.AuthorHeadline,
		AuthorName:     post.AuthorName,
		LinkedinURL:    candidate.CompanyLinkedin,
	})
	if err != nil {
		return failed(state, err)
	}
	state = StateCompanyResolved

	keep, err := s.Validator.Validate(ctx, company, candidate.ContactMail)
	if err != nil {
		return failed(state, err)
	}
	if !keep {
		if created {
			s.Companies.Delete(ctx, company)
		}
		return skipped(state, SkipCompanyValidation)
	}
	state = StateCompanyValidated

	dupTitle, err := s.Dedup.HasRecentCompanyTitle(ctx, company.ID, candidate.Title)
	if err != nil {
		return failed(state, err)
	}
	if dupTitle {
		return skipped(state, SkipDuplicateTitle)
	}

	slug, err := s.Classify.ClassifyRole(ctx, candidate.Title, candidate.Skills)
	if err != nil {
		s.Log.Warnw("classification failed", "title", candidate.Title, "error", err)
		return failed(state, err)
	}
	category, err := s.Taxonomy.GetOrCreate(ctx, slug)
	if err != nil {
		return failed(state, err)
	}
	state = StateClassified

	// This board lists remote and hybrid roles only.
	if candidate.LocationType() == "onsite" {
		return skipped(state, SkipOnsiteJob)
	}

	job, commitErr := s.commit(ctx, post, candidate, company, category)
	if commitErr != nil {
		if errors.Is(commitErr, gorm.ErrDuplicatedKey) {
			// A concurrent run won the insert race. The constraint is the
			// authoritative tie-breaker, so this is a duplicate, not an error.
			return skipped(state, SkipDuplicateConstraint)
		}
		return failed(state, commitErr)
	}
	state = StateCommitted

	if s.Fanout != nil {
		go s.Fanout.Dispatch(job)
	}

	s.Log.Infow("job created",
		"slug", job.Slug, "company", company.Slug, "category", category.Slug,
		"quality", job.QualityScore,
	)
	return Result{Status: StatusCreated, State: state, JobID: job.ID, JobSlug: job.Slug}
}

// commit inserts the Job row. A slug collision gets one retry with a numeric
// suffix; any further unique violation is a provenance duplicate and bubbles
// up as gorm.ErrDuplicatedKey.
func (s *IngestService) commit(
	ctx context.Context,
	post dtos.IncomingPost,
	candidate *dtos.JobCandidate,
	company *models.Company,
	category *models.Category,
) (*models.Job, error) {
	job := buildJob(post, candidate, company, category)

	err := s.DB.WithContext(ctx).Create(job).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Retry once under a suffixed slug. If the violation was a
		// provenance index rather than the slug, the retry fails the same
		// way and the duplicate propagates.
		job.ID = 0
		job.Slug = fmt.Sprintf("%s-%d", job.Slug, time.Now().Unix()%100000)
		err = s.DB.WithContext(ctx).Create(job).Error
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func buildJob(post dtos.IncomingPost, candidate *dtos.JobCandidate, company *models.Company, category *models.Category) *models.Job {
	job := &models.Job{
		Slug:           Slugify(candidate.Title + " " + company.Slug),
		Title:          candidate.Title,
		Description:    candidate.RawText,
		CompanyID:      company.ID,
		CategoryID:     category.ID,
		LocationText:   candidate.Location,
		LocationType:   candidate.LocationType(),
		Level:          candidate.Level,
		Employment:     candidate.Employment,
		SalaryMin:      candidate.SalaryMin,
		SalaryMax:      candidate.SalaryMax,
		SalaryCurrency: candidate.Currency,
		SalaryPeriod:   candidate.Period,
		Skills:         candidate.Skills,
		Benefits:       candidate.Benefits,
		ApplyEmail:     candidate.ContactMail,
		ApplyURL:       candidate.ApplyURL,
		SourceAuthor:   post.AuthorName,
		QualityScore:   QualityScore(candidate),
		Active:         true,
		PostedAt:       time.Now(),
	}
	if post.ExternalID != "" {
		job.SourcePostID = &post.ExternalID
	}
	if post.PostURL != "" {
		job.SourceURL = &post.PostURL
	}
	return job
}

// QualityScore rates how complete a candidate is, 0..100.
func QualityScore(c *dtos.JobCandidate) int {
	score := 40
	if c.Title != "" {
		score += 15
	}
	if c.CompanyName != "" {
		score += 10
	}
	if c.SalaryMin > 0 || c.SalaryMax > 0 {
		score += 15
	}
	if len(c.Skills) > 0 {
		score += 5
	}
	if len(c.Skills) > 3 {
		score += 5
	}
	if len(c.Benefits) > 0 {
		score += 5
	}
	if c.ContactMail != "" || c.ApplyURL != "" {
		score += 5
	}
	if c.Level == "" {
		score -= 5
	}
	if !c.IsRemote && !c.IsHybrid && c.Location == "" {
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// BatchStats are the counters of one batch run.
type BatchStats struct {
	RunID     string `json:"run_id"`
	Processed int    `json:"processed"`
	Created   int    `json:"created"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// ProcessBatch runs a list of posts sequentially with a fixed inter-post
// delay. One post's failure never aborts the rest; every exit path advances
// a counter.
func (s *IngestService) ProcessBatch(ctx context.Context, posts []dtos.IncomingPost, source string) BatchStats {
	stats := BatchStats{RunID: uuid.NewString()}
	started := time.Now()

	for i, post := range posts {
		if i > 0 {
			time.Sleep(s.PostDelay)
		}
		if ctx.Err() != nil {
			break
		}

		result := s.ProcessPost(ctx, post)
		stats.Processed++
		switch result.Status {
		case StatusCreated:
			stats.Created++
		case StatusSkipped:
			stats.Skipped++
		default:
			stats.Failed++
			s.Log.Errorw("post failed", "post_url", post.PostURL, "state", result.State, "reason", result.Reason)
		}
	}

	log := models.ImportLog{
		RunID:      stats.RunID,
		Source:     source,
		Processed:  stats.Processed,
		Created:    stats.Created,
		Skipped:    stats.Skipped,
		Failed:     stats.Failed,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(&log).Error; err != nil {
		s.Log.Errorw("import log write failed", "run_id", stats.RunID, "error", err)
	}
	return stats
}

// ProcessPending claims queued source posts and runs them as one batch,
// recording each post's outcome on its row.
func (s *IngestService) ProcessPending(ctx context.Context, limit int) (BatchStats, error) {
	var pending []models.SourcePost
	err := s.DB.WithContext(ctx).
		Where("status = ?", "pending").
		Order("created_at asc").
		Limit(limit).
		Find(&pending).Error
	if err != nil {
		return BatchStats{}, fmt.Errorf("load pending posts: %w", err)
	}
	if len(pending) == 0 {
		return BatchStats{RunID: uuid.NewString()}, nil
	}

	stats := BatchStats{RunID: uuid.NewString()}
	started := time.Now()
	source := pending[0].Source

	for i, row := range pending {
		if i > 0 {
			time.Sleep(s.PostDelay)
		}
		if ctx.Err() != nil {
			break
		}

		result := s.ProcessPost(ctx, dtos.IncomingPost{
			ExternalID:     row.ExternalID,
			PostURL:        row.PostURL,
			Content:        row.Content,
			AuthorName:     row.AuthorName,
			AuthorHeadline: row.AuthorHeadline,
			Source:         row.Source,
		})

		stats.Processed++
		status := "processed"
		switch result.Status {
		case StatusCreated:
			stats.Created++
		case StatusSkipped:
			stats.Skipped++
			status = "skipped"
		default:
			stats.Failed++
			status = "failed"
		}
		s.DB.WithContext(ctx).Model(&models.SourcePost{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{"status": status, "reason": result.Reason})
	}

	log := models.ImportLog{
		RunID:      stats.RunID,
		Source:     source,
		Processed:  stats.Processed,
		Created:    stats.Created,
		Skipped:    stats.Skipped,
		Failed:     stats.Failed,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(&log).Error; err != nil {
		s.Log.Errorw("import log write failed", "run_id", stats.RunID, "error", err)
	}
	return stats, nil
}
