package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/remotehunt/remotehunt/internal/database"
	"github.com/remotehunt/remotehunt/internal/dtos"
	"github.com/remotehunt/remotehunt/internal/models"
	"github.com/remotehunt/remotehunt/internal/services"
)

// openTestDB returns a migrated in-memory database with the same error
// translation the production connection uses.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// fakeExtractor returns a canned candidate.
type fakeExtractor struct {
	candidate *dtos.JobCandidate
	err       error
}

func (f *fakeExtractor) ExtractJob(_ context.Context, raw string) (*dtos.JobCandidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.candidate == nil {
		return nil, nil
	}
	c := *f.candidate
	if c.Skills == nil {
		c.Skills = []string{}
	}
	if c.Benefits == nil {
		c.Benefits = []string{}
	}
	c.RawText = raw
	return &c, nil
}

// fakeClassifier returns a fixed slug.
type fakeClassifier struct {
	slug string
	err  error
}

func (f *fakeClassifier) ClassifyRole(context.Context, string, []string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.slug == "" {
		return "engineering", nil
	}
	return f.slug, nil
}

// fakeIdentityClient serves profiles from a map; unknown domains reject.
type fakeIdentityClient struct {
	profiles     map[string]*services.IdentityProfile
	transportErr error
}

func (f *fakeIdentityClient) Lookup(_ context.Context, domain string) (*services.IdentityProfile, error) {
	if f.transportErr != nil {
		return nil, f.transportErr
	}
	if p, ok := f.profiles[domain]; ok {
		return p, nil
	}
	return nil, services.ErrUnknownDomain
}

// fakeLogoProber answers from a set of domains that have logos.
type fakeLogoProber struct {
	hasLogo map[string]bool
	err     error
}

func (f *fakeLogoProber) HasLogo(_ context.Context, domain string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.hasLogo[domain], nil
}

func (f *fakeLogoProber) LogoURL(domain string) string {
	return "https://logos.test/" + domain
}

// fakeDescriber returns a fixed blurb.
type fakeDescriber struct {
	text string
	err  error
}

func (f *fakeDescriber) Describe(context.Context, string, string) (string, error) {
	return f.text, f.err
}

// recordingDispatcher captures dispatched jobs.
type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []*models.Job
}

func (d *recordingDispatcher) Dispatch(job *models.Job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
}

var errTransport = errors.New("connection reset by peer")

// newTestIngest wires an IngestService over in-memory fakes. The identity
// service knows acme.io (with logo) by default.
func newTestIngest(t *testing.T, db *gorm.DB, extractor services.Extractor) *services.IngestService {
	t.Helper()
	identity := services.NewIdentityService(db,
		&fakeIdentityClient{profiles: map[string]*services.IdentityProfile{
			"acme.io": {
				Name:        "Acme",
				Domain:      "acme.io",
				LogoURL:     "https://logos.test/acme.io",
				Description: "Acme builds infrastructure.",
				Industry:    "Software",
			},
		}},
		&fakeLogoProber{hasLogo: map[string]bool{"acme.io": true}},
		&fakeDescriber{text: "A company."},
		testLogger(),
	)
	return services.NewIngestService(
		db,
		extractor,
		&fakeClassifier{slug: "engineering"},
		services.NewCompanyService(db),
		identity,
		services.NewDedupService(db),
		services.NewTaxonomyService(db),
		nil,
		testLogger(),
	)
}
