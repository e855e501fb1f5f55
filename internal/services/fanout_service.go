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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/remotehunt/remotehunt/internal/models"
)

const (
	alertQueueKey  = "queue:alert_emails"
	socialQueueKey = "queue:social_posts"

	fanoutTimeout = 30 * time.Second
)

var socialChannels = []string{"twitter", "linkedin"}

// FanoutService runs the post-commit side effects: alert matching, social
// promotion and search-engine notification. Everything here is
// fire-and-forget; a committed job is a success no matter what happens below.
type FanoutService struct {
	DB          *gorm.DB
	Redis       *redis.Client
	HTTP        *http.Client
	PingURL     string
	SiteBaseURL string
	Log         *zap.SugaredLogger
}

func NewFanoutService(db *gorm.DB, rdb *redis.Client, pingURL, siteBaseURL string, log *zap.SugaredLogger) *FanoutService {
	return &FanoutService{
		DB:          db,
		Redis:       rdb,
		HTTP:        &http.Client{Timeout: 10 * time.Second},
		PingURL:     pingURL,
		SiteBaseURL: strings.TrimRight(siteBaseURL, "/"),
		Log:         log,
	}
}

// Dispatch runs all fan-out steps for a freshly committed job. Each step
// fails independently and is only logged.
func (s *FanoutService) Dispatch(job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
	defer cancel()

	if err := s.matchAlerts(ctx, job); err != nil {
		s.Log.Warnw("alert fan-out failed", "job", job.Slug, "error", err)
	}
	if err := s.enqueueSocial(ctx, job); err != nil {
		s.Log.Warnw("social fan-out failed", "job", job.Slug, "error", err)
	}
	if err := s.pingSearchEngine(ctx, job); err != nil {
		s.Log.Warnw("search ping failed", "job", job.Slug, "error", err)
	}
}

// matchAlerts finds active alerts whose keywords hit the job and records a
// notification per alert. The (job, alert) unique index makes re-delivery
// idempotent: a duplicate key just means this pair was already sent.
func (s *FanoutService) matchAlerts(ctx context.Context, job *models.Job) error {
	var alerts []models.JobAlert
	if err := s.DB.WithContext(ctx).Where("active = ?", true).Find(&alerts).Error; err != nil {
		return fmt.Errorf("load alerts: %w", err)
	}

	haystack := strings.ToLower(job.Title + " " + strings.Join(job.Skills, " "))
	for _, alert := range alerts {
		if !matchesKeywords(haystack, alert.Keywords) {
			continue
		}

		notification := models.AlertNotification{JobID: job.ID, AlertID: alert.ID}
		err := s.DB.WithContext(ctx).Create(&notification).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("record notification: %w", err)
		}

		if s.Redis != nil {
			payload, _ := json.Marshal(map[string]interface{}{
				"email":    alert.Email,
				"job_id":   job.ID,
				"job_slug": job.Slug,
				"title":    job.Title,
			})
			if err := s.Redis.LPush(ctx, alertQueueKey, payload).Err(); err != nil {
				s.Log.Warnw("alert enqueue failed", "job", job.Slug, "alert", alert.ID, "error", err)
			}
		}
	}
	return nil
}

func matchesKeywords(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// enqueueSocial queues the job for each promotion channel at most once.
func (s *FanoutService) enqueueSocial(ctx context.Context, job *models.Job) error {
	for _, channel := range socialChannels {
		entry := models.SocialQueueEntry{JobID: job.ID, Channel: channel}
		err := s.DB.WithContext(ctx).Create(&entry).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("record social entry: %w", err)
		}

		if s.Redis != nil {
			payload, _ := json.Marshal(map[string]interface{}{
				"channel":  channel,
				"job_id":   job.ID,
				"job_slug": job.Slug,
				"url":      s.jobURL(job),
			})
			if err := s.Redis.LPush(ctx, socialQueueKey, payload).Err(); err != nil {
				s.Log.Warnw("social enqueue failed", "job", job.Slug, "channel", channel, "error", err)
			}
		}
	}
	return nil
}

// pingSearchEngine notifies the search index about the new job page.
func (s *FanoutService) pingSearchEngine(ctx context.Context, job *models.Job) error {
	if s.PingURL == "" {
		return nil
	}
	endpoint := fmt.Sprintf("%s?url=%s", s.PingURL, url.QueryEscape(s.jobURL(job)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("search ping: status %d", resp.StatusCode)
	}
	return nil
}

func (s *FanoutService) jobURL(job *models.Job) string {
	return fmt.Sprintf("%s/jobs/%s", s.SiteBaseURL, job.Slug)
}
