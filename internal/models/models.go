package models

import (
	"time"

	"gorm.io/gorm"
)

// Company is the hiring organisation a job belongs to. A company starts out
// unvalidated (IdentityCheckedAt nil) and is enriched exactly once per
// pipeline attempt by the identity validation step.
type Company struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name           string `gorm:"not null" json:"name"`
	NormalizedName string `gorm:"index" json:"-"`
	Slug           string `gorm:"uniqueIndex;not null" json:"slug"`
	Website        string `json:"website"`
	LogoURL        string `json:"logo_url"`
	Description    string `gorm:"type:text" json:"description"`
	Industry       string `json:"industry"`
	Headquarters   string `json:"headquarters"`
	SizeClass      string `json:"size_class"`
	LinkedinURL    string `json:"linkedin_url"`

	// Nil means the identity service has never been asked about this company.
	IdentityCheckedAt *time.Time `json:"identity_checked_at"`

	Jobs []Job `json:"jobs,omitempty"`
}

// Job is a committed listing. The pipeline creates it once and never mutates
// it afterwards; downstream services may flip Active off.
type Job struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Slug  string `gorm:"uniqueIndex;not null" json:"slug"`
	Title string `gorm:"not null" json:"title"`

	// Original post text, kept verbatim for display and re-processing.
	Description string `gorm:"type:text" json:"description"`

	CompanyID  uint     `json:"company_id"`
	Company    Company  `json:"company"`
	CategoryID uint     `json:"category_id"`
	Category   Category `json:"category"`

	LocationText string `json:"location_text"`
	LocationType string `json:"location_type"` // remote, hybrid, onsite
	Level        string `json:"level"`
	Employment   string `json:"employment_type"`

	SalaryMin      int    `json:"salary_min"`
	SalaryMax      int    `json:"salary_max"`
	SalaryCurrency string `json:"salary_currency"`
	SalaryPeriod   string `json:"salary_period"`

	Skills   []string `gorm:"serializer:json" json:"skills"`
	Benefits []string `gorm:"serializer:json" json:"benefits"`

	ApplyEmail string `json:"apply_email"`
	ApplyURL   string `json:"apply_url"`

	// Provenance. Either of these uniquely identifies the originating post;
	// the unique indexes are the authoritative duplicate tie-breaker.
	SourcePostID *string `gorm:"uniqueIndex" json:"source_post_id"`
	SourceURL    *string `gorm:"uniqueIndex" json:"source_url"`
	SourceAuthor string  `json:"source_author"`

	QualityScore int       `json:"quality_score"`
	Active       bool      `gorm:"default:true" json:"active"`
	PostedAt     time.Time `json:"posted_at"`
}

// Category is a taxonomy entry, created lazily when the classifier predicts a
// slug that has no row yet.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
	Name string `gorm:"not null" json:"name"`
}

// SourcePost is a raw post queued for the batch worker. The webhook path
// bypasses this table and feeds the orchestrator directly.
type SourcePost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ExternalID     string `gorm:"index" json:"external_id"`
	PostURL        string `json:"post_url"`
	Content        string `gorm:"type:text" json:"content"`
	AuthorName     string `json:"author_name"`
	AuthorHeadline string `json:"author_headline"`
	Source         string `json:"source"`

	Status string `gorm:"default:'pending';index" json:"status"` // pending, processed, skipped, failed
	Reason string `json:"reason"`
}

// ImportLog records the counters of one batch run.
type ImportLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RunID      string    `gorm:"uniqueIndex" json:"run_id"`
	Source     string    `json:"source"`
	Processed  int       `json:"processed"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// JobAlert is a subscriber's saved search, matched against new jobs at
// fan-out time.
type JobAlert struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Email    string   `gorm:"not null" json:"email"`
	Keywords []string `gorm:"serializer:json" json:"keywords"`
	Active   bool     `gorm:"default:true" json:"active"`
}

// AlertNotification guarantees a job is sent to a given alert at most once.
// The composite unique index is what makes fan-out retries idempotent.
type AlertNotification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	JobID   uint `gorm:"uniqueIndex:idx_alert_once" json:"job_id"`
	AlertID uint `gorm:"uniqueIndex:idx_alert_once" json:"alert_id"`
}

// SocialQueueEntry guarantees a job is enqueued to a social channel at most
// once.
type SocialQueueEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	JobID   uint   `gorm:"uniqueIndex:idx_social_once" json:"job_id"`
	Channel string `gorm:"uniqueIndex:idx_social_once" json:"channel"`
}
