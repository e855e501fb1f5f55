package services_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotehunt/remotehunt/internal/models"
	"github.com/remotehunt/remotehunt/internal/services"
)

func TestDispatch_AlertsMatchedAtMostOnce(t *testing.T) {
	db := openTestDB(t)
	fanout := services.NewFanoutService(db, nil, "", "https://remotehunt.test", testLogger())

	require.NoError(t, db.Create(&models.JobAlert{
		Email: "dev@example.com", Keywords: []string{"backend"}, Active: true,
	}).Error)
	require.NoError(t, db.Create(&models.JobAlert{
		Email: "designer@example.com", Keywords: []string{"figma"}, Active: true,
	}).Error)
	require.NoError(t, db.Create(&models.JobAlert{
		Email: "inactive@example.com", Keywords: []string{"backend"}, Active: false,
	}).Error)

	job := seedJob(t, db, models.Job{
		Slug: "senior-backend-engineer-acme", Title: "Senior Backend Engineer",
		Skills: []string{"Go"},
	})

	fanout.Dispatch(&job)
	// Re-delivery must be idempotent.
	fanout.Dispatch(&job)

	var notifications int64
	db.Model(&models.AlertNotification{}).Count(&notifications)
	assert.EqualValues(t, 1, notifications, "only the matching active alert, exactly once")
}

func TestDispatch_SocialQueueAtMostOncePerChannel(t *testing.T) {
	db := openTestDB(t)
	fanout := services.NewFanoutService(db, nil, "", "https://remotehunt.test", testLogger())

	job := seedJob(t, db, models.Job{Slug: "j1", Title: "Engineer"})

	fanout.Dispatch(&job)
	fanout.Dispatch(&job)

	var entries []models.SocialQueueEntry
	require.NoError(t, db.Find(&entries).Error)
	assert.Len(t, entries, 2, "one entry per channel, second dispatch adds nothing")

	channels := map[string]bool{}
	for _, e := range entries {
		channels[e.Channel] = true
	}
	assert.True(t, channels["twitter"])
	assert.True(t, channels["linkedin"])
}

func TestDispatch_PingsSearchEngine(t *testing.T) {
	db := openTestDB(t)

	var pinged atomic.Int32
	var lastURL atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pinged.Add(1)
		lastURL.Store(r.URL.Query().Get("url"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fanout := services.NewFanoutService(db, nil, server.URL, "https://remotehunt.test", testLogger())
	job := seedJob(t, db, models.Job{Slug: "ping-me", Title: "Engineer"})

	fanout.Dispatch(&job)

	assert.EqualValues(t, 1, pinged.Load())
	assert.Equal(t, "https://remotehunt.test/jobs/ping-me", lastURL.Load())
}

func TestDispatch_PingFailureIsSwallowed(t *testing.T) {
	db := openTestDB(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fanout := services.NewFanoutService(db, nil, server.URL, "https://remotehunt.test", testLogger())
	job := seedJob(t, db, models.Job{Slug: "j1", Title: "Engineer"})

	// Must not panic or propagate; the job is already committed.
	fanout.Dispatch(&job)
}
