package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/remotehunt/remotehunt/internal/dtos"
	"github.com/remotehunt/remotehunt/internal/models"
)

// JobHandler serves the minimal read surface the front-end consumes.
type JobHandler struct {
	DB *gorm.DB
}

func NewJobHandler(db *gorm.DB) *JobHandler {
	return &JobHandler{DB: db}
}

// HealthCheck is GET /api/v1/health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListJobs is GET /api/v1/jobs.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var jobs []models.Job
	query := h.DB.Preload("Company").Preload("Category").
		Where("active = ?", true).
		Order("created_at desc").
		Limit(100)

	if category := c.Query("category"); category != "" {
		query = query.Joins("JOIN categories ON categories.id = jobs.category_id").
			Where("categories.slug = ?", category)
	}

	if err := query.Find(&jobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load jobs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// GetJob is GET /api/v1/jobs/:slug.
func (h *JobHandler) GetJob(c *gin.Context) {
	var job models.Job
	err := h.DB.Preload("Company").Preload("Category").
		Where("slug = ?", c.Param("slug")).
		First(&job).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// CreateAlert is POST /api/v1/alerts.
func (h *JobHandler) CreateAlert(c *gin.Context) {
	var req dtos.AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	alert := models.JobAlert{Email: req.Email, Keywords: req.Keywords, Active: true}
	if err := h.DB.Create(&alert).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create alert"})
		return
	}
	c.JSON(http.StatusCreated, alert)
}
