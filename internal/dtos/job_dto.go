package dtos

// JobCandidate is the structured output of the extraction model after
// normalization. It has no identity; it lives only for the duration of one
// pipeline run.
type JobCandidate struct {
	Title           string   `json:"role_title"`
	CompanyName     string   `json:"company_name"`
	CompanyLinkedin string   `json:"company_linkedin"`
	Location        string   `json:"location"`
	IsRemote        bool     `json:"is_remote"`
	IsHybrid        bool     `json:"is_hybrid"`
	Level           string   `json:"level"`
	Employment      string   `json:"employment_type"`
	SalaryMin       int      `json:"salary_min"`
	SalaryMax       int      `json:"salary_max"`
	Currency        string   `json:"salary_currency"`
	Period          string   `json:"salary_period"`
	Skills          []string `json:"skills"`
	Benefits        []string `json:"benefits"`
	ContactMail     string   `json:"contact_email"`
	ApplyURL        string   `json:"apply_url"`

	// Not part of the model output; carried along from the source post.
	RawText string `json:"-"`
}

// LocationType maps the remote flags to the persisted enum.
func (c *JobCandidate) LocationType() string {
	switch {
	case c.IsRemote:
		return "remote"
	case c.IsHybrid:
		return "hybrid"
	default:
		return "onsite"
	}
}

// AlertRequest creates a saved-search subscription.
type AlertRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Keywords []string `json:"keywords" binding:"required,min=1"`
}
