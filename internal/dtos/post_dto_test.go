package dtos_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/remotehunt/remotehunt/internal/dtos"
)

func TestNormalize_PrefersCanonicalFields(t *testing.T) {
	p := dtos.WebhookPayload{
		PostID:     "a",
		ID:         "b",
		PostURL:    "https://x/canonical",
		URL:        "https://x/legacy",
		Content:    "canonical",
		Text:       "legacy",
		AuthorName: "Jane",
		Author:     "J.",
	}
	post := p.Normalize("linkedin")
	assert.Equal(t, "a", post.ExternalID)
	assert.Equal(t, "https://x/canonical", post.PostURL)
	assert.Equal(t, "canonical", post.Content)
	assert.Equal(t, "Jane", post.AuthorName)
	assert.Equal(t, "linkedin", post.Source)
}

func TestNormalize_FallsBackThroughVariants(t *testing.T) {
	p := dtos.WebhookPayload{
		ID:          "only-id",
		PostURLAlt:  "https://x/alt",
		PostContent: "only content variant",
		Author:      "Jane",
		Headline:    "CTO | Acme",
	}
	post := p.Normalize("webhook")
	assert.Equal(t, "only-id", post.ExternalID)
	assert.Equal(t, "https://x/alt", post.PostURL)
	assert.Equal(t, "only content variant", post.Content)
	assert.Equal(t, "Jane", post.AuthorName)
	assert.Equal(t, "CTO | Acme", post.AuthorHeadline)
}

func TestLocationType(t *testing.T) {
	assert.Equal(t, "remote", (&dtos.JobCandidate{IsRemote: true}).LocationType())
	assert.Equal(t, "hybrid", (&dtos.JobCandidate{IsHybrid: true}).LocationType())
	assert.Equal(t, "onsite", (&dtos.JobCandidate{}).LocationType())
}
