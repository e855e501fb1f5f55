package dtos

import "strings"

// WebhookPayload accepts every historical field-name variant the upstream
// automations have sent for the same logical fields. Nothing past the handler
// boundary ever sees these; Normalize collapses them into an IncomingPost.
type WebhookPayload struct {
	PostID     string `json:"postId"`
	ID         string `json:"id"`
	PostURL    string `json:"postUrl"`
	PostURLAlt string `json:"post_url"`
	URL        string `json:"url"`

	Content     string `json:"content"`
	Text        string `json:"text"`
	PostContent string `json:"postContent"`

	AuthorName     string `json:"authorName"`
	Author         string `json:"author"`
	AuthorHeadline string `json:"authorHeadline"`
	Headline       string `json:"headline"`
}

// IncomingPost is the one canonical shape the pipeline works with.
type IncomingPost struct {
	ExternalID     string
	PostURL        string
	Content        string
	AuthorName     string
	AuthorHeadline string
	Source         string
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Normalize picks the first populated variant of each logical field.
func (p *WebhookPayload) Normalize(source string) IncomingPost {
	return IncomingPost{
		ExternalID:     firstNonEmpty(p.PostID, p.ID),
		PostURL:        firstNonEmpty(p.PostURL, p.PostURLAlt, p.URL),
		Content:        firstNonEmpty(p.Content, p.Text, p.PostContent),
		AuthorName:     firstNonEmpty(p.AuthorName, p.Author),
		AuthorHeadline: firstNonEmpty(p.AuthorHeadline, p.Headline),
		Source:         source,
	}
}
