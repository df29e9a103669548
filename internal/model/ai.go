package model

// Source is a web citation attached to a grounded answer.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// SearchAnswer is the result of a search-grounded question.
type SearchAnswer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// VideoHandle locates generated video bytes in the media store.
type VideoHandle struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// PolishRequest is the body of POST /ai/polish.
type PolishRequest struct {
	Text string `json:"text" validate:"required,max=2200"`
}

// PolishResponse is returned by POST /ai/polish.
type PolishResponse struct {
	Text string `json:"text"`
}

// CaptionResponse is returned by POST /ai/caption.
type CaptionResponse struct {
	Caption string `json:"caption"`
}

// SearchRequest is the body of POST /ai/search.
type SearchRequest struct {
	Query string `json:"query" validate:"required,max=2000"`
}

// CredentialRequest is the body of PUT /ai/credential.
type CredentialRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// PublishVideoRequest turns a generated video into a post.
type PublishVideoRequest struct {
	Prompt string  `json:"prompt" validate:"max=2200"`
	Image  *string `json:"image,omitempty"`
	Video  string  `json:"video" validate:"required"`
}

// Media limits
const (
	MaxImageSizeBytes = 10 * 1024 * 1024
	ContentTypeJPEG   = "image/jpeg"
	ContentTypeMP4    = "video/mp4"
)
