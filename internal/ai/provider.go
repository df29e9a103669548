// Package ai wraps the generative-content provider behind calls that degrade instead of failing.
package ai

import (
	"context"

	"connecthub/internal/model"
)

// VideoRequest describes one video generation job.
type VideoRequest struct {
	Prompt         string
	Image          []byte
	ImageMIMEType  string
	NumberOfVideos int
	Resolution     string
	AspectRatio    string
}

// VideoJob is the provider's view of a submitted video job.
type VideoJob struct {
	Name string
	Done bool
	// URI is set once the job completed with a video.
	URI string
	// Failure is the provider's reason when the job finished without a video.
	Failure string

	handle any
}

// Provider is one external generative-content service. Every call carries the credential
// so it can be replaced at runtime.
type Provider interface {
	GenerateText(ctx context.Context, apiKey, prompt string) (string, error)
	DescribeImage(ctx context.Context, apiKey string, image []byte, mimeType, prompt string) (string, error)
	SearchGrounded(ctx context.Context, apiKey, query string) (*model.SearchAnswer, error)
	SubmitVideo(ctx context.Context, apiKey string, req VideoRequest) (*VideoJob, error)
	PollVideo(ctx context.Context, apiKey string, job *VideoJob) (*VideoJob, error)
	Download(ctx context.Context, apiKey, uri string) ([]byte, string, error)
}
