package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"connecthub/internal/model"
)

// maxVideoBytes bounds a downloaded video.
const maxVideoBytes = 512 << 20

// Gemini is the Provider backed by the Gemini API.
type Gemini struct {
	textModel  string
	videoModel string
	httpClient *http.Client

	mu      sync.Mutex
	key     string
	client  *genai.Client
	newFunc func(ctx context.Context, apiKey string) (*genai.Client, error)
}

func NewGemini(textModel, videoModel string) *Gemini {
	return &Gemini{
		textModel:  textModel,
		videoModel: videoModel,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		newFunc: func(ctx context.Context, apiKey string) (*genai.Client, error) {
			return genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  apiKey,
				Backend: genai.BackendGeminiAPI,
			})
		},
	}
}

// clientFor returns a client for apiKey, rebuilding it when the key changed.
func (g *Gemini) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil && g.key == apiKey {
		return g.client, nil
	}
	client, err := g.newFunc(ctx, apiKey)
	if err != nil {
		return nil, classify(fmt.Errorf("create gemini client: %w", err))
	}
	g.client = client
	g.key = apiKey
	return client, nil
}

func (g *Gemini) GenerateText(ctx context.Context, apiKey, prompt string) (string, error) {
	client, err := g.clientFor(ctx, apiKey)
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(ctx, g.textModel, genai.Text(prompt), nil)
	if err != nil {
		return "", classify(err)
	}
	return resp.Text(), nil
}

func (g *Gemini) DescribeImage(ctx context.Context, apiKey string, image []byte, mimeType, prompt string) (string, error) {
	client, err := g.clientFor(ctx, apiKey)
	if err != nil {
		return "", err
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, g.textModel, contents, nil)
	if err != nil {
		return "", classify(err)
	}
	return resp.Text(), nil
}

func (g *Gemini) SearchGrounded(ctx context.Context, apiKey, query string) (*model.SearchAnswer, error) {
	client, err := g.clientFor(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	resp, err := client.Models.GenerateContent(ctx, g.textModel, genai.Text(query), cfg)
	if err != nil {
		return nil, classify(err)
	}

	answer := &model.SearchAnswer{Text: resp.Text(), Sources: []model.Source{}}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			answer.Sources = append(answer.Sources, model.Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
		}
	}
	return answer, nil
}

func (g *Gemini) SubmitVideo(ctx context.Context, apiKey string, req VideoRequest) (*VideoJob, error) {
	client, err := g.clientFor(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	var image *genai.Image
	if len(req.Image) > 0 {
		image = &genai.Image{ImageBytes: req.Image, MIMEType: req.ImageMIMEType}
	}
	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos: int32(req.NumberOfVideos),
		Resolution:     req.Resolution,
		AspectRatio:    req.AspectRatio,
	}

	op, err := client.Models.GenerateVideos(ctx, g.videoModel, req.Prompt, image, cfg)
	if err != nil {
		return nil, classify(err)
	}
	return jobFromOperation(op), nil
}

func (g *Gemini) PollVideo(ctx context.Context, apiKey string, job *VideoJob) (*VideoJob, error) {
	op, ok := job.handle.(*genai.GenerateVideosOperation)
	if !ok {
		return nil, fmt.Errorf("video job %q was not created by this provider", job.Name)
	}
	client, err := g.clientFor(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	next, err := client.Operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return nil, classify(err)
	}
	return jobFromOperation(next), nil
}

// Download fetches the generated video, authenticating with the key as a query parameter.
func (g *Gemini) Download(ctx context.Context, apiKey, uri string) ([]byte, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", fmt.Errorf("parse video uri: %w", err)
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", classify(&statusError{code: resp.StatusCode})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxVideoBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read video: %w", err)
	}
	if len(data) > maxVideoBytes {
		return nil, "", model.ErrFileTooLarge
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func jobFromOperation(op *genai.GenerateVideosOperation) *VideoJob {
	job := &VideoJob{Name: op.Name, Done: op.Done, handle: op}
	if !op.Done {
		return job
	}
	if len(op.Error) > 0 {
		job.Failure = fmt.Sprint(op.Error["message"])
	}
	if op.Response != nil && len(op.Response.GeneratedVideos) > 0 {
		if v := op.Response.GeneratedVideos[0]; v != nil && v.Video != nil {
			job.URI = v.Video.URI
		}
	}
	return job
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// classify maps provider rejections of the credential onto model.ErrAPIKeyInvalid.
func classify(err error) error {
	if err == nil {
		return nil
	}

	code, msg := 0, err.Error()
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	var status *statusError
	switch {
	case errors.As(err, &apiErr):
		code, msg = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr):
		code, msg = apiErrPtr.Code, apiErrPtr.Message
	case errors.As(err, &status):
		code = status.code
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "requested entity was not found"),
		strings.Contains(lower, "api key not valid"),
		strings.Contains(lower, "api_key_invalid"),
		code == http.StatusUnauthorized,
		code == http.StatusForbidden:
		return fmt.Errorf("%w: %v", model.ErrAPIKeyInvalid, err)
	}
	return err
}
