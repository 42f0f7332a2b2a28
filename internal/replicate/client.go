package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Models used for the two generation modes. Text-to-image goes through
// Flux Schnell; image-to-image goes through SDXL, which must be addressed
// by version hash.
const (
	textToImageModel  = "black-forest-labs/flux-schnell"
	imageToImageModel = "stability-ai/sdxl"
	sdxlVersion       = "7762fd07cf82c948538e41f63f77d685e02b063e37e496e96eefd46c929f9bdc"
)

// Generation modes.
const (
	ModeTextToImage  = "text-to-image"
	ModeImageToImage = "image-to-image"
)

// ErrNoImage is returned when the provider accepted the request but
// produced no image. Callers must treat it as distinct from a failed
// request.
var ErrNoImage = errors.New("no image generated")

type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *gocache.Cache
}

// GenerateOptions tunes a single generation request. Zero values select
// the defaults used for comic panels.
type GenerateOptions struct {
	AspectRatio    string // default "2:3"
	Seed           int    // 0 means let the provider pick
	ReferenceImage string // base64 data URI or URL, image-to-image only
	Mode           string // ModeTextToImage or ModeImageToImage
	PromptStrength float64
	GuidanceScale  float64
	InferenceSteps int
	OutputFormat   string
	OutputQuality  int
}

type predictionRequest struct {
	Version string                 `json:"version,omitempty"`
	Input   map[string]interface{} `json:"input"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"` // starting, processing, succeeded, failed, canceled
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		// Replicate free-tier limit is comfortably above this; the limiter
		// keeps a batch of panels from bursting.
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		cache:   gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// Generate runs a prediction and returns the URL of the first generated
// image. Identical seeded requests are deterministic upstream, so results
// are briefly cached to absorb duplicate calls.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	cacheKey := fmt.Sprintf("%s|%s|%d|%s", opts.Mode, prompt, opts.Seed, opts.ReferenceImage)
	if opts.Seed != 0 {
		if url, found := c.cache.Get(cacheKey); found {
			return url.(string), nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	var (
		pred *predictionResponse
		err  error
	)
	if opts.Mode == ModeImageToImage && opts.ReferenceImage != "" {
		pred, err = c.createVersionPrediction(ctx, sdxlVersion, imageToImageInput(prompt, opts))
	} else {
		pred, err = c.createModelPrediction(ctx, textToImageModel, textToImageInput(prompt, opts))
	}
	if err != nil {
		return "", err
	}

	pred, err = c.waitForPrediction(ctx, pred)
	if err != nil {
		return "", err
	}

	urls, err := decodeOutput(pred.Output)
	if err != nil {
		return "", fmt.Errorf("failed to decode prediction output: %w", err)
	}
	if len(urls) == 0 {
		return "", ErrNoImage
	}

	if opts.Seed != 0 {
		c.cache.Set(cacheKey, urls[0], gocache.DefaultExpiration)
	}
	return urls[0], nil
}

func textToImageInput(prompt string, opts GenerateOptions) map[string]interface{} {
	input := map[string]interface{}{
		"prompt":         prompt,
		"aspect_ratio":   defaultString(opts.AspectRatio, "2:3"),
		"num_outputs":    1,
		"output_format":  defaultString(opts.OutputFormat, "webp"),
		"output_quality": defaultInt(opts.OutputQuality, 90),
	}
	if opts.Seed != 0 {
		input["seed"] = opts.Seed
	}
	return input
}

func imageToImageInput(prompt string, opts GenerateOptions) map[string]interface{} {
	input := map[string]interface{}{
		"prompt":              prompt,
		"image":               opts.ReferenceImage,
		"prompt_strength":     defaultFloat(opts.PromptStrength, 0.75),
		"num_outputs":         1,
		"scheduler":           "K_EULER",
		"guidance_scale":      defaultFloat(opts.GuidanceScale, 7.5),
		"num_inference_steps": defaultInt(opts.InferenceSteps, 30),
	}
	if opts.Seed != 0 {
		input["seed"] = opts.Seed
	}
	return input
}

// createModelPrediction hits the model-scoped predictions endpoint, used
// for official models addressed by name.
func (c *Client) createModelPrediction(ctx context.Context, model string, input map[string]interface{}) (*predictionResponse, error) {
	url := strings.TrimSuffix(c.baseURL, "/") + "/models/" + model + "/predictions"
	return c.postPrediction(ctx, url, predictionRequest{Input: input})
}

// createVersionPrediction hits the generic predictions endpoint with an
// explicit version hash, required for community models like SDXL.
func (c *Client) createVersionPrediction(ctx context.Context, version string, input map[string]interface{}) (*predictionResponse, error) {
	url := strings.TrimSuffix(c.baseURL, "/") + "/predictions"
	return c.postPrediction(ctx, url, predictionRequest{Version: version, Input: input})
}

func (c *Client) postPrediction(ctx context.Context, url string, reqBody predictionRequest) (*predictionResponse, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	// Hold the connection until the prediction finishes when possible.
	req.Header.Set("Prefer", "wait")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("failed to create prediction: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result predictionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}
	return &result, nil
}

// waitForPrediction polls until the prediction reaches a terminal status.
func (c *Client) waitForPrediction(ctx context.Context, pred *predictionResponse) (*predictionResponse, error) {
	for {
		switch pred.Status {
		case "succeeded":
			return pred, nil
		case "failed", "canceled":
			if pred.Error != "" {
				return nil, fmt.Errorf("prediction %s: %s", pred.Status, pred.Error)
			}
			return nil, fmt.Errorf("prediction %s", pred.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}

		next, err := c.getPrediction(ctx, pred)
		if err != nil {
			return nil, err
		}
		pred = next
	}
}

func (c *Client) getPrediction(ctx context.Context, pred *predictionResponse) (*predictionResponse, error) {
	url := pred.URLs.Get
	if url == "" {
		url = strings.TrimSuffix(c.baseURL, "/") + "/predictions/" + pred.ID
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get prediction: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// decodeOutput tolerates the two output shapes Replicate models use: a
// list of URLs or a single URL string.
func decodeOutput(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err == nil {
		return urls, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil, nil
		}
		return []string{single}, nil
	}
	return nil, fmt.Errorf("unexpected output shape: %s", string(raw))
}

// DownloadImage fetches a generated artifact. Provider URLs expire, so
// callers that need durable copies should mirror the bytes elsewhere.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to download image: status %d, body: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// RetryWithBackoff executes a function with exponential backoff retry logic.
func (c *Client) RetryWithBackoff(fn func() error, maxRetries int) error {
	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < len(backoffs) {
			time.Sleep(backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func defaultString(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

func defaultInt(v, d int) int {
	if v == 0 {
		return d
	}
	return v
}

func defaultFloat(v, d float64) float64 {
	if v == 0 {
		return d
	}
	return v
}
