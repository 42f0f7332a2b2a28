package replicate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicforge-backend/internal/replicate"
)

func TestGenerate_TextToImage(t *testing.T) {
	var gotPath string
	var gotInput map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body struct {
			Input map[string]interface{} `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotInput = body.Input

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pred-1",
			"status": "succeeded",
			"output": []string{"https://images.test/out.webp"},
		})
	}))
	defer server.Close()

	client := replicate.NewClient(server.URL+"/", "test-token")
	url, err := client.Generate(context.Background(), "a comic panel", replicate.GenerateOptions{
		Mode: replicate.ModeTextToImage,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://images.test/out.webp", url)
	assert.Equal(t, "/models/black-forest-labs/flux-schnell/predictions", gotPath)
	assert.Equal(t, "a comic panel", gotInput["prompt"])
	assert.Equal(t, "2:3", gotInput["aspect_ratio"])
	assert.Equal(t, "webp", gotInput["output_format"])
	assert.NotContains(t, gotInput, "seed", "zero seed must be omitted")
}

func TestGenerate_ImageToImageUsesSDXLVersion(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pred-2",
			"status": "succeeded",
			"output": []string{"https://images.test/styled.png"},
		})
	}))
	defer server.Close()

	client := replicate.NewClient(server.URL+"/", "test-token")
	url, err := client.Generate(context.Background(), "comicify this", replicate.GenerateOptions{
		Mode:           replicate.ModeImageToImage,
		ReferenceImage: "https://images.test/source.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://images.test/styled.png", url)
	assert.Equal(t, "/predictions", gotPath)
	assert.NotEmpty(t, gotBody["version"])

	input := gotBody["input"].(map[string]interface{})
	assert.Equal(t, "https://images.test/source.jpg", input["image"])
	assert.InDelta(t, 0.75, input["prompt_strength"], 0.001)
	assert.InDelta(t, 7.5, input["guidance_scale"], 0.001)
	assert.EqualValues(t, 30, input["num_inference_steps"])
}

func TestGenerate_PollsUntilTerminal(t *testing.T) {
	polls := 0
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/models/black-forest-labs/flux-schnell/predictions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pred-3",
			"status": "processing",
			"urls":   map[string]string{"get": server.URL + "/predictions/pred-3"},
		})
	})
	mux.HandleFunc("/predictions/pred-3", func(w http.ResponseWriter, r *http.Request) {
		polls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pred-3",
			"status": "succeeded",
			"output": []string{"https://images.test/late.webp"},
		})
	})

	client := replicate.NewClient(server.URL+"/", "test-token")
	url, err := client.Generate(context.Background(), "p", replicate.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://images.test/late.webp", url)
	assert.Equal(t, 1, polls)
}

func TestGenerate_FailedPrediction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pred-4",
			"status": "failed",
			"error":  "NSFW content detected",
		})
	}))
	defer server.Close()

	client := replicate.NewClient(server.URL+"/", "test-token")
	_, err := client.Generate(context.Background(), "p", replicate.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NSFW content detected")
}

func TestGenerate_NoImageIsDistinctFromFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pred-5",
			"status": "succeeded",
			"output": []string{},
		})
	}))
	defer server.Close()

	client := replicate.NewClient(server.URL+"/", "test-token")
	_, err := client.Generate(context.Background(), "p", replicate.GenerateOptions{})
	assert.ErrorIs(t, err, replicate.ErrNoImage)
}

func TestGenerate_SingleStringOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pred-6",
			"status": "succeeded",
			"output": "https://images.test/single.webp",
		})
	}))
	defer server.Close()

	client := replicate.NewClient(server.URL+"/", "test-token")
	url, err := client.Generate(context.Background(), "p", replicate.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://images.test/single.webp", url)
}

func TestGenerate_RequestFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Invalid token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := replicate.NewClient(server.URL+"/", "bad-token")
	_, err := client.Generate(context.Background(), "p", replicate.GenerateOptions{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, replicate.ErrNoImage)
	assert.Contains(t, err.Error(), "status 401")
}

func TestGenerate_SeededRequestsAreCached(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pred-7",
			"status": "succeeded",
			"output": []string{"https://images.test/cached.webp"},
		})
	}))
	defer server.Close()

	client := replicate.NewClient(server.URL+"/", "test-token")
	opts := replicate.GenerateOptions{Seed: 12345}

	first, err := client.Generate(context.Background(), "p", opts)
	require.NoError(t, err)
	second, err := client.Generate(context.Background(), "p", opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, requests, "identical seeded request must be served from cache")
}

func TestDownloadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	client := replicate.NewClient("https://api.test/v1/", "test-token")
	data, err := client.DownloadImage(context.Background(), server.URL+"/img.webp")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
}

func TestRetryWithBackoff(t *testing.T) {
	client := replicate.NewClient("https://api.test/v1/", "test-token")

	callCount := 0
	err := client.RetryWithBackoff(func() error {
		callCount++
		if callCount < 3 {
			return assert.AnError
		}
		return nil
	}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	client := replicate.NewClient("https://api.test/v1/", "test-token")

	err := client.RetryWithBackoff(func() error {
		return assert.AnError
	}, 3)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}
