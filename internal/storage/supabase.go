package storage

import (
	"bytes"
	"fmt"

	storage "github.com/supabase-community/storage-go"
)

// SupabaseClient wraps the Supabase Storage bucket that durable panel
// images live in.
type SupabaseClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewSupabaseClient(supabaseURL, publishableKey, bucket string) (*SupabaseClient, error) {
	baseURL := supabaseURL
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	client := storage.NewClient(baseURL+"/storage/v1", publishableKey, nil)

	return &SupabaseClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// UploadPanelImage stores image bytes under comics/{project_id}/{panel_id}
// and returns the public URL.
func (s *SupabaseClient) UploadPanelImage(projectID, panelID, ext string, data []byte) (string, error) {
	storagePath := fmt.Sprintf("comics/%s/%s.%s", projectID, panelID, ext)

	contentType := "image/" + ext
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload panel image: %w", err)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, storagePath), nil
}

// DeleteProjectImages removes every mirrored image for a project.
func (s *SupabaseClient) DeleteProjectImages(projectID string) error {
	prefix := fmt.Sprintf("comics/%s/", projectID)

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) > 0 {
		filePaths := make([]string, len(files))
		for i, file := range files {
			filePaths[i] = file.Name
		}
		if _, err := s.client.RemoveFile(s.bucket, filePaths); err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}
	}

	return nil
}
