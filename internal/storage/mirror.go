// Package storage mirrors generated panel images from expiring provider
// URLs into a Supabase Storage bucket so comics survive past the
// provider's retention window.
package storage

import (
	"context"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"comicforge-backend/internal/models"
	"comicforge-backend/internal/replicate"
	"comicforge-backend/internal/store"
)

const mirrorConcurrency = 3

// MirrorService downloads generated images and re-uploads them to durable
// storage, rewriting each panel's image reference in the store. Mirroring
// is strictly best-effort: a failure leaves the provider URL in place and
// never fails the generation that produced it.
type MirrorService struct {
	replicateClient *replicate.Client
	supabaseClient  *SupabaseClient
	store           *store.Store
}

func NewMirrorService(replicateClient *replicate.Client, supabaseClient *SupabaseClient, s *store.Store) *MirrorService {
	return &MirrorService{
		replicateClient: replicateClient,
		supabaseClient:  supabaseClient,
		store:           s,
	}
}

// MirrorPanels fans out over the batch with bounded concurrency.
func (m *MirrorService) MirrorPanels(ctx context.Context, projectID string, panels []models.Panel) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(mirrorConcurrency)

	for _, panel := range panels {
		panel := panel
		g.Go(func() error {
			m.mirrorPanel(ctx, projectID, panel)
			return nil
		})
	}
	_ = g.Wait()
}

func (m *MirrorService) mirrorPanel(ctx context.Context, projectID string, panel models.Panel) {
	if panel.ImageURL == "" || strings.Contains(panel.ImageURL, "/storage/v1/object/public/") {
		return
	}

	data, err := m.replicateClient.DownloadImage(ctx, panel.ImageURL)
	if err != nil {
		log.Printf("mirror: download failed for panel %s: %v", panel.ID, err)
		return
	}

	publicURL, err := m.supabaseClient.UploadPanelImage(projectID, panel.ID, imageExt(panel.ImageURL), data)
	if err != nil {
		log.Printf("mirror: upload failed for panel %s: %v", panel.ID, err)
		return
	}

	m.store.SetPanelImageURL(projectID, panel.ID, publicURL)
}

func imageExt(url string) string {
	for _, ext := range []string{"webp", "png", "jpeg", "jpg"} {
		if strings.HasSuffix(url, "."+ext) {
			return ext
		}
	}
	return "webp"
}
