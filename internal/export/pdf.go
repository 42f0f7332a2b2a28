// Package export renders a project's panels as a PDF document: a title
// page followed by two panels per page. It reads project state only and
// never mutates the store.
package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"comicforge-backend/internal/models"
)

const maxSceneChars = 100

// RenderPDF lays out the comic on A4 portrait pages. Panel images are
// drawn as bordered frames with the scene description and the first
// dialogue line; image bytes themselves stay with the image provider.
func RenderPDF(project models.Project) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pageW, pageH := pdf.GetPageSize()

	title := project.Title
	if title == "" {
		title = "Untitled Comic"
	}

	// Title page
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 32)
	pdf.Text(pageW/2-pdf.GetStringWidth(title)/2, pageH/2-20, title)
	pdf.SetFont("Helvetica", "", 14)
	subtitle := "Created with ComicForge"
	pdf.Text(pageW/2-pdf.GetStringWidth(subtitle)/2, pageH/2+10, subtitle)

	for i, panel := range project.Panels {
		if i%2 == 0 {
			pdf.AddPage()
		}

		y := 20.0
		if i%2 == 1 {
			y = pageH/2 + 10
		}

		pdf.SetDrawColor(100, 100, 100)
		pdf.Rect(20, y, pageW-40, pageH/2-30, "D")

		pdf.SetFont("Helvetica", "", 10)
		scene := panel.SceneDescription
		if len(scene) > maxSceneChars {
			scene = scene[:maxSceneChars] + "..."
		}
		pdf.SetXY(25, y+5)
		pdf.MultiCell(pageW-50, 5, scene, "", "L", false)

		if len(panel.Dialogue) > 0 {
			pdf.SetFont("Helvetica", "I", 12)
			line := fmt.Sprintf("%q", panel.Dialogue[0])
			pdf.Text(pageW/2-pdf.GetStringWidth(line)/2, y+pageH/4, line)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
