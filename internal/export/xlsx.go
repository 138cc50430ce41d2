package export

import (
	"fmt"
	"io"

	"github.com/anonto42/historical-artifacts/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Artifacts"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []interface{}{
	"ID", "Name", "Type", "Historical Context", "Created At", "Discovered At",
	"Discovered By", "Present Location", "Added By", "Email", "Likes", "Status", "Image",
}

// WriteArtifacts writes a workbook with a header row and one row per artifact.
func WriteArtifacts(w io.Writer, artifacts []models.Artifact) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	for i, a := range artifacts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			a.ID.Hex(), a.ArtifactName, a.ArtifactType, a.HistoricalContext, a.CreatedAt, a.DiscoveredAt,
			a.DiscoveredBy, a.PresentLocation, a.AdderName, a.Email, a.LikeCount, a.Status, a.ArtifactImage,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
