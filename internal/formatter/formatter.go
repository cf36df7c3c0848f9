// package formatter provides functions to export series data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/shared"
)

// SeriesExport bundles a series with its sermons for export.
type SeriesExport struct {
	Series  *models.SeriesRecord
	Sermons []*models.SermonRecord
}

// ExportToCSV converts a SeriesExport to CSV format with columns: ID, Title, Scripture, Status, Visibility, Date, Tags
func ExportToCSV(export *SeriesExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Scripture", "Status", "Visibility", "Date", "Tags"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, sermon := range export.Sermons {
		record := []string{
			sermon.ID,
			sermon.Title,
			sermon.Scripture,
			string(sermon.Status),
			string(sermon.Visibility),
			formatDate(sermon.Date),
			strings.Join(sermon.Tags, ";"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a SeriesExport to Markdown format with optional cover image
func ExportToMarkdown(export *SeriesExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer
	series := export.Series

	buf.WriteString(fmt.Sprintf("# %s\n\n", series.Title))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	if series.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", series.Description))
	}

	buf.WriteString(fmt.Sprintf("**Status**: %s\n", series.Status))
	if series.StartDate != nil {
		buf.WriteString(fmt.Sprintf("**Starts**: %s\n", formatDate(series.StartDate)))
	}
	if series.EndDate != nil {
		buf.WriteString(fmt.Sprintf("**Ends**: %s\n", formatDate(series.EndDate)))
	}
	buf.WriteString(fmt.Sprintf("**Sermons**: %d\n\n", len(export.Sermons)))

	buf.WriteString("## Sermons\n\n")
	for i, sermon := range export.Sermons {
		scripturePart := ""
		if sermon.Scripture != "" {
			scripturePart = fmt.Sprintf(" (%s)", sermon.Scripture)
		}
		datePart := ""
		if sermon.Date != nil {
			datePart = fmt.Sprintf(" [%s]", formatDate(sermon.Date))
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s%s\n", i+1, sermon.Title, scripturePart, datePart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a SeriesExport to plain text format
func ExportToText(export *SeriesExport) ([]byte, error) {
	var buf bytes.Buffer
	series := export.Series

	buf.WriteString(fmt.Sprintf("Series: %s\n", series.Title))
	if series.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", series.Description))
	}
	buf.WriteString(fmt.Sprintf("Sermons: %d\n\n", len(export.Sermons)))

	for i, sermon := range export.Sermons {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, sermon.Title))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of series metadata (without sermons)
func ToMetadataJSON(series *models.SeriesRecord) ([]byte, error) {
	return shared.MarshalJSON(series, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	SermonsFile  string
	MetadataFile string
}

// WriteCSVExport exports a series to CSV format with accompanying metadata JSON file.
//
// Defaults to series ID as the base filename & creates {base}_sermons.csv and {base}_metadata.json
func WriteCSVExport(export *SeriesExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Series.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	sermonsFile := baseFilepath + "_sermons.csv"
	if err := os.WriteFile(sermonsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Series)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		SermonsFile:  sermonsFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a series to Markdown format in a dedicated directory.
//
// Directory name defaults to the series ID.
// The imageURL parameter is optional - if provided, attempts to download the cover image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(export *SeriesExport, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.Series.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := fmt.Sprintf("%s/%s", outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a series to plain text format.
//
// Defaults to {series.ID}_sermons.txt as the filename.
func WriteTextExport(export *SeriesExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_sermons.txt", export.Series.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

// formatDate renders an optional date as YYYY-MM-DD, empty when unset.
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
