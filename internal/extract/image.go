package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/incapscan/internal/model"
)

// maxImageSize bounds the bytes read for EXIF parsing.
const maxImageSize = 32 << 20

const noExifLine = "- No se detectaron datos EXIF (podría provenir de WhatsApp recortado o screenshot)."

// exifTags is the subset of EXIF relevant to editing and capture.
type exifTags struct {
	Software         string
	DateTime         string
	DateTimeOriginal string
	Make             string
	Model            string
}

func (t exifTags) empty() bool {
	return t == exifTags{}
}

func (e *Extractor) extractImage(ctx context.Context, path string, result *model.ExtractionResult) error {
	// EXIF first: it stays on the result when OCR fails.
	e.addExifMetadata(path, result)

	text, err := e.ocrImage(ctx, path)
	if err != nil {
		return err
	}
	result.Text = text
	result.PageCount = 1
	return nil
}

// addExifMetadata records the EXIF tags and the findings they support.
func (e *Extractor) addExifMetadata(path string, result *model.ExtractionResult) {
	tags, err := readExif(path)
	if err != nil {
		e.logger.Debug("exif unreadable", "error", err)
	}

	result.AddMetadata("Metadatos EXIF Imagen:", "")
	if tags.empty() {
		result.AddMetadata(noExifLine, "")
		result.AddFinding(model.NewFinding(model.FindingNoExif,
			"Image without EXIF data",
			"No EXIF block was found in the image.",
			"extract"))
		return
	}

	date := tags.DateTime
	if date == "" {
		date = tags.DateTimeOriginal
	}
	result.AddMetadata("- Software/Edición:", orNA(tags.Software))
	result.AddMetadata("- Fecha Captura/Edición:", orNA(date))

	if device := strings.TrimSpace(tags.Make + " " + tags.Model); device != "" {
		result.AddMetadata("- Dispositivo:", device)
		result.AddFinding(model.NewFinding(model.FindingCaptureDevice,
			"Capture device recorded",
			"EXIF names the device "+device+".",
			"extract"))
	}
	for _, f := range editingSoftwareFindings(tags.Software) {
		result.AddFinding(f)
	}
	if tags.DateTime != "" && tags.DateTimeOriginal != "" && tags.DateTime != tags.DateTimeOriginal {
		result.AddFinding(model.NewFinding(model.FindingMetadataModified,
			"Image edited after capture",
			fmt.Sprintf("Captured %s, last written %s.", tags.DateTimeOriginal, tags.DateTime),
			"extract"))
	}
}

// ocrImage runs tesseract on one image and normalizes the output.
func (e *Extractor) ocrImage(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.language}
	if e.tessdataDir != "" {
		args = append(args, "--tessdata-dir", e.tessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, err := e.run(ctx, e.tesseract, args...)
	if err != nil {
		return "", err
	}
	return Normalize(string(out)), nil
}

// readExif parses the EXIF block. An image without EXIF returns empty tags
// and the go-exif not-found error.
func readExif(path string) (tags exifTags, err error) {
	defer func() {
		if r := recover(); r != nil {
			tags, err = exifTags{}, fmt.Errorf("exif panic: %v", r)
		}
	}()

	f, err := os.Open(path) //nolint:gosec // path is a caller-owned scratch file
	if err != nil {
		return exifTags{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize))
	if err != nil {
		return exifTags{}, err
	}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return exifTags{}, err
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return exifTags{}, err
	}

	for _, entry := range entries {
		value := strings.TrimSpace(strings.Trim(entry.Formatted, "\x00"))
		if value == "" {
			continue
		}
		switch entry.TagName {
		case "Software", "ProcessingSoftware":
			if tags.Software == "" {
				tags.Software = value
			}
		case "DateTime":
			tags.DateTime = value
		case "DateTimeOriginal":
			tags.DateTimeOriginal = value
		case "Make":
			tags.Make = value
		case "Model":
			tags.Model = value
		}
	}
	return tags, nil
}
