package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/incapscan/internal/model"
)

const (
	wordDocumentPart = "word/document.xml"
	corePropsPart    = "docProps/core.xml"

	// maxPartSize bounds a single decompressed OOXML part.
	maxPartSize = 64 << 20
)

// coreProperties is docProps/core.xml. Tags carry only local names so the
// dc, cp and dcterms namespaces all match.
type coreProperties struct {
	Creator        string `xml:"creator"`
	LastModifiedBy string `xml:"lastModifiedBy"`
	Created        string `xml:"created"`
	Modified       string `xml:"modified"`
}

// appProperties is docProps/app.xml.
type appProperties struct {
	Application string `xml:"Application"`
	Pages       int    `xml:"Pages"`
}

func (e *Extractor) extractWord(path string, result *model.ExtractionResult) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return fmt.Errorf("%w: %w", ErrNotOOXML, err)
		}
		return err
	}
	defer zr.Close()

	body, err := readPart(&zr.Reader, wordDocumentPart)
	if err != nil {
		return err
	}
	text, err := wordParagraphs(body)
	if err != nil {
		return fmt.Errorf("parse %s: %w", wordDocumentPart, err)
	}
	result.Text = text

	var core coreProperties
	if data, err := readPart(&zr.Reader, corePropsPart); err == nil {
		if err := xml.Unmarshal(data, &core); err != nil {
			e.logger.Debug("core properties unreadable", "error", err)
		}
	}
	var app appProperties
	if data, err := readPart(&zr.Reader, "docProps/app.xml"); err == nil {
		if err := xml.Unmarshal(data, &app); err == nil {
			result.PageCount = app.Pages
		}
	}

	result.AddMetadata("Metadatos Word:", "")
	result.AddMetadata("- Autor:", orNA(core.Creator))
	result.AddMetadata("- Último modificador:", orNA(core.LastModifiedBy))
	result.AddMetadata("- Fecha Creación:", orNA(core.Created))
	result.AddMetadata("- Fecha Modificación:", orNA(core.Modified))
	if app.Application != "" {
		result.AddMetadata("- Aplicación:", app.Application)
	}

	for _, f := range editingSoftwareFindings(app.Application) {
		result.AddFinding(f)
	}
	if core.Creator != "" && core.LastModifiedBy != "" && !strings.EqualFold(core.Creator, core.LastModifiedBy) {
		result.AddFinding(model.NewFinding(model.FindingMetadataModified,
			"Word document modified by a different user",
			"The last modifier differs from the author.",
			"extract"))
	}
	return nil
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, maxPartSize))
	}
	return nil, fmt.Errorf("%s: %w", name, zip.ErrFormat)
}

// wordParagraphs returns the text of every w:p element, one per line.
func wordParagraphs(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		b      strings.Builder
		para   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString(para.String())
				b.WriteByte('\n')
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
