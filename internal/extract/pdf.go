package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/nao1215/incapscan/internal/model"
)

// maxRawScan limits how much of a PDF is scanned for raw metadata.
const maxRawScan = 32 << 20

var disableConfigDir sync.Once

// pdfInfo is the document information dictionary plus XMP hints.
type pdfInfo struct {
	Author       string
	Creator      string
	Producer     string
	CreationDate string
	ModDate      string
	CreatorTool  string
	Pages        int
}

func (e *Extractor) extractPDF(ctx context.Context, path string, result *model.ExtractionResult) error {
	// Metadata first: it stays on the result when the text step fails.
	structurePages := addPDFMetadata(path, result)

	text, pages, err := e.pdfToTextLayer(ctx, path)
	if err != nil {
		return err
	}

	if strings.TrimSpace(text) == "" {
		// Scanned certificate without a text layer.
		ocrText, ocrPages, ocrErr := e.pdfToOCR(ctx, path)
		if ocrErr != nil {
			e.logger.Warn("pdf OCR fallback failed", "error", ocrErr)
		} else {
			text, pages = ocrText, ocrPages
		}
	}
	result.Text = text
	result.PageCount = pages
	if structurePages > 0 {
		result.PageCount = structurePages
	}
	return nil
}

// addPDFMetadata records the information dictionary and the findings it
// supports. It returns the page count of the document structure, 0 when
// unknown.
func addPDFMetadata(path string, result *model.ExtractionResult) int {
	info, metaErr := readPDFInfo(path)
	result.AddMetadata("Metadatos PDF:", "")
	if metaErr != nil {
		result.AddMetadata("- Error leyendo metadatos PDF:", metaErr.Error())
		result.AddFinding(model.NewFinding(model.FindingMetadataUnreadable,
			"PDF metadata could not be parsed",
			metaErr.Error(),
			"extract"))
		info = scanRawPDFInfo(path)
	}

	result.AddMetadata("- Autor:", orNA(info.Author))
	result.AddMetadata("- Creador/Software:", orNA(info.Creator))
	result.AddMetadata("- Productor/Herramienta:", orNA(info.Producer))
	result.AddMetadata("- Fecha Creación:", orNA(formatPDFDate(info.CreationDate)))
	result.AddMetadata("- Fecha Modificación:", orNA(formatPDFDate(info.ModDate)))
	if info.CreatorTool != "" {
		result.AddMetadata("- Herramienta XMP:", info.CreatorTool)
	}
	if info.Pages > 0 {
		result.AddMetadata("- Páginas:", strconv.Itoa(info.Pages))
	}

	for _, f := range editingSoftwareFindings(info.Creator, info.Producer, info.CreatorTool) {
		result.AddFinding(f)
	}
	if info.CreationDate != "" && info.ModDate != "" && info.CreationDate != info.ModDate {
		result.AddFinding(model.NewFinding(model.FindingMetadataModified,
			"PDF modified after creation",
			fmt.Sprintf("Created %s, modified %s.", formatPDFDate(info.CreationDate), formatPDFDate(info.ModDate)),
			"extract"))
	}
	return info.Pages
}

// pdfToTextLayer runs pdftotext. A form feed separates pages.
func (e *Extractor) pdfToTextLayer(ctx context.Context, path string) (string, int, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, err := e.run(ctx, e.pdfToText, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, err
	}

	raw := strings.Split(string(out), "\f")
	pages := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = Normalize(p); p != "" {
			pages = append(pages, p)
		}
	}
	return strings.Join(pages, "\n"), len(pages), nil
}

// pdfToOCR rasterizes the PDF and OCRs every page in order.
func (e *Extractor) pdfToOCR(ctx context.Context, path string) (string, int, error) {
	tmpDir, err := os.MkdirTemp("", "incapscan-pp-*")
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove raster dir", "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	if _, err := e.run(ctx, e.pdfToPPM, "-r", strconv.Itoa(e.dpi), "-png", path, prefix); err != nil {
		return "", 0, err
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return "", 0, err
	}
	sortPageImages(matches)
	if e.maxOCRPages > 0 && len(matches) > e.maxOCRPages {
		matches = matches[:e.maxOCRPages]
	}
	if len(matches) == 0 {
		return "", 0, ErrNoPagesRendered
	}

	pages := make([]string, 0, len(matches))
	for _, img := range matches {
		txt, err := e.ocrImage(ctx, img)
		if err != nil {
			e.logger.Warn("page OCR failed", "error", err)
			continue
		}
		if txt != "" {
			pages = append(pages, txt)
		}
	}
	return strings.Join(pages, "\n"), len(matches), nil
}

// sortPageImages orders page-1.png, page-2.png, ..., page-10.png numerically.
// pdftoppm zero-pads only when the page count needs it.
func sortPageImages(paths []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		i := strings.LastIndexByte(base, '-')
		n, err := strconv.Atoi(base[i+1:])
		if err != nil {
			return 0
		}
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool { return num(paths[i]) < num(paths[j]) })
}

// readPDFInfo reads the information dictionary with pdfcpu.
// Relaxed validation accepts the slightly broken files many HIS exports produce.
func readPDFInfo(path string) (info pdfInfo, err error) {
	disableConfigDir.Do(api.DisableConfigDir)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	f, err := os.Open(path) //nolint:gosec // path is a caller-owned scratch file
	if err != nil {
		return pdfInfo{}, err
	}
	defer f.Close()

	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	pdfCtx, err := api.ReadAndValidate(f, conf)
	if err != nil {
		return pdfInfo{}, err
	}

	// Context also embeds the Configuration, which has its own CreationDate.
	xrt := pdfCtx.XRefTable
	info = pdfInfo{
		Author:       strings.TrimSpace(xrt.Author),
		Creator:      strings.TrimSpace(xrt.Creator),
		Producer:     strings.TrimSpace(xrt.Producer),
		CreationDate: strings.TrimSpace(xrt.CreationDate),
		ModDate:      strings.TrimSpace(xrt.ModDate),
		Pages:        xrt.PageCount,
	}

	// pdfcpu does not surface XMP; take the creator tool from the raw stream.
	if _, err := f.Seek(0, io.SeekStart); err == nil {
		if data, err := io.ReadAll(io.LimitReader(f, maxRawScan)); err == nil {
			info.CreatorTool = firstSubmatch(xmpCreatorTool, string(data))
		}
	}
	return info, nil
}

var (
	infoPatterns = map[string]*regexp.Regexp{
		"author":       regexp.MustCompile(`/Author\s*\(((?:\\.|[^\\)])*)\)|/Author\s*<([0-9A-Fa-f\s]+)>`),
		"creator":      regexp.MustCompile(`/Creator\s*\(((?:\\.|[^\\)])*)\)|/Creator\s*<([0-9A-Fa-f\s]+)>`),
		"producer":     regexp.MustCompile(`/Producer\s*\(((?:\\.|[^\\)])*)\)|/Producer\s*<([0-9A-Fa-f\s]+)>`),
		"creationDate": regexp.MustCompile(`/CreationDate\s*\(([^)]*)\)`),
		"modDate":      regexp.MustCompile(`/ModDate\s*\(([^)]*)\)`),
	}
	xmpCreatorTool = regexp.MustCompile(`xmp:CreatorTool>([^<]+)<`)
	xmpProducer    = regexp.MustCompile(`pdf:Producer>([^<]+)<`)
	rePageObject   = regexp.MustCompile(`/Type\s*/Page[^s]`)
)

// scanRawPDFInfo is the fallback used when pdfcpu cannot parse the file.
// It pattern-matches the information dictionary and XMP packet.
func scanRawPDFInfo(path string) pdfInfo {
	f, err := os.Open(path) //nolint:gosec // path is a caller-owned scratch file
	if err != nil {
		return pdfInfo{}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxRawScan))
	if err != nil {
		return pdfInfo{}
	}
	content := string(data)

	info := pdfInfo{
		Author:       infoValue(infoPatterns["author"], content),
		Creator:      infoValue(infoPatterns["creator"], content),
		Producer:     infoValue(infoPatterns["producer"], content),
		CreationDate: infoValue(infoPatterns["creationDate"], content),
		ModDate:      infoValue(infoPatterns["modDate"], content),
		CreatorTool:  firstSubmatch(xmpCreatorTool, content),
		Pages:        len(rePageObject.FindAllStringIndex(content, -1)),
	}
	if info.Producer == "" {
		info.Producer = firstSubmatch(xmpProducer, content)
	}
	return info
}

func infoValue(re *regexp.Regexp, content string) string {
	m := re.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	if m[1] != "" {
		return decodePDFString(m[1])
	}
	if len(m) > 2 && m[2] != "" {
		return decodeHexString(m[2])
	}
	return ""
}

func firstSubmatch(re *regexp.Regexp, content string) string {
	if m := re.FindStringSubmatch(content); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// decodePDFString unescapes a literal string from the information dictionary.
func decodePDFString(s string) string {
	r := strings.NewReplacer(`\n`, "\n", `\r`, "\r", `\t`, "\t", `\(`, "(", `\)`, ")", `\\`, `\`)
	return strings.TrimSpace(r.Replace(s))
}

// decodeHexString decodes a hex string. Strings starting with the FEFF byte
// order mark are UTF-16BE, anything else is treated as single-byte text.
func decodeHexString(h string) string {
	h = strings.Join(strings.Fields(h), "")
	if len(h)%2 == 1 {
		h += "0"
	}
	raw := make([]byte, 0, len(h)/2)
	for i := 0; i+1 < len(h); i += 2 {
		b, err := strconv.ParseUint(h[i:i+2], 16, 8)
		if err != nil {
			return ""
		}
		raw = append(raw, byte(b))
	}

	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		units := make([]uint16, 0, (len(raw)-2)/2)
		for i := 2; i+1 < len(raw); i += 2 {
			units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		return strings.TrimSpace(string(utf16.Decode(units)))
	}
	return strings.TrimSpace(string(raw))
}

// formatPDFDate turns D:YYYYMMDDHHmmSS+hh'mm' into YYYY-MM-DD HH:mm:SS+hh:mm.
// Values that do not follow the format are returned unchanged.
func formatPDFDate(s string) string {
	d := strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if len(d) < 14 {
		return s
	}
	for _, c := range d[:14] {
		if c < '0' || c > '9' {
			return s
		}
	}
	out := fmt.Sprintf("%s-%s-%s %s:%s:%s", d[0:4], d[4:6], d[6:8], d[8:10], d[10:12], d[12:14])
	tz := strings.ReplaceAll(d[14:], "'", "")
	switch {
	case tz == "" || tz == "Z":
		if tz == "Z" {
			out += "Z"
		}
	case len(tz) == 5 && (tz[0] == '+' || tz[0] == '-'):
		out += tz[:3] + ":" + tz[3:]
	default:
		out += tz
	}
	return out
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
