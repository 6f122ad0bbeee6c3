package extract

import (
	"strings"

	"github.com/nao1215/incapscan/internal/model"
)

// editingTools are producers that indicate a document passed through an
// image or PDF editor rather than a clinical records system.
var editingTools = []string{
	"photoshop",
	"gimp",
	"canva",
	"ilovepdf",
	"smallpdf",
	"sejda",
	"pdfescape",
	"pdffiller",
	"pixlr",
	"paint.net",
	"snapseed",
	"picsart",
	"pdf-xchange",
	"foxit phantom",
	"nitro",
	"inkscape",
}

// EditingTool returns the editing tool named in value, or "".
func EditingTool(value string) string {
	v := strings.ToLower(value)
	for _, tool := range editingTools {
		if strings.Contains(v, tool) {
			return tool
		}
	}
	return ""
}

func editingSoftwareFindings(values ...string) []model.Finding {
	var findings []model.Finding
	seen := make(map[string]bool)
	for _, v := range values {
		tool := EditingTool(v)
		if tool == "" || seen[tool] {
			continue
		}
		seen[tool] = true
		findings = append(findings, model.NewFinding(model.FindingEditingSoftware,
			"Editing software in metadata: "+tool,
			"Metadata value: "+v,
			"extract"))
	}
	return findings
}
