package extract

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"runs of spaces and nbsp", "Dr.  Juan   Pérez\t\tRM", "Dr. Juan Pérez RM"},
		{"blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"trailing spaces", "a   \nb\t\n", "a\nb"},
		{"smart quotes", "“J00” ‘x’", `"J00" 'x'`},
		{"box noise", "CIE │ J00", "CIE J00"},
		{"page break kept", "uno\fdos", "uno\fdos"},
		{"empty", "  \n \n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatPDFDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"D:20240110090000-05'00'", "2024-01-10 09:00:00-05:00"},
		{"D:20240110090000Z", "2024-01-10 09:00:00Z"},
		{"20240110090000", "2024-01-10 09:00:00"},
		{"ayer", "ayer"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := formatPDFDate(tt.in); got != tt.want {
			t.Errorf("formatPDFDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodePDFStrings(t *testing.T) {
	t.Parallel()

	t.Run("literal escapes", func(t *testing.T) {
		t.Parallel()
		if got := decodePDFString(`Cl\(nica\) Norte `); got != "Cl(nica) Norte" {
			t.Errorf("unexpected %q", got)
		}
	})

	t.Run("utf16 hex with bom", func(t *testing.T) {
		t.Parallel()
		// FEFF + "Gómez"
		if got := decodeHexString("FEFF0047 00F3 006D 0065 007A"); got != "Gómez" {
			t.Errorf("unexpected %q", got)
		}
	})

	t.Run("plain hex", func(t *testing.T) {
		t.Parallel()
		if got := decodeHexString("4869"); got != "Hi" {
			t.Errorf("unexpected %q", got)
		}
	})
}

func TestScanRawPDFInfo(t *testing.T) {
	t.Parallel()

	data := []byte("%PDF-1.7\n1 0 obj << /Type /Page /Parent 2 0 R >> endobj\n" +
		"2 0 obj << /Type /Pages /Count 1 >> endobj\n" +
		"3 0 obj << /Author <FEFF0041006E0061> /Producer (Smallpdf) /CreationDate (D:20240101000000Z) >> endobj\n" +
		"<xmp:CreatorTool>Adobe Photoshop 25.0</xmp:CreatorTool>")
	path := writeFile(t, "raw.pdf", data)

	info := scanRawPDFInfo(path)
	if info.Author != "Ana" {
		t.Errorf("expected Ana, got %q", info.Author)
	}
	if info.Producer != "Smallpdf" {
		t.Errorf("expected Smallpdf, got %q", info.Producer)
	}
	if info.CreatorTool != "Adobe Photoshop 25.0" {
		t.Errorf("unexpected creator tool %q", info.CreatorTool)
	}
	if info.Pages != 1 {
		t.Errorf("expected 1 page, got %d", info.Pages)
	}
}

func TestEditingTool(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Adobe Photoshop CC 2019 (Windows)": "photoshop",
		"iLovePDF":                          "ilovepdf",
		"Canva":                             "canva",
		"Microsoft Word 2016":               "",
		"SAP Crystal Reports":               "",
		"":                                  "",
	}
	for in, want := range tests {
		if got := EditingTool(in); got != want {
			t.Errorf("EditingTool(%q) = %q, want %q", in, got, want)
		}
	}

	findings := editingSoftwareFindings("Photoshop", "Adobe Photoshop", "GIMP 2.10")
	if len(findings) != 2 {
		t.Errorf("expected one finding per distinct tool, got %d", len(findings))
	}
}

func TestSortPageImages(t *testing.T) {
	t.Parallel()

	paths := []string{"/t/page-10.png", "/t/page-2.png", "/t/page-01.png"}
	sortPageImages(paths)
	want := []string{"/t/page-01.png", "/t/page-2.png", "/t/page-10.png"}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("unexpected order %v", paths)
		}
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("abc", 5); got != "abc" {
		t.Errorf("unexpected %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc...(truncated)" {
		t.Errorf("unexpected %q", got)
	}
}
