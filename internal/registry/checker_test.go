package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/incapscan/internal/model"
)

type failingDirectory struct{}

func (failingDirectory) Lookup(context.Context, string) (Registration, bool, error) {
	return Registration{}, false, errors.New("registry unavailable")
}

func TestCheckPhysician(t *testing.T) {
	t.Parallel()

	checker := NewChecker()

	tests := []struct {
		name   string
		input  string
		status model.RegistryStatus
	}{
		{"plain name", "Carlos Perez", model.RegistryActive},
		{"honorific and accents", "Dr. José Muñoz", model.RegistryActive},
		{"surrounding spaces", "   Ana María Gómez  ", model.RegistryActive},
		{"decomposed accents from OCR", "Jose\u0301 Pe\u0301rez", model.RegistryActive},
		{"comma and hyphen", "Ruiz-Díaz, Laura", model.RegistryActive},
		{"digits", "Dr. X123", model.RegistryInvalidFormat},
		{"symbols", "@@##", model.RegistryInvalidFormat},
		{"too short", "Ana", model.RegistryInvalidFormat},
		{"exactly four letters", "Luis", model.RegistryInvalidFormat},
		{"five letters", "Luisa", model.RegistryActive},
		{"empty", "", model.RegistryInvalidFormat},
		{"only spaces", "     ", model.RegistryInvalidFormat},
		{"unsupported diacritic", "Zoë Martin", model.RegistryInvalidFormat},
		{"dieresis", "Dr. José Argüello", model.RegistryActive},
		{"upper-case dieresis", "ARGÜELLO PEÑA", model.RegistryActive},
		{"decomposed dieresis from OCR", "Argu\u0308ello Rios", model.RegistryActive},
		{"apostrophe", "Dr. O'Neill", model.RegistryInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := checker.CheckPhysician(context.Background(), tt.input)
			if got.Status != tt.status {
				t.Errorf("CheckPhysician(%q) status = %s, want %s (%s)", tt.input, got.Status, tt.status, got.Message)
			}
		})
	}
}

func TestCheckPhysicianMessages(t *testing.T) {
	t.Parallel()

	checker := NewChecker()

	t.Run("active carries attribution", func(t *testing.T) {
		t.Parallel()
		got := checker.CheckPhysician(context.Background(), "  Carlos Perez ")
		want := "VERIFICACIÓN EXITOSA: El profesional 'Carlos Perez' SÍ EXISTE en la base de datos oficial " +
			"del RETHUS y se encuentra ACTIVO para emitir incapacidades validas."
		if got.Message != want {
			t.Errorf("unexpected message %q", got.Message)
		}
		if got.ReportingBody != "COLEGIO MEDICO COLOMBIANO" || got.Profession != "MEDICINA/SALUD" {
			t.Errorf("unexpected attribution %q %q", got.ReportingBody, got.Profession)
		}
	})

	t.Run("invalid quotes the input and has no attribution", func(t *testing.T) {
		t.Parallel()
		got := checker.CheckPhysician(context.Background(), "Dr. X123")
		want := "ADVERTENCIA: 'Dr. X123' NO parece un nombre humano válido o el OCR falló drásticamente " +
			"en extraerlo. Verifique manipulación o alteración de datos."
		if got.Message != want {
			t.Errorf("unexpected message %q", got.Message)
		}
		if got.ReportingBody != "" || got.Profession != "" {
			t.Error("invalid verdicts must not carry attribution")
		}
	})
}

func TestCheckPhysicianWithRoster(t *testing.T) {
	t.Parallel()

	roster, err := NewRosterDirectory([]Registration{
		{Name: "José Muñoz", Profession: "MEDICINA GENERAL"},
		{Name: "Laura Ruiz-Díaz", ReportingBody: "ASCOFAME"},
	})
	if err != nil {
		t.Fatal(err)
	}
	checker := NewChecker(WithDirectory(roster), WithReportingBody("OTRO"))

	t.Run("listed name matches ignoring case accents and title", func(t *testing.T) {
		t.Parallel()
		got := checker.CheckPhysician(context.Background(), "DR. JOSE MUNOZ")
		if got.Status != model.RegistryActive {
			t.Fatalf("expected ACTIVE, got %s", got.Status)
		}
		if got.Profession != "MEDICINA GENERAL" || got.ReportingBody != "OTRO" {
			t.Errorf("unexpected attribution %q %q", got.Profession, got.ReportingBody)
		}
	})

	t.Run("hyphenated name", func(t *testing.T) {
		t.Parallel()
		got := checker.CheckPhysician(context.Background(), "Laura Ruiz Díaz")
		if got.Status != model.RegistryActive || got.ReportingBody != "ASCOFAME" {
			t.Errorf("unexpected verdict %+v", got)
		}
	})

	t.Run("unlisted name", func(t *testing.T) {
		t.Parallel()
		got := checker.CheckPhysician(context.Background(), "Pedro Pérez")
		if got.Status != model.RegistryNotFound {
			t.Fatalf("expected NOT_FOUND, got %s", got.Status)
		}
		if !strings.Contains(got.Message, "Pedro Pérez") {
			t.Errorf("message must name the physician: %q", got.Message)
		}
	})

	t.Run("format check runs before lookup", func(t *testing.T) {
		t.Parallel()
		got := checker.CheckPhysician(context.Background(), "J0$3")
		if got.Status != model.RegistryInvalidFormat {
			t.Errorf("expected INVALID_FORMAT, got %s", got.Status)
		}
	})
}

func TestCheckPhysicianDirectoryFailurePresumesVeracity(t *testing.T) {
	t.Parallel()

	got := NewChecker(WithDirectory(failingDirectory{})).CheckPhysician(context.Background(), "Carlos Perez")
	if got.Status != model.RegistryActive {
		t.Errorf("expected ACTIVE on directory failure, got %s", got.Status)
	}
}

func TestLoadRoster(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "roster.yaml")
		content := "professionals:\n  - name: Ana Gómez\n  - name: Dra. Laura Ruiz\n    profession: PEDIATRIA\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		roster, err := LoadRoster(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if roster.Len() != 2 {
			t.Errorf("expected 2 entries, got %d", roster.Len())
		}
		reg, ok, err := roster.Lookup(context.Background(), "laura ruiz")
		if err != nil || !ok || reg.Profession != "PEDIATRIA" {
			t.Errorf("unexpected lookup result %+v %v %v", reg, ok, err)
		}
	})

	t.Run("empty roster", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "roster.yaml")
		if err := os.WriteFile(path, []byte("professionals: []\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadRoster(path); !errors.Is(err, ErrEmptyRoster) {
			t.Errorf("expected ErrEmptyRoster, got %v", err)
		}
	})

	t.Run("entry without name", func(t *testing.T) {
		t.Parallel()
		if _, err := NewRosterDirectory([]Registration{{Profession: "X"}}); !errors.Is(err, ErrRosterEntryWithoutName) {
			t.Errorf("expected ErrRosterEntryWithoutName, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		if _, err := LoadRoster(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestMatchKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Dr. José  Muñoz", "jose munoz"},
		{"DRA. ANA GÓMEZ", "ana gomez"},
		{"Ruiz-Díaz, Laura", "ruiz diaz laura"},
		{"Doctor", "doctor"},
		{"Dr. José Argüello", "jose arguello"},
	}
	for _, tt := range tests {
		if got := matchKey(tt.in); got != tt.want {
			t.Errorf("matchKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
