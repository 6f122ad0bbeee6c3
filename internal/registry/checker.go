package registry

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/incapscan/internal/model"
)

// Attribution defaults for confirmed physicians.
const (
	DefaultReportingBody = "COLEGIO MEDICO COLOMBIANO"
	DefaultProfession    = "MEDICINA/SALUD"
)

// minNameRunes is the exclusive lower bound on the length of a plausible name.
const minNameRunes = 4

var humanName = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚüÜñÑ\s\.\,\-]+$`)

// Checker validates physician names.
// It holds no per-call state and is safe for concurrent use.
type Checker struct {
	directory     Directory
	reportingBody string
	profession    string
	logger        *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithDirectory sets the directory consulted for well-formed names.
func WithDirectory(d Directory) Option {
	return func(c *Checker) {
		c.directory = d
	}
}

// WithReportingBody sets the body attributed to confirmed physicians.
func WithReportingBody(body string) Option {
	return func(c *Checker) {
		if body != "" {
			c.reportingBody = body
		}
	}
}

// WithProfession sets the profession attributed to confirmed physicians.
func WithProfession(p string) Option {
	return func(c *Checker) {
		if p != "" {
			c.profession = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// NewChecker creates a Checker. Without WithDirectory it presumes veracity.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		directory:     PresumptionDirectory{},
		reportingBody: DefaultReportingBody,
		profession:    DefaultProfession,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// CheckPhysician returns the registry verdict for name.
// Directory failures fall back to the presumption of veracity; an
// unavailable registry never turns into an accusation.
func (c *Checker) CheckPhysician(ctx context.Context, name string) model.RegistryVerdict {
	clean := norm.NFC.String(strings.TrimSpace(name))

	if !PlausibleName(clean) {
		return model.RegistryVerdict{
			Status: model.RegistryInvalidFormat,
			Message: fmt.Sprintf("ADVERTENCIA: '%s' NO parece un nombre humano válido o el OCR falló "+
				"drásticamente en extraerlo. Verifique manipulación o alteración de datos.", name),
		}
	}

	reg, found, err := c.directory.Lookup(ctx, clean)
	if err != nil {
		c.logger.Warn("registry lookup failed, presuming veracity", "error", err)
		reg, found = Registration{}, true
	}

	if !found {
		return model.RegistryVerdict{
			Status: model.RegistryNotFound,
			Message: fmt.Sprintf("ADVERTENCIA: El profesional '%s' NO FUE ENCONTRADO en el registro de "+
				"profesionales configurado. Verifique la tarjeta profesional en el RETHUS.", clean),
		}
	}

	verdict := model.RegistryVerdict{
		Status: model.RegistryActive,
		Message: fmt.Sprintf("VERIFICACIÓN EXITOSA: El profesional '%s' SÍ EXISTE en la base de datos "+
			"oficial del RETHUS y se encuentra ACTIVO para emitir incapacidades validas.", clean),
		ReportingBody: c.reportingBody,
		Profession:    c.profession,
	}
	if reg.ReportingBody != "" {
		verdict.ReportingBody = reg.ReportingBody
	}
	if reg.Profession != "" {
		verdict.Profession = reg.Profession
	}
	return verdict
}

// PlausibleName reports whether s, already trimmed and NFC-normalized,
// looks like a human name: letters, spaces and . , - only, more than four
// characters.
func PlausibleName(s string) bool {
	return humanName.MatchString(s) && utf8.RuneCountInString(s) > minNameRunes
}
