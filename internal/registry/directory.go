package registry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Registration is a professional known to a Directory.
type Registration struct {
	Name          string `yaml:"name"`
	Profession    string `yaml:"profession,omitempty"`
	ReportingBody string `yaml:"reportingBody,omitempty"`
}

// Directory answers whether a professional is registered.
type Directory interface {
	Lookup(ctx context.Context, name string) (Registration, bool, error)
}

// PresumptionDirectory confirms every name. It stands in for the national
// registry, which has no public API.
type PresumptionDirectory struct{}

// Lookup always reports the name as registered.
func (PresumptionDirectory) Lookup(_ context.Context, name string) (Registration, bool, error) {
	return Registration{Name: name}, true, nil
}

// RosterDirectory answers from a fixed list of professionals.
// Matching ignores case, diacritics, honorifics and repeated spaces.
type RosterDirectory struct {
	entries map[string]Registration
}

// rosterFile is the YAML layout of a roster.
type rosterFile struct {
	Professionals []Registration `yaml:"professionals"`
}

// NewRosterDirectory builds a directory from registrations.
func NewRosterDirectory(regs []Registration) (*RosterDirectory, error) {
	if len(regs) == 0 {
		return nil, ErrEmptyRoster
	}
	entries := make(map[string]Registration, len(regs))
	for i, r := range regs {
		key := matchKey(r.Name)
		if key == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrRosterEntryWithoutName)
		}
		entries[key] = r
	}
	return &RosterDirectory{entries: entries}, nil
}

// LoadRoster reads a YAML roster:
//
//	professionals:
//	  - name: Juan Pérez
//	    profession: MEDICINA
//	    reportingBody: COLEGIO MEDICO COLOMBIANO
func LoadRoster(path string) (*RosterDirectory, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided roster path
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	return NewRosterDirectory(rf.Professionals)
}

// Len returns the number of professionals in the roster.
func (d *RosterDirectory) Len() int {
	return len(d.entries)
}

// Lookup reports whether name is on the roster.
func (d *RosterDirectory) Lookup(ctx context.Context, name string) (Registration, bool, error) {
	if err := ctx.Err(); err != nil {
		return Registration{}, false, err
	}
	r, ok := d.entries[matchKey(name)]
	return r, ok, nil
}

var (
	honorifics = []string{"dr.", "dra.", "dr", "dra", "doctor", "doctora", "md", "md."}
	stripMarks = runes.Remove(runes.In(unicode.Mn))
)

// matchKey folds a name to its comparison form: no diacritics, folded case,
// no leading honorific, single spaces.
func matchKey(name string) string {
	t := transform.Chain(norm.NFD, stripMarks, norm.NFC)
	plain, _, err := transform.String(t, name)
	if err != nil {
		plain = name
	}
	// A Caser is stateful; one per call.
	plain = cases.Fold().String(plain)
	plain = strings.NewReplacer(",", " ", "-", " ").Replace(plain)

	fields := strings.Fields(plain)
	for len(fields) > 1 && isHonorific(fields[0]) {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

func isHonorific(s string) bool {
	for _, h := range honorifics {
		if s == h {
			return true
		}
	}
	return false
}
