package aggregate

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Role tells the pipeline whether a source feeds the allowlist or the
// blocklist. It is trusted metadata, never inferred from content.
type Role int

const (
	RoleBlock Role = iota
	RoleAllow
)

func (r Role) String() string {
	if r == RoleAllow {
		return "allow"
	}
	return "block"
}

// SourceKind selects how candidates are extracted from a fetched body.
// Implementations: Lines, JSONPath, CSVColumn.
type SourceKind interface {
	sourceKind()
}

// Lines takes every non-blank line that does not start with '#'.
type Lines struct{}

// JSONPath reads an array of strings; Key "." means the document itself is
// the array, any other key names a top-level object field.
type JSONPath struct {
	Key string
}

// CSVColumn reads the zero-based column Index of every record.
type CSVColumn struct {
	Index int
}

func (Lines) sourceKind()     {}
func (JSONPath) sourceKind()  {}
func (CSVColumn) sourceKind() {}

// SourceDescriptor names one upstream list.
type SourceDescriptor struct {
	Name string
	URL  string
	Role Role
	Kind SourceKind
}

// DefaultSources is the built-in catalogue of public lists.
func DefaultSources() []SourceDescriptor {
	return []SourceDescriptor{
		{
			Name: "disposable-email-domains/allowlist",
			URL:  "https://raw.githubusercontent.com/disposable-email-domains/disposable-email-domains/refs/heads/main/allowlist.conf",
			Role: RoleAllow,
			Kind: Lines{},
		},
		{
			Name: "disposable/domains",
			URL:  "https://raw.githubusercontent.com/disposable/disposable-email-domains/refs/heads/master/domains.txt",
			Role: RoleBlock,
			Kind: Lines{},
		},
		{
			Name: "disposable-email-domains/blocklist",
			URL:  "https://raw.githubusercontent.com/disposable-email-domains/disposable-email-domains/refs/heads/main/disposable_email_blocklist.conf",
			Role: RoleBlock,
			Kind: Lines{},
		},
		{
			Name: "7c/fakefilter",
			URL:  "https://raw.githubusercontent.com/7c/fakefilter/refs/heads/main/txt/data.txt",
			Role: RoleBlock,
			Kind: Lines{},
		},
		{
			Name: "wesbos/burner-email-providers",
			URL:  "https://raw.githubusercontent.com/wesbos/burner-email-providers/refs/heads/master/emails.txt",
			Role: RoleBlock,
			Kind: Lines{},
		},
		{
			Name: "deviceandbrowserinfo",
			URL:  "https://deviceandbrowserinfo.com/api/emails/disposable",
			Role: RoleBlock,
			Kind: JSONPath{Key: "."},
		},
		{
			Name: "propaganistas/laravel-disposable-email",
			URL:  "https://raw.githubusercontent.com/Propaganistas/Laravel-Disposable-Email/refs/heads/master/domains.json",
			Role: RoleBlock,
			Kind: JSONPath{Key: "."},
		},
		{
			Name: "infiniteloopltd/temp-email-mx",
			URL:  "https://raw.githubusercontent.com/infiniteloopltd/TempEmailDomainMXRecords/refs/heads/master/TempEmailDomainMXRecords.csv",
			Role: RoleBlock,
			Kind: CSVColumn{Index: 1},
		},
	}
}

type sourceFile struct {
	Sources []sourceEntry `yaml:"sources"`
}

type sourceEntry struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Role   string `yaml:"role"`
	Kind   string `yaml:"kind"`
	Key    string `yaml:"key"`
	Column *int   `yaml:"column"`
}

// LoadSourcesFile reads a YAML source catalogue from path.
func LoadSourcesFile(path string) ([]SourceDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer f.Close()
	return ParseSources(f)
}

// ParseSources decodes a YAML source catalogue:
//
//	sources:
//	  - name: fakefilter
//	    url: https://example.com/data.txt
//	    role: block          # block | allow
//	    kind: lines          # lines | json | csv
//	    key: "."             # json only
//	    column: 1            # csv only
func ParseSources(r io.Reader) ([]SourceDescriptor, error) {
	var file sourceFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}

	out := make([]SourceDescriptor, 0, len(file.Sources))
	for i, e := range file.Sources {
		d, err := e.descriptor()
		if err != nil {
			return nil, fmt.Errorf("source #%d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (e sourceEntry) descriptor() (SourceDescriptor, error) {
	url := strings.TrimSpace(e.URL)
	if url == "" {
		return SourceDescriptor{}, fmt.Errorf("url is required")
	}

	d := SourceDescriptor{Name: strings.TrimSpace(e.Name), URL: url}
	if d.Name == "" {
		d.Name = url
	}

	switch strings.ToLower(e.Role) {
	case "", "block":
		d.Role = RoleBlock
	case "allow":
		d.Role = RoleAllow
	default:
		return SourceDescriptor{}, fmt.Errorf("unknown role %q", e.Role)
	}

	switch strings.ToLower(e.Kind) {
	case "", "lines", "txt":
		d.Kind = Lines{}
	case "json":
		key := e.Key
		if key == "" {
			key = "."
		}
		d.Kind = JSONPath{Key: key}
	case "csv":
		if e.Column == nil || *e.Column < 0 {
			return SourceDescriptor{}, fmt.Errorf("csv source needs a non-negative column")
		}
		d.Kind = CSVColumn{Index: *e.Column}
	default:
		return SourceDescriptor{}, fmt.Errorf("unknown kind %q", e.Kind)
	}
	return d, nil
}
