package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doodad-labs/throwaway-email-checker/internal/domain"
)

// File names inside the data directory.
const (
	DisposableFile = "domains.txt"
	AllowFile      = "allow_list.txt"
	TLDFile        = "tlds.txt"
)

// FileStore persists the registry artifact as text files in one directory.
type FileStore struct {
	dir string
	now func() time.Time
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

func (s *FileStore) Dir() string { return s.dir }

// LoadBaseline returns the persisted allow and disposable lists. Missing
// files count as empty lists.
func (s *FileStore) LoadBaseline() (allow, disposable []string, err error) {
	allow, err = s.readList(AllowFile)
	if err != nil {
		return nil, nil, err
	}
	disposable, err = s.readList(DisposableFile)
	if err != nil {
		return nil, nil, err
	}
	return allow, disposable, nil
}

// LoadTLDs reads the TLD table. Unlike the lists, a missing file is an
// error (wrapping fs.ErrNotExist).
func (s *FileStore) LoadTLDs() (domain.TLDSet, error) {
	f, err := os.Open(filepath.Join(s.dir, TLDFile))
	if err != nil {
		return domain.TLDSet{}, fmt.Errorf("open tld list: %w", err)
	}
	defer f.Close()

	raw, err := domain.ParseTLDList(f)
	if err != nil {
		return domain.TLDSet{}, err
	}
	if len(raw) == 0 {
		return domain.TLDSet{}, fmt.Errorf("tld list %s is empty", f.Name())
	}
	return domain.NewTLDSet(raw)
}

// LoadSnapshot implements Loader by reading all three files.
func (s *FileStore) LoadSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tlds, err := s.LoadTLDs()
	if err != nil {
		return nil, err
	}
	allow, disposable, err := s.LoadBaseline()
	if err != nil {
		return nil, err
	}

	var generatedAt time.Time
	if data, err := os.ReadFile(filepath.Join(s.dir, DisposableFile)); err == nil {
		generatedAt = ParseGeneratedAt(data)
	}

	return &domain.Snapshot{
		TLDs:        tlds,
		Disposable:  domain.NewDomainSet(disposable),
		Allow:       domain.NewDomainSet(allow),
		GeneratedAt: generatedAt,
		LoadedAt:    s.now(),
	}, nil
}

// Save writes both lists of the artifact. Either both files are replaced
// or neither is touched.
func (s *FileStore) Save(a *Artifact) error {
	disposable, err := a.DisposableText()
	if err != nil {
		return fmt.Errorf("render disposable list: %w", err)
	}
	allow, err := a.AllowText()
	if err != nil {
		return fmt.Errorf("render allowlist: %w", err)
	}
	return writeAtomic(s.dir, []pendingFile{
		{name: DisposableFile, data: disposable},
		{name: AllowFile, data: allow},
	})
}

// SaveTLDs writes the TLD table in the IANA text layout.
func (s *FileStore) SaveTLDs(tlds domain.TLDSet, source string) error {
	if strings.ContainsAny(source, "\r\n") {
		return fmt.Errorf("tld source %q: %w", source, domain.ErrUnsafeEntry)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Sourced from %s\n", source)
	fmt.Fprintf(&buf, "%s%s\n", lastUpdatedPrefix, s.now().UTC().Format(time.RFC3339))
	for _, tld := range tlds.List() {
		buf.WriteString(strings.ToUpper(tld))
		buf.WriteByte('\n')
	}
	return writeAtomic(s.dir, []pendingFile{{name: TLDFile, data: buf.Bytes()}})
}

func (s *FileStore) readList(name string) ([]string, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	return ParseList(f)
}

type pendingFile struct {
	name string
	data []byte
}

// writeAtomic stages every file as a temp file next to its target and only
// renames once all of them were written and synced.
func writeAtomic(dir string, files []pendingFile) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	temps := make([]string, 0, len(files))
	defer func() {
		if err != nil {
			for _, t := range temps {
				_ = os.Remove(t)
			}
		}
	}()

	for _, f := range files {
		tmp, err := os.CreateTemp(dir, "."+f.name+".*.tmp")
		if err != nil {
			return fmt.Errorf("create temp for %s: %w", f.name, err)
		}
		temps = append(temps, tmp.Name())

		if _, err := tmp.Write(f.data); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			return fmt.Errorf("sync %s: %w", f.name, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("close %s: %w", f.name, err)
		}
		if err := os.Chmod(tmp.Name(), 0o644); err != nil {
			return fmt.Errorf("chmod %s: %w", f.name, err)
		}
	}

	for i, f := range files {
		if err := os.Rename(temps[i], filepath.Join(dir, f.name)); err != nil {
			return fmt.Errorf("replace %s: %w", f.name, err)
		}
	}
	return nil
}
