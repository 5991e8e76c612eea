package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lazypower/vigor/internal/energy"
)

// ErrNoReading is returned when the host has not exported a reading yet.
var ErrNoReading = errors.New("no telemetry reading")

// File reads health.{json,yaml,yml} and usage.{json,yaml,yml} from a
// directory the host writes to.
type File struct {
	dir string
	now func() time.Time
}

func NewFile(dir string, now func() time.Time) *File {
	if now == nil {
		now = time.Now
	}
	return &File{dir: dir, now: now}
}

// Dir is the watched directory.
func (f *File) Dir() string { return f.dir }

func (f *File) Health(ctx context.Context) (energy.Health, error) {
	var raw Raw
	if err := f.read(SignalHealth, &raw); err != nil {
		return energy.Health{}, err
	}
	return Derive(raw, f.now()), nil
}

func (f *File) Usage(ctx context.Context) (energy.Usage, error) {
	var u energy.Usage
	if err := f.read(SignalUsage, &u); err != nil {
		return energy.Usage{}, err
	}
	return u, nil
}

var extensions = []string{".json", ".yaml", ".yml"}

func (f *File) read(sig Signal, v any) error {
	for _, ext := range extensions {
		path := filepath.Join(f.dir, string(sig)+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		if ext == ".json" {
			err = json.Unmarshal(data, v)
		} else {
			err = yaml.Unmarshal(data, v)
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("%s in %s: %w", sig, f.dir, ErrNoReading)
}

// signalForFile maps an exported file name to its signal.
func signalForFile(name string) (Signal, bool) {
	base := filepath.Base(name)
	for _, sig := range []Signal{SignalHealth, SignalUsage} {
		for _, ext := range extensions {
			if base == string(sig)+ext {
				return sig, true
			}
		}
	}
	return "", false
}
