package marker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cyber-dojo/commander/internal/config"
)

// dirPermissions is used when creating the marker's parent directory.
const dirPermissions os.FileMode = 0o755

// Record describes the update holding the marker.
type Record struct {
	// PID is the process id of the updater.
	PID int `yaml:"pid"`
	// Executable is the base name of the updater binary.
	Executable string `yaml:"executable"`
	// StartedAt is when the update began.
	StartedAt time.Time `yaml:"started_at"`
}

// Fresh reports whether the record is younger than lifetime at now.
func (r *Record) Fresh(now time.Time, lifetime time.Duration) bool {
	return r != nil && now.Sub(r.StartedAt) <= lifetime
}

// Repository defines persistence operations for the update marker.
type Repository interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, record *Record) error
	Remove(ctx context.Context) error
}

// FileRepository stores the marker as YAML on disk.
type FileRepository struct {
	// path is the filesystem location of the marker.
	path string
	// mu protects concurrent access to the marker file.
	mu sync.Mutex
}

var _ Repository = (*FileRepository)(nil)

var (
	// ErrNotFound is returned when no marker exists.
	ErrNotFound = errors.New("marker not found")

	errRecordIsNotSet = errors.New("marker record is not set")
)

// NewFileRepository creates a repository that reads/writes the marker at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the marker. A file that cannot be decoded yields a zero Record, which is never fresh.
func (r *FileRepository) Load(_ context.Context) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read marker: %w", err)
	}

	var record Record
	if err = yaml.Unmarshal(contents, &record); err != nil {
		return &Record{}, nil //nolint:nilerr // A corrupt marker is treated as stale.
	}

	return &record, nil
}

// Save writes the marker, creating its directory when needed.
func (r *FileRepository) Save(_ context.Context, record *Record) error {
	if record == nil {
		return errRecordIsNotSet
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode marker: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(r.path), dirPermissions); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}

	return nil
}

// Remove deletes the marker. A missing marker is not an error.
func (r *FileRepository) Remove(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove marker: %w", err)
	}

	return nil
}
