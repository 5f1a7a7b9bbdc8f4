package volume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	domain "github.com/cyber-dojo/commander/internal/domain/startpoint"
	"github.com/cyber-dojo/commander/internal/shell"
)

// Repository defines the volume queries used by the CLI.
type Repository interface {
	List(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Inspect(ctx context.Context, name string) (*domain.Volume, error)
	InspectAll(ctx context.Context, names ...string) ([]*domain.Volume, error)
	Remove(ctx context.Context, name string) error
}

// RuntimeRepository answers volume queries by running the runtime CLI.
type RuntimeRepository struct {
	exec shell.Executor
}

var _ Repository = (*RuntimeRepository)(nil)

var (
	// ErrVolumeNotFound is returned when the runtime does not know a volume.
	ErrVolumeNotFound = errors.New("no such volume")
	// ErrMalformedInspect is returned when inspect output is not a JSON array of records.
	ErrMalformedInspect = errors.New("malformed volume inspect output")
	// ErrRuntimeFailed is returned when a query exits with a non-zero status.
	ErrRuntimeFailed = errors.New("container runtime command failed")
)

// NewRuntimeRepository creates a repository backed by exec.
func NewRuntimeRepository(exec shell.Executor) *RuntimeRepository {
	return &RuntimeRepository{
		exec: exec,
	}
}

// List returns every volume name known to the runtime, one per listing line.
func (r *RuntimeRepository) List(ctx context.Context) ([]string, error) {
	res, err := r.exec.Run(ctx, "volume", "ls", "--quiet")
	if err != nil {
		return nil, err
	}

	if !res.OK() {
		return nil, fmt.Errorf("volume ls: status %d: %w", res.Status, ErrRuntimeFailed)
	}

	return splitLines(res.Output), nil
}

// Exists reports whether name is a complete line of the volume listing.
// A volume called "foo-bar" does not make "foo" exist.
func (r *RuntimeRepository) Exists(ctx context.Context, name string) (bool, error) {
	names, err := r.List(ctx)
	if err != nil {
		return false, err
	}

	return slices.Contains(names, name), nil
}

// Inspect returns the runtime's record of name.
func (r *RuntimeRepository) Inspect(ctx context.Context, name string) (*domain.Volume, error) {
	volumes, err := r.InspectAll(ctx, name)
	if err != nil {
		return nil, err
	}

	return volumes[0], nil
}

// InspectAll returns the records of names in one runtime call, in the runtime's order.
func (r *RuntimeRepository) InspectAll(ctx context.Context, names ...string) ([]*domain.Volume, error) {
	if len(names) == 0 {
		return nil, nil
	}

	res, err := r.exec.Run(ctx, append([]string{"volume", "inspect"}, names...)...)
	if err != nil {
		return nil, err
	}

	if !res.OK() {
		return nil, fmt.Errorf("%s: %w", strings.Join(names, ", "), ErrVolumeNotFound)
	}

	var volumes []*domain.Volume
	if err = json.Unmarshal([]byte(res.Output), &volumes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInspect, err)
	}

	if len(volumes) == 0 || slices.Contains(volumes, nil) {
		return nil, fmt.Errorf("%s: %w", strings.Join(names, ", "), ErrMalformedInspect)
	}

	return volumes, nil
}

// Remove deletes name.
func (r *RuntimeRepository) Remove(ctx context.Context, name string) error {
	res, err := r.exec.Run(ctx, "volume", "rm", name)
	if err != nil {
		return err
	}

	if !res.OK() {
		return fmt.Errorf("volume rm %s: status %d: %w", name, res.Status, ErrRuntimeFailed)
	}

	return nil
}

func splitLines(s string) []string {
	var lines []string

	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}
