package startpoint

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/cyber-dojo/commander/internal/domain/startpoint"
	"github.com/cyber-dojo/commander/internal/logger"
	"github.com/cyber-dojo/commander/internal/repository/volume"
	"github.com/cyber-dojo/commander/internal/shell"
)

var (
	// ErrDoesNotExist means the volume is not in the runtime's listing.
	ErrDoesNotExist = errors.New("does not exist")
	// ErrNotStartPoint means the volume exists but lacks the start-point label.
	ErrNotStartPoint = errors.New("is not a cyber-dojo start-point")
	// ErrManifestUnreadable means the helper container could not produce the manifest.
	ErrManifestUnreadable = errors.New("start-point manifest unreadable")
)

// VolumeError is a precondition failure about a named volume.
// Its message is the user-facing sentence printed after "FAILED: ".
type VolumeError struct {
	Name string
	Err  error
}

// Error implements error.
func (e *VolumeError) Error() string {
	return fmt.Sprintf("%s %s.", e.Name, e.Err)
}

// Unwrap returns the sentinel.
func (e *VolumeError) Unwrap() error {
	return e.Err
}

// Inspector classifies volumes and reads their manifests.
type Inspector struct {
	volumes     volume.Repository
	exec        shell.Executor
	helperImage string
}

// NewInspector creates an Inspector reading manifests with helperImage.
func NewInspector(volumes volume.Repository, exec shell.Executor, helperImage string) *Inspector {
	return &Inspector{
		volumes:     volumes,
		exec:        exec,
		helperImage: helperImage,
	}
}

// Require succeeds only for an existing, labeled start-point volume and returns its record.
// It never starts a helper container.
func (i *Inspector) Require(ctx context.Context, name string) (*domain.Volume, error) {
	exists, err := i.volumes.Exists(ctx, name)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, &VolumeError{Name: name, Err: ErrDoesNotExist}
	}

	record, err := i.volumes.Inspect(ctx, name)
	if err != nil {
		return nil, err
	}

	if !record.IsStartPoint() {
		return nil, &VolumeError{Name: name, Err: ErrNotStartPoint}
	}

	return record, nil
}

// ReadManifest runs a short-lived, self-removing helper container with the
// volume mounted and decodes the manifest it prints.
func (i *Inspector) ReadManifest(ctx context.Context, name string) (*domain.Manifest, error) {
	args := ManifestCommand(i.helperImage, name)

	logger.DebugKV(ctx, "Reading start-point manifest", "volume", name, "image", i.helperImage)

	res, err := i.exec.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	if !res.OK() {
		return nil, fmt.Errorf("%s: status %d: %w", name, res.Status, ErrManifestUnreadable)
	}

	manifest, err := domain.ParseManifest([]byte(res.Output))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return manifest, nil
}

// Type returns the manifest's declared type.
func (i *Inspector) Type(ctx context.Context, name string) (domain.Type, error) {
	manifest, err := i.ReadManifest(ctx, name)
	if err != nil {
		return "", err
	}

	return manifest.Type, nil
}

// ManifestCommand returns the runtime arguments that print name's manifest.
// The volume is mounted read-write, like every other helper container mount.
func ManifestCommand(helperImage, name string) []string {
	script := "cat " + shell.Quote(domain.MountPath+"/"+domain.ManifestFilename)

	return []string{
		"run",
		"--rm",
		"--volume=" + name + ":" + domain.MountPath,
		helperImage,
		"sh", "-c", script,
	}
}
