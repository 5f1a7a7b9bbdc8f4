package updater

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/cyber-dojo/commander/internal/logger"
	"github.com/cyber-dojo/commander/internal/repository/marker"
	"github.com/cyber-dojo/commander/internal/service/common"
)

const (
	// MarkerFilename marks that an update is running right now to avoid parallel pulls.
	MarkerFilename = "update-marker"

	// markerLifetime is the period after which a marker is considered stale.
	markerLifetime = 30 * time.Minute
)

// errUpdateAlreadyRunning is returned when a fresh marker is held by a live process.
var errUpdateAlreadyRunning = errors.New("another update is already running")

// defaultMarkerPath places the marker in the user cache directory.
func defaultMarkerPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}

	return filepath.Join(dir, common.Me, MarkerFilename)
}

// executableName returns the base name of the running binary, as the process table shows it.
func executableName() string {
	path, err := os.Executable()
	if err != nil {
		return common.Me
	}

	return filepath.Base(path)
}

// acquireMarker records this update, refusing when a fresh marker belongs to another live process.
func (u *runner) acquireMarker(ctx context.Context) error {
	record, err := u.markers.Load(ctx)

	switch {
	case err == nil:
		if record.Fresh(time.Now(), markerLifetime) && u.anotherInstanceRunning(ctx) {
			return errUpdateAlreadyRunning
		}

		logger.InfoKV(ctx, "Replacing stale update marker", "pid", record.PID, "started_at", record.StartedAt)
	case errors.Is(err, marker.ErrNotFound):
		logger.DebugKV(ctx, "Update marker not found, continuing")
	default:
		logger.WarnKV(ctx, "Unable to read update marker", "error", err)
	}

	return u.markers.Save(ctx, &marker.Record{
		PID:        os.Getpid(),
		Executable: u.executableName,
		StartedAt:  time.Now().UTC(),
	})
}

// releaseMarker removes the marker written by acquireMarker.
func (u *runner) releaseMarker(ctx context.Context) {
	if err := u.markers.Remove(ctx); err != nil {
		logger.WarnKV(ctx, "Unable to remove update marker", "error", err)
	}
}

// anotherInstanceRunning reports whether a process other than this one runs the same executable.
// When the process table cannot be read the marker is trusted.
func (u *runner) anotherInstanceRunning(ctx context.Context) bool {
	processes, err := u.processes()
	if err != nil {
		logger.WarnKV(ctx, "Unable to list processes", "error", err)
		return true
	}

	self := os.Getpid()

	for _, process := range processes {
		if process.Pid() == self {
			continue
		}

		if process.Executable() == u.executableName {
			return true
		}
	}

	return false
}

// LanguageImages picks the distinct repositories of namespace from an image listing,
// one repository per line, keeping first-seen order.
func LanguageImages(listing, namespace string) []string {
	prefix := namespace + "/"
	seen := make(map[string]struct{})

	var images []string

	for _, line := range strings.Split(listing, "\n") {
		repository := strings.TrimSpace(line)
		if !strings.HasPrefix(repository, prefix) {
			continue
		}

		if _, ok := seen[repository]; ok {
			continue
		}

		seen[repository] = struct{}{}
		images = append(images, repository)
	}

	return images
}

// processList adapts ps.Processes for injection.
func processList() ([]ps.Process, error) {
	return ps.Processes()
}
