package updater

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"net/http"
	"os"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/mitchellh/go-ps"

	"github.com/cyber-dojo/commander/internal/logger"
	"github.com/cyber-dojo/commander/internal/repository/marker"
	"github.com/cyber-dojo/commander/internal/service/common"

	// Register SHA-256 for checksum verification of the downloaded binary.
	_ "crypto/sha256"
)

const (
	// DefaultFileMode is the mode of the replaced CLI binary.
	DefaultFileMode os.FileMode = 0o755

	// latestTag is pulled for every server image.
	latestTag = "latest"
)

var errBadHTTPStatus = errors.New("unexpected http status")

// Help is the help text of `update`.
var Help = []string{
	"",
	fmt.Sprintf("Use: %s update", common.Me),
	"",
	"Updates all cyber-dojo server and language images and the cyber-dojo script file",
}

// runner holds the collaborators of a single update execution.
type runner struct {
	env            *common.Env
	markers        marker.Repository
	executableName string
	processes      func() ([]ps.Process, error)
	client         *http.Client
	// targetPath is the binary replaced by self-update; empty means the running executable.
	targetPath string
}

// Run handles `update`.
func Run(ctx context.Context, env *common.Env, args []string) error {
	ctx = logger.WithName(ctx, "update")

	if len(args) > 0 && args[0] == common.HelpFlag {
		common.ShowHelp(env.Stdout, Help)
		return nil
	}

	if err := common.RejectExtra(env.Stderr, args); err != nil {
		return err
	}

	return newRunner(env).run(ctx)
}

func newRunner(env *common.Env) *runner {
	return &runner{
		env:            env,
		markers:        marker.NewFileRepository(defaultMarkerPath()),
		executableName: executableName(),
		processes:      processList,
		client:         http.DefaultClient,
	}
}

// run pulls server images, then language images, then updates the binary.
func (u *runner) run(ctx context.Context) error {
	if err := u.acquireMarker(ctx); err != nil {
		if errors.Is(err, errUpdateAlreadyRunning) {
			return common.Fail(u.env.Stderr, "%v", err)
		}

		return fmt.Errorf("update marker: %w", err)
	}

	defer u.releaseMarker(ctx)

	if err := u.pullServices(ctx); err != nil {
		return err
	}

	if err := u.pullLanguages(ctx); err != nil {
		return err
	}

	if err := u.selfUpdate(ctx); err != nil {
		logger.ErrorKV(ctx, "Self update failed", "url", u.env.Config.SelfUpdateURL, "error", err)
	}

	return nil
}

// pullServices pulls every configured server image at its latest tag.
func (u *runner) pullServices(ctx context.Context) error {
	cfg := u.env.Config

	for _, name := range cfg.ServiceImages {
		if err := u.pull(ctx, cfg.Hub+"/"+name+":"+latestTag); err != nil {
			return err
		}
	}

	return nil
}

// pullLanguages re-pulls the language images already present locally.
func (u *runner) pullLanguages(ctx context.Context) error {
	res, err := u.env.Exec.Run(ctx, "images", "--format", "{{.Repository}}")
	if err != nil {
		return err
	}

	if !res.OK() {
		logger.WarnKV(ctx, "Unable to list local images", "status", res.Status)
		return nil
	}

	for _, image := range LanguageImages(res.Output, u.env.Config.LanguageNamespace) {
		if err = u.pull(ctx, image); err != nil {
			return err
		}
	}

	return nil
}

// pull streams one pull. A non-zero status is logged and otherwise ignored.
func (u *runner) pull(ctx context.Context, image string) error {
	status, err := u.env.Exec.Stream(ctx, nil, "pull", image)
	if err != nil {
		return err
	}

	if status != 0 {
		logger.WarnKV(ctx, "Pull failed", "image", image, "status", status)
	}

	return nil
}

// selfUpdate replaces the CLI binary with the one at SelfUpdateURL, verifying its checksum when configured.
func (u *runner) selfUpdate(ctx context.Context) error {
	cfg := u.env.Config
	if cfg.SelfUpdateURL == "" {
		return nil
	}

	checksum, err := cfg.Checksum()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.SelfUpdateURL, http.NoBody)
	if err != nil {
		return err
	}

	response, err := u.client.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s, %s: %w", cfg.SelfUpdateURL, response.Status, errBadHTTPStatus)
	}

	options := goupdate.Options{
		TargetPath: u.targetPath,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       crypto.SHA256,
	}

	logger.InfoKV(ctx, "Applying self update", "url", cfg.SelfUpdateURL)

	if err = goupdate.Apply(response.Body, options); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	return nil
}
