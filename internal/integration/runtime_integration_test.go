package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cyber-dojo/commander/internal/config"
	"github.com/cyber-dojo/commander/internal/service/common"
	"github.com/cyber-dojo/commander/internal/service/startpoint"
	"github.com/cyber-dojo/commander/internal/service/updater"
	"github.com/cyber-dojo/commander/internal/shell"
)

// fakeRuntime answers the subset of the container runtime CLI used by the commands under test.
// Every invocation is appended to the log file.
const fakeRuntime = `#!/bin/sh
echo "$*" >> "%LOG%"
case "$1 $2" in
"volume ls")
	printf 'languages\nplain\n'
	;;
"volume inspect")
	if [ "$3" = languages ]; then
		echo '[{"Name":"languages","Driver":"local","Labels":{"cyber-dojo-start-point":"ok"}}]'
	else
		echo '[{"Name":"plain","Driver":"local","Labels":null}]'
	fi
	;;
"run --rm")
	echo '{"type":"languages","display_names":["C, assert"]}'
	;;
"images --format")
	printf 'cyberdojofoundation/gcc_assert\nredis\ncyberdojofoundation/gcc_assert\n'
	;;
esac
exit 0
`

// setup writes the fake runtime and a settings file pointing at it, then loads the settings
// from the working directory the way the CLI does.
func setup(t *testing.T) (*config.Config, string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("the fake runtime is a POSIX shell script")
	}

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("HOME", dir)

	logPath := filepath.Join(dir, "runtime.log")
	binary := filepath.Join(dir, "docker")
	script := strings.ReplaceAll(fakeRuntime, "%LOG%", logPath)

	//nolint:gosec // The fake runtime must be executable.
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))

	cfg := config.Default()
	cfg.Runtime = binary
	require.NoError(t, config.Save(config.DefaultConfigFilename, cfg))

	loaded, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, binary, loaded.Runtime)

	return loaded, logPath
}

func invocations(t *testing.T, logPath string) []string {
	t.Helper()

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)

	return strings.Split(strings.TrimSuffix(string(contents), "\n"), "\n")
}

func newEnv(cfg *config.Config, debug bool) (*common.Env, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer

	runner := shell.New(cfg.Runtime,
		shell.WithDebug(debug),
		shell.WithStreams(strings.NewReader(""), &stdout, &stderr))

	return &common.Env{
		Config: cfg,
		Exec:   runner,
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

// TestInspect_ThroughRealRunner validates a start-point with one helper container launch.
func TestInspect_ThroughRealRunner(t *testing.T) {
	cfg, logPath := setup(t)
	env, stdout, stderr := newEnv(cfg, false)

	require.NoError(t, startpoint.Inspect(context.Background(), env, []string{"languages"}))
	require.Contains(t, stdout.String(), "type: languages\n")
	require.Empty(t, stderr.String())

	var helperRuns int

	for _, line := range invocations(t, logPath) {
		if strings.HasPrefix(line, "run --rm --volume=languages:/data "+cfg.HelperImage) {
			helperRuns++
		}
	}

	require.Equal(t, 1, helperRuns)
}

// TestInspect_NotStartPoint stops at the label check without a helper container.
func TestInspect_NotStartPoint(t *testing.T) {
	cfg, logPath := setup(t)
	env, _, stderr := newEnv(cfg, false)

	err := startpoint.Inspect(context.Background(), env, []string{"plain"})
	require.Equal(t, common.ExitFailed, common.ExitCode(env.Stderr, err))
	require.Equal(t, "FAILED: plain is not a cyber-dojo start-point.\n", stderr.String())
	require.Equal(t, []string{"volume ls --quiet", "volume inspect plain"}, invocations(t, logPath))
}

// TestInspect_DebugEcho prints each command line and its output to stderr and the status to stdout.
func TestInspect_DebugEcho(t *testing.T) {
	cfg, _ := setup(t)
	env, stdout, stderr := newEnv(cfg, true)

	require.NoError(t, startpoint.Inspect(context.Background(), env, []string{"languages"}))

	echoed := stderr.String()
	ls := strings.Index(echoed, shell.Quote(cfg.Runtime)+" volume ls --quiet\n")
	listing := strings.Index(echoed, "languages\nplain\n")

	require.GreaterOrEqual(t, ls, 0)
	require.Greater(t, listing, ls)
	require.Contains(t, echoed, shell.Quote(cfg.Runtime)+" volume inspect languages\n")
	require.True(t, strings.HasPrefix(stdout.String(), "0\n0\n0\n"))
}

// TestUpdate_ThroughRealRunner pulls every server image then each distinct language image once.
func TestUpdate_ThroughRealRunner(t *testing.T) {
	cfg, logPath := setup(t)
	env, _, _ := newEnv(cfg, false)

	require.NoError(t, updater.Run(context.Background(), env, nil))

	var pulls []string

	for _, line := range invocations(t, logPath) {
		if image, ok := strings.CutPrefix(line, "pull "); ok {
			pulls = append(pulls, image)
		}
	}

	want := make([]string, 0, len(cfg.ServiceImages)+1)
	for _, name := range cfg.ServiceImages {
		want = append(want, cfg.Hub+"/"+name+":latest")
	}

	want = append(want, "cyberdojofoundation/gcc_assert")

	require.Equal(t, want, pulls)
}
