package startpoint

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cyber-dojo/commander/internal/config"
	domain "github.com/cyber-dojo/commander/internal/domain/startpoint"
	"github.com/cyber-dojo/commander/internal/repository/volume"
	"github.com/cyber-dojo/commander/internal/service/common"
	"github.com/cyber-dojo/commander/internal/shell/shelltest"
)

const (
	labeledRecord   = `[{"Name":"languages","Driver":"local","Labels":{"cyber-dojo-start-point":"ok"}}]`
	unlabeledRecord = `[{"Name":"plain","Driver":"local","Labels":null}]`
	languagesJSON   = `{"type":"languages","url":"https://github.com/cyber-dojo/start-points-languages.git"}`
)

// runtimeFixture scripts a runtime with one labeled volume, one plain volume and one whose name extends another.
func runtimeFixture() *shelltest.Fake {
	return shelltest.New().
		OnOutput("languages\nplain\nlanguages-old\n", "volume", "ls", "--quiet").
		OnOutput(labeledRecord, "volume", "inspect", "languages").
		OnOutput(unlabeledRecord, "volume", "inspect", "plain").
		OnOutput(languagesJSON, ManifestCommand(config.DefaultHelperImage, "languages")...)
}

func newEnv(fake *shelltest.Fake) (*common.Env, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer

	return &common.Env{
		Config: config.Default(),
		Exec:   fake,
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func newTestInspector(fake *shelltest.Fake) *Inspector {
	return NewInspector(volume.NewRuntimeRepository(fake), fake, config.DefaultHelperImage)
}

// TestRequire_MissingVolume fails without ever inspecting the volume.
func TestRequire_MissingVolume(t *testing.T) {
	t.Parallel()

	fake := runtimeFixture()

	for _, name := range []string{"lang", "languages-o", "missing"} {
		_, err := newTestInspector(fake).Require(context.Background(), name)
		require.ErrorIs(t, err, ErrDoesNotExist)
		require.Equal(t, name+" does not exist.", err.Error())
	}

	require.Zero(t, fake.Count("volume", "inspect"))
	require.Zero(t, fake.Count("run"))
}

// TestRequire_UnlabeledVolume rejects a volume without the start-point label.
func TestRequire_UnlabeledVolume(t *testing.T) {
	t.Parallel()

	fake := runtimeFixture()

	_, err := newTestInspector(fake).Require(context.Background(), "plain")
	require.ErrorIs(t, err, ErrNotStartPoint)
	require.Equal(t, "plain is not a cyber-dojo start-point.", err.Error())
	require.Zero(t, fake.Count("run"))
}

// TestRequire_StartPoint passes for a labeled volume and launches no helper container.
func TestRequire_StartPoint(t *testing.T) {
	t.Parallel()

	fake := runtimeFixture()

	record, err := newTestInspector(fake).Require(context.Background(), "languages")
	require.NoError(t, err)
	require.Equal(t, "ok", record.Label())
	require.Equal(t, 1, fake.Count("volume", "inspect"))
	require.Zero(t, fake.Count("run"))
}

// TestRequire_MalformedInspect propagates environment errors unchanged.
func TestRequire_MalformedInspect(t *testing.T) {
	t.Parallel()

	fake := shelltest.New().
		OnOutput("broken\n", "volume", "ls", "--quiet").
		OnOutput("{", "volume", "inspect", "broken")

	_, err := newTestInspector(fake).Require(context.Background(), "broken")
	require.ErrorIs(t, err, volume.ErrMalformedInspect)

	_, isVolumeError := asVolumeError(err)
	require.False(t, isVolumeError)
}

// TestReadManifest runs one self-removing helper container and decodes its output.
func TestReadManifest(t *testing.T) {
	t.Parallel()

	fake := runtimeFixture()
	inspector := newTestInspector(fake)

	typ, err := inspector.Type(context.Background(), "languages")
	require.NoError(t, err)
	require.Equal(t, domain.TypeLanguages, typ)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, []string{
		"run", "--rm", "--volume=languages:/data", "cyberdojo/commander",
		"sh", "-c", "cat /data/start_point_type.json",
	}, calls[0].Args)

	// The helper image exits non-zero when the manifest is missing.
	_, err = inspector.ReadManifest(context.Background(), "plain")
	require.ErrorIs(t, err, ErrManifestUnreadable)
}

// TestInspect_Help prints help and succeeds when no name or --help is given.
func TestInspect_Help(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{nil, {"--help"}} {
		fake := runtimeFixture()
		env, stdout, stderr := newEnv(fake)

		err := Inspect(context.Background(), env, args)
		require.NoError(t, err)
		require.Contains(t, stdout.String(), "Use: cyber-dojo start-point inspect NAME")
		require.Empty(t, stderr.String())
		require.Empty(t, fake.Calls())
	}
}

// TestInspect_StartPoint prints the manifest-derived document after exactly one manifest read.
func TestInspect_StartPoint(t *testing.T) {
	t.Parallel()

	fake := runtimeFixture()
	env, stdout, stderr := newEnv(fake)

	err := Inspect(context.Background(), env, []string{"languages"})
	require.NoError(t, err)
	require.Empty(t, stderr.String())

	out := stdout.String()
	require.Contains(t, out, "name: languages\n")
	require.Contains(t, out, "label: ok\n")
	require.Contains(t, out, "type: languages\n")
	require.Contains(t, out, "url: https://github.com/cyber-dojo/start-points-languages.git")
	require.Equal(t, 1, fake.Count("run"))
}

// TestInspect_ExtraArgument reports exactly one FAILED line and exits 1 before any helper container runs.
func TestInspect_ExtraArgument(t *testing.T) {
	t.Parallel()

	fake := runtimeFixture()
	env, stdout, stderr := newEnv(fake)

	err := Inspect(context.Background(), env, []string{"languages", "extra"})
	require.Equal(t, common.ExitFailed, common.ExitCode(env.Stderr, err))
	require.Equal(t, "FAILED: unknown argument [extra]\n", stderr.String())
	require.Empty(t, stdout.String())
	require.Zero(t, fake.Count("run"))
}

// TestInspect_ExtraArguments reports every extra argument.
func TestInspect_ExtraArguments(t *testing.T) {
	t.Parallel()

	env, _, stderr := newEnv(runtimeFixture())

	err := Inspect(context.Background(), env, []string{"languages", "a", "b"})
	require.Error(t, err)
	require.Equal(t, "FAILED: unknown argument [a]\nFAILED: unknown argument [b]\n", stderr.String())
}

// TestInspect_GateFailures print the gate's sentence and exit 1.
func TestInspect_GateFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing": "FAILED: missing does not exist.\n",
		"plain":   "FAILED: plain is not a cyber-dojo start-point.\n",
	}

	for name, want := range cases {
		fake := runtimeFixture()
		env, _, stderr := newEnv(fake)

		// Extra arguments are not reported once the gate has failed.
		err := Inspect(context.Background(), env, []string{name, "extra"})
		require.Equal(t, common.ExitFailed, common.ExitCode(env.Stderr, err))
		require.Equal(t, want, stderr.String())
		require.Zero(t, fake.Count("run"))
	}
}

// TestList prints a sorted table of start-points only.
func TestList(t *testing.T) {
	t.Parallel()

	fake := shelltest.New().
		OnOutput("zed\nplain\nlanguages\n", "volume", "ls", "--quiet").
		OnOutput(`[
			{"Name":"zed","Labels":{"cyber-dojo-start-point":"ok"}},
			{"Name":"plain","Labels":null},
			{"Name":"languages","Labels":{"cyber-dojo-start-point":"ok"}}
		]`, "volume", "inspect", "zed", "plain", "languages").
		OnOutput(languagesJSON, ManifestCommand(config.DefaultHelperImage, "languages")...).
		OnOutput(`{"type":"exercises"}`, ManifestCommand(config.DefaultHelperImage, "zed")...)

	env, stdout, _ := newEnv(fake)

	require.NoError(t, List(context.Background(), env, nil))
	require.Equal(t,
		"NAME        TYPE        LABEL\n"+
			"languages   languages   ok\n"+
			"zed         exercises   ok\n",
		stdout.String())
	require.Equal(t, 2, fake.Count("run"))

	// Quiet mode reads no manifest.
	env, stdout, _ = newEnv(fake)
	require.NoError(t, List(context.Background(), env, []string{"--quiet"}))
	require.Equal(t, "languages\nzed\n", stdout.String())
	require.Equal(t, 2, fake.Count("run"))
}

// TestList_VolumeRemovedDuringListing skips a volume that disappears between ls and inspect.
func TestList_VolumeRemovedDuringListing(t *testing.T) {
	t.Parallel()

	fake := shelltest.New().
		OnOutput("zed\ngone\nlanguages\n", "volume", "ls", "--quiet").
		OnOutput(`[{"Name":"zed","Labels":{"cyber-dojo-start-point":"ok"}}]`, "volume", "inspect", "zed").
		OnOutput(labeledRecord, "volume", "inspect", "languages").
		OnOutput(languagesJSON, ManifestCommand(config.DefaultHelperImage, "languages")...).
		OnOutput(`{"type":"exercises"}`, ManifestCommand(config.DefaultHelperImage, "zed")...)

	env, stdout, stderr := newEnv(fake)

	require.NoError(t, List(context.Background(), env, nil))
	require.Equal(t,
		"NAME        TYPE        LABEL\n"+
			"languages   languages   ok\n"+
			"zed         exercises   ok\n",
		stdout.String())
	require.Empty(t, stderr.String())
	require.Equal(t, 1, fake.Count("volume", "inspect", "zed", "gone", "languages"))
	require.Equal(t, 1, fake.Count("volume", "inspect", "gone"))
}

// TestList_UnknownArgument reports each unknown argument.
func TestList_UnknownArgument(t *testing.T) {
	t.Parallel()

	fake := runtimeFixture()
	env, _, stderr := newEnv(fake)

	err := List(context.Background(), env, []string{"--quiet", "--all"})
	require.Error(t, err)
	require.Equal(t, "FAILED: unknown argument [--all]\n", stderr.String())
	require.Empty(t, fake.Calls())
}

// TestRemove deletes a validated start-point and refuses anything else.
func TestRemove(t *testing.T) {
	t.Parallel()

	fake := runtimeFixture().OnOutput("languages\n", "volume", "rm", "languages")
	env, _, stderr := newEnv(fake)

	require.NoError(t, Remove(context.Background(), env, []string{"languages"}))
	require.Equal(t, 1, fake.Count("volume", "rm"))

	err := Remove(context.Background(), env, []string{"plain"})
	require.Error(t, err)
	require.Equal(t, "FAILED: plain is not a cyber-dojo start-point.\n", stderr.String())
	require.Equal(t, 1, fake.Count("volume", "rm"))
}

// TestRequireType checks the declared type against the expected one.
func TestRequireType(t *testing.T) {
	t.Parallel()

	fake := runtimeFixture()
	env, _, stderr := newEnv(fake)

	require.NoError(t, RequireType(context.Background(), env, "languages", domain.TypeLanguages))

	err := RequireType(context.Background(), env, "languages", domain.TypeExercises)
	require.ErrorIs(t, err, ErrUnexpectedType)
	require.Equal(t, common.ExitFailed, common.ExitCode(env.Stderr, err))
	require.Equal(t, "FAILED: the type of languages is languages (expecting exercises)\n", stderr.String())
}

// TestGroup shows help or rejects an unknown subcommand.
func TestGroup(t *testing.T) {
	t.Parallel()

	env, stdout, stderr := newEnv(shelltest.New())

	require.NoError(t, Group(context.Background(), env, nil))
	require.Contains(t, stdout.String(), "Use: cyber-dojo start-point [COMMAND]")

	err := Group(context.Background(), env, []string{"bogus"})
	require.Error(t, err)
	require.Equal(t, "FAILED: unknown argument [bogus]\n", stderr.String())
}
