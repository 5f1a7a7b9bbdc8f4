package startpoint

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	domain "github.com/cyber-dojo/commander/internal/domain/startpoint"
	"github.com/cyber-dojo/commander/internal/logger"
	"github.com/cyber-dojo/commander/internal/repository/volume"
	"github.com/cyber-dojo/commander/internal/service/common"
)

// quietFlag makes `start-point ls` print names only.
const quietFlag = "--quiet"

var (
	// GroupHelp is the help text of `start-point`.
	GroupHelp = []string{
		"",
		fmt.Sprintf("Use: %s start-point [COMMAND]", common.Me),
		"",
		"Manage cyber-dojo start-points",
		"",
		"Commands:",
		"  inspect     Displays details of a start-point",
		"  ls          Lists the names of all start-points",
		"  rm          Removes a start-point",
		"",
		fmt.Sprintf("Run '%s start-point COMMAND --help' for more information on a command", common.Me),
	}

	// InspectHelp is the help text of `start-point inspect`.
	InspectHelp = []string{
		"",
		fmt.Sprintf("Use: %s start-point inspect NAME", common.Me),
		"",
		"Displays details of the named start-point",
	}

	// ListHelp is the help text of `start-point ls`.
	ListHelp = []string{
		"",
		fmt.Sprintf("Use: %s start-point ls [OPTIONS]", common.Me),
		"",
		"Lists the name, type, and label of all cyber-dojo start-points",
		"",
		"  " + quietFlag + "     Only display start-point names",
	}

	// RemoveHelp is the help text of `start-point rm`.
	RemoveHelp = []string{
		"",
		fmt.Sprintf("Use: %s start-point rm NAME", common.Me),
		"",
		"Removes the named start-point volume",
	}
)

// inspection is the document printed by `start-point inspect`.
type inspection struct {
	Name     string         `yaml:"name"`
	Label    string         `yaml:"label"`
	Type     string         `yaml:"type"`
	Driver   string         `yaml:"driver,omitempty"`
	Manifest map[string]any `yaml:"manifest,omitempty"`
}

// newInspector wires an Inspector to the runtime held by env.
func newInspector(env *common.Env) (*Inspector, volume.Repository) {
	repo := volume.NewRuntimeRepository(env.Exec)

	return NewInspector(repo, env.Exec, env.Config.HelperImage), repo
}

// Group handles `start-point` without a known subcommand.
func Group(_ context.Context, env *common.Env, args []string) error {
	if common.NeedsHelp(args, 0) {
		common.ShowHelp(env.Stdout, GroupHelp)
		return nil
	}

	return common.UnknownArgument(env.Stderr, args[0])
}

// Inspect handles `start-point inspect NAME`.
// The help check runs first, then the validation gate, then the extra-argument check.
func Inspect(ctx context.Context, env *common.Env, args []string) error {
	ctx = logger.WithName(ctx, "start-point-inspect")

	if common.NeedsHelp(args, 0) {
		common.ShowHelp(env.Stdout, InspectHelp)
		return nil
	}

	name := args[0]
	ctx = logger.WithKV(ctx, "volume", name)
	inspector, _ := newInspector(env)

	record, err := inspector.Require(ctx, name)
	if err != nil {
		return report(env, err)
	}

	if err = common.RejectExtra(env.Stderr, args[1:]); err != nil {
		return err
	}

	manifest, err := inspector.ReadManifest(ctx, name)
	if err != nil {
		return err
	}

	doc := inspection{
		Name:     record.Name,
		Label:    record.Label(),
		Type:     manifest.Type.String(),
		Driver:   record.Driver,
		Manifest: manifest.Fields,
	}

	encoder := yaml.NewEncoder(env.Stdout)
	encoder.SetIndent(2)

	if err = encoder.Encode(doc); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	return encoder.Close()
}

// List handles `start-point ls [--quiet]`.
func List(ctx context.Context, env *common.Env, args []string) error {
	ctx = logger.WithName(ctx, "start-point-ls")

	if common.HasHelp(args) {
		common.ShowHelp(env.Stdout, ListHelp)
		return nil
	}

	var (
		quiet bool
		extra []string
	)

	for _, arg := range args {
		if arg == quietFlag {
			quiet = true
			continue
		}

		extra = append(extra, arg)
	}

	if err := common.RejectExtra(env.Stderr, extra); err != nil {
		return err
	}

	inspector, repo := newInspector(env)

	names, err := repo.List(ctx)
	if err != nil {
		return err
	}

	records, err := inspectListed(ctx, repo, names)
	if err != nil {
		return err
	}

	records = slices.DeleteFunc(records, func(v *domain.Volume) bool {
		return !v.IsStartPoint()
	})
	slices.SortFunc(records, func(a, b *domain.Volume) int {
		return strings.Compare(a.Name, b.Name)
	})

	logger.DebugKV(ctx, "Found start-points", "count", len(records), "volumes", len(names))

	if quiet {
		for _, record := range records {
			_, _ = fmt.Fprintln(env.Stdout, record.Name)
		}

		return nil
	}

	table := tabwriter.NewWriter(env.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(table, "NAME\tTYPE\tLABEL")

	for _, record := range records {
		manifest, err := inspector.ReadManifest(ctx, record.Name)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(table, "%s\t%s\t%s\n", record.Name, manifest.Type, record.Label())
	}

	return table.Flush()
}

// inspectListed inspects names in one runtime call. When a volume was removed after
// the listing, it inspects them one by one and skips those that are gone.
func inspectListed(ctx context.Context, repo volume.Repository, names []string) ([]*domain.Volume, error) {
	records, err := repo.InspectAll(ctx, names...)
	if !errors.Is(err, volume.ErrVolumeNotFound) {
		return records, err
	}

	logger.DebugKV(ctx, "Volume went away during listing, inspecting one by one", "error", err)

	records = make([]*domain.Volume, 0, len(names))

	for _, name := range names {
		record, err := repo.Inspect(ctx, name)
		if errors.Is(err, volume.ErrVolumeNotFound) {
			logger.DebugKV(ctx, "Skipping removed volume", "volume", name)
			continue
		}

		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

// Remove handles `start-point rm NAME`.
func Remove(ctx context.Context, env *common.Env, args []string) error {
	ctx = logger.WithName(ctx, "start-point-rm")

	if common.NeedsHelp(args, 0) {
		common.ShowHelp(env.Stdout, RemoveHelp)
		return nil
	}

	name := args[0]
	ctx = logger.WithKV(ctx, "volume", name)
	inspector, repo := newInspector(env)

	if _, err := inspector.Require(ctx, name); err != nil {
		return report(env, err)
	}

	if err := common.RejectExtra(env.Stderr, args[1:]); err != nil {
		return err
	}

	if err := repo.Remove(ctx, name); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Removed start-point")

	return nil
}

// report prints gate failures as FAILED lines; other errors are left for the caller.
func report(env *common.Env, err error) error {
	if ve, ok := asVolumeError(err); ok {
		return common.Fail(env.Stderr, "%s", ve.Error())
	}

	return err
}
