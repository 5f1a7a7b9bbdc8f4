package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	domain "github.com/cyber-dojo/commander/internal/domain/startpoint"
	"github.com/cyber-dojo/commander/internal/logger"
	"github.com/cyber-dojo/commander/internal/service/common"
	"github.com/cyber-dojo/commander/internal/service/startpoint"
)

const (
	defaultLanguages = "languages"
	defaultExercises = "exercises"
	defaultCustom    = "custom"
	defaultPort      = "80"

	maxPort = 65535
)

var (
	// UpHelp is the help text of `up`.
	UpHelp = []string{
		"",
		fmt.Sprintf("Use: %s up [OPTIONS]", common.Me),
		"",
		"Creates and starts the cyber-dojo server using named/default start-points",
		"",
		"  --languages=NAME   Use the NAME languages start-point (default: " + defaultLanguages + ")",
		"  --exercises=NAME   Use the NAME exercises start-point (default: " + defaultExercises + ")",
		"  --custom=NAME      Use the NAME custom start-point (default: " + defaultCustom + ")",
		"  --port=PORT        Serve on PORT (default: " + defaultPort + ")",
	}

	// DownHelp is the help text of `down`.
	DownHelp = []string{
		"",
		fmt.Sprintf("Use: %s down", common.Me),
		"",
		"Stops and removes docker containers created with 'up'",
	}

	// LogsHelp is the help text of `logs`.
	LogsHelp = []string{
		"",
		fmt.Sprintf("Use: %s logs SERVICE", common.Me),
		"",
		"Fetches and prints the logs of a service container",
		fmt.Sprintf("Example: %s logs web", common.Me),
	}

	// ShHelp is the help text of `sh`.
	ShHelp = []string{
		"",
		fmt.Sprintf("Use: %s sh SERVICE", common.Me),
		"",
		"Shells into a service container",
		fmt.Sprintf("Example: %s sh web", common.Me),
		fmt.Sprintf("Example: %s sh saver", common.Me),
	}

	// CleanHelp is the help text of `clean`.
	CleanHelp = []string{
		"",
		fmt.Sprintf("Use: %s clean", common.Me),
		"",
		"Removes dangling docker images and exited containers",
	}
)

// startPointOption is one --NAME=VOLUME option of `up`.
type startPointOption struct {
	flag string
	typ  domain.Type
	def  string
	env  string
}

func startPointOptions() []startPointOption {
	return []startPointOption{
		{flag: "--languages", typ: domain.TypeLanguages, def: defaultLanguages, env: "CYBER_DOJO_START_POINT_LANGUAGES"},
		{flag: "--exercises", typ: domain.TypeExercises, def: defaultExercises, env: "CYBER_DOJO_START_POINT_EXERCISES"},
		{flag: "--custom", typ: domain.TypeCustom, def: defaultCustom, env: "CYBER_DOJO_START_POINT_CUSTOM"},
	}
}

// Up handles `up [--languages=NAME] [--exercises=NAME] [--custom=NAME] [--port=PORT]`.
// Each start-point must pass the validation gate and declare the matching type.
func Up(ctx context.Context, env *common.Env, args []string) error {
	ctx = logger.WithName(ctx, "up")

	if common.HasHelp(args) {
		common.ShowHelp(env.Stdout, UpHelp)
		return nil
	}

	options := startPointOptions()

	var extra []string

	for _, arg := range args {
		if !isKnownOption(arg, options) {
			extra = append(extra, arg)
		}
	}

	if err := common.RejectExtra(env.Stderr, extra); err != nil {
		return err
	}

	vars := make([]string, 0, len(options)+1)

	for _, opt := range options {
		name, ok := common.GetArg(opt.flag, args)
		if !ok || name == "" {
			name = opt.def
		}

		if err := startpoint.RequireType(ctx, env, name, opt.typ); err != nil {
			return err
		}

		vars = append(vars, opt.env+"="+name)
	}

	port, ok := common.GetArg("--port", args)
	if !ok || port == "" {
		port = defaultPort
	}

	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > maxPort {
		return common.Fail(env.Stderr, "invalid port [%s]", port)
	}

	vars = append(vars, "CYBER_DOJO_PORT="+port)

	logger.InfoKV(ctx, "Bringing up server", "env", strings.Join(vars, " "))

	return stream(ctx, env, vars, "compose", "--file", env.Config.ComposeFile, "up", "-d")
}

// Down handles `down`.
func Down(ctx context.Context, env *common.Env, args []string) error {
	if common.HasHelp(args) {
		common.ShowHelp(env.Stdout, DownHelp)
		return nil
	}

	if err := common.RejectExtra(env.Stderr, args); err != nil {
		return err
	}

	return stream(ctx, env, nil, "compose", "--file", env.Config.ComposeFile, "down")
}

// Logs handles `logs SERVICE`.
func Logs(ctx context.Context, env *common.Env, args []string) error {
	if common.NeedsHelp(args, 0) {
		common.ShowHelp(env.Stdout, LogsHelp)
		return nil
	}

	if err := common.RejectExtra(env.Stderr, args[1:]); err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "service", args[0])

	container, err := runningContainer(ctx, env, args[0])
	if err != nil {
		return err
	}

	return stream(ctx, env, nil, "logs", container)
}

// Sh handles `sh SERVICE`. Too many arguments print the help text and fail.
func Sh(ctx context.Context, env *common.Env, args []string) error {
	if common.NeedsHelp(args, 0) {
		common.ShowHelp(env.Stdout, ShHelp)
		return nil
	}

	if len(args) > 1 {
		common.ShowHelp(env.Stdout, ShHelp)
		return common.Failed()
	}

	ctx = logger.WithKV(ctx, "service", args[0])

	container, err := runningContainer(ctx, env, args[0])
	if err != nil {
		return err
	}

	return stream(ctx, env, nil, "exec", "--interactive", "--tty", container, "sh")
}

// Clean handles `clean`.
func Clean(ctx context.Context, env *common.Env, args []string) error {
	if common.HasHelp(args) {
		common.ShowHelp(env.Stdout, CleanHelp)
		return nil
	}

	if err := common.RejectExtra(env.Stderr, args); err != nil {
		return err
	}

	if err := stream(ctx, env, nil, "image", "prune", "--force"); err != nil {
		return err
	}

	return stream(ctx, env, nil, "container", "prune", "--force")
}

// runningContainer returns the container name of service, failing when it is not running.
func runningContainer(ctx context.Context, env *common.Env, service string) (string, error) {
	container := env.Config.ContainerPrefix + service

	res, err := env.Exec.Run(ctx, "ps", "--quiet", "--filter", "name="+container)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(res.Output) == "" {
		return "", common.Fail(env.Stderr, "%s is not a running service", service)
	}

	return container, nil
}

// stream runs a runtime command on the terminal and turns a non-zero status into an exit error.
func stream(ctx context.Context, env *common.Env, vars []string, args ...string) error {
	status, err := env.Exec.Stream(ctx, vars, args...)
	if err != nil {
		return err
	}

	if status != 0 {
		logger.WarnKV(ctx, "Runtime command failed", "args", strings.Join(args, " "), "status", status)
		return &common.ExitError{Code: status}
	}

	return nil
}

func isKnownOption(arg string, options []startPointOption) bool {
	if strings.HasPrefix(arg, "--port=") {
		return true
	}

	for _, opt := range options {
		if strings.HasPrefix(arg, opt.flag+"=") {
			return true
		}
	}

	return false
}
