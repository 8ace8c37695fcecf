package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
	Send(msg tea.Msg)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// globalOptions holds persistent flags shared by every command.
type globalOptions struct {
	configPath  string
	apiURL      string
	sessionPath string
	appName     string
	devMode     bool
	logLevel    string
}

// run builds the command tree and executes it through fang.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if stdin == nil {
		stdin = strings.NewReader("")
	}

	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// newRootCmd assembles the root command and its subcommands.
func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{appName: "taskdeck", devMode: version == "dev"}
	if envDev, ok := parseBoolEnv("TASKDECK_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("TASKDECK_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	root := &cobra.Command{
		Use:           "taskdeck",
		Short:         "Browse and manage tasks on a task API server",
		Long:          "taskdeck is a terminal client for a task API: an interactive list with search, filters, sorting and paging, plus scripting commands.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML (env TASKDECK_CONFIG)")
	flags.StringVar(&opts.apiURL, "api-url", "", "task API base url (env TASKDECK_API_URL)")
	flags.StringVar(&opts.sessionPath, "session", "", "path to the session database (env TASKDECK_SESSION_PATH)")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	flags.StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		pathsCmd(opts, stdout),
		configCmd(opts, stdout),
		loginCmd(opts, stdin, stdout, stderr),
		registerCmd(opts, stdin, stdout, stderr),
		logoutCmd(opts, stdout, stderr),
		whoamiCmd(opts, stdout, stderr),
		passwdCmd(opts, stdin, stdout, stderr),
		listCmd(opts, stdout, stderr),
		showCmd(opts, stdout, stderr),
		createCmd(opts, stdout, stderr),
		updateCmd(opts, stdout, stderr),
		deleteCmd(opts, stdout, stderr),
		attachCmd(opts, stdout, stderr),
		mcpCmd(opts, stderr),
	)
	return root
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// parseID reads one positive numeric id argument.
func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}
