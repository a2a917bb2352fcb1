package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"telcat/internal/app"
	"telcat/internal/config"
	"telcat/internal/errors"
	"telcat/pkg/launch"
)

// version is set at build time via ldflags
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "telcat",
	Short:   "telcat - containerized terminal client launcher",
	Version: version,
	Long: `telcat ensures the terminal client image exists locally (building it
from the Dockerfile shipped next to the telcat executable when needed),
then runs it interactively with all arguments forwarded verbatim.

The launcher's exit code is the contained client's exit code.`,
}

var runCmd = &cobra.Command{
	Use:   "run [args...]",
	Short: "Run the client, building its image only if missing",
	Long: `Run launches the client image interactively. The image is built from the
local build specification only when no image with the target name:tag
exists yet; subsequent invocations reuse it.

All arguments are forwarded to the contained client unmodified and in
order. No flags are interpreted by the launcher itself.`,
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		launchAndExit(cmd.Context(), launch.BuildIfMissing, args)
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild [args...]",
	Short: "Rebuild the client image unconditionally, then run it",
	Long: `Rebuild forces a fresh image build from the local build specification,
regardless of whether an image already exists, and then runs it the same
way as the run command.`,
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		launchAndExit(cmd.Context(), launch.AlwaysBuild, args)
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Resolve the client image without running it",
	Long: `Build ensures the client image exists locally and exits. With --force the
image is rebuilt even when present.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		mode := launch.BuildIfMissing
		if force {
			mode = launch.AlwaysBuild
		}

		cfg, err := loadConfig()
		if err != nil {
			errors.HandleError(err)
			os.Exit(1)
		}

		if err := app.Build(cmd.Context(), cfg, mode); err != nil {
			errors.HandleError(err)
			os.Exit(1)
		}
	},
}

// launchAndExit runs the full resolve-then-run sequence and exits with
// the contained process's exit code.
func launchAndExit(ctx context.Context, mode launch.Mode, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		errors.HandleError(err)
		os.Exit(1)
	}

	exitCode, err := app.Launch(ctx, cfg, mode, args)
	if err != nil {
		errors.HandleError(err)
		os.Exit(1)
	}

	os.Exit(exitCode)
}

// loadConfig reads configuration from TELCAT_* env vars and, when
// TELCAT_CONFIG is set, from that YAML file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(os.Getenv("TELCAT_CONFIG"))
	if err != nil {
		return nil, errors.NewConfigError(
			"Failed to load launcher configuration",
			err.Error(),
			"Check TELCAT_* environment variables and the TELCAT_CONFIG file",
			err,
		)
	}
	return cfg, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(rebuildCmd)

	buildCmd.Flags().Bool("force", false, "Rebuild the image even if it already exists")
	rootCmd.AddCommand(buildCmd)
}

// normalizeArgs makes run the default action, so `telcat host 9000`
// behaves like `telcat run host 9000`. Known subcommands, flags addressed
// to the launcher itself, and cobra's built-ins pass through untouched.
func normalizeArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	first := args[0]
	if strings.HasPrefix(first, "-") {
		return args
	}
	if first == "help" || first == "completion" || strings.HasPrefix(first, "__complete") {
		return args
	}
	for _, cmd := range rootCmd.Commands() {
		if first == cmd.Name() || cmd.HasAlias(first) {
			return args
		}
	}

	return append([]string{"run"}, args...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetArgs(normalizeArgs(os.Args[1:]))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
