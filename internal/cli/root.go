package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chaz8081/validate-marketplace/internal/config"
	"github.com/chaz8081/validate-marketplace/internal/logger"
	"github.com/chaz8081/validate-marketplace/internal/manifest"
	"github.com/chaz8081/validate-marketplace/internal/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	rootCmd = &cobra.Command{
		Use:   "validate-marketplace",
		Short: "validate-marketplace - check plugin.json against the skills and agents on disk",
		Long: `validate-marketplace checks that .claude-plugin/plugin.json and
.claude-plugin/marketplace.json are valid JSON, that every declared skill
and agent exists, and that every skill and agent on disk is declared.

Missing declared files are errors (exit code 1). Files on disk that the
manifest does not declare are warnings (exit code stays 0).

  Examples:
  validate-marketplace                        # validate the enclosing git repo
  validate-marketplace --root ./my-plugin     # validate a specific directory
  validate-marketplace --remote https://github.com/org/plugin --ref v1.2.0
`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return setup() },
		RunE: func(cmd *cobra.Command, args []string) error {
			r := runValidate(cmd.Context(), cmd.OutOrStdout(), current)
			if code := r.ExitCode(); code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	rootDir    string
	remoteURL  string
	remoteRef  string
	configFile string
	verbose    bool

	settings = viper.New()
	current  *session

	isInteractiveTTY = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootDir, "root", "r", "", "repository root (default: enclosing git worktree)")
	pf.StringVar(&remoteURL, "remote", "", "validate a git repository instead of a local directory")
	pf.StringVar(&remoteRef, "ref", registry.RefLatest, "branch, tag or commit to check out with --remote")
	pf.StringVar(&configFile, "config", "", "config file (default: <root>/"+config.FileName+")")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.String("color", "auto", "color output: auto, always or never")
	pf.Bool("strict-version", false, "require the plugin version to be a semantic version")

	_ = settings.BindPFlag("color", pf.Lookup("color"))
	_ = settings.BindPFlag("strict_version", pf.Lookup("strict-version"))
}

// Execute runs the root cobra command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitError carries a non-zero exit code without an extra message; the
// report has already been printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// session is the resolved repository and configuration of one invocation.
type session struct {
	Root   string
	Source registry.Source
	Config *config.Config
}

// PluginPath returns the path of a file in the plugin directory.
func (s *session) PluginPath(name string) string {
	return filepath.Join(s.Root, filepath.FromSlash(s.Config.PluginDir), name)
}

func setup() error {
	s, err := newSession(context.Background(), settings)
	if err != nil {
		return err
	}
	current = s
	return nil
}

func newSession(ctx context.Context, v *viper.Viper) (*session, error) {
	// only defaults, env and an explicit file apply until the root is known
	pre, err := config.Load(viper.New(), "", configFile)
	if err != nil {
		return nil, err
	}

	src, err := resolveSource(pre)
	if err != nil {
		return nil, err
	}
	root, err := src.Root()
	if err != nil {
		return nil, err
	}
	if gs, ok := src.(*registry.GitSource); ok {
		if err := gs.Refresh(); err != nil {
			logger.G(ctx).WithError(err).Warn("could not refresh remote, using cached copy")
		}
	}

	// the repository may carry its own config file
	cfg, err := config.Load(v, root, configFile)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if err := logger.SetLogLevel(level); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.G(ctx).WithField("root", root).WithField("source", src.Name()).Debug("resolved repository")

	return &session{Root: root, Source: src, Config: cfg}, nil
}

func resolveSource(cfg *config.Config) (registry.Source, error) {
	switch {
	case remoteURL != "":
		return &registry.GitSource{
			URL:       remoteURL,
			Ref:       remoteRef,
			CachePath: filepath.Join(cfg.CacheDir, registry.CacheName(remoteURL, remoteRef)),
		}, nil
	case rootDir != "":
		return registry.LocalSource{Path: rootDir}, nil
	default:
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		root, err := registry.DetectRoot(wd)
		if err != nil {
			return nil, err
		}
		return registry.LocalSource{Path: root}, nil
	}
}

// loadPlugin reads the session's plugin.json for commands that need it
// before (or instead of) a full validation run.
func loadPlugin(s *session) (*manifest.PluginManifest, error) {
	if err := manifest.CheckSyntax(s.PluginPath(manifest.MarketplaceFilename)); err != nil {
		return nil, err
	}
	return manifest.LoadPlugin(s.PluginPath(manifest.PluginFilename))
}
