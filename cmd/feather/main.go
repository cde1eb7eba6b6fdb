package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/twg/feather/pkg/feather"
	"github.com/twg/feather/pkg/netcache"
	"github.com/twg/feather/pkg/store"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	verbose    bool
	storeDSN   string

	cfg    featherConfig
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "feather",
		Short:         "Compile and render logic-light templates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "feather.yaml", "Path to feather configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.storeDSN, "store", "", "Template store database (overrides the config file)")

	root.AddCommand(
		a.renderCmd(),
		a.inspectCmd(),
		a.encodeCmd(),
		a.decodeCmd(),
		a.storeCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.storeDSN != "" {
		cfg.Store = a.storeDSN
	}
	a.cfg = cfg

	level := slogLevel(cfg.LogLevel)
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	cmd.SetContext(feather.WithLogger(cmd.Context(), a.logger))
	return nil
}

// loader assembles the partial sources: the given directories, the
// configured template directories, the store and the remote base, in that
// order. The returned func releases the store.
func (a *app) loader(ctx context.Context, dirs []string) (feather.Loader, func(), error) {
	var chain feather.ChainLoader
	for _, dir := range append(append([]string(nil), dirs...), a.cfg.TemplateDirs...) {
		chain = append(chain, feather.FSLoader{FS: os.DirFS(dir), Exts: templateExts})
	}
	closeFn := func() {}
	if a.cfg.Store != "" {
		s, err := store.Open(ctx, a.cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, store.Loader{Store: s, Context: ctx})
		closeFn = func() { _ = s.Close() }
	}
	if a.cfg.RemoteBase != "" {
		c := netcache.New(a.cfg.cacheDir())
		c.Logger = a.logger
		chain = append(chain, netcache.Loader{Cache: c, Base: a.cfg.RemoteBase, Context: ctx})
	}
	return chain, closeFn, nil
}

var templateExts = []string{".feather", ".html", ".txt"}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.cfg.Store == "" {
		return nil, fmt.Errorf("no template store configured; set store in the config file or pass --store")
	}
	return store.Open(ctx, a.cfg.Store)
}

// readSource reads a template file, or stdin for "-".
func readSource(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("fatal", "error", err)
		stop()
		os.Exit(1)
	}
}
