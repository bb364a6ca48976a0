package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"threadloom/internal/cmdlog"
	"threadloom/internal/config"
	"threadloom/internal/graph"
	"threadloom/internal/ingest"
	"threadloom/internal/jobs"
	"threadloom/internal/logging"
	"threadloom/internal/metrics"
	"threadloom/internal/refcache"
	"threadloom/internal/store/eventstore"
	"threadloom/internal/theme"
)

type app struct {
	cfgPath string
	cfg     config.Config
	cache   *refcache.Cache
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "threadloom",
		Short:        "Rebuild nostr conversation threads from out-of-order events",
		Long:         theme.Banner() + "\nRebuild nostr conversation threads from out-of-order events.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Name() == "init")
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "./threadloom.yaml", "config path")
	root.AddCommand(a.initCmd(), a.importCmd(), a.showCmd(), a.replayCmd(), a.metricsCmd())
	return root
}

// setup loads config (defaults when the file is absent) and wires logging and metrics.
func (a *app) setup(skipLoad bool) error {
	logging.SetOutput(os.Stderr)
	a.cfg = config.Default()
	if !skipLoad {
		cfg, err := config.Load(a.cfgPath)
		switch {
		case err == nil:
			a.cfg = cfg
		case errors.Is(err, fs.ErrNotExist):
			a.cfg.ResolveEnv()
			if err := a.cfg.Validate(); err != nil {
				return err
			}
		default:
			return err
		}
	}
	if err := logging.SetLevel(a.cfg.Log.Level); err != nil {
		return err
	}
	a.cache = refcache.New(a.cfg.Cache.MaxSize)
	metrics.StartServer(a.cfg.Metrics.Addr)
	return nil
}

func (a *app) initCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("init", func() error {
				if err := config.Save(path, config.Default()); err != nil {
					return err
				}
				abs, _ := filepath.Abs(path)
				out := cmd.OutOrStdout()
				fmt.Fprint(out, theme.Banner())
				fmt.Fprintln(out, "Config written to:", abs)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&path, "path", "./threadloom.yaml", "path to write config")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Archive JSONL events (one event per line; stdin when no file or \"-\")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("import", func() error {
				r, closeFn, err := openInput(cmd, args)
				if err != nil {
					return err
				}
				defer closeFn()
				db, err := eventstore.Open(a.cfg.Storage.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
				st, err := ingest.ArchiveStream(cmd.Context(), db, refcache.NewResolver(a.cache), r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "lines=%d stored=%d duplicates=%d malformed=%d\n",
					st.Lines, st.Stored, st.Duplicates, st.Malformed)
				return nil
			})
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	var focus string
	cmd := &cobra.Command{
		Use:   "show <root-id>",
		Short: "Print an archived thread as a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("show", func() error {
				g, err := graph.New(args[0], graph.WithResolver(refcache.NewResolver(a.cache)))
				if err != nil {
					return err
				}
				db, err := eventstore.Open(a.cfg.Storage.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
				if _, err := ingest.LoadThread(cmd.Context(), db, g); err != nil {
					return err
				}
				printTree(cmd.OutOrStdout(), g, focus)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&focus, "focus", "", "event id whose branch is highlighted")
	return cmd
}

func (a *app) replayCmd() *cobra.Command {
	var rootID, focus string
	cmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "Build a thread straight from JSONL events without archiving them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("replay", func() error {
				r, closeFn, err := openInput(cmd, args)
				if err != nil {
					return err
				}
				defer closeFn()
				g, err := graph.New(rootID, graph.WithResolver(refcache.NewResolver(a.cache)))
				if err != nil {
					return err
				}
				return replay(cmd.Context(), g, a.cfg.Ingest, r, cmd.OutOrStdout(), focus)
			})
		},
	}
	cmd.Flags().StringVar(&rootID, "root", "", "root event id of the thread (required)")
	cmd.Flags().StringVar(&focus, "focus", "", "event id whose branch is highlighted")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}

// replay feeds r through a Pump so ingestion happens on one goroutine, then prints.
func replay(ctx context.Context, g *graph.Graph, cfg config.IngestConfig, r io.Reader, w io.Writer, focus string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := jobs.NewPump(g, cfg)
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx) }()

	if err := ingest.ReadJSONL(r, func(line []byte) error { return p.Submit(ctx, line) }); err != nil {
		return err
	}
	if err := p.Do(ctx, func(g *graph.Graph) { printTree(w, g, focus) }); err != nil {
		return err
	}
	cancel()
	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *app) metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-metrics",
		Short: "Expose /metrics and /health until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Metrics.Addr == "" {
				return errors.New("metrics.addr (or METRICS_ADDR) is not set")
			}
			logging.Info("metrics_listen", map[string]any{"addr": a.cfg.Metrics.Addr})
			<-cmd.Context().Done()
			return nil
		},
	}
}

func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
