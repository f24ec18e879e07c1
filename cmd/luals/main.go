// Command luals is the CLI surface over the engine: a `check` command
// that runs the full Decl→Doc→Bind→Flow→ResolveQueue pipeline and
// infer_expr walk spec.md §4.2/§5 describe, over one or more files or a
// workspace directory, and reports what it found.
//
// Grounded on termfx-morfx's demo/cmd/main.go for the cobra root command
// plus fatih/color idiom, and vjache-cie's cmd/cie/index.go for loading
// .env via godotenv before flag parsing and driving a progressbar off a
// phase callback.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/abiiranathan/lua-analyzer/internal/config"
	"github.com/abiiranathan/lua-analyzer/internal/engine"
	"github.com/abiiranathan/lua-analyzer/internal/ids"
	"github.com/abiiranathan/lua-analyzer/internal/lualog"
	"github.com/abiiranathan/lua-analyzer/internal/metrics"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	// Loading a .env is a no-op (and its error ignored) when none is
	// present; no flag or setting of this command is read from the
	// environment it populates.
	_ = godotenv.Load()

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		logLevel    string
		jsonLog     bool
		metricsAddr string
	)

	root := &cobra.Command{
		Use:   "luals",
		Short: "Lua static analyzer and language server core",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a luals.yaml configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "trace|debug|info|warn|error")
	root.PersistentFlags().BoolVar(&jsonLog, "log-json", false, "emit structured JSON logs instead of hclog's human format")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "HTTP listen address for Prometheus /metrics (empty disables)")

	root.AddCommand(newCheckCmd(&configPath, &logLevel, &jsonLog, &metricsAddr))
	return root
}

func newCheckCmd(configPath, logLevel *string, jsonLog *bool, metricsAddr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check [paths...]",
		Short: "Run the compilation pipeline over the given files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), args, *configPath, *logLevel, *jsonLog, *metricsAddr)
		},
	}
}

func runCheck(ctx context.Context, paths []string, configPath, logLevel string, jsonLog bool, metricsAddr string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading %s: %w", configPath, err)
		}
		cfg = loaded
	}

	log := lualog.New(lualog.Options{Level: logLevel, JSON: jsonLog})
	m := metrics.New()
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			log.Info("metrics.http.start", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	files, err := discoverFiles(paths, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, yellow("no files matched"))
		return nil
	}

	a := engine.New(cfg, log, m)
	bar := newProgressBar(len(files))

	// errs collects every per-file failure instead of stopping at the
	// first one, so one unreadable or unparsable file in a large
	// workspace doesn't hide problems in the rest of the batch.
	var errs *multierror.Error
	for i, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			_ = bar.Add(1)
			continue
		}
		file := ids.FileId(i + 1)
		if err := a.UpdateFile(ctx, file, src); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	failed := 0
	if errs != nil {
		failed = len(errs.Errors)
	}
	fmt.Printf("%s analyzed %d file(s)", bold("luals"), len(files))
	if failed > 0 {
		fmt.Printf(", %s\n", red(fmt.Sprintf("%d failed", failed)))
		for _, e := range errs.Errors {
			log.Warn("analysis failed", "err", e)
		}
	} else {
		fmt.Printf(", %s\n", green("all ok"))
	}
	return errs.ErrorOrNil()
}

// discoverFiles expands paths (files or directories) into the concrete
// list of accepted, non-ignored Lua source files, per
// Configuration.Accepted/Ignored (spec.md §6's "Non-Lua files are
// ignored" and workspace.ignoreDir/ignoreGlobs rules).
func discoverFiles(paths []string, cfg *config.Configuration) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.Walk(p, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			rel, rerr := filepath.Rel(p, path)
			if rerr != nil {
				rel = path
			}
			if fi.IsDir() {
				if cfg.Ignored(rel) && rel != "." {
					return filepath.SkipDir
				}
				return nil
			}
			if cfg.Ignored(rel) || !cfg.Accepted(path) {
				return nil
			}
			out = append(out, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// newProgressBar returns a visible bar on an interactive terminal and a
// silent one otherwise (redirected to a file, piped into another tool, or
// running in CI) — go-isatty is the same liveness check vjache-cie's CLI
// uses before deciding whether progress output would just be noise.
func newProgressBar(total int) *progressbar.ProgressBar {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return progressbar.DefaultSilent(int64(total), "analyzing")
	}
	return progressbar.Default(int64(total), "analyzing")
}
