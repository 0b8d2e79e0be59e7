package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	jscbridge "github.com/yejune/go-jsc-bridge"
	"github.com/yejune/go-jsc-bridge/internal/bundler"
	"github.com/yejune/go-jsc-bridge/internal/cache"
	"github.com/yejune/go-jsc-bridge/internal/hotreload"
	"github.com/yejune/go-jsc-bridge/internal/logstore"
	"github.com/yejune/go-jsc-bridge/internal/logstream"
	"github.com/yejune/go-jsc-bridge/jscbridge-cli/cmd"
	"github.com/yejune/go-jsc-bridge/jscbridge-cli/config"
	"github.com/yejune/go-jsc-bridge/jscbridge-cli/logger"
)

var runCmd = &cobra.Command{
	Use:   "run [files...]",
	Short: "Evaluate scripts in a fresh engine context",
	Long:  "Evaluate scripts in a fresh engine context, optionally bundling them first and reloading on change.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  run,
}

var (
	configPath string
	runtime    string
	policy     string
	bundle     bool
	watchDir   string
	logAddr    string
	logDB      string
	externals  []string
)

func init() {
	f := runCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "TOML config file")
	f.StringVarP(&runtime, "runtime", "r", "", "Engine backend (v8, quickjs, goja)")
	f.StringVar(&policy, "bootstrap-policy", "", "abort or continue when a bootstrap script fails")
	f.BoolVarP(&bundle, "bundle", "b", false, "Bundle each file with esbuild before evaluating")
	f.StringVarP(&watchDir, "watch", "w", "", "Reload when files under this directory change")
	f.Lookup("watch").NoOptDefVal = "."
	f.StringVar(&logAddr, "log-addr", "", "Serve console output over websocket at this address")
	f.StringVar(&logDB, "log-db", "", "Archive console output in this SQLite file")
	f.StringSliceVar(&externals, "external", nil, "Extra module ids left to require() at runtime")
	cmd.RootCmd.AddCommand(runCmd)
}

func run(c *cobra.Command, files []string) error {
	conf, err := config.Load(configPath)
	if err != nil {
		logger.L.Error().Err(err).Msg("Invalid configuration")
		return err
	}
	if runtime != "" {
		conf.Runtime = jscbridge.RuntimeType(runtime)
	}
	if policy != "" {
		conf.BootstrapPolicy = jscbridge.BootstrapPolicy(policy)
	}
	if logAddr != "" {
		conf.Logs.Addr = logAddr
	}
	if logDB != "" {
		conf.Logs.Path = logDB
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, closeSinks, err := openSinks(conf.Logs)
	if err != nil {
		return err
	}
	defer closeSinks()

	onMessage, messages := logstream.AsyncMessageHandler(func(text string, fatal bool) {
		logger.L.Error().Bool("fatal", fatal).Msg(text)
	}, 0)
	defer messages.Close()

	manager, err := jscbridge.New(conf.Config,
		jscbridge.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))),
		jscbridge.WithLogSink(sinks),
		jscbridge.WithUserMessageHandler(onMessage),
	)
	if err != nil {
		return err
	}
	defer manager.Cleanup()

	bundles, err := cache.NewCache(conf.Cache)
	if err != nil {
		logger.L.Error().Err(err).Msg("Failed to open bundle cache")
		return err
	}
	defer bundles.Close()

	s := &session{manager: manager, files: files, bundles: bundles, bundle: bundle, externals: externals}
	if err := s.reload(); err != nil && watchDir == "" {
		return err
	}
	if watchDir == "" {
		return nil
	}
	return s.watch(ctx, watchDir)
}

// openSinks builds the terminal printer plus whatever conf asks for. Archive
// and stream sinks run behind a Dispatcher so a slow client never stalls a
// script.
func openSinks(conf config.Logs) (jscbridge.LogSink, func(), error) {
	var (
		async   []jscbridge.LogSink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if conf.Path != "" {
		store, err := logstore.Open(conf.Path, nil)
		if err != nil {
			logger.L.Error().Err(err).Str("path", conf.Path).Msg("Failed to open log archive")
			return nil, nil, err
		}
		async = append(async, store)
		closers = append(closers, func() { store.Close() })
	}

	if conf.Addr != "" {
		hub := logstream.NewHub(nil)
		mux := http.NewServeMux()
		mux.Handle("/logs", hub)
		srv := &http.Server{Addr: conf.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.L.Error().Err(err).Str("addr", conf.Addr).Msg("Log stream server stopped")
			}
		}()
		logger.L.Info().Str("url", "ws://"+conf.Addr+"/logs").Msg("Streaming console output")
		async = append(async, hub)
		closers = append(closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			hub.Close()
			srv.Shutdown(ctx)
		})
	}

	var dispatcher jscbridge.LogSink
	if len(async) > 0 {
		d := logstream.NewDispatcher(conf.Buffer, async...)
		// Flush before the archive and hub close
		closers = append(closers, d.Close)
		dispatcher = d
	}
	return jscbridge.MultiSink(jscbridge.LogSinkFunc(printEntry), dispatcher), closeAll, nil
}

func printEntry(e jscbridge.LogEntry) {
	switch e.Level {
	case jscbridge.LevelError:
		color.Red("%s", e.Line)
	case jscbridge.LevelWarn:
		color.Yellow("%s", e.Line)
	default:
		fmt.Println(e.Line)
	}
}

type session struct {
	manager *jscbridge.Manager
	files   []string
	bundles cache.Cache

	bundle    bool
	externals []string
}

// reload rebuilds the context and evaluates every file in order
func (s *session) reload() error {
	if err := s.manager.Initialize(); err != nil {
		return err
	}
	for _, file := range s.files {
		source, err := s.source(file)
		if err != nil {
			logger.L.Error().Err(err).Str("file", file).Msg("Failed to load script")
			return err
		}
		res := s.manager.Evaluate(source, file)
		switch res.Kind {
		case jscbridge.ResultFailure:
			color.Red("%s failed: %v", file, res.Err)
			return res.Err
		case jscbridge.ResultValue:
			color.Green("%s => %s", file, res.Value)
		default:
			logger.L.Debug().Str("file", file).Msg("Script completed")
		}
	}
	return nil
}

func (s *session) source(file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	if !s.bundle {
		data, err := os.ReadFile(abs)
		return string(data), err
	}
	if res, ok := s.bundles.Get(abs); ok {
		logger.L.Debug().Str("file", file).Msg("Bundle cache hit")
		return res.JS, nil
	}
	res, err := bundler.Build(abs, bundler.Options{External: s.externals})
	if err != nil {
		return "", err
	}
	s.bundles.Set(abs, res)
	return res.JS, nil
}

// invalidate drops every cached bundle that includes one of the changed
// files. Cache keys are absolute paths.
func (s *session) invalidate(changed []string) {
	for _, path := range changed {
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		for _, entry := range s.bundles.Dependents(abs) {
			logger.L.Debug().Str("entry", entry).Str("changed", abs).Msg("Dropping cached bundle")
			s.bundles.Remove(entry)
		}
	}
}

// watch reloads on every change batch. It runs on the goroutine that owns
// the manager, so every Initialize and Evaluate stays on one goroutine.
func (s *session) watch(ctx context.Context, dir string) error {
	w, err := hotreload.New(dir, hotreload.Options{
		Extensions: []string{".js", ".jsx", ".ts", ".tsx", ".json"},
	})
	if err != nil {
		logger.L.Error().Err(err).Str("dir", dir).Msg("Failed to watch directory")
		return err
	}
	defer w.Close()
	logger.L.Info().Str("dir", dir).Msg("Watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-w.Events():
			if !ok {
				return nil
			}
			s.invalidate(changed)
			logger.L.Info().Strs("files", changed).Msg("Reloading")
			if err := s.reload(); err != nil {
				logger.L.Warn().Err(err).Msg("Reload failed, waiting for the next change")
			}
		}
	}
}
