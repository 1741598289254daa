package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/labship/internal/cliconfig"
	"github.com/bft-labs/labship/pkg/log"
	"github.com/bft-labs/labship/pkg/watcher"
)

const longHelp = `Watch instrument output folders and ship every new data file to a
labship-server, one file per connection.

A file is moved to the folder's Archives/ subdirectory only after the server
acknowledged its content. Connection failures leave the file in place and
retry with backoff. Files the server refuses are retried and, after
--max-rejections refusals, moved to Rejected/.

Configuration is read from the config file, then LABSHIP_* environment
variables (a .env file is loaded first if present), then flags.`

var exampleUsage = strings.TrimSpace(`
  labship-watcher --host 10.0.0.5 --port 5005 --source "C:\Clarity LIMS\Data\Glomax"
  labship-watcher --config C:\labship\watcher.toml --notify
  labship-watcher --host lims --port 5005 --source /data/qPCR --once
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultWatcherConfig()
	var cfgPath, envFile string

	root := &cobra.Command{
		Use:          "labship-watcher",
		Short:        "Ship instrument data files to a labship server",
		Long:         longHelp,
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if err := cliconfig.LoadDotEnv(envFile); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}

			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath("watcher")
			}
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadWatcherFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyWatcherFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else if cfgPath != "" {
				return fmt.Errorf("config file %s not found", cfgPath)
			}

			if err := cliconfig.ApplyWatcherEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			zl, closer, err := cliconfig.Logger(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return err
			}
			defer closer.Close()

			zl.Info().
				Str("server", cfg.Addr()).
				Strs("sources", cfg.Sources).
				Str("ext", cfg.Extension).
				Str("framing", cfg.Framing.String()).
				Dur("poll", cfg.PollInterval).
				Dur("retry_delay", cfg.RetryDelay).
				Int("max_rejections", cfg.MaxRejections).
				Bool("notify", cfg.Notify).
				Bool("once", cfg.Once).
				Int("archive_high_mb", cfg.ArchiveHighMB).
				Int("archive_low_mb", cfg.ArchiveLowMB).
				Msg("configuration")

			w, err := watcher.New(cfg.Watcher(), watcher.WithLogger(log.NewZerologAdapterWithLogger(zl)))
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := w.Run(ctx); err != nil {
				return err
			}
			zl.Info().Msg("watcher stopped")
			return nil
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.labship/watcher.toml)")
	root.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment if present")
	root.Flags().StringVarP(&cfg.Host, "host", "i", cfg.Host, "server host name or IP address")
	root.Flags().IntVarP(&cfg.Port, "port", "p", cfg.Port, "server TCP port")
	root.Flags().StringArrayVar(&cfg.Sources, "source", cfg.Sources, "directory to watch (repeatable)")
	root.Flags().StringVar(&cfg.Extension, "ext", cfg.Extension, "ship files ending in this extension (empty ships all)")

	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "interval between directory scans")
	root.Flags().DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "first wait after a failed transfer")
	root.Flags().DurationVar(&cfg.MaxRetryDelay, "max-retry-delay", cfg.MaxRetryDelay, "longest wait after repeated failures")
	root.Flags().DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "connect timeout")
	root.Flags().DurationVar(&cfg.IOTimeout, "io-timeout", cfg.IOTimeout, "per read/write timeout (0 disables)")
	root.Flags().DurationVar(&cfg.FlushDelay, "flush-delay", cfg.FlushDelay, "pause before the end-of-transmission token")
	root.Flags().Var(&cfg.Framing, "framing", "wire framing: legacy or length-prefixed")

	root.Flags().IntVar(&cfg.MaxRejections, "max-rejections", cfg.MaxRejections, "refusals before a file moves to Rejected/ (0 retries forever)")
	root.Flags().StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for the rejection ledger (default: in memory)")
	root.Flags().BoolVar(&cfg.Notify, "notify", cfg.Notify, "scan early on filesystem events")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "run a single scan and exit")
	root.Flags().IntVar(&cfg.ArchiveHighMB, "archive-high-mb", cfg.ArchiveHighMB, "prune Archives/ once it exceeds this many MiB (0 keeps everything)")
	root.Flags().IntVar(&cfg.ArchiveLowMB, "archive-low-mb", cfg.ArchiveLowMB, "prune Archives/ down to this many MiB")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also append JSON logs to this file")

	if err := root.Execute(); err != nil {
		zl, _, _ := cliconfig.Logger("", "")
		zl.Error().Err(err).Msg("labship-watcher")
		os.Exit(1)
	}
}
