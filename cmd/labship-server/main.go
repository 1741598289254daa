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
	"github.com/bft-labs/labship/pkg/server"
)

const longHelp = `Receive instrument data files from labship-watcher and file them below the
data root by instrument type and lab group.

Each connection carries one file. The filename decides the destination:
<data-root>/<group>/<type path>/<filename>. Names that match no instrument
type or no group are refused with ERROR and nothing is written.

Configuration is read from the config file, then LABSHIP_* environment
variables (a .env file is loaded first if present), then flags.`

var exampleUsage = strings.TrimSpace(`
  labship-server --port 5005
  labship-server --port 5005 --data-root /srv/lims/data --config /etc/labship/server.toml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultServerConfig()
	var cfgPath, envFile string

	root := &cobra.Command{
		Use:          "labship-server",
		Short:        "Receive and route instrument data files",
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
				cfgFile = cliconfig.DefaultConfigPath("server")
			}
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadServerFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyServerFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else if cfgPath != "" {
				return fmt.Errorf("config file %s not found", cfgPath)
			}

			if err := cliconfig.ApplyServerEnvConfig(&cfg, changed); err != nil {
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

			table, err := cfg.Table()
			if err != nil {
				return err
			}
			zl.Info().
				Str("listen", cfg.ListenAddr()).
				Str("data_root", cfg.DataRoot).
				Str("framing", cfg.Framing.String()).
				Dur("io_timeout", cfg.IOTimeout).
				Int("routes", len(table.Routes())).
				Strs("groups", table.Groups()).
				Msg("configuration")

			srv, err := server.New(cfg.Server(), table, server.WithLogger(log.NewZerologAdapterWithLogger(zl)))
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := srv.ListenAndServe(ctx); err != nil {
				return err
			}
			zl.Info().Msg("server stopped")
			return nil
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.labship/server.toml)")
	root.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment if present")
	root.Flags().IntVarP(&cfg.Port, "port", "p", cfg.Port, "TCP port to listen on")
	root.Flags().StringVar(&cfg.Listen, "listen", cfg.Listen, "address to bind (default: all interfaces)")
	root.Flags().StringVar(&cfg.DataRoot, "data-root", cfg.DataRoot, "directory files are routed below")
	root.Flags().Var(&cfg.Framing, "framing", "wire framing: legacy or length-prefixed")
	root.Flags().DurationVar(&cfg.IOTimeout, "io-timeout", cfg.IOTimeout, "per read/write timeout of a session (0 disables)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also append JSON logs to this file")

	if err := root.Execute(); err != nil {
		zl, _, _ := cliconfig.Logger("", "")
		zl.Error().Err(err).Msg("labship-server")
		os.Exit(1)
	}
}
