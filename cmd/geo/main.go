package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-geo-widgets/internal/config"
	"github.com/joeblew999/plat-geo-widgets/internal/logging"
	"github.com/joeblew999/plat-geo-widgets/internal/server"
)

// Options defines all CLI flags and env vars for the widget server.
// Flags: --host, --port, --log-level, --log-format, --map-config
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_LOG_LEVEL, ...
// A .env file in the working directory is loaded first.
type Options struct {
	Host      string `doc:"Host to bind to" default:"0.0.0.0"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8086"`
	LogLevel  string `doc:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat string `doc:"Log format (json, text)" default:"json"`
	MapConfig string `doc:"YAML file with map defaults (baseurl, attribution, bbox)" default:"map.yaml"`
}

func newServer(opts *Options, logger *slog.Logger) (*server.Server, error) {
	defaults, err := config.Load(opts.MapConfig)
	if err != nil {
		return nil, err
	}
	return server.New(server.Config{
		Host:     opts.Host,
		Port:     fmt.Sprintf("%d", opts.Port),
		Defaults: defaults,
		Logger:   logger,
	})
}

func main() {
	// Missing .env is fine; real env vars win over it.
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logger := logging.Setup(opts.LogLevel, opts.LogFormat)
		var httpServer *http.Server

		hooks.OnStart(func() {
			srv, err := newServer(opts, logger)
			if err != nil {
				logger.Error("server setup failed", "error", err)
				os.Exit(1)
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)
			logger.Info("plat-geo-widgets starting",
				"addr", addr,
				"docs", baseURL+"/docs",
				"openapi", baseURL+"/openapi.json",
				"metrics", baseURL+"/metrics",
				"map_config", opts.MapConfig,
			)

			httpServer = &http.Server{Addr: addr, Handler: srv, ReadHeaderTimeout: 10 * time.Second}
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server error", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			if httpServer == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				logger.Warn("shutdown", "error", err)
			}
		})
	})

	cli.Root().Use = "geo"
	cli.Root().Short = "Polygon chooser and point map widgets served over Datastar"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(opts, logging.SetupWriter(os.Stderr, opts.LogLevel, opts.LogFormat))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
				os.Exit(1)
			}
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// defaults subcommand: print the resolved map defaults
	defaultsCmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the map defaults as widget data attributes",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			defaults, err := config.Load(opts.MapConfig)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading map defaults: %v\n", err)
				os.Exit(1)
			}
			attrs, err := defaults.Attrs()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error rendering attributes: %v\n", err)
				os.Exit(1)
			}
			out, _ := yaml.Marshal(attrs)
			fmt.Print(string(out))
		}),
	}
	cli.Root().AddCommand(defaultsCmd)

	cli.Run()
}
