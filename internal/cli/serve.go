package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/grantcarthew/htmlfmt/internal/daemon"
	"github.com/grantcarthew/htmlfmt/internal/executor"
	"github.com/grantcarthew/htmlfmt/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve formatting over HTTP and WebSocket",
	Long: `Starts a formatting server for editors and tools that cannot spawn a process
per document.

Endpoints:
  POST /format   Body is HTML; the response body is the formatted HTML.
                 Query parameters: indent, tabs, spacesPerTab, formatting,
                 comments, styles, path. The X-Htmlfmt-Changed header reports
                 whether the output differs from the input.
  GET  /status   Request counters as JSON
  GET  /healthz  Liveness check
  GET  /ws       WebSocket; JSON messages {id, html, path, options}

With --watch, HTML files under the given paths are also formatted in place
when they change.

Examples:
  htmlfmt serve
  htmlfmt serve --port 8080 --host 0.0.0.0
  htmlfmt serve --watch site/ --ignore "*.min.html"
  curl --data-binary @page.html localhost:7331/format?indent=4`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	servePort   int
	serveHost   string
	serveWatch  []string
	serveIgnore []string
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Server port (auto-detect if not specified)")
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Network binding (localhost or 0.0.0.0)")
	serveCmd.Flags().StringSliceVar(&serveWatch, "watch", nil, "Paths to format on change (comma-separated)")
	serveCmd.Flags().StringSliceVar(&serveIgnore, "ignore", nil, "Glob patterns to ignore when watching (comma-separated)")
	addOptionFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	opts, err := resolveOptions(cmd, "", true)
	if err != nil {
		return outputError(err.Error())
	}

	cfg := daemon.DefaultConfig()
	cfg.Options = opts
	cfg.Debug = Debug
	handler := daemon.New(cfg).Handler()

	srvCfg := server.Config{
		Port:    servePort,
		Host:    serveHost,
		Handler: handler,
		Debug:   Debug,
	}
	if len(serveWatch) > 0 {
		srvCfg.WatchPaths = serveWatch
		srvCfg.IgnorePaths = serveIgnore
		srvCfg.Extensions = htmlExtensions
		srvCfg.OnChange = reformatter(&execFormatter{exec: executor.NewDirectExecutor(handler)})
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return outputError(err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return outputError(err.Error())
	}
	debugf("Server started on %s", srv.Addr())

	if JSONOutput {
		resp := map[string]any{
			"url":  srv.URL(),
			"port": srv.Port(),
		}
		if len(serveWatch) > 0 {
			resp["watch"] = serveWatch
		}
		outputSuccess(resp)
	} else {
		fmt.Fprintf(os.Stdout, "Serving on %s\n", srv.URL())
		fmt.Fprintf(os.Stdout, "WebSocket: %s/ws\n", strings.Replace(srv.URL(), "http://", "ws://", 1))
		if len(serveWatch) > 0 {
			fmt.Fprintf(os.Stdout, "Watching: %s\n", strings.Join(serveWatch, ", "))
		}
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return outputError(err.Error())
	}
	return nil
}
