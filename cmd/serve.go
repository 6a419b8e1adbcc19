package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revenue-intel/internal/config"
	"github.com/sells-group/revenue-intel/internal/license"
	"github.com/sells-group/revenue-intel/internal/mcp"
)

var (
	serveTransport string
	servePort      int
	serveHost      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP tool server",
	Long: "Serves the revenue intelligence tools over MCP. The stdio transport reads " +
		"newline-delimited JSON-RPC on stdin; streamable-http listens on host:port at /mcp.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		transport := cfg.Server.Transport
		if serveTransport != "" {
			transport = serveTransport
		}
		if transport != config.TransportStdio && transport != config.TransportHTTP {
			return eris.Errorf("unknown transport %q (want %s or %s)", transport, config.TransportStdio, config.TransportHTTP)
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		licenseNotice(os.Stderr, env.Service.License)

		opts := []mcp.Option{mcp.WithVersion(version)}
		var metrics *mcp.Metrics
		if transport == config.TransportHTTP {
			metrics = mcp.NewMetrics()
			opts = append(opts, mcp.WithMetrics(metrics))
		}
		srv, err := mcp.NewServer(env.Service, opts...)
		if err != nil {
			return err
		}

		if transport == config.TransportStdio {
			zap.L().Info("serving on stdio")
			return srv.ServeStdio(ctx, os.Stdin, os.Stdout)
		}

		httpCfg := mcp.HTTPConfig{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}
		if servePort != 0 {
			httpCfg.Port = servePort
		}
		if serveHost != "" {
			httpCfg.Host = serveHost
		}
		return srv.ListenAndServe(ctx, httpCfg)
	},
}

// licenseNotice prints the startup license status. stdout belongs to the
// stdio transport, so notices go to w (stderr).
func licenseNotice(w io.Writer, info license.Info) {
	switch {
	case info.Tier != license.TierFree:
		name := info.CustomerName
		if name == "" {
			name = "licensed user"
		}
		_, _ = fmt.Fprintf(w, "License: %s (%s tier)\n", name, info.Tier)
	case info.Error != "":
		_, _ = fmt.Fprintf(w, "WARNING: %s. Running in free mode (sample data only).\n", info.Error)
	default:
		_, _ = fmt.Fprintln(w, "Running in free mode (sample data only). Set ARTEFACT_LICENSE_KEY for live CRM access.")
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "stdio or streamable-http (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "HTTP bind host (default from config)")
	rootCmd.AddCommand(serveCmd)
}
