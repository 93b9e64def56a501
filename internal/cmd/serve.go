package cmd

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DR-lin-eng/yologui/internal/observability"
	"github.com/DR-lin-eng/yologui/internal/server"
	"github.com/DR-lin-eng/yologui/pkg/manager"
	"github.com/DR-lin-eng/yologui/pkg/supervisor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the training manager over HTTP",
	Long: `Run an HTTP API that starts, observes, and stops training runs.
The server owns a single manager instance, so at most one run is live at a
time; progress is available as JSON status and as a server-sent event stream.`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Bind port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	host := cfg.Server.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	sup := supervisor.New(cfg.Trainer.StopGracePeriod, observability.Log)
	mgr := manager.New(sup, observability.Log)
	srv := server.New(host, port, mgr, cfg.Trainer, observability.Log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := srv.ListenAndServe(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
