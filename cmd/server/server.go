package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"launchdeck/cmd/root"
	"launchdeck/controllers"
	"launchdeck/internal/config"
	"launchdeck/internal/logger"
	"launchdeck/internal/middleware"
	"launchdeck/internal/rpc"
	"launchdeck/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var listenAddress string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the HTTP API server",
	Long:  "Serve the launchdeck API on the configured TCP address and on a unix socket under the run directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer(cmd.Context())
	},
}

/**
 * Build the gin engine serving the API
 * @param {*services.Server} svc - Server providing health data
 * @returns {*gin.Engine} Router with metrics middleware and every route registered
 */
func newRouter(svc *services.Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.MetricsMiddleware())
	controllers.NewAppController(svc.Apps()).RegisterRoutes(router)
	controllers.NewAPIController(svc).RegisterRoutes(router)
	return router
}

/**
 * Run the server until interrupted
 * @param {context.Context} ctx - Parent context, cancelled on SIGINT or SIGTERM as well
 * @returns {error} Error if no listener could be opened or serving fails
 * @description
 * - Opens the catalog, reconciles every running target once, then starts monitoring
 * - Re-initializes logging whenever the config file changes
 * - Shuts down gracefully and removes the unix socket
 */
func startServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.App()
	if listenAddress != "" {
		cfg.Server.Address = listenAddress
	}
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	apps, err := services.GetAppManager()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer apps.Close()

	if err := apps.ReconcileAll(ctx); err != nil {
		logger.Warnf("Initial reconciliation failed: %v", err)
	}

	svc := services.NewServer(cfg, apps)
	router := newRouter(svc)

	config.Watch(func(c *config.AppConfig) {
		logger.InitLoggerWithMode(&c.Log, true)
		logger.Info("Configuration file changed, logging re-initialized")
	})

	addrs := []ListenAddr{{Network: "tcp", Address: cfg.Server.Address}}
	socketPath := ""
	if IsUnixSocketSupported() {
		socketPath = rpc.SocketPath()
		addrs = append(addrs, ListenAddr{Network: "unix", Address: socketPath})
	}
	listeners, err := CreateListeners(addrs)
	if len(listeners) == 0 {
		return fmt.Errorf("no listener could be opened: %w", err)
	}
	if socketPath != "" {
		defer os.Remove(socketPath)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go svc.StartMonitoring(ctx)

	srv := &http.Server{Handler: router}
	errCh := make(chan error, len(listeners))
	for _, l := range listeners {
		go func(l net.Listener) {
			errCh <- srv.Serve(l)
		}(l)
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server stopped: %v", err)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	serverCmd.Flags().StringVar(&listenAddress, "address", "", "TCP address to listen on, overrides server.address")
	root.RootCmd.AddCommand(serverCmd)

	serverCmd.Example = `  launchdeck server
  launchdeck server --address 127.0.0.1:9999`
}
