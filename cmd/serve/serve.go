package serve

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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"tomcat-devloop/cmd/root"
	"tomcat-devloop/controllers"
	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/env"
	"tomcat-devloop/internal/logger"
	"tomcat-devloop/internal/middleware"
	"tomcat-devloop/internal/output"
	"tomcat-devloop/internal/rpc"
	"tomcat-devloop/services"
)

var (
	listenAddr string
	noSocket   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the devloop daemon for the workspace",
	Long: `Run the devloop daemon. The daemon owns the Tomcat process of the workspace,
serializes build, deploy and sync operations and exposes them over HTTP on a
TCP address and a unix socket.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	root.RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "TCP listening address (default: server.address from config.yaml)")
	serveCmd.Flags().BoolVar(&noSocket, "no-socket", false, "Do not listen on the unix socket")
}

/**
 * Run the daemon until interrupted
 * @description
 * - Output of every operation goes to the console and to the buffer served by /output
 * - On SIGINT/SIGTERM the HTTP servers stop first, then the managed Tomcat is killed
 */
func runServe() error {
	if listenAddr != "" {
		config.Config.Server.Address = listenAddr
	}
	env.ListenAddress = config.Config.Server.Address

	buffer := output.NewBufferSink(0)
	sink := output.MultiSink{output.NewConsoleSink(nil), buffer}
	rt, err := services.NewRuntime(services.RuntimeOptions{
		WorkspaceDir: env.WorkspaceDir,
		Sink:         sink,
		Notifier:     &output.SinkNotifier{Sink: sink},
	})
	if err != nil {
		return fmt.Errorf("load workspace settings failed: %w", err)
	}

	gin.SetMode(config.Config.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	registerControllers(r, rt, buffer)

	addrs := []ListenAddr{{Network: "tcp", Address: config.Config.Server.Address}}
	if config.Config.Server.Socket && !noSocket && IsUnixSocketSupported() {
		addrs = append(addrs, ListenAddr{Network: "unix", Address: rpc.GetSocketPath("")})
	}
	listeners, err := CreateListeners(addrs)
	if len(listeners) == 0 {
		return fmt.Errorf("no listener could be created: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go rt.StartReportMetrics(ctx, config.Config.Metrics)

	servers := serveAll(r, listeners)
	logger.Infof("tomcat-devloop %s serving workspace %s", root.SoftwareVer, rt.WorkspaceDir())
	<-ctx.Done()

	logger.Info("Shutting down devloop daemon")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown failed: %v", err)
		}
	}
	rt.Shutdown()
	for _, addr := range addrs {
		if addr.Network == "unix" {
			os.Remove(addr.Address)
		}
	}
	return nil
}

func registerControllers(r *gin.Engine, rt *services.Runtime, buffer *output.BufferSink) {
	controllers.NewAPIController(rt, buffer, root.SoftwareVer).RegisterRoutes(r)
	controllers.NewBuildController(rt).RegisterRoutes(r)
	controllers.NewServerController(rt).RegisterRoutes(r)
	controllers.NewResourceController(rt).RegisterRoutes(r)
}

func serveAll(handler http.Handler, listeners []net.Listener) []*http.Server {
	var servers []*http.Server
	for _, l := range listeners {
		srv := &http.Server{Handler: handler}
		servers = append(servers, srv)
		go func(l net.Listener) {
			logger.Infof("Listening on %s://%s", l.Addr().Network(), l.Addr().String())
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("Serve on %s failed: %v", l.Addr().String(), err)
			}
		}(l)
	}
	return servers
}
