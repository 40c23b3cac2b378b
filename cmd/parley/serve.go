package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/metrics"
	"github.com/parleyhq/parley/pkg/adapters/httpapi"
	"github.com/parleyhq/parley/pkg/adapters/memory"
	redisStore "github.com/parleyhq/parley/pkg/adapters/redis"
	"github.com/parleyhq/parley/pkg/chapter"
	"github.com/parleyhq/parley/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the dialogue engine as a JSON API. Sessions are held in memory by default; pass --redis to share them across instances.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("chapters")
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		sessionTTL, _ := cmd.Flags().GetDuration("session-ttl")
		logger := newLogger(cmd)

		var store ports.SessionStore
		if redisAddr != "" {
			rs := redisStore.New(redisAddr, "", 0, redisStore.WithTTL(sessionTTL))
			defer rs.Close()
			store = rs
		} else {
			store = memory.NewStore()
		}

		handler := httpapi.NewHandler(chapter.NewDir(dir), store,
			httpapi.WithLogger(logger),
			httpapi.WithMetrics(metrics.New()),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("Starting Parley server on %s\n", srv.Addr)
			fmt.Printf("Serving chapters from: %s\n", dir)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Parley server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for shared session storage (host:port)")
	serveCmd.Flags().Duration("session-ttl", 24*time.Hour, "Session expiration when using Redis")
}
