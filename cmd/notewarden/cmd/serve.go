package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/dmaines/notewarden/backend"
	"github.com/dmaines/notewarden/commands"
	"github.com/dmaines/notewarden/config"
	"github.com/dmaines/notewarden/httpsurface"
	"github.com/dmaines/notewarden/interact"
	"github.com/dmaines/notewarden/notes"
	"github.com/dmaines/notewarden/ratelimit"
	"github.com/dmaines/notewarden/session"
)

var dataDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot's HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

		var store session.Store
		if cfg.DataDir != "" {
			if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
				return fmt.Errorf("creating data directory: %w", err)
			}
			bolt, err := session.NewBoltStoreFromFile(cfg.DataDir+"/sessions.db", nil)
			if err != nil {
				return fmt.Errorf("opening session store: %w", err)
			}
			defer bolt.Close()
			store = bolt
		} else {
			mem := session.NewMemoryStore()
			defer mem.Close()
			store = mem
		}

		limiter := ratelimit.NewLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
		cooldown := ratelimit.NewCooldown(cfg.CommandCooldown)
		bridge := httpsurface.New(cfg.SurfaceURL)
		router := interact.NewRouter(limiter, interact.WithLogger(logger))
		svc := notes.New(
			backend.New(cfg.BackendURL, backend.WithTimeout(cfg.BackendTimeout)),
			store,
			bridge,
			router,
			cooldown,
			notes.WithLogger(logger),
			notes.WithPageSize(cfg.PageSize),
			notes.WithTimeouts(notes.Timeouts{
				Collector:  cfg.CollectorTimeout,
				Confirm:    cfg.TTLConfirm,
				Pagination: cfg.TTLPagination,
				Draft:      cfg.TTLDraft,
			}),
		)
		api := commands.New(svc, commands.WithLogger(logger))

		// Limiter and cooldown records outlive their windows; sweep them
		// on the same cadence as the session stores.
		sweepDone := make(chan struct{})
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					limiter.Sweep()
					cooldown.Sweep()
				case <-sweepDone:
					return
				}
			}
		}()
		defer close(sweepDone)

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})
		r.Get("/statusz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"sessions":      store.Len(),
				"tracked_users": limiter.Len(),
				"active_flows":  router.ActiveFlows(),
			})
		})

		r.Mount("/commands", api.Router())
		r.Mount("/surface", bridge.Routes())

		server := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		fmt.Printf("Listening on %s (backend: %s)...\n", cfg.ListenAddr, cfg.BackendURL)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory for persistent session data (overrides NOTEWARDEN_DATA_DIR)")
}
