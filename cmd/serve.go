package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brandatlas/footprint/internal/boundary"
	"github.com/brandatlas/footprint/internal/dataset"
	"github.com/brandatlas/footprint/internal/engine"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.engine.Start(ctx); err != nil {
			return eris.Wrap(err, "start engine")
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/frame", func(w http.ResponseWriter, req *http.Request) {
			frame, err := env.engine.Render(req.Context())
			respondFrame(w, frame, err)
		})

		api.Get("/snapshot", func(w http.ResponseWriter, _ *http.Request) {
			data, err := env.surface.Snapshot()
			if err != nil {
				respondError(w, http.StatusInternalServerError, err)
				return
			}
			w.Header().Set("Content-Type", "application/geo+json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
		})

		api.Get("/boundaries/{adcode}", func(w http.ResponseWriter, req *http.Request) {
			shapes, err := env.cache.Get(req.Context(), chi.URLParam(req, "adcode"))
			if err != nil {
				respondError(w, http.StatusBadGateway, err)
				return
			}
			data, err := boundary.MarshalFeatureCollection(shapes)
			if err != nil {
				respondError(w, http.StatusInternalServerError, err)
				return
			}
			w.Header().Set("Content-Type", "application/geo+json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
		})

		api.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			respondJSON(w, http.StatusOK, map[string]any{
				"ready":          env.engine.Ready(),
				"stage":          env.engine.State().Stage.String(),
				"boundary_cache": env.cache.Stats(),
			})
		})

		api.Post("/drill/province", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Name string `json:"name"`
			}
			if !decodeBody(w, req, &body) {
				return
			}
			frame, err := env.engine.SelectProvince(req.Context(), body.Name)
			respondFrame(w, frame, err)
		})

		api.Post("/drill/city", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Name string `json:"name"`
			}
			if !decodeBody(w, req, &body) {
				return
			}
			frame, err := env.engine.SelectCity(req.Context(), body.Name)
			respondFrame(w, frame, err)
		})

		api.Post("/drill/reset", func(w http.ResponseWriter, req *http.Request) {
			frame, err := env.engine.Reset(req.Context())
			respondFrame(w, frame, err)
		})

		api.Post("/markers/click", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				ID string `json:"id"`
			}
			if !decodeBody(w, req, &body) {
				return
			}
			frame, err := env.engine.HandleMarkerClick(req.Context(), body.ID)
			respondFrame(w, frame, err)
		})

		api.Post("/regions/click", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				ID string `json:"id"`
			}
			if !decodeBody(w, req, &body) {
				return
			}
			frame, err := env.engine.HandlePolygonClick(req.Context(), body.ID)
			respondFrame(w, frame, err)
		})

		api.Post("/selection/clear", func(w http.ResponseWriter, req *http.Request) {
			frame, err := env.engine.ClearSelection(req.Context())
			respondFrame(w, frame, err)
		})

		api.Post("/favorites/toggle", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				RecordID string `json:"record_id"`
			}
			if !decodeBody(w, req, &body) {
				return
			}
			marked, frame, err := env.engine.ToggleFavorite(req.Context(), body.RecordID)
			if err != nil {
				respondError(w, http.StatusBadGateway, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]any{"marked": marked, "frame": frame})
		})

		api.Post("/filters/stores", func(w http.ResponseWriter, req *http.Request) {
			var filter dataset.StoreFilter
			if !decodeBody(w, req, &filter) {
				return
			}
			frame, err := env.engine.SetStoreFilter(req.Context(), filter)
			respondFrame(w, frame, err)
		})

		api.Post("/filters/malls", func(w http.ResponseWriter, req *http.Request) {
			var filter dataset.MallFilter
			if !decodeBody(w, req, &filter) {
				return
			}
			frame, err := env.engine.SetMallFilter(req.Context(), filter)
			respondFrame(w, frame, err)
		})

		api.Delete("/filters", func(w http.ResponseWriter, req *http.Request) {
			frame, err := env.engine.ClearFilters(req.Context())
			respondFrame(w, frame, err)
		})

		api.Post("/mode", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Mode string `json:"mode"`
			}
			if !decodeBody(w, req, &body) {
				return
			}
			mode := engine.ModeStores
			switch body.Mode {
			case "stores":
			case "malls":
				mode = engine.ModeMalls
			default:
				respondError(w, http.StatusBadRequest, eris.Errorf("unknown mode %q", body.Mode))
				return
			}
			frame, err := env.engine.SetMode(req.Context(), mode)
			respondFrame(w, frame, err)
		})
	})

	return r
}

func decodeBody(w http.ResponseWriter, req *http.Request, v any) bool {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return false
	}
	return true
}

// respondFrame maps an engine action result to a response. Action errors are
// client mistakes (unknown names, invalid transitions), so the frame still
// renders alongside a 400.
func respondFrame(w http.ResponseWriter, frame engine.Frame, err error) {
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error": err.Error(),
			"frame": frame,
		})
		return
	}
	respondJSON(w, http.StatusOK, frame)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}
