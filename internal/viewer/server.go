// Package viewer serves the artifacts of finished runs over HTTP so a
// visualization page (usually d3 on another origin) can load them.
package viewer

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/wdtree/internal/artifact"
	"github.com/persistorai/wdtree/internal/models"
)

// Deps holds everything the router needs.
type Deps struct {
	Log         *logrus.Logger
	Dir         string
	CORSOrigins []string
	Version     string
}

// NewRouter creates the gin engine with middleware and routes.
func NewRouter(deps *Deps) http.Handler {
	r := gin.New()
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(requestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(securityHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(instrument())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handler{dir: deps.Dir, version: deps.Version, log: deps.Log}
	r.GET("/health", h.health)

	api := r.Group("/api/v1")
	api.GET("/roots", h.roots)
	api.GET("/roots/:root/tree", h.file(artifact.TreeFile))
	api.GET("/roots/:root/table", h.file(artifact.TableFile))
	api.GET("/roots/:root/run", h.file(artifact.RunFile))

	return r
}

// Serve runs the viewer on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, deps *Deps) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		deps.Log.WithFields(logrus.Fields{"addr": addr, "dir": deps.Dir}).Info("viewer listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	deps.Log.Info("viewer stopped")
	return nil
}

type handler struct {
	dir     string
	version string
	log     *logrus.Logger
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

func (h *handler) roots(c *gin.Context) {
	roots, err := artifact.Roots(h.dir)
	if err != nil {
		h.log.WithError(err).Error("listing artifact roots")
		respondError(c, http.StatusInternalServerError, "internal", "listing runs failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"roots": roots})
}

func (h *handler) file(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := artifact.Read(h.dir, c.Param("root"), name)
		switch {
		case errors.Is(err, models.ErrInvalidEntity):
			respondError(c, http.StatusBadRequest, "invalid_root", "root must be an entity id")
		case errors.Is(err, artifact.ErrNotFound):
			respondError(c, http.StatusNotFound, "not_found", "no "+name+" for this root")
		case err != nil:
			h.log.WithError(err).Error("reading artifact")
			respondError(c, http.StatusInternalServerError, "internal", "reading artifact failed")
		default:
			c.Data(http.StatusOK, "application/json; charset=utf-8", data)
		}
	}
}
