// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package favstore

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/bookshelf/pkg/types"
)

// DefaultPrefix is the path the favorites client's default base URL uses.
const DefaultPrefix = "/test/"

var validate = validator.New()

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

type idRequest struct {
	ID string `json:"_id" validate:"required"`
}

type activeRequest struct {
	ID     string `json:"_id" validate:"required"`
	Active *bool  `json:"active" validate:"required"`
}

type handler struct {
	store *Store
	log   *log.Logger
}

// Router returns a gin engine serving the favorites endpoints under
// prefix. An empty prefix means DefaultPrefix.
func Router(store *Store, prefix string, logger *log.Logger) *gin.Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	h := &handler{store: store, log: logger}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()))
	router.Use(gin.Recovery())

	g := router.Group(NormalizePrefix(prefix))
	g.POST("/get/all", h.list)
	g.GET("/get/all", h.list)
	g.POST("/create", h.create)
	g.POST("/delete", h.delete)
	g.DELETE("/delete", h.delete)
	g.POST("/change/active", h.changeActive)
	return router
}

// NormalizePrefix gives prefix a leading and trailing slash. An empty
// prefix means DefaultPrefix; "/" mounts at the root.
func NormalizePrefix(prefix string) string {
	p := strings.Trim(prefix, "/")
	if prefix == "" {
		p = strings.Trim(DefaultPrefix, "/")
	}
	if p == "" {
		return "/"
	}
	return "/" + p + "/"
}

func (h *handler) list(c *gin.Context) {
	recs, err := h.store.List(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "list")
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *handler) create(c *gin.Context) {
	var rec types.FavoriteRecord
	if !h.bind(c, &rec) {
		return
	}
	stored, err := h.store.Create(c.Request.Context(), rec)
	switch {
	case errors.Is(err, ErrConflict):
		respondError(c, http.StatusConflict, err.Error())
	case err != nil:
		h.internalError(c, err, "create")
	default:
		c.JSON(http.StatusCreated, stored)
	}
}

func (h *handler) delete(c *gin.Context) {
	var req idRequest
	if !h.bind(c, &req) {
		return
	}
	err := h.store.Delete(c.Request.Context(), req.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case err != nil:
		h.internalError(c, err, "delete")
	default:
		c.JSON(http.StatusOK, gin.H{"_id": req.ID, "deleted": true})
	}
}

func (h *handler) changeActive(c *gin.Context) {
	var req activeRequest
	if !h.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if err := h.store.SetActive(ctx, req.ID, *req.Active); err != nil {
		if errors.Is(err, ErrNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		h.internalError(c, err, "change active")
		return
	}
	rec, err := h.store.Get(ctx, req.ID)
	if err != nil {
		h.internalError(c, err, "change active")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// bind decodes and validates the JSON body into v, replying 400 on
// failure.
func (h *handler) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *handler) internalError(c *gin.Context, err error, op string) {
	h.log.Printf("favstore %s: %v", op, err)
	respondError(c, http.StatusInternalServerError, "internal server error")
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// Serve runs handler on addr until ctx is cancelled, then shuts down,
// giving in-flight requests up to grace to finish.
func Serve(ctx context.Context, addr string, handler http.Handler, grace time.Duration, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Printf("favorites store listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Printf("shutting down, waiting up to %v", grace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
