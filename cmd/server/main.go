package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/exp/slog"

	"github.com/yourorg/nexio-gateway/internal/adapter"
	"github.com/yourorg/nexio-gateway/internal/adapter/nexio"
	"github.com/yourorg/nexio-gateway/internal/config"
	"github.com/yourorg/nexio-gateway/internal/monitor"
	"github.com/yourorg/nexio-gateway/internal/processor"
)

const (
	serviceName     = "nexio-gateway"
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestLogger tags every request with an id and logs it once it completes.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		logger.Info("request",
			slog.String(requestIDKey, id),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

type handler struct {
	proc    *processor.Processor
	monitor *monitor.ContractMonitor
	logger  *slog.Logger
}

func (h *handler) executeAction(c *gin.Context) {
	action, err := processor.ParseAction(c.Param("action"))
	if err != nil {
		c.JSON(statusFor(err, nil), gin.H{"error": err.Error()})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body: " + err.Error()})
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	valid, violations, err := h.monitor.Validate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format: " + err.Error()})
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": monitor.FormatErrors(violations), "violations": violations})
		return
	}

	var req processor.ActionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format: " + err.Error()})
		return
	}
	req.Gateway = c.Param("gateway")
	req.Action = action

	res, err := h.proc.Execute(c.Request.Context(), req)
	if err != nil {
		status := statusFor(err, res)
		h.logger.Error("action failed",
			slog.String(requestIDKey, c.GetString(requestIDKey)),
			slog.String("gateway", req.Gateway),
			slog.String("action", string(action)),
			slog.Any("error", err),
		)
		out := gin.H{"error": err.Error()}
		if res != nil {
			out["result"] = res
		}
		c.JSON(status, out)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) getTransaction(c *gin.Context) {
	tx, err := h.proc.Transaction(c.Request.Context(), c.Param("gateway"), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err, nil), gin.H{"error": err.Error()})
		return
	}
	if tx == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         tx.ID(),
		"status":     tx.Status(),
		"successful": tx.Status().Successful(),
		"amount":     tx.Amount().StringFixed(2),
		"data":       tx.Data,
	})
}

// statusFor maps an Execute error to an HTTP status. A partial result means
// the gateway was reached, or tried, and failed to give a usable answer.
func statusFor(err error, res *processor.Result) int {
	switch {
	case errors.Is(err, processor.ErrUnknownGateway):
		return http.StatusNotFound
	case errors.Is(err, processor.ErrMissingParameter):
		return http.StatusBadRequest
	case errors.Is(err, processor.ErrUnsupportedAction),
		errors.Is(err, processor.ErrInvalidSource),
		errors.Is(err, nexio.ErrUnsupportedPaymentSource),
		errors.Is(err, nexio.ErrInvalidCard):
		return http.StatusUnprocessableEntity
	case res != nil:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func setupRouter(proc *processor.Processor, mon *monitor.ContractMonitor, logger *slog.Logger) *gin.Engine {
	h := &handler{proc: proc, monitor: mon, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName), requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "gateways": proc.Gateways()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1/:gateway")
	v1.POST("/:action", h.executeAction)
	v1.GET("/transactions/:id", h.getTransaction)
	return router
}

// buildRegistry creates both Nexio gateways from one set of credentials.
func buildRegistry(cfg config.NexioConfig, logger *slog.Logger) (map[string]adapter.Gateway, error) {
	opts := append(cfg.GatewayOptions(), nexio.WithLogger(logger))

	card, err := nexio.NewGateway(cfg.Credentials(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s gateway: %w", nexio.GatewayName, err)
	}
	apm, err := nexio.NewAPMGateway(cfg.Credentials(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s gateway: %w", nexio.APMGatewayName, err)
	}
	return map[string]adapter.Gateway{
		card.Name(): card,
		apm.Name():  apm,
	}, nil
}

// newRequestMonitor compiles the schema file at path, or the built-in request
// schema when path is empty.
func newRequestMonitor(path string) (*monitor.ContractMonitor, error) {
	if path == "" {
		return monitor.NewActionRequestMonitor()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema path %s: %w", path, err)
	}
	return monitor.NewContractMonitor(abs)
}

// setupTracing installs a stdout exporter when enabled. The returned func
// flushes and stops the provider.
func setupTracing(enabled bool) (func(context.Context) error, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	shutdownTracing, err := setupTracing(cfg.Server.TraceStdout)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	registry, err := buildRegistry(cfg.Nexio, logger)
	if err != nil {
		return err
	}
	mon, err := newRequestMonitor(cfg.Server.SchemaPath)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           setupRouter(processor.NewProcessor(registry), mon, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr), slog.Bool("test_mode", cfg.Nexio.Test))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}
