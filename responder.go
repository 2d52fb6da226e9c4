package trafficlight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Responder serves the phase of a traffic light over HTTP.
type Responder struct {
	addr  string
	light *TrafficLight
}

func NewResponder(cfg *ResponderConfig, light *TrafficLight) *Responder {
	return &Responder{
		addr:  cfg.Addr,
		light: light,
	}
}

func (r *Responder) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("failed to listen %s: %w", r.addr, err)
	}
	return r.Serve(ctx, ln)
}

func (r *Responder) Serve(ctx context.Context, ln net.Listener) error {
	srv := http.Server{
		Handler:     r.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()

	slog.Info("listening", "module", "responder", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (r *Responder) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", r.handleRoot)
	mux.HandleFunc("/phase", r.handlePhase)
	mux.HandleFunc("/wait", r.handleWait)
	return mux
}

// handleRoot answers 200 while green and 503 while red.
func (r *Responder) handleRoot(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	p := r.light.CurrentPhase()
	code := http.StatusOK
	if p != PhaseGreen {
		code = http.StatusServiceUnavailable
	}
	writeText(w, code, p.String())
}

func (r *Responder) handlePhase(w http.ResponseWriter, req *http.Request) {
	writeText(w, http.StatusOK, r.light.CurrentPhase().String())
}

// handleWait blocks until the light is at the phase given by the "phase"
// query parameter, or the request is gone.
func (r *Responder) handleWait(w http.ResponseWriter, req *http.Request) {
	logger := newLoggerFromContext(withLight(req.Context(), r.light)).With("module", "responder")
	target, err := ParsePhase(req.URL.Query().Get("phase"))
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Debug("waiting for phase", "target", target.String())
	if err := r.light.WaitUntil(req.Context(), target); err != nil {
		logger.Debug("wait canceled", "target", target.String(), "error", err.Error())
		writeText(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeText(w, http.StatusOK, target.String())
}

func writeText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	fmt.Fprintln(w, msg)
}
