// Package stubapi is a local stand-in for the remote trading API so the
// dashboard can be developed and tested end to end without the real
// backend. It mirrors the production surface: JSON POST routes under
// /api, {"detail": ...} error bodies, a hashed one-time-code login flow
// with TTL and attempt lockout, and an in-memory trader registry fed by
// a pluggable price source.
package stubapi

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zephyr-g16/tradewatch/internal/model"
)

// Server hosts the stub trading API.
type Server struct {
	addr string
	otp  OTPStore
	reg  *Registry
	log  *slog.Logger

	// OnCodeIssued is invoked with each freshly issued login code. The
	// stub binary logs it instead of sending email; tests capture it.
	OnCodeIssued func(email, code string)

	server *http.Server
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a stub server. logger may be nil.
func NewServer(addr string, otp OTPStore, reg *Registry, logger *slog.Logger) *Server {
	if addr == "" {
		addr = model.DefaultStubAddr
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		otp:    otp,
		reg:    reg,
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handler returns the routed gin engine, used directly by in-process
// tests via httptest.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.POST("/login/send", s.handleLoginSend)
	api.POST("/login/check", s.handleLoginCheck)
	api.POST("/symbols", s.handleSymbols)
	api.POST("/traders/list", s.handleList)
	api.POST("/traders/start", s.handleStart)
	api.POST("/traders/stop", s.handleStop)
	api.POST("/traders/status", s.handleStatus)
	api.POST("/traders/add_coin", s.handleAddCoin)

	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.log.Info("stub api listening", "addr", listener.Addr().String())
	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Server) handleLoginSend(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		detail(c, http.StatusBadRequest, "email required")
		return
	}
	email := normalizeEmail(req.Email)

	locked, err := s.otp.Locked(c.Request.Context(), email)
	if err != nil {
		s.log.Error("otp store", "err", err)
		detail(c, http.StatusInternalServerError, "otp store unavailable")
		return
	}
	// A locked address still gets {ok:true} so callers can't probe
	// lockout state.
	if locked {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	code := fmt.Sprintf("%06d", rand.Intn(1000000))
	if err := s.otp.Put(c.Request.Context(), email, HashCode(code)); err != nil {
		s.log.Error("otp store", "err", err)
		detail(c, http.StatusInternalServerError, "otp store unavailable")
		return
	}

	if s.OnCodeIssued != nil {
		s.OnCodeIssued(email, code)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleLoginCheck(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "email and code required")
		return
	}
	email := normalizeEmail(req.Email)
	ctx := c.Request.Context()

	locked, err := s.otp.Locked(ctx, email)
	if err != nil {
		s.log.Error("otp store", "err", err)
		detail(c, http.StatusInternalServerError, "otp store unavailable")
		return
	}
	if locked {
		detail(c, http.StatusBadRequest, "locked")
		return
	}

	hash, attempts, ok, err := s.otp.Load(ctx, email)
	if err != nil {
		s.log.Error("otp store", "err", err)
		detail(c, http.StatusInternalServerError, "otp store unavailable")
		return
	}
	// Expired codes read as absent; an expired code is an invalid code.
	if !ok {
		detail(c, http.StatusBadRequest, "no otp key")
		return
	}

	if attempts >= model.OTPMaxAttempts {
		s.otp.Lockout(ctx, email)
		detail(c, http.StatusBadRequest, "attempts_exceeded")
		return
	}

	if !codesEqual(HashCode(strings.TrimSpace(req.Code)), hash) {
		s.otp.Bump(ctx, email)
		detail(c, http.StatusBadRequest, "missing hash/wrong code")
		return
	}

	s.otp.Drop(ctx, email)

	// single-use token for the client to hold; the API itself stays
	// keyed on owner email
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": uuid.NewString()})
}

func (s *Server) handleSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": s.reg.Symbols()})
}

func (s *Server) handleList(c *gin.Context) {
	var req struct {
		Owner string `json:"owner"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Owner == "" {
		detail(c, http.StatusBadRequest, "owner required")
		return
	}
	traders := s.reg.List(req.Owner)
	if traders == nil {
		traders = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "traders": traders})
}

// flexFloat accepts a JSON number, a numeric string, or the empty/None
// placeholders the original form posted.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" || s == "None" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("stubapi: fund_amnt %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

func (s *Server) handleStart(c *gin.Context) {
	var req struct {
		Owner    string    `json:"owner"`
		Symbol   string    `json:"symbol"`
		Strategy string    `json:"strategy"`
		FundAmnt flexFloat `json:"fund_amnt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Owner == "" {
		detail(c, http.StatusBadRequest, "owner required")
		return
	}
	if req.Symbol == "" {
		detail(c, http.StatusBadRequest, "missing symbol")
		return
	}
	if !s.reg.Start(req.Owner, req.Symbol, req.Strategy, float64(req.FundAmnt)) {
		detail(c, http.StatusBadRequest, "could not start trader")
		return
	}
	s.log.Info("trader started", "owner", req.Owner, "symbol", req.Symbol, "strategy", req.Strategy)
	c.JSON(http.StatusOK, gin.H{"ok": true, "symbol": req.Symbol})
}

func (s *Server) handleStop(c *gin.Context) {
	var req struct {
		Owner  string `json:"owner"`
		Symbol string `json:"symbol"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Owner == "" || req.Symbol == "" {
		detail(c, http.StatusBadRequest, "owner and symbol required")
		return
	}
	if !s.reg.Stop(req.Owner, req.Symbol) {
		detail(c, http.StatusBadRequest, "not running")
		return
	}
	s.log.Info("trader stopped", "owner", req.Owner, "symbol", req.Symbol)
	c.JSON(http.StatusOK, gin.H{"ok": true, "stopped": req.Symbol})
}

func (s *Server) handleStatus(c *gin.Context) {
	var req struct {
		Owner  string `json:"owner"`
		Symbol string `json:"symbol"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Owner == "" || req.Symbol == "" {
		detail(c, http.StatusBadRequest, "owner and symbol required")
		return
	}
	status, ok := s.reg.Status(req.Owner, req.Symbol)
	if !ok {
		detail(c, http.StatusBadRequest, "not running")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

func (s *Server) handleAddCoin(c *gin.Context) {
	var req struct {
		Owner string `json:"owner"`
		Coin  string `json:"coin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Owner == "" {
		detail(c, http.StatusBadRequest, "owner required")
		return
	}
	list, ok := s.reg.AddCoin(req.Coin)
	if !ok {
		detail(c, http.StatusBadRequest, "coin must be formatted correctly i.e. 'SOL/USD'")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "kraken_list": list})
}
