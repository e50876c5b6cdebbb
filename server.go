package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wagelink/workpay_backend/config"
	"github.com/wagelink/workpay_backend/middlewares"
	"github.com/wagelink/workpay_backend/models"
	"github.com/wagelink/workpay_backend/models/reports"
	"github.com/wagelink/workpay_backend/utils"
	"github.com/wagelink/workpay_backend/workflow"
)

const defaultPort = "8080"

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

// statusForError maps the caller-visible failure taxonomy onto HTTP statuses.
// Anything unmapped is an internal failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, utils.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, utils.ErrNotAuthorizedParty), errors.Is(err, utils.ErrNotDisputeResolver):
		return http.StatusForbidden
	case errors.Is(err, utils.ErrEscrowNotFound), errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateEmail),
		errors.Is(err, models.ErrWalletRoleTaken),
		errors.Is(err, utils.ErrNotRegistered),
		errors.Is(err, utils.ErrAlreadyCheckedIn),
		errors.Is(err, utils.ErrAlreadyCheckedOut),
		errors.Is(err, utils.ErrNoCheckIn),
		errors.Is(err, utils.ErrEscrowNotActive),
		errors.Is(err, utils.ErrCannotDispute),
		errors.Is(err, utils.ErrNoActiveDispute):
		return http.StatusConflict
	case errors.Is(err, utils.ErrInsufficientFunds),
		errors.Is(err, utils.ErrInsufficientHours),
		errors.Is(err, utils.ErrHoursOverflow),
		errors.Is(err, utils.ErrInvalidHours):
		return http.StatusUnprocessableEntity
	case errors.Is(err, utils.ErrInvalidCommitment), errors.Is(err, utils.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger := config.GetLogger()
		config.LogError(logger, "server.go", c.FullPath(), "handler", nil, err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func registerUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		user, err := models.RegisterUser(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		info, err := models.LoginUser(c.Request.Context(), input.Email, input.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func challengeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		challenge, err := utils.CurrentChallenge(time.Now().UTC())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, challenge)
	}
}

func registerEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Wallet string `json:"wallet" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		row, err := models.RegisterEmployee(c.Request.Context(), input.Wallet)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

func decodeCommitment(s string) ([]byte, error) {
	commitment, err := hex.DecodeString(s)
	if err != nil || len(commitment) != 32 {
		return nil, utils.ErrInvalidCommitment
	}
	return commitment, nil
}

func checkInHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Commitment string `json:"commitment" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		commitment, err := decodeCommitment(input.Commitment)
		if err != nil {
			respondError(c, err)
			return
		}
		record, err := models.CheckIn(c.Request.Context(), commitment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func checkOutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Commitment string `json:"commitment" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		commitment, err := decodeCommitment(input.Commitment)
		if err != nil {
			respondError(c, err)
			return
		}
		record, err := models.CheckOut(c.Request.Context(), commitment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

// getAttendanceHandler always answers 200 for a well-formed request: the
// body distinguishes "no record" from "record with no timestamps yet".
func getAttendanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		day, err := strconv.ParseUint(c.Param("day"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day index"})
			return
		}
		record, found, err := models.GetAttendance(c.Request.Context(), c.Param("employee"), day)
		if err != nil {
			respondError(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusOK, gin.H{"found": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"found": true, "record": record})
	}
}

func createEscrowHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input workflow.NewEscrow
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		record, err := workflow.CreateEscrow(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, record)
	}
}

func addManualHoursHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Hours int64 `json:"hours"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		record, err := workflow.AddManualHours(c.Request.Context(), c.Param("employee"), input.Hours)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func fundEscrowHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Amount decimal.Decimal `json:"amount" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		record, err := workflow.FundEscrow(c.Request.Context(), c.Param("employee"), input.Amount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func claimHandler(registry *workflow.SourceRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := workflow.Claim(c.Request.Context(), registry, c.Param("employee"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func openDisputeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := workflow.OpenDispute(c.Request.Context(), c.Param("employee"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func resolveDisputeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			ReleaseToEmployee *bool `json:"release_to_employee" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		record, err := workflow.ResolveDispute(c.Request.Context(), c.Param("employee"), *input.ReleaseToEmployee)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func getEscrowHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := models.GetEscrow(c.Request.Context(), c.Param("employee"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func listEmployeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := models.ListRegisteredEmployees(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func depositHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			AssetId string          `json:"asset_id" binding:"required"`
			Wallet  string          `json:"wallet" binding:"required"`
			Amount  decimal.Decimal `json:"amount" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := workflow.Deposit(c.Request.Context(), input.AssetId, input.Wallet, input.Amount); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"asset_id": input.AssetId, "wallet": input.Wallet, "amount": input.Amount})
	}
}

// requireRegistrarCaller aborts with 401 unless the caller is the configured
// registrar. Returns false when the request was aborted.
func requireRegistrarCaller(c *gin.Context) bool {
	caller, ok := utils.GetWalletFromContext(c.Request.Context())
	if !ok || caller == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	cfg, err := models.GetRegistrarConfig(c.Request.Context())
	if err != nil || caller != cfg.Registrar {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	return true
}

func attendanceSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireRegistrarCaller(c) {
			return
		}
		fromDay, err1 := strconv.ParseUint(c.Query("from_day"), 10, 64)
		toDay, err2 := strconv.ParseUint(c.Query("to_day"), 10, 64)
		if err1 != nil || err2 != nil || toDay < fromDay {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from_day and to_day are required"})
			return
		}
		rows, err := reports.GetAttendanceSummaryReport(c.Request.Context(), fromDay, toDay)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"from_day": fromDay, "to_day": toDay, "employees": rows})
	}
}

func settlementSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireRegistrarCaller(c) {
			return
		}
		rows, err := reports.GetSettlementSummaryReport(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"states": rows})
	}
}

func vaultBalancesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireRegistrarCaller(c) {
			return
		}
		rows, err := reports.GetVaultBalancesReport(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"balances": rows})
	}
}

type outboxReplayRequest struct {
	RecordId int `json:"record_id"`
}

// Ops tooling (registrar only): replay outbox events that went DEAD/FAILED.
func outboxReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireRegistrarCaller(c) {
			return
		}

		var req outboxReplayRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RecordId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "record_id is required"})
			return
		}

		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "db is nil"})
			return
		}
		now := time.Now().UTC()
		if err := db.WithContext(c.Request.Context()).
			Model(&models.EventRecord{}).
			Where("id = ?", req.RecordId).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusFailed,
				"next_attempt_at":    &now,
				"locked_at":          nil,
				"locked_by":          nil,
				"last_publish_error": nil,
			}).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"record_id":       req.RecordId,
			"publish_status":  models.OutboxPublishStatusFailed,
			"next_attempt_at": now.Format(time.RFC3339Nano),
		})
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until the DB is ready, we return 503 for app endpoints.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	sourceRegistry := workflow.NewSourceRegistry()
	sourceRegistry.Register(workflow.DefaultSourceId, workflow.RegisterSource{})

	r.POST("/auth/register", registerUserHandler())
	r.POST("/auth/login", loginHandler())
	r.GET("/challenge", challengeHandler())

	r.POST("/attendance/register", registerEmployeeHandler())
	r.POST("/attendance/check-in", checkInHandler())
	r.POST("/attendance/check-out", checkOutHandler())
	r.GET("/attendance/:employee/:day", getAttendanceHandler())

	r.POST("/escrow", createEscrowHandler())
	r.POST("/escrow/:employee/manual-hours", addManualHoursHandler())
	r.POST("/escrow/:employee/fund", fundEscrowHandler())
	r.POST("/escrow/:employee/claim", claimHandler(sourceRegistry))
	r.POST("/escrow/:employee/dispute", openDisputeHandler())
	r.POST("/escrow/:employee/resolve", resolveDisputeHandler())
	r.GET("/escrow/:employee", getEscrowHandler())

	r.GET("/admin/employees", listEmployeesHandler())
	r.GET("/reports/attendance-summary", attendanceSummaryHandler())
	r.GET("/reports/settlement-summary", settlementSummaryHandler())
	r.GET("/reports/vault-balances", vaultBalancesHandler())
	// Ops tooling (registrar only).
	r.POST("/internal/ops/outbox/replay", outboxReplayHandler())
	r.POST("/internal/ops/deposit", depositHandler())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Seed the registrar + vault bootstrap row.
	if registrar := strings.TrimSpace(os.Getenv("REGISTRAR_WALLET")); registrar != "" {
		if err := models.SeedRegistrarConfig(registrar, strings.TrimSpace(os.Getenv("VAULT_ACCOUNT"))); err != nil {
			logger.WithFields(logrus.Fields{"field": "bootstrap"}).Error("failed to seed registrar config: " + err.Error())
		}
	}

	// Start outbox dispatcher (publishes AFTER commit).
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	if !config.OutboxDispatcherDisabled() {
		go workflow.NewOutboxDispatcher(db, logger).Run(dispatcherCtx)
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelDispatcher()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP() // Assuming IP-based rate limiting

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
