package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"mcpanel/internal/config"
	"mcpanel/internal/console"
	"mcpanel/internal/handlers"
	"mcpanel/internal/middleware"
	"mcpanel/internal/rcon"
	"mcpanel/internal/session"
	"mcpanel/internal/stats"
	"mcpanel/internal/utils"
)

type App struct {
	sessions    *session.Manager
	hub         *console.Hub
	rateLimiter *middleware.RateLimiter
	logger      *utils.Logger
	port        int
}

func main() {
	// Set Gin mode
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.Load(config.DefaultPath())
	logFile := ""
	port := 8080
	if cfg != nil {
		logFile = cfg.LogFile
		port = cfg.Port
	}
	logger := utils.NewLogger(logFile)
	defer logger.Close()

	var sessions *session.Manager
	if err != nil {
		// A broken registry degrades to "no servers configured" on every
		// API call instead of refusing to start.
		log.Printf("Registry load failed: %v", err)
		logger.Writef("Registry load failed: %v", err)
		sessions = session.NewManager(nil, logger)
	} else {
		sessions = session.NewManager(cfg.Servers, logger)
		logger.Writef("Registry loaded: %d servers", len(cfg.Servers))
	}

	app := &App{
		sessions:    sessions,
		hub:         console.NewHub(sessions, logger),
		rateLimiter: middleware.NewRateLimiter(rate.Every(time.Minute/100), 10),
		logger:      logger,
		port:        port,
	}

	r := setupRouter(app)

	srv := &http.Server{
		Addr:           ":" + strconv.Itoa(app.port),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Starting server on port %d", app.port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	app.rateLimiter.Stop()

	// Give server 5 seconds to finish handling requests
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func setupRouter(app *App) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))

	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	// Rate limiting - 100 requests per minute per IP
	r.Use(app.rateLimiter.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gateway := rcon.NewGateway(app.logger)
	collector := stats.NewCollector(gateway, app.logger)
	serverHandlers := handlers.NewServerHandlers(app.sessions, gateway, collector)
	fileHandlers := handlers.NewFileHandlers(app.sessions)

	api := r.Group("/api")
	{
		api.GET("/servers", serverHandlers.APIServers)
		api.GET("/servers/:server_id/status", serverHandlers.APIServerStatus)
		api.POST("/servers/:server_id/start", serverHandlers.APIServerStart)
		api.POST("/servers/:server_id/stop", serverHandlers.APIServerStop)
		api.POST("/servers/:server_id/restart", serverHandlers.APIServerRestart)
		api.GET("/servers/:server_id/logs", serverHandlers.APIServerLogs)
		api.POST("/servers/:server_id/command", serverHandlers.APIServerCommand)
		api.GET("/servers/:server_id/stats", serverHandlers.APIServerStats)

		api.GET("/servers/:server_id/files", fileHandlers.APIListFiles)
		api.GET("/servers/:server_id/files/content", fileHandlers.APIReadFile)
		api.PUT("/servers/:server_id/files/content", fileHandlers.APIWriteFile)
		api.POST("/servers/:server_id/files/rename", fileHandlers.APIRenameFile)
		api.DELETE("/servers/:server_id/files", fileHandlers.APIDeleteFile)
	}

	// Live console channel
	r.GET("/ws", app.hub.HandleWebSocket())

	return r
}
