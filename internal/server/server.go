package server

import (
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"orderbridge/internal/api"
	"orderbridge/internal/config"
	"orderbridge/internal/converter"
	"orderbridge/internal/reader"
	"orderbridge/internal/store"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	api    *api.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化 SQLite Store
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		dataDir = cfg.Data.DataDir
	}
	dbPath := filepath.Join(dataDir, "orderbridge.db")

	sqliteStore, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	blobStore, err := store.NewBlobStore(dataDir)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	conv := converter.New(converter.Options{
		Timeouts:       timeoutsFromConfig(&cfg.Convert),
		LegacyMaxBytes: cfg.Convert.EffectiveLegacyMaxBytes(),
		LegacyCodePage: cfg.Convert.LegacyCodePage,
	})

	s := &Server{
		router: gin.Default(),
		store:  sqliteStore,
		api:    api.NewHandler(sqliteStore, blobStore, conv),
	}

	s.setupRoutes()

	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// API 路由
	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}

	// 纯后端服务，未命中路由统一回 JSON 404
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
	})
}

// timeoutsFromConfig 从配置推导读取超时
//
// 受限画像整体缩到个位数秒，显式配置的秒数优先。
func timeoutsFromConfig(cfg *config.ConvertConfig) reader.Timeouts {
	timeouts := reader.DefaultTimeouts()
	if cfg.IsConstrained() {
		timeouts = reader.ConstrainedTimeouts()
	}
	if cfg.PrimaryTimeoutSeconds > 0 {
		timeouts.Primary = secondsToDuration(cfg.PrimaryTimeoutSeconds)
	}
	if cfg.SecondaryTimeoutSeconds > 0 {
		timeouts.Secondary = secondsToDuration(cfg.SecondaryTimeoutSeconds)
	}
	if cfg.TertiaryTimeoutSeconds > 0 {
		timeouts.Tertiary = secondsToDuration(cfg.TertiaryTimeoutSeconds)
	}
	return timeouts
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 释放资源
func (s *Server) Close() error {
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
