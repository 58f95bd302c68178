package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/Danx101/AIL-APP-sub003/internal/cache"
	"github.com/Danx101/AIL-APP-sub003/internal/config"
	dbpkg "github.com/Danx101/AIL-APP-sub003/internal/db"
	"github.com/Danx101/AIL-APP-sub003/internal/middleware"
	"github.com/Danx101/AIL-APP-sub003/internal/routes"
	"github.com/Danx101/AIL-APP-sub003/internal/sweeper"
)

func main() {

	cfg := config.Load()
	db := dbpkg.NewDB(cfg)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("redis unavailable, balance cache disabled: %v", err)
			rdb = nil
		}
	}

	var balance *cache.BalanceCache
	if rdb != nil {
		balance = cache.NewBalanceCache(rdb, cfg.BalanceCacheTTL)
	}

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	sweepUC := routes.RegisterRoutes(r, db, cfg, balance)

	runner := sweeper.NewRunner(sweepUC, cfg.SweepInterval)
	runner.Start(context.Background())

	log.Printf("Server running on %s", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
