package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"expense_tracker/internal/api"        // Custom package for API handlers
	"expense_tracker/internal/config"     // Custom package for configuration
	"expense_tracker/internal/mailer"     // Custom package for mail delivery
	"expense_tracker/internal/middleware" // Custom package for middleware
	"expense_tracker/internal/notifier"   // Custom package for the budget notifier

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Setup the SMTP mailer and the budget notifier it feeds
	smtp := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	budget := notifier.New(db, smtp)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/user", api.RegisterHandler(db))            // Registration endpoint
	r.GET("/user", api.LoginHandler(db, cfg.JWTSecret)) // Login endpoint

	// Project routes (protected by JWT)
	projectGroup := r.Group("/project")
	projectGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	projectGroup.GET("", api.ListProjectsHandler(db))              // Projects the caller belongs to
	projectGroup.GET("/:id", api.GetProjectHandler(db))            // One project, members only
	projectGroup.POST("", api.CreateProjectHandler(db))            // Create project + auto-membership
	projectGroup.DELETE("/:id", api.DeleteProjectHandler(db))      // Delete project + memberships
	projectGroup.GET("/:id/members", api.ListMembersHandler(db))    // Member listing
	projectGroup.POST("/:id/members", api.InviteMemberHandler(db))  // Invite a member by email

	// Expense routes (protected by JWT)
	expenseGroup := r.Group("/expense")
	expenseGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	expenseGroup.GET("/project/:projectId", api.ListExpensesHandler(db))                          // Expense listing, date descending
	expenseGroup.POST("/project/:projectId", api.CreateExpenseHandler(db, redisClient, budget))   // Record expense, triggers notifier
	expenseGroup.GET("/project/:projectId/total", api.TotalExpensesHandler(db, redisClient))      // Aggregate sum, cached
	expenseGroup.DELETE("/:id", api.DeleteExpenseHandler(db, redisClient, budget))                // Delete expense, triggers notifier

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
