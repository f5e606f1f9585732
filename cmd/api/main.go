package main

import (
	"log"
	"os"
	"strconv"
	"time"

	_ "kpr-backend/api/swagger" // swagger docs
	"kpr-backend/internal/database"
	"kpr-backend/internal/handler"
	"kpr-backend/internal/middleware"
	"kpr-backend/internal/repository"
	"kpr-backend/internal/service"
	"kpr-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           KPR Origination API
// @version         1.0
// @description     Loan origination and approval workflow engine for KPR (Indonesian home loans).
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Extra grace before an overdue stage is listed for escalation
	escalationGrace := time.Duration(0)
	if raw := os.Getenv("ESCALATION_GRACE_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 0 {
			log.Fatalf("Invalid ESCALATION_GRACE_HOURS: %q", raw)
		}
		escalationGrace = time.Duration(hours) * time.Hour
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	rateRepo := repository.NewRateRepository(db)
	levelRepo := repository.NewLevelRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	userService := service.NewUserService(userRepo, middleware.GetJWTSecret())
	notifService := service.NewNotificationService(notifRepo, wsHub)
	rateService := service.NewRateService(rateRepo, auditRepo)
	levelService := service.NewLevelService(levelRepo, auditRepo)
	auditService := service.NewAuditService(auditRepo)
	appService := service.NewApplicationService(
		txManager, userRepo, propertyRepo, appRepo, workflowRepo, auditRepo,
		rateService, levelService, notifService)
	workflowService := service.NewWorkflowService(
		txManager, workflowRepo, appRepo, propertyRepo, auditRepo,
		notifService, escalationGrace)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	rateHandler := handler.NewRateHandler(rateService)
	levelHandler := handler.NewLevelHandler(levelService)
	appHandler := handler.NewApplicationHandler(appService, workflowService, auditService)
	workflowHandler := handler.NewWorkflowHandler(workflowService)
	notifHandler := handler.NewNotificationHandler(notifService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	rateHandler.RegisterRoutes(router.Group(""))
	levelHandler.RegisterRoutes(router.Group(""))
	appHandler.RegisterRoutes(router.Group(""))
	workflowHandler.RegisterRoutes(router.Group(""))
	notifHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
