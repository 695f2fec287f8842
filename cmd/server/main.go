// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"pdf-qa-go/internal/config"
	"pdf-qa-go/internal/handler"
	"pdf-qa-go/internal/index"
	"pdf-qa-go/internal/middleware"
	"pdf-qa-go/internal/model"
	"pdf-qa-go/internal/pipeline"
	"pdf-qa-go/internal/repository"
	"pdf-qa-go/internal/retriever"
	"pdf-qa-go/internal/service"
	"pdf-qa-go/pkg/database"
	"pdf-qa-go/pkg/embedding"
	"pdf-qa-go/pkg/kafka"
	"pdf-qa-go/pkg/llm"
	"pdf-qa-go/pkg/log"
	"pdf-qa-go/pkg/storage"
	"pdf-qa-go/pkg/tika"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 和对象存储
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(&model.Document{}); err != nil {
		log.Fatalf("数据库表结构迁移失败: %v", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	objectStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		log.Fatalf("MinIO 初始化失败: %v", err)
	}

	// 4. 初始化 Repository
	docRepo := repository.NewDocumentRepository(database.DB)
	convRepo := repository.NewConversationRepository(database.RDB)

	// 5. 初始化外部服务客户端与向量索引存储
	tikaClient := tika.NewClient(cfg.Tika)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	indexStore := index.NewStore(cfg.RAG.IndexDir, embeddingClient)
	ret := retriever.New(indexStore, embeddingClient)

	// 6. 初始化 Service (依赖注入)
	queue := kafka.NewQueue(cfg.Kafka)
	documentService := service.NewDocumentService(docRepo, convRepo, objectStore, indexStore, queue)
	qaService := service.NewQAService(docRepo, convRepo, ret, llmClient, cfg.RAG, cfg.LLM)

	// 7. 初始化文档处理管道并启动后台 Kafka 消费者
	processor := pipeline.NewProcessor(objectStore, tikaClient, indexStore, docRepo, cfg.RAG)
	go kafka.StartConsumer(cfg.Kafka, database.RDB, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	documentHandler := handler.NewDocumentHandler(documentService)
	questionHandler := handler.NewQuestionHandler(qaService)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		documents := apiV1.Group("/documents")
		{
			documents.POST("/upload", documentHandler.Upload)
			documents.GET("", documentHandler.List)
			documents.GET("/:id", documentHandler.Get)
			documents.DELETE("/:id", documentHandler.Delete)
			documents.GET("/:id/conversation", questionHandler.History)
		}

		apiV1.POST("/question", questionHandler.Ask)
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	if err := queue.Close(); err != nil {
		log.Errorf("Kafka 生产者关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
