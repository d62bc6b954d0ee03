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

	"formfiller-go/internal/config"
	"formfiller-go/internal/extractor"
	"formfiller-go/internal/handler"
	"formfiller-go/internal/index"
	"formfiller-go/internal/ingest"
	"formfiller-go/internal/middleware"
	"formfiller-go/internal/model"
	"formfiller-go/internal/pipeline"
	"formfiller-go/internal/repository"
	"formfiller-go/internal/service"
	"formfiller-go/internal/synthesizer"
	"formfiller-go/internal/vectorstore"
	"formfiller-go/pkg/database"
	"formfiller-go/pkg/embedding"
	"formfiller-go/pkg/kafka"
	"formfiller-go/pkg/llm"
	"formfiller-go/pkg/log"
	"formfiller-go/pkg/storage"
	"formfiller-go/pkg/tika"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 和对象存储
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	kafka.InitProducer(cfg.Kafka)

	if err := database.DB.AutoMigrate(&model.Document{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 4. 初始化外部服务客户端
	tikaClient := tika.NewClient(cfg.Tika)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)

	// 5. 加载向量快照（损坏或缺失则视为空库，等待重建）
	store := vectorstore.NewStore(cfg.RAG.SnapshotPath)
	snap, err := store.Load()
	if err != nil {
		log.Fatalf("加载向量快照失败: %v", err)
	}
	if snap != nil {
		store.Swap(snap)
		log.Infof("向量快照加载完成: %d 个分块 (model=%s)", snap.Len(), snap.ModelID)
	} else {
		log.Info("未找到可用的向量快照，索引为空")
	}

	// 6. 初始化 Repository 和 Service (依赖注入)
	docRepo := repository.NewDocumentRepository(database.DB)
	knowledgeStore := storage.NewKnowledgeStore(cfg.MinIO)
	documentService := service.NewDocumentService(docRepo, knowledgeStore)
	answerLogService := service.NewAnswerLogService(cfg.RAG.AnswerLogPath)

	textExtractor := ingest.NewExtractor(tikaClient)
	indexer := index.NewIndexer(embeddingClient, cfg.Embedding.Model)
	fallback := extractor.New()
	synth := synthesizer.New(llmClient, fallback)
	queryService := service.NewQueryService(store, indexer, synth, cfg.RAG.TopK)

	// 7. 初始化索引重建管道 (Processor)
	processor := pipeline.NewProcessor(textExtractor, indexer, store, cfg.MinIO, cfg.RAG)

	// 8. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8.1 按需在后台拉取本地模型（不阻塞启动）
	if cfg.LLM.AutoPull {
		go func() {
			if err := llmClient.EnsureModel(context.Background()); err != nil {
				log.Warnf("拉取本地模型失败: %v", err)
			}
		}()
	}

	// 9. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())
	// 浏览器扩展会跨域调用接口，放开 CORS
	r.Use(cors.Default())

	// 10. 注册路由
	healthHandler := handler.NewHealthHandler(store, documentService, llmClient)
	documentHandler := handler.NewDocumentHandler(documentService)
	indexHandler := handler.NewIndexHandler(processor, store)
	queryHandler := handler.NewQueryHandler(queryService)
	answerHandler := handler.NewAnswerHandler(answerLogService)

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	{
		api.GET("/check-llm", healthHandler.CheckLLM)

		api.POST("/upload", documentHandler.Upload)
		api.GET("/list-files", documentHandler.List)
		api.DELETE("/delete/:filename", documentHandler.Delete)

		api.POST("/update-vectordb", indexHandler.Rebuild)
		api.GET("/index/status", indexHandler.Status)
		api.GET("/debug-docs", indexHandler.DebugChunks)

		api.POST("/query", queryHandler.Query)

		api.POST("/save-accepted", answerHandler.SaveAccepted)
		api.POST("/save-field-value", answerHandler.SaveFieldValue)
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

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
