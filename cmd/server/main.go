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

	"mental-care-go/internal/agent"
	"mental-care-go/internal/app"
	"mental-care-go/internal/config"
	"mental-care-go/internal/handler"
	"mental-care-go/internal/repository"
	"mental-care-go/internal/service"
	"mental-care-go/pkg/database"
	"mental-care-go/pkg/embedding"
	"mental-care-go/pkg/kafka"
	"mental-care-go/pkg/llm"
	"mental-care-go/pkg/log"
	"mental-care-go/pkg/storage"
	"mental-care-go/pkg/token"
	"mental-care-go/pkg/tokenizer"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	configPath := "./configs/config.yaml"
	if p := os.Getenv("MENTALCARE_CONFIG"); p != "" {
		configPath = p
	}
	config.Init(configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	if err := config.Validate(cfg); err != nil {
		log.Fatal("配置校验失败", err)
	}

	// 3. 初始化存储后端
	var stores *repository.Stores
	if cfg.Storage.Backend == config.BackendRemote {
		database.InitMySQL(cfg.Database.MySQL.DSN)
		database.InitRedis(cfg.Database.Redis)
		stores = repository.NewRemoteStores(database.DB, database.RDB, cfg.Memory)
	} else {
		stores = repository.NewLocalStores(cfg.Storage.Local)
		log.Infof("使用本地 JSON 存储, 目录: %s", cfg.Storage.Local.Dir)
	}

	// 4. 初始化向量索引与模型客户端
	index, err := app.NewVectorIndex(cfg)
	if err != nil {
		log.Fatal("向量索引初始化失败", err)
	}
	tok, err := tokenizer.NewFromConfig(cfg.Tokenizer)
	if err != nil {
		log.Fatal("tokenizer 初始化失败", err)
	}
	llmClient := llm.NewClient(cfg.LLM)
	embeddingClient := embedding.NewClient(cfg.Embedding)

	// 5. 初始化 Service 与 Agent
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpireHours, cfg.JWT.GuestExpireHours)
	userService := service.NewUserService(stores.Users, stores.Blacklist, jwtManager)
	scoreService := service.NewScoreService(stores.Scores)
	searchService := service.NewSearchService(embeddingClient, index)
	memoryService := service.NewMemoryService(stores.Chats, tok, cfg.Memory.TokenLimit)

	tools := []agent.Tool{
		agent.NewDSM5Tool(searchService, cfg.Agent.SimilarityTopK),
		agent.NewSaveScoreTool(scoreService),
	}
	chatAgent := agent.New(llmClient, tools, cfg.Agent.MaxToolRounds, llm.ParamsFromConfig(cfg.LLM.Generation))
	chatService := service.NewChatService(memoryService, chatAgent, stores.Transcripts)

	// 6. 可选：MinIO 文档上传与 Kafka 异步入库
	rootCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	var documentService service.DocumentService
	var producer *kafka.Producer
	if cfg.MinIO.Endpoint != "" {
		storage.InitMinIO(cfg.MinIO)
		objects := storage.NewObjectStore(storage.MinioClient, cfg.MinIO.BucketName)
		processor, err := app.NewProcessor(cfg, index, objects)
		if err != nil {
			log.Fatal("入库流水线初始化失败", err)
		}

		var dispatcher service.TaskDispatcher
		if cfg.Kafka.Enabled {
			producer = kafka.NewProducer(cfg.Kafka)
			dispatcher = producer
			go kafka.StartConsumer(rootCtx, cfg.Kafka, processor, database.RDB)
		} else {
			dispatcher = service.NewInlineDispatcher(processor)
		}
		documentService = service.NewDocumentService(app.NewLoader(cfg), objects, dispatcher)
	} else {
		log.Info("未配置 MinIO，文档上传接口已关闭")
	}

	// 7. 设置路由
	gin.SetMode(cfg.Server.Mode)
	r := handler.NewRouter(handler.Services{
		Users:     userService,
		Chat:      chatService,
		Scores:    scoreService,
		Dashboard: service.NewDashboardService(scoreService, time.Local),
		Documents: documentService,
	})

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	stopConsumers()
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Warnf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	log.Info("服务已优雅关闭")
}
