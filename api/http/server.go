package http

import (
	"context"
	"fmt"

	"StudyLink/internal/config"
	"StudyLink/internal/initial"
	"StudyLink/internal/modules/rag/application/service"
	"StudyLink/internal/modules/rag/domain/repository"
	"StudyLink/internal/modules/rag/infrastructure/embedding"
	"StudyLink/internal/modules/rag/infrastructure/feedback"
	"StudyLink/internal/modules/rag/infrastructure/indexstore"
	"StudyLink/internal/modules/rag/infrastructure/indexstore/memory"
	"StudyLink/internal/modules/rag/infrastructure/llm"
	"StudyLink/internal/modules/rag/infrastructure/mq/kafka"
	"StudyLink/internal/modules/rag/infrastructure/pipeline"
	"StudyLink/internal/modules/rag/infrastructure/queue"
	"StudyLink/internal/modules/rag/infrastructure/refine"
	ragHandler "StudyLink/internal/modules/rag/interface/http"
	"StudyLink/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var GE *gin.Engine

// IngestWorker drains the broker into the ingest pipeline. Nil when
// Kafka is not configured; main starts it otherwise.
var IngestWorker *queue.IngestConsumerWorker

func init() {
	conf := config.GetConfig()
	ctx := context.Background()

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))

	// Active embedding model.
	ver, err := embedding.NewVersionedFromConfig(ctx, conf, "")
	if err != nil {
		zlog.Fatal("embedding init failed: " + err.Error())
		return
	}
	active, err := embedding.NewActive(ver)
	if err != nil {
		zlog.Fatal("embedding init failed: " + err.Error())
		return
	}

	// Index stores: the real backends when configured, in-memory otherwise.
	var rawStore repository.RawStore
	if initial.GormDB != nil {
		rawStore, err = indexstore.NewGormRawStore(initial.GormDB)
		if err != nil {
			zlog.Fatal("raw store init failed: " + err.Error())
			return
		}
	} else {
		rawStore = memory.NewRawStore()
	}
	var vecStore repository.VectorStore
	if initial.MilvusClient != nil {
		vecStore, err = indexstore.NewMilvusVectorStore(initial.MilvusClient)
		if err != nil {
			zlog.Fatal("vector store init failed: " + err.Error())
			return
		}
	} else {
		vecStore = memory.NewVectorStore()
	}

	ingestPipe, err := pipeline.NewIngestPipeline(rawStore, vecStore, active)
	if err != nil {
		zlog.Fatal("ingest pipeline init failed: " + err.Error())
		return
	}
	retrievePipe, err := pipeline.NewRetrievePipeline(rawStore, vecStore, active)
	if err != nil {
		zlog.Fatal("retrieve pipeline init failed: " + err.Error())
		return
	}

	fbLogger, err := feedback.NewLogger(conf.RagConfig.FeedbackLogPath)
	if err != nil {
		zlog.Fatal("feedback log init failed: " + err.Error())
		return
	}

	// Answering model is optional; answer/summarize report themselves
	// unavailable when it is not configured.
	var answerer *llm.Answerer
	if cm, meta, err := llm.NewChatModelFromConfig(ctx, conf); err != nil {
		zlog.Warn("chat model unavailable", zap.Error(err))
	} else if answerer, err = llm.NewAnswerer(cm, meta); err != nil {
		zlog.Warn("chat model unavailable", zap.Error(err))
	}

	// Refinement is optional in the same way.
	var refiner *refine.Refiner
	if conf.AIConfig.Trainer.BaseURL != "" {
		trainer, err := refine.NewHTTPTrainer(conf.AIConfig.Trainer)
		if err != nil {
			zlog.Fatal("trainer init failed: " + err.Error())
			return
		}
		refiner, err = refine.NewRefiner(fbLogger, trainer, newModelSwap(conf, active), refine.TrainOptions{
			Epochs:    conf.AIConfig.Trainer.Epochs,
			BatchSize: conf.AIConfig.Trainer.BatchSize,
			OutputDir: conf.AIConfig.Trainer.OutputDir,
		})
		if err != nil {
			zlog.Fatal("refiner init failed: " + err.Error())
			return
		}
	} else {
		zlog.Info("trainer not configured, refinement disabled")
	}

	ingestSvc := service.NewIngestService(ingestPipe, initial.KafkaPublisher, conf)
	querySvc := service.NewQueryService(retrievePipe, conf)
	answerSvc := service.NewAnswerService(retrievePipe, answerer, conf)
	feedbackSvc := service.NewFeedbackService(fbLogger)
	summarizeSvc := service.NewSummarizeService(answerer)
	refineSvc := service.NewRefineService(refiner)

	ragH := ragHandler.NewRagHandler(ingestSvc, querySvc, answerSvc, feedbackSvc, summarizeSvc)
	adminH := ragHandler.NewAdminHandler(refineSvc)

	GE.POST("/rag/ingest", ragH.Ingest)
	GE.POST("/rag/ingest/async", ragH.IngestAsync)
	GE.POST("/rag/query", ragH.Query)
	GE.POST("/rag/answer", ragH.Answer)
	GE.POST("/rag/feedback", ragH.Feedback)
	GE.POST("/rag/summarize", ragH.Summarize)
	GE.POST("/admin/refine", adminH.Refine)
	GE.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "model_version": active.Current().Version})
	})

	if initial.KafkaPublisher != nil && conf.KafkaConfig.ConsumerGroupID != "" {
		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			GroupID:  conf.KafkaConfig.ConsumerGroupID,
			Topics:   []string{conf.KafkaConfig.IngestTopic},
			ClientID: conf.KafkaConfig.ClientID,
		})
		if err != nil {
			zlog.Fatal("kafka consumer init failed: " + err.Error())
			return
		}
		IngestWorker = queue.NewIngestConsumerWorker(consumer, ingestPipe)
	}
}

// newModelSwap re-points the embedding client at a freshly trained
// artifact. The trained model path becomes the model reference; the
// version label is what raw records carry from then on.
func newModelSwap(conf *config.Config, active *embedding.Active) refine.SwapFunc {
	return func(ctx context.Context, modelPath, version string) error {
		ver, err := embedding.NewVersionedFromConfig(ctx, conf, modelPath)
		if err != nil {
			return fmt.Errorf("build embedder for %s: %w", modelPath, err)
		}
		ver.Version = version
		prev, err := active.Swap(ver)
		if err != nil {
			return err
		}
		zlog.Info("active embedding model swapped",
			zap.String("from", prev.Version),
			zap.String("to", version),
			zap.String("model_path", modelPath))
		return nil
	}
}
