package initial

import (
	"fmt"
	"strings"

	"StudyLink/internal/config"
	"StudyLink/internal/modules/rag/infrastructure/mq"
	"StudyLink/internal/modules/rag/infrastructure/mq/kafka"
	"StudyLink/pkg/zlog"
)

// KafkaPublisher stays nil when no brokers are configured; async
// ingestion then reports itself unavailable instead of failing startup.
var KafkaPublisher mq.Publisher

func init() {
	conf := config.GetConfig()
	if len(conf.KafkaConfig.Brokers) == 0 {
		zlog.Info("kafka not configured, skipping init")
		return
	}

	topic := strings.TrimSpace(conf.KafkaConfig.IngestTopic)
	if topic == "" {
		topic = "studylink.ingest"
		conf.KafkaConfig.IngestTopic = topic
	}

	if err := kafka.EnsureTopic(kafka.TopicAdminConfig{
		Brokers:  conf.KafkaConfig.Brokers,
		ClientID: conf.KafkaConfig.ClientID,
	}, topic, conf.KafkaConfig.Partitions, conf.KafkaConfig.Replication); err != nil {
		zlog.Fatal(fmt.Sprintf("kafka ensure topic failed: %v", err))
		return
	}

	pub, err := kafka.NewSaramaPublisher(kafka.PublisherConfig{
		Brokers:  conf.KafkaConfig.Brokers,
		ClientID: conf.KafkaConfig.ClientID,
	})
	if err != nil {
		zlog.Fatal(fmt.Sprintf("kafka publisher init failed: %v", err))
		return
	}
	KafkaPublisher = pub
}
