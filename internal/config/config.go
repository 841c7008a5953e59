package config

import (
	"log"
	"os"
	"sync"

	"github.com/BurntSushi/toml"
)

type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

type LogConfig struct {
	LogPath string `toml:"logPath"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type MilvusConfig struct {
	Address    string `toml:"address"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	DBName     string `toml:"dbName"`
	VectorDim  int    `toml:"vectorDim"`
	MetricType string `toml:"metricType"`
}

type KafkaConfig struct {
	Brokers         []string `toml:"brokers"`
	ClientID        string   `toml:"clientID"`
	IngestTopic     string   `toml:"ingestTopic"`
	ConsumerGroupID string   `toml:"consumerGroupID"`
	Partitions      int32    `toml:"partitions"`
	Replication     int16    `toml:"replication"`
}

type AIEmbeddingConfig struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"apiKey"`
	AccessKey      string `toml:"accessKey"`
	SecretKey      string `toml:"secretKey"`
	BaseURL        string `toml:"baseURL"`
	Region         string `toml:"region"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

type AIChatModelConfig struct {
	Provider        string `toml:"provider"`
	APIKey          string `toml:"apiKey"`
	AccessKey       string `toml:"accessKey"`
	SecretKey       string `toml:"secretKey"`
	BaseURL         string `toml:"baseURL"`
	Region          string `toml:"region"`
	Model           string `toml:"model"`
	TimeoutSeconds  int    `toml:"timeoutSeconds"`
	RetryTimes      int    `toml:"retryTimes"`
	ByAzure         bool   `toml:"byAzure"`
	AzureAPIVersion string `toml:"azureApiVersion"`
}

// AITrainerConfig points at the external fine-tuning collaborator used by
// the refinement loop.
type AITrainerConfig struct {
	BaseURL        string `toml:"baseURL"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
	BatchSize      int    `toml:"batchSize"`
	Epochs         int    `toml:"epochs"`
	OutputDir      string `toml:"outputDir"`
}

type AIConfig struct {
	Embedding AIEmbeddingConfig `toml:"embedding"`
	ChatModel AIChatModelConfig `toml:"chatModel"`
	Trainer   AITrainerConfig   `toml:"trainer"`
}

// RagConfig names the two indices of the corpus and the feedback log.
type RagConfig struct {
	RawIndex        string `toml:"rawIndex"`
	VectorIndex     string `toml:"vectorIndex"`
	FeedbackLogPath string `toml:"feedbackLogPath"`
	DefaultTopK     int    `toml:"defaultTopK"`
}

type Config struct {
	MainConfig   `toml:"mainConfig"`
	LogConfig    `toml:"logConfig"`
	MysqlConfig  `toml:"mysqlConfig"`
	MilvusConfig `toml:"milvusConfig"`
	KafkaConfig  `toml:"kafkaConfig"`
	AIConfig     `toml:"aiConfig"`
	RagConfig    `toml:"ragConfig"`
}

var (
	config   *Config
	loadOnce sync.Once
)

func defaultConfig() *Config {
	return &Config{
		MainConfig: MainConfig{AppName: "StudyLink", Host: "0.0.0.0", Port: 8000},
		MilvusConfig: MilvusConfig{
			DBName:     "studylink",
			VectorDim:  384,
			MetricType: "COSINE",
		},
		RagConfig: RagConfig{
			RawIndex:        "notes",
			VectorIndex:     "embeddings",
			FeedbackLogPath: "data/feedback.jsonl",
			DefaultTopK:     1,
		},
	}
}

func LoadConfig() error {
	configPath := os.Getenv("STUDYLINK_CONFIG")
	if configPath == "" {
		configPath = "configs/config_local.toml"
	}
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Printf("load config %s failed: %v, falling back to defaults", configPath, err)
		return err
	}
	return nil
}

func GetConfig() *Config {
	loadOnce.Do(func() {
		config = defaultConfig()
		_ = LoadConfig()
	})
	return config
}
