// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// 存储后端取值
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Tika          TikaConfig          `mapstructure:"tika"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Ingestion     IngestionConfig     `mapstructure:"ingestion"`
	Memory        MemoryConfig        `mapstructure:"memory"`
	Tokenizer     TokenizerConfig     `mapstructure:"tokenizer"`
	Agent         AgentConfig         `mapstructure:"agent"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// StorageConfig 选择本地 JSON 文件或远程数据库作为存储后端。
type StorageConfig struct {
	Backend string             `mapstructure:"backend"`
	Local   LocalStorageConfig `mapstructure:"local"`
}

// LocalStorageConfig 本地后端的文件位置。
type LocalStorageConfig struct {
	Dir            string `mapstructure:"dir"`
	UsersFile      string `mapstructure:"users_file"`
	ScoresFile     string `mapstructure:"scores_file"`
	ChatStoreFile  string `mapstructure:"chat_store_file"`
	VectorIndexDir string `mapstructure:"vector_index_dir"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	ExpireHours      int    `mapstructure:"expire_hours"`
	GuestExpireHours int    `mapstructure:"guest_expire_hours"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// TikaConfig 存储 Tika 服务器相关的配置。
type TikaConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
type EmbeddingConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数（可选）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// IngestionConfig 文档入库流水线参数。
type IngestionConfig struct {
	Files        []string `mapstructure:"files"`
	ChunkSize    int      `mapstructure:"chunk_size"`
	ChunkOverlap int      `mapstructure:"chunk_overlap"`
	CacheFile    string   `mapstructure:"cache_file"`
	IndexID      string   `mapstructure:"index_id"`
	VectorStore  string   `mapstructure:"vector_store"`
}

// MemoryConfig 对话记忆窗口参数。
type MemoryConfig struct {
	TokenLimit int `mapstructure:"token_limit"`
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// TokenizerConfig tiktoken 编码与 BPE 词表来源。
// offline 为 true 时使用内嵌词表，不在启动时下载；否则下载并缓存到 cache_dir。
type TokenizerConfig struct {
	Encoding string `mapstructure:"encoding"`
	Offline  bool   `mapstructure:"offline"`
	CacheDir string `mapstructure:"cache_dir"`
}

// AgentConfig 对话 Agent 参数。
type AgentConfig struct {
	SimilarityTopK int `mapstructure:"similarity_top_k"`
	MaxToolRounds  int `mapstructure:"max_tool_rounds"`
}

// SetDefaults 注册所有默认值，配置文件或环境变量可覆盖。
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8501")
	v.SetDefault("server.mode", "release")

	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.local.dir", "data")
	v.SetDefault("storage.local.users_file", "users.json")
	v.SetDefault("storage.local.scores_file", "scores.json")
	v.SetDefault("storage.local.chat_store_file", "chat_store.json")
	v.SetDefault("storage.local.vector_index_dir", "index_storage")

	// 凭证类键没有默认值，这里注册空串以便 AutomaticEnv 能在 Unmarshal 时覆盖
	for _, key := range []string{
		"llm.api_key", "embedding.api_key", "jwt.secret",
		"database.mysql.dsn", "database.redis.addr", "database.redis.password",
		"elasticsearch.addresses", "elasticsearch.username", "elasticsearch.password",
		"minio.endpoint", "minio.access_key_id", "minio.secret_access_key",
		"kafka.brokers", "tika.server_url",
	} {
		v.SetDefault(key, "")
	}

	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("jwt.guest_expire_hours", 2)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("kafka.topic", "dsm5-ingest")
	v.SetDefault("kafka.group_id", "mental-care-ingest")

	v.SetDefault("elasticsearch.index_name", "dsm5_vector")

	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.model", "text-embedding-ada-002")
	v.SetDefault("embedding.dimensions", 1536)

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.generation.temperature", 0.2)

	v.SetDefault("ingestion.chunk_size", 512)
	v.SetDefault("ingestion.chunk_overlap", 20)
	v.SetDefault("ingestion.cache_file", "data/ingestion_cache.json")
	v.SetDefault("ingestion.index_id", "vector")
	v.SetDefault("ingestion.vector_store", BackendLocal)

	v.SetDefault("memory.token_limit", 3000)
	v.SetDefault("memory.ttl_seconds", 7200)

	v.SetDefault("tokenizer.encoding", "cl100k_base")
	v.SetDefault("tokenizer.offline", true)
	v.SetDefault("tokenizer.cache_dir", "")

	v.SetDefault("agent.similarity_top_k", 3)
	v.SetDefault("agent.max_tool_rounds", 5)
}

// Load 读取指定路径的 YAML 文件（可为空），叠加默认值和 MENTALCARE_ 前缀的环境变量。
func Load(configPath string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("MENTALCARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = cfg.LLM.APIKey
	}
	return cfg, nil
}

// Init 初始化配置加载，解析结果写入全局 Conf。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}

// Validate 检查启动所必需的凭证，任一缺失都应视为致命错误。
func Validate(cfg Config) error {
	var errs []error
	if cfg.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key 未配置"))
	}
	if cfg.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret 未配置"))
	}
	switch cfg.Storage.Backend {
	case BackendLocal:
	case BackendRemote:
		if cfg.Database.MySQL.DSN == "" {
			errs = append(errs, errors.New("database.mysql.dsn 未配置"))
		}
		if cfg.Database.Redis.Addr == "" {
			errs = append(errs, errors.New("database.redis.addr 未配置"))
		}
	default:
		errs = append(errs, fmt.Errorf("未知的 storage.backend: %q", cfg.Storage.Backend))
	}
	if cfg.Ingestion.VectorStore == "elasticsearch" && cfg.Elasticsearch.Addresses == "" {
		errs = append(errs, errors.New("elasticsearch.addresses 未配置"))
	}
	return errors.Join(errs...)
}

// LocalPath 返回本地存储目录下的文件路径。
func (c LocalStorageConfig) LocalPath(name string) string {
	if c.Dir == "" {
		return name
	}
	return strings.TrimRight(c.Dir, "/") + "/" + name
}
