package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Gemini GeminiConfig `mapstructure:"gemini"`
	RAG    RAGConfig    `mapstructure:"rag"`
	Data   DataConfig   `mapstructure:"data"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Debug          bool     `mapstructure:"debug"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type GeminiConfig struct {
	APIKey          string   `mapstructure:"api_key"`
	ChatModels      []string `mapstructure:"chat_model"` // 按顺序轮换
	EmbeddingModel  string   `mapstructure:"embedding_model"`
	Temperature     float32  `mapstructure:"temperature"`
	MaxOutputTokens int32    `mapstructure:"max_output_tokens"`
	RPMLimit        int      `mapstructure:"rpm_limit"`
	TimeoutSec      int      `mapstructure:"timeout_sec"`
}

// Timeout 单次生成的超时
func (g GeminiConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSec) * time.Second
}

type RAGConfig struct {
	VectorsDir    string  `mapstructure:"vectors_dir"`
	TopK          int     `mapstructure:"top_k"`
	MinSimilarity float32 `mapstructure:"min_similarity"`
}

type DataConfig struct {
	KnowledgeFile string `mapstructure:"knowledge_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("gemini.chat_model", []string{"gemini-2.5-flash"})
	v.SetDefault("gemini.embedding_model", "text-embedding-004")
	v.SetDefault("gemini.temperature", 0.3)
	v.SetDefault("gemini.max_output_tokens", 2048)
	v.SetDefault("gemini.rpm_limit", 15)
	v.SetDefault("gemini.timeout_sec", 30)

	v.SetDefault("rag.vectors_dir", "data/vectors")
	v.SetDefault("rag.top_k", 4)
	v.SetDefault("rag.min_similarity", 0.0)

	v.SetDefault("data.knowledge_file", "data/quimicai_db.json")
}

// Load 读取配置；path 为空时只用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// 环境变量覆盖
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		v.Set("gemini.api_key", key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini.api_key is required (set in config or GEMINI_API_KEY env)")
	}
	if len(cfg.Gemini.ChatModels) == 0 {
		return nil, fmt.Errorf("gemini.chat_model must list at least one model")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.RAG.TopK <= 0 {
		return nil, fmt.Errorf("rag.top_k must be positive, got %d", cfg.RAG.TopK)
	}

	return &cfg, nil
}
