package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App      AppConfig     `mapstructure:"app"`
	Server   ServerConfig  `mapstructure:"server"`
	AI       AIConfig      `mapstructure:"ai"`
	Ollama   OllamaConfig  `mapstructure:"ollama"`
	OpenAI   OpenAIConfig  `mapstructure:"openai"`
	Scraper  ScraperConfig `mapstructure:"scraper"`
	Catalog  CatalogConfig `mapstructure:"catalog"`
	Cache    CacheConfig   `mapstructure:"cache"`
	LogLevel string        `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// AIConfig AI 閘道配置
// Timeout 為單次嘗試的上限，設 0 表示不限制
type AIConfig struct {
	Provider      string        `mapstructure:"provider"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	RetryDelayCap time.Duration `mapstructure:"retry_delay_cap"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// OllamaConfig 本地模型後端配置
type OllamaConfig struct {
	Host  string `mapstructure:"host"`
	Port  string `mapstructure:"port"`
	Model string `mapstructure:"model"`
}

// BaseURL 組出後端位址
func (c OllamaConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%s", c.Host, c.Port)
}

// OpenAIConfig 託管模型後端配置
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// ScraperConfig 抓取服務配置
type ScraperConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollAttempts int           `mapstructure:"poll_attempts"`
}

// BaseURL 組出抓取服務位址
func (c ScraperConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%s", c.Host, c.Port)
}

// CatalogConfig 目錄（物件存儲）配置
type CatalogConfig struct {
	ServerURL string `mapstructure:"server_url"`
	AppID     string `mapstructure:"app_id"`
	APIKey    string `mapstructure:"api_key"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
}

// CacheConfig 共享食材查詢快取配置（redis）
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Addr    string        `mapstructure:"addr"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件
	if err := godotenv.Load(); err != nil {
		return nil, err
	}

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("ai.provider", "AI_PROVIDER")
	viper.BindEnv("ollama.host", "OLLAMA_URL")
	viper.BindEnv("ollama.port", "OLLAMA_PORT")
	viper.BindEnv("ollama.model", "OLLAMA_MODEL")
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("openai.model", "OPENAI_MODEL")
	viper.BindEnv("scraper.host", "SCRAPER_URL")
	viper.BindEnv("scraper.port", "SCRAPER_PORT")
	viper.BindEnv("scraper.username", "SCRAPER_USERNAME")
	viper.BindEnv("scraper.password", "SCRAPER_PASSWORD")
	viper.BindEnv("catalog.server_url", "PARSE_SERVER_URL")
	viper.BindEnv("catalog.app_id", "PARSE_APP_ID")
	viper.BindEnv("catalog.api_key", "PARSE_JS_KEY")
	viper.BindEnv("catalog.username", "PARSE_SERVICE_USERNAME")
	viper.BindEnv("catalog.password", "PARSE_SERVICE_PASSWORD")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.addr", "CACHE_ADDR")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration",
		"ai_provider:", viper.GetString("ai.provider"),
		"openai_api_key:", maskAPIKey(viper.GetString("openai.api_key")),
		"scraper:", viper.GetString("scraper.host")+":"+viper.GetString("scraper.port"))

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "recipe-enricher")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// AI 閘道設定
	viper.SetDefault("ai.provider", "ollama")
	viper.SetDefault("ai.max_retries", 3)
	viper.SetDefault("ai.retry_delay", "1s")
	viper.SetDefault("ai.retry_delay_cap", "5s")
	viper.SetDefault("ai.timeout", "30s")

	// 本地模型設定
	viper.SetDefault("ollama.host", "localhost")
	viper.SetDefault("ollama.port", "11434")
	viper.SetDefault("ollama.model", "llama2")

	// 託管模型設定
	viper.SetDefault("openai.model", "gpt-4-turbo")

	// 抓取服務設定
	viper.SetDefault("scraper.host", "localhost")
	viper.SetDefault("scraper.port", "8000")
	viper.SetDefault("scraper.username", "admin")
	viper.SetDefault("scraper.password", "admin")
	viper.SetDefault("scraper.timeout", "30s")
	viper.SetDefault("scraper.poll_interval", "10s")
	viper.SetDefault("scraper.poll_attempts", 30)

	// 目錄設定
	viper.SetDefault("catalog.server_url", "http://localhost:1337/parse")

	// 共享快取設定
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.addr", "localhost:6379")
	viper.SetDefault("cache.ttl", "24h")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證 AI 閘道設定
	if config.AI.Provider != "ollama" && config.AI.Provider != "openai" {
		return fmt.Errorf("unknown ai provider: %s", config.AI.Provider)
	}
	if config.AI.MaxRetries <= 0 {
		return fmt.Errorf("invalid ai max retries")
	}
	if config.AI.RetryDelay <= 0 {
		return fmt.Errorf("invalid ai retry delay")
	}
	if config.AI.Provider == "openai" && config.OpenAI.APIKey == "" {
		return fmt.Errorf("openai api key is required")
	}

	// 驗證抓取服務設定
	if config.Scraper.PollInterval <= 0 {
		return fmt.Errorf("invalid scraper poll interval")
	}
	if config.Scraper.PollAttempts <= 0 {
		return fmt.Errorf("invalid scraper poll attempts")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.Addr == "" {
			return fmt.Errorf("cache addr is required")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	return nil
}
