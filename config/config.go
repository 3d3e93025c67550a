package config

import (
	"fmt"
	"strings"

	"github.com/cloudflare/cfssl/log"
	"github.com/openannot/util"
	viper2 "github.com/spf13/viper"
)

const envPrefix = "OPENANNOT"

// 存储后端
const (
	BackendLevelDB = "leveldb"
	BackendRedis   = "redis"
	BackendMemory  = "memory"
)

type Config struct {
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Store struct {
		Backend string `mapstructure:"backend"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"store"`
	Redis struct {
		Addr      string `mapstructure:"addr"`
		Password  string `mapstructure:"password"`
		DB        int    `mapstructure:"db"`
		EventList string `mapstructure:"event_list"`
	} `mapstructure:"redis"`
	Client struct {
		Addr string `mapstructure:"addr"`
		TLS  bool   `mapstructure:"tls"`
	} `mapstructure:"client"`
	Chain struct {
		TxsThreshold int   `mapstructure:"txs_threshold"`
		RewardUnit   int64 `mapstructure:"reward_unit"`
	} `mapstructure:"chain"`
	Account struct {
		InitBalance int64 `mapstructure:"init_balance"`
	} `mapstructure:"account"`
}

func setDefaults(viper *viper2.Viper) {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("store.backend", BackendLevelDB)
	viper.SetDefault("store.path", "./levelDB/db/path")
	viper.SetDefault("redis.addr", "127.0.0.1:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.event_list", "contractEvents")
	viper.SetDefault("client.addr", "127.0.0.1:8080")
	viper.SetDefault("client.tls", false)
	viper.SetDefault("chain.txs_threshold", 2)
	viper.SetDefault("chain.reward_unit", 1)
	viper.SetDefault("account.init_balance", 1000)
}

// Load 读取配置文件，path 为空时只使用默认值和环境变量，
// 环境变量形如 OPENANNOT_STORE_BACKEND
func Load(path string) (*Config, error) {
	viper := viper2.New()
	setDefaults(viper)
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !util.Contains([]string{BackendLevelDB, BackendRedis, BackendMemory}, c.Store.Backend) {
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Chain.RewardUnit <= 0 {
		return fmt.Errorf("chain.reward_unit must be positive, got %d", c.Chain.RewardUnit)
	}
	if c.Chain.TxsThreshold <= 0 {
		return fmt.Errorf("chain.txs_threshold must be positive, got %d", c.Chain.TxsThreshold)
	}
	return nil
}

// LogLevel 把配置中的日志级别转换为 cfssl 的级别
func (c *Config) LogLevel() int {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return log.LevelDebug
	case "warning", "warn":
		return log.LevelWarning
	case "error":
		return log.LevelError
	case "critical":
		return log.LevelCritical
	case "fatal":
		return log.LevelFatal
	default:
		return log.LevelInfo
	}
}

// ApplyLogLevel 设置全局日志级别
func (c *Config) ApplyLogLevel() {
	log.Level = c.LogLevel()
}
