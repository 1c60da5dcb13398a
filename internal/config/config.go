// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// EnvPrefix 是覆盖配置项的环境变量前缀，例如 ORGDIR_SERVER_PORT。
const EnvPrefix = "ORGDIR"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Identity IdentityConfig `mapstructure:"identity"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Search   SearchConfig   `mapstructure:"search"`
	Edit     EditConfig     `mapstructure:"edit"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 中的 Secret 是身份服务签发 access token 时使用的项目密钥。
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// IdentityConfig 托管身份服务（GoTrue 兼容）的地址与 service role key。
type IdentityConfig struct {
	URL            string `mapstructure:"url"`
	ServiceRoleKey string `mapstructure:"service_role_key"`
	// AdminPlaceholderName 写入受邀管理员 user_metadata 的占位名称
	AdminPlaceholderName string `mapstructure:"admin_placeholder_name"`
}

// StorageConfig 对象存储（S3 兼容）配置。
type StorageConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// SearchConfig Elasticsearch 组织索引配置，Enabled 为 false 时目录搜索走数据库。
type SearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
}

// EditConfig 组织编辑流程的可调参数。
type EditConfig struct {
	MaxFeaturedPhotos int           `mapstructure:"max_featured_photos"`
	RedirectDelay     time.Duration `mapstructure:"redirect_delay"`
	DateLayout        string        `mapstructure:"date_layout"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 配置文件并解析导入到 Conf 变量中
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	Conf = *cfg
}

// Load 读取配置文件并叠加环境变量，返回解析后的配置。
// 读取顺序：.env（如存在）→ YAML 文件 → 环境变量覆盖。
func Load(configPath string) (*Config, error) {
	// .env 不存在是正常情况，其余错误才需要上报
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 托管后端约定的环境变量名，与 serverless 函数运行时保持一致
	_ = v.BindEnv("identity.url", "SUPABASE_URL", EnvPrefix+"_IDENTITY_URL")
	_ = v.BindEnv("identity.service_role_key", "SUPABASE_SERVICE_ROLE_KEY", EnvPrefix+"_IDENTITY_SERVICE_ROLE_KEY")
	_ = v.BindEnv("jwt.secret", "SUPABASE_JWT_SECRET", EnvPrefix+"_JWT_SECRET")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("identity.admin_placeholder_name", "Organization Admin")
	v.SetDefault("storage.bucket", "org-assets")
	v.SetDefault("search.index", "organizations")
	v.SetDefault("edit.max_featured_photos", 3)
	v.SetDefault("edit.redirect_delay", "2s")
	v.SetDefault("edit.date_layout", "January 2, 2006")
}
