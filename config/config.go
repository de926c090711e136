package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	OSS      OSSConfig      `yaml:"oss"`
	JWT      JWTConfig      `yaml:"jwt"`
	Storage  StorageConfig  `yaml:"storage"`
	Drop     DropConfig     `yaml:"drop"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// OSSConfig 对象存储凭证，Endpoint 为 S3 兼容端点（阿里云OSS、MinIO等）
type OSSConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	RequestTimeout  int    `yaml:"request_timeout"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type StorageConfig struct {
	DefaultUserQuota int64 `yaml:"default_user_quota"`
	UploadSessionTTL int   `yaml:"upload_session_ttl"`
	PolicyExpire     int   `yaml:"policy_expire"`
	DownloadExpire   int   `yaml:"download_expire"`
	SizeTolerance    int64 `yaml:"size_tolerance"`
}

type DropConfig struct {
	ExpirySweepInterval int `yaml:"expiry_sweep_interval"`
}

var AppConfig *Config

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	AppConfig = &cfg
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.DefaultUserQuota <= 0 {
		cfg.Storage.DefaultUserQuota = 10 * 1024 * 1024 * 1024 // 10 GiB
	}
	if cfg.Storage.UploadSessionTTL <= 0 {
		cfg.Storage.UploadSessionTTL = 3600
	}
	if cfg.Storage.PolicyExpire <= 0 {
		cfg.Storage.PolicyExpire = 3600
	}
	if cfg.Storage.DownloadExpire <= 0 {
		cfg.Storage.DownloadExpire = 3600
	}
	if cfg.Storage.SizeTolerance <= 0 {
		cfg.Storage.SizeTolerance = 1024
	}
	if cfg.OSS.RequestTimeout <= 0 {
		cfg.OSS.RequestTimeout = 10
	}
	if cfg.JWT.ExpireHours <= 0 {
		cfg.JWT.ExpireHours = 24
	}
	if cfg.Drop.ExpirySweepInterval <= 0 {
		cfg.Drop.ExpirySweepInterval = 600
	}
}
