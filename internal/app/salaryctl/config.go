package salaryctl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"unifiedpro/internal/client"
)

const (
	envPrefix         = "SALARYCTL"
	defaultConfigName = ".salaryctl.yaml"
	defaultServer     = "http://localhost:8080"
)

// Config is read from a YAML file and SALARYCTL_* environment variables;
// the environment wins.
type Config struct {
	Server   string        `mapstructure:"server"`
	Email    string        `mapstructure:"email"`
	Password string        `mapstructure:"password"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
	LogLevel string        `mapstructure:"log_level"`
}

func (c Config) Client() client.Config {
	return client.Config{
		BaseURL:  c.Server,
		Email:    c.Email,
		Password: c.Password,
		Token:    c.Token,
		Timeout:  c.Timeout,
	}
}

// LoadConfig reads path, or ~/.salaryctl.yaml when path is empty. Only an
// explicitly named file has to exist.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")

	v.SetDefault("server", defaultServer)
	v.SetDefault("email", "")
	v.SetDefault("password", "")
	v.SetDefault("token", "")
	v.SetDefault("timeout", client.DefaultTimeout)
	v.SetDefault("log_level", "warn")

	explicit := path != ""
	if !explicit {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, defaultConfigName)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			if explicit || !errors.As(err, &pathErr) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server = strings.TrimRight(strings.TrimSpace(cfg.Server), "/")
	if cfg.Server == "" {
		return Config{}, errors.New("server address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = client.DefaultTimeout
	}
	return cfg, nil
}
