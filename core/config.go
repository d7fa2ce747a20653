package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the application configuration. It is populated once by InitConf at
// process start (and by test setups).
var Conf *Config

type (
	Config struct {
		AppName         string
		Env             string // DEV (default), TEST, QA, PROD
		Build           string
		Debug           bool
		TestMode        bool
		SecretKey       string
		FrontendBaseURL string
		DefaultFrom     string
		SendgridApiKey  string
		RollbarToken    string
		WorkDir         string

		Server    ServerConfig
		Database  DatabaseConfig
		Invite    InviteConfig
		RateLimit RateLimitConfig
	}

	ServerConfig struct {
		Host            string
		Port            int
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          int
		DisableTLS    bool
	}

	InviteConfig struct {
		DefaultExpiryHours int
		MaxExpiryHours     int
		AllowedRoles       []string
	}

	RateLimitConfig struct {
		MaxBuckets int
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFrom}
}

func (sc ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", sc.Host, sc.Port)
}

func (dc DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", dc.Host, dc.Port)
}

// InitConf loads the configuration from the environment (plus an optional
// config/.env.<env> file) and sets Conf.
func InitConf() {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetDefault("appName", "Shule")
	v.SetDefault("env", env)
	v.SetDefault("build", "dev")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("secretKey", "w#5y=74d)e&+0m$ch@nge-me-1n-pr0d!xk2(bz*q_8s%vu3")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFrom", "noreply@localhost")
	v.SetDefault("workDir", Getwd())

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdownTimeout", 20*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "shule")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("invite.defaultExpiryHours", 72)
	v.SetDefault("invite.maxExpiryHours", 720)
	v.SetDefault("invite.allowedRoles", []string{"teacher"})

	v.SetDefault("rateLimit.maxBuckets", 4096)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.viper.Unmarshal: %v", err)
	}
	Conf = conf
}
