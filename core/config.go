package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		RequestTimeout  time.Duration
	}

	AuthConfig struct {
		Address            string
		Store              string // memory | database
		JWTExpirationDelta time.Duration
	}

	LMSConfig struct {
		Address string
	}

	GatewayConfig struct {
		Address      string
		RoutesFile   string
		ProxyTimeout time.Duration
		// Targets overrides route targets by route name.
		Targets map[string]string
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MaxOpenConns  int
		MaxIdleConns  int
	}

	SyncConfig struct {
		Adaptor  string // static | prepadata
		BaseURL  string
		Timeout  time.Duration
		Schedule string // cron expression; empty disables periodic runs
	}

	Config struct {
		Debug            bool
		TestMode         bool
		AppName          string
		Build            string
		Env              string
		WorkDir          string
		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address

		Server   ServerConfig
		Auth     AuthConfig
		LMS      LMSConfig
		Gateway  GatewayConfig
		Database DatabaseConfig
		Sync     SyncConfig
	}
)

// GatewayServices lists the upstream names the gateway knows how to reach.
var GatewayServices = []string{"auth", "lms", "student", "profiler", "predictor", "reco"}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewConfig loads the configuration of the current environment.
// ENV selects the environment: DEV (default), TEST, QA or PROD.
// Values come from `config/.env.<env>` (if present) and the environment, prefixed by ENV (e.g. DEV_DATABASE_HOST).
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	wd := RootDir()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v := newViper(env)
	return configFromViper(v, env, wd)
}

func newViper(env string) *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", true)
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "EduPath-MS")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "secret_key_123")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("frontendBaseUrl", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "EduPath <noreply@edupath.local>")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.requestTimeout", 8*time.Second)

	v.SetDefault("auth.address", ":3005")
	v.SetDefault("auth.store", "memory")
	v.SetDefault("auth.jwtExpirationDelta", time.Hour)

	v.SetDefault("lms.address", ":3001")

	v.SetDefault("gateway.address", ":8000")
	v.SetDefault("gateway.routesFile", "")
	v.SetDefault("gateway.proxyTimeout", 30*time.Second)
	for _, name := range GatewayServices {
		v.SetDefault("gateway."+name+".url", "")
	}

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "edupath_lms")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.maxOpenConns", 20)
	v.SetDefault("database.maxIdleConns", 5)

	v.SetDefault("sync.adaptor", "static")
	v.SetDefault("sync.baseUrl", "http://localhost:5004")
	v.SetDefault("sync.timeout", 30*time.Second)
	v.SetDefault("sync.schedule", "")

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func configFromViper(v *viper.Viper, env, wd string) *Config {
	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail(%s): %v", v.GetString("defaultFromEmail"), err)
	}

	targets := make(map[string]string)
	for _, name := range GatewayServices {
		if u := v.GetString("gateway." + name + ".url"); u != "" {
			targets[name] = u
		}
	}

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		Env:              env,
		WorkDir:          wd,
		SecretKey:        v.GetString("secretKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		FrontendBaseURL:  v.GetString("frontendBaseUrl"),
		DefaultFromEmail: *from,
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ReadTimeout:     v.GetDuration("server.readTimeout"),
			WriteTimeout:    v.GetDuration("server.writeTimeout"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			RequestTimeout:  v.GetDuration("server.requestTimeout"),
		},
		Auth: AuthConfig{
			Address:            v.GetString("auth.address"),
			Store:              strings.ToLower(v.GetString("auth.store")),
			JWTExpirationDelta: v.GetDuration("auth.jwtExpirationDelta"),
		},
		LMS: LMSConfig{
			Address: v.GetString("lms.address"),
		},
		Gateway: GatewayConfig{
			Address:      v.GetString("gateway.address"),
			RoutesFile:   v.GetString("gateway.routesFile"),
			ProxyTimeout: v.GetDuration("gateway.proxyTimeout"),
			Targets:      targets,
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			MaxOpenConns:  v.GetInt("database.maxOpenConns"),
			MaxIdleConns:  v.GetInt("database.maxIdleConns"),
		},
		Sync: SyncConfig{
			Adaptor:  strings.ToLower(v.GetString("sync.adaptor")),
			BaseURL:  v.GetString("sync.baseUrl"),
			Timeout:  v.GetDuration("sync.timeout"),
			Schedule: v.GetString("sync.schedule"),
		},
	}
}

// NewTestConfig returns a Config suited for tests: no .env loading, debug off so that error payloads are stable.
func NewTestConfig() *Config {
	v := newViper("TEST")
	v.Set("debug", false)
	conf := configFromViper(v, "TEST", "")
	conf.SecretKey = "test-secret"
	return conf
}

func (c *Config) String() string {
	return fmt.Sprintf("%s(%s) env=%s debug=%t", c.AppName, c.Build, c.Env, c.Debug)
}
