package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// CookiePolicy holds the attributes applied to the auth cookie.
type CookiePolicy struct {
	Secure   bool
	SameSite http.SameSite
}

type Config struct {
	Port                    string
	Env                     string
	SecretKey               string
	StorageDriver           string
	MongoURI                string
	MongoDatabase           string
	PostgresURL             string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	RankingCacheTTL         time.Duration
	RabbitMQURL             string
	RabbitMQQueue           string
	FirebaseCredentialsPath string
	CORSOrigins             []string
	Cookie                  CookiePolicy
}

var defaultOrigins = []string{
	"http://localhost:5173",
	"https://historical-artifacts.web.app",
	"https://historical-artifacts.firebaseapp.com",
}

// Load reads .env (if present), config.yml (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, assuming environment variables are set.")
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORAGE_DRIVER", DriverMongo)
	v.SetDefault("MONGO_DB", "artifactsDB")
	v.SetDefault("MONGO_HOST", "cluster0.ygtr7.mongodb.net")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RANKING_CACHE_TTL", "30s")
	v.SetDefault("RABBITMQ_QUEUE", "like.events")

	cfg := &Config{
		Port:                    v.GetString("PORT"),
		Env:                     v.GetString("ENV"),
		SecretKey:               v.GetString("SECRET_KEY"),
		StorageDriver:           strings.ToLower(v.GetString("STORAGE_DRIVER")),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDatabase:           v.GetString("MONGO_DB"),
		PostgresURL:             v.GetString("POSTGRES_CONN_STR"),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		RankingCacheTTL:         v.GetDuration("RANKING_CACHE_TTL"),
		RabbitMQURL:             v.GetString("RABBITMQ_URL"),
		RabbitMQQueue:           v.GetString("RABBITMQ_QUEUE"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		CORSOrigins:             splitOrigins(v.GetString("CORS_ORIGINS")),
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = atlasURI(v.GetString("SERVER_USER"), v.GetString("SERVER_USER_PASS"), v.GetString("MONGO_HOST"))
	}
	cfg.Cookie = NewCookiePolicy(cfg.Env)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY environment variable not set")
	}
	switch c.StorageDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI or SERVER_USER/SERVER_USER_PASS must be set")
		}
	case DriverPostgres:
		if c.PostgresURL == "" {
			return errors.New("POSTGRES_CONN_STR environment variable not set")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}

// IsProduction reports whether the service runs with production cookie and log settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// NewCookiePolicy returns cross-site cookies for production and strict same-site cookies otherwise.
func NewCookiePolicy(env string) CookiePolicy {
	if env == "production" {
		return CookiePolicy{Secure: true, SameSite: http.SameSiteNoneMode}
	}
	return CookiePolicy{Secure: false, SameSite: http.SameSiteStrictMode}
}

func atlasURI(user, pass, host string) string {
	if user == "" || pass == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(user, pass),
		Host:     host,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority&appName=Cluster0",
	}
	return u.String()
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), defaultOrigins...)
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
