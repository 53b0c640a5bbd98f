package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// ErrConfiguration marks startup configuration failures. A process that
// cannot load a signing secret or TTL must exit instead of serving.
var ErrConfiguration = errors.New("configuration error")

type AppConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DbConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

type TokenConfig struct {
	Secret   string
	TTL      time.Duration
	Issuer   string
	Audience string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LockoutConfig struct {
	MaxFailures int
	Window      time.Duration
	Cooldown    time.Duration
}

type HealthConfig struct {
	ProbeInterval    time.Duration
	ProbeTimeout     time.Duration
	FailureThreshold int
}

type UpstreamConfig struct {
	AuthServiceURL string
	APIServiceURL  string
	CallTimeout    time.Duration
}

// AssignmentConfig controls how objects are distributed across evaluators.
// SharePercent is the fraction of the corpus each evaluator receives;
// CrossoverPercent is the fraction of that share deliberately overlapping
// with other evaluators for inter-rater comparison.
type AssignmentConfig struct {
	SharePercent     float64
	CrossoverPercent float64
}

type Config struct {
	AppConfig     *AppConfig
	DbConfig      *DbConfig
	TokenConfig   *TokenConfig
	RedisConfig   *RedisConfig
	LockoutConfig *LockoutConfig
	HealthConfig  *HealthConfig
	Upstream      *UpstreamConfig
	Assignment    *AssignmentConfig
}

// Load reads service configuration from the environment. A missing .env file
// is fine in containers where the orchestrator injects everything.
func Load(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}

	appConfig, err := loadApp()
	if err != nil {
		return nil, err
	}
	tokenConfig, err := loadToken()
	if err != nil {
		return nil, err
	}
	lockoutConfig, err := loadLockout()
	if err != nil {
		return nil, err
	}
	healthConfig, err := loadHealth()
	if err != nil {
		return nil, err
	}
	dbConfig, err := loadDb()
	if err != nil {
		return nil, err
	}
	upstream, err := loadUpstream()
	if err != nil {
		return nil, err
	}
	assignmentConfig, err := loadAssignment()
	if err != nil {
		return nil, err
	}

	return &Config{
		AppConfig:     appConfig,
		DbConfig:      dbConfig,
		TokenConfig:   tokenConfig,
		RedisConfig:   loadRedis(),
		LockoutConfig: lockoutConfig,
		HealthConfig:  healthConfig,
		Upstream:      upstream,
		Assignment:    assignmentConfig,
	}, nil
}

func loadApp() (*AppConfig, error) {
	port := envDefault("APP_PORT", "8080")

	readTimeout, err := durationDefault("APP_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	writeTimeout, err := durationDefault("APP_WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	idleTimeout, err := durationDefault("APP_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	return &AppConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadDb() (*DbConfig, error) {
	dsn := os.Getenv("POSTGRES_DSN")

	maxOpenConns, err := intDefault("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, err
	}
	maxIdleConns, err := intDefault("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}
	maxConnLifetime, err := durationDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	return &DbConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		MaxConnLifetime: maxConnLifetime,
	}, nil
}

func loadToken() (*TokenConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is not set", ErrConfiguration)
	}

	ttl, err := durationDefault("TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: TOKEN_TTL must be positive, got %s", ErrConfiguration, ttl)
	}

	return &TokenConfig{
		Secret:   secret,
		TTL:      ttl,
		Issuer:   envDefault("JWT_ISSUER", "objaverse-auth"),
		Audience: envDefault("JWT_AUDIENCE", "objaverse"),
	}, nil
}

func loadRedis() *RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		// Empty addr means in-memory denylist/lockout stores.
		return &RedisConfig{}
	}
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &RedisConfig{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}
}

func loadLockout() (*LockoutConfig, error) {
	maxFailures, err := intDefault("LOCKOUT_MAX_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	window, err := durationDefault("LOCKOUT_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cooldown, err := durationDefault("LOCKOUT_COOLDOWN", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	return &LockoutConfig{
		MaxFailures: maxFailures,
		Window:      window,
		Cooldown:    cooldown,
	}, nil
}

func loadHealth() (*HealthConfig, error) {
	interval, err := durationDefault("HEALTH_PROBE_INTERVAL", 10*time.Second)
	if err != nil {
		return nil, err
	}
	timeout, err := durationDefault("HEALTH_PROBE_TIMEOUT", 2*time.Second)
	if err != nil {
		return nil, err
	}
	threshold, err := intDefault("HEALTH_FAILURE_THRESHOLD", 3)
	if err != nil {
		return nil, err
	}
	return &HealthConfig{
		ProbeInterval:    interval,
		ProbeTimeout:     timeout,
		FailureThreshold: threshold,
	}, nil
}

func loadUpstream() (*UpstreamConfig, error) {
	timeout, err := durationDefault("UPSTREAM_CALL_TIMEOUT", 3*time.Second)
	if err != nil {
		return nil, err
	}
	return &UpstreamConfig{
		AuthServiceURL: os.Getenv("AUTH_SERVICE_URL"),
		APIServiceURL:  os.Getenv("API_SERVICE_URL"),
		CallTimeout:    timeout,
	}, nil
}

func loadAssignment() (*AssignmentConfig, error) {
	share, err := floatDefault("ASSIGNMENT_SHARE_PERCENT", 0.3)
	if err != nil {
		return nil, err
	}
	if share <= 0 || share > 1 {
		return nil, fmt.Errorf("%w: ASSIGNMENT_SHARE_PERCENT must be in (0, 1], got %g", ErrConfiguration, share)
	}
	crossover, err := floatDefault("ASSIGNMENT_CROSSOVER_PERCENT", 0.2)
	if err != nil {
		return nil, err
	}
	if crossover < 0 || crossover > 1 {
		return nil, fmt.Errorf("%w: ASSIGNMENT_CROSSOVER_PERCENT must be in [0, 1], got %g", ErrConfiguration, crossover)
	}
	return &AssignmentConfig{
		SharePercent:     share,
		CrossoverPercent: crossover,
	}, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrConfiguration, key, v, err)
	}
	return d, nil
}

func floatDefault(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrConfiguration, key, v, err)
	}
	return f, nil
}

func intDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrConfiguration, key, v, err)
	}
	return n, nil
}
