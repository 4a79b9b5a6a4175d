package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Scorer    ScorerConfig
	Search    SearchConfig
	Pipeline  PipelineConfig
	Applicant ApplicantConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	SeenTTL  time.Duration
}

type JWTConfig struct {
	AccessSecret     string
	RefreshSecret    string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

// AdminConfig is the single operator credential used to protect the
// run-trigger endpoint. PasswordHash is a bcrypt hash.
type AdminConfig struct {
	Email        string
	PasswordHash string
}

type ScorerConfig struct {
	AnthropicAPIKey string
	Model           string
	Timeout         time.Duration
	Workers         int
}

type SearchConfig struct {
	Keywords []string
	Location string
}

type PipelineConfig struct {
	MaxJobsPerRun         int
	MaxApplicationsPerRun int
	ScoreThreshold        int
	ApplicationDelay      time.Duration
	RandomDelays          bool
	SourceDelay           time.Duration
	SourceTimeout         time.Duration
	RunLockTTL            time.Duration
}

// ApplicantConfig carries the personal details the applicator fills into
// application forms. Resume parsing happens out of process; only the file
// path travels through here.
type ApplicantConfig struct {
	Name        string
	Email       string
	Phone       string
	Location    string
	LinkedInURL string
	ResumePath  string
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, def string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     opt("APP_NAME", "ai-job-bot"),
		Environment: opt("APP_ENV", "development"),
		HTTPPort:    opt("HTTP_PORT", "8000"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     opt("DB_HOST", "localhost"),
		DBPort:     opt("DB_PORT", "5432"),
		DBName:     req("DB_NAME"),
		DBUser:     req("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBSSLMode:  opt("DB_SSL_MODE", "disable"),

		ConnectTimeout:        optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 10)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optDuration("DB_POOL_MAX_CONN_LIFETIME", time.Hour),
		PoolMaxConnIdleTime:   optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 30*time.Minute),
		PoolHealthCheckPeriod: optDuration("DB_POOL_HEALTH_CHECK_PERIOD", time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST", "localhost"),
		Port:     opt("REDIS_PORT", "6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		SeenTTL:  optDuration("REDIS_JOB_TTL", 24*time.Hour),
	}

	cfg.JWT = JWTConfig{
		AccessSecret:     req("JWT_ACCESS_SECRET"),
		RefreshSecret:    req("JWT_REFRESH_SECRET"),
		AccessExpiresIn:  optDuration("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
		RefreshExpiresIn: optDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
	}

	cfg.Admin = AdminConfig{
		Email:        req("ADMIN_EMAIL"),
		PasswordHash: req("ADMIN_PASSWORD_HASH"),
	}

	cfg.Scorer = ScorerConfig{
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:           opt("SCORER_MODEL", ""),
		Timeout:         optDuration("SCORER_TIMEOUT", 30*time.Second),
		Workers:         optInt("SCORER_WORKERS", 4),
	}

	cfg.Search = SearchConfig{
		Keywords: splitCSV(opt("SEARCH_KEYWORDS", "software engineer,developer,full stack,backend,frontend")),
		Location: opt("SEARCH_LOCATION", "Remote"),
	}

	cfg.Pipeline = PipelineConfig{
		MaxJobsPerRun:         optInt("MAX_JOBS_PER_RUN", 20),
		MaxApplicationsPerRun: optInt("MAX_APPLICATIONS_PER_RUN", 10),
		ScoreThreshold:        optInt("SCORE_THRESHOLD", 6),
		ApplicationDelay:      optDuration("APPLICATION_DELAY", 30*time.Second),
		RandomDelays:          optBool("RANDOM_DELAYS", true),
		SourceDelay:           optDuration("SOURCE_DELAY", 2*time.Second),
		SourceTimeout:         optDuration("SOURCE_TIMEOUT", 60*time.Second),
		RunLockTTL:            optDuration("RUN_LOCK_TTL", 30*time.Minute),
	}

	cfg.Applicant = ApplicantConfig{
		Name:        opt("PERSONAL_NAME", ""),
		Email:       opt("PERSONAL_EMAIL", ""),
		Phone:       opt("PERSONAL_PHONE", ""),
		Location:    opt("PERSONAL_LOCATION", "Remote"),
		LinkedInURL: opt("PERSONAL_LINKEDIN", ""),
		ResumePath:  opt("RESUME_PATH", "resume.pdf"),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	if cfg.Pipeline.ScoreThreshold < 1 || cfg.Pipeline.ScoreThreshold > 10 {
		return Config{}, fmt.Errorf("SCORE_THRESHOLD must be within 1..10, got %d", cfg.Pipeline.ScoreThreshold)
	}

	return cfg, nil
}

func optInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func optBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// optDuration accepts Go duration syntax ("45s", "2m") or a bare number,
// which is read as seconds for compatibility with older deployments.
func optDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return def
		}
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
