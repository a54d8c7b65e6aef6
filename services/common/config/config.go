// Package config holds the environment helpers every service's LoadConfig
// builds on, plus the optional Secrets Manager override.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	aws_pkg "github.com/yashrajoria/shopswift/pkg/aws"
)

// LoadDotEnv loads a .env file from the working directory when present.
// It reports whether a file was loaded.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

func GetEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func GetBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func GetInt(key string, fallback int) int {
	v, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func GetFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(GetEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// GetList splits a comma-separated variable, dropping empty entries.
func GetList(key string) []string {
	var out []string
	for _, part := range strings.Split(GetEnv(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SecretGetter reads a secret's string value.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// ApplySecretOverrides reads a JSON object secret and writes each non-empty
// value whose key is present in targets into the pointed-to field.
func ApplySecretOverrides(ctx context.Context, sm SecretGetter, secretName string, targets map[string]*string) error {
	raw, err := sm.GetSecret(ctx, secretName)
	if err != nil {
		return err
	}
	if raw == "" {
		return nil
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return fmt.Errorf("secret %s is not a JSON object: %w", secretName, err)
	}
	for key, dst := range targets {
		if v, ok := values[key]; ok && v != "" {
			*dst = v
		}
	}
	return nil
}

// LoadSecretOverrides applies ApplySecretOverrides through AWS Secrets Manager
// when AWS_USE_SECRETS=true. It is a no-op otherwise.
func LoadSecretOverrides(ctx context.Context, secretName string, targets map[string]*string) error {
	if !GetBool("AWS_USE_SECRETS", false) || secretName == "" {
		return nil
	}
	awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
	if err != nil {
		return err
	}
	return ApplySecretOverrides(ctx, aws_pkg.NewSecretsClient(awsCfg), secretName, targets)
}

// Common holds the keys every service reads.
type Common struct {
	Port              string
	Env               string
	DBProvider        string
	StrictLocking     bool
	UpstreamTimeout   time.Duration
	EventBus          string
	SNSTopicARN       string
	KafkaBrokers      []string
	KafkaTopic        string
	CloudWatchEnabled bool
	MetricsNamespace  string
	RateLimitRPS      float64
	RateLimitBurst    int
	AllowedOrigins    []string
	SeedData          bool
	JWTSecret         string
}

// LoadCommon reads the shared keys, using defaultPort when PORT is unset.
// Rate limiting is off unless RATE_LIMIT_RPS is set.
func LoadCommon(defaultPort string) Common {
	return Common{
		Port:              GetEnv("PORT", defaultPort),
		Env:               GetEnv("APP_ENV", "development"),
		DBProvider:        strings.ToLower(GetEnv("DB_PROVIDER", "memory")),
		StrictLocking:     GetBool("STRICT_LOCKING", true),
		UpstreamTimeout:   GetDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		EventBus:          strings.ToLower(GetEnv("EVENT_BUS", "none")),
		SNSTopicARN:       GetEnv("SNS_TOPIC_ARN", ""),
		KafkaBrokers:      GetList("KAFKA_BROKERS"),
		KafkaTopic:        GetEnv("KAFKA_TOPIC", "checkout-events"),
		CloudWatchEnabled: GetBool("CLOUDWATCH_ENABLED", false),
		MetricsNamespace:  GetEnv("CLOUDWATCH_NAMESPACE", "ShopSwift"),
		RateLimitRPS:      GetFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:    GetInt("RATE_LIMIT_BURST", 100),
		AllowedOrigins:    GetList("ALLOWED_ORIGINS"),
		SeedData:          GetBool("SEED_DATA", true),
		JWTSecret:         GetEnv("JWT_SECRET", ""),
	}
}
