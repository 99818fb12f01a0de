package config

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"courier-dispatch/internal/domain"
)

func MustInitPostgres() *sql.DB {
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")

	connStr := "host=" + dbHost + " port=" + dbPort + " user=" + dbUser +
		" password=" + dbPassword + " dbname=" + dbName + " sslmode=disable"

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

func MustInitRedis() *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: os.Getenv("REDIS_HOST") + ":" + os.Getenv("REDIS_PORT"),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	return client
}

func NewKafkaWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(os.Getenv("KAFKA_BROKER")),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
}

// Payouts holds the driver-pay constants, in centimes.
type Payouts struct {
	BasePay          int64
	PerKmBonus       int64
	PeakBonus        int64
	RainBonus        int64
	MinGuaranteedPay int64
}

// Dispatch holds auto-dispatch tunables.
type Dispatch struct {
	DefaultMaxDistanceKm float64
	MinMaxDistanceKm     float64
	MaxMaxDistanceKm     float64
	RatePerMinute        int
}

type Config struct {
	HTTPAddr  string
	JWTSecret string
	Payouts   Payouts
	Dispatch  Dispatch
	// Tiers is the commission ladder, ordered by ascending MinMonthly.
	Tiers []domain.CommissionTier
}

// Load reads configuration from environment variables with defaults. The
// commission rates and pay constants are deployment policy, so they are
// overridable without a rebuild.
func Load() *Config {
	return &Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8084"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		Payouts: Payouts{
			BasePay:          getEnvInt64("PAY_BASE", 1000),
			PerKmBonus:       getEnvInt64("PAY_PER_KM", 300),
			PeakBonus:        getEnvInt64("PAY_PEAK_BONUS", 500),
			RainBonus:        getEnvInt64("PAY_RAIN_BONUS", 300),
			MinGuaranteedPay: getEnvInt64("PAY_MIN_GUARANTEED", 800),
		},
		Dispatch: Dispatch{
			DefaultMaxDistanceKm: 10,
			MinMaxDistanceKm:     1,
			MaxMaxDistanceKm:     50,
			RatePerMinute:        30,
		},
		Tiers: []domain.CommissionTier{
			{Name: "Bronze", MinMonthly: 0, Rate: getEnvFloat("COMMISSION_BRONZE", 0.25)},
			{Name: "Silver", MinMonthly: 50, Rate: getEnvFloat("COMMISSION_SILVER", 0.20)},
			{Name: "Gold", MinMonthly: 200, Rate: getEnvFloat("COMMISSION_GOLD", 0.15)},
			{Name: "Platinum", MinMonthly: 500, Rate: getEnvFloat("COMMISSION_PLATINUM", 0.10)},
		},
	}
}

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		log.Printf("Warning: invalid integer for %s, using default %d", key, defaultVal)
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("Warning: invalid float for %s, using default %v", key, defaultVal)
	}
	return defaultVal
}
