package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort      string  `mapstructure:"SERVER_PORT"`
	RedisAddr       string  `mapstructure:"REDIS_ADDR"`
	RedisPassword   string  `mapstructure:"REDIS_PASSWORD"`
	JWTSecret       string  `mapstructure:"JWT_SECRET"`
	NATSURL         string  `mapstructure:"NATS_URL"`
	NATSSubject     string  `mapstructure:"NATS_SUBJECT"`
	SpeedCeilingKmh float64 `mapstructure:"SPEED_CEILING_KMH"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", ":8080")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SUBJECT", "travlysis.fixes.>")
	v.SetDefault("SPEED_CEILING_KMH", 500.0)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}
