package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort          string        `mapstructure:"SERVER_PORT"`
	APIBaseURL          string        `mapstructure:"API_BASE_URL"`
	UserID              int64         `mapstructure:"USER_ID"`
	UploadTimeout       time.Duration `mapstructure:"UPLOAD_TIMEOUT"`
	ActivityTitle       string        `mapstructure:"ACTIVITY_TITLE"`
	ActivityDescription string        `mapstructure:"ACTIVITY_DESCRIPTION"`
	TickInterval        time.Duration `mapstructure:"TICK_INTERVAL"`
	LocationInterval    time.Duration `mapstructure:"LOCATION_INTERVAL"`
	LocationDistanceM   float64       `mapstructure:"LOCATION_DISTANCE_M"`
	LocationPermission  string        `mapstructure:"LOCATION_PERMISSION"`
	ReplayGPX           string        `mapstructure:"REPLAY_GPX"`
	RedisAddr           string        `mapstructure:"REDIS_ADDR"`
	RedisPassword       string        `mapstructure:"REDIS_PASSWORD"`
	InfluxURL           string        `mapstructure:"INFLUX_URL"`
	InfluxDatabase      string        `mapstructure:"INFLUX_DATABASE"`
	SentryDSN           string        `mapstructure:"SENTRY_DSN"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from the environment, after pulling in a .env
// file from the working directory when one exists.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", ":8080")
	v.SetDefault("API_BASE_URL", "https://velocity-api-x1m0.onrender.com")
	v.SetDefault("USER_ID", 1)
	v.SetDefault("UPLOAD_TIMEOUT", 5*time.Second)
	v.SetDefault("ACTIVITY_TITLE", "Velocity Morning Run")
	v.SetDefault("ACTIVITY_DESCRIPTION", "Tracked with Velocity")
	v.SetDefault("TICK_INTERVAL", time.Second)
	v.SetDefault("LOCATION_INTERVAL", time.Second)
	v.SetDefault("LOCATION_DISTANCE_M", 1.0)
	v.SetDefault("LOCATION_PERMISSION", "granted")
	v.SetDefault("REPLAY_GPX", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("INFLUX_URL", "")
	v.SetDefault("INFLUX_DATABASE", "velocity")
	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("LOG_LEVEL", "INFO")

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

// LocationGranted reports whether the device side agreed to share its location.
func (c Config) LocationGranted() bool {
	return c.LocationPermission != "denied"
}
