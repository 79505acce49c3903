package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN            string `env:"DSN,required"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout   int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		MaxOpenConns   int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns   int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime    int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	JWT struct {
		Secret string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host            string `env:"HOST" envDefault:"localhost"`
		Port            int    `env:"PORT" envDefault:"6379"`
		Password        string `env:"PASSWORD,required"`
		ConnectTimeout  int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		ProfileCacheTTL int    `env:"PROFILE_CACHE_TTL" envDefault:"60"`
	} `envPrefix:"REDIS_"`
	Scheduling struct {
		TravelBufferMinutes int     `env:"TRAVEL_BUFFER_MINUTES" envDefault:"30"`
		GraceMinutes        int     `env:"GRACE_MINUTES" envDefault:"15"`
		MaxCommitAttempts   int     `env:"MAX_COMMIT_ATTEMPTS" envDefault:"3"`
		MatchConcurrency    int     `env:"MATCH_CONCURRENCY" envDefault:"8"`
		DeployConcurrency   int     `env:"DEPLOY_CONCURRENCY" envDefault:"8"`
		TargetHours         float64 `env:"TARGET_HOURS" envDefault:"40"`
		SkillWeight         float64 `env:"SKILL_WEIGHT" envDefault:"0.4"`
		ProximityWeight     float64 `env:"PROXIMITY_WEIGHT" envDefault:"0.3"`
		WorkloadWeight      float64 `env:"WORKLOAD_WEIGHT" envDefault:"0.2"`
		BufferWeight        float64 `env:"BUFFER_WEIGHT" envDefault:"0.1"`
	} `envPrefix:"SCHEDULING_"`
	Seed struct {
		Organizations int `env:"ORGANIZATIONS" envDefault:"2"`
		Workers       int `env:"WORKERS" envDefault:"30"`
		Shifts        int `env:"SHIFTS" envDefault:"200"`
	} `envPrefix:"SEED_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// only return the first error to keep the log readable
			return nil, aggErr.Errors[0]
		}
	}

	return cfg, nil
}
