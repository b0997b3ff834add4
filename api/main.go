package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const version = "1.0.0"

type config struct {
	port int
	env  string
	db   struct {
		dsn                string
		maxOpenConnections int
		maxIdleConnections int
		maxIdleTime        time.Duration
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	limiter struct {
		enabled             bool
		maxRequestPerSecond float64
		burst               int
	}
	cors struct {
		trustedOrigins []string
	}
	jwtSecret string
	tokenTTL  time.Duration
}

type application struct {
	config  config
	storage *storage
	mailer  *mailer
	logger  zerolog.Logger
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	var cfg config
	flag.IntVar(&cfg.port, "port", 3000, "Server Port")
	flag.StringVar(&cfg.env, "env", "development", "Environment [development|production]")

	flag.StringVar(&cfg.db.dsn, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConnections, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.IntVar(&cfg.db.maxIdleConnections, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	var maxIdleTime string
	flag.StringVar(&maxIdleTime, "db-max-idle-time", "15m", "PostgreSQL max connection idle time")

	flag.StringVar(&cfg.smtp.host, "smtp-host", os.Getenv("SMTP_HOST"), "SMTP host")
	smtpPort, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	flag.IntVar(&cfg.smtp.port, "smtp-port", smtpPort, "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", os.Getenv("SMTP_SENDER"), "SMTP sender")

	flag.BoolVar(&cfg.limiter.enabled, "limiter-enabled", true, "Enable rate limiter")
	flag.Float64Var(&cfg.limiter.maxRequestPerSecond, "limiter-rps", 10, "Rate limiter max requests per second per client")
	flag.IntVar(&cfg.limiter.burst, "limiter-burst", 20, "Rate limiter burst per client")

	flag.StringVar(&cfg.jwtSecret, "jwt-secret", os.Getenv("JWT_SECRET"), "JWT secret")
	var tokenTTL string
	flag.StringVar(&tokenTTL, "token-ttl", "", "Token lifetime, empty for no expiry")
	flag.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(s string) error {
		cfg.cors.trustedOrigins = append(cfg.cors.trustedOrigins, s)
		return nil
	})
	flag.Parse()

	d, err := time.ParseDuration(maxIdleTime)
	if err != nil {
		cfg.db.maxIdleTime = 15 * time.Minute
		logger.Warn().Str("value", maxIdleTime).Msgf(`invalid value for flag "db-max-idle-time" defaulting to %s`, cfg.db.maxIdleTime)
	} else {
		cfg.db.maxIdleTime = d
	}
	if tokenTTL != "" {
		d, err := time.ParseDuration(tokenTTL)
		if err != nil {
			logger.Fatal().Str("value", tokenTTL).Msg(`invalid value for flag "token-ttl"`)
		}
		cfg.tokenTTL = d
	}

	// the signing secret is mandatory and must not leak into logs
	if cfg.jwtSecret == "" {
		logger.Fatal().Msg("a JWT secret is required, set JWT_SECRET")
	}
	if cfg.db.dsn == "" {
		logger.Fatal().Msg("a database DSN is required, set DB_DSN")
	}

	db, err := openDB(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not connect to database")
	}
	logger.Info().Msg("established a connection with database")

	app := &application{
		config:  cfg,
		storage: newStorage(db),
		mailer:  newMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender, logger),
		logger:  logger,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.port),
		Handler:      composeRoutes(app),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	logger.Info().Str("env", cfg.env).Int("port", cfg.port).Msg("starting server")
	err = srv.ListenAndServe()
	logger.Fatal().Err(err).Msg("server stopped")
}
