// Package app builds the process-wide dependencies shared by the HTTP server
// and the serverless function.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"medhive-backend/config"
	"medhive-backend/internal/domain"
	"medhive-backend/internal/events"
	"medhive-backend/internal/repository/memory"
	"medhive-backend/internal/repository/postgres"
	redisrepo "medhive-backend/internal/repository/redis"
	"medhive-backend/internal/usecase"
	"medhive-backend/pkg/database"
	"medhive-backend/pkg/email"
	"medhive-backend/pkg/redis"
	"medhive-backend/pkg/security"
	"medhive-backend/pkg/validation"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "medhive-inquiry"

// Container owns every long-lived collaborator. Close releases them.
type Container struct {
	Config    *config.Config
	Logger    *slog.Logger
	Audit     *security.AuditLogger
	Mailer    email.Mailer
	Redis     *goredis.Client
	DB        *pgxpool.Pool
	Events    *events.KafkaPublisher
	InquiryUC domain.InquiryUsecase
	HealthUC  usecase.HealthUsecase

	purge *purgeScheduler
}

// New connects optional backends. A backend that cannot be reached is logged
// and skipped so the contact form keeps working without it.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Container, error) {
	if log == nil {
		log = slog.Default()
	}
	c := &Container{Config: cfg, Logger: log}

	// 1. Audit log
	if cfg.SecurityAuditLog {
		c.Audit = security.NewAuditLogger(serviceName, cfg.AppEnv)
	} else {
		c.Audit = security.NewAuditLoggerWith(zap.NewNop(), serviceName, cfg.AppEnv)
	}

	// 2. Mailer
	mailer, err := newMailer(cfg)
	if err != nil {
		return nil, err
	}
	c.Mailer = mailer
	if !mailer.IsConfigured() {
		log.Warn("Email service not fully configured - contact form will be unavailable", "provider", cfg.MailProvider)
	}

	// 3. Redis (rate limiting and optionally dedup)
	if cfg.UpstashRedisURL != "" {
		client, err := redis.NewClient(ctx, redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword})
		if err != nil {
			log.Warn("Redis unavailable, using in-memory rate limiting", "error", err)
		} else {
			c.Redis = client
		}
	}

	// 4. Dedup store
	dedup := c.newDedupStore(ctx)

	// 5. Events
	if len(cfg.KafkaBrokers) > 0 {
		c.Events = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaInquiryTopic)
	}

	// 6. Usecases
	var publisher domain.EventPublisher
	if c.Events != nil {
		publisher = c.Events
	}
	c.InquiryUC = usecase.NewInquiryUsecase(mailer, dedup, publisher, validation.New(), usecase.InquiryConfig{
		OperatorAddress: cfg.ContactEmailTo,
		SendTimeout:     cfg.MailSendTimeout,
		DedupTTL:        cfg.DedupTTL,
	}, log)
	c.HealthUC = usecase.NewHealthUsecase(c.readyChecks()...)

	return c, nil
}

func newMailer(cfg *config.Config) (email.Mailer, error) {
	switch cfg.MailProvider {
	case "", "smtp":
		return email.NewSMTPMailer(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFromEmail,
			FromName: "MedHive",
			SSL:      cfg.SMTPSSL,
		}), nil
	case "resend":
		return email.NewResendMailer(cfg.ResendAPIKey, cfg.SMTPFromEmail, ""), nil
	default:
		return nil, fmt.Errorf("unknown MAIL_PROVIDER %q", cfg.MailProvider)
	}
}

func (c *Container) newDedupStore(ctx context.Context) domain.DedupStore {
	switch c.Config.DedupBackend {
	case "none":
		return nil
	case "redis":
		if c.Redis != nil {
			return redisrepo.NewDedupStore(c.Redis)
		}
	case "postgres":
		if c.Config.DBUrl == "" {
			break
		}
		pool, err := database.NewPostgresConnection(ctx, c.Config.DBUrl)
		if err != nil {
			c.Logger.Warn("Postgres unavailable, using in-memory dedup", "error", err)
			break
		}
		repo := postgres.NewDedupRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			c.Logger.Warn("Failed to prepare dedup table, using in-memory dedup", "error", err)
			pool.Close()
			break
		}
		c.DB = pool
		c.purge = startPurgeScheduler(repo, c.Config.DedupPurgeInterval, c.Logger)
		return repo
	}
	return memory.NewDedupStore()
}

func (c *Container) readyChecks() []usecase.ReadyCheck {
	var checks []usecase.ReadyCheck
	if c.Redis != nil {
		checks = append(checks, usecase.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}})
	}
	if c.DB != nil {
		checks = append(checks, usecase.ReadyCheck{Name: "postgres", Check: c.DB.Ping})
	}
	return checks
}

// Close releases backends in reverse order of construction.
func (c *Container) Close() error {
	var errs []error
	if c.purge != nil {
		c.purge.Stop()
	}
	if c.Events != nil {
		errs = append(errs, c.Events.Close())
	}
	if c.DB != nil {
		c.DB.Close()
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.Mailer != nil {
		errs = append(errs, c.Mailer.Close())
	}
	_ = c.Audit.Sync()
	return errors.Join(errs...)
}

// RedisClient returns the shared client, or a nil interface when Redis is off.
func (c *Container) RedisClient() goredis.UniversalClient {
	if c.Redis == nil {
		return nil
	}
	return c.Redis
}
