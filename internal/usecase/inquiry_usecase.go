package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"medhive-backend/internal/domain"
	"medhive-backend/internal/notification"
	"medhive-backend/pkg/email"
	"medhive-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	defaultSendTimeout = 15 * time.Second
	defaultDedupTTL    = 24 * time.Hour
	publishTimeout     = 5 * time.Second
	minPendingTTL      = 30 * time.Second
)

// InquiryConfig tunes the dispatch service.
type InquiryConfig struct {
	OperatorAddress string
	SendTimeout     time.Duration
	DedupTTL        time.Duration
}

type inquiryUsecase struct {
	mailer   domain.Mailer
	dedup    domain.DedupStore
	events   domain.EventPublisher
	validate *validator.Validate
	cfg      InquiryConfig
	log      *slog.Logger
	tracer   trace.Tracer
}

// NewInquiryUsecase wires the dispatch service. dedup and events may be nil.
func NewInquiryUsecase(
	mailer domain.Mailer,
	dedup domain.DedupStore,
	events domain.EventPublisher,
	validate *validator.Validate,
	cfg InquiryConfig,
	log *slog.Logger,
) domain.InquiryUsecase {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = defaultDedupTTL
	}
	if validate == nil {
		validate = validation.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &inquiryUsecase{
		mailer:   mailer,
		dedup:    dedup,
		events:   events,
		validate: validate,
		cfg:      cfg,
		log:      log,
		tracer:   otel.Tracer("medhive-backend/internal/usecase"),
	}
}

func (uc *inquiryUsecase) Ready() bool {
	return uc.mailer != nil && uc.mailer.IsConfigured()
}

// SubmitInquiry validates the inquiry and sends the operator notification and
// the inquirer confirmation concurrently. Either send failing fails the call.
func (uc *inquiryUsecase) SubmitInquiry(ctx context.Context, inquiry domain.Inquiry, opts domain.SubmitOptions) error {
	ctx, span := uc.tracer.Start(ctx, "inquiry.submit")
	defer span.End()

	log := uc.log.With("request_id", opts.RequestID)
	inquiry = inquiry.Normalized()

	if err := uc.validate.Struct(inquiry); err != nil {
		span.SetStatus(codes.Error, "validation")
		return &domain.ValidationError{Fields: validation.MissingFields(err)}
	}

	if !uc.Ready() {
		return domain.ErrMailerNotConfigured
	}

	claimed := false
	if opts.RequestKey != "" && uc.dedup != nil {
		status, err := uc.dedup.Claim(ctx, opts.RequestKey, uc.pendingTTL())
		switch {
		case err != nil:
			// Store outage must not block inquiries; dedup is best effort
			log.Warn("dedup claim failed, dispatching without dedup", "error", err)
		case status == domain.ClaimCompleted:
			span.SetAttributes(attribute.Bool("inquiry.duplicate", true))
			return domain.ErrDuplicateInquiry
		case status == domain.ClaimPending:
			// The first attempt may still fail; only a delivered key is a duplicate
			span.SetAttributes(attribute.Bool("inquiry.in_progress", true))
			return domain.ErrInquiryInProgress
		default:
			claimed = true
		}
	}

	if err := uc.dispatch(ctx, inquiry, log); err != nil {
		if claimed {
			uc.release(ctx, opts.RequestKey, log)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch")
		return fmt.Errorf("%w: %v", domain.ErrDispatch, err)
	}

	log.Info("inquiry dispatched", "organization", inquiry.OrganizationName)

	if claimed {
		uc.complete(ctx, opts.RequestKey, log)
	}

	if uc.events != nil {
		event := domain.InquiryDispatched{
			RequestID:        opts.RequestID,
			OrganizationName: inquiry.OrganizationName,
			EmailDomain:      emailDomain(inquiry.ContactEmail),
			DispatchedAt:     time.Now().UTC(),
		}
		go uc.publish(context.WithoutCancel(ctx), event, log)
	}
	return nil
}

func (uc *inquiryUsecase) dispatch(ctx context.Context, inquiry domain.Inquiry, log *slog.Logger) error {
	roles := []domain.RecipientRole{domain.RoleOperator, domain.RoleInquirer}
	msgs := make([]email.Message, len(roles))
	for i, role := range roles {
		msg, err := notification.Render(inquiry, role, uc.cfg.OperatorAddress)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	// errgroup.Group without a derived context: one failed send must not
	// cancel the other, Wait returns after both finish.
	var g errgroup.Group
	for i := range msgs {
		role, msg := roles[i], msgs[i]
		g.Go(func() error {
			if err := uc.send(ctx, role, msg); err != nil {
				log.Error("notification send failed", "role", role, "error", err)
				return fmt.Errorf("%s notification: %w", role, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// send bounds one delivery by SendTimeout even if the mailer ignores ctx.
func (uc *inquiryUsecase) send(ctx context.Context, role domain.RecipientRole, msg email.Message) error {
	ctx, span := uc.tracer.Start(ctx, "inquiry.send", trace.WithAttributes(attribute.String("inquiry.role", string(role))))
	defer span.End()

	sendCtx, cancel := context.WithTimeout(ctx, uc.cfg.SendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- uc.mailer.Send(sendCtx, msg)
	}()

	var err error
	select {
	case err = <-done:
	case <-sendCtx.Done():
		err = sendCtx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s: %w", uc.cfg.SendTimeout, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send")
	}
	return err
}

// pendingTTL bounds how long a crashed dispatch can hold its key. Sends run in
// parallel and each is capped by SendTimeout, so twice that covers a live one.
func (uc *inquiryUsecase) pendingTTL() time.Duration {
	ttl := 2 * uc.cfg.SendTimeout
	if ttl < minPendingTTL {
		ttl = minPendingTTL
	}
	return ttl
}

func (uc *inquiryUsecase) complete(ctx context.Context, key string, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := uc.dedup.Complete(ctx, key, uc.cfg.DedupTTL); err != nil {
		// The pending claim still expires on its own; a later replay may resend
		log.Warn("dedup complete failed", "error", err)
	}
}

func (uc *inquiryUsecase) release(ctx context.Context, key string, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := uc.dedup.Release(ctx, key); err != nil {
		log.Warn("dedup release failed", "error", err)
	}
}

func (uc *inquiryUsecase) publish(ctx context.Context, event domain.InquiryDispatched, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := uc.events.PublishInquiryDispatched(ctx, event); err != nil {
		log.Warn("publish inquiry event failed", "error", err)
	}
}

func emailDomain(address string) string {
	if at := strings.LastIndexByte(address, '@'); at >= 0 && at < len(address)-1 {
		return strings.ToLower(address[at+1:])
	}
	return ""
}
