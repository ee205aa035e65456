// Package scheduler
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/amirphl/Amaterasu/app/services"
	"github.com/amirphl/Amaterasu/config"
	"github.com/amirphl/Amaterasu/models"
	"github.com/amirphl/Amaterasu/repository"
	"github.com/amirphl/Amaterasu/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	publishAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_attempts_total",
			Help: "Total platform publish attempts by platform and result",
		},
		[]string{"platform", "result"},
	)

	publishDispatchSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_dispatch_skips_total",
			Help: "Due records skipped before the platform call, by reason",
		},
		[]string{"reason"},
	)

	publishRetriesRequeuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "publish_retries_requeued_total",
			Help: "Failed scheduled posts moved back to pending by the retry worker",
		},
	)
)

// PublishScheduler periodically claims due scheduled posts and publishes them
// to their target platforms. Claiming goes through a conditional status update
// (pending -> publishing), so two workers polling the same table never publish
// the same record twice; the Redis dispatch lock is an additional guard that
// keeps a single process from double-dispatching within one poll window.
type PublishScheduler struct {
	scheduledPostRepo repository.ScheduledPostRepository
	postRepo          repository.PostRepository
	attemptRepo       repository.PublishAttemptRepository
	auditRepo         repository.AuditLogRepository
	clients           services.PlatformClientRegistry
	cache             *redis.Client
	logger            *log.Logger

	db  *gorm.DB
	cfg config.SchedulerConfig

	logSink io.Closer
}

func NewPublishScheduler(
	scheduledPostRepo repository.ScheduledPostRepository,
	postRepo repository.PostRepository,
	attemptRepo repository.PublishAttemptRepository,
	auditRepo repository.AuditLogRepository,
	clients services.PlatformClientRegistry,
	cache *redis.Client,
	db *gorm.DB,
	cfg config.SchedulerConfig,
	logCfg config.LoggingConfig,
) *PublishScheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetryCount <= 0 {
		cfg.MaxRetryCount = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 5 * time.Minute
	}

	s := &PublishScheduler{
		scheduledPostRepo: scheduledPostRepo,
		postRepo:          postRepo,
		attemptRepo:       attemptRepo,
		auditRepo:         auditRepo,
		clients:           clients,
		cache:             cache,
		db:                db,
		cfg:               cfg,
	}

	// Initialize scheduler-specific logger (to stdout and persistent file)
	if err := s.initSchedulerLogger(logCfg); err != nil {
		// Fallback to default stdout logger if file logger init fails
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to initialize file logger: %v", err)
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a persistent file
func (s *PublishScheduler) initSchedulerLogger(logCfg config.LoggingConfig) error {
	if !logCfg.EnableSchedulerLog {
		s.logger = log.New(os.Stdout, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}

	// Prefer the configured path, then relative data/, then /data for containerized environments
	candidates := []string{}
	if logCfg.SchedulerLogPath != "" {
		candidates = append(candidates, filepath.Dir(logCfg.SchedulerLogPath))
	}
	candidates = append(candidates, "data", "/data")

	maxSize := logCfg.MaxSize
	if maxSize <= 0 {
		maxSize = 50
	}
	maxBackups := logCfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}

	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "scheduler.log")
		if logCfg.SchedulerLogPath != "" && dir == filepath.Dir(logCfg.SchedulerLogPath) {
			logPath = logCfg.SchedulerLogPath
		}
		rotated := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    maxSize, // MB
			MaxBackups: maxBackups,
			MaxAge:     logCfg.MaxAge, // days
			Compress:   logCfg.Compress,
		}
		s.logSink = rotated
		mw := io.MultiWriter(os.Stdout, rotated)
		// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
		s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create scheduler log directory in any candidate location")
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *PublishScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	// Retry worker re-enqueues failed records after the backoff window
	go s.startRetryWorker(ctx)

	return cancel
}

func (s *PublishScheduler) runOnce(ctx context.Context) {
	now := utils.UTCNow()
	due, err := s.scheduledPostRepo.ListDue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		s.logger.Printf("scheduler: list due scheduled posts failed: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}
	s.logger.Printf("scheduler: listed %d due scheduled posts", len(due))

	for _, record := range due {
		sp := record
		go func() {
			if err := s.dispatch(ctx, sp); err != nil {
				s.logger.Printf("scheduler: dispatch scheduled post id=%d failed: %v", sp.ID, err)
			}
		}()
	}
	// Do not wait to keep the scheduler loop non-blocking
}

// dispatch claims a single due record and runs the platform call. A nil error
// means the record was handled or deliberately skipped; the record's own
// outcome lands in its status, its attempt rows, and the audit log.
func (s *PublishScheduler) dispatch(ctx context.Context, sp *models.ScheduledPost) error {
	if locked, release := s.acquireDispatchLock(ctx, sp.ID); !locked {
		publishDispatchSkipsTotal.WithLabelValues("lock_held").Inc()
		return nil
	} else if release != nil {
		defer release()
	}

	// Claim: pending -> publishing. Losing the race means another worker,
	// or a concurrent cancel, got to the record first.
	err := s.scheduledPostRepo.UpdateStatusIf(ctx, sp.ID, models.ScheduledPostStatusPending, models.ScheduledPostStatusPublishing, nil)
	if errors.Is(err, repository.ErrStatusConflict) {
		publishDispatchSkipsTotal.WithLabelValues("claim_lost").Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("claim scheduled post: %w", err)
	}
	s.logger.Printf("scheduler: claimed scheduled post id=%d platform=%s", sp.ID, sp.Platform)

	client, err := s.clients.ClientFor(sp.Platform)
	if err != nil {
		return s.recordFailure(ctx, sp, err.Error())
	}

	pubCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	result, err := client.Publish(pubCtx, sp.Content)
	cancel()
	if err != nil {
		return s.recordFailure(ctx, sp, err.Error())
	}

	return s.recordSuccess(ctx, sp, result.ExternalPostID)
}

// acquireDispatchLock takes the per-record Redis lock. When the cache is
// unavailable publishing proceeds without it; the conditional status update
// still guarantees single delivery.
func (s *PublishScheduler) acquireDispatchLock(ctx context.Context, scheduledPostID uint) (bool, func()) {
	if s.cache == nil {
		return true, nil
	}

	key := utils.DispatchLockKeyPrefix + strconv.FormatUint(uint64(scheduledPostID), 10)
	ok, err := s.cache.SetNX(ctx, key, 1, utils.DispatchLockTTL).Result()
	if err != nil {
		s.logger.Printf("scheduler: dispatch lock for id=%d unavailable, proceeding without it: %v", scheduledPostID, err)
		return true, nil
	}
	if !ok {
		return false, nil
	}
	return true, func() {
		if err := s.cache.Del(context.Background(), key).Err(); err != nil {
			s.logger.Printf("scheduler: release dispatch lock for id=%d failed: %v", scheduledPostID, err)
		}
	}
}

func (s *PublishScheduler) recordSuccess(ctx context.Context, sp *models.ScheduledPost, externalPostID string) error {
	now := utils.UTCNow()

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		// The retry counter only counts failed attempts, a success leaves it alone
		fields := map[string]any{
			"external_post_id": externalPostID,
			"last_attempt_at":  now,
			"error_message":    nil,
		}
		if err := s.scheduledPostRepo.UpdateStatusIf(txCtx, sp.ID, models.ScheduledPostStatusPublishing, models.ScheduledPostStatusPublished, fields); err != nil {
			return err
		}

		attempt := &models.PublishAttempt{
			ScheduledPostID: sp.ID,
			Platform:        sp.Platform,
			Result:          models.PublishAttemptResultSuccess,
			ExternalPostID:  utils.ToPtr(externalPostID),
			AttemptedAt:     now,
		}
		if err := s.attemptRepo.Save(txCtx, attempt); err != nil {
			return err
		}

		post, err := s.postRepo.ByID(txCtx, sp.PostID)
		if err != nil {
			return err
		}
		if post != nil && post.Status == models.PostStatusScheduled {
			if err := s.postRepo.UpdateStatus(txCtx, post.ID, models.PostStatusPublished); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record publish success for id=%d: %w", sp.ID, err)
	}

	publishAttemptsTotal.WithLabelValues(sp.Platform.String(), "success").Inc()
	s.logger.Printf("scheduler: published scheduled post id=%d external_post_id=%s", sp.ID, externalPostID)

	s.recordPublishLog(ctx, sp, externalPostID)
	s.audit(ctx, sp, models.AuditActionPublishSucceeded, fmt.Sprintf("Published to %s as %s", sp.Platform, externalPostID), true, nil)
	return nil
}

func (s *PublishScheduler) recordFailure(ctx context.Context, sp *models.ScheduledPost, errorMessage string) error {
	now := utils.UTCNow()

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		fields := map[string]any{
			"error_message":   errorMessage,
			"last_attempt_at": now,
			"retry_count":     sp.RetryCount + 1,
		}
		if err := s.scheduledPostRepo.UpdateStatusIf(txCtx, sp.ID, models.ScheduledPostStatusPublishing, models.ScheduledPostStatusFailed, fields); err != nil {
			return err
		}

		attempt := &models.PublishAttempt{
			ScheduledPostID: sp.ID,
			Platform:        sp.Platform,
			Result:          models.PublishAttemptResultFailure,
			ErrorMessage:    utils.ToPtr(errorMessage),
			AttemptedAt:     now,
		}
		return s.attemptRepo.Save(txCtx, attempt)
	})
	if err != nil {
		return fmt.Errorf("record publish failure for id=%d: %w", sp.ID, err)
	}

	publishAttemptsTotal.WithLabelValues(sp.Platform.String(), "failure").Inc()
	s.logger.Printf("scheduler: publish failed for scheduled post id=%d attempt=%d: %s", sp.ID, sp.RetryCount+1, errorMessage)

	s.audit(ctx, sp, models.AuditActionPublishFailed, fmt.Sprintf("Publish to %s failed on attempt %d", sp.Platform, sp.RetryCount+1), false, &errorMessage)
	return nil
}

// recordPublishLog keeps a short-lived record of the publish in Redis so
// operators can correlate a platform post with its schedule without a DB query
func (s *PublishScheduler) recordPublishLog(ctx context.Context, sp *models.ScheduledPost, externalPostID string) {
	if s.cache == nil || s.cfg.PublishLogTTL <= 0 {
		return
	}
	key := utils.PublishLogKeyPrefix + sp.UUID.String()
	if err := s.cache.Set(ctx, key, externalPostID, s.cfg.PublishLogTTL).Err(); err != nil {
		s.logger.Printf("scheduler: write publish log for id=%d failed: %v", sp.ID, err)
	}
}

func (s *PublishScheduler) audit(ctx context.Context, sp *models.ScheduledPost, action, description string, success bool, errorMessage *string) {
	auditLog := &models.AuditLog{
		CustomerID:   &sp.CustomerID,
		Action:       action,
		Description:  &description,
		Success:      &success,
		ErrorMessage: errorMessage,
	}
	if err := s.auditRepo.Save(ctx, auditLog); err != nil {
		s.logger.Printf("scheduler: save audit log for id=%d failed: %v", sp.ID, err)
	}
}

// startRetryWorker polls failed scheduled posts and moves the ones whose
// backoff window has elapsed back to pending, where the main loop picks them up
func (s *PublishScheduler) startRetryWorker(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.processRetries(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.processRetries(ctx)
		}
	}
}

func (s *PublishScheduler) processRetries(ctx context.Context) {
	retryable, err := s.scheduledPostRepo.ListRetryable(ctx, s.cfg.MaxRetryCount, s.cfg.BatchSize)
	if err != nil {
		s.logger.Printf("scheduler: list retryable scheduled posts failed: %v", err)
		return
	}
	if len(retryable) == 0 {
		return
	}

	now := utils.UTCNow()
	for _, sp := range retryable {
		if sp.LastAttemptAt != nil && now.Sub(*sp.LastAttemptAt) < s.cfg.RetryBackoff {
			continue
		}

		// The failure reason rides along until a publish succeeds
		err := s.scheduledPostRepo.UpdateStatusIf(ctx, sp.ID, models.ScheduledPostStatusFailed, models.ScheduledPostStatusPending, nil)
		if errors.Is(err, repository.ErrStatusConflict) {
			// A user cancelled or retried the record concurrently
			continue
		}
		if err != nil {
			s.logger.Printf("scheduler: re-enqueue scheduled post id=%d failed: %v", sp.ID, err)
			continue
		}

		publishRetriesRequeuedTotal.Inc()
		s.logger.Printf("scheduler: re-enqueued scheduled post id=%d retry=%d/%d", sp.ID, sp.RetryCount, s.cfg.MaxRetryCount)
	}
}

// Close releases the scheduler log file
func (s *PublishScheduler) Close() {
	if s.logSink != nil {
		_ = s.logSink.Close()
	}
}
