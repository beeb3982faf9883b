package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/campuslife/activity-api/internal/apperr"
	"github.com/campuslife/activity-api/internal/dto"
	"github.com/campuslife/activity-api/internal/models"
	"github.com/campuslife/activity-api/internal/observability"
	"github.com/campuslife/activity-api/internal/repository"
)

const notificationBufferSize = 16

// NotificationService fans lifecycle events out to recipients and
// streams new notifications to connected clients.
type NotificationService interface {
	ActivityCreated(ctx context.Context, activity models.Activity) error
	ApplicationSubmitted(ctx context.Context, application models.Application, activity models.Activity) error
	ApplicationDecided(ctx context.Context, application models.Application, activity models.Activity) error
	RemindApproved(ctx context.Context, activity models.Activity, studentIDs []uint) (int, error)
	List(ctx context.Context, recipientID uint, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, recipientID uint) (dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, recipientID uint) (int64, error)
	Subscribe(recipientID uint) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo        repository.NotificationRepository
	identities  repository.IdentityRepository
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	broker      *notificationBroker
	nodeID      string
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.NotificationResponse]struct{}
}

// NewNotificationService constructs the fanout service. Redis and NATS
// are optional cross-node relays; either may be nil.
func NewNotificationService(repo repository.NotificationRepository, identities repository.IdentityRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) NotificationService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:        repo,
		identities:  identities,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "notification_service").Logger(),
		tracer:      otel.Tracer("github.com/campuslife/activity-api/internal/service/notification"),
		sanitizer:   bluemonday.StrictPolicy(),
		broker: &notificationBroker{
			subscribers: make(map[uint]map[chan dto.NotificationResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// ActivityCreated announces a new activity to every active student.
func (s *notificationService) ActivityCreated(ctx context.Context, activity models.Activity) error {
	students, err := s.identities.ListActiveStudents(ctx)
	if err != nil {
		return err
	}

	recipients := make([]uint, 0, len(students))
	for _, student := range students {
		recipients = append(recipients, student.ID)
	}

	batch := s.buildBatch(recipients, models.NotificationTypeAnnouncement,
		"New activity: "+activity.Title,
		fmt.Sprintf("A new %s activity %q is open for applications.", activity.Category, activity.Title))

	return s.deliver(ctx, "activity.created", batch)
}

// ApplicationSubmitted confirms the submission to the student and asks
// the owning coordinator and all admins to review it.
func (s *notificationService) ApplicationSubmitted(ctx context.Context, application models.Application, activity models.Activity) error {
	staff, err := s.staffRecipients(ctx, activity.OwnerID)
	if err != nil {
		return err
	}

	batch := s.buildBatch([]uint{application.StudentID}, models.NotificationTypeAnnouncement,
		"Application received",
		fmt.Sprintf("Your application for %q was received and is pending review.", activity.Title))

	batch = append(batch, s.buildBatch(staff, models.NotificationTypeAnnouncement,
		"Application awaiting review",
		fmt.Sprintf("A new application for %q is awaiting review.", activity.Title))...)

	return s.deliver(ctx, "application.submitted", dedupeRecipients(batch))
}

// ApplicationDecided informs the student of the decision and sends a
// parallel informational copy to the owning coordinator and admins.
func (s *notificationService) ApplicationDecided(ctx context.Context, application models.Application, activity models.Activity) error {
	staff, err := s.staffRecipients(ctx, activity.OwnerID)
	if err != nil {
		return err
	}

	notificationType := models.NotificationTypeAnnouncement
	switch application.Status {
	case models.ApplicationStatusApproved:
		notificationType = models.NotificationTypeApproval
	case models.ApplicationStatusRejected:
		notificationType = models.NotificationTypeRejection
	}

	batch := s.buildBatch([]uint{application.StudentID}, notificationType,
		"Application "+application.Status,
		fmt.Sprintf("Your application for %q is now %s.", activity.Title, application.Status))

	batch = append(batch, s.buildBatch(staff, notificationType,
		"Application "+application.Status,
		fmt.Sprintf("An application for %q was marked %s.", activity.Title, application.Status))...)

	return s.deliver(ctx, "application.decided", dedupeRecipients(batch))
}

// RemindApproved sends a reminder to every approved student of the
// activity and returns the number of notifications created.
func (s *notificationService) RemindApproved(ctx context.Context, activity models.Activity, studentIDs []uint) (int, error) {
	batch := s.buildBatch(studentIDs, models.NotificationTypeReminder,
		"Reminder: "+activity.Title,
		fmt.Sprintf("Reminder: %q starts at %s.", activity.Title, activity.StartsAt.Format(time.RFC1123)))
	batch = dedupeRecipients(batch)

	if err := s.deliver(ctx, "activity.reminder", batch); err != nil {
		return 0, err
	}

	return len(batch), nil
}

func (s *notificationService) List(ctx context.Context, recipientID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	notifications, err := s.repo.ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, recipientID uint) (dto.NotificationResponse, error) {
	notification, err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, apperr.ErrNotificationNotFound
		}
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

func (s *notificationService) Subscribe(recipientID uint) (<-chan dto.NotificationResponse, func()) {
	channel := make(chan dto.NotificationResponse, notificationBufferSize)

	s.broker.subscribe(recipientID, channel)
	observability.SSEClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(recipientID, channel)
		observability.SSEClientsActive().Dec()
	}

	return channel, cleanup
}

// staffRecipients resolves the owning coordinator plus every admin.
func (s *notificationService) staffRecipients(ctx context.Context, ownerID uint) ([]uint, error) {
	admins, err := s.identities.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	recipients := []uint{ownerID}
	for _, admin := range admins {
		recipients = append(recipients, admin.ID)
	}
	return recipients, nil
}

func (s *notificationService) buildBatch(recipients []uint, notificationType, title, message string) []models.Notification {
	cleanMessage := strings.TrimSpace(s.sanitizer.Sanitize(message))
	cleanTitle := strings.TrimSpace(s.sanitizer.Sanitize(title))

	batch := make([]models.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		batch = append(batch, models.Notification{
			RecipientID: recipient,
			Type:        notificationType,
			Title:       cleanTitle,
			Message:     cleanMessage,
		})
	}
	return batch
}

// deliver persists the batch and broadcasts each row to connected
// subscribers, locally and through the relays.
func (s *notificationService) deliver(ctx context.Context, event string, batch []models.Notification) error {
	if len(batch) == 0 {
		return nil
	}

	attrs := []attribute.KeyValue{
		attribute.String("notification.event", event),
		attribute.Int("notification.recipients", len(batch)),
	}
	spanCtx, span := s.tracer.Start(ctx, "notifications.fanout", trace.WithAttributes(attrs...))
	defer span.End()

	if err := s.repo.CreateBatch(spanCtx, batch); err != nil {
		span.RecordError(err)
		return err
	}

	for _, notification := range batch {
		response := dto.NewNotificationResponse(notification)
		observability.NotificationsFanout().WithLabelValues(response.Type).Inc()
		s.broker.broadcast(response.RecipientID, response)
		if err := s.publish(spanCtx, response); err != nil {
			s.logger.Warn().Err(err).Msg("failed to relay notification")
		}
	}

	return nil
}

// dedupeRecipients keeps the first notification per recipient so a user
// who is both activity owner and admin receives one copy.
func dedupeRecipients(batch []models.Notification) []models.Notification {
	seen := make(map[uint]struct{}, len(batch))
	out := batch[:0]
	for _, notification := range batch {
		if _, exists := seen[notification.RecipientID]; exists {
			continue
		}
		seen[notification.RecipientID] = struct{}{}
		out = append(out, notification)
	}
	return out
}

func (s *notificationService) publish(ctx context.Context, notification dto.NotificationResponse) error {
	event := notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "activity-api-notifications", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

func (s *notificationService) handleEvent(payload []byte) {
	var event notificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.broker.broadcast(event.Notification.RecipientID, event.Notification)
}

func (b *notificationBroker) subscribe(recipientID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[recipientID]; !exists {
		b.subscribers[recipientID] = make(map[chan dto.NotificationResponse]struct{})
	}
	b.subscribers[recipientID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(recipientID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[recipientID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, recipientID)
		}
	}
}

func (b *notificationBroker) broadcast(recipientID uint, notification dto.NotificationResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subscribers := b.subscribers[recipientID]
	for ch := range subscribers {
		select {
		case ch <- notification:
		default:
		}
	}
}
