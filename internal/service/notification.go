package service

import (
	"context"
	"errors"

	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/apperr"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
	notificationBatchSize    = 100
)

// NotificationSpec describes one notification to write
type NotificationSpec struct {
	RecipientID     string
	Type            model.NotificationType
	Message         string
	RelatedLinkID   string
	RelatedLinkType string
}

func (s NotificationSpec) toModel() (model.Notification, error) {
	if s.RecipientID == "" {
		return model.Notification{}, errors.New("notification has no recipient")
	}
	if !s.Type.Valid() {
		return model.Notification{}, errors.New("unknown notification type " + string(s.Type))
	}
	if s.Message == "" {
		return model.Notification{}, errors.New("notification has no message")
	}

	n := model.Notification{
		RecipientID: s.RecipientID,
		Type:        s.Type,
		Message:     s.Message,
	}
	if s.RelatedLinkID != "" {
		n.RelatedLinkID = &s.RelatedLinkID
	}
	if s.RelatedLinkType != "" {
		n.RelatedLinkType = &s.RelatedLinkType
	}

	return n, nil
}

// NotificationStore persists notifications
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	CreateBatch(ctx context.Context, ns []model.Notification) error
}

type gormNotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) NotificationStore {
	return &gormNotificationStore{db: db}
}

func (s *gormNotificationStore) Create(ctx context.Context, n *model.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *gormNotificationStore) CreateBatch(ctx context.Context, ns []model.Notification) error {
	return s.db.WithContext(ctx).CreateInBatches(&ns, notificationBatchSize).Error
}

// Notifier writes in-app notifications. Writes are best effort: a failure is
// logged and never returned to the caller.
type Notifier struct {
	db    *gorm.DB
	store NotificationStore
}

// NewNotifier uses a gorm backed store when store is nil
func NewNotifier(db *gorm.DB, store NotificationStore) *Notifier {
	if store == nil {
		store = NewNotificationStore(db)
	}

	return &Notifier{db: db, store: store}
}

// NotifyOne writes a single notification. It returns nil when the write
// failed for any reason.
func (n *Notifier) NotifyOne(ctx context.Context, spec NotificationSpec) *model.Notification {
	m, err := spec.toModel()
	if err != nil {
		zap.L().Warn("Dropping invalid notification", zap.Error(err))
		return nil
	}

	if err := n.store.Create(ctx, &m); err != nil {
		zap.L().Error("Failed to create notification",
			zap.String("recipient_id", spec.RecipientID),
			zap.String("type", string(spec.Type)),
			zap.Error(err))
		return nil
	}

	return &m
}

// NotifyMany writes every notification in one bulk insert. Any failure
// discards the whole batch and an empty slice is returned.
func (n *Notifier) NotifyMany(ctx context.Context, specs []NotificationSpec) []model.Notification {
	ns := make([]model.Notification, 0, len(specs))

	for _, s := range specs {
		m, err := s.toModel()
		if err != nil {
			zap.L().Warn("Dropping invalid notification", zap.Error(err))
			continue
		}
		ns = append(ns, m)
	}

	if len(ns) == 0 {
		return []model.Notification{}
	}

	if err := n.store.CreateBatch(ctx, ns); err != nil {
		zap.L().Error("Failed to create notifications in bulk", zap.Int("count", len(ns)), zap.Error(err))
		return []model.Notification{}
	}

	return ns
}

// Recipients returns the IDs of active users holding one of roles, leaving
// out exclude. Pass no roles to address every active user.
func (n *Notifier) Recipients(ctx context.Context, exclude string, roles ...model.Role) ([]string, error) {
	q := n.db.WithContext(ctx).
		Model(&model.User{}).
		Where("is_active = ?", true)

	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	if exclude != "" {
		q = q.Where("id <> ?", exclude)
	}

	var ids []string
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

// List returns the newest notifications of a recipient together with the
// total number of unread ones.
func (n *Notifier) List(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	limit = min(limit, maxNotificationLimit)

	q := n.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	notifications := []model.Notification{}
	if err := q.Order("created_at desc").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, 0, apperr.Server(err)
	}

	var unread int64
	err := n.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&unread).
		Error
	if err != nil {
		return nil, 0, apperr.Server(err)
	}

	return notifications, unread, nil
}

// MarkRead marks one notification as read. Only its recipient may do so.
func (n *Notifier) MarkRead(ctx context.Context, recipientID, id string) (*model.Notification, error) {
	var m model.Notification

	err := n.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Notification not found")
	}
	if err != nil {
		return nil, apperr.Server(err)
	}

	if m.RecipientID != recipientID {
		return nil, apperr.Authorization("You can only mark your own notifications as read")
	}

	if m.IsRead {
		return &m, nil
	}

	if err := n.db.WithContext(ctx).Model(&m).Update("is_read", true).Error; err != nil {
		return nil, apperr.Server(err)
	}
	m.IsRead = true

	return &m, nil
}

func (n *Notifier) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res := n.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperr.Server(res.Error)
	}

	return res.RowsAffected, nil
}
