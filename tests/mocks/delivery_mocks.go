package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/mailgo/mailgo-backend/internal/delivery"
	"github.com/mailgo/mailgo-backend/internal/models"
	"github.com/mailgo/mailgo-backend/internal/websocket"
)

// NotificationRecord records one new-message notification.
type NotificationRecord struct {
	Identity string
	Payload  delivery.Notification
}

// RecordingNotifier records new-message notifications in order. A non-nil
// Err makes every emission fail, for exercising the pipeline's best-effort
// contract.
type RecordingNotifier struct {
	mu      sync.Mutex
	Records []NotificationRecord
	Err     error
}

// NotifyNewMessage records the notification
func (n *RecordingNotifier) NotifyNewMessage(identity string, payload delivery.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Records = append(n.Records, NotificationRecord{Identity: identity, Payload: payload})
	return nil
}

// Identities returns the notified identities in emission order
func (n *RecordingNotifier) Identities() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.Records))
	for i, r := range n.Records {
		out[i] = r.Identity
	}
	return out
}

// UpdateRecord records one mutation notification.
type UpdateRecord struct {
	Identity string
	Payload  *websocket.MessageUpdatedPayload
}

// RecordingUpdateNotifier records mutation notifications in order.
type RecordingUpdateNotifier struct {
	mu      sync.Mutex
	Records []UpdateRecord
}

// NotifyMessageUpdated records the notification
func (n *RecordingUpdateNotifier) NotifyMessageUpdated(identity string, payload *websocket.MessageUpdatedPayload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Records = append(n.Records, UpdateRecord{Identity: identity, Payload: payload})
}

// MockDeliverer implements the handlers.Deliverer compose surface
type MockDeliverer struct {
	mock.Mock
}

// Send runs the send operation
func (m *MockDeliverer) Send(ctx context.Context, sender *models.User, req delivery.SendRequest) (*models.Message, error) {
	args := m.Called(ctx, sender, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// Reply runs the reply operation
func (m *MockDeliverer) Reply(ctx context.Context, sender *models.User, originalID uint, req delivery.ReplyRequest) (*models.Message, error) {
	args := m.Called(ctx, sender, originalID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// Forward runs the forward operation
func (m *MockDeliverer) Forward(ctx context.Context, sender *models.User, originalID uint, req delivery.ForwardRequest) (*models.Message, error) {
	args := m.Called(ctx, sender, originalID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// SaveDraft runs the draft save operation
func (m *MockDeliverer) SaveDraft(ctx context.Context, sender *models.User, req delivery.DraftRequest) (*models.Message, error) {
	args := m.Called(ctx, sender, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// UpdateDraft runs the draft update operation
func (m *MockDeliverer) UpdateDraft(ctx context.Context, sender *models.User, draftID uint, req delivery.DraftRequest) (*models.Message, error) {
	args := m.Called(ctx, sender, draftID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}
