package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"marina/config"
	"marina/infras/kafka"
	kafkaMocks "marina/infras/kafka/mocks"
	"marina/infras/otel/mocks"
	notificationMocks "marina/internal/domains/notification/mocks"
	"marina/internal/domains/notification/model"
	"marina/internal/domains/notification/service"
)

func TestDispatcher_DispatchPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOutbox := notificationMocks.NewMockOutbox(ctrl)
	mockProducer := kafkaMocks.NewMockProducer(ctrl)

	cfg := &config.Config{}
	cfg.Kafka.Topic.Notification = "booking-notifications"
	cfg.Booking.Outbox.BatchSize = 20
	cfg.Booking.Outbox.MaxAttempts = 3

	svc := service.New(cfg, mockOutbox, mockProducer, mocks.NewOtel())

	first := model.OutboxEntry{
		ID:        "outbox-1",
		BookingID: "booking-1",
		EventType: model.EventBookingCreated,
		Audience:  model.AudienceCustomer,
		Payload:   model.Event{Type: model.EventBookingCreated, BookingID: "booking-1"},
	}
	second := model.OutboxEntry{
		ID:        "outbox-2",
		BookingID: "booking-1",
		EventType: model.EventBookingCreated,
		Audience:  model.AudienceOwner,
		Attempts:  1,
		Payload:   model.Event{Type: model.EventBookingCreated, BookingID: "booking-1"},
	}

	tests := []struct {
		name      string
		setupMock func()
		wantSent  int
		wantErr   bool
	}{
		{
			name: "all entries delivered",
			setupMock: func() {
				mockOutbox.EXPECT().GetPending(gomock.Any(), 20, 3).Return([]model.OutboxEntry{first, second}, nil)
				mockProducer.EXPECT().
					SendMessages(gomock.Any(), "booking-notifications", gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, messages ...kafka.Message) error {
						assert.Len(t, messages, 1)
						assert.Equal(t, "booking-1", messages[0].Key)
						assert.Equal(t, string(model.EventBookingCreated), messages[0].Headers["event_type"])

						return nil
					}).
					Times(2)
				mockOutbox.EXPECT().MarkDispatched(gomock.Any(), "outbox-1").Return(nil)
				mockOutbox.EXPECT().MarkDispatched(gomock.Any(), "outbox-2").Return(nil)
			},
			wantSent: 2,
		},
		{
			name: "failed publish is recorded and does not stop the batch",
			setupMock: func() {
				mockOutbox.EXPECT().GetPending(gomock.Any(), 20, 3).Return([]model.OutboxEntry{second, first}, nil)
				gomock.InOrder(
					mockProducer.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down")),
					mockProducer.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
				)
				mockOutbox.EXPECT().MarkFailed(gomock.Any(), "outbox-2", 2, "broker down").Return(nil)
				mockOutbox.EXPECT().MarkDispatched(gomock.Any(), "outbox-1").Return(nil)
			},
			wantSent: 1,
		},
		{
			name: "mark dispatched failure still counts as sent",
			setupMock: func() {
				mockOutbox.EXPECT().GetPending(gomock.Any(), 20, 3).Return([]model.OutboxEntry{first}, nil)
				mockProducer.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				mockOutbox.EXPECT().MarkDispatched(gomock.Any(), "outbox-1").Return(errors.New("database error"))
			},
			wantSent: 1,
		},
		{
			name: "nothing pending",
			setupMock: func() {
				mockOutbox.EXPECT().GetPending(gomock.Any(), 20, 3).Return([]model.OutboxEntry{}, nil)
			},
			wantSent: 0,
		},
		{
			name: "outbox read error",
			setupMock: func() {
				mockOutbox.EXPECT().GetPending(gomock.Any(), 20, 3).Return(nil, errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			sent, err := svc.DispatchPending(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantSent, sent)
			}
		})
	}
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := &config.Config{}
	cfg.Booking.Outbox.IntervalSeconds = 60

	svc := service.New(cfg, notificationMocks.NewMockOutbox(ctrl), kafkaMocks.NewMockProducer(ctrl), mocks.NewOtel())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	<-done
}
