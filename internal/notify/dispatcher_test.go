package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/product-price-tracker/internal/metrics"
	"github.com/donaldgifford/product-price-tracker/internal/notify"
	notifyMocks "github.com/donaldgifford/product-price-tracker/internal/notify/mocks"
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		category   domain.NotificationCategory
		recipients []string
		sendErr    error
		wantSend   bool
		wantErr    bool
	}{
		{
			name:       "sends once to all recipients",
			category:   domain.ReturnedToStock,
			recipients: []string{"a@example.com", "b@example.com"},
			wantSend:   true,
		},
		{
			name:       "no notification skips send",
			category:   domain.NoNotification,
			recipients: []string{"a@example.com"},
		},
		{
			name:     "no recipients skips send",
			category: domain.LowestPriceEver,
		},
		{
			name:       "sender failure is returned",
			category:   domain.PriceDropAboveThreshold,
			recipients: []string{"a@example.com"},
			sendErr:    errors.New("smtp down"),
			wantSend:   true,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ms := notifyMocks.NewMockSender(t)
			if tt.wantSend {
				ms.EXPECT().
					Send(mock.Anything, mock.MatchedBy(func(m *notify.Message) bool {
						return m.Subject != "" && m.HTML != ""
					}), tt.recipients).
					Return(tt.sendErr).
					Once()
			}

			d := notify.NewDispatcher(ms, notify.WithLogger(quietLogger()))
			err := d.Dispatch(context.Background(), tt.category, testInfo(), tt.recipients)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "smtp down")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDispatcher_Metrics(t *testing.T) {
	t.Parallel()

	ms := notifyMocks.NewMockSender(t)
	ms.EXPECT().Send(mock.Anything, mock.Anything, mock.Anything).Return(nil)

	before := ptestutil.ToFloat64(metrics.NotificationsSentTotal.WithLabelValues(string(domain.LowestPriceEver)))

	d := notify.NewDispatcher(ms, notify.WithLogger(quietLogger()), notify.WithSenderName("test"))
	require.NoError(t, d.Dispatch(context.Background(), domain.LowestPriceEver, testInfo(), []string{"a@example.com"}))

	after := ptestutil.ToFloat64(metrics.NotificationsSentTotal.WithLabelValues(string(domain.LowestPriceEver)))
	assert.GreaterOrEqual(t, after-before, 1.0)
}

func TestDispatcher_SendWelcome(t *testing.T) {
	t.Parallel()

	ms := notifyMocks.NewMockSender(t)
	ms.EXPECT().
		Send(mock.Anything, mock.Anything, []string{"new@example.com"}).
		Run(func(_ context.Context, msg *notify.Message, _ []string) {
			assert.Contains(t, msg.Subject, "Welcome")
		}).
		Return(nil).
		Once()

	d := notify.NewDispatcher(ms, notify.WithLogger(quietLogger()))
	require.NoError(t, d.SendWelcome(context.Background(), testInfo(), "new@example.com"))
}
