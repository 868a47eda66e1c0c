package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"waste-collection-backend/internal/model"
	"waste-collection-backend/internal/store"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library. The context bounds
// the HTTP request, so a stalled push endpoint cannot hang the caller.
func (s *WebPushSender) Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotificationWithContext(ctx, payload, sub, options)
}

// Transport delivers composed messages to concrete device tokens.
type Transport interface {
	// SendMulticast attempts delivery to every token and returns how many
	// devices accepted the message. Per-token failures are not errors.
	SendMulticast(ctx context.Context, tokens []model.DeviceToken, title, body string, metadata map[string]string) (int, error)
	// SendSingle delivers to one token and fails if the token does not
	// accept the message.
	SendSingle(ctx context.Context, token model.DeviceToken, title, body string, metadata map[string]string) error
}

// pushPayload is the JSON document delivered to the service worker.
type pushPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// WebPushTransport sends messages through the web-push protocol, pruning
// registrations whose endpoints report HTTP 410 Gone.
type WebPushTransport struct {
	sender  Sender
	options *webpush.Options
	tokens  store.TokenStore
	log     zerolog.Logger
}

// NewWebPushTransport creates a transport backed by the webpush library.
func NewWebPushTransport(options *webpush.Options, tokens store.TokenStore, log zerolog.Logger) *WebPushTransport {
	return &WebPushTransport{
		sender:  &WebPushSender{},
		options: options,
		tokens:  tokens,
		log:     log.With().Str("component", "push_transport").Logger(),
	}
}

func (t *WebPushTransport) SendMulticast(ctx context.Context, tokens []model.DeviceToken, title, body string, metadata map[string]string) (int, error) {
	payload, err := json.Marshal(pushPayload{Title: title, Body: body, Data: metadata})
	if err != nil {
		return 0, fmt.Errorf("marshal push payload: %w", err)
	}

	delivered := 0
	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			t.log.Warn().Err(err).Int("delivered", delivered).Int("targets", len(tokens)).Msg("multicast aborted")
			return delivered, fmt.Errorf("multicast aborted: %w", err)
		}
		if err := t.send(ctx, token, payload); err != nil {
			t.log.Warn().Err(err).Str("endpoint", token.Endpoint).Msg("push delivery failed")
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (t *WebPushTransport) SendSingle(ctx context.Context, token model.DeviceToken, title, body string, metadata map[string]string) error {
	payload, err := json.Marshal(pushPayload{Title: title, Body: body, Data: metadata})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}
	return t.send(ctx, token, payload)
}

// send pushes one payload to one device.
func (t *WebPushTransport) send(ctx context.Context, token model.DeviceToken, payload []byte) error {
	sub := &webpush.Subscription{
		Endpoint: token.Endpoint,
		Keys: webpush.Keys{
			P256dh: token.P256DH,
			Auth:   token.Auth,
		},
	}

	resp, err := t.sender.Send(ctx, payload, sub, t.options)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Handle expired subscriptions.
	if resp.StatusCode == http.StatusGone {
		t.log.Info().Str("endpoint", token.Endpoint).Msg("subscription expired, deleting")
		if err := t.tokens.DeleteToken(ctx, token.Endpoint); err != nil {
			t.log.Warn().Err(err).Str("endpoint", token.Endpoint).Msg("failed to delete expired token")
		}
		return fmt.Errorf("endpoint gone: %s", token.Endpoint)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}
