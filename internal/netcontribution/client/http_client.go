// Package client reaches the external net-contribution recalculation
// procedure over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/smallbiznis/netcontrib/internal/config"
	"github.com/smallbiznis/netcontrib/internal/netcontribution/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// maxPlainMessageLen bounds the raw-message fallback so oversized
// remote payloads never reach the user verbatim.
const maxPlainMessageLen = 150

const genericFailureMessage = "net contribution recalculation failed"

// RemoteError is a non-2xx response from the recalculation procedure,
// with the most specific message the payload offered.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("net contribution procedure returned %d: %s", e.StatusCode, e.Message)
}

type ClientParam struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

type httpClient struct {
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

// NewClient builds the HTTP client for the configured endpoint. The
// endpoint may be empty; calls then fail with ErrEndpointNotConfigured.
func NewClient(p ClientParam) domain.Client {
	return &httpClient{
		endpoint: strings.TrimSpace(p.Config.ContribEndpoint),
		client:   &http.Client{Timeout: p.Config.ContribTimeout},
		log:      p.Log.Named("netcontribution.client"),
	}
}

type calculateRequest struct {
	PaymentEntry string `json:"payment_entry"`
}

func (c *httpClient) Calculate(ctx context.Context, paymentEntryName string) (domain.Result, error) {
	if c.endpoint == "" {
		return domain.Result{}, domain.ErrEndpointNotConfigured
	}

	payload, err := json.Marshal(calculateRequest{PaymentEntry: paymentEntryName})
	if err != nil {
		return domain.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Result{}, fmt.Errorf("call net contribution procedure: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Result{}, fmt.Errorf("read net contribution response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := extractErrorMessage(body)
		c.log.Warn("net contribution procedure failed",
			zap.String("payment_entry", paymentEntryName),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", msg),
		)
		return domain.Result{}, &RemoteError{StatusCode: resp.StatusCode, Message: msg}
	}

	var result domain.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.Result{}, fmt.Errorf("decode net contribution response: %w", err)
	}
	if result.Status == "" {
		result.Status = domain.StatusSuccess
	}
	return result, nil
}

// errorPayload covers the response shapes the procedure has been
// observed to return. Newer deployments send the structured exception;
// older ones send an encoded server-message list or a bare message.
type errorPayload struct {
	ExcType        string `json:"exc_type"`
	Exception      string `json:"exception"`
	ServerMessages string `json:"_server_messages"`
	Message        string `json:"message"`
}

// extractErrorMessage walks the known payload shapes from most to
// least specific and falls back to a generic message.
func extractErrorMessage(body []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return genericFailureMessage
	}

	if msg := strings.TrimSpace(payload.Exception); msg != "" {
		if payload.ExcType != "" {
			return fmt.Sprintf("%s: %s", payload.ExcType, msg)
		}
		return msg
	}

	if msg := decodeServerMessages(payload.ServerMessages); msg != "" {
		return msg
	}

	if msg := strings.TrimSpace(payload.Message); msg != "" {
		if len(msg) > maxPlainMessageLen {
			msg = msg[:maxPlainMessageLen]
		}
		return msg
	}

	return genericFailureMessage
}

// decodeServerMessages unpacks the legacy doubly-encoded message list:
// a JSON array of JSON strings, each holding an object with a
// "message" field.
func decodeServerMessages(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	var encoded []string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return ""
	}

	messages := make([]string, 0, len(encoded))
	for _, item := range encoded {
		var inner struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(item), &inner); err != nil {
			continue
		}
		if msg := strings.TrimSpace(inner.Message); msg != "" {
			messages = append(messages, msg)
		}
	}
	return strings.Join(messages, "; ")
}
