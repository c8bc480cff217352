// Package voice places outbound phone calls through the hosted call
// platform, letting the assistant reach patients who prefer a call over
// typing.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultCallURL = "https://api.vapi.ai/call/phone"

type Client struct {
	apiKey        string
	phoneNumberID string
	client        *http.Client
	apiURL        string
	logger        *slog.Logger
}

func NewClient(apiKey, phoneNumberID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:        apiKey,
		phoneNumberID: phoneNumberID,
		client:        &http.Client{Timeout: 15 * time.Second},
		apiURL:        defaultCallURL,
		logger:        logger,
	}
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(url string) {
	c.apiURL = url
}

// CallRequest describes one outbound call. PatientName and RoomNumber are
// passed to the assistant as variable overrides so it can greet the
// patient properly.
type CallRequest struct {
	PhoneNumber string
	PatientName string
	RoomNumber  string
	AssistantID string
}

type callResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// StartCall initiates a phone call and returns the platform's call id.
func (c *Client) StartCall(ctx context.Context, req CallRequest) (string, error) {
	if req.PhoneNumber == "" {
		return "", fmt.Errorf("phone number is required")
	}
	if req.AssistantID == "" {
		return "", fmt.Errorf("assistant id is required")
	}

	patientName := req.PatientName
	if patientName == "" {
		patientName = "Patient"
	}
	roomNumber := req.RoomNumber
	if roomNumber == "" {
		roomNumber = "Unknown"
	}

	body, err := json.Marshal(map[string]any{
		"assistantId":   req.AssistantID,
		"phoneNumberId": c.phoneNumberID,
		"customer": map[string]any{
			"number": req.PhoneNumber,
		},
		"assistantOverrides": map[string]any{
			"variableValues": map[string]any{
				"patientName": patientName,
				"roomNumber":  roomNumber,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal call payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call platform: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var cr callResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("parse call response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := cr.Message
		if msg == "" {
			msg = cr.Error
		}
		if msg == "" {
			msg = fmt.Sprintf("call platform returned %d", resp.StatusCode)
		}
		return "", fmt.Errorf("start call: %s", msg)
	}

	c.logger.Info("outbound call initiated", "call_id", cr.ID, "room", roomNumber)
	return cr.ID, nil
}
