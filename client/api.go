// Package client contains the receiver side of the protocol: an HTTP API
// client and the synchronization engine reconciling history with live
// relay events.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"spill/domain"
	"spill/domain/event"
)

// API calls the messaging surface with a bearer credential.
type API struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// History fetches one ascending page of the conversation with otherUserID.
func (a *API) History(ctx context.Context, otherUserID string, page, limit int) ([]event.MessageCreated, bool, error) {
	params := url.Values{}
	params.Set("otherUserId", otherUserID)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	var out struct {
		Messages []event.MessageCreated `json:"messages"`
		HasMore  bool                   `json:"hasMore"`
	}
	err := a.do(ctx, http.MethodGet, "/api/messages/history?"+params.Encode(), nil, &out)
	if err != nil {
		return nil, false, err
	}
	return out.Messages, out.HasMore, nil
}

// Send posts a message and returns the persisted record and its channel.
func (a *API) Send(ctx context.Context, receiverID, content string, messageType domain.MessageType) (event.MessageCreated, string, error) {
	body := map[string]any{
		"content":    content,
		"receiverId": receiverID,
		"type":       messageType,
	}
	var out struct {
		Message event.MessageCreated `json:"message"`
		Channel string               `json:"channel"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/messages/send", body, &out); err != nil {
		return event.MessageCreated{}, "", err
	}
	return out.Message, out.Channel, nil
}

// MarkRead acknowledges a batch of received messages.
func (a *API) MarkRead(ctx context.Context, messageIDs []string, senderID string) error {
	body := map[string]any{
		"messageIds": messageIDs,
		"senderId":   senderID,
	}
	return a.do(ctx, http.MethodPost, "/api/messages/read", body, nil)
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
