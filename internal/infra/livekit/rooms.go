// Package livekit talks to the real-time media server API.
package livekit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/callguard/internal/infra/call"
	"github.com/vietddude/callguard/internal/infra/provider"
)

const (
	listRoomsPath = "/twirp/livekit.RoomService/ListRooms"
	adminTokenTTL = 10 * time.Minute
)

// Room is the subset of room state printed by the CLI.
type Room struct {
	SID             string `json:"sid"`
	Name            string `json:"name"`
	NumParticipants int    `json:"num_participants"`
	MaxParticipants int    `json:"max_participants"`
	Metadata        string `json:"metadata,omitempty"`
}

// Client calls the room service over Twirp JSON.
type Client struct {
	http      *provider.HTTPProvider
	url       string
	apiKey    string
	apiSecret string
}

// NewClient creates a room service client. ws:// and wss:// URLs are mapped
// to their HTTP equivalents.
func NewClient(url, apiKey, apiSecret string, timeout time.Duration) *Client {
	return &Client{
		http:      provider.NewHTTPProvider("livekit", HTTPURL(url), timeout),
		url:       url,
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// Provider exposes the underlying HTTP provider for health reporting.
func (c *Client) Provider() *provider.HTTPProvider {
	return c.http
}

// ListRooms returns every active room.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	if c.url == "" {
		return nil, call.NewServiceError(call.ReasonMalformedRequest, "livekit url is not configured")
	}

	token, err := MintToken(c.apiKey, c.apiSecret, TokenOptions{
		TTL:   adminTokenTTL,
		Grant: VideoGrant{RoomList: true},
	})
	if errors.Is(err, ErrMissingCredentials) {
		return nil, call.NewServiceError(call.ReasonAuthentication, "%s", err.Error())
	}
	if err != nil {
		return nil, call.NoRetry(err)
	}

	var out struct {
		Rooms []Room `json:"rooms"`
	}
	err = c.http.DoJSON(ctx, provider.Request{
		Method: http.MethodPost,
		Path:   listRoomsPath,
		Header: http.Header{"Authorization": {"Bearer " + token}},
		Body:   map[string]any{},
	}, &out)
	if err != nil {
		return nil, twirpError(err)
	}
	return out.Rooms, nil
}

// HTTPURL converts a websocket server URL to the HTTP base used by the API.
func HTTPURL(url string) string {
	switch {
	case strings.HasPrefix(url, "wss://"):
		return "https://" + strings.TrimPrefix(url, "wss://")
	case strings.HasPrefix(url, "ws://"):
		return "http://" + strings.TrimPrefix(url, "ws://")
	default:
		return url
	}
}

type twirpBody struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

var twirpReasons = map[string]call.Reason{
	"unauthenticated":     call.ReasonAuthentication,
	"permission_denied":   call.ReasonAuthentication,
	"not_found":           call.ReasonNotFound,
	"bad_route":           call.ReasonNotFound,
	"resource_exhausted":  call.ReasonRateLimited,
	"invalid_argument":    call.ReasonMalformedRequest,
	"malformed":           call.ReasonMalformedRequest,
	"out_of_range":        call.ReasonMalformedRequest,
	"failed_precondition": call.ReasonMalformedRequest,
	"already_exists":      call.ReasonMalformedRequest,
	"internal":            call.ReasonServer,
	"unknown":             call.ReasonServer,
	"unavailable":         call.ReasonServer,
	"dataloss":            call.ReasonServer,
}

// twirpError turns a Twirp JSON error body into a ServiceError. Anything
// else is returned unchanged for the generic classifier.
func twirpError(err error) error {
	var se *provider.StatusError
	if !errors.As(err, &se) {
		return err
	}

	var body twirpBody
	if jsonErr := json.Unmarshal([]byte(se.Body), &body); jsonErr != nil || body.Code == "" {
		return err
	}
	reason, ok := twirpReasons[body.Code]
	if !ok {
		return err
	}

	msg := body.Msg
	if msg == "" {
		msg = body.Code
	}
	svcErr := &call.ServiceError{
		Reason:  reason,
		Message: fmt.Sprintf("livekit: %s", msg),
	}
	var ra *call.RetryAfterError
	if errors.As(err, &ra) {
		svcErr.RetryAfter = ra.Delay
	}
	return svcErr
}
