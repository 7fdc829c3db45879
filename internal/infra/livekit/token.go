package livekit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 6 * time.Hour

// VideoGrant lists the room permissions carried by an access token.
type VideoGrant struct {
	RoomCreate   bool   `json:"roomCreate,omitempty"`
	RoomList     bool   `json:"roomList,omitempty"`
	RoomAdmin    bool   `json:"roomAdmin,omitempty"`
	RoomJoin     bool   `json:"roomJoin,omitempty"`
	Room         string `json:"room,omitempty"`
	CanPublish   bool   `json:"canPublish,omitempty"`
	CanSubscribe bool   `json:"canSubscribe,omitempty"`
}

// Claims is the JWT payload understood by the media server.
type Claims struct {
	jwt.RegisteredClaims
	Name     string      `json:"name,omitempty"`
	Metadata string      `json:"metadata,omitempty"`
	Video    *VideoGrant `json:"video,omitempty"`
}

// TokenOptions configures a minted access token.
type TokenOptions struct {
	Identity string
	Name     string
	Metadata string
	TTL      time.Duration
	Grant    VideoGrant
}

// ErrMissingCredentials is returned when the API key or secret is not configured.
var ErrMissingCredentials = errors.New("livekit api key and secret must be set")

// MintToken signs an access token with the API secret.
func MintToken(apiKey, apiSecret string, opts TokenOptions) (string, error) {
	if apiKey == "" || apiSecret == "" {
		return "", ErrMissingCredentials
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	now := time.Now()
	grant := opts.Grant
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    apiKey,
			Subject:   opts.Identity,
			ID:        uuid.NewString(),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:     opts.Name,
		Metadata: opts.Metadata,
		Video:    &grant,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(apiSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ParseToken verifies a token against the API secret and returns its claims.
func ParseToken(apiSecret, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(apiSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// GuestIdentity returns a random participant identity for anonymous joins.
func GuestIdentity() string {
	return "guest-" + uuid.NewString()[:8]
}

// JoinOptions are the inputs of a room join token.
type JoinOptions struct {
	Room     string
	Identity string
	Role     string
	TTL      time.Duration
}

// JoinToken mints a token that lets a participant join, publish and subscribe in one room.
func JoinToken(apiKey, apiSecret string, opts JoinOptions) (string, error) {
	if opts.Room == "" {
		return "", errors.New("room must not be empty")
	}
	identity := opts.Identity
	if identity == "" {
		identity = GuestIdentity()
	}

	var metadata string
	if opts.Role != "" {
		raw, err := json.Marshal(map[string]string{"role": opts.Role})
		if err != nil {
			return "", fmt.Errorf("encode metadata: %w", err)
		}
		metadata = string(raw)
	}

	return MintToken(apiKey, apiSecret, TokenOptions{
		Identity: identity,
		Name:     identity,
		Metadata: metadata,
		TTL:      opts.TTL,
		Grant: VideoGrant{
			RoomJoin:     true,
			Room:         opts.Room,
			CanPublish:   true,
			CanSubscribe: true,
		},
	})
}
