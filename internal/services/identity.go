// identity.go
//
// Block release service: versioned blocks, approval gating and per-environment publication
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of blockrelease.
// blockrelease is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// blockrelease is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with blockrelease.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/authorizerdev/authorizer-go"
	"github.com/localnerve/blockrelease/internal/config"
	"github.com/localnerve/blockrelease/internal/utils"
)

// ErrUnauthenticated is returned when no usable credential was presented.
var ErrUnauthenticated = errors.New("unauthenticated")

// Credentials are the raw identity inputs pulled from a request.
type Credentials struct {
	SessionCookie string
	BearerToken   string
	ActorHeader   string
	// Origin is the scheme://host the request arrived on.
	Origin string
}

// Identity is an authenticated principal.
type Identity struct {
	ActorID string `json:"actorId"`
	Email   string `json:"email,omitempty"`
}

// IdentityProvider resolves credentials to an actor.
type IdentityProvider interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) (*Identity, error)
}

// NewIdentityProvider picks the provider for cfg.AuthMode.
func NewIdentityProvider(cfg *config.Config) (IdentityProvider, error) {
	switch cfg.AuthMode {
	case config.AuthModeAuthorizer:
		return NewAuthorizerProvider(cfg.AuthzURL, cfg.AuthzClientID, []string{"admin"}), nil
	case config.AuthModeJWT:
		return NewJWTProvider(cfg.JWTSecret)
	case config.AuthModeHeader:
		return HeaderProvider{}, nil
	}
	return nil, fmt.Errorf("unsupported auth mode: %s", cfg.AuthMode)
}

// AuthorizerProvider validates Authorizer session cookies. The client is
// created on first use because its redirect URL comes from the request.
type AuthorizerProvider struct {
	url      string
	clientID string
	roles    []string

	once    sync.Once
	client  *authorizer.AuthorizerClient
	initErr error
}

func NewAuthorizerProvider(authzURL, clientID string, roles []string) *AuthorizerProvider {
	return &AuthorizerProvider{url: authzURL, clientID: clientID, roles: roles}
}

func (p *AuthorizerProvider) Name() string { return config.AuthModeAuthorizer }

func (p *AuthorizerProvider) init(ctx context.Context, origin string) error {
	p.once.Do(func() {
		if err := utils.PingAuthorizer(ctx, p.url); err != nil {
			p.initErr = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}
		log.Printf("Initializing Authorizer: authorizerURL=%s, clientID=%s, redirectURL=%s", p.url, p.clientID, origin)
		client, err := authorizer.NewAuthorizerClient(p.clientID, p.url, origin, nil)
		if err != nil {
			p.initErr = fmt.Errorf("failed to create authorizer client: %w", err)
			return
		}
		p.client = client
	})
	return p.initErr
}

func (p *AuthorizerProvider) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	if creds.SessionCookie == "" {
		return nil, fmt.Errorf("%w: cookie \"cookie_session\" not found", ErrUnauthenticated)
	}
	if err := p.init(ctx, creds.Origin); err != nil {
		return nil, err
	}

	roles := make([]*string, len(p.roles))
	for i := range p.roles {
		roles[i] = &p.roles[i]
	}
	res, err := p.client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: creds.SessionCookie,
		Roles:  roles,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: session validation failed: %v", ErrUnauthenticated, err)
	}
	if res == nil || !res.IsValid || res.User == nil {
		return nil, fmt.Errorf("%w: session is not valid", ErrUnauthenticated)
	}
	return &Identity{ActorID: res.User.ID}, nil
}

// ActorClaims are the claims carried by operator tokens.
type ActorClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider validates HS256 bearer tokens; the subject is the actor.
type JWTProvider struct {
	secret []byte
}

func NewJWTProvider(secret string) (*JWTProvider, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required for jwt auth mode")
	}
	return &JWTProvider{secret: []byte(secret)}, nil
}

func (p *JWTProvider) Name() string { return config.AuthModeJWT }

// IssueToken signs a token for subject valid for ttl.
func (p *JWTProvider) IssueToken(subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ActorClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func (p *JWTProvider) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	if creds.BearerToken == "" {
		return nil, fmt.Errorf("%w: bearer token not found", ErrUnauthenticated)
	}
	token, err := jwt.ParseWithClaims(creds.BearerToken, &ActorClaims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, jwt.ErrTokenInvalidClaims)
	}
	return &Identity{ActorID: claims.Subject, Email: claims.Email}, nil
}

// HeaderProvider trusts the X-Actor-Id header. Only for trusted networks.
type HeaderProvider struct{}

func (HeaderProvider) Name() string { return config.AuthModeHeader }

func (HeaderProvider) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	actor := strings.TrimSpace(creds.ActorHeader)
	if actor == "" {
		return nil, fmt.Errorf("%w: header \"X-Actor-Id\" not found", ErrUnauthenticated)
	}
	return &Identity{ActorID: actor}, nil
}
