package client

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenAudience = "appstoreconnect-v1"
	// upstream rejects tokens living longer than 20 minutes
	tokenLifetime = 20 * time.Minute
	tokenRefresh  = 19 * time.Minute
)

// TokenProvider produces a bearer credential for the App Store Connect API.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

type TokenConfig struct {
	KeyID      string
	IssuerID   string
	PrivateKey *ecdsa.PrivateKey
}

type jwtProvider struct {
	config TokenConfig
	now    func() time.Time

	mu       sync.Mutex
	token    string
	issuedAt time.Time
}

func NewTokenProvider(cfg TokenConfig) (TokenProvider, error) {
	if cfg.KeyID == "" || cfg.IssuerID == "" {
		return nil, fmt.Errorf("key id and issuer id are required")
	}
	if cfg.PrivateKey == nil {
		return nil, fmt.Errorf("private key is nil")
	}
	return &jwtProvider{config: cfg, now: time.Now}, nil
}

// LoadPrivateKey reads a PKCS#8 PEM encoded .p8 key as downloaded from App Store Connect.
func LoadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

func (p *jwtProvider) Token(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.token != "" && now.Sub(p.issuedAt) < tokenRefresh {
		return p.token, nil
	}

	claims := jwt.RegisteredClaims{
		Issuer:    p.config.IssuerID,
		Audience:  jwt.ClaimStrings{tokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = p.config.KeyID

	signed, err := token.SignedString(p.config.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	p.token = signed
	p.issuedAt = now
	return signed, nil
}
