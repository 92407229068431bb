package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

// accessTokenBytes gives 256 bits of entropy per vendor access token,
// well past the point where guessing is feasible.
const accessTokenBytes = 32

// NewAccessToken mints a URL-safe random bearer token for a vendor
// magic link. It is the only vendor-facing credential, so it comes from
// crypto/rand, never from a PRNG.
func NewAccessToken() (string, error) {
	buf := make([]byte, accessTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

type TokenType string

const (
	TokenTypeOrgAccess     TokenType = "org_access"
	TokenTypeVendorSession TokenType = "vendor_session"
)

// OrgClaims identifies an organization user on authenticated endpoints.
// The org identity layer mints these; this service only validates them.
type OrgClaims struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Type   TokenType `json:"type"`
	jwt.RegisteredClaims
}

// VendorClaims scope a portal session to a single invitation and its
// shadow assessment. They never reference the organization assessment.
type VendorClaims struct {
	InvitationID string    `json:"invitation_id"`
	AssessmentID string    `json:"assessment_id"`
	Type         TokenType `json:"type"`
	jwt.RegisteredClaims
}

type TokenManager interface {
	GenerateOrgToken(userID, email string, ttl time.Duration) (string, error)
	ValidateOrgToken(tokenString string) (*OrgClaims, error)
	GenerateVendorSession(invitationID, assessmentID string, ttl time.Duration) (string, error)
	ValidateVendorSession(tokenString string) (*VendorClaims, error)
}

type tokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) TokenManager {
	return &tokenManager{
		secret: []byte(secret),
	}
}

func (m *tokenManager) GenerateOrgToken(userID, email string, ttl time.Duration) (string, error) {
	claims := OrgClaims{
		UserID: userID,
		Email:  email,
		Type:   TokenTypeOrgAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "csf-compass",
			Audience:  jwt.ClaimStrings{"org-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateOrgToken(tokenString string) (*OrgClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OrgClaims{}, m.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*OrgClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeOrgAccess {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (m *tokenManager) GenerateVendorSession(invitationID, assessmentID string, ttl time.Duration) (string, error) {
	claims := VendorClaims{
		InvitationID: invitationID,
		AssessmentID: assessmentID,
		Type:         TokenTypeVendorSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   invitationID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "csf-compass",
			Audience:  jwt.ClaimStrings{"vendor-portal"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateVendorSession(tokenString string) (*VendorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &VendorClaims{}, m.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*VendorClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeVendorSession {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (m *tokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return m.secret, nil
}
