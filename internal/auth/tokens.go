package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType discriminates access tokens from refresh tokens. The tag is
// embedded as a claim and checked structurally on every verification, so a
// refresh token can never pass as an access token or vice versa.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

const (
	claimTokenType = "token_type"
	tokenIssuer    = "quizroom"
)

// Claims describes the validated identity extracted from an access token.
type Claims struct {
	UserID    uuid.UUID
	Email     string
	IsAdmin   bool
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// IssueAccessToken signs a short-lived access token for the user. The jti
// claim is a fresh UUID, so two tokens issued for the same user within the
// same second still differ.
func (s *Service) IssueAccessToken(user User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.cfg.AccessTokenTTL)
	claims := jwt.MapClaims{
		"sub":          user.ID.String(),
		"iss":          tokenIssuer,
		"jti":          uuid.NewString(),
		"iat":          now.Unix(),
		"exp":          expiresAt.Unix(),
		"email":        user.Email,
		"is_admin":     user.IsAdmin,
		claimTokenType: string(TokenTypeAccess),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// IssueRefreshToken signs a long-lived refresh token for the user. Refresh
// tokens carry only the subject and type tag; role and email are re-read from
// the store at refresh time.
func (s *Service) IssueRefreshToken(user User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.cfg.RefreshTokenTTL)
	claims := jwt.MapClaims{
		"sub":          user.ID.String(),
		"iss":          tokenIssuer,
		"jti":          uuid.NewString(),
		"iat":          now.Unix(),
		"exp":          expiresAt.Unix(),
		claimTokenType: string(TokenTypeRefresh),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyAccessToken verifies the token signature, expiry and type tag, and
// extracts the caller's identity.
func (s *Service) VerifyAccessToken(raw string) (Claims, error) {
	claims, tokenType, err := s.parseToken(raw)
	if err != nil {
		return Claims{}, ErrUnauthorized
	}
	if tokenType != TokenTypeAccess {
		return Claims{}, ErrUnauthorized
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return Claims{}, ErrUnauthorized
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, ErrUnauthorized
	}

	email, _ := claims["email"].(string)
	isAdmin, _ := claims["is_admin"].(bool)

	expFloat, okExp := claims["exp"].(float64)
	if !okExp {
		return Claims{}, ErrUnauthorized
	}
	exp := time.Unix(int64(expFloat), 0)

	iat := time.Time{}
	if iatFloat, ok := claims["iat"].(float64); ok {
		iat = time.Unix(int64(iatFloat), 0)
	}

	if exp.Before(s.nowFunc()) {
		return Claims{}, ErrUnauthorized
	}

	return Claims{
		UserID:    userID,
		Email:     email,
		IsAdmin:   isAdmin,
		ExpiresAt: exp,
		IssuedAt:  iat,
	}, nil
}

// VerifyRefreshToken checks the signature, expiry and type tag of a refresh
// token and returns the subject user ID. A valid token of the wrong type
// fails with ErrWrongTokenType.
func (s *Service) VerifyRefreshToken(raw string) (uuid.UUID, error) {
	claims, tokenType, err := s.parseToken(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	if tokenType != TokenTypeRefresh {
		return uuid.Nil, ErrWrongTokenType
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidRefreshToken
	}

	expFloat, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(expFloat), 0).Before(s.nowFunc()) {
		return uuid.Nil, ErrInvalidRefreshToken
	}

	return userID, nil
}

func (s *Service) parseToken(raw string) (jwt.MapClaims, TokenType, error) {
	parsed, err := s.parser.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.TokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, "", fmt.Errorf("unexpected claims format")
	}

	rawType, _ := claims[claimTokenType].(string)
	switch TokenType(rawType) {
	case TokenTypeAccess, TokenTypeRefresh:
		return claims, TokenType(rawType), nil
	default:
		return nil, "", fmt.Errorf("unknown token type %q", rawType)
	}
}
