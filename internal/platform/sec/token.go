// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing) from
// the domain logic. The [Codec] is pure and stateless: given the same secret
// and clock it is fully deterministic, and it performs no I/O. Whether a
// token's storage record still exists is a separate question answered by the
// auth resolver, never here.
package sec

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/monova/internal/platform/apperr"
)

// reservedClaims are the registered JWT claim names stripped from decoded
// payloads when callers ask for application claims only.
var reservedClaims = []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti"}

// Claims is the decoded payload of a signed token.
//
// Beyond arbitrary application claims it always carries the reserved fields
// user_id, user_type, and token_type. Accessors below tolerate missing or
// mistyped fields by returning zero values; the gate treats those as failures.
type Claims map[string]any

// UserID returns the user_id claim as stored (number or string).
func (c Claims) UserID() any {
	return c["user_id"]
}

// UserType returns the caller role carried in the user_type claim.
func (c Claims) UserType() Role {
	role, _ := c["user_type"].(string)
	return Role(role)
}

// TokenType returns the token_type claim.
func (c Claims) TokenType() TokenType {
	tokenType, _ := c["token_type"].(string)
	return TokenType(tokenType)
}

// # Token Codec

// Codec encodes and decodes signed bearer tokens using a process-wide
// symmetric secret (HMAC-SHA256).
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec signing with the given secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode signs the payload together with the token type, issued-at, and an
// absolute expiry of now + timeToLive.
//
// # Returns
//   - The compact signed token string.
//   - The expiry as a Unix epoch in milliseconds. This is a derived
//     convenience value for clients; the authoritative expiry is the signed
//     exp claim.
func (codec *Codec) Encode(payload Claims, timeToLive time.Duration, tokenType TokenType) (string, int64, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(timeToLive)

	claims := jwt.MapClaims{}
	for key, value := range payload {
		claims[key] = value
	}
	claims["token_type"] = string(tokenType)
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(expiresAt)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(codec.secret)
	if err != nil {
		return "", 0, apperr.Generic(err)
	}

	return signed, expiresAt.UnixMilli(), nil
}

// Decode verifies the signature and expiry of a token string and returns its
// claims.
//
// # Errors
//   - [apperr.KindTokenExpired] when the exp claim has passed, regardless of
//     any other property of the token.
//   - [apperr.KindTokenInvalid] for every other malformed or unverifiable token.
//
// When stripReserved is set, the registered claim names (iss, sub, aud, exp,
// nbf, iat, jti) are removed from the returned mapping; callers using this
// mode must not rely on those fields being present.
func (codec *Codec) Decode(tokenString string, stripReserved bool) (Claims, error) {
	token, err := jwt.Parse(
		tokenString,
		func(*jwt.Token) (any, error) { return codec.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.TokenExpired(err)
		}
		return nil, apperr.TokenInvalid(err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.TokenInvalid(errors.New("sec: unexpected claims shape"))
	}

	claims := Claims(mapClaims)
	if stripReserved {
		for _, key := range reservedClaims {
			delete(claims, key)
		}
	}

	return claims, nil
}
