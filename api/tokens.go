package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// hashing cost is deliberately modest; login latency matters more than
// resistance on a hobby deployment.
const bcryptCost = 8

var errInvalidToken = errors.New("invalid token")

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
}

func verifyPassword(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// issueToken signs a JWT binding the user's id. A zero ttl produces a token
// with no expiry; revocation then happens only through the allow-list.
// The random jti keeps two logins in the same second from minting identical
// strings, which would collide on the allow-list.
func issueToken(userID int, secret string, ttl time.Duration) (string, error) {
	jti := make([]byte, 16)
	_, err := rand.Read(jti)
	if err != nil {
		return "", err
	}
	claims := jwt.RegisteredClaims{
		ID:       hex.EncodeToString(jti),
		Subject:  strconv.Itoa(userID),
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// verifyToken checks the signature and claims and returns the user id the
// token was issued for. It says nothing about revocation; callers must still
// consult the allow-list.
func verifyToken(tokenStr string, secret string) (int, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, errInvalidToken
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, errInvalidToken
	}
	return userID, nil
}

// tokenHash is what the tokens table stores instead of the signed string.
func tokenHash(tokenStr string) []byte {
	sum := sha256.Sum256([]byte(tokenStr))
	return sum[:]
}
