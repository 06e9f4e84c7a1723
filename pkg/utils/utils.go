// Package utils provides utility functions for the journal backend.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateID generates a unique ID with optional prefix.
func GenerateID(prefix string) string {
	id := uuid.New().String()
	if prefix != "" {
		return fmt.Sprintf("%s_%s", prefix, id)
	}
	return id
}

// GenerateTradeID generates a unique trade ID.
func GenerateTradeID() string {
	return GenerateID("trd")
}

// GenerateWithdrawalID generates a unique withdrawal ID.
func GenerateWithdrawalID() string {
	return GenerateID("wd")
}

// GenerateUserID generates a unique user ID.
func GenerateUserID() string {
	return GenerateID("usr")
}

// GenerateSessionToken generates an opaque session token. Tokens are random
// bytes, never derived from user data.
func GenerateSessionToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// NormalizeSymbol uppercases and trims an instrument symbol while keeping
// the journal's slash-free convention.
func NormalizeSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	return strings.ReplaceAll(symbol, " ", "")
}
