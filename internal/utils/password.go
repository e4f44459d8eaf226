package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters.  KeyLen and SaltLen match the stored record format
// "hex(key).hex(salt)" shared with existing databases.
const (
	scryptN = 16384
	scryptR = 8
	scryptP = 1
	KeyLen  = 64
	SaltLen = 16
)

// HashPassword derives a 64-byte scrypt key from plain using a fresh random
// salt and returns "hex(key).hex(salt)".  Two calls never return the same
// record for the same password.
func HashPassword(plain string) (string, error) {
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	saltHex := hex.EncodeToString(salt)
	key, err := deriveKey(plain, saltHex)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key) + "." + saltHex, nil
}

// VerifyPassword re-derives the key for plain with the salt stored in hash and
// compares in constant time.  Malformed records simply fail verification.
func VerifyPassword(hash, plain string) bool {
	keyHex, saltHex, ok := strings.Cut(hash, ".")
	if !ok || keyHex == "" || saltHex == "" {
		return false
	}
	want, err := hex.DecodeString(keyHex)
	if err != nil || len(want) != KeyLen {
		return false
	}
	got, err := deriveKey(plain, saltHex)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, got) == 1
}

// deriveKey uses the hex salt string itself as scrypt salt bytes, which is how
// records created by the previous Node service were derived.
func deriveKey(plain, saltHex string) ([]byte, error) {
	return scrypt.Key([]byte(plain), []byte(saltHex), scryptN, scryptR, scryptP, KeyLen)
}
