// Package password holds the bcrypt policy shared by login, registration
// and the bootstrap seed.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor for new hashes.
const Cost = 10

// dummyHash is compared against when no user matched so both failure paths
// spend comparable time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("consola-dummy-password"), Cost)

// ErrTooLong is returned by Hash for inputs over 72 bytes.
var ErrTooLong = bcrypt.ErrPasswordTooLong

// Hash hashes a plaintext password using bcrypt with a random salt.
func Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), Cost)
	return string(b), err
}

// Check compares a bcrypt hash with a candidate plaintext password.
func Check(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}

// Burn spends one comparison against a fixed hash.
func Burn(pw string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pw))
}

func IsMismatch(err error) bool {
	return errors.Is(err, bcrypt.ErrMismatchedHashAndPassword)
}
