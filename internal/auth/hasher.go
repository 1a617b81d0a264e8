// Package auth provides password hashing, session tokens and the bearer
// middleware that guards administrative routes.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// VerifyResult is the outcome of checking a password against a stored hash.
type VerifyResult int

const (
	VerifyFailed VerifyResult = iota
	VerifySuccess
	// VerifySuccessRehashNeeded means the password matched but the stored
	// hash uses a legacy scheme or weaker parameters.
	VerifySuccessRehashNeeded
)

func (r VerifyResult) String() string {
	switch r {
	case VerifySuccess:
		return "success"
	case VerifySuccessRehashNeeded:
		return "success_rehash_needed"
	default:
		return "failed"
	}
}

// Matched reports whether the password was accepted.
func (r VerifyResult) Matched() bool {
	return r == VerifySuccess || r == VerifySuccessRehashNeeded
}

var (
	// ErrEmptyPassword is returned when attempting to hash an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")
	// ErrInvalidHash is returned for stored hashes that cannot be parsed.
	ErrInvalidHash = errors.New("invalid password hash")
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) (VerifyResult, error)
}

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params follows the OWASP argon2id recommendation.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// Argon2idHasher hashes with argon2id and still accepts bcrypt hashes written
// by earlier deployments, flagging them for rehash.
type Argon2idHasher struct {
	params Argon2Params
}

func NewArgon2idHasher(p Argon2Params) *Argon2idHasher {
	return &Argon2idHasher{params: p}
}

// Hash produces a PHC encoded argon2id hash:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against encodedHash in constant time.
func (h *Argon2idHasher) Verify(encodedHash, password string) (VerifyResult, error) {
	if isBcrypt(encodedHash) {
		return verifyBcrypt(encodedHash, password)
	}

	stored, err := decodeArgon2(encodedHash)
	if err != nil {
		return VerifyFailed, err
	}

	computed := argon2.IDKey([]byte(password), stored.salt, stored.params.Time, stored.params.Memory, stored.params.Threads, stored.params.KeyLen)
	if subtle.ConstantTimeCompare(computed, stored.key) != 1 {
		return VerifyFailed, nil
	}
	if stored.version != argon2.Version || h.weaker(stored.params) {
		return VerifySuccessRehashNeeded, nil
	}
	return VerifySuccess, nil
}

func (h *Argon2idHasher) weaker(p Argon2Params) bool {
	return p.Memory < h.params.Memory ||
		p.Time < h.params.Time ||
		p.Threads < h.params.Threads ||
		p.KeyLen < h.params.KeyLen ||
		p.SaltLen < h.params.SaltLen
}

type argon2Hash struct {
	version int
	params  Argon2Params
	salt    []byte
	key     []byte
}

func decodeArgon2(encoded string) (*argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrapf(ErrInvalidHash, "unexpected format")
	}
	if parts[1] != "argon2id" {
		return nil, oops.Code("AUTH_INVALID_HASH").With("algorithm", parts[1]).Wrapf(ErrInvalidHash, "unsupported algorithm")
	}

	out := &argon2Hash{}
	if _, err := fmt.Sscanf(parts[2], "v=%d", &out.version); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrapf(ErrInvalidHash, "version: %v", err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrapf(ErrInvalidHash, "parameters: %v", err)
	}
	if threads == 0 || threads > 255 {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrapf(ErrInvalidHash, "threads value %d out of range", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrapf(ErrInvalidHash, "salt: %v", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrapf(ErrInvalidHash, "key: %v", err)
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrapf(ErrInvalidHash, "key length %d", len(key))
	}

	out.params = Argon2Params{
		Time:    time,
		Memory:  memory,
		Threads: uint8(threads),
		SaltLen: uint32(len(salt)),
		KeyLen:  uint32(len(key)),
	}
	out.salt = salt
	out.key = key
	return out, nil
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

func verifyBcrypt(hash, password string) (VerifyResult, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return VerifySuccessRehashNeeded, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return VerifyFailed, nil
	default:
		return VerifyFailed, oops.Code("AUTH_INVALID_HASH").Wrapf(ErrInvalidHash, "bcrypt: %v", err)
	}
}
