package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/campus-fix/internal/config"
)

// ErrPasswordMismatch is returned when a password does not match its hash.
var ErrPasswordMismatch = errors.New("password mismatch")

const argon2Prefix = "$argon2id$"

// Argon2Params tunes the argon2id key derivation.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgon2Params are used when the configuration leaves a value unset.
var DefaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

// PasswordHasher derives new hashes with the configured algorithm and
// verifies both argon2id and legacy bcrypt hashes.
type PasswordHasher struct {
	algorithm  string
	argon      Argon2Params
	bcryptCost int
}

// NewPasswordHasher builds a hasher from auth configuration.
func NewPasswordHasher(cfg config.AuthConfig) *PasswordHasher {
	params := DefaultArgon2Params
	if cfg.Argon2Time > 0 {
		params.Time = cfg.Argon2Time
	}
	if cfg.Argon2MemoryKiB > 0 {
		params.Memory = cfg.Argon2MemoryKiB
	}
	if cfg.Argon2Threads > 0 {
		params.Threads = cfg.Argon2Threads
	}
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	algorithm := cfg.PasswordAlgorithm
	if algorithm == "" {
		algorithm = config.PasswordAlgorithmArgon2id
	}
	return &PasswordHasher{algorithm: algorithm, argon: params, bcryptCost: cost}
}

// Hash derives a salted hash of the password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.algorithm == config.PasswordAlgorithmBcrypt {
		return HashPassword(password, h.bcryptCost)
	}
	return hashArgon2(password, h.argon)
}

// Verify checks a password against any supported encoded hash.
func (h *PasswordHasher) Verify(encoded, password string) error {
	switch {
	case strings.HasPrefix(encoded, argon2Prefix):
		return verifyArgon2(encoded, password)
	case isBcryptHash(encoded):
		if err := ComparePassword(encoded, password); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return ErrPasswordMismatch
			}
			return err
		}
		return nil
	default:
		return errors.New("unsupported password hash format")
	}
}

// HashPassword hashes a plaintext password with bcrypt at the given cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against a bcrypt hash.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

func isBcryptHash(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") || strings.HasPrefix(encoded, "$2b$") || strings.HasPrefix(encoded, "$2y$")
}

func hashArgon2(password string, params Argon2Params) (string, error) {
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Time, params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// verifyArgon2 accepts the PHC string format: $argon2id$v=19$m=..,t=..,p=..$salt$hash
func verifyArgon2(encoded, password string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return errors.New("malformed argon2 hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return fmt.Errorf("parse argon2 version: %w", err)
	}
	if version != argon2.Version {
		return fmt.Errorf("unsupported argon2 version %d", version)
	}

	params, err := parseArgon2Params(parts[3])
	if err != nil {
		return err
	}

	salt, err := decodeBase64(parts[4])
	if err != nil {
		return fmt.Errorf("decode salt: %w", err)
	}
	key, err := decodeBase64(parts[5])
	if err != nil {
		return fmt.Errorf("decode hash: %w", err)
	}

	computed := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, uint32(len(key)))
	if subtle.ConstantTimeCompare(key, computed) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

func parseArgon2Params(raw string) (Argon2Params, error) {
	var params Argon2Params
	for _, field := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			return params, fmt.Errorf("malformed argon2 parameter %q", field)
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return params, fmt.Errorf("parse argon2 parameter %q: %w", name, err)
		}
		switch name {
		case "m":
			params.Memory = uint32(n)
		case "t":
			params.Time = uint32(n)
		case "p":
			if n > 255 {
				return params, fmt.Errorf("argon2 parallelism %d out of range", n)
			}
			params.Threads = uint8(n)
		}
	}
	if params.Memory == 0 || params.Time == 0 || params.Threads == 0 {
		return params, errors.New("incomplete argon2 parameters")
	}
	return params, nil
}

// decodeBase64 accepts both padded and unpadded encodings; passlib emits
// unpadded values while other producers pad.
func decodeBase64(value string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(value, "="))
}
