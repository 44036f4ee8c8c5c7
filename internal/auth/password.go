package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. Sized for a small backend handling
// registration and login bursts, not bulk credential imports.
const (
	hashIterations  = 3
	hashMemoryKiB   = 64 * 1024
	hashParallelism = 1
	hashLength      = 32
	saltLength      = 16
)

// phcFieldCount is the number of $-delimited fields in a PHC string.
const phcFieldCount = 6

var errMalformedHash = errors.New("auth: malformed password hash")

// HashPassword derives an Argon2id hash of the password and encodes it
// in PHC form: $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>.
//
// The stored string carries its own parameters, so costs can be raised
// later without invalidating existing accounts.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, hashIterations, hashMemoryKiB, hashParallelism, hashLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		hashMemoryKiB, hashIterations, hashParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	)
	return encoded, nil
}

// VerifyPassword reports whether the password matches the stored PHC
// hash. The comparison is constant-time; parameters come from the
// stored string, not the current constants.
func VerifyPassword(password, stored string) (bool, error) {
	salt, want, iterations, memoryKiB, parallelism, err := parsePHC(stored)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memoryKiB, parallelism, uint32(len(want))) //nolint:gosec // G115: hash length always fits uint32

	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// parsePHC splits a PHC-encoded Argon2id string into its salt, digest,
// and cost parameters.
func parsePHC(stored string) (salt, digest []byte, iterations, memoryKiB uint32, parallelism uint8, err error) {
	fields := strings.Split(stored, "$")
	if len(fields) != phcFieldCount {
		err = errMalformedHash
		return
	}
	if fields[1] != "argon2id" {
		err = fmt.Errorf("%w: unsupported algorithm %q", errMalformedHash, fields[1])
		return
	}

	var version int
	if _, scanErr := fmt.Sscanf(fields[2], "v=%d", &version); scanErr != nil {
		err = fmt.Errorf("%w: bad version field", errMalformedHash)
		return
	}
	if _, scanErr := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &memoryKiB, &iterations, &parallelism); scanErr != nil {
		err = fmt.Errorf("%w: bad parameter field", errMalformedHash)
		return
	}

	salt, err = base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		err = fmt.Errorf("%w: bad salt encoding", errMalformedHash)
		return
	}
	digest, err = base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil {
		err = fmt.Errorf("%w: bad digest encoding", errMalformedHash)
		return
	}

	return salt, digest, iterations, memoryKiB, parallelism, nil
}
