// Package credential generates and verifies self-describing salted PBKDF2
// password records of the form
//
//	PBKDF2$<algorithm>$<iterations>$<salt>$<hash>
//
// where salt and hash are standard base64. The base64 text of the salt is the
// PBKDF2 salt input, and the key length is the decoded length of hash, so a
// record can be verified without knowing the configuration that produced it.
package credential

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"hash"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"

	"github.com/syssam/userdb"
)

// Record format constants.
const (
	Tag       = "PBKDF2"
	Separator = "$"
)

// Defaults applied to zero Config fields.
const (
	DefaultSaltLen    = 12
	DefaultIterations = 901
	DefaultKeyLen     = 24
	DefaultAlgorithm  = "sha256"
)

// MaxIterations bounds the iteration count of generated and verified records.
const MaxIterations = 10_000_000

var algorithms = map[string]func() hash.Hash{
	"sha1":     sha1.New,
	"sha224":   sha256.New224,
	"sha256":   sha256.New,
	"sha384":   sha512.New384,
	"sha512":   sha512.New,
	"sha3_256": sha3.New256,
	"sha3_512": sha3.New512,
}

// Algorithms returns the supported digest names, sorted.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config configures a Hasher. Zero fields take the defaults.
type Config struct {
	SaltLen    int    `koanf:"salt_len"`
	Iterations int    `koanf:"iterations"`
	KeyLen     int    `koanf:"key_len"`
	Algorithm  string `koanf:"algorithm"`
}

// Hasher generates and verifies password records. It holds only immutable
// configuration and is safe for concurrent use.
type Hasher struct {
	cfg    Config
	digest func() hash.Hash
}

// New returns a Hasher for cfg.
func New(cfg Config) (*Hasher, error) {
	if cfg.SaltLen == 0 {
		cfg.SaltLen = DefaultSaltLen
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.KeyLen == 0 {
		cfg.KeyLen = DefaultKeyLen
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = DefaultAlgorithm
	}
	if cfg.SaltLen < 0 || cfg.Iterations < 0 || cfg.KeyLen < 0 {
		return nil, userdb.NewError(userdb.ErrnoType, fmt.Sprintf("credential: negative parameter in %+v", cfg))
	}
	if cfg.Iterations > MaxIterations {
		return nil, userdb.NewError(userdb.ErrnoType, fmt.Sprintf("credential: iterations %d exceed %d", cfg.Iterations, MaxIterations))
	}
	digest, ok := algorithms[cfg.Algorithm]
	if !ok {
		return nil, userdb.NewError(userdb.ErrnoUnknown, fmt.Sprintf("credential: unsupported digest %q", cfg.Algorithm))
	}
	return &Hasher{cfg: cfg, digest: digest}, nil
}

// Config returns the effective configuration.
func (h *Hasher) Config() Config { return h.cfg }

// Generate hashes plaintext with a fresh random salt and returns the record.
func (h *Hasher) Generate(plaintext string) (string, error) {
	raw := make([]byte, h.cfg.SaltLen)
	if _, err := rand.Read(raw); err != nil {
		return "", userdb.ToError(fmt.Errorf("credential: read salt: %w", err))
	}
	salt := base64.StdEncoding.EncodeToString(raw)
	key := pbkdf2.Key([]byte(plaintext), []byte(salt), h.cfg.Iterations, h.cfg.KeyLen, h.digest)
	return format(h.cfg.Algorithm, h.cfg.Iterations, salt, key), nil
}

// Verify reports whether plaintext matches record. The algorithm, iteration
// count and salt embedded in record are used, not the Hasher's configuration.
// A malformed record is an error (ErrnoType), distinct from a mismatch.
func (h *Hasher) Verify(plaintext, record string) (bool, error) {
	p, err := parse(record)
	if err != nil {
		return false, err
	}
	digest, ok := algorithms[p.algorithm]
	if !ok {
		return false, userdb.NewError(userdb.ErrnoUnknown, fmt.Sprintf("credential: unsupported digest %q", p.algorithm))
	}
	key := pbkdf2.Key([]byte(plaintext), []byte(p.salt), p.iterations, p.keyLen, digest)
	expected := Tag + Separator + strings.Join(p.fields[1:4], Separator) + Separator + base64.StdEncoding.EncodeToString(key)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(record)) == 1, nil
}

type parsed struct {
	fields     []string
	algorithm  string
	iterations int
	salt       string
	keyLen     int
}

func parse(record string) (*parsed, error) {
	fields := strings.Split(record, Separator)
	if len(fields) != 5 {
		return nil, malformed("expected 5 fields, got %d", len(fields))
	}
	iterations, err := strconv.Atoi(fields[2])
	if err != nil || iterations <= 0 || iterations > MaxIterations {
		return nil, malformed("invalid iteration count %q", fields[2])
	}
	if fields[1] == "" || fields[3] == "" {
		return nil, malformed("empty algorithm or salt")
	}
	key, err := base64.StdEncoding.DecodeString(fields[4])
	if err != nil || len(key) == 0 {
		return nil, malformed("invalid hash encoding")
	}
	return &parsed{
		fields:     fields,
		algorithm:  fields[1],
		iterations: iterations,
		salt:       fields[3],
		keyLen:     len(key),
	}, nil
}

func malformed(format string, a ...any) *userdb.Error {
	return userdb.ToError(userdb.NewTypeError("credential: malformed record: "+format, a...))
}

func format(algorithm string, iterations int, salt string, key []byte) string {
	return Tag + Separator + algorithm + Separator + strconv.Itoa(iterations) + Separator +
		salt + Separator + base64.StdEncoding.EncodeToString(key)
}
