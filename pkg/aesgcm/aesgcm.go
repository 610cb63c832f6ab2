// AES-256-GCM authenticated encryption, NIST SP 800-38D with a 96-bit
// nonce and 128-bit tag. The per-key state (round keys and hash subkey) is
// expanded once and reused across messages; every seal/open is a one-shot
// pass over a complete message.
//
// The state is immutable after New and safe for concurrent use. The hot
// paths keep all working data in small stack buffers and contain no
// secret-dependent branches or memory indexing; buffers holding
// key-derived material are zeroed before return.

package aesgcm

import (
	"crypto/rand"
	"errors"

	"github.com/klauspost/cpuid/v2"
)

// AES-256-GCM parameter sizes from NIST SP 800-38D and the AEAD interface
// family this construction belongs to.
const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// NonceSize is the only supported nonce length in bytes (96-bit IV).
	NonceSize = 12

	// TagSize is the authentication tag length in bytes. Truncated tags
	// are not supported.
	TagSize = 16

	// NSecSize is the secret-nonce length. The parameter is reserved in
	// the AEAD signature family and unused by GCM.
	NSecSize = 0

	// MaxPlaintextSize is the SP 800-38D plaintext bound for a single
	// message: 2^39 - 256 bits.
	MaxPlaintextSize = 1<<36 - 32

	// MaxCiphertextSize is the bound on ciphertext-with-tag length.
	MaxCiphertextSize = MaxPlaintextSize + TagSize
)

// Errors
var (
	ErrInvalidKeySize     = errors.New("aesgcm: invalid key size, must be 32 bytes")
	ErrInvalidNonceSize   = errors.New("aesgcm: invalid nonce size, must be 12 bytes")
	ErrInvalidTagSize     = errors.New("aesgcm: invalid tag size, must be 16 bytes")
	ErrInvalidDstSize     = errors.New("aesgcm: destination length does not match input")
	ErrPlaintextTooLong   = errors.New("aesgcm: plaintext exceeds the GCM length bound")
	ErrCiphertextTooLong  = errors.New("aesgcm: ciphertext exceeds the GCM length bound")
	ErrCiphertextTooShort = errors.New("aesgcm: ciphertext shorter than the tag")
	ErrAuthFailed         = errors.New("aesgcm: message authentication failed")
)

// AESGCM is the expanded per-key state: the AES-256 round keys and the
// GHASH subkey H = AES(key, 0^128). It is immutable after New; concurrent
// Seal and Open calls on one state are safe.
type AESGCM struct {
	rkeys [numRoundKeyWords]uint32
	h     [16]byte
}

// New expands a 32-byte key into an AESGCM state, deriving the round keys
// and the hash subkey. The key itself is not retained.
func New(key []byte) (*AESGCM, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	c := new(AESGCM)
	expandKey(key, &c.rkeys)
	var zero [16]byte
	encryptBlock(&c.rkeys, &c.h, &zero)
	return c, nil
}

// NonceSize returns the required nonce size in bytes.
func (c *AESGCM) NonceSize() int {
	return NonceSize
}

// TagSize returns the authentication tag size in bytes.
func (c *AESGCM) TagSize() int {
	return TagSize
}

// Overhead returns the difference between ciphertext and plaintext lengths.
func (c *AESGCM) Overhead() int {
	return TagSize
}

// Seal encrypts and authenticates plaintext with associated data.
//
// Parameters:
//   - nonce: 12-byte nonce (must be unique per encryption under this key)
//   - plaintext: data to encrypt, at most MaxPlaintextSize bytes
//   - aad: additional authenticated data (authenticated, not encrypted)
//
// Returns ciphertext || tag (len(plaintext) + 16 bytes).
func (c *AESGCM) Seal(nonce, plaintext, aad []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}
	if uint64(len(plaintext)) > MaxPlaintextSize {
		return nil, ErrPlaintextTooLong
	}
	out := make([]byte, len(plaintext)+TagSize)
	c.sealCore(out[:len(plaintext)], out[len(plaintext):], nonce, plaintext, aad)
	return out, nil
}

// Open verifies and decrypts ciphertext || tag with associated data.
// Authentication runs over the complete ciphertext before any plaintext is
// produced; on failure no plaintext is emitted.
func (c *AESGCM) Open(nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}
	if len(ciphertext) < TagSize {
		return nil, ErrCiphertextTooShort
	}
	if uint64(len(ciphertext)) > MaxCiphertextSize {
		return nil, ErrCiphertextTooLong
	}
	data := ciphertext[:len(ciphertext)-TagSize]
	tag := ciphertext[len(ciphertext)-TagSize:]
	plaintext := make([]byte, len(data))
	if err := c.openCore(plaintext, nonce, data, tag, aad); err != nil {
		return nil, err
	}
	return plaintext, nil
}

// SealDetached encrypts plaintext into dst and returns the 16-byte tag
// separately. dst must be exactly len(plaintext) bytes and may be the
// plaintext buffer itself for in-place encryption; the returned tag buffer
// is freshly allocated.
func (c *AESGCM) SealDetached(dst, nonce, plaintext, aad []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}
	if uint64(len(plaintext)) > MaxPlaintextSize {
		return nil, ErrPlaintextTooLong
	}
	if len(dst) != len(plaintext) {
		return nil, ErrInvalidDstSize
	}
	tag := make([]byte, TagSize)
	c.sealCore(dst, tag, nonce, plaintext, aad)
	return tag, nil
}

// OpenDetached verifies ciphertext against the detached tag and, on
// success, decrypts it into dst. dst must be exactly len(ciphertext) bytes
// and may be the ciphertext buffer itself; on authentication failure dst is
// left untouched. The ciphertext buffer must not be written by the caller
// for the duration of the call.
func (c *AESGCM) OpenDetached(dst, nonce, ciphertext, tag, aad []byte) error {
	if len(nonce) != NonceSize {
		return ErrInvalidNonceSize
	}
	if len(tag) != TagSize {
		return ErrInvalidTagSize
	}
	if uint64(len(ciphertext)) > MaxPlaintextSize {
		return ErrCiphertextTooLong
	}
	if len(dst) != len(ciphertext) {
		return ErrInvalidDstSize
	}
	return c.openCore(dst, nonce, ciphertext, tag, aad)
}

// SealAfterNM is Seal with the AEAD signature family's reserved nsec
// parameter. nsec is accepted for compatibility and ignored.
func (c *AESGCM) SealAfterNM(nonce, plaintext, aad, nsec []byte) ([]byte, error) {
	_ = nsec
	return c.Seal(nonce, plaintext, aad)
}

// OpenAfterNM is Open with the AEAD signature family's reserved nsec
// parameter. nsec is accepted for compatibility and ignored.
func (c *AESGCM) OpenAfterNM(nonce, ciphertext, aad, nsec []byte) ([]byte, error) {
	_ = nsec
	return c.Open(nonce, ciphertext, aad)
}

// Wipe zeroizes the expanded key material. The state must not be used
// afterwards.
func (c *AESGCM) Wipe() {
	for i := range c.rkeys {
		c.rkeys[i] = 0
	}
	wipe(c.h[:])
}

// Encrypt is a one-shot convenience: key expansion plus Seal.
//
// Parameters:
//   - key: 32-byte AES-256 key
//   - nonce: 12-byte nonce
//   - plaintext: data to encrypt
//   - aad: additional authenticated data
//
// Returns ciphertext || tag.
func Encrypt(key, nonce, plaintext, aad []byte) ([]byte, error) {
	c, err := New(key)
	if err != nil {
		return nil, err
	}
	defer c.Wipe()
	return c.Seal(nonce, plaintext, aad)
}

// Decrypt is a one-shot convenience: key expansion plus Open.
// Returns the plaintext, or an error if authentication fails.
func Decrypt(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	c, err := New(key)
	if err != nil {
		return nil, err
	}
	defer c.Wipe()
	return c.Open(nonce, ciphertext, aad)
}

// GenerateKey returns a fresh random 32-byte key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// IsAvailable reports whether the CPU has the AES round and carry-less
// multiply instructions this construction is designed around. The pure-Go
// core runs regardless; the report lets callers that pick between AEADs
// prefer AES-GCM only on hardware where it is cheap.
func IsAvailable() bool {
	return cpuid.CPU.Supports(cpuid.AESNI, cpuid.CLMUL)
}

// wipe zeroizes a buffer holding key-derived material.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
