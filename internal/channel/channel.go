/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package channel implements the hybrid encryption wrapping every request and response:
// a one-time AES-256 key encrypts the payload in CTR mode and travels wrapped under RSA PKCS#1 v1.5.
package channel

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/MoarCatz/chat-server/internal/apperr"
	"github.com/MoarCatz/chat-server/internal/entity"
	"github.com/MoarCatz/chat-server/internal/metrics"
	"github.com/MoarCatz/chat-server/internal/nlog"
	"github.com/MoarCatz/chat-server/internal/repository"

	"golang.org/x/crypto/sha3"
)

// SessionKeySize is the size of the symmetric key generated for every response
const SessionKeySize = 32

// Envelope is an encrypted payload plus the symmetric key wrapped for its recipient
type Envelope struct {
	Body       []byte
	WrappedKey []byte
}

// String is the wire form, base64(body):base64(wrapped key)
func (e Envelope) String() string {
	return base64.StdEncoding.EncodeToString(e.Body) + ":" + base64.StdEncoding.EncodeToString(e.WrappedKey)
}

func (e Envelope) Bytes() []byte {
	return []byte(e.String())
}

// CryptoChannel holds the server key pair; it keeps no other state and is safe for concurrent use.
type CryptoChannel struct {
	private *rsa.PrivateKey
	logger  nlog.Logger
	metrics metrics.Recorder
}

func NewCryptoChannel(private *rsa.PrivateKey, logger nlog.Logger, recorder metrics.Recorder) *CryptoChannel {
	return &CryptoChannel{
		private: private,
		logger:  logger,
		metrics: recorder,
	}
}

func (c *CryptoChannel) Logf(format string, v ...any) {
	c.logger.Logf(format, v...)
}

// PublicKey is the server public key in "<modulus>:<exponent>" form, as handed to clients
func (c *CryptoChannel) PublicKey() string {
	return FormatPublicKey(&c.private.PublicKey)
}

func (c *CryptoChannel) fail(op, msg string, cause error) error {
	c.metrics.RecordCryptoFailure(op)
	c.Logf("%s failed: %s {%v}", op, msg, cause)
	return apperr.Crypto(msg, cause)
}

// UnwrapRequest decodes both base64 fields, recovers the session key with the server private key
// and decrypts the body. Nothing is returned unless every step succeeds.
func (c *CryptoChannel) UnwrapRequest(cipherBody, wrappedKey string) ([]byte, error) {
	body, err := base64.StdEncoding.DecodeString(cipherBody)
	if err != nil {
		return nil, c.fail("unwrap", "malformed request body", err)
	}
	wrapped, err := base64.StdEncoding.DecodeString(wrappedKey)
	if err != nil {
		return nil, c.fail("unwrap", "malformed request key", err)
	}
	key, err := rsa.DecryptPKCS1v15(rand.Reader, c.private, wrapped)
	if err != nil {
		return nil, c.fail("unwrap", "cannot unwrap session key", err)
	}
	plaintext, err := xorCTR(key, body)
	if err != nil {
		return nil, c.fail("unwrap", "bad session key", err)
	}
	return plaintext, nil
}

// WrapResponse encrypts plaintext under a fresh random key and wraps that key for recipient
func (c *CryptoChannel) WrapResponse(plaintext []byte, recipient *rsa.PublicKey) (Envelope, error) {
	key := make([]byte, SessionKeySize)
	if _, err := rand.Read(key); err != nil {
		return Envelope{}, c.fail("wrap", "cannot generate session key", err)
	}
	body, err := xorCTR(key, plaintext)
	if err != nil {
		return Envelope{}, c.fail("wrap", "cannot encrypt response", err)
	}
	wrapped, err := rsa.EncryptPKCS1v15(rand.Reader, recipient, key)
	if err != nil {
		return Envelope{}, c.fail("wrap", "cannot wrap session key", err)
	}
	return Envelope{Body: body, WrappedKey: wrapped}, nil
}

// VerifySignature checks a PKCS#1 v1.5 signature over body, accepting the digests clients sign with
func (c *CryptoChannel) VerifySignature(body, signature []byte, public *rsa.PublicKey) error {
	if err := verifyPKCS1(body, signature, public); err != nil {
		return c.fail("verify", "signature verification failed", err)
	}
	return nil
}

func verifyPKCS1(body, signature []byte, public *rsa.PublicKey) error {
	sha256Sum := sha256.Sum256(body)
	sha224Sum := sha256.Sum224(body)
	sha384Sum := sha512.Sum384(body)
	sha512Sum := sha512.Sum512(body)
	sha1Sum := sha1.Sum(body)
	md5Sum := md5.Sum(body)

	candidates := []struct {
		hash   crypto.Hash
		digest []byte
	}{
		{crypto.SHA256, sha256Sum[:]},
		{crypto.SHA384, sha384Sum[:]},
		{crypto.SHA512, sha512Sum[:]},
		{crypto.SHA224, sha224Sum[:]},
		{crypto.SHA1, sha1Sum[:]},
		{crypto.MD5, md5Sum[:]},
	}
	var err error
	for _, candidate := range candidates {
		if err = rsa.VerifyPKCS1v15(public, candidate.hash, candidate.digest, signature); err == nil {
			return nil
		}
	}
	return err
}

// xorCTR runs AES in counter mode with a 16-byte big-endian counter starting at 1.
// Encryption and decryption are the same operation.
func xorCTR(key, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, aes.BlockSize)
	iv[aes.BlockSize-1] = 1
	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}

// ParsePublicKey reads the "<modulus>:<exponent>" decimal form
func ParsePublicKey(s string) (*rsa.PublicKey, error) {
	n, e, ok := strings.Cut(s, ":")
	if !ok {
		return nil, apperr.Validation("public key must be <modulus>:<exponent>")
	}
	modulus, ok := new(big.Int).SetString(strings.TrimSpace(n), 10)
	if !ok || modulus.Sign() <= 0 {
		return nil, apperr.Validation("public key modulus is not a positive integer")
	}
	exponent, err := strconv.Atoi(strings.TrimSpace(e))
	if err != nil || exponent < 3 || exponent%2 == 0 {
		return nil, apperr.Validation("public key exponent is not valid")
	}
	return &rsa.PublicKey{N: modulus, E: exponent}, nil
}

func FormatPublicKey(public *rsa.PublicKey) string {
	return public.N.String() + ":" + strconv.Itoa(public.E)
}

// Fingerprint identifies a public key: SHA3-256 over its canonical textual form, hex encoded
func Fingerprint(public *rsa.PublicKey) string {
	sum := sha3.Sum256([]byte(FormatPublicKey(public)))
	return hex.EncodeToString(sum[:])
}

func GenerateKeyPair(bits int) (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, bits)
}

// StoreServerKey persists key as the server key pair
func StoreServerKey(keys repository.ServerKeyRepository, key *rsa.PrivateKey) error {
	return keys.Save(&entity.ServerKey{
		PrivateKey: x509.MarshalPKCS1PrivateKey(key),
		PublicKey:  FormatPublicKey(&key.PublicKey),
	})
}

// LoadServerKey reads the server key pair written at bootstrap
func LoadServerKey(keys repository.ServerKeyRepository) (*rsa.PrivateKey, error) {
	stored, err := keys.Get()
	if err != nil {
		return nil, fmt.Errorf("loading server key: %w", err)
	}
	key, err := x509.ParsePKCS1PrivateKey(stored.PrivateKey)
	if err != nil {
		return nil, apperr.Crypto("stored server key is corrupted", err)
	}
	return key, nil
}
