package psrpcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"unicode/utf16"

	"github.com/smnsjas/go-psrpcore/clixml"
)

// AESProvider implements clixml.CryptoProvider with AES-CBC/PKCS#7 once a
// session key has been registered (spec.md §4.6: "The negotiated AES key is
// handed to the CryptoProvider which performs AES-CBC with PKCS#7 padding
// and a per-message random IV prepended to the ciphertext").
//
// Secure-string plaintext is transcoded to UTF-16LE before encryption and
// back after decryption, matching the byte layout PowerShell's own
// SecureString marshalling uses on the wire — a CLIXML string element's
// text is UTF-8, but the encrypted payload underneath it is not.
type AESProvider struct {
	mu  sync.RWMutex
	key []byte
}

// NewAESProvider returns a provider with no session key installed; every
// Encrypt/Decrypt call fails with CryptoUnavailableError until
// RegisterSessionKey succeeds.
func NewAESProvider() *AESProvider {
	return &AESProvider{}
}

var _ clixml.CryptoProvider = (*AESProvider)(nil)

// RegisterSessionKey installs key (must be 16, 24, or 32 bytes — AES-128/
// 192/256). PSRP negotiates 256-bit keys (spec.md §4.6) but this accepts
// any valid AES key size so a provider can also be driven directly in
// tests.
func (p *AESProvider) RegisterSessionKey(key []byte) error {
	if _, err := aes.NewCipher(key); err != nil {
		return fmt.Errorf("psrpcrypto: invalid session key: %w", err)
	}
	p.mu.Lock()
	p.key = append([]byte(nil), key...)
	p.mu.Unlock()
	return nil
}

func (p *AESProvider) cipherBlock() (cipher.Block, error) {
	p.mu.RLock()
	key := p.key
	p.mu.RUnlock()
	if key == nil {
		return nil, &clixml.CryptoUnavailableError{Op: "no session key registered"}
	}
	return aes.NewCipher(key)
}

// Encrypt renders text as UTF-16LE, PKCS#7-pads it to the AES block size,
// CBC-encrypts under a fresh random IV, and returns base64(IV || ciphertext).
func (p *AESProvider) Encrypt(text string) (string, error) {
	block, err := p.cipherBlock()
	if err != nil {
		return "", err
	}

	plain := utf16LEBytes(text)
	plain = pkcs7Pad(plain, block.BlockSize())

	out := make([]byte, block.BlockSize()+len(plain))
	iv := out[:block.BlockSize()]
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("psrpcrypto: generate iv: %w", err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[block.BlockSize():], plain)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt is the inverse of Encrypt.
func (p *AESProvider) Decrypt(ciphertext string) (string, error) {
	block, err := p.cipherBlock()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("psrpcrypto: decode ciphertext base64: %w", err)
	}
	blockSize := block.BlockSize()
	if len(raw) < blockSize || (len(raw)-blockSize)%blockSize != 0 {
		return "", fmt.Errorf("psrpcrypto: ciphertext is not a whole number of blocks")
	}

	iv, body := raw[:blockSize], raw[blockSize:]
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)

	plain, err = pkcs7Unpad(plain, blockSize)
	if err != nil {
		return "", err
	}
	return utf16LEString(plain)
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	padLen := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+padLen)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("psrpcrypto: invalid padded length")
	}
	padLen := int(b[len(b)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(b) {
		return nil, fmt.Errorf("psrpcrypto: invalid pkcs7 padding")
	}
	for _, c := range b[len(b)-padLen:] {
		if int(c) != padLen {
			return nil, fmt.Errorf("psrpcrypto: invalid pkcs7 padding")
		}
	}
	return b[:len(b)-padLen], nil
}

func utf16LEBytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[i*2] = byte(u)
		out[i*2+1] = byte(u >> 8)
	}
	return out
}

func utf16LEString(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", fmt.Errorf("psrpcrypto: decrypted plaintext has odd byte length")
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[i*2]) | uint16(b[i*2+1])<<8
	}
	return string(utf16.Decode(units)), nil
}
