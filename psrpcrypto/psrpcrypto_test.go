package psrpcrypto

import (
	"testing"

	"github.com/smnsjas/go-psrpcore/clixml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionKeyExchangeRoundTrip(t *testing.T) {
	clientKey, err := GenerateKeyPair()
	require.NoError(t, err)

	pubB64 := EncodePublicKeyBase64(&clientKey.PublicKey)
	pub, err := DecodePublicKeyBase64(pubB64)
	require.NoError(t, err)

	sessionKey, err := GenerateSessionKey()
	require.NoError(t, err)
	require.Len(t, sessionKey, 32)

	encB64, err := EncryptSessionKey(pub, sessionKey)
	require.NoError(t, err)

	got, err := DecryptSessionKey(clientKey, encB64)
	require.NoError(t, err)
	assert.Equal(t, sessionKey, got)
}

func TestAESProviderRequiresSessionKey(t *testing.T) {
	p := NewAESProvider()
	_, err := p.Encrypt("hello")
	require.Error(t, err)
	assert.True(t, clixml.IsCryptoUnavailable(err))
}

func TestAESProviderEncryptDecryptRoundTrip(t *testing.T) {
	p := NewAESProvider()
	key, err := GenerateSessionKey()
	require.NoError(t, err)
	require.NoError(t, p.RegisterSessionKey(key))

	ct, err := p.Encrypt("hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, ct)

	pt, err := p.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pt)
}

func TestAESProviderRejectsInvalidKeySize(t *testing.T) {
	p := NewAESProvider()
	err := p.RegisterSessionKey([]byte("too-short"))
	assert.Error(t, err)
}

func TestAESProviderRejectsTamperedCiphertext(t *testing.T) {
	p := NewAESProvider()
	key, err := GenerateSessionKey()
	require.NoError(t, err)
	require.NoError(t, p.RegisterSessionKey(key))

	ct, err := p.Encrypt("data")
	require.NoError(t, err)
	tampered := ct[:len(ct)-4] + "AAAA"
	_, err = p.Decrypt(tampered)
	assert.Error(t, err)
}
