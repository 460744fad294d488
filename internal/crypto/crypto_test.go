package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecret_RoundTrip(t *testing.T) {
	blob, err := EncryptSecret("my-api-secret", "hunter2")
	require.NoError(t, err)

	secret, err := DecryptSecret(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "my-api-secret", secret)
}

func TestDecryptSecret_WrongPassword(t *testing.T) {
	blob, err := EncryptSecret("my-api-secret", "hunter2")
	require.NoError(t, err)

	_, err = DecryptSecret(blob, "wrong")
	assert.Error(t, err)
}

func TestEncryptSecret_UniqueCiphertexts(t *testing.T) {
	a, err := EncryptSecret("same-secret", "pw")
	require.NoError(t, err)
	b, err := EncryptSecret("same-secret", "pw")
	require.NoError(t, err)

	// Random salt and nonce make repeated encryptions differ.
	assert.NotEqual(t, string(a), string(b))
}

func TestEncryptSecret_EmptyInputs(t *testing.T) {
	_, err := EncryptSecret("", "pw")
	assert.Error(t, err)

	_, err = EncryptSecret("secret", "")
	assert.Error(t, err)
}

func TestLoadSecret(t *testing.T) {
	// Raw secret short-circuits.
	secret, err := LoadSecret(SecretConfig{RawSecret: "raw"})
	require.NoError(t, err)
	assert.Equal(t, "raw", secret)

	// Encrypted file path.
	blob, err := EncryptSecret("from-file", "pw")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "secret.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	secret, err = LoadSecret(SecretConfig{EncryptedPath: path, Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "from-file", secret)

	// No source configured.
	_, err = LoadSecret(SecretConfig{})
	assert.Error(t, err)
}

func TestHMACAuth_Headers(t *testing.T) {
	auth := &HMACAuth{Key: "key", Secret: "secret", Passphrase: "phrase"}

	const ts = "2026-08-30T12:00:00.000Z"
	headers := auth.headersAt(ts, "GET", "/api/v5/account/balance", "")

	assert.Equal(t, "key", headers["OK-ACCESS-KEY"])
	assert.Equal(t, ts, headers["OK-ACCESS-TIMESTAMP"])
	assert.Equal(t, "phrase", headers["OK-ACCESS-PASSPHRASE"])

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(ts + "GET" + "/api/v5/account/balance"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, headers["OK-ACCESS-SIGN"])
}

func TestHMACAuth_SignatureCoversBody(t *testing.T) {
	auth := &HMACAuth{Key: "key", Secret: "secret", Passphrase: "phrase"}

	const ts = "2026-08-30T12:00:00.000Z"
	empty := auth.headersAt(ts, "POST", "/api/v5/trade/order", "")
	withBody := auth.headersAt(ts, "POST", "/api/v5/trade/order", `{"instId":"BTC-USDT"}`)

	assert.NotEqual(t, empty["OK-ACCESS-SIGN"], withBody["OK-ACCESS-SIGN"])
}
