// Package crypto provides request signing and API-secret management for the
// OKX v5 REST API.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// HMACAuth holds the credentials required for authenticated OKX v5 requests.
type HMACAuth struct {
	Key        string // API key
	Secret     string // API secret
	Passphrase string // API passphrase
}

// Headers returns the HTTP headers for a signed OKX request. The signature is
// HMAC-SHA256(secret, timestamp+method+requestPath+body) encoded as base64,
// with the timestamp in ISO-8601 millisecond format.
//
// Returned header keys:
//   - OK-ACCESS-KEY
//   - OK-ACCESS-TIMESTAMP
//   - OK-ACCESS-PASSPHRASE
//   - OK-ACCESS-SIGN
func (h *HMACAuth) Headers(method, requestPath, body string) map[string]string {
	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	return h.headersAt(ts, method, requestPath, body)
}

// headersAt is split out so tests can sign with a fixed timestamp.
func (h *HMACAuth) headersAt(ts, method, requestPath, body string) map[string]string {
	message := ts + method + requestPath + body
	sig := hmacSHA256Base64([]byte(h.Secret), message)

	return map[string]string{
		"OK-ACCESS-KEY":        h.Key,
		"OK-ACCESS-TIMESTAMP":  ts,
		"OK-ACCESS-PASSPHRASE": h.Passphrase,
		"OK-ACCESS-SIGN":       sig,
	}
}

func hmacSHA256Base64(secret []byte, message string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
