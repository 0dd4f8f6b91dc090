package objectstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	signingAlgorithm = "AWS4-HMAC-SHA256"
	signingService   = "s3"
	emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// Credentials hold the access key pair for the object store.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// Signer produces date-scoped request signatures: a canonical request is
// hashed, then signed with an HMAC chain derived from the secret key and
// the request date.
type Signer struct {
	creds  Credentials
	region string
	now    func() time.Time
}

// NewSigner constructs a request signer for the given region.
func NewSigner(creds Credentials, region string) *Signer {
	return &Signer{creds: creds, region: region, now: time.Now}
}

// Sign adds the date, payload-hash and authorization headers to req.
// payloadHash is the hex SHA-256 of the request body; pass an empty string
// for body-less requests.
func (s *Signer) Sign(req *http.Request, payloadHash string) {
	if payloadHash == "" {
		payloadHash = emptyPayloadHash
	}

	timestamp := s.now().UTC().Format("20060102T150405Z")
	date := timestamp[:8]

	req.Header.Set("X-Amz-Date", timestamp)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)
	if req.Header.Get("Host") == "" {
		req.Header.Set("Host", req.URL.Host)
	}

	canonicalRequest, signedHeaders := canonicalize(req, payloadHash)

	scope := fmt.Sprintf("%s/%s/%s/aws4_request", date, s.region, signingService)
	stringToSign := strings.Join([]string{
		signingAlgorithm,
		timestamp,
		scope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	signingKey := s.deriveKey(date)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	req.Header.Set("Authorization", fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		signingAlgorithm, s.creds.AccessKey, scope, signedHeaders, signature,
	))
}

// deriveKey walks the HMAC chain secret -> date -> region -> service.
func (s *Signer) deriveKey(date string) []byte {
	key := hmacSHA256([]byte("AWS4"+s.creds.SecretKey), date)
	key = hmacSHA256(key, s.region)
	key = hmacSHA256(key, signingService)
	return hmacSHA256(key, "aws4_request")
}

// canonicalize builds the canonical request string and the signed-headers
// list from the request's current headers.
func canonicalize(req *http.Request, payloadHash string) (string, string) {
	names := make([]string, 0, len(req.Header))
	canonical := make(map[string]string, len(req.Header))
	for name, values := range req.Header {
		lower := strings.ToLower(name)
		names = append(names, lower)
		canonical[lower] = strings.TrimSpace(strings.Join(values, ","))
	}
	sort.Strings(names)

	var headerLines strings.Builder
	for _, name := range names {
		headerLines.WriteString(name)
		headerLines.WriteString(":")
		headerLines.WriteString(canonical[name])
		headerLines.WriteString("\n")
	}

	signedHeaders := strings.Join(names, ";")

	uri := req.URL.EscapedPath()
	if uri == "" {
		uri = "/"
	}

	canonicalRequest := strings.Join([]string{
		req.Method,
		uri,
		req.URL.Query().Encode(),
		headerLines.String(),
		signedHeaders,
		payloadHash,
	}, "\n")

	return canonicalRequest, signedHeaders
}

func hmacSHA256(key []byte, message string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return mac.Sum(nil)
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
