package platform

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// OAuth1 signs requests per RFC 5849 with HMAC-SHA1, the scheme the X v1.1
// endpoints still require. Nonce and Timestamp are normally generated per
// request; tests pin them to reproduce known signatures.
type OAuth1 struct {
	ConsumerKey    string
	ConsumerSecret string
	Nonce          string
	Timestamp      string
}

// AuthHeader builds the Authorization header for one request. params must
// contain every query and body parameter that participates in the signature.
// token and tokenSecret are empty during the request-token step.
func (o *OAuth1) AuthHeader(method, rawURL string, params url.Values, token, tokenSecret string) string {
	oauthParams := map[string]string{
		"oauth_consumer_key":     o.ConsumerKey,
		"oauth_nonce":            o.nonce(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        o.timestamp(),
		"oauth_version":          "1.0",
	}
	if token != "" {
		oauthParams["oauth_token"] = token
	}

	// The oauth_* protocol parameters passed in via params (callback,
	// verifier) sign and serialize like the generated ones.
	for key := range params {
		if strings.HasPrefix(key, "oauth_") {
			oauthParams[key] = params.Get(key)
		}
	}

	signature := o.sign(signatureBaseString(method, rawURL, params, oauthParams), tokenSecret)
	oauthParams["oauth_signature"] = signature

	keys := make([]string, 0, len(oauthParams))
	for key := range oauthParams {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf(`%s="%s"`, percentEncode(key), percentEncode(oauthParams[key])))
	}

	return "OAuth " + strings.Join(pairs, ", ")
}

// signatureBaseString canonicalizes the request: uppercase method, the URL
// stripped of query and fragment, and every parameter percent-encoded,
// sorted and joined — all three segments themselves percent-encoded.
func signatureBaseString(method, rawURL string, params url.Values, oauthParams map[string]string) string {
	encoded := make([]string, 0, len(params)+len(oauthParams))
	for key, values := range params {
		if strings.HasPrefix(key, "oauth_") {
			continue
		}
		for _, value := range values {
			encoded = append(encoded, percentEncode(key)+"="+percentEncode(value))
		}
	}
	for key, value := range oauthParams {
		encoded = append(encoded, percentEncode(key)+"="+percentEncode(value))
	}
	sort.Strings(encoded)

	baseURL := rawURL
	if i := strings.IndexAny(baseURL, "?#"); i >= 0 {
		baseURL = baseURL[:i]
	}

	return strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(strings.Join(encoded, "&"))
}

// sign computes base64(HMAC-SHA1(baseString)) keyed by
// consumerSecret&tokenSecret, both percent-encoded.
func (o *OAuth1) sign(baseString, tokenSecret string) string {
	key := percentEncode(o.ConsumerSecret) + "&" + percentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(baseString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode implements RFC 3986 encoding: unreserved characters pass
// through, everything else becomes uppercase %XX. url.QueryEscape is not
// usable here because it emits '+' for spaces.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
		} else {
			b.WriteString("%" + strings.ToUpper(hex.EncodeToString([]byte{c})))
		}
	}
	return b.String()
}

func (o *OAuth1) nonce() string {
	if o.Nonce != "" {
		return o.Nonce
	}
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func (o *OAuth1) timestamp() string {
	if o.Timestamp != "" {
		return o.Timestamp
	}
	return fmt.Sprintf("%d", time.Now().Unix())
}
