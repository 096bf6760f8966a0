package blob

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "scriba/pkg/domain-errors"
)

// Signer issues and verifies time-limited download URLs. The token carries
// only the blob path; possession of an unexpired token grants the download.
type Signer struct {
	key     []byte
	baseURL string
}

func NewSigner(key, baseURL string) *Signer {
	return &Signer{key: []byte(key), baseURL: baseURL}
}

// SignedURL returns a retrieval URL for the blob, valid for ttl.
func (s *Signer) SignedURL(path string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": path,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "sign download URL", err)
	}
	return s.baseURL + "/documents/download/" + signed, nil
}

// Verify checks a download token and returns the blob path it grants.
func (s *Signer) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid or expired download token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid download token")
	}
	return sub, nil
}
