package upbit

import (
	"crypto/sha512"
	"encoding/hex"
	"net/url"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// canonicalQuery: строка, от которой считается query_hash. Ключи отсортированы,
// значения не экранируются, как это делает биржа при проверке.
func canonicalQuery(params url.Values) string {
	encoded := params.Encode()
	if unescaped, err := url.QueryUnescape(encoded); err == nil {
		return unescaped
	}
	return encoded
}

func queryHash(params url.Values) string {
	sum := sha512.Sum512([]byte(canonicalQuery(params)))
	return hex.EncodeToString(sum[:])
}

// token выпускает одноразовый JWT: новый nonce на каждый запрос.
func (c *Client) token(params url.Values) (string, error) {
	claims := jwt.MapClaims{
		"access_key": c.accessKey,
		"nonce":      uuid.NewString(),
	}
	if len(params) > 0 {
		claims["query_hash"] = queryHash(params)
		claims["query_hash_alg"] = "SHA512"
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.secretKey))
	if err != nil {
		return "", errors.Wrap(err, "Не удалось подписать токен")
	}
	return signed, nil
}
