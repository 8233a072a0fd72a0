package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "12345:test-token"

// signInitData produces init data the way Telegram does.
func signInitData(t *testing.T, fields map[string]string) string {
	t.Helper()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(testBotToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func TestValidateInitDataAccepted(t *testing.T) {
	initData := signInitData(t, map[string]string{
		"auth_date": "1756500000",
		"query_id":  "AAE1",
		"user":      `{"id":42,"username":"padel_fan","first_name":"Анна"}`,
	})

	user, err := ValidateInitData(initData, testBotToken)

	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "padel_fan", user.Username)
	assert.Equal(t, "Анна", user.FirstName)
}

func TestValidateInitDataTamperedUser(t *testing.T) {
	initData := signInitData(t, map[string]string{
		"auth_date": "1756500000",
		"user":      `{"id":42,"first_name":"Анна"}`,
	})
	tampered := strings.Replace(initData, "42", "43", 1)

	_, err := ValidateInitData(tampered, testBotToken)
	assert.Error(t, err)
}

func TestValidateInitDataWrongToken(t *testing.T) {
	initData := signInitData(t, map[string]string{
		"auth_date": "1756500000",
		"user":      `{"id":42,"first_name":"Анна"}`,
	})

	_, err := ValidateInitData(initData, "other-token")
	assert.Error(t, err)
}

func TestValidateInitDataMissingHash(t *testing.T) {
	_, err := ValidateInitData("auth_date=1&user=%7B%22id%22%3A42%7D", testBotToken)
	assert.Error(t, err)
}
