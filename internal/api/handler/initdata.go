package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// InitDataUser is the Telegram user embedded in Mini-App init data.
type InitDataUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// ValidateInitData verifies the HMAC signature Telegram attaches to Mini-App
// init data and returns the embedded user. The secret key is
// HMAC-SHA256(key="WebAppData", message=botToken); the signed payload is all
// fields except hash, sorted, joined as "k=v" lines.
func ValidateInitData(initData, botToken string) (InitDataUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return InitDataUser{}, fmt.Errorf("parse init data: %w", err)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return InitDataUser{}, fmt.Errorf("init data has no hash")
	}
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	checkString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	wantHash := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(wantHash), []byte(gotHash)) {
		return InitDataUser{}, fmt.Errorf("init data signature mismatch")
	}

	var user InitDataUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil {
		return InitDataUser{}, fmt.Errorf("decode init data user: %w", err)
	}
	if user.ID == 0 {
		return InitDataUser{}, fmt.Errorf("init data user has no id")
	}
	return user, nil
}
