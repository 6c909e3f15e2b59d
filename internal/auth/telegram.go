// Package auth resolves the identity of the invoking Telegram user.
//
// IDENTITY FLOW:
// 1. Telegram opens the Mini-App with a signed initData string attached
// 2. The front posts it to /api/auth/telegram
// 3. The server verifies the HMAC signature against the bot token and
//    reads the user snapshot (id, username, names) out of it
// 4. A short-lived session JWT carrying that snapshot goes into an
//    HttpOnly cookie; subsequent API calls are authenticated by middleware
//
// The client-visible user object (initDataUnsafe in Telegram's JS API) is
// exactly that — unsafe. Only the verified copy is ever trusted.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/otabek/ijara/internal/apperror"
)

// TelegramUser is the verified snapshot of the invoking user, as embedded
// in initData by Telegram itself.
type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName joins the given and family names, trimmed. Either part may be
// empty — Telegram only guarantees a first name.
func (u TelegramUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// InitDataVerifier checks the authenticity of Telegram Mini-App initData.
//
// The verification key is not the bot token itself but
// HMAC-SHA256("WebAppData", botToken), per Telegram's Web App spec. It is
// derived once at construction.
type InitDataVerifier struct {
	secret []byte
	maxAge time.Duration
}

// NewInitDataVerifier derives the verification secret from the bot token.
// maxAge bounds how old the initData's auth_date may be; 0 disables the
// freshness check (tests only — replayed initData is otherwise valid
// forever).
func NewInitDataVerifier(botToken string, maxAge time.Duration) *InitDataVerifier {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return &InitDataVerifier{secret: mac.Sum(nil), maxAge: maxAge}
}

// Verify checks the signature and freshness of raw initData (the
// query-string shaped blob Telegram hands the Mini-App) and returns the
// user snapshot embedded in it.
//
// THE DATA-CHECK-STRING:
// Telegram signs all fields except "hash": sort them by key, render each
// as "key=value", join with newlines, then HMAC with the derived secret.
// The hex digest must equal the "hash" field. hmac.Equal compares in
// constant time.
func (v *InitDataVerifier) Verify(initData string) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, apperror.Unauthorized("malformed init data")
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, apperror.Unauthorized("init data carries no signature")
	}
	values.Del("hash")

	pairs := make([]string, 0, len(values))
	for key := range values {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strings.Join(pairs, "\n")))
	wantHash := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(gotHash), []byte(wantHash)) {
		return nil, apperror.Unauthorized("init data signature mismatch")
	}

	if v.maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return nil, apperror.Unauthorized("init data carries no auth date")
		}
		if time.Since(time.Unix(authDate, 0)) > v.maxAge {
			return nil, apperror.Unauthorized("init data expired, reopen the app")
		}
	}

	var user TelegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil {
		return nil, apperror.Unauthorized("init data carries no user")
	}
	if user.ID == 0 {
		return nil, apperror.Unauthorized("init data user has no id")
	}

	return &user, nil
}
