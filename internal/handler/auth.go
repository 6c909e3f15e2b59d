package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/otabek/ijara/internal/apperror"
	"github.com/otabek/ijara/internal/auth"
)

// AuthHandler exchanges Telegram Mini App init data for a session cookie.
//
// The mini app posts the raw initData string it received from the Telegram
// client. We verify its HMAC signature against the bot token, and if it
// checks out, issue a short-lived session token in an HttpOnly cookie.
// Nothing about the user is trusted until the signature has been verified.
type AuthHandler struct {
	verifier *auth.InitDataVerifier
	tokens   *auth.TokenService
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(verifier *auth.InitDataVerifier, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{verifier: verifier, tokens: tokens, logger: logger}
}

type telegramAuthRequest struct {
	InitData string `json:"initData"`
}

// HandleTelegramAuth verifies init data and starts a session.
//
// HTTP: POST /api/auth/telegram
// REQUEST BODY: {"initData": "query_id=...&user=...&auth_date=...&hash=..."}
//
// On success it sets the session cookie and echoes the verified user, so
// the frontend can show who is signed in without re-parsing initData.
func (h *AuthHandler) HandleTelegramAuth(w http.ResponseWriter, r *http.Request) {
	var req telegramAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	user, err := h.verifier.Verify(req.InitData)
	if err != nil {
		h.logger.Warn("init data verification failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	token, err := h.tokens.Generate(*user)
	if err != nil {
		h.logger.Error("session token generation failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("session started", slog.Int64("telegram_id", user.ID))
	writeJSON(w, http.StatusOK, user)
}
