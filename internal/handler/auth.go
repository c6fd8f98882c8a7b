package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dulakshi2002/Edu-Code/internal/auth"
	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

// requireAuth resolves the caller from the access token and stores the user
// in the request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromRequest(r)
		if token == "" {
			respondError(w, r, errUnauthorized, "")
			return
		}
		claims, err := h.issuer.Parse(token)
		if err != nil {
			slog.Debug("rejected access token", "error", err)
			respondError(w, r, errUnauthorized, "")
			return
		}

		user, err := h.store.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			respondError(w, r, err, "")
			return
		}
		if user == nil {
			respondError(w, r, errUnauthorized, "")
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin must run after requireAuth.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := model.UserFromContext(r.Context())
		if user == nil {
			respondError(w, r, errUnauthorized, "")
			return
		}
		if !user.IsAdmin {
			respondError(w, r, errForbidden, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// canModify reports whether user may change a document owned by ownerID.
func canModify(user *model.User, ownerID string) bool {
	return user != nil && (user.IsAdmin || user.ID == ownerID)
}

type signinResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in model.SignupInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, r, err, "")
		return
	}

	user, err := h.store.CreateUser(r.Context(), model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		respondError(w, r, err, "User")
		return
	}
	slog.Info("user signed up", "user_id", user.ID, "username", user.Username)
	respondOK(w, r, http.StatusCreated, "SignedUp", user)
}

func (h *Handler) handleSignin(w http.ResponseWriter, r *http.Request) {
	var in model.SigninInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), in.Email)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if user == nil {
		respondError(w, r, errInvalidCredentials, "")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		respondError(w, r, errInvalidCredentials, "")
		return
	}

	token, exp, err := h.issuer.Issue(user)
	if err != nil {
		respondError(w, r, err, "")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(h.issuer.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	respondOK(w, r, http.StatusOK, "SignedIn", signinResponse{Token: token, ExpiresAt: exp, User: user})
}

func (h *Handler) handleSignout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	respondOK(w, r, http.StatusOK, "SignedOut", nil)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, http.StatusOK, "UserFetched", model.UserFromContext(r.Context()))
}
