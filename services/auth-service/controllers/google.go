package controllers

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/services"
)

const googleProvider = "google"

// GothicGoogle runs the Google OAuth flow through gothic. The short-lived
// OAuth state lives in a gorilla cookie store.
type GothicGoogle struct{}

// NewGothicGoogle registers the Google provider and the state cookie store.
func NewGothicGoogle(clientID, clientSecret, callbackURL, sessionSecret string, secure bool) *GothicGoogle {
	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store
	goth.UseProviders(google.New(clientID, clientSecret, callbackURL, "email", "profile"))
	return &GothicGoogle{}
}

func (GothicGoogle) Begin(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, gothic.GetContextWithProvider(r, googleProvider))
}

func (GothicGoogle) Complete(w http.ResponseWriter, r *http.Request) (services.GoogleProfile, error) {
	u, err := gothic.CompleteUserAuth(w, gothic.GetContextWithProvider(r, googleProvider))
	if err != nil {
		return services.GoogleProfile{}, err
	}
	return services.GoogleProfile{
		ID:        u.UserID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
	}, nil
}
