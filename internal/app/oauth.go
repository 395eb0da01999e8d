package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/custodio-dev/custodio/internal/infrastructure/logger"
)

// GoogleOAuthService runs the one-time interactive flow that produces the
// Drive token the engine's remote store consumes. The token is persisted
// to tokenFile; the engine itself never touches credentials.
type GoogleOAuthService struct {
	config     *oauth2.Config
	logger     *logger.Logger
	tokenFile  string
	authServer *http.Server
}

func NewGoogleOAuthService(log *logger.Logger, clientSecretPath, tokenFile string) (*GoogleOAuthService, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if clientSecretPath == "" {
		return nil, errors.New("client secret path cannot be empty")
	}
	if tokenFile == "" {
		return nil, errors.New("token file path cannot be empty")
	}

	b, err := os.ReadFile(clientSecretPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret: %w", err)
	}

	cfg, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret: %w", err)
	}

	return &GoogleOAuthService{
		config:    cfg,
		logger:    log,
		tokenFile: tokenFile,
	}, nil
}

// StartAuthServer serves the login redirect and callback. The callback
// exchanges the authorization code and persists the token.
func (s *GoogleOAuthService) StartAuthServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/google/drive", func(w http.ResponseWriter, r *http.Request) {
		authURL := s.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
		http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
	})

	mux.HandleFunc("GET /auth/google/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code parameter", http.StatusBadRequest)
			return
		}

		token, err := s.config.Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, fmt.Sprintf("token exchange failed: %v", err), http.StatusInternalServerError)
			return
		}

		if err := s.saveToken(token); err != nil {
			http.Error(w, fmt.Sprintf("failed to save token: %v", err), http.StatusInternalServerError)
			return
		}

		s.logger.Infof("Drive token saved to %s", s.tokenFile)

		if token.RefreshToken == "" {
			fmt.Fprintln(w, "⚠️ Token saved, but no refresh token returned. Revoke app access & re-authorize.")
			return
		}
		fmt.Fprintf(w, "✅ Authorization complete. Token saved to %s — backups can now upload to Drive.", s.tokenFile)
	})

	s.authServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Infof("Google Drive OAuth server listening on %s — visit /auth/google/drive to authorize", addr)
		if err := s.authServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("OAuth server error: %v", err)
		}
	}()

	return nil
}

func (s *GoogleOAuthService) saveToken(token *oauth2.Token) error {
	f, err := os.OpenFile(s.tokenFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(token); err != nil {
		return fmt.Errorf("unable to encode token: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the OAuth server.
func (s *GoogleOAuthService) Shutdown(ctx context.Context) error {
	if s.authServer == nil {
		return nil
	}

	if err := s.authServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown OAuth server: %w", err)
	}
	s.logger.Infof("OAuth server stopped")
	return nil
}
