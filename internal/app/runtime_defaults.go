package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/campusfix/campusfix/internal/middleware"
	"github.com/campusfix/campusfix/pkg/crypto"
)

const (
	jwtSecretBytes     = 48
	adminPasswordBytes = 12
)

// Generated reports what ApplyRuntimeDefaults filled in.
type Generated struct {
	JWTSecret bool
	// AdminPassword is the generated bootstrap superuser password. It is shown
	// once in the start-up log and never stored in clear.
	AdminPassword string
	AdminEmail    bool
}

// ApplyRuntimeDefaults fills values the portal cannot start without when no
// configuration supplies them: the token signing secret, the bootstrap
// superuser's credentials and the browser routing defaults.
func ApplyRuntimeDefaults(cfg *Config) (Generated, error) {
	var out Generated
	if cfg == nil {
		return out, errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return out, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		out.JWTSecret = true
	}

	admin := &cfg.Bootstrap.Admin
	if collegeID := strings.TrimSpace(admin.CollegeID); collegeID != "" {
		if strings.TrimSpace(admin.Email) == "" {
			admin.Email = strings.ToLower(collegeID) + "@campusfix.local"
			out.AdminEmail = true
		}
		if admin.Password == "" {
			password, err := crypto.GenerateToken(adminPasswordBytes)
			if err != nil {
				return out, fmt.Errorf("generate admin password: %w", err)
			}
			admin.Password = password
			out.AdminPassword = password
		}
	}

	if strings.TrimSpace(cfg.Server.LoginPath) == "" {
		cfg.Server.LoginPath = middleware.DefaultLoginPath
	}
	if strings.TrimSpace(cfg.Server.Cookie.Name) == "" {
		cfg.Server.Cookie.Name = middleware.DefaultSessionCookie
	}

	return out, nil
}
