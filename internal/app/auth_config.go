package app

import (
	"strings"

	"github.com/campusfix/campusfix/internal/auth"
	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/services"
)

const defaultRefreshLength = 48

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// SessionServiceConfig converts AuthConfig into SessionService parameters.
func (c AuthConfig) SessionServiceConfig() auth.SessionConfig {
	ttl := c.Session.RefreshTTL
	if ttl <= 0 {
		ttl = auth.DefaultRefreshTokenTTL
	}

	length := c.Session.RefreshLength
	if length <= 0 {
		length = defaultRefreshLength
	}

	return auth.SessionConfig{
		RefreshTokenTTL: ttl,
		RefreshLength:   length,
	}
}

// OTPServiceConfig converts AuthConfig into OTPService parameters.
func (c AuthConfig) OTPServiceConfig() auth.OTPConfig {
	ttl := c.OTP.TTL
	if ttl <= 0 {
		ttl = auth.DefaultOTPTTL
	}
	return auth.OTPConfig{
		Issuer: strings.TrimSpace(c.OTP.Issuer),
		TTL:    ttl,
	}
}

// UserServiceConfig restricts self-registration to the configured roles.
// Unknown role names are dropped.
func (c AuthConfig) UserServiceConfig() services.UserConfig {
	var roles []models.Role
	for _, name := range c.RegistrationRoles {
		role := models.Role(strings.ToLower(strings.TrimSpace(name)))
		if !role.Valid() {
			continue
		}
		roles = append(roles, role)
	}
	return services.UserConfig{RegistrationRoles: roles}
}

// TransitionPolicy maps the tickets section onto the status transition rules.
func (c TicketsConfig) TransitionPolicy() services.TransitionPolicy {
	return services.TransitionPolicy{Strict: c.StrictTransitions}
}
