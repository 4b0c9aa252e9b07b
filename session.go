package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func (c *APIClient) WhoAmI(ctx context.Context) (*WhoAmI, error) {
	var identity WhoAmI
	if err := c.Call(ctx, http.MethodGet, "users.whoami", nil, nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// Session is the authentication context shared by every command.
// Ending it clears the session cache and resets the filter store.
type Session struct {
	api        *APIClient
	clearCache func() error
	filters    *FilterStore
}

// NewSession builds a session. clearCache empties the session cache on logout and may be nil.
func NewSession(api *APIClient, clearCache func() error, filters *FilterStore) *Session {
	return &Session{api: api, clearCache: clearCache, filters: filters}
}

// WhoAmI asks the API who the credentials belong to.
// A 401 or 403 ends the session and returns ErrLoggedOut.
func (s *Session) WhoAmI(ctx context.Context) (*WhoAmI, error) {
	identity, err := s.api.WhoAmI(ctx)
	if err != nil {
		var apiErr APIError
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
			if logoutErr := s.Logout(); logoutErr != nil {
				log.Error().Err(logoutErr).Msg("Failed to tear down session")
			}
			return nil, errors.Wrap(ErrLoggedOut, apiErr.Error())
		}
		return nil, errors.Wrap(err, "whoami failed")
	}
	return identity, nil
}

// Poll re-checks the identity every interval until ctx ends or the session is lost.
// onChange is called with the first identity and then whenever it differs from the previous poll.
func (s *Session) Poll(ctx context.Context, interval time.Duration, onChange func(*WhoAmI)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *WhoAmI
	for {
		identity, err := s.WhoAmI(ctx)
		if errors.Is(err, ErrLoggedOut) {
			return err
		} else if err != nil {
			log.Warn().Err(err).Msg("Session Check Failed")
		} else if last == nil || *identity != *last {
			last = identity
			log.Debug().Int("id", identity.Id).Str("username", identity.Username).Msg("Session Identity")
			if onChange != nil {
				onChange(identity)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Logout resets the filters and clears everything cached for the session.
func (s *Session) Logout() error {
	if s.filters != nil {
		s.filters.Reset()
	}
	if s.clearCache != nil {
		return s.clearCache()
	}
	return nil
}
