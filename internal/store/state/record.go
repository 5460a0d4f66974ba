package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

// record es la forma serializada de un AuthenticatorState.
type record struct {
	ID              uuid.UUID `json:"id"`
	ClientID        uuid.UUID `json:"client_id"`
	AuthenticatorID uuid.UUID `json:"authenticator_id"`
	ClientRedirect  string    `json:"client_redirect"`
	ClientState     string    `json:"client_state,omitempty"`
	ClientScopes    string    `json:"client_scopes,omitempty"`
	ResponseType    string    `json:"response_type"`
	CreatedDate     time.Time `json:"created_date"`
	ExpiresAt       time.Time `json:"expires_at"`
}

func toRecord(s *repository.AuthenticatorState) record {
	return record{
		ID:              s.ID,
		ClientID:        s.ClientID,
		AuthenticatorID: s.AuthenticatorID,
		ClientRedirect:  s.ClientRedirect,
		ClientState:     s.ClientState,
		ClientScopes:    s.ClientScopes,
		ResponseType:    s.ResponseType,
		CreatedDate:     s.CreatedDate,
		ExpiresAt:       s.ExpiresAt,
	}
}

func (r record) toState() *repository.AuthenticatorState {
	return &repository.AuthenticatorState{
		Entity:          repository.Entity{ID: r.ID, CreatedDate: r.CreatedDate, ModifiedDate: r.CreatedDate},
		ClientID:        r.ClientID,
		AuthenticatorID: r.AuthenticatorID,
		ClientRedirect:  r.ClientRedirect,
		ClientState:     r.ClientState,
		ClientScopes:    r.ClientScopes,
		ResponseType:    r.ResponseType,
		ExpiresAt:       r.ExpiresAt,
	}
}

// prepare completa id y timestamps y devuelve el TTL restante.
func prepare(s *repository.AuthenticatorState, now time.Time) (time.Duration, error) {
	if s.ExpiresAt.IsZero() {
		return 0, repository.ErrInvalidInput
	}
	s.EnsureID()
	s.Touch(now)
	s.ExpiresAt = s.ExpiresAt.UTC()
	ttl := s.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return 0, repository.ErrInvalidInput
	}
	return ttl, nil
}
