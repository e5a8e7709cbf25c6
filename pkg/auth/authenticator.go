// Package auth is the credential-authentication state machine and session
// issuer. Both are explicitly constructed and injected into handlers; there
// is no package-level instance.
package auth

import (
	"context"
	"errors"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"chatdb/pkg/entities"
	"chatdb/pkg/logger"
	"chatdb/pkg/schema"
)

// UserType distinguishes provisioned account classes.
type UserType string

const (
	TypeGuest   UserType = "guest"
	TypeRegular UserType = "regular"
)

// Identity is an authenticated principal. Only ID and Type ever travel in
// session tokens; Email stays server-side.
type Identity struct {
	ID    uint64
	Email string
	Type  UserType
}

// Credentials is the typed login payload, validated at the boundary.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate rejects structurally unusable payloads before the authenticator
// runs. Shape errors are ErrMalformedRequest, never ErrInvalidCredentials.
func (c Credentials) Validate() error {
	if c.Email == "" || c.Password == "" {
		return ErrMalformedRequest
	}
	if err := schema.ValidateEmail(c.Email); err != nil {
		return ErrMalformedRequest
	}
	return nil
}

// dummyHash is a bcrypt digest of an unguessable throwaway value. Failure
// branches compare the submitted password against it so that "no such
// user" and "wrong password" take statistically indistinguishable time; an
// attacker must not be able to enumerate accounts by response latency.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Authenticator validates credentials against stored users or provisions
// guest identities. It performs at most one store lookup per attempt and
// exactly one password comparison, real or dummy.
type Authenticator struct {
	users *entities.Service
	cost  int
}

// NewAuthenticator builds an authenticator over the given entity service.
// bcryptCost <= 0 selects the library default.
func NewAuthenticator(users *entities.Service, bcryptCost int) *Authenticator {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Authenticator{users: users, cost: bcryptCost}
}

// AuthenticateWithPassword validates an email/password pair. All failure
// branches return ErrInvalidCredentials after constant-shape work; store
// failures surface as ErrStoreUnavailable and are not retried here.
func (a *Authenticator) AuthenticateWithPassword(ctx context.Context, creds Credentials) (Identity, error) {
	if err := creds.Validate(); err != nil {
		return Identity{}, err
	}
	u, err := a.users.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			// no such user: burn a comparison anyway
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(creds.Password))
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, wrapStoreErr(err)
	}
	if u.PasswordHash == "" {
		// passwordless (guest-origin) account: same dummy comparison, same
		// failure as the missing-user branch
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(creds.Password))
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	logger.Info("login_ok", "user", u.ID)
	return Identity{ID: u.ID, Email: u.Email, Type: TypeRegular}, nil
}

// AuthenticateAsGuest provisions and persists a fresh anonymous identity.
// Concurrent calls each create a distinct identity; the only failure mode
// is store unavailability.
func (a *Authenticator) AuthenticateAsGuest(ctx context.Context) (Identity, error) {
	u, err := a.users.CreateGuestUser(ctx)
	if err != nil {
		return Identity{}, wrapStoreErr(err)
	}
	logger.Info("guest_login_ok", "user", u.ID)
	return Identity{ID: u.ID, Email: u.Email, Type: TypeGuest}, nil
}

// Register creates a regular account with a bcrypt-hashed password.
// Duplicate emails fail with entities.ErrConflict, malformed emails with a
// schema.ValidationError.
func (a *Authenticator) Register(ctx context.Context, creds Credentials) (Identity, error) {
	if err := creds.Validate(); err != nil {
		return Identity{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), a.cost)
	if err != nil {
		return Identity{}, err
	}
	u, err := a.users.CreateUser(ctx, creds.Email, string(hash))
	if err != nil {
		var ve *schema.ValidationError
		if errors.Is(err, entities.ErrConflict) || errors.As(err, &ve) {
			return Identity{}, err
		}
		return Identity{}, wrapStoreErr(err)
	}
	logger.Info("user_registered", "user", u.ID)
	return Identity{ID: u.ID, Email: u.Email, Type: TypeRegular}, nil
}

func wrapStoreErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}

// FormatSubject renders an identity id the way tokens carry it.
func FormatSubject(id uint64) string { return strconv.FormatUint(id, 10) }
