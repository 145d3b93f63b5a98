package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"consola/internal/audit"
	"consola/internal/auth/password"
	"consola/internal/metrics"
	"consola/internal/models"
	"consola/internal/store"
)

// Store is the persistence the auth core needs.
type Store interface {
	GrantCounter

	FindLoginCandidate(ctx context.Context, login string) (*models.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	RoleByID(ctx context.Context, id uint) (*models.Role, error)
	LowestRole(ctx context.Context) (*models.Role, error)
	CreateUser(ctx context.Context, u *models.User) error
	ActiveUserWithRole(ctx context.Context, userID uint) (*models.User, error)
	UserWithRole(ctx context.Context, userID uint) (*models.User, error)
	OpenSession(ctx context.Context, sess *models.Session, at time.Time) error
	FindActiveSession(ctx context.Context, userID uint, token string, now time.Time) (*models.Session, error)
	DeactivateSession(ctx context.Context, token string) error
	RoleGrants(ctx context.Context, roleID uint) ([]store.Grant, error)

	ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	UpdateUser(ctx context.Context, userID uint, c store.UserChanges) error
	DeactivateUserSessions(ctx context.Context, userID uint) error
}

type Service struct {
	store   Store
	signer  *Signer
	audit   audit.Recorder
	lg      *zap.SugaredLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(st Store, signer *Signer, rec audit.Recorder, lg *zap.SugaredLogger, opts ...Option) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	s := &Service{
		store:  st,
		signer: signer,
		audit:  rec,
		lg:     lg,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Profile is the public projection of a user. It never carries the hash.
type Profile struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Phone       *string    `json:"phone,omitempty"`
	AvatarURL   *string    `json:"avatar_url"`
	Role        string     `json:"role"`
	AccessLevel int        `json:"access_level"`
	Active      bool       `json:"active"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

func publicProfile(u *models.User) Profile {
	return Profile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role.Name,
		AccessLevel: u.Role.AccessLevel,
		Active:      u.Active,
	}
}

type LoginInput struct {
	Login     string
	Password  string
	IP        string
	UserAgent string
}

type LoginResult struct {
	Token       string        `json:"token"`
	User        Profile       `json:"user"`
	Permissions []store.Grant `json:"permissions"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// Login verifies credentials and opens a new session. Unknown user and wrong
// password return the same error; only the audit trail tells them apart.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.Login == "" {
		return nil, validation("username is required")
	}
	if in.Password == "" {
		return nil, validation("password is required")
	}

	u, err := s.store.FindLoginCandidate(ctx, in.Login)
	if errors.Is(err, store.ErrNotFound) {
		password.Burn(in.Password)
		s.metrics.Login(metrics.LoginUnknownUser)
		s.audit.Record(ctx, audit.Event{
			Action:      audit.ActionLoginFailed,
			Module:      audit.ModuleAuth,
			Description: fmt.Sprintf("login attempt with unknown user: %s", in.Login),
			IP:          in.IP,
		})
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		s.metrics.Login(metrics.LoginError)
		return nil, internal("lookup user", err)
	}

	if err := password.Check(u.PasswordHash, in.Password); err != nil {
		if !password.IsMismatch(err) {
			s.lg.Warnw("stored password hash unusable", "user_id", u.ID, "error", err)
		}
		s.metrics.Login(metrics.LoginBadPassword)
		s.audit.Record(ctx, audit.Event{
			ActorID:     &u.ID,
			Action:      audit.ActionLoginFailed,
			Module:      audit.ModuleAuth,
			Description: "wrong password",
			IP:          in.IP,
		})
		return nil, ErrInvalidCredentials
	}

	grants, err := s.store.RoleGrants(ctx, u.RoleID)
	if err != nil {
		s.metrics.Login(metrics.LoginError)
		return nil, internal("load permissions", err)
	}

	now := s.now()
	token, exp, err := s.signer.Sign(u.ID, u.Role.Name, now)
	if err != nil {
		s.metrics.Login(metrics.LoginError)
		return nil, internal("sign token", err)
	}
	sess := models.Session{
		UserID:    u.ID,
		Token:     token,
		IPAddress: in.IP,
		UserAgent: in.UserAgent,
		Active:    true,
		ExpiresAt: exp,
	}
	// session row and last_login are written together or not at all
	if err := s.store.OpenSession(ctx, &sess, now); err != nil {
		s.metrics.Login(metrics.LoginError)
		return nil, internal("open session", err)
	}

	s.metrics.Login(metrics.LoginSuccess)
	s.audit.Record(ctx, audit.Event{
		ActorID:     &u.ID,
		Action:      audit.ActionLoginSucceeded,
		Module:      audit.ModuleAuth,
		Description: "login succeeded",
		IP:          in.IP,
	})
	return &LoginResult{
		Token:       token,
		User:        publicProfile(u),
		Permissions: grants,
		ExpiresAt:   exp,
	}, nil
}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Phone       *string
	RoleID      *uint
	IP          string
}

func (in RegisterInput) validate() error {
	if utf8.RuneCountInString(in.Username) < 3 {
		return validation("username must be at least 3 characters")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return validation("email is invalid")
	}
	if utf8.RuneCountInString(in.Password) < 6 {
		return validation("password must be at least 6 characters")
	}
	if len(in.Password) > 72 {
		return validation("password must be at most 72 bytes")
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		return validation("display name is required")
	}
	return nil
}

// Register creates a user without logging it in and returns its id.
func (s *Service) Register(ctx context.Context, in RegisterInput) (uint, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}

	exists, err := s.store.UserExists(ctx, in.Username, in.Email)
	if err != nil {
		return 0, internal("check existing user", err)
	}
	if exists {
		return 0, ErrDuplicateUser
	}

	var role *models.Role
	if in.RoleID != nil {
		role, err = s.store.RoleByID(ctx, *in.RoleID)
		if errors.Is(err, store.ErrNotFound) {
			return 0, validation("role does not exist")
		}
	} else {
		role, err = s.store.LowestRole(ctx)
	}
	if err != nil {
		return 0, internal("resolve role", err)
	}

	hash, err := password.Hash(in.Password)
	if errors.Is(err, password.ErrTooLong) {
		return 0, validation("password must be at most 72 bytes")
	}
	if err != nil {
		return 0, internal("hash password", err)
	}

	u := models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Phone:        in.Phone,
		Active:       true,
		RoleID:       role.ID,
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return 0, ErrDuplicateUser
		}
		return 0, internal("create user", err)
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:     &u.ID,
		Action:      audit.ActionRegister,
		Module:      audit.ModuleAuth,
		Description: "user registered",
		IP:          in.IP,
		Payload:     map[string]any{"username": u.Username, "role": role.Name},
	})
	return u.ID, nil
}

// Authenticate resolves the caller from an Authorization header value.
// The signature is checked before any store round trip.
func (s *Service) Authenticate(ctx context.Context, header string) (Identity, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return Identity{}, newError(KindUnauthenticated, "missing bearer token", nil)
	}

	now := s.now()
	claims, err := s.signer.Verify(raw, now)
	if err != nil {
		return Identity{}, newError(KindInvalidToken, "invalid token", err)
	}
	userID, _ := claims.UserID()

	sess, err := s.store.FindActiveSession(ctx, userID, raw, now)
	if errors.Is(err, store.ErrNotFound) {
		return Identity{}, ErrSessionExpired
	}
	if err != nil {
		return Identity{}, internal("lookup session", err)
	}

	u, err := s.store.ActiveUserWithRole(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return Identity{}, newError(KindUnauthenticated, "user not found or inactive", nil)
	}
	if err != nil {
		return Identity{}, internal("lookup user", err)
	}
	return Identity{User: *u, Token: raw, SessionID: sess.ID}, nil
}

// Logout deactivates the caller's session. Repeating it is harmless.
func (s *Service) Logout(ctx context.Context, id Identity, ip string) error {
	if err := s.store.DeactivateSession(ctx, id.Token); err != nil {
		return internal("deactivate session", err)
	}
	uid := id.UserID()
	s.audit.Record(ctx, audit.Event{
		ActorID:     &uid,
		Action:      audit.ActionLogout,
		Module:      audit.ModuleAuth,
		Description: "session closed",
		IP:          ip,
	})
	return nil
}

// Profile loads the full profile of userID.
func (s *Service) Profile(ctx context.Context, userID uint) (*Profile, error) {
	u, err := s.store.UserWithRole(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "user not found", nil)
	}
	if err != nil {
		return nil, internal("load profile", err)
	}
	p := publicProfile(u)
	p.Phone = u.Phone
	p.LastLogin = u.LastLogin
	created := u.CreatedAt
	p.CreatedAt = &created
	return &p, nil
}

// CountGrants exposes the grant lookup used by permission gates.
func (s *Service) CountGrants(ctx context.Context, roleID uint, module, action string) (int64, error) {
	return s.store.CountGrants(ctx, roleID, module, action)
}
