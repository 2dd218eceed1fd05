package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrovision/farm-api/internal/core/domain"
	"github.com/agrovision/farm-api/internal/core/ports"
)

type stubUserRepo struct {
	byID map[string]*domain.User
	seq  int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user_%d", r.seq)
	r.byID[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) ListByDepartment(_ context.Context, departmentID string) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.byID {
		if u.DepartmentID == departmentID {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) UpdateRefreshToken(_ context.Context, userID, token string) (*domain.User, error) {
	u, ok := r.byID[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.RefreshToken = token
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, userID string, role domain.Role) (*domain.User, error) {
	u, ok := r.byID[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateDepartment(_ context.Context, userID, departmentID string) (*domain.User, error) {
	u, ok := r.byID[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.DepartmentID = departmentID
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateUserType(_ context.Context, userID string, userType domain.UserType) (*domain.User, error) {
	u, ok := r.byID[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.UserType = userType
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (r *stubUserRepo) ClearDepartment(_ context.Context, departmentID string) error {
	for _, u := range r.byID {
		if u.DepartmentID == departmentID {
			u.DepartmentID = ""
		}
	}
	return nil
}

type stubThrottle struct {
	failures map[string]int
}

func newStubThrottle() *stubThrottle {
	return &stubThrottle{failures: make(map[string]int)}
}

func (t *stubThrottle) TooManyAttempts(_ context.Context, email string) (bool, error) {
	return t.failures[email] >= 5, nil
}

func (t *stubThrottle) RecordFailure(_ context.Context, email string) error {
	t.failures[email]++
	return nil
}

func (t *stubThrottle) Reset(_ context.Context, email string) error {
	delete(t.failures, email)
	return nil
}

type stubRecorder struct {
	events []domain.AuditEvent
}

func (r *stubRecorder) Record(event domain.AuditEvent) {
	r.events = append(r.events, event)
}

func (r *stubRecorder) has(action domain.AuditAction) bool {
	for _, e := range r.events {
		if e.Action == action {
			return true
		}
	}
	return false
}

type authFixture struct {
	repo     *stubUserRepo
	throttle *stubThrottle
	recorder *stubRecorder
	tokens   *TokenService
	svc      ports.AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := newStubUserRepo()
	throttle := newStubThrottle()
	recorder := &stubRecorder{}
	tokens := newTestTokenService(t)
	svc := NewAuthService(repo, tokens, throttle, recorder, zerolog.Nop())
	return &authFixture{repo: repo, throttle: throttle, recorder: recorder, tokens: tokens, svc: svc}
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture(t)

	session, err := f.svc.Register(context.Background(), "alice", "Alice@X.com", "secret123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	user := session.User
	if user.Email != "alice@x.com" {
		t.Fatalf("email not lowercased: %s", user.Email)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role user, got %s", user.Role)
	}
	if user.UserType != domain.UserTypeInternal {
		t.Fatalf("expected default user type internal, got %s", user.UserType)
	}
	if user.PasswordHash == "secret123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatalf("expected both tokens, got access=%q refresh=%q", session.AccessToken, session.RefreshToken)
	}

	stored, _ := f.repo.FindByID(context.Background(), user.ID)
	if stored.RefreshToken != session.RefreshToken {
		t.Fatalf("refresh token not persisted")
	}
	if !f.recorder.has(domain.AuditRegister) {
		t.Fatalf("register audit event missing")
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Register(context.Background(), "", "a@x.com", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.svc.Register(context.Background(), "bob", "  ", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for blank email, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Register(context.Background(), "bob", "bob@x.com", "secret123"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := f.svc.Register(context.Background(), "bobby", "BOB@x.com", "secret456"); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.svc.Register(context.Background(), "carol", "carol@x.com", "s3cretpw")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	session, err := f.svc.Login(context.Background(), "carol@x.com", "s3cretpw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.User.ID != registered.User.ID {
		t.Fatalf("unexpected user: %+v", session.User)
	}

	claims, err := f.tokens.VerifyAccess(session.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.UserID != session.User.ID || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// Login rotates the refresh slot: the register-time token is superseded.
	stored, _ := f.repo.FindByID(context.Background(), session.User.ID)
	if stored.RefreshToken != session.RefreshToken {
		t.Fatalf("refresh token not persisted")
	}
	if stored.RefreshToken == registered.RefreshToken {
		t.Fatalf("expected refresh rotation at login")
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Register(context.Background(), "dave", "dave@x.com", "goodpass"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Wrong password and unknown user yield the same error.
	if _, err := f.svc.Login(context.Background(), "dave@x.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "ghost@x.com", "whatever"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestAuthService_Login_LockedOutAfterFailures(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Register(context.Background(), "erin", "erin@x.com", "goodpass"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := f.svc.Login(context.Background(), "erin@x.com", "badpass"); err != domain.ErrInvalidCredentials {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	// Even the correct password is refused while locked out.
	if _, err := f.svc.Login(context.Background(), "erin@x.com", "goodpass"); err != domain.ErrTooManyAttempts {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.svc.Register(context.Background(), "frank", "frank@x.com", "secret123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	refreshed, err := f.svc.Refresh(context.Background(), registered.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatalf("expected new access token")
	}
	if refreshed.RefreshToken == registered.RefreshToken {
		t.Fatalf("expected refresh token rotation")
	}

	// The rotated-out token is now unusable.
	if _, err := f.svc.Refresh(context.Background(), registered.RefreshToken); err != domain.ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken for superseded token, got %v", err)
	}

	// The current one still works.
	if _, err := f.svc.Refresh(context.Background(), refreshed.RefreshToken); err != nil {
		t.Fatalf("refresh with current token failed: %v", err)
	}
}

func TestAuthService_Refresh_Invalid(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Refresh(context.Background(), ""); err != domain.ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken for empty token, got %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), "garbage"); err != domain.ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken for garbage, got %v", err)
	}

	// Signature-valid token for a user that no longer exists.
	token, _, err := f.tokens.IssueRefresh("user_404")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), token); err != domain.ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken for unknown user, got %v", err)
	}
}

func TestAuthService_Refresh_AfterLogout(t *testing.T) {
	f := newAuthFixture(t)

	session, err := f.svc.Register(context.Background(), "gina", "gina@x.com", "secret123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := f.svc.Logout(context.Background(), session.User.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), session.RefreshToken); err != domain.ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken after logout, got %v", err)
	}
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	f := newAuthFixture(t)

	session, err := f.svc.Register(context.Background(), "hank", "hank@x.com", "secret123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := f.svc.Logout(context.Background(), session.User.ID); err != nil {
		t.Fatalf("first logout failed: %v", err)
	}
	if err := f.svc.Logout(context.Background(), session.User.ID); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}

	stored, _ := f.repo.FindByID(context.Background(), session.User.ID)
	if stored.RefreshToken != "" {
		t.Fatalf("refresh token not cleared: %q", stored.RefreshToken)
	}

	// Logging out a user that never existed is also not an error.
	if err := f.svc.Logout(context.Background(), "user_404"); err != nil {
		t.Fatalf("logout of missing user failed: %v", err)
	}
}
