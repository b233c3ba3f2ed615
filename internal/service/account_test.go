package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hrcore/accounts/config"
	"github.com/hrcore/accounts/internal/dto"
	apperrors "github.com/hrcore/accounts/internal/errors"
	"github.com/hrcore/accounts/internal/model"
	"github.com/hrcore/accounts/internal/repository"
	"github.com/hrcore/accounts/pkg/mail"
	"gorm.io/datatypes"
)

// In-memory store fakes. They enforce the same uniqueness and
// replace-not-append rules as the SQL schema so the service logic can be
// exercised without a database.

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[uint]*model.User
	nextID uint
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uint]*model.User), nextID: 1}
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) FindConflict(_ context.Context, user *model.User, excludeID uint) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.ID == excludeID {
			continue
		}
		switch {
		case user.EmployeeCode != "" && existing.EmployeeCode == user.EmployeeCode:
			return "employee_code", nil
		case user.Username != "" && existing.Username == user.Username:
			return "username", nil
		case user.Email != "" && existing.Email == user.Email:
			return "email", nil
		case user.Phone != "" && existing.Phone == user.Phone:
			return "phone", nil
		}
	}
	return "", nil
}

func (s *fakeUserStore) FindPendingVerification(_ context.Context, email, token string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email && user.EmailVerifyToken == token && !user.EmailVerified {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.EmployeeCode == user.EmployeeCode ||
			existing.Username == user.Username ||
			existing.Email == user.Email ||
			existing.Phone == user.Phone {
			return repository.ErrDuplicateKey
		}
	}
	user.ID = s.nextID
	s.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) Update(_ context.Context, id uint, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return errors.New("record not found")
	}
	for key, value := range fields {
		switch key {
		case "employee_code":
			user.EmployeeCode = value.(string)
		case "username":
			user.Username = value.(string)
		case "email":
			user.Email = value.(string)
		case "phone":
			user.Phone = value.(string)
		case "first_name":
			user.FirstName = value.(string)
		case "last_name":
			user.LastName = value.(string)
		case "full_name":
			user.FullName = value.(string)
		case "role":
			user.Role = model.Role(value.(string))
		case "permissions":
			user.Permissions = value.(datatypes.JSON)
		case "department":
			user.Department = value.(datatypes.JSON)
		case "position":
			user.Position = value.(datatypes.JSON)
		case "email_verified":
			user.EmailVerified = value.(bool)
		case "email_verify_token":
			user.EmailVerifyToken = value.(string)
		case "device_verify_token":
			user.DeviceVerifyToken = value.(string)
		case "locked":
			user.Locked = value.(bool)
		case "last_login":
			user.LastLogin = value.(time.Time)
		default:
			return fmt.Errorf("fake store: unexpected column %q", key)
		}
	}
	user.UpdatedAt = time.Now()
	return nil
}

func (s *fakeUserStore) List(_ context.Context, params repository.ListParams) ([]model.User, int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []model.User
	var verified int64
	for _, user := range s.users {
		if params.Search != "" && !strings.Contains(user.FullName, params.Search) &&
			!strings.Contains(user.Email, params.Search) {
			continue
		}
		if params.Role != "" && string(user.Role) != params.Role {
			continue
		}
		if params.Verified != nil && user.EmailVerified != *params.Verified {
			continue
		}
		users = append(users, *user)
		if user.EmailVerified {
			verified++
		}
	}
	return users, int64(len(users)), verified, nil
}

type fakeDeviceStore struct {
	mu      sync.Mutex
	devices map[string]*model.Device
	nextID  uint
}

func newFakeDeviceStore() *fakeDeviceStore {
	return &fakeDeviceStore{devices: make(map[string]*model.Device), nextID: 1}
}

func deviceKey(userID uint, deviceID string) string {
	return fmt.Sprintf("%d/%s", userID, deviceID)
}

func (s *fakeDeviceStore) FindOrNil(_ context.Context, userID uint, deviceID string) (*model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if device, ok := s.devices[deviceKey(userID, deviceID)]; ok {
		copied := *device
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeDeviceStore) Upsert(_ context.Context, userID uint, info model.DeviceInfo, lastLogin time.Time) (*model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := deviceKey(userID, info.DeviceID)
	device, ok := s.devices[key]
	if !ok {
		device = &model.Device{UserID: userID, DeviceID: info.DeviceID}
		device.ID = s.nextID
		s.nextID++
		s.devices[key] = device
	}
	device.Type = info.Type
	device.OS = info.OS
	device.Browser = info.Browser
	device.IP = info.IP
	device.LastLogin = lastLogin
	copied := *device
	return &copied, nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	nextID   uint
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*model.Session), nextID: 1}
}

func (s *fakeSessionStore) Upsert(_ context.Context, userID uint, deviceID, refreshToken string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := deviceKey(userID, deviceID)
	session, ok := s.sessions[key]
	if !ok {
		session = &model.Session{UserID: userID, DeviceID: deviceID}
		session.ID = s.nextID
		s.nextID++
		s.sessions[key] = session
	}
	session.RefreshToken = refreshToken
	session.ExpiresAt = expiresAt
	return nil
}

func (s *fakeSessionStore) FindByToken(_ context.Context, refreshToken string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.RefreshToken == refreshToken && !session.Expired(time.Now()) {
			copied := *session
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, session := range s.sessions {
		if session.ID == id {
			delete(s.sessions, key)
			return nil
		}
	}
	return nil
}

func (s *fakeSessionStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	now := time.Now()
	for key, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type fakeStore struct {
	users    *fakeUserStore
	devices  *fakeDeviceStore
	sessions *fakeSessionStore
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    newFakeUserStore(),
		devices:  newFakeDeviceStore(),
		sessions: newFakeSessionStore(),
	}
}

func (s *fakeStore) Users() repository.UserStore       { return s.users }
func (s *fakeStore) Devices() repository.DeviceStore   { return s.devices }
func (s *fakeStore) Sessions() repository.SessionStore { return s.sessions }

func (s *fakeStore) WithTransaction(_ context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

type sentMail struct {
	To       string
	Template string
	Fields   mail.Fields
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (m *fakeMailer) Send(_ context.Context, to, templateName string, fields mail.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("relay unavailable")
	}
	m.sent = append(m.sent, sentMail{To: to, Template: templateName, Fields: fields})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail was sent")
	}
	return m.sent[len(m.sent)-1]
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newTestAccountService(t *testing.T) (*AccountService, *fakeStore, *fakeMailer) {
	t.Helper()

	_, client := newTestRedis(t)
	store := newFakeStore()
	mailer := &fakeMailer{}

	cfg := &config.Config{
		App: config.AppConfig{
			Name:    "Accounts Service",
			BaseURL: "http://localhost:8080",
		},
		Token:   testTokenConfig(),
		Lockout: config.LockoutConfig{MaxAttempts: 5, Window: time.Hour},
	}

	svc := NewAccountService(
		store,
		NewTokenService(cfg.Token),
		NewAttemptTracker(client, cfg.Lockout),
		NewCacheService(client),
		mailer,
		cfg,
	)
	return svc, store, mailer
}

func registerRequest(email string) *dto.RegisterUserRequest {
	local := strings.SplitN(email, "@", 2)[0]
	return &dto.RegisterUserRequest{
		EmployeeCode: "EMP-" + local,
		Username:     local,
		FirstName:    "jane",
		LastName:     "doe",
		Email:        email,
		Phone:        fmt.Sprintf("+62812%08d", len(local)*31337),
		Password:     "secret123",
	}
}

func deviceRequest(id string) dto.DeviceInfoRequest {
	return dto.DeviceInfoRequest{
		DeviceID: id,
		Type:     "mobile",
		OS:       "Android 15",
		Browser:  "Chrome",
		IP:       "10.0.0.1",
	}
}

// registerAndVerify walks a user through registration and email
// verification on the given device, returning the first token pair.
func registerAndVerify(t *testing.T, svc *AccountService, store *fakeStore, email, deviceID string) *dto.TokenPair {
	t.Helper()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest(email)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := store.users.GetByEmail(ctx, email)
	if err != nil || user == nil {
		t.Fatalf("registered user not found: %v", err)
	}

	pair, err := svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{
		Email:  email,
		Token:  user.EmailVerifyToken,
		Device: deviceRequest(deviceID),
	})
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	return pair
}

func TestRegisterSendsVerificationMail(t *testing.T) {
	svc, store, mailer := newTestAccountService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerRequest("jane.doe@example.com"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.FirstName != "Jane" || user.LastName != "Doe" {
		t.Errorf("names = %q %q, want capitalized Jane Doe", user.FirstName, user.LastName)
	}
	if user.FullName != "Jane Doe" {
		t.Errorf("full name = %q, want %q", user.FullName, "Jane Doe")
	}
	if user.EmailVerified {
		t.Error("new account is already verified")
	}

	sent := mailer.last(t)
	if sent.To != "jane.doe@example.com" || sent.Template != mail.TemplateVerifyEmail {
		t.Errorf("mail = %+v, want verify_email to the registrant", sent)
	}

	stored, _ := store.users.GetByEmail(ctx, "jane.doe@example.com")
	if stored.EmailVerifyToken == "" {
		t.Error("verify token not stored")
	}
	if !strings.Contains(sent.Fields.Link, stored.EmailVerifyToken) {
		t.Error("mailed link does not carry the stored token")
	}
}

func TestCapitalizeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"jane", "Jane"},
		{"jOHN", "John"},
		{"  doe ", "Doe"},
		{"émile", "Émile"},
		{"øyvind", "Øyvind"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := capitalizeName(tc.in); got != tc.want {
			t.Errorf("capitalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _, _ := newTestAccountService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest("jane.doe@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	dup := registerRequest("other@example.com")
	dup.Email = "jane.doe@example.com"
	dup.EmployeeCode = "EMP-unique"
	dup.Username = "unique"
	dup.Phone = "+62812000099"

	_, err := svc.Register(ctx, dup)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if msg := apperrors.GetErrorMessage(err); !strings.Contains(msg, "email") {
		t.Errorf("conflict message %q does not name the field", msg)
	}
}

func TestRegisterFailsWhenMailFails(t *testing.T) {
	svc, _, mailer := newTestAccountService(t)
	mailer.fail = true
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest("jane.doe@example.com")); err == nil {
		t.Fatal("Register succeeded although the verification mail could not be sent")
	}
}

func TestVerifyEmailUniformFailure(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest("jane.doe@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	user, _ := store.users.GetByEmail(ctx, "jane.doe@example.com")

	// Wrong token
	_, err := svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{
		Email:  "jane.doe@example.com",
		Token:  "wrong-token",
		Device: deviceRequest("device-aaaa1111"),
	})
	if !errors.Is(err, apperrors.ErrNotFoundOrVerified) {
		t.Fatalf("wrong token err = %v, want not-found-or-verified", err)
	}

	// Unknown email
	_, err = svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{
		Email:  "nobody@example.com",
		Token:  user.EmailVerifyToken,
		Device: deviceRequest("device-aaaa1111"),
	})
	if !errors.Is(err, apperrors.ErrNotFoundOrVerified) {
		t.Fatalf("unknown email err = %v, want not-found-or-verified", err)
	}

	// Verify for real, then replay: already-verified must be the same answer
	token := user.EmailVerifyToken
	if _, err := svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{
		Email:  "jane.doe@example.com",
		Token:  token,
		Device: deviceRequest("device-aaaa1111"),
	}); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}

	_, err = svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{
		Email:  "jane.doe@example.com",
		Token:  token,
		Device: deviceRequest("device-aaaa1111"),
	})
	if !errors.Is(err, apperrors.ErrNotFoundOrVerified) {
		t.Fatalf("replay err = %v, want not-found-or-verified", err)
	}
}

func TestResendVerification(t *testing.T) {
	svc, store, mailer := newTestAccountService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest("jane.doe@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	before, _ := store.users.GetByEmail(ctx, "jane.doe@example.com")

	if err := svc.ResendEmailVerification(ctx, "jane.doe@example.com"); err != nil {
		t.Fatalf("ResendEmailVerification: %v", err)
	}

	after, _ := store.users.GetByEmail(ctx, "jane.doe@example.com")
	if after.EmailVerifyToken == before.EmailVerifyToken {
		t.Error("resend did not rotate the verify token")
	}
	if mailer.count() != 2 {
		t.Errorf("mail count = %d, want 2", mailer.count())
	}

	// Unknown accounts and verified accounts get the same refusal
	if err := svc.ResendEmailVerification(ctx, "nobody@example.com"); !errors.Is(err, apperrors.ErrNotFoundOrVerified) {
		t.Errorf("unknown email err = %v, want not-found-or-verified", err)
	}
}

func TestLoginBeforeEmailVerification(t *testing.T) {
	svc, _, mailer := newTestAccountService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest("jane.doe@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Verification is not a login precondition; an unverified user with the
	// right password still reaches the device gate. Verified-only endpoints
	// are fenced off by the email_verified claim, not here.
	result, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "jane.doe@example.com",
		Password: "secret123",
		Device:   deviceRequest("device-aaaa1111"),
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !result.VerifyRequired {
		t.Fatal("unknown device was not challenged")
	}
	if sent := mailer.last(t); sent.Template != mail.TemplateVerifyDevice {
		t.Errorf("template = %q, want %q", sent.Template, mail.TemplateVerifyDevice)
	}
}

func TestLoginNewDeviceGate(t *testing.T) {
	svc, store, mailer := newTestAccountService(t)
	ctx := context.Background()

	registerAndVerify(t, svc, store, "jane.doe@example.com", "device-aaaa1111")
	sessionsBefore := store.sessions.count()

	result, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "jane.doe@example.com",
		Password: "secret123",
		Device:   deviceRequest("device-bbbb2222"),
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if !result.VerifyRequired {
		t.Fatal("unknown device logged in without verification")
	}
	if result.Tokens != nil {
		t.Fatal("tokens issued for an unverified device")
	}
	if store.sessions.count() != sessionsBefore {
		t.Error("a session was opened for an unverified device")
	}

	sent := mailer.last(t)
	if sent.Template != mail.TemplateVerifyDevice {
		t.Errorf("template = %q, want %q", sent.Template, mail.TemplateVerifyDevice)
	}

	user, _ := store.users.GetByEmail(ctx, "jane.doe@example.com")
	if user.DeviceVerifyToken == "" {
		t.Error("device verify token not stored")
	}

	// Retrying before the link is used challenges again instead of erroring
	retry, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "jane.doe@example.com",
		Password: "secret123",
		Device:   deviceRequest("device-bbbb2222"),
	})
	if err != nil {
		t.Fatalf("retry Login: %v", err)
	}
	if !retry.VerifyRequired {
		t.Fatal("pending device logged in without verification")
	}
}

func TestVerifyDeviceOpensSession(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	ctx := context.Background()

	registerAndVerify(t, svc, store, "jane.doe@example.com", "device-aaaa1111")

	if _, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "jane.doe@example.com",
		Password: "secret123",
		Device:   deviceRequest("device-bbbb2222"),
	}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	user, _ := store.users.GetByEmail(ctx, "jane.doe@example.com")
	token := user.DeviceVerifyToken

	// The token is bound to the device that triggered it
	if _, err := svc.VerifyDevice(ctx, &dto.VerifyDeviceRequest{
		UserID: user.ID,
		Token:  token,
		Device: deviceRequest("device-cccc3333"),
	}); !errors.Is(err, apperrors.ErrTokenInvalid) {
		t.Fatalf("foreign device err = %v, want token invalid", err)
	}

	pair, err := svc.VerifyDevice(ctx, &dto.VerifyDeviceRequest{
		UserID: user.ID,
		Token:  token,
		Device: deviceRequest("device-bbbb2222"),
	})
	if err != nil {
		t.Fatalf("VerifyDevice: %v", err)
	}
	if pair == nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("device verification did not issue tokens")
	}

	// The device is now trusted: the next login goes straight through
	result, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "jane.doe@example.com",
		Password: "secret123",
		Device:   deviceRequest("device-bbbb2222"),
	})
	if err != nil {
		t.Fatalf("Login after device verify: %v", err)
	}
	if result.VerifyRequired || result.Tokens == nil {
		t.Fatal("trusted device was challenged again")
	}
}

func TestLockoutAfterFiveFailures(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	ctx := context.Background()

	registerAndVerify(t, svc, store, "jane.doe@example.com", "device-aaaa1111")

	var lastErr error
	for i := 0; i < 5; i++ {
		_, lastErr = svc.Login(ctx, &dto.LoginRequest{
			Email:    "jane.doe@example.com",
			Password: "wrong-password",
			Device:   deviceRequest("device-aaaa1111"),
		})
	}
	if !errors.Is(lastErr, apperrors.ErrAccountLocked) {
		t.Fatalf("fifth failure err = %v, want account locked", lastErr)
	}

	user, _ := store.users.GetByEmail(ctx, "jane.doe@example.com")
	if !user.Locked {
		t.Fatal("lock not persisted")
	}

	// The right password no longer helps
	_, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "jane.doe@example.com",
		Password: "secret123",
		Device:   deviceRequest("device-aaaa1111"),
	})
	if !errors.Is(err, apperrors.ErrAccountLocked) {
		t.Fatalf("err = %v, want account locked after lockout", err)
	}
}

func TestFailureCounterResetsOnSuccess(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	ctx := context.Background()

	registerAndVerify(t, svc, store, "jane.doe@example.com", "device-aaaa1111")

	for i := 0; i < 4; i++ {
		if _, err := svc.Login(ctx, &dto.LoginRequest{
			Email:    "jane.doe@example.com",
			Password: "wrong-password",
			Device:   deviceRequest("device-aaaa1111"),
		}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
			t.Fatalf("failure #%d err = %v, want invalid credentials", i+1, err)
		}
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "jane.doe@example.com",
		Password: "secret123",
		Device:   deviceRequest("device-aaaa1111"),
	}); err != nil {
		t.Fatalf("Login with correct password: %v", err)
	}

	// Counter was reset: four more failures stay below the threshold
	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, &dto.LoginRequest{
			Email:    "jane.doe@example.com",
			Password: "wrong-password",
			Device:   deviceRequest("device-aaaa1111"),
		})
		if errors.Is(err, apperrors.ErrAccountLocked) {
			t.Fatalf("locked on failure #%d after a successful login", i+1)
		}
	}
}

func TestSessionReplacedOnRelogin(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	ctx := context.Background()

	first := registerAndVerify(t, svc, store, "jane.doe@example.com", "device-aaaa1111")

	result, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "jane.doe@example.com",
		Password: "secret123",
		Device:   deviceRequest("device-aaaa1111"),
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if store.sessions.count() != 1 {
		t.Fatalf("session count = %d, want 1: relogin must replace, not append", store.sessions.count())
	}

	// The replaced refresh token is dead
	if _, err := svc.RefreshTokens(ctx, first.RefreshToken); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("old refresh token err = %v, want unauthorized", err)
	}

	// The current one still works
	if _, err := svc.RefreshTokens(ctx, result.Tokens.RefreshToken); err != nil {
		t.Errorf("current refresh token rejected: %v", err)
	}
}

func TestLogoutRevokesOnlyOneDevice(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	ctx := context.Background()

	pairA := registerAndVerify(t, svc, store, "jane.doe@example.com", "device-aaaa1111")

	// Trust a second device through the email gate
	if _, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "jane.doe@example.com",
		Password: "secret123",
		Device:   deviceRequest("device-bbbb2222"),
	}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	user, _ := store.users.GetByEmail(ctx, "jane.doe@example.com")
	pairB, err := svc.VerifyDevice(ctx, &dto.VerifyDeviceRequest{
		UserID: user.ID,
		Token:  user.DeviceVerifyToken,
		Device: deviceRequest("device-bbbb2222"),
	})
	if err != nil {
		t.Fatalf("VerifyDevice: %v", err)
	}

	if store.sessions.count() != 2 {
		t.Fatalf("session count = %d, want 2", store.sessions.count())
	}

	if err := svc.Logout(ctx, pairA.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := svc.RefreshTokens(ctx, pairA.RefreshToken); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("revoked token err = %v, want unauthorized", err)
	}
	if _, err := svc.RefreshTokens(ctx, pairB.RefreshToken); err != nil {
		t.Errorf("other device's session was revoked too: %v", err)
	}

	// The token's session is gone, so a repeat logout is refused
	if err := svc.Logout(ctx, pairA.RefreshToken); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("repeat logout err = %v, want unauthorized", err)
	}
}

func TestAdminUpdateUserChecksUniqueness(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	ctx := context.Background()

	registerAndVerify(t, svc, store, "jane.doe@example.com", "device-aaaa1111")
	if _, err := svc.Register(ctx, registerRequest("john.smith@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	second, _ := store.users.GetByEmail(ctx, "john.smith@example.com")

	_, err := svc.AdminUpdateUser(ctx, second.ID, &dto.AdminUpdateUserRequest{
		Email: "jane.doe@example.com",
	})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	updated, err := svc.AdminUpdateUser(ctx, second.ID, &dto.AdminUpdateUserRequest{
		FirstName: "johnny",
		Role:      "admin",
	})
	if err != nil {
		t.Fatalf("AdminUpdateUser: %v", err)
	}
	if updated.FirstName != "Johnny" {
		t.Errorf("first name = %q, want capitalized Johnny", updated.FirstName)
	}
	if updated.FullName != "Johnny Doe" {
		t.Errorf("full name = %q, want rebuilt Johnny Doe", updated.FullName)
	}
	if updated.Role != "admin" {
		t.Errorf("role = %q, want admin", updated.Role)
	}
}

func TestAdminUnlockRestoresLogin(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	ctx := context.Background()

	registerAndVerify(t, svc, store, "jane.doe@example.com", "device-aaaa1111")

	for i := 0; i < 5; i++ {
		_, _ = svc.Login(ctx, &dto.LoginRequest{
			Email:    "jane.doe@example.com",
			Password: "wrong-password",
			Device:   deviceRequest("device-aaaa1111"),
		})
	}

	user, _ := store.users.GetByEmail(ctx, "jane.doe@example.com")
	if !user.Locked {
		t.Fatal("account not locked")
	}

	if err := svc.AdminUnlockUser(ctx, user.ID); err != nil {
		t.Fatalf("AdminUnlockUser: %v", err)
	}

	result, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "jane.doe@example.com",
		Password: "secret123",
		Device:   deviceRequest("device-aaaa1111"),
	})
	if err != nil {
		t.Fatalf("Login after unlock: %v", err)
	}
	if result.Tokens == nil {
		t.Fatal("no tokens after unlock")
	}
}

func TestEndToEndAccountLifecycle(t *testing.T) {
	svc, store, mailer := newTestAccountService(t)
	ctx := context.Background()

	// Register, verify, and land on a first session
	pair := registerAndVerify(t, svc, store, "jane.doe@example.com", "device-aaaa1111")
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("email verification did not open a session")
	}

	// Plain login from the now-trusted device
	result, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "jane.doe@example.com",
		Password: "secret123",
		Device:   deviceRequest("device-aaaa1111"),
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.VerifyRequired {
		t.Fatal("trusted device was challenged")
	}

	// Rotate the session
	rotated, err := svc.RefreshTokens(ctx, result.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshTokens: %v", err)
	}

	// The login replaced the verification-time session, so its token is dead
	if err := svc.Logout(ctx, pair.RefreshToken); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("logout with overwritten token err = %v, want unauthorized", err)
	}

	// Sign out
	if err := svc.Logout(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.RefreshTokens(ctx, rotated.RefreshToken); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("refresh after logout err = %v, want unauthorized", err)
	}

	if mailer.count() != 1 {
		t.Errorf("mail count = %d, want just the one verification email", mailer.count())
	}
}
