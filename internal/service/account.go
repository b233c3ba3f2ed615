package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hrcore/accounts/config"
	"github.com/hrcore/accounts/internal/dto"
	apperrors "github.com/hrcore/accounts/internal/errors"
	"github.com/hrcore/accounts/internal/model"
	"github.com/hrcore/accounts/internal/repository"
	ctxutil "github.com/hrcore/accounts/pkg/context"
	"github.com/hrcore/accounts/pkg/logger"
	"github.com/hrcore/accounts/pkg/mail"
	"gorm.io/datatypes"
)

// AccountService owns the account lifecycle: registration, email
// verification, device-gated login, refresh-token sessions and the admin
// profile operations.
type AccountService struct {
	store    repository.Store
	tokens   *TokenService
	attempts *AttemptTracker
	cache    *CacheService
	mailer   mail.Mailer
	cfg      *config.Config
}

func NewAccountService(
	store repository.Store,
	tokens *TokenService,
	attempts *AttemptTracker,
	cache *CacheService,
	mailer mail.Mailer,
	cfg *config.Config,
) *AccountService {
	return &AccountService{
		store:    store,
		tokens:   tokens,
		attempts: attempts,
		cache:    cache,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// Register creates an unverified account and dispatches the verification
// email. The unique indexes are the authoritative conflict check; the
// pre-check exists to name the offending field.
func (s *AccountService) Register(ctx context.Context, req *dto.RegisterUserRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "account", "Register")

	user := &model.User{
		EmployeeCode: strings.TrimSpace(req.EmployeeCode),
		Username:     strings.ToLower(strings.TrimSpace(req.Username)),
		FirstName:    capitalizeName(req.FirstName),
		LastName:     capitalizeName(req.LastName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         model.RoleStandard,
	}
	user.FullName = user.FirstName + " " + user.LastName
	if req.Role != "" {
		user.Role = model.Role(req.Role)
	}

	var err error
	if user.Permissions, err = toJSONList(req.Permissions); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrValidationFailed, err)
	}
	if user.Department, err = toJSONList(req.Department); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrValidationFailed, err)
	}
	if user.Position, err = toJSONList(req.Position); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrValidationFailed, err)
	}

	if field, err := s.store.Users().FindConflict(ctx, user, 0); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	} else if field != "" {
		return nil, apperrors.Conflict(field)
	}

	password := req.Password
	if password == "" {
		if password, err = GenerateRandomPassword(); err != nil {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}
	if user.Password, err = HashPassword(password); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	// Creation and mail dispatch commit together: a user who never got a
	// verification email would be stranded unverified. The token carries the
	// user ID, so it is minted after the insert assigns one.
	err = s.store.WithTransaction(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			if err == repository.ErrDuplicateKey {
				return apperrors.ErrConflict
			}
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}

		verifyToken, err := s.tokens.GenerateEmailVerifyToken(user)
		if err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		if err := tx.Users().Update(ctx, user.ID, map[string]interface{}{
			"email_verify_token": verifyToken,
		}); err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		user.EmailVerifyToken = verifyToken

		return s.sendVerifyEmail(ctx, user, verifyToken)
	})
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "Account registered").
		String("email", user.Email).
		Uint("user_id", user.ID).
		Log()

	return toUserResponse(user), nil
}

// VerifyEmail confirms the address, registers the verifying device and logs
// the user in. Wrong token, unknown email and already-verified all collapse
// into the same answer so the endpoint cannot be used to probe accounts.
func (s *AccountService) VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) (*dto.TokenPair, error) {
	ctx = ctxutil.WithOperation(ctx, "account", "VerifyEmail")

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.store.Users().FindPendingVerification(ctx, email, req.Token)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil {
		return nil, apperrors.ErrNotFoundOrVerified
	}

	if _, err := s.tokens.ValidateEmailVerifyToken(req.Token); err != nil {
		// Expired passes through so the client knows a resend will help;
		// anything else collapses into the uniform answer.
		if isTokenExpired(err) {
			return nil, err
		}
		return nil, apperrors.ErrNotFoundOrVerified
	}

	var pair *dto.TokenPair
	err = s.store.WithTransaction(ctx, func(tx repository.Store) error {
		if err := tx.Users().Update(ctx, user.ID, map[string]interface{}{
			"email_verified":     true,
			"email_verify_token": "",
			"last_login":         time.Now(),
		}); err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		user.EmailVerified = true

		pair, err = s.openSession(ctx, tx, user, deviceInfoFromRequest(req.Device))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(ctx, user.Email)

	logger.InfoWithContext(ctx, "Email verified").
		Uint("user_id", user.ID).
		Log()

	return pair, nil
}

// ResendEmailVerification mints a fresh verification token and re-sends the
// email. The response is uniform whether or not the account exists.
func (s *AccountService) ResendEmailVerification(ctx context.Context, email string) error {
	ctx = ctxutil.WithOperation(ctx, "account", "ResendEmailVerification")

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil || user.EmailVerified {
		return apperrors.ErrNotFoundOrVerified
	}

	verifyToken, err := s.tokens.GenerateEmailVerifyToken(user)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.store.Users().Update(ctx, user.ID, map[string]interface{}{
		"email_verify_token": verifyToken,
	}); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	s.cache.InvalidateUser(ctx, user.Email)

	// Delivery failures are logged by the mailer; the caller still gets a
	// uniform success so the endpoint stays quiet about account state.
	_ = s.sendVerifyEmail(ctx, user, verifyToken)

	return nil
}

// Login runs the credential and device gates. The outcome is tagged: tokens
// for a known device, a verification dispatch for an unknown one.
func (s *AccountService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResult, error) {
	ctx = ctxutil.WithOperation(ctx, "account", "Login")

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user := s.cache.GetUser(ctx, email)
	if user == nil {
		var err error
		if user, err = s.store.Users().GetByEmail(ctx, email); err != nil {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		if user != nil {
			s.cache.SetUser(ctx, user)
		}
	}
	if user == nil {
		// No counter for unknown emails, the tracker would grow unbounded.
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.Locked {
		return nil, apperrors.WithMessage(apperrors.ErrAccountLocked, "account is locked, contact support")
	}

	// The ephemeral window counts even when the durable lock write failed;
	// a saturated counter refuses before the hash compare.
	if remaining, err := s.attempts.Remaining(ctx, user.Email); err == nil && remaining <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrAccountLocked, "account is locked, contact support")
	}

	if !CheckPassword(user.Password, req.Password) {
		return nil, s.handleFailedPassword(ctx, user)
	}

	if err := s.attempts.Reset(ctx, user.Email); err != nil {
		logger.WarnWithContext(ctx, "Failed to reset attempt counter").
			String("email", user.Email).
			Err(err).
			Log()
	}

	// Unverified accounts may still log in; the email_verified claim in the
	// access token keeps them out of verified-only endpoints.
	device, err := s.store.Devices().FindOrNil(ctx, user.ID, req.Device.DeviceID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if device == nil {
		if err := s.startDeviceVerification(ctx, user, req.Device); err != nil {
			return nil, err
		}
		return &dto.LoginResult{VerifyRequired: true}, nil
	}

	var pair *dto.TokenPair
	err = s.store.WithTransaction(ctx, func(tx repository.Store) error {
		if err := tx.Users().Update(ctx, user.ID, map[string]interface{}{
			"last_login": time.Now(),
		}); err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		pair, err = s.openSession(ctx, tx, user, deviceInfoFromRequest(req.Device))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(ctx, user.Email)

	logger.LogAuth(fmt.Sprintf("%d", user.ID), "login", true)

	return &dto.LoginResult{Tokens: pair}, nil
}

// handleFailedPassword counts the failure and locks the account once the
// threshold is reached. The counter lives outside any SQL transaction on
// purpose: a rollback must never erase evidence of a failed attempt.
func (s *AccountService) handleFailedPassword(ctx context.Context, user *model.User) error {
	count, locked, err := s.attempts.RecordFailure(ctx, user.Email)
	if err != nil {
		// Counting is degraded, authentication still fails closed.
		return apperrors.ErrInvalidCredentials
	}

	if locked {
		if err := s.store.Users().Update(ctx, user.ID, map[string]interface{}{
			"locked": true,
		}); err != nil {
			logger.ErrorWithContext(ctx, "Failed to persist account lock").
				Uint("user_id", user.ID).
				Err(err).
				Log()
		}
		s.cache.InvalidateUser(ctx, user.Email)

		logger.LogAuth(fmt.Sprintf("%d", user.ID), "lockout", false)
		return apperrors.WithMessage(apperrors.ErrAccountLocked, "account is locked, contact support")
	}

	remaining := s.attempts.maxAttempts - int(count)
	return apperrors.WithMessage(apperrors.ErrInvalidCredentials,
		fmt.Sprintf("email or password is incorrect, %d attempts remaining", remaining))
}

// startDeviceVerification stores a fresh device token and emails the
// confirmation link. The device is not registered until the link is used.
func (s *AccountService) startDeviceVerification(ctx context.Context, user *model.User, device dto.DeviceInfoRequest) error {
	token, err := s.tokens.GenerateDeviceVerifyToken(user, device.DeviceID)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.store.Users().Update(ctx, user.ID, map[string]interface{}{
		"device_verify_token": token,
	}); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	s.cache.InvalidateUser(ctx, user.Email)

	link := fmt.Sprintf("%s/api/v1/auth/verify-device?user_id=%d&token=%s",
		s.cfg.App.BaseURL, user.ID, url.QueryEscape(token))

	if err := s.mailer.Send(ctx, user.Email, mail.TemplateVerifyDevice, mail.Fields{
		Name:      user.FirstName,
		AppName:   s.cfg.App.Name,
		Link:      link,
		ExpiresIn: humanDuration(s.cfg.Token.DeviceVerifyTTL),
	}); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Device verification dispatched").
		Uint("user_id", user.ID).
		String("device_id", device.DeviceID).
		Log()

	return nil
}

// VerifyDevice redeems the emailed device token, registers the device and
// opens the session the original login asked for.
func (s *AccountService) VerifyDevice(ctx context.Context, req *dto.VerifyDeviceRequest) (*dto.TokenPair, error) {
	ctx = ctxutil.WithOperation(ctx, "account", "VerifyDevice")

	user, err := s.store.Users().GetByID(ctx, req.UserID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil || user.DeviceVerifyToken == "" || user.DeviceVerifyToken != req.Token {
		return nil, apperrors.ErrTokenInvalid
	}
	if user.Locked {
		return nil, apperrors.WithMessage(apperrors.ErrAccountLocked, "account is locked, contact support")
	}

	claims, err := s.tokens.ValidateDeviceVerifyToken(req.Token)
	if err != nil {
		return nil, err
	}
	// The token is bound to the device that triggered it.
	if claims.DeviceID != req.Device.DeviceID || claims.UserID != user.ID {
		return nil, apperrors.ErrTokenInvalid
	}

	var pair *dto.TokenPair
	err = s.store.WithTransaction(ctx, func(tx repository.Store) error {
		if err := tx.Users().Update(ctx, user.ID, map[string]interface{}{
			"device_verify_token": "",
			"last_login":          time.Now(),
		}); err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		pair, err = s.openSession(ctx, tx, user, deviceInfoFromRequest(req.Device))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(ctx, user.Email)

	logger.LogAuth(fmt.Sprintf("%d", user.ID), "device_verified", true)

	return pair, nil
}

// RefreshTokens rotates the session: a valid refresh token yields a new pair
// and the old token stops working.
func (s *AccountService) RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	ctx = ctxutil.WithOperation(ctx, "account", "RefreshTokens")

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.store.Sessions().FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if session == nil {
		// Signed but not on record: rotated away or revoked by logout.
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if user.Locked {
		return nil, apperrors.WithMessage(apperrors.ErrAccountLocked, "account is locked, contact support")
	}

	pair, err := s.issueTokens(ctx, s.store, user, session.DeviceID)
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// Logout revokes the session holding the given refresh token. Sessions on
// the user's other devices are untouched. A token with no session on record
// (rotated away or never issued) is refused.
func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	ctx = ctxutil.WithOperation(ctx, "account", "Logout")

	session, err := s.store.Sessions().FindByToken(ctx, refreshToken)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if session == nil {
		return apperrors.ErrUnauthorized
	}

	if err := s.store.Sessions().Delete(ctx, session.ID); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Session revoked").
		Uint("user_id", session.UserID).
		String("device_id", session.DeviceID).
		Log()

	return nil
}

// GetUser returns one user's profile.
func (s *AccountService) GetUser(ctx context.Context, id uint) (*dto.UserResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "account", "GetUser")

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}

	return toUserResponse(user), nil
}

// ListUsers pages through accounts with optional search and filters.
func (s *AccountService) ListUsers(ctx context.Context, params repository.ListParams) ([]dto.UserResponse, int64, int64, error) {
	ctx = ctxutil.WithOperation(ctx, "account", "ListUsers")

	users, total, verified, err := s.store.Users().List(ctx, params)
	if err != nil {
		return nil, 0, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *toUserResponse(&users[i]))
	}

	return responses, total, verified, nil
}

// AdminUpdateUser applies a field patch to a user. Identity fields are
// re-checked for uniqueness across all other accounts.
func (s *AccountService) AdminUpdateUser(ctx context.Context, id uint, req *dto.AdminUpdateUserRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "account", "AdminUpdateUser")

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}
	previousEmail := user.Email

	fields := map[string]interface{}{}

	if req.EmployeeCode != "" {
		user.EmployeeCode = strings.TrimSpace(req.EmployeeCode)
		fields["employee_code"] = user.EmployeeCode
	}
	if req.Username != "" {
		user.Username = strings.ToLower(strings.TrimSpace(req.Username))
		fields["username"] = user.Username
	}
	if req.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(req.Email))
		fields["email"] = user.Email
	}
	if req.Phone != "" {
		user.Phone = strings.TrimSpace(req.Phone)
		fields["phone"] = user.Phone
	}
	if req.FirstName != "" {
		user.FirstName = capitalizeName(req.FirstName)
		fields["first_name"] = user.FirstName
	}
	if req.LastName != "" {
		user.LastName = capitalizeName(req.LastName)
		fields["last_name"] = user.LastName
	}
	if req.FirstName != "" || req.LastName != "" {
		user.FullName = user.FirstName + " " + user.LastName
		fields["full_name"] = user.FullName
	}
	if req.Role != "" {
		user.Role = model.Role(req.Role)
		fields["role"] = req.Role
	}
	if req.Permissions != nil {
		if fields["permissions"], err = toJSONList(req.Permissions); err != nil {
			return nil, apperrors.WrapError(apperrors.ErrValidationFailed, err)
		}
	}
	if req.Department != nil {
		if fields["department"], err = toJSONList(req.Department); err != nil {
			return nil, apperrors.WrapError(apperrors.ErrValidationFailed, err)
		}
	}
	if req.Position != nil {
		if fields["position"], err = toJSONList(req.Position); err != nil {
			return nil, apperrors.WrapError(apperrors.ErrValidationFailed, err)
		}
	}

	if len(fields) == 0 {
		return toUserResponse(user), nil
	}

	if field, err := s.store.Users().FindConflict(ctx, user, id); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	} else if field != "" {
		return nil, apperrors.Conflict(field)
	}

	if err := s.store.Users().Update(ctx, id, fields); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, apperrors.ErrConflict
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.InvalidateUser(ctx, previousEmail)
	if user.Email != previousEmail {
		s.cache.InvalidateUser(ctx, user.Email)
	}

	logger.InfoWithContext(ctx, "User profile updated").
		Uint("user_id", id).
		Int("field_count", len(fields)).
		Log()

	return s.GetUser(ctx, id)
}

// AdminUnlockUser clears the lock and the attempt counter. The only way out
// of a lockout.
func (s *AccountService) AdminUnlockUser(ctx context.Context, id uint) error {
	ctx = ctxutil.WithOperation(ctx, "account", "AdminUnlockUser")

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil {
		return apperrors.ErrNotFound
	}

	if err := s.store.Users().Update(ctx, id, map[string]interface{}{
		"locked": false,
	}); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.attempts.Reset(ctx, user.Email); err != nil {
		logger.WarnWithContext(ctx, "Failed to reset attempt counter").
			String("email", user.Email).
			Err(err).
			Log()
	}
	s.cache.InvalidateUser(ctx, user.Email)

	logger.InfoWithContext(ctx, "Account unlocked").
		Uint("user_id", id).
		Log()

	return nil
}

// openSession registers (or refreshes) the device and stores a new session
// for it, replacing whatever refresh token the pair held before.
func (s *AccountService) openSession(ctx context.Context, tx repository.Store, user *model.User, info model.DeviceInfo) (*dto.TokenPair, error) {
	if _, err := tx.Devices().Upsert(ctx, user.ID, info, time.Now()); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return s.issueTokens(ctx, tx, user, info.DeviceID)
}

func (s *AccountService) issueTokens(ctx context.Context, tx repository.Store, user *model.User, deviceID string) (*dto.TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user, deviceID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user, deviceID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	expiresAt := time.Now().Add(s.cfg.Token.RefreshTTL)
	if err := tx.Sessions().Upsert(ctx, user.ID, deviceID, refreshToken, expiresAt); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Token.AccessTTL.Seconds()),
	}, nil
}

func (s *AccountService) sendVerifyEmail(ctx context.Context, user *model.User, token string) error {
	link := fmt.Sprintf("%s/api/v1/auth/verify-email?email=%s&token=%s",
		s.cfg.App.BaseURL, url.QueryEscape(user.Email), url.QueryEscape(token))

	return s.mailer.Send(ctx, user.Email, mail.TemplateVerifyEmail, mail.Fields{
		Name:      user.FirstName,
		AppName:   s.cfg.App.Name,
		Link:      link,
		ExpiresIn: humanDuration(s.cfg.Token.EmailVerifyTTL),
	})
}

func deviceInfoFromRequest(req dto.DeviceInfoRequest) model.DeviceInfo {
	return model.DeviceInfo{
		DeviceID: req.DeviceID,
		Type:     req.Type,
		OS:       req.OS,
		Browser:  req.Browser,
		IP:       req.IP,
	}
}

func toJSONList(values []string) (datatypes.JSON, error) {
	if values == nil {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func fromJSONList(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil
	}
	return values
}

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:            user.ID,
		EmployeeCode:  user.EmployeeCode,
		Username:      user.Username,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		FullName:      user.FullName,
		Email:         user.Email,
		Phone:         user.Phone,
		Role:          string(user.Role),
		Permissions:   fromJSONList(user.Permissions),
		Department:    fromJSONList(user.Department),
		Position:      fromJSONList(user.Position),
		EmailVerified: user.EmailVerified,
		LastLogin:     user.LastLogin,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

// capitalizeName normalizes a name part: first rune upper, rest lower.
func capitalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	first, size := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(first)) + strings.ToLower(name[size:])
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	minutes := int(d.Minutes())
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

func isTokenExpired(err error) bool {
	domainErr := apperrors.GetDomainError(err)
	return domainErr != nil && domainErr.Code == apperrors.ErrTokenExpired.Code
}
