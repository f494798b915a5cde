package services

import (
	"errors"
	"os"
	"time"

	"backend/config"
	"backend/models"
	"backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionTTL = 72 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired, please sign in again")
	ErrEmailNotVerified   = errors.New("email not verified")
)

type AuthService struct {
	settings *SettingsService
	bus      *AuthBus
	tracker  *DayTracker
	log      *zap.Logger
}

func NewAuthService(settings *SettingsService, bus *AuthBus, tracker *DayTracker, log *zap.Logger) *AuthService {
	return &AuthService{settings: settings, bus: bus, tracker: tracker, log: log}
}

// AuthResult carries the tokens handed to the client after sign-in,
// sign-up or refresh.
type AuthResult struct {
	User         *models.User `json:"-"`
	UserID       uint         `json:"user_id"`
	Email        string       `json:"email"`
	AccessToken  string       `json:"token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at,omitempty"`
	AutoLoggedIn bool         `json:"auto_logged_in"`
}

func requireEmailVerification() bool {
	return os.Getenv("REQUIRE_EMAIL_VERIFICATION") == "true"
}

// Register creates the account and, unless email verification is required,
// saves the submitted profile and signs the user straight in. When
// verification is required the profile payload is stashed and applied after
// the first confirmed login.
func (s *AuthService) Register(email, password string, profile *ProfileInput) (*AuthResult, error) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{Email: email, Password: hashed}
	if err := config.DB.Create(&user).Error; err != nil {
		return nil, err
	}

	if requireEmailVerification() {
		if profile != nil {
			if err := s.settings.StashPendingProfile(user.ID, *profile); err != nil {
				s.log.Warn("could not stash pending profile", zap.Uint("user_id", user.ID), zap.Error(err))
			}
		}
		code := utils.GenerateRandomToken(6)
		user.VerifyCode = code
		if err := config.DB.Save(&user).Error; err != nil {
			return nil, err
		}
		if err := utils.SendVerificationEmail(user.Email, code); err != nil {
			s.log.Warn("could not send verification email", zap.Uint("user_id", user.ID), zap.Error(err))
		}
		return &AuthResult{User: &user, UserID: user.ID, Email: user.Email, AutoLoggedIn: false}, nil
	}

	// Auto sign-in path. A profile save failure is logged, not fatal:
	// the account exists either way.
	user.Verified = true
	if err := config.DB.Save(&user).Error; err != nil {
		return nil, err
	}
	if profile != nil {
		if _, err := s.settings.SaveProfile(user.ID, *profile); err != nil {
			s.log.Warn("could not save profile during signup", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}

	res, err := s.startSession(&user)
	if err != nil {
		return nil, err
	}
	res.AutoLoggedIn = true
	return res, nil
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if requireEmailVerification() && !user.Verified {
		return nil, ErrEmailNotVerified
	}
	return s.startSession(&user)
}

// VerifyEmail confirms the account; any stashed profile is applied on the
// first settings load after login.
func (s *AuthService) VerifyEmail(email, code string) error {
	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return errors.New("user not found")
	}
	if code == "" || user.VerifyCode != code {
		return errors.New("invalid verification code")
	}
	user.Verified = true
	user.VerifyCode = ""
	return config.DB.Save(&user).Error
}

func (s *AuthService) startSession(user *models.User) (*AuthResult, error) {
	sess := models.Session{
		UserID:       user.ID,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    time.Now().Add(sessionTTL),
	}
	if err := config.DB.Create(&sess).Error; err != nil {
		return nil, err
	}

	access, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(AuthEvent{Type: EventSignedIn, UserID: user.ID, Session: &sess})

	return &AuthResult{
		User:         user,
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  access,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.ExpiresAt,
	}, nil
}

// Refresh rotates a refresh token and mints a new access token. An expired
// session is cleared and reported, forcing a fresh sign-in.
func (s *AuthService) Refresh(refreshToken string) (*AuthResult, error) {
	var sess models.Session
	if err := config.DB.Where("refresh_token = ?", refreshToken).First(&sess).Error; err != nil {
		return nil, ErrSessionNotFound
	}
	if !sess.ExpiresAt.After(time.Now()) {
		_ = s.ClearSession(&sess)
		s.bus.Publish(AuthEvent{Type: EventSignedOut, UserID: sess.UserID})
		return nil, ErrSessionExpired
	}

	// Rotation happens only here: the caller holds the old token, so it is
	// the one party that can receive the replacement.
	sess.RefreshToken = uuid.NewString()
	sess.ExpiresAt = time.Now().Add(sessionTTL)
	if err := config.DB.Save(&sess).Error; err != nil {
		return nil, err
	}

	var user models.User
	if err := config.DB.First(&user, sess.UserID).Error; err != nil {
		return nil, err
	}
	access, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(AuthEvent{Type: EventTokenRefreshed, UserID: user.ID, Session: &sess})

	return &AuthResult{
		User:         &user,
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  access,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.ExpiresAt,
	}, nil
}

// Logout clears the session (one if a token is given, otherwise all of the
// user's) and resets all in-memory derived state to empty defaults.
func (s *AuthService) Logout(userID uint, refreshToken string) error {
	q := config.DB.Where("user_id = ?", userID)
	if refreshToken != "" {
		q = q.Where("refresh_token = ?", refreshToken)
	}
	if err := q.Delete(&models.Session{}).Error; err != nil {
		return err
	}
	s.tracker.Reset(userID)
	s.bus.Publish(AuthEvent{Type: EventSignedOut, UserID: userID})
	return nil
}

// DeleteAccount is the privileged full wipe: meals, settings, stash,
// sessions, then the user row itself.
func (s *AuthService) DeleteAccount(userID uint) error {
	if err := config.DB.Where("user_id = ?", userID).Delete(&models.Meal{}).Error; err != nil {
		return err
	}
	if err := s.settings.DeleteAllForUser(userID); err != nil {
		return err
	}
	if err := config.DB.Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
		return err
	}
	if err := config.DB.Delete(&models.User{}, userID).Error; err != nil {
		return err
	}
	s.tracker.Reset(userID)
	s.bus.Publish(AuthEvent{Type: EventSignedOut, UserID: userID})
	return nil
}

func (s *AuthService) ForgotPassword(email string) error {
	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		// Don't leak which emails exist
		return nil
	}

	token := utils.GenerateRandomToken(6)
	user.ResetToken = token
	user.ResetTokenExp = time.Now().Add(15 * time.Minute)
	if err := config.DB.Save(&user).Error; err != nil {
		return err
	}
	return utils.SendResetEmail(user.Email, token)
}

func (s *AuthService) ResetPassword(token, newPassword string) error {
	var user models.User
	if err := config.DB.Where("reset_token = ?", token).First(&user).Error; err != nil {
		return errors.New("invalid or expired token")
	}
	if token == "" || time.Now().After(user.ResetTokenExp) {
		return errors.New("invalid or expired token")
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.ResetToken = ""
	user.ResetTokenExp = time.Time{}
	if err := config.DB.Save(&user).Error; err != nil {
		return err
	}
	s.bus.Publish(AuthEvent{Type: EventUserUpdated, UserID: user.ID})
	return nil
}

// SessionSource implementation — the session manager drives these.

func (s *AuthService) ActiveSessions() ([]models.Session, error) {
	var sessions []models.Session
	err := config.DB.Find(&sessions).Error
	return sessions, err
}

// RefreshSession extends a session's lifetime in place. The refresh token
// is deliberately left alone: this path runs server-side, where the holder
// has no way to learn a replacement token.
func (s *AuthService) RefreshSession(sess *models.Session) (*models.Session, error) {
	sess.ExpiresAt = time.Now().Add(sessionTTL)
	if err := config.DB.Save(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *AuthService) ClearSession(sess *models.Session) error {
	return config.DB.Delete(&models.Session{}, sess.ID).Error
}
