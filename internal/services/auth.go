package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mediafolio/mediafolio/internal/config"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/internal/utils"
	"github.com/mediafolio/mediafolio/pkg/response"
	"gorm.io/gorm"
)

const defaultRefreshExpireHours = 720

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

type AuthService struct {
	db        *gorm.DB
	directory Directory
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, directory Directory) *AuthService {
	return &AuthService{
		db:        db,
		directory: directory,
		jwtConfig: jwtCfg,
	}
}

type RegisterRequest struct {
	Username        string `json:"username" binding:"required,max=150"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
	FullName        string `json:"full_name" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	AuthType string `json:"auth_type"` // local, ldap
}

type LoginResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
	User            *models.User
}

type RefreshResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
}

// Register creates the user and its profile in one transaction.
func (s *AuthService) Register(req *RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	switch {
	case username == "":
		return nil, response.NewBadRequest("username is required")
	case !usernamePattern.MatchString(username):
		return nil, response.NewBadRequest("username may contain only letters, digits and @.+-_")
	case email == "":
		return nil, response.NewBadRequest("email is required")
	case strings.TrimSpace(req.FullName) == "":
		return nil, response.NewBadRequest("full name is required")
	case len(req.Password) < 6:
		return nil, response.NewBadRequest("password must be at least 6 characters")
	case len(req.Password) > utils.MaxPasswordBytes:
		return nil, response.NewBadRequest("password must be at most 72 bytes")
	case req.Password != req.PasswordConfirm:
		return nil, response.NewBadRequest("passwords do not match")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, response.NewConflict("username already taken")
	}
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, response.NewConflict("email already registered")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	first, last := models.SplitFullName(req.FullName)
	user := models.User{
		Username:  username,
		Email:     email,
		Password:  hashed,
		FirstName: first,
		LastName:  last,
		Role:      models.RoleUser,
		AuthType:  models.AuthTypeLocal,
		IsActive:  true,
	}

	if err := s.createWithProfile(&user); err != nil {
		if isDuplicate(err) {
			return nil, response.NewConflict("username or email already taken")
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) createWithProfile(user *models.User) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile := models.NewProfile(user.ID)
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
}

// Login authenticates a user and issues an access and a refresh token.
func (s *AuthService) Login(req *LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	var user *models.User
	var err error

	if req.AuthType == "" {
		req.AuthType = models.AuthTypeLocal
	}

	switch req.AuthType {
	case models.AuthTypeLocal:
		user, err = s.localAuth(req.Username, req.Password)
	case models.AuthTypeLDAP:
		user, err = s.ldapAuth(req.Username, req.Password)
	default:
		return nil, response.NewBadRequest("invalid auth type")
	}
	if err != nil {
		return nil, err
	}

	accessHours := s.accessTokenExpireHours()
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, accessHours)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshRecord, err := s.newRefreshToken(user.ID, clientIP, userAgent)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(refreshRecord).Error; err != nil {
			return err
		}
		return tx.Model(user).Update("last_login", now).Error
	}); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return &LoginResult{
		AccessToken:     token,
		AccessExpireAt:  now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: refreshRecord.ExpiresAt,
		User:            user,
	}, nil
}

// Refresh exchanges a refresh token for a new pair and revokes the old one.
func (s *AuthService) Refresh(refreshToken string, clientIP, userAgent string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, response.NewBadRequest("refresh token required")
	}

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ?", hashRefreshToken(refreshToken)).First(&stored).Error; err != nil {
		return nil, notFoundOr(err, response.NewUnauthorized("invalid refresh token"))
	}
	if stored.RevokedAt != nil {
		return nil, response.NewUnauthorized("refresh token revoked")
	}
	if !stored.Usable(time.Now()) {
		return nil, response.NewUnauthorized("refresh token expired")
	}

	var user models.User
	if err := s.db.First(&user, stored.UserID).Error; err != nil {
		return nil, notFoundOr(err, response.NewUnauthorized("invalid refresh token"))
	}
	if !user.IsActive {
		return nil, response.NewForbidden("user is disabled")
	}

	accessHours := s.accessTokenExpireHours()
	newAccessToken, err := utils.GenerateToken(user.ID, user.Username, user.Role, accessHours)
	if err != nil {
		return nil, err
	}

	newRefreshToken, newRefresh, err := s.newRefreshToken(user.ID, clientIP, userAgent)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newRefresh).Error; err != nil {
			return err
		}
		// Only the first concurrent rotation wins the revoke.
		result := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", stored.ID).
			Updates(map[string]interface{}{
				"revoked_at":           now,
				"replaced_by_token_id": newRefresh.ID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return response.NewUnauthorized("refresh token revoked")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return &RefreshResult{
		AccessToken:     newAccessToken,
		AccessExpireAt:  now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    newRefreshToken,
		RefreshExpireAt: newRefresh.ExpiresAt,
	}, nil
}

// RevokeRefreshToken logs a session out. Unknown tokens are ignored.
func (s *AuthService) RevokeRefreshToken(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hashRefreshToken(refreshToken)).
		Update("revoked_at", time.Now()).Error
}

func (s *AuthService) accessTokenExpireHours() int {
	if s.jwtConfig.ExpireHour <= 0 {
		return 24
	}
	return s.jwtConfig.ExpireHour
}

func (s *AuthService) refreshTokenExpireHours() int {
	if s.jwtConfig.RefreshExpireHour <= 0 {
		return defaultRefreshExpireHours
	}
	return s.jwtConfig.RefreshExpireHour
}

func (s *AuthService) newRefreshToken(userID uint, clientIP, userAgent string) (string, *models.RefreshToken, error) {
	token, hash, err := generateRefreshToken()
	if err != nil {
		return "", nil, err
	}
	userAgent = utils.TruncateRunes(userAgent, 255)
	return token, &models.RefreshToken{
		UserID:      userID,
		TokenHash:   hash,
		ExpiresAt:   time.Now().Add(time.Duration(s.refreshTokenExpireHours()) * time.Hour),
		CreatedByIP: clientIP,
		UserAgent:   userAgent,
	}, nil
}

func generateRefreshToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(randomBytes)
	tokenHash = hashRefreshToken(token)
	return token, tokenHash, nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) localAuth(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ? AND auth_type = ?", username, models.AuthTypeLocal).First(&user).Error; err != nil {
		return nil, notFoundOr(err, response.NewUnauthorized("invalid username or password"))
	}

	if !user.IsActive {
		return nil, response.NewForbidden("user is disabled")
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, response.NewUnauthorized("invalid username or password")
	}

	return &user, nil
}

// ldapAuth binds against the directory and provisions the local user and
// profile on first login.
func (s *AuthService) ldapAuth(username, password string) (*models.User, error) {
	if s.directory == nil || !s.directory.IsEnabled() {
		return nil, response.NewBadRequest("LDAP login is not enabled")
	}

	ldapUser, err := s.directory.Authenticate(username, password)
	if err != nil {
		return nil, err
	}
	if ldapUser.Username == "" {
		ldapUser.Username = username
	}

	var user models.User
	err = s.db.Where("username = ?", ldapUser.Username).First(&user).Error
	switch {
	case isNotFound(err):
		email := strings.ToLower(ldapUser.Email)
		if email == "" {
			email = fmt.Sprintf("%s@ldap.local", ldapUser.Username)
		}
		user = models.User{
			Username:  ldapUser.Username,
			Email:     email,
			FirstName: ldapUser.FirstName,
			LastName:  ldapUser.LastName,
			Role:      models.RoleUser,
			AuthType:  models.AuthTypeLDAP,
			IsActive:  true,
		}
		if err := s.createWithProfile(&user); err != nil {
			if isDuplicate(err) {
				return nil, response.NewConflict("a local account already uses this username or email")
			}
			return nil, err
		}
		return &user, nil
	case err != nil:
		return nil, err
	}

	if user.AuthType != models.AuthTypeLDAP {
		return nil, response.NewConflict("a local account already uses this username")
	}
	if !user.IsActive {
		return nil, response.NewForbidden("user is disabled")
	}

	updates := map[string]interface{}{}
	if ldapUser.FirstName != "" || ldapUser.LastName != "" {
		updates["first_name"] = ldapUser.FirstName
		updates["last_name"] = ldapUser.LastName
	}
	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return &user, nil
}

// GetUserByID returns the user with its profile.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Profile").First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	return &user, nil
}

// CreateAdminIfNotExists creates the default admin account on an empty install.
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := utils.HashPassword("admin")
	if err != nil {
		return err
	}

	admin := models.User{
		Username:  "admin",
		Email:     "admin@mediafolio.local",
		Password:  hashedPassword,
		FirstName: "Administrator",
		Role:      models.RoleAdmin,
		AuthType:  models.AuthTypeLocal,
		IsActive:  true,
	}
	return s.createWithProfile(&admin)
}

func (s *AuthService) IsLDAPEnabled() bool {
	return s.directory != nil && s.directory.IsEnabled()
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return notFoundOr(err, ErrUserNotFound)
	}

	if user.AuthType != models.AuthTypeLocal {
		return response.NewBadRequest("LDAP users cannot change password here")
	}
	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return response.NewBadRequest("incorrect old password")
	}
	if len(req.NewPassword) < 6 {
		return response.NewBadRequest("password must be at least 6 characters")
	}
	if len(req.NewPassword) > utils.MaxPasswordBytes {
		return response.NewBadRequest("password must be at most 72 bytes")
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", hashedPassword).Error; err != nil {
			return err
		}
		// Existing sessions end with the old password.
		return tx.Model(&models.RefreshToken{}).
			Where("user_id = ? AND revoked_at IS NULL", user.ID).
			Update("revoked_at", time.Now()).Error
	})
}
