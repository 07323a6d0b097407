package service

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pressroom/internal/authz"
	"github.com/pressroom/internal/db"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("account is inactive")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameInvalid    = errors.New("username must be between 3 and 80 characters")
	ErrEmailRequired      = errors.New("email is required")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// UserService wraps user lookup and credential checks.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a UserService instance.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// UserRegister represents fields accepted when registering an account.
type UserRegister struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// ProfileUpdate represents a partial profile update; nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

// Register 开放注册:新账号一律是 author 角色,管理员只能通过启动播种
// 或手工改库产生。用户名与邮箱分别查重,返回各自的哨兵错误。
func (s *UserService) Register(input UserRegister) (*db.User, error) {
	username := strings.TrimSpace(input.Username)
	if len(username) < 3 || len(username) > 80 {
		return nil, ErrUsernameInvalid
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrEmailRequired
	}

	var existing db.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return nil, ErrUsernameTaken
	}

	user := db.User{
		Username:    username,
		Email:       email,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Role:        string(authz.RoleAuthor),
		IsActive:    true,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, err
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile 更新当前用户的展示字段,凭证与角色不在此路径上。
func (s *UserService) UpdateProfile(id uint, input ProfileUpdate) (*db.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*input.AvatarURL)
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword 校验旧密码后写入新哈希,旧密码不对不泄露任何其他信息。
func (s *UserService) ChangePassword(id uint, current, next string) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}

	if !user.CheckPassword(current) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(next); err != nil {
		return err
	}

	return s.db.Model(user).UpdateColumn("password", user.Password).Error
}

// Get fetches a user by id.
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate 校验用户名密码。未激活账号即使密码正确也拒绝登录,
// 成功后刷新 last_login。
func (s *UserService) Authenticate(username, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	now := time.Now()
	if err := s.db.Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return &user, nil
}
