package db

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pressroom/internal/authz"
)

// User 定义了用户模型,角色与激活状态参与授权判定。
type User struct {
	gorm.Model
	Username    string `gorm:"unique;not null"`
	Email       string `gorm:"unique;not null"`
	Password    string `gorm:"not null"`
	Role        string `gorm:"not null;default:author;index"`
	DisplayName string
	Bio         string `gorm:"type:text"`
	AvatarURL   string
	IsActive    bool `gorm:"not null;default:true"`
	LastLogin   *time.Time
}

// Actor 把用户映射为授权引擎的输入视图。
func (u *User) Actor() authz.Actor {
	return authz.Actor{ID: u.ID, Role: authz.Role(u.Role), Active: u.IsActive}
}

// ErrPasswordTooShort 是密码强度校验的哨兵错误,边界层按无效输入处理。
var ErrPasswordTooShort = errors.New("password must be at least 8 characters long")

// SetPassword 以 bcrypt 哈希保存密码,少于 8 位直接拒绝。
func (u *User) SetPassword(plain string) error {
	if len(plain) < 8 {
		return ErrPasswordTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword 校验明文密码是否与存储的哈希匹配。
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// EnsureUser 存在性检查:若提供的用户名与密码均非空且不存在对应账号,
// 则以给定角色创建一个 bcrypt 哈希的用户。用于启动时播种管理员。
func EnsureUser(gdb *gorm.DB, username, email, password string, role authz.Role) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}

	if gdb == nil {
		return errors.New("database not initialized")
	}
	if !role.Valid() {
		return errors.New("unknown role")
	}

	var existing User
	if err := gdb.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user := User{
			Username: trimmedUser,
			Email:    strings.TrimSpace(email),
			Role:     string(role),
			IsActive: true,
		}
		if err := user.SetPassword(trimmedPassword); err != nil {
			return err
		}
		return gdb.Create(&user).Error
	}

	return nil
}
