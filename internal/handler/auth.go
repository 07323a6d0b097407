package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/service"
)

const sessionUserKey = "user_id"

// Login 处理用户登录请求,校验凭证并写入会话。
func (a *API) Login(c *gin.Context) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &payload, "Invalid login payload") {
		return
	}

	user, err := a.users.Authenticate(payload.Username, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "Invalid username or password")
		case errors.Is(err, service.ErrUserInactive):
			respondError(c, http.StatusForbidden, "Account is inactive")
		default:
			respondError(c, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userJSON(user),
	})
}

// Register 开放注册,新账号一律落在 author 角色上并直接登录。
func (a *API) Register(c *gin.Context) {
	var payload struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if !bindJSON(c, &payload, "Invalid registration payload") {
		return
	}

	user, err := a.users.Register(service.UserRegister{
		Username:    payload.Username,
		Email:       payload.Email,
		Password:    payload.Password,
		DisplayName: payload.DisplayName,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create user")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to save session")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userJSON(user),
	})
}

// UpdateProfile 更新当前用户的展示资料,只动提供了的字段。
func (a *API) UpdateProfile(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	var payload struct {
		DisplayName *string `json:"display_name"`
		Bio         *string `json:"bio"`
		AvatarURL   *string `json:"avatar_url"`
	}
	if !bindJSON(c, &payload, "Invalid profile payload") {
		return
	}

	updated, err := a.users.UpdateProfile(user.ID, service.ProfileUpdate{
		DisplayName: payload.DisplayName,
		Bio:         payload.Bio,
		AvatarURL:   payload.AvatarURL,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    userJSON(updated),
	})
}

// ChangePassword 校验旧密码后更换凭证,会话保持不变。
func (a *API) ChangePassword(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	var payload struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !bindJSON(c, &payload, "Invalid password payload") {
		return
	}

	if err := a.users.ChangePassword(user.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		respondServiceError(c, err, "Failed to change password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// Logout 清空会话。
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me 返回当前登录用户。
func (a *API) Me(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userJSON(user)})
}

// AuthRequired 拦截未登录请求。授权判定(角色、归属)留给各端点的
// 决策引擎调用,这里只保证会话能解析出一个用户。
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.sessionUser(c); !ok {
			respondError(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// sessionUser 从会话解析当前用户,不存在或已被删除时返回 false。
func (a *API) sessionUser(c *gin.Context) (*db.User, bool) {
	session := sessions.Default(c)
	raw := session.Get(sessionUserKey)
	if raw == nil {
		return nil, false
	}

	userID, ok := raw.(uint)
	if !ok {
		return nil, false
	}

	user, err := a.users.Get(userID)
	if err != nil {
		return nil, false
	}
	return user, true
}

// requireUser 解析当前用户,失败时直接写出 401。
func (a *API) requireUser(c *gin.Context) (*db.User, bool) {
	user, ok := a.sessionUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return user, true
}

func userJSON(user *db.User) gin.H {
	displayName := user.DisplayName
	if displayName == "" {
		displayName = user.Username
	}

	return gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"display_name": displayName,
		"bio":          user.Bio,
		"avatar_url":   user.AvatarURL,
		"role":         user.Role,
		"is_active":    user.IsActive,
		"created_at":   user.CreatedAt,
	}
}
