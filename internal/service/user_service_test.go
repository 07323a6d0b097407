package service

import (
	"errors"
	"testing"
)

func TestAuthenticateSuccessStampsLastLogin(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	seedUser(t, gdb, "alice", "author")
	svc := NewUserService(gdb)

	user, err := svc.Authenticate("alice", "correct-horse-battery")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.LastLogin == nil {
		t.Fatal("expected last_login to be stamped")
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	seedUser(t, gdb, "alice", "author")
	svc := NewUserService(gdb)

	if _, err := svc.Authenticate("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb)
	if _, err := svc.Authenticate("ghost", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterAssignsAuthorRole(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb)
	user, err := svc.Register(UserRegister{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "long-enough-secret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if user.Role != "author" {
		t.Fatalf("expected author role, got %s", user.Role)
	}
	if !user.IsActive {
		t.Fatal("expected new account to be active")
	}
	if !user.CheckPassword("long-enough-secret") {
		t.Fatal("expected password hash to verify")
	}
}

func TestRegisterRejectsDuplicateEmailAndUsername(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	seedUser(t, gdb, "alice", "author")
	svc := NewUserService(gdb)

	_, err := svc.Register(UserRegister{
		Username: "alice2", Email: "alice@example.com", Password: "long-enough-secret",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	_, err = svc.Register(UserRegister{
		Username: "alice", Email: "fresh@example.com", Password: "long-enough-secret",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterValidatesUsernameLength(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb)
	_, err := svc.Register(UserRegister{Username: "ab", Email: "ab@example.com", Password: "long-enough-secret"})
	if !errors.Is(err, ErrUsernameInvalid) {
		t.Fatalf("expected ErrUsernameInvalid, got %v", err)
	}
}

func TestUpdateProfileKeepsOmittedFields(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "alice", "author")
	if err := gdb.Model(user).Update("bio", "original bio").Error; err != nil {
		t.Fatalf("seed bio: %v", err)
	}

	svc := NewUserService(gdb)
	name := "Alice Q."
	updated, err := svc.UpdateProfile(user.ID, ProfileUpdate{DisplayName: &name})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}

	if updated.DisplayName != "Alice Q." {
		t.Fatalf("unexpected display name: %q", updated.DisplayName)
	}
	if updated.Bio != "original bio" {
		t.Fatalf("omitted bio must be untouched, got %q", updated.Bio)
	}
}

func TestChangePasswordChecksCurrent(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "alice", "author")
	svc := NewUserService(gdb)

	if err := svc.ChangePassword(user.ID, "wrong-password", "another-long-secret"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}

	if err := svc.ChangePassword(user.ID, "correct-horse-battery", "another-long-secret"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := svc.Authenticate("alice", "correct-horse-battery"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, err := svc.Authenticate("alice", "another-long-secret"); err != nil {
		t.Fatalf("expected new password accepted, got %v", err)
	}
}

func TestAuthenticateInactiveAccountRejected(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "alice", "author")
	if err := gdb.Model(user).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	svc := NewUserService(gdb)
	if _, err := svc.Authenticate("alice", "correct-horse-battery"); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
}
