package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/BradenHooton/citypulse/internal/models"
	pkgauth "github.com/BradenHooton/citypulse/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hashOnce   sync.Once
	cachedHash string
)

// testHash returns a bcrypt hash of "correct-horse", computed once per run
func testHash(t *testing.T) string {
	hashOnce.Do(func() {
		h, err := pkgauth.HashPassword("correct-horse")
		require.NoError(t, err)
		cachedHash = h
	})
	return cachedHash
}

func newAuthService(repo UserRepository, tokens TokenIssuer) (*AuthService, *bytes.Buffer) {
	var audit bytes.Buffer
	logger, auditLogger := NewTestLoggers(&audit)
	return NewAuthService(repo, tokens, logger, auditLogger), &audit
}

func TestAuthService_Register_Success(t *testing.T) {
	var stored *models.User
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			stored = user
			user.ID = "u-1"
			return user, nil
		},
	}
	svc, audit := newAuthService(repo, &MockTokenIssuer{})

	user, err := svc.Register(context.Background(), "  asha  ", "correct-horse", "")

	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "asha", stored.Username)
	assert.Equal(t, models.RoleCitizen, stored.Role)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.NoError(t, pkgauth.ComparePassword(stored.PasswordHash, "correct-horse"))
	assert.Contains(t, audit.String(), `"event_type":"signup"`)
}

func TestAuthService_Register_Officer(t *testing.T) {
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = "o-1"
			return user, nil
		},
	}
	svc, _ := newAuthService(repo, &MockTokenIssuer{})

	user, err := svc.Register(context.Background(), "inspector", "correct-horse", models.RoleOfficer)

	require.NoError(t, err)
	assert.Equal(t, models.RoleOfficer, user.Role)
}

func TestAuthService_Register_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		role     string
	}{
		{"empty username", "", "correct-horse", ""},
		{"blank username", "   ", "correct-horse", ""},
		{"empty password", "asha", "", ""},
		{"password too long", "asha", strings.Repeat("x", 73), ""},
		{"unknown role", "asha", "correct-horse", "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockUserRepository{
				CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
					t.Fatal("repository must not be called")
					return nil, nil
				},
			}
			svc, _ := newAuthService(repo, &MockTokenIssuer{})

			user, err := svc.Register(context.Background(), tt.username, tt.password, tt.role)

			assert.Nil(t, user)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrDuplicateUsername
		},
	}
	svc, audit := newAuthService(repo, &MockTokenIssuer{})

	_, err := svc.Register(context.Background(), "asha", "correct-horse", "")

	assert.ErrorIs(t, err, models.ErrDuplicateUsername)
	assert.Contains(t, audit.String(), "duplicate_username")
}

func TestAuthService_Register_StoreFailure(t *testing.T) {
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc, _ := newAuthService(repo, &MockTokenIssuer{})

	_, err := svc.Register(context.Background(), "asha", "correct-horse", "")

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAuthService_Login_Success(t *testing.T) {
	hash := testHash(t)
	repo := &MockUserRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			assert.Equal(t, "asha", username)
			return NewTestUser("u-1", "asha", models.RoleCitizen, hash), nil
		},
	}
	tokens := &MockTokenIssuer{
		GenerateTokenFunc: func(userID, role string) (string, error) {
			assert.Equal(t, "u-1", userID)
			assert.Equal(t, models.RoleCitizen, role)
			return "signed", nil
		},
	}
	svc, audit := newAuthService(repo, tokens)

	result, err := svc.Login(context.Background(), "asha", "correct-horse")

	require.NoError(t, err)
	assert.Equal(t, "signed", result.Token)
	assert.Equal(t, models.RoleCitizen, result.Role)
	assert.Contains(t, audit.String(), `"success":true`)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc, audit := newAuthService(&MockUserRepository{}, &MockTokenIssuer{})

	result, err := svc.Login(context.Background(), "ghost", "whatever")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, audit.String(), "user_not_found")
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	hash := testHash(t)
	repo := &MockUserRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return NewTestUser("u-1", "asha", models.RoleCitizen, hash), nil
		},
	}
	svc, _ := newAuthService(repo, &MockTokenIssuer{})

	result, err := svc.Login(context.Background(), "asha", "wrong")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAuthService_Login_TokenFailure(t *testing.T) {
	hash := testHash(t)
	repo := &MockUserRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return NewTestUser("u-1", "asha", models.RoleCitizen, hash), nil
		},
	}
	tokens := &MockTokenIssuer{
		GenerateTokenFunc: func(userID, role string) (string, error) {
			return "", errors.New("sign failed")
		},
	}
	svc, _ := newAuthService(repo, tokens)

	_, err := svc.Login(context.Background(), "asha", "correct-horse")

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAuthService_EnsureOfficer_CreatesWhenMissing(t *testing.T) {
	var created *models.User
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			created = user
			user.ID = "o-1"
			return user, nil
		},
	}
	svc, _ := newAuthService(repo, &MockTokenIssuer{})

	require.NoError(t, svc.EnsureOfficer(context.Background(), "chief", "correct-horse"))
	require.NotNil(t, created)
	assert.Equal(t, models.RoleOfficer, created.Role)
}

func TestAuthService_EnsureOfficer_ExistingIsLeftAlone(t *testing.T) {
	repo := &MockUserRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return NewTestUser("o-1", "chief", models.RoleOfficer, "hash"), nil
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			t.Fatal("existing officer must not be recreated")
			return nil, nil
		},
	}
	svc, _ := newAuthService(repo, &MockTokenIssuer{})

	assert.NoError(t, svc.EnsureOfficer(context.Background(), "chief", "correct-horse"))
}

func TestAuthService_EnsureOfficer_LookupFailure(t *testing.T) {
	repo := &MockUserRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return nil, errors.New("timeout")
		},
	}
	svc, _ := newAuthService(repo, &MockTokenIssuer{})

	assert.Error(t, svc.EnsureOfficer(context.Background(), "chief", "correct-horse"))
}
