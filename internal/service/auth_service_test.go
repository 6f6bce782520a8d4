package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

type mockAuthRepo struct {
	users               map[string]*models.User
	findErr             error
	createErr           error
	refreshTokens       map[string]*models.RefreshToken
	refreshTokenErr     error
	createRefreshErr    error
	revokeRefreshErr    error
	revokeUserTokensErr error
	updatePasswordErr   error
	auditLogs           []*models.AuditLog
	created             []*models.User
	lastLoginUpdated    bool
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	repo := &mockAuthRepo{users: map[string]*models.User{}, refreshTokens: map[string]*models.RefreshToken{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.users[user.ID] = user
	m.created = append(m.created, user)
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return m.revokeUserTokensErr
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.createRefreshErr != nil {
		return m.createRefreshErr
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if m.refreshTokenErr != nil {
		return nil, m.refreshTokenErr
	}
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	if m.revokeRefreshErr != nil {
		return m.revokeRefreshErr
	}
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

type stubClassLookup struct {
	classes map[string]*models.Class
}

func (s stubClassLookup) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := s.classes[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func hashPassword(t *testing.T, raw string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func strPtr(v string) *string { return &v }

func newAuthService(repo *mockAuthRepo) *AuthService {
	classes := stubClassLookup{classes: map[string]*models.Class{"c1": {ID: "c1", Name: "XI RPL 1"}}}
	return NewAuthService(repo, classes, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "lapanclass",
	})
}

func TestAuthServiceLoginCarriesSession(t *testing.T) {
	repo := newMockAuthRepo(&models.User{
		ID: "u1", Username: "ketua", PasswordHash: hashPassword(t, "rahasia"), FullName: "Budi",
		Role: models.RoleKetua, ClassID: strPtr("c1"), Approved: true, Active: true,
	})
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "ketua", Password: "rahasia"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, repo.lastLoginUpdated)
	assert.Equal(t, "c1", res.User.ClassID)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	session := claims.Session()
	assert.Equal(t, models.RoleKetua, session.Role)
	assert.True(t, session.CanManageClass("c1"))
	assert.False(t, session.CanManageClass("c2"))
}

func TestAuthServiceLoginUnknownUsername(t *testing.T) {
	svc := newAuthService(newMockAuthRepo())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccountNotFound.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginStoreFailureIsInternal(t *testing.T) {
	repo := newMockAuthRepo()
	repo.findErr = errors.New("connection reset")
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ketua", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginPendingApproval(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Username: "sekre", PasswordHash: hashPassword(t, "rahasia"), Role: models.RoleSekretaris, Active: true})
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "sekre", Password: "rahasia"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPendingApproval.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Username: "admin", PasswordHash: hashPassword(t, "rahasia"), Role: models.RoleAdmin, Active: true, Approved: true})
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "salah"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginRejectsPlainTextHash(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Username: "legacy", PasswordHash: "rahasia", Role: models.RoleAdmin, Active: true, Approved: true})
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "legacy", Password: "rahasia"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterOfficer(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	user, err := svc.RegisterOfficer(context.Background(), models.RegisterOfficerRequest{
		Username: "bendahara", Password: "rahasia", FullName: "Sari", Role: models.RoleBendahara, ClassID: "c1",
	})
	require.NoError(t, err)
	assert.False(t, user.Approved)
	assert.Len(t, repo.created, 1)
	assert.NotEqual(t, "rahasia", user.PasswordHash)

	_, err = svc.RegisterOfficer(context.Background(), models.RegisterOfficerRequest{
		Username: "bendahara", Password: "rahasia", FullName: "Sari", Role: models.RoleBendahara, ClassID: "c1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterOfficerRejectsNonOfficerRole(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	_, err := svc.RegisterOfficer(context.Background(), models.RegisterOfficerRequest{
		Username: "root", Password: "rahasia", FullName: "Root", Role: models.RoleAdmin, ClassID: "c1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	user := &models.User{ID: "u1", Username: "admin", Role: models.RoleAdmin, Active: true, Approved: true}
	repo := newMockAuthRepo(user)
	repo.refreshTokens["old"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "old", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newAuthService(repo)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	require.NoError(t, err)
	assert.NotEqual(t, "old", res.RefreshToken)
	assert.True(t, repo.refreshTokens["old"].Revoked)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutRevokesSession(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Username: "admin", Role: models.RoleAdmin, Active: true, Approved: true})
	repo.refreshTokens["tok"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newAuthService(repo)

	err := svc.Logout(context.Background(), "tok", "u2", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), "tok", "u1", models.LoginRequest{}))
	assert.True(t, repo.refreshTokens["tok"].Revoked)
	require.NotEmpty(t, repo.auditLogs)
	assert.Equal(t, models.AuditActionLogout, repo.auditLogs[len(repo.auditLogs)-1].Action)
}

func TestAuthServiceChangePassword(t *testing.T) {
	user := &models.User{ID: "u1", Username: "admin", PasswordHash: hashPassword(t, "lama123"), Role: models.RoleAdmin, Active: true, Approved: true}
	repo := newMockAuthRepo(user)
	svc := newAuthService(repo)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "salah", NewPassword: "baru123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "lama123", NewPassword: "baru123"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("baru123")))
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Username: "admin", PasswordHash: hashPassword(t, "rahasia"), Role: models.RoleAdmin, Active: true, Approved: true})
	issuer := newAuthService(repo)
	res, err := issuer.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "rahasia"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, nil, AuthConfig{AccessTokenSecret: "other"})
	_, err = other.ValidateToken(res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
