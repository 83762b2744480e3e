package authService

import (
	"TravelExpense/internal/access"
	"TravelExpense/internal/api/auth"
	authRepository "TravelExpense/internal/api/auth/repository"
	"TravelExpense/internal/entity"
	"TravelExpense/pkg/bcrypt"
	"TravelExpense/pkg/microsoft"
	jwtPkg "TravelExpense/pkg/jwt"
	"TravelExpense/pkg/utils"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
	"golang.org/x/oauth2"
)

const testSecret = "test-secret"

type memUsers struct {
	mu    sync.Mutex
	users map[string]entity.User
}

func (m *memUsers) NewClient(ctx context.Context, tx bool) (authRepository.Client, error) {
	noop := func() error { return nil }
	return authRepository.Client{Users: m, Commit: noop, Rollback: noop}, nil
}

func (m *memUsers) CreateUser(ctx context.Context, user entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return auth.ErrEmailAlreadyExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return entity.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return entity.User{}, auth.ErrUserNotFound
}

func (m *memUsers) ListUsers(ctx context.Context) ([]entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]entity.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

type mockRedis struct {
	mock.Mock
}

func (m *mockRedis) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	return m.Called(tokenID, ttl).Error(0)
}

func (m *mockRedis) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(tokenID)
	return args.Bool(0), args.Error(1)
}

type stubMicrosoft struct {
	profile microsoft.Profile
	err     error
	gotCode string
}

func (s *stubMicrosoft) AuthCodeURL(state string) string {
	return "https://login.microsoftonline.com/common/oauth2/v2.0/authorize?state=" + state
}

func (s *stubMicrosoft) GetUserProfile(ctx context.Context, code string) (microsoft.Profile, error) {
	s.gotCode = code
	return s.profile, s.err
}

func (s *stubMicrosoft) GetConfig() *oauth2.Config {
	return &oauth2.Config{}
}

type fixture struct {
	ctx   context.Context
	repo  *memUsers
	redis *mockRedis
	ms    *stubMicrosoft
	svc   AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", testSecret)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		ctx:   context.Background(),
		repo:  &memUsers{users: map[string]entity.User{}},
		redis: new(mockRedis),
		ms:    &stubMicrosoft{},
	}
	f.svc = New(logger, f.repo, f.ms, f.redis, bcrypt.NewWithCost(4), utils.New(), "state-123")
	return f
}

func (f *fixture) register(t *testing.T, name, email, password string) entity.User {
	t.Helper()
	user, err := f.svc.User().RegisterUser(f.ctx, auth.RegisterRequest{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return user
}

func claimsOf(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwtPkg.Parse(token, testSecret)
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestRegisterUser(t *testing.T) {
	f := newFixture(t)

	user := f.register(t, " Alicia ", " Alicia@Example.COM", "correct-horse")

	assert.Equal(t, "Alicia", user.Name)
	assert.Equal(t, "alicia@example.com", user.Email)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.NotEqual(t, "correct-horse", user.Password)
	assert.Len(t, user.ID, 26)

	_, err := f.svc.User().RegisterUser(f.ctx, auth.RegisterRequest{Name: "Other", Email: "alicia@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
}

func TestCreateAdmin(t *testing.T) {
	f := newFixture(t)

	admin, err := f.svc.User().CreateAdmin(f.ctx, "Root", "root@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, admin.Role)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "Alicia", "alicia@example.com", "correct-horse")

	res, err := f.svc.Auth().Login(f.ctx, auth.LoginRequest{Email: "ALICIA@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	assert.Equal(t, user.ID, res.User.ID)
	assert.InDelta(t, AccessTokenTTL.Minutes(), res.ExpiresInMinutes, 1)

	claims := claimsOf(t, res.AccessToken)
	actor, err := jwtPkg.ActorFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.ID)
	assert.Equal(t, "Alicia", actor.Name)
	assert.Equal(t, entity.RoleUser, actor.Role)
	assert.NotEmpty(t, actor.TokenID)
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Alicia", "alicia@example.com", "correct-horse")
	f.repo.users["sso"] = entity.User{ID: "sso", Name: "Sso", Email: "sso@example.com", Role: entity.RoleUser}

	for _, req := range []auth.LoginRequest{
		{Email: "alicia@example.com", Password: "wrong-horse"},
		{Email: "nobody@example.com", Password: "correct-horse"},
		{Email: "sso@example.com", Password: ""},
	} {
		_, err := f.svc.Auth().Login(f.ctx, req)
		assert.ErrorIs(t, err, auth.ErrInvalidEmailOrPassword, req.Email)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	actor := entity.Actor{ID: "u1", Role: entity.RoleUser, TokenID: "jti-1", Expires: time.Now().Add(time.Hour)}

	f.redis.On("RevokeToken", "jti-1", mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 59*time.Minute && ttl <= time.Hour
	})).Return(nil).Once()

	require.NoError(t, f.svc.Auth().Logout(f.ctx, actor))
	f.redis.AssertExpectations(t)

	f.redis.On("RevokeToken", "jti-2", mock.Anything).Return(errors.New("dial tcp: refused"))
	actor.TokenID = "jti-2"
	assert.ErrorIs(t, f.svc.Auth().Logout(f.ctx, actor), auth.ErrSessionStore)
}

func TestListUsers_AdminOnly(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Bruno", "bruno@example.com", "password-1")
	f.register(t, "Alicia", "alicia@example.com", "password-2")

	_, err := f.svc.User().ListUsers(f.ctx, entity.Actor{ID: "u1", Role: entity.RoleUser})
	assert.ErrorIs(t, err, access.ErrForbidden)

	users, err := f.svc.User().ListUsers(f.ctx, entity.Actor{ID: "a1", Role: entity.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Alicia", users[0].Name)
}

func TestMicrosoftLogin(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "Alicia", "alicia@example.com", "correct-horse")

	url, err := f.svc.Auth().MicrosoftLoginURL()
	require.NoError(t, err)
	assert.Contains(t, url, "state=state-123")

	f.ms.profile = microsoft.Profile{UserPrincipalName: "Alicia@Example.com"}
	res, err := f.svc.Auth().LoginMicrosoft(f.ctx, "state-123", "code-1")
	require.NoError(t, err)
	assert.Equal(t, "code-1", f.ms.gotCode)
	assert.Equal(t, user.ID, res.User.ID)
	assert.Equal(t, user.ID, claimsOf(t, res.AccessToken)["id"])
}

func TestMicrosoftLogin_Failures(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Auth().LoginMicrosoft(f.ctx, "forged", "code-1")
	assert.ErrorIs(t, err, auth.ErrInvalidOAuthState)

	_, err = f.svc.Auth().LoginMicrosoft(f.ctx, "state-123", "")
	assert.ErrorIs(t, err, auth.ErrMissingOAuthCode)

	f.ms.profile = microsoft.Profile{Mail: "stranger@example.com"}
	_, err = f.svc.Auth().LoginMicrosoft(f.ctx, "state-123", "code-1")
	assert.ErrorIs(t, err, auth.ErrAccountNotRegistered)

	f.ms.err = errors.New("invalid_grant")
	_, err = f.svc.Auth().LoginMicrosoft(f.ctx, "state-123", "code-1")
	assert.ErrorIs(t, err, auth.ErrOAuthExchange)
}

func TestMicrosoftLogin_NotConfigured(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := New(logger, &memUsers{users: map[string]entity.User{}}, nil, nil, bcrypt.NewWithCost(4), utils.New(), "s")

	_, err := svc.Auth().MicrosoftLoginURL()
	assert.ErrorIs(t, err, auth.ErrSSONotConfigured)
	_, err = svc.Auth().LoginMicrosoft(context.Background(), "s", "c")
	assert.ErrorIs(t, err, auth.ErrSSONotConfigured)
	assert.ErrorIs(t, svc.Auth().Logout(context.Background(), entity.Actor{ID: "u"}), auth.ErrSessionStore)
}
