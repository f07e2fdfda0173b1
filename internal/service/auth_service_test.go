package service_test

import (
	"context"
	"testing"
	"time"

	"taskManager/internal/models/profile"
	"taskManager/internal/models/session"
	"taskManager/internal/repository"
	"taskManager/internal/service"
	"taskManager/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockSessionRepository - мок репозитория сессий
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, s *session.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionRepository) GetSessionsByUser(ctx context.Context, userID uuid.UUID) ([]*session.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.Session), args.Error(1)
}

func (m *MockSessionRepository) DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) error {
	args := m.Called(ctx, before)
	return args.Error(0)
}

var _ repository.SessionRepository = (*MockSessionRepository)(nil)

func testTokens() *token.Manager {
	return token.NewManager("access-secret", "refresh-secret", time.Minute, time.Hour)
}

func TestAuthService_SignUp(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		password    string
		setupMock   func(*MockProfileRepository)
		expectError bool
		errorCode   string
	}{
		{
			name:     "success - profile created",
			email:    "master@firm.ru",
			password: "secret",
			setupMock: func(m *MockProfileRepository) {
				m.On("CreateProfile", mock.Anything, mock.AnythingOfType("*profile.Profile")).Return(nil)
			},
		},
		{
			name:        "error - empty email",
			email:       "",
			password:    "secret",
			setupMock:   func(m *MockProfileRepository) {},
			expectError: true,
			errorCode:   "VALIDATION_ERROR",
		},
		{
			name:     "error - duplicate email",
			email:    "master@firm.ru",
			password: "secret",
			setupMock: func(m *MockProfileRepository) {
				m.On("CreateProfile", mock.Anything, mock.AnythingOfType("*profile.Profile")).
					Return(repository.ErrAlreadyExists)
			},
			expectError: true,
			errorCode:   "ALREADY_EXISTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockProfiles := new(MockProfileRepository)
			tt.setupMock(mockProfiles)

			svc := service.NewAuthService(mockProfiles, new(MockSessionRepository), testTokens())
			p, err := svc.SignUp(context.Background(), tt.email, tt.password, "Мастер")

			if tt.expectError {
				var businessErr *service.BusinessError
				require.ErrorAs(t, err, &businessErr)
				assert.Equal(t, tt.errorCode, businessErr.Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.email, p.Email)
			// пароль никогда не хранится открытым текстом
			assert.NotEqual(t, tt.password, p.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(tt.password)))
			mockProfiles.AssertExpectations(t)
		})
	}
}

func TestAuthService_SignIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	stored := &profile.Profile{
		ID:           uuid.New(),
		Email:        "master@firm.ru",
		PasswordHash: string(hash),
	}

	t.Run("success - pair issued and session stored", func(t *testing.T) {
		mockProfiles := new(MockProfileRepository)
		mockSessions := new(MockSessionRepository)

		mockProfiles.On("GetProfileByEmail", mock.Anything, stored.Email).Return(stored, nil)
		mockSessions.On("CreateSession", mock.Anything, mock.MatchedBy(func(s *session.Session) bool {
			return s.UserID == stored.ID && s.RefreshHash != "" && s.ExpiresAt.After(time.Now())
		})).Return(nil)

		svc := service.NewAuthService(mockProfiles, mockSessions, testTokens())
		p, pair, err := svc.SignIn(context.Background(), stored.Email, "secret")

		require.NoError(t, err)
		assert.Equal(t, stored.ID, p.ID)
		assert.NotEmpty(t, pair.Access)
		assert.NotEmpty(t, pair.Refresh)
		mockSessions.AssertExpectations(t)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		mockProfiles := new(MockProfileRepository)
		mockProfiles.On("GetProfileByEmail", mock.Anything, stored.Email).Return(stored, nil)
		mockProfiles.On("GetProfileByEmail", mock.Anything, "nobody@firm.ru").Return(nil, repository.ErrNotFound)

		svc := service.NewAuthService(mockProfiles, new(MockSessionRepository), testTokens())

		_, _, errWrongPass := svc.SignIn(context.Background(), stored.Email, "оshibka")
		_, _, errNoUser := svc.SignIn(context.Background(), "nobody@firm.ru", "secret")

		var wrongPass, noUser *service.BusinessError
		require.ErrorAs(t, errWrongPass, &wrongPass)
		require.ErrorAs(t, errNoUser, &noUser)
		assert.Equal(t, "INVALID_CREDENTIALS", wrongPass.Code)
		assert.Equal(t, wrongPass.Code, noUser.Code)
	})
}

func TestAuthService_Restore(t *testing.T) {
	tokens := testTokens()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	stored := &profile.Profile{ID: uuid.New(), Email: "master@firm.ru", PasswordHash: string(hash)}

	issue := func(t *testing.T) (token.Pair, *session.Session) {
		pair, err := tokens.Issue(stored.ID, stored.Email)
		require.NoError(t, err)
		refreshHash, err := token.HashRefresh(pair.Refresh)
		require.NoError(t, err)
		return pair, &session.Session{
			ID:          uuid.New(),
			UserID:      stored.ID,
			RefreshHash: refreshHash,
			ExpiresAt:   time.Now().Add(time.Hour),
		}
	}

	t.Run("success - session rotated", func(t *testing.T) {
		pair, sess := issue(t)

		mockProfiles := new(MockProfileRepository)
		mockSessions := new(MockSessionRepository)

		mockSessions.On("GetSessionsByUser", mock.Anything, stored.ID).Return([]*session.Session{sess}, nil)
		mockProfiles.On("GetProfileByID", mock.Anything, stored.ID).Return(stored, nil)
		mockSessions.On("DeleteSessionsByUser", mock.Anything, stored.ID).Return(nil)
		mockSessions.On("CreateSession", mock.Anything, mock.AnythingOfType("*session.Session")).Return(nil)

		svc := service.NewAuthService(mockProfiles, mockSessions, tokens)
		p, newPair, err := svc.Restore(context.Background(), pair.Refresh)

		require.NoError(t, err)
		assert.Equal(t, stored.ID, p.ID)
		assert.NotEmpty(t, newPair.Refresh)
		mockSessions.AssertCalled(t, "DeleteSessionsByUser", mock.Anything, stored.ID)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		svc := service.NewAuthService(new(MockProfileRepository), new(MockSessionRepository), tokens)
		_, _, err := svc.Restore(context.Background(), "не-токен")

		var businessErr *service.BusinessError
		require.ErrorAs(t, err, &businessErr)
		assert.Equal(t, "UNAUTHORIZED", businessErr.Code)
	})

	t.Run("expired stored session revokes and rejects", func(t *testing.T) {
		pair, sess := issue(t)
		sess.ExpiresAt = time.Now().Add(-time.Minute)

		mockSessions := new(MockSessionRepository)
		mockSessions.On("GetSessionsByUser", mock.Anything, stored.ID).Return([]*session.Session{sess}, nil)
		mockSessions.On("DeleteSessionsByUser", mock.Anything, stored.ID).Return(nil)

		svc := service.NewAuthService(new(MockProfileRepository), mockSessions, tokens)
		_, _, err := svc.Restore(context.Background(), pair.Refresh)

		var businessErr *service.BusinessError
		require.ErrorAs(t, err, &businessErr)
		assert.Equal(t, "UNAUTHORIZED", businessErr.Code)
		mockSessions.AssertCalled(t, "DeleteSessionsByUser", mock.Anything, stored.ID)
	})
}
