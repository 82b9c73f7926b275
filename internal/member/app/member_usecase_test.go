package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"direct_message_service/internal/member/domain"
	"direct_message_service/pkg/encrypt"
	"direct_message_service/pkg/logger"
	token "direct_message_service/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockMemberRepo moke MemberRepository
type MockMemberRepo struct {
	mock.Mock
}

func (m *MockMemberRepo) CreateUser(ctx context.Context, user *domain.Member) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockMemberRepo) UpdateMemberStatus(ctx context.Context, user *domain.Member) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockMemberRepo) UpdateProfile(ctx context.Context, memberID, fullName, avatarURL string) error {
	args := m.Called(ctx, memberID, fullName, avatarURL)
	return args.Error(0)
}
func (m *MockMemberRepo) FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error) {
	args := m.Called(ctx, memberQuery)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockMemberRepo) FindOthers(ctx context.Context, memberID string) ([]domain.MemberInfo, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.MemberInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRedisRepo moke RedisRepository[MemberSession]
type MockRedisRepo struct {
	mock.Mock
}

func (m *MockRedisRepo) Set(ctx context.Context, key string, value domain.MemberSession, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
func (m *MockRedisRepo) Get(ctx context.Context, key string) (domain.MemberSession, error) {
	args := m.Called(ctx, key)
	if args.Get(0) != nil {
		return args.Get(0).(domain.MemberSession), args.Error(1)
	}
	return domain.MemberSession{}, args.Error(1)
}
func (m *MockRedisRepo) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
func (m *MockRedisRepo) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}
func (m *MockRedisRepo) GetTTL(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

const (
	testEmail    = "tester@example.com"
	testName     = "Tester One"
	testPassword = "!Password123"
	testMemberID = "member-1"
)

// stubParseJWT 暫時換掉 ParseJWTFunc，測試結束自動復原
func stubParseJWT(t *testing.T, claims *token.Claims, err error) {
	t.Helper()
	original := token.ParseJWTFunc
	t.Cleanup(func() { token.ParseJWTFunc = original })
	token.ParseJWTFunc = func(string) (*token.Claims, error) {
		return claims, err
	}
}

// stubGenerateJWT 暫時換掉 GenerateJWTFunc，測試結束自動復原
func stubGenerateJWT(t *testing.T, jwt string, err error) {
	t.Helper()
	original := token.GenerateJWTFunc
	t.Cleanup(func() { token.GenerateJWTFunc = original })
	token.GenerateJWTFunc = func(memberID, role, issuer string) (string, error) {
		return jwt, err
	}
}

func newUseCase(repo *MockMemberRepo, redis *MockRedisRepo) MemberUseCase {
	return NewMemberUseCase(repo, time.Hour, redis, encrypt.HashPassword)
}

func TestMemberUseCase_Register(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()
	email := testEmail

	t.Run("成功註冊", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(nil, errors.New("not found")).Once()
		// 落地的 Member 要帶 email 和 full_name，密碼必須已經雜湊
		mockRepo.On("CreateUser", ctx, mock.MatchedBy(func(m *domain.Member) bool {
			return m.Email == testEmail &&
				m.FullName == testName &&
				m.MemberID != "" &&
				m.Password != testPassword
		})).Return(nil).Once()

		err := newUseCase(mockRepo, new(MockRedisRepo)).Register(ctx, testEmail, testName, testPassword)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Email 已存在", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(&domain.Member{MemberID: testMemberID, Email: testEmail}, nil).Once()

		err := newUseCase(mockRepo, new(MockRedisRepo)).Register(ctx, testEmail, testName, testPassword)

		assert.Error(t, err)
		assert.Equal(t, "email already exists", err.Error())
		mockRepo.AssertExpectations(t)
	})

	t.Run("密碼強度不足", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(nil, errors.New("not found")).Once()

		// 強度不過就不該碰 CreateUser
		err := newUseCase(mockRepo, new(MockRedisRepo)).Register(ctx, testEmail, testName, "weak")

		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("密碼加密失敗", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(nil, errors.New("not found")).Once()
		failingHash := func(string) (string, error) {
			return "", errors.New("hash password error")
		}

		uc := NewMemberUseCase(mockRepo, time.Hour, new(MockRedisRepo), failingHash)
		err := uc.Register(ctx, testEmail, testName, testPassword)

		assert.Error(t, err)
		assert.Equal(t, "hash password error", err.Error())
	})

	t.Run("建立用戶失敗", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(nil, errors.New("not found")).Once()
		mockRepo.On("CreateUser", ctx, mock.Anything).Return(errors.New("db error")).Once()

		err := newUseCase(mockRepo, new(MockRedisRepo)).Register(ctx, testEmail, testName, testPassword)

		assert.Error(t, err)
		assert.Equal(t, "db error", err.Error())
	})
}

func TestMemberUseCase_FindMember(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()
	email := testEmail

	t.Run("找到會員", func(t *testing.T) {
		existing := &domain.Member{MemberID: testMemberID, Email: testEmail, FullName: testName}
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(existing, nil).Once()

		member, err := newUseCase(mockRepo, new(MockRedisRepo)).FindMember(ctx, &domain.MemberQuery{Email: &email})

		assert.NoError(t, err)
		assert.Equal(t, existing, member)
	})

	t.Run("找不到會員", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(nil, errors.New("no member found with given criteria")).Once()

		_, err := newUseCase(mockRepo, new(MockRedisRepo)).FindMember(ctx, &domain.MemberQuery{Email: &email})

		assert.Error(t, err)
		assert.Equal(t, "no member found with given criteria", err.Error())
	})
}

func TestMemberUseCase_FindOthers(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	t.Run("回傳聯絡人清單", func(t *testing.T) {
		others := []domain.MemberInfo{
			{MemberID: "member-2", Email: "a@example.com", FullName: "Alice"},
			{MemberID: "member-3", Email: "b@example.com", FullName: "Bob"},
		}
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindOthers", ctx, testMemberID).Return(others, nil).Once()

		got, err := newUseCase(mockRepo, new(MockRedisRepo)).FindOthers(ctx, testMemberID)

		assert.NoError(t, err)
		assert.Equal(t, others, got)
	})

	t.Run("查詢失敗", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindOthers", ctx, testMemberID).Return(nil, errors.New("db error")).Once()

		_, err := newUseCase(mockRepo, new(MockRedisRepo)).FindOthers(ctx, testMemberID)

		assert.Error(t, err)
	})
}

func TestMemberUseCase_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	t.Run("更新名稱與頭像", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("UpdateProfile", ctx, testMemberID, "New Name", "http://cdn/new.png").
			Return(nil).Once()

		err := newUseCase(mockRepo, new(MockRedisRepo)).UpdateProfile(ctx, testMemberID, "New Name", "http://cdn/new.png")

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("空欄位照樣往下傳，部分更新由 repository 處理", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("UpdateProfile", ctx, testMemberID, "", "http://cdn/only-avatar.png").
			Return(nil).Once()

		err := newUseCase(mockRepo, new(MockRedisRepo)).UpdateProfile(ctx, testMemberID, "", "http://cdn/only-avatar.png")

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestMemberUseCase_Login(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()
	email := testEmail
	hashedPassword, _ := encrypt.HashPassword(testPassword)

	member := func() *domain.Member {
		return &domain.Member{
			MemberID: testMemberID,
			Email:    testEmail,
			FullName: testName,
			Password: hashedPassword,
			Status:   domain.MemberStatusOffLine,
		}
	}

	t.Run("成功登入，session 內容正確", func(t *testing.T) {
		stubGenerateJWT(t, "jwt-token", nil)

		existing := member()
		now := time.Now()
		session := domain.MemberSession{
			Token:        "jwt-token",
			MemberID:     testMemberID,
			CreatedAt:    now,
			LastActivity: now,
			ExpiredAt:    now.Add(time.Hour),
		}

		mockRepo := new(MockMemberRepo)
		mockRedis := new(MockRedisRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(existing, nil).Once()
		mockRedis.On("Set", ctx, testMemberID, session, time.Hour).Return(nil).Once()
		// 登入後狀態要變 online
		mockRepo.On("UpdateMemberStatus", ctx, mock.MatchedBy(func(m *domain.Member) bool {
			return m.MemberID == testMemberID && m.Status == domain.MemberStatusOnLine
		})).Return(nil).Once()

		jwt, err := newUseCase(mockRepo, mockRedis).Login(ctx, testEmail, testPassword, now)

		assert.NoError(t, err)
		assert.Equal(t, "jwt-token", jwt)
		mockRepo.AssertExpectations(t)
		mockRedis.AssertExpectations(t)
	})

	t.Run("使用者不存在", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(nil, errors.New("no member found with given criteria")).Once()

		jwt, err := newUseCase(mockRepo, new(MockRedisRepo)).Login(ctx, testEmail, testPassword, time.Now())

		assert.Error(t, err)
		assert.Empty(t, jwt)
	})

	t.Run("密碼錯誤", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(member(), nil).Once()

		jwt, err := newUseCase(mockRepo, new(MockRedisRepo)).Login(ctx, testEmail, "!WrongPassword1", time.Now())

		assert.Error(t, err)
		assert.Equal(t, "password does not match", err.Error())
		assert.Empty(t, jwt)
	})

	t.Run("JWT 生成失敗", func(t *testing.T) {
		stubGenerateJWT(t, "", errors.New("generate jwt error"))

		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(member(), nil).Once()

		jwt, err := newUseCase(mockRepo, new(MockRedisRepo)).Login(ctx, testEmail, testPassword, time.Now())

		assert.Error(t, err)
		assert.Equal(t, "generate jwt error", err.Error())
		assert.Empty(t, jwt)
	})

	t.Run("Redis 存 session 失敗", func(t *testing.T) {
		stubGenerateJWT(t, "jwt-token", nil)

		mockRepo := new(MockMemberRepo)
		mockRedis := new(MockRedisRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(member(), nil).Once()
		mockRedis.On("Set", ctx, testMemberID, mock.Anything, time.Hour).
			Return(errors.New("redis error")).Once()

		jwt, err := newUseCase(mockRepo, mockRedis).Login(ctx, testEmail, testPassword, time.Now())

		assert.Error(t, err)
		assert.Equal(t, "redis error", err.Error())
		assert.Empty(t, jwt)
		// session 沒存成功就不該去更新狀態
		mockRepo.AssertNotCalled(t, "UpdateMemberStatus", mock.Anything, mock.Anything)
	})

	t.Run("更新使用者狀態失敗", func(t *testing.T) {
		stubGenerateJWT(t, "jwt-token", nil)

		mockRepo := new(MockMemberRepo)
		mockRedis := new(MockRedisRepo)
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(member(), nil).Once()
		mockRedis.On("Set", ctx, testMemberID, mock.Anything, time.Hour).Return(nil).Once()
		mockRepo.On("UpdateMemberStatus", ctx, mock.Anything).
			Return(errors.New("failed to update status")).Once()

		jwt, err := newUseCase(mockRepo, mockRedis).Login(ctx, testEmail, testPassword, time.Now())

		assert.Error(t, err)
		assert.Equal(t, "failed to update status", err.Error())
		assert.Empty(t, jwt)
	})
}

func TestMemberUseCase_Logout(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	t.Run("解析 Token 失敗", func(t *testing.T) {
		stubParseJWT(t, nil, errors.New("invalid token"))

		err := newUseCase(new(MockMemberRepo), new(MockRedisRepo)).Logout(ctx, "bad-token")

		assert.Error(t, err)
		assert.Equal(t, "invalid token", err.Error())
	})

	t.Run("Redis 刪除 session 失敗", func(t *testing.T) {
		stubParseJWT(t, &token.Claims{MemberID: testMemberID}, nil)

		mockRedis := new(MockRedisRepo)
		mockRedis.On("Del", ctx, testMemberID).Return(errors.New("redis error")).Once()

		err := newUseCase(new(MockMemberRepo), mockRedis).Logout(ctx, "jwt-token")

		assert.Error(t, err)
		assert.Equal(t, "redis error", err.Error())
	})

	t.Run("成功登出，狀態改離線", func(t *testing.T) {
		stubParseJWT(t, &token.Claims{MemberID: testMemberID}, nil)

		mockRepo := new(MockMemberRepo)
		mockRedis := new(MockRedisRepo)
		mockRedis.On("Del", ctx, testMemberID).Return(nil).Once()
		mockRepo.On("UpdateMemberStatus", ctx, &domain.Member{
			MemberID: testMemberID,
			Status:   domain.MemberStatusOffLine,
		}).Return(nil).Once()

		err := newUseCase(mockRepo, mockRedis).Logout(ctx, "jwt-token")

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockRedis.AssertExpectations(t)
	})
}

func TestMemberUseCase_ForceLogout(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	t.Run("Redis 刪除 session 失敗", func(t *testing.T) {
		mockRedis := new(MockRedisRepo)
		mockRedis.On("Del", ctx, testMemberID).Return(errors.New("redis error")).Once()

		err := newUseCase(new(MockMemberRepo), mockRedis).ForceLogout(ctx, testMemberID)

		assert.Error(t, err)
		assert.Equal(t, "redis error", err.Error())
	})

	t.Run("成功強制登出", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRedis := new(MockRedisRepo)
		mockRedis.On("Del", ctx, testMemberID).Return(nil).Once()
		mockRepo.On("UpdateMemberStatus", ctx, &domain.Member{
			MemberID: testMemberID,
			Status:   domain.MemberStatusOffLine,
		}).Return(nil).Once()

		err := newUseCase(mockRepo, mockRedis).ForceLogout(ctx, testMemberID)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestMemberUseCase_CheckSessionTimeout(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	t.Run("解析 Token 失敗視為逾時", func(t *testing.T) {
		stubParseJWT(t, nil, errors.New("invalid token"))

		timedOut, err := newUseCase(new(MockMemberRepo), new(MockRedisRepo)).CheckSessionTimeout(ctx, "bad-token")

		assert.Error(t, err)
		assert.True(t, timedOut)
	})

	t.Run("TTL 大於零尚未逾時", func(t *testing.T) {
		stubParseJWT(t, &token.Claims{MemberID: testMemberID}, nil)

		mockRedis := new(MockRedisRepo)
		mockRedis.On("GetTTL", ctx, testMemberID).Return(60, nil).Once()

		timedOut, err := newUseCase(new(MockMemberRepo), mockRedis).CheckSessionTimeout(ctx, "jwt-token")

		assert.NoError(t, err)
		assert.False(t, timedOut)
	})

	t.Run("TTL 歸零即逾時", func(t *testing.T) {
		stubParseJWT(t, &token.Claims{MemberID: testMemberID}, nil)

		mockRedis := new(MockRedisRepo)
		mockRedis.On("GetTTL", ctx, testMemberID).Return(0, nil).Once()

		timedOut, err := newUseCase(new(MockMemberRepo), mockRedis).CheckSessionTimeout(ctx, "jwt-token")

		assert.NoError(t, err)
		assert.True(t, timedOut)
	})

	t.Run("Redis 查詢 TTL 失敗視為逾時", func(t *testing.T) {
		stubParseJWT(t, &token.Claims{MemberID: testMemberID}, nil)

		mockRedis := new(MockRedisRepo)
		mockRedis.On("GetTTL", ctx, testMemberID).Return(0, errors.New("redis error")).Once()

		timedOut, err := newUseCase(new(MockMemberRepo), mockRedis).CheckSessionTimeout(ctx, "jwt-token")

		assert.Error(t, err)
		assert.True(t, timedOut)
	})
}

func TestMemberUseCase_ReconnectSession(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	t.Run("解析 Token 失敗", func(t *testing.T) {
		stubParseJWT(t, nil, errors.New("invalid token"))

		err := newUseCase(new(MockMemberRepo), new(MockRedisRepo)).ReconnectSession(ctx, "bad-token")

		assert.Error(t, err)
	})

	t.Run("成功延長 Session", func(t *testing.T) {
		stubParseJWT(t, &token.Claims{MemberID: testMemberID}, nil)

		mockRedis := new(MockRedisRepo)
		mockRedis.On("ExtendTTL", ctx, testMemberID, time.Hour).Return(nil).Once()

		err := newUseCase(new(MockMemberRepo), mockRedis).ReconnectSession(ctx, "jwt-token")

		assert.NoError(t, err)
		mockRedis.AssertExpectations(t)
	})

	t.Run("Redis 延長 TTL 失敗", func(t *testing.T) {
		stubParseJWT(t, &token.Claims{MemberID: testMemberID}, nil)

		mockRedis := new(MockRedisRepo)
		mockRedis.On("ExtendTTL", ctx, testMemberID, time.Hour).Return(errors.New("redis error")).Once()

		err := newUseCase(new(MockMemberRepo), mockRedis).ReconnectSession(ctx, "jwt-token")

		assert.Error(t, err)
		assert.Equal(t, "redis error", err.Error())
	})
}
