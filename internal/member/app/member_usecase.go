package app

import (
	"context"
	"fmt"
	"time"

	"direct_message_service/internal/member/domain"
	"direct_message_service/internal/member/repository"
	"direct_message_service/pkg/config"
	"direct_message_service/pkg/database"
	errprocess "direct_message_service/pkg/err"
	"direct_message_service/pkg/logger"
	token "direct_message_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemberUseCase 這裡封裝了對外提供的應用服務
type MemberUseCase interface {
	Register(ctx context.Context, email, fullName, password string) error
	FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error)
	FindOthers(ctx context.Context, memberID string) ([]domain.MemberInfo, error)
	UpdateProfile(ctx context.Context, memberID, fullName, avatarURL string) error
	Login(ctx context.Context, email, password string, now time.Time) (string, error)
	Logout(ctx context.Context, token string) error
	ForceLogout(ctx context.Context, memberID string) error
	CheckSessionTimeout(ctx context.Context, token string) (bool, error)
	ReconnectSession(ctx context.Context, token string) error
}

type memberUseCase struct {
	memberRepo   repository.MemberRepository
	sessionTTL   time.Duration
	redisRepo    database.RedisRepository[domain.MemberSession]
	hashPassword func(string) (string, error)
}

// NewMemberUseCase 建立一個新的 MemberUseCase
func NewMemberUseCase(MemberRepo repository.MemberRepository,
	sessionTTL time.Duration,
	redisRepo database.RedisRepository[domain.MemberSession],
	hashPassword func(string) (string, error),
) MemberUseCase {
	return &memberUseCase{
		memberRepo:   MemberRepo,
		sessionTTL:   sessionTTL,
		redisRepo:    redisRepo,
		hashPassword: hashPassword,
	}
}

// Register
func (m *memberUseCase) Register(ctx context.Context, email, fullName, password string) error {
	// 檢查 email 是否已存在
	if _, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email}); err == nil {
		return errprocess.Set("email already exists")
	}

	pw, err := m.hashPassword(password)
	if err != nil {
		logger.Log.Errorf("password err :", err)
		return err
	}

	// 建立新使用者
	user := domain.Member{
		MemberID: uuid.New().String(),
		Email:    email,
		FullName: fullName,
		Password: pw,
	}

	logger.Log.Info(fmt.Sprintf("usecase Register : %s %s", user.MemberID, user.Email))

	if err := m.memberRepo.CreateUser(ctx, &user); err != nil {
		return err
	}

	return nil
}

// FindMember 查詢單一使用者
func (m *memberUseCase) FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error) {
	return m.memberRepo.FindByMember(ctx, param)
}

// FindOthers 自己以外的聯絡人清單
func (m *memberUseCase) FindOthers(ctx context.Context, memberID string) ([]domain.MemberInfo, error) {
	return m.memberRepo.FindOthers(ctx, memberID)
}

// UpdateProfile 更新名稱或頭像，空字串代表不改
func (m *memberUseCase) UpdateProfile(ctx context.Context, memberID, fullName, avatarURL string) error {
	return m.memberRepo.UpdateProfile(ctx, memberID, fullName, avatarURL)
}

// Login
// now 由外部注入，session 起迄時間可以被測試固定
func (m *memberUseCase) Login(ctx context.Context, email, password string, now time.Time) (string, error) {
	// 取得使用者
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email})
	if err != nil {
		logger.Log.Error("email can't find!!!")
		return "", err
	}

	if err = member.IsPasswordMatch(password); err != nil {
		logger.Log.Error("password can't match!!!")
		return "", err
	}

	member.Status = domain.MemberStatusOnLine

	jwtToken, err := token.GenerateJWTFunc(member.MemberID, string(token.RoleMember), config.EnvConfig.MemberService)
	if err != nil {
		return "", err
	}
	session := domain.MemberSession{
		Token:        jwtToken,
		MemberID:     member.MemberID,
		CreatedAt:    now,
		LastActivity: now,
		ExpiredAt:    now.Add(m.sessionTTL),
	}

	if err := m.redisRepo.Set(ctx, member.MemberID, session, m.sessionTTL); err != nil {
		return "", err
	}

	if err := m.memberRepo.UpdateMemberStatus(ctx, member); err != nil {
		return "", err
	}

	return jwtToken, nil
}

// Logout
func (m *memberUseCase) Logout(ctx context.Context, t string) error {
	// 取得使用者
	tokenInfo, err := token.ParseJWTFunc(t)
	if err != nil {
		logger.Log.Error("Logout err :", zap.String("err", err.Error()))
		return err
	}
	logger.Log.Debug("logout", zap.String("member token info", fmt.Sprintf("%v", tokenInfo)))

	if err := m.redisRepo.Del(ctx, tokenInfo.MemberID); err != nil {
		return err
	}

	if err := m.memberRepo.UpdateMemberStatus(ctx, &domain.Member{
		MemberID: tokenInfo.MemberID,
		Status:   domain.MemberStatusOffLine,
	}); err != nil {
		return err
	}
	return nil
}

// ForceLogout
// 直接把該 memberID 下的 session 清除
func (m *memberUseCase) ForceLogout(ctx context.Context, memberID string) error {
	if err := m.redisRepo.Del(ctx, memberID); err != nil {
		return err
	}

	if err := m.memberRepo.UpdateMemberStatus(ctx, &domain.Member{
		MemberID: memberID,
		Status:   domain.MemberStatusOffLine,
	}); err != nil {
		return err
	}
	return nil
}

// CheckSessionTimeout
func (m *memberUseCase) CheckSessionTimeout(ctx context.Context, t string) (bool, error) {
	// 取得使用者
	tokenInfo, err := token.ParseJWTFunc(t)
	if err != nil {
		logger.Log.Error("CheckSessionTimeout err :", zap.String("err", err.Error()))
		return true, err
	}
	logger.Log.Debug("CheckSessionTimeout", zap.String("member token info", fmt.Sprintf("%v", tokenInfo)))

	ttl, err := m.redisRepo.GetTTL(ctx, tokenInfo.MemberID)
	if err != nil {
		return true, err
	}

	if ttl > 0 {
		return false, nil
	}
	return true, nil
}

// ReconnectSession
// 當使用者重新連線，更新 last activity 並延長 session
func (m *memberUseCase) ReconnectSession(ctx context.Context, t string) error {
	// 取得使用者
	tokenInfo, err := token.ParseJWTFunc(t)
	if err != nil {
		logger.Log.Error("ReconnectSession err :", zap.String("err", err.Error()))
		return err
	}
	logger.Log.Debug("ReconnectSession", zap.String("member token info", fmt.Sprintf("%v", tokenInfo)))

	if err := m.redisRepo.ExtendTTL(ctx, tokenInfo.MemberID, m.sessionTTL); err != nil {
		return err
	}

	return nil
}
