package token

import "direct_message_service/pkg/config"

// 這個變數會在測試時被覆蓋
var (
	GenerateJWTFunc = GenerateJWT
	ParseJWTFunc    = ParseJWT
)

// GenerateJWTWrapper 讓 usecase test mock 使用這個包裝函數
func GenerateJWTWrapper(memberID, role string) (string, error) {
	return GenerateJWTFunc(memberID, role, config.EnvConfig.MemberService)
}

// ParseJWTWrapper 讓 usecase test mock 使用這個包裝函數
func ParseJWTWrapper(t string) (*Claims, error) {
	return ParseJWTFunc(t)
}
