package unit

import (
	"testing"
	"time"

	"direct_message_service/internal/member/domain"
	"direct_message_service/pkg/encrypt"

	"github.com/stretchr/testify/assert"
)

func TestUserPasswordMatch(t *testing.T) {
	hashed, err := encrypt.HashPassword("!Password123")
	assert.NoError(t, err)

	user := domain.Member{
		ID:       1,
		Email:    "user@example.com",
		Password: hashed,
	}

	assert.True(t, user.IsPasswordMatch("!Password123") == nil, "should match correct password")
	assert.False(t, user.IsPasswordMatch("wrongpass") == nil, "should not match incorrect password")
}

func TestMemberInfoHidesPassword(t *testing.T) {
	user := domain.Member{
		MemberID:  "m-1",
		Email:     "user@example.com",
		FullName:  "User One",
		Password:  "hashed",
		AvatarURL: "http://cdn/a.png",
	}

	info := user.Info()
	assert.Equal(t, user.MemberID, info.MemberID)
	assert.Equal(t, user.FullName, info.FullName)
	assert.Equal(t, user.AvatarURL, info.AvatarURL)
}

func TestUserSessionExpiration(t *testing.T) {
	session := domain.MemberSession{
		Token:        "abcd1234",
		MemberID:     "1",
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
		ExpiredAt:    time.Now().Add(-1 * time.Minute), // 已經過期
	}

	assert.True(t, session.IsExpired(), "session should be expired")

	session.ExpiredAt = time.Now().Add(time.Hour)
	assert.False(t, session.IsExpired(), "session should still be valid")
}
