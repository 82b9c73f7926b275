package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"direct_message_service/internal/member/domain"
)

// MemberRepository definition get Member info
type MemberRepository interface {
	CreateUser(ctx context.Context, user *domain.Member) error
	UpdateMemberStatus(ctx context.Context, user *domain.Member) error
	UpdateProfile(ctx context.Context, memberID, fullName, avatarURL string) error
	FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error)
	FindOthers(ctx context.Context, memberID string) ([]domain.MemberInfo, error)
}

type memberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository create a MemberRepository
func NewMemberRepository(db *pgxpool.Pool) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) CreateUser(ctx context.Context, member *domain.Member) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO member(member_id, email, full_name, password, avatar_url) VALUES ($1, $2, $3, $4, $5)",
		member.MemberID, member.Email, member.FullName, member.Password, member.AvatarURL)
	return err
}

func (r *memberRepository) UpdateMemberStatus(ctx context.Context, member *domain.Member) error {
	_, err := r.db.Exec(ctx, "UPDATE member SET status = $1 WHERE member_id = $2", member.Status, member.MemberID)
	return err
}

func (r *memberRepository) UpdateProfile(ctx context.Context, memberID, fullName, avatarURL string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE member SET full_name = COALESCE(NULLIF($1,''), full_name), avatar_url = COALESCE(NULLIF($2,''), avatar_url) WHERE member_id = $3",
		fullName, avatarURL, memberID)
	return err
}

func (r *memberRepository) FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error) {
	queryStr := "SELECT id, member_id, email, full_name, password, avatar_url FROM member WHERE 1=1"
	params := []interface{}{}
	paramCount := 1

	if memberQuery.Email != nil {
		queryStr += fmt.Sprintf(" AND email = $%d", paramCount)
		params = append(params, *memberQuery.Email)
		paramCount++
	}
	if memberQuery.MemberID != nil {
		queryStr += fmt.Sprintf(" AND member_id = $%d", paramCount)
		params = append(params, *memberQuery.MemberID)
		paramCount++
	}
	if memberQuery.ID != nil {
		queryStr += fmt.Sprintf(" AND id = $%d", paramCount)
		params = append(params, *memberQuery.ID)
		paramCount++
	}

	row := r.db.QueryRow(ctx, queryStr, params...)
	var member domain.Member
	err := row.Scan(&member.ID, &member.MemberID, &member.Email, &member.FullName, &member.Password, &member.AvatarURL)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.New("no member found with given criteria")
		}
		return nil, err
	}

	return &member, nil
}

// FindOthers 除了自己以外的所有會員，側欄聯絡人清單用
func (r *memberRepository) FindOthers(ctx context.Context, memberID string) ([]domain.MemberInfo, error) {
	rows, err := r.db.Query(ctx,
		"SELECT member_id, email, full_name, avatar_url FROM member WHERE member_id <> $1 AND status <> $2 ORDER BY full_name",
		memberID, domain.MemberStatusDelete)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	others := []domain.MemberInfo{}
	for rows.Next() {
		var info domain.MemberInfo
		if err := rows.Scan(&info.MemberID, &info.Email, &info.FullName, &info.AvatarURL); err != nil {
			return nil, err
		}
		others = append(others, info)
	}
	return others, rows.Err()
}
