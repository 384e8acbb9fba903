package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/config"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/repository"
	"gorm.io/gorm"
)

const defaultBanReason = "marketplace rules violation"

type AdminService interface {
	SetBan(ctx context.Context, targetUsername string, ban bool, reason string) (*model.User, error)
}

type adminService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	cfg      *config.Config
}

func NewAdminService(users repository.UserRepository, sessions repository.SessionRepository, cfg *config.Config) AdminService {
	return &adminService{users: users, sessions: sessions, cfg: cfg}
}

// SetBan flips the ban flag; banning also revokes every live session so the
// target drops out immediately rather than on cookie expiry.
func (s *adminService) SetBan(ctx context.Context, targetUsername string, ban bool, reason string) (*model.User, error) {
	target, err := s.users.FindByUsername(ctx, targetUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.WithMessage(apperr.ErrNotFound, "user not found")
		}
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	if strings.EqualFold(target.Username, s.cfg.AdminUsername) {
		return nil, apperr.Validation("the root administrator cannot be banned")
	}

	if ban {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			reason = defaultBanReason
		}
		now := time.Now()
		target.IsBanned = true
		target.BanReason = &reason
		target.BannedAt = &now
	} else {
		target.IsBanned = false
		target.BanReason = nil
		target.BannedAt = nil
	}
	if err := s.users.Update(ctx, target); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}

	if ban {
		if err := s.sessions.DeleteByUser(ctx, target.ID); err != nil {
			return nil, apperr.Wrap(err, apperr.ErrInternal)
		}
	}
	return target, nil
}
