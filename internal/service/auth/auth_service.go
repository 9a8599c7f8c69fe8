package auth

import (
	"context"
	"time"

	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/logger"
	"github.com/ougirez/sisagua/internal/pkg/utils"
)

// Service issues and checks admin tokens signed with the shared secret key.
type Service struct {
	secret string
}

func NewService(secret string) *Service {
	return &Service{secret: secret}
}

func (svc *Service) IssueAdminToken(ctx context.Context, ttl time.Duration) (string, error) {
	token, err := utils.GenerateAuthToken(&utils.AuthTokenWrapper{Role: utils.RoleAdmin}, svc.secret, ttl)
	if err != nil {
		return "", err
	}

	logger.Debugf(ctx, "admin token issued, ttl %s", ttl)
	return token, nil
}

// AuthorizeAdmin accepts only valid, unexpired tokens carrying the admin role.
func (svc *Service) AuthorizeAdmin(token string) error {
	if token == "" {
		return constants.ErrMissingAuthCookie
	}

	wrapper, err := utils.ParseAuthToken(token, svc.secret)
	if err != nil {
		return err
	}
	if wrapper.Role != utils.RoleAdmin {
		return constants.ErrUnauthorized
	}

	return nil
}
