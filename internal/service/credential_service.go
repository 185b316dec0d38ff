package service

import (
	"context"
	"fmt"
	"log/slog"

	config "github.com/marketloom/autopost/configs"
	"github.com/marketloom/autopost/internal/models"
	"github.com/marketloom/autopost/internal/repository"
	"github.com/marketloom/autopost/internal/transfer"
	"github.com/marketloom/autopost/pkg/utils"
)

// CredentialService resolves the publishing identity for a post. Three tiers,
// first match wins: explicit per-post account, most recently connected active
// tenant account, injected legacy global pair.
type CredentialService interface {
	Resolve(ctx context.Context, post *models.ScheduledPost) (*transfer.Credentials, error)
}

type credentialService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewCredentialService(cfg config.Config, sa repository.SocialAccountRepository) CredentialService {
	return &credentialService{cfg: cfg, sa: sa}
}

func (s *credentialService) Resolve(ctx context.Context, post *models.ScheduledPost) (*transfer.Credentials, error) {
	// An explicit reference that fails to resolve is tenant misconfiguration,
	// not absence of configuration: fail hard instead of falling through.
	if post.AccountID.Valid {
		account, err := s.sa.GetByID(ctx, post.AccountID.Int64)
		if err != nil {
			return nil, err
		}
		if account == nil || !account.IsActive {
			err := fmt.Errorf("%w: the selected account is disconnected, reconnect the account", ErrNoCredentials)
			slog.Info(err.Error())
			return nil, err
		}
		return s.credentialsFor(account)
	}

	accounts, err := s.listTenantAccounts(ctx, post)
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		return s.credentialsFor(accounts[0])
	}

	// Legacy global fallback keeps rows created before multi-tenant
	// credentials existed working.
	if s.cfg.LegacyIGAccessToken != "" && s.cfg.LegacyIGUserID != "" {
		return &transfer.Credentials{
			AccessToken: s.cfg.LegacyIGAccessToken,
			IGUserID:    s.cfg.LegacyIGUserID,
		}, nil
	}

	err = fmt.Errorf("%w: connect an Instagram account to publish", ErrNoCredentials)
	slog.Info(err.Error())
	return nil, err
}

func (s *credentialService) listTenantAccounts(ctx context.Context, post *models.ScheduledPost) ([]*models.SocialAccount, error) {
	if post.OrganizationID.Valid {
		return s.sa.ListActiveByOrganization(ctx, post.OrganizationID.Int64)
	}
	return s.sa.ListActiveByUser(ctx, post.UserID)
}

func (s *credentialService) credentialsFor(account *models.SocialAccount) (*transfer.Credentials, error) {
	token, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token for account %d: %w", account.ID, err)
	}
	return &transfer.Credentials{
		AccessToken: token,
		IGUserID:    account.IGUserID,
	}, nil
}
