package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/marketloom/autopost/internal/models"
)

// SocialAccountRepository is read-only here: accounts are connected and
// revoked by the integration flow, the pipeline only resolves them.
type SocialAccountRepository interface {
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	ListActiveByOrganization(ctx context.Context, organizationID int64) ([]*models.SocialAccount, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const accountColumns = `id, user_id, organization_id, ig_user_id, access_token, is_active,
	connected_at, created_at, updated_at`

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.UserID, &sa.OrganizationID, &sa.IGUserID, &sa.AccessToken,
		&sa.IsActive, &sa.ConnectedAt, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &sa, nil
}

func (r *socialAccountRepository) ListActiveByOrganization(ctx context.Context, organizationID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts
		WHERE organization_id = $1 AND is_active = TRUE
		ORDER BY connected_at DESC`
	return r.listActive(ctx, query, organizationID)
}

func (r *socialAccountRepository) ListActiveByUser(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts
		WHERE user_id = $1 AND organization_id IS NULL AND is_active = TRUE
		ORDER BY connected_at DESC`
	return r.listActive(ctx, query, userID)
}

func (r *socialAccountRepository) listActive(ctx context.Context, query string, arg int64) ([]*models.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		err := rows.Scan(&sa.ID, &sa.UserID, &sa.OrganizationID, &sa.IGUserID, &sa.AccessToken,
			&sa.IsActive, &sa.ConnectedAt, &sa.CreatedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &sa)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}
