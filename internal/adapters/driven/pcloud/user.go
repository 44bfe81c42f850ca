package pcloud

import (
	"context"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
	"github.com/custodia-labs/pcloud-cli/internal/core/ports/driven"
)

// Ensure userOps implements the port.
var _ driven.UserOps = (*userOps)(nil)

// userOps answers profile and quota queries for one account.
type userOps struct {
	client  *Client
	account *domain.Account
}

// userInfoResponse is the authenticated userinfo response.
type userInfoResponse struct {
	Email     string `json:"email"`
	UserID    int64  `json:"userid"`
	Quota     int64  `json:"quota"`
	UsedQuota int64  `json:"usedquota"`
}

// GetUserInfo fetches the current profile snapshot, including the quota
// figures upload selection needs.
func (u *userOps) GetUserInfo(ctx context.Context) (*domain.UserInfo, error) {
	var resp userInfoResponse
	if err := u.client.call(ctx, u.account.Location, "userinfo", authParams(u.account), &resp); err != nil {
		return nil, err
	}
	return &domain.UserInfo{
		Email:          resp.Email,
		UserID:         resp.UserID,
		QuotaBytes:     resp.Quota,
		UsedQuotaBytes: resp.UsedQuota,
	}, nil
}
