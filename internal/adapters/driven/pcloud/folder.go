package pcloud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
	"github.com/custodia-labs/pcloud-cli/internal/core/ports/driven"
)

// Ensure folderOps implements the port.
var _ driven.FolderOps = (*folderOps)(nil)

// folderOps performs folder operations for one account.
type folderOps struct {
	client  *Client
	account *domain.Account
}

// listFolderResponse is the listfolder response.
type listFolderResponse struct {
	Metadata struct {
		Contents []domain.Entry `json:"contents"`
	} `json:"metadata"`
}

// ListContents lists a folder non-recursively. The root folder is
// addressed by path because the API rejects folderid=0.
func (f *folderOps) ListContents(ctx context.Context, folderID int64) ([]domain.Entry, error) {
	params := authParams(f.account)
	if folderID > 0 {
		params.Set("folderid", strconv.FormatInt(folderID, 10))
	} else {
		params.Set("path", "/")
	}

	var resp listFolderResponse
	if err := f.client.call(ctx, f.account.Location, "listfolder", params, &resp); err != nil {
		return nil, err
	}
	return resp.Metadata.Contents, nil
}

// createFolderResponse is the createfolder response.
type createFolderResponse struct {
	Metadata struct {
		FolderID int64 `json:"folderid"`
	} `json:"metadata"`
}

// Create makes a new folder under parentID and returns its id.
func (f *folderOps) Create(ctx context.Context, name string, parentID int64) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("folder name required: %w", domain.ErrInvalidInput)
	}

	params := authParams(f.account)
	params.Set("name", name)
	params.Set("folderid", strconv.FormatInt(parentID, 10))

	var resp createFolderResponse
	if err := f.client.call(ctx, f.account.Location, "createfolder", params, &resp); err != nil {
		return 0, err
	}
	return resp.Metadata.FolderID, nil
}
