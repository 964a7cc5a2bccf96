package notebase

import (
	"context"

	"github.com/notebase/notebase/pkg/models"
	"github.com/notebase/notebase/pkg/store"
)

// StoreAuthorizer answers the editor's access questions from stored
// permissions. A user may act on a page when they created it, own its
// workspace, or hold a grant of the required level on the page or the
// workspace.
//
// A page that does not resolve is allowed through; the blocks layer
// reports it as not found, which beats leaking page existence in a 403.
type StoreAuthorizer struct {
	rows store.Store
}

func NewStoreAuthorizer(rows store.Store) *StoreAuthorizer {
	return &StoreAuthorizer{rows: rows}
}

func (a *StoreAuthorizer) CanRead(ctx context.Context, user models.UserID, page models.PageID) (bool, error) {
	return a.allowed(ctx, user, page, models.PermissionRead)
}

func (a *StoreAuthorizer) CanWrite(ctx context.Context, user models.UserID, page models.PageID) (bool, error) {
	return a.allowed(ctx, user, page, models.PermissionWrite)
}

func (a *StoreAuthorizer) allowed(ctx context.Context, user models.UserID, pageID models.PageID, level models.PermissionLevel) (bool, error) {
	page, err := a.rows.GetPage(ctx, pageID)
	if err != nil {
		return false, err
	}
	if page == nil {
		return true, nil
	}
	if page.CreatedBy == user {
		return true, nil
	}

	workspace, err := a.rows.GetWorkspace(ctx, page.WorkspaceID)
	if err != nil {
		return false, err
	}
	if workspace != nil && workspace.OwnerID == user {
		return true, nil
	}

	ok, err := a.rows.CheckPermission(ctx, user, models.ResourcePage,
		models.NewResourceIDFromUUID(pageID.UUID()), level)
	if err != nil || ok {
		return ok, err
	}
	return a.rows.CheckPermission(ctx, user, models.ResourceWorkspace,
		models.NewResourceIDFromUUID(page.WorkspaceID.UUID()), level)
}
