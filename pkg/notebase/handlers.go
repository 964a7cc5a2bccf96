package notebase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/notebase/notebase/pkg/blocks"
	"github.com/notebase/notebase/pkg/editor"
	"github.com/notebase/notebase/pkg/models"
	"github.com/notebase/notebase/pkg/store"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, blocks.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, blocks.ErrCycle), errors.Is(err, editor.ErrInvalidContent):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, editor.ErrAccessDenied):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, editor.ErrBusy):
		respondError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, store.ErrReadOnly):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// actorFrom identifies the acting user from the X-User-ID header.
func actorFrom(r *http.Request) (models.UserID, error) {
	h := r.Header.Get("X-User-ID")
	if h == "" {
		return models.UserID{}, fmt.Errorf("missing X-User-ID header")
	}
	return models.ParseUserID(h)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"read_only": a.IsReadOnly(),
		"time":      time.Now().UTC(),
	})
}

// User handlers.

func (a *App) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := a.store.CreateUser(r.Context(), &user); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (a *App) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := a.store.GetUser(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (a *App) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	user.ID = id

	if err := a.store.UpdateUser(r.Context(), &user); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (a *App) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := a.store.DeleteUser(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Workspace handlers.

func (a *App) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var workspace models.Workspace
	if err := json.NewDecoder(r.Body).Decode(&workspace); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := a.store.CreateWorkspace(r.Context(), &workspace); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, workspace)
}

func (a *App) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseWorkspaceID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid workspace ID")
		return
	}

	workspace, err := a.store.GetWorkspace(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if workspace == nil {
		respondError(w, http.StatusNotFound, "Workspace not found")
		return
	}
	respondJSON(w, http.StatusOK, workspace)
}

func (a *App) handleUpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseWorkspaceID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid workspace ID")
		return
	}

	var workspace models.Workspace
	if err := json.NewDecoder(r.Body).Decode(&workspace); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	workspace.ID = id

	if err := a.store.UpdateWorkspace(r.Context(), &workspace); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, workspace)
}

func (a *App) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseWorkspaceID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid workspace ID")
		return
	}

	if err := a.store.DeleteWorkspace(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	userID, err := models.ParseUserID(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	workspaces, err := a.store.ListWorkspaces(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, workspaces)
}

// Page handlers.

func (a *App) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var page models.Page
	if err := json.NewDecoder(r.Body).Decode(&page); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := a.store.CreatePage(r.Context(), &page); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, page)
}

func (a *App) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePageID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}

	page, err := a.store.GetPage(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if page == nil {
		respondError(w, http.StatusNotFound, "Page not found")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (a *App) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePageID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}

	var page models.Page
	if err := json.NewDecoder(r.Body).Decode(&page); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	page.ID = id

	if err := a.store.UpdatePage(r.Context(), &page); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (a *App) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePageID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}

	if err := a.store.DeletePage(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleListPages(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := models.ParseWorkspaceID(mux.Vars(r)["workspaceId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid workspace ID")
		return
	}

	pages, err := a.store.ListPages(r.Context(), workspaceID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pages)
}

// Block handlers route through the editor engine, so they pick up access
// checks, page locking, and change broadcasting.

func (a *App) handleGetTree(w http.ResponseWriter, r *http.Request) {
	pageID, err := models.ParsePageID(mux.Vars(r)["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	forest, err := a.engine.GetPageTree(r.Context(), actor, pageID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, forest)
}

type insertBlockRequest struct {
	Type          models.BlockType `json:"type"`
	Content       models.JSONMap   `json:"content"`
	ParentBlockID *models.BlockID  `json:"parent_block_id,omitempty"`
	After         *models.BlockID  `json:"after,omitempty"`
}

func (a *App) handleInsertBlock(w http.ResponseWriter, r *http.Request) {
	pageID, err := models.ParsePageID(mux.Vars(r)["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req insertBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	block, err := a.engine.InsertBlock(r.Context(), actor, &models.Block{
		PageID:        pageID,
		Type:          req.Type,
		Content:       req.Content,
		ParentBlockID: req.ParentBlockID,
	}, req.After)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, block)
}

type updateBlockRequest struct {
	Type    models.BlockType `json:"type"`
	Content models.JSONMap   `json:"content"`
}

func (a *App) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pageID, err := models.ParsePageID(vars["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	blockID, err := models.ParseBlockID(vars["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid block ID")
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req updateBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	block, err := a.engine.UpdateBlockContent(r.Context(), actor, pageID, blockID, req.Type, req.Content)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, block)
}

func (a *App) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pageID, err := models.ParsePageID(vars["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	blockID, err := models.ParseBlockID(vars["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid block ID")
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	deleted, err := a.engine.DeleteBlock(r.Context(), actor, pageID, blockID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

type moveBlockRequest struct {
	ParentBlockID *models.BlockID `json:"parent_block_id,omitempty"`
	After         *models.BlockID `json:"after,omitempty"`
}

func (a *App) handleMoveBlock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pageID, err := models.ParsePageID(vars["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	blockID, err := models.ParseBlockID(vars["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid block ID")
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req moveBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	block, err := a.engine.ReparentBlock(r.Context(), actor, pageID, blockID, req.ParentBlockID, req.After)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, block)
}

type reorderRequest struct {
	Orders []struct {
		ID    models.BlockID `json:"id"`
		Order float64        `json:"order"`
	} `json:"orders"`
}

func (a *App) handleReorderBlocks(w http.ResponseWriter, r *http.Request) {
	pageID, err := models.ParsePageID(mux.Vars(r)["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	updates := make([]store.BlockOrder, 0, len(req.Orders))
	for _, o := range req.Orders {
		updates = append(updates, store.BlockOrder{BlockID: o.ID, Order: o.Order})
	}

	if err := a.engine.ReorderBlocks(r.Context(), actor, pageID, updates); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}

// saveTreeNode is the shape-only view of a block the save-tree endpoint
// accepts: ids and nesting, nothing else. Order and parent links are
// re-derived server-side from the positions in the request.
type saveTreeNode struct {
	ID       models.BlockID `json:"id"`
	Children []saveTreeNode `json:"children,omitempty"`
}

type saveTreeRequest struct {
	Blocks []saveTreeNode `json:"blocks"`
}

func treeFromRequest(pageID models.PageID, reqNodes []saveTreeNode) []*blocks.Node {
	out := make([]*blocks.Node, 0, len(reqNodes))
	for _, rn := range reqNodes {
		out = append(out, &blocks.Node{
			Block:    models.Block{ID: rn.ID, PageID: pageID},
			Children: treeFromRequest(pageID, rn.Children),
		})
	}
	return out
}

func (a *App) handleSaveTree(w http.ResponseWriter, r *http.Request) {
	pageID, err := models.ParsePageID(mux.Vars(r)["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req saveTreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := a.engine.SaveTree(r.Context(), actor, pageID, treeFromRequest(pageID, req.Blocks)); err != nil {
		respondDomainError(w, err)
		return
	}

	forest, err := a.engine.GetPageTree(r.Context(), actor, pageID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, forest)
}

// Template handlers.

type expandRequest struct {
	TemplateID    string          `json:"template_id"`
	ParentBlockID *models.BlockID `json:"parent_block_id,omitempty"`
}

func (a *App) handleExpandTemplate(w http.ResponseWriter, r *http.Request) {
	pageID, err := models.ParsePageID(mux.Vars(r)["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req expandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.TemplateID == "" {
		respondError(w, http.StatusBadRequest, "template_id is required")
		return
	}

	inserted, err := a.expander.Expand(r.Context(), actor, pageID, req.TemplateID, req.ParentBlockID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, inserted)
}

func (a *App) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.catalog.List())
}

func (a *App) handlePresence(w http.ResponseWriter, r *http.Request) {
	pageID, err := models.ParsePageID(mux.Vars(r)["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": a.hub.Presence(pageID)})
}

// Permission handlers.

func (a *App) handleCreatePermission(w http.ResponseWriter, r *http.Request) {
	var permission models.Permission
	if err := json.NewDecoder(r.Body).Decode(&permission); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := a.store.CreatePermission(r.Context(), &permission); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, permission)
}

func (a *App) handleGetPermission(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePermissionID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid permission ID")
		return
	}

	permission, err := a.store.GetPermission(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if permission == nil {
		respondError(w, http.StatusNotFound, "Permission not found")
		return
	}
	respondJSON(w, http.StatusOK, permission)
}

func (a *App) handleUpdatePermission(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePermissionID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid permission ID")
		return
	}

	var permission models.Permission
	if err := json.NewDecoder(r.Body).Decode(&permission); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	permission.ID = id

	if err := a.store.UpdatePermission(r.Context(), &permission); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, permission)
}

func (a *App) handleDeletePermission(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePermissionID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid permission ID")
		return
	}

	if err := a.store.DeletePermission(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Comment handlers.

func (a *App) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var comment models.Comment
	if err := json.NewDecoder(r.Body).Decode(&comment); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := a.store.CreateComment(r.Context(), &comment); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

func (a *App) handleGetComment(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseCommentID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	comment, err := a.store.GetComment(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if comment == nil {
		respondError(w, http.StatusNotFound, "Comment not found")
		return
	}
	respondJSON(w, http.StatusOK, comment)
}

func (a *App) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseCommentID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	var comment models.Comment
	if err := json.NewDecoder(r.Body).Decode(&comment); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	comment.ID = id

	if err := a.store.UpdateComment(r.Context(), &comment); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, comment)
}

func (a *App) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseCommentID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	if err := a.store.DeleteComment(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleResolveComment(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseCommentID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	if err := a.store.ResolveComment(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (a *App) handleListComments(w http.ResponseWriter, r *http.Request) {
	blockID, err := models.ParseBlockID(mux.Vars(r)["blockId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid block ID")
		return
	}

	comments, err := a.store.ListComments(r.Context(), blockID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, comments)
}
