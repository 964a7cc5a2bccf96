package notebase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails. On cancellation it gives in-flight requests five
// seconds to finish.
//
// Routes:
//
//	GET    /api/health                            - Service health status
//
//	POST   /api/users                             - Create user
//	GET    /api/users/{id}                        - Get user
//	PUT    /api/users/{id}                        - Update user
//	DELETE /api/users/{id}                        - Delete user
//
//	POST   /api/workspaces                        - Create workspace
//	GET    /api/workspaces/{id}                   - Get workspace
//	PUT    /api/workspaces/{id}                   - Update workspace
//	DELETE /api/workspaces/{id}                   - Delete workspace
//	GET    /api/users/{userId}/workspaces         - List user's workspaces
//	GET    /api/workspaces/{workspaceId}/pages    - List workspace pages
//
//	POST   /api/pages                             - Create page
//	GET    /api/pages/{id}                        - Get page
//	PUT    /api/pages/{id}                        - Update page
//	DELETE /api/pages/{id}                        - Delete page, cascading its blocks
//
//	GET    /api/pages/{pageId}/tree               - Assembled block tree
//	PUT    /api/pages/{pageId}/tree               - Save a rebuilt block tree in one pass
//	POST   /api/pages/{pageId}/blocks             - Insert block
//	PUT    /api/pages/{pageId}/blocks/reorder     - Reorder sibling blocks
//	PUT    /api/pages/{pageId}/blocks/{id}        - Replace block content
//	DELETE /api/pages/{pageId}/blocks/{id}        - Delete block and subtree
//	POST   /api/pages/{pageId}/blocks/{id}/move   - Reparent block
//	POST   /api/pages/{pageId}/expand             - Expand a template onto the page
//	GET    /api/pages/{pageId}/presence           - Users live on the page
//	GET    /api/pages/{pageId}/ws                 - Collaboration websocket
//
//	GET    /api/templates                         - List templates
//
//	POST   /api/permissions                       - Grant permission
//	GET    /api/permissions/{id}                  - Get permission
//	PUT    /api/permissions/{id}                  - Update permission
//	DELETE /api/permissions/{id}                  - Revoke permission
//
//	POST   /api/comments                          - Add comment
//	GET    /api/comments/{id}                     - Get comment
//	PUT    /api/comments/{id}                     - Update comment
//	DELETE /api/comments/{id}                     - Delete comment
//	PUT    /api/comments/{id}/resolve             - Mark comment resolved
//	GET    /api/blocks/{blockId}/comments         - List block comments
//
// Mutating endpoints identify the acting user from the X-User-ID header.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	router := a.Router()

	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.log.Info().Str("addr", addr).Bool("read_only", a.readOnly).Msg("starting server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// Router builds the full route table. Exposed so tests can serve the API
// with httptest instead of a real listener.
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	api.HandleFunc("/users", a.handleCreateUser).Methods("POST")
	api.HandleFunc("/users/{id}", a.handleGetUser).Methods("GET")
	api.HandleFunc("/users/{id}", a.handleUpdateUser).Methods("PUT")
	api.HandleFunc("/users/{id}", a.handleDeleteUser).Methods("DELETE")
	api.HandleFunc("/users/{userId}/workspaces", a.handleListWorkspaces).Methods("GET")

	api.HandleFunc("/workspaces", a.handleCreateWorkspace).Methods("POST")
	api.HandleFunc("/workspaces/{id}", a.handleGetWorkspace).Methods("GET")
	api.HandleFunc("/workspaces/{id}", a.handleUpdateWorkspace).Methods("PUT")
	api.HandleFunc("/workspaces/{id}", a.handleDeleteWorkspace).Methods("DELETE")
	api.HandleFunc("/workspaces/{workspaceId}/pages", a.handleListPages).Methods("GET")

	api.HandleFunc("/pages", a.handleCreatePage).Methods("POST")
	api.HandleFunc("/pages/{id}", a.handleGetPage).Methods("GET")
	api.HandleFunc("/pages/{id}", a.handleUpdatePage).Methods("PUT")
	api.HandleFunc("/pages/{id}", a.handleDeletePage).Methods("DELETE")

	// reorder before {id}; mux matches in registration order
	api.HandleFunc("/pages/{pageId}/tree", a.handleGetTree).Methods("GET")
	api.HandleFunc("/pages/{pageId}/tree", a.handleSaveTree).Methods("PUT")
	api.HandleFunc("/pages/{pageId}/blocks/reorder", a.handleReorderBlocks).Methods("PUT")
	api.HandleFunc("/pages/{pageId}/blocks", a.handleInsertBlock).Methods("POST")
	api.HandleFunc("/pages/{pageId}/blocks/{id}", a.handleUpdateBlock).Methods("PUT")
	api.HandleFunc("/pages/{pageId}/blocks/{id}", a.handleDeleteBlock).Methods("DELETE")
	api.HandleFunc("/pages/{pageId}/blocks/{id}/move", a.handleMoveBlock).Methods("POST")
	api.HandleFunc("/pages/{pageId}/expand", a.handleExpandTemplate).Methods("POST")
	api.HandleFunc("/pages/{pageId}/presence", a.handlePresence).Methods("GET")
	api.HandleFunc("/pages/{pageId}/ws", a.handleCollabSocket).Methods("GET")

	api.HandleFunc("/templates", a.handleListTemplates).Methods("GET")

	api.HandleFunc("/permissions", a.handleCreatePermission).Methods("POST")
	api.HandleFunc("/permissions/{id}", a.handleGetPermission).Methods("GET")
	api.HandleFunc("/permissions/{id}", a.handleUpdatePermission).Methods("PUT")
	api.HandleFunc("/permissions/{id}", a.handleDeletePermission).Methods("DELETE")

	api.HandleFunc("/comments", a.handleCreateComment).Methods("POST")
	api.HandleFunc("/comments/{id}/resolve", a.handleResolveComment).Methods("PUT")
	api.HandleFunc("/comments/{id}", a.handleGetComment).Methods("GET")
	api.HandleFunc("/comments/{id}", a.handleUpdateComment).Methods("PUT")
	api.HandleFunc("/comments/{id}", a.handleDeleteComment).Methods("DELETE")
	api.HandleFunc("/blocks/{blockId}/comments", a.handleListComments).Methods("GET")

	router.HandleFunc("/health", a.handleHealth).Methods("GET")
	return router
}
