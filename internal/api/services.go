package api

import (
	"github.com/thebooksapp/thebooks-server/internal/service"
)

// Services groups the business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth       *service.AuthService
	Session    *service.SessionService
	Book       *service.BookService
	Collection *service.CollectionService
}
