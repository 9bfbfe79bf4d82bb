package v1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/wingman/ai/chat"
	"github.com/hrygo/wingman/internal/profile"
	"github.com/hrygo/wingman/plugin/filestore"
	"github.com/hrygo/wingman/server/auth"
	"github.com/hrygo/wingman/store"
)

// uploadBodyLimit bounds the size of an upload request body.
const uploadBodyLimit = "16M"

// ChatSender runs one user turn.
type ChatSender interface {
	Send(ctx context.Context, req *chat.SendRequest) (*chat.SendResponse, error)
}

// HistoryLister lists stored turns.
type HistoryLister interface {
	ListChatTurns(ctx context.Context, find *store.FindChatTurn) ([]*store.ChatTurn, error)
}

type APIV1Service struct {
	Profile       *profile.Profile
	Store         HistoryLister
	Files         *filestore.Store
	Authenticator *auth.Authenticator
	// Chat is nil when no completion API is configured.
	Chat ChatSender
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewAPIV1Service(profile *profile.Profile, store HistoryLister, files *filestore.Store, authenticator *auth.Authenticator) *APIV1Service {
	return &APIV1Service{
		Profile:       profile,
		Store:         store,
		Files:         files,
		Authenticator: authenticator,
	}
}

// RegisterRoutes registers the API handlers with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/healthz", s.Healthz)
	if s.Metrics != nil {
		echoServer.GET("/metrics", echo.WrapHandler(s.Metrics))
	}

	apiGroup := echoServer.Group("/api/v1",
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOriginFunc: func(_ string) (bool, error) {
				return true, nil
			},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}),
		s.Authenticator.Middleware(),
	)

	apiGroup.POST("/chat/send", s.SendMessage)
	apiGroup.GET("/chat/history", s.ListChatHistory)
	apiGroup.POST("/uploads", s.UploadFile, middleware.BodyLimit(uploadBodyLimit))
	apiGroup.GET("/uploads/:user/:name", s.GetFile)
}

func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "Service ready.")
}

// currentUserID returns the caller set by the auth middleware.
func currentUserID(c echo.Context) (int32, error) {
	claims := auth.GetUserClaims(c.Request().Context())
	if claims == nil {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}
	return claims.UserID, nil
}
