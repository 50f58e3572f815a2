package realtime

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ahmedhassan-hash/go-starter-template/config"
	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/http/response"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"
	"github.com/ahmedhassan-hash/go-starter-template/internal/infra/pubsub"
	"github.com/ahmedhassan-hash/go-starter-template/internal/usecase"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Handler serves the websocket endpoint and the pub/sub push endpoint that
// feeds the hub.
type Handler struct {
	hub            *Hub
	tokenService   service.TokenService
	authUsecase    usecase.AuthUsecase
	notifications  service.NotificationService
	logger         *slog.Logger
	verifyPushAuth bool
	upgrader       websocket.Upgrader
}

// HandlerParams holds dependencies for the realtime Handler.
type HandlerParams struct {
	fx.In

	Config        *config.Config
	Hub           *Hub
	TokenService  service.TokenService
	AuthUsecase   usecase.AuthUsecase
	Notifications service.NotificationService `optional:"true"`
	Logger        *slog.Logger
}

// NewHandler is the constructor for the realtime Handler, injected by Fx.
func NewHandler(params HandlerParams) *Handler {
	verifyPushAuth := params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == pubsub.ProviderGoogle &&
		!params.Config.Env.Debug

	return &Handler{
		hub:            params.Hub,
		tokenService:   params.TokenService,
		authUsecase:    params.AuthUsecase,
		notifications:  params.Notifications,
		logger:         params.Logger,
		verifyPushAuth: verifyPushAuth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin checks are handled by the CORS middleware on the
			// HTTP surface; browser websocket clients connect from anywhere.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS authenticates and upgrades a websocket connection. Browsers
// cannot set the Authorization header on websocket dials, so a token query
// parameter is accepted as a fallback.
func (h *Handler) HandleWS(c echo.Context) error {
	token, ok := service.ExtractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		token = c.QueryParam("token")
	}
	if token == "" {
		return response.Unauthorized(c, "UNAUTHORIZED", "Missing access token")
	}

	claims, err := h.tokenService.ValidateAccessToken(token)
	if err != nil {
		return response.Unauthorized(c, "UNAUTHORIZED", "Invalid or expired access token")
	}

	user, err := h.authUsecase.GetUserByID(c.Request().Context(), claims.UserID)
	if err != nil || !user.IsActive {
		return response.Unauthorized(c, "UNAUTHORIZED", "Invalid or expired access token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to upgrade websocket")
	}

	client := h.hub.Register(user.ID.String())

	go h.writePump(client, conn)
	go h.readPump(client, conn)

	return nil
}

// HandlePush receives pub/sub push deliveries and fans the decoded event out
// to connected clients. Malformed deliveries are acknowledged so the broker
// does not redeliver them forever.
func (h *Handler) HandlePush(c echo.Context) error {
	if h.verifyPushAuth {
		if err := verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("rejected pub/sub push", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var pushMsg pubsub.PubSubPushMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("failed to decode push data", slog.Any("error", err))

		return c.NoContent(http.StatusOK)
	}

	var event service.BroadcastEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error("failed to parse broadcast event", slog.Any("error", err))

		return c.NoContent(http.StatusOK)
	}

	if event.RequestID == "" {
		event.RequestID = pushMsg.Message.Attributes["request_id"]
	}

	h.logger.Info("fanning out broadcast",
		slog.String("event", event.Event),
		slog.String("target", event.Target),
		slog.String("request_id", event.RequestID),
	)

	delivered := h.hub.Broadcast(&event)

	// A targeted event that reached no live connection falls back to a push
	// notification on the user's FCM topic, when that channel is configured.
	if delivered == 0 && event.Target != "" && h.notifications != nil {
		err := h.notifications.SendTopicNotification(c.Request().Context(),
			userTopic(event.Target), event.Event, "", map[string]string{
				"payload":    event.Payload,
				"request_id": event.RequestID,
			})
		if err != nil {
			h.logger.Warn("push notification fallback failed",
				slog.String("target", event.Target),
				slog.Any("error", err),
			)
		}
	}

	return c.NoContent(http.StatusOK)
}

// userTopic names the per-user FCM topic clients subscribe to on login.
func userTopic(userID string) string {
	return "user-" + userID
}

// writePump drains the client's queue onto the wire and keeps the
// connection alive with pings.
func (h *Handler) writePump(client *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames. The gateway is one-directional; reading
// is only needed to process control frames and detect disconnects.
func (h *Handler) readPump(client *Client, conn *websocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// verifyPubSubToken verifies the JWT token from Google Pub/Sub push requests
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request) error {
	token, ok := service.ExtractBearerToken(req.Header.Get("Authorization"))
	if !ok {
		return errors.New("missing or malformed authorization header")
	}

	scheme := "https"
	if req.TLS == nil {
		scheme = "http"
	}
	audience := fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)

	payload, err := idtoken.Validate(req.Context(), token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "https://accounts.google.com" && payload.Issuer != "accounts.google.com" {
		return errors.Errorf("unexpected token issuer: %s", payload.Issuer)
	}

	return nil
}
