package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/concrnt-inscriber"
	"github.com/totegamma/concrnt-inscriber/internal/domain"
	"github.com/totegamma/concrnt-inscriber/internal/present/rest/middleware"
	"github.com/totegamma/concrnt-inscriber/internal/present/rest/presenter"
	"github.com/totegamma/concrnt-inscriber/internal/usecase"
)

// Realtime streams play events for the owners most recently sent on request.
type Realtime interface {
	Realtime(ctx context.Context, request <-chan []string, response chan<- concrnt.Event)
}

type Handler struct {
	config domain.Config
	listen *usecase.ListenUsecase
	apikey *usecase.APIKeyUsecase
	play   *usecase.PlayUsecase
	feed   *usecase.FeedUsecase
	signal Realtime
	auth   *middleware.AuthMiddleware
}

func NewHandler(
	config domain.Config,
	listen *usecase.ListenUsecase,
	apikey *usecase.APIKeyUsecase,
	play *usecase.PlayUsecase,
	feed *usecase.FeedUsecase,
	signal Realtime,
	auth *middleware.AuthMiddleware,
) *Handler {
	return &Handler{
		config: config,
		listen: listen,
		apikey: apikey,
		play:   play,
		feed:   feed,
		signal: signal,
		auth:   auth,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/.well-known/concrnt", h.handleWellKnown)

	lbz := e.Group("/lbz/1")
	lbz.POST("/submit-listens", h.handleSubmitListens, h.auth.RequireToken)
	lbz.GET("/validate-token", h.handleValidateToken)

	api := e.Group("/api/v1", h.auth.IdentifyIdentity)
	api.POST("/apikey", h.handleIssueAPIKey, middleware.RequireIdentity)
	api.GET("/apikey", h.handleListAPIKeys, middleware.RequireIdentity)
	api.DELETE("/apikey/:id", h.handleRevokeAPIKey, middleware.RequireIdentity)
	api.GET("/plays", h.handlePlays)
	api.GET("/plays/feed", h.handleFeed)

	e.GET("/chunkline/:owner/plays", h.handleChunklineManifest)
	e.GET("/chunkline/:owner/plays/:chunk/itr", h.handleChunklineItr)
	e.GET("/chunkline/:owner/plays/:chunk/body", h.handleChunklineBody)

	if h.signal != nil {
		e.GET("/realtime", h.handleRealtime)
	}
}

func (h *Handler) handleWellKnown(c echo.Context) error {
	endpoints := map[string]concrnt.ConcrntEndpoint{
		"fm.teal.listenbrainz.submit": {
			Template: "/lbz/1/submit-listens",
			Method:   http.MethodPost,
		},
		"fm.teal.listenbrainz.validate-token": {
			Template: "/lbz/1/validate-token",
			Method:   http.MethodGet,
		},
		"fm.teal.apikey": {
			Template: "/api/v1/apikey",
			Method:   http.MethodPost,
		},
		"fm.teal.plays.recent": {
			Template: "/api/v1/plays",
			Method:   http.MethodGet,
			Query:    &[]string{"owner", "until", "limit"},
		},
		"fm.teal.plays.feed": {
			Template: "/api/v1/plays/feed",
			Method:   http.MethodGet,
			Query:    &[]string{"timelines", "until", "limit"},
		},
		"fm.teal.plays.chunkline": {
			Template: "/chunkline/{owner}/plays",
			Method:   http.MethodGet,
		},
	}
	if h.signal != nil {
		endpoints["net.concrnt.realtime"] = concrnt.ConcrntEndpoint{
			Template: "/realtime",
			Method:   http.MethodGet,
		}
	}

	wellknown := concrnt.WellKnownConcrnt{
		Version:   "2.0",
		Domain:    h.config.FQDN,
		CSID:      h.config.CSID,
		Layer:     h.config.Layer,
		Endpoints: endpoints,
	}
	return presenter.OK(c, wellknown)
}

type submitListensRequest struct {
	ListenType string          `json:"listen_type"`
	Payload    []listenPayload `json:"payload"`
}

type listenPayload struct {
	ListenedAt    *int64        `json:"listened_at"`
	TrackMetadata trackMetadata `json:"track_metadata"`
}

type trackMetadata struct {
	TrackName      string          `json:"track_name"`
	ArtistName     string          `json:"artist_name"`
	ReleaseName    string          `json:"release_name"`
	AdditionalInfo *additionalInfo `json:"additional_info"`
}

type additionalInfo struct {
	OriginURL string `json:"origin_url"`
}

func (r submitListensRequest) listens(receivedAt time.Time) []domain.RawListen {
	listens := make([]domain.RawListen, 0, len(r.Payload))
	for _, p := range r.Payload {
		listen := domain.RawListen{
			ListenedAt:  receivedAt.Unix(),
			TrackName:   p.TrackMetadata.TrackName,
			ArtistName:  p.TrackMetadata.ArtistName,
			ReleaseName: p.TrackMetadata.ReleaseName,
		}
		if p.ListenedAt != nil {
			listen.ListenedAt = *p.ListenedAt
		}
		if p.TrackMetadata.AdditionalInfo != nil {
			listen.OriginURL = p.TrackMetadata.AdditionalInfo.OriginURL
		}
		listens = append(listens, listen)
	}
	return listens
}

func (h *Handler) handleSubmitListens(c echo.Context) error {
	ctx := c.Request().Context()
	owner := middleware.RequesterID(ctx)

	var req submitListensRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid listen payload")
	}

	slog.DebugContext(
		ctx, "listens submitted",
		slog.String("listen_type", req.ListenType),
		slog.Int("count", len(req.Payload)),
		slog.String("module", "rest"),
	)

	result, err := h.listen.Submit(ctx, owner, req.listens(time.Now()))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return presenter.Unauthorized(c, "Invalid token")
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, result)
}

func (h *Handler) handleValidateToken(c echo.Context) error {
	ctx := c.Request().Context()

	token := c.QueryParam("token")
	if token == "" {
		authType, credential, ok := middleware.SplitAuthorization(c.Request().Header.Get("authorization"))
		if ok && strings.EqualFold(authType, domain.AuthSchemeToken) {
			token = credential
		}
	}
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"code":  http.StatusBadRequest,
			"error": "You need to provide an Authorization header.",
		})
	}

	key, err := h.apikey.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return presenter.OK(c, echo.Map{
				"code":    http.StatusOK,
				"message": "Token invalid.",
				"valid":   false,
			})
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{
		"code":      http.StatusOK,
		"message":   "Token valid.",
		"valid":     true,
		"user_name": key.Owner,
	})
}

func (h *Handler) handleIssueAPIKey(c echo.Context) error {
	ctx := c.Request().Context()
	owner := middleware.RequesterID(ctx)

	plaintext, key, err := h.apikey.Issue(ctx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{
		"id":  key.ID,
		"key": plaintext,
	})
}

func (h *Handler) handleListAPIKeys(c echo.Context) error {
	ctx := c.Request().Context()

	keys, err := h.apikey.List(ctx, middleware.RequesterID(ctx))
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, keys)
}

func (h *Handler) handleRevokeAPIKey(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.apikey.Revoke(ctx, middleware.RequesterID(ctx), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "api key not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func parseUntilLimit(c echo.Context) (time.Time, int, error) {
	until := time.Now().UTC()
	untilStr := c.QueryParam("until")
	if untilStr != "" {
		untilInt, err := strconv.ParseInt(untilStr, 10, 64)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("invalid until parameter")
		}
		until = time.Unix(untilInt, 0).UTC()
	}

	limit := 0
	limitStr := c.QueryParam("limit")
	if limitStr != "" {
		limitInt, err := strconv.Atoi(limitStr)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("invalid limit parameter")
		}
		limit = limitInt
	}

	return until, limit, nil
}

func (h *Handler) handlePlays(c echo.Context) error {
	ctx := c.Request().Context()

	owner := c.QueryParam("owner")
	if owner == "" {
		owner = middleware.RequesterID(ctx)
	}
	if owner == "" {
		return presenter.BadRequestMessage(c, "owner parameter is required")
	}

	until, limit, err := parseUntilLimit(c)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	plays, err := h.play.Recent(ctx, owner, until, limit)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, plays)
}

func (h *Handler) handleFeed(c echo.Context) error {
	ctx := c.Request().Context()

	timelines := []string{}
	for _, tl := range strings.Split(c.QueryParam("timelines"), ",") {
		if tl = strings.TrimSpace(tl); tl != "" {
			timelines = append(timelines, tl)
		}
	}
	if len(timelines) == 0 {
		return presenter.BadRequestMessage(c, "timelines parameter is required")
	}

	until, limit, err := parseUntilLimit(c)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	items, err := h.feed.Recent(ctx, timelines, until, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, items)
}

func (h *Handler) handleChunklineManifest(c echo.Context) error {
	ctx := c.Request().Context()

	manifest, err := h.play.Manifest(ctx, c.Param("owner"))
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, manifest)
}

func (h *Handler) handleChunklineItr(c echo.Context) error {
	ctx := c.Request().Context()

	chunkID, err := strconv.ParseInt(c.Param("chunk"), 10, 64)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid chunk id")
	}

	itr, err := h.play.LookupItr(ctx, c.Param("owner"), chunkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "no plays before this chunk")
		}
		return presenter.InternalError(c, err)
	}

	return c.String(http.StatusOK, strconv.FormatInt(itr, 10))
}

func (h *Handler) handleChunklineBody(c echo.Context) error {
	ctx := c.Request().Context()

	chunkID, err := strconv.ParseInt(c.Param("chunk"), 10, 64)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid chunk id")
	}

	items, err := h.play.LoadBody(ctx, c.Param("owner"), chunkID)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, items)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type   string   `json:"type"`
	Owners []string `json:"owners"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	input := make(chan []string)
	output := make(chan concrnt.Event)

	go h.signal.Realtime(ctx, input, output)

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {
				var wsErr *websocket.CloseError
				if errors.As(err, &wsErr) {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}

			switch req.Type {
			case "listen":
				select {
				case input <- req.Owners:
				case <-ctx.Done():
					return
				}
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.Owners),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
