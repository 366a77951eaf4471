package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/short-links/internal/analytics"
	"github.com/serroba/short-links/internal/auth"
	"github.com/serroba/short-links/internal/messaging"
	"github.com/serroba/short-links/internal/shortener"
	"go.uber.org/zap"
)

// Mutations are the write operations on links.
type Mutations interface {
	Create(ctx context.Context, req shortener.CreateRequest) (*shortener.Link, error)
	Update(ctx context.Context, code shortener.Code, update shortener.LinkUpdate, requester shortener.OwnerID) (*shortener.Link, error)
	Delete(ctx context.Context, code shortener.Code, requester shortener.OwnerID) error
}

// Lookups are the read operations on links.
type Lookups interface {
	Resolve(ctx context.Context, code shortener.Code) (string, error)
	GetStats(ctx context.Context, code shortener.Code) (*shortener.LinkStats, error)
	FindByOriginalURL(ctx context.Context, rawURL string) ([]*shortener.Link, error)
}

// LinkHandler handles link shortening operations.
type LinkHandler struct {
	mutations       Mutations
	lookups         Lookups
	baseURL         string
	requireIdentity bool
	publishCreated  messaging.Publish[analytics.LinkCreatedEvent]
	logger          *zap.Logger
}

// Option configures a LinkHandler.
type Option func(*LinkHandler)

// WithCreatedEvents publishes a LinkCreatedEvent for every new link.
func WithCreatedEvents(publish messaging.Publish[analytics.LinkCreatedEvent]) Option {
	return func(h *LinkHandler) { h.publishCreated = publish }
}

// RequireIdentity rejects anonymous updates and deletes with 401.
func RequireIdentity() Option {
	return func(h *LinkHandler) { h.requireIdentity = true }
}

func NewLinkHandler(mutations Mutations, lookups Lookups, baseURL string, logger *zap.Logger, opts ...Option) *LinkHandler {
	h := &LinkHandler{
		mutations: mutations,
		lookups:   lookups,
		baseURL:   baseURL,
		logger:    logger,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *LinkHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	link, err := h.mutations.Create(ctx, shortener.CreateRequest{
		OriginalURL: req.Body.URL,
		CustomAlias: req.Body.Alias,
		ExpiresAt:   req.Body.ExpiresAt,
		Owner:       auth.OwnerFromContext(ctx),
	})
	if err != nil {
		return nil, h.httpError("shorten", req.Body.Alias, err)
	}

	if h.publishCreated != nil {
		if err := h.publishCreated(ctx, analytics.CreatedEvent(ctx, link)); err != nil {
			h.logger.Error("failed to publish analytics event",
				zap.String("code", string(link.Code)),
				zap.Error(err),
			)
		}
	}

	resp := &ShortenResponse{Body: h.linkBody(link)}
	resp.Location = resp.Body.ShortURL

	return resp, nil
}

func (h *LinkHandler) Redirect(ctx context.Context, req *CodeRequest) (*RedirectResponse, error) {
	target, err := h.lookups.Resolve(ctx, shortener.Code(req.Code))
	if err != nil {
		return nil, h.httpError("redirect", req.Code, err)
	}

	return &RedirectResponse{
		Status:       http.StatusTemporaryRedirect,
		Location:     target,
		CacheControl: "private, max-age=0",
	}, nil
}

func (h *LinkHandler) Stats(ctx context.Context, req *CodeRequest) (*StatsResponse, error) {
	stats, err := h.lookups.GetStats(ctx, shortener.Code(req.Code))
	if err != nil {
		return nil, h.httpError("stats", req.Code, err)
	}

	return &StatsResponse{Body: StatsBody{
		Code:        string(stats.Code),
		OriginalURL: stats.OriginalURL,
		Clicks:      stats.Clicks,
		CreatedAt:   stats.CreatedAt,
		LastUsedAt:  stats.LastUsedAt,
		ExpiresAt:   stats.ExpiresAt,
	}}, nil
}

func (h *LinkHandler) Update(ctx context.Context, req *UpdateRequest) (*LinkResponse, error) {
	requester, err := h.requester(ctx)
	if err != nil {
		return nil, err
	}

	link, err := h.mutations.Update(ctx, shortener.Code(req.Code), shortener.LinkUpdate{
		OriginalURL: req.Body.URL,
		ExpiresAt:   req.Body.ExpiresAt,
	}, requester)
	if err != nil {
		return nil, h.httpError("update", req.Code, err)
	}

	return &LinkResponse{Body: h.linkBody(link)}, nil
}

func (h *LinkHandler) Delete(ctx context.Context, req *CodeRequest) (*struct{}, error) {
	requester, err := h.requester(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.mutations.Delete(ctx, shortener.Code(req.Code), requester); err != nil {
		return nil, h.httpError("delete", req.Code, err)
	}

	return nil, nil
}

func (h *LinkHandler) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	links, err := h.lookups.FindByOriginalURL(ctx, req.URL)
	if err != nil {
		return nil, h.httpError("search", "", err)
	}

	resp := &SearchResponse{}
	resp.Body.Links = make([]LinkBody, 0, len(links))

	for _, link := range links {
		resp.Body.Links = append(resp.Body.Links, h.linkBody(link))
	}

	return resp, nil
}

func (h *LinkHandler) requester(ctx context.Context) (shortener.OwnerID, error) {
	owner := auth.OwnerFromContext(ctx)
	if owner == "" && h.requireIdentity {
		return "", huma.Error401Unauthorized("authentication required")
	}

	return owner, nil
}

func (h *LinkHandler) linkBody(link *shortener.Link) LinkBody {
	return LinkBody{
		Code:        string(link.Code),
		ShortURL:    fmt.Sprintf("%s/%s", h.baseURL, link.Code),
		OriginalURL: link.OriginalURL,
		CustomAlias: link.CustomAlias != "",
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
	}
}
