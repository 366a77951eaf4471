package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers all link routes.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "shorten-link",
		Method:        http.MethodPost,
		Path:          "/links/shorten",
		Summary:       "Create short link",
		Description:   "Creates a short link with a generated code or a custom alias.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, h.Shorten)

	huma.Register(api, huma.Operation{
		OperationID: "search-links",
		Method:      http.MethodGet,
		Path:        "/links/search",
		Summary:     "Find links by original URL",
		Tags:        []string{"Links"},
	}, h.Search)

	huma.Register(api, huma.Operation{
		OperationID: "link-stats",
		Method:      http.MethodGet,
		Path:        "/links/{code}/stats",
		Summary:     "Get link usage",
		Tags:        []string{"Links"},
	}, h.Stats)

	huma.Register(api, huma.Operation{
		OperationID: "update-link",
		Method:      http.MethodPut,
		Path:        "/links/{code}",
		Summary:     "Update link target or expiry",
		Tags:        []string{"Links"},
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-link",
		Method:        http.MethodDelete,
		Path:          "/links/{code}",
		Summary:       "Delete link",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusNoContent,
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL associated with the short code.",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusNotFound, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	}, h.Redirect)
}
