package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// Refresher runs one refresh cycle over every tracked product.
type Refresher interface {
	RunRefresh(ctx context.Context) (*domain.CycleSummary, error)
}

// RefreshHandler serves the scheduler-facing refresh trigger.
type RefreshHandler struct {
	refresher Refresher
	secret    []byte
}

// NewRefreshHandler creates a RefreshHandler that only runs cycles for
// callers presenting secret. An empty secret rejects every request.
func NewRefreshHandler(r Refresher, secret string) *RefreshHandler {
	return &RefreshHandler{refresher: r, secret: []byte(secret)}
}

// RefreshInput carries the cron token. Any of the three locations may be used.
type RefreshInput struct {
	Token         string `query:"token"         doc:"Cron shared secret"`
	CronToken     string `header:"X-Cron-Token" doc:"Cron shared secret"`
	Authorization string `header:"Authorization" doc:"Bearer <cron shared secret>"`
}

// token returns the first credential presented.
func (in *RefreshInput) token() string {
	switch {
	case in.Token != "":
		return in.Token
	case in.CronToken != "":
		return in.CronToken
	default:
		bearer, ok := strings.CutPrefix(in.Authorization, "Bearer ")
		if !ok {
			return ""
		}
		return strings.TrimSpace(bearer)
	}
}

// RefreshOutput is the cycle summary returned to the caller.
type RefreshOutput struct {
	Body *domain.CycleSummary
}

// Refresh authenticates the caller and runs a refresh cycle. Per-product
// failures are reported inside the summary; only a store read failure is
// a 500.
func (h *RefreshHandler) Refresh(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
	if !h.authorized(input.token()) {
		return nil, huma.Error401Unauthorized("invalid or missing cron token")
	}

	summary, err := h.refresher.RunRefresh(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("refresh failed: " + err.Error())
	}

	return &RefreshOutput{Body: summary}, nil
}

func (h *RefreshHandler) authorized(token string) bool {
	if len(h.secret) == 0 || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), h.secret) == 1
}

// RegisterRefreshRoutes registers the cron trigger with the Huma API.
func RegisterRefreshRoutes(api huma.API, h *RefreshHandler) {
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		huma.Register(api, huma.Operation{
			OperationID: "refresh-products-" + strings.ToLower(method),
			Method:      method,
			Path:        "/api/cron/refresh",
			Summary:     "Run a refresh cycle",
			Description: "Re-scrapes every tracked product, appends the observed price to its " +
				"history, and emails subscribers about price events. Requires the cron secret.",
			Tags:   []string{"refresh"},
			Errors: []int{http.StatusUnauthorized, http.StatusInternalServerError},
		}, h.Refresh)
	}
}
