package httpx

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-storefront/internal/search"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"net/http"
)

type Searcher interface {
	Search(ctx context.Context, raw string) (search.Result, error)
}

type SearchHandler struct {
	Search Searcher
	Log    *zap.Logger
}

func (h *SearchHandler) Register(r chi.Router) {
	r.Get("/search", h.search)
}

type searchQuery struct {
	Q string `schema:"q"`
}

func (h *SearchHandler) search(w http.ResponseWriter, r *http.Request) {
	var q searchQuery
	_ = queryDecoder.Decode(&q, r.URL.Query())

	res, err := h.Search.Search(r.Context(), q.Q)
	switch {
	case errors.Is(err, search.ErrQueryTooLong):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": search.MsgQueryTooLong})
	case r.Context().Err() != nil:
		// superseded by a newer query; nobody is listening
	case err != nil:
		h.Log.Error("search", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": search.MsgSearchFailed})
	default:
		writeJSON(w, http.StatusOK, res)
	}
}
