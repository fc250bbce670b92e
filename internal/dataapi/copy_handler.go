package dataapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/rafaeljc/bifrost/internal/locale"
)

// handleResolveCopy processes GET /api/v1/copy?path=&fallback=&lang=.
func (a *API) handleResolveCopy(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		writeError(w, r, http.StatusBadRequest, "ERR_INVALID_QUERY_PARAM", "path is required")
		return
	}

	lang := a.requestLanguage(r)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, CopyResponse{
		Path:     path,
		Language: lang,
		Value:    a.resolver.ResolveCopy(path, q.Get("fallback"), lang),
	})
}

// handleResolveKey processes GET /api/v1/copy/keys/{key}?fallback=&lang=.
func (a *API) handleResolveKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	lang := a.requestLanguage(r)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, CopyResponse{
		Key:      key,
		Language: lang,
		Value:    a.resolver.ResolveByKey(key, r.URL.Query().Get("fallback"), lang),
	})
}

// handleCopyStatus processes GET /api/v1/copy/status.
func (a *API) handleCopyStatus(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, CopyStatusResponse{
		Status:          a.resolver.Status(),
		DefaultLanguage: a.resolver.Language(""),
	})
}

// requestLanguage picks the explicit lang query parameter, then the
// Accept-Language header, then the resolver's locale.
func (a *API) requestLanguage(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return locale.BaseLanguage(lang, a.resolver.Language(""))
	}
	return locale.FromAcceptLanguage(r.Header.Get("Accept-Language"), a.resolver.Language(""))
}
