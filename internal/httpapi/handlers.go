package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-component-search/catalog"
	"github.com/goliatone/go-component-search/search"
)

type handler struct {
	engine *search.Engine
	logger *zap.Logger
}

// parameterRequest is the body of POST /api/search/parameters.
type parameterRequest struct {
	Parameters map[string]catalog.ParameterConstraint `json:"parameters"`
	search.PageOptions
}

func (h *handler) advancedSearch(w http.ResponseWriter, r *http.Request) {
	var q search.Query
	if !h.decode(w, r, &q) {
		return
	}
	res, err := h.engine.AdvancedSearch(r.Context(), q)
	h.reply(w, res, err)
}

func (h *handler) fullTextSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts, ok := h.pageOptions(w, query)
	if !ok {
		return
	}
	res, err := h.engine.FullTextSearch(r.Context(), query.Get("q"), opts)
	h.reply(w, res, err)
}

// searchByCategory reads the path as repeated path parameters, root first,
// or as a single legacy text value.
func (h *handler) searchByCategory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts, ok := h.pageOptions(w, query)
	if !ok {
		return
	}
	res, err := h.engine.SearchByCategory(r.Context(), pathFromQuery(query), opts)
	h.reply(w, res, err)
}

func (h *handler) searchByParameters(w http.ResponseWriter, r *http.Request) {
	var req parameterRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.SearchByParameters(r.Context(), req.Parameters, req.PageOptions)
	h.reply(w, res, err)
}

func (h *handler) suggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := intParam(query, "limit")
	if err != nil {
		badRequest(h.logger, w, err.Error())
		return
	}
	out, err := h.engine.GetSuggestions(r.Context(), query.Get("q"), limit)
	h.reply(w, out, err)
}

func (h *handler) component(w http.ResponseWriter, r *http.Request) {
	detail, err := h.engine.GetComponentWithParameters(r.Context(), chi.URLParam(r, "componentID"))
	h.reply(w, detail, err)
}

func (h *handler) manufacturers(w http.ResponseWriter, r *http.Request) {
	names, err := h.engine.GetManufacturers(r.Context())
	h.reply(w, names, err)
}

func (h *handler) manufacturerCategoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.engine.GetManufacturerCategoryTree(r.Context(), chi.URLParam(r, "manufacturer"))
	h.reply(w, tree, err)
}

func (h *handler) categoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.engine.GetCategoryTree(r.Context())
	h.reply(w, tree, err)
}

func (h *handler) familyMeta(w http.ResponseWriter, r *http.Request) {
	family, err := h.engine.GetFamilyMeta(r.Context(), pathFromQuery(r.URL.Query()))
	h.reply(w, family, err)
}

func (h *handler) parameterDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := h.engine.GetParameterDefinitions(r.Context())
	h.reply(w, defs, err)
}

func (h *handler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.GetStatistics(r.Context())
	h.reply(w, stats, err)
}

func (h *handler) cacheStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(h.logger, w, http.StatusOK, h.engine.CacheStats(r.Context()))
}

func (h *handler) invalidateSearch(w http.ResponseWriter, r *http.Request) {
	n := h.engine.InvalidateSearchCache(r.Context())
	respondJSON(h.logger, w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *handler) invalidateMetadata(w http.ResponseWriter, r *http.Request) {
	n := h.engine.InvalidateMetadataCache(r.Context())
	respondJSON(h.logger, w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *handler) invalidateComponent(w http.ResponseWriter, r *http.Request) {
	ok := h.engine.InvalidateComponent(r.Context(), chi.URLParam(r, "componentID"))
	respondJSON(h.logger, w, http.StatusOK, map[string]bool{"deleted": ok})
}

func (h *handler) reply(w http.ResponseWriter, data any, err error) {
	if err != nil {
		respondError(h.logger, w, err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, data)
}

// decode reads a JSON body. A malformed parameters payload surfaces from
// the constraint decoder as ErrInvalidParameterShape.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if errors.Is(err, search.ErrInvalidParameterShape) {
			respondError(h.logger, w, err)
			return false
		}
		badRequest(h.logger, w, "invalid request body")
		return false
	}
	return true
}

func (h *handler) pageOptions(w http.ResponseWriter, query url.Values) (search.PageOptions, bool) {
	page, err := intParam(query, "page")
	if err != nil {
		badRequest(h.logger, w, err.Error())
		return search.PageOptions{}, false
	}
	limit, err := intParam(query, "limit")
	if err != nil {
		badRequest(h.logger, w, err.Error())
		return search.PageOptions{}, false
	}
	return search.PageOptions{
		Page:      page,
		Limit:     limit,
		SortBy:    query.Get("sortBy"),
		SortOrder: search.SortOrder(query.Get("sortOrder")),
	}, true
}

func intParam(query url.Values, name string) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

// pathFromQuery reads ?path=Resistors&path=Fixed as root-to-leaf labels
// and ?text=... as a legacy text path.
func pathFromQuery(query url.Values) catalog.FamilyPath {
	if text := query.Get("text"); text != "" {
		return catalog.TextPath(text)
	}
	return catalog.PathOf(query["path"]...)
}
