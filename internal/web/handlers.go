package web

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shanshui/giftplanner/internal/catalog"
	"github.com/shanshui/giftplanner/internal/ingest"
	"github.com/shanshui/giftplanner/internal/logging"
	"github.com/shanshui/giftplanner/internal/pricing"
	"github.com/shanshui/giftplanner/internal/recommend"
	"github.com/shanshui/giftplanner/internal/report"
)

// handleListProducts returns the product library filtered by the q,
// category, and sort query parameters.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ProductFilter{
		Search:   r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
		Sort:     r.URL.Query().Get("sort"),
	}
	products, err := s.service.Products(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// handleCreateProduct adds a placeholder product for manual editing.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.CreateProduct(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.ID = chi.URLParam(r, "productID")
	if err := s.service.UpdateProduct(r.Context(), p); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProduct(r.Context(), chi.URLParam(r, "productID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImport accepts a multipart upload under the "file" field, parses
// the table, and prepends the resulting products to the library.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	products, err := ingest.ParseProducts(data)
	if err != nil {
		respondError(w, r, err)
		return
	}

	count, err := s.service.ImportRecords(r.Context(), products)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("products imported",
		"file", header.Filename,
		"count", count,
	)
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.service.Categories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.service.GiftSets(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if sets == nil {
		sets = []catalog.GiftSet{}
	}
	writeJSON(w, http.StatusOK, sets)
}

func (s *Server) handleCreateSet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil || body.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	set, err := s.service.CreateGiftSet(r.Context(), body.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleGetSet(w http.ResponseWriter, r *http.Request) {
	set, err := s.service.GiftSet(r.Context(), chi.URLParam(r, "setID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteGiftSet(r.Context(), chi.URLParam(r, "setID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// tierBreakdown pairs a tier with its computed financial model.
type tierBreakdown struct {
	TierID    string            `json:"tierId"`
	Label     string            `json:"label"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// handleBreakdown computes the financial model for every tier of a set
// against the current product library.
func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	set, err := s.service.GiftSet(r.Context(), chi.URLParam(r, "setID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	products, err := s.service.Products(r.Context(), catalog.ProductFilter{})
	if err != nil {
		respondError(w, r, err)
		return
	}

	lookup := catalog.NewLookup(products)
	out := make([]tierBreakdown, 0, len(set.Tiers))
	for _, tier := range set.Tiers {
		out = append(out, tierBreakdown{
			TierID:    tier.ID,
			Label:     tier.Label,
			Breakdown: pricing.Compute(tier, lookup.Resolve(tier)),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleExport streams the gift set's plan report as a CSV attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	set, err := s.service.GiftSet(r.Context(), chi.URLParam(r, "setID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	products, err := s.service.Products(r.Context(), catalog.ProductFilter{})
	if err != nil {
		respondError(w, r, err)
		return
	}

	data := report.BuildCSV(set, catalog.NewLookup(products))
	name := report.Filename(set, time.Now())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.FromContext(r.Context()).Error("write export", "error", err)
	}
}

func (s *Server) handleCreateTier(w http.ResponseWriter, r *http.Request) {
	var params catalog.TierParams
	if err := decodeBody(r, &params); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// An absent or all-zero body means "start from the prefilled form values".
	if params == (catalog.TierParams{}) {
		params = catalog.DefaultTierParams()
	}
	tier, err := s.service.SaveTier(r.Context(), chi.URLParam(r, "setID"), "", params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tier)
}

func (s *Server) handleUpdateTier(w http.ResponseWriter, r *http.Request) {
	var params catalog.TierParams
	if err := decodeBody(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tier, err := s.service.SaveTier(r.Context(), chi.URLParam(r, "setID"), chi.URLParam(r, "tierID"), params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tier)
}

func (s *Server) handleDeleteTier(w http.ResponseWriter, r *http.Request) {
	err := s.service.DeleteTier(r.Context(), chi.URLParam(r, "setID"), chi.URLParam(r, "tierID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSelection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID string `json:"productId"`
	}
	if err := decodeBody(r, &body); err != nil || body.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}
	err := s.service.AddToTier(r.Context(), chi.URLParam(r, "setID"), chi.URLParam(r, "tierID"), body.ProductID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveSelection(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	err = s.service.RemoveFromTier(r.Context(), chi.URLParam(r, "setID"), chi.URLParam(r, "tierID"), index)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recommendResponse always carries a list; on a malformed upstream
// response the list is empty and Notice explains why.
type recommendResponse struct {
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Notice          string                     `json:"notice,omitempty"`
}

// handleRecommend requests ranked product picks for one tier from the
// external recommendation service.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if s.recos == nil {
		writeError(w, http.StatusServiceUnavailable, "recommendation service not configured")
		return
	}

	var body struct {
		Requirement string `json:"requirement"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	set, err := s.service.GiftSet(r.Context(), chi.URLParam(r, "setID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	var tier *catalog.Tier
	for i := range set.Tiers {
		if set.Tiers[i].ID == chi.URLParam(r, "tierID") {
			tier = &set.Tiers[i]
			break
		}
	}
	if tier == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	products, err := s.service.Products(r.Context(), catalog.ProductFilter{})
	if err != nil {
		respondError(w, r, err)
		return
	}

	recs, err := s.recos.Recommend(r.Context(), products, tier.TargetTierPrice, tier.DiscountRate, body.Requirement)
	if err != nil {
		var parseErr *recommend.ParseError
		if errors.As(err, &parseErr) {
			logging.FromContext(r.Context()).Warn("recommendation response unparsable", "error", err)
			writeJSON(w, http.StatusOK, recommendResponse{
				Recommendations: []recommend.Recommendation{},
				Notice:          "推荐服务返回了无法解析的结果，请稍后重试",
			})
			return
		}
		writeError(w, http.StatusBadGateway, "recommendation service unavailable")
		return
	}
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recommendResponse{Recommendations: recs})
}
