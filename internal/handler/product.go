package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/papercart/storefront/internal/pricing"
)

// ListProducts serves the cached catalog for the surrounding UI.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		zctx.From(r.Context()).Warn("Catalog fetch failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Network error. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				product := p
				e.Obj(func(e *jx.Encoder) {
					e.Field("id", func(e *jx.Encoder) { e.Str(product.ID) })
					e.Field("name", func(e *jx.Encoder) { e.Str(product.Name) })
					e.Field("description", func(e *jx.Encoder) { e.Str(product.Description) })
					e.Field("image", func(e *jx.Encoder) { e.Str(product.Image) })
					e.Field("category", func(e *jx.Encoder) { e.Str(product.Category) })
					e.Field("price", func(e *jx.Encoder) { e.Str(pricing.Format(product.Price)) })
					e.Field("originalPrice", func(e *jx.Encoder) { e.Str(pricing.Format(product.OriginalPrice)) })
					e.Field("variants", func(e *jx.Encoder) {
						e.Arr(func(e *jx.Encoder) {
							for _, v := range product.Variants {
								variant := v
								e.Obj(func(e *jx.Encoder) {
									e.Field("weight", func(e *jx.Encoder) { e.Str(variant.Key) })
									e.Field("price", func(e *jx.Encoder) { e.Str(pricing.Format(variant.Price)) })
								})
							}
						})
					})
				})
			}
		})
	})
}
