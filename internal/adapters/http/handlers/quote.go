package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotevault/quotesync/internal/adapters/http/dto"
	"github.com/quotevault/quotesync/internal/app"
	"github.com/quotevault/quotesync/internal/domain"
)

// QuoteHandler exposes the quote collection over HTTP.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// QuoteResponse is the HTTP representation of a quote.
type QuoteResponse struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Synced   bool   `json:"synced"`
}

func toQuoteResponse(q *domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:       q.ID,
		Text:     q.Text,
		Category: q.Category,
		Synced:   q.Synced,
	}
}

// listQuotesRequest binds list query parameters.
type listQuotesRequest struct {
	Category string `form:"category"`
	dto.PageRequest
}

// ListQuotes handles GET /api/v1/quotes.
// Returns quotes in insertion order with optional category filter and
// offset/limit paging.
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req listQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleValidationErrors(c, err)

		return
	}

	quotes, total, err := h.service.List(c.Request.Context(), req.Category, req.GetLimit(), req.GetOffset())
	if err != nil {
		dto.HandleError(c, err)

		return
	}

	items := make([]QuoteResponse, 0, len(quotes))
	for i := range quotes {
		items = append(items, toQuoteResponse(&quotes[i]))
	}

	c.JSON(http.StatusOK, dto.NewPagedResponse(items, total, req.GetLimit(), req.GetOffset()))
}

// GetRandomQuote handles GET /api/v1/quotes/random.
// Returns a uniformly random quote, optionally restricted by ?category=.
func (h *QuoteHandler) GetRandomQuote(c *gin.Context) {
	quote, err := h.service.Random(c.Request.Context(), c.Query("category"))
	if err != nil {
		dto.HandleError(c, err)

		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// addQuoteRequest is the POST /quotes body.
type addQuoteRequest struct {
	Text     string `json:"text"     validate:"required,notempty"`
	Category string `json:"category" validate:"required,notempty"`
}

// AddQuote handles POST /api/v1/quotes.
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req addQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleValidationErrors(c, err)

		return
	}

	quote, err := h.service.Add(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)

		return
	}

	c.JSON(http.StatusCreated, toQuoteResponse(quote))
}

// importResponse reports how many quotes an import appended.
type importResponse struct {
	Imported int `json:"imported"`
}

// ImportQuotes handles POST /api/v1/quotes/import.
// The body is a raw JSON array; anything else is a 400 and the collection
// stays untouched.
func (h *QuoteHandler) ImportQuotes(c *gin.Context) {
	count, err := h.service.Import(c.Request.Context(), c.Request.Body)
	if err != nil {
		dto.HandleError(c, err)

		return
	}

	c.JSON(http.StatusOK, importResponse{Imported: count})
}

// ExportQuotes handles GET /api/v1/quotes/export.
// Streams the whole collection as a downloadable JSON document.
func (h *QuoteHandler) ExportQuotes(c *gin.Context) {
	data, err := h.service.Export(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)

		return
	}

	c.Header("Content-Disposition", `attachment; filename="quotes.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// categoriesResponse lists distinct categories in first-seen order.
type categoriesResponse struct {
	Categories []string `json:"categories"`
}

// ListCategories handles GET /api/v1/categories.
func (h *QuoteHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.Categories(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)

		return
	}

	if categories == nil {
		categories = []string{}
	}

	c.JSON(http.StatusOK, categoriesResponse{Categories: categories})
}

// filterRequest and filterResponse carry the selected category filter.
// An empty category clears the filter.
type filterRequest struct {
	Category string `json:"category"`
}

type filterResponse struct {
	Category string `json:"category"`
}

// GetFilter handles GET /api/v1/filter.
func (h *QuoteHandler) GetFilter(c *gin.Context) {
	category, err := h.service.Filter(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)

		return
	}

	c.JSON(http.StatusOK, filterResponse{Category: category})
}

// SetFilter handles PUT /api/v1/filter.
func (h *QuoteHandler) SetFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.HandleValidationErrors(c, err)

		return
	}

	if err := h.service.SetFilter(c.Request.Context(), req.Category); err != nil {
		dto.HandleError(c, err)

		return
	}

	c.JSON(http.StatusOK, filterResponse{Category: req.Category})
}

// RegisterQuoteRoutes registers the quote API on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.GET("/random", h.GetRandomQuote)
	quotes.POST("", h.AddQuote)
	quotes.POST("/import", h.ImportQuotes)
	quotes.GET("/export", h.ExportQuotes)

	rg.GET("/categories", h.ListCategories)
	rg.GET("/filter", h.GetFilter)
	rg.PUT("/filter", h.SetFilter)
}
