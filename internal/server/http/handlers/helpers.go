package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/grocerymart/internal/domain/errors"
	"github.com/polkiloo/grocerymart/internal/domain/model"
	"github.com/polkiloo/grocerymart/internal/server/http/dto"
	"github.com/polkiloo/grocerymart/internal/server/http/middleware"
	"github.com/polkiloo/grocerymart/internal/usecase"
)

const dateLayout = "2006-01-02"

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// respondError maps domain errors onto HTTP responses. Unknown errors are attached
// to the context for the request logger and answered with a generic body.
func respondError(c *gin.Context, err error) {
	var (
		verr     *domainErrors.ValidationError
		stockErr *domainErrors.InsufficientStockError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Errors: verr.Fields})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, dto.StockErrorResponse{
			Error:       stockErr.Error(),
			ProductID:   stockErr.ProductID,
			ProductName: stockErr.ProductName,
			Available:   stockErr.Available,
			Requested:   stockErr.Requested,
		})
	case errors.Is(err, domainErrors.ErrEmptyCart):
		c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Errors: map[string]string{"cart": err.Error()}})
	case errors.Is(err, domainErrors.ErrInvalidTransition),
		errors.Is(err, domainErrors.ErrOrderNotDeletable),
		errors.Is(err, domainErrors.ErrNotCancellable),
		errors.Is(err, domainErrors.ErrProductInUse),
		errors.Is(err, domainErrors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
	case errors.Is(err, domainErrors.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "forbidden"})
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg})
}

// pathID parses a positive integer path parameter, answering 400 when it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, domainErrors.NewValidationError(key, "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

// orderFilter reads status, search, from, to, page and per_page query parameters.
// The to date is inclusive.
func orderFilter(c *gin.Context) (model.OrderFilter, error) {
	filter := model.OrderFilter{
		Status:  model.OrderStatus(strings.TrimSpace(c.Query("status"))),
		Search:  c.Query("search"),
		Page:    queryInt(c, "page"),
		PerPage: queryInt(c, "per_page"),
	}
	from, err := queryDate(c, "from")
	if err != nil {
		return filter, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return filter, err
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		to = &end
	}
	filter.From, filter.To = from, to
	return filter, nil
}

func productFilter(c *gin.Context) (model.ProductFilter, error) {
	filter := model.ProductFilter{
		Search:  c.Query("search"),
		InStock: c.Query("in_stock") == "true",
		Page:    queryInt(c, "page"),
		PerPage: queryInt(c, "per_page"),
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, domainErrors.NewValidationError("category_id", "must be an integer")
		}
		filter.CategoryID = &id
	}
	return filter, nil
}

func pagination(page, perPage int, total int64) dto.Pagination {
	page, perPage = usecase.NormalizePage(page, perPage)
	return dto.Pagination{Page: page, PerPage: perPage, Total: total}
}
