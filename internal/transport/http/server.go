package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"atelier/internal/domain/models"
	"atelier/internal/lib/logger/sl"
	"atelier/internal/repository"
	"atelier/internal/storage"
	"atelier/internal/transport/http/dto"
	"atelier/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

type ProductService interface {
	CreateProduct(ctx context.Context, input dto.ProductCreateInput) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, q dto.ListQuery) (*repository.ProductPage, error)
	ListByCategory(ctx context.Context, category string, q dto.ListQuery) (*repository.ProductPage, error)
	ListNewCollection(ctx context.Context, q dto.ListQuery) (*repository.ProductPage, error)
	SetSoldOut(ctx context.Context, id int64, soldOut bool) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type UploadLimits struct {
	MaxFiles    int
	MaxFileSize int64
}

type Routers struct {
	log            *slog.Logger
	ProductService ProductService
	limits         UploadLimits
}

func NewRouter(log *slog.Logger, productService ProductService, limits UploadLimits) *Routers {
	return &Routers{
		log:            log,
		ProductService: productService,
		limits:         limits,
	}
}

func (r *Routers) ListProducts(c echo.Context) error {
	const op = "http.routers.ListProducts"

	log := r.log.With(slog.String("op", op))

	var q dto.ListQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	page, err := r.ProductService.ListProducts(c.Request().Context(), q)
	if err != nil {
		return r.mapError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(page))
}

func (r *Routers) ListNewCollection(c echo.Context) error {
	const op = "http.routers.ListNewCollection"

	log := r.log.With(slog.String("op", op))

	var q dto.ListQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	page, err := r.ProductService.ListNewCollection(c.Request().Context(), q)
	if err != nil {
		return r.mapError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(page))
}

func (r *Routers) ListByCategory(c echo.Context) error {
	const op = "http.routers.ListByCategory"

	log := r.log.With(slog.String("op", op))

	var q dto.ListQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	page, err := r.ProductService.ListByCategory(c.Request().Context(), c.Param("category"), q)
	if err != nil {
		return r.mapError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(page))
}

func (r *Routers) GetProduct(c echo.Context) error {
	const op = "http.routers.GetProduct"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	product, err := r.ProductService.GetProduct(c.Request().Context(), id)
	if err != nil {
		return r.mapError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(product))
}

func (r *Routers) CreateProduct(c echo.Context) error {
	const op = "http.routers.CreateProduct"

	log := r.log.With(slog.String("op", op))

	var input dto.ProductCreateInput
	input.Name = c.FormValue("name")
	input.Description = c.FormValue("description")
	input.Category = c.FormValue("category")
	input.IsNewCollection = c.FormValue("is_new_collection") == "true"

	// sizes/colors/tags are posted as JSON-encoded arrays alongside the files
	arrays := map[string]*[]string{
		"sizes":  &input.Sizes,
		"colors": &input.Colors,
		"tags":   &input.Tags,
	}
	for field, dst := range arrays {
		raw := c.FormValue(field)
		if raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return c.JSON(http.StatusBadRequest,
				response.ErrorResponseWithDetails("invalid_request", field+" must be a JSON array"))
		}
	}

	if err := c.Validate(input); err != nil {
		log.Warn("invalid create request", sl.Err(err))
		return c.JSON(http.StatusBadRequest,
			response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	files, err := r.collectFiles(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest,
			response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}
	input.Files = files

	created, err := r.ProductService.CreateProduct(c.Request().Context(), input)
	if err != nil {
		return r.mapError(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(created))
}

func (r *Routers) UpdateProduct(c echo.Context) error {
	const op = "http.routers.UpdateProduct"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	var input dto.ProductUpdateInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(input); err != nil {
		return c.JSON(http.StatusBadRequest,
			response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	updated, err := r.ProductService.SetSoldOut(c.Request().Context(), id, *input.SoldOut)
	if err != nil {
		return r.mapError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(updated))
}

func (r *Routers) DeleteProduct(c echo.Context) error {
	const op = "http.routers.DeleteProduct"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := r.ProductService.DeleteProduct(c.Request().Context(), id); err != nil {
		return r.mapError(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// collectFiles reads the multipart files into memory in upload order,
// enforcing the count and per-file size limits.
func (r *Routers) collectFiles(c echo.Context) ([]dto.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	headers := form.File["files"]
	if len(headers) > r.limits.MaxFiles {
		return nil, storage.ErrTooManyFiles
	}

	files := make([]dto.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > r.limits.MaxFileSize {
			return nil, storage.ErrFileTooLarge
		}

		src, err := fh.Open()
		if err != nil {
			return nil, err
		}

		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, err
		}

		files = append(files, dto.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	return files, nil
}

// mapError translates service errors into the response envelope. Terminal
// store errors never leak details to the caller.
func (r *Routers) mapError(c echo.Context, log *slog.Logger, err error) error {
	switch {
	case errors.Is(err, storage.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, response.ErrProductNotFound)
	case errors.Is(err, storage.ErrStoreUnavailable):
		log.Error("store unavailable", sl.Err(err))
		return c.JSON(http.StatusServiceUnavailable, response.ErrStoreUnavailable)
	case errors.Is(err, storage.ErrInvalidCategory), models.IsProductValidationError(err):
		return c.JSON(http.StatusBadRequest,
			response.ErrorResponseWithDetails("invalid_request", err.Error()))
	default:
		log.Error("request failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}
}

func parseID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
