package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"atelier/internal/domain/models"
	"atelier/internal/repository"
	"atelier/internal/storage"
	httpapp "atelier/internal/transport/http"
	"atelier/internal/transport/http/dto"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) CreateProduct(ctx context.Context, input dto.ProductCreateInput) (*models.Product, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) ListProducts(ctx context.Context, q dto.ListQuery) (*repository.ProductPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ProductPage), args.Error(1)
}

func (m *MockProductService) ListByCategory(ctx context.Context, category string, q dto.ListQuery) (*repository.ProductPage, error) {
	args := m.Called(ctx, category, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ProductPage), args.Error(1)
}

func (m *MockProductService) ListNewCollection(ctx context.Context, q dto.ListQuery) (*repository.ProductPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ProductPage), args.Error(1)
}

func (m *MockProductService) SetSoldOut(ctx context.Context, id int64, soldOut bool) (*models.Product, error) {
	args := m.Called(ctx, id, soldOut)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type testValidator struct {
	validate *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{validate: validator.New()}
	return e
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(svc *MockProductService) *httpapp.Routers {
	return httpapp.NewRouter(testLogger(), svc, httpapp.UploadLimits{
		MaxFiles:    5,
		MaxFileSize: 5 * 1024 * 1024,
	})
}

func TestListProducts_BindsPagination(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	svc.On("ListProducts", mock.Anything, dto.ListQuery{Page: 2, PageSize: 6}).
		Return(&repository.ProductPage{Items: []models.Product{}, Total: 20, HasMore: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=2&page_size=6", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, router.ListProducts(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
		Data   struct {
			Total   int  `json:"total"`
			HasMore bool `json:"hasMore"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 20, body.Data.Total)
	assert.True(t, body.Data.HasMore)

	svc.AssertExpectations(t)
}

func TestListByCategory_PassesParam(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	svc.On("ListByCategory", mock.Anything, "Ethnic Wear", dto.ListQuery{}).
		Return(&repository.ProductPage{Items: []models.Product{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("category")
	c.SetParamValues("Ethnic Wear")

	require.NoError(t, router.ListByCategory(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	svc.AssertExpectations(t)
}

func TestListByCategory_InvalidCategory(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	svc.On("ListByCategory", mock.Anything, "Shoes", dto.ListQuery{}).
		Return(nil, storage.ErrInvalidCategory)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("category")
	c.SetParamValues("Shoes")

	require.NoError(t, router.ListByCategory(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProduct_NotFound(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	svc.On("GetProduct", mock.Anything, int64(42)).
		Return(nil, storage.ErrProductNotFound)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, router.GetProduct(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "product_not_found")
}

func TestGetProduct_BadID(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-number")

	require.NoError(t, router.GetProduct(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertNotCalled(t, "GetProduct")
}

func TestGetProduct_StoreUnavailable(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	svc.On("GetProduct", mock.Anything, int64(7)).
		Return(nil, storage.ErrStoreUnavailable)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, router.GetProduct(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "store_unavailable")
}

func multipartCreateRequest(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for name, data := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestCreateProduct_Success(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	svc.On("CreateProduct", mock.Anything, mock.MatchedBy(func(in dto.ProductCreateInput) bool {
		return in.Name == "Silk Saree" &&
			in.Category == "Ethnic Wear" &&
			len(in.Sizes) == 2 &&
			len(in.Files) == 1 &&
			in.Files[0].Filename == "front.jpg"
	})).Return(&models.Product{ID: 1, Name: "Silk Saree"}, nil)

	req := multipartCreateRequest(t,
		map[string]string{
			"name":     "Silk Saree",
			"category": "Ethnic Wear",
			"sizes":    `["S","M"]`,
		},
		map[string][]byte{"front.jpg": []byte("jpeg-bytes")},
	)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, router.CreateProduct(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	svc.AssertExpectations(t)
}

func TestCreateProduct_MissingName(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	req := multipartCreateRequest(t,
		map[string]string{"category": "Tops"},
		nil,
	)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, router.CreateProduct(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertNotCalled(t, "CreateProduct")
}

func TestCreateProduct_BadArrayField(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	req := multipartCreateRequest(t,
		map[string]string{
			"name":     "Dress",
			"category": "Dresses",
			"sizes":    "S,M", // not a JSON array
		},
		nil,
	)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, router.CreateProduct(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "sizes")

	svc.AssertNotCalled(t, "CreateProduct")
}

func TestCreateProduct_TooManyFiles(t *testing.T) {
	svc := new(MockProductService)
	e := newTestEcho()

	files := map[string][]byte{}
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		files[name] = []byte("x")
	}

	req := multipartCreateRequest(t,
		map[string]string{"name": "Dress", "category": "Dresses"},
		files,
	)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	router := httpapp.NewRouter(testLogger(), svc, httpapp.UploadLimits{MaxFiles: 2, MaxFileSize: 1024})

	require.NoError(t, router.CreateProduct(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertNotCalled(t, "CreateProduct")
}

func TestCreateProduct_FileTooLarge(t *testing.T) {
	svc := new(MockProductService)
	e := newTestEcho()

	req := multipartCreateRequest(t,
		map[string]string{"name": "Dress", "category": "Dresses"},
		map[string][]byte{"big.jpg": bytes.Repeat([]byte("x"), 64)},
	)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	router := httpapp.NewRouter(testLogger(), svc, httpapp.UploadLimits{MaxFiles: 5, MaxFileSize: 16})

	require.NoError(t, router.CreateProduct(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertNotCalled(t, "CreateProduct")
}

func TestUpdateProduct_SetsSoldOut(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	svc.On("SetSoldOut", mock.Anything, int64(3), true).
		Return(&models.Product{ID: 3, SoldOut: true}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"soldOut":true}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, router.UpdateProduct(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	svc.AssertExpectations(t)
}

func TestUpdateProduct_MissingSoldOut(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, router.UpdateProduct(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertNotCalled(t, "SetSoldOut")
}

func TestDeleteProduct_NoContent(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	svc.On("DeleteProduct", mock.Anything, int64(9)).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("9")

	require.NoError(t, router.DeleteProduct(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestDeleteProduct_NotFound(t *testing.T) {
	svc := new(MockProductService)
	router := newTestRouter(svc)
	e := newTestEcho()

	svc.On("DeleteProduct", mock.Anything, int64(9)).
		Return(storage.ErrProductNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("9")

	require.NoError(t, router.DeleteProduct(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
