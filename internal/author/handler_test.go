package author

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"literature-manager/internal/dedupe"
	"literature-manager/internal/domain"
	"literature-manager/internal/errors"
	"literature-manager/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) ListAuthors(ctx context.Context) ([]domain.Author, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Author), args.Error(1)
}

func (m *MockService) GetAuthor(ctx context.Context, id uint64) (*Detail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Detail), args.Error(1)
}

func (m *MockService) CreateAuthor(ctx context.Context, form Form) (*domain.Author, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Author), args.Error(1)
}

func (m *MockService) UpdateAuthor(ctx context.Context, id uint64, form Form) (*domain.Author, error) {
	args := m.Called(ctx, id, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Author), args.Error(1)
}

func (m *MockService) DeleteAuthor(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) FindDuplicates(ctx context.Context) ([]dedupe.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dedupe.Group), args.Error(1)
}

func (m *MockService) MergeAuthors(ctx context.Context, plan MergePlan) (*domain.Author, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Author), args.Error(1)
}

func setupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.GET("/authors", handler.List)
	router.POST("/authors", handler.Create)
	router.GET("/authors/duplicates", handler.Duplicates)
	router.POST("/authors/merge", handler.Merge)
	router.GET("/authors/:id", handler.Show)
	router.PUT("/authors/:id", handler.Update)
	router.DELETE("/authors/:id", handler.Delete)
	return router
}

func doJSON(router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAuthor_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("CreateAuthor", mock.Anything, mock.MatchedBy(func(f Form) bool {
		return f.FirstName == "Ada" && f.LastName == "Lovelace"
	})).Return(&domain.Author{ID: 1, FirstName: "Ada", LastName: "Lovelace"}, nil)

	w := doJSON(router, http.MethodPost, "/authors", gin.H{"first_name": "Ada", "last_name": "Lovelace"})

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestCreateAuthor_InvalidInput(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	w := doJSON(router, http.MethodPost, "/authors", gin.H{"first_name": "Ada"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "LastName failed on required")
}

func TestShowAuthor_InlinesFields(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	detail := &Detail{
		Author:       domain.Author{ID: 3, FirstName: "Ada", LastName: "Lovelace"},
		Publications: []domain.Publication{{ID: 9, Title: "Notes"}},
	}
	mockService.On("GetAuthor", mock.Anything, uint64(3)).Return(detail, nil)

	w := doJSON(router, http.MethodGet, "/authors/3", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Lovelace", body["last_name"])
	assert.Len(t, body["publications"], 1)
}

func TestDuplicates(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	a := domain.Author{ID: 1, FirstName: "Rob", LastName: "Smith"}
	b := domain.Author{ID: 2, FirstName: "Robert", LastName: "Smith"}
	groups := []dedupe.Group{{Authors: []domain.Author{a, b}, Pairs: []dedupe.Pair{{First: a, Second: b}}}}
	mockService.On("FindDuplicates", mock.Anything).Return(groups, nil)

	w := doJSON(router, http.MethodGet, "/authors/duplicates", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pairs"`)
	mockService.AssertExpectations(t)
}

func TestMerge_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	plan := MergePlan{PrimaryID: 1, DuplicateID: 2, Keep: SideDuplicate, Sources: map[string]Side{"orcid": SidePrimary}}
	mockService.On("MergeAuthors", mock.Anything, plan).Return(&domain.Author{ID: 2}, nil)

	w := doJSON(router, http.MethodPost, "/authors/merge", plan)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestMerge_MissingIDs(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	w := doJSON(router, http.MethodPost, "/authors/merge", gin.H{"primary_id": 1})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	mockService.AssertNotCalled(t, "MergeAuthors", mock.Anything, mock.Anything)
}

func TestDeleteAuthor_NotFound(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("DeleteAuthor", mock.Anything, uint64(4)).Return(errors.NotFound("Author not found", nil))

	w := doJSON(router, http.MethodDelete, "/authors/4", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Author not found"}`, w.Body.String())
}
