package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/http/handler"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"github.com/itqan-erp/procurement-api/internal/service"
	"github.com/itqan-erp/procurement-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuditRouter(t *testing.T) (chi.Router, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	auditService := service.NewAuditLogService(repository.NewAuditLogRepository(db), zap.NewNop())
	h := handler.NewAuditHandler(auditService, zap.NewNop())

	r := chi.NewRouter()
	r.Get("/audit", h.List)
	r.Get("/users/{id}/audit", h.ListByUser)
	return r, db
}

func seedAuditLog(t *testing.T, db *gorm.DB, userID *uuid.UUID, action string, category domain.AuditCategory) {
	t.Helper()
	require.NoError(t, db.Create(&domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Category: category,
	}).Error)
}

func decodePage(t *testing.T, body *httptest.ResponseRecorder) domain.PaginatedResponse {
	t.Helper()
	var page domain.PaginatedResponse
	require.NoError(t, json.NewDecoder(body.Body).Decode(&page))
	return page
}

func TestAuditList_FiltersByCategory(t *testing.T) {
	router, db := newAuditRouter(t)
	seedAuditLog(t, db, nil, "LOGIN", domain.AuditCategoryAuth)
	seedAuditLog(t, db, nil, "RFQ_OPENED", domain.AuditCategoryProcurement)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?category=AUTH", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	page := decodePage(t, rec)
	assert.EqualValues(t, 1, page.Total)
}

func TestAuditList_RejectsBadTimestamp(t *testing.T) {
	router, _ := newAuditRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?from=yesterday", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditListByUser(t *testing.T) {
	router, db := newAuditRouter(t)
	userID := uuid.New()
	seedAuditLog(t, db, &userID, "LOGIN", domain.AuditCategoryAuth)
	seedAuditLog(t, db, &userID, "RFQ_OPENED", domain.AuditCategoryProcurement)
	seedAuditLog(t, db, nil, "SETTINGS_UPDATED", domain.AuditCategorySystem)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+userID.String()+"/audit", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	page := decodePage(t, rec)
	assert.EqualValues(t, 2, page.Total)
}

func TestAuditListByUser_BadID(t *testing.T) {
	router, _ := newAuditRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/not-a-uuid/audit", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
