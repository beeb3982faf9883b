package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/campuslife/activity-api/internal/dto"
	"github.com/campuslife/activity-api/internal/handler"
	"github.com/campuslife/activity-api/internal/service"
)

type mockAuditService struct {
	lastRequest dto.AuditListRequest
	result      dto.AuditListResponse
	err         error
}

func (m *mockAuditService) Record(context.Context, service.AuditEntry) dto.AuditEntryResponse {
	return dto.AuditEntryResponse{}
}

func (m *mockAuditService) List(_ context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error) {
	m.lastRequest = req
	if m.err != nil {
		return dto.AuditListResponse{}, m.err
	}
	return m.result, nil
}

func TestAuditHandler_ListParsesFilters(t *testing.T) {
	svc := &mockAuditService{result: dto.AuditListResponse{
		Items:      []dto.AuditEntryResponse{{ID: 1, Action: "LOGIN_FAILURE", Entity: "identity"}},
		Pagination: dto.PaginationMeta{Page: 1, PageSize: 20, TotalItems: 1, TotalPages: 1},
	}}
	app := fiber.New()
	group := app.Group("/api/v1/audit", asIdentity(1, "admin"))
	handler.NewAuditHandler(svc, testLogger()).Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/?page=2&page_size=10&actor_id=7&action=LOGIN_FAILURE&entity=identity", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 2, svc.lastRequest.Page)
	require.Equal(t, 10, svc.lastRequest.PageSize)
	require.Equal(t, uint(7), svc.lastRequest.ActorID)
	require.Equal(t, "LOGIN_FAILURE", svc.lastRequest.Action)
	require.Equal(t, "identity", svc.lastRequest.Entity)

	var response struct {
		Success bool                  `json:"success"`
		Data    dto.AuditListResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Len(t, response.Data.Items, 1)
}
