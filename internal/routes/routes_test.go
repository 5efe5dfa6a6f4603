package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/config"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/database"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/dto"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type testServer struct {
	app   *fiber.App
	db    *gorm.DB
	users *services.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := dbtest.Open(t)
	database.DB = db
	t.Cleanup(func() { database.DB = nil })

	cfg := &config.Config{
		JWTSecret:        "routes-test-secret",
		JWTAccessExpiry:  time.Hour,
		JWTRefreshExpiry: 24 * time.Hour,
		Timezone:         "UTC",
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	leads := services.NewLeadService(db, m)
	directory := services.NewDirectoryService(db, cfg, m)
	reports := services.NewReportService(db, cfg, m)
	users := services.NewUserService(db, m)
	auth := services.NewAuthService(db, cfg, m)
	export := services.NewExportService(directory, m)

	app := fiber.New()
	app.Use(m.Middleware())
	Setup(app, cfg, users, reg,
		handlers.NewAuthHandler(auth),
		handlers.NewHealthHandler(),
		handlers.NewUserHandler(users, directory),
		handlers.NewLeadHandler(leads, directory),
		handlers.NewAdminHandler(reports, export),
	)
	return &testServer{app: app, db: db, users: users}
}

// login returns an access token for an existing user.
func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/users/login", "", dto.LoginRequest{Email: email, Password: "password123"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var auth dto.AuthResponse
	decode(t, resp, &auth)
	return auth.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func setupAdminAndAgent(t *testing.T, s *testServer) (adminToken, agentToken string, agentID uuid.UUID) {
	t.Helper()
	_, err := s.users.EnsureAdmin("Admin", "admin@example.com", "password123")
	require.NoError(t, err)
	adminToken = s.login(t, "admin@example.com")

	resp := s.do(t, http.MethodPost, "/api/users", adminToken, dto.CreateUserRequest{
		Name: "Agent", Email: "agent@example.com", Password: "password123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var agent models.User
	decode(t, resp, &agent)

	return adminToken, s.login(t, "agent@example.com"), agent.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var health dto.HealthResponse
	decode(t, resp, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.DB)
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	_, err := s.users.EnsureAdmin("Admin", "admin@example.com", "password123")
	require.NoError(t, err)

	t.Run("bad credentials", func(t *testing.T) {
		resp := s.do(t, http.MethodPost, "/api/users/login", "", dto.LoginRequest{Email: "admin@example.com", Password: "nope-nope"})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("missing token", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/leads", "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("profile", func(t *testing.T) {
		token := s.login(t, "admin@example.com")
		resp := s.do(t, http.MethodGet, "/api/users/profile", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var user map[string]any
		decode(t, resp, &user)
		assert.Equal(t, "admin@example.com", user["email"])
		assert.NotContains(t, user, "password")
	})

	t.Run("deleted user loses access", func(t *testing.T) {
		adminToken := s.login(t, "admin@example.com")
		resp := s.do(t, http.MethodPost, "/api/users", adminToken, dto.CreateUserRequest{
			Name: "Temp", Email: "temp@example.com", Password: "password123",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		var temp models.User
		decode(t, resp, &temp)
		tempToken := s.login(t, "temp@example.com")

		resp = s.do(t, http.MethodDelete, "/api/users/"+temp.ID.String(), adminToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp = s.do(t, http.MethodGet, "/api/leads", tempToken, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestLeadRoutes(t *testing.T) {
	s := newTestServer(t)
	adminToken, agentToken, agentID := setupAdminAndAgent(t, s)

	resp := s.do(t, http.MethodPost, "/api/leads", agentToken, dto.CreateLeadRequest{
		Name: "Kiran Rao", Phone: "9000000001", Email: "kiran@example.com", Source: "Website",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var lead models.Lead
	decode(t, resp, &lead)
	require.NotNil(t, lead.AssignedTo)
	assert.Equal(t, agentID, *lead.AssignedTo)

	t.Run("validation error is a 400", func(t *testing.T) {
		resp := s.do(t, http.MethodPost, "/api/leads", agentToken, dto.CreateLeadRequest{
			Name: "No Source", Phone: "9000000002", Email: "x@example.com", Source: "Billboard",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("record call", func(t *testing.T) {
		resp := s.do(t, http.MethodPost, "/api/leads/"+lead.ID.String()+"/call", agentToken, map[string]any{
			"callStatus":   "connected",
			"leadProgress": "interested",
			"remarks":      "asked for brochure",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var out map[string]map[string]any
		decode(t, resp, &out)
		assert.Equal(t, "Connected", out["lead"]["callStatus"])
		assert.Equal(t, "Interested", out["lead"]["leadStatus"])
		assert.Equal(t, "Connected", out["callHistory"]["status"])
	})

	t.Run("list with filter", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/leads?callStatus=Connected&search=kiran", agentToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var leads []models.Lead
		decode(t, resp, &leads)
		require.Len(t, leads, 1)
		assert.Equal(t, lead.ID, leads[0].ID)

		resp = s.do(t, http.MethodGet, "/api/leads?assignedTo=not-a-uuid", agentToken, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown lead is a 404", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/leads/"+uuid.NewString(), agentToken, nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("agent cannot delete", func(t *testing.T) {
		resp := s.do(t, http.MethodDelete, "/api/leads/"+lead.ID.String(), agentToken, nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		var body dto.ErrorResponse
		decode(t, resp, &body)
		assert.True(t, body.Error)
	})

	t.Run("admin deletes", func(t *testing.T) {
		resp := s.do(t, http.MethodDelete, "/api/leads/"+lead.ID.String(), adminToken, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	adminToken, agentToken, agentID := setupAdminAndAgent(t, s)

	// imported leads arrive without an owner
	now := time.Now().UTC()
	lead := models.Lead{
		ID:         uuid.New(),
		Name:       "Neha Shah",
		Phone:      "9000000003",
		Email:      "neha@example.com",
		Source:     models.SourceReferral,
		CallStatus: models.CallPending,
		LeadStatus: models.StatusNew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, s.db.Omit(clause.Associations).Create(&lead).Error)

	t.Run("agents are forbidden", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/admin/dashboard-stats", agentToken, nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("unassigned then assigned", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/admin/unassigned-leads", adminToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var unassigned []models.Lead
		decode(t, resp, &unassigned)
		require.Len(t, unassigned, 1)

		resp = s.do(t, http.MethodPost, "/api/users/assign-leads", adminToken, dto.AssignLeadsRequest{
			UserID: agentID, LeadIDs: []uuid.UUID{lead.ID},
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var assigned dto.AssignLeadsResponse
		decode(t, resp, &assigned)
		assert.EqualValues(t, 1, assigned.Updated)
	})

	t.Run("dashboard stats", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/admin/dashboard-stats", adminToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var stats dto.DashboardStats
		decode(t, resp, &stats)
		assert.EqualValues(t, 1, stats.TotalLeads)
		assert.Equal(t, "0%", stats.ConversionRate)
	})

	t.Run("export", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/admin/leads/export", adminToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

		f, err := excelize.OpenReader(resp.Body)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Leads")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

func TestUnassignThroughUpdate(t *testing.T) {
	s := newTestServer(t)
	adminToken, agentToken, _ := setupAdminAndAgent(t, s)

	resp := s.do(t, http.MethodPost, "/api/leads", agentToken, dto.CreateLeadRequest{
		Name: "Arjun Mehta", Phone: "9000000004", Email: "arjun@example.com", Source: "Event",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var lead models.Lead
	decode(t, resp, &lead)

	resp = s.do(t, http.MethodPut, "/api/leads/"+lead.ID.String(), adminToken, map[string]any{"assignedTo": nil})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var updated map[string]any
	decode(t, resp, &updated)
	assert.Nil(t, updated["assignedTo"])

	resp = s.do(t, http.MethodGet, "/api/admin/unassigned-leads", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var unassigned []models.Lead
	decode(t, resp, &unassigned)
	require.Len(t, unassigned, 1)
	assert.Equal(t, lead.ID, unassigned[0].ID)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/health", "", nil)

	resp := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/api/health",status="200"}`)
}
