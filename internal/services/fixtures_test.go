package services

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/config"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/policy"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const testPassword = "password123"

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	db        *gorm.DB
	cfg       *config.Config
	metrics   *metrics.Metrics
	clock     *clock
	leads     *LeadService
	directory *DirectoryService
	reports   *ReportService
	users     *UserService
	auth      *AuthService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.Open(t)
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  time.Hour,
		JWTRefreshExpiry: 24 * time.Hour,
		Timezone:         "UTC",
	}
	m := metrics.New(prometheus.NewRegistry())
	c := &clock{t: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)}

	env := &testEnv{
		db:        db,
		cfg:       cfg,
		metrics:   m,
		clock:     c,
		leads:     NewLeadService(db, m),
		directory: NewDirectoryService(db, cfg, m),
		reports:   NewReportService(db, cfg, m),
		users:     NewUserService(db, m),
		auth:      NewAuthService(db, cfg, m),
	}
	env.leads.now = c.Now
	env.directory.now = c.Now
	env.reports.now = c.Now
	env.users.now = c.Now
	env.auth.now = c.Now
	return env
}

func createTestUser(t *testing.T, db *gorm.DB, name string, role policy.Role) policy.Actor {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    uuid.NewString()[:8] + "@example.com",
		Password: string(hash),
		Role:     string(role),
	}
	require.NoError(t, db.Create(&user).Error)
	return policy.Actor{ID: user.ID, Role: role}
}

// createTestLead inserts a lead directly, bypassing the services.
func createTestLead(t *testing.T, db *gorm.DB, owner *uuid.UUID, opts ...func(*models.Lead)) *models.Lead {
	t.Helper()

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lead := models.Lead{
		ID:         uuid.New(),
		Name:       "Test Lead",
		Phone:      "9876543210",
		Email:      "lead@example.com",
		Source:     models.SourceWebsite,
		CallStatus: models.CallPending,
		LeadStatus: models.StatusNew,
		AssignedTo: owner,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&lead)
	}
	require.NoError(t, db.Omit(clause.Associations).Create(&lead).Error)
	return &lead
}

func ptr[T any](v T) *T { return &v }

func countHistory(t *testing.T, db *gorm.DB, leadID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.CallHistory{}).Where("lead_id = ?", leadID).Count(&n).Error)
	return n
}
