package services

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/domain"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/dto"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/policy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leadIDs(leads []models.Lead) []uuid.UUID {
	ids := make([]uuid.UUID, len(leads))
	for i, l := range leads {
		ids[i] = l.ID
	}
	return ids
}

func TestListLeads(t *testing.T) {
	t.Run("scopes agents to their own leads", func(t *testing.T) {
		env := setupTestEnv(t)
		admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)
		agent := createTestUser(t, env.db, "Agent", policy.RoleUser)
		other := createTestUser(t, env.db, "Other", policy.RoleUser)

		mine := createTestLead(t, env.db, &agent.ID)
		theirs := createTestLead(t, env.db, &other.ID)
		unassigned := createTestLead(t, env.db, nil)

		leads, err := env.directory.List(dto.LeadFilter{}, agent)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{mine.ID}, leadIDs(leads))

		leads, err = env.directory.List(dto.LeadFilter{}, admin)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{mine.ID, theirs.ID, unassigned.ID}, leadIDs(leads))
	})

	t.Run("newest first", func(t *testing.T) {
		env := setupTestEnv(t)
		admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		older := createTestLead(t, env.db, nil, func(l *models.Lead) { l.CreatedAt = base })
		newer := createTestLead(t, env.db, nil, func(l *models.Lead) { l.CreatedAt = base.Add(time.Hour) })

		leads, err := env.directory.List(dto.LeadFilter{}, admin)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{newer.ID, older.ID}, leadIDs(leads))
	})

	t.Run("search matches name phone or email case-insensitively", func(t *testing.T) {
		env := setupTestEnv(t)
		admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)
		byName := createTestLead(t, env.db, nil, func(l *models.Lead) { l.Name = "Priya Sharma" })
		byPhone := createTestLead(t, env.db, nil, func(l *models.Lead) { l.Phone = "+91 99887 76655" })
		byEmail := createTestLead(t, env.db, nil, func(l *models.Lead) { l.Email = "SHARMA.family@example.com" })
		createTestLead(t, env.db, nil, func(l *models.Lead) { l.Name = "Rahul" })

		leads, err := env.directory.List(dto.LeadFilter{Search: "sharma"}, admin)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{byName.ID, byEmail.ID}, leadIDs(leads))

		leads, err = env.directory.List(dto.LeadFilter{Search: "99887"}, admin)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{byPhone.ID}, leadIDs(leads))
	})

	t.Run("search folds non-ASCII case", func(t *testing.T) {
		env := setupTestEnv(t)
		admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)
		accented := createTestLead(t, env.db, nil, func(l *models.Lead) { l.Name = "ÉLODIE Ünal" })
		createTestLead(t, env.db, nil, func(l *models.Lead) { l.Name = "Elodie Unal" })

		leads, err := env.directory.List(dto.LeadFilter{Search: "élodie"}, admin)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{accented.ID}, leadIDs(leads))

		leads, err = env.directory.List(dto.LeadFilter{Search: "ünal"}, admin)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{accented.ID}, leadIDs(leads))
	})

	t.Run("search follows renamed leads", func(t *testing.T) {
		env := setupTestEnv(t)
		admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)
		lead := createTestLead(t, env.db, nil, func(l *models.Lead) { l.Name = "Old Name" })

		_, err := env.leads.Update(lead.ID, dto.UpdateLeadRequest{Name: ptr("Zoë Fernandes")}, admin)
		require.NoError(t, err)

		leads, err := env.directory.List(dto.LeadFilter{Search: "ZOË"}, admin)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{lead.ID}, leadIDs(leads))

		leads, err = env.directory.List(dto.LeadFilter{Search: "old name"}, admin)
		require.NoError(t, err)
		assert.Empty(t, leads)
	})

	t.Run("search treats wildcards literally", func(t *testing.T) {
		env := setupTestEnv(t)
		admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)
		literal := createTestLead(t, env.db, nil, func(l *models.Lead) { l.Name = "100% Lead" })
		createTestLead(t, env.db, nil, func(l *models.Lead) { l.Name = "1000 Lead" })

		leads, err := env.directory.List(dto.LeadFilter{Search: "100%"}, admin)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{literal.ID}, leadIDs(leads))
	})

	t.Run("status filters are exact", func(t *testing.T) {
		env := setupTestEnv(t)
		admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)
		hit := createTestLead(t, env.db, nil, func(l *models.Lead) {
			l.CallStatus = models.CallConnected
			l.LeadStatus = models.StatusInterested
		})
		createTestLead(t, env.db, nil, func(l *models.Lead) {
			l.CallStatus = models.CallConnected
			l.LeadStatus = models.StatusNotInterested
		})
		createTestLead(t, env.db, nil)

		leads, err := env.directory.List(dto.LeadFilter{CallStatus: "Connected", LeadStatus: "Interested"}, admin)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{hit.ID}, leadIDs(leads))
	})

	t.Run("follow-up date matches the calendar day", func(t *testing.T) {
		env := setupTestEnv(t)
		admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)
		startOfDay := createTestLead(t, env.db, nil, func(l *models.Lead) {
			l.FollowUpDate = ptr(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC))
		})
		endOfDay := createTestLead(t, env.db, nil, func(l *models.Lead) {
			l.FollowUpDate = ptr(time.Date(2026, 3, 20, 23, 59, 59, 0, time.UTC))
		})
		createTestLead(t, env.db, nil, func(l *models.Lead) {
			l.FollowUpDate = ptr(time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC))
		})
		createTestLead(t, env.db, nil)

		leads, err := env.directory.List(dto.LeadFilter{FollowUpDate: "2026-03-20"}, admin)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{startOfDay.ID, endOfDay.ID}, leadIDs(leads))

		_, err = env.directory.List(dto.LeadFilter{FollowUpDate: "20/03/2026"}, admin)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("explicit assignee is honored for agents", func(t *testing.T) {
		env := setupTestEnv(t)
		agent := createTestUser(t, env.db, "Agent", policy.RoleUser)
		other := createTestUser(t, env.db, "Other", policy.RoleUser)
		createTestLead(t, env.db, &agent.ID)
		theirs := createTestLead(t, env.db, &other.ID)

		leads, err := env.directory.List(dto.LeadFilter{AssignedTo: &other.ID}, agent)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{theirs.ID}, leadIDs(leads))
	})

	t.Run("strict assignee filter narrows agents to themselves", func(t *testing.T) {
		env := setupTestEnv(t)
		env.directory.strictAssignee = true
		admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)
		agent := createTestUser(t, env.db, "Agent", policy.RoleUser)
		other := createTestUser(t, env.db, "Other", policy.RoleUser)
		mine := createTestLead(t, env.db, &agent.ID)
		theirs := createTestLead(t, env.db, &other.ID)

		leads, err := env.directory.List(dto.LeadFilter{AssignedTo: &other.ID}, agent)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{mine.ID}, leadIDs(leads))

		leads, err = env.directory.List(dto.LeadFilter{AssignedTo: &other.ID}, admin)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{theirs.ID}, leadIDs(leads))
	})
}

func TestTodaysFollowUps(t *testing.T) {
	env := setupTestEnv(t)
	agent := createTestUser(t, env.db, "Agent", policy.RoleUser)
	other := createTestUser(t, env.db, "Other", policy.RoleUser)

	// clock is 2026-03-14 10:30 UTC
	late := createTestLead(t, env.db, &agent.ID, func(l *models.Lead) {
		l.FollowUpDate = ptr(time.Date(2026, 3, 14, 17, 0, 0, 0, time.UTC))
	})
	early := createTestLead(t, env.db, &agent.ID, func(l *models.Lead) {
		l.FollowUpDate = ptr(time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))
	})
	createTestLead(t, env.db, &agent.ID, func(l *models.Lead) {
		l.FollowUpDate = ptr(time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC))
	})
	createTestLead(t, env.db, &other.ID, func(l *models.Lead) {
		l.FollowUpDate = ptr(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	})

	leads, err := env.directory.TodaysFollowUps(agent)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{early.ID, late.ID}, leadIDs(leads))
}

func TestTodaysFollowUpsUsesConfiguredZone(t *testing.T) {
	env := setupTestEnv(t)
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	env.directory.loc = kolkata
	admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)

	// 2026-03-14 in Kolkata is [2026-03-13 18:30 UTC, 2026-03-14 18:30 UTC)
	inside := createTestLead(t, env.db, nil, func(l *models.Lead) {
		l.FollowUpDate = ptr(time.Date(2026, 3, 13, 19, 0, 0, 0, time.UTC))
	})
	createTestLead(t, env.db, nil, func(l *models.Lead) {
		l.FollowUpDate = ptr(time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))
	})

	leads, err := env.directory.TodaysFollowUps(admin)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{inside.ID}, leadIDs(leads))
}

func TestLeadStats(t *testing.T) {
	t.Run("no leads gives zero rate", func(t *testing.T) {
		env := setupTestEnv(t)
		agent := createTestUser(t, env.db, "Agent", policy.RoleUser)

		stats, err := env.directory.Stats(agent)
		require.NoError(t, err)
		assert.Equal(t, dto.LeadStatsResponse{}, *stats)
	})

	t.Run("counts are scoped and rate is rounded", func(t *testing.T) {
		env := setupTestEnv(t)
		admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)
		agent := createTestUser(t, env.db, "Agent", policy.RoleUser)

		createTestLead(t, env.db, &agent.ID, func(l *models.Lead) {
			l.LeadStatus = models.StatusAdmissionTaken
			l.CallStatus = models.CallConnected
		})
		createTestLead(t, env.db, &agent.ID, func(l *models.Lead) {
			l.FollowUpDate = ptr(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
		})
		createTestLead(t, env.db, &agent.ID)
		createTestLead(t, env.db, &admin.ID, func(l *models.Lead) {
			l.LeadStatus = models.StatusAdmissionTaken
		})

		stats, err := env.directory.Stats(agent)
		require.NoError(t, err)
		assert.EqualValues(t, 3, stats.TotalLeads)
		assert.EqualValues(t, 1, stats.TodayFollowUps)
		assert.EqualValues(t, 1, stats.ConnectedCalls)
		assert.EqualValues(t, 1, stats.ConvertedLeads)
		assert.Equal(t, 33, stats.ConversionRate)

		stats, err = env.directory.Stats(admin)
		require.NoError(t, err)
		assert.EqualValues(t, 4, stats.TotalLeads)
		assert.Equal(t, 50, stats.ConversionRate)
	})
}

func TestAssignBulk(t *testing.T) {
	t.Run("updates existing leads and skips unknown ids", func(t *testing.T) {
		env := setupTestEnv(t)
		admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)
		agent := createTestUser(t, env.db, "Agent", policy.RoleUser)
		first := createTestLead(t, env.db, nil)
		second := createTestLead(t, env.db, &admin.ID)
		untouched := createTestLead(t, env.db, nil)

		n, err := env.directory.AssignBulk(agent.ID, []uuid.UUID{first.ID, second.ID, uuid.New()}, admin)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		for _, id := range []uuid.UUID{first.ID, second.ID} {
			var l models.Lead
			require.NoError(t, env.db.First(&l, "id = ?", id).Error)
			require.NotNil(t, l.AssignedTo)
			assert.Equal(t, agent.ID, *l.AssignedTo)
			assert.True(t, l.UpdatedAt.Equal(env.clock.Now()))
		}

		var l models.Lead
		require.NoError(t, env.db.First(&l, "id = ?", untouched.ID).Error)
		assert.Nil(t, l.AssignedTo)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := setupTestEnv(t)
		admin := createTestUser(t, env.db, "Admin", policy.RoleAdmin)
		lead := createTestLead(t, env.db, nil)

		_, err := env.directory.AssignBulk(uuid.New(), []uuid.UUID{lead.ID}, admin)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("admin only", func(t *testing.T) {
		env := setupTestEnv(t)
		agent := createTestUser(t, env.db, "Agent", policy.RoleUser)
		lead := createTestLead(t, env.db, nil)

		_, err := env.directory.AssignBulk(agent.ID, []uuid.UUID{lead.ID}, agent)
		assert.True(t, domain.IsAuthorization(err))
	})
}
