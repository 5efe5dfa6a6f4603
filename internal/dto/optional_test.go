package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateLeadRequestNullableFields(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name        string
		body        string
		followUpSet bool
		followUpNil bool
		assigneeSet bool
		assigneeNil bool
	}{
		{"absent", `{"remarks":"x"}`, false, true, false, true},
		{"explicit null", `{"followUpDate":null,"assignedTo":null}`, true, true, true, true},
		{"values", `{"followUpDate":"2026-03-20T09:00:00Z","assignedTo":"` + id.String() + `"}`, true, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateLeadRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			assert.Equal(t, tt.followUpSet, req.FollowUpDate.Set)
			assert.Equal(t, tt.followUpNil, req.FollowUpDate.Value == nil)
			assert.Equal(t, tt.assigneeSet, req.AssignedTo.Set)
			assert.Equal(t, tt.assigneeNil, req.AssignedTo.Value == nil)
		})
	}

	t.Run("parsed values", func(t *testing.T) {
		var req UpdateLeadRequest
		require.NoError(t, json.Unmarshal([]byte(tests[2].body), &req))
		assert.True(t, req.FollowUpDate.Value.Equal(time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)))
		assert.Equal(t, id, *req.AssignedTo.Value)
	})

	t.Run("bad value", func(t *testing.T) {
		var req UpdateLeadRequest
		assert.Error(t, json.Unmarshal([]byte(`{"assignedTo":"not-a-uuid"}`), &req))
	})
}
