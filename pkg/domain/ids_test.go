package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "givehub/pkg/domain-errors"
)

// TestParseActorID validates the shared parsing invariant: IDs must be
// valid, non-empty, non-nil UUIDs.
func TestParseActorID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseActorID("")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, raw := range []string{
			"not-a-uuid",
			"550e8400-e29b-41d4-a716",
			"550e8400-e29b-41d4-a716-44665544000Z",
		} {
			_, err := ParseActorID(raw)
			require.Error(t, err, "input %q", raw)
			assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
		}
	})

	t.Run("rejects oversized input before parsing", func(t *testing.T) {
		_, err := ParseActorID(strings.Repeat("a", 65))
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects the nil UUID", func(t *testing.T) {
		_, err := ParseActorID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts a valid UUID", func(t *testing.T) {
		raw := uuid.NewString()
		actorID, err := ParseActorID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, actorID.String())
		assert.False(t, actorID.IsNil())
	})
}

// All typed IDs share parseUUID; one representative per type keeps the
// parsers honest without a mechanical grid.
func TestTypedParsers(t *testing.T) {
	raw := uuid.NewString()

	orgID, err := ParseOrganizationID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, orgID.String())

	campaignID, err := ParseCampaignID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, campaignID.String())

	_, err = ParseContributionID("bogus")
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	_, err = ParseCertificateID("")
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	_, err = ParseFlagRequestID(uuid.Nil.String())
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
}

func TestIDJSONRoundTrip(t *testing.T) {
	type payload struct {
		Campaign CampaignID `json:"campaign"`
	}

	original := payload{Campaign: CampaignID(uuid.New())}
	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded payload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, original.Campaign, decoded.Campaign)

	t.Run("unmarshal enforces the parsing invariant", func(t *testing.T) {
		var bad payload
		err := json.Unmarshal([]byte(`{"campaign":"not-a-uuid"}`), &bad)
		require.Error(t, err)
	})
}

func TestIsNil(t *testing.T) {
	var zero ActorID
	assert.True(t, zero.IsNil())
	assert.False(t, ActorID(uuid.New()).IsNil())
}
