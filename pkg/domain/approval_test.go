package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "givehub/pkg/domain-errors"
)

func TestApprovalTerminal(t *testing.T) {
	assert.False(t, ApprovalNone.Terminal())
	assert.False(t, ApprovalPending.Terminal())
	assert.True(t, ApprovalApproved.Terminal())
	assert.True(t, ApprovalRejected.Terminal())
}

func TestParseDecision(t *testing.T) {
	approve, err := ParseDecision("approve")
	require.NoError(t, err)
	assert.Equal(t, ApprovalApproved, approve.Outcome())

	reject, err := ParseDecision("reject")
	require.NoError(t, err)
	assert.Equal(t, ApprovalRejected, reject.Outcome())

	for _, raw := range []string{"", "approved", "deny", "APPROVE"} {
		_, err := ParseDecision(raw)
		require.Error(t, err, "input %q", raw)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	}
}

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"contributor", "organization", "admin"} {
		role, err := ParseRole(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, role.String())
	}

	_, err := ParseRole("superuser")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
}
