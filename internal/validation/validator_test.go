package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invitationInput struct {
	ReviewerID    string `json:"reviewer_id" validate:"required,custom_id"`
	ReviewerEmail string `json:"reviewer_email" validate:"required,email"`
	Action        string `json:"action" validate:"required,oneof=accept decline"`
	DeclineReason string `json:"decline_reason" validate:"required_if=Action decline"`
}

func validInput() invitationInput {
	return invitationInput{
		ReviewerID:    "reviewer_1",
		ReviewerEmail: "reviewer@uni.test",
		Action:        "accept",
	}
}

func TestValidateStruct(t *testing.T) {
	testCases := []struct {
		name             string
		mutate           func(in *invitationInput)
		expectError      bool
		expectedErrorMsg string
	}{
		{
			name:   "Success: All fields are valid",
			mutate: func(in *invitationInput) {},
		},
		{
			name:             "Failure: Invalid custom_id with spaces",
			mutate:           func(in *invitationInput) { in.ReviewerID = "reviewer 1" },
			expectError:      true,
			expectedErrorMsg: "field 'reviewer_id' must contain only letters, numbers, hyphens, and underscores",
		},
		{
			name:             "Failure: Invalid email format",
			mutate:           func(in *invitationInput) { in.ReviewerEmail = "not-an-email" },
			expectError:      true,
			expectedErrorMsg: "field 'reviewer_email' failed on the 'email' tag",
		},
		{
			name:             "Failure: Unknown action",
			mutate:           func(in *invitationInput) { in.Action = "maybe" },
			expectError:      true,
			expectedErrorMsg: "field 'action' must be one of [accept decline]",
		},
		{
			name:             "Failure: Decline needs a reason",
			mutate:           func(in *invitationInput) { in.Action = "decline" },
			expectError:      true,
			expectedErrorMsg: "field 'decline_reason' is required here",
		},
		{
			name: "Success: Decline with reason",
			mutate: func(in *invitationInput) {
				in.Action = "decline"
				in.DeclineReason = "no time"
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			err := ValidateStruct(in)

			if tc.expectError {
				require.IsType(t, &ValidationError{}, err, "error should be of type ValidationError")
				assert.Contains(t, err.Error(), tc.expectedErrorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, ValidateVar("token", strings.Repeat("ab", 32), "token"))
	assert.NoError(t, ValidateVar("stage", "reviewer_invitation", "stage"))

	err := ValidateVar("token", "not-a-token", "token")
	require.IsType(t, &ValidationError{}, err)
	assert.Equal(t, "field 'token' is not a valid invitation token", err.Error())

	err = ValidateVar("stage", "copy_editing", "stage")
	require.IsType(t, &ValidationError{}, err)
	assert.Equal(t, "field 'stage' is not a known workflow stage", err.Error())
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []string{"error 1", "error 2"},
	}
	assert.Equal(t, "error 1, error 2", err.Error())
}
