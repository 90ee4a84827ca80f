package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSignInRequest_Validate(t *testing.T) {
	valid := RecordSignInRequest{
		UserID:  "user-123",
		Email:   "ada@example.com",
		Method:  SignInMethodOAuth,
		Outcome: SignInOutcomeSuccess,
	}
	require.NoError(t, valid.Validate())

	t.Run("email alone suffices", func(t *testing.T) {
		req := valid
		req.UserID = ""
		assert.NoError(t, req.Validate())
	})

	t.Run("user ID alone suffices", func(t *testing.T) {
		req := valid
		req.Email = ""
		assert.NoError(t, req.Validate())
	})

	t.Run("missing principal rejected", func(t *testing.T) {
		req := valid
		req.UserID = "   "
		req.Email = ""
		assert.Error(t, req.Validate())
	})

	t.Run("bad method rejected", func(t *testing.T) {
		req := valid
		req.Method = "saml"
		assert.Error(t, req.Validate())
	})

	t.Run("bad outcome rejected", func(t *testing.T) {
		req := valid
		req.Outcome = "partial"
		assert.Error(t, req.Validate())
	})
}

func TestSignInEnums(t *testing.T) {
	assert.True(t, SignInMethodOAuth.Valid())
	assert.True(t, SignInMethodMock.Valid())
	assert.True(t, SignInMethodRefresh.Valid())
	assert.False(t, SignInMethod("basic").Valid())

	assert.True(t, SignInOutcomeSuccess.Valid())
	assert.True(t, SignInOutcomeFailure.Valid())
	assert.False(t, SignInOutcome("").Valid())
}
