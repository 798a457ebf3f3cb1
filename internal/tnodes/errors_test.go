package tnodes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/Davknapp/tnodes/pkg/errors"
)

func TestContractViolationMessage(t *testing.T) {
	err := contractViolation{reason: "ghost element claimed an always-owned slot"}
	assert.Contains(t, err.Error(), "ghost element claimed an always-owned slot")
}

func TestErrorWrappersCarryDomainCodes(t *testing.T) {
	wrapped := errTransport(errors.New("boom"))
	assert.Equal(t, apperrors.CodeTransportError, apperrors.GetErrorCode(wrapped))

	assert.Equal(t, apperrors.CodeCountMismatch, apperrors.GetErrorCode(errCountMismatch("mismatch")))
	assert.Equal(t, apperrors.CodeOverflow, apperrors.GetErrorCode(errOverflow("overflow")))
	assert.Equal(t, apperrors.CodeMissingInput, apperrors.GetErrorCode(errMissingInput("missing")))
}
