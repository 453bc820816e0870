package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"myshoptools/internal/ledger"

	"github.com/stretchr/testify/assert"
)

func TestLedgerErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ledger.ErrWalletNotFound, http.StatusNotFound},
		{ledger.ErrWalletExists, http.StatusConflict},
		{ledger.ErrInvalidAmount, http.StatusBadRequest},
		{ledger.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{ledger.ErrTxConflict, http.StatusConflict},
		{errors.New("broken pipe"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, msg := ledgerErrorStatus(tc.err)
		assert.Equal(t, tc.status, status, "error %v", tc.err)
		assert.NotEmpty(t, msg)
	}
}

func TestLedgerErrorStatus_WrappedError(t *testing.T) {
	// The store wraps conflicts with attempt context; mapping must still match
	wrapped := fmt.Errorf("%w: deadlock", ledger.ErrTxConflict)
	status, _ := ledgerErrorStatus(wrapped)
	assert.Equal(t, http.StatusConflict, status)
}
