package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"lightwatch/models"

	"github.com/stretchr/testify/assert"
)

func TestToAppErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{models.ErrChannelNotFound, http.StatusNotFound},
		{models.ErrChannelExists, http.StatusConflict},
		{models.ErrDuplicateKey, http.StatusConflict},
		{models.ErrInvalidTimezone, http.StatusBadRequest},
		{models.ErrInvalidKey, http.StatusBadRequest},
		{models.ErrUnknownKey, http.StatusForbidden},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.code, toAppError(tc.err).Code, "%v", tc.err)
		// Wrapping must not change the classification.
		assert.Equal(t, tc.code, toAppError(fmt.Errorf("context: %w", tc.err)).Code, "wrapped %v", tc.err)
	}
}
