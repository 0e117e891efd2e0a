package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	apperr "github.com/oggyb/campus-match/internal/errors"
)

func TestMap(t *testing.T) {
	tests := []struct {
		name   string
		in     error
		kind   apperr.Kind
		status int
	}{
		{"record not found", fmt.Errorf("find: %w", gorm.ErrRecordNotFound), apperr.KindNotFound, http.StatusNotFound},
		{"translated duplicate", gorm.ErrDuplicatedKey, apperr.KindConflict, http.StatusConflict},
		{"sqlite duplicate text", errors.New("UNIQUE constraint failed: matches.pair_low, matches.pair_high"), apperr.KindConflict, http.StatusConflict},
		{"mysql duplicate text", errors.New("Error 1062: Duplicate entry '1-2' for key 'idx_match_pair'"), apperr.KindConflict, http.StatusConflict},
		{"deadline", context.DeadlineExceeded, apperr.KindInternal, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), apperr.KindInternal, http.StatusInternalServerError},
		{"already typed", apperr.Forbidden("nope"), apperr.KindAuthorization, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apperr.Map(tt.in)
			assert.Equal(t, tt.kind, apperr.KindOf(got))
			assert.Equal(t, tt.status, apperr.HTTPStatus(got))
		})
	}

	assert.Nil(t, apperr.Map(nil))
}

func TestPublicMessageHidesInternals(t *testing.T) {
	err := apperr.Internal(errors.New("dial tcp 10.0.0.1:3306: connection refused"))
	assert.Equal(t, "internal server error", apperr.PublicMessage(err))
	assert.ErrorContains(t, err, "connection refused")

	assert.Equal(t, "bad email", apperr.PublicMessage(apperr.Validation("bad email")))
	assert.Equal(t, "internal server error", apperr.PublicMessage(errors.New("raw")))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("like: %w", apperr.Conflict("match already exists"))
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.False(t, apperr.Is(nil, apperr.KindConflict))
}
