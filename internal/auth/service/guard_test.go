package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wookiebooks/catalog/internal/models"
	"go.uber.org/zap"
)

type recordedDecisions struct {
	allowed int
	denied  int
}

func (r *recordedDecisions) GuardDecision(allowed bool) {
	if allowed {
		r.allowed++
		return
	}
	r.denied++
}

func TestGuard_Authorize(t *testing.T) {
	tg := NewTokenGenerator(testSecret, 60*time.Minute)
	guard := NewGuard(tg, nil, zap.NewNop())

	tod := &models.User{ID: 5, Username: "tod", Name: "Tod"}
	token, err := tg.Issue(tod, "Tod")
	require.NoError(t, err)

	adminToken, err := tg.Issue(&models.User{ID: 1, Username: "admin"}, "Admin")
	require.NoError(t, err)

	expiredToken, err := NewTokenGenerator(testSecret, 60*time.Minute,
		WithClock(fixedClock(time.Now().Add(-61*time.Minute)))).Issue(tod, "Tod")
	require.NoError(t, err)

	foreignToken, err := NewTokenGenerator("someone-else", 60*time.Minute).Issue(tod, "Tod")
	require.NoError(t, err)

	nonNumeric := signClaims(t, Claims{
		UserID:           "tod",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}, testSecret)

	tests := []struct {
		name     string
		header   string
		ownerID  int64
		expected bool
	}{
		{name: "owner", header: "Bearer " + token, ownerID: tod.ID, expected: true},
		{name: "other id", header: "Bearer " + token, ownerID: tod.ID + 1, expected: false},
		{name: "admin does not bypass", header: "Bearer " + adminToken, ownerID: tod.ID, expected: false},
		{name: "admin owns itself", header: "Bearer " + adminToken, ownerID: 1, expected: true},
		{name: "expired", header: "Bearer " + expiredToken, ownerID: tod.ID, expected: false},
		{name: "wrong signature", header: "Bearer " + foreignToken, ownerID: tod.ID, expected: false},
		{name: "non numeric id", header: "Bearer " + nonNumeric, ownerID: tod.ID, expected: false},
		{name: "missing prefix", header: token, ownerID: tod.ID, expected: false},
		{name: "empty header", header: "", ownerID: tod.ID, expected: false},
		{name: "garbage", header: "Bearer ###", ownerID: tod.ID, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.expected, guard.Authorize(tt.header, tt.ownerID))
			})
		})
	}
}

func TestGuard_RecordsDecisions(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour)
	recorder := &recordedDecisions{}
	guard := NewGuard(tg, recorder, zap.NewNop())

	token, err := tg.Issue(&models.User{ID: 9, Username: "x"}, "X")
	require.NoError(t, err)

	guard.Authorize("Bearer "+token, 9)
	guard.Authorize("Bearer "+token, 10)
	guard.Authorize("", 9)

	assert.Equal(t, 1, recorder.allowed)
	assert.Equal(t, 2, recorder.denied)
}
