package service

import (
	"go.uber.org/zap"
)

// DecisionRecorder receives every ownership decision
type DecisionRecorder interface {
	GuardDecision(allowed bool)
}

// Guard compares the identity carried by a bearer token with a claimed resource owner
type Guard struct {
	tokens   *TokenGenerator
	recorder DecisionRecorder
	logger   *zap.Logger
}

// NewGuard creates a new ownership guard; recorder may be nil
func NewGuard(tokens *TokenGenerator, recorder DecisionRecorder, logger *zap.Logger) *Guard {
	return &Guard{
		tokens:   tokens,
		recorder: recorder,
		logger:   logger,
	}
}

// Authorize reports whether the token in rawHeader is valid and belongs to claimedOwnerID.
// Malformed headers and invalid or expired tokens are denials, never errors.
// There is no role elevation: an Admin token is only allowed for its own id.
func (g *Guard) Authorize(rawHeader string, claimedOwnerID int64) bool {
	allowed := g.authorize(rawHeader, claimedOwnerID)
	if g.recorder != nil {
		g.recorder.GuardDecision(allowed)
	}
	return allowed
}

func (g *Guard) authorize(rawHeader string, claimedOwnerID int64) bool {
	claims, err := g.tokens.ValidateHeader(rawHeader)
	if err != nil {
		g.logger.Debug("ownership check denied", zap.Int64("claimedOwnerId", claimedOwnerID), zap.Error(err))
		return false
	}

	userID, err := claims.Identity()
	if err != nil {
		g.logger.Debug("ownership check denied", zap.Int64("claimedOwnerId", claimedOwnerID), zap.Error(err))
		return false
	}

	if userID != claimedOwnerID {
		g.logger.Debug("ownership mismatch",
			zap.Int64("tokenUserId", userID),
			zap.Int64("claimedOwnerId", claimedOwnerID),
		)
		return false
	}

	return true
}
