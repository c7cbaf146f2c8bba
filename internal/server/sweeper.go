package server

import (
	"context"
	"fmt"

	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// SweepSessions deletes revoked and expired sessions and returns how many
// were removed
func (s *Server) SweepSessions(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("revoked_at IS NOT NULL OR expires_at <= ?", s.now()).
		Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info().Int64("removed", result.RowsAffected).Msg("Swept stale sessions")
	}
	return result.RowsAffected, nil
}
