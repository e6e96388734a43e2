package agent

import (
	"context"
	"log/slog"

	"github.com/easeaico/mindmate/internal/types"
)

const needsPermissionMessage = "To generate insights, please allow access to at least one kind of data (mood, sleep, journals or assessments) in your privacy settings."

// InsightsResult is either a summary or a request for permission.
type InsightsResult struct {
	Success         bool            `json:"success"`
	Insights        *types.Insights `json:"insights,omitempty"`
	NeedsPermission bool            `json:"needs_permission,omitempty"`
	Message         string          `json:"message,omitempty"`
}

// GenerateInsights summarizes the data the user has allowed the companion to
// analyze. Without any granted permission it asks for one instead.
func (c *Companion) GenerateInsights(ctx context.Context) (InsightsResult, error) {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return InsightsResult{}, err
	}
	perms := c.perms
	c.mu.Unlock()

	if !perms.Any() {
		return InsightsResult{NeedsPermission: true, Message: needsPermissionMessage}, nil
	}

	data, err := c.deps.Memory.GatherUserData(ctx, c.userID, perms)
	if err != nil {
		slog.Warn("failed to gather user data for insights", "user_id", c.userID, "error", err.Error())
	}

	insights := c.deps.Insights.Generate(ctx, data)
	return InsightsResult{Success: true, Insights: &insights}, nil
}
