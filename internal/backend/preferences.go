package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spigell/crewmatch/internal/preferences"
)

// FetchPreferences reads the saved preferences of one user.
func (c *Client) FetchPreferences(ctx context.Context, table, userID string) (*preferences.Preferences, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	q.Set("limit", "1")

	rows, err := c.getRows(ctx, table, q)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, ErrPreferencesNotFound)
	}

	return preferences.Decode(rows[0])
}
