package backend

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/spigell/crewmatch/internal/offers"
)

// FetchOffers reads every row of the offers table, page by page.
func (c *Client) FetchOffers(ctx context.Context, table string) (*offers.Offers, error) {
	if table == "" {
		return nil, fmt.Errorf("offers table is required")
	}

	base := url.Values{}
	base.Set("select", "*")
	base.Set("order", "id.asc")

	// The server may cap rows per response below the page size, so only an
	// empty page ends the listing.
	var rows []map[string]any
	offset := 0
	for {
		page, err := c.getRows(ctx, table, pageQuery(base, c.pageSize, offset))
		if err != nil {
			return nil, err
		}

		c.logger.Debug("got offers page",
			zap.Int("offset", offset),
			zap.Int("rows", len(page)),
		)

		if len(page) == 0 {
			break
		}
		rows = append(rows, page...)
		offset += len(page)
	}

	items, err := offers.Decode(rows)
	if err != nil {
		return nil, err
	}

	return &offers.Offers{Items: items}, nil
}
