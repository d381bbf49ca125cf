package finance

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

const appsPath = "/v1/apps"

func (s *service) ListApps(ctx context.Context) ([]domain.App, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: an upstream client is required to list apps", domain.ErrConfiguration)
	}

	query := url.Values{}
	query.Set("fields[apps]", "name,bundleId,sku,primaryLocale")
	query.Set("limit", "200")

	var apps []domain.App
	err := s.client.GetPages(ctx, appsPath, query, func(page []byte) error {
		data := gjson.GetBytes(page, "data")
		if !data.IsArray() {
			return fmt.Errorf("%w: apps page has no data array", domain.ErrUpstream)
		}
		data.ForEach(func(_, item gjson.Result) bool {
			apps = append(apps, domain.App{
				ID:            item.Get("id").String(),
				Name:          item.Get("attributes.name").String(),
				BundleID:      item.Get("attributes.bundleId").String(),
				SKU:           item.Get("attributes.sku").String(),
				PrimaryLocale: item.Get("attributes.primaryLocale").String(),
			})
			return true
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	return apps, nil
}
