package mappers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/domain/user"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/persistence/models"
)

// ContentToEntity converts a catalog row into the content read model.
func ContentToEntity(model *models.ContentModel) (*content.Content, error) {
	if model == nil {
		return nil, nil
	}

	var renditions map[string]string
	if len(model.Renditions) > 0 {
		if err := json.Unmarshal(model.Renditions, &renditions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal renditions of content %s: %w", model.ID, err)
		}
	}

	return &content.Content{
		ID:     model.ID,
		Title:  model.Title,
		Type:   model.Type,
		Status: content.Status(model.Status),
		IsPaid: model.IsPaid,
		Asset: content.Asset{
			Host:            content.AssetHost(model.AssetHost),
			Locator:         model.AssetLocator,
			DurationSeconds: model.DurationSeconds,
			Renditions:      renditions,
		},
		PosterURL:     model.PosterURL,
		DownloadCount: model.DownloadCount,
		ViewCount:     model.ViewCount,
		UpdatedAt:     model.UpdatedAt.UTC(),
	}, nil
}

// UserToEntity converts a user row. A user without an end date has no subscription.
func UserToEntity(model *models.UserModel) *user.User {
	if model == nil {
		return nil
	}
	u := &user.User{ID: model.ID}
	if model.SubscriptionEndDate != nil {
		u.Subscription = &user.Subscription{
			IsActive: model.SubscriptionActive,
			EndDate:  model.SubscriptionEndDate.In(time.UTC),
		}
	}
	return u
}
