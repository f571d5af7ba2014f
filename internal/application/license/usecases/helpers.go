package usecases

import (
	"context"

	"github.com/hrshiti/inplay-sub000/internal/application/delivery"
	"github.com/hrshiti/inplay-sub000/internal/application/license/dto"
	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

// resultLabel maps an outcome to a metrics label.
func resultLabel(err error, success string) string {
	if err == nil {
		return success
	}
	if kind, ok := license.KindOf(err); ok {
		return string(kind)
	}
	return "error"
}

// publishEvent delivers an event without failing the caller.
func publishEvent(ctx context.Context, publisher license.EventPublisher, log logger.Interface, event license.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warnw("failed to publish license event",
			"type", event.Type,
			"license_sid", event.LicenseSID,
			"error", err,
		)
	}
}

func toFetchURL(link delivery.Link) dto.FetchURLDTO {
	return dto.FetchURLDTO{URL: link.URL, ExpiresAt: link.ExpiresAt}
}
