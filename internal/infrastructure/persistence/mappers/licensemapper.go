package mappers

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/persistence/models"
)

// LicenseMapper converts between the license aggregate and its persistence model.
type LicenseMapper interface {
	ToEntity(model *models.DownloadLicenseModel) (*license.License, error)
	ToModel(entity *license.License) (*models.DownloadLicenseModel, error)
	ToEntities(models []*models.DownloadLicenseModel) ([]*license.License, error)
}

type licenseMapper struct{}

func NewLicenseMapper() LicenseMapper {
	return &licenseMapper{}
}

func (m *licenseMapper) ToEntity(model *models.DownloadLicenseModel) (*license.License, error) {
	if model == nil {
		return nil, nil
	}

	var deviceInfo license.DeviceInfo
	if len(model.DeviceInfo) > 0 {
		if err := json.Unmarshal(model.DeviceInfo, &deviceInfo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal device info of license %d: %w", model.ID, err)
		}
	}

	var snapshot license.ContentSnapshot
	if len(model.ContentSnapshot) > 0 {
		if err := json.Unmarshal(model.ContentSnapshot, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal content snapshot of license %d: %w", model.ID, err)
		}
	}

	entity, err := license.ReconstructLicense(license.ReconstructParams{
		ID:             model.ID,
		SID:            model.SID,
		KeyHash:        model.LicenseKeyHash,
		UserID:         model.UserID,
		ContentID:      model.ContentID,
		DeviceID:       model.DeviceID,
		DeviceInfo:     deviceInfo,
		IssuedAt:       model.IssuedAt.UTC(),
		ExpiresAt:      model.ExpiresAt.UTC(),
		LastAccessedAt: utcPtr(model.LastAccessedAt),
		AccessCount:    model.AccessCount,
		IsActive:       model.IsActive,
		RevokedAt:      utcPtr(model.RevokedAt),
		RevokeReason:   model.RevokeReason,
		Snapshot:       snapshot,
		Quality:        model.Quality,
		Format:         model.Format,
		AbuseFlaggedAt: utcPtr(model.AbuseFlaggedAt),
		CreatedAt:      model.CreatedAt.UTC(),
		UpdatedAt:      model.UpdatedAt.UTC(),
		Version:        model.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct license entity: %w", err)
	}
	return entity, nil
}

func (m *licenseMapper) ToModel(entity *license.License) (*models.DownloadLicenseModel, error) {
	if entity == nil {
		return nil, nil
	}

	deviceInfo, err := json.Marshal(entity.DeviceInfo())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal device info: %w", err)
	}
	snapshot, err := json.Marshal(entity.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content snapshot: %w", err)
	}

	return &models.DownloadLicenseModel{
		ID:              entity.ID(),
		SID:             entity.SID(),
		LicenseKeyHash:  entity.KeyHash(),
		UserID:          entity.UserID(),
		ContentID:       entity.ContentID(),
		DeviceID:        entity.DeviceID(),
		DeviceInfo:      datatypes.JSON(deviceInfo),
		IssuedAt:        entity.IssuedAt(),
		ExpiresAt:       entity.ExpiresAt(),
		LastAccessedAt:  entity.LastAccessedAt(),
		AccessCount:     entity.AccessCount(),
		IsActive:        entity.IsActive(),
		RevokedAt:       entity.RevokedAt(),
		RevokeReason:    entity.RevokeReason(),
		ContentSnapshot: datatypes.JSON(snapshot),
		Quality:         entity.Quality(),
		Format:          entity.Format(),
		AbuseFlaggedAt:  entity.AbuseFlaggedAt(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
		Version:         entity.Version(),
	}, nil
}

func (m *licenseMapper) ToEntities(list []*models.DownloadLicenseModel) ([]*license.License, error) {
	entities := make([]*license.License, 0, len(list))
	for i, model := range list {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map model at index %d (ID %d): %w", i, model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
