package services

import (
	"context"
	"fmt"
	"log/slog"

	"financitos/internal/core"
	applog "financitos/internal/log"
	"financitos/internal/storage"
)

type SettingsInput struct {
	DriveEnabled         bool
	NotificationsEnabled bool
	NotificationTime     string
	AutoSync             bool
}

type SettingsService struct {
	store *storage.Accessor
}

func NewSettingsService(store *storage.Accessor) *SettingsService {
	return &SettingsService{store: store}
}

func (s *SettingsService) Get(ctx context.Context) core.AppSettings {
	return s.store.GetSettings(ctx)
}

// Update replaces the user-editable settings. lastSync is owned by the
// backup service and is carried over untouched.
func (s *SettingsService) Update(ctx context.Context, in SettingsInput) (core.AppSettings, error) {
	current := s.store.GetSettings(ctx)
	next := core.AppSettings{
		DriveEnabled:         in.DriveEnabled,
		NotificationsEnabled: in.NotificationsEnabled,
		NotificationTime:     in.NotificationTime,
		AutoSync:             in.AutoSync,
		LastSync:             current.LastSync,
	}
	if next.NotificationTime == "" {
		next.NotificationTime = core.DefaultSettings().NotificationTime
	}
	if err := next.Validate(); err != nil {
		return core.AppSettings{}, err
	}
	if err := s.store.SaveSettings(ctx, next); err != nil {
		return core.AppSettings{}, fmt.Errorf("save settings: %w", err)
	}

	slog.InfoContext(ctx, "Settings updated",
		applog.FieldComponent, applog.ComponentSettings,
		"operation", "update",
		"drive_enabled", next.DriveEnabled,
		"notifications_enabled", next.NotificationsEnabled,
		"auto_sync", next.AutoSync)
	return next, nil
}
