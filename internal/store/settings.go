package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ryanahq/ryana/internal/apperr"
	"github.com/ryanahq/ryana/internal/models"
)

// seedSettings creates the singleton settings record on first run. It is
// only ever updated afterwards, never deleted or duplicated.
func (s *Store) seedSettings() error {
	var n int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM settings WHERE id = ?`, models.SettingsID).Scan(&n); err != nil {
		return fmt.Errorf("store: check settings: %w", err)
	}
	if n > 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	_, err := s.conn.Exec(`
		INSERT INTO settings (id, theme, sync_enabled, sync_provider, auth_token,
			default_language, auto_save, keyboard_shortcuts, created_at, updated_at)
		VALUES (?, 'light', 0, NULL, NULL, 'javascript', 1, 1, ?, ?)
	`, models.SettingsID, now, now)
	if err != nil {
		return fmt.Errorf("store: seed settings: %w", err)
	}
	return nil
}

// GetSettings returns the singleton settings record.
func (s *Store) GetSettings(ctx context.Context) (*models.Settings, error) {
	var st models.Settings
	var syncEnabled, autoSave, shortcuts int
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, theme, sync_enabled, sync_provider, auth_token,
			default_language, auto_save, keyboard_shortcuts, created_at, updated_at
		FROM settings WHERE id = ?
	`, models.SettingsID).Scan(&st.ID, &st.Theme, &syncEnabled, &st.SyncProvider,
		&st.AuthToken, &st.DefaultLanguage, &autoSave, &shortcuts, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: settings record: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get settings: %w", err)
	}
	st.SyncEnabled = syncEnabled != 0
	st.AutoSave = autoSave != 0
	st.KeyboardShortcuts = shortcuts != 0
	return &st, nil
}

// UpdateSettings merges the patch over the stored record and bumps updatedAt.
func (s *Store) UpdateSettings(ctx context.Context, patch models.SettingsPatch) error {
	st, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	if patch.Theme != nil {
		st.Theme = *patch.Theme
	}
	if patch.SyncEnabled != nil {
		st.SyncEnabled = *patch.SyncEnabled
	}
	if patch.SyncProvider != nil {
		st.SyncProvider = patch.SyncProvider
	}
	if patch.AuthToken != nil {
		st.AuthToken = patch.AuthToken
	}
	if patch.DefaultLanguage != nil {
		st.DefaultLanguage = *patch.DefaultLanguage
	}
	if patch.AutoSave != nil {
		st.AutoSave = *patch.AutoSave
	}
	if patch.KeyboardShortcuts != nil {
		st.KeyboardShortcuts = *patch.KeyboardShortcuts
	}
	st.UpdatedAt = time.Now().UnixMilli()

	_, err = s.conn.ExecContext(ctx, `
		UPDATE settings SET theme = ?, sync_enabled = ?, sync_provider = ?, auth_token = ?,
			default_language = ?, auto_save = ?, keyboard_shortcuts = ?, updated_at = ?
		WHERE id = ?
	`, st.Theme, boolToInt(st.SyncEnabled), st.SyncProvider, st.AuthToken,
		st.DefaultLanguage, boolToInt(st.AutoSave), boolToInt(st.KeyboardShortcuts),
		st.UpdatedAt, models.SettingsID)
	if err != nil {
		return fmt.Errorf("store: update settings: %w", err)
	}
	return nil
}
