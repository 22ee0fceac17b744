package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/student-life-hub/student-life-hub/internal/domain/shared"
)

// AppVersion is the informal schema tag written into backups.
const AppVersion = "2.0"

// SchemaVersion tracks the backup document layout.
const SchemaVersion = 1

// metadataKey is the reserved entry carrying backup metadata. It is never
// written back on import.
const metadataKey = "_metadata"

// BackupMetadata describes when and by what a backup was produced.
type BackupMetadata struct {
	ExportID      string    `json:"export_id"`
	ExportedAt    time.Time `json:"exported_at"`
	AppVersion    string    `json:"app_version"`
	SchemaVersion int       `json:"schema_version"`
	Keys          []string  `json:"keys"`
}

// Backup is a full export of the app's key namespace.
type Backup struct {
	Metadata BackupMetadata             `json:"metadata"`
	Data     map[string]json.RawMessage `json:"data"`
}

// Backupper performs bulk export/import over a Store. Import is best-effort:
// keys written before a failure stay written.
type Backupper struct {
	store  Store
	logger *slog.Logger
}

// NewBackupper creates a Backupper over the given store.
func NewBackupper(store Store, logger *slog.Logger) *Backupper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backupper{store: store, logger: logger}
}

// Export collects every known key that has a value, plus metadata.
func (b *Backupper) Export(ctx context.Context) (*Backup, error) {
	data := make(map[string]json.RawMessage)
	var present []string

	for _, key := range KnownKeys() {
		raw, err := b.store.Get(ctx, key)
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, shared.WrapError("storage", "Export", shared.ErrStorageUnavailable, "read "+key, err)
		}
		data[key] = raw
		present = append(present, key)
	}

	backup := &Backup{
		Metadata: BackupMetadata{
			ExportID:      uuid.NewString(),
			ExportedAt:    time.Now(),
			AppVersion:    AppVersion,
			SchemaVersion: SchemaVersion,
			Keys:          present,
		},
		Data: data,
	}

	b.logger.Info("exported backup",
		"export_id", backup.Metadata.ExportID,
		"keys", len(present),
	)
	return backup, nil
}

// ExportJSON serializes a full export, with metadata embedded under the
// reserved "_metadata" entry, for download-style backups.
func (b *Backupper) ExportJSON(ctx context.Context) ([]byte, error) {
	backup, err := b.Export(ctx)
	if err != nil {
		return nil, err
	}

	doc := make(map[string]json.RawMessage, len(backup.Data)+1)
	for k, v := range backup.Data {
		doc[k] = v
	}
	meta, err := json.Marshal(backup.Metadata)
	if err != nil {
		return nil, shared.WrapError("storage", "Export", shared.ErrSerialization, "marshal metadata", err)
	}
	doc[metadataKey] = meta

	return json.MarshalIndent(doc, "", "  ")
}

// Import writes a backup's entries back into the store. Metadata is stripped;
// unknown keys are skipped; known keys are overwritten. Import is not
// transactional: a mid-iteration failure leaves earlier writes in place.
func (b *Backupper) Import(ctx context.Context, backup *Backup) error {
	if backup == nil {
		return shared.ErrBackupMalformed
	}
	return b.importEntries(ctx, backup.Data)
}

// ImportJSON parses a download-style backup document and imports it.
func (b *Backupper) ImportJSON(ctx context.Context, raw []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return shared.WrapError("storage", "Import", shared.ErrInvalidFormat, "parse backup", err)
	}
	delete(doc, metadataKey)
	return b.importEntries(ctx, doc)
}

func (b *Backupper) importEntries(ctx context.Context, entries map[string]json.RawMessage) error {
	known := make(map[string]bool, len(KnownKeys()))
	for _, k := range KnownKeys() {
		known[k] = true
	}

	imported := 0
	for _, key := range KnownKeys() { // stable iteration, deterministic partial-failure point
		raw, ok := entries[key]
		if !ok {
			continue
		}
		if !json.Valid(raw) {
			return shared.WrapError("storage", "Import", shared.ErrInvalidFormat, "invalid value for "+key, nil)
		}
		if err := b.store.Set(ctx, key, raw); err != nil {
			return shared.WrapError("storage", "Import", shared.ErrStorageUnavailable,
				fmt.Sprintf("write %s (%d keys already imported)", key, imported), err)
		}
		imported++
	}

	skipped := 0
	for key := range entries {
		if !known[key] {
			skipped++
		}
	}

	b.logger.Info("imported backup", "keys", imported, "skipped_unknown", skipped)
	return nil
}

// Purge removes every known key. Used by account deletion.
func (b *Backupper) Purge(ctx context.Context) error {
	for _, key := range KnownKeys() {
		if err := b.store.Remove(ctx, key); err != nil {
			return shared.WrapError("storage", "Purge", shared.ErrStorageUnavailable, "remove "+key, err)
		}
	}
	b.logger.Info("purged all app data")
	return nil
}

// ClearSection removes the keys owned by one feature section.
func (b *Backupper) ClearSection(ctx context.Context, section string) error {
	keys, ok := SectionKeys(section)
	if !ok {
		return shared.NewDomainError("storage", "ClearSection", shared.ErrInvalidInput, "unknown section "+section)
	}
	for _, key := range keys {
		if err := b.store.Remove(ctx, key); err != nil {
			return shared.WrapError("storage", "ClearSection", shared.ErrStorageUnavailable, "remove "+key, err)
		}
	}
	b.logger.Info("cleared section data", "section", section)
	return nil
}
