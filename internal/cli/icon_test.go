package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/historyview/internal/storage"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x10\x00\x00\x00\x10\x08\x06\x00\x00\x00")

func seedIconDomain(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, _ := testStore(t)
	_, err := store.RecordVisit(context.Background(), storage.VisitRecord{Domain: "example.com", Timestamp: "2024-06-01 11:00:00"})
	require.NoError(t, err)
	return store
}

func TestIconCommand_DetectsType(t *testing.T) {
	store := seedIconDomain(t)
	cmd := &IconCommand{
		Domain:  "https://www.example.com/",
		File:    writeFile(t, t.TempDir(), "icon.png", string(pngHeader)),
		globals: &GlobalFlags{},
	}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSetter(context.Background(), store))
	})
	assert.Contains(t, output, "Stored image/png icon for example.com")

	records, err := store.ListDomains(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "image/png", records[0].FaviconType)
	assert.Equal(t, pngHeader, records[0].FaviconData)
}

func TestIconCommand_ExplicitType(t *testing.T) {
	store := seedIconDomain(t)
	cmd := &IconCommand{
		Domain:  "example.com",
		File:    writeFile(t, t.TempDir(), "icon.bin", "opaque bytes"),
		Type:    "image/x-icon",
		globals: &GlobalFlags{JSON: true},
	}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSetter(context.Background(), store))
	})
	assert.Contains(t, output, `"type": "image/x-icon"`)
	assert.Contains(t, output, `"bytes": 12`)
}

func TestIconCommand_Rejections(t *testing.T) {
	store := seedIconDomain(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		cmd  *IconCommand
	}{
		{"not an image", &IconCommand{Domain: "example.com", File: writeFile(t, dir, "notes.txt", "plain text")}},
		{"empty file", &IconCommand{Domain: "example.com", File: writeFile(t, dir, "empty.png", "")}},
		{"missing file", &IconCommand{Domain: "example.com", File: dir + "/nope.png"}},
		{"unknown domain", &IconCommand{Domain: "unknown.test", File: writeFile(t, dir, "icon.png", string(pngHeader))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.globals = &GlobalFlags{}
			assert.Error(t, tt.cmd.executeWithSetter(context.Background(), store))
		})
	}
}
