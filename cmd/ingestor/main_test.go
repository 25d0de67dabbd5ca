package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/clinicmap/internal/core/domain"
)

func TestReadExport(t *testing.T) {
	dir := t.TempDir()

	envelope := filepath.Join(dir, "envelope.json")
	require.NoError(t, os.WriteFile(envelope, []byte(`{"source":"crm","profiles":[{"clinic_id":"c1","clinic_name":"A","subscribed":true}]}`), 0o644))
	export, err := readExport(envelope)
	require.NoError(t, err)
	assert.Equal(t, "crm", export.Source)
	require.Len(t, export.Profiles, 1)
	assert.True(t, export.Profiles[0].Subscribed)

	list := filepath.Join(dir, "list.json")
	require.NoError(t, os.WriteFile(list, []byte(`[{"clinic_id":"c1"},{"clinic_id":"c2"}]`), 0o644))
	export, err = readExport(list)
	require.NoError(t, err)
	assert.Len(t, export.Profiles, 2)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`not json`), 0o644))
	_, err = readExport(bad)
	assert.Error(t, err)
}

func TestIngest(t *testing.T) {
	profiles := []domain.ClinicProfile{
		{ClinicID: "c1"}, {ClinicID: "c2"}, {ClinicID: ""}, {ClinicID: "fail"}, {ClinicID: "c5"},
	}

	var (
		mu   sync.Mutex
		seen []string
		n    counts
	)
	ingest(context.Background(), profiles, func(ctx context.Context, p *domain.ClinicProfile) error {
		if p.ClinicID == "fail" {
			return errors.New("boom")
		}
		mu.Lock()
		seen = append(seen, p.ClinicID)
		mu.Unlock()
		return nil
	}, &n)

	assert.ElementsMatch(t, []string{"c1", "c2", "c5"}, seen)
	assert.EqualValues(t, 2, n.failed.Load())
}
