package postgres

import (
	"strings"
	"testing"
)

func TestPendingMigrations(t *testing.T) {
	tests := []struct {
		name    string
		applied []string
		want    []string
	}{
		{"fresh database", nil, []string{"001_face_identities.sql"}},
		{"already applied", []string{"001_face_identities.sql"}, nil},
		{"unknown versions ignored", []string{"000_legacy.sql"}, []string{"001_face_identities.sql"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pendingMigrations(tt.applied)
			if err != nil {
				t.Fatalf("pendingMigrations() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("pendingMigrations() = %d files, want %v", len(got), tt.want)
			}
			for i, m := range got {
				if m.version != tt.want[i] {
					t.Errorf("pendingMigrations()[%d] = %s, want %s", i, m.version, tt.want[i])
				}
			}
		})
	}
}

func TestPendingMigrations_CreatesIdentityTable(t *testing.T) {
	got, err := pendingMigrations(nil)
	if err != nil {
		t.Fatalf("pendingMigrations() error = %v", err)
	}
	if len(got) == 0 || !strings.Contains(got[0].sql, "face_identities") {
		t.Error("first migration should create face_identities")
	}
}
