package store

import "testing"

func TestRebindPostgresPlaceholders(t *testing.T) {
	db := &DB{dbType: "postgres"}

	tests := []struct {
		in   string
		want string
	}{
		{
			`SELECT result FROM history WHERE identity = ?`,
			`SELECT result FROM history WHERE identity = $1`,
		},
		{
			`INSERT INTO history (identity, file_name, result, created_at) VALUES (?, ?, ?, ?)`,
			`INSERT INTO history (identity, file_name, result, created_at) VALUES ($1, $2, $3, $4)`,
		},
		{
			`DELETE FROM gallery WHERE identity = ? AND timestamp_seconds = ?`,
			`DELETE FROM gallery WHERE identity = $1 AND timestamp_seconds = $2`,
		},
		{
			`SELECT COUNT(*) FROM history`,
			`SELECT COUNT(*) FROM history`,
		},
	}

	for _, tt := range tests {
		if got := db.rebind(tt.in); got != tt.want {
			t.Errorf("rebind(%q):\n  expected %q\n  got      %q", tt.in, tt.want, got)
		}
	}
}

func TestRebindSQLitePassthrough(t *testing.T) {
	db := &DB{dbType: "sqlite"}
	query := `SELECT result FROM history WHERE identity = ?`
	if got := db.rebind(query); got != query {
		t.Errorf("sqlite queries must pass through unchanged, got %q", got)
	}
}
