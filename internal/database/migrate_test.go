package database

import (
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	c := qt.New(t)

	migrations, err := Migrations()
	c.Assert(err, qt.IsNil)
	c.Assert(len(migrations) >= 2, qt.IsTrue)
	for i, m := range migrations {
		c.Assert(m.Version, qt.Equals, i+1)
		c.Assert(m.SQL, qt.Not(qt.Equals), "")
	}
	c.Assert(migrations[0].Description, qt.Equals, "init")
}

func TestLoadMigrations(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		want    []int
		wantErr string
	}{
		{
			name: "sorted by version",
			files: fstest.MapFS{
				"migrations/0010_later.up.sql": {Data: []byte("SELECT 2")},
				"migrations/0002_first.up.sql": {Data: []byte("SELECT 1")},
			},
			want: []int{2, 10},
		},
		{
			name: "missing description",
			files: fstest.MapFS{
				"migrations/0001.up.sql": {Data: []byte("SELECT 1")},
			},
			wantErr: "migration migrations/0001.up.sql: expected NNNN_description.up.sql",
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"migrations/0001_a.up.sql": {Data: []byte("SELECT 1")},
				"migrations/0001_b.up.sql": {Data: []byte("SELECT 1")},
			},
			wantErr: "migration version 1 used by .*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			got, err := loadMigrations(tt.files)
			if tt.wantErr != "" {
				c.Assert(err, qt.ErrorMatches, tt.wantErr)
				return
			}
			c.Assert(err, qt.IsNil)
			var versions []int
			for _, m := range got {
				versions = append(versions, m.Version)
			}
			c.Assert(versions, qt.DeepEquals, tt.want)
		})
	}
}
