package migrations

import (
	"strings"
	"testing"
)

func TestFileNamesSortedAndNonEmpty(t *testing.T) {
	names, err := fileNames()
	if err != nil {
		t.Fatalf("fileNames: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no embedded migrations")
	}

	for i, name := range names {
		if !strings.HasSuffix(name, ".sql") {
			t.Errorf("migration %q is not a .sql file", name)
		}
		if i > 0 && names[i-1] >= name {
			t.Errorf("migrations out of order: %q before %q", names[i-1], name)
		}
	}
}

func TestMigrationsAreReadable(t *testing.T) {
	names, err := fileNames()
	if err != nil {
		t.Fatalf("fileNames: %v", err)
	}
	for _, name := range names {
		data, err := migrationFiles.ReadFile(name)
		if err != nil {
			t.Errorf("read %s: %v", name, err)
			continue
		}
		if strings.TrimSpace(string(data)) == "" {
			t.Errorf("migration %s is empty", name)
		}
	}
}
