package mysql

import "testing"

func TestBuildDSNDefaults(t *testing.T) {
	dsn := BuildDSN(Config{
		Host:     "127.0.0.1",
		Port:     3306,
		User:     "app",
		Password: "secret",
		DBName:   "scope",
	})
	want := "app:secret@tcp(127.0.0.1:3306)/scope?charset=utf8mb4&parseTime=true&loc=Local"
	if dsn != want {
		t.Fatalf("unexpected dsn: %q", dsn)
	}
}

func TestBuildDSNOverrides(t *testing.T) {
	dsn := BuildDSN(Config{
		Host:     "db",
		Port:     3307,
		User:     "u",
		Password: "p",
		DBName:   "d",
		Charset:  "latin1",
		Loc:      "UTC",
	})
	want := "u:p@tcp(db:3307)/d?charset=latin1&parseTime=true&loc=UTC"
	if dsn != want {
		t.Fatalf("unexpected dsn: %q", dsn)
	}
}
