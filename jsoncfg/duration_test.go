package jsoncfg

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	type config struct {
		Timeout Duration `json:"timeout"`
	}

	path := filepath.Join(t.TempDir(), "config.json")
	saved := config{Timeout: Duration(20 * time.Second)}
	if err := Save(path, &saved); err != nil {
		t.Fatal(err)
	}

	var loaded config
	if err := Open(path, &loaded); err != nil {
		t.Fatal(err)
	}
	if loaded.Timeout.Value() != 20*time.Second {
		t.Errorf("loaded.Timeout = %v, want 20s", loaded.Timeout.Value())
	}
}

func TestDurationUnmarshalBadText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("twenty seconds")); err == nil {
		t.Error("UnmarshalText accepted a malformed duration")
	}
}
