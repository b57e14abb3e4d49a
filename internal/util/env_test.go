package util

import (
	"testing"
	"time"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CG_STRING", "neo4j")
	t.Setenv("CG_EMPTY", "")
	t.Setenv("CG_INT", "12")
	t.Setenv("CG_BAD_INT", "twelve")
	t.Setenv("CG_BOOL", "yes")
	t.Setenv("CG_BAD_BOOL", "maybe")
	t.Setenv("CG_DURATION", "45s")

	if got := GetEnvString("CG_STRING", "memory"); got != "neo4j" {
		t.Errorf("GetEnvString = %q", got)
	}
	if got := GetEnvString("CG_EMPTY", "memory"); got != "memory" {
		t.Errorf("GetEnvString on empty = %q", got)
	}
	if got := GetEnvInt("CG_INT", 4); got != 12 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvInt("CG_BAD_INT", 4); got != 4 {
		t.Errorf("GetEnvInt on invalid = %d", got)
	}
	if got := GetEnvBool("CG_BOOL", false); !got {
		t.Errorf("GetEnvBool = %v", got)
	}
	if got := GetEnvBool("CG_BAD_BOOL", true); !got {
		t.Errorf("GetEnvBool on invalid = %v", got)
	}
	if got := GetEnvDuration("CG_DURATION", time.Second); got != 45*time.Second {
		t.Errorf("GetEnvDuration = %v", got)
	}
	if got := GetEnvDuration("CG_MISSING", time.Second); got != time.Second {
		t.Errorf("GetEnvDuration default = %v", got)
	}
}
