package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestLanguageUUIDIsStableAndCaseInsensitive(t *testing.T) {
	first := LanguageUUID("ua")
	second := LanguageUUID(" UA ")
	if first == uuid.Nil {
		t.Fatal("expected non-nil uuid")
	}
	if first != second {
		t.Fatalf("expected identical ids, got %s and %s", first, second)
	}
	if LanguageUUID("ru") == first {
		t.Fatal("expected different prefixes to produce different ids")
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if got := UUID("   "); got != uuid.Nil {
		t.Fatalf("expected nil uuid for blank key, got %s", got)
	}
}
