package registry

import (
	"errors"
	"testing"

	"github.com/vovakirdan/retrobridge/internal/binding"
	"github.com/vovakirdan/retrobridge/internal/binding/bindingtest"
	"github.com/vovakirdan/retrobridge/internal/core"
)

func init() {
	Register(CoreInfo{Name: "zz_fake", Title: "Fake", Extensions: []string{".fake"}}, func() binding.Core {
		return &bindingtest.Recorder{}
	})
}

func TestCoreName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"sandbox", "sandbox"},
		{"/opt/cores/sandbox_libretro.so", "sandbox"},
		{"cores/Sandbox_libretro.dll", "sandbox"},
		{"./snes9x.dylib", "snes9x"},
	}

	for _, tc := range tests {
		if got := CoreName(tc.path); got != tc.want {
			t.Errorf("CoreName(%q) = %q, expected %q", tc.path, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	c, info, err := Resolve("/usr/lib/zz_fake_libretro.so")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if c == nil {
		t.Fatal("Resolve() returned a nil core")
	}
	if info.Title != "Fake" {
		t.Errorf("Title = %q, expected Fake", info.Title)
	}

	c2, _, _ := Resolve("zz_fake")
	if c == c2 {
		t.Error("each Resolve should return a fresh core")
	}
}

func TestResolveUnknown(t *testing.T) {
	_, _, err := Resolve("/nowhere/missing_libretro.so")
	if !errors.Is(err, core.ErrInit) {
		t.Errorf("Resolve() error = %v, expected ErrInit", err)
	}
}

func TestListSorted(t *testing.T) {
	list := List()
	for i := 1; i < len(list); i++ {
		if list[i-1].Name > list[i].Name {
			t.Errorf("List() not sorted: %q before %q", list[i-1].Name, list[i].Name)
		}
	}
	if !Exists("zz_fake") {
		t.Error("zz_fake should be registered")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register should panic")
		}
	}()
	Register(CoreInfo{Name: "zz_fake"}, func() binding.Core { return nil })
}
