package texture

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func generated(t *testing.T) *Set {
	t.Helper()
	s, err := Generate(DefaultGenerateOptions())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return s
}

func TestGenerate(t *testing.T) {
	s := generated(t)
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	distinct := map[uint16]bool{}
	for y := range s.Sclera {
		for x := range s.Sclera[y] {
			distinct[uint16(s.Sclera[y][x])] = true
		}
	}
	if len(distinct) < 4 {
		t.Errorf("sclera has %d distinct colors, want a gradient", len(distinct))
	}
	if s.Iris[0][0] == s.Iris[IrisMapHeight/2][0] {
		t.Error("iris rows should blend from inner to outer color")
	}

	for x := 0; x < EyelidWidth; x++ {
		for y := 1; y < EyelidHeight; y++ {
			if s.Upper[y][x] < s.Upper[y-1][x] {
				t.Fatalf("upper lid threshold decreases at (%d,%d)", x, y)
			}
			if s.Lower[y][x] > s.Lower[y-1][x] {
				t.Fatalf("lower lid threshold increases at (%d,%d)", x, y)
			}
		}
	}
	mid := EyelidWidth / 2
	if s.Upper[0][mid] != 0 || s.Upper[EyelidHeight-1][mid] != 255 {
		t.Errorf("upper lid ends = %d,%d, want 0,255", s.Upper[0][mid], s.Upper[EyelidHeight-1][mid])
	}
	if s.Lower[EyelidHeight-1][mid] != 0 || s.Lower[0][mid] != 255 {
		t.Errorf("lower lid ends = %d,%d, want 0,255", s.Lower[EyelidHeight-1][mid], s.Lower[0][mid])
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, b := generated(t), generated(t)
	if *a.Sclera != *b.Sclera || *a.Iris != *b.Iris {
		t.Error("same options should give the same textures")
	}
}

func TestGenerateBadColor(t *testing.T) {
	opts := DefaultGenerateOptions()
	opts.IrisOuter = "green"
	if _, err := Generate(opts); err == nil {
		t.Error("expected an error for a non-hex color")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := generated(t)
	if err := Save(dir, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got.Sclera != *want.Sclera || *got.Iris != *want.Iris ||
		*got.Upper != *want.Upper || *got.Lower != *want.Lower {
		t.Error("loaded set differs from saved set")
	}
}

func TestLoadRejectsBadSizes(t *testing.T) {
	tests := []struct {
		name string
		file string
		size int64
	}{
		{"short sclera", ScleraFile, ScleraWidth * ScleraHeight},
		{"long iris", IrisFile, IrisMapWidth*IrisMapHeight*2 + 1},
		{"empty lid", LowerFile, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := Save(dir, generated(t)); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := os.Truncate(filepath.Join(dir, tt.file), tt.size); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(dir, nil); !errors.Is(err, ErrSize) {
				t.Errorf("Load error = %v, want ErrSize", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir(), nil); err == nil {
		t.Error("expected an error for an empty directory")
	}
}

func TestValidate(t *testing.T) {
	var nilSet *Set
	if nilSet.Validate() == nil {
		t.Error("nil set should not validate")
	}
	s := generated(t)
	s.Lower = nil
	if s.Validate() == nil {
		t.Error("set without lower lid should not validate")
	}
}
