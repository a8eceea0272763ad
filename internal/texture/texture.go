// Package texture holds the read-only eye assets: the sclera color map, the
// polar-unwrapped iris map and the two eyelid coverage-threshold maps.
//
// Dimensions are contract constants. The arrays are fixed-size so a mismatch
// in code is a compile error; Load rejects mismatched files at startup.
package texture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
)

const (
	ScleraWidth  = 200
	ScleraHeight = 200

	// Iris map rows are normalized radius (0 = center), columns are
	// normalized angle.
	IrisMapWidth  = 256
	IrisMapHeight = 64

	EyelidWidth  = 128
	EyelidHeight = 128
)

// File names used by Load.
const (
	ScleraFile = "sclera.bin"
	IrisFile   = "iris.bin"
	UpperFile  = "upper.bin"
	LowerFile  = "lower.bin"
)

// ErrSize is returned when an asset file does not match its contract size.
var ErrSize = errors.New("texture: asset size mismatch")

type (
	Sclera  [ScleraHeight][ScleraWidth]rgb565.Color
	IrisMap [IrisMapHeight][IrisMapWidth]rgb565.Color
	// Eyelid values are coverage thresholds: a pixel is covered once the
	// lid cutoff reaches its value, so low values close first.
	Eyelid [EyelidHeight][EyelidWidth]uint8
)

// Set is one complete asset set. It is never mutated after construction.
type Set struct {
	Sclera *Sclera
	Iris   *IrisMap
	Upper  *Eyelid
	Lower  *Eyelid
}

// Validate reports a missing table.
func (s *Set) Validate() error {
	switch {
	case s == nil:
		return errors.New("texture: nil set")
	case s.Sclera == nil:
		return errors.New("texture: missing sclera map")
	case s.Iris == nil:
		return errors.New("texture: missing iris map")
	case s.Upper == nil:
		return errors.New("texture: missing upper eyelid map")
	case s.Lower == nil:
		return errors.New("texture: missing lower eyelid map")
	}
	return nil
}

// Load reads a raw asset directory. Color maps are big-endian RGB565, eyelid
// maps are one byte per pixel, all row-major with no header.
func Load(dir string, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Set{
		Sclera: new(Sclera),
		Iris:   new(IrisMap),
		Upper:  new(Eyelid),
		Lower:  new(Eyelid),
	}

	if err := readFile(filepath.Join(dir, ScleraFile), s.Sclera); err != nil {
		return nil, err
	}
	if err := readFile(filepath.Join(dir, IrisFile), s.Iris); err != nil {
		return nil, err
	}
	if err := readFile(filepath.Join(dir, UpperFile), s.Upper); err != nil {
		return nil, err
	}
	if err := readFile(filepath.Join(dir, LowerFile), s.Lower); err != nil {
		return nil, err
	}
	logger.Info("texture: loaded asset set", "dir", dir)
	return s, nil
}

func readFile(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("texture: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("texture: %w", err)
	}
	want := int64(binary.Size(dst))
	if fi.Size() != want {
		return fmt.Errorf("%w: %s is %d bytes, want %d", ErrSize, filepath.Base(path), fi.Size(), want)
	}
	if err := binary.Read(f, binary.BigEndian, dst); err != nil {
		return fmt.Errorf("texture: reading %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Save writes s in the layout Load expects.
func Save(dir string, s *Set) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("texture: %w", err)
	}
	files := []struct {
		name string
		v    any
	}{
		{ScleraFile, s.Sclera},
		{IrisFile, s.Iris},
		{UpperFile, s.Upper},
		{LowerFile, s.Lower},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.v); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("texture: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("texture: %w", cerr)
		}
	}()
	return write(f, v)
}

func write(w io.Writer, v any) error {
	if err := binary.Write(w, binary.BigEndian, v); err != nil {
		return fmt.Errorf("texture: %w", err)
	}
	return nil
}
