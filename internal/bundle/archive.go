package bundle

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// MaxEntrySize caps a single extracted file.
const MaxEntrySize = 256 << 20

// ErrEntryTooLarge is returned when an archive entry exceeds MaxEntrySize.
var ErrEntryTooLarge = errors.New("bundle: entry exceeds size limit")

// Pack writes dir as a zstd-compressed tar stream to w.
// Only directories and regular files are archived. Returns the number of files written.
func Pack(w io.Writer, dir string) (int, error) {
	encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return 0, fmt.Errorf("bundle: create encoder: %w", err)
	}
	tw := tar.NewWriter(encoder)

	files := 0
	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return err
		}
		files++
		return nil
	})
	if walkErr != nil {
		_ = tw.Close()
		_ = encoder.Close()
		return files, fmt.Errorf("bundle: pack %q: %w", dir, walkErr)
	}

	if err := tw.Close(); err != nil {
		_ = encoder.Close()
		return files, fmt.Errorf("bundle: close tar: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return files, fmt.Errorf("bundle: close encoder: %w", err)
	}
	return files, nil
}

// Extract unpacks a zstd-compressed tar stream into dest, which must exist.
// Entries that would land outside dest are skipped, as are symlinks, devices
// and every other non-regular entry. Returns the number of files written.
func Extract(r io.Reader, dest string) (int, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("bundle: create decoder: %w", err)
	}
	defer decoder.Close()

	tr := tar.NewReader(decoder)
	files := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return files, fmt.Errorf("bundle: read archive: %w", err)
		}

		name, ok := entryPath(hdr.Name)
		if !ok {
			continue
		}
		target := filepath.Join(dest, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, fmt.Errorf("bundle: create dir %q: %w", name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return files, fmt.Errorf("bundle: create dir for %q: %w", name, err)
			}
			if err := writeFile(target, tr); err != nil {
				return files, fmt.Errorf("bundle: write %q: %w", name, err)
			}
			files++
		}
	}
}

// entryPath maps an archive name to a relative local path.
// ok is false for the archive root and for anything that escapes it.
func entryPath(name string) (string, bool) {
	clean := path.Clean(name)
	if clean == "." || clean == "/" {
		return "", false
	}
	local := filepath.FromSlash(clean)
	if !filepath.IsLocal(local) {
		return "", false
	}
	return local, true
}

func writeFile(target string, r io.Reader) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, io.LimitReader(r, MaxEntrySize+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if n > MaxEntrySize {
		return ErrEntryTooLarge
	}
	return nil
}
