package ops

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TarDir archives the directory tree at src into a plain tar file at dst,
// with paths relative to src. When materialize is set, symlinks are written
// out as regular copies of their resolved targets; a link pointing at a
// directory gets the whole target subtree archived under the link's own
// path. Without materialize, symlinks are preserved as links.
func TarDir(src, dst string, materialize bool) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	tw := tar.NewWriter(out)
	if err := tarTree(tw, src, "", materialize); err != nil {
		tw.Close()
		// Leave no truncated archive behind.
		os.Remove(dst)
		return err
	}
	return tw.Close()
}

// tarTree writes the tree under root into tw, prefixing every entry name
// with prefix. Materialized directory symlinks recurse here with the link's
// relative path as the new prefix.
func tarTree(tw *tar.Writer, root, prefix string, materialize bool) error {
	return filepath.Walk(root, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(filepath.Join(prefix, rel))

		isLink := fi.Mode()&os.ModeSymlink != 0
		if isLink && materialize {
			resolved, sErr := os.Stat(file)
			if sErr != nil {
				return fmt.Errorf("%w: symlink %s does not resolve", ErrUnsupportedFeature, file)
			}
			if resolved.IsDir() {
				header, hErr := tar.FileInfoHeader(resolved, "")
				if hErr != nil {
					return hErr
				}
				header.Name = name
				if wErr := tw.WriteHeader(header); wErr != nil {
					return wErr
				}
				target, tErr := filepath.EvalSymlinks(file)
				if tErr != nil {
					return tErr
				}
				// Walk never descends into symlinks, so the linked
				// subtree has to be archived explicitly.
				return tarTree(tw, target, name, materialize)
			}
			fi = resolved
			isLink = false
		}

		var link string
		if isLink {
			if link, err = os.Readlink(file); err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(fi, link)
		if err != nil {
			return err
		}
		header.Name = name

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if !fi.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}
