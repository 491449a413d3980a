package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/nxpkg/nxpkg/internal/errkind"
)

// resolveSource returns a local directory holding the source tree. If
// source looks like a git URL it is cloned into a fresh "src" directory
// under sandboxRoot's parent (so the clone survives sandbox preparation,
// which creates sandboxRoot itself); otherwise source is used as-is.
func resolveSource(source, sandboxRoot string) (string, error) {
	if !looksLikeGitURL(source) {
		return source, nil
	}

	dest := filepath.Join(filepath.Dir(sandboxRoot), "src")
	if _, err := git.PlainClone(dest, false, &git.CloneOptions{URL: source}); err != nil {
		return "", errkind.Wrap(errkind.SandboxPrepareFailed, "clone "+source, err)
	}
	return dest, nil
}

func looksLikeGitURL(source string) bool {
	return strings.HasPrefix(source, "http://") ||
		strings.HasPrefix(source, "https://") ||
		strings.HasPrefix(source, "git@") ||
		strings.HasPrefix(source, "ssh://")
}

// moveInto relocates sourceDir's contents to dest, matching spec.md's
// "Moved" state: the staged source tree becomes the sandbox's build
// directory. Rename is attempted first; a cross-device source falls back
// to copying.
func moveInto(sourceDir, dest string) error {
	if err := os.Rename(sourceDir, dest); err == nil {
		return nil
	}
	return copyTree(sourceDir, dest)
}

func copyTree(src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(linkTarget, target)
		}

		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
		if err != nil {
			return err
		}
		defer out.Close()

		_, err = out.ReadFrom(in)
		return err
	})
}
