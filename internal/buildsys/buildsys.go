package buildsys

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/nxpkg/nxpkg/internal/errkind"
)

// Kind identifies a supported build system.
type Kind int

const (
	Cargo Kind = iota
	Meson
	CMake
	SCons
	Make
)

// priority orders kinds for tie-breaking: lower sorts first.
func (k Kind) priority() int { return int(k) }

func (k Kind) String() string {
	switch k {
	case Cargo:
		return "cargo"
	case Meson:
		return "meson"
	case CMake:
		return "cmake"
	case SCons:
		return "scons"
	case Make:
		return "make"
	default:
		return "unknown"
	}
}

// signatures maps a signature file name to the build system it indicates.
var signatures = map[string]Kind{
	"Cargo.toml":     Cargo,
	"meson.build":    Meson,
	"CMakeLists.txt": CMake,
	"SConstruct":     SCons,
	"SConscript":     SCons,
	"Makefile":       Make,
	"makefile":       Make,
	"GNUmakefile":    Make,
}

// Candidate is a build-system signature file found while walking a source
// tree.
type Candidate struct {
	Kind  Kind
	Dir   string // directory containing the signature file, joined onto root
	Depth int    // number of path components between root and Dir
}

// Detect walks root for build-system signature files and returns the
// selected candidate.
//
// If preferred is non-nil, the shallowest candidate of that kind is
// selected; if no candidate of that kind exists, a candidate rooted at root
// itself is synthesized. Without a preference, candidates are ordered by
// (kind priority, depth) and the first is selected — Cargo beats Meson
// beats CMake beats SCons beats Make at equal depth, and shallower always
// beats deeper within the same kind.
func Detect(root string, preferred *Kind) (Candidate, error) {
	var candidates []Candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		kind, ok := signatures[d.Name()]
		if !ok {
			return nil
		}

		dir := filepath.Dir(path)
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			return err
		}
		candidates = append(candidates, Candidate{
			Kind:  kind,
			Dir:   dir,
			Depth: depthOf(rel),
		})
		return nil
	})
	if err != nil {
		return Candidate{}, errkind.Wrap(errkind.BuildStepFailed, "walk source tree for build-system detection", err)
	}

	if preferred != nil {
		return selectPreferred(root, *preferred, candidates), nil
	}

	if len(candidates) == 0 {
		return Candidate{}, errkind.New(errkind.BuildStepFailed, "no recognized build system found")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Kind.priority() != candidates[j].Kind.priority() {
			return candidates[i].Kind.priority() < candidates[j].Kind.priority()
		}
		return candidates[i].Depth < candidates[j].Depth
	})
	return candidates[0], nil
}

// selectPreferred returns the shallowest candidate of kind among
// candidates, or a candidate synthesized at root if none matches.
func selectPreferred(root string, kind Kind, candidates []Candidate) Candidate {
	var best *Candidate
	for i := range candidates {
		c := candidates[i]
		if c.Kind != kind {
			continue
		}
		if best == nil || c.Depth < best.Depth {
			best = &c
		}
	}
	if best != nil {
		return *best
	}
	return Candidate{Kind: kind, Dir: root, Depth: 0}
}

// depthOf counts the components of a relative path ("a" is 1, "a/b" is 2);
// "." (root itself) has depth 0.
func depthOf(rel string) int {
	if rel == "." {
		return 0
	}
	depth := 1
	for _, r := range rel {
		if r == filepath.Separator {
			depth++
		}
	}
	return depth
}
