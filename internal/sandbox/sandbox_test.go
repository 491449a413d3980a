package sandbox

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPrepareScaffold(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	if err := Prepare(root); err != nil {
		t.Fatalf("Prepare() err: %v", err)
	}

	for _, dir := range scaffoldDirs {
		fi, err := os.Stat(filepath.Join(root, dir))
		if err != nil {
			t.Fatalf("missing scaffold dir %q: %v", dir, err)
		}
		if !fi.IsDir() {
			t.Errorf("%q is not a directory", dir)
		}
	}

	tmpInfo, err := os.Stat(filepath.Join(root, "tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if tmpInfo.Mode()&os.ModeSticky == 0 {
		t.Errorf("tmp mode = %v, want sticky bit set", tmpInfo.Mode())
	}
}

func TestLddClosureParsing(t *testing.T) {
	tt := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "arrow form",
			line: "\tlibc.so.6 => /lib/x86_64-linux-gnu/libc.so.6 (0x00007f0000000000)",
			want: []string{"/lib/x86_64-linux-gnu/libc.so.6"},
		},
		{
			name: "bare linker path",
			line: "\t/lib64/ld-linux-x86-64.so.2 (0x00007f0000000000)",
			want: []string{"/lib64/ld-linux-x86-64.so.2"},
		},
		{
			// "not found" lines aren't special-cased (matching the original
			// implementation's own parser); the bogus "path" is filtered out
			// later when the copy step stats it and finds nothing there.
			name: "not found line yields a bogus non-existent path",
			line: "\tlibfoo.so => not found",
			want: []string{"not"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := parseLddOutputForTest(tc.line)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

// parseLddOutputForTest exercises the same line-classification logic as
// lddClosure without shelling out to ldd.
func parseLddOutputForTest(output string) []string {
	return lddClosureFromText(output)
}
