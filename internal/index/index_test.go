package index

import (
	"crypto/ed25519"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/nxpkg/nxpkg/internal/errkind"
)

func signedServer(t *testing.T, body []byte, priv ed25519.PrivateKey, tamperSig bool) *httptest.Server {
	t.Helper()
	sig := ed25519.Sign(priv, body)
	sigB64 := base64.StdEncoding.EncodeToString(sig)
	if tamperSig {
		sigB64 = base64.StdEncoding.EncodeToString(append([]byte(nil), sig[:len(sig)-1]...))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	})
	mux.HandleFunc("/index.json.sig", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sigB64))
	})
	return httptest.NewServer(mux)
}

func TestFetchIndexSignatureEnforcement(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	pubB64 := base64.StdEncoding.EncodeToString(pub)
	body := []byte(`{"packages":{"demo":{"latest_version":"1.0.0","description":"x"}}}`)

	t.Run("valid signature succeeds", func(t *testing.T) {
		srv := signedServer(t, body, priv, false)
		defer srv.Close()
		idx, err := FetchIndex(srv.Client(), srv.URL, pubB64, true)
		if err != nil {
			t.Fatalf("FetchIndex() err: %v", err)
		}
		if idx.Packages["demo"].LatestVersion != "1.0.0" {
			t.Errorf("unexpected index: %+v", idx)
		}
	})

	t.Run("tampered signature fails", func(t *testing.T) {
		srv := signedServer(t, body, priv, true)
		defer srv.Close()
		_, err := FetchIndex(srv.Client(), srv.URL, pubB64, true)
		if !errkind.Is(err, errkind.IndexSignatureInvalid) {
			t.Fatalf("FetchIndex() err = %v, want IndexSignatureInvalid", err)
		}
	})

	t.Run("require signature without pubkey aborts", func(t *testing.T) {
		srv := signedServer(t, body, priv, false)
		defer srv.Close()
		_, err := FetchIndex(srv.Client(), srv.URL, "", true)
		if !errkind.Is(err, errkind.ConfigInvalid) {
			t.Fatalf("FetchIndex() err = %v, want ConfigInvalid", err)
		}
	})

	t.Run("tampered signature tolerated when not required", func(t *testing.T) {
		srv := signedServer(t, body, priv, true)
		defer srv.Close()
		idx, err := FetchIndex(srv.Client(), srv.URL, pubB64, false)
		if err != nil {
			t.Fatalf("FetchIndex() err: %v, want index parsed despite bad signature", err)
		}
		if idx.Packages["demo"].LatestVersion != "1.0.0" {
			t.Errorf("unexpected index: %+v", idx)
		}
	})
}

func TestResolveAsset(t *testing.T) {
	tt := []struct {
		name  string
		entry PackageEntry
		ok    bool
	}{
		{
			name:  "legacy fields only",
			entry: PackageEntry{DownloadURL: "https://example.com/demo.nxpkg", SHA256: "abc"},
			ok:    true,
		},
		{
			name:  "no asset at all",
			entry: PackageEntry{},
			ok:    false,
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, _, ok := ResolveAsset(tc.entry)
			if ok != tc.ok {
				t.Errorf("ResolveAsset() ok = %v, want %v", ok, tc.ok)
			}
		})
	}
}

func TestDownloadChecksum(t *testing.T) {
	content := []byte("hello world")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out.bin")

	t.Run("matching checksum", func(t *testing.T) {
		sum := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
		if err := Download(srv.Client(), srv.URL, dest, sum); err != nil {
			t.Fatalf("Download() err: %v", err)
		}
		if _, err := os.Stat(dest); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("mismatching checksum removes dest", func(t *testing.T) {
		dest2 := filepath.Join(t.TempDir(), "out2.bin")
		err := Download(srv.Client(), srv.URL, dest2, "0000000000000000000000000000000000000000000000000000000000000000")
		if !errkind.Is(err, errkind.ChecksumMismatch) {
			t.Fatalf("Download() err = %v, want ChecksumMismatch", err)
		}
		if _, statErr := os.Stat(dest2); statErr == nil {
			t.Error("dest was not removed after checksum mismatch")
		}
	})
}
