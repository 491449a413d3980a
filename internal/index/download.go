package index

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/nxpkg/nxpkg/internal/errkind"
)

// Download streams the body of url into dest in chunks, hashing as it
// goes. If expectedSHA256 is non-empty, the downloaded file's digest is
// compared (case-insensitively); on mismatch dest is removed and the call
// fails with ChecksumMismatch.
func Download(client *http.Client, url, dest, expectedSHA256 string) error {
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Get(url)
	if err != nil {
		return errkind.Wrap(errkind.NetworkUnavailable, "download "+url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errkind.New(errkind.NetworkUnavailable, "unexpected status "+resp.Status+" for "+url)
	}

	f, err := os.Create(dest)
	if err != nil {
		return errkind.Wrap(errkind.StoreIoError, "create "+dest, err)
	}

	hasher := sha256.New()
	_, copyErr := io.Copy(io.MultiWriter(f, hasher), resp.Body)
	closeErr := f.Close()

	if copyErr != nil {
		os.Remove(dest)
		return errkind.Wrap(errkind.NetworkUnavailable, "stream download body", copyErr)
	}
	if closeErr != nil {
		os.Remove(dest)
		return errkind.Wrap(errkind.StoreIoError, "close "+dest, closeErr)
	}

	if expectedSHA256 != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(got, expectedSHA256) {
			os.Remove(dest)
			return errkind.New(errkind.ChecksumMismatch, "expected "+expectedSHA256+", got "+got)
		}
	}

	return nil
}

// SHA256File computes the lowercase-hex SHA-256 digest of the file at path,
// used by the publish path to populate a new asset's checksum.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errkind.Wrap(errkind.StoreIoError, "open "+path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", errkind.Wrap(errkind.StoreIoError, "hash "+path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
