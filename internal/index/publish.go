package index

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/nxpkg/nxpkg/internal/arch"
	"github.com/nxpkg/nxpkg/internal/errkind"
	"github.com/nxpkg/nxpkg/internal/recipe"
)

// PublishOptions controls Publish.
type PublishOptions struct {
	RepoURL        string
	ArchivePath    string
	Recipe         recipe.Recipe
	Description    string
	BearerToken    string // optional
	SigningKeypair string // optional, base64 of a 64-byte ed25519 keypair (seed||pubkey)
}

// Publish uploads the archive at opts.ArchivePath to <RepoURL>/<name>-<version>.nxpkg,
// then fetches (or initializes) index.json, merges this release into the
// entry's per-architecture map keyed by the canonical host architecture
// token, mirrors the asset into the legacy fields, and PUTs the updated
// index. If a signing keypair is configured, the exact PUT body is signed
// and the base64 signature is PUT to index.json.sig. Mirrors
// original_source/src/db/upload.rs's upload_and_update_index.
func Publish(client *http.Client, opts PublishOptions) error {
	if client == nil {
		client = http.DefaultClient
	}

	name := opts.Recipe.Package.Name
	version := opts.Recipe.Package.Version
	filename := fmt.Sprintf("%s-%s.nxpkg", name, version)
	downloadURL := strings.TrimRight(opts.RepoURL, "/") + "/" + filename

	checksum, err := SHA256File(opts.ArchivePath)
	if err != nil {
		return err
	}

	if err := putFile(client, downloadURL, opts.ArchivePath, opts.BearerToken); err != nil {
		return err
	}

	idx, err := FetchIndex(client, opts.RepoURL, "", false)
	if err != nil {
		idx = RepoIndex{Packages: map[string]PackageEntry{}}
	}

	entry, ok := idx.Packages[name]
	if !ok {
		entry = PackageEntry{Architectures: map[string]ArchAsset{}}
	}
	if entry.Architectures == nil {
		entry.Architectures = map[string]ArchAsset{}
	}

	archToken := arch.Canonical(arch.Host())
	entry.Architectures[archToken] = ArchAsset{DownloadURL: downloadURL, SHA256: checksum}
	entry.LatestVersion = version
	entry.Description = opts.Description
	entry.DownloadURL = downloadURL
	entry.SHA256 = checksum

	idx.Packages[name] = entry

	body, err := json.Marshal(idx)
	if err != nil {
		return errkind.Wrap(errkind.ConfigInvalid, "marshal index.json", err)
	}

	indexURL := strings.TrimRight(opts.RepoURL, "/") + "/index.json"
	if err := putBytes(client, indexURL, body, "application/json", opts.BearerToken); err != nil {
		return err
	}

	if opts.SigningKeypair != "" {
		if err := signAndPublish(client, indexURL, body, opts.SigningKeypair, opts.BearerToken); err != nil {
			return err
		}
	}

	return nil
}

func signAndPublish(client *http.Client, indexURL string, body []byte, keypairB64, bearerToken string) error {
	kp, err := base64.StdEncoding.DecodeString(strings.TrimSpace(keypairB64))
	if err != nil || len(kp) != ed25519.PrivateKeySize {
		return errkind.New(errkind.ConfigInvalid, "ed25519 signing keypair must be 64 bytes (base64)")
	}
	sig := ed25519.Sign(ed25519.PrivateKey(kp), body)
	sigB64 := base64.StdEncoding.EncodeToString(sig)
	return putBytes(client, indexURL+".sig", []byte(sigB64), "text/plain", bearerToken)
}

func putFile(client *http.Client, url, path, bearerToken string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errkind.Wrap(errkind.StoreIoError, "read "+path, err)
	}
	return putBytes(client, url, data, "application/octet-stream", bearerToken)
}

func putBytes(client *http.Client, url string, body []byte, contentType, bearerToken string) error {
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return errkind.Wrap(errkind.NetworkUnavailable, "build request for "+url, err)
	}
	req.Header.Set("Content-Type", contentType)
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errkind.Wrap(errkind.NetworkUnavailable, "PUT "+url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errkind.New(errkind.NetworkUnavailable, "PUT "+url+" failed: "+resp.Status)
	}
	return nil
}
