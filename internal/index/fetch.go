package index

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nxpkg/nxpkg/internal/errkind"
)

// FetchIndex retrieves <baseURL>/index.json.
//
// If pubkeyB64 is non-empty, the detached signature at
// <baseURL>/index.json.sig is also fetched and verified over the exact
// served bytes of index.json before parsing. If requireSignature is set and
// either the signature can't be fetched/decoded or verification fails, the
// fetch aborts; if requireSignature is set and no pubkey was supplied, the
// fetch aborts without attempting a network call. If requireSignature is
// NOT set, a pubkey is only consulted opportunistically: a missing or bad
// signature is logged and the index is still parsed and returned.
func FetchIndex(client *http.Client, baseURL, pubkeyB64 string, requireSignature bool) (RepoIndex, error) {
	if requireSignature && pubkeyB64 == "" {
		return RepoIndex{}, errkind.New(errkind.ConfigInvalid, "require-signed-index is set but no public key is configured")
	}

	body, err := getBytes(client, strings.TrimRight(baseURL, "/")+"/index.json")
	if err != nil {
		return RepoIndex{}, errkind.Wrap(errkind.NetworkUnavailable, "fetch index.json", err)
	}

	if pubkeyB64 != "" {
		if err := verifyIndexSignature(client, baseURL, pubkeyB64, body); err != nil {
			if requireSignature {
				return RepoIndex{}, err
			}
			slog.Warn("index signature verification failed, continuing unverified", "baseURL", baseURL, "error", err)
		}
	}

	var idx RepoIndex
	if err := json.Unmarshal(body, &idx); err != nil {
		return RepoIndex{}, errkind.Wrap(errkind.ConfigInvalid, "parse index.json", err)
	}
	if idx.Packages == nil {
		idx.Packages = map[string]PackageEntry{}
	}
	return idx, nil
}

func verifyIndexSignature(client *http.Client, baseURL, pubkeyB64 string, indexBytes []byte) error {
	sigText, err := getBytes(client, strings.TrimRight(baseURL, "/")+"/index.json.sig")
	if err != nil {
		return errkind.Wrap(errkind.IndexSignatureMissing, "fetch index.json.sig", err)
	}

	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(sigText)))
	if err != nil {
		return errkind.Wrap(errkind.IndexSignatureInvalid, "decode signature", err)
	}

	pubkey, err := base64.StdEncoding.DecodeString(strings.TrimSpace(pubkeyB64))
	if err != nil || len(pubkey) != ed25519.PublicKeySize {
		return errkind.New(errkind.IndexSignatureInvalid, "malformed public key")
	}

	if !ed25519.Verify(ed25519.PublicKey(pubkey), indexBytes, sig) {
		return errkind.New(errkind.IndexSignatureInvalid, "signature does not verify against configured public key")
	}
	return nil
}

func getBytes(client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errkind.New(errkind.NetworkUnavailable, "unexpected status "+resp.Status+" for "+url)
	}
	return io.ReadAll(resp.Body)
}
