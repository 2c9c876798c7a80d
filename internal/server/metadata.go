package server

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/mattjoyce/niftyapes-action/internal/interaction"
)

// metadataDocument is an action's metadata encoded once, with a strong ETag.
type metadataDocument struct {
	body []byte
	etag string
}

func newMetadataDocument(md interaction.Metadata) (*metadataDocument, error) {
	body, err := json.Marshal(md)
	if err != nil {
		return nil, err
	}
	sum := blake3.Sum256(body)
	return &metadataDocument{
		body: body,
		etag: `"` + hex.EncodeToString(sum[:16]) + `"`,
	}, nil
}

func (d *metadataDocument) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", d.etag)
	w.Header().Set("Cache-Control", "public, max-age=300")

	if etagMatches(r.Header.Get("If-None-Match"), d.etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(d.body)
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
