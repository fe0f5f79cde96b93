// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads operator credentials from a directory of plain-text
// files. The filename is the key and the trimmed contents are the value.
//
// The only key the engine reads is arxiv-contact-email, which is added to
// the User-Agent of metadata requests so the API operator can reach the
// person running the crawl.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ContactEmail is the key file holding the operator's contact address.
const ContactEmail = "arxiv-contact-email"

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error. Unreadable files are reported to w and skipped.
func Load(dir string, w io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// UserAgent returns product/version, with a mailto comment when contact is
// set (e.g. "citation-engine/1.2 (mailto:me@example.org)").
func UserAgent(product, version, contact string) string {
	ua := product + "/" + strings.TrimPrefix(version, "v")
	if contact = strings.TrimSpace(contact); contact != "" {
		ua += " (mailto:" + contact + ")"
	}
	return ua
}
