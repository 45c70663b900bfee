package emit

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// GeneratedMarker tags the header line of generated sources.
const GeneratedMarker = "@generated"

// Digest returns the hex BLAKE2b-256 of content with the generated-header
// lines removed, so unchanged Blueprints yield equal digests across runs.
func Digest(content string) string {
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, GeneratedMarker) {
			continue
		}
		kept = append(kept, line)
	}
	sum := blake2b.Sum256([]byte(strings.Join(kept, "\n")))
	return hex.EncodeToString(sum[:])
}
