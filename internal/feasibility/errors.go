// Package feasibility decides whether a Blueprint's preconditions hold in the
// target project: store client, auth, unique tables, resolvable foreign keys,
// installed component dependencies, configured external APIs and free routes.
package feasibility

import (
	"fmt"
	"strings"
)

// BlockerError reports findings that make a Blueprint impossible to apply:
// table collisions and unresolved foreign keys.
type BlockerError struct {
	Score    int
	Blockers []string
}

func (e *BlockerError) Error() string {
	return fmt.Sprintf("blocked (score %d): %s", e.Score, strings.Join(e.Blockers, "; "))
}
