package ops

import (
	"github.com/jwhitman/tally/internal/errors"
	"github.com/jwhitman/tally/internal/index"
)

// ReindexOutput contains the result of the Reindex operation.
type ReindexOutput struct {
	Notes int `json:"notes"`
}

// Reindex rebuilds the report index from scratch: every note is re-parsed
// regardless of recorded mtimes and entries for deleted notes are pruned.
func Reindex(env *Env) (*ReindexOutput, error) {
	if env.DB == nil {
		return nil, errors.NewInternal(nil)
	}
	n, err := index.NewScanner(env.Vault, env.DB, env.Cfg).Rebuild()
	if err != nil {
		return nil, err
	}
	return &ReindexOutput{Notes: n}, nil
}
