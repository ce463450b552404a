package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// Resolver computes the single merged configuration value for a workspace,
// walking the precedence chain described by the Configuration Resolver:
// CLI assignments, per-conversation overrides, an upward CWD walk, the
// workspace file, the user-global file, environment variables, and
// compiled-in defaults, in that order of decreasing precedence.
type Resolver struct {
	WorkspaceRoot string
	CWD           string

	cli          *Partial
	conversation *Partial

	lastWatchedPaths []string
}

// NewResolver constructs a Resolver for the given workspace root and
// current working directory.
func NewResolver(workspaceRoot, cwd string) *Resolver {
	return &Resolver{WorkspaceRoot: workspaceRoot, CWD: cwd}
}

// SetCLIAssignments parses a batch of `path[op]=value` assignments (as
// supplied on the command line for a single turn) and installs them as the
// highest-precedence layer.
func (r *Resolver) SetCLIAssignments(assignments []string) error {
	ref := DefaultsPartial()
	target := Empty()
	for _, raw := range assignments {
		a, err := ParseAssignment(raw)
		if err != nil {
			return err
		}
		if err := Apply(target, ref, a); err != nil {
			return err
		}
	}
	r.cli = target
	return nil
}

// SetConversationPartial installs the per-conversation configuration layer
// (typically decoded from the conversation's stored context).
func (r *Resolver) SetConversationPartial(p *Partial) { r.conversation = p }

// Resolve computes the fully merged configuration, reading every layer's
// backing file fresh from disk, and returns the paths it consulted (for the
// caller to pass to Watch).
func (r *Resolver) Resolve() (*Partial, []string, error) {
	var watched []string

	merged := DefaultsPartial()
	merged = EnvPartial().WithFallback(merged)

	if dir, err := UserGlobalDir(); err == nil {
		if path, ok := findConfigFile(dir); ok {
			p, err := loadPartial(path)
			if err != nil {
				return nil, nil, err
			}
			merged = p.WithFallback(merged)
			watched = append(watched, path)
		}
	}

	if r.WorkspaceRoot != "" {
		if path, ok := findConfigFile(r.WorkspaceRoot); ok {
			p, err := loadPartial(path)
			if err != nil {
				return nil, nil, err
			}
			merged = p.WithFallback(merged)
			watched = append(watched, path)
		}
	}

	if r.CWD != "" {
		stop := r.WorkspaceRoot
		if stop == "" {
			stop = r.CWD
		}
		found := findUpward(r.CWD, stop)
		acc := Empty()
		for i := len(found) - 1; i >= 0; i-- {
			p, err := loadPartial(found[i])
			if err != nil {
				return nil, nil, err
			}
			acc = p.WithFallback(acc)
			watched = append(watched, found[i])
		}
		merged = acc.WithFallback(merged)
	}

	if r.conversation != nil {
		merged = r.conversation.WithFallback(merged)
	}
	if r.cli != nil {
		merged = r.cli.WithFallback(merged)
	}

	r.lastWatchedPaths = watched
	return merged, watched, nil
}

func loadPartial(path string) (*Partial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	decoded, err := decodeFile(path, data)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Msg("config: loaded layer")
	return FromValue(decoded, LeafOverridden), nil
}
