package secrets

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// EnvRef is one environment declaration handed to the resolver: a literal
// value, a secret reference (Secret), or a generated value (Generate).
type EnvRef struct {
	Key      string
	Value    string
	Secret   bool
	Generate bool
}

// Resolver assembles the runtime environment for a service from its
// declared env refs, the secret store, and the process environment.
// For secret references the store wins; the process environment is the
// fallback so CI runs can inject values without touching the store.
type Resolver struct {
	Store *Store

	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Resolution is the assembled environment for one service run. Missing
// lists secret keys with no value anywhere; they are omitted from Env and
// the run proceeds, failing downstream if the application needs them.
type Resolution struct {
	Env        map[string]string
	Missing    []string
	SecretKeys []string
}

// Resolve builds the environment for the named service, walking refs in
// declaration order so later duplicates win.
func (r *Resolver) Resolve(service string, refs []EnvRef) (*Resolution, error) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	res := &Resolution{Env: make(map[string]string, len(refs))}
	var marked []string

	for _, ev := range refs {
		if ev.Key == "" {
			continue
		}

		switch {
		case ev.Generate:
			value, err := r.generated(service, ev.Key)
			if err != nil {
				return nil, err
			}
			res.Env[ev.Key] = value
			marked = append(marked, ev.Key)

		case ev.Secret:
			marked = append(marked, ev.Key)
			if r.Store != nil {
				value, ok, err := r.Store.Lookup(service, ev.Key)
				if err != nil {
					return nil, err
				}
				if ok {
					res.Env[ev.Key] = value
					continue
				}
			}
			if value := getenv(ev.Key); value != "" {
				res.Env[ev.Key] = value
				continue
			}
			res.Missing = append(res.Missing, ev.Key)

		default:
			res.Env[ev.Key] = ev.Value
		}
	}

	res.SecretKeys = MergeSecretNames(marked, SecretVariableNames(res.Env))
	return res, nil
}

// generated returns the persisted generated value for the key, minting and
// storing a new one on first use so restarts keep the same value.
func (r *Resolver) generated(service, key string) (string, error) {
	if r.Store == nil {
		return uuid.NewString(), nil
	}

	value, ok, err := r.Store.Lookup(service, key)
	if err != nil {
		return "", err
	}
	if ok {
		return value, nil
	}

	value = uuid.NewString()
	if err := r.Store.Set(service, key, value); err != nil {
		return "", fmt.Errorf("failed to persist generated value for %s: %w", key, err)
	}
	return value, nil
}
