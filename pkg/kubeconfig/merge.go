package kubeconfig

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/client-go/tools/clientcmd/api"
)

// Merger merges an incoming kubeconfig into a destination kubeconfig.
//
// Incoming contexts are renamed after their cluster and their credentials
// are renamed to "{cluster}-{user}" so that identically named users from
// different clusters cannot collide. When several incoming contexts
// reference the same cluster, the first in name order takes the cluster's
// name; the others keep their original names and are reported as skipped.
// Contexts whose (renamed) name already exists in the destination are
// dropped entirely; the destination's entry is kept verbatim. The result
// is flattened so it is usable standalone.
type Merger struct{}

// Opts control merge behaviour.
type Opts struct {
	// FailOnDuplicate returns a DuplicateContextError instead of silently
	// dropping incoming contexts that already exist in the destination.
	FailOnDuplicate bool

	// DropUnrenamed excludes contexts that are missing a cluster or user
	// from the merge entirely. When false such contexts are merged under
	// their original name.
	DropUnrenamed bool
}

// Rename records a context rename performed during a merge.
type Rename struct {
	Context    string
	NewContext string
	User       string
	NewUser    string
}

// Skip records a context that could not be renamed.
type Skip struct {
	Context string
	Reason  string
}

// Result describes what a merge did to the incoming document.
type Result struct {
	Renamed []Rename
	Skipped []Skip
	Dropped []string
}

// DuplicateContextError is returned when Opts.FailOnDuplicate is set and
// one or more incoming contexts already exist in the destination.
type DuplicateContextError struct {
	Duplicates []string
}

func (e DuplicateContextError) Error() string {
	return fmt.Sprintf("context(s) %s already exist in the destination kubeconfig", strings.Join(e.Duplicates, ", "))
}

// Merge returns the union of dst and src with src's contexts renamed and
// deduplicated. Neither input is modified. Destination entries always win:
// an incoming context, user or cluster never replaces an existing one, and
// dst's current-context is preserved.
func (m Merger) Merge(dst, src *api.Config, opts Opts) (*api.Config, *Result, error) {
	out := dst.DeepCopy()
	work := src.DeepCopy()
	res := &Result{}

	// entries that only incoming contexts reference; trimmed after the
	// dedup pass so a dropped context takes its cluster and user with it
	userCandidates := map[string]bool{}
	clusterCandidates := map[string]bool{}
	for _, ctx := range work.Contexts {
		userCandidates[ctx.AuthInfo] = true
		clusterCandidates[ctx.Cluster] = true
	}

	// rename pass, built from a snapshot so a renamed context can never
	// shadow one we have not visited yet
	renamed := map[string]*api.Context{}
	for _, name := range sortedContextNames(work.Contexts) {
		ctx := work.Contexts[name]

		if ctx.Cluster == "" || ctx.AuthInfo == "" {
			reason := "no cluster set"
			if ctx.Cluster != "" {
				reason = "no user set"
			}
			res.Skipped = append(res.Skipped, Skip{Context: name, Reason: reason})
			if _, taken := renamed[name]; !taken && !opts.DropUnrenamed {
				renamed[name] = ctx
			}
			continue
		}

		// two incoming contexts for one cluster cannot both take its
		// name; the first in name order wins and later ones keep their
		// original name so no context is silently lost
		if _, taken := renamed[ctx.Cluster]; taken {
			res.Skipped = append(res.Skipped, Skip{Context: name, Reason: fmt.Sprintf("cluster %s already has a context named after it", ctx.Cluster)})
			if _, selfTaken := renamed[name]; !selfTaken && !opts.DropUnrenamed {
				renamed[name] = ctx
			}
			continue
		}

		newUser := ctx.Cluster + "-" + ctx.AuthInfo
		// credentials may be shared between contexts, so copy the entry
		// instead of moving it; originals are trimmed below once nothing
		// references them anymore
		if user, ok := work.AuthInfos[ctx.AuthInfo]; ok {
			work.AuthInfos[newUser] = user.DeepCopy()
		}
		userCandidates[newUser] = true

		res.Renamed = append(res.Renamed, Rename{
			Context:    name,
			NewContext: ctx.Cluster,
			User:       ctx.AuthInfo,
			NewUser:    newUser,
		})

		ctx.AuthInfo = newUser
		renamed[ctx.Cluster] = ctx
	}
	work.Contexts = renamed

	// dedup pass: first seen in the destination wins, the incoming
	// duplicate is dropped without merging any of its fields
	for _, name := range sortedContextNames(work.Contexts) {
		if _, exists := out.Contexts[name]; exists {
			res.Dropped = append(res.Dropped, name)
			delete(work.Contexts, name)
		}
	}
	if opts.FailOnDuplicate && len(res.Dropped) > 0 {
		return nil, nil, DuplicateContextError{Duplicates: res.Dropped}
	}

	trimOrphans(work, userCandidates, clusterCandidates)

	// union pass: existing destination entries always win
	for name, cluster := range work.Clusters {
		if _, exists := out.Clusters[name]; !exists {
			out.Clusters[name] = cluster
		}
	}
	for name, user := range work.AuthInfos {
		if _, exists := out.AuthInfos[name]; !exists {
			out.AuthInfos[name] = user
		}
	}
	for name, ctx := range work.Contexts {
		if _, exists := out.Contexts[name]; !exists {
			out.Contexts[name] = ctx
		}
	}

	if err := api.FlattenConfig(out); err != nil {
		return nil, nil, fmt.Errorf("flattening merged kubeconfig: %w", err)
	}

	return out, res, nil
}

// trimOrphans removes candidate users and clusters that no remaining
// context references. Entries the incoming file never referenced from any
// context are left alone.
func trimOrphans(cfg *api.Config, userCandidates, clusterCandidates map[string]bool) {
	usersInUse := map[string]bool{}
	clustersInUse := map[string]bool{}
	for _, ctx := range cfg.Contexts {
		usersInUse[ctx.AuthInfo] = true
		clustersInUse[ctx.Cluster] = true
	}

	for name := range cfg.AuthInfos {
		if userCandidates[name] && !usersInUse[name] {
			delete(cfg.AuthInfos, name)
		}
	}
	for name := range cfg.Clusters {
		if clusterCandidates[name] && !clustersInUse[name] {
			delete(cfg.Clusters, name)
		}
	}
}

func sortedContextNames(contexts map[string]*api.Context) []string {
	names := make([]string, 0, len(contexts))
	for name := range contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
