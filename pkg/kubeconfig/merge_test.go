package kubeconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/tools/clientcmd/api"
)

func newTestConfig() *api.Config {
	return api.NewConfig()
}

func addCluster(cfg *api.Config, name, server string) {
	cluster := api.NewCluster()
	cluster.Server = server
	cfg.Clusters[name] = cluster
}

func addUser(cfg *api.Config, name, token string) {
	user := api.NewAuthInfo()
	user.Token = token
	cfg.AuthInfos[name] = user
}

func addContext(cfg *api.Config, name, cluster, user string) {
	ctx := api.NewContext()
	ctx.Cluster = cluster
	ctx.AuthInfo = user
	cfg.Contexts[name] = ctx
}

func TestMergeRenamesContextsAndUsers(t *testing.T) {
	// default has context A (cluster c1, user u1); incoming has context
	// ctxX (cluster c2, user u1)
	dst := newTestConfig()
	addCluster(dst, "c1", "https://c1.example.com")
	addUser(dst, "u1", "dst-token")
	addContext(dst, "A", "c1", "u1")
	dst.CurrentContext = "A"

	src := newTestConfig()
	addCluster(src, "c2", "https://c2.example.com")
	addUser(src, "u1", "src-token")
	addContext(src, "ctxX", "c2", "u1")

	out, result, err := Merger{}.Merge(dst, src, Opts{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"A", "c2"}, contextNames(out))

	// incoming context is renamed after its cluster and its credential
	// becomes {cluster}-{user}
	require.Contains(t, out.Contexts, "c2")
	assert.Equal(t, "c2", out.Contexts["c2"].Cluster)
	assert.Equal(t, "c2-u1", out.Contexts["c2"].AuthInfo)

	require.Contains(t, out.AuthInfos, "c2-u1")
	assert.Equal(t, "src-token", out.AuthInfos["c2-u1"].Token)

	// the destination's user u1 is untouched; the incoming u1 does not
	// overwrite it and is not merged under its original name either
	assert.Equal(t, "dst-token", out.AuthInfos["u1"].Token)

	// A is unchanged and remains current
	assert.Equal(t, "c1", out.Contexts["A"].Cluster)
	assert.Equal(t, "u1", out.Contexts["A"].AuthInfo)
	assert.Equal(t, "A", out.CurrentContext)

	require.Len(t, result.Renamed, 1)
	assert.Equal(t, Rename{Context: "ctxX", NewContext: "c2", User: "u1", NewUser: "c2-u1"}, result.Renamed[0])
	assert.Empty(t, result.Skipped)
	assert.Empty(t, result.Dropped)
}

func TestMergeDropsDuplicateContexts(t *testing.T) {
	// both sides end up with a context literally named c2: the incoming
	// one is dropped entirely, the destination's is kept verbatim
	dst := newTestConfig()
	addCluster(dst, "existing", "https://existing.example.com")
	addUser(dst, "admin", "dst-token")
	addContext(dst, "c2", "existing", "admin")

	src := newTestConfig()
	addCluster(src, "c2", "https://incoming.example.com")
	addUser(src, "u2", "src-token")
	addContext(src, "ctxY", "c2", "u2")

	out, result, err := Merger{}.Merge(dst, src, Opts{})
	require.NoError(t, err)

	assert.Equal(t, []string{"c2"}, result.Dropped)
	assert.Equal(t, []string{"c2"}, contextNames(out))

	// the destination entry is untouched
	assert.Equal(t, "existing", out.Contexts["c2"].Cluster)
	assert.Equal(t, "admin", out.Contexts["c2"].AuthInfo)

	// the dropped context takes its cluster and renamed user with it
	assert.NotContains(t, out.Clusters, "c2")
	assert.NotContains(t, out.AuthInfos, "c2-u2")
	assert.NotContains(t, out.AuthInfos, "u2")
}

func TestMergeFailOnDuplicate(t *testing.T) {
	dst := newTestConfig()
	addCluster(dst, "c2", "https://c2.example.com")
	addUser(dst, "admin", "t")
	addContext(dst, "c2", "c2", "admin")

	src := newTestConfig()
	addCluster(src, "c2", "https://other.example.com")
	addUser(src, "u2", "t")
	addContext(src, "ctxY", "c2", "u2")

	_, _, err := Merger{}.Merge(dst, src, Opts{FailOnDuplicate: true})
	var dce DuplicateContextError
	require.ErrorAs(t, err, &dce)
	assert.Equal(t, []string{"c2"}, dce.Duplicates)
}

func TestMergeSkipsContextsWithoutClusterOrUser(t *testing.T) {
	tests := []struct {
		name          string
		cluster       string
		user          string
		reason        string
		dropUnrenamed bool
		wantMerged    bool
	}{
		{name: "no cluster is merged under original name", cluster: "", user: "u1", reason: "no cluster set", wantMerged: true},
		{name: "no user is merged under original name", cluster: "c1", user: "", reason: "no user set", wantMerged: true},
		{name: "no cluster with drop policy", cluster: "", user: "u1", reason: "no cluster set", dropUnrenamed: true, wantMerged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := newTestConfig()

			src := newTestConfig()
			if tt.user != "" {
				addUser(src, tt.user, "t")
			}
			if tt.cluster != "" {
				addCluster(src, tt.cluster, "https://c1.example.com")
			}
			addContext(src, "partial", tt.cluster, tt.user)

			out, result, err := Merger{}.Merge(dst, src, Opts{DropUnrenamed: tt.dropUnrenamed})
			require.NoError(t, err)

			require.Len(t, result.Skipped, 1)
			assert.Equal(t, Skip{Context: "partial", Reason: tt.reason}, result.Skipped[0])
			assert.Empty(t, result.Renamed)

			if tt.wantMerged {
				require.Contains(t, out.Contexts, "partial")
				// left as-is: neither the context nor its user is renamed
				assert.Equal(t, tt.user, out.Contexts["partial"].AuthInfo)
			} else {
				assert.NotContains(t, out.Contexts, "partial")
			}
		})
	}
}

func TestMergeSkippedContextDedupsUnderOriginalName(t *testing.T) {
	dst := newTestConfig()
	addCluster(dst, "c1", "https://c1.example.com")
	addUser(dst, "u1", "dst-token")
	addContext(dst, "partial", "c1", "u1")

	src := newTestConfig()
	addUser(src, "u2", "src-token")
	addContext(src, "partial", "", "u2")

	out, result, err := Merger{}.Merge(dst, src, Opts{})
	require.NoError(t, err)

	assert.Equal(t, []string{"partial"}, result.Dropped)
	assert.Equal(t, "u1", out.Contexts["partial"].AuthInfo)
	assert.NotContains(t, out.AuthInfos, "u2")
}

func TestMergePreservesDestination(t *testing.T) {
	dst := newTestConfig()
	addCluster(dst, "c1", "https://c1.example.com")
	addCluster(dst, "spare", "https://spare.example.com")
	addUser(dst, "u1", "t1")
	addUser(dst, "u2", "t2")
	addContext(dst, "A", "c1", "u1")
	addContext(dst, "B", "c1", "u2")
	dst.CurrentContext = "B"

	src := newTestConfig()
	addCluster(src, "c9", "https://c9.example.com")
	addUser(src, "u9", "t9")
	addContext(src, "X", "c9", "u9")

	out, _, err := Merger{}.Merge(dst, src, Opts{})
	require.NoError(t, err)

	// every pre-existing entry survives the merge unchanged
	for name, cluster := range dst.Clusters {
		assert.Empty(t, cmp.Diff(cluster, out.Clusters[name]))
	}
	for name, user := range dst.AuthInfos {
		assert.Empty(t, cmp.Diff(user, out.AuthInfos[name]))
	}
	for name, ctx := range dst.Contexts {
		assert.Empty(t, cmp.Diff(ctx, out.Contexts[name]))
	}
	assert.Equal(t, "B", out.CurrentContext)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	dst := newTestConfig()
	addCluster(dst, "c1", "https://c1.example.com")
	addUser(dst, "u1", "t1")
	addContext(dst, "A", "c1", "u1")

	src := newTestConfig()
	addCluster(src, "c2", "https://c2.example.com")
	addUser(src, "u1", "t2")
	addContext(src, "ctxX", "c2", "u1")

	dstBefore := dst.DeepCopy()
	srcBefore := src.DeepCopy()

	_, _, err := Merger{}.Merge(dst, src, Opts{})
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(dstBefore, dst))
	assert.Empty(t, cmp.Diff(srcBefore, src))
}

func TestMergeIdempotent(t *testing.T) {
	dst := newTestConfig()
	addCluster(dst, "c1", "https://c1.example.com")
	addUser(dst, "u1", "t1")
	addContext(dst, "A", "c1", "u1")

	src := newTestConfig()
	addCluster(src, "c2", "https://c2.example.com")
	addUser(src, "u1", "t2")
	addContext(src, "ctxX", "c2", "u1")

	first, _, err := Merger{}.Merge(dst, src, Opts{})
	require.NoError(t, err)

	second, result, err := Merger{}.Merge(first, src, Opts{})
	require.NoError(t, err)

	// every incoming context now collides with its renamed self
	assert.Equal(t, []string{"c2"}, result.Dropped)
	assert.Empty(t, cmp.Diff(first, second))
}

func TestMergeTwoContextsForOneCluster(t *testing.T) {
	// an admin and a dev context for the same cluster is a valid
	// kubeconfig; only one of them can take the cluster's name and the
	// other must survive under its original name
	dst := newTestConfig()

	src := newTestConfig()
	addCluster(src, "c1", "https://c1.example.com")
	addUser(src, "admin", "admin-token")
	addUser(src, "dev", "dev-token")
	addContext(src, "ctxAdmin", "c1", "admin")
	addContext(src, "ctxDev", "c1", "dev")

	out, result, err := Merger{}.Merge(dst, src, Opts{})
	require.NoError(t, err)

	require.Len(t, out.Contexts, 2)
	assert.ElementsMatch(t, []string{"c1", "ctxDev"}, contextNames(out))

	// first in name order takes the cluster's name
	assert.Equal(t, "c1-admin", out.Contexts["c1"].AuthInfo)
	assert.Equal(t, "admin-token", out.AuthInfos["c1-admin"].Token)

	// the loser keeps its original name and credential
	assert.Equal(t, "dev", out.Contexts["ctxDev"].AuthInfo)
	assert.Equal(t, "dev-token", out.AuthInfos["dev"].Token)
	assert.NotContains(t, out.AuthInfos, "c1-dev")

	// one rename, one skip, nothing silently lost
	require.Len(t, result.Renamed, 1)
	assert.Equal(t, "ctxAdmin", result.Renamed[0].Context)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "ctxDev", result.Skipped[0].Context)
	assert.Empty(t, result.Dropped)
}

func TestMergeTwoContextsForOneClusterDropPolicy(t *testing.T) {
	dst := newTestConfig()

	src := newTestConfig()
	addCluster(src, "c1", "https://c1.example.com")
	addUser(src, "admin", "admin-token")
	addUser(src, "dev", "dev-token")
	addContext(src, "ctxAdmin", "c1", "admin")
	addContext(src, "ctxDev", "c1", "dev")

	out, result, err := Merger{}.Merge(dst, src, Opts{DropUnrenamed: true})
	require.NoError(t, err)

	// with the drop policy the loser is excluded and takes its
	// credential with it
	assert.Equal(t, []string{"c1"}, contextNames(out))
	assert.NotContains(t, out.AuthInfos, "dev")
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "ctxDev", result.Skipped[0].Context)
}

func TestMergeSharedCredential(t *testing.T) {
	dst := newTestConfig()

	src := newTestConfig()
	addCluster(src, "c1", "https://c1.example.com")
	addCluster(src, "c2", "https://c2.example.com")
	addUser(src, "shared", "shared-token")
	addContext(src, "ctxA", "c1", "shared")
	addContext(src, "ctxB", "c2", "shared")

	out, result, err := Merger{}.Merge(dst, src, Opts{})
	require.NoError(t, err)
	require.Len(t, result.Renamed, 2)

	// each rename gets its own copy of the credential, and the shared
	// original is trimmed once nothing references it
	assert.Equal(t, "shared-token", out.AuthInfos["c1-shared"].Token)
	assert.Equal(t, "shared-token", out.AuthInfos["c2-shared"].Token)
	assert.NotContains(t, out.AuthInfos, "shared")
}

func TestMergeFlattensFileReferences(t *testing.T) {
	caPEM := []byte("-----BEGIN CERTIFICATE-----\nZmFrZQ==\n-----END CERTIFICATE-----\n")
	caPath := filepath.Join(t.TempDir(), "ca.crt")
	require.NoError(t, os.WriteFile(caPath, caPEM, 0600))

	dst := newTestConfig()

	src := newTestConfig()
	cluster := api.NewCluster()
	cluster.Server = "https://c1.example.com"
	cluster.CertificateAuthority = caPath
	src.Clusters["c1"] = cluster
	addUser(src, "u1", "t1")
	addContext(src, "ctxA", "c1", "u1")

	out, _, err := Merger{}.Merge(dst, src, Opts{})
	require.NoError(t, err)

	// flattening inlines the CA file so the merged document is
	// self-contained
	merged := out.Clusters["c1"]
	assert.Equal(t, caPEM, merged.CertificateAuthorityData)
	assert.Empty(t, merged.CertificateAuthority)
}

func contextNames(cfg *api.Config) []string {
	names := make([]string, 0, len(cfg.Contexts))
	for name := range cfg.Contexts {
		names = append(names, name)
	}
	return names
}
