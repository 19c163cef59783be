package matrix

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/matrixci/internal/config"
)

func strValues(ss ...string) []cty.Value {
	out := make([]cty.Value, len(ss))
	for i, s := range ss {
		out[i] = cty.StringVal(s)
	}
	return out
}

func basePipeline() *config.Pipeline {
	return &config.Pipeline{
		Matrix: &config.Matrix{
			Axes: []*config.Axis{
				{Name: "os", Values: strValues("ubuntu-latest", "macos-latest")},
				{Name: "python", Values: strValues("3.9", "3.10")},
			},
		},
	}
}

func jobIDs(jobs []*JobSpec) []string {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID()
	}
	return ids
}

func TestExpand_CrossProductOrderAndCount(t *testing.T) {
	t.Parallel()

	jobs, err := Expand(basePipeline())
	require.NoError(t, err)

	require.Equal(t, []string{
		"os=ubuntu-latest,python=3.9",
		"os=ubuntu-latest,python=3.10",
		"os=macos-latest,python=3.9",
		"os=macos-latest,python=3.10",
	}, jobIDs(jobs))
}

func TestExpand_IsDeterministic(t *testing.T) {
	t.Parallel()

	p := basePipeline()
	p.Matrix.Includes = []*config.Include{
		{Keys: []string{"os", "deps"}, Bindings: map[string]cty.Value{
			"os":   cty.StringVal("ubuntu-latest"),
			"deps": cty.StringVal("minimal-deps"),
		}},
	}

	first, err := Expand(p)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := Expand(p)
		require.NoError(t, err)
		require.Equal(t, jobIDs(first), jobIDs(again))
	}
}

func TestExpand_IncludeMergesIntoFirstMatch(t *testing.T) {
	t.Parallel()

	p := basePipeline()
	p.Matrix.Includes = []*config.Include{
		{Keys: []string{"os", "deps"}, Bindings: map[string]cty.Value{
			"os":   cty.StringVal("ubuntu-latest"),
			"deps": cty.StringVal("minimal-deps"),
		}},
	}

	jobs, err := Expand(p)
	require.NoError(t, err)
	require.Len(t, jobs, 4, "a merging include must not change the job count")

	deps, ok := jobs[0].Binding("deps")
	require.True(t, ok, "first ubuntu job should carry the merged binding")
	require.Equal(t, "minimal-deps", deps.AsString())

	for _, job := range jobs[1:] {
		_, ok := job.Binding("deps")
		require.False(t, ok, "job %s should not carry deps", job.ID())
	}
}

func TestExpand_IncludeAppendsWhenNoMatch(t *testing.T) {
	t.Parallel()

	p := basePipeline()
	p.Matrix.Includes = []*config.Include{
		{Keys: []string{"os", "python"}, Bindings: map[string]cty.Value{
			"os":     cty.StringVal("windows-latest"),
			"python": cty.StringVal("3.11"),
		}},
	}

	jobs, err := Expand(p)
	require.NoError(t, err)
	require.Len(t, jobs, 5, "a non-matching include appends exactly one job")
	require.Equal(t, "os=windows-latest,python=3.11", jobs[4].ID())
}

func TestExpand_AppendedIncludeFillsUnsetAxes(t *testing.T) {
	t.Parallel()

	p := basePipeline()
	p.Matrix.Includes = []*config.Include{
		{Keys: []string{"os", "experimental"}, Bindings: map[string]cty.Value{
			"os":           cty.StringVal("freebsd-13"),
			"experimental": cty.True,
		}},
	}

	jobs, err := Expand(p)
	require.NoError(t, err)
	require.Len(t, jobs, 5)

	appended := jobs[4]
	python, ok := appended.Binding("python")
	require.True(t, ok)
	require.True(t, python.RawEquals(Unset))
	require.True(t, appended.Experimental())
	require.Equal(t, "freebsd-13", appended.OS())
}

func TestExpand_MultipleIncludesLastWriterWins(t *testing.T) {
	t.Parallel()

	p := basePipeline()
	p.Matrix.Includes = []*config.Include{
		{Keys: []string{"os", "deps"}, Bindings: map[string]cty.Value{
			"os":   cty.StringVal("ubuntu-latest"),
			"deps": cty.StringVal("minimal-deps"),
		}},
		{Keys: []string{"os", "deps"}, Bindings: map[string]cty.Value{
			"os":   cty.StringVal("ubuntu-latest"),
			"deps": cty.StringVal("full-deps"),
		}},
	}

	jobs, err := Expand(p)
	require.NoError(t, err)
	require.Len(t, jobs, 4)

	deps, ok := jobs[0].Binding("deps")
	require.True(t, ok)
	require.Equal(t, "full-deps", deps.AsString(), "the later include must win per key")

	// The key the first include merged must not push the second include onto
	// a sibling job.
	_, ok = jobs[1].Binding("deps")
	require.False(t, ok, "job %s should not carry deps", jobs[1].ID())
}

func TestExpand_VariablesShareOneEvaluationScope(t *testing.T) {
	t.Parallel()

	p := basePipeline()
	p.Matrix.Includes = []*config.Include{
		{Keys: []string{"os", "deps"}, Bindings: map[string]cty.Value{
			"os":   cty.StringVal("ubuntu-latest"),
			"deps": cty.StringVal("minimal-deps"),
		}},
	}

	jobs, err := Expand(p)
	require.NoError(t, err)

	// Every job's `matrix` object has the same shape; jobs without the
	// include-introduced binding see the Unset sentinel there.
	vars := jobs[1].Variables()
	require.True(t, vars.Type().HasAttribute("deps"))
	require.True(t, vars.GetAttr("deps").RawEquals(Unset))

	vars = jobs[0].Variables()
	require.Equal(t, "minimal-deps", vars.GetAttr("deps").AsString())
}

func TestExpand_ExperimentalFlagRequiresBoolTrue(t *testing.T) {
	t.Parallel()

	p := &config.Pipeline{
		Matrix: &config.Matrix{
			Axes: []*config.Axis{
				{Name: "os", Values: strValues("ubuntu-latest")},
				{Name: "experimental", Values: []cty.Value{cty.False, cty.True}},
			},
		},
	}

	jobs, err := Expand(p)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.False(t, jobs[0].Experimental())
	require.True(t, jobs[1].Experimental())
}

func TestExpand_MatrixWithOnlyIncludes(t *testing.T) {
	t.Parallel()

	p := &config.Pipeline{
		Matrix: &config.Matrix{
			Includes: []*config.Include{
				{Keys: []string{"os"}, Bindings: map[string]cty.Value{"os": cty.StringVal("ubuntu-latest")}},
				{Keys: []string{"os"}, Bindings: map[string]cty.Value{"os": cty.StringVal("macos-latest")}},
			},
		},
	}

	jobs, err := Expand(p)
	require.NoError(t, err)
	require.Equal(t, []string{"os=ubuntu-latest", "os=macos-latest"}, jobIDs(jobs))
}
