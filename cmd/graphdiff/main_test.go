package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gderrors "github.com/fluxcd/graphdiff/pkg/errors"
)

const (
	originalDoc = `
name: app
image: web:1
replicas: 1
labels:
  tier: web
items: [1, 2]
`
	revisedDoc = `
name: app
image: web:2
replicas: 1
labels:
  tier: api
owner: me
items: [2, 1]
`
)

// setup writes files into a fresh directory, and returns a function
// giving the path of each.
func setup(t *testing.T, files map[string]string) (func(string) string, func()) {
	dir, err := ioutil.TempDir("", "graphdiff-cmd")
	require.NoError(t, err)
	for name, content := range files {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
	return func(name string) string {
			return filepath.Join(dir, name)
		}, func() {
			os.RemoveAll(dir)
		}
}

func execute(stdin string, args ...string) (stdout, stderr string, err error) {
	cmd := newRoot().Command()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	_, err = cmd.ExecuteC()
	return out.String(), errOut.String(), err
}

func TestDiffText(t *testing.T) {
	path, cleanup := setup(t, map[string]string{"a.yaml": originalDoc, "b.yaml": revisedDoc})
	defer cleanup()

	out, _, err := execute("", "diff", path("a.yaml"), path("b.yaml"))
	require.NoError(t, err)
	assert.Equal(t, `["image"]: "web:2"
["items"][0]: 2
["items"][1]: 1
["labels"]["tier"]: "api"
["owner"]: "me"
`, out)
}

func TestDiffJSON(t *testing.T) {
	path, cleanup := setup(t, map[string]string{
		"a.json": `{"replicas": 1, "name": "app"}`,
		"b.yaml": "replicas: 3\nname: app\n",
	})
	defer cleanup()

	out, _, err := execute("", "diff", "-o", "json", path("a.json"), path("b.yaml"))
	require.NoError(t, err)
	var changes []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &changes))
	assert.Equal(t, []map[string]interface{}{
		{"path": `["replicas"]`, "value": 3.0},
	}, changes)
}

func TestDiffYAMLWithoutChanges(t *testing.T) {
	path, cleanup := setup(t, map[string]string{"a.yaml": originalDoc})
	defer cleanup()

	out, _, err := execute("", "diff", "--output", "yaml", path("a.yaml"), path("a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestDiffFromStdin(t *testing.T) {
	path, cleanup := setup(t, map[string]string{"b.yaml": revisedDoc})
	defer cleanup()

	out, _, err := execute(originalDoc, "diff", "--path", "labels", "-", path("b.yaml"))
	require.NoError(t, err)
	assert.Equal(t, `["tier"]: "api"`+"\n", out)

	_, _, err = execute(originalDoc, "diff", "-", "-")
	assert.IsType(t, usageError{}, err)
}

func TestDiffErrors(t *testing.T) {
	path, cleanup := setup(t, map[string]string{
		"a.yaml":    originalDoc,
		"list.yaml": "[1, 2]",
	})
	defer cleanup()

	_, _, err := execute("", "diff", path("a.yaml"))
	assert.Equal(t, errorWantedTwoArgs, err)

	_, _, err = execute("", "diff", "-o", "xml", path("a.yaml"), path("a.yaml"))
	assert.Equal(t, errorInvalidOutputFormat, err)

	_, _, err = execute("", "diff", path("a.yaml"), path("nope.yaml"))
	assert.True(t, gderrors.IsMissing(err))

	_, _, err = execute("", "diff", "--path", "spec.template", path("a.yaml"), path("a.yaml"))
	assert.True(t, gderrors.IsMissing(err))

	_, _, err = execute("", "diff", path("a.yaml"), path("list.yaml"))
	assert.True(t, gderrors.IsUser(err))
}

func TestCompare(t *testing.T) {
	path, cleanup := setup(t, map[string]string{
		"a.yaml": originalDoc,
		"b.yaml": revisedDoc,
		"graphdiff.yaml": `
version: "1"
unordered: [array]
ignore:
- type: object
  members: [image, owner, "lab*"]
`,
	})
	defer cleanup()

	out, _, err := execute("", "compare", path("a.yaml"), path("a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "documents are equal\n", out)

	out, _, err = execute("", "compare", path("a.yaml"), path("b.yaml"))
	assert.Equal(t, errDifferent, err)
	assert.Equal(t, "documents differ\n", out)

	out, _, err = execute("", "compare", "-q", path("a.yaml"), path("b.yaml"))
	assert.Equal(t, errDifferent, err)
	assert.Empty(t, out)

	out, _, err = execute("", "compare", "-c", path("graphdiff.yaml"), path("a.yaml"), path("b.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "documents are equal\n", out)
}

func TestConfigErrors(t *testing.T) {
	path, cleanup := setup(t, map[string]string{
		"a.yaml":   originalDoc,
		"bad.yaml": "version: \"1\"\nunordered: [object]\n",
	})
	defer cleanup()

	_, _, err := execute("", "compare", "-c", path("bad.yaml"), path("a.yaml"), path("a.yaml"))
	assert.True(t, gderrors.IsUser(err))

	_, _, err = execute("", "compare", "-c", path("missing.yaml"), path("a.yaml"), path("a.yaml"))
	assert.True(t, gderrors.IsMissing(err))

	_, _, err = execute("", "compare", "--log-format", "xml", path("a.yaml"), path("a.yaml"))
	assert.Equal(t, errorInvalidLogFormat, err)
}

func TestVerboseLogging(t *testing.T) {
	path, cleanup := setup(t, map[string]string{"a.yaml": originalDoc})
	defer cleanup()

	_, stderr, err := execute("", "diff", "-v", "--log-format", "json", path("a.yaml"), path("a.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stderr, `"method":"Diff"`)
	assert.Contains(t, stderr, `"component":"engine"`)
	assert.Contains(t, stderr, `"metric":"graphdiff_engine_results_total"`)
	assert.Contains(t, stderr, `"status":"EQUAL"`)

	_, stderr, err = execute("", "diff", path("a.yaml"), path("a.yaml"))
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

func TestHandleError(t *testing.T) {
	for _, c := range []struct {
		name   string
		err    error
		code   int
		output string
	}{
		{"different", errDifferent, exitDifferent, ""},
		{"usage", errorWantedTwoArgs, exitTrouble, "Error: please supply two documents"},
		{"typed", gderrors.MissingPath("spec"), exitTrouble, "does not exist in one of the documents"},
		{"other", errors.New("boom"), exitTrouble, "We don't have a specific help message"},
	} {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			cmd := &cobra.Command{Use: "graphdiff"}
			cmd.SetErr(&buf)
			assert.Equal(t, c.code, handleError(cmd, c.err))
			if c.output == "" {
				assert.Empty(t, buf.String())
			} else {
				assert.Contains(t, buf.String(), c.output)
			}
		})
	}
}

func TestTypedErrorsAsJSON(t *testing.T) {
	var buf bytes.Buffer
	cmd := newDiff(newRoot()).Command()
	require.NoError(t, cmd.Flags().Set("output", "json"))
	cmd.SetErr(&buf)

	assert.Equal(t, exitTrouble, handleError(cmd, gderrors.MissingPath("spec")))
	var got gderrors.Error
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.True(t, gderrors.IsMissing(&got))
	assert.Equal(t, `path "spec" not found`, got.Err.Error())
	assert.Contains(t, got.Help, "does not exist in one of the documents")

	buf.Reset()
	assert.Equal(t, exitTrouble, handleError(cmd, errors.New("boom")))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.True(t, gderrors.IsUser(&got))
	assert.Equal(t, "boom", got.Err.Error())

	buf.Reset()
	require.NoError(t, cmd.Flags().Set("output", "text"))
	handleError(cmd, gderrors.MissingPath("spec"))
	assert.Contains(t, buf.String(), "does not exist in one of the documents")
}
