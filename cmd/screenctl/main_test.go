package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devscreen/internal/model"
	"devscreen/internal/service"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestHashCmd(t *testing.T) {
	out, err := execute(t, "hash", "--age=24", "--domain=Communication", "--observations=  No   words ")
	require.NoError(t, err)
	assert.Equal(t, service.ComputeInputHash(24, "communication", "no words")+"\n", out)
}

func TestHashCmd_RequiresAge(t *testing.T) {
	_, err := execute(t, "hash", "--observations=x")
	assert.Error(t, err)

	_, err = execute(t, "hash", "--age=300")
	assert.Error(t, err)
}

func TestClassifyCmd_ExplicitHash(t *testing.T) {
	hash := "00ab" + strings.Repeat("0", 60)
	out, err := execute(t, "classify", "--age=24", "--domain=communication",
		"--observations=He has no words and doesn't respond to his name", "--hash="+hash)
	require.NoError(t, err)

	var resp model.ClassifyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, hash, resp.InputHash)
	assert.Equal(t, model.RiskMonitor, resp.Report.RiskLevel)
	assert.Equal(t, 0.90, resp.Report.Confidence)
}

func TestClassifyCmd_ComputesHashAndReadsImage(t *testing.T) {
	img := writeFile(t, "drawing.png", "\x89PNG\r\n\x1a\n")
	out, err := execute(t, "classify", "--age=30", "--observations=only about 10 words", "--image="+img)
	require.NoError(t, err)

	var resp model.ClassifyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, service.ComputeInputHash(30, "", "only about 10 words"), resp.InputHash)
	assert.LessOrEqual(t, resp.Report.Confidence, 0.55)

	last := resp.Report.Evidence[len(resp.Report.Evidence)-1]
	assert.Equal(t, model.EvidenceImage, last.Type)

	_, err = execute(t, "classify", "--age=30", "--image="+filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

const passingCases = `
cases:
  - name: no words at two
    age: 24
    domain: communication
    observations: He has no words and doesn't respond to his name
    hash: 00ab000000000000000000000000000000000000000000000000000000000000
    expect:
      riskLevel: monitor
      confidence: 0.90
  - name: newborn
    age: 3
    domain: gross_motor
    observations: sleeping a lot
    hash: ffaa111111111111111111111111111111111111111111111111111111111111
    expect:
      riskLevel: low
      confidence: 0.90
  - name: small vocabulary with photo
    age: 30
    domain: communication
    observations: only about 10 words
    image: true
    hash: 63cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc
    expect:
      riskLevel: refer
      confidence: 0.39
`

func TestBatchCmd_AllPass(t *testing.T) {
	out, err := execute(t, "batch", writeFile(t, "cases.yaml", passingCases))
	require.NoError(t, err, out)
	assert.Contains(t, out, "3/3 cases passed")
	assert.NotContains(t, out, "FAIL")
}

func TestBatchCmd_ReportsMismatch(t *testing.T) {
	fixtures := `
cases:
  - name: wrong level
    age: 3
    observations: sleeping a lot
    expect:
      riskLevel: high
  - age: 3
    observations: sleeping a lot
    expect:
      confidence: 0.90
`
	out, err := execute(t, "batch", writeFile(t, "cases.yaml", fixtures))
	require.Error(t, err)
	assert.Contains(t, out, "FAIL wrong level: riskLevel low, want high")
	assert.Contains(t, out, "ok   case 2")
	assert.Contains(t, out, "1/2 cases passed")
}

func TestBatchCmd_BadFile(t *testing.T) {
	_, err := execute(t, "batch", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = execute(t, "batch", writeFile(t, "empty.yaml", "cases: []\n"))
	assert.Error(t, err)

	_, err = execute(t, "batch")
	assert.Error(t, err)
}
