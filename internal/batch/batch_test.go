package batch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/photometric/internal/eulumdat"
	"github.com/banshee-data/photometric/internal/fsutil"
	"github.com/banshee-data/photometric/internal/ies"
	"github.com/banshee-data/photometric/internal/monitoring"
	"github.com/banshee-data/photometric/internal/photometry"
	"github.com/banshee-data/photometric/internal/testutil"
	"github.com/banshee-data/photometric/internal/timeutil"
)

func quiet(t *testing.T) {
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(original) })
}

func seed(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	m := fsutil.NewMemoryFileSystem()
	files := map[string]string{
		"/src/vertical.ldt":     testutil.Fixture(t, testutil.VerticalLDT),
		"/src/sub/c0c180.LDT":   testutil.Fixture(t, testutil.C0C180LDT),
		"/src/downlight.ies":    testutil.Fixture(t, testutil.DownlightIES),
		"/src/broken.ldt":       "not a eulumdat file",
		"/src/notes.txt":        "ignore me",
		"/src/sub/deep/q.ldt":   testutil.Fixture(t, testutil.QuadrantLDT),
		"/src/sub/deep/q.ies":   testutil.Fixture(t, testutil.QuadrantIES),
		"/src/sub/deep/readme":  "",
		"/src/sub/empty/.keep":  "",
		"/src/sub/deep/ok2.ies": testutil.Fixture(t, testutil.DownlightIES),
	}
	for name, body := range files {
		require.NoError(t, m.WriteFile(name, []byte(body), 0644))
	}
	return m
}

func TestRunFlat(t *testing.T) {
	quiet(t)
	m := seed(t)

	sum, err := New(m).Run(context.Background(), "/src", "/out", Options{Target: ies.Format})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Converted)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 0, sum.Skipped)
	require.Len(t, sum.Results, 3)
	assert.Equal(t, "/src/broken.ldt", sum.Results[0].Source)
	assert.Equal(t, "/out/downlight.ies", sum.Results[1].Dest)
	assert.Equal(t, "/out/vertical.ies", sum.Results[2].Dest)

	var pe *photometry.ParseError
	assert.True(t, errors.As(sum.Results[0].Err, &pe))
	assert.Error(t, sum.Err())

	data, err := m.ReadFile("/out/vertical.ies")
	require.NoError(t, err)
	l, err := ies.Parse(string(data))
	require.NoError(t, err)
	assert.Equal(t, "Downlight 100", l.Info().LuminaireName)
	assert.False(t, m.Exists("/out/sub"))
}

func TestRunRecursive(t *testing.T) {
	quiet(t)
	m := seed(t)

	sum, err := New(m).Run(context.Background(), "/src", "/out", Options{Target: eulumdat.Format, Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Converted)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Skipped)

	for _, p := range []string{"/out/vertical.ldt", "/out/downlight.ldt", "/out/sub/c0c180.ldt", "/out/sub/deep/q.ldt", "/out/sub/deep/ok2.ldt"} {
		data, err := m.ReadFile(p)
		require.NoError(t, err, p)
		_, err = eulumdat.Parse(string(data))
		assert.NoError(t, err, p)
	}
}

func TestRunNormalizesTargetFormat(t *testing.T) {
	quiet(t)
	m := fsutil.NewMemoryFileSystem()
	ldt := testutil.Fixture(t, testutil.QuadrantLDT)
	require.NoError(t, m.WriteFile("/src/q.ldt", []byte(ldt), 0644))

	sum, err := New(m).Run(context.Background(), "/src", "/out", Options{Target: eulumdat.Format})
	require.NoError(t, err)
	require.Equal(t, 1, sum.Converted)

	// The quadrant fixture uses decimal commas; the export does not.
	data, err := m.ReadFile("/out/q.ldt")
	require.NoError(t, err)
	assert.NotEqual(t, ldt, string(data))
	assert.NotContains(t, string(data), "100,0")
	l, err := eulumdat.Parse(string(data))
	require.NoError(t, err)
	assert.Equal(t, eulumdat.Export(l), string(data))
}

func TestRunInPlace(t *testing.T) {
	quiet(t)
	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("/src/q.ies", []byte(testutil.Fixture(t, testutil.QuadrantIES)), 0644))
	require.NoError(t, m.WriteFile("/src/q.ldt", []byte(testutil.Fixture(t, testutil.QuadrantLDT)), 0644))
	c := New(m)

	// Without overwrite the existing q.ies is left alone and q.ldt, which
	// maps to the same file, is skipped too.
	sum, err := c.Run(context.Background(), "/src", "/src", Options{Target: ies.Format})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Converted)
	assert.Equal(t, 2, sum.Skipped)

	sum, err = c.Run(context.Background(), "/src", "/src", Options{Target: ies.Format, Overwrite: true})
	require.NoError(t, err)
	require.Len(t, sum.Results, 2)
	assert.Equal(t, Converted, sum.Results[0].Outcome)
	assert.Equal(t, "/src/q.ies", sum.Results[0].Source)
	assert.Equal(t, Skipped, sum.Results[1].Outcome)
	assert.Equal(t, "/src/q.ies", sum.Results[1].Dest)

	data, err := m.ReadFile("/src/q.ies")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "IESNA:LM-63-2002"), string(data)[:20])
}

func TestRunSkipsExistingUnlessOverwrite(t *testing.T) {
	quiet(t)
	m := seed(t)
	require.NoError(t, m.WriteFile("/out/downlight.ldt", []byte("keep"), 0644))

	c := New(m)
	sum, err := c.Run(context.Background(), "/src", "/out", Options{Target: "ldt"})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, Skipped, sum.Results[1].Outcome)
	assert.Equal(t, "/out/downlight.ldt", sum.Results[1].Dest)
	data, _ := m.ReadFile("/out/downlight.ldt")
	assert.Equal(t, "keep", string(data))

	sum, err = c.Run(context.Background(), "/src", "/out", Options{Target: "ldt", Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Converted)
	data, _ = m.ReadFile("/out/downlight.ldt")
	assert.NotEqual(t, "keep", string(data))
}

// slowFS advances a mock clock by one second on every file read.
type slowFS struct {
	fsutil.FileSystem
	clock *timeutil.MockClock
}

func (s slowFS) ReadFile(name string) ([]byte, error) {
	s.clock.Advance(time.Second)
	return s.FileSystem.ReadFile(name)
}

func TestRunReportsElapsed(t *testing.T) {
	quiet(t)
	clock := timeutil.NewMockClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	c := New(slowFS{FileSystem: seed(t), clock: clock})
	c.SetClock(clock)

	// broken.ldt, downlight.ies and vertical.ldt are each read once.
	sum, err := c.Run(context.Background(), "/src", "/out", Options{Target: ies.Format})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, sum.Elapsed)
}

func TestRunCancelled(t *testing.T) {
	quiet(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := New(seed(t)).Run(ctx, "/src", "/out", Options{Target: ies.Format, Recursive: true})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sum.Results)
}

func TestRunRejectsBadInput(t *testing.T) {
	quiet(t)
	m := seed(t)
	c := New(m)

	_, err := c.Run(context.Background(), "/src", "/out", Options{Target: "pdf"})
	assert.ErrorContains(t, err, "unsupported target format")

	_, err = c.Run(context.Background(), "/nope", "/out", Options{Target: ies.Format})
	assert.ErrorContains(t, err, "source directory")

	_, err = c.Run(context.Background(), "/src/notes.txt", "/out", Options{Target: ies.Format})
	assert.ErrorContains(t, err, "not a directory")
}

func TestRunOnDisk(t *testing.T) {
	quiet(t)
	src, dst := t.TempDir(), t.TempDir()
	osfs := fsutil.OSFileSystem{}
	require.NoError(t, osfs.WriteFile(src+"/lamp.ies", []byte(testutil.Fixture(t, testutil.QuadrantIES)), 0644))

	sum, err := New(osfs).Run(context.Background(), src, dst, Options{Target: eulumdat.Format})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Converted)
	assert.True(t, osfs.Exists(dst+"/lamp.ldt"))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "converted", Converted.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "Unknown", Outcome(9).String())
}
