package filesvc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/filedrop/internal/dirlock"
	"github.com/sir_venger/filedrop/internal/metrics"
	"github.com/sir_venger/filedrop/internal/models"
)

func openFiles(t *testing.T, root string) *Files {
	t.Helper()

	f, err := Open(root, WithMetrics(metrics.New()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	return f
}

func readAll(t *testing.T, d *Download) []byte {
	t.Helper()
	defer d.Close()

	b, err := io.ReadAll(d)
	require.NoError(t, err)
	return b
}

func TestReportScenario(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "uploads")
	s := openFiles(t, root)

	payload := []byte{0x25, 0x50, 0x44, 0x46}
	fd, err := s.Upload(ctx, "report.pdf", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", fd.Filename)
	assert.EqualValues(t, 4, fd.Size)

	files, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "report.pdf", files[0].Filename)

	d, err := s.Resolve(ctx, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, payload, readAll(t, d))
	assert.NotEmpty(t, d.MIME)

	_, err = s.Resolve(ctx, "../secret")
	assert.ErrorIs(t, err, models.ErrInvalidFilename)

	_, err = s.Resolve(ctx, "missing.txt")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpload_DefaultName(t *testing.T) {
	s := openFiles(t, t.TempDir())

	fd, err := s.Upload(context.Background(), "", bytes.NewReader([]byte("data")))
	require.NoError(t, err)
	assert.Equal(t, "file_upload_1", fd.Filename)
	assert.EqualValues(t, 1, s.Count())

	fd, err = s.Upload(context.Background(), "dir/", bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, "file_upload_2", fd.Filename)
}

func TestUpload_StripsDirectories(t *testing.T) {
	root := t.TempDir()
	s := openFiles(t, root)

	fd, err := s.Upload(context.Background(), "a/b/c.txt", bytes.NewReader([]byte("c")))
	require.NoError(t, err)
	assert.Equal(t, "c.txt", fd.Filename)

	_, err = os.Stat(filepath.Join(root, "c.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "a"))
	assert.True(t, os.IsNotExist(err))
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":         "report.pdf",
		"a/b/c.txt":          "c.txt",
		"/etc/passwd":        "passwd",
		"../../escape.sh":    "escape.sh",
		`C:\Windows\win.ini`: "win.ini",
		"C:boot.ini":         "boot.ini",
		`..\..\x`:            "x",
		"  spaced.txt  ":     "spaced.txt",
		"":                   "def",
		"..":                 "def",
		".":                  "def",
		"a/..":               "def",
		"/":                  "def",
		"C:":                 "def",
		"nul\x00byte":        "def",
	}

	for in, want := range cases {
		assert.Equal(t, want, SanitizeName(in, "def"), "input %q", in)
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"report.pdf", "file_upload_1", "nested/ok.txt", "./x.txt", ".hidden"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), "name %q", name)
	}

	invalid := []string{"", "..", "../secret", "a/../../b", "/etc/passwd", `\share\x`, "C:x", `..\x`, dirlock.MarkerName, "./" + dirlock.MarkerName, "a\x00b"}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateName(name), models.ErrInvalidFilename, "name %q", name)
	}
}

func TestResolve_RejectsTraversal(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "store")
	s := openFiles(t, root)
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret"), []byte("top"), 0o644))

	for _, name := range []string{"../secret", "/etc/passwd", filepath.Join(parent, "secret"), "C:secret"} {
		d, err := s.Resolve(context.Background(), name)
		assert.Nil(t, d)
		assert.Error(t, err, "name %q", name)
		assert.True(t, errors.Is(err, models.ErrInvalidFilename) || errors.Is(err, models.ErrNotFound))
	}
}

func TestResolve_DirectoryIsNotFound(t *testing.T) {
	root := t.TempDir()
	s := openFiles(t, root)
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

	_, err := s.Resolve(context.Background(), "sub")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMarkerIsReserved(t *testing.T) {
	root := t.TempDir()
	s := openFiles(t, root)
	ctx := context.Background()

	_, err := s.Upload(ctx, "x/"+dirlock.MarkerName, bytes.NewReader([]byte("boom")))
	assert.ErrorIs(t, err, models.ErrInvalidFilename)
	assert.EqualValues(t, 1, s.Count())

	_, err = s.Resolve(ctx, dirlock.MarkerName)
	assert.ErrorIs(t, err, models.ErrInvalidFilename)

	files, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)

	// маркер не тронут, блокировка всё ещё держится
	_, err = Open(root)
	assert.ErrorIs(t, err, models.ErrAlreadyLocked)
}

func TestList_SkipsDirectories(t *testing.T) {
	root := t.TempDir()
	s := openFiles(t, root)
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

	_, err := s.Upload(context.Background(), "one.txt", bytes.NewReader([]byte("1")))
	require.NoError(t, err)

	files, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Filedata{{Filename: "one.txt", Size: 1}}, files)
}

func TestList_DirectoryRemoved(t *testing.T) {
	root := filepath.Join(t.TempDir(), "gone")
	s := openFiles(t, root)
	require.NoError(t, os.RemoveAll(root))

	_, err := s.List(context.Background())
	assert.ErrorIs(t, err, models.ErrListFailed)
}

func TestUsage(t *testing.T) {
	s := openFiles(t, t.TempDir())
	ctx := context.Background()

	_, err := s.Upload(ctx, "a", bytes.NewReader(make([]byte, 10)))
	require.NoError(t, err)
	_, err = s.Upload(ctx, "b", bytes.NewReader(make([]byte, 5)))
	require.NoError(t, err)

	u, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Usage{Files: 2, TotalBytes: 15}, u)
}

func TestConcurrentUploads(t *testing.T) {
	const n = 64
	root := t.TempDir()
	s := openFiles(t, root)

	var wg sync.WaitGroup
	payloads := make([][]byte, n)
	for i := 0; i < n; i++ {
		payloads[i] = bytes.Repeat([]byte{byte(i)}, 1024+i)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Upload(context.Background(), fmt.Sprintf("f-%03d.bin", i), bytes.NewReader(payloads[i]))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, n, s.Count())

	files, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, files, n)

	for i := 0; i < n; i++ {
		d, err := s.Resolve(context.Background(), fmt.Sprintf("f-%03d.bin", i))
		require.NoError(t, err)
		assert.Equal(t, payloads[i], readAll(t, d))
	}
}

func TestReserve_Linearizable(t *testing.T) {
	const n = 500
	s := openFiles(t, t.TempDir())

	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.reserve()
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	got := make([]int, 0, n)
	for id := range ids {
		got = append(got, int(id))
	}
	sort.Ints(got)

	want := make([]int, n)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, got)
}

func TestUpload_CounterOverflow(t *testing.T) {
	s := openFiles(t, t.TempDir())
	s.uploads = math.MaxUint64 - 1

	fd, err := s.Upload(context.Background(), "", bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("file_upload_%d", uint64(math.MaxUint64)), fd.Filename)

	_, err = s.Upload(context.Background(), "next.txt", bytes.NewReader(nil))
	assert.ErrorIs(t, err, models.ErrCounterOverflow)
	assert.EqualValues(t, uint64(math.MaxUint64), s.Count())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestUpload_FailedWriteConsumesID(t *testing.T) {
	s := openFiles(t, t.TempDir())

	_, err := s.Upload(context.Background(), "broken.bin", failingReader{})
	assert.ErrorIs(t, err, models.ErrUploadFailed)
	assert.EqualValues(t, 1, s.Count())

	fd, err := s.Upload(context.Background(), "", bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, "file_upload_2", fd.Filename)
}

func TestUpload_CancelledContext(t *testing.T) {
	s := openFiles(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Upload(ctx, "late.bin", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, models.ErrUploadFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, s.Count())
}

func TestUpload_LastWriterWins(t *testing.T) {
	s := openFiles(t, t.TempDir())
	ctx := context.Background()

	_, err := s.Upload(ctx, "same.txt", bytes.NewReader([]byte("first version")))
	require.NoError(t, err)
	_, err = s.Upload(ctx, "other/same.txt", bytes.NewReader([]byte("second")))
	require.NoError(t, err)

	d, err := s.Resolve(ctx, "same.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), readAll(t, d))
}

func TestOpen_AlreadyLocked(t *testing.T) {
	root := t.TempDir()
	openFiles(t, root)

	_, err := Open(root)
	assert.ErrorIs(t, err, models.ErrInitializationFailed)
	assert.ErrorIs(t, err, models.ErrAlreadyLocked)
}

func TestOpen_ConcurrentExactlyOneSucceeds(t *testing.T) {
	root := t.TempDir()

	var (
		wg      sync.WaitGroup
		results [2]error
		opened  [2]*Files
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			opened[i], results[i] = Open(root)
		}(i)
	}
	wg.Wait()

	ok := 0
	for i, err := range results {
		if err == nil {
			ok++
			t.Cleanup(func() { _ = opened[i].Close() })
			continue
		}
		assert.ErrorIs(t, err, models.ErrAlreadyLocked)
	}
	assert.Equal(t, 1, ok)
}

func TestOpen_UnavailableDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := Open(filepath.Join(file, "sub"))
	assert.ErrorIs(t, err, models.ErrInitializationFailed)
	assert.ErrorIs(t, err, models.ErrDirectoryUnavailable)
}

func TestInfo(t *testing.T) {
	root := t.TempDir()
	s := openFiles(t, root)

	_, err := s.Upload(context.Background(), "x", bytes.NewReader(nil))
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("Uploaded 1 files to '%s'", root), s.Info())
}

func TestClose_ReleasesDirectory(t *testing.T) {
	root := t.TempDir()

	s, err := Open(root)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	again, err := Open(root)
	require.NoError(t, err)
	assert.NoError(t, again.Close())
}
