package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/sir_venger/filedrop/internal/models"
	"github.com/sir_venger/filedrop/pkg/fileclient"
)

func TestConcurrentUnnamedUploadsGetDistinctNames(t *testing.T) {
	rest := newRest(t, t.TempDir())

	const n = 32
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		names = make(map[string]struct{}, n)
		errs  = make(chan error, n)
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := uploadFile(rest.URL+"/upload", "", []byte(fmt.Sprintf("payload-%d", i)))
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			names[res.Files[0].Filename] = struct{}{}
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("upload: %v", err)
	}
	if len(names) != n {
		t.Fatalf("expected %d distinct names, got %d", n, len(names))
	}
	for i := 1; i <= n; i++ {
		if _, ok := names[fmt.Sprintf("file_upload_%d", i)]; !ok {
			t.Fatalf("missing file_upload_%d", i)
		}
	}
}

func TestMultipartUploadStripsClientDirectories(t *testing.T) {
	rest := newRest(t, t.TempDir())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "../../etc/report.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("quarterly"))
	if err = mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(rest.URL+"/upload", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %s: %s", resp.Status, string(b))
	}

	var res models.UploadResult
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 1 || res.Files[0].Filename != "report.txt" {
		t.Fatalf("unexpected result %+v", res)
	}

	got, err := downloadFile(rest.URL + "/download?filename=report.txt")
	if err != nil {
		t.Fatalf("download file: %v", err)
	}
	if string(got) != "quarterly" {
		t.Fatalf("downloaded data mismatch: %q", got)
	}
}

func TestTraversalIsNotFound(t *testing.T) {
	rest := newRest(t, t.TempDir())

	for _, name := range []string{"../secret", "/etc/passwd", "C:boot.ini", "a/../../b", ".lock"} {
		_, err := downloadFile(rest.URL + "/download?" + url.Values{"filename": {name}}.Encode())
		if err == nil {
			t.Fatalf("%q: expected failure", name)
		}

		_, err = fileclient.New(rest.URL).Download(context.Background(), name)
		if err == nil {
			t.Fatalf("%q: client expected failure", name)
		}
	}
}

func uploadFile(url, name string, data []byte) (models.UploadResult, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return models.UploadResult{}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if name != "" {
		req.Header.Set("X-File-Name", name)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return models.UploadResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return models.UploadResult{}, fmt.Errorf("unexpected status %s: %s", resp.Status, string(body))
	}

	var out models.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.UploadResult{}, err
	}
	if len(out.Files) == 0 {
		return models.UploadResult{}, fmt.Errorf("empty upload result")
	}
	return out, nil
}

func downloadFile(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, string(body))
	}
	return io.ReadAll(resp.Body)
}
