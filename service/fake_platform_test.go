package service

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"goes-decal-sync/config"
	"goes-decal-sync/models"
)

// fakePlatform emulates the assets and operations endpoints
type fakePlatform struct {
	mu sync.Mutex

	createStatus int
	createBody   string
	patchStatus  int
	patchBody    string
	deleteStatus int

	// operations are returned in order; the last one repeats
	operations []string
	opPolls    int

	// assets maps asset id to the path the metadata endpoint reports
	assets map[string]string

	creates       int
	patches       int
	deletes       []string
	lastRequest   map[string]any
	lastFilename  string
	lastFileType  string
	lastFileBytes []byte
	apiKeys       []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		createStatus: http.StatusOK,
		patchStatus:  http.StatusOK,
		deleteStatus: http.StatusOK,
		assets:       map[string]string{},
	}
}

func (f *fakePlatform) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.apiKeys = append(f.apiKeys, r.Header.Get("x-api-key"))

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/assets":
		f.creates++
		f.captureMultipart(r)
		w.WriteHeader(f.createStatus)
		io.WriteString(w, f.createBody)

	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/assets/"):
		f.patches++
		f.captureMultipart(r)
		w.WriteHeader(f.patchStatus)
		io.WriteString(w, f.patchBody)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/assets/"):
		id := strings.TrimPrefix(r.URL.Path, "/assets/")
		path, ok := f.assets[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"path": path, "displayName": "GOES19"})

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/assets/"):
		f.deletes = append(f.deletes, strings.TrimPrefix(r.URL.Path, "/assets/"))
		w.WriteHeader(f.deleteStatus)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/operations/"):
		if len(f.operations) == 0 {
			http.NotFound(w, r)
			return
		}
		i := f.opPolls
		if i >= len(f.operations) {
			i = len(f.operations) - 1
		}
		f.opPolls++
		io.WriteString(w, f.operations[i])

	default:
		http.NotFound(w, r)
	}
}

func (f *fakePlatform) captureMultipart(r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return
	}
	if values := r.MultipartForm.Value["request"]; len(values) > 0 {
		var req map[string]any
		if json.Unmarshal([]byte(values[0]), &req) == nil {
			f.lastRequest = req
		}
	}
	if files := r.MultipartForm.File["fileContent"]; len(files) > 0 {
		f.lastFilename = files[0].Filename
		f.lastFileType = files[0].Header.Get("Content-Type")
		if fh, err := files[0].Open(); err == nil {
			f.lastFileBytes, _ = io.ReadAll(fh)
			fh.Close()
		}
	}
}

func (f *fakePlatform) snapshot(fn func(f *fakePlatform)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		APIKey:            "test-key",
		Creator:           models.Creator{UserID: 42},
		AssetsURL:         baseURL + "/assets",
		OperationsURL:     baseURL + "/operations",
		PollInterval:      3 * time.Second,
		OperationTimeout:  30 * time.Second,
		RetryBackoff:      time.Second,
		MaxAttempts:       2,
		DeleteMaxAttempts: 1,
		RequestTimeout:    5 * time.Second,
	}
}

// newTestPublisher wires a publisher to a fake platform with instant sleeps and a fake clock
func newTestPublisher(t *testing.T, platform *fakePlatform, mutate func(cfg *config.Config)) *AssetPublisher {
	t.Helper()
	srv := httptest.NewServer(platform)
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	if mutate != nil {
		mutate(cfg)
	}

	client, _ := newInstantRetryClient(cfg.MaxAttempts)
	clock := &fakeClock{t: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}

	p := NewAssetPublisher(client, cfg)
	p.now = clock.now
	p.sleep = clock.sleep
	return p
}

func testPayload() *models.ImagePayload {
	return &models.ImagePayload{Data: []byte("\x89PNG fake"), MIMEType: "image/png", Filename: "goes19.png"}
}
