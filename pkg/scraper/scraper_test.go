package scraper

import (
	"bytes"
	"context"
	"crypto/tls"
	"image"
	"image/color"
	"image/png"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"albumocr/pkg/config"
	"albumocr/pkg/douban"
	errs "albumocr/pkg/errors"
	"albumocr/pkg/logger"
	"albumocr/pkg/ocr"
	"albumocr/pkg/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const albumURL = "https://www.douban.com/photos/album/1/?m_start=0"

const threeImagePage = `<html><body>
<img src="https://img3.doubanio.com/m/photo1.jpg">
<img src="https://img3.doubanio.com/m/photo2.jpg">
<img src="https://example.com/unrelated.png">
</body></html>`

func photoPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 6, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(40 * x), uint8(40 * y), 90, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fakeClient serves a fixed page and one payload per image URL
type fakeClient struct {
	page     string
	pageErr  error
	images   map[string][]byte
	fallback []byte

	mu        sync.Mutex
	requested []string
}

func (f *fakeClient) FetchPage(ctx context.Context, pageURL string) (string, error) {
	if f.pageErr != nil {
		return "", f.pageErr
	}
	return f.page, nil
}

func (f *fakeClient) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	f.mu.Lock()
	f.requested = append(f.requested, imageURL)
	f.mu.Unlock()

	if data, ok := f.images[imageURL]; ok {
		if data == nil {
			return nil, errs.WithStatus(errs.KindNetwork, imageURL, http.StatusNotFound)
		}
		return data, nil
	}
	if f.fallback != nil {
		return f.fallback, nil
	}
	return nil, errs.WithStatus(errs.KindNetwork, imageURL, http.StatusNotFound)
}

func (f *fakeClient) Requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requested...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Album.URL = albumURL
	cfg.Output.Directory = filepath.Join(t.TempDir(), "out")
	return cfg
}

func newTestScraper(cfg *config.Config, client AlbumClient, rec ocr.Recognizer) (*Scraper, *bytes.Buffer, *logger.TestLogger) {
	var out bytes.Buffer
	console := ui.NewConsole(&out, &out)
	console.SetColor(false)
	tl := logger.NewTestLogger()

	s := New(cfg, rec)
	s.SetClient(client)
	s.SetConsole(console)
	s.SetLogger(tl)
	return s, &out, tl
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRunStubAlbum(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeClient{page: threeImagePage, fallback: photoPNG(t)}
	s, out, tl := newTestScraper(cfg, client, ocr.NewStatic())

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Found)
	assert.Equal(t, 2, summary.Saved)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, []string{
		"https://img3.doubanio.com/l/photo1.jpg",
		"https://img3.doubanio.com/l/photo2.jpg",
	}, client.Requested())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "found 2 images", lines[0])
	assert.Equal(t, "✅ saved: "+filepath.Join(cfg.Output.Directory, "photo_1.jpg"), lines[1])
	assert.Equal(t, "✅ saved: "+filepath.Join(cfg.Output.Directory, "photo_2.jpg"), lines[2])

	assert.Equal(t, []string{"photo_1.jpg", "photo_2.jpg"}, dirNames(t, cfg.Output.Directory))

	var finished *logger.LogMessage
	for _, msg := range tl.GetMessagesByLevel("INFO") {
		if msg.Message == "Album run finished" {
			finished = &msg
		}
	}
	require.NotNil(t, finished)
	assert.Equal(t, true, finished.Fields["complete"])
	assert.Equal(t, 2, finished.Fields["saved"])
}

func TestRunNamesFileFromRecognizedText(t *testing.T) {
	cfg := testConfig(t)
	page := `<img src="https://img1.doubanio.com/view/photo/m/public/p1.jpg">`
	client := &fakeClient{page: page, fallback: photoPNG(t)}
	s, _, _ := newTestScraper(cfg, client, ocr.NewStatic("Hello", "World:Test"))

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)

	want := filepath.Join(cfg.Output.Directory, "Hello World_Test.jpg")
	assert.Equal(t, want, summary.Results[0].Path)
	assert.FileExists(t, want)
}

func TestRunTruncatesLongText(t *testing.T) {
	cfg := testConfig(t)
	page := `<img src="https://img1.doubanio.com/m/p1.jpg">`
	client := &fakeClient{page: page, fallback: photoPNG(t)}
	long := strings.Repeat("word ", 20)
	s, _, _ := newTestScraper(cfg, client, ocr.NewStatic(long))

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	label := summary.Results[0].Label
	assert.Len(t, label, 40)
	assert.Equal(t, strings.TrimSpace(long)[:40], label)
}

func TestRunIsolatesItemFailures(t *testing.T) {
	cfg := testConfig(t)
	page := `<img src="https://img1.doubanio.com/m/a.jpg">
<img src="https://img1.doubanio.com/m/b.jpg">
<img src="https://img1.doubanio.com/m/c.jpg">`
	good := photoPNG(t)
	client := &fakeClient{
		page: page,
		images: map[string][]byte{
			"https://img1.doubanio.com/l/a.jpg": good,
			"https://img1.doubanio.com/l/b.jpg": nil,
			"https://img1.doubanio.com/l/c.jpg": good,
		},
	}
	s, out, _ := newTestScraper(cfg, client, ocr.NewStatic())

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Found)
	assert.Equal(t, 2, summary.Saved)
	assert.Equal(t, 1, summary.Failed)

	failures := summary.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, errs.KindNetwork, failures[0].Err.Kind)
	assert.Equal(t, 2, failures[0].Link.Index)

	assert.Equal(t, []string{"photo_1.jpg", "photo_3.jpg"}, dirNames(t, cfg.Output.Directory))
	assert.Equal(t, 1, strings.Count(out.String(), "❌ failed https://img1.doubanio.com/l/b.jpg: "))
}

func TestRunUndecodablePayload(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeClient{
		page:   `<img src="https://img1.doubanio.com/m/a.jpg">`,
		images: map[string][]byte{"https://img1.doubanio.com/l/a.jpg": []byte("<html>captcha</html>")},
	}
	s, _, _ := newTestScraper(cfg, client, ocr.NewStatic("x"))

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Failures(), 1)
	assert.Equal(t, errs.KindDecode, summary.Failures()[0].Err.Kind)
	assert.Empty(t, dirNames(t, cfg.Output.Directory))
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	page := `<img src="https://img1.doubanio.com/m/a.jpg"><img src="https://img1.doubanio.com/m/b.jpg">`
	client := &fakeClient{page: page, fallback: photoPNG(t)}

	run := func() map[string][]byte {
		s, _, _ := newTestScraper(cfg, client, ocr.NewStatic("Same Text"))
		_, err := s.Run(context.Background())
		require.NoError(t, err)

		files := make(map[string][]byte)
		for _, name := range dirNames(t, cfg.Output.Directory) {
			data, err := os.ReadFile(filepath.Join(cfg.Output.Directory, name))
			require.NoError(t, err)
			files[name] = data
		}
		return files
	}

	first := run()
	second := run()
	require.Len(t, first, 2)
	assert.Contains(t, first, "Same Text.jpg")
	assert.Contains(t, first, "Same Text_2.jpg")
	assert.Equal(t, first, second)
}

func TestRunOverwritePolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.OnDuplicate = config.OnDuplicateOverwrite
	page := `<img src="https://img1.doubanio.com/m/a.jpg"><img src="https://img1.doubanio.com/m/b.jpg">`
	client := &fakeClient{page: page, fallback: photoPNG(t)}
	s, _, _ := newTestScraper(cfg, client, ocr.NewStatic("Same Text"))

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Saved)
	assert.Equal(t, []string{"Same Text.jpg"}, dirNames(t, cfg.Output.Directory))
}

func TestRunNoImages(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeClient{page: `<html><body><p>empty album</p></body></html>`}
	rec := ocr.NewStatic("unused")
	s, out, _ := newTestScraper(cfg, client, rec)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Found)
	assert.Empty(t, summary.Results)
	assert.Equal(t, "found 0 images\n", out.String())
	assert.Empty(t, client.Requested())
	assert.Zero(t, rec.Calls())
}

func TestRunFetchFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeClient{pageErr: errs.WithStatus(errs.KindFetch, albumURL, http.StatusForbidden)}
	s, out, tl := newTestScraper(cfg, client, ocr.NewStatic())

	summary, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Equal(t, errs.KindFetch, errs.KindOf(err))
	assert.True(t, errs.IsFatal(errs.KindOf(err)))
	assert.Empty(t, out.String())
	assert.True(t, tl.HasMessage("Failed to fetch album page"))
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeClient{page: threeImagePage, fallback: photoPNG(t)}
	s, _, _ := newTestScraper(cfg, client, ocr.NewStatic())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := s.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Found)
	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, summary.Results, 2)
}

func TestRunConcurrentWorkers(t *testing.T) {
	cfg := testConfig(t)
	cfg.Download.ConcurrentWorkers = 4

	var page strings.Builder
	for i := 0; i < 12; i++ {
		page.WriteString(`<img src="https://img2.doubanio.com/m/p` + string(rune('a'+i)) + `.jpg">`)
	}
	client := &fakeClient{page: page.String(), fallback: photoPNG(t)}
	s, _, _ := newTestScraper(cfg, client, ocr.NewStatic("dup"))

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, summary.Saved)
	assert.Len(t, dirNames(t, cfg.Output.Directory), 12)
	for i, r := range summary.Results {
		assert.Equal(t, i+1, r.Link.Index)
	}
}

func TestRunOutputDirectoryError(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	cfg.Output.Directory = filepath.Join(blocker, "out")

	s, _, _ := newTestScraper(cfg, &fakeClient{page: threeImagePage}, ocr.NewStatic())
	_, err := s.Run(context.Background())
	assert.Error(t, err)
}

// TestRunEndToEndOverHTTP routes the real Douban client to a local TLS
// server so page fetching, link rewriting and image download all run for real.
func TestRunEndToEndOverHTTP(t *testing.T) {
	photo := photoPNG(t)
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Host+r.URL.Path)
		mu.Unlock()

		if r.Header.Get("User-Agent") != config.DefaultUserAgent {
			http.Error(w, "bot", http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/photos/album/1/":
			_, _ = w.Write([]byte(threeImagePage))
		case "/l/photo1.jpg":
			_, _ = w.Write(photo)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	transport := srv.Client().Transport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	transport.DialContext = func(ctx context.Context, network, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, srv.Listener.Addr().String())
	}

	cfg := testConfig(t)
	client := douban.NewClient(cfg.Album.UserAgent, 0, logger.NewNopLogger())
	client.SetHTTPClient(&http.Client{Transport: transport})

	s, out, _ := newTestScraper(cfg, client, ocr.NewStatic("Hello", "World:Test"))
	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Found)
	assert.Equal(t, 1, summary.Saved)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, out.String(), "found 2 images\n")
	assert.FileExists(t, filepath.Join(cfg.Output.Directory, "Hello World_Test.jpg"))

	failure := summary.Failures()[0]
	assert.Equal(t, http.StatusNotFound, failure.Err.Code)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, paths, "www.douban.com/photos/album/1/")
	assert.Contains(t, paths, "img3.doubanio.com/l/photo1.jpg")
	assert.NotContains(t, paths, "img3.doubanio.com/m/photo1.jpg")
}

func TestSummaryFailuresEmpty(t *testing.T) {
	s := &Summary{}
	assert.Empty(t, s.Failures())
}
