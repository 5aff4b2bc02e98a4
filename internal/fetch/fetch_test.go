package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"scenecode/internal/logging"
	"scenecode/internal/testsupport"
)

func writeScanSheet(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.csv")
	testsupport.WriteText(t, path, "Institution,Video Source,Is Primary Site\n"+rows)
	return path
}

func TestRunDownloadsEligibleRows(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/promo.mp4":
			w.Write([]byte("video-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	f := NewFetcher(cfg, logging.NewNop())

	sheet := writeScanSheet(t,
		"https://www.cmn.edu,"+server.URL+"/promo.mp4,\n"+ // eligible
			"https://other.org,"+server.URL+"/promo.mp4,\n"+ // not .edu
			"https://aux.cmn.edu,"+server.URL+"/promo.mp4,no\n"+ // not primary
			"https://empty.edu,,\n"+ // no source
			"https://broken.edu,"+server.URL+"/missing.mp4,\n") // 404

	sum, err := f.Run(context.Background(), sheet)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Downloaded != 1 || sum.SkippedRows != 3 || sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if gotUA != cfg.Fetch.UserAgent {
		t.Fatalf("user agent = %q", gotUA)
	}

	dest := filepath.Join(cfg.InstitutionDir("cmn.edu"), "promo.mp4")
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Fatalf("content = %q", data)
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Fatal("partial file left behind")
	}
}

func TestRunSkipsExistingDownloads(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("video-bytes"))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	f := NewFetcher(cfg, logging.NewNop())
	dest := filepath.Join(cfg.InstitutionDir("cmn.edu"), "promo.mp4")
	testsupport.WriteText(t, dest, "already here")

	sheet := writeScanSheet(t, "https://www.cmn.edu,"+server.URL+"/promo.mp4,\n")
	sum, err := f.Run(context.Background(), sheet)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Existing != 1 || sum.Downloaded != 0 || requests != 0 {
		t.Fatalf("summary = %+v requests = %d", sum, requests)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "already here" {
		t.Fatalf("existing file overwritten: %q", data)
	}
}

func TestRunWithoutPrimaryColumnTreatsRowsAsPrimary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("video-bytes"))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	f := NewFetcher(cfg, logging.NewNop())

	path := filepath.Join(t.TempDir(), "scan.csv")
	testsupport.WriteText(t, path, "Institution,Video Source\n"+
		"https://www.cmn.edu,"+server.URL+"/promo.mp4\n")

	sum, err := f.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Downloaded != 1 || sum.SkippedRows != 0 {
		t.Fatalf("summary = %+v, want the row fetched as primary", sum)
	}
}

func TestDiscoverExtractsCandidates(t *testing.T) {
	page := `<html><head>
		<meta property="og:video" content="https://cdn.cmn.edu/og.mp4">
	</head><body>
		<video src="/media/inline.mp4"></video>
		<video><source src="hero.webm"></video>
		<a href="/downloads/tour.mp4?v=2">campus tour</a>
		<a href="/about.html">about</a>
		<a href="/downloads/tour.mp4?v=2">duplicate</a>
	</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	f := NewFetcher(cfg, logging.NewNop())

	candidates, err := f.Discover(context.Background(), server.URL+"/index.html")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	// Selector groups run in order: <video><source> first, then <video src>,
	// og:video metadata, and finally anchors.
	want := []string{
		server.URL + "/hero.webm",
		server.URL + "/media/inline.mp4",
		"https://cdn.cmn.edu/og.mp4",
		server.URL + "/downloads/tour.mp4?v=2",
	}
	if len(candidates) != len(want) {
		t.Fatalf("candidates = %v, want %v", candidates, want)
	}
	for i := range want {
		if candidates[i] != want[i] {
			t.Fatalf("candidate %d = %q, want %q", i, candidates[i], want[i])
		}
	}
}

func TestDiscoverRejectsNonHTTP(t *testing.T) {
	page := `<html><body><video src="javascript:alert(1).mp4"></video></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	f := NewFetcher(cfg, logging.NewNop())
	candidates, err := f.Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("candidates = %v, want none", candidates)
	}
}
