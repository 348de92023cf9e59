// Command sample_page serves a page that exercises every signal perfpanel
// collects: a delayed hero block for LCP, a late banner that shifts layout,
// a blocking script for long tasks and a few weighted resources.
//
//	go run ./scripts/testservers/sample_page -port 8080
//	perfpanel watch --target http://localhost:8080/ --duration 10s
package main

import (
	"bytes"
	"flag"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const page = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>perfpanel sample</title>
  <link rel="stylesheet" href="/asset/style.css?size=4096">
</head>
<body>
  <h1>perfpanel sample page</h1>
  <p>This paragraph is the first contentful paint.</p>
  <div id="slot"></div>
  <script src="/asset/app.js?size=20480&delay=100"></script>
  <script>
    fetch("/asset/data.bin?size=153600&delay=200");
    // The hero block becomes the largest contentful paint.
    setTimeout(function () {
      var hero = document.createElement("p");
      hero.style.fontSize = "48px";
      hero.textContent = "A large hero headline that arrives late and covers most of the viewport.";
      document.getElementById("slot").appendChild(hero);
    }, 400);
    // Shift the content down once the page has painted.
    setTimeout(function () {
      var banner = document.createElement("div");
      banner.style.height = "120px";
      banner.textContent = "Late banner";
      document.body.insertBefore(banner, document.body.firstChild);
    }, 600);
    // Block the main thread for 180ms.
    setTimeout(function () {
      var end = performance.now() + 180;
      while (performance.now() < end) {}
    }, 800);
  </script>
</body>
</html>`

func main() {
	port := flag.Int("port", 8080, "Listening port")
	flag.Parse()

	log := logrus.New()
	if *port <= 0 {
		log.Fatal("port must be > 0")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/asset/", handleAsset)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.WithField("addr", addr).Info("sample page server listening")
	log.Fatal(http.ListenAndServe(addr, mux))
}

// handleAsset returns size bytes after delay milliseconds. Responses are
// never cached so every load is weighed.
func handleAsset(w http.ResponseWriter, r *http.Request) {
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	delay, _ := strconv.Atoi(r.URL.Query().Get("delay"))
	if size < 0 || size > 10<<20 {
		http.Error(w, "size out of range", http.StatusBadRequest)
		return
	}
	if delay > 0 {
		select {
		case <-time.After(time.Duration(delay) * time.Millisecond):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Timing-Allow-Origin", "*")
	w.Header().Set("Content-Length", strconv.Itoa(size))
	switch {
	case strings.HasSuffix(r.URL.Path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(r.URL.Path, ".js"):
		w.Header().Set("Content-Type", "text/javascript")
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	_, _ = w.Write(filler(size))
}

// filler produces size bytes that are valid as CSS or JavaScript.
func filler(size int) []byte {
	b := bytes.Repeat([]byte(" "), size)
	if size >= 4 {
		copy(b, "/**/")
	}
	return b
}
