package httpapi

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sort"
	"strings"
)

// handleServiceWorker serves a generated service worker so the shell keeps
// working offline. The precache manifest is derived from the embedded static
// files and the cache name is versioned by configuration, so bumping the
// generation invalidates stale shells on activate.
func (s *Server) handleServiceWorker(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(s.serviceWorkerScript()))
}

func (s *Server) serviceWorkerScript() string {
	s.swOnce.Do(func() {
		urls := []string{"/ui/"}
		sub, err := fs.Sub(embeddedStatic, "static")
		if err == nil {
			_ = fs.WalkDir(sub, ".", func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil
				}
				urls = append(urls, "/ui/"+path)
				return nil
			})
		}
		sort.Strings(urls)

		manifest, _ := json.Marshal(urls)
		cacheName := "eva-shell-" + strings.TrimSpace(s.cfg.AssetCacheGeneration)

		s.swScript = fmt.Sprintf(`const CACHE_NAME = %q;
const APP_SHELL_URLS = %s;

self.addEventListener('install', (event) => {
  event.waitUntil(
    caches.open(CACHE_NAME).then((cache) => cache.addAll(APP_SHELL_URLS))
  );
});

self.addEventListener('fetch', (event) => {
  event.respondWith(
    caches.match(event.request).then((cachedResponse) => {
      if (cachedResponse) {
        return cachedResponse;
      }
      return fetch(event.request).then((networkResponse) => {
        if (event.request.method !== 'GET' || event.request.url.startsWith('chrome-extension://')) {
          return networkResponse;
        }
        return caches.open(CACHE_NAME).then((cache) => {
          if (networkResponse && networkResponse.status === 200) {
            cache.put(event.request, networkResponse.clone());
          }
          return networkResponse;
        });
      });
    })
  );
});

self.addEventListener('activate', (event) => {
  const keep = [CACHE_NAME];
  event.waitUntil(
    caches.keys().then((names) => Promise.all(
      names.map((name) => {
        if (keep.indexOf(name) === -1) {
          return caches.delete(name);
        }
      })
    ))
  );
});
`, cacheName, manifest)
	})
	return s.swScript
}
