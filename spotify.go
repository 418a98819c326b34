package main

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Scancode rendering defaults match the screen: navy background, white
// code, 280px wide.
const (
	scancodeBaseURL = "https://scannables.scdn.co/uri/plain/png"
	scancodeBG      = "1A1D2E"
	scancodeFG      = "white"
	scancodeSize    = 280
)

// scancodeURL builds the Spotify scancode image URL for a URI.
func scancodeURL(spotifyURI string) string {
	return fmt.Sprintf("%s/%s/%s/%d/%s",
		scancodeBaseURL, scancodeBG, scancodeFG, scancodeSize,
		url.PathEscape(spotifyURI))
}

// parseSpotifyURI canonicalizes the formats crews paste in:
// spotify:track:ID, https://open.spotify.com/track/ID, and the bare
// open.spotify.com form, query strings stripped.
func parseSpotifyURI(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	if strings.HasPrefix(s, "spotify:") {
		return s, true
	}

	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	i := strings.Index(s, "open.spotify.com/")
	if i < 0 {
		return "", false
	}
	rest := s[i+len("open.spotify.com/"):]
	rest, _, _ = strings.Cut(rest, "?")
	parts := strings.Split(rest, "/")
	if len(parts) >= 2 && parts[0] != "" && parts[1] != "" {
		return "spotify:" + parts[0] + ":" + parts[1], true
	}
	return "", false
}

func cacheName(prefix, key, ext string) string {
	sum := md5.Sum([]byte(key))
	return prefix + "_" + hex.EncodeToString(sum[:])[:12] + ext
}

// cachedScancode returns the local path of the scancode for a URI,
// downloading it on first use.
func cachedScancode(spotifyURI string) (string, error) {
	path := filepath.Join(cfg.AlbumArtDir, cacheName("scancode", spotifyURI, ".png"))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := downloadFile(scancodeURL(spotifyURI), path); err != nil {
		return "", err
	}
	return path, nil
}

// fetchAlbumArt downloads pushed album art into the cache and returns
// the local path.
func fetchAlbumArt(artURL string) (string, error) {
	clean, _, _ := strings.Cut(artURL, "?")
	ext := strings.ToLower(filepath.Ext(clean))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		ext = ".jpg"
	}
	path := filepath.Join(cfg.AlbumArtDir, cacheName("art", artURL, ext))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := downloadFile(artURL, path); err != nil {
		return "", err
	}
	return path, nil
}

func downloadFile(srcURL, path string) error {
	resp, err := http.Get(srcURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: status %s", srcURL, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
