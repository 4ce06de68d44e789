// Command notify announces a published post to every subscriber by calling
// the running site's /api/notify endpoint.
//
//	notify [-posts dir] [-site url] <post-id>
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-journal/internal/application/post"
	"github.com/go-journal/internal/config"
	"github.com/go-journal/internal/domain"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}
	cfg := config.Load()

	postsDir := flag.String("posts", cfg.PostsDir, "directory holding YYYY/M/D.yaml post files")
	site := flag.String("site", cfg.SiteURL, "base URL of the running site")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: notify [-posts dir] [-site url] <post-id>")
		fmt.Fprintln(os.Stderr, "example: notify 2025-12-08")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if cfg.NotifySecret == "" {
		log.Fatal("NOTIFY_SECRET is not set")
	}

	postID := flag.Arg(0)
	title, err := loadTitle(*postsDir, postID)
	if err != nil {
		log.Fatalf("post %s: %v", postID, err)
	}

	fmt.Printf("Sending notifications for %q (%s)\n", title, postID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := send(ctx, &http.Client{}, *site, cfg.NotifySecret, domain.NotifyRequest{PostID: postID, Title: title})
	if err != nil {
		log.Fatalf("notify: %v", err)
	}
	printSummary(os.Stdout, res)
	if !res.Success {
		os.Exit(1)
	}
}

// postPath maps "2025-12-08" to "2025/12/8.yaml", the layout authors use.
func postPath(postID string) (string, error) {
	d, err := time.Parse("2006-01-02", postID)
	if err != nil {
		return "", fmt.Errorf("post id must look like YYYY-MM-DD: %w", err)
	}
	return fmt.Sprintf("%d/%d/%d.yaml", d.Year(), int(d.Month()), d.Day()), nil
}

func loadTitle(dir, postID string) (string, error) {
	rel, err := postPath(postID)
	if err != nil {
		return "", err
	}
	for _, candidate := range []string{rel, strings.TrimSuffix(rel, ".yaml") + ".yml"} {
		full := filepath.Join(dir, filepath.FromSlash(candidate))
		info, err := os.Stat(full)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return "", err
		}
		p, err := post.Parse(post.File{Path: candidate, ModTime: info.ModTime(), Data: data})
		if err != nil {
			return "", err
		}
		return p.Title, nil
	}
	return "", fmt.Errorf("no post file at %s: %w", filepath.Join(dir, filepath.FromSlash(rel)), domain.ErrNotFound)
}

func send(ctx context.Context, client *http.Client, site, secret string, req domain.NotifyRequest) (*domain.NotifyResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(site, "/") + "/api/notify"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+secret)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, env.Error)
		}
		return nil, fmt.Errorf("%s: response was not JSON", resp.Status)
	}
	var res domain.NotifyResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("response was not JSON: %w", err)
	}
	return &res, nil
}

func printSummary(w io.Writer, res *domain.NotifyResult) {
	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
	}
	fmt.Fprintf(w, "Sent: %d\nFailed: %d\nTotal: %d\n", res.Sent, res.Failed, res.Total)
	if len(res.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}
