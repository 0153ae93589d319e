package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const usage = `usage: alertctl [flags] <command> [args]

commands:
  list                     list all alerts
  get <id>                 show one alert
  create <id> <category>   raise (or re-raise) an alert; needs an admin key
  ack <id>                 acknowledge an alert as -user
  acks <id>                show the task log for an alert

flags:
`

func main() {
	api := flag.String("api", envOr("API_BASE", "http://localhost:8080"), "API base URL")
	key := flag.String("key", os.Getenv("API_KEY"), "API key (X-API-Key)")
	user := flag.String("user", os.Getenv("USER"), "acting user for ack")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	c := &client{base: strings.TrimRight(*api, "/"), key: *key, user: *user, http: &http.Client{Timeout: 10 * time.Second}}
	if err := run(c, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(c *client, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}
	need := func(n int) error {
		if len(args) != n+1 {
			return fmt.Errorf("%s takes %d argument(s)", args[0], n)
		}
		return nil
	}
	switch args[0] {
	case "list":
		return c.do(http.MethodGet, "/api/alerts", nil)
	case "get":
		if err := need(1); err != nil {
			return err
		}
		return c.do(http.MethodGet, "/api/alerts/"+url.PathEscape(args[1]), nil)
	case "create":
		if err := need(2); err != nil {
			return err
		}
		body, _ := json.Marshal(map[string]string{"id": args[1], "category": args[2]})
		return c.do(http.MethodPost, "/api/alerts", body)
	case "ack":
		if err := need(1); err != nil {
			return err
		}
		return c.do(http.MethodPost, "/api/alerts/"+url.PathEscape(args[1])+"/ack", nil)
	case "acks":
		if err := need(1); err != nil {
			return err
		}
		return c.do(http.MethodGet, "/api/alerts/"+url.PathEscape(args[1])+"/acks", nil)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

type client struct {
	base string
	key  string
	user string
	http *http.Client
}

func (c *client) do(method, path string, body []byte) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	if c.user != "" {
		req.Header.Set("X-User", c.user)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		raw = pretty.Bytes()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	fmt.Println(string(raw))
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
