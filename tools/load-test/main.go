package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
)

// Drives the API with concurrent taps. Every user taps arrival, break, break,
// departure; a burst of parallel taps for the same user shows up as conflicts.

type client struct {
	base string
	http *http.Client
}

func (c *client) call(method, path, token string, body, out any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (c *client) login(body map[string]string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	status, err := c.call(http.MethodPost, "/api/v1/sessions", "", body, &resp)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("login returned %d", status)
	}
	return resp.Token, nil
}

func main() {
	base := pflag.String("url", "http://localhost:8080", "API base URL")
	password := pflag.String("admin-password", "admin", "admin password")
	numUsers := pflag.Int("users", 200, "number of users to create")
	concurrency := pflag.Int("concurrency", 50, "concurrent users")
	burst := pflag.Int("burst", 1, "parallel copies of each tap")
	pflag.Parse()

	c := &client{base: *base, http: &http.Client{Timeout: 10 * time.Second}}

	adminToken, err := c.login(map[string]string{"password": *password})
	if err != nil {
		fmt.Printf("admin login failed: %v\n", err)
		return
	}

	fmt.Printf("Starting load test: %d users, burst %d, concurrency %d against %s\n", *numUsers, *burst, *concurrency, *base)

	var wg sync.WaitGroup
	sem := make(chan struct{}, *concurrency)
	var success, conflicts, failed int64
	kinds := []string{"arrival", "break", "break", "departure"}

	start := time.Now()
	for i := 0; i < *numUsers; i++ {
		wg.Add(1)
		sem <- struct{}{}

		go func(n int) {
			defer wg.Done()
			defer func() { <-sem }()

			var user struct {
				ID string `json:"id"`
			}
			status, err := c.call(http.MethodPost, "/api/v1/users", adminToken, map[string]string{"name": fmt.Sprintf("load-test-user-%d", n)}, &user)
			if err != nil || status != http.StatusCreated {
				atomic.AddInt64(&failed, 1)
				return
			}
			token, err := c.login(map[string]string{"personId": user.ID})
			if err != nil {
				atomic.AddInt64(&failed, 1)
				return
			}

			for _, kind := range kinds {
				var tapWG sync.WaitGroup
				for b := 0; b < *burst; b++ {
					tapWG.Add(1)
					go func() {
						defer tapWG.Done()
						status, err := c.call(http.MethodPost, "/api/v1/users/"+user.ID+"/taps", token, map[string]string{"type": kind}, nil)
						switch {
						case err != nil:
							atomic.AddInt64(&failed, 1)
						case status == http.StatusConflict:
							atomic.AddInt64(&conflicts, 1)
						case status < 300:
							atomic.AddInt64(&success, 1)
						default:
							atomic.AddInt64(&failed, 1)
						}
					}()
				}
				tapWG.Wait()
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)
	total := success + conflicts + failed

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Taps:     %d\n", total)
	fmt.Printf("Successful:     %d\n", success)
	fmt.Printf("Conflicts:      %d\n", conflicts)
	fmt.Printf("Failed:         %d\n", failed)
	fmt.Printf("Taps/Sec:       %.2f\n", float64(total)/duration.Seconds())
}
