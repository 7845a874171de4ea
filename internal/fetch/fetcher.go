// Package fetch executes transfer tasks: it issues the remote retrieval
// request, downloads the staged archive with resume-by-size retry over a
// bounded worker pool, and hands completed archives to post-processing.
// The catalog is never written here; a separate reconciliation pass picks
// up downloaded files.
package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clexlab/cdsfetch/internal/config"
	"github.com/clexlab/cdsfetch/internal/models"
)

// Resource is what a successful remote request exposes: where to fetch
// the prepared archive and how many bytes to expect.
type Resource struct {
	Location string
	Size     int64
}

// Fetcher is the capability boundary to the remote provider. Request is
// an opaque synchronous call; Fetch and Resume move bytes to dest.
type Fetcher interface {
	Request(task models.TransferTask) (Resource, error)
	Fetch(url, dest string) error
	Resume(url, dest string) error
}

// credentials is the shape of a per-identity .cdsapirc file.
type credentials struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// CDSFetcher talks to the provider over HTTP and shells out to the
// configured transfer commands for the byte moves.
type CDSFetcher struct {
	cfg    config.Config
	client *http.Client
}

func NewCDSFetcher(cfg config.Config) *CDSFetcher {
	return &CDSFetcher{cfg: cfg, client: &http.Client{}}
}

// Request submits the retrieval payload under the task's credential
// identity and returns the prepared resource.
func (f *CDSFetcher) Request(task models.TransferTask) (Resource, error) {
	creds, err := f.credentials(task.CredentialID)
	if err != nil {
		return Resource{}, err
	}
	body, err := json.Marshal(task.Payload)
	if err != nil {
		return Resource{}, err
	}
	url := strings.TrimRight(creds.URL, "/") + "/resources/" + task.DatasetID
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Resource{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if uid, secret, ok := strings.Cut(creds.Key, ":"); ok {
		req.SetBasicAuth(uid, secret)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Resource{}, fmt.Errorf("requesting %s: %w", task.DatasetID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Resource{}, fmt.Errorf("request for %s rejected: %s", task.DatasetID, resp.Status)
	}
	var out struct {
		Location      string `json:"location"`
		ContentLength int64  `json:"content_length"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Resource{}, fmt.Errorf("decoding response for %s: %w", task.DatasetID, err)
	}
	return Resource{Location: out.Location, Size: out.ContentLength}, nil
}

func (f *CDSFetcher) Fetch(url, dest string) error {
	return runCommand(f.cfg.GetCmd, dest, url)
}

func (f *CDSFetcher) Resume(url, dest string) error {
	return runCommand(f.cfg.ResumeCmd, dest, url)
}

func (f *CDSFetcher) credentials(id string) (credentials, error) {
	path := filepath.Join(f.cfg.CredentialsDir, ".cdsapirc"+id)
	data, err := os.ReadFile(path)
	if err != nil {
		return credentials{}, fmt.Errorf("reading credentials %s: %w", path, err)
	}
	var c credentials
	if err := yaml.Unmarshal(data, &c); err != nil {
		return credentials{}, fmt.Errorf("parsing credentials %s: %w", path, err)
	}
	if c.URL == "" || c.Key == "" {
		return credentials{}, fmt.Errorf("credentials %s missing url or key", path)
	}
	return c, nil
}
