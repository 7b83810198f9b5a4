package commands

import (
	"bytes"
	"crypto/md5" //nolint:gosec // Glance reports MD5 checksums
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack/image"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// fakeCloud serves Keystone under /identity and an in-memory Glance under
// /image.
type fakeCloud struct {
	server  *httptest.Server
	issued  atomic.Int32
	corrupt atomic.Bool

	mu     sync.Mutex
	images map[string]*storedImage
	limits []string
}

type storedImage struct {
	image.Image

	data []byte
}

func newFakeCloud(t *testing.T) *fakeCloud {
	t.Helper()

	cloud := &fakeCloud{images: make(map[string]*storedImage)}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /identity/v3/auth/tokens", cloud.issueToken)
	mux.HandleFunc("GET /image/v2/images", cloud.listImages)
	mux.HandleFunc("POST /image/v2/images", cloud.createImage)
	mux.HandleFunc("GET /image/v2/images/{id}", cloud.withImage(cloud.getImage))
	mux.HandleFunc("DELETE /image/v2/images/{id}", cloud.withImage(cloud.deleteImage))
	mux.HandleFunc("PUT /image/v2/images/{id}/file", cloud.withImage(cloud.uploadData))
	mux.HandleFunc("GET /image/v2/images/{id}/file", cloud.withImage(cloud.downloadData))

	cloud.server = httptest.NewServer(mux)
	t.Cleanup(cloud.server.Close)

	return cloud
}

func (f *fakeCloud) issueToken(writer http.ResponseWriter, request *http.Request) {
	body, _ := io.ReadAll(request.Body)
	if !bytes.Contains(body, []byte(`"password":"secret"`)) {
		writer.WriteHeader(http.StatusUnauthorized)
		_, _ = writer.Write([]byte(`{"error": {"code": 401, "title": "Unauthorized", "message": "The request you have made requires authentication."}}`))

		return
	}

	issued := f.issued.Add(1)

	writer.Header().Set("X-Subject-Token", fmt.Sprintf("token-%d", issued))
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(writer, `{"token": {
		"expires_at": %q,
		"methods": ["password"],
		"user": {"id": "u1", "name": "demo", "domain": {"id": "default", "name": "Default"}},
		"project": {"id": "p1", "name": "demo"},
		"roles": [{"id": "r1", "name": "member"}],
		"catalog": [
			{"type": "image", "name": "glance", "endpoints": [
				{"interface": "public", "region": "RegionOne", "url": "%s/image"}
			]},
			{"type": "identity", "name": "keystone", "endpoints": [
				{"interface": "public", "region": "RegionOne", "url": "%s/identity/v3"}
			]}
		]
	}}`, time.Now().Add(time.Hour).UTC().Format(time.RFC3339), f.server.URL, f.server.URL)
}

func (f *fakeCloud) listImages(writer http.ResponseWriter, request *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := request.URL.Query().Get("name")
	f.limits = append(f.limits, request.URL.Query().Get("limit"))
	images := make([]image.Image, 0, len(f.images))

	for _, stored := range f.images {
		if name == "" || stored.Name == name {
			images = append(images, stored.Image)
		}
	}

	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })

	writeJSON(writer, http.StatusOK, map[string]any{"images": images})
}

func (f *fakeCloud) createImage(writer http.ResponseWriter, request *http.Request) {
	var opts image.CreateImageOpts

	err := json.NewDecoder(request.Body).Decode(&opts)
	if err != nil {
		writer.WriteHeader(http.StatusBadRequest)

		return
	}

	stored := &storedImage{Image: image.Image{
		ID:              uuid.NewString(),
		Name:            opts.Name,
		Status:          "queued",
		Visibility:      "shared",
		Owner:           "p1",
		DiskFormat:      opts.DiskFormat,
		ContainerFormat: opts.ContainerFormat,
		Tags:            opts.Tags,
		CreatedAt:       time.Now().UTC(),
	}}

	f.mu.Lock()
	f.images[stored.ID] = stored
	f.mu.Unlock()

	writeJSON(writer, http.StatusCreated, stored.Image)
}

func (f *fakeCloud) withImage(handler func(http.ResponseWriter, *http.Request, *storedImage)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		f.mu.Lock()
		stored, ok := f.images[request.PathValue("id")]
		f.mu.Unlock()

		if !ok {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte("404 Not Found\n\nNo image found with ID " + request.PathValue("id")))

			return
		}

		handler(writer, request, stored)
	}
}

func (f *fakeCloud) getImage(writer http.ResponseWriter, _ *http.Request, stored *storedImage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	writeJSON(writer, http.StatusOK, stored.Image)
}

func (f *fakeCloud) deleteImage(writer http.ResponseWriter, _ *http.Request, stored *storedImage) {
	f.mu.Lock()
	delete(f.images, stored.ID)
	f.mu.Unlock()

	writer.WriteHeader(http.StatusNoContent)
}

func (f *fakeCloud) uploadData(writer http.ResponseWriter, request *http.Request, stored *storedImage) {
	data, _ := io.ReadAll(request.Body)
	sum := md5.Sum(data) //nolint:gosec // test fixture

	f.mu.Lock()
	stored.data = data
	stored.Size = int64(len(data))
	stored.Checksum = hex.EncodeToString(sum[:])
	stored.Status = "active"
	f.mu.Unlock()

	writer.WriteHeader(http.StatusNoContent)
}

func (f *fakeCloud) downloadData(writer http.ResponseWriter, _ *http.Request, stored *storedImage) {
	f.mu.Lock()
	data := append([]byte(nil), stored.data...)
	checksum := stored.Checksum
	f.mu.Unlock()

	if f.corrupt.Load() {
		data = append(data, '!')
	}

	writer.Header().Set(constants.HeaderContentType, constants.MediaTypeOctetStream)
	writer.Header().Set(constants.HeaderContentMD5, checksum)
	_, _ = writer.Write(data)
}

func (f *fakeCloud) imageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.images)
}

// listLimits returns the limit parameter of every image listing.
func (f *fakeCloud) listLimits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.limits...)
}

func writeJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(value)
}

// useCloud points the CLI configuration at cloud through OS_* style keys
// and a private state directory.
func useCloud(t *testing.T, cloud *fakeCloud) {
	t.Helper()

	resetViper(t)
	t.Setenv(constants.EnvConfigDir, t.TempDir())

	viper.Set("auth_url", cloud.server.URL+"/identity/v3")
	viper.Set("username", "demo")
	viper.Set("password", "secret")
	viper.Set("project_name", "demo")
	viper.Set("output", constants.FormatJSON)
}

func resetViper(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
}

// run executes cmd with args and returns what it printed.
func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func mustRun(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()

	out, err := run(t, cmd, args...)
	require.NoError(t, err)

	return out
}
