package objectstore_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/ostack/internal/ostest"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/fivetwenty-io/ostack/pkg/openstack/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListContainers_NameMarker(t *testing.T) {
	t.Parallel()

	client := ostest.NewClient().
		Handle(http.MethodGet, openstack.ServiceObjectStore, "", func(req *openstack.Request) (*openstack.Response, error) {
			assert.Equal(t, "json", ostest.Query(req).Get("format"))

			switch ostest.Query(req).Get("marker") {
			case "":
				return ostest.JSON(http.StatusOK, `[{"name": "backups", "count": 2, "bytes": 2048}, {"name": "logs", "count": 0, "bytes": 0}]`), nil
			case "logs":
				return ostest.JSON(http.StatusOK, `[{"name": "media", "count": 9, "bytes": 1, "last_modified": "2026-01-02T03:04:05.000000"}]`), nil
			default:
				return ostest.JSON(http.StatusOK, `[]`), nil
			}
		})

	containers, err := openstack.Paged[objectstore.Container](context.Background(), client,
		objectstore.ListContainers(objectstore.ListOpts{PageSize: 2}), openstack.All())
	require.NoError(t, err)
	require.Len(t, containers, 3)
	assert.Equal(t, "media", containers[2].Name)
	assert.Equal(t, 2026, containers[2].LastModified.Year())
}

func TestObjectPaths(t *testing.T) {
	t.Parallel()

	endpoint, err := objectstore.UploadObject("my bucket", "dir/file name.txt", "", []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, "my%20bucket/dir/file%20name.txt", endpoint.Path())
	assert.Equal(t, http.MethodPut, endpoint.Method())

	body, contentType, err := endpoint.Body()
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", contentType)
	assert.Equal(t, []byte("hi"), body)

	_, err = objectstore.DownloadObject("bucket", "")
	require.ErrorIs(t, err, openstack.ErrMissingParameter)

	_, err = objectstore.ListObjects("", objectstore.ListOpts{})
	require.ErrorIs(t, err, openstack.ErrMissingParameter)
}

func TestDeleteObject_NotFound(t *testing.T) {
	t.Parallel()

	client := ostest.NewClient().
		Handle(http.MethodDelete, openstack.ServiceObjectStore, "bucket/gone", func(*openstack.Request) (*openstack.Response, error) {
			return &openstack.Response{
				StatusCode: http.StatusNotFound,
				Body:       []byte("<html><h1>Not Found</h1><p>The resource could not be found.</p></html>"),
			}, nil
		})

	endpoint, err := objectstore.DeleteObject("bucket", "gone")
	require.NoError(t, err)

	err = openstack.Ignore(context.Background(), client, endpoint)

	var serverErr *openstack.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.True(t, openstack.IsNotFound(err))
}

func TestListObjects_DelimiterPagesPastPseudoDirectories(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"":   `[{"name": "a", "bytes": 1}, {"subdir": "b/"}]`,
		"b/": `[{"name": "c", "bytes": 3}, {"subdir": "d/"}]`,
		"d/": `[{"name": "e", "bytes": 5}]`,
	}

	client := ostest.NewClient().
		Handle(http.MethodGet, openstack.ServiceObjectStore, "bucket", func(req *openstack.Request) (*openstack.Response, error) {
			assert.Equal(t, "/", ostest.Query(req).Get("delimiter"))

			page, ok := pages[ostest.Query(req).Get("marker")]
			if !ok {
				page = `[]`
			}

			return ostest.JSON(http.StatusOK, page), nil
		})

	endpoint, err := objectstore.ListObjects("bucket", objectstore.ListOpts{Delimiter: "/", PageSize: 2})
	require.NoError(t, err)

	objects, err := openstack.Paged[objectstore.Object](context.Background(), client, endpoint, openstack.All())
	require.NoError(t, err)
	require.Len(t, objects, 5)

	paths := make([]string, 0, len(objects))
	for _, object := range objects {
		paths = append(paths, object.Path())
	}

	assert.Equal(t, []string{"a", "b/", "c", "d/", "e"}, paths)
	assert.Equal(t, "b/", objects[1].Subdir)
	assert.Empty(t, objects[1].Name)
}
