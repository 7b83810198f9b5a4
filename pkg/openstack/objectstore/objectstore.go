// Package objectstore describes the Swift account, container and object
// endpoints. The catalog URL is the account URL.
package objectstore

import (
	"net/http"
	"strings"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// Container is a Swift container listing entry.
type Container struct {
	Name         string         `json:"name"          yaml:"name"`
	Count        int64          `json:"count"         yaml:"count"`
	Bytes        int64          `json:"bytes"         yaml:"bytes"`
	LastModified openstack.Time `json:"last_modified" yaml:"last_modified"`
}

// Object is a Swift object listing entry. Listings with a delimiter also
// return pseudo-directories, which carry only Subdir.
type Object struct {
	Name         string         `json:"name,omitempty"   yaml:"name,omitempty"`
	Subdir       string         `json:"subdir,omitempty" yaml:"subdir,omitempty"`
	Hash         string         `json:"hash"             yaml:"hash"`
	Bytes        int64          `json:"bytes"            yaml:"bytes"`
	ContentType  string         `json:"content_type"     yaml:"content_type"`
	LastModified openstack.Time `json:"last_modified"    yaml:"last_modified"`
}

// Path is the object name, or the pseudo-directory prefix.
func (o Object) Path() string {
	if o.Name == "" {
		return o.Subdir
	}

	return o.Name
}

// ListOpts filters a container or object listing.
type ListOpts struct {
	Prefix    string
	Delimiter string
	PageSize  int
}

// ListContainers lists the containers of the account. Swift answers with a
// bare JSON array and pages by name.
func ListContainers(opts ListOpts) *openstack.PagedDescriptor {
	return openstack.Must(list("/", opts))
}

// ListObjects lists the objects of container.
func ListObjects(container string, opts ListOpts) (*openstack.PagedDescriptor, error) {
	err := openstack.RequireID("container", container)
	if err != nil {
		return nil, err
	}

	return list(openstack.EscapePath(container), opts)
}

// CreateContainer creates container. Existing containers are left as-is.
func CreateContainer(container string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("container", container)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceObjectStore, http.MethodPut, openstack.EscapePath(container)).Build()
}

// DeleteContainer deletes an empty container.
func DeleteContainer(container string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("container", container)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceObjectStore, http.MethodDelete, openstack.EscapePath(container)).Build()
}

// UploadObject stores data as object name in container.
func UploadObject(container, name, contentType string, data []byte) (*openstack.Descriptor, error) {
	path, err := objectPath(container, name)
	if err != nil {
		return nil, err
	}

	if contentType == "" {
		contentType = constants.MediaTypeOctetStream
	}

	return openstack.NewDescriptor(openstack.ServiceObjectStore, http.MethodPut, path).
		RawBody(contentType, data).
		Build()
}

// DownloadObject fetches an object. Execute it with QueryRaw.
func DownloadObject(container, name string) (*openstack.Descriptor, error) {
	path, err := objectPath(container, name)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceObjectStore, http.MethodGet, path).
		Header(constants.HeaderAccept, "*/*").
		Build()
}

func DeleteObject(container, name string) (*openstack.Descriptor, error) {
	path, err := objectPath(container, name)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceObjectStore, http.MethodDelete, path).Build()
}

func list(path string, opts ListOpts) (*openstack.PagedDescriptor, error) {
	return openstack.NewDescriptor(openstack.ServiceObjectStore, http.MethodGet, path).
		Query("format", "json").
		Query("prefix", opts.Prefix).
		Query("delimiter", opts.Delimiter).
		PageSize(opts.PageSize).
		BuildPaged("name", "subdir")
}

// objectPath keeps the slashes of pseudo-directory object names.
func objectPath(container, name string) (string, error) {
	err := openstack.RequireID("container", container)
	if err != nil {
		return "", err
	}

	err = openstack.RequireID("object name", name)
	if err != nil {
		return "", err
	}

	return openstack.EscapePath(container) + "/" + openstack.EscapePath(strings.Split(name, "/")...), nil
}
