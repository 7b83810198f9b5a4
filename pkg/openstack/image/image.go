// Package image describes the Glance v2 endpoints for images and image data.
package image

import (
	"net/http"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// Image is a Glance image. Glance returns images unwrapped, so the get and
// create descriptors have no response key.
type Image struct {
	ID              string    `json:"id"                         yaml:"id"`
	Name            string    `json:"name"                       yaml:"name"`
	Status          string    `json:"status"                     yaml:"status"`
	Visibility      string    `json:"visibility"                 yaml:"visibility"`
	Owner           string    `json:"owner"                      yaml:"owner"`
	DiskFormat      string    `json:"disk_format,omitempty"      yaml:"disk_format,omitempty"`
	ContainerFormat string    `json:"container_format,omitempty" yaml:"container_format,omitempty"`
	Size            int64     `json:"size,omitempty"             yaml:"size,omitempty"`
	VirtualSize     int64     `json:"virtual_size,omitempty"     yaml:"virtual_size,omitempty"`
	Checksum        string    `json:"checksum,omitempty"         yaml:"checksum,omitempty"`
	HashAlgo        string    `json:"os_hash_algo,omitempty"     yaml:"os_hash_algo,omitempty"`
	HashValue       string    `json:"os_hash_value,omitempty"    yaml:"os_hash_value,omitempty"`
	MinDisk         int       `json:"min_disk"                   yaml:"min_disk"`
	MinRAM          int       `json:"min_ram"                    yaml:"min_ram"`
	Protected       bool      `json:"protected"                  yaml:"protected"`
	Tags            []string  `json:"tags"                       yaml:"tags"`
	CreatedAt       time.Time `json:"created_at"                 yaml:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"                 yaml:"updated_at"`
}

// Image statuses.
const (
	StatusQueued = "queued"
	StatusSaving = "saving"
	StatusActive = "active"
)

// ListImagesOpts filters an image listing.
type ListImagesOpts struct {
	Name       string
	Status     string
	Visibility string
	Owner      string
	Tags       []string
	SortKey    string
	SortDir    string
	PageSize   int
}

// ListImages lists images.
func ListImages(opts ListImagesOpts) *openstack.PagedDescriptor {
	return openstack.Must(openstack.NewDescriptor(openstack.ServiceImage, http.MethodGet, "v2/images").
		Query("name", opts.Name).
		Query("status", opts.Status).
		Query("visibility", opts.Visibility).
		Query("owner", opts.Owner).
		Query("tag", opts.Tags...).
		Query("sort_key", opts.SortKey).
		Query("sort_dir", opts.SortDir).
		PageSize(opts.PageSize).
		ResponseKey("images").
		BuildPaged("id"))
}

// GetImage fetches one image.
func GetImage(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("image id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceImage, http.MethodGet, imagePath(id)).Build()
}

// CreateImageOpts is the body of an image create request.
type CreateImageOpts struct {
	Name            string   `json:"name"`
	DiskFormat      string   `json:"disk_format,omitempty"`
	ContainerFormat string   `json:"container_format,omitempty"`
	Visibility      string   `json:"visibility,omitempty"`
	MinDisk         int      `json:"min_disk,omitempty"`
	MinRAM          int      `json:"min_ram,omitempty"`
	Protected       bool     `json:"protected,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// CreateImage registers an image record. Its data is uploaded separately.
func CreateImage(opts CreateImageOpts) (*openstack.Descriptor, error) {
	err := openstack.RequireID("image name", opts.Name)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceImage, http.MethodPost, "v2/images").
		JSONBody("", opts).
		Build()
}

// DeleteImage deletes an image.
func DeleteImage(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("image id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceImage, http.MethodDelete, imagePath(id)).Build()
}

// UploadData uploads the image payload. The image must be queued.
func UploadData(id string, data []byte) (*openstack.Descriptor, error) {
	err := openstack.RequireID("image id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceImage, http.MethodPut, imagePath(id)+"/file").
		RawBody(constants.MediaTypeOctetStream, data).
		Build()
}

// DownloadData fetches the image payload. Execute it with QueryRaw; the
// Content-MD5 response header carries the checksum.
func DownloadData(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("image id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceImage, http.MethodGet, imagePath(id)+"/file").
		Header(constants.HeaderAccept, constants.MediaTypeOctetStream).
		Build()
}

// ImageFinder looks images up by UUID or exact name.
func ImageFinder() openstack.Finder[Image] {
	return openstack.Finder[Image]{
		Resource: "image",
		Get: func(id string) (openstack.Endpoint, error) {
			return GetImage(id)
		},
		List: func(name string) (openstack.Endpoint, error) {
			return ListImages(ListImagesOpts{Name: name}), nil
		},
	}
}

func imagePath(id string) string {
	return "v2/images/" + openstack.EscapePath(id)
}
