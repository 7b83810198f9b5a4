// Package blockstorage describes the Cinder v3 volume endpoints. The catalog
// URL already carries the project ID.
package blockstorage

import (
	"net/http"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// Volume is a Cinder volume.
type Volume struct {
	ID               string            `json:"id"                    yaml:"id"`
	Name             string            `json:"name"                  yaml:"name"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	Status           string            `json:"status"                yaml:"status"`
	Size             int               `json:"size"                  yaml:"size"`
	VolumeType       string            `json:"volume_type"           yaml:"volume_type"`
	Bootable         string            `json:"bootable"              yaml:"bootable"`
	Multiattach      bool              `json:"multiattach"           yaml:"multiattach"`
	Encrypted        bool              `json:"encrypted"             yaml:"encrypted"`
	AvailabilityZone string            `json:"availability_zone"     yaml:"availability_zone"`
	SnapshotID       string            `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	Attachments      []Attachment      `json:"attachments"           yaml:"attachments"`
	Metadata         map[string]string `json:"metadata,omitempty"    yaml:"metadata,omitempty"`
	CreatedAt        openstack.Time    `json:"created_at"            yaml:"created_at"`
	UpdatedAt        openstack.Time    `json:"updated_at"            yaml:"updated_at"`
}

type Attachment struct {
	ServerID     string `json:"server_id"     yaml:"server_id"`
	AttachmentID string `json:"attachment_id" yaml:"attachment_id"`
	Device       string `json:"device"        yaml:"device"`
}

// ListVolumesOpts filters a volume listing.
type ListVolumesOpts struct {
	Name       string
	Status     string
	AllTenants bool
	PageSize   int
}

// ListVolumes lists volumes with details.
func ListVolumes(opts ListVolumesOpts) *openstack.PagedDescriptor {
	return openstack.Must(openstack.NewDescriptor(openstack.ServiceBlockStorage, http.MethodGet, "volumes/detail").
		Query("name", opts.Name).
		Query("status", opts.Status).
		QueryBool("all_tenants", opts.AllTenants).
		PageSize(opts.PageSize).
		ResponseKey("volumes").
		BuildPaged("id"))
}

// GetVolume fetches one volume.
func GetVolume(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("volume id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceBlockStorage, http.MethodGet, "volumes/"+openstack.EscapePath(id)).
		ResponseKey("volume").
		Build()
}

// CreateVolumeOpts is the body of a volume create request. Size is in GiB.
type CreateVolumeOpts struct {
	Name             string            `json:"name,omitempty"`
	Description      string            `json:"description,omitempty"`
	Size             int               `json:"size"`
	VolumeType       string            `json:"volume_type,omitempty"`
	AvailabilityZone string            `json:"availability_zone,omitempty"`
	SnapshotID       string            `json:"snapshot_id,omitempty"`
	ImageRef         string            `json:"imageRef,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// CreateVolume creates a volume.
func CreateVolume(opts CreateVolumeOpts) (*openstack.Descriptor, error) {
	if opts.Size <= 0 && opts.SnapshotID == "" {
		return nil, openstack.RequireID("volume size", "")
	}

	return openstack.NewDescriptor(openstack.ServiceBlockStorage, http.MethodPost, "volumes").
		JSONBody("volume", opts).
		ResponseKey("volume").
		Build()
}

// DeleteVolume deletes a volume, with its snapshots when cascade is set.
func DeleteVolume(id string, cascade bool) (*openstack.Descriptor, error) {
	err := openstack.RequireID("volume id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceBlockStorage, http.MethodDelete, "volumes/"+openstack.EscapePath(id)).
		QueryBool("cascade", cascade).
		Build()
}

// VolumeFinder looks volumes up by UUID or exact name.
func VolumeFinder() openstack.Finder[Volume] {
	return openstack.Finder[Volume]{
		Resource: "volume",
		Get: func(id string) (openstack.Endpoint, error) {
			return GetVolume(id)
		},
		List: func(name string) (openstack.Endpoint, error) {
			return ListVolumes(ListVolumesOpts{Name: name}), nil
		},
	}
}
