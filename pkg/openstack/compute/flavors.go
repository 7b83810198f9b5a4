package compute

import (
	"net/http"
	"strconv"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// Flavor is a Nova flavor.
type Flavor struct {
	ID          string            `json:"id"                         yaml:"id"`
	Name        string            `json:"name"                       yaml:"name"`
	VCPUs       int               `json:"vcpus"                      yaml:"vcpus"`
	RAM         int               `json:"ram"                        yaml:"ram"`
	Disk        int               `json:"disk"                       yaml:"disk"`
	Ephemeral   int               `json:"OS-FLV-EXT-DATA:ephemeral"  yaml:"ephemeral"`
	IsPublic    bool              `json:"os-flavor-access:is_public" yaml:"is_public"`
	Description string            `json:"description,omitempty"      yaml:"description,omitempty"`
	ExtraSpecs  map[string]string `json:"extra_specs,omitempty"      yaml:"extra_specs,omitempty"`
}

// ListFlavorsOpts filters a flavor listing.
type ListFlavorsOpts struct {
	MinRAM   int
	MinDisk  int
	IsPublic string
	PageSize int
}

// ListFlavors lists flavors with details.
func ListFlavors(opts ListFlavorsOpts) *openstack.PagedDescriptor {
	builder := openstack.NewDescriptor(openstack.ServiceCompute, http.MethodGet, "flavors/detail").
		Query("is_public", opts.IsPublic).
		PageSize(opts.PageSize).
		ResponseKey("flavors")

	if opts.MinRAM > 0 {
		builder.Query("minRam", strconv.Itoa(opts.MinRAM))
	}

	if opts.MinDisk > 0 {
		builder.Query("minDisk", strconv.Itoa(opts.MinDisk))
	}

	return openstack.Must(builder.BuildPaged("id"))
}

// GetFlavor fetches one flavor.
func GetFlavor(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("flavor id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceCompute, http.MethodGet, "flavors/"+openstack.EscapePath(id)).
		ResponseKey("flavor").
		Build()
}

// FlavorFinder looks flavors up by ID or exact name. Flavor IDs are free
// form, so every input is tried as an ID first.
func FlavorFinder() openstack.Finder[Flavor] {
	return openstack.Finder[Flavor]{
		Resource: "flavor",
		Get: func(id string) (openstack.Endpoint, error) {
			return GetFlavor(id)
		},
		List: func(string) (openstack.Endpoint, error) {
			return ListFlavors(ListFlavorsOpts{}), nil
		},
		LooksLikeID: func(string) bool { return true },
	}
}
