// Package network describes the Neutron endpoints for networks and ports.
package network

import (
	"net/http"
	"time"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// Network is a Neutron network.
type Network struct {
	ID           string    `json:"id"                        yaml:"id"`
	Name         string    `json:"name"                      yaml:"name"`
	Description  string    `json:"description,omitempty"     yaml:"description,omitempty"`
	Status       string    `json:"status"                    yaml:"status"`
	AdminStateUp bool      `json:"admin_state_up"            yaml:"admin_state_up"`
	Shared       bool      `json:"shared"                    yaml:"shared"`
	External     bool      `json:"router:external"           yaml:"external"`
	ProjectID    string    `json:"project_id"                yaml:"project_id"`
	Subnets      []string  `json:"subnets"                   yaml:"subnets"`
	MTU          int       `json:"mtu,omitempty"             yaml:"mtu,omitempty"`
	Tags         []string  `json:"tags,omitempty"            yaml:"tags,omitempty"`
	CreatedAt    time.Time `json:"created_at"                yaml:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"                yaml:"updated_at"`
}

// ListNetworksOpts filters a network listing. Nil booleans are not sent.
type ListNetworksOpts struct {
	Name      string
	Status    string
	ProjectID string
	Shared    *bool
	External  *bool
	PageSize  int
}

// ListNetworks lists networks.
func ListNetworks(opts ListNetworksOpts) *openstack.PagedDescriptor {
	return openstack.Must(openstack.NewDescriptor(openstack.ServiceNetwork, http.MethodGet, "v2.0/networks").
		Query("name", opts.Name).
		Query("status", opts.Status).
		Query("project_id", opts.ProjectID).
		Query("shared", optionalBool(opts.Shared)).
		Query("router:external", optionalBool(opts.External)).
		PageSize(opts.PageSize).
		ResponseKey("networks").
		BuildPaged("id"))
}

// GetNetwork fetches one network.
func GetNetwork(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("network id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceNetwork, http.MethodGet, "v2.0/networks/"+openstack.EscapePath(id)).
		ResponseKey("network").
		Build()
}

// CreateNetworkOpts is the body of a network create request.
type CreateNetworkOpts struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	AdminStateUp *bool  `json:"admin_state_up,omitempty"`
	Shared       *bool  `json:"shared,omitempty"`
	MTU          int    `json:"mtu,omitempty"`
}

// CreateNetwork creates a network.
func CreateNetwork(opts CreateNetworkOpts) (*openstack.Descriptor, error) {
	err := openstack.RequireID("network name", opts.Name)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceNetwork, http.MethodPost, "v2.0/networks").
		JSONBody("network", opts).
		ResponseKey("network").
		Build()
}

// DeleteNetwork deletes a network.
func DeleteNetwork(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("network id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceNetwork, http.MethodDelete, "v2.0/networks/"+openstack.EscapePath(id)).Build()
}

// NetworkFinder looks networks up by UUID or exact name.
func NetworkFinder() openstack.Finder[Network] {
	return openstack.Finder[Network]{
		Resource: "network",
		Get: func(id string) (openstack.Endpoint, error) {
			return GetNetwork(id)
		},
		List: func(name string) (openstack.Endpoint, error) {
			return ListNetworks(ListNetworksOpts{Name: name}), nil
		},
	}
}

func optionalBool(value *bool) string {
	switch {
	case value == nil:
		return ""
	case *value:
		return "true"
	default:
		return "false"
	}
}
