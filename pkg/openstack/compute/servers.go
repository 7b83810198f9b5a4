// Package compute describes the Nova endpoints used by the client: servers
// and flavors.
package compute

import (
	"net/http"
	"time"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// ServerListVersion is the microversion at which server listings embed the
// flavor details instead of a link.
const ServerListVersion = "2.47"

// Server is a Nova server.
type Server struct {
	ID               string               `json:"id"                                  yaml:"id"`
	Name             string               `json:"name"                                yaml:"name"`
	Status           string               `json:"status"                              yaml:"status"`
	TenantID         string               `json:"tenant_id"                           yaml:"tenant_id"`
	UserID           string               `json:"user_id"                             yaml:"user_id"`
	KeyName          string               `json:"key_name,omitempty"                  yaml:"key_name,omitempty"`
	AccessIPv4       string               `json:"accessIPv4,omitempty"                yaml:"access_ipv4,omitempty"`
	AccessIPv6       string               `json:"accessIPv6,omitempty"                yaml:"access_ipv6,omitempty"`
	Flavor           ServerFlavor         `json:"flavor"                              yaml:"flavor"`
	Addresses        map[string][]Address `json:"addresses,omitempty"                 yaml:"addresses,omitempty"`
	Metadata         map[string]string    `json:"metadata,omitempty"                  yaml:"metadata,omitempty"`
	AvailabilityZone string               `json:"OS-EXT-AZ:availability_zone"         yaml:"availability_zone"`
	PowerState       int                  `json:"OS-EXT-STS:power_state"              yaml:"power_state"`
	TaskState        *string              `json:"OS-EXT-STS:task_state"               yaml:"task_state"`
	Created          time.Time            `json:"created"                             yaml:"created"`
	Updated          time.Time            `json:"updated"                             yaml:"updated"`
	SecurityGroups   []SecurityGroupRef   `json:"security_groups,omitempty"           yaml:"security_groups,omitempty"`
	Volumes          []VolumeRef          `json:"os-extended-volumes:volumes_attached" yaml:"volumes_attached,omitempty"`
}

// ServerFlavor is the flavor embedded in a server.
type ServerFlavor struct {
	ID           string `json:"id,omitempty"            yaml:"id,omitempty"`
	OriginalName string `json:"original_name,omitempty" yaml:"original_name,omitempty"`
	VCPUs        int    `json:"vcpus,omitempty"         yaml:"vcpus,omitempty"`
	RAM          int    `json:"ram,omitempty"           yaml:"ram,omitempty"`
	Disk         int    `json:"disk,omitempty"          yaml:"disk,omitempty"`
}

// Address is one IP address of a server.
type Address struct {
	Addr    string `json:"addr"                    yaml:"addr"`
	Version int    `json:"version"                 yaml:"version"`
	Type    string `json:"OS-EXT-IPS:type"         yaml:"type"`
	MAC     string `json:"OS-EXT-IPS-MAC:mac_addr" yaml:"mac"`
}

type SecurityGroupRef struct {
	Name string `json:"name" yaml:"name"`
}

type VolumeRef struct {
	ID string `json:"id" yaml:"id"`
}

// ListServersOpts filters a server listing. Name is a regular expression
// on the Nova side.
type ListServersOpts struct {
	Name       string
	Status     string
	Flavor     string
	Image      string
	Host       string
	AllTenants bool
	PageSize   int
}

// ListServers lists servers with details.
func ListServers(opts ListServersOpts) *openstack.PagedDescriptor {
	return openstack.Must(openstack.NewDescriptor(openstack.ServiceCompute, http.MethodGet, "servers/detail").
		Query("name", opts.Name).
		Query("status", opts.Status).
		Query("flavor", opts.Flavor).
		Query("image", opts.Image).
		Query("host", opts.Host).
		QueryBool("all_tenants", opts.AllTenants).
		PageSize(opts.PageSize).
		APIVersion(ServerListVersion).
		ResponseKey("servers").
		BuildPaged("id"))
}

// GetServer fetches one server.
func GetServer(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("server id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceCompute, http.MethodGet, "servers/"+openstack.EscapePath(id)).
		APIVersion(ServerListVersion).
		ResponseKey("server").
		Build()
}

// CreateServerOpts is the body of a server create request.
type CreateServerOpts struct {
	Name             string             `json:"name"`
	FlavorRef        string             `json:"flavorRef"`
	ImageRef         string             `json:"imageRef,omitempty"`
	KeyName          string             `json:"key_name,omitempty"`
	AvailabilityZone string             `json:"availability_zone,omitempty"`
	Networks         []NetworkRef       `json:"networks,omitempty"`
	Metadata         map[string]string  `json:"metadata,omitempty"`
	UserData         string             `json:"user_data,omitempty"`
	SecurityGroups   []SecurityGroupRef `json:"security_groups,omitempty"`
}

// NetworkRef attaches a server to a network or port.
type NetworkRef struct {
	UUID    string `json:"uuid,omitempty"`
	Port    string `json:"port,omitempty"`
	FixedIP string `json:"fixed_ip,omitempty"`
}

// CreatedServer is the abbreviated server returned by a create request.
type CreatedServer struct {
	ID        string `json:"id"`
	AdminPass string `json:"adminPass,omitempty"`
}

// CreateServer boots a server.
func CreateServer(opts CreateServerOpts) (*openstack.Descriptor, error) {
	err := openstack.RequireID("server name", opts.Name)
	if err != nil {
		return nil, err
	}

	err = openstack.RequireID("flavor", opts.FlavorRef)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceCompute, http.MethodPost, "servers").
		JSONBody("server", opts).
		ResponseKey("server").
		Build()
}

// DeleteServer deletes a server.
func DeleteServer(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("server id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceCompute, http.MethodDelete, "servers/"+openstack.EscapePath(id)).Build()
}

// ServerFinder looks servers up by UUID or exact name.
func ServerFinder() openstack.Finder[Server] {
	return openstack.Finder[Server]{
		Resource: "server",
		Get: func(id string) (openstack.Endpoint, error) {
			return GetServer(id)
		},
		List: func(name string) (openstack.Endpoint, error) {
			return ListServers(ListServersOpts{Name: name}), nil
		},
	}
}
