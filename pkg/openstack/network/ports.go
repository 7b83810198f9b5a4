package network

import (
	"net/http"
	"time"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// Port is a Neutron port.
type Port struct {
	ID             string    `json:"id"              yaml:"id"`
	Name           string    `json:"name"            yaml:"name"`
	NetworkID      string    `json:"network_id"      yaml:"network_id"`
	MACAddress     string    `json:"mac_address"     yaml:"mac_address"`
	Status         string    `json:"status"          yaml:"status"`
	AdminStateUp   bool      `json:"admin_state_up"  yaml:"admin_state_up"`
	FixedIPs       []FixedIP `json:"fixed_ips"       yaml:"fixed_ips"`
	DeviceID       string    `json:"device_id"       yaml:"device_id"`
	DeviceOwner    string    `json:"device_owner"    yaml:"device_owner"`
	SecurityGroups []string  `json:"security_groups" yaml:"security_groups"`
	ProjectID      string    `json:"project_id"      yaml:"project_id"`
	CreatedAt      time.Time `json:"created_at"      yaml:"created_at"`
}

type FixedIP struct {
	SubnetID  string `json:"subnet_id"  yaml:"subnet_id"`
	IPAddress string `json:"ip_address" yaml:"ip_address"`
}

// ListPortsOpts filters a port listing.
type ListPortsOpts struct {
	Name        string
	NetworkID   string
	DeviceID    string
	DeviceOwner string
	Status      string
	PageSize    int
}

// ListPorts lists ports.
func ListPorts(opts ListPortsOpts) *openstack.PagedDescriptor {
	return openstack.Must(openstack.NewDescriptor(openstack.ServiceNetwork, http.MethodGet, "v2.0/ports").
		Query("name", opts.Name).
		Query("network_id", opts.NetworkID).
		Query("device_id", opts.DeviceID).
		Query("device_owner", opts.DeviceOwner).
		Query("status", opts.Status).
		PageSize(opts.PageSize).
		ResponseKey("ports").
		BuildPaged("id"))
}

// GetPort fetches one port.
func GetPort(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("port id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceNetwork, http.MethodGet, "v2.0/ports/"+openstack.EscapePath(id)).
		ResponseKey("port").
		Build()
}

// DeletePort deletes a port.
func DeletePort(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("port id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceNetwork, http.MethodDelete, "v2.0/ports/"+openstack.EscapePath(id)).Build()
}

func PortFinder() openstack.Finder[Port] {
	return openstack.Finder[Port]{
		Resource: "port",
		Get: func(id string) (openstack.Endpoint, error) {
			return GetPort(id)
		},
		List: func(name string) (openstack.Endpoint, error) {
			return ListPorts(ListPortsOpts{Name: name}), nil
		},
	}
}
