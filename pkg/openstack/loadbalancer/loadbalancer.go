// Package loadbalancer describes the Octavia v2 load balancer endpoints.
package loadbalancer

import (
	"net/http"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// LoadBalancer is an Octavia load balancer.
type LoadBalancer struct {
	ID                 string         `json:"id"                    yaml:"id"`
	Name               string         `json:"name"                  yaml:"name"`
	Description        string         `json:"description,omitempty" yaml:"description,omitempty"`
	ProvisioningStatus string         `json:"provisioning_status"   yaml:"provisioning_status"`
	OperatingStatus    string         `json:"operating_status"      yaml:"operating_status"`
	AdminStateUp       bool           `json:"admin_state_up"        yaml:"admin_state_up"`
	VipAddress         string         `json:"vip_address"           yaml:"vip_address"`
	VipPortID          string         `json:"vip_port_id"           yaml:"vip_port_id"`
	VipSubnetID        string         `json:"vip_subnet_id"         yaml:"vip_subnet_id"`
	VipNetworkID       string         `json:"vip_network_id"        yaml:"vip_network_id"`
	Provider           string         `json:"provider"              yaml:"provider"`
	FlavorID           string         `json:"flavor_id,omitempty"   yaml:"flavor_id,omitempty"`
	ProjectID          string         `json:"project_id"            yaml:"project_id"`
	Listeners          []Ref          `json:"listeners"             yaml:"listeners"`
	Pools              []Ref          `json:"pools"                 yaml:"pools"`
	CreatedAt          openstack.Time `json:"created_at"            yaml:"created_at"`
	UpdatedAt          openstack.Time `json:"updated_at"            yaml:"updated_at"`
}

// Ref is a reference to a child resource.
type Ref struct {
	ID string `json:"id" yaml:"id"`
}

// ListOpts filters a load balancer listing.
type ListOpts struct {
	Name               string
	ProvisioningStatus string
	OperatingStatus    string
	VipAddress         string
	PageSize           int
}

// ListLoadBalancers lists load balancers.
func ListLoadBalancers(opts ListOpts) *openstack.PagedDescriptor {
	return openstack.Must(openstack.NewDescriptor(openstack.ServiceLoadBalancer, http.MethodGet, "v2/lbaas/loadbalancers").
		Query("name", opts.Name).
		Query("provisioning_status", opts.ProvisioningStatus).
		Query("operating_status", opts.OperatingStatus).
		Query("vip_address", opts.VipAddress).
		PageSize(opts.PageSize).
		ResponseKey("loadbalancers").
		BuildPaged("id"))
}

// GetLoadBalancer fetches one load balancer.
func GetLoadBalancer(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("load balancer id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceLoadBalancer, http.MethodGet, "v2/lbaas/loadbalancers/"+openstack.EscapePath(id)).
		ResponseKey("loadbalancer").
		Build()
}

// DeleteLoadBalancer deletes a load balancer. With cascade its listeners,
// pools and members go too.
func DeleteLoadBalancer(id string, cascade bool) (*openstack.Descriptor, error) {
	err := openstack.RequireID("load balancer id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceLoadBalancer, http.MethodDelete, "v2/lbaas/loadbalancers/"+openstack.EscapePath(id)).
		QueryBool("cascade", cascade).
		Build()
}

// Finder looks load balancers up by UUID or exact name.
func Finder() openstack.Finder[LoadBalancer] {
	return openstack.Finder[LoadBalancer]{
		Resource: "load balancer",
		Get: func(id string) (openstack.Endpoint, error) {
			return GetLoadBalancer(id)
		},
		List: func(name string) (openstack.Endpoint, error) {
			return ListLoadBalancers(ListOpts{Name: name}), nil
		},
	}
}
