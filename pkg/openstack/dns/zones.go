// Package dns describes the Designate v2 zone and recordset endpoints.
package dns

import (
	"net/http"
	"strings"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// Zone is a Designate zone.
type Zone struct {
	ID          string         `json:"id"                    yaml:"id"`
	Name        string         `json:"name"                  yaml:"name"`
	Email       string         `json:"email"                 yaml:"email"`
	Type        string         `json:"type"                  yaml:"type"`
	Status      string         `json:"status"                yaml:"status"`
	Action      string         `json:"action"                yaml:"action"`
	TTL         int            `json:"ttl"                   yaml:"ttl"`
	Serial      int64          `json:"serial"                yaml:"serial"`
	PoolID      string         `json:"pool_id"               yaml:"pool_id"`
	ProjectID   string         `json:"project_id"            yaml:"project_id"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   openstack.Time `json:"created_at"            yaml:"created_at"`
	UpdatedAt   openstack.Time `json:"updated_at"            yaml:"updated_at"`
}

// RecordSet is a set of records of one type and name in a zone.
type RecordSet struct {
	ID      string   `json:"id"      yaml:"id"`
	ZoneID  string   `json:"zone_id" yaml:"zone_id"`
	Name    string   `json:"name"    yaml:"name"`
	Type    string   `json:"type"    yaml:"type"`
	Records []string `json:"records" yaml:"records"`
	TTL     *int     `json:"ttl"     yaml:"ttl"`
	Status  string   `json:"status"  yaml:"status"`
}

// ListZonesOpts filters a zone listing.
type ListZonesOpts struct {
	Name     string
	Status   string
	Type     string
	PageSize int
}

// ListZones lists zones.
func ListZones(opts ListZonesOpts) *openstack.PagedDescriptor {
	return openstack.Must(openstack.NewDescriptor(openstack.ServiceDNS, http.MethodGet, "v2/zones").
		Query("name", opts.Name).
		Query("status", opts.Status).
		Query("type", opts.Type).
		PageSize(opts.PageSize).
		ResponseKey("zones").
		BuildPaged("id"))
}

// GetZone fetches one zone. Designate returns it unwrapped.
func GetZone(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("zone id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceDNS, http.MethodGet, "v2/zones/"+openstack.EscapePath(id)).Build()
}

// CreateZoneOpts is the body of a zone create request.
type CreateZoneOpts struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	TTL         int    `json:"ttl,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// CreateZone creates a zone. Name must be fully qualified.
func CreateZone(opts CreateZoneOpts) (*openstack.Descriptor, error) {
	err := openstack.RequireID("zone name", opts.Name)
	if err != nil {
		return nil, err
	}

	opts.Name = Canonical(opts.Name)

	return openstack.NewDescriptor(openstack.ServiceDNS, http.MethodPost, "v2/zones").
		JSONBody("", opts).
		Build()
}

// DeleteZone deletes a zone. Deletion is asynchronous; the response is the
// zone with action DELETE.
func DeleteZone(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("zone id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceDNS, http.MethodDelete, "v2/zones/"+openstack.EscapePath(id)).Build()
}

// ListRecordSets lists the recordsets of a zone.
func ListRecordSets(zoneID string, pageSize int) (*openstack.PagedDescriptor, error) {
	err := openstack.RequireID("zone id", zoneID)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceDNS, http.MethodGet, "v2/zones/"+openstack.EscapePath(zoneID)+"/recordsets").
		PageSize(pageSize).
		ResponseKey("recordsets").
		BuildPaged("id")
}

// Canonical returns name with the trailing dot Designate stores.
func Canonical(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}

	return name + "."
}

// ZoneFinder looks zones up by UUID or exact name. Stored names end in a
// dot, so pass user input through Canonical first.
func ZoneFinder() openstack.Finder[Zone] {
	return openstack.Finder[Zone]{
		Resource: "zone",
		Get: func(id string) (openstack.Endpoint, error) {
			return GetZone(id)
		},
		List: func(name string) (openstack.Endpoint, error) {
			return ListZones(ListZonesOpts{Name: name}), nil
		},
	}
}
