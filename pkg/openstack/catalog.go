package openstack

import "strings"

// Interface values for catalog endpoints.
const (
	InterfacePublic   = "public"
	InterfaceInternal = "internal"
	InterfaceAdmin    = "admin"
)

// Catalog is the service catalog returned with a Keystone token.
type Catalog []CatalogService

// CatalogService is one service and its endpoints.
type CatalogService struct {
	Type      string            `json:"type"           yaml:"type"`
	Name      string            `json:"name,omitempty" yaml:"name,omitempty"`
	ID        string            `json:"id,omitempty"   yaml:"id,omitempty"`
	Endpoints []CatalogEndpoint `json:"endpoints"      yaml:"endpoints"`
}

// CatalogEndpoint is one URL for a service.
type CatalogEndpoint struct {
	ID        string `json:"id,omitempty"        yaml:"id,omitempty"`
	Interface string `json:"interface"           yaml:"interface"`
	Region    string `json:"region,omitempty"    yaml:"region,omitempty"`
	RegionID  string `json:"region_id,omitempty" yaml:"region_id,omitempty"`
	URL       string `json:"url"                 yaml:"url"`
}

// Lookup returns the base URL of service for region and iface. Catalog
// entries registered under an alias of service also match. An empty region
// matches any region; an empty iface means public.
func (c Catalog) Lookup(service ServiceType, region, iface string) (string, error) {
	if iface == "" {
		iface = InterfacePublic
	}

	iface = strings.TrimSuffix(strings.ToLower(iface), "url")

	for _, catalogType := range service.CatalogTypes() {
		for _, entry := range c {
			if entry.Type != catalogType {
				continue
			}

			for _, endpoint := range entry.Endpoints {
				if endpoint.Interface != iface {
					continue
				}

				if region != "" && endpoint.Region != region && endpoint.RegionID != region {
					continue
				}

				return endpoint.URL, nil
			}
		}
	}

	return "", &ServiceNotFoundError{Service: service, Region: region, Interface: iface}
}

// Services lists the service types present, normalized.
func (c Catalog) Services() []ServiceType {
	services := make([]ServiceType, 0, len(c))
	for _, entry := range c {
		services = append(services, ParseServiceType(entry.Type))
	}

	return services
}

// JoinURL appends path to base with exactly one slash between them.
// A path of "" or "/" addresses base itself.
func JoinURL(base, path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return base
	}

	return strings.TrimSuffix(base, "/") + "/" + trimmed
}
