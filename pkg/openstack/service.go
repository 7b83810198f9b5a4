package openstack

import "strings"

// ServiceType is an OpenStack API category used to resolve a base URL from
// the service catalog. The constants below are the known official types;
// any other string is carried as-is so that unrecognized services still
// resolve through the catalog.
type ServiceType string

// Known service types.
const (
	ServiceCompute                           ServiceType = "compute"
	ServiceNetwork                           ServiceType = "network"
	ServiceIdentity                          ServiceType = "identity"
	ServiceImage                             ServiceType = "image"
	ServiceBlockStorage                      ServiceType = "block-storage"
	ServiceObjectStore                       ServiceType = "object-store"
	ServiceDNS                               ServiceType = "dns"
	ServiceLoadBalancer                      ServiceType = "load-balancer"
	ServiceContainerInfrastructureManagement ServiceType = "container-infrastructure-management"
	ServicePlacement                         ServiceType = "placement"
	ServiceSharedFileSystem                  ServiceType = "shared-file-system"
	ServiceBareMetal                         ServiceType = "baremetal"
)

// serviceAliases lists the historical catalog types for each official type,
// in lookup preference order.
var serviceAliases = map[ServiceType][]string{
	ServiceBlockStorage:                      {"volumev3", "volumev2", "volume", "block-store"},
	ServiceContainerInfrastructureManagement: {"container-infra"},
	ServiceLoadBalancer:                      {"octavia"},
	ServiceSharedFileSystem:                  {"sharev2", "share"},
	ServiceObjectStore:                       {"swift"},
	ServiceBareMetal:                         {"ironic"},
}

// microversionNames holds the services whose OpenStack-API-Version header
// names them differently from their catalog type.
var microversionNames = map[ServiceType]string{
	ServiceBlockStorage: "volume",
}

var knownServices = map[ServiceType]struct{}{
	ServiceCompute:                           {},
	ServiceNetwork:                           {},
	ServiceIdentity:                          {},
	ServiceImage:                             {},
	ServiceBlockStorage:                      {},
	ServiceObjectStore:                       {},
	ServiceDNS:                               {},
	ServiceLoadBalancer:                      {},
	ServiceContainerInfrastructureManagement: {},
	ServicePlacement:                         {},
	ServiceSharedFileSystem:                  {},
	ServiceBareMetal:                         {},
}

// ParseServiceType normalizes a catalog or user supplied type. Aliases map
// to their official type; unknown values are kept verbatim (lowercased).
func ParseServiceType(value string) ServiceType {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "_", "-")

	if _, ok := knownServices[ServiceType(normalized)]; ok {
		return ServiceType(normalized)
	}

	for official, aliases := range serviceAliases {
		for _, alias := range aliases {
			if alias == normalized {
				return official
			}
		}
	}

	return ServiceType(normalized)
}

// Known reports whether the type is one of the official constants.
func (s ServiceType) Known() bool {
	_, ok := knownServices[s]

	return ok
}

// CatalogTypes returns the catalog type strings that satisfy this service,
// official name first.
func (s ServiceType) CatalogTypes() []string {
	types := []string{string(s)}

	return append(types, serviceAliases[s]...)
}

// MicroversionName is the service name sent in the OpenStack-API-Version
// header.
func (s ServiceType) MicroversionName() string {
	if name, ok := microversionNames[s]; ok {
		return name
	}

	return string(s)
}

// String implements fmt.Stringer.
func (s ServiceType) String() string {
	return string(s)
}
