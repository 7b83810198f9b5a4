package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// versionDocument is one entry of a service's version discovery document.
// Nova and Cinder report microversions in version/min_version, Ironic and
// Manila in max_version.
type versionDocument struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Version    string `json:"version"`
	MinVersion string `json:"min_version"`
	MaxVersion string `json:"max_version"`
}

type cachedRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// MaxAPIVersion implements openstack.VersionDiscoverer. It returns a zero
// version when discovery is disabled or the service does not say.
func (c *Client) MaxAPIVersion(ctx context.Context, service openstack.ServiceType) (openstack.APIVersion, error) {
	versions, err := c.VersionRange(ctx, service)
	if err != nil {
		return openstack.APIVersion{}, err
	}

	return versions.Max, nil
}

// VersionRange returns the microversion window of service, cached per
// endpoint. Discovery failures yield an empty range.
func (c *Client) VersionRange(ctx context.Context, service openstack.ServiceType) (openstack.VersionRange, error) {
	if !c.config.DiscoverVersions {
		return openstack.VersionRange{}, nil
	}

	base, err := c.BaseURL(ctx, service)
	if err != nil {
		return openstack.VersionRange{}, err
	}

	key := "version:" + string(service) + ":" + base

	data, err := openstack.LoadBytes(ctx, c.cache, key)
	if err == nil {
		var cached cachedRange

		if json.Unmarshal(data, &cached) == nil {
			return parseRange(cached), nil
		}
	}

	discovered := c.discover(ctx, service, base)

	data, err = json.Marshal(discovered)
	if err == nil {
		_ = openstack.StoreBytes(ctx, c.cache, key, data, constants.DefaultVersionCacheTTL)
	}

	return parseRange(discovered), nil
}

func (c *Client) discover(ctx context.Context, service openstack.ServiceType, base string) cachedRange {
	ctx, cancel := context.WithTimeout(ctx, constants.ShortHTTPTimeout)
	defer cancel()

	resp, err := c.Execute(ctx, &openstack.Request{
		Method:  http.MethodGet,
		URL:     base,
		Service: service,
		Headers: http.Header{constants.HeaderAccept: []string{constants.MediaTypeJSON}},
	})
	if err != nil {
		c.debug("Version discovery failed", service, err.Error())

		return cachedRange{}
	}

	// A version list is answered with 300 Multiple Choices.
	if resp.StatusCode >= http.StatusBadRequest {
		c.debug("Version discovery failed", service, http.StatusText(resp.StatusCode))

		return cachedRange{}
	}

	document, ok := parseVersionDocument(resp.Body)
	if !ok {
		return cachedRange{}
	}

	maximum := document.Version
	if maximum == "" {
		maximum = document.MaxVersion
	}

	return cachedRange{Min: document.MinVersion, Max: maximum}
}

// parseVersionDocument reads {"version": {...}} or the CURRENT entry of
// {"versions": [...]} (or Keystone's {"versions": {"values": [...]}}).
func parseVersionDocument(body []byte) (versionDocument, bool) {
	var wire struct {
		Version  *versionDocument `json:"version"`
		Versions json.RawMessage  `json:"versions"`
	}

	err := json.Unmarshal(body, &wire)
	if err != nil {
		return versionDocument{}, false
	}

	if wire.Version != nil {
		return *wire.Version, true
	}

	var list []versionDocument

	err = json.Unmarshal(wire.Versions, &list)
	if err != nil {
		var values struct {
			Values []versionDocument `json:"values"`
		}

		if json.Unmarshal(wire.Versions, &values) != nil {
			return versionDocument{}, false
		}

		list = values.Values
	}

	for _, candidate := range list {
		if strings.EqualFold(candidate.Status, "CURRENT") {
			return candidate, true
		}
	}

	if len(list) > 0 {
		return list[0], true
	}

	return versionDocument{}, false
}

func parseRange(cached cachedRange) openstack.VersionRange {
	var versions openstack.VersionRange

	if minimum, err := openstack.ParseAPIVersion(cached.Min); err == nil {
		versions.Min = minimum
	}

	if maximum, err := openstack.ParseAPIVersion(cached.Max); err == nil {
		versions.Max = maximum
	}

	return versions
}

func (c *Client) debug(msg string, service openstack.ServiceType, reason string) {
	if c.logger == nil {
		return
	}

	c.logger.Debug(msg, map[string]interface{}{
		"service": string(service),
		"reason":  reason,
	})
}
