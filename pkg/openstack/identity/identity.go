// Package identity describes the Keystone v3 endpoints the client reads
// after authenticating. Paths are relative to the catalog URL, which
// already ends in /v3.
package identity

import (
	"net/http"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/fivetwenty-io/ostack/pkg/openstack"
)

// Project is a Keystone project.
type Project struct {
	ID          string   `json:"id"                    yaml:"id"`
	Name        string   `json:"name"                  yaml:"name"`
	DomainID    string   `json:"domain_id"             yaml:"domain_id"`
	ParentID    string   `json:"parent_id,omitempty"   yaml:"parent_id,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled     bool     `json:"enabled"               yaml:"enabled"`
	IsDomain    bool     `json:"is_domain"             yaml:"is_domain"`
	Tags        []string `json:"tags,omitempty"        yaml:"tags,omitempty"`
}

// ListProjectsOpts filters a project listing.
type ListProjectsOpts struct {
	Name     string
	DomainID string
	ParentID string
	Enabled  *bool
}

// ListProjects lists projects. Keystone returns the whole collection in one
// response.
func ListProjects(opts ListProjectsOpts) *openstack.Descriptor {
	builder := openstack.NewDescriptor(openstack.ServiceIdentity, http.MethodGet, "projects").
		Query("name", opts.Name).
		Query("domain_id", opts.DomainID).
		Query("parent_id", opts.ParentID).
		ResponseKey("projects")

	if opts.Enabled != nil {
		if *opts.Enabled {
			builder.Query("enabled", "true")
		} else {
			builder.Query("enabled", "false")
		}
	}

	return openstack.Must(builder.Build())
}

// ListUserProjects lists the projects userID may scope to.
func ListUserProjects(userID string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("user id", userID)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceIdentity, http.MethodGet, "users/"+openstack.EscapePath(userID)+"/projects").
		ResponseKey("projects").
		Build()
}

// GetProject fetches one project.
func GetProject(id string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("project id", id)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceIdentity, http.MethodGet, "projects/"+openstack.EscapePath(id)).
		ResponseKey("project").
		Build()
}

// ProjectFinder looks projects up by ID or exact name.
func ProjectFinder() openstack.Finder[Project] {
	return openstack.Finder[Project]{
		Resource: "project",
		Get: func(id string) (openstack.Endpoint, error) {
			return GetProject(id)
		},
		List: func(name string) (openstack.Endpoint, error) {
			return ListProjects(ListProjectsOpts{Name: name}), nil
		},
	}
}

// ValidateToken checks subjectToken and returns its token body.
func ValidateToken(subjectToken string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("subject token", subjectToken)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceIdentity, http.MethodGet, "auth/tokens").
		Header(constants.SubjectTokenHeader, subjectToken).
		ResponseKey("token").
		Build()
}

// RevokeToken revokes subjectToken.
func RevokeToken(subjectToken string) (*openstack.Descriptor, error) {
	err := openstack.RequireID("subject token", subjectToken)
	if err != nil {
		return nil, err
	}

	return openstack.NewDescriptor(openstack.ServiceIdentity, http.MethodDelete, "auth/tokens").
		Header(constants.SubjectTokenHeader, subjectToken).
		Build()
}
