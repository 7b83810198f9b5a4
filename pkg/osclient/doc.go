// Package osclient provides the primary entry point for constructing an
// OpenStack session that implements the openstack.Client interface.
//
// It layers configuration, HTTP transport, Keystone authentication, catalog
// lookup and microversion discovery on top of the endpoint descriptors
// defined by the service packages under pkg/openstack. Most applications
// build a session with New and pass it to openstack.Query, openstack.Paged
// and openstack.Find.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/ostack/pkg/openstack"
//	  "github.com/fivetwenty-io/ostack/pkg/openstack/compute"
//	  "github.com/fivetwenty-io/ostack/pkg/osclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Password authentication, scoped to a project:
//	  cli, err := osclient.New(ctx, &openstack.Config{
//	    AuthURL:     "https://keystone.example.com/v3",
//	    Username:    "demo",
//	    Password:    "secret",
//	    ProjectName: "demo",
//	    Region:      "RegionOne",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with an application credential:
//	  cli, err = osclient.NewWithApplicationCredential(ctx,
//	    "https://keystone.example.com", "app-cred-id", "app-cred-secret")
//	  if err != nil { log.Fatal(err) }
//
//	  flavors, err := openstack.Paged[compute.Flavor](ctx, cli,
//	    compute.ListFlavors(compute.ListFlavorsOpts{}), openstack.All())
//	  if err != nil { log.Fatal(err) }
//	  _ = flavors
//	}
//
// # Tokens
//
// New authenticates immediately. Afterwards the session renews its token when
// it is about to expire (Config.ExpiryLookAhead, 30 seconds by default) and
// re-authenticates once when a request is answered with 401. WithInitialAuth
// and WithStatePersister let a caller reuse tokens across process runs.
//
// # TLS and development mode
//
// For local development, you can set Config.SkipTLSVerify=true. This is gated by
// the environment variable OSTACK_DEV_MODE to avoid accidental insecure usage in
// production environments.
//
// # Helpers
//
// The package also provides convenience constructors NewWithToken,
// NewWithPassword and NewWithApplicationCredential that wrap New with the
// appropriate configuration.
package osclient
