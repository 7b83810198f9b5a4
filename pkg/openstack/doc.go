// Package openstack is the shared runtime of the OpenStack client: endpoint
// descriptors, query execution, marker pagination, lookup by name or ID and
// the authentication state carried by a session.
//
// # Overview
//
// Each REST operation is an Endpoint. The service packages (compute, network,
// image, ...) build them with NewDescriptor and return immutable values; this
// package executes them against a Client. A concrete Client, which resolves
// service types through the Keystone catalog and authenticates requests, is
// provided by the osclient package.
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
//	  cli, err := osclient.New(ctx, &openstack.Config{
//	    AuthURL:  "https://keystone.example.com/v3",
//	    Username: "demo", Password: "secret", ProjectName: "demo",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  servers, err := openstack.Paged[compute.Server](ctx, cli, compute.ListServers(compute.ListServersOpts{}), openstack.All())
//	  if err != nil { log.Fatal(err) }
//	  _ = servers
//	}
//
// # Executing endpoints
//
// Query decodes a JSON result, unwrapping the endpoint's response key.
// QueryRaw returns the raw response for binary payloads and Ignore discards
// the result. Non-2xx responses become *OpenStackError when the body has the
// usual {"<kind>": {"message": ...}} shape, *UnrecognizedError for other JSON
// and *ServerError otherwise.
//
// # Pagination
//
// Paged collects items across pages for a Pageable endpoint, following the
// marker taken from the last item of each page. Limit(n) stops after n
// items. PageIterator is the lazy form.
//
//	it := openstack.NewPageIterator[image.Image](ctx, cli, image.ListImages(image.ListImagesOpts{}), openstack.Limit(50))
//	for img, err := range it.Items() {
//	  if err != nil { return err }
//	  fmt.Println(img.Name)
//	}
//
// # Lookup
//
// Find accepts a name or an ID. Input that looks like an ID is fetched
// directly, falling back to a name search on 404; FindByName requires exactly
// one exact match.
//
// # Concurrency
//
// Calls block until done and honor context cancellation. Run independent
// calls on goroutines, or hand a set of endpoints to BatchExecutor.
package openstack
